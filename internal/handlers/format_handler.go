package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"moneta/internal/bankformat"
)

// FormatHandler exposes the supported bank statement formats.
type FormatHandler struct{}

// NewFormatHandler creates a new FormatHandler.
func NewFormatHandler() *FormatHandler {
	return &FormatHandler{}
}

// formatInfo is the public shape of one registered schema.
type formatInfo struct {
	Key     string `json:"key"`
	Name    string `json:"name"`
	Country string `json:"country,omitempty"`
}

// GetFormats handles listing all supported statement formats.
// @Summary     Get supported formats
// @Description List the bank statement schemas the import pipeline recognizes
// @Tags        formats
// @Produce     json
// @Success     200 {object} map[string][]formatInfo "Supported formats"
// @Router      /formats [get]
func (h *FormatHandler) GetFormats(c *gin.Context) {
	keys := bankformat.Keys()
	formats := make([]formatInfo, 0, len(keys))
	for _, key := range keys {
		schema, ok := bankformat.Lookup(key)
		if !ok {
			continue
		}
		formats = append(formats, formatInfo{Key: schema.Key, Name: schema.Name, Country: schema.Country})
	}

	c.JSON(http.StatusOK, gin.H{"formats": formats})
}
