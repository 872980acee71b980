package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "moneta/internal/errors"
	"moneta/internal/services"
)

// AnomalyHandler handles spending anomaly requests.
type AnomalyHandler struct {
	anomalyService services.AnomalyServicer
}

// NewAnomalyHandler creates a new AnomalyHandler.
func NewAnomalyHandler(anomalyService services.AnomalyServicer) *AnomalyHandler {
	return &AnomalyHandler{anomalyService: anomalyService}
}

// refPeriod builds the reference time from optional year/month query
// parameters. Both empty means the current period.
func refPeriod(c *gin.Context) (time.Time, error) {
	rawYear, rawMonth := c.Query("year"), c.Query("month")
	if rawYear == "" && rawMonth == "" {
		return time.Time{}, nil
	}
	if rawYear == "" || rawMonth == "" {
		return time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "year and month must be given together")
	}
	year, err := strconv.Atoi(rawYear)
	if err != nil || year < 1970 || year > 9999 {
		return time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid year")
	}
	month, err := strconv.Atoi(rawMonth)
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid month")
	}
	return time.Date(year, time.Month(month), 15, 0, 0, 0, 0, time.UTC), nil
}

// GetAnomalies handles detecting anomalies across the whole ledger.
// @Summary     Get spending anomalies
// @Description Compare a period's category spend against the recent baseline
// @Tags        anomalies
// @Produce     json
// @Security    BearerAuth
// @Param       year  query int false "Reference year (with month; default current period)"
// @Param       month query int false "Reference month 1-12"
// @Success     200 {object} map[string][]anomaly.Flag "Anomaly flags"
// @Router      /anomalies [get]
func (h *AnomalyHandler) GetAnomalies(c *gin.Context) {
	ref, err := refPeriod(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	flags, err := h.anomalyService.DetectAnomalies("", ref)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"anomalies": flags})
}

// GetAccountAnomalies handles detecting anomalies for a single account.
// @Summary     Get account anomalies
// @Description Anomaly flags restricted to one account's spending
// @Tags        anomalies
// @Produce     json
// @Security    BearerAuth
// @Param       id    path  string true  "Account ID"
// @Param       year  query int    false "Reference year (with month; default current period)"
// @Param       month query int    false "Reference month 1-12"
// @Success     200 {object} map[string][]anomaly.Flag "Anomaly flags"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id}/anomalies [get]
func (h *AnomalyHandler) GetAccountAnomalies(c *gin.Context) {
	accountID, err := parsePathUUID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	ref, err := refPeriod(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	flags, err := h.anomalyService.DetectAnomalies(accountID, ref)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"anomalies": flags})
}
