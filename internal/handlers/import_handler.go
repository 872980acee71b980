package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "moneta/internal/errors"
	"moneta/internal/importer"
	"moneta/internal/pagination"
	"moneta/internal/services"
)

// maxStatementSize caps uploaded statement payloads at 10 MiB.
const maxStatementSize = 10 << 20

// ImportHandler handles statement import requests.
type ImportHandler struct {
	importService services.ImportServicer
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(importService services.ImportServicer) *ImportHandler {
	return &ImportHandler{importService: importService}
}

// ImportStatement handles a CSV statement upload.
// @Summary     Import a statement
// @Description Upload a CSV bank statement and run the full import pipeline
// @Tags        imports
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       id     path     string true  "Account ID"
// @Param       file   formData file   true  "Statement file"
// @Param       format query    string false "Format hint (schema key, e.g. sparkasse-de)"
// @Success     200 {object} services.ImportSummary "Import summary"
// @Failure     400 {object} ErrorResponse "Invalid input or empty file"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     422 {object} ErrorResponse "Unrecognized statement format"
// @Router      /accounts/{id}/imports [post]
func (h *ImportHandler) ImportStatement(c *gin.Context) {
	accountID, err := parsePathUUID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	raw, err := readStatement(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.importService.ImportStatement(c.Request.Context(), accountID, raw, c.Query("format"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// readStatement extracts the statement bytes from either a multipart "file"
// field or the raw request body.
func readStatement(c *gin.Context) ([]byte, error) {
	if file, err := c.FormFile("file"); err == nil {
		if file.Size > maxStatementSize {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Statement file too large")
		}
		f, err := file.Open()
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInvalidInput, err)
		}
		defer f.Close()
		return io.ReadAll(f)
	}

	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxStatementSize))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, err)
	}
	return raw, nil
}

// GetImportBatches handles listing an account's import history.
// @Summary     Get import history
// @Description Get a paginated list of import batches for an account
// @Tags        imports
// @Produce     json
// @Security    BearerAuth
// @Param       id        path  string true  "Account ID"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.ImportBatch] "Paginated batches"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id}/imports [get]
func (h *ImportHandler) GetImportBatches(c *gin.Context) {
	accountID, err := parsePathUUID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.importService.GetBatches(accountID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// SyncRow is one pre-parsed row pushed by the sync collaborator.
type SyncRow struct {
	BookingDate time.Time       `json:"booking_date" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Currency    string          `json:"currency" binding:"omitempty,iso4217"`
	Description string          `json:"description" binding:"required"`
}

// SyncRowsRequest represents the sync pipeline payload.
type SyncRowsRequest struct {
	Rows []SyncRow `json:"rows" binding:"required,dive"`
}

// ImportSyncRows ingests rows an external collaborator already parsed. The
// rows enter the pipeline past the parsing stage and share the dedup,
// categorization, and normalization path with file imports.
// @Summary     Ingest pre-parsed rows
// @Description Push already-parsed transaction rows into the import pipeline
// @Tags        imports
// @Accept      json
// @Produce     json
// @Param       id      path string          true "Account ID"
// @Param       request body SyncRowsRequest true "Parsed rows"
// @Success     200 {object} services.ImportSummary "Import summary"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /pipeline/accounts/{id}/rows [post]
func (h *ImportHandler) ImportSyncRows(c *gin.Context) {
	accountID, err := parsePathUUID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SyncRowsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	rows := make([]importer.ParsedRow, 0, len(req.Rows))
	for i, r := range req.Rows {
		rows = append(rows, importer.ParsedRow{
			Line:        i + 1,
			BookingDate: r.BookingDate,
			Amount:      r.Amount,
			Currency:    r.Currency,
			Description: r.Description,
		})
	}

	summary, err := h.importService.ImportParsed(c.Request.Context(), accountID, rows)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
