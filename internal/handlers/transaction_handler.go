package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "moneta/internal/errors"
	"moneta/internal/pagination"
	"moneta/internal/services"
)

// TransactionHandler handles ledger reads and category management.
type TransactionHandler struct {
	transactionService services.TransactionServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// OverrideCategoryRequest represents the request payload for a category override.
type OverrideCategoryRequest struct {
	Category string `json:"category" binding:"required,min=1,max=50"`
}

// MerchantRuleRequest represents the request payload for a new merchant rule.
type MerchantRuleRequest struct {
	Merchant string `json:"merchant" binding:"required,min=1,max=100"`
	Category string `json:"category" binding:"required,min=1,max=50"`
}

// GetAccountTransactions handles listing an account's transactions.
// @Summary     Get account transactions
// @Description Get a paginated list of transactions with optional category and date filters
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id        path  string true  "Account ID"
// @Param       category  query string false "Filter by category"
// @Param       from      query string false "Start date (YYYY-MM-DD, inclusive)"
// @Param       to        query string false "End date (YYYY-MM-DD, inclusive)"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id}/transactions [get]
func (h *TransactionHandler) GetAccountTransactions(c *gin.Context) {
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

	filter := services.TransactionFilter{AccountID: &accountID}
	if v := c.Query("category"); v != "" {
		filter.Category = &v
	}
	if v := c.Query("from"); v != "" {
		from, err := time.Parse("2006-01-02", v)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "from must be YYYY-MM-DD"))
			return
		}
		filter.FromDate = &from
	}
	if v := c.Query("to"); v != "" {
		to, err := time.Parse("2006-01-02", v)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "to must be YYYY-MM-DD"))
			return
		}
		// Inclusive end of day.
		to = to.Add(24*time.Hour - time.Nanosecond)
		filter.ToDate = &to
	}

	result, err := h.transactionService.GetTransactions(c.Request.Context(), page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTransactionByID handles retrieving a single transaction.
// @Summary     Get transaction by ID
// @Description Get a single ledger transaction by fingerprint
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction fingerprint"
// @Success     200 {object} models.Transaction "Transaction details"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransactionByID(c *gin.Context) {
	id, err := transactionID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	tx, err := h.transactionService.GetTransactionByID(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

// OverrideCategory handles pinning a transaction to a user-chosen category.
// @Summary     Override category
// @Description Pin a transaction to a category; the override survives re-imports
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                  true "Transaction fingerprint"
// @Param       request body OverrideCategoryRequest true "Category"
// @Success     200 {object} models.Transaction "Updated transaction"
// @Failure     400 {object} ErrorResponse "Unknown category"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id}/category [put]
func (h *TransactionHandler) OverrideCategory(c *gin.Context) {
	id, err := transactionID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req OverrideCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	tx, err := h.transactionService.OverrideCategory(id, req.Category)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

// ClearOverride handles removing a category override.
// @Summary     Clear category override
// @Description Remove a user override and re-run automatic categorization
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction fingerprint"
// @Success     200 {object} models.Transaction "Recategorized transaction"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id}/category [delete]
func (h *TransactionHandler) ClearOverride(c *gin.Context) {
	id, err := transactionID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	tx, err := h.transactionService.ClearOverride(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

// Recategorize handles re-running the rule cascade across the ledger.
// @Summary     Recategorize ledger
// @Description Re-run automatic categorization; overrides stay untouched
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]int64 "Changed row count"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/recategorize [post]
func (h *TransactionHandler) Recategorize(c *gin.Context) {
	changed, err := h.transactionService.Recategorize()
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"changed": changed})
}

// GetSpendingComparison handles the month-over-month spending report.
// @Summary     Get spending comparison
// @Description Per-category spend for a month next to the month before it
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       month query string false "Month (YYYY-MM, default current)"
// @Success     200 {object} map[string][]services.CategoryComparison "Comparison per category"
// @Failure     400 {object} ErrorResponse "Invalid month"
// @Router      /reports/spending [get]
func (h *TransactionHandler) GetSpendingComparison(c *gin.Context) {
	comparison, err := h.transactionService.GetSpendingComparison(c.Query("month"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comparison": comparison})
}

// AddMerchantRule handles adding an exact merchant rule to the rule set.
// @Summary     Add merchant rule
// @Description Map a merchant to a category and recategorize immediately
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body MerchantRuleRequest true "Merchant rule"
// @Success     200 {object} map[string]int64 "Changed row count"
// @Failure     400 {object} ErrorResponse "Unknown category"
// @Router      /rules/merchants [post]
func (h *TransactionHandler) AddMerchantRule(c *gin.Context) {
	var req MerchantRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	changed, err := h.transactionService.AddMerchantRule(req.Merchant, req.Category)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"changed": changed})
}
