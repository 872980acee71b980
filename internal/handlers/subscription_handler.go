package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/pagination"
	"moneta/internal/recurring"
	"moneta/internal/services"
)

// SubscriptionHandler handles subscription tracking requests.
type SubscriptionHandler struct {
	subscriptionService services.SubscriptionServicer
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(subscriptionService services.SubscriptionServicer) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService}
}

// CreateSubscriptionRequest represents the request payload for creating a subscription.
type CreateSubscriptionRequest struct {
	Name            string          `json:"name" binding:"required,min=1,max=100"`
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	Currency        string          `json:"currency" binding:"omitempty,iso4217"`
	BillingCycle    string          `json:"billing_cycle" binding:"required,billing_cycle"`
	MerchantPattern string          `json:"merchant_pattern" binding:"omitempty,max=100"`
}

// UpdateSubscriptionRequest represents the request payload for updating a subscription.
type UpdateSubscriptionRequest struct {
	Amount       *decimal.Decimal `json:"amount"`
	BillingCycle *string          `json:"billing_cycle" binding:"omitempty,billing_cycle"`
}

// AcceptCandidateRequest represents a detection candidate being accepted.
type AcceptCandidateRequest struct {
	Name            string          `json:"name" binding:"required,min=1,max=100"`
	MerchantPattern string          `json:"merchant_pattern" binding:"required,max=100"`
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	Currency        string          `json:"currency" binding:"omitempty,iso4217"`
	BillingCycle    string          `json:"billing_cycle" binding:"required,billing_cycle"`
	Confidence      float64         `json:"confidence" binding:"omitempty,min=0,max=1"`
}

// CreateSubscription handles manually tracking a subscription.
// @Summary     Create a subscription
// @Description Track a recurring payment manually
// @Tags        subscriptions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateSubscriptionRequest true "Subscription details"
// @Success     201 {object} models.Subscription "Subscription created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /subscriptions [post]
func (h *SubscriptionHandler) CreateSubscription(c *gin.Context) {
	var req CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	sub, err := h.subscriptionService.CreateSubscription(
		req.Name, req.Amount, req.Currency, models.BillingCycle(req.BillingCycle), req.MerchantPattern,
	)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"subscription": sub})
}

// GetSubscriptions handles listing subscriptions.
// @Summary     Get subscriptions
// @Description Get a paginated list of tracked subscriptions
// @Tags        subscriptions
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Subscription] "Paginated subscriptions"
// @Router      /subscriptions [get]
func (h *SubscriptionHandler) GetSubscriptions(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.subscriptionService.GetSubscriptions(page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// UpdateSubscription handles changing a subscription's amount or cycle.
// @Summary     Update subscription
// @Description Change a tracked subscription's amount or billing cycle
// @Tags        subscriptions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                    true "Subscription ID"
// @Param       request body UpdateSubscriptionRequest true "Changes"
// @Success     200 {object} models.Subscription "Updated subscription"
// @Failure     404 {object} ErrorResponse "Subscription not found"
// @Router      /subscriptions/{id} [put]
func (h *SubscriptionHandler) UpdateSubscription(c *gin.Context) {
	id, err := parsePathUUID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var cycle *models.BillingCycle
	if req.BillingCycle != nil {
		bc := models.BillingCycle(*req.BillingCycle)
		cycle = &bc
	}

	sub, err := h.subscriptionService.UpdateSubscription(id, req.Amount, cycle)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}

// DeleteSubscription handles removing a subscription.
// @Summary     Delete subscription
// @Description Stop tracking a subscription
// @Tags        subscriptions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Subscription ID"
// @Success     204 "Subscription deleted"
// @Failure     404 {object} ErrorResponse "Subscription not found"
// @Router      /subscriptions/{id} [delete]
func (h *SubscriptionHandler) DeleteSubscription(c *gin.Context) {
	id, err := parsePathUUID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.subscriptionService.DeleteSubscription(id); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// PauseSubscription handles pausing a subscription.
// @Summary     Pause subscription
// @Description Pause a subscription; it is kept but excluded from totals
// @Tags        subscriptions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Subscription ID"
// @Success     200 {object} models.Subscription "Paused subscription"
// @Failure     404 {object} ErrorResponse "Subscription not found"
// @Router      /subscriptions/{id}/pause [post]
func (h *SubscriptionHandler) PauseSubscription(c *gin.Context) {
	id, err := parsePathUUID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	sub, err := h.subscriptionService.PauseSubscription(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}

// ResumeSubscription handles resuming a paused subscription.
// @Summary     Resume subscription
// @Description Resume a paused subscription
// @Tags        subscriptions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Subscription ID"
// @Success     200 {object} models.Subscription "Resumed subscription"
// @Failure     404 {object} ErrorResponse "Subscription not found"
// @Router      /subscriptions/{id}/resume [post]
func (h *SubscriptionHandler) ResumeSubscription(c *gin.Context) {
	id, err := parsePathUUID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	sub, err := h.subscriptionService.ResumeSubscription(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}

// GetDetectedCandidates handles proposing subscriptions from charge history.
// @Summary     Detect subscription candidates
// @Description Propose recurring charges not yet tracked; persists nothing
// @Tags        subscriptions
// @Produce     json
// @Security    BearerAuth
// @Param       months query int false "History window in months (default 6)"
// @Success     200 {object} map[string][]recurring.Candidate "Candidates"
// @Router      /subscriptions/detected [get]
func (h *SubscriptionHandler) GetDetectedCandidates(c *gin.Context) {
	months := 0
	if v := c.Query("months"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 60 {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "months must be between 1 and 60"))
			return
		}
		months = n
	}

	candidates, err := h.subscriptionService.DetectCandidates(months)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"candidates": candidates})
}

// AcceptCandidate handles turning a detection candidate into a tracked subscription.
// @Summary     Accept a candidate
// @Description Persist a detection candidate as a tracked subscription
// @Tags        subscriptions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body AcceptCandidateRequest true "Candidate"
// @Success     201 {object} models.Subscription "Subscription created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /subscriptions/detected [post]
func (h *SubscriptionHandler) AcceptCandidate(c *gin.Context) {
	var req AcceptCandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	sub, err := h.subscriptionService.AcceptCandidate(recurring.Candidate{
		Name:            req.Name,
		MerchantPattern: req.MerchantPattern,
		Amount:          req.Amount,
		Currency:        req.Currency,
		BillingCycle:    models.BillingCycle(req.BillingCycle),
		Confidence:      req.Confidence,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"subscription": sub})
}

// GetRecurringTotals handles summarizing the recurring cost load.
// @Summary     Get recurring totals
// @Description Monthly and yearly totals across active subscriptions
// @Tags        subscriptions
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.RecurringTotals "Totals"
// @Router      /subscriptions/totals [get]
func (h *SubscriptionHandler) GetRecurringTotals(c *gin.Context) {
	totals, err := h.subscriptionService.GetRecurringTotals()
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, totals)
}
