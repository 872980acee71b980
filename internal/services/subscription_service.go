package services

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/pagination"
	"moneta/internal/recurring"
)

// subscriptionService handles subscription tracking and detection.
type subscriptionService struct {
	db       *gorm.DB
	detector *recurring.Detector
}

// NewSubscriptionService creates a new SubscriptionServicer.
func NewSubscriptionService(db *gorm.DB, detector *recurring.Detector) SubscriptionServicer {
	return &subscriptionService{db: db, detector: detector}
}

func validCycle(cycle models.BillingCycle) bool {
	switch cycle {
	case models.BillingCycleWeekly, models.BillingCycleMonthly,
		models.BillingCycleQuarterly, models.BillingCycleYearly:
		return true
	}
	return false
}

// CreateSubscription adds a manually tracked subscription.
func (s *subscriptionService) CreateSubscription(name string, amount decimal.Decimal, currency string, cycle models.BillingCycle, merchantPattern string) (*models.Subscription, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "subscription name is required")
	}
	if !amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be positive")
	}
	if !validCycle(cycle) {
		return nil, apperrors.ErrInvalidBillingCycle
	}
	if currency == "" {
		currency = "EUR"
	}

	sub := &models.Subscription{
		Name:            name,
		Amount:          amount,
		Currency:        strings.ToUpper(currency),
		BillingCycle:    cycle,
		Status:          models.SubscriptionStatusActive,
		MerchantPattern: merchantPattern,
	}
	if err := s.db.Create(sub).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return sub, nil
}

// GetSubscriptions lists subscriptions, paginated.
func (s *subscriptionService) GetSubscriptions(page pagination.PageRequest) (*pagination.PageResponse[models.Subscription], error) {
	page.Defaults()

	var total int64
	if err := s.db.Model(&models.Subscription{}).Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var subs []models.Subscription
	err := s.db.Order("amount DESC").
		Scopes(pagination.Paginate(page)).
		Find(&subs).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(subs, page.Page, page.PageSize, total)
	return &resp, nil
}

// GetSubscriptionByID returns one subscription.
func (s *subscriptionService) GetSubscriptionByID(id string) (*models.Subscription, error) {
	return s.find(id)
}

// UpdateSubscription changes the amount and/or billing cycle.
func (s *subscriptionService) UpdateSubscription(id string, amount *decimal.Decimal, cycle *models.BillingCycle) (*models.Subscription, error) {
	sub, err := s.find(id)
	if err != nil {
		return nil, err
	}
	if amount != nil {
		if !amount.IsPositive() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be positive")
		}
		sub.Amount = *amount
	}
	if cycle != nil {
		if !validCycle(*cycle) {
			return nil, apperrors.ErrInvalidBillingCycle
		}
		sub.BillingCycle = *cycle
	}
	if err := s.db.Save(sub).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return sub, nil
}

// DeleteSubscription removes a subscription.
func (s *subscriptionService) DeleteSubscription(id string) error {
	sub, err := s.find(id)
	if err != nil {
		return err
	}
	if err := s.db.Delete(sub).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// PauseSubscription excludes a subscription from recurring totals while
// keeping its history.
func (s *subscriptionService) PauseSubscription(id string) (*models.Subscription, error) {
	return s.setStatus(id, models.SubscriptionStatusPaused)
}

// ResumeSubscription reactivates a paused subscription.
func (s *subscriptionService) ResumeSubscription(id string) (*models.Subscription, error) {
	return s.setStatus(id, models.SubscriptionStatusActive)
}

func (s *subscriptionService) setStatus(id string, status models.SubscriptionStatus) (*models.Subscription, error) {
	sub, err := s.find(id)
	if err != nil {
		return nil, err
	}
	sub.Status = status
	if err := s.db.Save(sub).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return sub, nil
}

// DetectCandidates proposes subscriptions from the last months of expense
// history. Merchants already tracked are excluded; nothing is persisted.
func (s *subscriptionService) DetectCandidates(months int) ([]recurring.Candidate, error) {
	if months <= 0 {
		months = 6
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -months*30)

	var txs []models.Transaction
	err := s.db.
		Where("amount < 0 AND booking_date >= ?", cutoff).
		Order("booking_date ASC").
		Find(&txs).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var subs []models.Subscription
	if err := s.db.Find(&subs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	tracked := make(map[string]bool, len(subs))
	for _, sub := range subs {
		if sub.MerchantPattern != "" {
			tracked[sub.MerchantPattern] = true
		}
	}

	return s.detector.Detect(txs, tracked), nil
}

// AcceptCandidate persists a detection candidate as a tracked subscription.
func (s *subscriptionService) AcceptCandidate(candidate recurring.Candidate) (*models.Subscription, error) {
	if !validCycle(candidate.BillingCycle) {
		return nil, apperrors.ErrInvalidBillingCycle
	}
	confidence := candidate.Confidence
	sub := &models.Subscription{
		Name:            candidate.Name,
		Amount:          candidate.Amount,
		Currency:        candidate.Currency,
		BillingCycle:    candidate.BillingCycle,
		Status:          models.SubscriptionStatusActive,
		MerchantPattern: candidate.MerchantPattern,
		Confidence:      &confidence,
	}
	if err := s.db.Create(sub).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return sub, nil
}

// GetRecurringTotals sums the active subscription load as monthly and
// yearly equivalents.
func (s *subscriptionService) GetRecurringTotals() (*RecurringTotals, error) {
	var subs []models.Subscription
	if err := s.db.Find(&subs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	totals := &RecurringTotals{}
	for i := range subs {
		if subs[i].Status != models.SubscriptionStatusActive {
			totals.PausedCount++
			continue
		}
		totals.ActiveCount++
		totals.MonthlyTotal = totals.MonthlyTotal.Add(subs[i].MonthlyEquivalent())
	}
	totals.MonthlyTotal = totals.MonthlyTotal.Round(2)
	totals.YearlyTotal = totals.MonthlyTotal.Mul(decimal.NewFromInt(12)).Round(2)
	return totals, nil
}

func (s *subscriptionService) find(id string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := s.db.First(&sub, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSubscriptionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &sub, nil
}
