package models

import "github.com/shopspring/decimal"

// BillingCycle is how often a subscription charges.
type BillingCycle string

const (
	BillingCycleWeekly    BillingCycle = "weekly"
	BillingCycleMonthly   BillingCycle = "monthly"
	BillingCycleQuarterly BillingCycle = "quarterly"
	BillingCycleYearly    BillingCycle = "yearly"
)

// SubscriptionStatus is the lifecycle state of a tracked subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusActive SubscriptionStatus = "active"
	SubscriptionStatusPaused SubscriptionStatus = "paused"
)

// Subscription is a recurring payment the user tracks. Created manually or
// by accepting a detection candidate; paused subscriptions are excluded
// from recurring-cost totals but kept for history.
type Subscription struct {
	Base
	Name            string             `gorm:"not null" json:"name"`
	Amount          decimal.Decimal    `gorm:"type:decimal(20,6);not null" json:"amount"`
	Currency        string             `gorm:"not null" json:"currency"`
	BillingCycle    BillingCycle       `gorm:"not null" json:"billing_cycle"`
	Status          SubscriptionStatus `gorm:"not null;default:'active'" json:"status"`
	MerchantPattern string             `json:"merchant_pattern,omitempty"`

	// Confidence is set when the subscription was accepted from detection.
	Confidence *float64 `json:"confidence,omitempty"`
}

// MonthlyEquivalent converts the subscription amount to a per-month figure.
func (s *Subscription) MonthlyEquivalent() decimal.Decimal {
	switch s.BillingCycle {
	case BillingCycleWeekly:
		return s.Amount.Mul(decimal.NewFromInt(52)).Div(decimal.NewFromInt(12)).Round(2)
	case BillingCycleQuarterly:
		return s.Amount.Div(decimal.NewFromInt(3)).Round(2)
	case BillingCycleYearly:
		return s.Amount.Div(decimal.NewFromInt(12)).Round(2)
	default:
		return s.Amount
	}
}
