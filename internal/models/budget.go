package models

import "github.com/shopspring/decimal"

// Budget sets a monthly spending limit for a category. Progress is always
// computed from the ledger, never stored.
type Budget struct {
	Base
	Category     string          `gorm:"not null;uniqueIndex" json:"category"`
	MonthlyLimit decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"monthly_limit"`
	Currency     string          `gorm:"not null" json:"currency"`
}
