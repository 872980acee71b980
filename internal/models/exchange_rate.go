package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate caches one (base, quote, date) rate. Rates for historical
// dates never expire; rates fetched for the current date are fresh for the
// configured TTL and refetched after that.
type ExchangeRate struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Base      string          `gorm:"not null;uniqueIndex:idx_rate_key" json:"base"`
	Quote     string          `gorm:"not null;uniqueIndex:idx_rate_key" json:"quote"`
	Date      string          `gorm:"not null;uniqueIndex:idx_rate_key" json:"date"`
	Rate      decimal.Decimal `gorm:"type:decimal(20,10);not null" json:"rate"`
	FetchedAt time.Time       `gorm:"not null" json:"fetched_at"`
}
