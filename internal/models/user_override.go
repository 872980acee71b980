package models

import "time"

// UserOverride pins a transaction to a user-chosen category. It is keyed
// by the transaction fingerprint, so it survives re-imports and re-runs of
// automatic categorization.
type UserOverride struct {
	TransactionID string    `gorm:"primaryKey" json:"transaction_id"`
	Category      string    `gorm:"not null" json:"category"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
