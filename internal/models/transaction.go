package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategorySource records which tier of the rule cascade assigned a
// transaction's category. Override always wins over automatic sources.
type CategorySource string

const (
	CategorySourceOverride  CategorySource = "override"
	CategorySourceMerchant  CategorySource = "merchant"
	CategorySourcePattern   CategorySource = "pattern"
	CategorySourceKeyword   CategorySource = "keyword"
	CategorySourceMCC       CategorySource = "mcc"
	CategorySourceHeuristic CategorySource = "heuristic"
	CategorySourceNone      CategorySource = "none"
)

// Transaction is a canonical ledger record. Its primary key is the
// deduplication fingerprint: a pure function of account, booking date,
// rounded amount, and normalized description, so re-importing the same
// source data never creates a duplicate row.
type Transaction struct {
	ID        string `gorm:"primaryKey" json:"id"`
	AccountID string `gorm:"type:uuid;not null;index" json:"account_id"`

	BookingDate time.Time  `gorm:"not null;index" json:"booking_date"`
	ValueDate   *time.Time `json:"value_date,omitempty"`

	// Amount is signed: negative for expenses, positive for income.
	Amount   decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"amount"`
	Currency string          `gorm:"not null" json:"currency"`

	// NormalizedAmount is the amount converted into the account's home
	// currency. Nil until a rate is available; retried lazily on read.
	NormalizedAmount *decimal.Decimal `gorm:"type:decimal(20,6)" json:"normalized_amount,omitempty"`

	Counterparty string `json:"counterparty"`
	Description  string `json:"description"`
	MCC          string `json:"mcc,omitempty"`

	Category       string         `gorm:"index" json:"category"`
	CategorySource CategorySource `gorm:"not null;default:'none'" json:"category_source"`

	// RawRow keeps the source row as JSON for audit.
	RawRow string `json:"raw_row,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Account Account `gorm:"foreignKey:AccountID" json:"account,omitempty"`
}

// IsExpense reports whether the transaction is money going out.
func (t *Transaction) IsExpense() bool {
	return t.Amount.IsNegative()
}
