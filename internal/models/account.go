package models

// AccountSource records where an account's transactions come from.
type AccountSource string

const (
	// AccountSourceImport marks accounts fed by manual statement imports.
	AccountSourceImport AccountSource = "import"
	// AccountSourceSync marks accounts fed by an external sync collaborator.
	AccountSourceSync AccountSource = "sync"
)

// Account represents a bank account whose transactions live in the ledger.
// Currency is the account's home currency: normalized amounts and budget
// aggregates for this account are expressed in it.
type Account struct {
	Base
	Name     string        `gorm:"not null;uniqueIndex" json:"name"`
	Currency string        `gorm:"not null;default:'EUR'" json:"currency"`
	Source   AccountSource `gorm:"not null;default:'import'" json:"source"`

	// Relationships
	Transactions  []Transaction `gorm:"foreignKey:AccountID" json:"transactions,omitempty"`
	ImportBatches []ImportBatch `gorm:"foreignKey:AccountID" json:"import_batches,omitempty"`
}
