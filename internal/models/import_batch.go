package models

// ImportBatch is the audit record of a single import operation.
// It is written once at batch commit and never updated.
type ImportBatch struct {
	Base
	AccountID  string `gorm:"type:uuid;not null;index" json:"account_id"`
	Format     string `gorm:"not null" json:"format"`
	Rows       int    `gorm:"not null" json:"rows"`
	Imported   int    `gorm:"not null" json:"imported"`
	Duplicates int    `gorm:"not null" json:"duplicates"`
	Failed     int    `gorm:"not null" json:"failed"`

	Account Account `gorm:"foreignKey:AccountID" json:"account,omitempty"`
}
