package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"moneta/internal/anomaly"
	"moneta/internal/importer"
	"moneta/internal/models"
	"moneta/internal/pagination"
	"moneta/internal/recurring"
)

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	CreateAccount(name, currency string, source models.AccountSource) (*models.Account, error)
	GetAccounts(page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	GetAccountByID(id string) (*models.Account, error)
	UpdateAccount(id, name string) (*models.Account, error)
	DeleteAccount(id string) error
}

// ImportSummary reports the outcome of one statement import.
type ImportSummary struct {
	BatchID    string              `json:"batch_id"`
	Format     string              `json:"format"`
	Rows       int                 `json:"rows"`
	Imported   int                 `json:"imported"`
	Duplicates int                 `json:"duplicates"`
	Failed     int                 `json:"failed"`
	RowErrors  []importer.RowError `json:"row_errors,omitempty"`
}

// ImportServicer defines the contract for the statement import pipeline.
type ImportServicer interface {
	// ImportStatement runs the full pipeline on a raw file: detection,
	// parsing, dedup, categorization, normalization, and batch commit.
	ImportStatement(ctx context.Context, accountID string, raw []byte, formatHint string) (*ImportSummary, error)
	// ImportParsed ingests rows an external collaborator already parsed,
	// entering the pipeline after the parsing stage.
	ImportParsed(ctx context.Context, accountID string, rows []importer.ParsedRow) (*ImportSummary, error)
	GetBatches(accountID string, page pagination.PageRequest) (*pagination.PageResponse[models.ImportBatch], error)
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	AccountID *string
	Category  *string
	FromDate  *time.Time
	ToDate    *time.Time
}

// CategoryComparison compares one category's spend in a month against the
// month before it.
type CategoryComparison struct {
	Category      string          `json:"category"`
	Month         string          `json:"month"`
	Spent         decimal.Decimal `json:"spent"`
	PreviousSpent decimal.Decimal `json:"previous_spent"`
	Change        decimal.Decimal `json:"change"`
	// ChangePct is nil when the previous month had no spend.
	ChangePct *float64 `json:"change_pct,omitempty"`
}

// TransactionServicer defines the contract for ledger reads and category
// management.
type TransactionServicer interface {
	GetTransactions(ctx context.Context, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(ctx context.Context, id string) (*models.Transaction, error)
	OverrideCategory(id, category string) (*models.Transaction, error)
	ClearOverride(id string) (*models.Transaction, error)
	// Recategorize re-runs the rule cascade across the ledger. Overridden
	// transactions are left untouched.
	Recategorize() (int64, error)
	AddMerchantRule(merchant, category string) (int64, error)
	// GetSpendingComparison reports per-category spend for the given month
	// (YYYY-MM, empty means current) next to the month before it.
	GetSpendingComparison(month string) ([]CategoryComparison, error)
}

// BudgetStatus buckets budget consumption.
type BudgetStatus string

const (
	BudgetStatusUnder BudgetStatus = "under"
	BudgetStatusNear  BudgetStatus = "near"
	BudgetStatusOver  BudgetStatus = "over"
)

// BudgetProgress contains spending vs budget data for one category in one
// month. Always derived from the ledger, never stored.
type BudgetProgress struct {
	BudgetID   string          `json:"budget_id"`
	Category   string          `json:"category"`
	Month      string          `json:"month"`
	Limit      decimal.Decimal `json:"limit"`
	Spent      decimal.Decimal `json:"spent"`
	Remaining  decimal.Decimal `json:"remaining"`
	Percentage float64         `json:"percentage"`
	Status     BudgetStatus    `json:"status"`
}

// BudgetServicer defines the contract for budget management.
type BudgetServicer interface {
	CreateBudget(category string, monthlyLimit decimal.Decimal, currency string) (*models.Budget, error)
	GetBudgets(page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error)
	UpdateBudget(id string, monthlyLimit decimal.Decimal) (*models.Budget, error)
	DeleteBudget(id string) error
	// GetProgress computes consumption for every budget in the given month
	// (YYYY-MM, empty means the current month).
	GetProgress(month string) ([]BudgetProgress, error)
}

// RecurringTotals summarizes the active subscription load.
type RecurringTotals struct {
	MonthlyTotal decimal.Decimal `json:"monthly_total"`
	YearlyTotal  decimal.Decimal `json:"yearly_total"`
	ActiveCount  int             `json:"active_count"`
	PausedCount  int             `json:"paused_count"`
}

// SubscriptionServicer defines the contract for subscription tracking and
// detection.
type SubscriptionServicer interface {
	CreateSubscription(name string, amount decimal.Decimal, currency string, cycle models.BillingCycle, merchantPattern string) (*models.Subscription, error)
	GetSubscriptions(page pagination.PageRequest) (*pagination.PageResponse[models.Subscription], error)
	GetSubscriptionByID(id string) (*models.Subscription, error)
	UpdateSubscription(id string, amount *decimal.Decimal, cycle *models.BillingCycle) (*models.Subscription, error)
	DeleteSubscription(id string) error
	PauseSubscription(id string) (*models.Subscription, error)
	ResumeSubscription(id string) (*models.Subscription, error)
	// DetectCandidates proposes subscriptions from recent charge history
	// without persisting anything.
	DetectCandidates(months int) ([]recurring.Candidate, error)
	AcceptCandidate(candidate recurring.Candidate) (*models.Subscription, error)
	GetRecurringTotals() (*RecurringTotals, error)
}

// AnomalyServicer defines the contract for spending anomaly detection.
type AnomalyServicer interface {
	// DetectAnomalies recomputes flags for the period containing ref (zero
	// means now), optionally restricted to one account.
	DetectAnomalies(accountID string, ref time.Time) ([]anomaly.Flag, error)
}
