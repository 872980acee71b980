package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"moneta/internal/fingerprint"
	"moneta/internal/models"
)

var fixtureCounter int64

func nextSuffix() int64 {
	return atomic.AddInt64(&fixtureCounter, 1)
}

// CreateAccount inserts an account with a unique name.
func CreateAccount(t *testing.T, db *gorm.DB, currency string) *models.Account {
	t.Helper()
	account := &models.Account{
		Name:     fmt.Sprintf("Test Account %d", nextSuffix()),
		Currency: currency,
		Source:   models.AccountSourceImport,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create account fixture: %v", err)
	}
	return account
}

// CreateTransaction inserts a ledger transaction with its real fingerprint
// as the primary key.
func CreateTransaction(t *testing.T, db *gorm.DB, account *models.Account, date time.Time, amount, description string) *models.Transaction {
	t.Helper()
	amt := decimal.RequireFromString(amount)
	tx := &models.Transaction{
		ID:             fingerprint.Compute(account.ID, date, amt, description),
		AccountID:      account.ID,
		BookingDate:    date,
		Amount:         amt,
		Currency:       account.Currency,
		Description:    description,
		CategorySource: models.CategorySourceNone,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create transaction fixture: %v", err)
	}
	return tx
}

// CreateCategorizedTransaction inserts a transaction pre-assigned to a
// category, as if the rule cascade had already run.
func CreateCategorizedTransaction(t *testing.T, db *gorm.DB, account *models.Account, date time.Time, amount, description, category string) *models.Transaction {
	t.Helper()
	tx := CreateTransaction(t, db, account, date, amount, description)
	tx.Category = category
	tx.CategorySource = models.CategorySourceKeyword
	if err := db.Save(tx).Error; err != nil {
		t.Fatalf("failed to categorize transaction fixture: %v", err)
	}
	return tx
}

// CreateBudget inserts a monthly budget for a category.
func CreateBudget(t *testing.T, db *gorm.DB, category, limit, currency string) *models.Budget {
	t.Helper()
	budget := &models.Budget{
		Category:     category,
		MonthlyLimit: decimal.RequireFromString(limit),
		Currency:     currency,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create budget fixture: %v", err)
	}
	return budget
}

// CreateSubscription inserts an active subscription.
func CreateSubscription(t *testing.T, db *gorm.DB, name, amount string, cycle models.BillingCycle) *models.Subscription {
	t.Helper()
	sub := &models.Subscription{
		Name:         name,
		Amount:       decimal.RequireFromString(amount),
		Currency:     "EUR",
		BillingCycle: cycle,
		Status:       models.SubscriptionStatusActive,
	}
	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("failed to create subscription fixture: %v", err)
	}
	return sub
}
