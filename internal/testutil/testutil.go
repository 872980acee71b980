// Package testutil provides shared helpers for service and pipeline tests.
package testutil

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
)

var dbCounter int64

// SetupTestDB creates an isolated in-memory SQLite database with the full
// schema migrated. Each call gets its own database so tests can run in
// parallel.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", atomic.AddInt64(&dbCounter, 1))
	db, err := gorm.Open(sqlite.Open(name), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get underlying DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.Account{},
		&models.ImportBatch{},
		&models.Transaction{},
		&models.UserOverride{},
		&models.Budget{},
		&models.Subscription{},
		&models.ExchangeRate{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db
}

// AssertNoError fails the test if err is non-nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertAppError fails the test unless err is an AppError carrying the same
// code as the sentinel.
func AssertAppError(t *testing.T, err error, sentinel *apperrors.AppError) {
	t.Helper()
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError with code %s, got %v", sentinel.Code, err)
	}
	if appErr.Code != sentinel.Code {
		t.Fatalf("expected error code %s, got %s", sentinel.Code, appErr.Code)
	}
}
