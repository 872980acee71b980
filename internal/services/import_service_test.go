package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"moneta/internal/categorize"
	"moneta/internal/currency"
	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/testutil"
)

type stubProvider struct {
	rate decimal.Decimal
	err  error
}

func (p *stubProvider) FetchRate(ctx context.Context, base, quote string, date time.Time) (decimal.Decimal, error) {
	if p.err != nil {
		return decimal.Zero, p.err
	}
	return p.rate, nil
}

func newTestImportService(t *testing.T, db *gorm.DB, provider currency.RateProvider) ImportServicer {
	t.Helper()
	engine, err := categorize.NewEngine(categorize.Default(), categorize.DefaultHeuristics())
	if err != nil {
		t.Fatalf("failed to compile rule set: %v", err)
	}
	if provider == nil {
		provider = &stubProvider{rate: decimal.NewFromInt(1)}
	}
	converter := currency.NewConverter(db, provider, 24*time.Hour)
	return NewImportService(db, engine, converter)
}

const sparkasseStatement = "Buchungstag;Verwendungszweck;Betrag;Waehrung\n" +
	"01.02.2024;MIGROS FILIALE 12;-42,50;EUR\n" +
	"02.02.2024;GEHALT FEBRUAR;3.200,00;EUR\n" +
	"03.02.2024;NETFLIX.COM;-17,99;EUR\n"

func TestImportStatement(t *testing.T) {
	ctx := context.Background()

	t.Run("imports categorized and normalized transactions", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := newTestImportService(t, db, nil)
		account := testutil.CreateAccount(t, db, "EUR")

		summary, err := svc.ImportStatement(ctx, account.ID, []byte(sparkasseStatement), "")
		testutil.AssertNoError(t, err)

		if summary.Format != "sparkasse-de" {
			t.Errorf("expected sparkasse-de, got %s", summary.Format)
		}
		if summary.Imported != 3 || summary.Duplicates != 0 || summary.Failed != 0 {
			t.Errorf("unexpected summary %+v", summary)
		}
		if summary.BatchID == "" {
			t.Error("expected a batch ID")
		}

		var tx models.Transaction
		testutil.AssertNoError(t, db.Where("description LIKE ?", "MIGROS%").First(&tx).Error)
		if tx.Category != "groceries" || tx.CategorySource != models.CategorySourceKeyword {
			t.Errorf("expected groceries/keyword, got %s/%s", tx.Category, tx.CategorySource)
		}
		if tx.NormalizedAmount == nil || !tx.NormalizedAmount.Equal(decimal.RequireFromString("-42.50")) {
			t.Errorf("expected normalized -42.50, got %v", tx.NormalizedAmount)
		}
	})

	t.Run("re-import is idempotent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := newTestImportService(t, db, nil)
		account := testutil.CreateAccount(t, db, "EUR")

		_, err := svc.ImportStatement(ctx, account.ID, []byte(sparkasseStatement), "")
		testutil.AssertNoError(t, err)

		summary, err := svc.ImportStatement(ctx, account.ID, []byte(sparkasseStatement), "")
		testutil.AssertNoError(t, err)
		if summary.Imported != 0 || summary.Duplicates != 3 {
			t.Errorf("expected 0 imported / 3 duplicates, got %d/%d", summary.Imported, summary.Duplicates)
		}

		var count int64
		db.Model(&models.Transaction{}).Count(&count)
		if count != 3 {
			t.Errorf("expected 3 ledger rows after re-import, got %d", count)
		}
	})

	t.Run("overlapping files only add new rows", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := newTestImportService(t, db, nil)
		account := testutil.CreateAccount(t, db, "EUR")

		_, err := svc.ImportStatement(ctx, account.ID, []byte(sparkasseStatement), "")
		testutil.AssertNoError(t, err)

		overlapping := sparkasseStatement +
			"04.02.2024;SBB EASYRIDE;-7,20;EUR\n"
		summary, err := svc.ImportStatement(ctx, account.ID, []byte(overlapping), "")
		testutil.AssertNoError(t, err)
		if summary.Imported != 1 || summary.Duplicates != 3 {
			t.Errorf("expected 1 imported / 3 duplicates, got %d/%d", summary.Imported, summary.Duplicates)
		}
	})

	t.Run("bad rows are counted but do not block siblings", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := newTestImportService(t, db, nil)
		account := testutil.CreateAccount(t, db, "EUR")

		statement := "Buchungstag;Verwendungszweck;Betrag;Waehrung\n" +
			"01.02.2024;COOP PRONTO;-12,00;EUR\n" +
			"garbage;BROKEN;-1,00;EUR\n"
		summary, err := svc.ImportStatement(ctx, account.ID, []byte(statement), "")
		testutil.AssertNoError(t, err)
		if summary.Imported != 1 || summary.Failed != 1 {
			t.Errorf("expected 1 imported / 1 failed, got %d/%d", summary.Imported, summary.Failed)
		}
		if len(summary.RowErrors) != 1 {
			t.Fatalf("expected 1 row error, got %d", len(summary.RowErrors))
		}
	})

	t.Run("missing rate defers normalization", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := newTestImportService(t, db, &stubProvider{err: fmt.Errorf("provider down")})
		account := testutil.CreateAccount(t, db, "EUR")

		statement := "Started Date,Description,Amount,Currency\n" +
			"2024-02-01 10:00:00,Coffee Zurich,-5.40,CHF\n"
		summary, err := svc.ImportStatement(ctx, account.ID, []byte(statement), "")
		testutil.AssertNoError(t, err)
		if summary.Imported != 1 {
			t.Fatalf("expected 1 imported, got %d", summary.Imported)
		}

		var tx models.Transaction
		testutil.AssertNoError(t, db.First(&tx).Error)
		if tx.NormalizedAmount != nil {
			t.Errorf("expected deferred normalization, got %v", tx.NormalizedAmount)
		}
		if tx.Currency != "CHF" {
			t.Errorf("expected CHF, got %s", tx.Currency)
		}
	})

	t.Run("override survives delete and re-import", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := newTestImportService(t, db, nil)
		account := testutil.CreateAccount(t, db, "EUR")

		_, err := svc.ImportStatement(ctx, account.ID, []byte(sparkasseStatement), "")
		testutil.AssertNoError(t, err)

		var tx models.Transaction
		testutil.AssertNoError(t, db.Where("description LIKE ?", "MIGROS%").First(&tx).Error)
		testutil.AssertNoError(t, db.Create(&models.UserOverride{TransactionID: tx.ID, Category: "dining"}).Error)
		testutil.AssertNoError(t, db.Delete(&models.Transaction{}, "id = ?", tx.ID).Error)

		_, err = svc.ImportStatement(ctx, account.ID, []byte(sparkasseStatement), "")
		testutil.AssertNoError(t, err)

		testutil.AssertNoError(t, db.First(&tx, "id = ?", tx.ID).Error)
		if tx.Category != "dining" || tx.CategorySource != models.CategorySourceOverride {
			t.Errorf("expected override to win, got %s/%s", tx.Category, tx.CategorySource)
		}
	})

	t.Run("unknown account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := newTestImportService(t, db, nil)
		_, err := svc.ImportStatement(ctx, "no-such-account", []byte(sparkasseStatement), "")
		testutil.AssertAppError(t, err, apperrors.ErrAccountNotFound)
	})

	t.Run("unrecognized format", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := newTestImportService(t, db, nil)
		account := testutil.CreateAccount(t, db, "EUR")
		_, err := svc.ImportStatement(ctx, account.ID, []byte("foo,bar\n1,2\n"), "")
		testutil.AssertAppError(t, err, apperrors.ErrUnrecognizedFormat)
	})

	t.Run("records batch history", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := newTestImportService(t, db, nil)
		account := testutil.CreateAccount(t, db, "EUR")

		_, err := svc.ImportStatement(ctx, account.ID, []byte(sparkasseStatement), "")
		testutil.AssertNoError(t, err)
		_, err = svc.ImportStatement(ctx, account.ID, []byte(sparkasseStatement), "")
		testutil.AssertNoError(t, err)

		batches, err := svc.GetBatches(account.ID, pageReq(1, 10))
		testutil.AssertNoError(t, err)
		if batches.TotalItems != 2 {
			t.Fatalf("expected 2 batches, got %d", batches.TotalItems)
		}
	})
}

func TestImportParsed(t *testing.T) {
	ctx := context.Background()

	t.Run("sync rows enter after parsing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := newTestImportService(t, db, nil)
		account := testutil.CreateAccount(t, db, "EUR")

		rows := parsedRows("SPOTIFY AB", "-9.99", time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC))
		summary, err := svc.ImportParsed(ctx, account.ID, rows)
		testutil.AssertNoError(t, err)
		if summary.Format != "sync" || summary.Imported != 1 {
			t.Errorf("unexpected summary %+v", summary)
		}

		// Same rows again dedupe exactly like a file import.
		summary, err = svc.ImportParsed(ctx, account.ID, rows)
		testutil.AssertNoError(t, err)
		if summary.Duplicates != 1 || summary.Imported != 0 {
			t.Errorf("expected full dedup, got %+v", summary)
		}
	})

	t.Run("empty payload is rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := newTestImportService(t, db, nil)
		account := testutil.CreateAccount(t, db, "EUR")
		_, err := svc.ImportParsed(ctx, account.ID, nil)
		testutil.AssertAppError(t, err, apperrors.ErrEmptyImport)
	})
}
