package services

import (
	"testing"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/testutil"
)

func TestCreateAccount(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewAccountService(db)

		account, err := svc.CreateAccount("Checking", "chf", "")
		testutil.AssertNoError(t, err)
		if account.ID == "" {
			t.Fatal("expected an account ID")
		}
		if account.Currency != "CHF" {
			t.Errorf("expected CHF, got %s", account.Currency)
		}
		if account.Source != models.AccountSourceImport {
			t.Errorf("expected import source, got %s", account.Source)
		}
	})

	t.Run("empty name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewAccountService(db)
		_, err := svc.CreateAccount("", "EUR", "")
		testutil.AssertAppError(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("duplicate name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewAccountService(db)
		_, err := svc.CreateAccount("Checking", "EUR", "")
		testutil.AssertNoError(t, err)
		_, err = svc.CreateAccount("Checking", "EUR", "")
		testutil.AssertAppError(t, err, apperrors.ErrDuplicateName)
	})
}

func TestGetAccounts(t *testing.T) {
	t.Run("paginated listing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewAccountService(db)
		for _, name := range []string{"A", "B", "C"} {
			_, err := svc.CreateAccount(name, "EUR", "")
			testutil.AssertNoError(t, err)
		}

		resp, err := svc.GetAccounts(pageReq(1, 2))
		testutil.AssertNoError(t, err)
		if resp.TotalItems != 3 || len(resp.Data) != 2 || resp.TotalPages != 2 {
			t.Errorf("unexpected page: total=%d len=%d pages=%d", resp.TotalItems, len(resp.Data), resp.TotalPages)
		}
	})
}

func TestDeleteAccount(t *testing.T) {
	t.Run("soft delete hides the account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewAccountService(db)
		account, err := svc.CreateAccount("Old", "EUR", "")
		testutil.AssertNoError(t, err)

		testutil.AssertNoError(t, svc.DeleteAccount(account.ID))

		_, err = svc.GetAccountByID(account.ID)
		testutil.AssertAppError(t, err, apperrors.ErrAccountNotFound)

		// Row still exists for history.
		var count int64
		db.Unscoped().Model(&models.Account{}).Where("id = ?", account.ID).Count(&count)
		if count != 1 {
			t.Errorf("expected soft-deleted row to remain, got %d", count)
		}
	})

	t.Run("missing account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewAccountService(db)
		testutil.AssertAppError(t, svc.DeleteAccount("missing"), apperrors.ErrAccountNotFound)
	})
}
