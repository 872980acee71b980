package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/recurring"
	"moneta/internal/testutil"
)

func TestSubscriptionCRUD(t *testing.T) {
	t.Run("create and pause", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewSubscriptionService(db, recurring.NewDetector(2, 0.05))

		sub, err := svc.CreateSubscription("Netflix", decimal.RequireFromString("17.99"), "EUR", models.BillingCycleMonthly, "netflix")
		testutil.AssertNoError(t, err)
		if sub.Status != models.SubscriptionStatusActive {
			t.Errorf("expected active, got %s", sub.Status)
		}

		paused, err := svc.PauseSubscription(sub.ID)
		testutil.AssertNoError(t, err)
		if paused.Status != models.SubscriptionStatusPaused {
			t.Errorf("expected paused, got %s", paused.Status)
		}

		resumed, err := svc.ResumeSubscription(sub.ID)
		testutil.AssertNoError(t, err)
		if resumed.Status != models.SubscriptionStatusActive {
			t.Errorf("expected active, got %s", resumed.Status)
		}
	})

	t.Run("invalid billing cycle", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewSubscriptionService(db, recurring.NewDetector(2, 0.05))
		_, err := svc.CreateSubscription("X", decimal.NewFromInt(5), "EUR", "fortnightly", "")
		testutil.AssertAppError(t, err, apperrors.ErrInvalidBillingCycle)
	})

	t.Run("update amount and cycle", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewSubscriptionService(db, recurring.NewDetector(2, 0.05))
		sub := testutil.CreateSubscription(t, db, "Spotify", "9.99", models.BillingCycleMonthly)

		amount := decimal.RequireFromString("11.99")
		cycle := models.BillingCycleYearly
		got, err := svc.UpdateSubscription(sub.ID, &amount, &cycle)
		testutil.AssertNoError(t, err)
		if !got.Amount.Equal(amount) || got.BillingCycle != cycle {
			t.Errorf("update not applied: %+v", got)
		}
	})

	t.Run("missing subscription", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewSubscriptionService(db, recurring.NewDetector(2, 0.05))
		_, err := svc.GetSubscriptionByID("missing")
		testutil.AssertAppError(t, err, apperrors.ErrSubscriptionNotFound)
	})
}

func TestRecurringTotals(t *testing.T) {
	t.Run("paused subscriptions are excluded", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewSubscriptionService(db, recurring.NewDetector(2, 0.05))

		testutil.CreateSubscription(t, db, "Netflix", "17.99", models.BillingCycleMonthly)
		testutil.CreateSubscription(t, db, "Hosting", "120.00", models.BillingCycleYearly)
		paused := testutil.CreateSubscription(t, db, "Gym", "80.00", models.BillingCycleMonthly)
		_, err := svc.PauseSubscription(paused.ID)
		testutil.AssertNoError(t, err)

		totals, err := svc.GetRecurringTotals()
		testutil.AssertNoError(t, err)
		if totals.ActiveCount != 2 || totals.PausedCount != 1 {
			t.Errorf("expected 2 active / 1 paused, got %d/%d", totals.ActiveCount, totals.PausedCount)
		}
		// 17.99 + 120/12 = 27.99 per month.
		if !totals.MonthlyTotal.Equal(decimal.RequireFromString("27.99")) {
			t.Errorf("expected 27.99, got %s", totals.MonthlyTotal)
		}
		if !totals.YearlyTotal.Equal(decimal.RequireFromString("335.88")) {
			t.Errorf("expected 335.88, got %s", totals.YearlyTotal)
		}
	})
}

func TestDetectCandidates(t *testing.T) {
	t.Run("proposes untracked recurring charges", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewSubscriptionService(db, recurring.NewDetector(2, 0.05))
		account := testutil.CreateAccount(t, db, "EUR")

		start := time.Now().UTC().AddDate(0, -4, 0)
		for i := 0; i < 4; i++ {
			testutil.CreateTransaction(t, db, account, start.AddDate(0, 0, i*30), "-9.99", "SPOTIFY AB STOCKHOLM")
		}

		candidates, err := svc.DetectCandidates(6)
		testutil.AssertNoError(t, err)
		if len(candidates) != 1 {
			t.Fatalf("expected 1 candidate, got %d", len(candidates))
		}
		if candidates[0].Name != "Spotify" {
			t.Errorf("expected Spotify, got %s", candidates[0].Name)
		}

		// Nothing was persisted by detection alone.
		var count int64
		db.Model(&models.Subscription{}).Count(&count)
		if count != 0 {
			t.Errorf("detection must not persist, found %d subscriptions", count)
		}
	})

	t.Run("tracked merchants are not proposed again", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewSubscriptionService(db, recurring.NewDetector(2, 0.05))
		account := testutil.CreateAccount(t, db, "EUR")

		start := time.Now().UTC().AddDate(0, -4, 0)
		for i := 0; i < 4; i++ {
			testutil.CreateTransaction(t, db, account, start.AddDate(0, 0, i*30), "-9.99", "SPOTIFY AB STOCKHOLM")
		}

		candidates, err := svc.DetectCandidates(6)
		testutil.AssertNoError(t, err)
		_, err = svc.AcceptCandidate(candidates[0])
		testutil.AssertNoError(t, err)

		candidates, err = svc.DetectCandidates(6)
		testutil.AssertNoError(t, err)
		if len(candidates) != 0 {
			t.Errorf("accepted merchant should not be re-proposed, got %+v", candidates)
		}
	})

	t.Run("accept candidate keeps confidence", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewSubscriptionService(db, recurring.NewDetector(2, 0.05))

		sub, err := svc.AcceptCandidate(recurring.Candidate{
			Name:            "Netflix",
			MerchantPattern: "netflix",
			Amount:          decimal.RequireFromString("17.99"),
			Currency:        "EUR",
			BillingCycle:    models.BillingCycleMonthly,
			Confidence:      0.9,
		})
		testutil.AssertNoError(t, err)
		if sub.Confidence == nil || *sub.Confidence != 0.9 {
			t.Errorf("expected confidence 0.9, got %v", sub.Confidence)
		}
	})
}
