package categorize

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"moneta/internal/models"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(Default(), DefaultHeuristics())
	if err != nil {
		t.Fatalf("failed to compile default rule set: %v", err)
	}
	return e
}

func expense(amount string) decimal.Decimal {
	return decimal.RequireFromString(amount).Neg()
}

func TestCategorize(t *testing.T) {
	e := newTestEngine(t)
	saturday := time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC)
	tuesday := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)

	t.Run("keyword matching", func(t *testing.T) {
		cat, src := e.Categorize(Input{Description: "MIGROS M ZUERICH", Amount: expense("54.20"), BookingDate: tuesday})
		if cat != "groceries" || src != models.CategorySourceKeyword {
			t.Errorf("got %s/%s, want groceries/keyword", cat, src)
		}
	})

	t.Run("pattern matching", func(t *testing.T) {
		cat, src := e.Categorize(Input{Description: "APPLE.COM/BILL CUPERTINO", Amount: expense("2.99"), BookingDate: tuesday})
		if cat != "subscriptions" || src != models.CategorySourcePattern {
			t.Errorf("got %s/%s, want subscriptions/pattern", cat, src)
		}
	})

	t.Run("declaration order breaks ties", func(t *testing.T) {
		// "coop restaurant" matches both groceries (coop) and dining
		// (restaurant); groceries is declared first.
		cat, _ := e.Categorize(Input{Description: "COOP RESTAURANT ZUERICH", Amount: expense("18.00"), BookingDate: tuesday})
		if cat != "groceries" {
			t.Errorf("got %s, want groceries", cat)
		}
	})

	t.Run("merchant match beats earlier keyword rules", func(t *testing.T) {
		rs := Default()
		if err := rs.AddMerchantRule("Coop Restaurant Zuerich", "dining"); err != nil {
			t.Fatalf("AddMerchantRule failed: %v", err)
		}
		e2, err := NewEngine(rs, DefaultHeuristics())
		if err != nil {
			t.Fatalf("compile failed: %v", err)
		}
		cat, src := e2.Categorize(Input{Description: "COOP  RESTAURANT  ZUERICH", Amount: expense("18.00"), BookingDate: tuesday})
		if cat != "dining" || src != models.CategorySourceMerchant {
			t.Errorf("got %s/%s, want dining/merchant", cat, src)
		}
	})

	t.Run("mcc mapping applies when no rule matches", func(t *testing.T) {
		cat, src := e.Categorize(Input{Description: "CARD PURCHASE 1234", MCC: "5411", Amount: expense("33.10"), BookingDate: tuesday})
		if cat != "groceries" || src != models.CategorySourceMCC {
			t.Errorf("got %s/%s, want groceries/mcc", cat, src)
		}
	})

	t.Run("amount heuristics", func(t *testing.T) {
		cases := []struct {
			name   string
			in     Input
			want   string
			source models.CategorySource
		}{
			{"large credit is income", Input{Description: "XYZ GMBH", Amount: decimal.RequireFromString("4200.00"), BookingDate: tuesday}, CategoryIncome, models.CategorySourceHeuristic},
			{"small credit is a transfer", Input{Description: "FROM ALICE", Amount: decimal.RequireFromString("40.00"), BookingDate: tuesday}, CategoryTransfers, models.CategorySourceHeuristic},
			{"tiny fee-like debit is utilities", Input{Description: "CARD FEE", Amount: expense("2.00"), BookingDate: tuesday}, "utilities", models.CategorySourceHeuristic},
			{"tiny debit is a subscription", Input{Description: "ACME 123", Amount: expense("1.99"), BookingDate: tuesday}, "subscriptions", models.CategorySourceHeuristic},
			{"large debit is housing", Input{Description: "ZAHLUNG 99", Amount: expense("1850.00"), BookingDate: tuesday}, "housing", models.CategorySourceHeuristic},
			{"weekend mid-range debit is dining", Input{Description: "UNKNOWN 55", Amount: expense("85.00"), BookingDate: saturday}, "dining", models.CategorySourceHeuristic},
			{"weekday mid-range debit falls through", Input{Description: "UNKNOWN 55", Amount: expense("85.00"), BookingDate: tuesday}, CategoryOther, models.CategorySourceNone},
		}
		for _, c := range cases {
			t.Run(c.name, func(t *testing.T) {
				cat, src := e.Categorize(c.in)
				if cat != c.want || src != c.source {
					t.Errorf("got %s/%s, want %s/%s", cat, src, c.want, c.source)
				}
			})
		}
	})

	t.Run("is deterministic", func(t *testing.T) {
		in := Input{Description: "SBB EASYRIDE", Amount: expense("7.20"), BookingDate: tuesday}
		first, _ := e.Categorize(in)
		for i := 0; i < 10; i++ {
			if cat, _ := e.Categorize(in); cat != first {
				t.Fatalf("categorization not deterministic: %s vs %s", cat, first)
			}
		}
	})
}

func TestRuleSet(t *testing.T) {
	t.Run("add merchant rule to unknown category fails", func(t *testing.T) {
		rs := Default()
		if err := rs.AddMerchantRule("Some Shop", "no-such-category"); err == nil {
			t.Fatal("expected error for unknown category")
		}
	})

	t.Run("add merchant rule is idempotent", func(t *testing.T) {
		rs := Default()
		if err := rs.AddMerchantRule("Some Shop", "shopping"); err != nil {
			t.Fatal(err)
		}
		if err := rs.AddMerchantRule("some  shop", "shopping"); err != nil {
			t.Fatal(err)
		}
		var merchants []string
		for _, r := range rs.Rules {
			if r.Name == "shopping" {
				merchants = r.Merchants
			}
		}
		if len(merchants) != 1 {
			t.Errorf("expected 1 merchant, got %d", len(merchants))
		}
	})

	t.Run("categories include heuristic targets", func(t *testing.T) {
		rs := Default()
		for _, want := range []string{"groceries", CategoryIncome, CategoryOther} {
			if !rs.HasCategory(want) {
				t.Errorf("missing category %s", want)
			}
		}
		if rs.HasCategory("bogus") {
			t.Error("unexpected category bogus")
		}
	})

	t.Run("save and reload round-trips rule order", func(t *testing.T) {
		rs := Default()
		path := filepath.Join(t.TempDir(), "rules.json")
		if err := rs.Save(path); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		loaded, err := LoadFile(path)
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if len(loaded.Rules) != len(rs.Rules) {
			t.Fatalf("expected %d rules, got %d", len(rs.Rules), len(loaded.Rules))
		}
		for i := range rs.Rules {
			if loaded.Rules[i].Name != rs.Rules[i].Name {
				t.Errorf("rule %d: got %s, want %s", i, loaded.Rules[i].Name, rs.Rules[i].Name)
			}
		}
	})

	t.Run("invalid pattern fails compilation", func(t *testing.T) {
		rs := &RuleSet{Rules: []Rule{{Name: "bad", Patterns: []string{"("}}}}
		if _, err := NewEngine(rs, DefaultHeuristics()); err == nil {
			t.Fatal("expected compile error")
		}
	})
}
