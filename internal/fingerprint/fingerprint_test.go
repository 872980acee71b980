package fingerprint

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestCompute(t *testing.T) {
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	t.Run("is deterministic", func(t *testing.T) {
		a := Compute("acc-1", date, decimal.NewFromFloat(-42.50), "REWE SAGT DANKE")
		b := Compute("acc-1", date, decimal.NewFromFloat(-42.50), "REWE SAGT DANKE")
		if a != b {
			t.Errorf("same inputs produced different fingerprints: %s vs %s", a, b)
		}
		if len(a) != 64 {
			t.Errorf("expected 64 hex chars, got %d", len(a))
		}
	})

	t.Run("ignores description casing and padding", func(t *testing.T) {
		a := Compute("acc-1", date, decimal.NewFromFloat(-42.50), "REWE  SAGT   DANKE ")
		b := Compute("acc-1", date, decimal.NewFromFloat(-42.50), "rewe sagt danke")
		if a != b {
			t.Error("cosmetic description differences changed the fingerprint")
		}
	})

	t.Run("ignores punctuation", func(t *testing.T) {
		a := Compute("acc-1", date, decimal.NewFromFloat(-42.50), "MIGROS, ZURICH")
		b := Compute("acc-1", date, decimal.NewFromFloat(-42.50), "MIGROS ZURICH")
		if a != b {
			t.Error("punctuation changed the fingerprint")
		}
	})

	t.Run("rounds amounts to cents", func(t *testing.T) {
		a := Compute("acc-1", date, decimal.RequireFromString("-42.5"), "coffee")
		b := Compute("acc-1", date, decimal.RequireFromString("-42.500"), "coffee")
		if a != b {
			t.Error("equal amounts with different scale changed the fingerprint")
		}
	})

	t.Run("differs across accounts dates amounts and descriptions", func(t *testing.T) {
		base := Compute("acc-1", date, decimal.NewFromFloat(-42.50), "coffee")
		variants := []string{
			Compute("acc-2", date, decimal.NewFromFloat(-42.50), "coffee"),
			Compute("acc-1", date.AddDate(0, 0, 1), decimal.NewFromFloat(-42.50), "coffee"),
			Compute("acc-1", date, decimal.NewFromFloat(-42.51), "coffee"),
			Compute("acc-1", date, decimal.NewFromFloat(-42.50), "tea"),
		}
		for i, v := range variants {
			if v == base {
				t.Errorf("variant %d collided with base fingerprint", i)
			}
		}
	})
}

func TestNormalizeDescription(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"  Spotify   AB  ", "spotify ab"},
		{"UBER\t*EATS", "uber eats"},
		{"MIGROS, ZURICH", "migros zurich"},
		{"NETFLIX.COM", "netflix com"},
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizeDescription(c.in); got != c.want {
			t.Errorf("NormalizeDescription(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
