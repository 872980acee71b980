package importer

import (
	goerrors "errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"moneta/internal/bankformat"
	"moneta/internal/errors"
)

func detect(t *testing.T, raw []byte, hint string) *bankformat.Detection {
	t.Helper()
	det, err := bankformat.Detect(raw, hint)
	if err != nil {
		t.Fatalf("detection failed: %v", err)
	}
	return det
}

func TestParse(t *testing.T) {
	t.Run("parses german decimal-comma rows", func(t *testing.T) {
		raw := []byte("Buchungstag;Verwendungszweck;Betrag;Waehrung\n" +
			"01.02.2024;REWE SAGT DANKE;-1.042,50;EUR\n" +
			"02.02.2024;GEHALT FEBRUAR;3.200,00;EUR\n")
		rows, rowErrs, err := Parse(raw, detect(t, raw, ""), "EUR")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rowErrs) != 0 {
			t.Fatalf("unexpected row errors: %+v", rowErrs)
		}
		if len(rows) != 2 {
			t.Fatalf("expected 2 rows, got %d", len(rows))
		}
		if !rows[0].Amount.Equal(decimal.RequireFromString("-1042.50")) {
			t.Errorf("expected -1042.50, got %s", rows[0].Amount)
		}
		want := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
		if !rows[0].BookingDate.Equal(want) {
			t.Errorf("expected %s, got %s", want, rows[0].BookingDate)
		}
		if rows[1].Currency != "EUR" {
			t.Errorf("expected EUR, got %s", rows[1].Currency)
		}
	})

	t.Run("collects bad rows without failing the batch", func(t *testing.T) {
		raw := []byte("Buchungstag;Verwendungszweck;Betrag;Waehrung\n" +
			"01.02.2024;OK ROW;-10,00;EUR\n" +
			"notadate;BAD DATE;-10,00;EUR\n" +
			"03.02.2024;BAD AMOUNT;whatever;EUR\n")
		rows, rowErrs, err := Parse(raw, detect(t, raw, ""), "EUR")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rows) != 1 {
			t.Fatalf("expected 1 good row, got %d", len(rows))
		}
		if len(rowErrs) != 2 {
			t.Fatalf("expected 2 row errors, got %d", len(rowErrs))
		}
		for _, re := range rowErrs {
			if re.Code != errors.ErrRowParse.Code {
				t.Errorf("expected ROW_PARSE, got %s", re.Code)
			}
			if re.Line == 0 {
				t.Error("row error missing line number")
			}
		}
	})

	t.Run("rejects two-digit years as ambiguous", func(t *testing.T) {
		raw := []byte("Buchungstag;Verwendungszweck;Betrag;Waehrung\n" +
			"01.02.24;MYSTERY YEAR;-10,00;EUR\n" +
			"01.02.2024;FINE;-10,00;EUR\n")
		rows, rowErrs, err := Parse(raw, detect(t, raw, ""), "EUR")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rows) != 1 {
			t.Fatalf("expected 1 good row, got %d", len(rows))
		}
		if len(rowErrs) != 1 || rowErrs[0].Code != errors.ErrAmbiguousDate.Code {
			t.Fatalf("expected one AMBIGUOUS_DATE error, got %+v", rowErrs)
		}
	})

	t.Run("reads split debit and credit columns", func(t *testing.T) {
		raw := []byte("Transaction Date,Transaction Description,Debit Amount,Credit Amount\n" +
			"15/03/2024,TESCO STORES,42.50,\n" +
			"16/03/2024,SALARY,,2500.00\n" +
			"17/03/2024,NOTHING,,\n")
		rows, rowErrs, err := Parse(raw, detect(t, raw, ""), "GBP")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rows) != 2 {
			t.Fatalf("expected 2 rows, got %d", len(rows))
		}
		if !rows[0].Amount.Equal(decimal.RequireFromString("-42.50")) {
			t.Errorf("debit should be negative, got %s", rows[0].Amount)
		}
		if !rows[1].Amount.Equal(decimal.RequireFromString("2500.00")) {
			t.Errorf("credit should be positive, got %s", rows[1].Amount)
		}
		if len(rowErrs) != 1 {
			t.Fatalf("expected 1 row error for the empty amount row, got %d", len(rowErrs))
		}
	})

	t.Run("row currency column overrides account currency", func(t *testing.T) {
		raw := []byte("Started Date,Description,Amount,Currency\n" +
			"2024-03-15 10:30:00,Coffee in Zurich,-5.40,CHF\n" +
			"2024-03-16 09:00:00,Groceries,-20.00,\n")
		rows, _, err := Parse(raw, detect(t, raw, ""), "EUR")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rows[0].Currency != "CHF" {
			t.Errorf("expected CHF from the row, got %s", rows[0].Currency)
		}
		if rows[1].Currency != "EUR" {
			t.Errorf("expected account fallback EUR, got %s", rows[1].Currency)
		}
	})

	t.Run("fails on header-only payload", func(t *testing.T) {
		raw := []byte("Buchungstag;Verwendungszweck;Betrag;Waehrung\n")
		_, _, err := Parse(raw, detect(t, raw, ""), "EUR")
		var appErr *errors.AppError
		if !goerrors.As(err, &appErr) || appErr.Code != errors.ErrEmptyImport.Code {
			t.Fatalf("expected EMPTY_IMPORT, got %v", err)
		}
	})
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in           string
		decimalComma bool
		want         string
	}{
		{"-1.042,50", true, "-1042.50"},
		{"3.200,00", true, "3200.00"},
		{"1,234.56", false, "1234.56"},
		{"1'234.56", false, "1234.56"},
		{"42,50", false, "42.50"},
		{"1,234", false, "1234"},
		{"(42.50)", false, "-42.50"},
		{"42.50 DR", false, "-42.50"},
		{"42.50 CR", false, "42.50"},
		{"+17.80", false, "17.80"},
		{"€ -9.99", false, "-9.99"},
	}
	for _, c := range cases {
		got, err := ParseAmount(c.in, c.decimalComma)
		if err != nil {
			t.Errorf("ParseAmount(%q): unexpected error %v", c.in, err)
			continue
		}
		if !got.Equal(decimal.RequireFromString(c.want)) {
			t.Errorf("ParseAmount(%q) = %s, want %s", c.in, got, c.want)
		}
	}

	t.Run("rejects garbage", func(t *testing.T) {
		for _, in := range []string{"", "   ", "abc", "--"} {
			if _, err := ParseAmount(in, false); err == nil {
				t.Errorf("ParseAmount(%q) should fail", in)
			}
		}
	})
}

func TestParseDate(t *testing.T) {
	layouts := []string{"2006-01-02", "02.01.2006"}

	t.Run("tries layouts in order", func(t *testing.T) {
		got, err := ParseDate("15.03.2024", layouts)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Day() != 15 || got.Month() != time.March {
			t.Errorf("got %s", got)
		}
	})

	t.Run("flags two-digit years", func(t *testing.T) {
		_, err := ParseDate("15.03.24", layouts)
		if err == nil || !isAmbiguousDate(err) {
			t.Fatalf("expected ambiguous date error, got %v", err)
		}
	})

	t.Run("plain failure for nonsense", func(t *testing.T) {
		_, err := ParseDate("yesterday", layouts)
		if err == nil || isAmbiguousDate(err) {
			t.Fatalf("expected plain parse error, got %v", err)
		}
	})
}
