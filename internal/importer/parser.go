// Package importer turns a detected bank statement payload into parsed rows.
// Parsing is row-isolated: a malformed row is recorded as a RowError and its
// siblings continue through the pipeline.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"moneta/internal/bankformat"
	"moneta/internal/errors"
)

// ParsedRow is one statement line with all fields normalized: signed decimal
// amount, parsed booking date, and an uppercase ISO 4217 currency.
type ParsedRow struct {
	Line        int
	BookingDate time.Time
	Amount      decimal.Decimal
	Currency    string
	Description string
	Raw         string
}

// RowError records why a single row was rejected without failing the batch.
type RowError struct {
	Line    int    `json:"line"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Raw     string `json:"raw"`
}

// Parse reads every data row of the payload under the detected schema.
// The returned error is batch-fatal (unreadable payload or no data rows);
// per-row failures come back in the RowError slice instead.
func Parse(raw []byte, det *bankformat.Detection, accountCurrency string) ([]ParsedRow, []RowError, error) {
	content := bankformat.DecodeHeader(raw)

	r := csv.NewReader(strings.NewReader(content))
	r.Comma = det.Delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	// Skip the header line that detection already consumed.
	if _, err := r.Read(); err != nil {
		return nil, nil, errors.Wrap(errors.ErrEmptyImport, err)
	}

	var rows []ParsedRow
	var rowErrs []RowError
	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			rowErrs = append(rowErrs, rowError(line, errors.ErrRowParse, err.Error(), ""))
			continue
		}
		if isBlank(record) {
			continue
		}
		row, rerr := parseRecord(record, line, det, accountCurrency)
		if rerr != nil {
			rowErrs = append(rowErrs, *rerr)
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 && len(rowErrs) == 0 {
		return nil, nil, errors.ErrEmptyImport
	}
	return rows, rowErrs, nil
}

func parseRecord(record []string, line int, det *bankformat.Detection, accountCurrency string) (ParsedRow, *RowError) {
	raw := strings.Join(record, string(det.Delimiter))
	cols := det.Columns

	dateStr, ok := cell(record, cols.Date)
	if !ok || dateStr == "" {
		return ParsedRow{}, ptr(rowError(line, errors.ErrRowParse, "missing date", raw))
	}
	bookingDate, err := ParseDate(dateStr, det.Schema.DateLayouts)
	if err != nil {
		code := errors.ErrRowParse
		if isAmbiguousDate(err) {
			code = errors.ErrAmbiguousDate
		}
		return ParsedRow{}, ptr(rowError(line, code, err.Error(), raw))
	}

	amount, err := recordAmount(record, det)
	if err != nil {
		return ParsedRow{}, ptr(rowError(line, errors.ErrRowParse, err.Error(), raw))
	}

	currency := accountCurrency
	if c, ok := cell(record, cols.Currency); ok && c != "" && len(c) == 3 {
		currency = strings.ToUpper(c)
	}

	description, _ := cell(record, cols.Description)

	return ParsedRow{
		Line:        line,
		BookingDate: bookingDate,
		Amount:      amount,
		Currency:    currency,
		Description: description,
		Raw:         raw,
	}, nil
}

// recordAmount reads the signed amount, either from a single amount column
// or from split debit/credit columns where debits become negative.
func recordAmount(record []string, det *bankformat.Detection) (decimal.Decimal, error) {
	cols := det.Columns
	if cols.Amount >= 0 {
		s, ok := cell(record, cols.Amount)
		if !ok || s == "" {
			return decimal.Zero, fmt.Errorf("missing amount")
		}
		return ParseAmount(s, det.Schema.DecimalComma)
	}

	debit, _ := cell(record, cols.Debit)
	credit, _ := cell(record, cols.Credit)
	switch {
	case debit != "":
		v, err := ParseAmount(debit, det.Schema.DecimalComma)
		if err != nil {
			return decimal.Zero, err
		}
		return v.Abs().Neg(), nil
	case credit != "":
		v, err := ParseAmount(credit, det.Schema.DecimalComma)
		if err != nil {
			return decimal.Zero, err
		}
		return v.Abs(), nil
	default:
		return decimal.Zero, fmt.Errorf("missing amount")
	}
}

var twoDigitYear = regexp.MustCompile(`^\d{1,2}[./-]\d{1,2}[./-]\d{2}$`)

type ambiguousDateError struct{ value string }

func (e ambiguousDateError) Error() string {
	return fmt.Sprintf("date %q has a two-digit year", e.value)
}

func isAmbiguousDate(err error) bool {
	_, ok := err.(ambiguousDateError)
	return ok
}

// ParseDate tries the schema's layouts in order. Dates that only match with
// a two-digit year are rejected rather than guessed: 01.02.03 could be three
// different days depending on the bank.
func ParseDate(s string, layouts []string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if twoDigitYear.MatchString(s) {
		return time.Time{}, ambiguousDateError{value: s}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// ParseAmount converts a bank-formatted amount string into a signed decimal.
// It understands thousands separators, decimal commas, trailing CR/DR
// markers, and accounting-style parentheses for negatives.
func ParseAmount(s string, decimalComma bool) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	upper := strings.ToUpper(s)
	if strings.HasSuffix(upper, "CR") {
		s = strings.TrimSpace(s[:len(s)-2])
	} else if strings.HasSuffix(upper, "DR") {
		negative = true
		s = strings.TrimSpace(s[:len(s)-2])
	}

	// Strip currency symbols and codes, keep sign and separators.
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-', r == '+':
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("unparseable amount %q", s)
	}

	cleaned = normalizeSeparators(cleaned, decimalComma)
	v, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unparseable amount %q", s)
	}
	if negative {
		v = v.Abs().Neg()
	}
	return v, nil
}

// normalizeSeparators rewrites the amount into dot-decimal form. When the
// schema does not fix a convention, a comma followed by exactly two digits
// at the end is treated as a decimal comma.
func normalizeSeparators(s string, decimalComma bool) string {
	if decimalComma {
		s = strings.ReplaceAll(s, ".", "")
		return strings.ReplaceAll(s, ",", ".")
	}
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	if lastComma > lastDot && len(s)-lastComma == 3 {
		s = strings.ReplaceAll(s, ".", "")
		return strings.ReplaceAll(s, ",", ".")
	}
	return strings.ReplaceAll(s, ",", "")
}

func cell(record []string, idx int) (string, bool) {
	if idx < 0 || idx >= len(record) {
		return "", false
	}
	return strings.TrimSpace(record[idx]), true
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func rowError(line int, sentinel *errors.AppError, msg, raw string) RowError {
	return RowError{Line: line, Code: sentinel.Code, Message: msg, Raw: raw}
}

func ptr(e RowError) *RowError { return &e }
