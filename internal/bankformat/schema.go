// Package bankformat identifies which bank export schema a raw tabular
// import matches. Detection is a pure function of the header bytes plus an
// optional explicit format hint; it never touches storage.
package bankformat

import (
	"strings"
)

// Encoding names used by schemas.
const (
	EncodingUTF8   = "utf-8"
	EncodingLatin1 = "latin-1"
)

// Schema describes one bank's CSV export: which column names carry which
// role, how dates are written, and how the file is encoded.
type Schema struct {
	Key     string
	Name    string
	Country string

	DateColumns        []string
	AmountColumns      []string
	DescriptionColumns []string
	CurrencyColumns    []string

	// Some banks split debits and credits into separate columns instead of
	// signing the amount.
	DebitColumns  []string
	CreditColumns []string

	// DateLayouts are Go time layouts, tried in order.
	DateLayouts []string

	Delimiter    rune
	Encoding     string
	DecimalComma bool
}

// Columns holds resolved column indexes for a header. An index of -1 means
// the role is not present.
type Columns struct {
	Date        int
	Amount      int
	Description int
	Currency    int
	Debit       int
	Credit      int
}

// Resolve maps the schema's column-name candidates onto a concrete header.
// The date and amount roles are required; a schema with split debit/credit
// columns satisfies the amount role through those instead.
func (s *Schema) Resolve(header []string) (Columns, bool) {
	cols := Columns{
		Date:        findColumn(header, s.DateColumns),
		Amount:      findColumn(header, s.AmountColumns),
		Description: findColumn(header, s.DescriptionColumns),
		Currency:    findColumn(header, s.CurrencyColumns),
		Debit:       findColumn(header, s.DebitColumns),
		Credit:      findColumn(header, s.CreditColumns),
	}

	if cols.Date < 0 {
		return cols, false
	}
	if cols.Amount < 0 && (cols.Debit < 0 || cols.Credit < 0) {
		return cols, false
	}
	return cols, true
}

// score rates how well the schema matches a header read with the given
// delimiter. Column weights follow the signature registry convention:
// date and amount columns carry most of the signal.
func (s *Schema) score(header []string, delimiter rune) int {
	score := 0
	if findColumn(header, s.DateColumns) >= 0 {
		score += 10
	}
	if findColumn(header, s.AmountColumns) >= 0 ||
		(findColumn(header, s.DebitColumns) >= 0 && findColumn(header, s.CreditColumns) >= 0) {
		score += 10
	}
	if findColumn(header, s.DescriptionColumns) >= 0 {
		score += 5
	}
	if s.Delimiter == delimiter {
		score += 5
	}
	return score
}

// findColumn returns the index of the first header cell equal to one of the
// candidates, compared case-insensitively, or -1.
func findColumn(header []string, candidates []string) int {
	for _, candidate := range candidates {
		for i, cell := range header {
			if strings.EqualFold(strings.TrimSpace(cell), candidate) {
				return i
			}
		}
	}
	return -1
}

// fuzzyColumn returns the index of the first header cell containing one of
// the tokens as a substring, or -1. Used only by the generic fallback.
func fuzzyColumn(header []string, tokens []string) int {
	for i, cell := range header {
		lower := strings.ToLower(strings.TrimSpace(cell))
		for _, token := range tokens {
			if strings.Contains(lower, token) {
				return i
			}
		}
	}
	return -1
}
