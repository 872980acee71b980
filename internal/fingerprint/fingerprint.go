// Package fingerprint derives the stable transaction identity used for
// deduplication. The same row imported twice, from the same or a different
// file, always produces the same fingerprint.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// Compute hashes the identity fields of a transaction. The amount is rounded
// to two decimal places and the description is normalized so that cosmetic
// differences between exports of the same booking do not defeat dedup.
func Compute(accountID string, bookingDate time.Time, amount decimal.Decimal, description string) string {
	parts := []string{
		accountID,
		bookingDate.Format("2006-01-02"),
		amount.Round(2).StringFixed(2),
		NormalizeDescription(description),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// NormalizeDescription lowercases, strips punctuation, and collapses runs
// of whitespace. Bank exports frequently pad descriptions with alignment
// spaces and vary separators between file formats.
func NormalizeDescription(s string) string {
	stripped := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			return unicode.ToLower(r)
		case unicode.IsSpace(r):
			return r
		default:
			return ' '
		}
	}, s)
	return strings.Join(strings.Fields(stripped), " ")
}
