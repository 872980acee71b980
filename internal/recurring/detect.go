// Package recurring detects subscription-like charge patterns in the
// ledger. Detection only proposes candidates; nothing is persisted until
// the user accepts one.
package recurring

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"moneta/internal/models"
)

// Candidate is a proposed subscription derived from repeated charges.
type Candidate struct {
	Name            string              `json:"name"`
	MerchantPattern string              `json:"merchant_pattern"`
	Amount          decimal.Decimal     `json:"amount"`
	Currency        string              `json:"currency"`
	BillingCycle    models.BillingCycle `json:"billing_cycle"`
	LastCharge      time.Time           `json:"last_charge"`
	ChargeCount     int                 `json:"charge_count"`
	Confidence      float64             `json:"confidence"`
}

// Detector groups expenses by normalized merchant and checks each group for
// a steady amount at a recognizable billing interval.
type Detector struct {
	// MinOccurrences is how many charges a merchant needs before it can be
	// proposed at all.
	MinOccurrences int
	// AmountTolerance is the maximum relative deviation from the mean
	// charge, e.g. 0.05 for 5%.
	AmountTolerance float64
}

// NewDetector creates a detector with the given thresholds.
func NewDetector(minOccurrences int, amountTolerance float64) *Detector {
	return &Detector{MinOccurrences: minOccurrences, AmountTolerance: amountTolerance}
}

// Detect analyzes expense transactions and returns subscription candidates
// sorted by amount, highest first. Merchants in alreadyTracked are skipped.
func (d *Detector) Detect(txs []models.Transaction, alreadyTracked map[string]bool) []Candidate {
	groups := make(map[string][]models.Transaction)
	for _, tx := range txs {
		if !tx.IsExpense() {
			continue
		}
		merchant := NormalizeMerchant(tx.Counterparty, tx.Description)
		if merchant == "" || alreadyTracked[merchant] {
			continue
		}
		groups[merchant] = append(groups[merchant], tx)
	}

	var candidates []Candidate
	for merchant, group := range groups {
		if c, ok := d.analyze(merchant, group); ok {
			candidates = append(candidates, c)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Amount.GreaterThan(candidates[j].Amount)
	})
	return candidates
}

func (d *Detector) analyze(merchant string, group []models.Transaction) (Candidate, bool) {
	if len(group) < d.MinOccurrences || len(group) < 2 {
		return Candidate{}, false
	}

	sort.Slice(group, func(i, j int) bool {
		return group[i].BookingDate.Before(group[j].BookingDate)
	})

	// Amount consistency: every charge must sit within the tolerance band
	// around the mean.
	var total decimal.Decimal
	for _, tx := range group {
		total = total.Add(tx.Amount.Abs())
	}
	mean := total.Div(decimal.NewFromInt(int64(len(group))))
	if mean.IsZero() {
		return Candidate{}, false
	}
	tolerance := decimal.NewFromFloat(d.AmountTolerance)
	for _, tx := range group {
		deviation := tx.Amount.Abs().Sub(mean).Abs().Div(mean)
		if deviation.GreaterThan(tolerance) {
			return Candidate{}, false
		}
	}

	// Average days between consecutive charges.
	totalDays := 0
	for i := 1; i < len(group); i++ {
		totalDays += int(group[i].BookingDate.Sub(group[i-1].BookingDate).Hours() / 24)
	}
	avgInterval := float64(totalDays) / float64(len(group)-1)

	cycle, confidence, ok := classifyInterval(avgInterval, len(group))
	if !ok {
		return Candidate{}, false
	}

	if len(group) >= 6 {
		confidence = min(1.0, confidence+0.1)
	} else if len(group) == 2 {
		confidence = max(0.4, confidence-0.2)
	}

	name := merchant
	if friendly, ok := knownMerchants[merchant]; ok {
		name = friendly
	} else {
		name = titleCase(merchant)
	}

	last := group[len(group)-1]
	return Candidate{
		Name:            name,
		MerchantPattern: merchant,
		Amount:          mean.Round(2),
		Currency:        last.Currency,
		BillingCycle:    cycle,
		LastCharge:      last.BookingDate,
		ChargeCount:     len(group),
		Confidence:      confidence,
	}, true
}

// classifyInterval buckets an average charge interval into a billing cycle.
// The loose 20-40 day monthly bucket needs at least three charges since two
// points that far apart prove nothing.
func classifyInterval(avgDays float64, count int) (models.BillingCycle, float64, bool) {
	switch {
	case avgDays >= 25 && avgDays <= 35:
		return models.BillingCycleMonthly, 0.9, true
	case avgDays >= 350 && avgDays <= 380:
		return models.BillingCycleYearly, 0.85, true
	case avgDays >= 6 && avgDays <= 8:
		return models.BillingCycleWeekly, 0.8, true
	case avgDays >= 85 && avgDays <= 95:
		return models.BillingCycleQuarterly, 0.85, true
	case count >= 3 && avgDays >= 20 && avgDays <= 40:
		return models.BillingCycleMonthly, 0.6, true
	default:
		return "", 0, false
	}
}

var (
	merchantPrefixes = regexp.MustCompile(`^(payment to|direct debit|recurring|subscription)\s*`)
	merchantSuffixes = regexp.MustCompile(`\s*(gmbh|ltd|inc|llc|ag|sa|bv)\.?$`)
	merchantDates    = regexp.MustCompile(`\d{2}[./]\d{2}[./]\d{2,4}`)
	merchantRefs     = regexp.MustCompile(`(?i)ref[:\s]*\d+`)
	whitespace       = regexp.MustCompile(`\s+`)
)

// NormalizeMerchant extracts a stable merchant key from the counterparty or
// description, stripping dates, reference numbers, and legal suffixes. A
// known merchant pattern found anywhere in the text takes over as the key.
func NormalizeMerchant(counterparty, description string) string {
	text := counterparty
	if text == "" {
		text = description
	}
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return ""
	}

	text = merchantPrefixes.ReplaceAllString(text, "")
	text = merchantSuffixes.ReplaceAllString(text, "")
	text = merchantDates.ReplaceAllString(text, "")
	text = merchantRefs.ReplaceAllString(text, "")
	text = strings.TrimSpace(whitespace.ReplaceAllString(text, " "))

	for _, pattern := range knownMerchantKeys {
		if strings.Contains(text, pattern) {
			return pattern
		}
	}

	if len(text) <= 3 {
		return ""
	}
	if len(text) > 50 {
		text = text[:50]
	}
	return text
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
