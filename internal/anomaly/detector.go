// Package anomaly flags transactions whose spend jumps far above their
// category's historical baseline. Flags are derived on demand from the
// ledger and never stored.
package anomaly

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"moneta/internal/models"
)

// Granularity selects the aggregation period.
type Granularity string

const (
	GranularityMonth Granularity = "month"
	GranularityWeek  Granularity = "week"
)

// Flag marks one transaction as anomalous against its category's baseline.
type Flag struct {
	TransactionID string          `json:"transaction_id"`
	Category      string          `json:"category"`
	Period        string          `json:"period"`
	Amount        decimal.Decimal `json:"amount"`
	Baseline      decimal.Decimal `json:"baseline"`
	Ratio         float64         `json:"ratio"`
}

// Detector compares each current-period expense against the mean
// per-category spend of the last Periods completed periods. Only expenses
// count; income never raises a flag.
type Detector struct {
	Periods     int
	Multiplier  decimal.Decimal
	Granularity Granularity
}

// NewDetector creates a detector with the given baseline window and
// threshold multiplier.
func NewDetector(periods int, multiplier float64, granularity Granularity) *Detector {
	if granularity == "" {
		granularity = GranularityMonth
	}
	return &Detector{
		Periods:     periods,
		Multiplier:  decimal.NewFromFloat(multiplier),
		Granularity: granularity,
	}
}

// Detect recomputes all flags for the period containing now. Each expense in
// that period is compared individually against multiplier times the mean of
// its category's completed-period totals. Categories with fewer than two
// completed periods of history are skipped: there is no baseline to compare
// against yet.
func (d *Detector) Detect(txs []models.Transaction, now time.Time) []Flag {
	current := d.periodKey(now)
	window := d.completedPeriods(now)
	inWindow := make(map[string]bool, len(window))
	for _, p := range window {
		inWindow[p] = true
	}

	// spend[category][period] = total expense in home currency within the
	// baseline window; candidates are the current period's expenses.
	spend := make(map[string]map[string]decimal.Decimal)
	var candidates []*models.Transaction
	for i := range txs {
		tx := &txs[i]
		if !tx.IsExpense() || tx.Category == "" {
			continue
		}
		period := d.periodKey(tx.BookingDate)
		if period == current {
			candidates = append(candidates, tx)
			continue
		}
		if !inWindow[period] {
			continue
		}
		byPeriod, ok := spend[tx.Category]
		if !ok {
			byPeriod = make(map[string]decimal.Decimal)
			spend[tx.Category] = byPeriod
		}
		byPeriod[period] = byPeriod[period].Add(expenseAmount(tx))
	}

	baselines := make(map[string]decimal.Decimal, len(spend))
	for category, byPeriod := range spend {
		var total decimal.Decimal
		withData := 0
		for _, p := range window {
			if v, ok := byPeriod[p]; ok && !v.IsZero() {
				total = total.Add(v)
				withData++
			}
		}
		if withData < 2 {
			continue
		}
		baselines[category] = total.Div(decimal.NewFromInt(int64(withData)))
	}

	var flags []Flag
	for _, tx := range candidates {
		baseline, ok := baselines[tx.Category]
		if !ok {
			continue
		}
		amount := expenseAmount(tx)
		if amount.GreaterThan(baseline.Mul(d.Multiplier)) {
			ratio, _ := amount.Div(baseline).Round(2).Float64()
			flags = append(flags, Flag{
				TransactionID: tx.ID,
				Category:      tx.Category,
				Period:        current,
				Amount:        amount,
				Baseline:      baseline.Round(2),
				Ratio:         ratio,
			})
		}
	}

	sort.Slice(flags, func(i, j int) bool { return flags[i].Ratio > flags[j].Ratio })
	return flags
}

// completedPeriods lists the Periods period keys immediately before the one
// containing now, newest first.
func (d *Detector) completedPeriods(now time.Time) []string {
	keys := make([]string, 0, d.Periods)
	for i := 1; i <= d.Periods; i++ {
		var t time.Time
		if d.Granularity == GranularityWeek {
			t = now.AddDate(0, 0, -7*i)
		} else {
			t = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -i, 0)
		}
		keys = append(keys, d.periodKey(t))
	}
	return keys
}

func (d *Detector) periodKey(t time.Time) string {
	if d.Granularity == GranularityWeek {
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	}
	return t.Format("2006-01")
}

// expenseAmount returns the positive spend value, preferring the normalized
// home-currency amount when available.
func expenseAmount(tx *models.Transaction) decimal.Decimal {
	if tx.NormalizedAmount != nil {
		return tx.NormalizedAmount.Abs()
	}
	return tx.Amount.Abs()
}
