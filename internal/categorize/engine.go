package categorize

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"moneta/internal/fingerprint"
	"moneta/internal/models"
)

// Heuristics holds the tunable amount cutoffs for the lowest cascade tier.
type Heuristics struct {
	// SmallAmount is the cutoff below which expenses look like fees or
	// micro-subscriptions.
	SmallAmount decimal.Decimal
	// LargeAmount is the cutoff above which credits look like salary and
	// debits look like rent.
	LargeAmount decimal.Decimal
}

// DefaultHeuristics returns the standard cutoffs.
func DefaultHeuristics() Heuristics {
	return Heuristics{
		SmallAmount: decimal.NewFromInt(5),
		LargeAmount: decimal.NewFromInt(1000),
	}
}

// Input carries the transaction fields the cascade inspects.
type Input struct {
	Description  string
	Counterparty string
	MCC          string
	Amount       decimal.Decimal
	BookingDate  time.Time
}

// Engine is an immutable compiled rule cascade. Categorization is a pure
// function of its input, so re-running it over the ledger is always safe.
type Engine struct {
	rules      *RuleSet
	compiled   []compiledRule
	merchants  map[string]string
	heuristics Heuristics
}

type compiledRule struct {
	name     string
	patterns []*regexp.Regexp
	keywords []string
}

// NewEngine compiles a rule set. Patterns are matched case-insensitively;
// an invalid pattern fails compilation rather than being skipped.
func NewEngine(rs *RuleSet, heuristics Heuristics) (*Engine, error) {
	e := &Engine{
		rules:      rs,
		merchants:  make(map[string]string),
		heuristics: heuristics,
	}
	for _, rule := range rs.Rules {
		cr := compiledRule{name: rule.Name}
		for _, pattern := range rule.Patterns {
			re, err := regexp.Compile("(?i)" + pattern)
			if err != nil {
				return nil, fmt.Errorf("category %s: invalid pattern %q: %w", rule.Name, pattern, err)
			}
			cr.patterns = append(cr.patterns, re)
		}
		for _, kw := range rule.Keywords {
			cr.keywords = append(cr.keywords, strings.ToLower(kw))
		}
		e.compiled = append(e.compiled, cr)

		for _, merchant := range rule.Merchants {
			e.merchants[fingerprint.NormalizeDescription(merchant)] = rule.Name
		}
	}
	return e, nil
}

// RuleSet returns the rule set the engine was compiled from.
func (e *Engine) RuleSet() *RuleSet { return e.rules }

// Heuristics returns the engine's amount cutoffs.
func (e *Engine) Heuristics() Heuristics { return e.heuristics }

// Categorize runs the cascade and reports both the category and which tier
// assigned it. User overrides sit above this function: callers must check
// them first.
func (e *Engine) Categorize(in Input) (string, models.CategorySource) {
	combined := strings.ToLower(strings.TrimSpace(in.Counterparty + " " + in.Description))

	// Exact merchant matches beat every pattern rule.
	for _, field := range []string{in.Counterparty, in.Description} {
		if field == "" {
			continue
		}
		if category, ok := e.merchants[fingerprint.NormalizeDescription(field)]; ok {
			return category, models.CategorySourceMerchant
		}
	}

	for _, rule := range e.compiled {
		for _, re := range rule.patterns {
			if re.MatchString(combined) {
				return rule.name, models.CategorySourcePattern
			}
		}
		for _, kw := range rule.keywords {
			if strings.Contains(combined, kw) {
				return rule.name, models.CategorySourceKeyword
			}
		}
	}

	if in.MCC != "" {
		if category, ok := e.rules.MCC[in.MCC]; ok {
			return category, models.CategorySourceMCC
		}
	}

	if category := e.heuristic(in, combined); category != "" {
		return category, models.CategorySourceHeuristic
	}

	return CategoryOther, models.CategorySourceNone
}

// heuristic is the last automatic tier: low-confidence guesses from the
// amount and booking day.
func (e *Engine) heuristic(in Input, combined string) string {
	if in.Amount.IsPositive() {
		if in.Amount.GreaterThan(e.heuristics.LargeAmount) {
			return CategoryIncome
		}
		return CategoryTransfers
	}

	abs := in.Amount.Abs()
	if abs.LessThan(e.heuristics.SmallAmount) {
		for _, word := range []string{"fee", "gebühr", "charge"} {
			if strings.Contains(combined, word) {
				return "utilities"
			}
		}
		return "subscriptions"
	}
	if abs.GreaterThan(e.heuristics.LargeAmount) {
		return "housing"
	}

	// Weekend spending in the typical restaurant range.
	if !in.BookingDate.IsZero() {
		wd := in.BookingDate.Weekday()
		if (wd == time.Saturday || wd == time.Sunday) &&
			abs.GreaterThanOrEqual(decimal.NewFromInt(20)) &&
			abs.LessThanOrEqual(decimal.NewFromInt(150)) {
			return "dining"
		}
	}
	return ""
}
