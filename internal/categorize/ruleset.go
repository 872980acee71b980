// Package categorize assigns spending categories to transactions through an
// ordered rule cascade: user overrides, exact merchant matches, pattern and
// keyword rules in declaration order, MCC mappings, then amount heuristics.
package categorize

import (
	"encoding/json"
	"os"

	"moneta/internal/errors"
	"moneta/internal/fingerprint"
)

// Built-in categories that exist even without a rule: heuristic targets and
// the fallback.
const (
	CategoryIncome    = "income"
	CategoryTransfers = "transfers"
	CategoryOther     = "other"
)

// Rule defines one category's matchers. Merchants match exactly against the
// normalized counterparty or description; Patterns are case-insensitive
// regular expressions; Keywords are case-insensitive substrings.
type Rule struct {
	Name      string   `json:"name"`
	Merchants []string `json:"merchants,omitempty"`
	Patterns  []string `json:"patterns,omitempty"`
	Keywords  []string `json:"keywords,omitempty"`
}

// RuleSet is an ordered list of rules plus MCC code mappings. Order matters:
// earlier rules win when several match.
type RuleSet struct {
	Rules []Rule            `json:"categories"`
	MCC   map[string]string `json:"mcc_mappings,omitempty"`
}

// LoadFile reads a rule set from a JSON file.
func LoadFile(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rs RuleSet
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, err
	}
	return &rs, nil
}

// Save writes the rule set as JSON, preserving rule order.
func (rs *RuleSet) Save(path string) error {
	data, err := json.MarshalIndent(rs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// AddMerchantRule pins an exact merchant to an existing category.
func (rs *RuleSet) AddMerchantRule(merchant, category string) error {
	normalized := fingerprint.NormalizeDescription(merchant)
	for i := range rs.Rules {
		if rs.Rules[i].Name != category {
			continue
		}
		for _, existing := range rs.Rules[i].Merchants {
			if fingerprint.NormalizeDescription(existing) == normalized {
				return nil
			}
		}
		rs.Rules[i].Merchants = append(rs.Rules[i].Merchants, merchant)
		return nil
	}
	return errors.WithMessage(errors.ErrUnknownCategory, "no category named "+category)
}

// Categories returns every category name the rule set can assign, including
// the heuristic targets and the fallback.
func (rs *RuleSet) Categories() []string {
	seen := map[string]bool{}
	var out []string
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	for _, r := range rs.Rules {
		add(r.Name)
	}
	for _, c := range rs.MCC {
		add(c)
	}
	add(CategoryIncome)
	add(CategoryTransfers)
	add(CategoryOther)
	return out
}

// HasCategory reports whether the rule set can assign the given category.
func (rs *RuleSet) HasCategory(name string) bool {
	for _, c := range rs.Categories() {
		if c == name {
			return true
		}
	}
	return false
}

// Default returns the built-in rule set: Swiss and EU merchants plus the
// standard MCC mappings.
func Default() *RuleSet {
	return &RuleSet{
		Rules: []Rule{
			{
				Name: "groceries",
				Keywords: []string{
					"migros", "coop", "denner", "aldi", "lidl", "spar",
					"volg", "aperto", "supermarket", "supermarkt", "grocery",
					"lebensmittel", "epicerie", "rewe", "edeka", "tesco",
				},
			},
			{
				Name: "dining",
				Keywords: []string{
					"restaurant", "cafe", "starbucks", "mcdonald", "burger king",
					"subway", "pizza", "kebab", "bistro", "pub",
					"takeaway", "delivery", "uber eats", "just eat",
				},
			},
			{
				Name: "transport",
				Keywords: []string{
					"sbb", "zvv", "tpg", "vbl", "uber", "taxi", "parking",
					"tankstelle", "petrol", "mobility", "car2go",
					"share now", "publibike", "lime", "tier",
				},
			},
			{
				Name: "shopping",
				Keywords: []string{
					"amazon", "zalando", "h&m", "zara", "manor", "globus",
					"interdiscount", "digitec", "galaxus", "media markt",
					"ikea", "bauhaus", "obi", "landi", "jumbo",
				},
			},
			{
				Name: "subscriptions",
				Keywords: []string{
					"netflix", "spotify", "adobe", "dropbox", "icloud",
					"youtube", "prime", "disney", "patreon",
				},
				Patterns: []string{
					`apple\.com/bill`,
					`subscription`,
					`abonnement`,
				},
			},
			{
				Name: "utilities",
				Keywords: []string{
					"ewz", "swisscom", "sunrise", "salt", "swissgas",
					"energie", "electricity", "water", "heating", "internet",
					"insurance", "versicherung",
				},
			},
			{
				Name: "entertainment",
				Keywords: []string{
					"cinema", "kino", "theater", "concert", "tickets",
					"steam", "playstation", "xbox", "nintendo",
					"ticketcorner", "starticket", "eventim",
				},
			},
			{
				Name: "health",
				Keywords: []string{
					"pharmacy", "apotheke", "doctor", "dentist", "hospital",
					"zahnarzt", "arzt", "medizin", "fitness", "gym",
					"physiotherapy", "massage",
				},
			},
			{
				Name: "housing",
				Keywords: []string{
					"rent", "miete", "mortgage", "hypothek",
					"cleaning", "maintenance", "repairs", "furniture",
				},
			},
			{
				Name: "transfers",
				Keywords: []string{
					"twint", "transfer", "überweisung", "paypal", "revolut",
					"wise", "westernunion",
				},
			},
		},
		MCC: map[string]string{
			"5411": "groceries",
			"5812": "dining",
			"5814": "dining",
			"4111": "transport",
			"4121": "transport",
			"5541": "transport",
			"5300": "shopping",
			"5651": "shopping",
			"5732": "shopping",
			"4899": "utilities",
			"5968": "entertainment",
		},
	}
}
