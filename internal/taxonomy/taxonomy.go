// Package taxonomy holds the static merchant classification table.
//
// Rule order is significant: the classifier takes the first rule whose
// pattern matches, so more specific patterns must precede generic ones.
// The table is loaded once per discovery run and is read-only after
// that.
package taxonomy

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

// AmountRange is the typical price band for a category. It is a hint
// carried alongside the patterns, not a hard filter.
type AmountRange struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// Rule maps a set of merchant-name patterns to a spending category.
type Rule struct {
	Category string
	Patterns []*regexp.Regexp
	Typical  AmountRange
}

// RuleSpec is the uncompiled form of a Rule, convenient for building
// custom tables in configuration or tests.
type RuleSpec struct {
	Category   string
	Patterns   []string
	TypicalMin string
	TypicalMax string
}

// Compile turns rule specs into an ordered rule table. Patterns are
// compiled case-insensitively; order is preserved.
func Compile(specs []RuleSpec) ([]Rule, error) {
	rules := make([]Rule, 0, len(specs))
	for _, spec := range specs {
		patterns := make([]*regexp.Regexp, 0, len(spec.Patterns))
		for _, p := range spec.Patterns {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, fmt.Errorf("taxonomy: category %q: compile %q: %w", spec.Category, p, err)
			}
			patterns = append(patterns, re)
		}
		var typical AmountRange
		if spec.TypicalMin != "" {
			min, err := decimal.NewFromString(spec.TypicalMin)
			if err != nil {
				return nil, fmt.Errorf("taxonomy: category %q: typical min: %w", spec.Category, err)
			}
			max, err := decimal.NewFromString(spec.TypicalMax)
			if err != nil {
				return nil, fmt.Errorf("taxonomy: category %q: typical max: %w", spec.Category, err)
			}
			typical = AmountRange{Min: min, Max: max}
		}
		rules = append(rules, Rule{Category: spec.Category, Patterns: patterns, Typical: typical})
	}
	return rules, nil
}

// Default returns the built-in rule table. Streaming services are
// listed first so they win over the broader productivity patterns.
func Default() []Rule {
	rules, err := Compile(defaultSpecs)
	if err != nil {
		// The built-in table is covered by tests; a compile failure here
		// is a programming error.
		panic(err)
	}
	return rules
}

var defaultSpecs = []RuleSpec{
	{
		Category: "entertainment",
		Patterns: []string{
			`netflix`, `spotify`, `apple music`, `amazon prime`,
			`hulu`, `disney\+?`, `hbo`, `paramount`, `peacock`,
		},
		TypicalMin: "9.99", TypicalMax: "19.99",
	},
	{
		Category: "productivity",
		Patterns: []string{
			`microsoft 365`, `office 365`, `adobe`, `dropbox`,
			`google workspace`, `slack`, `zoom`, `notion`,
		},
		TypicalMin: "9.99", TypicalMax: "99.99",
	},
	{
		Category: "cloud_storage",
		Patterns: []string{
			`icloud`, `google drive`, `onedrive`, `dropbox`,
			`box\.com`, `mega`,
		},
		TypicalMin: "0.99", TypicalMax: "19.99",
	},
	{
		Category: "fitness",
		Patterns: []string{
			`peloton`, `fitbit`, `myfitnesspal`, `strava`,
			`nike training`, `apple fitness`,
		},
		TypicalMin: "9.99", TypicalMax: "39.99",
	},
	{
		Category: "news",
		Patterns: []string{
			`new york times`, `washington post`, `wall street journal`,
			`the economist`, `medium`, `substack`,
		},
		TypicalMin: "4.99", TypicalMax: "39.99",
	},
}
