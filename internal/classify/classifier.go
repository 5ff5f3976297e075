// Package classify maps merchant names to spending categories with a
// confidence score.
package classify

import (
	"strings"

	"github.com/subzero/subzero/internal/taxonomy"
)

// Confidence tiers. A taxonomy match is strong evidence; a generic
// subscription token in the name is weak evidence; anything else is a
// guess.
const (
	ConfidenceTaxonomyMatch = 0.9
	ConfidenceIndicator     = 0.6
	ConfidenceFallback      = 0.3
)

// CategoryUnknown is returned when no taxonomy rule matches.
const CategoryUnknown = "unknown"

// subscriptionIndicators are generic tokens that suggest a recurring
// service even when the merchant is not in the taxonomy.
var subscriptionIndicators = []string{"subscription", "monthly", "premium", "pro", "plus"}

// Classifier resolves merchant names against an ordered taxonomy table.
// It is deterministic and has no side effects.
type Classifier struct {
	rules []taxonomy.Rule
}

// New creates a classifier over the given ordered rule table.
func New(rules []taxonomy.Rule) *Classifier {
	return &Classifier{rules: rules}
}

// NewDefault creates a classifier over the built-in taxonomy.
func NewDefault() *Classifier {
	return New(taxonomy.Default())
}

// Classify returns the category and confidence for a merchant name.
// The first matching rule wins, so taxonomy order decides ties.
func (c *Classifier) Classify(merchantName string) (string, float64) {
	name := strings.ToLower(strings.TrimSpace(merchantName))

	for _, rule := range c.rules {
		for _, pattern := range rule.Patterns {
			if pattern.MatchString(name) {
				return rule.Category, ConfidenceTaxonomyMatch
			}
		}
	}

	for _, indicator := range subscriptionIndicators {
		if strings.Contains(name, indicator) {
			return CategoryUnknown, ConfidenceIndicator
		}
	}

	return CategoryUnknown, ConfidenceFallback
}
