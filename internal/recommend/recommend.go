// Package recommend derives prioritized subscription-management
// suggestions from a discovery run's analytics.
package recommend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/subzero/subzero/internal/analytics"
	"github.com/subzero/subzero/internal/domain"
)

// Priority orders recommendations for presentation.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Recommendation types.
const (
	TypeHighSpending      = "high_spending"
	TypeDuplicateServices = "duplicate_services"
	TypeAnnualBilling     = "annual_billing"
	TypeUnusedTrials      = "unused_trials"
)

// Recommendation is one actionable suggestion. PotentialSavings is a
// monthly estimate; zero means the suggestion is preventive.
type Recommendation struct {
	Type             string          `json:"type"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Priority         Priority        `json:"priority"`
	PotentialSavings decimal.Decimal `json:"potential_savings"`
}

// Rule thresholds.
var (
	highSpendingThreshold  = decimal.NewFromInt(100)
	annualBillingMinAmount = decimal.NewFromInt(10)
	savingsRateHighSpend   = decimal.NewFromFloat(0.2)
	savingsRateDuplicates  = decimal.NewFromFloat(0.5)
	two                    = decimal.NewFromInt(2)
)

const (
	duplicateServicesMinCount = 2 // strictly more than this triggers the rule
	annualBillingMinMonthly   = 3
)

// Generate runs the deterministic rule set over the merged list and
// its analytics summary. The result is sorted high > medium > low with
// stable order inside each tier.
func Generate(subs []domain.DetectedSubscription, summary analytics.Summary) []Recommendation {
	var recs []Recommendation

	if summary.TotalMonthly.GreaterThan(highSpendingThreshold) {
		recs = append(recs, Recommendation{
			Type:  TypeHighSpending,
			Title: "High Monthly Subscription Spending",
			Description: fmt.Sprintf(
				"You're spending $%s monthly on subscriptions. Consider reviewing and canceling unused services.",
				summary.TotalMonthly.StringFixed(2)),
			Priority:         PriorityHigh,
			PotentialSavings: summary.TotalMonthly.Mul(savingsRateHighSpend).Round(2),
		})
	}

	// One recommendation per category with more than two services.
	// Categories are visited in sorted order so output is stable.
	categories := make([]string, 0, len(summary.CategoryBreakdown))
	for category := range summary.CategoryBreakdown {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		stats := summary.CategoryBreakdown[category]
		if stats.Count <= duplicateServicesMinCount {
			continue
		}
		recs = append(recs, Recommendation{
			Type:  TypeDuplicateServices,
			Title: fmt.Sprintf("Multiple %s Services", titleWord(category)),
			Description: fmt.Sprintf(
				"You have %d %s subscriptions costing $%s/month. Consider consolidating.",
				stats.Count, category, stats.MonthlyCost.StringFixed(2)),
			Priority:         PriorityMedium,
			PotentialSavings: stats.MonthlyCost.Mul(savingsRateDuplicates).Round(2),
		})
	}

	var qualifying int
	annualSavings := decimal.Zero
	for _, sub := range subs {
		if sub.BillingCycle == domain.CycleMonthly && sub.Amount.GreaterThan(annualBillingMinAmount) {
			qualifying++
			// Annual plans commonly discount roughly two months per year.
			annualSavings = annualSavings.Add(sub.Amount.Mul(two))
		}
	}
	if qualifying >= annualBillingMinMonthly {
		recs = append(recs, Recommendation{
			Type:  TypeAnnualBilling,
			Title: "Switch to Annual Billing",
			Description: fmt.Sprintf(
				"Consider switching %d monthly subscriptions to annual billing for potential savings.",
				qualifying),
			Priority:         PriorityLow,
			PotentialSavings: annualSavings.Round(2),
		})
	}

	if summary.UnusedTrialCount > 0 {
		recs = append(recs, Recommendation{
			Type:  TypeUnusedTrials,
			Title: "Potential Unused Trials",
			Description: fmt.Sprintf(
				"You have %d recent subscriptions that might be free trials. Review before they convert to paid.",
				summary.UnusedTrialCount),
			Priority:         PriorityHigh,
			PotentialSavings: decimal.Zero,
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return priorityRank(recs[i].Priority) > priorityRank(recs[j].Priority)
	})

	return recs
}

func priorityRank(p Priority) int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// titleWord capitalizes a category token for display, keeping any
// underscore-joined parts readable.
func titleWord(s string) string {
	parts := strings.Split(s, "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}
