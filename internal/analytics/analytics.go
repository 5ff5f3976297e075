// Package analytics aggregates a merged subscription list into spend
// totals, breakdowns, and trial-risk counts.
package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/subzero/subzero/internal/domain"
)

// Normalization multipliers. Weekly charges average 4.33 occurrences
// per month.
var (
	twelve        = decimal.NewFromInt(12)
	three         = decimal.NewFromInt(3)
	four          = decimal.NewFromInt(4)
	fiftyTwo      = decimal.NewFromInt(52)
	weeksPerMonth = decimal.NewFromFloat(4.33)
)

// unusedTrialWindow is how recent a low-confidence charge must be to
// count as a possible trial about to convert.
const unusedTrialWindow = 30 * 24 * time.Hour

// unusedTrialMaxConfidence: entries at or above this confidence are
// considered established subscriptions, not trials.
const unusedTrialMaxConfidence = 0.7

// CategoryStats is the per-category slice of the breakdown.
type CategoryStats struct {
	Count       int             `json:"count"`
	MonthlyCost decimal.Decimal `json:"monthly_cost"`
}

// HighestSubscription identifies the single largest charge.
type HighestSubscription struct {
	Name   string              `json:"name"`
	Amount decimal.Decimal     `json:"amount"`
	Cycle  domain.BillingCycle `json:"cycle"`
}

// Summary is the aggregate view over one discovery run's merged list.
type Summary struct {
	TotalMonthly          decimal.Decimal             `json:"total_monthly"`
	TotalAnnual           decimal.Decimal             `json:"total_annual"`
	CategoryBreakdown     map[string]CategoryStats    `json:"category_breakdown"`
	BillingCycleBreakdown map[domain.BillingCycle]int `json:"billing_cycle_breakdown"`
	AverageMonthly        decimal.Decimal             `json:"average_subscription"`
	Highest               *HighestSubscription        `json:"highest_subscription,omitempty"`
	SubscriptionCount     int                         `json:"subscription_count"`
	UnusedTrialCount      int                         `json:"unused_trials"`
}

// Analyzer computes summaries. Now is injectable so the unused-trial
// window is testable; it defaults to time.Now.
type Analyzer struct {
	Now func() time.Time
}

// New creates an analyzer with the wall clock.
func New() *Analyzer {
	return &Analyzer{Now: time.Now}
}

// Analyze computes the summary for a merged subscription list. An
// empty list is a valid input and yields a zero-valued summary.
func (a *Analyzer) Analyze(subs []domain.DetectedSubscription) Summary {
	summary := Summary{
		TotalMonthly:          decimal.Zero,
		TotalAnnual:           decimal.Zero,
		AverageMonthly:        decimal.Zero,
		CategoryBreakdown:     make(map[string]CategoryStats),
		BillingCycleBreakdown: make(map[domain.BillingCycle]int),
		SubscriptionCount:     len(subs),
	}
	if len(subs) == 0 {
		return summary
	}

	now := a.Now()
	var highest *domain.DetectedSubscription

	for i := range subs {
		sub := &subs[i]

		monthly := MonthlyCost(*sub)
		summary.TotalMonthly = summary.TotalMonthly.Add(monthly)
		summary.TotalAnnual = summary.TotalAnnual.Add(annualCost(*sub))

		stats := summary.CategoryBreakdown[sub.Category]
		stats.Count++
		stats.MonthlyCost = stats.MonthlyCost.Add(monthly)
		summary.CategoryBreakdown[sub.Category] = stats

		summary.BillingCycleBreakdown[sub.BillingCycle]++

		if highest == nil || sub.Amount.GreaterThan(highest.Amount) {
			highest = sub
		}

		if sub.ConfidenceScore < unusedTrialMaxConfidence &&
			sub.LastTransactionDate != nil &&
			now.Sub(*sub.LastTransactionDate) < unusedTrialWindow {
			summary.UnusedTrialCount++
		}
	}

	summary.TotalMonthly = summary.TotalMonthly.Round(2)
	summary.TotalAnnual = summary.TotalAnnual.Round(2)
	summary.AverageMonthly = summary.TotalMonthly.Div(decimal.NewFromInt(int64(len(subs)))).Round(2)

	for category, stats := range summary.CategoryBreakdown {
		stats.MonthlyCost = stats.MonthlyCost.Round(2)
		summary.CategoryBreakdown[category] = stats
	}

	summary.Highest = &HighestSubscription{
		Name:   highest.MerchantName,
		Amount: highest.Amount,
		Cycle:  highest.BillingCycle,
	}

	return summary
}

// MonthlyCost normalizes one subscription to its monthly-equivalent
// cost. Cycles without a defined multiplier (biweekly, from provider
// streams) are treated as monthly.
func MonthlyCost(sub domain.DetectedSubscription) decimal.Decimal {
	switch sub.BillingCycle {
	case domain.CycleAnnual:
		return sub.Amount.Div(twelve)
	case domain.CycleWeekly:
		return sub.Amount.Mul(weeksPerMonth)
	case domain.CycleQuarterly:
		return sub.Amount.Div(three)
	default:
		return sub.Amount
	}
}

func annualCost(sub domain.DetectedSubscription) decimal.Decimal {
	switch sub.BillingCycle {
	case domain.CycleAnnual:
		return sub.Amount
	case domain.CycleWeekly:
		return sub.Amount.Mul(fiftyTwo)
	case domain.CycleQuarterly:
		return sub.Amount.Mul(four)
	default:
		return sub.Amount.Mul(twelve)
	}
}
