package recommend

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/subzero/subzero/internal/analytics"
	"github.com/subzero/subzero/internal/domain"
)

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func findByType(recs []Recommendation, recType string) (Recommendation, bool) {
	for _, r := range recs {
		if r.Type == recType {
			return r, true
		}
	}
	return Recommendation{}, false
}

func TestGenerate_HighSpending(t *testing.T) {
	summary := analytics.Summary{
		TotalMonthly:      amt("150.00"),
		CategoryBreakdown: map[string]analytics.CategoryStats{},
	}

	recs := Generate(nil, summary)
	rec, ok := findByType(recs, TypeHighSpending)
	if !ok {
		t.Fatal("Expected high_spending recommendation")
	}
	if rec.Priority != PriorityHigh {
		t.Errorf("Priority = %s, want high", rec.Priority)
	}
	if !rec.PotentialSavings.Equal(amt("30.00")) {
		t.Errorf("PotentialSavings = %s, want 30.00 (20%% of spend)", rec.PotentialSavings)
	}
}

func TestGenerate_HighSpendingThresholdIsExclusive(t *testing.T) {
	summary := analytics.Summary{
		TotalMonthly:      amt("100.00"),
		CategoryBreakdown: map[string]analytics.CategoryStats{},
	}

	if _, ok := findByType(Generate(nil, summary), TypeHighSpending); ok {
		t.Error("Spending of exactly $100 should not trigger the rule")
	}
}

func TestGenerate_DuplicateServices(t *testing.T) {
	summary := analytics.Summary{
		TotalMonthly: amt("45.00"),
		CategoryBreakdown: map[string]analytics.CategoryStats{
			"entertainment": {Count: 3, MonthlyCost: amt("45.00")},
			"fitness":       {Count: 2, MonthlyCost: amt("30.00")},
		},
	}

	recs := Generate(nil, summary)

	var dupes []Recommendation
	for _, r := range recs {
		if r.Type == TypeDuplicateServices {
			dupes = append(dupes, r)
		}
	}
	// Two services in a category is fine; only the three-strong
	// entertainment category triggers.
	if len(dupes) != 1 {
		t.Fatalf("Expected exactly 1 duplicate_services recommendation, got %d", len(dupes))
	}

	rec := dupes[0]
	if rec.Priority != PriorityMedium {
		t.Errorf("Priority = %s, want medium", rec.Priority)
	}
	if !rec.PotentialSavings.Equal(amt("22.50")) {
		t.Errorf("PotentialSavings = %s, want 22.50 (half the category cost)", rec.PotentialSavings)
	}
	if rec.Title != "Multiple Entertainment Services" {
		t.Errorf("Title = %q", rec.Title)
	}
}

func TestGenerate_AnnualBilling(t *testing.T) {
	subs := []domain.DetectedSubscription{
		{MerchantName: "A", Amount: amt("15.00"), BillingCycle: domain.CycleMonthly},
		{MerchantName: "B", Amount: amt("12.00"), BillingCycle: domain.CycleMonthly},
		{MerchantName: "C", Amount: amt("20.00"), BillingCycle: domain.CycleMonthly},
		// Too cheap to qualify
		{MerchantName: "D", Amount: amt("5.00"), BillingCycle: domain.CycleMonthly},
		// Already annual
		{MerchantName: "E", Amount: amt("99.00"), BillingCycle: domain.CycleAnnual},
	}
	summary := analytics.Summary{CategoryBreakdown: map[string]analytics.CategoryStats{}}

	recs := Generate(subs, summary)
	rec, ok := findByType(recs, TypeAnnualBilling)
	if !ok {
		t.Fatal("Expected annual_billing recommendation")
	}
	if rec.Priority != PriorityLow {
		t.Errorf("Priority = %s, want low", rec.Priority)
	}
	// Roughly two months saved per qualifying subscription
	if !rec.PotentialSavings.Equal(amt("94.00")) {
		t.Errorf("PotentialSavings = %s, want 94.00", rec.PotentialSavings)
	}
}

func TestGenerate_AnnualBillingNeedsThreeQualifiers(t *testing.T) {
	subs := []domain.DetectedSubscription{
		{MerchantName: "A", Amount: amt("15.00"), BillingCycle: domain.CycleMonthly},
		{MerchantName: "B", Amount: amt("12.00"), BillingCycle: domain.CycleMonthly},
	}
	summary := analytics.Summary{CategoryBreakdown: map[string]analytics.CategoryStats{}}

	if _, ok := findByType(Generate(subs, summary), TypeAnnualBilling); ok {
		t.Error("Two qualifying subscriptions should not trigger the rule")
	}
}

func TestGenerate_UnusedTrials(t *testing.T) {
	summary := analytics.Summary{
		CategoryBreakdown: map[string]analytics.CategoryStats{},
		UnusedTrialCount:  2,
	}

	rec, ok := findByType(Generate(nil, summary), TypeUnusedTrials)
	if !ok {
		t.Fatal("Expected unused_trials recommendation")
	}
	if rec.Priority != PriorityHigh {
		t.Errorf("Priority = %s, want high", rec.Priority)
	}
	if !rec.PotentialSavings.IsZero() {
		t.Errorf("PotentialSavings = %s, want zero for a preventive suggestion", rec.PotentialSavings)
	}
}

func TestGenerate_SortedByPriority(t *testing.T) {
	subs := []domain.DetectedSubscription{
		{MerchantName: "A", Amount: amt("15.00"), BillingCycle: domain.CycleMonthly},
		{MerchantName: "B", Amount: amt("12.00"), BillingCycle: domain.CycleMonthly},
		{MerchantName: "C", Amount: amt("20.00"), BillingCycle: domain.CycleMonthly},
	}
	summary := analytics.Summary{
		TotalMonthly: amt("150.00"),
		CategoryBreakdown: map[string]analytics.CategoryStats{
			"entertainment": {Count: 3, MonthlyCost: amt("45.00")},
		},
		UnusedTrialCount: 1,
	}

	recs := Generate(subs, summary)
	if len(recs) != 4 {
		t.Fatalf("Expected 4 recommendations, got %d", len(recs))
	}

	wantOrder := []Priority{PriorityHigh, PriorityHigh, PriorityMedium, PriorityLow}
	for i, want := range wantOrder {
		if recs[i].Priority != want {
			t.Errorf("recs[%d].Priority = %s, want %s", i, recs[i].Priority, want)
		}
	}
	// Stable sort keeps rule order inside a tier
	if recs[0].Type != TypeHighSpending || recs[1].Type != TypeUnusedTrials {
		t.Errorf("High tier order = %s, %s; want high_spending then unused_trials", recs[0].Type, recs[1].Type)
	}
}

func TestGenerate_NoFindings(t *testing.T) {
	summary := analytics.Summary{
		TotalMonthly:      amt("20.00"),
		CategoryBreakdown: map[string]analytics.CategoryStats{"entertainment": {Count: 1, MonthlyCost: amt("20.00")}},
	}

	if recs := Generate(nil, summary); len(recs) != 0 {
		t.Errorf("Expected no recommendations, got %d", len(recs))
	}
}
