package recurrence

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/subzero/subzero/internal/domain"
)

func debits(merchant, amount string, start time.Time, stepDays, count int) []domain.RawTransaction {
	amt := decimal.RequireFromString(amount).Neg()
	txns := make([]domain.RawTransaction, 0, count)
	for i := 0; i < count; i++ {
		txns = append(txns, domain.RawTransaction{
			TransactionID: merchant + string(rune('a'+i)),
			MerchantName:  merchant,
			Amount:        amt,
			Date:          start.AddDate(0, 0, i*stepDays),
		})
	}
	return txns
}

func TestDetector_Detect_MonthlyPattern(t *testing.T) {
	d := New(DefaultConfig())
	start := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	patterns := d.Detect(debits("Netflix", "15.49", start, 30, 4))
	if len(patterns) != 1 {
		t.Fatalf("Expected 1 pattern, got %d", len(patterns))
	}

	p := patterns[0]
	if p.MerchantName != "netflix" {
		t.Errorf("Expected normalized merchant netflix, got %q", p.MerchantName)
	}
	if p.Cycle != domain.CycleMonthly {
		t.Errorf("Expected monthly cycle, got %s", p.Cycle)
	}
	if !p.AverageAmount.Equal(decimal.RequireFromString("15.49")) {
		t.Errorf("Expected average amount 15.49, got %s", p.AverageAmount)
	}
	if p.IntervalConsistency != 1 {
		t.Errorf("Expected perfect interval consistency, got %v", p.IntervalConsistency)
	}
	if p.TransactionCount != 4 {
		t.Errorf("Expected 4 transactions, got %d", p.TransactionCount)
	}
	wantLast := start.AddDate(0, 0, 90)
	if !p.LastDate.Equal(wantLast) {
		t.Errorf("Expected last date %v, got %v", wantLast, p.LastDate)
	}
}

func TestDetector_Detect_WeeklyPattern(t *testing.T) {
	d := New(DefaultConfig())
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	patterns := d.Detect(debits("Gym Pass", "9.99", start, 7, 5))
	if len(patterns) != 1 {
		t.Fatalf("Expected 1 pattern, got %d", len(patterns))
	}
	if patterns[0].Cycle != domain.CycleWeekly {
		t.Errorf("Expected weekly cycle, got %s", patterns[0].Cycle)
	}
}

func TestDetector_Detect_RejectsAmountVariance(t *testing.T) {
	d := New(DefaultConfig())
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	// Four charges at four distinct prices: variance ratio 1.0
	txns := []domain.RawTransaction{
		{TransactionID: "a", MerchantName: "Grocer", Amount: decimal.RequireFromString("-10.00"), Date: start},
		{TransactionID: "b", MerchantName: "Grocer", Amount: decimal.RequireFromString("-22.50"), Date: start.AddDate(0, 0, 30)},
		{TransactionID: "c", MerchantName: "Grocer", Amount: decimal.RequireFromString("-31.75"), Date: start.AddDate(0, 0, 60)},
		{TransactionID: "d", MerchantName: "Grocer", Amount: decimal.RequireFromString("-48.20"), Date: start.AddDate(0, 0, 90)},
	}

	if patterns := d.Detect(txns); len(patterns) != 0 {
		t.Errorf("Expected no patterns for unstable amounts, got %d", len(patterns))
	}
}

func TestDetector_Detect_RejectsUnclassifiableInterval(t *testing.T) {
	d := New(DefaultConfig())
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	// 50-day cadence sits in none of the cycle bands
	if patterns := d.Detect(debits("Netflix", "15.49", start, 50, 4)); len(patterns) != 0 {
		t.Errorf("Expected no patterns for 50-day cadence, got %d", len(patterns))
	}
}

func TestDetector_Detect_SkipsCreditsAndEmptyMerchants(t *testing.T) {
	d := New(DefaultConfig())
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	txns := []domain.RawTransaction{
		{TransactionID: "a", MerchantName: "Employer", Amount: decimal.RequireFromString("2500.00"), Date: start},
		{TransactionID: "b", MerchantName: "Employer", Amount: decimal.RequireFromString("2500.00"), Date: start.AddDate(0, 0, 30)},
		{TransactionID: "c", MerchantName: "Employer", Amount: decimal.RequireFromString("2500.00"), Date: start.AddDate(0, 0, 60)},
		{TransactionID: "d", MerchantName: "Employer", Amount: decimal.RequireFromString("2500.00"), Date: start.AddDate(0, 0, 90)},
		{TransactionID: "e", MerchantName: "", Amount: decimal.RequireFromString("-15.49"), Date: start},
	}

	if patterns := d.Detect(txns); len(patterns) != 0 {
		t.Errorf("Expected credits and unnamed merchants to be skipped, got %d patterns", len(patterns))
	}
}

func TestDetector_Detect_TooFewTransactions(t *testing.T) {
	d := New(DefaultConfig())
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	if patterns := d.Detect(debits("Netflix", "15.49", start, 30, 1)); len(patterns) != 0 {
		t.Errorf("Expected no patterns below the group-size floor, got %d", len(patterns))
	}
}

func TestDetector_Detect_GroupsByNormalizedMerchant(t *testing.T) {
	d := New(DefaultConfig())
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	amt := decimal.RequireFromString("-15.49")

	// Same merchant under varying case and padding forms one group
	txns := []domain.RawTransaction{
		{TransactionID: "a", MerchantName: "Netflix", Amount: amt, Date: start},
		{TransactionID: "b", MerchantName: "NETFLIX", Amount: amt, Date: start.AddDate(0, 0, 30)},
		{TransactionID: "c", MerchantName: " netflix ", Amount: amt, Date: start.AddDate(0, 0, 60)},
		{TransactionID: "d", MerchantName: "netflix", Amount: amt, Date: start.AddDate(0, 0, 90)},
	}

	patterns := d.Detect(txns)
	if len(patterns) != 1 {
		t.Fatalf("Expected 1 pattern across name variants, got %d", len(patterns))
	}
	if patterns[0].TransactionCount != 4 {
		t.Errorf("Expected group of 4, got %d", patterns[0].TransactionCount)
	}
}

func TestDetector_Detect_DeterministicOrder(t *testing.T) {
	d := New(DefaultConfig())
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	txns := append(
		debits("Spotify", "9.99", start, 30, 4),
		debits("Netflix", "15.49", start, 30, 4)...,
	)

	patterns := d.Detect(txns)
	if len(patterns) != 2 {
		t.Fatalf("Expected 2 patterns, got %d", len(patterns))
	}
	if patterns[0].MerchantName != "netflix" || patterns[1].MerchantName != "spotify" {
		t.Errorf("Expected merchants sorted by name, got %s then %s",
			patterns[0].MerchantName, patterns[1].MerchantName)
	}
}

func TestNormalizeMerchant(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Netflix", "netflix"},
		{"  NETFLIX  ", "netflix"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeMerchant(tt.input); got != tt.want {
			t.Errorf("NormalizeMerchant(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
