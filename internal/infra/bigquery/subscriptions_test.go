package bigquery

import (
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/subzero/subzero/internal/domain"
)

func TestSubscriptionToRow(t *testing.T) {
	last := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	next := last.AddDate(0, 0, 30)
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

	sub := domain.DetectedSubscription{
		MerchantName:        "Netflix",
		ServiceName:         "Netflix",
		Amount:              decimal.RequireFromString("15.49"),
		BillingCycle:        domain.CycleMonthly,
		Category:            "entertainment",
		ConfidenceScore:     0.9,
		DetectionSource:     domain.SourceBank,
		LastTransactionDate: &last,
		NextBillingDate:     &next,
		CancellationInfo:    &domain.CancellationInfo{URL: "https://www.netflix.com/account"},
		SourceStreamID:      "stream-1",
	}

	row := SubscriptionToRow(sub, "run-1", "user-1", "sub-1", now)

	if row.SubscriptionID != "sub-1" || row.RunID != "run-1" || row.UserID != "user-1" {
		t.Errorf("Identity fields = %s/%s/%s", row.SubscriptionID, row.RunID, row.UserID)
	}
	if want := new(big.Rat).SetFrac64(1549, 100); row.Amount.Cmp(want) != 0 {
		t.Errorf("Amount = %s, want %s", row.Amount, want)
	}
	if row.BillingCycle != "monthly" || row.Category != "entertainment" {
		t.Errorf("Cycle/category = %s/%s", row.BillingCycle, row.Category)
	}
	if !row.ServiceName.Valid || row.ServiceName.StringVal != "Netflix" {
		t.Errorf("ServiceName = %+v", row.ServiceName)
	}
	if !row.LastTransactionDate.Valid || row.LastTransactionDate.Date.Day != 1 || row.LastTransactionDate.Date.Month != 6 {
		t.Errorf("LastTransactionDate = %+v", row.LastTransactionDate)
	}
	if !row.NextBillingDate.Valid {
		t.Error("Expected NextBillingDate to be set")
	}
	if !row.CancellationURL.Valid || row.CancellationURL.StringVal != "https://www.netflix.com/account" {
		t.Errorf("CancellationURL = %+v", row.CancellationURL)
	}
	if !row.SourceStreamID.Valid || row.SourceStreamID.StringVal != "stream-1" {
		t.Errorf("SourceStreamID = %+v", row.SourceStreamID)
	}
	if !row.CreatedTS.Equal(now) {
		t.Errorf("CreatedTS = %v, want %v", row.CreatedTS, now)
	}
}

func TestSubscriptionToRow_OptionalFieldsNull(t *testing.T) {
	sub := domain.DetectedSubscription{
		MerchantName:    "Mystery Box",
		Amount:          decimal.RequireFromString("4.99"),
		BillingCycle:    domain.CycleMonthly,
		Category:        "unknown",
		ConfidenceScore: 0.3,
		DetectionSource: domain.SourceEmail,
	}

	row := SubscriptionToRow(sub, "run-1", "user-1", "sub-1", time.Now())

	if row.ServiceName.Valid {
		t.Error("Expected null service name")
	}
	if row.LastTransactionDate.Valid || row.NextBillingDate.Valid {
		t.Error("Expected null dates")
	}
	if row.CancellationURL.Valid || row.SourceStreamID.Valid {
		t.Error("Expected null cancellation URL and stream ID")
	}
}
