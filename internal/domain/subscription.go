package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillingCycle is the normalized cadence of a subscription. It is a
// closed enum: detection rejects anything that does not map onto one of
// these five values, so downstream code never sees free text here.
type BillingCycle string

const (
	CycleWeekly    BillingCycle = "weekly"
	CycleBiweekly  BillingCycle = "biweekly"
	CycleMonthly   BillingCycle = "monthly"
	CycleQuarterly BillingCycle = "quarterly"
	CycleAnnual    BillingCycle = "annual"
)

// Days returns the projection interval used to estimate the next
// billing date from the last observed charge.
func (c BillingCycle) Days() int {
	switch c {
	case CycleWeekly:
		return 7
	case CycleBiweekly:
		return 14
	case CycleQuarterly:
		return 90
	case CycleAnnual:
		return 365
	default:
		return 30
	}
}

// Valid reports whether c is one of the five enumerated cycles.
func (c BillingCycle) Valid() bool {
	switch c {
	case CycleWeekly, CycleBiweekly, CycleMonthly, CycleQuarterly, CycleAnnual:
		return true
	}
	return false
}

// DetectionSource records which evidence stream produced a subscription.
type DetectionSource string

const (
	SourceBank  DetectionSource = "bank"
	SourceEmail DetectionSource = "email"
	// SourceBoth is only ever set by the merge engine after it pairs a
	// bank-origin candidate with an email-origin one.
	SourceBoth DetectionSource = "both"
)

// CancellationInfo describes how a known service can be cancelled.
type CancellationInfo struct {
	Method       string `json:"method"`
	URL          string `json:"url"`
	Instructions string `json:"instructions"`
}

// DetectedSubscription is the engine's core output entity. Candidates
// are created fresh on each discovery run, live in memory for the
// duration of the merge/analytics/recommendation pipeline, and are
// handed to the caller. Persistence is the caller's concern.
//
// Invariants: Amount is always a positive magnitude, ConfidenceScore is
// clamped to [0, 1], and BillingCycle is always one of the enum values.
type DetectedSubscription struct {
	MerchantName        string            `json:"merchant_name"`
	ServiceName         string            `json:"service_name,omitempty"`
	Amount              decimal.Decimal   `json:"amount"`
	BillingCycle        BillingCycle      `json:"billing_cycle"`
	Category            string            `json:"category"`
	ConfidenceScore     float64           `json:"confidence_score"`
	DetectionSource     DetectionSource   `json:"detection_source"`
	LastTransactionDate *time.Time        `json:"last_transaction_date,omitempty"`
	NextBillingDate     *time.Time        `json:"next_billing_date,omitempty"`
	CancellationInfo    *CancellationInfo `json:"cancellation_info,omitempty"`
	SourceStreamID      string            `json:"source_stream_id,omitempty"`
}

// ClampConfidence bounds a confidence score to [0, 1].
func ClampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
