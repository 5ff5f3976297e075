package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/subzero/subzero/internal/domain"
)

// DetectedSubscriptionRow is the detected_subscriptions table schema.
type DetectedSubscriptionRow struct {
	SubscriptionID string `bigquery:"subscription_id"` // REQUIRED
	RunID          string `bigquery:"run_id"`          // REQUIRED
	UserID         string `bigquery:"user_id"`         // NULLABLE

	MerchantName string              `bigquery:"merchant_name"` // REQUIRED
	ServiceName  bigquery.NullString `bigquery:"service_name"`  // NULLABLE

	Amount       *big.Rat `bigquery:"amount"`        // REQUIRED NUMERIC
	BillingCycle string   `bigquery:"billing_cycle"` // REQUIRED
	Category     string   `bigquery:"category"`      // REQUIRED

	ConfidenceScore float64 `bigquery:"confidence_score"` // REQUIRED
	DetectionSource string  `bigquery:"detection_source"` // REQUIRED

	LastTransactionDate bigquery.NullDate `bigquery:"last_transaction_date"` // NULLABLE
	NextBillingDate     bigquery.NullDate `bigquery:"next_billing_date"`     // NULLABLE

	CancellationURL bigquery.NullString `bigquery:"cancellation_url"` // NULLABLE
	SourceStreamID  bigquery.NullString `bigquery:"source_stream_id"` // NULLABLE

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

// SubscriptionToRow maps one engine output record into its table row.
func SubscriptionToRow(sub domain.DetectedSubscription, runID, userID, subscriptionID string, now time.Time) *DetectedSubscriptionRow {
	row := &DetectedSubscriptionRow{
		SubscriptionID:  subscriptionID,
		RunID:           runID,
		UserID:          userID,
		MerchantName:    sub.MerchantName,
		Amount:          sub.Amount.Rat(),
		BillingCycle:    string(sub.BillingCycle),
		Category:        sub.Category,
		ConfidenceScore: sub.ConfidenceScore,
		DetectionSource: string(sub.DetectionSource),
		CreatedTS:       now,
	}

	if sub.ServiceName != "" {
		row.ServiceName = bigquery.NullString{StringVal: sub.ServiceName, Valid: true}
	}
	if sub.LastTransactionDate != nil {
		row.LastTransactionDate = bigquery.NullDate{Date: civil.DateOf(*sub.LastTransactionDate), Valid: true}
	}
	if sub.NextBillingDate != nil {
		row.NextBillingDate = bigquery.NullDate{Date: civil.DateOf(*sub.NextBillingDate), Valid: true}
	}
	if sub.CancellationInfo != nil {
		row.CancellationURL = bigquery.NullString{StringVal: sub.CancellationInfo.URL, Valid: true}
	}
	if sub.SourceStreamID != "" {
		row.SourceStreamID = bigquery.NullString{StringVal: sub.SourceStreamID, Valid: true}
	}

	return row
}
