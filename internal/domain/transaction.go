package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawTransaction represents one transaction as supplied by the bank
// aggregation collaborator. This is a domain struct, not a provider
// payload; the collaborator is responsible for decoding its wire format
// into these fields.
type RawTransaction struct {
	TransactionID string          // unique within the provider
	AccountID     string
	MerchantName  string
	Amount        decimal.Decimal // signed, negative = debit
	Date          time.Time
	CategoryHint  string // provider category, may be empty
}

// IsDebit reports whether the transaction is an outflow. Only debits
// are considered for subscription detection.
func (t RawTransaction) IsDebit() bool {
	return t.Amount.IsNegative()
}

// RecurringStream is a pre-aggregated recurring payment stream from the
// bank aggregation collaborator. When the provider exposes these, the
// bank adapter consumes them directly instead of re-deriving patterns
// from raw transactions.
type RecurringStream struct {
	StreamID     string
	MerchantName string
	CategoryHint string
	LastAmount   decimal.Decimal // positive magnitude of the latest charge
	Frequency    string          // provider frequency: WEEKLY, BIWEEKLY, MONTHLY, QUARTERLY, ANNUALLY, UNKNOWN
	LastDate     time.Time
}
