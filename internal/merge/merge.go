// Package merge deduplicates subscription candidates discovered from
// independent evidence streams and combines duplicate pairs into a
// single record.
package merge

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/subzero/subzero/internal/domain"
	"github.com/subzero/subzero/internal/recurrence"
)

// maxAmountDelta is the widest price gap two candidates can have and
// still be considered the same service (when cycle and category also
// agree).
var maxAmountDelta = decimal.NewFromInt(1)

// merchantAliases groups the name variants a single service shows up
// under across bank descriptors and email senders.
var merchantAliases = map[string][]string{
	"netflix":   {"netflix.com", "netflix inc"},
	"spotify":   {"spotify.com", "spotify ab"},
	"amazon":    {"amazon.com", "amzn", "amazon prime"},
	"apple":     {"apple.com", "itunes", "app store"},
	"google":    {"google.com", "youtube", "google play"},
	"microsoft": {"microsoft.com", "msft", "office 365"},
}

// Merge combines bank-origin and email-origin candidate lists into one
// deduplicated list. Bank candidates pass through first; each email
// candidate either merges into an existing entry or is appended. The
// result is sorted by confidence, then amount, both descending.
func Merge(bankResults, emailResults []domain.DetectedSubscription) []domain.DetectedSubscription {
	merged := make([]domain.DetectedSubscription, 0, len(bankResults)+len(emailResults))
	merged = append(merged, bankResults...)

	for _, emailSub := range emailResults {
		found := false
		for i, existing := range merged {
			if AreDuplicate(existing, emailSub) {
				merged[i] = combine(existing, emailSub)
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, emailSub)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].ConfidenceScore != merged[j].ConfidenceScore {
			return merged[i].ConfidenceScore > merged[j].ConfidenceScore
		}
		return merged[i].Amount.GreaterThan(merged[j].Amount)
	})

	return merged
}

// AreDuplicate reports whether two candidates likely describe the same
// service. The test is symmetric: name equality or containment, a
// shared alias group, or a near-identical price on the same cycle and
// category.
func AreDuplicate(a, b domain.DetectedSubscription) bool {
	nameA := recurrence.NormalizeMerchant(a.MerchantName)
	nameB := recurrence.NormalizeMerchant(b.MerchantName)

	if nameA == nameB {
		return true
	}
	if nameA != "" && nameB != "" &&
		(strings.Contains(nameA, nameB) || strings.Contains(nameB, nameA)) {
		return true
	}

	for base, variants := range merchantAliases {
		if matchesAliasGroup(nameA, base, variants) && matchesAliasGroup(nameB, base, variants) {
			return true
		}
	}

	if a.Amount.Sub(b.Amount).Abs().LessThanOrEqual(maxAmountDelta) &&
		a.BillingCycle == b.BillingCycle &&
		a.Category == b.Category {
		return true
	}

	return false
}

func matchesAliasGroup(name, base string, variants []string) bool {
	if strings.Contains(name, base) {
		return true
	}
	for _, v := range variants {
		if strings.Contains(name, v) {
			return true
		}
	}
	return false
}

// combine merges a duplicate pair. Bank evidence wins for amount,
// cycle, category and next billing date; email evidence wins for the
// service name; the merchant name is whichever string is longer.
func combine(a, b domain.DetectedSubscription) domain.DetectedSubscription {
	bank, email := splitBySource(a, b)

	out := domain.DetectedSubscription{
		Amount:          bank.Amount,
		BillingCycle:    bank.BillingCycle,
		Category:        bank.Category,
		DetectionSource: domain.SourceBoth,
		ConfidenceScore: domain.ClampConfidence(maxFloat(a.ConfidenceScore, b.ConfidenceScore) + 0.1),
		SourceStreamID:  bank.SourceStreamID,
	}

	out.MerchantName = a.MerchantName
	if len(b.MerchantName) > len(a.MerchantName) {
		out.MerchantName = b.MerchantName
	}

	out.ServiceName = email.ServiceName
	if out.ServiceName == "" {
		out.ServiceName = bank.ServiceName
	}

	out.CancellationInfo = email.CancellationInfo
	if out.CancellationInfo == nil {
		out.CancellationInfo = bank.CancellationInfo
	}

	out.LastTransactionDate = latestDate(a.LastTransactionDate, b.LastTransactionDate)

	out.NextBillingDate = bank.NextBillingDate
	if out.NextBillingDate == nil {
		out.NextBillingDate = email.NextBillingDate
	}

	return out
}

// splitBySource orders a pair into (bank side, email side). A record
// already marked "both" counts as the bank side since its price fields
// came from bank evidence.
func splitBySource(a, b domain.DetectedSubscription) (bank, email domain.DetectedSubscription) {
	if a.DetectionSource == domain.SourceEmail && b.DetectionSource != domain.SourceEmail {
		return b, a
	}
	return a, b
}

func latestDate(a, b *time.Time) *time.Time {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if b.After(*a) {
		return b
	}
	return a
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
