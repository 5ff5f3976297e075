package discovery

import (
	"context"
	"errors"
	"strings"

	"github.com/subzero/subzero/internal/classify"
	"github.com/subzero/subzero/internal/domain"
	"github.com/subzero/subzero/internal/logger"
)

// streamConfidenceBoost rewards provider-confirmed recurring streams:
// the provider has already vetted the cadence, so these candidates are
// stronger than anything we infer ourselves.
const streamConfidenceBoost = 0.2

// frequencyCycles maps provider stream frequencies onto the cycle
// enum. Unknown frequencies default to monthly.
var frequencyCycles = map[string]domain.BillingCycle{
	"WEEKLY":    domain.CycleWeekly,
	"BIWEEKLY":  domain.CycleBiweekly,
	"MONTHLY":   domain.CycleMonthly,
	"QUARTERLY": domain.CycleQuarterly,
	"ANNUALLY":  domain.CycleAnnual,
}

// DiscoverFromBank produces subscription candidates from every linked
// account. Accounts are isolated: a failure on one access token is
// logged and skipped, never aborting the others.
func (e *Engine) DiscoverFromBank(ctx context.Context, accessTokens []string) []domain.DetectedSubscription {
	log := logger.FromContext(ctx)

	var candidates []domain.DetectedSubscription
	for _, token := range accessTokens {
		subs, err := e.discoverAccount(ctx, token)
		if err != nil {
			log.Error().Err(err).Msg("Bank account discovery failed, skipping account")
			continue
		}
		candidates = append(candidates, subs...)
	}
	return candidates
}

// discoverAccount tries the provider's recurring-stream endpoint first
// and falls back to raw transactions plus the pattern detector.
func (e *Engine) discoverAccount(ctx context.Context, accessToken string) ([]domain.DetectedSubscription, error) {
	log := logger.FromContext(ctx)

	streams, err := e.bank.GetRecurringStreams(ctx, accessToken)
	if err == nil {
		return e.candidatesFromStreams(streams), nil
	}
	if !errors.Is(err, ErrStreamsUnsupported) {
		return nil, err
	}

	log.Debug().Msg("Provider has no recurring streams, analyzing raw transactions")

	transactions, err := e.bank.GetTransactions(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	return e.candidatesFromTransactions(transactions), nil
}

// candidatesFromStreams converts provider recurring streams into
// candidates. Inflows and zero-amount streams are skipped.
func (e *Engine) candidatesFromStreams(streams []domain.RecurringStream) []domain.DetectedSubscription {
	var out []domain.DetectedSubscription
	for _, stream := range streams {
		if stream.MerchantName == "" || stream.LastAmount.IsZero() {
			continue
		}

		category, confidence := e.classifier.Classify(stream.MerchantName)
		cycle, ok := frequencyCycles[strings.ToUpper(stream.Frequency)]
		if !ok {
			cycle = domain.CycleMonthly
		}

		sub := domain.DetectedSubscription{
			MerchantName:     stream.MerchantName,
			ServiceName:      classify.ServiceName(stream.MerchantName),
			Amount:           stream.LastAmount.Abs(),
			BillingCycle:     cycle,
			Category:         category,
			ConfidenceScore:  domain.ClampConfidence(confidence + streamConfidenceBoost),
			DetectionSource:  domain.SourceBank,
			CancellationInfo: classify.Cancellation(stream.MerchantName),
			SourceStreamID:   stream.StreamID,
		}
		if !stream.LastDate.IsZero() {
			last := stream.LastDate
			sub.LastTransactionDate = &last
			next := last.AddDate(0, 0, cycle.Days())
			sub.NextBillingDate = &next
		}
		out = append(out, sub)
	}
	return out
}

// candidatesFromTransactions runs the recurrence detector over raw
// history and keeps only patterns whose merchant clears the classifier
// confidence gate. The gate is a hard acceptance threshold.
func (e *Engine) candidatesFromTransactions(transactions []domain.RawTransaction) []domain.DetectedSubscription {
	patterns := e.detector.Detect(transactions)
	gate := e.detector.Config().MinClassifierConfidence

	var out []domain.DetectedSubscription
	for _, pattern := range patterns {
		category, confidence := e.classifier.Classify(pattern.MerchantName)
		if confidence <= gate {
			continue
		}

		last := pattern.LastDate
		next := last.AddDate(0, 0, pattern.Cycle.Days())

		out = append(out, domain.DetectedSubscription{
			MerchantName:        pattern.MerchantName,
			ServiceName:         classify.ServiceName(pattern.MerchantName),
			Amount:              pattern.AverageAmount,
			BillingCycle:        pattern.Cycle,
			Category:            category,
			ConfidenceScore:     domain.ClampConfidence(confidence * pattern.IntervalConsistency),
			DetectionSource:     domain.SourceBank,
			LastTransactionDate: &last,
			NextBillingDate:     &next,
			CancellationInfo:    classify.Cancellation(pattern.MerchantName),
		})
	}
	return out
}
