package discovery

import (
	"context"

	"github.com/subzero/subzero/internal/classify"
	"github.com/subzero/subzero/internal/domain"
	"github.com/subzero/subzero/internal/emailscan"
	"github.com/subzero/subzero/internal/logger"
)

// emailConfidenceBoost reflects that a receipt in the user's own
// mailbox is direct evidence, even though email extraction is noisier
// than bank data overall.
const emailConfidenceBoost = 0.1

// DiscoverFromEmail produces subscription candidates from the user's
// mailbox. Messages that don't yield both a merchant and a plausible
// amount are skipped silently; duplicate message IDs (the same message
// matched by several search queries) are analyzed once.
func (e *Engine) DiscoverFromEmail(ctx context.Context, creds domain.EmailCredentials) ([]domain.DetectedSubscription, error) {
	log := logger.FromContext(ctx)

	since := e.now().Add(-EmailLookback)
	emails, err := e.email.GetSubscriptionEmails(ctx, creds, DefaultEmailQueries, since)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(emails))
	var candidates []domain.DetectedSubscription
	for _, email := range emails {
		if email.MessageID != "" && seen[email.MessageID] {
			continue
		}
		seen[email.MessageID] = true

		if sub, ok := e.candidateFromEmail(email); ok {
			candidates = append(candidates, sub)
		}
	}

	log.Info().
		Int("messages", len(emails)).
		Int("candidates", len(candidates)).
		Msg("Email discovery finished")

	return candidates, nil
}

// candidateFromEmail turns one message into a candidate when the
// extractor resolves both merchant and amount.
func (e *Engine) candidateFromEmail(email domain.RawEmailRecord) (domain.DetectedSubscription, bool) {
	signal, ok := emailscan.Extract(email)
	if !ok {
		return domain.DetectedSubscription{}, false
	}

	category, confidence := e.classifier.Classify(signal.MerchantName)

	sub := domain.DetectedSubscription{
		MerchantName:     signal.MerchantName,
		ServiceName:      classify.ServiceName(signal.MerchantName),
		Amount:           signal.Amount,
		BillingCycle:     signal.Cycle,
		Category:         category,
		ConfidenceScore:  domain.ClampConfidence(confidence + emailConfidenceBoost),
		DetectionSource:  domain.SourceEmail,
		CancellationInfo: classify.Cancellation(signal.MerchantName),
	}

	if !email.ReceivedAt.IsZero() {
		received := email.ReceivedAt
		sub.LastTransactionDate = &received
		next := received.AddDate(0, 0, signal.Cycle.Days())
		sub.NextBillingDate = &next
	}

	return sub, true
}
