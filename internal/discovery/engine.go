// Package discovery orchestrates a single-shot subscription discovery
// run: the bank and email adapters execute concurrently over their raw
// inputs, the merge engine reconciles their candidates, and analytics
// plus recommendations are computed over the merged list. The engine
// holds no state between runs and performs no I/O of its own.
package discovery

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/subzero/subzero/internal/analytics"
	"github.com/subzero/subzero/internal/classify"
	"github.com/subzero/subzero/internal/domain"
	"github.com/subzero/subzero/internal/logger"
	"github.com/subzero/subzero/internal/merge"
	"github.com/subzero/subzero/internal/recommend"
	"github.com/subzero/subzero/internal/recurrence"
)

// SourceCounts reports how many candidates each evidence stream
// contributed before merging.
type SourceCounts struct {
	Bank        int `json:"bank_count"`
	Email       int `json:"email_count"`
	TotalUnique int `json:"total_unique"`
}

// Result is the complete output of one discovery run.
type Result struct {
	RunID           string                        `json:"run_id"`
	Subscriptions   []domain.DetectedSubscription `json:"subscriptions"`
	Analytics       analytics.Summary             `json:"analysis"`
	Recommendations []recommend.Recommendation    `json:"recommendations"`
	Sources         SourceCounts                  `json:"sources"`
}

// Engine wires the adapters to their collaborators. Construct one per
// configuration, not per run; Discover is safe for concurrent use.
type Engine struct {
	bank       BankClient
	email      EmailClient
	classifier *classify.Classifier
	detector   *recurrence.Detector
	analyzer   *analytics.Analyzer
	now        func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClassifier replaces the default taxonomy classifier.
func WithClassifier(c *classify.Classifier) Option {
	return func(e *Engine) { e.classifier = c }
}

// WithDetectorConfig replaces the default recurrence thresholds.
func WithDetectorConfig(cfg recurrence.Config) Option {
	return func(e *Engine) { e.detector = recurrence.New(cfg) }
}

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
		e.analyzer = &analytics.Analyzer{Now: now}
	}
}

// NewEngine creates a discovery engine over the given collaborators.
func NewEngine(bank BankClient, email EmailClient, opts ...Option) *Engine {
	e := &Engine{
		bank:       bank,
		email:      email,
		classifier: classify.NewDefault(),
		detector:   recurrence.New(recurrence.DefaultConfig()),
		analyzer:   analytics.New(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Merge reconciles the two candidate lists. Exposed on the engine so
// callers holding partial results can combine them the same way
// Discover does.
func (e *Engine) Merge(bankResults, emailResults []domain.DetectedSubscription) []domain.DetectedSubscription {
	return merge.Merge(bankResults, emailResults)
}

// Analyze computes the aggregate summary for a merged list.
func (e *Engine) Analyze(subs []domain.DetectedSubscription) analytics.Summary {
	return e.analyzer.Analyze(subs)
}

// Recommend derives suggestions from a merged list and its summary.
func (e *Engine) Recommend(subs []domain.DetectedSubscription, summary analytics.Summary) []recommend.Recommendation {
	return recommend.Generate(subs, summary)
}

// Discover runs the full pipeline. The bank and email adapters are
// independent and run concurrently; the merge below is the only
// synchronization point. A failed source contributes an empty list and
// the run completes with degraded coverage rather than aborting.
func (e *Engine) Discover(ctx context.Context, accessTokens []string, creds *domain.EmailCredentials) Result {
	log := logger.FromContext(ctx)
	runID := uuid.NewString()

	log.Info().
		Str("run_id", runID).
		Int("bank_tokens", len(accessTokens)).
		Bool("email_enabled", creds != nil).
		Msg("Starting subscription discovery")

	var (
		wg        sync.WaitGroup
		bankSubs  []domain.DetectedSubscription
		emailSubs []domain.DetectedSubscription
	)

	if len(accessTokens) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bankSubs = e.DiscoverFromBank(ctx, accessTokens)
		}()
	}

	if creds != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			subs, err := e.DiscoverFromEmail(ctx, *creds)
			if err != nil {
				log.Error().Err(err).Msg("Email discovery failed, continuing with bank results only")
				return
			}
			emailSubs = subs
		}()
	}

	wg.Wait()

	merged := e.Merge(bankSubs, emailSubs)
	summary := e.Analyze(merged)
	recommendations := e.Recommend(merged, summary)

	log.Info().
		Str("run_id", runID).
		Int("bank_candidates", len(bankSubs)).
		Int("email_candidates", len(emailSubs)).
		Int("merged", len(merged)).
		Msg("Discovery run complete")

	return Result{
		RunID:           runID,
		Subscriptions:   merged,
		Analytics:       summary,
		Recommendations: recommendations,
		Sources: SourceCounts{
			Bank:        len(bankSubs),
			Email:       len(emailSubs),
			TotalUnique: len(merged),
		},
	}
}
