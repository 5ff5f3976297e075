// Package bigquery persists discovery results for callers that want a
// queryable history of runs. The engine itself never touches this; it
// is caller-side infrastructure.
package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/subzero/subzero/internal/domain"
)

const datasetID = "subzero"

// DiscoveryRunRow is the discovery_runs table schema.
type DiscoveryRunRow struct {
	RunID  string `bigquery:"run_id"`
	UserID string `bigquery:"user_id"`

	StartedAt  time.Time              `bigquery:"started_ts"`
	FinishedAt bigquery.NullTimestamp `bigquery:"finished_ts"`

	Status       string `bigquery:"status"` // RUNNING, SUCCESS, FAILED
	ErrorMessage string `bigquery:"error_message"`

	BankCount  bigquery.NullInt64 `bigquery:"bank_count"`
	EmailCount bigquery.NullInt64 `bigquery:"email_count"`
	TotalCount bigquery.NullInt64 `bigquery:"total_count"`
}

// ResultRepository stores discovery runs and their detected
// subscriptions. The interface exists so the CLI can be tested without
// a live dataset.
type ResultRepository interface {
	StartRun(ctx context.Context, runID, userID string) error
	MarkRunSucceeded(ctx context.Context, runID string, counts [3]int64) error
	MarkRunFailed(ctx context.Context, runID string, runErr error)
	InsertSubscriptions(ctx context.Context, runID, userID string, subs []domain.DetectedSubscription) error
	ListSubscriptionsByRun(ctx context.Context, runID string) ([]*DetectedSubscriptionRow, error)
	Close() error
}

// Repository is the BigQuery-backed ResultRepository. It holds a
// shared client to avoid reconnecting per operation.
type Repository struct {
	client *bigquery.Client
}

// NewRepository creates a repository for the given project.
func NewRepository(ctx context.Context, projectID string) (*Repository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("bigquery: creating client: %w", err)
	}
	return &Repository{client: client}, nil
}

// Close closes the BigQuery client connection.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// StartRun inserts a discovery_runs row with status=RUNNING.
func (r *Repository) StartRun(ctx context.Context, runID, userID string) error {
	inserter := r.client.Dataset(datasetID).Table("discovery_runs").Inserter()
	row := &DiscoveryRunRow{
		RunID:     runID,
		UserID:    userID,
		StartedAt: time.Now(),
		Status:    "RUNNING",
	}
	if err := inserter.Put(ctx, row); err != nil {
		return fmt.Errorf("bigquery: start run %s: %w", runID, err)
	}
	return nil
}

// MarkRunSucceeded updates a run to status=SUCCESS with the per-source
// candidate counts (bank, email, total).
func (r *Repository) MarkRunSucceeded(ctx context.Context, runID string, counts [3]int64) error {
	q := r.client.Query(fmt.Sprintf(`
		UPDATE %s.discovery_runs
		SET status = @status,
		    finished_ts = @finished_ts,
		    bank_count = @bank_count,
		    email_count = @email_count,
		    total_count = @total_count
		WHERE run_id = @run_id
	`, datasetID))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: "SUCCESS"},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "bank_count", Value: counts[0]},
		{Name: "email_count", Value: counts[1]},
		{Name: "total_count", Value: counts[2]},
		{Name: "run_id", Value: runID},
	}
	return runAndWait(ctx, q, "MarkRunSucceeded")
}

// MarkRunFailed updates a run to status=FAILED. Failures to record the
// failure are logged by the caller; this is best effort.
func (r *Repository) MarkRunFailed(ctx context.Context, runID string, runErr error) {
	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
		const maxLen = 2000
		if len(errMsg) > maxLen {
			errMsg = errMsg[:maxLen]
		}
	}

	q := r.client.Query(fmt.Sprintf(`
		UPDATE %s.discovery_runs
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = @error_message
		WHERE run_id = @run_id
	`, datasetID))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: "FAILED"},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "error_message", Value: errMsg},
		{Name: "run_id", Value: runID},
	}
	_ = runAndWait(ctx, q, "MarkRunFailed")
}

// InsertSubscriptions streams the merged list into the
// detected_subscriptions table.
func (r *Repository) InsertSubscriptions(ctx context.Context, runID, userID string, subs []domain.DetectedSubscription) error {
	if len(subs) == 0 {
		return nil
	}

	now := time.Now()
	rows := make([]*DetectedSubscriptionRow, 0, len(subs))
	for _, sub := range subs {
		rows = append(rows, SubscriptionToRow(sub, runID, userID, uuid.NewString(), now))
	}

	inserter := r.client.Dataset(datasetID).Table("detected_subscriptions").Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("bigquery: insert subscriptions for run %s: %w", runID, err)
	}
	return nil
}

// ListSubscriptionsByRun returns the stored rows for one run, highest
// confidence first.
func (r *Repository) ListSubscriptionsByRun(ctx context.Context, runID string) ([]*DetectedSubscriptionRow, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT *
		FROM %s.detected_subscriptions
		WHERE run_id = @run_id
		ORDER BY confidence_score DESC, amount DESC
	`, datasetID))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "run_id", Value: runID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("bigquery: query subscriptions for run %s: %w", runID, err)
	}

	var rows []*DetectedSubscriptionRow
	for {
		var row DetectedSubscriptionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("bigquery: iterate subscriptions for run %s: %w", runID, err)
		}
		rows = append(rows, &row)
	}
	return rows, nil
}

func runAndWait(ctx context.Context, q *bigquery.Query, op string) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("bigquery: %s: running query: %w", op, err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("bigquery: %s: waiting for job: %w", op, err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("bigquery: %s: job error: %w", op, err)
	}
	return nil
}
