package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/subzero/subzero/internal/credstore"
	"github.com/subzero/subzero/internal/discovery"
	"github.com/subzero/subzero/internal/domain"
	infrabq "github.com/subzero/subzero/internal/infra/bigquery"
	"github.com/subzero/subzero/internal/logger"
	"github.com/subzero/subzero/internal/snapshot"
)

func main() {
	// Load .env if present; real env vars take precedence
	_ = godotenv.Load()

	// Initialize structured logger
	log := logger.New()

	// Parse CLI flags
	snapshotURI := flag.String("snapshot", "", "Snapshot path or gs:// URI with transactions, streams and emails (required)")
	userID := flag.String("user", "local", "User ID for credential lookup and result attribution")
	dbPath := flag.String("db", "", "SQLite credential store path (optional; snapshot runs work without it)")
	accessToken := flag.String("access-token", "", "Bank access token to use instead of the credential store")
	bqProject := flag.String("bq-project", os.Getenv("GCP_PROJECT_ID"), "GCP project for result export (optional)")
	outPath := flag.String("out", "", "Write the result JSON to this file instead of stdout")
	noEmail := flag.Bool("no-email", false, "Skip the email evidence stream")
	flag.Parse()

	// Validate required flags
	if *snapshotURI == "" {
		log.Fatal().Msg("Error: --snapshot is required")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// Add logger to context
	ctx = logger.WithContext(ctx, log)

	log.Info().
		Str("snapshot", *snapshotURI).
		Str("user_id", *userID).
		Msg("Starting discovery run")

	// Load the snapshot and wrap it as the bank and email providers
	snap, err := snapshot.Load(ctx, *snapshotURI)
	if err != nil {
		log.Fatal().Err(err).Str("snapshot", *snapshotURI).Msg("Failed to load snapshot")
	}

	log.Info().
		Int("transactions", len(snap.Transactions)).
		Int("streams", len(snap.Streams)).
		Int("emails", len(snap.Emails)).
		Msg("Loaded snapshot")

	tokens, emailCreds := resolveCredentials(ctx, log, *dbPath, *userID, *accessToken)
	if *noEmail || len(snap.Emails) == 0 {
		emailCreds = nil
	}

	engine := discovery.NewEngine(snapshot.NewBankClient(snap), snapshot.NewEmailClient(snap))
	result := engine.Discover(ctx, tokens, emailCreds)

	// Export to BigQuery when a project is configured
	if *bqProject != "" {
		exportResult(ctx, *bqProject, *userID, result)
	}

	// Emit the result JSON
	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to encode result")
	}

	if *outPath != "" {
		if err := os.WriteFile(*outPath, encoded, 0o644); err != nil {
			log.Fatal().Err(err).Str("path", *outPath).Msg("Failed to write result file")
		}
		log.Info().Str("path", *outPath).Msg("Wrote result")
	} else {
		fmt.Println(string(encoded))
	}
}

// resolveCredentials picks bank tokens and email credentials from the
// flag, the SQLite store, or falls back to a synthetic token so a pure
// snapshot replay still runs.
func resolveCredentials(ctx context.Context, log zerolog.Logger, dbPath, userID, accessToken string) ([]string, *domain.EmailCredentials) {
	var tokens []string
	var emailCreds *domain.EmailCredentials

	if accessToken != "" {
		tokens = append(tokens, accessToken)
	}

	if dbPath != "" {
		store, err := credstore.OpenSQLite(dbPath)
		if err != nil {
			log.Fatal().Err(err).Str("db", dbPath).Msg("Failed to open credential store")
		}
		defer store.Close()

		if len(tokens) == 0 {
			stored, err := store.ListBankTokens(ctx, userID)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to list bank tokens")
			}
			tokens = stored
		}

		creds, err := store.GetEmailCredentials(ctx, userID)
		switch {
		case err == nil:
			emailCreds = &creds
		case err == credstore.ErrNotFound:
			log.Info().Str("user_id", userID).Msg("No email credentials stored")
		default:
			log.Fatal().Err(err).Msg("Failed to read email credentials")
		}
	}

	if len(tokens) == 0 {
		// Snapshot providers ignore the token value
		tokens = []string{"snapshot"}
	}
	if emailCreds == nil {
		emailCreds = &domain.EmailCredentials{UserID: userID}
	}
	return tokens, emailCreds
}

// exportResult records the run and its subscriptions in BigQuery.
// Export failures are fatal only for the insert itself; the run row is
// marked FAILED first so the history stays consistent.
func exportResult(ctx context.Context, projectID, userID string, result discovery.Result) {
	log := logger.FromContext(ctx)

	repo, err := infrabq.NewRepository(ctx, projectID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize BigQuery repository")
	}
	defer repo.Close()

	if err := repo.StartRun(ctx, result.RunID, userID); err != nil {
		log.Fatal().Err(err).Msg("Failed to record run start")
	}

	if err := repo.InsertSubscriptions(ctx, result.RunID, userID, result.Subscriptions); err != nil {
		repo.MarkRunFailed(ctx, result.RunID, err)
		log.Fatal().Err(err).Msg("Failed to insert subscriptions")
	}

	counts := [3]int64{
		int64(result.Sources.Bank),
		int64(result.Sources.Email),
		int64(result.Sources.TotalUnique),
	}
	if err := repo.MarkRunSucceeded(ctx, result.RunID, counts); err != nil {
		log.Fatal().Err(err).Msg("Failed to record run completion")
	}

	log.Info().
		Str("run_id", result.RunID).
		Str("project", projectID).
		Msg("Exported run to BigQuery")
}
