package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/subzero/subzero/internal/discovery"
	"github.com/subzero/subzero/internal/logger"
	"github.com/subzero/subzero/internal/notionsync"
)

func main() {
	// Load .env if present; real env vars take precedence
	_ = godotenv.Load()

	// Initialize structured logger
	log := logger.New()

	// Parse CLI flags
	resultPath := flag.String("result", "", "Discovery result JSON produced by the discover command (required)")
	notionToken := flag.String("notion-token", os.Getenv("NOTION_TOKEN"), "Notion API token (required)")
	notionDBID := flag.String("notion-db-id", os.Getenv("NOTION_SUBSCRIPTIONS_DB_ID"), "Notion subscriptions database ID (required)")
	snapshotDBID := flag.String("snapshot-db-id", os.Getenv("NOTION_SNAPSHOTS_DB_ID"), "Notion spend-snapshots database ID (optional)")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	flag.Parse()

	// Validate required flags
	if *resultPath == "" {
		log.Fatal().Msg("Error: --result is required")
	}
	if *notionToken == "" {
		log.Fatal().Msg("Error: --notion-token or NOTION_TOKEN is required")
	}
	if *notionDBID == "" {
		log.Fatal().Msg("Error: --notion-db-id or NOTION_SUBSCRIPTIONS_DB_ID is required")
	}

	// Read the discovery result
	raw, err := os.ReadFile(*resultPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *resultPath).Msg("Failed to read result file")
	}

	var result discovery.Result
	if err := json.Unmarshal(raw, &result); err != nil {
		log.Fatal().Err(err).Str("path", *resultPath).Msg("Failed to parse result file")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// Add logger to context
	ctx = logger.WithContext(ctx, log)

	log.Info().
		Str("run_id", result.RunID).
		Int("subscriptions", len(result.Subscriptions)).
		Bool("dry_run", *dryRun).
		Msg("Starting Notion sync")

	// Initialize Notion client
	notionClient := notionsync.NewNotionClient(*notionToken)

	// Sync subscriptions
	if err := notionsync.SyncSubscriptions(ctx, notionClient, *notionDBID, result.Subscriptions, *dryRun); err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	// Append the spend snapshot if a snapshots database is configured
	if *snapshotDBID != "" {
		if err := notionsync.SyncSummary(ctx, notionClient, *snapshotDBID, result.RunID, &result.Analytics, time.Now(), *dryRun); err != nil {
			log.Fatal().Err(err).Msg("Snapshot sync failed")
		}
	}

	fmt.Println("Sync completed successfully.")
}
