// Package notionsync pushes discovery results into a Notion database so
// subscriptions can be reviewed and annotated by hand. Pages are keyed
// by merchant name; stale merchants are archived on each sync.
package notionsync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jomei/notionapi"

	"github.com/subzero/subzero/internal/analytics"
	"github.com/subzero/subzero/internal/domain"
	"github.com/subzero/subzero/internal/logger"
)

// SyncSubscriptions syncs a merged subscription list to Notion.
// This function:
// 1. Queries all existing Notion subscription pages
// 2. Archives stale pages (merchants no longer in the list)
// 3. Creates/updates a page per detected subscription
func SyncSubscriptions(ctx context.Context, notionClient NotionService, notionDBID string, subs []domain.DetectedSubscription, dryRun bool) error {
	log := logger.FromContext(ctx)

	log.Info().
		Int("subscription_count", len(subs)).
		Bool("dry_run", dryRun).
		Msg("Starting subscription sync to Notion")

	// Build set of valid merchants from the discovery result
	validMerchants := make(map[string]bool)
	for _, sub := range subs {
		validMerchants[merchantKey(sub.MerchantName)] = true
	}

	// Query all existing subscriptions from Notion
	log.Info().Msg("Querying existing subscriptions from Notion")
	notionPages, err := queryAllNotionPages(ctx, notionClient, notionDBID)
	if err != nil {
		return fmt.Errorf("failed to query Notion pages: %w", err)
	}

	log.Info().Int("notion_page_count", len(notionPages)).Msg("Retrieved existing Notion pages")

	// Map of existing merchant -> page ID (for create-or-update)
	existingPages := make(map[string]string)
	for _, page := range notionPages {
		merchant := extractMerchant(page)
		if merchant != "" {
			existingPages[merchantKey(merchant)] = string(page.ID)
		}
	}

	// Archive stale subscriptions (those not in the valid set)
	var deleted int
	for _, page := range notionPages {
		merchant := extractMerchant(page)

		if merchant == "" || !validMerchants[merchantKey(merchant)] {
			if dryRun {
				log.Info().
					Str("merchant", merchant).
					Str("page_id", string(page.ID)).
					Msg("[DRY RUN] Would archive stale Notion page")
				deleted++
			} else {
				if err := notionClient.DeletePage(ctx, string(page.ID)); err != nil {
					log.Warn().
						Err(err).
						Str("merchant", merchant).
						Str("page_id", string(page.ID)).
						Msg("Failed to archive stale Notion page")
					continue
				}
				log.Info().
					Str("merchant", merchant).
					Str("page_id", string(page.ID)).
					Msg("Archived stale Notion page")
				deleted++
			}
		}
	}

	// Create or update a page per subscription
	var created, updated int
	for _, sub := range subs {
		existingPageID := existingPages[merchantKey(sub.MerchantName)]

		if dryRun {
			if existingPageID != "" {
				log.Info().
					Str("merchant", sub.MerchantName).
					Str("page_id", existingPageID).
					Msg("[DRY RUN] Would update Notion page")
				updated++
			} else {
				log.Info().
					Str("merchant", sub.MerchantName).
					Msg("[DRY RUN] Would create Notion page")
				created++
			}
			continue
		}

		props := SubscriptionToNotionProperties(sub)

		if existingPageID != "" {
			_, err := notionClient.UpdatePage(ctx, existingPageID, props)
			if err != nil {
				log.Warn().
					Err(err).
					Str("merchant", sub.MerchantName).
					Str("page_id", existingPageID).
					Msg("Failed to update Notion page")
				// Continue processing other subscriptions
				continue
			}
			log.Info().
				Str("merchant", sub.MerchantName).
				Str("page_id", existingPageID).
				Msg("Updated Notion page")
			updated++
		} else {
			page, err := notionClient.CreatePage(ctx, notionDBID, props)
			if err != nil {
				log.Warn().
					Err(err).
					Str("merchant", sub.MerchantName).
					Msg("Failed to create Notion page")
				continue
			}
			log.Info().
				Str("merchant", sub.MerchantName).
				Str("page_id", string(page.ID)).
				Msg("Created Notion page")
			created++
		}
	}

	log.Info().
		Int("deleted", deleted).
		Int("created", created).
		Int("updated", updated).
		Int("total", len(subs)).
		Msg("Subscription sync completed")

	return nil
}

// SyncSummary appends one spend-snapshot page for a discovery run.
// Unlike subscriptions these are never updated or archived; the
// database accumulates a history of runs.
func SyncSummary(ctx context.Context, notionClient NotionService, notionDBID string, runID string, summary *analytics.Summary, syncedAt time.Time, dryRun bool) error {
	log := logger.FromContext(ctx)

	if dryRun {
		log.Info().
			Str("run_id", runID).
			Msg("[DRY RUN] Would create spend snapshot page")
		return nil
	}

	props := SummaryToNotionProperties(
		runID,
		FormatMoney(summary.TotalMonthly.StringFixed(2)),
		FormatMoney(summary.TotalAnnual.StringFixed(2)),
		summary.SubscriptionCount,
		syncedAt,
	)

	page, err := notionClient.CreatePage(ctx, notionDBID, props)
	if err != nil {
		return fmt.Errorf("failed to create spend snapshot page: %w", err)
	}

	log.Info().
		Str("run_id", runID).
		Str("page_id", string(page.ID)).
		Msg("Created spend snapshot page")

	return nil
}

// queryAllNotionPages queries all pages from a Notion database.
// Handles pagination automatically.
func queryAllNotionPages(ctx context.Context, notionClient NotionService, databaseID string) ([]notionapi.Page, error) {
	var allPages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize: 100,
		}

		// Only set StartCursor if we have a cursor value
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notionClient.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllNotionPages: %w", err)
		}

		allPages = append(allPages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return allPages, nil
}

// extractMerchant extracts the merchant name from a Notion page's
// title property. Returns empty string if not found.
func extractMerchant(page notionapi.Page) string {
	if prop, ok := page.Properties["Merchant"]; ok {
		if title, ok := prop.(*notionapi.TitleProperty); ok {
			if len(title.Title) > 0 {
				return title.Title[0].PlainText
			}
		}
	}
	return ""
}

// merchantKey normalizes merchant names for page matching.
func merchantKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
