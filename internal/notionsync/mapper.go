package notionsync

import (
	"fmt"
	"strings"
	"time"

	"github.com/jomei/notionapi"

	"github.com/subzero/subzero/internal/domain"
)

// SubscriptionToNotionProperties converts a detected subscription into
// properties for the Subscriptions database. The Merchant title is the
// sync key; optional fields are omitted rather than written empty.
func SubscriptionToNotionProperties(sub domain.DetectedSubscription) notionapi.Properties {
	amount, _ := sub.Amount.Float64()

	props := notionapi.Properties{
		"Merchant": notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: sub.MerchantName,
					},
				},
			},
		},
		"Amount": notionapi.NumberProperty{
			Number: amount,
		},
		"Billing Cycle": notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: string(sub.BillingCycle),
			},
		},
		"Category": notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: sub.Category,
			},
		},
		"Confidence": notionapi.NumberProperty{
			Number: sub.ConfidenceScore,
		},
		"Detection Source": notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: string(sub.DetectionSource),
			},
		},
	}

	// Service Name
	if sub.ServiceName != "" {
		props["Service Name"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: sub.ServiceName,
					},
				},
			},
		}
	}

	// Last Charge
	if sub.LastTransactionDate != nil {
		props["Last Charge"] = dateProperty(*sub.LastTransactionDate)
	}

	// Next Billing
	if sub.NextBillingDate != nil {
		props["Next Billing"] = dateProperty(*sub.NextBillingDate)
	}

	// Cancellation
	if sub.CancellationInfo != nil {
		if sub.CancellationInfo.URL != "" {
			props["Cancellation URL"] = notionapi.URLProperty{
				URL: sub.CancellationInfo.URL,
			}
		}
		if sub.CancellationInfo.Instructions != "" {
			props["Cancellation Notes"] = notionapi.RichTextProperty{
				RichText: []notionapi.RichText{
					{
						Type: notionapi.ObjectTypeText,
						Text: &notionapi.Text{
							Content: sub.CancellationInfo.Instructions,
						},
					},
				},
			}
		}
	}

	return props
}

// SummaryToNotionProperties converts one analytics summary into Notion
// properties for the Spend Snapshots database. Each synced run adds one
// row keyed by the run ID.
func SummaryToNotionProperties(runID string, totalMonthly, totalAnnual string, subscriptionCount int, syncedAt time.Time) notionapi.Properties {
	return notionapi.Properties{
		"Run ID": notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: runID,
					},
				},
			},
		},
		"Total Monthly": notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: totalMonthly,
					},
				},
			},
		},
		"Total Annual": notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: totalAnnual,
					},
				},
			},
		},
		"Subscriptions": notionapi.NumberProperty{
			Number: float64(subscriptionCount),
		},
		"Synced At": dateProperty(syncedAt),
	}
}

func dateProperty(t time.Time) notionapi.DateProperty {
	d := notionapi.Date(t)
	return notionapi.DateProperty{
		Date: &notionapi.DateObject{
			Start: &d,
		},
	}
}

// FormatMoney renders a decimal amount string with a currency prefix
// for display columns, e.g. "$15.49".
func FormatMoney(amount string) string {
	if strings.HasPrefix(amount, "-") {
		return fmt.Sprintf("-$%s", strings.TrimPrefix(amount, "-"))
	}
	return fmt.Sprintf("$%s", amount)
}
