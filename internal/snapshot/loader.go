// Package snapshot replays exported provider data for offline
// discovery runs. A snapshot is a JSON file, read from local disk or
// from a gs:// URI, holding raw transactions, recurring streams, and
// emails in the engine's domain shapes.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/shopspring/decimal"

	"github.com/subzero/subzero/internal/domain"
)

// Snapshot is the decoded contents of one export file.
type Snapshot struct {
	Transactions []domain.RawTransaction
	Streams      []domain.RecurringStream
	Emails       []domain.RawEmailRecord
}

// File format. Dates are YYYY-MM-DD, timestamps RFC 3339, amounts
// decimal strings.
type fileFormat struct {
	Transactions []transactionRecord `json:"transactions"`
	Streams      []streamRecord      `json:"recurring_streams"`
	Emails       []emailRecord       `json:"emails"`
}

type transactionRecord struct {
	TransactionID string `json:"transaction_id"`
	AccountID     string `json:"account_id"`
	MerchantName  string `json:"merchant_name"`
	Amount        string `json:"amount"`
	Date          string `json:"date"`
	CategoryHint  string `json:"category_hint,omitempty"`
}

type streamRecord struct {
	StreamID     string `json:"stream_id"`
	MerchantName string `json:"merchant_name"`
	CategoryHint string `json:"category_hint,omitempty"`
	LastAmount   string `json:"last_amount"`
	Frequency    string `json:"frequency"`
	LastDate     string `json:"last_date"`
}

type emailRecord struct {
	MessageID  string    `json:"message_id"`
	Sender     string    `json:"sender"`
	Subject    string    `json:"subject"`
	BodyText   string    `json:"body_text"`
	ReceivedAt time.Time `json:"received_at"`
}

// Load reads and decodes a snapshot from a local path or a gs:// URI.
// Records missing required fields are skipped, not fatal.
func Load(ctx context.Context, uri string) (*Snapshot, error) {
	data, err := fetch(ctx, uri)
	if err != nil {
		return nil, err
	}
	return decode(data)
}

func fetch(ctx context.Context, uri string) ([]byte, error) {
	if strings.HasPrefix(uri, "gs://") {
		return fetchFromGCS(ctx, uri)
	}

	data, err := os.ReadFile(uri)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read %q: %w", uri, err)
	}
	return data, nil
}

// fetchFromGCS downloads the object bytes at a gs://bucket/path URI.
func fetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error) {
	trimmed := strings.TrimPrefix(gcsURI, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("snapshot: invalid GCS URI (no object path): %s", gcsURI)
	}
	bucketName, objectPath := parts[0], parts[1]

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot: creating storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	r, err := client.Bucket(bucketName).Object(objectPath).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open %s: %w", gcsURI, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read %s: %w", gcsURI, err)
	}
	return data, nil
}

func decode(data []byte) (*Snapshot, error) {
	var file fileFormat
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}

	snap := &Snapshot{}

	for _, rec := range file.Transactions {
		tx, err := rec.toDomain()
		if err != nil {
			continue // malformed record, skip
		}
		snap.Transactions = append(snap.Transactions, tx)
	}

	for _, rec := range file.Streams {
		stream, err := rec.toDomain()
		if err != nil {
			continue
		}
		snap.Streams = append(snap.Streams, stream)
	}

	for _, rec := range file.Emails {
		if rec.Sender == "" && rec.Subject == "" {
			continue
		}
		snap.Emails = append(snap.Emails, domain.RawEmailRecord{
			MessageID:  rec.MessageID,
			Sender:     rec.Sender,
			Subject:    rec.Subject,
			BodyText:   rec.BodyText,
			ReceivedAt: rec.ReceivedAt,
		})
	}

	return snap, nil
}

func (r transactionRecord) toDomain() (domain.RawTransaction, error) {
	if r.TransactionID == "" || r.MerchantName == "" {
		return domain.RawTransaction{}, fmt.Errorf("snapshot: transaction missing required fields")
	}
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return domain.RawTransaction{}, fmt.Errorf("snapshot: transaction %s: amount: %w", r.TransactionID, err)
	}
	date, err := time.Parse("2006-01-02", r.Date)
	if err != nil {
		return domain.RawTransaction{}, fmt.Errorf("snapshot: transaction %s: date: %w", r.TransactionID, err)
	}
	return domain.RawTransaction{
		TransactionID: r.TransactionID,
		AccountID:     r.AccountID,
		MerchantName:  r.MerchantName,
		Amount:        amount,
		Date:          date,
		CategoryHint:  r.CategoryHint,
	}, nil
}

func (r streamRecord) toDomain() (domain.RecurringStream, error) {
	if r.MerchantName == "" {
		return domain.RecurringStream{}, fmt.Errorf("snapshot: stream missing merchant name")
	}
	amount, err := decimal.NewFromString(r.LastAmount)
	if err != nil {
		return domain.RecurringStream{}, fmt.Errorf("snapshot: stream %s: amount: %w", r.StreamID, err)
	}
	var lastDate time.Time
	if r.LastDate != "" {
		lastDate, err = time.Parse("2006-01-02", r.LastDate)
		if err != nil {
			return domain.RecurringStream{}, fmt.Errorf("snapshot: stream %s: last date: %w", r.StreamID, err)
		}
	}
	return domain.RecurringStream{
		StreamID:     r.StreamID,
		MerchantName: r.MerchantName,
		CategoryHint: r.CategoryHint,
		LastAmount:   amount,
		Frequency:    r.Frequency,
		LastDate:     lastDate,
	}, nil
}
