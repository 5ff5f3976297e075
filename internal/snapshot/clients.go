package snapshot

import (
	"context"
	"time"

	"github.com/subzero/subzero/internal/discovery"
	"github.com/subzero/subzero/internal/domain"
)

// BankClient serves a snapshot's bank data through the collaborator
// interface. Every access token maps to the same snapshot contents,
// which is what an offline replay wants.
type BankClient struct {
	snap *Snapshot
}

// NewBankClient wraps a snapshot as a discovery.BankClient.
func NewBankClient(snap *Snapshot) *BankClient {
	return &BankClient{snap: snap}
}

// GetRecurringStreams implements discovery.BankClient. Snapshots
// without streams behave like providers without the capability.
func (c *BankClient) GetRecurringStreams(ctx context.Context, accessToken string) ([]domain.RecurringStream, error) {
	if len(c.snap.Streams) == 0 {
		return nil, discovery.ErrStreamsUnsupported
	}
	return c.snap.Streams, nil
}

// GetTransactions implements discovery.BankClient.
func (c *BankClient) GetTransactions(ctx context.Context, accessToken string) ([]domain.RawTransaction, error) {
	return c.snap.Transactions, nil
}

// EmailClient serves a snapshot's emails through the collaborator
// interface. Search queries are ignored (the export already filtered);
// the since bound is honored.
type EmailClient struct {
	snap *Snapshot
}

// NewEmailClient wraps a snapshot as a discovery.EmailClient.
func NewEmailClient(snap *Snapshot) *EmailClient {
	return &EmailClient{snap: snap}
}

// GetSubscriptionEmails implements discovery.EmailClient.
func (c *EmailClient) GetSubscriptionEmails(ctx context.Context, creds domain.EmailCredentials, queries []string, since time.Time) ([]domain.RawEmailRecord, error) {
	var out []domain.RawEmailRecord
	for _, email := range c.snap.Emails {
		if !email.ReceivedAt.IsZero() && email.ReceivedAt.Before(since) {
			continue
		}
		out = append(out, email)
	}
	return out, nil
}
