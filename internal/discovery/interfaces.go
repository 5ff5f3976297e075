package discovery

import (
	"context"
	"errors"
	"time"

	"github.com/subzero/subzero/internal/domain"
)

// ErrStreamsUnsupported is returned by bank collaborators that cannot
// serve pre-aggregated recurring streams; the adapter then falls back
// to raw transactions and the pattern detector.
var ErrStreamsUnsupported = errors.New("discovery: recurring streams not supported by provider")

// ErrSourceUnavailable wraps collaborator failures. The engine recovers
// by treating the failed source as an empty contribution; discovery
// never aborts because one side is down.
var ErrSourceUnavailable = errors.New("discovery: source unavailable")

// BankClient is the bank-aggregation collaborator, specified at its
// interface boundary only. Implementations own authentication, network
// calls, and timeouts.
type BankClient interface {
	// GetRecurringStreams returns the provider's pre-aggregated
	// recurring outflow streams for one linked account. Providers
	// without this capability return ErrStreamsUnsupported.
	GetRecurringStreams(ctx context.Context, accessToken string) ([]domain.RecurringStream, error)

	// GetTransactions returns raw transaction history for one linked
	// account.
	GetTransactions(ctx context.Context, accessToken string) ([]domain.RawTransaction, error)
}

// EmailClient is the email-aggregation collaborator. It returns
// subscription-related messages already decoded to plain text.
type EmailClient interface {
	GetSubscriptionEmails(ctx context.Context, creds domain.EmailCredentials, queries []string, since time.Time) ([]domain.RawEmailRecord, error)
}

// DefaultEmailQueries are the provider search queries used to narrow
// the mailbox down to likely subscription receipts.
var DefaultEmailQueries = []string{
	"subject:(subscription OR billing OR invoice OR receipt)",
	"from:(noreply OR billing OR support) subject:(payment OR charge)",
	"subject:(trial OR premium OR upgrade OR renewal)",
	"subject:(welcome OR thank you) body:(subscription OR plan)",
}

// EmailLookback bounds how far back the email search reaches.
const EmailLookback = 180 * 24 * time.Hour
