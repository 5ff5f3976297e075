// Package credstore holds provider credentials for discovery runs.
// The store is always passed into callers explicitly; there is no
// process-wide credential cache.
package credstore

import (
	"context"
	"errors"
	"sync"

	"github.com/subzero/subzero/internal/domain"
)

// ErrNotFound is returned when a user has no stored credentials.
var ErrNotFound = errors.New("credstore: not found")

// Store persists bank access tokens and email credentials per user.
type Store interface {
	// SaveBankToken adds one bank access token for a user. Saving the
	// same token twice is a no-op.
	SaveBankToken(ctx context.Context, userID, accessToken string) error

	// ListBankTokens returns all bank access tokens linked by a user,
	// in insertion order. A user with no tokens gets an empty slice,
	// not an error.
	ListBankTokens(ctx context.Context, userID string) ([]string, error)

	// SaveEmailCredentials stores (or replaces) a user's email
	// credentials.
	SaveEmailCredentials(ctx context.Context, creds domain.EmailCredentials) error

	// GetEmailCredentials returns a user's email credentials, or
	// ErrNotFound.
	GetEmailCredentials(ctx context.Context, userID string) (domain.EmailCredentials, error)
}

// MemoryStore is an in-memory Store for tests and single-process use.
type MemoryStore struct {
	mu         sync.RWMutex
	bankTokens map[string][]string
	emailCreds map[string]domain.EmailCredentials
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bankTokens: make(map[string][]string),
		emailCreds: make(map[string]domain.EmailCredentials),
	}
}

// SaveBankToken implements Store.
func (s *MemoryStore) SaveBankToken(ctx context.Context, userID, accessToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.bankTokens[userID] {
		if existing == accessToken {
			return nil
		}
	}
	s.bankTokens[userID] = append(s.bankTokens[userID], accessToken)
	return nil
}

// ListBankTokens implements Store.
func (s *MemoryStore) ListBankTokens(ctx context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tokens := make([]string, len(s.bankTokens[userID]))
	copy(tokens, s.bankTokens[userID])
	return tokens, nil
}

// SaveEmailCredentials implements Store.
func (s *MemoryStore) SaveEmailCredentials(ctx context.Context, creds domain.EmailCredentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.emailCreds[creds.UserID] = creds
	return nil
}

// GetEmailCredentials implements Store.
func (s *MemoryStore) GetEmailCredentials(ctx context.Context, userID string) (domain.EmailCredentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	creds, ok := s.emailCreds[userID]
	if !ok {
		return domain.EmailCredentials{}, ErrNotFound
	}
	return creds, nil
}
