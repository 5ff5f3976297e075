package credstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/subzero/subzero/internal/domain"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "creds.db"))
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_BankTokens(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	tokens, err := store.ListBankTokens(ctx, "u1")
	if err != nil {
		t.Fatalf("ListBankTokens failed: %v", err)
	}
	if len(tokens) != 0 {
		t.Errorf("Expected no tokens for a fresh store, got %v", tokens)
	}

	if err := store.SaveBankToken(ctx, "u1", "tok-a"); err != nil {
		t.Fatalf("SaveBankToken failed: %v", err)
	}
	if err := store.SaveBankToken(ctx, "u1", "tok-b"); err != nil {
		t.Fatalf("SaveBankToken failed: %v", err)
	}
	// Duplicate insert is ignored, not an error
	if err := store.SaveBankToken(ctx, "u1", "tok-a"); err != nil {
		t.Fatalf("SaveBankToken duplicate failed: %v", err)
	}
	// Other users' tokens stay separate
	if err := store.SaveBankToken(ctx, "u2", "tok-z"); err != nil {
		t.Fatalf("SaveBankToken failed: %v", err)
	}

	tokens, err = store.ListBankTokens(ctx, "u1")
	if err != nil {
		t.Fatalf("ListBankTokens failed: %v", err)
	}
	if len(tokens) != 2 {
		t.Errorf("Expected 2 tokens, got %v", tokens)
	}
}

func TestSQLiteStore_EmailCredentials(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	if _, err := store.GetEmailCredentials(ctx, "u1"); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	creds := domain.EmailCredentials{
		UserID:       "u1",
		AccessToken:  "access",
		RefreshToken: "refresh",
		Expiry:       time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := store.SaveEmailCredentials(ctx, creds); err != nil {
		t.Fatalf("SaveEmailCredentials failed: %v", err)
	}

	got, err := store.GetEmailCredentials(ctx, "u1")
	if err != nil {
		t.Fatalf("GetEmailCredentials failed: %v", err)
	}
	if got.AccessToken != "access" || got.RefreshToken != "refresh" {
		t.Errorf("Got %+v, want saved credentials", got)
	}
	if !got.Expiry.Equal(creds.Expiry) {
		t.Errorf("Expiry = %v, want %v", got.Expiry, creds.Expiry)
	}

	// Upsert replaces the stored row
	creds.AccessToken = "rotated"
	if err := store.SaveEmailCredentials(ctx, creds); err != nil {
		t.Fatalf("SaveEmailCredentials upsert failed: %v", err)
	}
	got, _ = store.GetEmailCredentials(ctx, "u1")
	if got.AccessToken != "rotated" {
		t.Errorf("Expected rotated token after upsert, got %q", got.AccessToken)
	}
}
