package credstore

import (
	"context"
	"testing"
	"time"

	"github.com/subzero/subzero/internal/domain"
)

func TestMemoryStore_BankTokens(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	tokens, err := store.ListBankTokens(ctx, "u1")
	if err != nil {
		t.Fatalf("ListBankTokens failed: %v", err)
	}
	if tokens == nil || len(tokens) != 0 {
		t.Errorf("Expected empty slice for unknown user, got %v", tokens)
	}

	if err := store.SaveBankToken(ctx, "u1", "tok-a"); err != nil {
		t.Fatalf("SaveBankToken failed: %v", err)
	}
	if err := store.SaveBankToken(ctx, "u1", "tok-b"); err != nil {
		t.Fatalf("SaveBankToken failed: %v", err)
	}
	// Saving the same token twice is a no-op
	if err := store.SaveBankToken(ctx, "u1", "tok-a"); err != nil {
		t.Fatalf("SaveBankToken failed: %v", err)
	}

	tokens, err = store.ListBankTokens(ctx, "u1")
	if err != nil {
		t.Fatalf("ListBankTokens failed: %v", err)
	}
	if len(tokens) != 2 || tokens[0] != "tok-a" || tokens[1] != "tok-b" {
		t.Errorf("Expected [tok-a tok-b] in insertion order, got %v", tokens)
	}
}

func TestMemoryStore_ListReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_ = store.SaveBankToken(ctx, "u1", "tok-a")

	tokens, _ := store.ListBankTokens(ctx, "u1")
	tokens[0] = "mutated"

	again, _ := store.ListBankTokens(ctx, "u1")
	if again[0] != "tok-a" {
		t.Error("ListBankTokens leaked internal state")
	}
}

func TestMemoryStore_EmailCredentials(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := store.GetEmailCredentials(ctx, "u1"); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound for unknown user, got %v", err)
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
	if got != creds {
		t.Errorf("Got %+v, want %+v", got, creds)
	}

	// Saving again replaces
	creds.AccessToken = "rotated"
	_ = store.SaveEmailCredentials(ctx, creds)
	got, _ = store.GetEmailCredentials(ctx, "u1")
	if got.AccessToken != "rotated" {
		t.Errorf("Expected replaced access token, got %q", got.AccessToken)
	}
}
