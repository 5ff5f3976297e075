package credstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/subzero/subzero/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS bank_tokens (
	user_id      TEXT NOT NULL,
	access_token TEXT NOT NULL,
	created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (user_id, access_token)
);

CREATE TABLE IF NOT EXISTS email_credentials (
	user_id       TEXT PRIMARY KEY,
	access_token  TEXT NOT NULL,
	refresh_token TEXT NOT NULL DEFAULT '',
	expiry        TIMESTAMP
);
`

// SQLiteStore is a Store backed by a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the credential database at the given
// path and ensures the schema exists.
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("credstore: create db directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("credstore: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("credstore: ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("credstore: execute schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveBankToken implements Store.
func (s *SQLiteStore) SaveBankToken(ctx context.Context, userID, accessToken string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO bank_tokens (user_id, access_token) VALUES (?, ?)`,
		userID, accessToken)
	if err != nil {
		return fmt.Errorf("credstore: save bank token: %w", err)
	}
	return nil
}

// ListBankTokens implements Store.
func (s *SQLiteStore) ListBankTokens(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT access_token FROM bank_tokens WHERE user_id = ? ORDER BY created_at, access_token`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("credstore: list bank tokens: %w", err)
	}
	defer rows.Close()

	tokens := []string{}
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, fmt.Errorf("credstore: scan bank token: %w", err)
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("credstore: iterate bank tokens: %w", err)
	}
	return tokens, nil
}

// SaveEmailCredentials implements Store.
func (s *SQLiteStore) SaveEmailCredentials(ctx context.Context, creds domain.EmailCredentials) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO email_credentials (user_id, access_token, refresh_token, expiry)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   access_token = excluded.access_token,
		   refresh_token = excluded.refresh_token,
		   expiry = excluded.expiry`,
		creds.UserID, creds.AccessToken, creds.RefreshToken, creds.Expiry)
	if err != nil {
		return fmt.Errorf("credstore: save email credentials: %w", err)
	}
	return nil
}

// GetEmailCredentials implements Store.
func (s *SQLiteStore) GetEmailCredentials(ctx context.Context, userID string) (domain.EmailCredentials, error) {
	var creds domain.EmailCredentials
	var expiry sql.NullTime

	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, access_token, refresh_token, expiry FROM email_credentials WHERE user_id = ?`,
		userID).Scan(&creds.UserID, &creds.AccessToken, &creds.RefreshToken, &expiry)
	if err == sql.ErrNoRows {
		return domain.EmailCredentials{}, ErrNotFound
	}
	if err != nil {
		return domain.EmailCredentials{}, fmt.Errorf("credstore: get email credentials: %w", err)
	}

	if expiry.Valid {
		creds.Expiry = expiry.Time.UTC()
	} else {
		creds.Expiry = time.Time{}
	}
	return creds, nil
}
