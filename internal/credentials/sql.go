package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLStore keeps credentials in a MySQL table, for shared workstations where
// the home directory is not persistent.
type SQLStore struct {
	DB    *sql.DB
	Table string
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{DB: db, Table: "client_credentials"}
}

// EnsureSchema creates the backing table when it does not exist.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			cred_key   VARCHAR(64) NOT NULL PRIMARY KEY,
			cred_value TEXT        NOT NULL,
			updated_at BIGINT      NOT NULL
		)`, s.Table)
	if _, err := s.DB.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create %s: %w", s.Table, err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	query := fmt.Sprintf("SELECT cred_value FROM %s WHERE cred_key = ?", s.Table)
	err := s.DB.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read credential %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (cred_key, cred_value, updated_at)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE cred_value = VALUES(cred_value), updated_at = VALUES(updated_at)
	`, s.Table)
	if _, err := s.DB.ExecContext(ctx, query, key, value, time.Now().UTC().Unix()); err != nil {
		return fmt.Errorf("write credential %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE cred_key = ?", s.Table)
	if _, err := s.DB.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("delete credential %s: %w", key, err)
	}
	return nil
}
