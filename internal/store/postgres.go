package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/lib/pq"
)

// Predefined errors for Postgres record operations
var (
	ErrInvalidRecord = errors.New("store: record value is not valid JSON")
	ErrUpdateFailed  = errors.New("store: update failed, 0 rows affected")
)

// PostgresStore implements RecordStorer on a single key/value table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore instance.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the record table if it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE SCHEMA IF NOT EXISTS storefront;
		CREATE TABLE IF NOT EXISTS storefront.local_records (
			key        TEXT PRIMARY KEY,
			value      JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("store: EnsureSchema failed: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetRecord(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT value FROM storefront.local_records WHERE key = $1;`
	var value []byte
	if err := s.db.QueryRowContext(ctx, query, key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("store: GetRecord failed to scan row: %w", err)
	}
	return value, nil
}

func (s *PostgresStore) PutRecord(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO storefront.local_records (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = CURRENT_TIMESTAMP;
	`
	result, err := s.db.ExecContext(ctx, query, key, string(value)) // JSONB takes the text form, not bytea
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "22P02" { // invalid_text_representation
			return ErrInvalidRecord
		}
		return fmt.Errorf("store: PutRecord failed to execute upsert: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: PutRecord failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrUpdateFailed
	}
	return nil
}

func (s *PostgresStore) DeleteRecord(ctx context.Context, key string) error {
	query := `DELETE FROM storefront.local_records WHERE key = $1;`
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("store: DeleteRecord failed to execute delete: %w", err)
	}
	return nil // Deleting an absent record is not an error
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		log.Println("INFO: Closing database connection pool...")
		err := s.db.Close()
		if err != nil {
			log.Printf("ERROR: Failed to close database connection pool: %v", err)
			return err
		}
		log.Println("INFO: Database connection pool closed successfully.")
		return nil
	}
	return nil
}
