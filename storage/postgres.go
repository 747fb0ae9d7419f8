package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // Import postgres driver
)

const documentsSchema = `
CREATE TABLE IF NOT EXISTS documents (
	key  TEXT PRIMARY KEY,
	data JSONB NOT NULL
)`

type postgresStore struct {
	db *sql.DB
}

// NewPostgresStore builds a BlobStore over a single key→jsonb table, for
// deployments that already run Postgres and do not want a bucket.
func NewPostgresStore(dsn string, timeout time.Duration) (BlobStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create database handle: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err = db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to ping database within %v: %w (close error: %v)", timeout, err, closeErr)
		}
		return nil, fmt.Errorf("failed to ping database within %v: %w", timeout, err)
	}

	if _, err = db.ExecContext(ctx, documentsSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ensure documents table: %w", err)
	}

	return &postgresStore{db: db}, nil
}

func (s *postgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM documents WHERE key = $1`, key).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to read document (key: %s): %w", key, err)
	}
	return data, nil
}

func (s *postgresStore) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (key, data) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data`,
		key, data)
	if err != nil {
		return fmt.Errorf("failed to write document (key: %s): %w", key, err)
	}
	return nil
}

func (s *postgresStore) PutIfAbsent(ctx context.Context, key string, data []byte) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (key, data) VALUES ($1, $2)
		 ON CONFLICT (key) DO NOTHING`,
		key, data)
	if err != nil {
		return fmt.Errorf("failed to create document (key: %s): %w", key, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check document creation (key: %s): %w", key, err)
	}
	if affected == 0 {
		return ErrKeyExists
	}
	return nil
}
