package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
)

// ErrNotFound is returned by Get when no blob exists under the given key.
var ErrNotFound = errors.New("blob not found")

type Blob struct {
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var blob Blob
	err := s.db.GetContext(ctx, &blob, "SELECT key, value, updated_at FROM blobs WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read blob")
	}
	return []byte(blob.Value), nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blobs (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, string(value), time.Now().UTC())
	return errors.Wrap(err, "failed to write blob")
}

// List returns all blobs whose key starts with prefix, ordered by key.
func (s *Store) List(ctx context.Context, prefix string) ([]Blob, error) {
	var blobs []Blob
	err := s.db.SelectContext(ctx, &blobs,
		"SELECT key, value, updated_at FROM blobs WHERE key LIKE ? || '%' ORDER BY key", prefix)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list blobs")
	}
	return blobs, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM blobs WHERE key = ?", key)
	return errors.Wrap(err, "failed to delete blob")
}
