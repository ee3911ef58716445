package db

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Store wraps a SQLite connection and provides the two storage surfaces the
// engine depends on: a key/value blob table with prefix listing, and an
// append-only relational log of raw conversation turns.
type Store struct {
	db     *sqlx.DB
	logger *log.Logger
}

func NewStore(ctx context.Context, dbPath string, logger *log.Logger) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
	}

	// WAL for better concurrency between the agent loop and HTTP reads.
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if err := RunMigrations(db.DB, logger); err != nil {
		return nil, err
	}

	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying sqlx.DB instance.
func (s *Store) DB() *sqlx.DB {
	return s.db
}
