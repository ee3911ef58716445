package db

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Turn is one raw conversation turn in the append-only log. The log is the
// source of record for transcripts; sessions reference it by session id.
type Turn struct {
	ID        int64     `db:"id"`
	SessionID string    `db:"session_id"`
	Role      string    `db:"role"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
}

func (s *Store) AppendTurn(ctx context.Context, sessionID, role, content string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO turns (session_id, role, content, created_at) VALUES (?, ?, ?, ?)",
		sessionID, role, content, time.Now().UTC())
	return errors.Wrap(err, "failed to append turn")
}

// RecentTurns returns the most recent turns in oldest-to-newest order.
func (s *Store) RecentTurns(ctx context.Context, limit int) ([]Turn, error) {
	var turns []Turn
	err := s.db.SelectContext(ctx, &turns, `
		SELECT id, session_id, role, content, created_at
		FROM (SELECT * FROM turns ORDER BY id DESC LIMIT ?)
		ORDER BY id ASC
	`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load recent turns")
	}
	return turns, nil
}

// TurnsBySession returns all turns for one session, oldest first.
func (s *Store) TurnsBySession(ctx context.Context, sessionID string) ([]Turn, error) {
	var turns []Turn
	err := s.db.SelectContext(ctx, &turns,
		"SELECT id, session_id, role, content, created_at FROM turns WHERE session_id = ? ORDER BY id ASC",
		sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load session turns")
	}
	return turns, nil
}

// DeleteTurnsBefore prunes log rows older than cutoff. Used by session cleanup.
func (s *Store) DeleteTurnsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM turns WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, errors.Wrap(err, "failed to prune turns")
	}
	return res.RowsAffected()
}
