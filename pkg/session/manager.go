package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"

	"github.com/mrmicaiah/bethany/pkg/ai"
	"github.com/mrmicaiah/bethany/pkg/db"
)

const (
	KeyIndex      = "sessions/index.json"
	keyPrefix     = "sessions/"
	schemaVersion = 1

	defaultGap = 4 * time.Hour
)

// BlobStore is the slice of the durable store the session manager needs.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	List(ctx context.Context, prefix string) ([]db.Blob, error)
	Delete(ctx context.Context, key string) error
}

// TurnLog mirrors appended turns into the ordered relational log and prunes
// it to the same retention window as the session blobs.
type TurnLog interface {
	AppendTurn(ctx context.Context, sessionID, role, content string) error
	DeleteTurnsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Manager owns Session and Index records: boundary detection by inactivity
// gap, turn logging, and archival with titling. All session-mutating calls
// for the single user are serialized through one mutex; the process is the
// only writer, so this is enough to rule out lost index updates.
type Manager struct {
	blobs       BlobStore
	turns       TurnLog
	completions ai.Completion
	logger      *log.Logger
	gap         time.Duration

	mu sync.Mutex
}

func NewManager(logger *log.Logger, blobs BlobStore, turns TurnLog, completions ai.Completion, gap time.Duration) *Manager {
	if gap <= 0 {
		gap = defaultGap
	}
	return &Manager{
		blobs:       blobs,
		turns:       turns,
		completions: completions,
		logger:      logger,
		gap:         gap,
	}
}

// CheckAndManageSession decides whether the inbound event continues the
// current session or opens a new one. When the previous session went stale
// past the gap threshold it is returned exactly once as PreviousSession so
// the caller can archive it.
func (m *Manager) CheckAndManageSession(ctx context.Context, trigger string) (CheckResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	index, err := m.loadIndex(ctx)
	if err != nil {
		return CheckResult{}, err
	}

	if index.CurrentSessionID == "" {
		created, err := m.openSession(ctx, index, trigger)
		if err != nil {
			return CheckResult{}, err
		}
		return CheckResult{IsNewSession: true, Session: created}, nil
	}

	current, err := m.loadSession(ctx, index.CurrentSessionID)
	if errors.Is(err, db.ErrNotFound) {
		// Dangling pointer: the index references a session with no backing
		// record. Self-heal by opening a fresh one.
		m.logger.Warn("Current session record missing, opening a new session", "id", index.CurrentSessionID)
		created, err := m.openSession(ctx, index, trigger)
		if err != nil {
			return CheckResult{}, err
		}
		return CheckResult{IsNewSession: true, Session: created}, nil
	}
	if err != nil {
		return CheckResult{}, err
	}

	if time.Since(current.LastActivity) > m.gap {
		created, err := m.openSession(ctx, index, trigger)
		if err != nil {
			return CheckResult{}, err
		}
		return CheckResult{IsNewSession: true, Session: created, PreviousSession: current}, nil
	}

	return CheckResult{Session: current}, nil
}

// AppendTurn records one timestamped message on the current session and
// mirrors it into the raw turn log. This is the only mutator of message
// content. A missing current pointer is repaired by opening a session.
func (m *Manager) AppendTurn(ctx context.Context, role Role, content string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	index, err := m.loadIndex(ctx)
	if err != nil {
		return nil, err
	}

	var current *Session
	if index.CurrentSessionID == "" {
		m.logger.Warn("AppendTurn with no current session, repairing")
		current, err = m.openSession(ctx, index, "repair")
	} else {
		current, err = m.loadSession(ctx, index.CurrentSessionID)
		if errors.Is(err, db.ErrNotFound) {
			m.logger.Warn("AppendTurn found dangling session pointer, repairing", "id", index.CurrentSessionID)
			current, err = m.openSession(ctx, index, "repair")
		}
	}
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	current.Messages = append(current.Messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: now,
	})
	current.LastActivity = now
	current.LastUpdated = now

	if err := m.putSession(ctx, current); err != nil {
		return nil, err
	}

	if err := m.turns.AppendTurn(ctx, current.ID, string(role), content); err != nil {
		// The session record already holds the turn; a log miss is not worth
		// failing the reply over.
		m.logger.Warn("Failed to mirror turn into relational log", "error", err)
	}

	return current, nil
}

// Archive assigns a title to a closed session and records it in the index.
// Sessions with zero messages are discarded silently, never indexed, no
// matter how many times archival is attempted. Archiving the same session
// twice is a no-op.
func (m *Manager) Archive(ctx context.Context, sess *Session) error {
	if sess == nil || len(sess.Messages) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	index, err := m.loadIndex(ctx)
	if err != nil {
		return err
	}
	for _, entry := range index.Archived {
		if entry.ID == sess.ID {
			return nil
		}
	}

	sess.Title = m.generateTitle(ctx, sess)

	now := time.Now().UTC()
	sess.LastUpdated = now
	if err := m.putSession(ctx, sess); err != nil {
		return err
	}

	// Most-recent-first is an index invariant.
	index.Archived = append([]IndexEntry{{
		ID:           sess.ID,
		Title:        sess.Title,
		Date:         sess.StartedAt,
		MessageCount: len(sess.Messages),
	}}, index.Archived...)
	index.LastUpdated = now

	if err := m.putIndex(ctx, index); err != nil {
		return err
	}

	m.logger.Info("Session archived", "id", sess.ID, "title", sess.Title, "messages", len(sess.Messages))
	return nil
}

// Cleanup deletes archived sessions older than retentionDays, prunes the
// turn log to the same cutoff, sweeps orphaned session blobs, and rewrites
// the index with only the retained entries. Safe to run alongside normal
// traffic; a session archived mid-scan is picked up on the next run.
func (m *Manager) Cleanup(ctx context.Context, retentionDays int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	index, err := m.loadIndex(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)

	if pruned, err := m.turns.DeleteTurnsBefore(ctx, cutoff); err != nil {
		m.logger.Warn("Failed to prune turn log", "error", err)
	} else if pruned > 0 {
		m.logger.Info("Pruned turn log", "rows", pruned)
	}

	retained := make([]IndexEntry, 0, len(index.Archived))
	deleted := 0

	for _, entry := range index.Archived {
		if entry.Date.Before(cutoff) {
			if err := m.blobs.Delete(ctx, sessionKey(entry.ID)); err != nil {
				m.logger.Warn("Failed to delete expired session blob", "id", entry.ID, "error", err)
				retained = append(retained, entry)
				continue
			}
			deleted++
			continue
		}
		retained = append(retained, entry)
	}

	deleted += m.sweepOrphans(ctx, index, retained, cutoff)

	if deleted == 0 {
		return 0, nil
	}

	if len(retained) < len(index.Archived) {
		index.Archived = retained
		index.LastUpdated = time.Now().UTC()
		if err := m.putIndex(ctx, index); err != nil {
			return deleted, err
		}
	}

	m.logger.Info("Session cleanup finished", "deleted", deleted, "retained", len(retained))
	return deleted, nil
}

// sweepOrphans deletes session blobs the index no longer references, such as
// leftovers from a crash between blob write and index write. The id's date
// prefix says how old an orphan is; blobs with unparseable ids are left
// alone.
func (m *Manager) sweepOrphans(ctx context.Context, index *Index, retained []IndexEntry, cutoff time.Time) int {
	blobs, err := m.blobs.List(ctx, keyPrefix)
	if err != nil {
		m.logger.Warn("Failed to scan session blobs", "error", err)
		return 0
	}

	known := make(map[string]struct{}, len(retained)+1)
	for _, entry := range retained {
		known[entry.ID] = struct{}{}
	}
	if index.CurrentSessionID != "" {
		known[index.CurrentSessionID] = struct{}{}
	}

	deleted := 0
	for _, blob := range blobs {
		if blob.Key == KeyIndex {
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(blob.Key, keyPrefix), ".json")
		if _, ok := known[id]; ok {
			continue
		}
		started, err := sessionIDTime(id)
		if err != nil || !started.Before(cutoff) {
			continue
		}
		if err := m.blobs.Delete(ctx, blob.Key); err != nil {
			m.logger.Warn("Failed to delete orphaned session blob", "key", blob.Key, "error", err)
			continue
		}
		m.logger.Info("Deleted orphaned session blob", "id", id)
		deleted++
	}
	return deleted
}

// ListRecentTitles returns up to limit archived titles, newest first.
func (m *Manager) ListRecentTitles(ctx context.Context, limit int) ([]string, error) {
	index, err := m.loadIndex(ctx)
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, limit)
	for _, entry := range index.Archived {
		if limit > 0 && len(titles) >= limit {
			break
		}
		titles = append(titles, entry.Title)
	}
	return titles, nil
}

// FindByTopic returns the newest archived session whose title contains the
// term, case-insensitively, or nil when nothing matches.
func (m *Manager) FindByTopic(ctx context.Context, term string) (*IndexEntry, error) {
	index, err := m.loadIndex(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(term)
	for _, entry := range index.Archived {
		if strings.Contains(strings.ToLower(entry.Title), needle) {
			found := entry
			return &found, nil
		}
	}
	return nil, nil
}

// LoadCurrent returns the session the index points at, or nil when there is
// none. Read-only; no boundary logic.
func (m *Manager) LoadCurrent(ctx context.Context) (*Session, error) {
	index, err := m.loadIndex(ctx)
	if err != nil {
		return nil, err
	}
	if index.CurrentSessionID == "" {
		return nil, nil
	}
	sess, err := m.loadSession(ctx, index.CurrentSessionID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	return sess, err
}

func (m *Manager) openSession(ctx context.Context, index *Index, trigger string) (*Session, error) {
	now := time.Now().UTC()
	sess := &Session{
		Version:      schemaVersion,
		ID:           newSessionID(now),
		StartedAt:    now,
		LastActivity: now,
		Messages:     []Message{},
		Context:      trigger,
		LastUpdated:  now,
	}

	if err := m.putSession(ctx, sess); err != nil {
		return nil, err
	}

	index.CurrentSessionID = sess.ID
	index.LastUpdated = now
	if err := m.putIndex(ctx, index); err != nil {
		return nil, err
	}

	m.logger.Info("Opened session", "id", sess.ID, "trigger", trigger)
	return sess, nil
}

// newSessionID builds ids that sort by creation time: a date/time prefix
// plus a ULID suffix for uniqueness under same-second creation.
func newSessionID(now time.Time) string {
	return fmt.Sprintf("%s-%s", now.Format(sessionIDTimeLayout), ulid.Make().String())
}

const sessionIDTimeLayout = "20060102-150405"

// sessionIDTime recovers the creation time encoded in a session id.
func sessionIDTime(id string) (time.Time, error) {
	if len(id) < len(sessionIDTimeLayout) {
		return time.Time{}, errors.New("session id too short")
	}
	return time.Parse(sessionIDTimeLayout, id[:len(sessionIDTimeLayout)])
}

func sessionKey(id string) string {
	return keyPrefix + id + ".json"
}

func (m *Manager) loadIndex(ctx context.Context) (*Index, error) {
	raw, err := m.blobs.Get(ctx, KeyIndex)
	if errors.Is(err, db.ErrNotFound) {
		return &Index{Version: schemaVersion, Archived: []IndexEntry{}}, nil
	}
	if err != nil {
		return nil, err
	}

	var index Index
	if err := json.Unmarshal(raw, &index); err != nil {
		return nil, errors.Wrap(err, "failed to decode session index")
	}
	if index.Archived == nil {
		index.Archived = []IndexEntry{}
	}
	index.Version = schemaVersion
	return &index, nil
}

func (m *Manager) putIndex(ctx context.Context, index *Index) error {
	raw, err := json.Marshal(index)
	if err != nil {
		return errors.Wrap(err, "failed to encode session index")
	}
	return m.blobs.Put(ctx, KeyIndex, raw)
}

func (m *Manager) loadSession(ctx context.Context, id string) (*Session, error) {
	raw, err := m.blobs.Get(ctx, sessionKey(id))
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, errors.Wrap(err, "failed to decode session")
	}
	sess.Version = schemaVersion
	return &sess, nil
}

func (m *Manager) putSession(ctx context.Context, sess *Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "failed to encode session")
	}
	return m.blobs.Put(ctx, sessionKey(sess.ID), raw)
}
