package session

import (
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is one contiguous burst of conversation bounded by inactivity
// gaps. Title is only assigned at archival. Context records what opened the
// session ("message", a rhythm name).
type Session struct {
	Version      int       `json:"version"`
	ID           string    `json:"id"`
	Title        string    `json:"title,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	LastActivity time.Time `json:"last_activity"`
	Messages     []Message `json:"messages"`
	Context      string    `json:"context,omitempty"`
	LastUpdated  time.Time `json:"last_updated"`
}

// IndexEntry is the archived-session summary kept in the index,
// most-recent-first.
type IndexEntry struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Date         time.Time `json:"date"`
	MessageCount int       `json:"message_count"`
}

// Index is the root of session discovery: the current-session pointer plus
// the archive. All lookups funnel through it.
type Index struct {
	Version          int          `json:"version"`
	CurrentSessionID string       `json:"current_session_id,omitempty"`
	Archived         []IndexEntry `json:"archived_sessions"`
	LastUpdated      time.Time    `json:"last_updated"`
}

// CheckResult reports what CheckAndManageSession decided.
type CheckResult struct {
	IsNewSession    bool
	Session         *Session
	PreviousSession *Session
}
