package memory

import (
	"time"
)

// Vibe describes the overall dynamic between Bethany and the user.
type Vibe string

const (
	VibeNew      Vibe = "new"
	VibeFriendly Vibe = "friendly"
	VibeClose    Vibe = "close"
	VibeIntimate Vibe = "intimate"
	VibePlayful  Vibe = "playful"
	VibeTense    Vibe = "tense"
)

// FlirtLevel tracks how far the persona is allowed to lean in.
type FlirtLevel string

const (
	FlirtLight   FlirtLevel = "light"
	FlirtPlayful FlirtLevel = "playful"
	FlirtFlirty  FlirtLevel = "flirty"
	FlirtSpicy   FlirtLevel = "spicy"
	FlirtHot     FlirtLevel = "hot"
)

// Sentiment is how the user seems to feel about a third party.
type Sentiment string

const (
	SentimentPositive    Sentiment = "positive"
	SentimentNegative    Sentiment = "negative"
	SentimentNeutral     Sentiment = "neutral"
	SentimentComplicated Sentiment = "complicated"
)

// SelfNoteType classifies the agent's private reflections.
type SelfNoteType string

const (
	NoteGap         SelfNoteType = "gap"
	NoteConfusion   SelfNoteType = "confusion"
	NoteMadeUp      SelfNoteType = "made_up"
	NoteImprovement SelfNoteType = "improvement"
	NoteObservation SelfNoteType = "observation"
)

type Job struct {
	Title    string `json:"title,omitempty"`
	Company  string `json:"company,omitempty"`
	Industry string `json:"industry,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

type CommunicationStyle struct {
	Humor string `json:"humor,omitempty"`
	Depth string `json:"depth,omitempty"`
	Pace  string `json:"pace,omitempty"`
	Notes string `json:"notes,omitempty"`
}

type Preferences struct {
	Likes    []string `json:"likes,omitempty"`
	Dislikes []string `json:"dislikes,omitempty"`
}

// CoreMemory is the singleton record of durable facts about the user.
// Created once at initialization, mutated only through explicit updates.
type CoreMemory struct {
	Version            int                `json:"version"`
	Name               string             `json:"name,omitempty"`
	Age                int                `json:"age,omitempty"`
	Location           string             `json:"location,omitempty"`
	Job                Job                `json:"job,omitempty"`
	RelationshipStatus string             `json:"relationship_status,omitempty"`
	Interests          []string           `json:"interests,omitempty"`
	Values             []string           `json:"values,omitempty"`
	CommunicationStyle CommunicationStyle `json:"communication_style,omitempty"`
	Preferences        Preferences        `json:"preferences,omitempty"`
	Goals              []string           `json:"goals,omitempty"`
	Quirks             []string           `json:"quirks,omitempty"`
	LastUpdated        time.Time          `json:"last_updated"`
}

// RelationshipMemory is the singleton record of the dynamic itself.
type RelationshipMemory struct {
	Version         int        `json:"version"`
	FirstContact    time.Time  `json:"first_contact"`
	Vibe            Vibe       `json:"vibe"`
	FlirtLevel      FlirtLevel `json:"flirt_level"`
	InsideJokes     []string   `json:"inside_jokes,omitempty"`
	RecurringTopics []string   `json:"recurring_topics,omitempty"`
	Boundaries      []string   `json:"boundaries,omitempty"`
	Highlights      []string   `json:"highlights,omitempty"`
	Patterns        []string   `json:"patterns,omitempty"`
	LastUpdated     time.Time  `json:"last_updated"`
}

// PersonMemory is one third party the user has mentioned. Name is the
// case-insensitive unique key.
type PersonMemory struct {
	Name          string    `json:"name"`
	Relationship  string    `json:"relationship,omitempty"`
	KeyFacts      []string  `json:"key_facts,omitempty"`
	Sentiment     Sentiment `json:"sentiment,omitempty"`
	LastMentioned time.Time `json:"last_mentioned"`
	MentionCount  int       `json:"mention_count"`
}

type PeopleFile struct {
	Version     int            `json:"version"`
	People      []PersonMemory `json:"people"`
	LastUpdated time.Time      `json:"last_updated"`
}

// ActiveThread is an open conversational topic worth following up on.
// Threads are resolved (soft-deleted), never removed.
type ActiveThread struct {
	ID             string     `json:"id"`
	Topic          string     `json:"topic"`
	Context        string     `json:"context,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	LastReferenced *time.Time `json:"last_referenced,omitempty"`
	Resolved       bool       `json:"resolved"`
}

type ThreadsFile struct {
	Version     int            `json:"version"`
	Threads     []ActiveThread `json:"threads"`
	LastUpdated time.Time      `json:"last_updated"`
}

// ConversationSummary is one closed day/period of conversation.
type ConversationSummary struct {
	Date            time.Time `json:"date"`
	Summary         string    `json:"summary"`
	Topics          []string  `json:"topics,omitempty"`
	Vibe            string    `json:"vibe,omitempty"`
	MemorableMoment string    `json:"memorable_moment,omitempty"`
}

type HistoryFile struct {
	Version     int                   `json:"version"`
	Summaries   []ConversationSummary `json:"summaries"`
	LastUpdated time.Time             `json:"last_updated"`
}

type SelfNote struct {
	ID        string       `json:"id"`
	Type      SelfNoteType `json:"type"`
	Note      string       `json:"note"`
	Context   string       `json:"context,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

type SelfFile struct {
	Version     int        `json:"version"`
	Notes       []SelfNote `json:"notes"`
	LastUpdated time.Time  `json:"last_updated"`
}

// Hot is the memory slice loaded on every conversational turn.
type Hot struct {
	Core         *CoreMemory
	Relationship *RelationshipMemory
	OpenThreads  []ActiveThread
}
