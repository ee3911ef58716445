package memory

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/mrmicaiah/bethany/pkg/db"
)

// Logical keys for the six memory kinds. Sessions live under a disjoint
// namespace owned by the session manager.
const (
	KeyCore         = "core.json"
	KeyRelationship = "relationship.json"
	KeyPeople       = "people.json"
	KeyThreads      = "threads.json"
	KeyHistory      = "history.json"
	KeySelf         = "self.json"
)

const (
	maxSelfNotes        = 100
	defaultHistoryDays  = 30
	contextPeopleLimit  = 10
	contextThreadsLimit = 5
)

// BlobStore is the slice of the durable store the memory tier needs.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// Store owns the tiered memory records: core facts, relationship dynamic,
// people, open threads, day summaries and self notes. It never owns
// session state.
type Store struct {
	blobs       BlobStore
	logger      *log.Logger
	historyDays int
}

func NewStore(logger *log.Logger, blobs BlobStore, historyDays int) *Store {
	if historyDays <= 0 {
		historyDays = defaultHistoryDays
	}
	return &Store{
		blobs:       blobs,
		logger:      logger,
		historyDays: historyDays,
	}
}

// Initialize seeds the six memory records. Idempotent: an initialized store
// is never clobbered; only missing sub-records are backfilled.
func (s *Store) Initialize(ctx context.Context) error {
	now := time.Now().UTC()

	if _, err := s.blobs.Get(ctx, KeyCore); err == nil {
		return s.backfillMissing(ctx, now)
	} else if !errors.Is(err, db.ErrNotFound) {
		return errors.Wrap(err, "failed to probe core memory")
	}

	// Best-effort group write. A partial failure is reported but not rolled
	// back; LoadHot self-heals by re-running initialization.
	seeds := s.seedRecords(now)
	for key, record := range seeds {
		if err := s.putJSON(ctx, key, record); err != nil {
			return errors.Wrapf(err, "failed to seed %s", key)
		}
	}
	s.logger.Info("Memory store initialized", "records", len(seeds))
	return nil
}

func (s *Store) seedRecords(now time.Time) map[string]any {
	return map[string]any{
		KeyCore: &CoreMemory{Version: schemaVersion, LastUpdated: now},
		KeyRelationship: &RelationshipMemory{
			Version:      schemaVersion,
			FirstContact: now,
			Vibe:         VibeNew,
			FlirtLevel:   FlirtLight,
			LastUpdated:  now,
		},
		KeyPeople:  &PeopleFile{Version: schemaVersion, People: []PersonMemory{}, LastUpdated: now},
		KeyThreads: &ThreadsFile{Version: schemaVersion, Threads: []ActiveThread{}, LastUpdated: now},
		KeyHistory: &HistoryFile{Version: schemaVersion, Summaries: []ConversationSummary{}, LastUpdated: now},
		KeySelf:    &SelfFile{Version: schemaVersion, Notes: []SelfNote{}, LastUpdated: now},
	}
}

func (s *Store) backfillMissing(ctx context.Context, now time.Time) error {
	for key, record := range s.seedRecords(now) {
		_, err := s.blobs.Get(ctx, key)
		if errors.Is(err, db.ErrNotFound) {
			if putErr := s.putJSON(ctx, key, record); putErr != nil {
				return errors.Wrapf(putErr, "failed to backfill %s", key)
			}
			s.logger.Info("Backfilled missing memory record", "key", key)
		} else if err != nil {
			return errors.Wrapf(err, "failed to probe %s", key)
		}
	}
	return nil
}

// LoadHot returns the memory slice used on every turn: core facts, the
// relationship record and unresolved threads. Missing records trigger one
// re-initialization; if that still cannot produce all three, LoadHot
// returns nil rather than an error so a reply is never blocked on memory.
func (s *Store) LoadHot(ctx context.Context) *Hot {
	hot, err := s.loadHotOnce(ctx)
	if err == nil {
		return hot
	}

	s.logger.Warn("Hot memory incomplete, re-initializing", "error", err)
	if initErr := s.Initialize(ctx); initErr != nil {
		s.logger.Error("Memory re-initialization failed", "error", initErr)
		return nil
	}

	hot, err = s.loadHotOnce(ctx)
	if err != nil {
		s.logger.Error("Hot memory still unavailable after re-initialization", "error", err)
		return nil
	}
	return hot
}

func (s *Store) loadHotOnce(ctx context.Context) (*Hot, error) {
	var core CoreMemory
	if err := s.getJSON(ctx, KeyCore, &core, decodeCore); err != nil {
		return nil, err
	}

	var relationship RelationshipMemory
	if err := s.getJSON(ctx, KeyRelationship, &relationship, decodeRelationship); err != nil {
		return nil, err
	}

	var threads ThreadsFile
	if err := s.getJSON(ctx, KeyThreads, &threads, decodeThreads); err != nil {
		return nil, err
	}

	open := lo.Filter(threads.Threads, func(t ActiveThread, _ int) bool {
		return !t.Resolved
	})

	return &Hot{Core: &core, Relationship: &relationship, OpenThreads: open}, nil
}

// LoadPeople returns the people list, or an empty list if missing. Never fails.
func (s *Store) LoadPeople(ctx context.Context) []PersonMemory {
	var people PeopleFile
	if err := s.getJSON(ctx, KeyPeople, &people, decodePeople); err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			s.logger.Warn("Failed to load people memory", "error", err)
		}
		return []PersonMemory{}
	}
	if people.People == nil {
		return []PersonMemory{}
	}
	return people.People
}

// CoreUpdate carries the fields to shallow-merge into core memory.
// Nil pointers and nil slices leave the existing value untouched.
type CoreUpdate struct {
	Name               *string
	Age                *int
	Location           *string
	Job                *Job
	RelationshipStatus *string
	Interests          []string
	Values             []string
	CommunicationStyle *CommunicationStyle
	Preferences        *Preferences
	Goals              []string
	Quirks             []string
}

// UpdateCore merges the given fields into the existing record. A missing
// base record is a no-op; updates never create memory.
func (s *Store) UpdateCore(ctx context.Context, update CoreUpdate) error {
	var core CoreMemory
	if err := s.getJSON(ctx, KeyCore, &core, decodeCore); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.logger.Warn("UpdateCore skipped, core memory not initialized")
			return nil
		}
		return err
	}

	if update.Name != nil {
		core.Name = *update.Name
	}
	if update.Age != nil {
		core.Age = *update.Age
	}
	if update.Location != nil {
		core.Location = *update.Location
	}
	if update.Job != nil {
		core.Job = *update.Job
	}
	if update.RelationshipStatus != nil {
		core.RelationshipStatus = *update.RelationshipStatus
	}
	if update.Interests != nil {
		core.Interests = update.Interests
	}
	if update.Values != nil {
		core.Values = update.Values
	}
	if update.CommunicationStyle != nil {
		core.CommunicationStyle = *update.CommunicationStyle
	}
	if update.Preferences != nil {
		core.Preferences = *update.Preferences
	}
	if update.Goals != nil {
		core.Goals = update.Goals
	}
	if update.Quirks != nil {
		core.Quirks = update.Quirks
	}

	core.LastUpdated = time.Now().UTC()
	return s.putJSON(ctx, KeyCore, &core)
}

// RelationshipUpdate carries the fields to shallow-merge into the
// relationship record.
type RelationshipUpdate struct {
	Vibe            *Vibe
	FlirtLevel      *FlirtLevel
	InsideJokes     []string
	RecurringTopics []string
	Boundaries      []string
	Highlights      []string
	Patterns        []string
}

// UpdateRelationship merges the given fields into the existing record.
// A missing base record is a no-op.
func (s *Store) UpdateRelationship(ctx context.Context, update RelationshipUpdate) error {
	var rel RelationshipMemory
	if err := s.getJSON(ctx, KeyRelationship, &rel, decodeRelationship); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.logger.Warn("UpdateRelationship skipped, relationship memory not initialized")
			return nil
		}
		return err
	}

	if update.Vibe != nil {
		rel.Vibe = *update.Vibe
	}
	if update.FlirtLevel != nil {
		rel.FlirtLevel = *update.FlirtLevel
	}
	if update.InsideJokes != nil {
		rel.InsideJokes = update.InsideJokes
	}
	if update.RecurringTopics != nil {
		rel.RecurringTopics = update.RecurringTopics
	}
	if update.Boundaries != nil {
		rel.Boundaries = update.Boundaries
	}
	if update.Highlights != nil {
		rel.Highlights = update.Highlights
	}
	if update.Patterns != nil {
		rel.Patterns = update.Patterns
	}

	rel.LastUpdated = time.Now().UTC()
	return s.putJSON(ctx, KeyRelationship, &rel)
}

// UpsertPerson merges a mention of a third party into the people file.
// Names match case-insensitively; a hit unions key facts and increments the
// mention counter, a miss appends a new entry.
func (s *Store) UpsertPerson(ctx context.Context, person PersonMemory) error {
	var people PeopleFile
	if err := s.getJSON(ctx, KeyPeople, &people, decodePeople); err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			return err
		}
		people = PeopleFile{Version: schemaVersion, People: []PersonMemory{}}
	}

	now := time.Now().UTC()
	found := false
	for i := range people.People {
		if !strings.EqualFold(people.People[i].Name, person.Name) {
			continue
		}
		existing := &people.People[i]
		existing.KeyFacts = lo.Uniq(append(existing.KeyFacts, person.KeyFacts...))
		if person.Relationship != "" {
			existing.Relationship = person.Relationship
		}
		if person.Sentiment != "" {
			existing.Sentiment = person.Sentiment
		}
		existing.LastMentioned = now
		existing.MentionCount++
		found = true
		break
	}

	if !found {
		person.KeyFacts = lo.Uniq(person.KeyFacts)
		person.LastMentioned = now
		person.MentionCount = 1
		people.People = append(people.People, person)
	}

	people.LastUpdated = now
	return s.putJSON(ctx, KeyPeople, &people)
}

// AddThread opens a new unresolved thread.
func (s *Store) AddThread(ctx context.Context, topic, contextText string) (ActiveThread, error) {
	var threads ThreadsFile
	if err := s.getJSON(ctx, KeyThreads, &threads, decodeThreads); err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			return ActiveThread{}, err
		}
		threads = ThreadsFile{Version: schemaVersion, Threads: []ActiveThread{}}
	}

	now := time.Now().UTC()
	thread := ActiveThread{
		ID:        uuid.New().String(),
		Topic:     topic,
		Context:   contextText,
		CreatedAt: now,
	}
	threads.Threads = append(threads.Threads, thread)
	threads.LastUpdated = now

	if err := s.putJSON(ctx, KeyThreads, &threads); err != nil {
		return ActiveThread{}, err
	}
	return thread, nil
}

// ResolveThread marks the matching thread resolved. Unknown ids are a
// silent no-op.
func (s *Store) ResolveThread(ctx context.Context, id string) error {
	var threads ThreadsFile
	if err := s.getJSON(ctx, KeyThreads, &threads, decodeThreads); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil
		}
		return err
	}

	changed := false
	for i := range threads.Threads {
		if threads.Threads[i].ID == id {
			threads.Threads[i].Resolved = true
			changed = true
			break
		}
	}
	if !changed {
		return nil
	}

	threads.LastUpdated = time.Now().UTC()
	return s.putJSON(ctx, KeyThreads, &threads)
}

// AddConversationSummary appends a day summary, pruning entries older than
// the retention window first. The write happens unconditionally even when
// nothing was pruned.
func (s *Store) AddConversationSummary(ctx context.Context, summary ConversationSummary) error {
	var history HistoryFile
	if err := s.getJSON(ctx, KeyHistory, &history, decodeHistory); err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			return err
		}
		history = HistoryFile{Version: schemaVersion, Summaries: []ConversationSummary{}}
	}

	now := time.Now().UTC()
	cutoff := now.AddDate(0, 0, -s.historyDays)
	history.Summaries = lo.Filter(history.Summaries, func(entry ConversationSummary, _ int) bool {
		return !entry.Date.Before(cutoff)
	})

	history.Summaries = append(history.Summaries, summary)
	history.LastUpdated = now
	return s.putJSON(ctx, KeyHistory, &history)
}

// RecentSummaries returns up to limit of the newest day summaries,
// oldest first.
func (s *Store) RecentSummaries(ctx context.Context, limit int) []ConversationSummary {
	var history HistoryFile
	if err := s.getJSON(ctx, KeyHistory, &history, decodeHistory); err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			s.logger.Warn("Failed to load history", "error", err)
		}
		return nil
	}
	if limit > 0 && len(history.Summaries) > limit {
		return history.Summaries[len(history.Summaries)-limit:]
	}
	return history.Summaries
}

// AddSelfNote appends a private reflection, keeping only the newest 100.
func (s *Store) AddSelfNote(ctx context.Context, noteType SelfNoteType, note, noteContext string) error {
	var self SelfFile
	if err := s.getJSON(ctx, KeySelf, &self, decodeSelf); err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			return err
		}
		self = SelfFile{Version: schemaVersion, Notes: []SelfNote{}}
	}

	now := time.Now().UTC()
	self.Notes = append(self.Notes, SelfNote{
		ID:        uuid.New().String(),
		Type:      noteType,
		Note:      note,
		Context:   noteContext,
		CreatedAt: now,
	})
	if len(self.Notes) > maxSelfNotes {
		self.Notes = self.Notes[len(self.Notes)-maxSelfNotes:]
	}
	self.LastUpdated = now
	return s.putJSON(ctx, KeySelf, &self)
}

// SelfNotes returns all stored self notes, oldest first.
func (s *Store) SelfNotes(ctx context.Context) []SelfNote {
	var self SelfFile
	if err := s.getJSON(ctx, KeySelf, &self, decodeSelf); err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			s.logger.Warn("Failed to load self notes", "error", err)
		}
		return nil
	}
	return self.Notes
}

func (s *Store) getJSON(ctx context.Context, key string, out any, decode func([]byte, any) error) error {
	raw, err := s.blobs.Get(ctx, key)
	if err != nil {
		return err
	}
	return decode(raw, out)
}

func (s *Store) putJSON(ctx context.Context, key string, record any) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return errors.Wrapf(err, "failed to encode %s", key)
	}
	return s.blobs.Put(ctx, key, raw)
}
