// Package network is the contact-keeper mode: it tracks the people the user
// wants to stay in touch with and surfaces who is overdue for a touchpoint.
package network

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mrmicaiah/bethany/pkg/db"
)

const KeyContacts = "contacts.json"

const schemaVersion = 1

type Contact struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Relationship string    `json:"relationship,omitempty"`
	CadenceDays  int       `json:"cadence_days"`
	LastTouch    time.Time `json:"last_touch"`
	Notes        string    `json:"notes,omitempty"`
}

type ContactsFile struct {
	Version     int       `json:"version"`
	Contacts    []Contact `json:"contacts"`
	LastUpdated time.Time `json:"last_updated"`
}

// Overdue pairs a contact with how many days past its cadence it has gone.
type Overdue struct {
	Contact     Contact
	DaysOverdue int
}

type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

type Service struct {
	blobs  BlobStore
	logger *log.Logger
}

func NewService(logger *log.Logger, blobs BlobStore) *Service {
	return &Service{blobs: blobs, logger: logger}
}

// AddContact registers someone to keep in touch with. cadenceDays is how
// often the user means to reach out; the clock starts now.
func (s *Service) AddContact(ctx context.Context, name, relationship string, cadenceDays int) (Contact, error) {
	file, err := s.load(ctx)
	if err != nil {
		return Contact{}, err
	}

	now := time.Now().UTC()
	contact := Contact{
		ID:           uuid.New().String(),
		Name:         name,
		Relationship: relationship,
		CadenceDays:  cadenceDays,
		LastTouch:    now,
	}
	file.Contacts = append(file.Contacts, contact)
	file.LastUpdated = now

	if err := s.save(ctx, file); err != nil {
		return Contact{}, err
	}
	return contact, nil
}

// RecordTouch resets the clock for a contact, matched case-insensitively by
// name. Unknown names are a silent no-op.
func (s *Service) RecordTouch(ctx context.Context, name string) error {
	file, err := s.load(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	changed := false
	for i := range file.Contacts {
		if strings.EqualFold(file.Contacts[i].Name, name) {
			file.Contacts[i].LastTouch = now
			changed = true
			break
		}
	}
	if !changed {
		return nil
	}

	file.LastUpdated = now
	return s.save(ctx, file)
}

// ListContacts returns all tracked contacts, or an empty list.
func (s *Service) ListContacts(ctx context.Context) []Contact {
	file, err := s.load(ctx)
	if err != nil {
		s.logger.Warn("Failed to load contacts", "error", err)
		return []Contact{}
	}
	return file.Contacts
}

// OverdueContacts returns contacts past their cadence as of now, most
// overdue first.
func (s *Service) OverdueContacts(ctx context.Context, now time.Time) []Overdue {
	contacts := s.ListContacts(ctx)

	var overdue []Overdue
	for _, contact := range contacts {
		if contact.CadenceDays <= 0 {
			continue
		}
		elapsed := int(now.Sub(contact.LastTouch).Hours() / 24)
		if elapsed > contact.CadenceDays {
			overdue = append(overdue, Overdue{
				Contact:     contact,
				DaysOverdue: elapsed - contact.CadenceDays,
			})
		}
	}

	sort.Slice(overdue, func(i, j int) bool {
		return overdue[i].DaysOverdue > overdue[j].DaysOverdue
	})
	return overdue
}

// FormatOverdue renders the overdue list for the awareness-check prompt.
func FormatOverdue(overdue []Overdue) string {
	if len(overdue) == 0 {
		return "Nobody is overdue right now."
	}

	var b strings.Builder
	b.WriteString("OVERDUE CONTACTS:\n")
	for _, o := range overdue {
		fmt.Fprintf(&b, "- %s", o.Contact.Name)
		if o.Contact.Relationship != "" {
			fmt.Fprintf(&b, " (%s)", o.Contact.Relationship)
		}
		fmt.Fprintf(&b, ": %d days overdue, meant to check in every %d days\n",
			o.DaysOverdue, o.Contact.CadenceDays)
	}
	return strings.TrimRight(b.String(), "\n")
}

// nudgeOpeners are rotated by index so the nudge text does not calcify. The
// index is a parameter so callers can randomize at the edge while tests stay
// deterministic.
var nudgeOpeners = []string{
	"hey, random thought:",
	"been a minute:",
	"your people file says",
	"small nudge:",
}

// BuildNudge composes a nudge about a single overdue contact. openerIndex
// selects the opener; out-of-range values wrap.
func BuildNudge(o Overdue, openerIndex int) string {
	opener := nudgeOpeners[((openerIndex%len(nudgeOpeners))+len(nudgeOpeners))%len(nudgeOpeners)]
	who := o.Contact.Name
	if o.Contact.Relationship != "" {
		who = fmt.Sprintf("%s (%s)", o.Contact.Name, o.Contact.Relationship)
	}
	return fmt.Sprintf("%s it's been a while since you talked to %s. like %d days past when you meant to. worth a text?",
		opener, who, o.DaysOverdue)
}

func (s *Service) load(ctx context.Context) (*ContactsFile, error) {
	raw, err := s.blobs.Get(ctx, KeyContacts)
	if errors.Is(err, db.ErrNotFound) {
		return &ContactsFile{Version: schemaVersion, Contacts: []Contact{}}, nil
	}
	if err != nil {
		return nil, err
	}

	var file ContactsFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, errors.Wrap(err, "failed to decode contacts")
	}
	if file.Contacts == nil {
		file.Contacts = []Contact{}
	}
	file.Version = schemaVersion
	return &file, nil
}

func (s *Service) save(ctx context.Context, file *ContactsFile) error {
	raw, err := json.Marshal(file)
	if err != nil {
		return errors.Wrap(err, "failed to encode contacts")
	}
	return s.blobs.Put(ctx, KeyContacts, raw)
}
