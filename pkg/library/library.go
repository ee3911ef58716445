// Package library tracks the user's fictional book-writing progress. Plain
// CRUD over the blob store; the interesting machinery lives elsewhere.
package library

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mrmicaiah/bethany/pkg/db"
)

const KeyLibrary = "library.json"

const schemaVersion = 1

type Status string

const (
	StatusIdea     Status = "idea"
	StatusDrafting Status = "drafting"
	StatusEditing  Status = "editing"
	StatusFinished Status = "finished"
)

type Book struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Status      Status    `json:"status"`
	WordCount   int       `json:"word_count"`
	TargetWords int       `json:"target_words,omitempty"`
	Notes       []string  `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type LibraryFile struct {
	Version     int       `json:"version"`
	Books       []Book    `json:"books"`
	LastUpdated time.Time `json:"last_updated"`
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

func (s *Service) AddBook(ctx context.Context, title string, targetWords int) (Book, error) {
	file, err := s.load(ctx)
	if err != nil {
		return Book{}, err
	}

	now := time.Now().UTC()
	book := Book{
		ID:          uuid.New().String(),
		Title:       title,
		Status:      StatusIdea,
		TargetWords: targetWords,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	file.Books = append(file.Books, book)
	file.LastUpdated = now

	if err := s.save(ctx, file); err != nil {
		return Book{}, err
	}
	return book, nil
}

// UpdateProgress sets the word count (and optionally status) for a book,
// matched case-insensitively by title. Unknown titles are a silent no-op.
func (s *Service) UpdateProgress(ctx context.Context, title string, wordCount int, status Status) error {
	file, err := s.load(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	changed := false
	for i := range file.Books {
		if !strings.EqualFold(file.Books[i].Title, title) {
			continue
		}
		file.Books[i].WordCount = wordCount
		if status != "" {
			file.Books[i].Status = status
		}
		file.Books[i].UpdatedAt = now
		changed = true
		break
	}
	if !changed {
		return nil
	}

	file.LastUpdated = now
	return s.save(ctx, file)
}

func (s *Service) AddNote(ctx context.Context, title, note string) error {
	file, err := s.load(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	changed := false
	for i := range file.Books {
		if strings.EqualFold(file.Books[i].Title, title) {
			file.Books[i].Notes = append(file.Books[i].Notes, note)
			file.Books[i].UpdatedAt = now
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

func (s *Service) ListBooks(ctx context.Context) []Book {
	file, err := s.load(ctx)
	if err != nil {
		s.logger.Warn("Failed to load library", "error", err)
		return []Book{}
	}
	return file.Books
}

// FormatProgress renders the library for prompts and the dashboard export.
func FormatProgress(books []Book) string {
	if len(books) == 0 {
		return "No books tracked yet."
	}

	var b strings.Builder
	b.WriteString("HIS BOOKS:\n")
	for _, book := range books {
		fmt.Fprintf(&b, "- %s [%s]", book.Title, book.Status)
		if book.WordCount > 0 {
			fmt.Fprintf(&b, ": %d words", book.WordCount)
			if book.TargetWords > 0 {
				fmt.Fprintf(&b, " of %d", book.TargetWords)
			}
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *Service) load(ctx context.Context) (*LibraryFile, error) {
	raw, err := s.blobs.Get(ctx, KeyLibrary)
	if errors.Is(err, db.ErrNotFound) {
		return &LibraryFile{Version: schemaVersion, Books: []Book{}}, nil
	}
	if err != nil {
		return nil, err
	}

	var file LibraryFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, errors.Wrap(err, "failed to decode library")
	}
	if file.Books == nil {
		file.Books = []Book{}
	}
	file.Version = schemaVersion
	return &file, nil
}

func (s *Service) save(ctx context.Context, file *LibraryFile) error {
	raw, err := json.Marshal(file)
	if err != nil {
		return errors.Wrap(err, "failed to encode library")
	}
	return s.blobs.Put(ctx, KeyLibrary, raw)
}
