package library

import (
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrmicaiah/bethany/pkg/db"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	logger := log.New(io.Discard)
	store, err := db.NewStore(context.Background(), ":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewService(logger, store)
}

func TestAddBookStartsAsIdea(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	book, err := svc.AddBook(ctx, "The Lighthouse Year", 80000)
	require.NoError(t, err)
	assert.NotEmpty(t, book.ID)
	assert.Equal(t, StatusIdea, book.Status)
	assert.Equal(t, 80000, book.TargetWords)

	books := svc.ListBooks(ctx)
	require.Len(t, books, 1)
	assert.Equal(t, "The Lighthouse Year", books[0].Title)
}

func TestUpdateProgress(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, err := svc.AddBook(ctx, "The Lighthouse Year", 80000)
	require.NoError(t, err)

	require.NoError(t, svc.UpdateProgress(ctx, "the lighthouse year", 12500, StatusDrafting))

	books := svc.ListBooks(ctx)
	require.Len(t, books, 1)
	assert.Equal(t, 12500, books[0].WordCount)
	assert.Equal(t, StatusDrafting, books[0].Status)
}

func TestUpdateProgressKeepsStatusWhenEmpty(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, err := svc.AddBook(ctx, "The Lighthouse Year", 0)
	require.NoError(t, err)
	require.NoError(t, svc.UpdateProgress(ctx, "The Lighthouse Year", 500, StatusDrafting))

	require.NoError(t, svc.UpdateProgress(ctx, "The Lighthouse Year", 900, ""))
	books := svc.ListBooks(ctx)
	assert.Equal(t, StatusDrafting, books[0].Status)
	assert.Equal(t, 900, books[0].WordCount)
}

func TestUpdateUnknownTitleIsNoOp(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	require.NoError(t, svc.UpdateProgress(ctx, "no such book", 100, StatusEditing))
	assert.Empty(t, svc.ListBooks(ctx))
}

func TestAddNote(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, err := svc.AddBook(ctx, "The Lighthouse Year", 0)
	require.NoError(t, err)

	require.NoError(t, svc.AddNote(ctx, "The Lighthouse Year", "cut the prologue"))
	require.NoError(t, svc.AddNote(ctx, "The Lighthouse Year", "Mara needs a flaw"))

	books := svc.ListBooks(ctx)
	require.Len(t, books, 1)
	assert.Equal(t, []string{"cut the prologue", "Mara needs a flaw"}, books[0].Notes)
}

func TestFormatProgress(t *testing.T) {
	assert.Equal(t, "No books tracked yet.", FormatProgress(nil))

	out := FormatProgress([]Book{
		{Title: "The Lighthouse Year", Status: StatusDrafting, WordCount: 12500, TargetWords: 80000},
		{Title: "Untitled Thriller", Status: StatusIdea},
	})

	assert.Contains(t, out, "HIS BOOKS:")
	assert.Contains(t, out, "- The Lighthouse Year [drafting]: 12500 words of 80000")
	assert.Contains(t, out, "- Untitled Thriller [idea]")
	assert.NotContains(t, out, "Untitled Thriller [idea]:")
}
