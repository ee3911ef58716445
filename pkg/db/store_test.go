package db

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(context.Background(), ":memory:", log.New(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBlobRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "core.json")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put(ctx, "core.json", []byte(`{"name":"Micaiah"}`)))
	value, err := store.Get(ctx, "core.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Micaiah"}`, string(value))

	// Overwrite replaces, never appends.
	require.NoError(t, store.Put(ctx, "core.json", []byte(`{"name":"Mic"}`)))
	value, err = store.Get(ctx, "core.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Mic"}`, string(value))

	require.NoError(t, store.Delete(ctx, "core.json"))
	_, err = store.Get(ctx, "core.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBlobListByPrefix(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "sessions/index.json", []byte(`{}`)))
	require.NoError(t, store.Put(ctx, "sessions/20250301-a.json", []byte(`{}`)))
	require.NoError(t, store.Put(ctx, "sessions/20250302-b.json", []byte(`{}`)))
	require.NoError(t, store.Put(ctx, "core.json", []byte(`{}`)))

	blobs, err := store.List(ctx, "sessions/")
	require.NoError(t, err)
	require.Len(t, blobs, 3)
	assert.Equal(t, "sessions/20250301-a.json", blobs[0].Key)
	assert.Equal(t, "sessions/20250302-b.json", blobs[1].Key)
	assert.Equal(t, "sessions/index.json", blobs[2].Key)
}

func TestTurnLogOrdering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendTurn(ctx, "s1", "user", "hey"))
	require.NoError(t, store.AppendTurn(ctx, "s1", "agent", "hey yourself"))
	require.NoError(t, store.AppendTurn(ctx, "s2", "user", "morning"))

	turns, err := store.RecentTurns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "hey yourself", turns[0].Content)
	assert.Equal(t, "morning", turns[1].Content)

	s1, err := store.TurnsBySession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, s1, 2)
	assert.Equal(t, "user", s1[0].Role)
	assert.Equal(t, "agent", s1[1].Role)
}

func TestDeleteTurnsBefore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendTurn(ctx, "s1", "user", "old enough"))
	deleted, err := store.DeleteTurnsBefore(ctx, time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	turns, err := store.RecentTurns(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, turns)
}
