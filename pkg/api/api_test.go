package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrmicaiah/bethany/pkg/db"
	"github.com/mrmicaiah/bethany/pkg/library"
	"github.com/mrmicaiah/bethany/pkg/network"
)

func newTestServer(t *testing.T) (*httptest.Server, *network.Service, *library.Service) {
	t.Helper()
	logger := log.New(io.Discard)

	store, err := db.NewStore(context.Background(), ":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	contacts := network.NewService(logger, store)
	books := library.NewService(logger, store)

	server := httptest.NewServer(NewRouter(logger, contacts, books))
	t.Cleanup(server.Close)
	return server, contacts, books
}

func TestAddAndListContactsOverHTTP(t *testing.T) {
	server, contacts, _ := newTestServer(t)

	resp, err := http.Post(server.URL+"/contacts", "application/json",
		strings.NewReader(`{"name": "Sarah", "relationship": "sister", "cadence_days": 7}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created network.Contact
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Sarah", created.Name)

	listResp, err := http.Get(server.URL + "/contacts")
	require.NoError(t, err)
	defer func() { _ = listResp.Body.Close() }()

	var listed []network.Contact
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&listed))
	require.Len(t, listed, 1)

	stored := contacts.ListContacts(context.Background())
	require.Len(t, stored, 1)
	assert.Equal(t, created.ID, stored[0].ID)
}

func TestAddContactValidation(t *testing.T) {
	server, _, _ := newTestServer(t)

	for _, body := range []string{
		`{"name": "", "cadence_days": 7}`,
		`{"name": "Sarah", "cadence_days": 0}`,
		`not json`,
	} {
		resp, err := http.Post(server.URL+"/contacts", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "payload %q", body)
	}
}

func TestRecordTouchOverHTTP(t *testing.T) {
	server, contacts, _ := newTestServer(t)

	_, err := contacts.AddContact(context.Background(), "Sarah", "sister", 7)
	require.NoError(t, err)

	resp, err := http.Post(server.URL+"/contacts/Sarah/touch", "application/json", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestBookLifecycleOverHTTP(t *testing.T) {
	server, _, books := newTestServer(t)
	ctx := context.Background()

	resp, err := http.Post(server.URL+"/library", "application/json",
		strings.NewReader(`{"title": "The Lighthouse Year", "target_words": 80000}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	progressResp, err := http.Post(server.URL+"/library/The%20Lighthouse%20Year/progress", "application/json",
		strings.NewReader(`{"word_count": 12500, "status": "drafting"}`))
	require.NoError(t, err)
	_ = progressResp.Body.Close()
	require.Equal(t, http.StatusNoContent, progressResp.StatusCode)

	noteResp, err := http.Post(server.URL+"/library/The%20Lighthouse%20Year/notes", "application/json",
		strings.NewReader(`{"note": "cut the prologue"}`))
	require.NoError(t, err)
	_ = noteResp.Body.Close()
	require.Equal(t, http.StatusNoContent, noteResp.StatusCode)

	stored := books.ListBooks(ctx)
	require.Len(t, stored, 1)
	assert.Equal(t, 12500, stored[0].WordCount)
	assert.Equal(t, library.StatusDrafting, stored[0].Status)
	assert.Equal(t, []string{"cut the prologue"}, stored[0].Notes)
}
