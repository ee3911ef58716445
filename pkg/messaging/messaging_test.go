package messaging

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrmicaiah/bethany/pkg/bootstrap"
)

func TestWebhookPublishesInboundMessage(t *testing.T) {
	logger := log.New(io.Discard)

	natsServer, err := bootstrap.StartEmbeddedNATSServer(logger)
	require.NoError(t, err)
	defer natsServer.Shutdown()

	nc, err := bootstrap.NewNatsClient(natsServer)
	require.NoError(t, err)
	defer nc.Close()

	received := make(chan InboundMessage, 1)
	sub, err := nc.Subscribe(SubjectInbound, func(msg *nats.Msg) {
		var inbound InboundMessage
		if err := json.Unmarshal(msg.Data, &inbound); err == nil {
			received <- inbound
		}
	})
	require.NoError(t, err)
	defer func() { _ = sub.Unsubscribe() }()

	server := httptest.NewServer(NewRouter(logger, nc))
	defer server.Close()

	resp, err := http.Post(server.URL+"/webhook/message", "application/json",
		strings.NewReader(`{"from": "+15550001111", "body": "long day"}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	select {
	case inbound := <-received:
		assert.Equal(t, "long day", inbound.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("inbound message never reached the bus")
	}
}

func TestWebhookAcceptsTextField(t *testing.T) {
	logger := log.New(io.Discard)

	natsServer, err := bootstrap.StartEmbeddedNATSServer(logger)
	require.NoError(t, err)
	defer natsServer.Shutdown()

	nc, err := bootstrap.NewNatsClient(natsServer)
	require.NoError(t, err)
	defer nc.Close()

	server := httptest.NewServer(NewRouter(logger, nc))
	defer server.Close()

	resp, err := http.Post(server.URL+"/webhook/message", "application/json",
		strings.NewReader(`{"text": "hey"}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestWebhookRejectsEmptyAndMalformedPayloads(t *testing.T) {
	logger := log.New(io.Discard)

	natsServer, err := bootstrap.StartEmbeddedNATSServer(logger)
	require.NoError(t, err)
	defer natsServer.Shutdown()

	nc, err := bootstrap.NewNatsClient(natsServer)
	require.NoError(t, err)
	defer nc.Close()

	server := httptest.NewServer(NewRouter(logger, nc))
	defer server.Close()

	for _, body := range []string{`{}`, `{"body": ""}`, `not json`} {
		resp, err := http.Post(server.URL+"/webhook/message", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "payload %q", body)
	}
}

func TestProviderClientSendsBearerPayload(t *testing.T) {
	logger := log.New(io.Discard)

	var got sendPayload
	var auth string
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		auth = req.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(req.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer provider.Close()

	client := NewProviderClient(logger, provider.URL, "secret-key")
	err := client.Send(context.Background(), "+15550001111", "hey you")
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret-key", auth)
	assert.Equal(t, "+15550001111", got.To)
	assert.Equal(t, "hey you", got.Body)
}

func TestProviderClientErrorsOnBadStatus(t *testing.T) {
	logger := log.New(io.Discard)

	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer provider.Close()

	client := NewProviderClient(logger, provider.URL, "")
	err := client.Send(context.Background(), "+15550001111", "hey")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestProviderClientDropsWhenUnconfigured(t *testing.T) {
	logger := log.New(io.Discard)
	client := NewProviderClient(logger, "", "")
	assert.NoError(t, client.Send(context.Background(), "+15550001111", "hey"))
}
