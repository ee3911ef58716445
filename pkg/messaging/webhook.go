package messaging

import (
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi"
	"github.com/nats-io/nats.go"
)

// SubjectInbound carries normalized inbound messages from the webhook to the
// agent loop. SubjectOutbound mirrors delivered replies for observers; nothing
// in the reply path depends on it.
const (
	SubjectInbound  = "bethany.inbound"
	SubjectOutbound = "bethany.outbound"
)

// InboundMessage is the normalized shape the engine consumes. Sender
// authentication happens upstream at the provider; the webhook only
// normalizes.
type InboundMessage struct {
	Message string `json:"message"`
}

// OutboundMessage is the observer copy of a delivered reply.
type OutboundMessage struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

type webhookPayload struct {
	From string `json:"from"`
	Body string `json:"body"`
	Text string `json:"text"`
}

// NewRouter builds the HTTP front door: the inbound webhook plus a health
// probe. Provider payloads vary in which field carries the text, so both
// body and text are accepted.
func NewRouter(logger *log.Logger, nc *nats.Conn) chi.Router {
	r := chi.NewRouter()

	r.Post("/webhook/message", func(w http.ResponseWriter, req *http.Request) {
		var payload webhookPayload
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			logger.Warn("Rejected malformed webhook payload", "error", err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		text := payload.Body
		if text == "" {
			text = payload.Text
		}
		if text == "" {
			http.Error(w, "empty message", http.StatusBadRequest)
			return
		}

		raw, err := json.Marshal(InboundMessage{Message: text})
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if err := nc.Publish(SubjectInbound, raw); err != nil {
			logger.Error("Failed to publish inbound message", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	})

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
