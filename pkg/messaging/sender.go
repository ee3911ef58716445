package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

// Sender delivers one outbound message. Failures are logged by callers, not
// retried here; retry policy belongs to the provider side.
type Sender interface {
	Send(ctx context.Context, toAddress, body string) error
}

var _ Sender = (*ProviderClient)(nil)

// ProviderClient pushes messages to the SMS/iMessage provider's HTTP API.
type ProviderClient struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
	logger     *log.Logger
}

func NewProviderClient(logger *log.Logger, apiURL, apiKey string) *ProviderClient {
	return &ProviderClient{
		apiURL: apiURL,
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

type sendPayload struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

func (c *ProviderClient) Send(ctx context.Context, toAddress, body string) error {
	if c.apiURL == "" {
		c.logger.Warn("No provider configured, dropping outbound message", "to", toAddress)
		return nil
	}

	payload, err := json.Marshal(sendPayload{To: toAddress, Body: body})
	if err != nil {
		return errors.Wrap(err, "failed to encode outbound message")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "failed to build provider request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "provider request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	c.logger.Debug("Message delivered", "to", toAddress, "chars", len(body))
	return nil
}
