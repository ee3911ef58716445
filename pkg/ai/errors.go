package ai

import (
	"context"
	"strings"

	"github.com/openai/openai-go"
	"github.com/pkg/errors"
)

// Quota exhaustion is the one failure class that must reach the operator
// instead of producing a user-facing reply. Everything else, timeouts
// included, collapses into a generic failure the caller handles uniformly.

var quotaMarkers = []string{
	"insufficient_quota",
	"billing_hard_limit_reached",
	"exceeded your current quota",
}

// IsQuotaError reports whether err is a billing/quota exhaustion failure
// from the completion provider.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}

	var apierr *openai.Error
	if errors.As(err, &apierr) {
		body := strings.ToLower(apierr.Error())
		for _, marker := range quotaMarkers {
			if strings.Contains(body, marker) {
				return true
			}
		}
		return false
	}

	message := strings.ToLower(err.Error())
	for _, marker := range quotaMarkers {
		if strings.Contains(message, marker) {
			return true
		}
	}
	return false
}

// IsTimeout reports whether err is a context deadline or cancellation.
// Callers treat timeouts exactly like generic failures; this exists only
// so logs can name the cause.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
