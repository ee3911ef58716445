package ai

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestIsQuotaError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "quota marker", err: errors.New("429: You exceeded your current quota, please check your plan and billing details"), want: true},
		{name: "insufficient quota code", err: errors.New(`{"error":{"code":"insufficient_quota"}}`), want: true},
		{name: "generic 500", err: errors.New("500: internal server error"), want: false},
		{name: "rate limit without quota", err: errors.New("429: rate limit reached for requests"), want: false},
		{name: "wrapped", err: errors.Wrap(errors.New("insufficient_quota"), "completion failed"), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsQuotaError(tt.err))
		})
	}
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, IsTimeout(context.DeadlineExceeded))
	assert.True(t, IsTimeout(errors.Wrap(context.Canceled, "call aborted")))
	assert.False(t, IsTimeout(errors.New("boom")))
}
