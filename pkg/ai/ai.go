package ai

import (
	"context"
)

// Completion is the single call pattern the engine needs from a language
// model: a system prompt plus one user input, returning plain text.
type Completion interface {
	Complete(ctx context.Context, systemPrompt string, userInput string) (string, error)
}
