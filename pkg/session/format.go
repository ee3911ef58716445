package session

import (
	"strings"
)

const (
	contextMessageLimit = 10
	emptyPlaceholder    = "(new conversation)"
)

// FormatForContext renders the last 10 messages of a session for the prompt,
// oldest first, each line tagged by speaker.
func FormatForContext(sess *Session) string {
	if sess == nil || len(sess.Messages) == 0 {
		return emptyPlaceholder
	}

	messages := sess.Messages
	if len(messages) > contextMessageLimit {
		messages = messages[len(messages)-contextMessageLimit:]
	}

	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		speaker := "Him"
		if msg.Role == RoleAgent {
			speaker = "Bethany"
		}
		lines = append(lines, speaker+": "+msg.Content)
	}
	return strings.Join(lines, "\n")
}
