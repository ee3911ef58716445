package session

import (
	"context"
	"strings"
	"time"

	"github.com/mrmicaiah/bethany/pkg/prompts"
)

// keywordGroups drive the deterministic fallback title. Order matters: the
// first group with a hit in the transcript wins.
var keywordGroups = []struct {
	title    string
	keywords []string
}{
	{"writing-talk", []string{"write", "writing", "book", "chapter", "story", "scene", "character", "draft"}},
	{"work-stuff", []string{"work", "meeting", "boss", "deadline", "office", "coworker"}},
	{"flirty-chat", []string{"kiss", "cute", "sexy", "miss you", "babe", "flirt"}},
	{"morning-chat", []string{"morning", "coffee", "breakfast", "woke up"}},
	{"evening-chat", []string{"night", "evening", "dinner", "sleep", "tired"}},
}

const defaultTitle = "casual-chat"

// generateTitle asks the completion service for a short slug-style title,
// falling back to the keyword heuristic on any failure. Titling never
// blocks archival.
func (m *Manager) generateTitle(ctx context.Context, sess *Session) string {
	transcript := transcript(sess)

	if m.completions != nil {
		prompt, err := prompts.BuildSessionTitlePrompt(prompts.SessionTitlePrompt{Transcript: transcript})
		if err == nil {
			titleCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			defer cancel()

			raw, err := m.completions.Complete(titleCtx, prompt, transcript)
			if title := normalizeTitle(raw); err == nil && title != "" {
				return title
			}
			if err != nil {
				m.logger.Warn("Title generation failed, using keyword fallback", "error", err)
			}
		}
	}

	return fallbackTitle(transcript)
}

func fallbackTitle(transcript string) string {
	lowered := strings.ToLower(transcript)
	for _, group := range keywordGroups {
		for _, keyword := range group.keywords {
			if strings.Contains(lowered, keyword) {
				return group.title
			}
		}
	}
	return defaultTitle
}

// normalizeTitle cleans model output into a lowercase hyphen-separated slug,
// or returns empty when the output is unusable.
func normalizeTitle(raw string) string {
	title := strings.ToLower(strings.TrimSpace(raw))
	title = strings.Trim(title, `"'.`)
	title = strings.ReplaceAll(title, " ", "-")

	if title == "" || len(title) > 60 || strings.Contains(title, "\n") {
		return ""
	}
	return title
}

func transcript(sess *Session) string {
	var b strings.Builder
	for _, msg := range sess.Messages {
		b.WriteString(string(msg.Role))
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	return b.String()
}
