package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mrmicaiah/bethany/pkg/ai"
	"github.com/mrmicaiah/bethany/pkg/assembler"
	"github.com/mrmicaiah/bethany/pkg/library"
	"github.com/mrmicaiah/bethany/pkg/network"
)

// RhythmName identifies one scheduled daily check-in.
type RhythmName string

const (
	RhythmMorningBriefing  RhythmName = "morning_briefing"
	RhythmMiddayCheck      RhythmName = "midday_check"
	RhythmEveningSynthesis RhythmName = "evening_synthesis"
	RhythmAwarenessCheck   RhythmName = "awareness_check"
)

const recentTitlesLimit = 5

var modeByRhythm = map[RhythmName]assembler.Mode{
	RhythmMorningBriefing:  assembler.ModeMorningBriefing,
	RhythmMiddayCheck:      assembler.ModeMiddayCheck,
	RhythmEveningSynthesis: assembler.ModeEveningSynthesis,
	RhythmAwarenessCheck:   assembler.ModeAwarenessCheck,
}

// handleRhythm runs one scheduled check-in. Rhythms never quote an active
// conversation; they see recent archived titles instead, and the model may
// decline to speak by replying with the silence sentinel.
func (a *Agent) handleRhythm(ctx context.Context, name RhythmName) {
	mode, ok := modeByRhythm[name]
	if !ok {
		a.logger.Warn("Unknown rhythm, skipping", "rhythm", name)
		return
	}

	// An active conversation makes a scheduled interjection feel robotic.
	if current, err := a.services.Sessions.LoadCurrent(ctx); err == nil && current != nil {
		if time.Since(current.LastActivity) < time.Hour && len(current.Messages) > 0 {
			a.logger.Info("Skipping rhythm, conversation is live", "rhythm", name)
			return
		}
	}

	hot := a.services.Memory.LoadHot(ctx)
	people := a.services.Memory.LoadPeople(ctx)

	var extra string
	var facts []string
	var overdue []network.Overdue
	if name == RhythmAwarenessCheck {
		overdue = a.services.Contacts.OverdueContacts(ctx, time.Now())
		extra = network.FormatOverdue(overdue)
		if n := len(overdue); n > 0 {
			facts = append(facts, countFact(n))
		}
	}
	if name == RhythmEveningSynthesis {
		if books := a.services.Library.ListBooks(ctx); len(books) > 0 {
			extra = library.FormatProgress(books)
		}
	}

	prompt := a.buildPrompt(hot, people, a.recentTitlesBlock(ctx), mode, extra, facts)

	reply, err := a.services.Completions.Complete(ctx, prompt, string(name))
	if err != nil {
		if ai.IsQuotaError(err) {
			a.notifyOperator(ctx, err)
			return
		}
		a.logger.Error("Rhythm completion failed", "rhythm", name, "error", err)
		if len(overdue) == 0 {
			// Rhythms are unsolicited; a failed one stays quiet.
			return
		}
		// A contact reminder still lands without the model. The opener
		// rotates by day so repeated failures do not repeat text.
		reply = network.BuildNudge(overdue[0], time.Now().In(a.location).YearDay())
	}

	if reply == SilenceSentinel {
		a.logger.Info("Rhythm chose silence", "rhythm", name)
		return
	}

	result, err := a.services.Sessions.CheckAndManageSession(ctx, string(name))
	if err != nil {
		a.logger.Error("Session check failed for rhythm", "rhythm", name, "error", err)
	}
	a.archivePrevious(ctx, result.PreviousSession)
	a.deliver(ctx, reply)
}

// recentTitlesBlock summarizes recent archived sessions for rhythm prompts.
func (a *Agent) recentTitlesBlock(ctx context.Context) string {
	titles, err := a.services.Sessions.ListRecentTitles(ctx, recentTitlesLimit)
	if err != nil {
		a.logger.Warn("Failed to list recent session titles", "error", err)
		return ""
	}
	if len(titles) == 0 {
		return ""
	}
	return "Recent conversations: " + strings.Join(titles, ", ")
}

func countFact(n int) string {
	if n == 1 {
		return "1 contact overdue"
	}
	return fmt.Sprintf("%d contacts overdue", n)
}
