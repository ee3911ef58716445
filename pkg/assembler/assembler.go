// Package assembler builds the single text blob handed to the completion
// service. It is pure composition: no storage reads, no model calls, and no
// re-truncation of upstream blocks (memory caps people/threads, the session
// manager caps messages).
package assembler

import (
	"fmt"
	"strings"
	"time"

	"github.com/mrmicaiah/bethany/pkg/prompts"
)

// Mode selects the scenario-specific guidance block. A closed set, resolved
// through a lookup table rather than string matching.
type Mode int

const (
	ModeOnboarding Mode = iota
	ModeSteady
	ModeMorningBriefing
	ModeMiddayCheck
	ModeEveningSynthesis
	ModeAwarenessCheck
	ModeNetworkNudge
	ModeLibrary
)

var guidanceByMode = map[Mode]string{
	ModeOnboarding:       prompts.OnboardingGuidance,
	ModeSteady:           prompts.SteadyGuidance,
	ModeMorningBriefing:  prompts.MorningBriefingPrompt,
	ModeMiddayCheck:      prompts.MiddayCheckPrompt,
	ModeEveningSynthesis: prompts.EveningSynthesisPrompt,
	ModeAwarenessCheck:   prompts.AwarenessCheckPrompt,
	ModeNetworkNudge:     prompts.NetworkNudgeGuidance,
	ModeLibrary:          prompts.LibraryGuidance,
}

// Input is everything the assembler concatenates, already formatted by its
// owners.
type Input struct {
	Personality  string
	MemoryBlock  string
	SessionBlock string
	Mode         Mode
	Extra        string

	// Footer data.
	Now      time.Time
	Location *time.Location
	UserName string
	Facts    []string
}

// Assemble produces the prompt in a fixed order: personality, memory,
// session, guidance, extra context, then the current-context footer.
func Assemble(in Input) string {
	sections := make([]string, 0, 6)

	if in.Personality != "" {
		sections = append(sections, strings.TrimSpace(in.Personality))
	}
	if in.MemoryBlock != "" {
		sections = append(sections, "WHAT YOU REMEMBER:\n"+strings.TrimSpace(in.MemoryBlock))
	}
	if in.SessionBlock != "" {
		sections = append(sections, "CURRENT CONVERSATION:\n"+strings.TrimSpace(in.SessionBlock))
	}
	if guidance, ok := guidanceByMode[in.Mode]; ok && guidance != "" {
		sections = append(sections, strings.TrimSpace(guidance))
	}
	if in.Extra != "" {
		sections = append(sections, strings.TrimSpace(in.Extra))
	}

	sections = append(sections, footer(in))

	return strings.Join(sections, "\n\n")
}

func footer(in Input) string {
	var b strings.Builder
	b.WriteString("CURRENT CONTEXT:\n")

	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	if in.Location != nil {
		now = now.In(in.Location)
	}
	fmt.Fprintf(&b, "Time: %s\n", now.Format("Monday, Jan 2 3:04 PM"))

	if in.UserName != "" {
		fmt.Fprintf(&b, "Talking to: %s\n", in.UserName)
	}
	for _, fact := range in.Facts {
		if fact != "" {
			b.WriteString("- " + fact + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
