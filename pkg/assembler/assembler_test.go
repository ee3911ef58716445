package assembler

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleOrderIsDeterministic(t *testing.T) {
	loc, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)

	in := Input{
		Personality:  "You are Bethany.",
		MemoryBlock:  "Name: Micaiah",
		SessionBlock: "Him: hey",
		Mode:         ModeSteady,
		Now:          time.Date(2025, 3, 3, 21, 4, 0, 0, time.UTC),
		Location:     loc,
		UserName:     "Micaiah",
		Facts:        []string{"2 contacts overdue"},
	}

	out := Assemble(in)
	second := Assemble(in)
	assert.Equal(t, out, second)

	personality := strings.Index(out, "You are Bethany.")
	memory := strings.Index(out, "WHAT YOU REMEMBER:")
	session := strings.Index(out, "CURRENT CONVERSATION:")
	guidance := strings.Index(out, "GUIDANCE:")
	footer := strings.Index(out, "CURRENT CONTEXT:")

	assert.True(t, personality < memory, "personality must come first")
	assert.True(t, memory < session)
	assert.True(t, session < guidance)
	assert.True(t, guidance < footer)

	// 21:04 UTC on 2025-03-03 is 3:04 PM in Chicago.
	assert.Contains(t, out, "Time: Monday, Mar 3 3:04 PM")
	assert.Contains(t, out, "Talking to: Micaiah")
	assert.Contains(t, out, "- 2 contacts overdue")
}

func TestAssembleOmitsEmptySections(t *testing.T) {
	out := Assemble(Input{
		Personality: "You are Bethany.",
		Mode:        ModeSteady,
		Now:         time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC),
	})

	assert.NotContains(t, out, "WHAT YOU REMEMBER:")
	assert.NotContains(t, out, "CURRENT CONVERSATION:")
	assert.NotContains(t, out, "Talking to:")
	assert.Contains(t, out, "CURRENT CONTEXT:")
}

func TestEveryModeHasGuidance(t *testing.T) {
	modes := []Mode{
		ModeOnboarding,
		ModeSteady,
		ModeMorningBriefing,
		ModeMiddayCheck,
		ModeEveningSynthesis,
		ModeAwarenessCheck,
		ModeNetworkNudge,
		ModeLibrary,
	}
	for _, mode := range modes {
		guidance, ok := guidanceByMode[mode]
		assert.True(t, ok, "mode %d missing from guidance table", mode)
		assert.NotEmpty(t, guidance)
	}
}

func TestRhythmModeUsesRecentTitlesBlock(t *testing.T) {
	out := Assemble(Input{
		Personality:  "You are Bethany.",
		SessionBlock: "Recent conversations: morning-chat, writing-talk",
		Mode:         ModeMorningBriefing,
		Now:          time.Date(2025, 3, 3, 7, 0, 0, 0, time.UTC),
	})

	assert.Contains(t, out, "Recent conversations: morning-chat, writing-talk")
	assert.Contains(t, out, "[SILENCE]")
}
