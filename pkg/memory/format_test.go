package memory

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatForContextOmitsEmptyFields(t *testing.T) {
	hot := &Hot{
		Core: &CoreMemory{
			Name:     "Micaiah",
			Location: "Nashville",
		},
		Relationship: &RelationshipMemory{
			Vibe:       VibePlayful,
			FlirtLevel: FlirtFlirty,
		},
	}

	out := FormatForContext(hot, nil)

	assert.Contains(t, out, "Name: Micaiah")
	assert.Contains(t, out, "Location: Nashville")
	assert.Contains(t, out, "Vibe: playful")
	assert.Contains(t, out, "Flirt level: flirty")

	// No line is ever rendered for an empty collection.
	assert.NotContains(t, out, "Interests:")
	assert.NotContains(t, out, "Inside jokes:")
	assert.NotContains(t, out, "PEOPLE IN HIS LIFE")
	assert.NotContains(t, out, "OPEN THREADS")
	for _, line := range strings.Split(out, "\n") {
		assert.False(t, strings.HasSuffix(line, ": "), "empty-valued line rendered: %q", line)
	}
}

func TestFormatForContextCapsPeopleAndThreads(t *testing.T) {
	people := make([]PersonMemory, 14)
	for i := range people {
		people[i] = PersonMemory{Name: fmt.Sprintf("Person%d", i)}
	}

	threads := make([]ActiveThread, 8)
	for i := range threads {
		threads[i] = ActiveThread{ID: fmt.Sprintf("t%d", i), Topic: fmt.Sprintf("Topic%d", i), CreatedAt: time.Now()}
	}

	out := FormatForContext(&Hot{OpenThreads: threads}, people)

	assert.Contains(t, out, "Person0")
	assert.Contains(t, out, "Person9")
	assert.NotContains(t, out, "Person10")

	assert.Contains(t, out, "Topic0")
	assert.Contains(t, out, "Topic4")
	assert.NotContains(t, out, "Topic5")
}

func TestFormatForContextIsDeterministic(t *testing.T) {
	hot := &Hot{
		Core: &CoreMemory{
			Name:      "Micaiah",
			Age:       34,
			Job:       Job{Title: "analyst", Company: "Meridian"},
			Interests: []string{"writing", "running"},
		},
		Relationship: &RelationshipMemory{
			Vibe:        VibeClose,
			FlirtLevel:  FlirtPlayful,
			InsideJokes: []string{"the llama thing"},
		},
	}
	people := []PersonMemory{{Name: "Sarah", Relationship: "sister", KeyFacts: []string{"lives in Austin"}}}

	first := FormatForContext(hot, people)
	second := FormatForContext(hot, people)
	assert.Equal(t, first, second)
	assert.Contains(t, first, "Work: analyst at Meridian")
	assert.Contains(t, first, "- Sarah (sister): lives in Austin")
}

func TestFormatForContextNilHot(t *testing.T) {
	assert.Equal(t, "", FormatForContext(nil, nil))
}
