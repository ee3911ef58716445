package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFallbackTitleGroupOrder(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
		want       string
	}{
		{name: "writing beats work", transcript: "ugh work was rough but I got a chapter done", want: "writing-talk"},
		{name: "work beats morning", transcript: "good morning, big meeting today", want: "work-stuff"},
		{name: "flirty", transcript: "you're cute when you're smug", want: "flirty-chat"},
		{name: "morning", transcript: "coffee first, talk after", want: "morning-chat"},
		{name: "evening", transcript: "heading to dinner soon", want: "evening-chat"},
		{name: "default", transcript: "idk just vibes", want: "casual-chat"},
		{name: "empty", transcript: "", want: "casual-chat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fallbackTitle(tt.transcript))
		})
	}
}

func TestNormalizeTitle(t *testing.T) {
	assert.Equal(t, "late-night-rambling", normalizeTitle(" Late Night Rambling "))
	assert.Equal(t, "work-vent", normalizeTitle(`"work-vent"`))
	assert.Equal(t, "", normalizeTitle(""))
	assert.Equal(t, "", normalizeTitle("a title\nwith a second line"))
	assert.Equal(t, "", normalizeTitle("this-title-is-way-too-long-to-be-a-reasonable-slug-for-anything-at-all"))
}
