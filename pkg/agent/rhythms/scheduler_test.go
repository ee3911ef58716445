package rhythms

import (
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrmicaiah/bethany/pkg/agent"
)

func newTestScheduler(t *testing.T, entries []Schedule) (*Scheduler, *[]agent.RhythmName) {
	t.Helper()
	loc, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)

	var fired []agent.RhythmName
	s := NewScheduler(log.New(io.Discard), loc, entries, func(name agent.RhythmName) {
		fired = append(fired, name)
	})
	return s, &fired
}

func chicago(t *testing.T, hour, minute int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)
	return time.Date(2025, 6, 10, hour, minute, 0, 0, loc)
}

func TestRhythmFiresOncePerDay(t *testing.T) {
	s, fired := newTestScheduler(t, []Schedule{
		{Name: agent.RhythmMorningBriefing, Hour: 7, Minute: 30},
	})

	s.tick(chicago(t, 7, 29))
	assert.Empty(t, *fired)

	s.tick(chicago(t, 7, 30))
	require.Len(t, *fired, 1)
	assert.Equal(t, agent.RhythmMorningBriefing, (*fired)[0])

	s.tick(chicago(t, 7, 31))
	s.tick(chicago(t, 23, 59))
	assert.Len(t, *fired, 1)
}

func TestRhythmFiresAgainNextDay(t *testing.T) {
	s, fired := newTestScheduler(t, []Schedule{
		{Name: agent.RhythmMiddayCheck, Hour: 12, Minute: 30},
	})

	s.tick(chicago(t, 12, 30))
	s.tick(chicago(t, 12, 30).AddDate(0, 0, 1))
	assert.Len(t, *fired, 2)
}

func TestLateStartCatchesUpWithinWindow(t *testing.T) {
	s, fired := newTestScheduler(t, DefaultSchedule())

	// First tick at 13:00: midday (12:30) is 30 minutes past due and still
	// catches up; morning (7:30) is hours stale and must not fire.
	s.tick(chicago(t, 13, 0))
	assert.Equal(t, []agent.RhythmName{agent.RhythmMiddayCheck}, *fired)
}

func TestEveningRestartDoesNotFireMorningRhythms(t *testing.T) {
	s, fired := newTestScheduler(t, DefaultSchedule())

	// Restart at 22:00: only evening synthesis (21:00) is within the
	// catch-up window.
	s.tick(chicago(t, 22, 0))
	assert.Equal(t, []agent.RhythmName{agent.RhythmEveningSynthesis}, *fired)

	// The stale entries stay skipped for the rest of the day but fire
	// normally the next morning.
	s.tick(chicago(t, 23, 0))
	assert.Len(t, *fired, 1)

	s.tick(chicago(t, 7, 30).AddDate(0, 0, 1))
	require.Len(t, *fired, 2)
	assert.Equal(t, agent.RhythmMorningBriefing, (*fired)[1])
}

func TestFullDefaultScheduleOverOneDay(t *testing.T) {
	s, fired := newTestScheduler(t, DefaultSchedule())

	for hour := 0; hour < 24; hour++ {
		s.tick(chicago(t, hour, 0))
		s.tick(chicago(t, hour, 30))
	}

	assert.Equal(t, []agent.RhythmName{
		agent.RhythmMorningBriefing,
		agent.RhythmMiddayCheck,
		agent.RhythmAwarenessCheck,
		agent.RhythmEveningSynthesis,
	}, *fired)
}
