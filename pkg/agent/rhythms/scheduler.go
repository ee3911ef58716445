// Package rhythms fires the daily check-ins on a wall-clock schedule in the
// user's timezone. It only decides WHEN; the agent loop decides whether a
// rhythm actually produces a message.
package rhythms

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mrmicaiah/bethany/pkg/agent"
)

// Schedule pins one rhythm to a local wall-clock time.
type Schedule struct {
	Name   agent.RhythmName
	Hour   int
	Minute int
}

// DefaultSchedule covers the four daily rhythms.
func DefaultSchedule() []Schedule {
	return []Schedule{
		{Name: agent.RhythmMorningBriefing, Hour: 7, Minute: 30},
		{Name: agent.RhythmMiddayCheck, Hour: 12, Minute: 30},
		{Name: agent.RhythmAwarenessCheck, Hour: 17, Minute: 0},
		{Name: agent.RhythmEveningSynthesis, Hour: 21, Minute: 0},
	}
}

// Scheduler polls the clock and fires each schedule entry at most once per
// local day. Coarse polling is deliberate; a rhythm landing a minute late is
// invisible to the user.
type Scheduler struct {
	logger   *log.Logger
	location *time.Location
	entries  []Schedule
	fire     func(agent.RhythmName)

	firedOn map[agent.RhythmName]string
}

func NewScheduler(logger *log.Logger, location *time.Location, entries []Schedule, fire func(agent.RhythmName)) *Scheduler {
	return &Scheduler{
		logger:   logger,
		location: location,
		entries:  entries,
		fire:     fire,
		firedOn:  make(map[agent.RhythmName]string),
	}
}

// Run polls once a minute until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("Rhythm scheduler started", "entries", len(s.entries))
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Rhythm scheduler stopped")
			return
		case now := <-ticker.C:
			s.tick(now)
		}
	}
}

// catchUpWindow bounds restart catch-up. A 7:30 briefing still goes out if
// the process comes up at 7:45, but not at 22:00; a morning rhythm fired at
// night is worse than a missed one.
const catchUpWindow = 3 * time.Hour

func (s *Scheduler) tick(now time.Time) {
	local := now.In(s.location)
	day := local.Format("2006-01-02")

	for _, entry := range s.entries {
		if s.firedOn[entry.Name] == day {
			continue
		}
		due := time.Date(local.Year(), local.Month(), local.Day(), entry.Hour, entry.Minute, 0, 0, s.location)
		if local.Before(due) {
			continue
		}
		if local.Sub(due) > catchUpWindow {
			s.firedOn[entry.Name] = day
			s.logger.Info("Skipping rhythm past its catch-up window", "rhythm", entry.Name, "scheduled", due.Format("15:04"))
			continue
		}
		s.firedOn[entry.Name] = day
		s.logger.Info("Firing rhythm", "rhythm", entry.Name, "scheduled", due.Format("15:04"))
		s.fire(entry.Name)
	}
}
