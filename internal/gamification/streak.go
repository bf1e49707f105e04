// Package gamification keeps the daily tracking streak and unlocks
// achievements when milestones are reached.
package gamification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tesoretto/internal/core"
	"tesoretto/internal/storage"
)

// Advance applies an entry dated entryDate to the streak. Only entries dated
// today or yesterday relative to now count; the streak always records today
// as its last day, even for an entry dated yesterday.
func Advance(s core.Streak, entryDate core.Date, now time.Time) core.Streak {
	today := core.DateOf(now)
	yesterday := today.AddDays(-1)
	if !entryDate.SameDay(today) && !entryDate.SameDay(yesterday) {
		return s
	}

	last := s.LastEntryDate
	switch {
	case last.IsEmpty() || last.SameDay(yesterday):
		s.CurrentStreak++
	case !last.SameDay(today):
		s.CurrentStreak = 1
	}
	if last.IsEmpty() || !last.SameDay(today) {
		s.TotalDaysWithEntries++
	}
	s.LastEntryDate = today
	if s.CurrentStreak > s.LongestStreak {
		s.LongestStreak = s.CurrentStreak
	}
	return s
}

// CheckValidity breaks a streak whose last day is neither today nor
// yesterday.
func CheckValidity(s core.Streak, now time.Time) core.Streak {
	today := core.DateOf(now)
	last := s.LastEntryDate
	if last.IsEmpty() || (!last.SameDay(today) && !last.SameDay(today.AddDays(-1))) {
		s.CurrentStreak = 0
	}
	return s
}

// Tracker persists the streak through a state store.
type Tracker struct {
	store storage.StateStore
}

func NewTracker(store storage.StateStore) *Tracker {
	return &Tracker{store: store}
}

// RecordEntry advances the stored streak for an entry dated d.
func (t *Tracker) RecordEntry(ctx context.Context, d core.Date, now time.Time) (core.Streak, error) {
	current, err := t.store.Streak(ctx)
	if err != nil {
		return core.Streak{}, fmt.Errorf("load streak: %w", err)
	}
	next := Advance(current, d, now)
	if sameStreak(next, current) {
		return current, nil
	}
	if err := t.store.SaveStreak(ctx, next); err != nil {
		return core.Streak{}, fmt.Errorf("save streak: %w", err)
	}
	if next.CurrentStreak != current.CurrentStreak {
		slog.DebugContext(ctx, "Streak advanced",
			"current_streak", next.CurrentStreak,
			"longest_streak", next.LongestStreak)
	}
	return next, nil
}

// Refresh runs the validity check and persists a broken streak.
func (t *Tracker) Refresh(ctx context.Context, now time.Time) (core.Streak, error) {
	current, err := t.store.Streak(ctx)
	if err != nil {
		return core.Streak{}, fmt.Errorf("load streak: %w", err)
	}
	checked := CheckValidity(current, now)
	if sameStreak(checked, current) {
		return current, nil
	}
	if err := t.store.SaveStreak(ctx, checked); err != nil {
		return core.Streak{}, fmt.Errorf("save streak: %w", err)
	}
	slog.InfoContext(ctx, "Streak reset",
		"previous_streak", current.CurrentStreak,
		"last_entry_date", current.LastEntryDate.String())
	return checked, nil
}

func sameStreak(a, b core.Streak) bool {
	return a.CurrentStreak == b.CurrentStreak &&
		a.LongestStreak == b.LongestStreak &&
		a.TotalDaysWithEntries == b.TotalDaysWithEntries &&
		a.LastEntryDate.IsEmpty() == b.LastEntryDate.IsEmpty() &&
		a.LastEntryDate.SameDay(b.LastEntryDate)
}
