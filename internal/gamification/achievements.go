package gamification

import (
	"context"
	"fmt"
	"log/slog"

	"tesoretto/internal/core"
	"tesoretto/internal/storage"
)

// Progress is the state achievements are evaluated against.
type Progress struct {
	TotalEntries  int
	CurrentStreak int
	// SavingsRate of the month being evaluated.
	SavingsRate int
	// GreenMonths is the number of consecutive completed months with a green
	// budget summary.
	GreenMonths int
}

// AchievementStatus pairs a definition with its unlock state.
type AchievementStatus struct {
	core.Achievement
	Unlocked bool `json:"unlocked"`
}

var criteria = map[core.AchievementID]func(Progress) bool{
	core.AchievementFirstEntry:   func(p Progress) bool { return p.TotalEntries >= 1 },
	core.AchievementStreak7:      func(p Progress) bool { return p.CurrentStreak >= 7 },
	core.AchievementStreak30:     func(p Progress) bool { return p.CurrentStreak >= 30 },
	core.AchievementStreak90:     func(p Progress) bool { return p.CurrentStreak >= 90 },
	core.AchievementSuperSaver:   func(p Progress) bool { return p.SavingsRate >= 20 },
	core.AchievementBudgetMaster: func(p Progress) bool { return p.GreenMonths >= 3 },
}

// Met returns the achievements whose criterion p satisfies, in definition
// order.
func Met(p Progress) []core.AchievementID {
	var out []core.AchievementID
	for _, a := range core.Achievements() {
		if criteria[a.ID](p) {
			out = append(out, a.ID)
		}
	}
	return out
}

type Achievements struct {
	store storage.StateStore
}

func NewAchievements(store storage.StateStore) *Achievements {
	return &Achievements{store: store}
}

// Evaluate unlocks every achievement p satisfies and returns the ones that
// were not unlocked before. Achievements are never re-locked.
func (a *Achievements) Evaluate(ctx context.Context, p Progress) ([]core.Achievement, error) {
	var unlocked []core.Achievement
	for _, id := range Met(p) {
		isNew, err := a.Unlock(ctx, id)
		if err != nil {
			return unlocked, err
		}
		if isNew {
			unlocked = append(unlocked, definition(id))
		}
	}
	return unlocked, nil
}

// Unlock marks id as unlocked and reports whether it was newly unlocked.
func (a *Achievements) Unlock(ctx context.Context, id core.AchievementID) (bool, error) {
	if !id.IsValid() {
		return false, fmt.Errorf("unknown achievement %q", id)
	}
	isNew, err := a.store.UnlockAchievement(ctx, id)
	if err != nil {
		return false, fmt.Errorf("unlock %s: %w", id, err)
	}
	if isNew {
		slog.InfoContext(ctx, "Achievement unlocked", "achievement", id)
	}
	return isNew, nil
}

// List returns every definition with its unlock state.
func (a *Achievements) List(ctx context.Context) ([]AchievementStatus, error) {
	ids, err := a.store.UnlockedAchievements(ctx)
	if err != nil {
		return nil, fmt.Errorf("load achievements: %w", err)
	}
	unlocked := make(map[core.AchievementID]bool, len(ids))
	for _, id := range ids {
		unlocked[id] = true
	}
	defs := core.Achievements()
	out := make([]AchievementStatus, len(defs))
	for i, d := range defs {
		out[i] = AchievementStatus{Achievement: d, Unlocked: unlocked[d.ID]}
	}
	return out, nil
}

func definition(id core.AchievementID) core.Achievement {
	for _, a := range core.Achievements() {
		if a.ID == id {
			return a
		}
	}
	return core.Achievement{ID: id}
}
