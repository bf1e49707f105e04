package storage

import (
	"context"
	"errors"
	"time"

	"tesoretto/internal/core"
)

var ErrNotFound = errors.New("not found")

// Ports implemented by every backend.
type (
	// EntryStore owns entries. List returns insertion order; ListByMonth is
	// sorted by CreatedAt descending.
	EntryStore interface {
		List(ctx context.Context) ([]core.Entry, error)
		ListByMonth(ctx context.Context, year int, month time.Month) ([]core.Entry, error)
		Get(ctx context.Context, id string) (core.Entry, error)
		Add(ctx context.Context, e core.Entry) error
		Update(ctx context.Context, e core.Entry) error
		Delete(ctx context.Context, id string) error
	}

	// BudgetStore owns budget rows and the last-budget-month marker.
	BudgetStore interface {
		ListBudgets(ctx context.Context) ([]core.Budget, error)
		// UpsertBudget inserts or updates the row keyed by (category, year, month).
		UpsertBudget(ctx context.Context, b core.Budget) error
		DeleteBudget(ctx context.Context, category core.Category, year int, month time.Month) error
		BudgetMonth(ctx context.Context) (core.YearMonth, error)
		SetBudgetMonth(ctx context.Context, ym core.YearMonth) error
	}

	StateStore interface {
		Streak(ctx context.Context) (core.Streak, error)
		SaveStreak(ctx context.Context, s core.Streak) error
		UnlockedAchievements(ctx context.Context) ([]core.AchievementID, error)
		// UnlockAchievement returns false when id was already unlocked.
		UnlockAchievement(ctx context.Context, id core.AchievementID) (bool, error)
		// Theme returns the empty theme when no preference was stored.
		Theme(ctx context.Context) (core.Theme, error)
		SetTheme(ctx context.Context, t core.Theme) error
	}

	Store interface {
		EntryStore
		BudgetStore
		StateStore
		Close() error
	}
)
