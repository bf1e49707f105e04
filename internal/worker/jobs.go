package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tesoretto/internal/budget"
	"tesoretto/internal/core"
	"tesoretto/internal/gamification"
	"tesoretto/internal/storage"
)

// Backup is satisfied by export.S3Sink.
type Backup interface {
	Upload(ctx context.Context, entries []core.Entry, now time.Time) (string, error)
}

// StreakJob breaks stale streaks so readers never see an expired count.
func StreakJob(tracker *gamification.Tracker, clock func() time.Time) Job {
	return JobFunc{JobName: "streak_refresh", Fn: func(ctx context.Context) error {
		s, err := tracker.Refresh(ctx, clock())
		if err != nil {
			return fmt.Errorf("refresh streak: %w", err)
		}
		slog.DebugContext(ctx, "Streak refreshed", "current", s.CurrentStreak, "longest", s.LongestStreak)
		return nil
	}}
}

// RolloverJob carries budgets into the new month.
func RolloverJob(engine *budget.Engine, clock func() time.Time) Job {
	return JobFunc{JobName: "budget_rollover", Fn: func(ctx context.Context) error {
		return engine.Rollover(ctx, clock())
	}}
}

// BackupJob uploads a CSV snapshot of every entry.
func BackupJob(entries storage.EntryStore, sink Backup, clock func() time.Time) Job {
	return JobFunc{JobName: "entry_backup", Fn: func(ctx context.Context) error {
		all, err := entries.List(ctx)
		if err != nil {
			return fmt.Errorf("list entries: %w", err)
		}
		_, err = sink.Upload(ctx, all, clock())
		return err
	}}
}

// ResyncJob rebuilds the spreadsheet mirror from the store.
func ResyncJob(w *SyncWorker) Job {
	return JobFunc{JobName: "sheet_resync", Fn: func(ctx context.Context) error {
		_, err := w.ResyncAll(ctx)
		return err
	}}
}
