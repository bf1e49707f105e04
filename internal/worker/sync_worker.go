package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tesoretto/internal/amqp"
	"tesoretto/internal/sheets"
	"tesoretto/internal/storage"
)

// SyncWorker mirrors entry changes into a spreadsheet. The entry store stays
// the source of truth: events only carry ids and the current row is always
// re-read before it is written out.
type SyncWorker struct {
	entries storage.EntryStore
	mirror  sheets.EntryMirror
}

func NewSyncWorker(entries storage.EntryStore, mirror sheets.EntryMirror) *SyncWorker {
	return &SyncWorker{entries: entries, mirror: mirror}
}

// ResyncResult counts the rows touched by ResyncAll.
type ResyncResult struct {
	Upserted int
	Removed  int
}

// HandleEvent applies a single entry event from AMQP.
func (w *SyncWorker) HandleEvent(ctx context.Context, ev *amqp.EntryEvent) error {
	slog.InfoContext(ctx, "Processing entry event",
		"id", ev.ID,
		"action", ev.Action,
		"timestamp", ev.Timestamp)

	switch ev.Action {
	case amqp.ActionCreated, amqp.ActionUpdated:
		e, err := w.entries.Get(ctx, ev.ID)
		if errors.Is(err, storage.ErrNotFound) {
			// Deleted before the event was consumed.
			slog.InfoContext(ctx, "Entry no longer exists, removing from sheet", "id", ev.ID)
			return w.delete(ctx, ev.ID)
		}
		if err != nil {
			return fmt.Errorf("get entry from storage: %w", err)
		}
		if err := w.mirror.Upsert(ctx, e); err != nil {
			return fmt.Errorf("mirror entry: %w", err)
		}
		return nil
	case amqp.ActionDeleted:
		return w.delete(ctx, ev.ID)
	default:
		return fmt.Errorf("unknown action %q", ev.Action)
	}
}

func (w *SyncWorker) delete(ctx context.Context, id string) error {
	if err := w.mirror.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete mirrored entry: %w", err)
	}
	return nil
}

// ResyncAll rewrites every stored entry and clears sheet rows whose entry
// is gone. It recovers from events lost while the broker was unreachable.
func (w *SyncWorker) ResyncAll(ctx context.Context) (ResyncResult, error) {
	var res ResyncResult

	entries, err := w.entries.List(ctx)
	if err != nil {
		return res, fmt.Errorf("list entries: %w", err)
	}
	known := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		known[e.ID] = struct{}{}
		if err := w.mirror.Upsert(ctx, e); err != nil {
			return res, fmt.Errorf("mirror entry %s: %w", e.ID, err)
		}
		res.Upserted++
	}

	ids, err := w.mirror.IDs(ctx)
	if err != nil {
		return res, fmt.Errorf("list mirrored ids: %w", err)
	}
	for _, id := range ids {
		if _, ok := known[id]; ok {
			continue
		}
		if err := w.mirror.Delete(ctx, id); err != nil {
			return res, fmt.Errorf("remove stale row %s: %w", id, err)
		}
		res.Removed++
	}

	slog.InfoContext(ctx, "Sheet resync completed",
		"upserted", res.Upserted,
		"removed", res.Removed)
	return res, nil
}
