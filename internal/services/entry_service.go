package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tesoretto/internal/amqp"
	"tesoretto/internal/analytics"
	"tesoretto/internal/budget"
	"tesoretto/internal/core"
	"tesoretto/internal/gamification"
	"tesoretto/internal/storage"
)

// EventPublisher announces entry changes to other processes.
type EventPublisher interface {
	PublishEntryEvent(ctx context.Context, id string, action amqp.Action) error
}

// EntryDraft is the user-editable part of an entry.
type EntryDraft struct {
	Amount   core.Money
	Type     core.EntryType
	Category core.Category
	Date     core.Date
	Note     string
}

// AddResult reports the side effects of recording an entry.
type AddResult struct {
	Entry    core.Entry         `json:"entry"`
	Streak   core.Streak        `json:"-"`
	Unlocked []core.Achievement `json:"unlocked"`
}

type Option func(*options)

type options struct {
	clock func() time.Time
	newID func() string
}

// WithClock overrides the wall clock used for "today".
func WithClock(clock func() time.Time) Option {
	return func(o *options) { o.clock = clock }
}

func WithIDGenerator(gen func() string) Option {
	return func(o *options) { o.newID = gen }
}

func applyOptions(opts []Option) options {
	o := options{clock: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// EntryService orchestrates entry writes: the store first, then streak and
// achievements, then the change event.
type EntryService struct {
	entries      storage.EntryStore
	budgets      *budget.Engine
	tracker      *gamification.Tracker
	achievements *gamification.Achievements
	publisher    EventPublisher
	opts         options
}

func NewEntryService(store storage.Store, budgets *budget.Engine, publisher EventPublisher, opts ...Option) *EntryService {
	return &EntryService{
		entries:      store,
		budgets:      budgets,
		tracker:      gamification.NewTracker(store),
		achievements: gamification.NewAchievements(store),
		publisher:    publisher,
		opts:         applyOptions(opts),
	}
}

func (s *EntryService) List(ctx context.Context) ([]core.Entry, error) {
	return s.entries.List(ctx)
}

func (s *EntryService) ListByMonth(ctx context.Context, year int, month time.Month) ([]core.Entry, error) {
	return s.entries.ListByMonth(ctx, year, month)
}

func (s *EntryService) Get(ctx context.Context, id string) (core.Entry, error) {
	return s.entries.Get(ctx, id)
}

// Add validates and stores a new entry. Validation failures leave the store
// untouched. Streak, achievement and publish failures are logged only.
func (s *EntryService) Add(ctx context.Context, d EntryDraft) (AddResult, error) {
	now := s.opts.clock()
	e := core.Entry{
		ID:        s.opts.newID(),
		Amount:    d.Amount,
		Type:      d.Type,
		Category:  d.Category,
		Date:      d.Date,
		Note:      d.Note,
		CreatedAt: now.UTC(),
	}.Normalize()
	if err := e.Validate(); err != nil {
		return AddResult{}, err
	}

	if err := s.entries.Add(ctx, e); err != nil {
		return AddResult{}, fmt.Errorf("save entry: %w", err)
	}
	slog.InfoContext(ctx, "Entry recorded",
		"id", e.ID,
		"type", e.Type,
		"category", e.Category,
		"amount_cents", e.Amount.Cents,
		"date", e.Date.String())

	result := AddResult{Entry: e}
	streak, err := s.tracker.RecordEntry(ctx, e.Date, now)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to update streak", "id", e.ID, "error", err)
	}
	result.Streak = streak
	result.Unlocked = s.evaluateAchievements(ctx, e, streak, now)
	if result.Unlocked == nil {
		result.Unlocked = []core.Achievement{}
	}

	s.publish(ctx, e.ID, amqp.ActionCreated)
	return result, nil
}

// Update replaces every user-editable field of an existing entry.
func (s *EntryService) Update(ctx context.Context, id string, d EntryDraft) (core.Entry, error) {
	existing, err := s.entries.Get(ctx, id)
	if err != nil {
		return core.Entry{}, err
	}
	e := core.Entry{
		ID:        existing.ID,
		Amount:    d.Amount,
		Type:      d.Type,
		Category:  d.Category,
		Date:      d.Date,
		Note:      d.Note,
		CreatedAt: existing.CreatedAt,
	}.Normalize()
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}
	if err := s.entries.Update(ctx, e); err != nil {
		return core.Entry{}, fmt.Errorf("update entry: %w", err)
	}

	now := s.opts.clock()
	streak, err := s.tracker.Refresh(ctx, now)
	if err != nil {
		slog.WarnContext(ctx, "Failed to load streak", "error", err)
	}
	s.evaluateAchievements(ctx, e, streak, now)
	s.publish(ctx, e.ID, amqp.ActionUpdated)
	return e, nil
}

func (s *EntryService) Delete(ctx context.Context, id string) error {
	if err := s.entries.Delete(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Entry deleted", "id", id)
	s.publish(ctx, id, amqp.ActionDeleted)
	return nil
}

func (s *EntryService) evaluateAchievements(ctx context.Context, e core.Entry, streak core.Streak, now time.Time) []core.Achievement {
	all, err := s.entries.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load entries for achievements", "error", err)
		return nil
	}
	month := analytics.MonthlyData(all, e.Date.Year(), e.Date.Month())
	progress := gamification.Progress{
		TotalEntries:  len(all),
		CurrentStreak: streak.CurrentStreak,
		SavingsRate:   analytics.SavingsRate(month.TotalIncome, month.TotalExpenses()),
	}
	if s.budgets != nil {
		if budgets, err := s.budgets.List(ctx, now); err == nil {
			progress.GreenMonths = budget.ConsecutiveGreenMonths(budgets, all, now)
		} else {
			slog.WarnContext(ctx, "Failed to load budgets for achievements", "error", err)
		}
	}

	unlocked, err := s.achievements.Evaluate(ctx, progress)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to evaluate achievements", "error", err)
	}
	return unlocked
}

func (s *EntryService) publish(ctx context.Context, id string, action amqp.Action) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No event publisher configured, skipping entry event", "id", id)
		return
	}
	if err := s.publisher.PublishEntryEvent(ctx, id, action); err != nil {
		slog.ErrorContext(ctx, "Failed to publish entry event",
			"id", id,
			"action", action,
			"error", err)
	}
}
