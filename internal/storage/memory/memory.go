package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"tesoretto/internal/core"
	"tesoretto/internal/storage"
)

// File names of the independently persisted records.
const (
	entriesFile      = "entries.json"
	budgetsFile      = "budgets.json"
	budgetMonthFile  = "budget_month.json"
	streakFile       = "streak.json"
	achievementsFile = "achievements.json"
	themeFile        = "theme.json"
)

// Store keeps all state in memory. When created with a data directory every
// record is loaded from and written back to its own JSON file.
type Store struct {
	mu           sync.Mutex
	dir          string
	entries      []core.Entry
	budgets      []core.Budget
	budgetMonth  core.YearMonth
	streak       core.Streak
	achievements []core.AchievementID
	theme        core.Theme
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// NewFromDir loads persisted records from dir. Missing files start empty;
// corrupt files are logged and treated as empty so a bad record never blocks
// startup.
func NewFromDir(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	s := &Store{dir: dir}

	var entries []storage.EntryRecord
	if !s.load(entriesFile, &entries) {
		entries = nil
	}
	for _, r := range entries {
		s.entries = append(s.entries, storage.NormalizeEntry(r))
	}

	var budgets []storage.BudgetRecord
	if !s.load(budgetsFile, &budgets) {
		budgets = nil
	}
	s.budgets = storage.BudgetsFromRecords(budgets)

	var month storage.MonthRecord
	if s.load(budgetMonthFile, &month) {
		s.budgetMonth = core.YearMonth{Year: month.Year, Month: time.Month(month.Month)}
	}

	var streak storage.StreakRecord
	if s.load(streakFile, &streak) {
		s.streak = storage.StreakFromRecord(streak)
	}

	var ids []core.AchievementID
	if !s.load(achievementsFile, &ids) {
		ids = nil
	}
	for _, id := range ids {
		if id.IsValid() && !containsID(s.achievements, id) {
			s.achievements = append(s.achievements, id)
		}
	}

	var theme core.Theme
	if s.load(themeFile, &theme) && theme.IsValid() {
		s.theme = theme
	}

	slog.Info("Loaded memory store",
		"data_directory", dir,
		"entries", len(s.entries),
		"budgets", len(s.budgets))
	return s, nil
}

func (s *Store) Close() error { return nil }

func (s *Store) List(_ context.Context) ([]core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Entry(nil), s.entries...), nil
}

func (s *Store) ListByMonth(_ context.Context, year int, month time.Month) ([]core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return storage.FilterMonth(s.entries, year, month), nil
}

func (s *Store) Get(_ context.Context, id string) (core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.entries[i], nil
	}
	return core.Entry{}, storage.ErrNotFound
}

func (s *Store) Add(_ context.Context, e core.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(e.ID) >= 0 {
		return fmt.Errorf("entry %s already exists", e.ID)
	}
	next := append(append(make([]core.Entry, 0, len(s.entries)+1), s.entries...), e)
	return s.commitEntries(next)
}

func (s *Store) Update(_ context.Context, e core.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(e.ID)
	if i < 0 {
		return storage.ErrNotFound
	}
	next := append([]core.Entry(nil), s.entries...)
	next[i] = e
	return s.commitEntries(next)
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return storage.ErrNotFound
	}
	next := make([]core.Entry, 0, len(s.entries)-1)
	next = append(append(next, s.entries[:i]...), s.entries[i+1:]...)
	return s.commitEntries(next)
}

func (s *Store) ListBudgets(_ context.Context) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Budget(nil), s.budgets...), nil
}

func (s *Store) UpsertBudget(_ context.Context, b core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := append([]core.Budget(nil), s.budgets...)
	replaced := false
	for i, existing := range next {
		if existing.Category == b.Category && existing.Year == b.Year && existing.Month == b.Month {
			next[i].Amount = b.Amount
			replaced = true
			break
		}
	}
	if !replaced {
		next = append(next, b)
	}
	return s.commitBudgets(next)
}

func (s *Store) DeleteBudget(_ context.Context, category core.Category, year int, month time.Month) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, b := range s.budgets {
		if b.Category == category && b.Year == year && b.Month == month {
			next := make([]core.Budget, 0, len(s.budgets)-1)
			next = append(append(next, s.budgets[:i]...), s.budgets[i+1:]...)
			return s.commitBudgets(next)
		}
	}
	return storage.ErrNotFound
}

func (s *Store) BudgetMonth(_ context.Context) (core.YearMonth, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.budgetMonth, nil
}

func (s *Store) SetBudgetMonth(_ context.Context, ym core.YearMonth) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persist(budgetMonthFile, storage.MonthRecord{Month: int(ym.Month), Year: ym.Year}); err != nil {
		return err
	}
	s.budgetMonth = ym
	return nil
}

func (s *Store) Streak(_ context.Context) (core.Streak, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streak, nil
}

func (s *Store) SaveStreak(_ context.Context, st core.Streak) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persist(streakFile, storage.RecordFromStreak(st)); err != nil {
		return err
	}
	s.streak = st
	return nil
}

func (s *Store) UnlockedAchievements(_ context.Context) ([]core.AchievementID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.AchievementID(nil), s.achievements...), nil
}

func (s *Store) UnlockAchievement(_ context.Context, id core.AchievementID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if containsID(s.achievements, id) {
		return false, nil
	}
	next := append(append(make([]core.AchievementID, 0, len(s.achievements)+1), s.achievements...), id)
	if err := s.persist(achievementsFile, next); err != nil {
		return false, err
	}
	s.achievements = next
	return true, nil
}

func (s *Store) Theme(_ context.Context) (core.Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme, nil
}

func (s *Store) SetTheme(_ context.Context, t core.Theme) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persist(themeFile, t); err != nil {
		return err
	}
	s.theme = t
	return nil
}

func (s *Store) indexOf(id string) int {
	for i, e := range s.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// commitEntries writes next and only then replaces the in-memory slice, so a
// failed write leaves the store unchanged.
func (s *Store) commitEntries(next []core.Entry) error {
	records := make([]storage.EntryRecord, 0, len(next))
	for _, e := range next {
		records = append(records, storage.RecordFromEntry(e))
	}
	if err := s.persist(entriesFile, records); err != nil {
		return err
	}
	s.entries = next
	return nil
}

func (s *Store) commitBudgets(next []core.Budget) error {
	if err := s.persist(budgetsFile, storage.RecordsFromBudgets(next)); err != nil {
		return err
	}
	s.budgets = next
	return nil
}

// load decodes one record file into v and reports whether it held usable data.
func (s *Store) load(name string, v any) bool {
	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("Failed to read persisted record, using default", "file", path, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		slog.Warn("Corrupt persisted record, using default", "file", path, "error", err)
		return false
	}
	return true
}

// persist writes v atomically; it is a no-op for purely in-memory stores.
func (s *Store) persist(name string, v any) error {
	if s.dir == "" {
		return nil
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

func containsID(ids []core.AchievementID, id core.AchievementID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
