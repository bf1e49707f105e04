package storage

import (
	"sort"
	"time"

	"tesoretto/internal/core"
)

// EntryRecord is the persisted entry shape. Records written before category
// groups existed carry only Priority; NormalizeEntry folds both into the
// canonical core.Entry so engines never see the legacy shape.
type EntryRecord struct {
	ID            string     `json:"id"`
	Amount        core.Money `json:"amount"`
	Type          string     `json:"type"`
	Category      string     `json:"category"`
	CategoryGroup string     `json:"categoryGroup,omitempty"`
	Priority      string     `json:"priority,omitempty"`
	Date          core.Date  `json:"date"`
	Note          string     `json:"note,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

type BudgetRecord struct {
	Category string     `json:"category"`
	Month    int        `json:"month"`
	Year     int        `json:"year"`
	Amount   core.Money `json:"amount"`
}

type MonthRecord struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

type StreakRecord struct {
	CurrentStreak        int       `json:"currentStreak"`
	LongestStreak        int       `json:"longestStreak"`
	LastEntryDate        core.Date `json:"lastEntryDate"`
	TotalDaysWithEntries int       `json:"totalDaysWithEntries"`
}

// NormalizeEntry converts a stored record into the canonical entry shape.
func NormalizeEntry(r EntryRecord) core.Entry {
	category := core.Category(r.Category)
	return core.Entry{
		ID:        r.ID,
		Amount:    r.Amount,
		Type:      core.EntryType(r.Type),
		Category:  category,
		Group:     core.ResolveGroup(core.CategoryGroup(r.CategoryGroup), core.Priority(r.Priority), category),
		Date:      r.Date,
		Note:      r.Note,
		CreatedAt: r.CreatedAt,
	}
}

// RecordFromEntry is the inverse used on write. Priority is never written.
func RecordFromEntry(e core.Entry) EntryRecord {
	return EntryRecord{
		ID:            e.ID,
		Amount:        e.Amount,
		Type:          string(e.Type),
		Category:      string(e.Category),
		CategoryGroup: string(e.Group),
		Date:          e.Date,
		Note:          e.Note,
		CreatedAt:     e.CreatedAt,
	}
}

func budgetFromRecord(r BudgetRecord) core.Budget {
	return core.Budget{
		Category: core.Category(r.Category),
		Year:     r.Year,
		Month:    time.Month(r.Month),
		Amount:   r.Amount,
	}
}

func recordFromBudget(b core.Budget) BudgetRecord {
	return BudgetRecord{
		Category: string(b.Category),
		Month:    int(b.Month),
		Year:     b.Year,
		Amount:   b.Amount,
	}
}

// BudgetsFromRecords converts persisted budget rows.
func BudgetsFromRecords(rs []BudgetRecord) []core.Budget {
	out := make([]core.Budget, 0, len(rs))
	for _, r := range rs {
		out = append(out, budgetFromRecord(r))
	}
	return out
}

// RecordsFromBudgets converts budgets for persistence.
func RecordsFromBudgets(bs []core.Budget) []BudgetRecord {
	out := make([]BudgetRecord, 0, len(bs))
	for _, b := range bs {
		out = append(out, recordFromBudget(b))
	}
	return out
}

func StreakFromRecord(r StreakRecord) core.Streak {
	return core.Streak{
		CurrentStreak:        r.CurrentStreak,
		LongestStreak:        r.LongestStreak,
		LastEntryDate:        r.LastEntryDate,
		TotalDaysWithEntries: r.TotalDaysWithEntries,
	}
}

func RecordFromStreak(s core.Streak) StreakRecord {
	return StreakRecord{
		CurrentStreak:        s.CurrentStreak,
		LongestStreak:        s.LongestStreak,
		LastEntryDate:        s.LastEntryDate,
		TotalDaysWithEntries: s.TotalDaysWithEntries,
	}
}

// FilterMonth returns the entries dated in the given month, newest first by
// CreatedAt.
func FilterMonth(entries []core.Entry, year int, month time.Month) []core.Entry {
	var out []core.Entry
	for _, e := range entries {
		if e.Date.InMonth(year, month) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
