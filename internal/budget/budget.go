// Package budget tracks per-category monthly spending caps, derives their
// usage tiers and carries budgets forward when the calendar month changes.
package budget

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"tesoretto/internal/core"
	"tesoretto/internal/storage"
)

type Tier string

const (
	Green  Tier = "green"
	Yellow Tier = "yellow"
	Red    Tier = "red"
)

type (
	// Status is the usage of one category's budget in one month.
	Status struct {
		Category   core.Category      `json:"category"`
		Group      core.CategoryGroup `json:"group"`
		Budget     core.Money         `json:"budget"`
		Spent      core.Money         `json:"spent"`
		Remaining  core.Money         `json:"remaining"`
		Percentage float64            `json:"percentage"`
		Tier       Tier               `json:"tier"`
	}

	Summary struct {
		TotalBudget core.Money `json:"totalBudget"`
		TotalSpent  core.Money `json:"totalSpent"`
		Remaining   core.Money `json:"remaining"`
		Percentage  float64    `json:"percentage"`
		Tier        Tier       `json:"tier"`
		Count       int        `json:"count"`
	}

	Report struct {
		Period   core.YearMonth `json:"-"`
		Statuses []Status       `json:"statuses"`
		Summary  Summary        `json:"summary"`
	}
)

// TierFor maps a usage percentage to its tier.
func TierFor(pct float64) Tier {
	switch {
	case pct >= 90:
		return Red
	case pct >= 70:
		return Yellow
	}
	return Green
}

// Statuses returns one row per budget set for the given month, in category
// table order. Categories without a budget produce no row.
func Statuses(budgets []core.Budget, entries []core.Entry, year int, month time.Month) []Status {
	spent := make(map[core.Category]int64)
	for _, e := range entries {
		if e.Type == core.Expense && e.Date.InMonth(year, month) {
			spent[e.Category] += e.Amount.Cents
		}
	}

	out := []Status{}
	for _, b := range budgets {
		if b.Year != year || b.Month != month || b.Amount.Cents <= 0 {
			continue
		}
		s := Status{
			Category: b.Category,
			Budget:   b.Amount,
			Spent:    core.Money{Cents: spent[b.Category]},
		}
		s.Group, _ = core.GroupOf(b.Category)
		s.Remaining = s.Budget.Sub(s.Spent)
		s.Percentage = 100 * float64(s.Spent.Cents) / float64(s.Budget.Cents)
		s.Tier = TierFor(s.Percentage)
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return categoryRank(out[i].Category) < categoryRank(out[j].Category)
	})
	return out
}

// Summarize totals the statuses. With no budgets the summary is all zeros
// and green.
func Summarize(statuses []Status) Summary {
	sum := Summary{Tier: Green, Count: len(statuses)}
	for _, s := range statuses {
		sum.TotalBudget = sum.TotalBudget.Add(s.Budget)
		sum.TotalSpent = sum.TotalSpent.Add(s.Spent)
	}
	sum.Remaining = sum.TotalBudget.Sub(sum.TotalSpent)
	if sum.TotalBudget.Cents > 0 {
		sum.Percentage = 100 * float64(sum.TotalSpent.Cents) / float64(sum.TotalBudget.Cents)
		sum.Tier = TierFor(sum.Percentage)
	}
	return sum
}

// BuildReport computes statuses and summary for one month.
func BuildReport(budgets []core.Budget, entries []core.Entry, ym core.YearMonth) Report {
	statuses := Statuses(budgets, entries, ym.Year, ym.Month)
	return Report{Period: ym, Statuses: statuses, Summary: Summarize(statuses)}
}

// ConsecutiveGreenMonths counts completed months, walking back from the month
// before now, that had at least one budget and a green summary.
func ConsecutiveGreenMonths(budgets []core.Budget, entries []core.Entry, now time.Time) int {
	if len(budgets) == 0 {
		return 0
	}
	oldest := budgets[0].Period()
	for _, b := range budgets[1:] {
		if b.Period().Before(oldest) {
			oldest = b.Period()
		}
	}

	count := 0
	for ym := core.MonthOf(now).AddMonths(-1); !ym.Before(oldest); ym = ym.AddMonths(-1) {
		statuses := Statuses(budgets, entries, ym.Year, ym.Month)
		if len(statuses) == 0 || Summarize(statuses).Tier != Green {
			break
		}
		count++
	}
	return count
}

// Engine owns budget mutation and the month rollover.
type Engine struct {
	store storage.BudgetStore
	mu    sync.Mutex
}

func NewEngine(store storage.BudgetStore) *Engine {
	return &Engine{store: store}
}

// Set creates or updates the budget for category in the given month.
func (e *Engine) Set(ctx context.Context, category core.Category, year int, month time.Month, amount core.Money) (core.Budget, error) {
	b := core.Budget{Category: category, Year: year, Month: month, Amount: amount}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if err := e.store.UpsertBudget(ctx, b); err != nil {
		return core.Budget{}, fmt.Errorf("set budget: %w", err)
	}
	slog.InfoContext(ctx, "Budget set",
		"category", category,
		"period", b.Period().String(),
		"amount_cents", amount.Cents)
	return b, nil
}

// Remove deletes one budget row. Missing rows yield storage.ErrNotFound.
func (e *Engine) Remove(ctx context.Context, category core.Category, year int, month time.Month) error {
	if err := e.store.DeleteBudget(ctx, category, year, month); err != nil {
		return fmt.Errorf("remove budget: %w", err)
	}
	return nil
}

// List returns every budget row after applying any pending rollover.
func (e *Engine) List(ctx context.Context, now time.Time) ([]core.Budget, error) {
	if err := e.Rollover(ctx, now); err != nil {
		return nil, err
	}
	budgets, err := e.store.ListBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return budgets, nil
}

// Rollover carries budgets into the month of now the first time it runs after
// the month changes. Rows from the most recent tracked month not after the
// stored marker are copied for categories the new month does not have yet.
// Old rows are never removed.
func (e *Engine) Rollover(ctx context.Context, now time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	current := core.MonthOf(now)
	marker, err := e.store.BudgetMonth(ctx)
	if err != nil {
		return fmt.Errorf("read budget month: %w", err)
	}
	if !marker.IsZero() && !marker.Before(current) {
		return nil
	}
	if marker.IsZero() {
		return e.advance(ctx, current)
	}

	budgets, err := e.store.ListBudgets(ctx)
	if err != nil {
		return fmt.Errorf("list budgets: %w", err)
	}

	var source core.YearMonth
	have := make(map[core.Category]bool)
	for _, b := range budgets {
		p := b.Period()
		if p == current {
			have[b.Category] = true
		}
		if !marker.Before(p) && source.Before(p) {
			source = p
		}
	}

	copied := 0
	if !source.IsZero() {
		for _, b := range budgets {
			if b.Period() != source || have[b.Category] {
				continue
			}
			carried := core.Budget{Category: b.Category, Year: current.Year, Month: current.Month, Amount: b.Amount}
			if err := e.store.UpsertBudget(ctx, carried); err != nil {
				return fmt.Errorf("carry budget %s: %w", b.Category, err)
			}
			have[b.Category] = true
			copied++
		}
	}

	slog.InfoContext(ctx, "Budgets rolled over",
		"from", source.String(),
		"to", current.String(),
		"copied", copied)
	return e.advance(ctx, current)
}

// Report loads budgets (rolling over if needed) and builds the report for the
// month of now.
func (e *Engine) Report(ctx context.Context, entries []core.Entry, now time.Time) (Report, error) {
	budgets, err := e.List(ctx, now)
	if err != nil {
		return Report{}, err
	}
	return BuildReport(budgets, entries, core.MonthOf(now)), nil
}

func (e *Engine) advance(ctx context.Context, ym core.YearMonth) error {
	if err := e.store.SetBudgetMonth(ctx, ym); err != nil {
		return fmt.Errorf("update budget month: %w", err)
	}
	return nil
}

func categoryRank(c core.Category) int {
	for i, known := range core.Categories() {
		if known == c {
			return i
		}
	}
	return len(core.Categories())
}
