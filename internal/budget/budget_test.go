package budget

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tesoretto/internal/core"
	"tesoretto/internal/storage"
	"tesoretto/internal/storage/memory"
)

func spend(cat core.Category, cents int64, y int, m time.Month) core.Entry {
	g, _ := core.GroupOf(cat)
	return core.Entry{Type: core.Expense, Category: cat, Group: g, Amount: core.Money{Cents: cents}, Date: core.NewDate(y, m, 15)}
}

func TestTierBoundaries(t *testing.T) {
	tests := []struct {
		pct  float64
		want Tier
	}{
		{0, Green},
		{69.9, Green},
		{70, Yellow},
		{89.9, Yellow},
		{90, Red},
		{150, Red},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TierFor(tt.pct), "pct=%v", tt.pct)
	}
}

func TestStatusesOnlyBudgetedCategories(t *testing.T) {
	budgets := []core.Budget{
		{Category: core.Dining, Year: 2025, Month: time.March, Amount: core.Money{Cents: 10000}},
		{Category: core.Rent, Year: 2025, Month: time.March, Amount: core.Money{Cents: 100000}},
		{Category: core.Rent, Year: 2025, Month: time.February, Amount: core.Money{Cents: 1}},
	}
	entries := []core.Entry{
		spend(core.Dining, 9500, 2025, time.March),
		spend(core.Rent, 50000, 2025, time.March),
		spend(core.Travel, 70000, 2025, time.March),
	}

	statuses := Statuses(budgets, entries, 2025, time.March)
	require.Len(t, statuses, 2)
	assert.Equal(t, core.Rent, statuses[0].Category)
	assert.Equal(t, Green, statuses[0].Tier)
	assert.Equal(t, core.Dining, statuses[1].Category)
	assert.Equal(t, Red, statuses[1].Tier)
	assert.InDelta(t, 95.0, statuses[1].Percentage, 0.001)
	assert.Equal(t, int64(500), statuses[1].Remaining.Cents)

	sum := Summarize(statuses)
	assert.Equal(t, int64(110000), sum.TotalBudget.Cents)
	assert.Equal(t, int64(59500), sum.TotalSpent.Cents)
	assert.Equal(t, Green, sum.Tier)
	assert.Equal(t, 2, sum.Count)
}

func TestSummarizeWithoutBudgets(t *testing.T) {
	sum := Summarize(nil)
	assert.Equal(t, Summary{Tier: Green}, sum)
}

func TestEngineSetValidatesAndUpdatesInPlace(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	engine := NewEngine(store)

	_, err := engine.Set(ctx, core.Dining, 2025, time.March, core.Money{})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
	_, err = engine.Set(ctx, "Lottery", 2025, time.March, core.Money{Cents: 100})
	assert.ErrorIs(t, err, core.ErrInvalidCategory)

	_, err = engine.Set(ctx, core.Dining, 2025, time.March, core.Money{Cents: 100})
	require.NoError(t, err)
	_, err = engine.Set(ctx, core.Dining, 2025, time.March, core.Money{Cents: 300})
	require.NoError(t, err)

	rows, _ := store.ListBudgets(ctx)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(300), rows[0].Amount.Cents)

	err = engine.Remove(ctx, core.Dining, 2025, time.April)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestRolloverCarriesLastTrackedMonthOnce(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	engine := NewEngine(store)

	jan := time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC)
	_, err := engine.List(ctx, jan)
	require.NoError(t, err)
	marker, _ := store.BudgetMonth(ctx)
	assert.Equal(t, core.YearMonth{Year: 2025, Month: time.January}, marker)

	_, _ = engine.Set(ctx, core.Rent, 2025, time.January, core.Money{Cents: 90000})
	_, _ = engine.Set(ctx, core.Dining, 2025, time.January, core.Money{Cents: 20000})

	// Skip February entirely; March is the first read after the change.
	mar := time.Date(2025, time.March, 2, 0, 0, 0, 0, time.UTC)
	_, _ = engine.Set(ctx, core.Dining, 2025, time.March, core.Money{Cents: 25000})
	budgets, err := engine.List(ctx, mar)
	require.NoError(t, err)

	march := filter(budgets, 2025, time.March)
	require.Len(t, march, 2)
	assert.Equal(t, int64(25000), amountOf(march, core.Dining), "existing row for the new month wins")
	assert.Equal(t, int64(90000), amountOf(march, core.Rent))
	assert.Len(t, filter(budgets, 2025, time.January), 2, "history is kept")

	marker, _ = store.BudgetMonth(ctx)
	assert.Equal(t, core.YearMonth{Year: 2025, Month: time.March}, marker)

	// A removed carried row is not recreated by a later read in the same month.
	require.NoError(t, engine.Remove(ctx, core.Rent, 2025, time.March))
	budgets, _ = engine.List(ctx, mar.AddDate(0, 0, 10))
	assert.Len(t, filter(budgets, 2025, time.March), 1)
}

func TestReportForCurrentMonth(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	engine := NewEngine(store)
	now := time.Date(2025, time.June, 20, 0, 0, 0, 0, time.UTC)

	report, err := engine.Report(ctx, nil, now)
	require.NoError(t, err)
	assert.Empty(t, report.Statuses)
	assert.Equal(t, Green, report.Summary.Tier)

	_, _ = engine.Set(ctx, core.Groceries, 2025, time.June, core.Money{Cents: 1000})
	report, err = engine.Report(ctx, []core.Entry{spend(core.Groceries, 750, 2025, time.June)}, now)
	require.NoError(t, err)
	require.Len(t, report.Statuses, 1)
	assert.Equal(t, Yellow, report.Statuses[0].Tier)
}

func TestConsecutiveGreenMonths(t *testing.T) {
	now := time.Date(2025, time.May, 3, 0, 0, 0, 0, time.UTC)
	var budgets []core.Budget
	for m := time.January; m <= time.May; m++ {
		budgets = append(budgets, core.Budget{Category: core.Dining, Year: 2025, Month: m, Amount: core.Money{Cents: 1000}})
	}
	entries := []core.Entry{
		spend(core.Dining, 950, 2025, time.January),
		spend(core.Dining, 100, 2025, time.February),
		spend(core.Dining, 100, 2025, time.March),
		spend(core.Dining, 100, 2025, time.April),
		spend(core.Dining, 5000, 2025, time.May),
	}
	assert.Equal(t, 3, ConsecutiveGreenMonths(budgets, entries, now))
	assert.Equal(t, 0, ConsecutiveGreenMonths(nil, entries, now))
}

func filter(budgets []core.Budget, y int, m time.Month) []core.Budget {
	var out []core.Budget
	for _, b := range budgets {
		if b.Year == y && b.Month == m {
			out = append(out, b)
		}
	}
	return out
}

func amountOf(budgets []core.Budget, c core.Category) int64 {
	for _, b := range budgets {
		if b.Category == c {
			return b.Amount.Cents
		}
	}
	return -1
}
