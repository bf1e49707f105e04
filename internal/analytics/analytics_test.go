package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tesoretto/internal/core"
)

func expense(cat core.Category, cents int64, y int, m time.Month, d int) core.Entry {
	g, _ := core.GroupOf(cat)
	return core.Entry{Type: core.Expense, Category: cat, Group: g, Amount: core.Money{Cents: cents}, Date: core.NewDate(y, m, d)}
}

func income(cents int64, y int, m time.Month, d int) core.Entry {
	return core.Entry{Type: core.Income, Amount: core.Money{Cents: cents}, Date: core.NewDate(y, m, d)}
}

func TestMonthlyDataBalanceAndGroups(t *testing.T) {
	entries := []core.Entry{
		income(300000, 2025, time.March, 1),
		expense(core.Rent, 100000, 2025, time.March, 2),
		expense(core.Dining, 20000, 2025, time.March, 3),
		expense(core.Investments, 50000, 2025, time.March, 4),
		expense(core.Dining, 999, 2025, time.April, 1),
		{Type: core.Expense, Category: "Mystery", Group: "luxury", Amount: core.Money{Cents: 700}, Date: core.NewDate(2025, time.March, 5)},
	}

	d := MonthlyData(entries, 2025, time.March)
	assert.Equal(t, int64(300000), d.TotalIncome.Cents)
	assert.Equal(t, int64(100000), d.TotalNeeds.Cents)
	assert.Equal(t, int64(20000), d.TotalLifestyle.Cents)
	assert.Equal(t, int64(50000), d.TotalSavings.Cents)
	assert.Equal(t, int64(700), d.Unclassified.Cents)
	assert.Equal(t, 5, d.EntryCount)
	assert.Equal(t, d.TotalIncome.Cents-d.TotalNeeds.Cents-d.TotalLifestyle.Cents-d.TotalSavings.Cents, d.Balance.Cents)
	assert.Equal(t, int64(120000), d.TotalExpenses().Cents)

	assert.Equal(t, d, MonthlyData(entries, 2025, time.March), "aggregation must be idempotent")

	empty := MonthlyData(entries, 1999, time.December)
	assert.False(t, empty.HasActivity())
	assert.Zero(t, empty.Balance.Cents)
}

func TestSavingsOnlyMonthIsNotActivity(t *testing.T) {
	savingsOnly := MonthlyData([]core.Entry{expense(core.Investments, 30000, 2025, time.May, 3)}, 2025, time.May)
	assert.Equal(t, int64(30000), savingsOnly.TotalSavings.Cents)
	assert.False(t, savingsOnly.HasActivity())

	spending := MonthlyData([]core.Entry{expense(core.Rent, 100, 2025, time.May, 3)}, 2025, time.May)
	assert.True(t, spending.HasActivity())
}

func TestLiveCategoryBreakdown(t *testing.T) {
	entries := []core.Entry{
		expense(core.Groceries, 3000, 2025, time.May, 1),
		expense(core.Dining, 1000, 2025, time.May, 2),
		expense(core.Groceries, 3000, 2025, time.May, 3),
		expense(core.Travel, 2000, 2025, time.May, 4),
		income(50000, 2025, time.May, 1),
	}

	got := LiveCategoryBreakdown(entries, 2025, time.May)
	require.Len(t, got, 3)
	assert.Equal(t, core.Groceries, got[0].Category)
	assert.Equal(t, 67, got[0].Percentage)
	assert.Equal(t, core.Travel, got[1].Category)
	assert.Equal(t, 22, got[1].Percentage)
	assert.Equal(t, 11, got[2].Percentage)

	assert.Empty(t, LiveCategoryBreakdown(entries, 2025, time.June))

	groups := CategoryGroupData(entries, 2025, time.May)
	require.Len(t, groups, 3)
	assert.Equal(t, core.Needs, groups[0].Group)
	assert.Equal(t, int64(6000), groups[0].Amount.Cents)
	assert.Equal(t, int64(3000), groups[1].Amount.Cents)
	assert.Zero(t, groups[2].Amount.Cents)
}

func TestSavingsRate(t *testing.T) {
	assert.Equal(t, 0, SavingsRate(core.Money{}, core.Money{Cents: 500}))
	assert.Equal(t, 0, SavingsRate(core.Money{Cents: -100}, core.Money{}))
	assert.Equal(t, 100, SavingsRate(core.Money{Cents: 100000}, core.Money{}))
	assert.Equal(t, 25, SavingsRate(core.Money{Cents: 100000}, core.Money{Cents: 75000}))
	assert.Equal(t, -50, SavingsRate(core.Money{Cents: 100000}, core.Money{Cents: 150000}))
}

func TestExpenseGrowthAndBurnRate(t *testing.T) {
	assert.Equal(t, 100, ExpenseGrowth(core.Money{Cents: 500}, core.Money{}))
	assert.Equal(t, 0, ExpenseGrowth(core.Money{}, core.Money{}))
	assert.Equal(t, 50, ExpenseGrowth(core.Money{Cents: 750}, core.Money{Cents: 500}))
	assert.Equal(t, -100, ExpenseGrowth(core.Money{}, core.Money{Cents: 500}))

	assert.Zero(t, MonthlyBurnRate(core.Money{Cents: 1000}, 30, 0).Cents)
	assert.Equal(t, int64(3000), MonthlyBurnRate(core.Money{Cents: 1000}, 30, 10).Cents)
	assert.Equal(t, int64(3100), MonthlyBurnRate(core.Money{Cents: 1000}, 31, 10).Cents)
}

func TestCategoryGrowth(t *testing.T) {
	now := time.Date(2025, time.February, 14, 12, 0, 0, 0, time.UTC)
	entries := []core.Entry{
		expense(core.Shopping, 500, 2025, time.February, 1),
		expense(core.Dining, 500, 2025, time.January, 10),
		expense(core.Dining, 750, 2025, time.February, 3),
		expense(core.Travel, 400, 2025, time.January, 20),
		expense(core.Rent, 1000, 2024, time.December, 1),
	}

	got := GrowthByCategory(entries, now)
	require.Len(t, got, 3)
	assert.Equal(t, CategoryGrowth{Category: core.Shopping, Current: core.Money{Cents: 500}, GrowthPercent: 100}, got[0])
	assert.Equal(t, core.Dining, got[1].Category)
	assert.Equal(t, 50, got[1].GrowthPercent)
	assert.Equal(t, core.Travel, got[2].Category)
	assert.Equal(t, -100, got[2].GrowthPercent)
}

func TestExpenseTrendMajorityVote(t *testing.T) {
	now := time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)
	rising := []core.Entry{
		expense(core.Groceries, 100, 2025, time.April, 1),
		expense(core.Groceries, 200, 2025, time.May, 1),
		expense(core.Groceries, 300, 2025, time.June, 1),
	}
	report := ExpenseTrend(rising, now, 3)
	assert.Equal(t, Rising, report.Direction)
	require.Len(t, report.Series, 3)
	assert.Equal(t, "2025-06", report.Series[0].Label)
	assert.Equal(t, int64(300), report.Series[0].Value)

	falling := []core.Entry{
		expense(core.Groceries, 300, 2025, time.April, 1),
		expense(core.Groceries, 200, 2025, time.May, 1),
		expense(core.Groceries, 100, 2025, time.June, 1),
	}
	assert.Equal(t, Falling, ExpenseTrend(falling, now, 3).Direction)

	mixed := []core.Entry{
		expense(core.Groceries, 100, 2025, time.April, 1),
		expense(core.Groceries, 300, 2025, time.May, 1),
		expense(core.Groceries, 200, 2025, time.June, 1),
	}
	assert.Equal(t, Stable, ExpenseTrend(mixed, now, 3).Direction)
	assert.Equal(t, Stable, ExpenseTrend(rising, now, 1).Direction)
	assert.Equal(t, Stable, ExpenseTrend(nil, now, 6).Direction)
}

func TestSavingsTrend(t *testing.T) {
	now := time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)
	entries := []core.Entry{
		income(1000, 2025, time.April, 1),
		expense(core.Dining, 900, 2025, time.April, 2),
		income(1000, 2025, time.May, 1),
		expense(core.Dining, 600, 2025, time.May, 2),
		income(1000, 2025, time.June, 1),
		expense(core.Dining, 300, 2025, time.June, 2),
	}
	report := SavingsTrend(entries, now, 3)
	assert.Equal(t, Improving, report.Direction)
	assert.Equal(t, int64(70), report.Series[0].Value)
}

func TestSixMonthAverageSkipsEmptyMonths(t *testing.T) {
	now := time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)
	entries := []core.Entry{
		expense(core.Rent, 1000, 2025, time.June, 1),
		expense(core.Rent, 2000, 2025, time.March, 1),
		expense(core.Rent, 9999, 2024, time.December, 1),
	}
	assert.Equal(t, int64(1500), SixMonthAverage(entries, now).Cents)
	assert.Zero(t, SixMonthAverage(nil, now).Cents)
}

func TestRoundHalfUp(t *testing.T) {
	assert.Equal(t, 13, Round(12.5))
	assert.Equal(t, -12, Round(-12.5))
	assert.Equal(t, 0, Percent(5, 0))
}
