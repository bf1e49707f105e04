package insights

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tesoretto/internal/analytics"
	"tesoretto/internal/budget"
	"tesoretto/internal/core"
	"tesoretto/internal/forecast"
)

func TestGenerateWithoutEntries(t *testing.T) {
	got := Generate(Input{})
	require.Len(t, got, 1)
	assert.Equal(t, Info, got[0].Kind)
}

func TestGenerateOrderAndContent(t *testing.T) {
	in := Input{
		HasEntries: true,
		Current: core.MonthlyData{
			TotalIncome:    core.Money{Cents: 100000},
			TotalNeeds:     core.Money{Cents: 50000},
			TotalLifestyle: core.Money{Cents: 20000},
		},
		Growth: []analytics.CategoryGrowth{
			{Category: core.Shopping, Current: core.Money{Cents: 500}, GrowthPercent: 100},
			{Category: core.Dining, Current: core.Money{Cents: 15000}, Previous: core.Money{Cents: 10000}, GrowthPercent: 50},
			{Category: core.Rent, Current: core.Money{Cents: 1100}, Previous: core.Money{Cents: 1000}, GrowthPercent: 10},
		},
		Budgets: []budget.Status{
			{Category: core.Dining, Percentage: 95, Tier: budget.Red},
			{Category: core.Rent, Percentage: 50, Tier: budget.Green},
		},
		ExpenseTrend: analytics.Rising,
		Outlook:      forecast.Outlook{Direction: forecast.Steady},
	}

	got := Generate(in)
	require.Len(t, got, 4)
	assert.Equal(t, Insight{Positive, "Great savings rate", "You kept 30% of your income this month."}, got[0])
	assert.Equal(t, "Dining spending up", got[1].Title, "growth from zero is not an alert")
	assert.Contains(t, got[1].Message, "150.00 vs 100.00")
	assert.Equal(t, Warning, got[2].Kind)
	assert.Equal(t, "You have used 95% of your Dining budget.", got[2].Message)
	assert.Equal(t, "Spending is rising", got[3].Title)
}

func TestGenerateOverspending(t *testing.T) {
	got := Generate(Input{
		HasEntries: true,
		Current: core.MonthlyData{
			TotalIncome: core.Money{Cents: 1000},
			TotalNeeds:  core.Money{Cents: 1500},
		},
		Outlook: forecast.Outlook{Direction: forecast.Down, Projected: core.Money{Cents: 1200}},
	})
	require.Len(t, got, 2)
	assert.Equal(t, "This month you spent 5.00 more than you earned.", got[0].Message)
	assert.Equal(t, Positive, got[1].Kind)
	assert.Contains(t, got[1].Message, "12.00")
}
