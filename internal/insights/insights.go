// Package insights turns engine outputs into short human-readable
// observations.
package insights

import (
	"fmt"

	"tesoretto/internal/analytics"
	"tesoretto/internal/budget"
	"tesoretto/internal/core"
	"tesoretto/internal/forecast"
)

type Kind string

const (
	Positive Kind = "positive"
	Warning  Kind = "warning"
	Info     Kind = "info"
)

// Category growth at or above this percentage is worth mentioning.
const growthAlert = 25

const maxGrowthInsights = 3

type (
	Insight struct {
		Kind    Kind   `json:"kind"`
		Title   string `json:"title"`
		Message string `json:"message"`
	}

	Input struct {
		HasEntries   bool
		Current      core.MonthlyData
		Growth       []analytics.CategoryGrowth
		Budgets      []budget.Status
		ExpenseTrend analytics.Direction
		Outlook      forecast.Outlook
	}
)

// Generate returns insights in a stable order: savings, category growth,
// budgets, trend, outlook.
func Generate(in Input) []Insight {
	if !in.HasEntries {
		return []Insight{{
			Kind:    Info,
			Title:   "Start tracking",
			Message: "Record your first income or expense to unlock insights.",
		}}
	}

	out := []Insight{}

	rate := analytics.SavingsRate(in.Current.TotalIncome, in.Current.TotalExpenses())
	switch {
	case in.Current.TotalIncome.Cents <= 0:
	case rate >= 20:
		out = append(out, Insight{Positive, "Great savings rate",
			fmt.Sprintf("You kept %d%% of your income this month.", rate)})
	case rate < 0:
		out = append(out, Insight{Warning, "Spending exceeds income",
			fmt.Sprintf("This month you spent %s more than you earned.",
				in.Current.TotalExpenses().Sub(in.Current.TotalIncome))})
	case rate < 10:
		out = append(out, Insight{Info, "Low savings rate",
			fmt.Sprintf("You are keeping %d%% of your income. Aim for at least 20%%.", rate)})
	}

	n := 0
	for _, g := range in.Growth {
		if n == maxGrowthInsights {
			break
		}
		if g.Previous.Cents <= 0 || g.GrowthPercent < growthAlert {
			continue
		}
		out = append(out, Insight{Warning, fmt.Sprintf("%s spending up", g.Category),
			fmt.Sprintf("%s is up %d%% compared to last month (%s vs %s).", g.Category, g.GrowthPercent, g.Current, g.Previous)})
		n++
	}

	for _, s := range in.Budgets {
		switch s.Tier {
		case budget.Red:
			out = append(out, Insight{Warning, fmt.Sprintf("%s budget", s.Category),
				fmt.Sprintf("You have used %.0f%% of your %s budget.", s.Percentage, s.Category)})
		case budget.Yellow:
			out = append(out, Insight{Info, fmt.Sprintf("%s budget", s.Category),
				fmt.Sprintf("%s is at %.0f%% of its budget with %s left.", s.Category, s.Percentage, s.Remaining)})
		}
	}

	switch in.ExpenseTrend {
	case analytics.Rising:
		out = append(out, Insight{Warning, "Spending is rising", "Your monthly spending has been going up."})
	case analytics.Falling:
		out = append(out, Insight{Positive, "Spending is falling", "Your monthly spending has been going down."})
	}

	switch in.Outlook.Direction {
	case forecast.Up:
		out = append(out, Insight{Info, "Next month",
			fmt.Sprintf("Spending is heading up; expect around %s next month.", in.Outlook.Projected)})
	case forecast.Down:
		out = append(out, Insight{Positive, "Next month",
			fmt.Sprintf("Spending is heading down; expect around %s next month.", in.Outlook.Projected)})
	}

	return out
}
