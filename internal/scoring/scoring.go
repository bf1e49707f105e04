// Package scoring combines savings, budget adherence, spending stability and
// tracking consistency into a single 0-100 financial health score.
package scoring

import (
	"fmt"
	"strings"
	"time"

	"tesoretto/internal/analytics"
	"tesoretto/internal/budget"
	"tesoretto/internal/core"
)

const (
	weightSavings     = 0.40
	weightBudget      = 0.30
	weightStability   = 0.20
	weightConsistency = 0.10

	consistencyWindow = 6

	strongThreshold = 70
	weakThreshold   = 50
)

type Rating string

const (
	Excellent Rating = "Excellent"
	Good      Rating = "Good"
	Average   Rating = "Average"
	Poor      Rating = "Poor"
)

type (
	// Input is everything the score depends on.
	Input struct {
		SavingsRate   int
		HasBudgets    bool
		BudgetUsage   float64
		ExpenseGrowth int
		ActiveMonths  int
	}

	Breakdown struct {
		Savings     int `json:"savings"`
		Budget      int `json:"budget"`
		Stability   int `json:"stability"`
		Consistency int `json:"consistency"`
	}

	Score struct {
		Total       int       `json:"score"`
		Rating      Rating    `json:"rating"`
		Explanation string    `json:"explanation"`
		Breakdown   Breakdown `json:"breakdown"`
	}
)

// SavingsScore ramps linearly from 0 at a 0% savings rate to 100 at 30%.
func SavingsScore(rate int) int {
	switch {
	case rate <= 0:
		return 0
	case rate >= 30:
		return 100
	}
	return analytics.Round(float64(rate) / 30 * 100)
}

// BudgetScore is neutral without budgets, otherwise a step on overall usage.
func BudgetScore(hasBudgets bool, usage float64) int {
	if !hasBudgets {
		return 50
	}
	switch {
	case usage <= 70:
		return 100
	case usage <= 85:
		return 80
	case usage <= 100:
		return 60
	case usage <= 120:
		return 30
	}
	return 0
}

// StabilityScore rewards small month-over-month changes in spending in
// either direction.
func StabilityScore(growth int) int {
	if growth < 0 {
		growth = -growth
	}
	switch {
	case growth <= 5:
		return 100
	case growth <= 10:
		return 85
	case growth <= 20:
		return 70
	case growth <= 30:
		return 50
	case growth <= 50:
		return 30
	}
	return 10
}

// ConsistencyScore is the share of the last six months with any activity.
func ConsistencyScore(activeMonths int) int {
	if activeMonths < 0 {
		activeMonths = 0
	}
	if activeMonths > consistencyWindow {
		activeMonths = consistencyWindow
	}
	return analytics.Round(100 * float64(activeMonths) / consistencyWindow)
}

func RatingFor(score int) Rating {
	switch {
	case score >= 80:
		return Excellent
	case score >= 60:
		return Good
	case score >= 40:
		return Average
	}
	return Poor
}

// Compute is the pure scoring function.
func Compute(in Input) Score {
	b := Breakdown{
		Savings:     SavingsScore(in.SavingsRate),
		Budget:      BudgetScore(in.HasBudgets, in.BudgetUsage),
		Stability:   StabilityScore(in.ExpenseGrowth),
		Consistency: ConsistencyScore(in.ActiveMonths),
	}
	total := analytics.Round(weightSavings*float64(b.Savings) +
		weightBudget*float64(b.Budget) +
		weightStability*float64(b.Stability) +
		weightConsistency*float64(b.Consistency))

	rating := RatingFor(total)
	return Score{
		Total:       total,
		Rating:      rating,
		Explanation: explain(rating, b),
		Breakdown:   b,
	}
}

// Evaluate gathers the score input for the month of now.
func Evaluate(entries []core.Entry, summary budget.Summary, now time.Time) Score {
	series := analytics.MonthSeries(entries, now, consistencyWindow)
	current, previous := series[0], series[1]

	active := 0
	for _, d := range series {
		if d.HasActivity() {
			active++
		}
	}

	return Compute(Input{
		SavingsRate:   analytics.SavingsRate(current.TotalIncome, current.TotalExpenses()),
		HasBudgets:    summary.Count > 0,
		BudgetUsage:   summary.Percentage,
		ExpenseGrowth: analytics.ExpenseGrowth(current.TotalExpenses(), previous.TotalExpenses()),
		ActiveMonths:  active,
	})
}

type area struct {
	name  string
	score int
}

func explain(rating Rating, b Breakdown) string {
	areas := []area{
		{"savings", b.Savings},
		{"budget adherence", b.Budget},
		{"spending stability", b.Stability},
		{"tracking consistency", b.Consistency},
	}
	var strong, weak []string
	for _, a := range areas {
		switch {
		case a.score >= strongThreshold:
			strong = append(strong, a.name)
		case a.score < weakThreshold:
			weak = append(weak, a.name)
		}
	}

	switch rating {
	case Excellent:
		if len(strong) > 0 {
			return fmt.Sprintf("Excellent financial health. You are doing great on %s.", joinAreas(strong))
		}
		return "Excellent financial health. Keep it up."
	case Good:
		msg := "Good financial health."
		if len(strong) > 0 {
			msg += fmt.Sprintf(" Strong %s.", joinAreas(strong))
		}
		if len(weak) > 0 {
			msg += fmt.Sprintf(" There is room to improve %s.", joinAreas(weak))
		}
		return msg
	case Average:
		if len(weak) > 0 {
			return fmt.Sprintf("Average financial health. Focus on %s to move up.", joinAreas(weak))
		}
		return "Average financial health. Small steady improvements will add up."
	}
	if len(weak) > 0 {
		return fmt.Sprintf("Your finances need attention. Start with %s.", joinAreas(weak))
	}
	return "Your finances need attention. Record entries regularly to get better insight."
}

func joinAreas(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
}
