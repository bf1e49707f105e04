package analytics

import (
	"sort"
	"time"

	"tesoretto/internal/core"
)

type Direction string

const (
	Rising    Direction = "rising"
	Falling   Direction = "falling"
	Improving Direction = "improving"
	Declining Direction = "declining"
	Stable    Direction = "stable"
)

type (
	TrendPoint struct {
		Period core.YearMonth `json:"-"`
		Label  string         `json:"period"`
		Value  int64          `json:"value"`
	}

	// TrendReport carries the classified direction and the series it was
	// derived from, newest month first.
	TrendReport struct {
		Direction Direction    `json:"direction"`
		Series    []TrendPoint `json:"series"`
	}

	CategoryGrowth struct {
		Category      core.Category `json:"category"`
		Current       core.Money    `json:"current"`
		Previous      core.Money    `json:"previous"`
		GrowthPercent int           `json:"growthPercent"`
	}
)

// ExpenseTrend classifies total spending over the last window months,
// including the current partial month.
func ExpenseTrend(entries []core.Entry, now time.Time, window int) TrendReport {
	series := MonthSeries(entries, now, clampWindow(window))
	points := make([]TrendPoint, len(series))
	for i, d := range series {
		points[i] = newPoint(d.Period(), d.TotalExpenses().Cents)
	}
	return TrendReport{Direction: vote(points, Rising, Falling), Series: points}
}

// SavingsTrend applies the same vote to the monthly savings rate.
func SavingsTrend(entries []core.Entry, now time.Time, window int) TrendReport {
	series := MonthSeries(entries, now, clampWindow(window))
	points := make([]TrendPoint, len(series))
	for i, d := range series {
		points[i] = newPoint(d.Period(), int64(SavingsRate(d.TotalIncome, d.TotalExpenses())))
	}
	return TrendReport{Direction: vote(points, Improving, Declining), Series: points}
}

// vote walks the newest-first series and counts strict rises and falls
// between adjacent months. A direction wins with at least ceil(n/2) votes.
func vote(points []TrendPoint, up, down Direction) Direction {
	n := len(points)
	if n < 2 {
		return Stable
	}
	var rises, falls int
	for i := 0; i+1 < n; i++ {
		newer, older := points[i].Value, points[i+1].Value
		switch {
		case newer > older:
			rises++
		case newer < older:
			falls++
		}
	}
	threshold := (n + 1) / 2
	switch {
	case rises >= threshold:
		return up
	case falls >= threshold:
		return down
	}
	return Stable
}

// GrowthByCategory compares each category's spending in the month of now with
// the previous month. Categories with no spending in either month are omitted.
func GrowthByCategory(entries []core.Entry, now time.Time) []CategoryGrowth {
	current := core.MonthOf(now)
	previous := current.AddMonths(-1)

	byCategory := make(map[core.Category]*CategoryGrowth)
	for _, e := range entries {
		if e.Type != core.Expense {
			continue
		}
		var isCurrent bool
		switch {
		case e.Date.InMonth(current.Year, current.Month):
			isCurrent = true
		case e.Date.InMonth(previous.Year, previous.Month):
		default:
			continue
		}
		g, ok := byCategory[e.Category]
		if !ok {
			g = &CategoryGrowth{Category: e.Category}
			byCategory[e.Category] = g
		}
		if isCurrent {
			g.Current = g.Current.Add(e.Amount)
		} else {
			g.Previous = g.Previous.Add(e.Amount)
		}
	}

	out := make([]CategoryGrowth, 0, len(byCategory))
	for _, g := range byCategory {
		if g.Current.IsZero() && g.Previous.IsZero() {
			continue
		}
		g.GrowthPercent = ExpenseGrowth(g.Current, g.Previous)
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].GrowthPercent != out[j].GrowthPercent {
			return out[i].GrowthPercent > out[j].GrowthPercent
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// SavingsRate is round(100*(income-expenses)/income), 0 when there is no
// income. It goes negative when spending exceeds income.
func SavingsRate(income, expenses core.Money) int {
	if income.Cents <= 0 {
		return 0
	}
	return Percent(income.Cents-expenses.Cents, income.Cents)
}

// ExpenseGrowth is the percentage change from previous to current. Growth
// from nothing is reported as exactly 100.
func ExpenseGrowth(current, previous core.Money) int {
	if previous.Cents == 0 {
		if current.Cents > 0 {
			return 100
		}
		return 0
	}
	return Percent(current.Cents-previous.Cents, previous.Cents)
}

// MonthlyBurnRate extrapolates spending so far to the whole month.
func MonthlyBurnRate(expenses core.Money, daysInMonth, daysPassed int) core.Money {
	if daysPassed <= 0 {
		return core.Money{}
	}
	perDay := float64(expenses.Cents) / float64(daysPassed)
	return core.Money{Cents: int64(Round(perDay * float64(daysInMonth)))}
}

// SixMonthAverage averages total expenses over the month of now and the five
// before it, counting only months that had spending.
func SixMonthAverage(entries []core.Entry, now time.Time) core.Money {
	var sum int64
	var months int
	for _, d := range MonthSeries(entries, now, 6) {
		if spent := d.TotalExpenses().Cents; spent > 0 {
			sum += spent
			months++
		}
	}
	if months == 0 {
		return core.Money{}
	}
	return core.Money{Cents: int64(Round(float64(sum) / float64(months)))}
}

func newPoint(ym core.YearMonth, v int64) TrendPoint {
	return TrendPoint{Period: ym, Label: ym.String(), Value: v}
}

func clampWindow(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
