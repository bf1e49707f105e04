// Package forecast projects income and spending from recent history.
package forecast

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"tesoretto/internal/analytics"
	"tesoretto/internal/core"
)

const DefaultMonths = 6

type Confidence string

const (
	Low    Confidence = "low"
	Medium Confidence = "medium"
	High   Confidence = "high"
)

type Direction string

const (
	Up     Direction = "up"
	Down   Direction = "down"
	Steady Direction = "stable"
)

type (
	Forecast struct {
		PredictedIncome   core.Money `json:"predictedIncome"`
		PredictedExpenses core.Money `json:"predictedExpenses"`
		PredictedSavings  core.Money `json:"predictedSavings"`
		Confidence        Confidence `json:"confidence"`
		MonthsAnalyzed    int        `json:"monthsAnalyzed"`
	}

	YearEnd struct {
		Year              int        `json:"year"`
		ActualIncome      core.Money `json:"actualIncome"`
		ActualExpenses    core.Money `json:"actualExpenses"`
		ProjectedIncome   core.Money `json:"projectedIncome"`
		ProjectedExpenses core.Money `json:"projectedExpenses"`
		ProjectedSavings  core.Money `json:"projectedSavings"`
		MonthsRemaining   int        `json:"monthsRemaining"`
	}

	Outlook struct {
		Direction     Direction  `json:"direction"`
		AverageChange core.Money `json:"averageChange"`
		Current       core.Money `json:"current"`
		Projected     core.Money `json:"projected"`
	}
)

// WeightedAverage weights values linearly by recency: index 0 is the most
// recent and gets weight len(values), the oldest gets 1. Empty input yields 0.
func WeightedAverage(values []int64) int64 {
	return int64(analytics.Round(weightedMean(values, 1)))
}

// predictedAmount is the weighted average of a cents series rounded to whole
// currency units.
func predictedAmount(cents []int64) core.Money {
	return core.Money{Cents: int64(analytics.Round(weightedMean(cents, 100))) * 100}
}

func weightedMean(values []int64, scale float64) float64 {
	if len(values) == 0 {
		return 0
	}
	x := make([]float64, len(values))
	w := make([]float64, len(values))
	for i, v := range values {
		x[i] = float64(v) / scale
		w[i] = float64(len(values) - i)
	}
	return stat.Mean(x, w)
}

// Predict looks at up to months full months before the month of now, keeping
// only months with income or spending, and projects the next month. Predicted
// amounts are whole currency units.
func Predict(entries []core.Entry, now time.Time, months int) Forecast {
	if months <= 0 {
		months = DefaultMonths
	}
	current := core.MonthOf(now)

	var incomes, expenses []int64
	for i := 1; i <= months; i++ {
		ym := current.AddMonths(-i)
		d := analytics.MonthlyData(entries, ym.Year, ym.Month)
		if d.TotalIncome.Cents <= 0 && d.TotalExpenses().Cents <= 0 {
			continue
		}
		incomes = append(incomes, d.TotalIncome.Cents)
		expenses = append(expenses, d.TotalExpenses().Cents)
	}

	f := Forecast{
		PredictedIncome:   predictedAmount(incomes),
		PredictedExpenses: predictedAmount(expenses),
		MonthsAnalyzed:    len(incomes),
	}
	f.PredictedSavings = f.PredictedIncome.Sub(f.PredictedExpenses)
	f.Confidence = confidence(expenses)
	return f
}

func confidence(expenses []int64) Confidence {
	switch {
	case len(expenses) < 2:
		return Low
	case len(expenses) < 4:
		return Medium
	}

	var positive []float64
	for _, v := range expenses {
		if v > 0 {
			positive = append(positive, float64(v))
		}
	}
	if len(positive) < 2 {
		return Low
	}
	mean, std := stat.PopMeanStdDev(positive, nil)
	if mean == 0 {
		return Low
	}
	switch cv := std / mean; {
	case cv < 0.2:
		return High
	case cv < 0.4:
		return Medium
	}
	return Low
}

// ProjectYearEnd adds the forecast for each month left in the year to the
// actuals from January through the month of now.
func ProjectYearEnd(entries []core.Entry, now time.Time, f Forecast) YearEnd {
	year := now.Year()
	out := YearEnd{Year: year, MonthsRemaining: 12 - int(now.Month())}
	for m := time.January; m <= now.Month(); m++ {
		d := analytics.MonthlyData(entries, year, m)
		out.ActualIncome = out.ActualIncome.Add(d.TotalIncome)
		out.ActualExpenses = out.ActualExpenses.Add(d.TotalExpenses())
	}
	remaining := int64(out.MonthsRemaining)
	out.ProjectedIncome = out.ActualIncome.Add(core.Money{Cents: f.PredictedIncome.Cents * remaining})
	out.ProjectedExpenses = out.ActualExpenses.Add(core.Money{Cents: f.PredictedExpenses.Cents * remaining})
	out.ProjectedSavings = out.ProjectedIncome.Sub(out.ProjectedExpenses)
	return out
}

// NextMonth averages the month-over-month change in spending across the
// month of now and the two before it. A change beyond 5% of the current
// month's spending sets the direction.
func NextMonth(entries []core.Entry, now time.Time) Outlook {
	series := analytics.MonthSeries(entries, now, 3)
	var deltas int64
	for i := 0; i+1 < len(series); i++ {
		deltas += series[i].TotalExpenses().Cents - series[i+1].TotalExpenses().Cents
	}
	avg := float64(deltas) / float64(len(series)-1)
	current := series[0].TotalExpenses()

	out := Outlook{
		Direction:     Steady,
		AverageChange: core.Money{Cents: int64(analytics.Round(avg))},
		Current:       current,
	}
	threshold := 0.05 * float64(current.Cents)
	switch {
	case avg > threshold:
		out.Direction = Up
	case avg < -threshold:
		out.Direction = Down
	}
	out.Projected = current.Add(out.AverageChange)
	if out.Projected.Cents < 0 {
		out.Projected = core.Money{}
	}
	return out
}
