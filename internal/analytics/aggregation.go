// Package analytics turns a snapshot of entries into monthly aggregates,
// category breakdowns and period-over-period trends. Every function is pure:
// callers load entries once and pass the current time explicitly.
package analytics

import (
	"math"
	"sort"
	"time"

	"tesoretto/internal/core"
)

type (
	// GroupTotal is the expense total of one category group.
	GroupTotal struct {
		Group  core.CategoryGroup `json:"group"`
		Amount core.Money         `json:"amount"`
	}

	// CategoryShare is one leaf category's share of a month's expenses.
	CategoryShare struct {
		Category   core.Category      `json:"category"`
		Group      core.CategoryGroup `json:"group"`
		Amount     core.Money         `json:"amount"`
		Percentage int                `json:"percentage"`
	}
)

// MonthlyData sums the entries dated in the given month. Expenses whose group
// is not one of the three known groups count toward EntryCount and
// Unclassified only.
func MonthlyData(entries []core.Entry, year int, month time.Month) core.MonthlyData {
	data := core.MonthlyData{Year: year, Month: month}
	for _, e := range entries {
		if !e.Date.InMonth(year, month) {
			continue
		}
		data.EntryCount++
		switch e.Type {
		case core.Income:
			data.TotalIncome = data.TotalIncome.Add(e.Amount)
		case core.Expense:
			switch e.Group {
			case core.Needs:
				data.TotalNeeds = data.TotalNeeds.Add(e.Amount)
			case core.Lifestyle:
				data.TotalLifestyle = data.TotalLifestyle.Add(e.Amount)
			case core.Savings:
				data.TotalSavings = data.TotalSavings.Add(e.Amount)
			default:
				data.Unclassified = data.Unclassified.Add(e.Amount)
			}
		}
	}
	data.Balance = data.TotalIncome.
		Sub(data.TotalNeeds).
		Sub(data.TotalLifestyle).
		Sub(data.TotalSavings)
	return data
}

// CategoryGroupData returns the month's expense totals per group in the fixed
// order needs, lifestyle, savings.
func CategoryGroupData(entries []core.Entry, year int, month time.Month) []GroupTotal {
	d := MonthlyData(entries, year, month)
	return []GroupTotal{
		{Group: core.Needs, Amount: d.TotalNeeds},
		{Group: core.Lifestyle, Amount: d.TotalLifestyle},
		{Group: core.Savings, Amount: d.TotalSavings},
	}
}

// LiveCategoryBreakdown returns per-category expense totals for the month,
// largest first.
func LiveCategoryBreakdown(entries []core.Entry, year int, month time.Month) []CategoryShare {
	byCategory := make(map[core.Category]*CategoryShare)
	var total int64
	for _, e := range entries {
		if e.Type != core.Expense || !e.Date.InMonth(year, month) {
			continue
		}
		share, ok := byCategory[e.Category]
		if !ok {
			share = &CategoryShare{Category: e.Category, Group: e.Group}
			byCategory[e.Category] = share
		}
		share.Amount = share.Amount.Add(e.Amount)
		total += e.Amount.Cents
	}

	out := make([]CategoryShare, 0, len(byCategory))
	for _, share := range byCategory {
		share.Percentage = Percent(share.Amount.Cents, total)
		out = append(out, *share)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// MonthSeries returns MonthlyData for n months ending at the month of now,
// newest first.
func MonthSeries(entries []core.Entry, now time.Time, n int) []core.MonthlyData {
	current := core.MonthOf(now)
	out := make([]core.MonthlyData, 0, n)
	for i := 0; i < n; i++ {
		ym := current.AddMonths(-i)
		out = append(out, MonthlyData(entries, ym.Year, ym.Month))
	}
	return out
}

// Round rounds half up, so -12.5 becomes -12 and 12.5 becomes 13.
func Round(x float64) int {
	return int(math.Floor(x + 0.5))
}

// Percent returns round(100*part/whole), or 0 when whole is zero.
func Percent(part, whole int64) int {
	if whole == 0 {
		return 0
	}
	return Round(100 * float64(part) / float64(whole))
}
