package core

import "time"

// MonthlyData is the aggregate of one calendar month.
type MonthlyData struct {
	Year           int        `json:"year"`
	Month          time.Month `json:"month"`
	TotalIncome    Money      `json:"totalIncome"`
	TotalNeeds     Money      `json:"totalNeeds"`
	TotalLifestyle Money      `json:"totalLifestyle"`
	TotalSavings   Money      `json:"totalSavings"`
	Balance        Money      `json:"balance"`
	// Unclassified is expense money whose group could not be resolved. It is
	// not part of any group total nor of Balance.
	Unclassified Money `json:"unclassified"`
	EntryCount   int   `json:"entryCount"`
}

// TotalExpenses is the month's spending: needs plus lifestyle. Savings-group
// entries are allocations and stay out of it.
func (d MonthlyData) TotalExpenses() Money {
	return d.TotalNeeds.Add(d.TotalLifestyle)
}

// HasActivity reports whether the month had income or spending. Savings
// transfers alone do not count.
func (d MonthlyData) HasActivity() bool {
	return d.TotalIncome.Cents > 0 || d.TotalNeeds.Cents > 0 || d.TotalLifestyle.Cents > 0
}

// Period returns the month the data belongs to.
func (d MonthlyData) Period() YearMonth {
	return YearMonth{Year: d.Year, Month: d.Month}
}
