package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"tesoretto/internal/analytics"
	"tesoretto/internal/budget"
	"tesoretto/internal/core"
	"tesoretto/internal/forecast"
	"tesoretto/internal/gamification"
	"tesoretto/internal/insights"
	"tesoretto/internal/scoring"
	"tesoretto/internal/storage"
)

type AnalyzerConfig struct {
	TrendWindow    int
	ForecastMonths int
}

func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{TrendWindow: 3, ForecastMonths: forecast.DefaultMonths}
}

type (
	Trends struct {
		Expense         analytics.TrendReport `json:"expense"`
		Savings         analytics.TrendReport `json:"savings"`
		SixMonthAverage core.Money            `json:"sixMonthAverage"`
		BurnRate        core.Money            `json:"burnRate"`
	}

	ForecastReport struct {
		Next      forecast.Forecast `json:"next"`
		YearEnd   forecast.YearEnd  `json:"yearEnd"`
		NextMonth forecast.Outlook  `json:"outlook"`
	}

	Dashboard struct {
		Period    string                     `json:"period"`
		Month     core.MonthlyData           `json:"month"`
		Groups    []analytics.GroupTotal     `json:"groups"`
		Breakdown []analytics.CategoryShare  `json:"breakdown"`
		Trends    Trends                     `json:"trends"`
		Growth    []analytics.CategoryGrowth `json:"growth"`
		Budgets   budget.Report              `json:"budgets"`
		Forecast  ForecastReport             `json:"forecast"`
		Score     scoring.Score              `json:"score"`
		Streak    core.Streak                `json:"streak"`
		Insights  []insights.Insight         `json:"insights"`
	}
)

// Analyzer is the read side: each call loads one snapshot of entries and
// runs the pure engines over it.
type Analyzer struct {
	entries      storage.EntryStore
	budgets      *budget.Engine
	tracker      *gamification.Tracker
	achievements *gamification.Achievements
	cfg          AnalyzerConfig
	clock        func() time.Time
}

func NewAnalyzer(store storage.Store, budgets *budget.Engine, cfg AnalyzerConfig, opts ...Option) *Analyzer {
	o := applyOptions(opts)
	if cfg.TrendWindow <= 0 {
		cfg.TrendWindow = DefaultAnalyzerConfig().TrendWindow
	}
	if cfg.ForecastMonths <= 0 {
		cfg.ForecastMonths = forecast.DefaultMonths
	}
	return &Analyzer{
		entries:      store,
		budgets:      budgets,
		tracker:      gamification.NewTracker(store),
		achievements: gamification.NewAchievements(store),
		cfg:          cfg,
		clock:        o.clock,
	}
}

func (a *Analyzer) snapshot(ctx context.Context) ([]core.Entry, error) {
	entries, err := a.entries.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	return entries, nil
}

func (a *Analyzer) Month(ctx context.Context, year int, month time.Month) (core.MonthlyData, error) {
	entries, err := a.snapshot(ctx)
	if err != nil {
		return core.MonthlyData{}, err
	}
	data := analytics.MonthlyData(entries, year, month)
	if data.Unclassified.Cents > 0 {
		slog.DebugContext(ctx, "Expenses with unknown group excluded from group totals",
			"period", data.Period().String(),
			"amount_cents", data.Unclassified.Cents)
	}
	return data, nil
}

func (a *Analyzer) Groups(ctx context.Context, year int, month time.Month) ([]analytics.GroupTotal, error) {
	entries, err := a.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.CategoryGroupData(entries, year, month), nil
}

func (a *Analyzer) Breakdown(ctx context.Context, year int, month time.Month) ([]analytics.CategoryShare, error) {
	entries, err := a.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.LiveCategoryBreakdown(entries, year, month), nil
}

func (a *Analyzer) Trends(ctx context.Context) (Trends, error) {
	entries, err := a.snapshot(ctx)
	if err != nil {
		return Trends{}, err
	}
	return a.trends(entries, a.clock()), nil
}

func (a *Analyzer) Growth(ctx context.Context) ([]analytics.CategoryGrowth, error) {
	entries, err := a.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.GrowthByCategory(entries, a.clock()), nil
}

func (a *Analyzer) Budgets(ctx context.Context) (budget.Report, error) {
	entries, err := a.snapshot(ctx)
	if err != nil {
		return budget.Report{}, err
	}
	return a.budgets.Report(ctx, entries, a.clock())
}

func (a *Analyzer) Forecast(ctx context.Context) (ForecastReport, error) {
	entries, err := a.snapshot(ctx)
	if err != nil {
		return ForecastReport{}, err
	}
	return a.forecast(entries, a.clock()), nil
}

func (a *Analyzer) Score(ctx context.Context) (scoring.Score, error) {
	entries, err := a.snapshot(ctx)
	if err != nil {
		return scoring.Score{}, err
	}
	now := a.clock()
	report, err := a.budgets.Report(ctx, entries, now)
	if err != nil {
		return scoring.Score{}, err
	}
	return scoring.Evaluate(entries, report.Summary, now), nil
}

func (a *Analyzer) Insights(ctx context.Context) ([]insights.Insight, error) {
	d, err := a.Dashboard(ctx)
	if err != nil {
		return nil, err
	}
	return d.Insights, nil
}

// Streak runs the validity check and returns the stored streak.
func (a *Analyzer) Streak(ctx context.Context) (core.Streak, error) {
	return a.tracker.Refresh(ctx, a.clock())
}

func (a *Analyzer) Achievements(ctx context.Context) ([]gamification.AchievementStatus, error) {
	return a.achievements.List(ctx)
}

// Dashboard computes every view of the current month from one snapshot.
func (a *Analyzer) Dashboard(ctx context.Context) (Dashboard, error) {
	now := a.clock()
	current := core.MonthOf(now)

	var (
		entries []core.Entry
		streak  core.Streak
	)
	load, lctx := errgroup.WithContext(ctx)
	load.Go(func() error {
		var err error
		entries, err = a.snapshot(lctx)
		return err
	})
	load.Go(func() error {
		var err error
		streak, err = a.tracker.Refresh(lctx, now)
		return err
	})
	if err := load.Wait(); err != nil {
		return Dashboard{}, err
	}

	report, err := a.budgets.Report(ctx, entries, now)
	if err != nil {
		return Dashboard{}, err
	}

	d := Dashboard{Period: current.String(), Budgets: report, Streak: streak}
	var g errgroup.Group
	g.Go(func() error {
		d.Month = analytics.MonthlyData(entries, current.Year, current.Month)
		d.Groups = analytics.CategoryGroupData(entries, current.Year, current.Month)
		d.Breakdown = analytics.LiveCategoryBreakdown(entries, current.Year, current.Month)
		return nil
	})
	g.Go(func() error {
		d.Trends = a.trends(entries, now)
		return nil
	})
	g.Go(func() error {
		d.Growth = analytics.GrowthByCategory(entries, now)
		return nil
	})
	g.Go(func() error {
		d.Forecast = a.forecast(entries, now)
		return nil
	})
	g.Go(func() error {
		d.Score = scoring.Evaluate(entries, report.Summary, now)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	d.Insights = insights.Generate(insights.Input{
		HasEntries:   len(entries) > 0,
		Current:      d.Month,
		Growth:       d.Growth,
		Budgets:      report.Statuses,
		ExpenseTrend: d.Trends.Expense.Direction,
		Outlook:      d.Forecast.NextMonth,
	})
	return d, nil
}

func (a *Analyzer) trends(entries []core.Entry, now time.Time) Trends {
	current := analytics.MonthlyData(entries, now.Year(), now.Month())
	return Trends{
		Expense:         analytics.ExpenseTrend(entries, now, a.cfg.TrendWindow),
		Savings:         analytics.SavingsTrend(entries, now, a.cfg.TrendWindow),
		SixMonthAverage: analytics.SixMonthAverage(entries, now),
		BurnRate:        analytics.MonthlyBurnRate(current.TotalExpenses(), core.MonthOf(now).Days(), now.Day()),
	}
}

func (a *Analyzer) forecast(entries []core.Entry, now time.Time) ForecastReport {
	next := forecast.Predict(entries, now, a.cfg.ForecastMonths)
	return ForecastReport{
		Next:      next,
		YearEnd:   forecast.ProjectYearEnd(entries, now, next),
		NextMonth: forecast.NextMonth(entries, now),
	}
}
