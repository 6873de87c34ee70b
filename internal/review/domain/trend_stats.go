package domain

import (
	"fmt"
	"time"
)

// DayInput is one calendar day of a trend window and its tasks.
type DayInput struct {
	Date  time.Time
	Tasks []NormalizedTask
}

// DaySummary is the statistics of one day in a trend window.
type DaySummary struct {
	Date  time.Time
	Stats PeriodStats
}

// TrendTotals holds field-wise sums across a trend window.
type TrendTotals struct {
	Tasks                 int
	RewardTotal           float64
	ImportantTasks        int
	MergedProductiveHours float64
	SleepHours            float64
	LeisureHours          float64
}

// TrendAverages holds per-day averages across a trend window.
type TrendAverages struct {
	Tasks                 float64
	RewardTotal           float64
	ImportantTasks        float64
	MergedProductiveHours float64
	SleepHours            float64
	LeisureHours          float64
}

// TrendStats summarizes a fixed-length window of consecutive days.
type TrendStats struct {
	WindowDays int
	Days       []DaySummary
	Totals     TrendTotals
	Averages   TrendAverages

	// BestDay is the day with the most merged productive hours, nil when
	// no day has any.
	BestDay *DaySummary
	// PeakHour is the local hour with the most task starts in the window.
	PeakHour int
}

// AggregateTrend computes per-day statistics for every day in the window,
// including days without tasks, and averages over the full window length.
func (a *Aggregator) AggregateTrend(days []DayInput) (TrendStats, error) {
	if len(days) == 0 {
		return TrendStats{}, fmt.Errorf("aggregate trend: %w", ErrEmptyWindow)
	}
	for i := 1; i < len(days); i++ {
		if !civilDate(days[i].Date).After(civilDate(days[i-1].Date)) {
			return TrendStats{}, fmt.Errorf("aggregate trend: day %d (%s) after %s: %w",
				i, days[i].Date.Format(time.DateOnly), days[i-1].Date.Format(time.DateOnly), ErrUnorderedWindow)
		}
	}

	trend := TrendStats{
		WindowDays: len(days),
		Days:       make([]DaySummary, 0, len(days)),
	}

	var hourly [HoursPerDay]int
	for _, day := range days {
		stats := a.Aggregate(day.Tasks)
		trend.Days = append(trend.Days, DaySummary{Date: day.Date, Stats: stats})

		trend.Totals.Tasks += stats.TotalTasks
		trend.Totals.RewardTotal += stats.RewardTotal
		trend.Totals.ImportantTasks += stats.ImportantTasks
		trend.Totals.MergedProductiveHours += stats.MergedProductiveHours
		trend.Totals.SleepHours += stats.SleepHours
		trend.Totals.LeisureHours += stats.LeisureHours
		for h, c := range stats.HourlyHistogram {
			hourly[h] += c
		}
	}

	n := float64(len(days))
	trend.Averages = TrendAverages{
		Tasks:                 float64(trend.Totals.Tasks) / n,
		RewardTotal:           trend.Totals.RewardTotal / n,
		ImportantTasks:        float64(trend.Totals.ImportantTasks) / n,
		MergedProductiveHours: trend.Totals.MergedProductiveHours / n,
		SleepHours:            trend.Totals.SleepHours / n,
		LeisureHours:          trend.Totals.LeisureHours / n,
	}

	for i := range trend.Days {
		day := &trend.Days[i]
		if day.Stats.MergedProductiveHours <= 0 {
			continue
		}
		if trend.BestDay == nil || day.Stats.MergedProductiveHours > trend.BestDay.Stats.MergedProductiveHours {
			trend.BestDay = day
		}
	}

	var peak int
	for h, c := range hourly {
		if c > peak {
			trend.PeakHour, peak = h, c
		}
	}

	return trend, nil
}

// civilDate drops the clock part of t in its own location.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
