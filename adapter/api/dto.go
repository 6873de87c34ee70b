package api

import (
	"time"

	"github.com/GiveMeAjob-job/Bear-Review/internal/review/application/queries"
	"github.com/GiveMeAjob-job/Bear-Review/internal/review/domain"
)

// StatsResponse is the body of GET /v1/stats.
type StatsResponse struct {
	Period    string       `json:"period"`
	From      string       `json:"from"`
	To        string       `json:"to"`
	Records   int          `json:"records"`
	Stats     StatsDTO     `json:"stats"`
	Tasks     []TaskDTO    `json:"tasks"`
	Anomalies AnomaliesDTO `json:"anomalies"`
}

// StatsDTO is the wire form of domain.PeriodStats. Durations are hours.
type StatsDTO struct {
	TotalTasks            int            `json:"total_tasks"`
	RewardTotal           float64        `json:"reward_total"`
	EffortTotal           float64        `json:"effort_total"`
	ImportantTasks        int            `json:"important_tasks"`
	CategoryCounts        map[string]int `json:"category_counts"`
	BucketCounts          map[string]int `json:"bucket_counts"`
	EarliestActivity      *time.Time     `json:"earliest_activity,omitempty"`
	LatestActivity        *time.Time     `json:"latest_activity,omitempty"`
	ElapsedSpanHours      float64        `json:"elapsed_span_hours"`
	MergedProductiveHours float64        `json:"merged_productive_hours"`
	SleepHours            float64        `json:"sleep_hours"`
	LeisureHours          float64        `json:"leisure_hours"`
	EfficiencyRatio       float64        `json:"efficiency_ratio"`
	HourlyHistogram       []int          `json:"hourly_histogram"`
	TimedTasks            int            `json:"timed_tasks"`
	DegradedRecords       int            `json:"degraded_records"`
}

// TaskDTO is one task detail.
type TaskDTO struct {
	Title           string  `json:"title"`
	Category        string  `json:"category"`
	Start           string  `json:"start"`
	End             string  `json:"end"`
	DurationMinutes float64 `json:"duration_minutes"`
	Important       bool    `json:"important"`
	Bucket          string  `json:"bucket"`
}

// AnomaliesDTO is the wire form of domain.AnomalyReport.
type AnomaliesDTO struct {
	CrossMidnight  []string `json:"cross_midnight"`
	LateNight      []string `json:"late_night"`
	SleepOverlap   bool     `json:"sleep_overlap"`
	LeisureOverlap bool     `json:"leisure_overlap"`
	SpanExceedsDay bool     `json:"span_exceeds_day"`
}

// TrendResponse is the body of GET /v1/trend.
type TrendResponse struct {
	From     string        `json:"from"`
	To       string        `json:"to"`
	Days     []TrendDayDTO `json:"days"`
	Totals   TrendSumDTO   `json:"totals"`
	Averages TrendSumDTO   `json:"averages"`
	BestDay  string        `json:"best_day,omitempty"`
	PeakHour int           `json:"peak_hour"`
}

// TrendSumDTO carries trend totals or per-day averages.
type TrendSumDTO struct {
	Tasks                 float64 `json:"tasks"`
	RewardTotal           float64 `json:"reward_total"`
	ImportantTasks        float64 `json:"important_tasks"`
	MergedProductiveHours float64 `json:"merged_productive_hours"`
	SleepHours            float64 `json:"sleep_hours"`
	LeisureHours          float64 `json:"leisure_hours"`
}

// TrendDayDTO is one day of a trend window.
type TrendDayDTO struct {
	Date  string   `json:"date"`
	Stats StatsDTO `json:"stats"`
}

func toStatsResponse(r *queries.PeriodStatsResult) StatsResponse {
	tasks := make([]TaskDTO, 0, len(r.Details))
	for _, d := range r.Details {
		tasks = append(tasks, TaskDTO{
			Title:           d.Title,
			Category:        d.Category,
			Start:           d.Start,
			End:             d.End,
			DurationMinutes: d.Duration.Minutes(),
			Important:       d.Important,
			Bucket:          string(d.Bucket),
		})
	}
	return StatsResponse{
		Period:  r.Period.String(),
		From:    r.Range.From.Format(time.DateOnly),
		To:      r.Range.To.Format(time.DateOnly),
		Records: r.Records,
		Stats:   toStatsDTO(r.Stats),
		Tasks:   tasks,
		Anomalies: AnomaliesDTO{
			CrossMidnight:  nonNil(r.Anomalies.CrossMidnight),
			LateNight:      nonNil(r.Anomalies.LateNight),
			SleepOverlap:   r.Anomalies.SleepOverlap,
			LeisureOverlap: r.Anomalies.LeisureOverlap,
			SpanExceedsDay: r.Anomalies.SpanExceedsDay,
		},
	}
}

func toStatsDTO(s domain.PeriodStats) StatsDTO {
	buckets := make(map[string]int, len(s.BucketCounts))
	for b, n := range s.BucketCounts {
		buckets[string(b)] = n
	}
	categories := s.CategoryCounts
	if categories == nil {
		categories = map[string]int{}
	}
	return StatsDTO{
		TotalTasks:            s.TotalTasks,
		RewardTotal:           s.RewardTotal,
		EffortTotal:           s.EffortTotal,
		ImportantTasks:        s.ImportantTasks,
		CategoryCounts:        categories,
		BucketCounts:          buckets,
		EarliestActivity:      s.EarliestActivity,
		LatestActivity:        s.LatestActivity,
		ElapsedSpanHours:      s.ElapsedSpan.Hours(),
		MergedProductiveHours: s.MergedProductiveHours,
		SleepHours:            s.SleepHours,
		LeisureHours:          s.LeisureHours,
		EfficiencyRatio:       s.EfficiencyRatio,
		HourlyHistogram:       s.HourlyHistogram[:],
		TimedTasks:            s.TimedTasks,
		DegradedRecords:       s.DegradedRecords,
	}
}

func toTrendResponse(r *queries.TrendResult) TrendResponse {
	days := make([]TrendDayDTO, 0, len(r.Trend.Days))
	for _, d := range r.Trend.Days {
		days = append(days, TrendDayDTO{Date: d.Date.Format(time.DateOnly), Stats: toStatsDTO(d.Stats)})
	}
	t := r.Trend.Totals
	totals := TrendSumDTO{
		Tasks:                 float64(t.Tasks),
		RewardTotal:           t.RewardTotal,
		ImportantTasks:        float64(t.ImportantTasks),
		MergedProductiveHours: t.MergedProductiveHours,
		SleepHours:            t.SleepHours,
		LeisureHours:          t.LeisureHours,
	}
	resp := TrendResponse{
		From:     r.Range.From.Format(time.DateOnly),
		To:       r.Range.To.Format(time.DateOnly),
		Days:     days,
		Totals:   totals,
		Averages: TrendSumDTO(r.Trend.Averages),
		PeakHour: r.Trend.PeakHour,
	}
	if r.Trend.BestDay != nil {
		resp.BestDay = r.Trend.BestDay.Date.Format(time.DateOnly)
	}
	return resp
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
