package domain

import "time"

// HoursPerDay is the size of the hourly activity histogram.
const HoursPerDay = 24

// PeriodStats summarizes the tasks of one period. It is a value object:
// build it with Aggregator.Aggregate and do not mutate it afterwards.
type PeriodStats struct {
	TotalTasks     int
	RewardTotal    float64
	EffortTotal    float64
	ImportantTasks int
	CategoryCounts map[string]int
	BucketCounts   map[Bucket]int

	// EarliestActivity and LatestActivity are nil when no task has timing.
	EarliestActivity *time.Time
	LatestActivity   *time.Time
	ElapsedSpan      time.Duration

	MergedProductiveHours float64
	SleepHours            float64
	LeisureHours          float64
	EfficiencyRatio       float64

	// HourlyHistogram counts tasks by the local hour they started in.
	HourlyHistogram [HoursPerDay]int

	TimedTasks      int
	DegradedRecords int
}

// EmptyPeriodStats returns the statistics of a period without tasks.
func EmptyPeriodStats() PeriodStats {
	return PeriodStats{
		CategoryCounts: make(map[string]int),
		BucketCounts:   make(map[Bucket]int),
	}
}

// PeakHour returns the local hour with the most task starts and its count.
// Ties resolve to the earliest hour; an empty histogram yields (0, 0).
func (s PeriodStats) PeakHour() (hour, count int) {
	for h, c := range s.HourlyHistogram {
		if c > count {
			hour, count = h, c
		}
	}
	return hour, count
}

// Aggregator rolls normalized tasks into period and trend statistics.
type Aggregator struct {
	classifier *Classifier
	loc        *time.Location
}

// NewAggregator creates an aggregator. Local hours are computed in loc;
// a nil loc means UTC.
func NewAggregator(classifier *Classifier, loc *time.Location) *Aggregator {
	if classifier == nil {
		classifier = NewClassifier(DefaultClassifierConfig())
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{classifier: classifier, loc: loc}
}

// Location returns the display location.
func (a *Aggregator) Location() *time.Location {
	return a.loc
}

// Classifier returns the classifier in use.
func (a *Aggregator) Classifier() *Classifier {
	return a.classifier
}

// Aggregate computes the statistics of one period. An empty list yields
// EmptyPeriodStats.
func (a *Aggregator) Aggregate(tasks []NormalizedTask) PeriodStats {
	stats := EmptyPeriodStats()

	var productive []TimeInterval
	var sleep, leisure time.Duration
	var earliest, latest time.Time

	for _, task := range tasks {
		stats.TotalTasks++
		stats.RewardTotal += task.RewardPoints
		stats.EffortTotal += task.EffortUnits
		stats.CategoryCounts[task.Category]++
		if task.IsPriority {
			stats.ImportantTasks++
		}
		if task.Degraded {
			stats.DegradedRecords++
		}

		bucket := a.classifier.Classify(task)
		stats.BucketCounts[bucket]++

		interval, ok := task.Interval()
		if !ok {
			continue
		}
		stats.TimedTasks++
		stats.HourlyHistogram[interval.Start.In(a.loc).Hour()]++
		if earliest.IsZero() || interval.Start.Before(earliest) {
			earliest = interval.Start
		}
		if latest.IsZero() || interval.End.After(latest) {
			latest = interval.End
		}

		switch bucket {
		case BucketSleep:
			sleep += interval.Duration()
		case BucketLeisure:
			leisure += interval.Duration()
		default:
			productive = append(productive, interval)
		}
	}

	if stats.TimedTasks > 0 {
		stats.EarliestActivity = &earliest
		stats.LatestActivity = &latest
		stats.ElapsedSpan = latest.Sub(earliest)
	}

	stats.MergedProductiveHours = TotalDuration(MergeIntervals(productive)).Hours()
	stats.SleepHours = sleep.Hours()
	stats.LeisureHours = leisure.Hours()
	if stats.MergedProductiveHours > 0 {
		stats.EfficiencyRatio = stats.RewardTotal / stats.MergedProductiveHours
	}

	return stats
}
