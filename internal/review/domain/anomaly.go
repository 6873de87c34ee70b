package domain

import "time"

// LateNightHour is the local hour from which a start counts as late night.
const LateNightHour = 22

// AnomalyReport lists timing patterns worth a second look. None of them
// change the statistics.
type AnomalyReport struct {
	// CrossMidnight holds titles of tasks whose local start and end fall on
	// different days.
	CrossMidnight []string
	// LateNight holds titles of tasks starting at or after LateNightHour.
	LateNight []string
	// SleepOverlap is set when two sleep intervals overlap.
	SleepOverlap bool
	// LeisureOverlap is set when two leisure intervals overlap.
	LeisureOverlap bool
	// SpanExceedsDay is set when the activity span is longer than 24 hours.
	SpanExceedsDay bool
}

// Empty reports whether nothing was flagged.
func (r AnomalyReport) Empty() bool {
	return len(r.CrossMidnight) == 0 && len(r.LateNight) == 0 &&
		!r.SleepOverlap && !r.LeisureOverlap && !r.SpanExceedsDay
}

// ScanAnomalies inspects the timing of one period's tasks.
func (a *Aggregator) ScanAnomalies(tasks []NormalizedTask) AnomalyReport {
	var report AnomalyReport
	var sleep, leisure []TimeInterval
	var earliest, latest time.Time

	for _, task := range tasks {
		interval, ok := task.Interval()
		if !ok {
			continue
		}
		start := interval.Start.In(a.loc)
		end := interval.End.In(a.loc)
		if !civilDate(start).Equal(civilDate(end)) {
			report.CrossMidnight = append(report.CrossMidnight, task.Title)
		}
		if start.Hour() >= LateNightHour {
			report.LateNight = append(report.LateNight, task.Title)
		}

		switch a.classifier.Classify(task) {
		case BucketSleep:
			sleep = append(sleep, interval)
		case BucketLeisure:
			leisure = append(leisure, interval)
		}

		if earliest.IsZero() || interval.Start.Before(earliest) {
			earliest = interval.Start
		}
		if latest.IsZero() || interval.End.After(latest) {
			latest = interval.End
		}
	}

	report.SleepOverlap = HasOverlap(sleep)
	report.LeisureOverlap = HasOverlap(leisure)
	report.SpanExceedsDay = latest.Sub(earliest) > 24*time.Hour
	return report
}
