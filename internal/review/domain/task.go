package domain

import "time"

const (
	// UntitledTask is the title given to records without one.
	UntitledTask = "untitled"
	// Uncategorized is the category given to records without one.
	Uncategorized = "uncategorized"
)

// NormalizedTask is the canonical form of one raw task record.
// Start and End are UTC instants; both are nil when the record carries no
// usable timing.
type NormalizedTask struct {
	ID           string
	Title        string
	Category     string
	IsPriority   bool
	RewardPoints float64
	EffortUnits  float64
	Start        *time.Time
	End          *time.Time
	Duration     time.Duration

	// ActualMinutes is the self-reported time spent, when present.
	ActualMinutes float64
	// Degraded is set when any field fell back to a default.
	Degraded bool
}

// HasTiming reports whether the task can take part in time computations:
// both ends are set and the end does not precede the start.
func (t NormalizedTask) HasTiming() bool {
	_, ok := t.Interval()
	return ok
}

// Interval returns the task's time interval. It reports false when either
// end is missing or the interval is inverted.
func (t NormalizedTask) Interval() (TimeInterval, bool) {
	if t.Start == nil || t.End == nil {
		return TimeInterval{}, false
	}
	interval, err := NewTimeInterval(*t.Start, *t.End)
	if err != nil {
		return TimeInterval{}, false
	}
	return interval, true
}
