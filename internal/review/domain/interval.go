package domain

import (
	"slices"
	"time"
)

// TimeInterval is a closed span of absolute time with Start <= End.
type TimeInterval struct {
	Start time.Time
	End   time.Time
}

// NewTimeInterval creates an interval, rejecting one that ends before it starts.
func NewTimeInterval(start, end time.Time) (TimeInterval, error) {
	if end.Before(start) {
		return TimeInterval{}, ErrInvalidInterval
	}
	return TimeInterval{Start: start, End: end}, nil
}

// Duration returns the length of the interval.
func (i TimeInterval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// MergeIntervals returns the minimal ordered set of disjoint, non-adjacent
// intervals covering the same time as the input. Overlapping and touching
// intervals are fused. The input slice is not modified.
func MergeIntervals(intervals []TimeInterval) []TimeInterval {
	if len(intervals) == 0 {
		return []TimeInterval{}
	}

	sorted := slices.Clone(intervals)
	slices.SortStableFunc(sorted, func(a, b TimeInterval) int {
		return a.Start.Compare(b.Start)
	})

	merged := make([]TimeInterval, 0, len(sorted))
	current := sorted[0]
	for _, next := range sorted[1:] {
		if !next.Start.After(current.End) {
			if next.End.After(current.End) {
				current.End = next.End
			}
			continue
		}
		merged = append(merged, current)
		current = next
	}
	return append(merged, current)
}

// TotalDuration sums the durations of the given intervals.
func TotalDuration(intervals []TimeInterval) time.Duration {
	var total time.Duration
	for _, i := range intervals {
		total += i.Duration()
	}
	return total
}

// HasOverlap reports whether any two intervals share more than an endpoint.
func HasOverlap(intervals []TimeInterval) bool {
	if len(intervals) < 2 {
		return false
	}
	sorted := slices.Clone(intervals)
	slices.SortFunc(sorted, func(a, b TimeInterval) int {
		return a.Start.Compare(b.Start)
	})
	end := sorted[0].End
	for _, next := range sorted[1:] {
		if next.Start.Before(end) {
			return true
		}
		if next.End.After(end) {
			end = next.End
		}
	}
	return false
}
