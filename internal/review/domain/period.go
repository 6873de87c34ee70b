package domain

import (
	"fmt"
	"strings"
	"time"
)

// Period is the length of a review.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"

	// PeriodTrend labels multi-day trend reports. It has no calendar range.
	PeriodTrend Period = "trend"
)

// ParsePeriod parses a period name.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, s)
	}
}

// String returns the period name.
func (p Period) String() string {
	return string(p)
}

// Title returns the period name capitalized for display.
func (p Period) Title() string {
	if p == "" {
		return ""
	}
	return strings.ToUpper(string(p[:1])) + string(p[1:])
}

// DateRange is an inclusive range of calendar days, each day represented by
// its local midnight.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Days returns every day in the range in order.
func (r DateRange) Days() []time.Time {
	var days []time.Time
	for d := r.From; !d.After(r.To); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Len returns the number of days in the range.
func (r DateRange) Len() int {
	return len(r.Days())
}

// Range returns the calendar days covered by the period containing now.
// Weeks run Monday through Sunday.
func (p Period) Range(now time.Time, loc *time.Location) (DateRange, error) {
	if loc == nil {
		loc = time.UTC
	}
	today := StartOfDay(now, loc)

	switch p {
	case PeriodDaily:
		return DateRange{From: today, To: today}, nil
	case PeriodWeekly:
		offset := (int(today.Weekday()) + 6) % 7
		start := today.AddDate(0, 0, -offset)
		return DateRange{From: start, To: start.AddDate(0, 0, 6)}, nil
	case PeriodMonthly:
		start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, loc)
		return DateRange{From: start, To: start.AddDate(0, 1, -1)}, nil
	default:
		return DateRange{}, fmt.Errorf("%w: %q", ErrUnknownPeriod, string(p))
	}
}

// MaxTrendDays bounds a trend window to one leap year of days.
const MaxTrendDays = 366

// TrendWindow returns the n consecutive days ending on the day containing
// end, oldest first.
func TrendWindow(end time.Time, n int, loc *time.Location) (DateRange, error) {
	if n <= 0 {
		return DateRange{}, fmt.Errorf("trend window of %d days: %w", n, ErrEmptyWindow)
	}
	if n > MaxTrendDays {
		return DateRange{}, fmt.Errorf("trend window of %d days exceeds %d: %w", n, MaxTrendDays, ErrWindowTooLarge)
	}
	if loc == nil {
		loc = time.UTC
	}
	last := StartOfDay(end, loc)
	return DateRange{From: last.AddDate(0, 0, -(n - 1)), To: last}, nil
}

// StartOfDay returns local midnight of the day containing t in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
