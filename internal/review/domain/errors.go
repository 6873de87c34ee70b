package domain

import "errors"

var (
	// ErrEmptyWindow is returned when a trend window contains no days.
	ErrEmptyWindow = errors.New("trend window must contain at least one day")
	// ErrWindowTooLarge is returned when a trend window exceeds MaxTrendDays.
	ErrWindowTooLarge = errors.New("trend window is too large")
	// ErrUnorderedWindow is returned when trend days are not strictly increasing.
	ErrUnorderedWindow = errors.New("trend days must be in strictly increasing date order")
	// ErrUnknownPeriod is returned for an unsupported report period.
	ErrUnknownPeriod = errors.New("unknown report period")
	// ErrInvalidInterval is returned when an interval ends before it starts.
	ErrInvalidInterval = errors.New("interval end precedes start")
	// ErrAlreadyDelivered is returned by a notifier that has already sent
	// the report for the same period and day.
	ErrAlreadyDelivered = errors.New("report already delivered")
)
