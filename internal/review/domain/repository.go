package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RecordSource provides completed task records for a range of calendar days.
type RecordSource interface {
	// FetchCompleted returns records planned on or after from and on or
	// before to, already filtered to completed tasks.
	FetchCompleted(ctx context.Context, from, to time.Time) ([]RawRecord, error)
}

// RecordMirror stores raw records locally so reports can run offline.
type RecordMirror interface {
	RecordSource

	// Upsert inserts or replaces records by ID and returns how many were written.
	Upsert(ctx context.Context, records []RawRecord) (int, error)
}

// ChatClient turns a prompt into prose.
type ChatClient interface {
	Complete(ctx context.Context, systemPrompt, prompt string) (string, error)
}

// Report is a finished review ready for delivery.
type Report struct {
	ID          uuid.UUID
	Title       string
	Period      Period
	Date        time.Time
	Body        string
	GeneratedAt time.Time
}

// NewReport creates a report for the given period and day.
func NewReport(period Period, date time.Time, body string) Report {
	return Report{
		ID:          uuid.New(),
		Title:       ReportTitle(period, date),
		Period:      period,
		Date:        date,
		Body:        body,
		GeneratedAt: time.Now(),
	}
}

// ReportTitle returns the display title of a report.
func ReportTitle(period Period, date time.Time) string {
	return "Bear Review " + period.Title() + " Review · " + date.Format(time.DateOnly)
}

// Notifier delivers a finished report to one channel.
type Notifier interface {
	// Name identifies the channel in logs and metrics.
	Name() string
	Notify(ctx context.Context, report Report) error
}
