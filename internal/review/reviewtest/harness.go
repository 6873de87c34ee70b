// Package reviewtest provides fixtures for testing code built on the review
// domain without a Notion workspace.
package reviewtest

import (
	"context"
	"sync"
	"time"

	"github.com/GiveMeAjob-job/Bear-Review/internal/review/domain"
)

// Page builds a Notion page record using the default record schema.
type Page struct {
	id     string
	schema domain.RecordSchema
	props  map[string]any
}

// NewPage starts a completed page with the given ID.
func NewPage(id string) *Page {
	p := &Page{id: id, schema: domain.DefaultRecordSchema(), props: map[string]any{}}
	return p.Status(p.schema.DoneLabel)
}

// Title sets the title property.
func (p *Page) Title(text string) *Page {
	p.props[p.schema.TitleProperty] = map[string]any{
		"type":  "title",
		"title": []any{map[string]any{"type": "text", "plain_text": text}},
	}
	return p
}

// Category sets the category select.
func (p *Page) Category(name string) *Page {
	p.props[p.schema.CategoryProperty] = selectValue(name)
	return p
}

// Priority sets the priority select.
func (p *Page) Priority(name string) *Page {
	p.props[p.schema.PriorityProperty] = selectValue(name)
	return p
}

// Important marks the page with the important priority label.
func (p *Page) Important() *Page {
	return p.Priority(p.schema.ImportantLabel)
}

// Status sets the status property.
func (p *Page) Status(name string) *Page {
	p.props[p.schema.StatusProperty] = map[string]any{"type": "status", "status": map[string]any{"name": name}}
	return p
}

// Planned sets the planned date range. An empty end is sent as null.
func (p *Page) Planned(start, end string) *Page {
	date := map[string]any{"start": start, "end": nil}
	if end != "" {
		date["end"] = end
	}
	p.props[p.schema.DateProperty] = map[string]any{"type": "date", "date": date}
	return p
}

// XP sets the precomputed reward.
func (p *Page) XP(v float64) *Page {
	p.props[p.schema.RewardProperty] = map[string]any{"type": "number", "number": v}
	return p
}

// Pomodoros sets the effort units.
func (p *Page) Pomodoros(v float64) *Page {
	p.props[p.schema.EffortProperty] = map[string]any{"type": "number", "number": v}
	return p
}

// Record returns the page as a raw record.
func (p *Page) Record() domain.RawRecord {
	props := make(map[string]any, len(p.props))
	for k, v := range p.props {
		props[k] = v
	}
	return domain.RawRecord{"object": "page", "id": p.id, "properties": props}
}

func selectValue(name string) map[string]any {
	return map[string]any{"type": "select", "select": map[string]any{"name": name}}
}

// InMemorySource is a domain.RecordSource over a fixed record set. Records
// are matched to days by their planned start in the source's location.
type InMemorySource struct {
	mu      sync.Mutex
	loc     *time.Location
	records []domain.RawRecord
	calls   int

	// Err, when set, is returned by every fetch.
	Err error
}

// NewInMemorySource creates a source holding records.
func NewInMemorySource(loc *time.Location, records ...domain.RawRecord) *InMemorySource {
	if loc == nil {
		loc = time.UTC
	}
	return &InMemorySource{loc: loc, records: records}
}

// FetchCompleted returns completed records planned between from and to,
// inclusive of both days.
func (s *InMemorySource) FetchCompleted(ctx context.Context, from, to time.Time) ([]domain.RawRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Err != nil {
		return nil, s.Err
	}
	schema := domain.DefaultRecordSchema()
	first := domain.StartOfDay(from, s.loc)
	last := domain.StartOfDay(to, s.loc)

	out := []domain.RawRecord{}
	for _, r := range s.records {
		if status, _ := r.Label(schema.StatusProperty); status != schema.DoneLabel {
			continue
		}
		start, _ := r.DateRange(schema.DateProperty)
		t, ok := domain.ParseTimestamp(start, s.loc)
		if !ok {
			continue
		}
		day := domain.StartOfDay(t, s.loc)
		if day.Before(first) || day.After(last) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// Calls returns how many fetches were made.
func (s *InMemorySource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
