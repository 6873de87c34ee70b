package domain

import (
	"strings"
	"time"
)

// Degradation describes one field of a raw record that fell back to a
// default during normalization.
type Degradation struct {
	RecordID string
	Field    string
	Reason   string
}

// Normalizer converts raw records into NormalizedTasks. It never fails:
// malformed fields degrade to defaults and are reported to the caller.
type Normalizer struct {
	schema  RecordSchema
	rewards []RewardExtractor
	dateLoc *time.Location
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithRewardExtractors replaces the reward strategies.
func WithRewardExtractors(extractors ...RewardExtractor) NormalizerOption {
	return func(n *Normalizer) {
		n.rewards = extractors
	}
}

// WithDateLocation sets the location used for timestamps without an offset
// and for date-only values. Defaults to UTC.
func WithDateLocation(loc *time.Location) NormalizerOption {
	return func(n *Normalizer) {
		if loc != nil {
			n.dateLoc = loc
		}
	}
}

// NewNormalizer creates a normalizer for the given schema.
func NewNormalizer(schema RecordSchema, opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		schema:  schema,
		rewards: DefaultRewardExtractors(schema),
		dateLoc: time.UTC,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Schema returns the record schema in use.
func (n *Normalizer) Schema() RecordSchema {
	return n.schema
}

// Normalize converts one raw record. The returned degradations are empty
// for a clean record.
func (n *Normalizer) Normalize(raw RawRecord) (NormalizedTask, []Degradation) {
	task := NormalizedTask{ID: raw.ID()}
	var issues []Degradation
	degrade := func(field, reason string) {
		issues = append(issues, Degradation{RecordID: task.ID, Field: field, Reason: reason})
	}

	if title, ok := raw.Text(n.schema.TitleProperty); ok {
		task.Title = title
	} else {
		task.Title = UntitledTask
		degrade("title", "missing")
	}

	if category, ok := raw.Label(n.schema.CategoryProperty); ok {
		task.Category = category
	} else {
		task.Category = Uncategorized
		degrade("category", "missing")
	}

	if label, ok := raw.Label(n.schema.PriorityProperty); ok {
		task.IsPriority = strings.EqualFold(label, n.schema.ImportantLabel)
	}

	if reward, _, ok := extractReward(raw, n.rewards); ok {
		if reward < 0 {
			reward = 0
			degrade("reward", "negative value clamped")
		}
		task.RewardPoints = reward
	} else {
		degrade("reward", "no reward source")
	}

	effort, ok := raw.Number(n.schema.EffortProperty)
	if !ok {
		effort, ok = raw.Number(n.schema.EffortFallbackProperty)
	}
	if ok {
		if effort < 0 {
			effort = 0
			degrade("effort", "negative value clamped")
		}
		task.EffortUnits = effort
	}

	if minutes, ok := raw.Number(n.schema.MinutesProperty); ok && minutes > 0 {
		task.ActualMinutes = minutes
	}

	n.normalizeTiming(raw, &task, degrade)

	task.Degraded = len(issues) > 0
	return task, issues
}

func (n *Normalizer) normalizeTiming(raw RawRecord, task *NormalizedTask, degrade func(field, reason string)) {
	startText, endText := raw.DateRange(n.schema.DateProperty)
	if startText == "" {
		degrade("start", "missing")
		return
	}

	start, ok := ParseTimestamp(startText, n.dateLoc)
	if !ok {
		degrade("start", "unparseable timestamp "+startText)
		return
	}

	end := start
	switch {
	case endText == "" || endText == startText:
	default:
		parsed, ok := ParseTimestamp(endText, n.dateLoc)
		if !ok {
			degrade("end", "unparseable timestamp "+endText)
			break
		}
		if parsed.Before(start) {
			degrade("interval", ErrInvalidInterval.Error())
			return
		}
		end = parsed
	}

	task.Start = &start
	task.End = &end
	task.Duration = end.Sub(start)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseTimestamp parses an ISO-8601 style timestamp and returns it in UTC.
// A trailing "Z" means UTC. Values without an offset, and date-only values,
// are read in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), true
	}
	for _, layout := range timestampLayouts[1:] {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.UTC(), true
		}
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, loc); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}
