// Package domain contains the task time-aggregation engine for the review
// bounded context: record normalization, interval merging, time-bucket
// classification, and period and trend aggregation.
package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// RawRecord is a task record as delivered by the record source, typically a
// decoded Notion page object. It is treated as read-only.
type RawRecord map[string]any

// RecordSchema names the properties the normalizer reads from a RawRecord.
type RecordSchema struct {
	TitleProperty    string `yaml:"title"`
	CategoryProperty string `yaml:"category"`
	PriorityProperty string `yaml:"priority"`
	StatusProperty   string `yaml:"status"`
	DateProperty     string `yaml:"date"`
	RewardProperty   string `yaml:"reward"`
	EffortProperty   string `yaml:"effort"`
	MinutesProperty  string `yaml:"actual_minutes"`
	// EffortFallbackProperty is read when EffortProperty is absent.
	EffortFallbackProperty string `yaml:"effort_fallback"`

	// ImportantLabel is the priority label that marks an important task.
	ImportantLabel string `yaml:"important_label"`
	// DoneLabel is the status label of completed tasks.
	DoneLabel string `yaml:"done_label"`
}

// DefaultRecordSchema returns the property names of the task database.
func DefaultRecordSchema() RecordSchema {
	return RecordSchema{
		TitleProperty:    "任务名称",
		CategoryProperty: "分类",
		PriorityProperty: "优先级",
		StatusProperty:   "状态",
		DateProperty:     "计划日期",
		RewardProperty:   "XP",
		EffortProperty:   "番茄数",
		MinutesProperty:  "实际分钟",
		ImportantLabel:   "MIT",
		DoneLabel:        "Done",

		EffortFallbackProperty: "Effort",
	}
}

// ID returns the record identifier, or an empty string.
func (r RawRecord) ID() string {
	if id, ok := r["id"].(string); ok {
		return id
	}
	return ""
}

// property looks a property up under "properties", falling back to a
// top-level key so flat records work too.
func (r RawRecord) property(name string) (any, bool) {
	if name == "" {
		return nil, false
	}
	if props, ok := r["properties"].(map[string]any); ok {
		if v, ok := props[name]; ok && v != nil {
			return v, true
		}
	}
	if v, ok := r[name]; ok && v != nil {
		return v, true
	}
	return nil, false
}

// Text returns the plain text of a title or rich_text property.
func (r RawRecord) Text(name string) (string, bool) {
	v, ok := r.property(name)
	if !ok {
		return "", false
	}
	switch p := v.(type) {
	case string:
		return p, strings.TrimSpace(p) != ""
	case map[string]any:
		for _, key := range []string{"title", "rich_text"} {
			if parts, ok := p[key].([]any); ok {
				if text := joinPlainText(parts); text != "" {
					return text, true
				}
			}
		}
	case []any:
		if text := joinPlainText(p); text != "" {
			return text, true
		}
	}
	return "", false
}

func joinPlainText(parts []any) string {
	var b strings.Builder
	for _, part := range parts {
		m, ok := part.(map[string]any)
		if !ok {
			continue
		}
		if s, ok := m["plain_text"].(string); ok {
			b.WriteString(s)
			continue
		}
		if t, ok := m["text"].(map[string]any); ok {
			if s, ok := t["content"].(string); ok {
				b.WriteString(s)
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// Label returns the name of a select or status property.
func (r RawRecord) Label(name string) (string, bool) {
	v, ok := r.property(name)
	if !ok {
		return "", false
	}
	switch p := v.(type) {
	case string:
		p = strings.TrimSpace(p)
		return p, p != ""
	case map[string]any:
		for _, key := range []string{"select", "status"} {
			if sel, ok := p[key].(map[string]any); ok {
				if s, ok := sel["name"].(string); ok && strings.TrimSpace(s) != "" {
					return strings.TrimSpace(s), true
				}
			}
		}
		if s, ok := p["name"].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s), true
		}
	}
	return "", false
}

// Number returns a finite numeric property value. Number, formula and rollup
// shapes are understood, as are bare numbers and numeric strings.
func (r RawRecord) Number(name string) (float64, bool) {
	v, ok := r.property(name)
	if !ok {
		return 0, false
	}
	if m, ok := v.(map[string]any); ok {
		switch {
		case m["number"] != nil:
			v = m["number"]
		case m["formula"] != nil:
			if f, ok := m["formula"].(map[string]any); ok {
				v = f["number"]
			}
		case m["rollup"] != nil:
			if f, ok := m["rollup"].(map[string]any); ok {
				v = f["number"]
			}
		default:
			return 0, false
		}
	}
	return toFloat(v)
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// DateRange returns the raw start and end strings of a date property.
// The end is empty when the property carries no end.
func (r RawRecord) DateRange(name string) (start, end string) {
	v, ok := r.property(name)
	if !ok {
		return "", ""
	}
	m, ok := v.(map[string]any)
	if !ok {
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s), ""
		}
		return "", ""
	}
	if d, ok := m["date"].(map[string]any); ok {
		m = d
	}
	if s, ok := m["start"].(string); ok {
		start = strings.TrimSpace(s)
	}
	if s, ok := m["end"].(string); ok {
		end = strings.TrimSpace(s)
	}
	return start, end
}
