package domain

import "time"

var testDay = time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)

// at returns testDay at the given UTC clock time.
func at(hour, minute int) time.Time {
	return testDay.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func timedTask(title, category string, start, end time.Time) NormalizedTask {
	return NormalizedTask{
		Title:    title,
		Category: category,
		Start:    &start,
		End:      &end,
		Duration: end.Sub(start),
	}
}

func notionPage(id string, props map[string]any) RawRecord {
	return RawRecord{"id": id, "object": "page", "properties": props}
}

func titleProp(text string) map[string]any {
	return map[string]any{
		"type":  "title",
		"title": []any{map[string]any{"plain_text": text}},
	}
}

func selectProp(name string) map[string]any {
	return map[string]any{"type": "select", "select": map[string]any{"name": name}}
}

func dateProp(start string, end any) map[string]any {
	return map[string]any{"type": "date", "date": map[string]any{"start": start, "end": end}}
}

func numberProp(v float64) map[string]any {
	return map[string]any{"type": "number", "number": v}
}
