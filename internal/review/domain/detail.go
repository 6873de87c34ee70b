package domain

import (
	"slices"
	"time"
)

// TaskDetail is the display summary of one task.
type TaskDetail struct {
	Title     string
	Category  string
	Start     string
	End       string
	Duration  time.Duration
	Important bool
	Bucket    Bucket

	startAt *time.Time
}

// CategoryGroup is a category and its task details in start order.
type CategoryGroup struct {
	Category string
	Tasks    []TaskDetail
}

// Details returns per-task summaries sorted by start time, with local
// times formatted as HH:MM. Tasks without timing come last in input order.
func (a *Aggregator) Details(tasks []NormalizedTask) []TaskDetail {
	details := make([]TaskDetail, 0, len(tasks))
	for _, task := range tasks {
		d := TaskDetail{
			Title:     task.Title,
			Category:  task.Category,
			Duration:  task.Duration,
			Important: task.IsPriority,
			Bucket:    a.classifier.Classify(task),
		}
		if task.HasTiming() {
			d.startAt = task.Start
			d.Start = task.Start.In(a.loc).Format("15:04")
			d.End = task.End.In(a.loc).Format("15:04")
		}
		details = append(details, d)
	}

	slices.SortStableFunc(details, func(x, y TaskDetail) int {
		switch {
		case x.startAt == nil && y.startAt == nil:
			return 0
		case x.startAt == nil:
			return 1
		case y.startAt == nil:
			return -1
		default:
			return x.startAt.Compare(*y.startAt)
		}
	})
	return details
}

// GroupByCategory groups details by category, keeping the order in which
// each category first appears.
func GroupByCategory(details []TaskDetail) []CategoryGroup {
	var groups []CategoryGroup
	index := make(map[string]int)
	for _, d := range details {
		i, ok := index[d.Category]
		if !ok {
			i = len(groups)
			index[d.Category] = i
			groups = append(groups, CategoryGroup{Category: d.Category})
		}
		groups[i].Tasks = append(groups[i].Tasks, d)
	}
	return groups
}
