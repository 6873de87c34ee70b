package services

import (
	"strings"
	"testing"
	"time"

	"github.com/GiveMeAjob-job/Bear-Review/internal/review/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timed(title, category string, start, end time.Time) domain.NormalizedTask {
	return domain.NormalizedTask{Title: title, Category: category, Start: &start, End: &end, Duration: end.Sub(start)}
}

func TestPromptBuilder_PeriodPrompt(t *testing.T) {
	day := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)
	aggregator := domain.NewAggregator(nil, time.UTC)

	important := timed("Plan sprint", "Work", day.Add(9*time.Hour), day.Add(11*time.Hour))
	important.IsPriority = true
	important.RewardPoints = 10
	tasks := []domain.NormalizedTask{
		important,
		timed("Late movie", "Fun", day.Add(22*time.Hour), day.Add(25*time.Hour)),
		{Title: "Inbox zero", Category: "Work"},
	}

	prompt, err := NewPromptBuilder("ship the beta").PeriodPrompt(PeriodPromptInput{
		Period:    domain.PeriodDaily,
		Range:     domain.DateRange{From: day, To: day},
		Stats:     aggregator.Aggregate(tasks),
		Groups:    domain.GroupByCategory(aggregator.Details(tasks)),
		Anomalies: aggregator.ScanAnomalies(tasks),
	})

	require.NoError(t, err)
	assert.Contains(t, prompt, "今天（2024-03-12）")
	assert.Contains(t, prompt, "完成任务：3 个，其中 MIT 1 个")
	assert.Contains(t, prompt, "有效工作时长：2.0 小时")
	assert.Contains(t, prompt, "最常开始任务的时段：09:00")
	assert.Contains(t, prompt, "- Work：2 个")
	assert.Contains(t, prompt, "[MIT] Plan sprint（09:00-11:00，120 分钟）")
	assert.Contains(t, prompt, "- Inbox zero\n")
	assert.Contains(t, prompt, "跨午夜：Late movie")
	assert.Contains(t, prompt, "深夜开始：Late movie")
	assert.Contains(t, prompt, "我的目标：ship the beta")
	assert.Contains(t, prompt, "三个亮点")
	assert.True(t, strings.Index(prompt, "### Work") < strings.Index(prompt, "### Fun"))
}

func TestPromptBuilder_PeriodPrompt_Empty(t *testing.T) {
	from := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)

	prompt, err := NewPromptBuilder("rest").PeriodPrompt(PeriodPromptInput{
		Period: domain.PeriodWeekly,
		Range:  domain.DateRange{From: from, To: from.AddDate(0, 0, 6)},
		Stats:  domain.EmptyPeriodStats(),
	})

	require.NoError(t, err)
	assert.Contains(t, prompt, "本周（2024-03-11 至 2024-03-17）")
	assert.Contains(t, prompt, "- 无")
	assert.NotContains(t, prompt, "最常开始任务的时段")
	assert.NotContains(t, prompt, "时间记录提示")
}

func TestPromptBuilder_TrendPrompt(t *testing.T) {
	day1 := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	aggregator := domain.NewAggregator(nil, time.UTC)

	trend, err := aggregator.AggregateTrend([]domain.DayInput{
		{Date: day1, Tasks: []domain.NormalizedTask{timed("Deep work", "Work", day1.Add(9*time.Hour), day1.Add(13*time.Hour))}},
		{Date: day2},
	})
	require.NoError(t, err)

	prompt, err := NewPromptBuilder("focus").TrendPrompt(TrendPromptInput{
		Range: domain.DateRange{From: day1, To: day2},
		Trend: trend,
	})

	require.NoError(t, err)
	assert.Contains(t, prompt, "最近 2 天（2024-03-12 至 2024-03-13）")
	assert.Contains(t, prompt, "- 2024-03-13：0 个任务")
	assert.Contains(t, prompt, "有效工作：2.0 小时")
	assert.Contains(t, prompt, "最佳一天：2024-03-12（4.0 小时）")
	assert.Contains(t, prompt, "我的目标：focus")
}
