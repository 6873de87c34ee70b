package services

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/GiveMeAjob-job/Bear-Review/internal/review/domain"
)

// SystemPrompt frames every review request.
const SystemPrompt = "你是一个专业的个人效率助手，善于总结任务完成情况并给出实用建议。请用中文回复，保持简洁有条理。"

const closingInstructions = `我的目标：{{.FocusGoal}}

请给出：
1. 三个亮点
2. 一个最需要改进的地方
3. 三个具体的下一步行动
`

const periodTemplate = `以下是我{{periodLabel .Period}}（{{rangeLabel .Range}}）已完成任务的统计。

## 概览
- 完成任务：{{.Stats.TotalTasks}} 个，其中 MIT {{.Stats.ImportantTasks}} 个
- 获得 XP：{{num .Stats.RewardTotal}}
- 番茄数：{{num .Stats.EffortTotal}}
- 有效工作时长：{{num .Stats.MergedProductiveHours}} 小时
- 睡眠 {{num .Stats.SleepHours}} 小时，娱乐 {{num .Stats.LeisureHours}} 小时
- 效率：{{num .Stats.EfficiencyRatio}} XP/小时
{{- with peakHour .Stats}}
- 最常开始任务的时段：{{.}}
{{- end}}

## 分类
{{range $category, $count := .Stats.CategoryCounts}}- {{$category}}：{{$count}} 个
{{else}}- 无
{{end}}
## 任务明细
{{range .Groups}}### {{.Category}}
{{range .Tasks}}- {{if .Important}}[MIT] {{end}}{{.Title}}{{if .Start}}（{{.Start}}-{{.End}}，{{minutes .Duration}} 分钟）{{end}}
{{end}}{{end}}
{{- with .Anomalies}}{{if not .Empty}}
## 时间记录提示
{{- range .CrossMidnight}}
- 跨午夜：{{.}}
{{- end}}
{{- range .LateNight}}
- 深夜开始：{{.}}
{{- end}}
{{- if .SleepOverlap}}
- 睡眠记录有重叠
{{- end}}
{{- if .LeisureOverlap}}
- 娱乐记录有重叠
{{- end}}
{{- if .SpanExceedsDay}}
- 活动跨度超过 24 小时
{{- end}}
{{end}}{{end}}
` + closingInstructions

const trendTemplate = `以下是我最近 {{.Trend.WindowDays}} 天（{{rangeLabel .Range}}）的趋势。

## 每日
{{range .Trend.Days}}- {{date .Date}}：{{.Stats.TotalTasks}} 个任务，{{num .Stats.RewardTotal}} XP，有效工作 {{num .Stats.MergedProductiveHours}} 小时，睡眠 {{num .Stats.SleepHours}} 小时
{{end}}
## 日均
- 任务：{{num .Trend.Averages.Tasks}} 个
- XP：{{num .Trend.Averages.RewardTotal}}
- MIT：{{num .Trend.Averages.ImportantTasks}} 个
- 有效工作：{{num .Trend.Averages.MergedProductiveHours}} 小时
- 睡眠：{{num .Trend.Averages.SleepHours}} 小时
- 娱乐：{{num .Trend.Averages.LeisureHours}} 小时
{{- with .Trend.BestDay}}
- 最佳一天：{{date .Date}}（{{num .Stats.MergedProductiveHours}} 小时）
{{- end}}

` + closingInstructions

var promptFuncs = template.FuncMap{
	"num": func(v float64) string { return fmt.Sprintf("%.1f", v) },
	"minutes": func(d time.Duration) int {
		return int(d.Round(time.Minute).Minutes())
	},
	"date": func(t time.Time) string { return t.Format(time.DateOnly) },
	"rangeLabel": func(r domain.DateRange) string {
		if r.From.Equal(r.To) {
			return r.From.Format(time.DateOnly)
		}
		return r.From.Format(time.DateOnly) + " 至 " + r.To.Format(time.DateOnly)
	},
	"periodLabel": func(p domain.Period) string {
		switch p {
		case domain.PeriodWeekly:
			return "本周"
		case domain.PeriodMonthly:
			return "本月"
		default:
			return "今天"
		}
	},
	"peakHour": func(s domain.PeriodStats) string {
		hour, count := s.PeakHour()
		if count == 0 {
			return ""
		}
		return fmt.Sprintf("%02d:00", hour)
	},
}

var (
	periodPrompt = template.Must(template.New("period").Funcs(promptFuncs).Parse(periodTemplate))
	trendPrompt  = template.Must(template.New("trend").Funcs(promptFuncs).Parse(trendTemplate))
)

// PeriodPromptInput is the data behind a daily, weekly or monthly prompt.
type PeriodPromptInput struct {
	Period    domain.Period
	Range     domain.DateRange
	Stats     domain.PeriodStats
	Groups    []domain.CategoryGroup
	Anomalies domain.AnomalyReport
}

// TrendPromptInput is the data behind a trend prompt.
type TrendPromptInput struct {
	Range domain.DateRange
	Trend domain.TrendStats
}

// PromptBuilder renders review prompts.
type PromptBuilder struct {
	focusGoal string
}

// NewPromptBuilder creates a prompt builder that closes every prompt with
// the given focus goal.
func NewPromptBuilder(focusGoal string) *PromptBuilder {
	return &PromptBuilder{focusGoal: focusGoal}
}

// PeriodPrompt renders the prompt for one period's statistics.
func (b *PromptBuilder) PeriodPrompt(in PeriodPromptInput) (string, error) {
	return render(periodPrompt, struct {
		PeriodPromptInput
		FocusGoal string
	}{in, b.focusGoal})
}

// TrendPrompt renders the prompt for a trend window.
func (b *PromptBuilder) TrendPrompt(in TrendPromptInput) (string, error) {
	return render(trendPrompt, struct {
		TrendPromptInput
		FocusGoal string
	}{in, b.focusGoal})
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
