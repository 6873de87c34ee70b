package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/GiveMeAjob-job/Bear-Review/internal/review/application/queries"
	"github.com/GiveMeAjob-job/Bear-Review/internal/review/application/services"
	"github.com/GiveMeAjob-job/Bear-Review/internal/review/domain"
	sharedApp "github.com/GiveMeAjob-job/Bear-Review/internal/shared/application"
	"github.com/GiveMeAjob-job/Bear-Review/pkg/observability"
)

// EmptyPeriodBody is the report body for a period without completed tasks.
const EmptyPeriodBody = "这段时间没有已完成的任务记录。"

// Delivery statuses.
const (
	DeliveryOK      = "ok"
	DeliveryFailed  = "error"
	DeliverySkipped = "skipped"
)

// PeriodStatsProvider computes one period's statistics.
type PeriodStatsProvider = sharedApp.QueryHandler[queries.GetPeriodStatsQuery, *queries.PeriodStatsResult]

// TrendProvider computes trend statistics.
type TrendProvider = sharedApp.QueryHandler[queries.GetTrendQuery, *queries.TrendResult]

// GenerateReportCommand represents the command to generate and deliver a review.
type GenerateReportCommand struct {
	// Period is daily, weekly, monthly or trend.
	Period domain.Period
	// TrendDays is the window length of a trend report.
	TrendDays int
	// Now defaults to the current time.
	Now time.Time
	// DryRun skips delivery.
	DryRun bool
}

// CommandName implements sharedApp.Command.
func (GenerateReportCommand) CommandName() string { return "review.generate_report" }

// Delivery is the outcome of one channel.
type Delivery struct {
	Channel string
	Status  string
	Err     error
}

// GenerateReportResult contains the generated report and delivery outcomes.
type GenerateReportResult struct {
	Report     domain.Report
	Prompt     string
	Deliveries []Delivery
}

// Channels returns the channels that finished with the given status.
func (r *GenerateReportResult) Channels(status string) []string {
	var out []string
	for _, d := range r.Deliveries {
		if d.Status == status {
			out = append(out, d.Channel)
		}
	}
	return out
}

var _ sharedApp.CommandHandler[GenerateReportCommand, *GenerateReportResult] = (*GenerateReportHandler)(nil)

// GenerateReportHandler handles generate report commands.
type GenerateReportHandler struct {
	stats     PeriodStatsProvider
	trend     TrendProvider
	prompts   *services.PromptBuilder
	chat      domain.ChatClient
	notifiers []domain.Notifier
	logger    *slog.Logger
	metrics   observability.Metrics
}

// NewGenerateReportHandler creates a new generate report handler.
func NewGenerateReportHandler(
	stats PeriodStatsProvider,
	trend TrendProvider,
	prompts *services.PromptBuilder,
	chat domain.ChatClient,
	notifiers []domain.Notifier,
	logger *slog.Logger,
	metrics observability.Metrics,
) *GenerateReportHandler {
	if logger == nil {
		logger = observability.DiscardLogger()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &GenerateReportHandler{
		stats:     stats,
		trend:     trend,
		prompts:   prompts,
		chat:      chat,
		notifiers: notifiers,
		logger:    logger,
		metrics:   metrics,
	}
}

// Handle executes the generate report command. A report that was generated
// is always returned; the error joins every failed delivery.
func (h *GenerateReportHandler) Handle(ctx context.Context, cmd GenerateReportCommand) (*GenerateReportResult, error) {
	if cmd.Now.IsZero() {
		cmd.Now = time.Now()
	}

	prompt, date, empty, err := h.buildPrompt(ctx, cmd)
	if err != nil {
		return nil, err
	}

	body := EmptyPeriodBody
	if !empty {
		body, err = h.chat.Complete(ctx, services.SystemPrompt, prompt)
		if err != nil {
			return nil, fmt.Errorf("generate %s review: %w", cmd.Period, err)
		}
		body = strings.TrimSpace(body)
	}

	result := &GenerateReportResult{
		Report: domain.NewReport(cmd.Period, date, body),
		Prompt: prompt,
	}

	if cmd.DryRun {
		h.logger.InfoContext(ctx, "dry run, skipping delivery", "command", cmd.CommandName(), "period", cmd.Period)
		return result, nil
	}
	if len(h.notifiers) == 0 {
		h.logger.WarnContext(ctx, "no delivery channels configured")
		return result, nil
	}

	return result, h.deliver(ctx, result)
}

func (h *GenerateReportHandler) buildPrompt(ctx context.Context, cmd GenerateReportCommand) (prompt string, date time.Time, empty bool, err error) {
	if cmd.Period == domain.PeriodTrend {
		trend, err := h.trend.Handle(ctx, queries.GetTrendQuery{Days: cmd.TrendDays, End: cmd.Now})
		if err != nil {
			return "", time.Time{}, false, err
		}
		prompt, err = h.prompts.TrendPrompt(services.TrendPromptInput{Range: trend.Range, Trend: trend.Trend})
		return prompt, trend.Range.To, trend.Trend.Totals.Tasks == 0, err
	}

	stats, err := h.stats.Handle(ctx, queries.GetPeriodStatsQuery{Period: cmd.Period, Now: cmd.Now})
	if err != nil {
		return "", time.Time{}, false, err
	}
	prompt, err = h.prompts.PeriodPrompt(services.PeriodPromptInput{
		Period:    stats.Period,
		Range:     stats.Range,
		Stats:     stats.Stats,
		Groups:    stats.Groups,
		Anomalies: stats.Anomalies,
	})
	today := domain.StartOfDay(cmd.Now, stats.Range.From.Location())
	return prompt, today, stats.Stats.TotalTasks == 0, err
}

// deliver sends the report to every channel. A failing channel never stops
// the others.
func (h *GenerateReportHandler) deliver(ctx context.Context, result *GenerateReportResult) error {
	var errs []error
	for _, notifier := range h.notifiers {
		d := Delivery{Channel: notifier.Name(), Status: DeliveryOK}

		err := notifier.Notify(ctx, result.Report)
		switch {
		case errors.Is(err, domain.ErrAlreadyDelivered):
			d.Status = DeliverySkipped
			h.logger.InfoContext(ctx, "report already delivered", "channel", d.Channel)
		case err != nil:
			d.Status = DeliveryFailed
			d.Err = err
			errs = append(errs, fmt.Errorf("%s: %w", d.Channel, err))
			h.logger.ErrorContext(ctx, "report delivery failed", "channel", d.Channel, observability.ErrorKey, err)
		default:
			h.logger.InfoContext(ctx, "report delivered", "channel", d.Channel, "report_id", result.Report.ID)
		}

		h.metrics.Counter(observability.MetricReportsDelivered, 1,
			observability.T("channel", d.Channel), observability.T(observability.StatusKey, d.Status))
		result.Deliveries = append(result.Deliveries, d)
	}

	h.logger.InfoContext(ctx, "delivery finished",
		"delivered", result.Channels(DeliveryOK),
		"failed", result.Channels(DeliveryFailed),
		"skipped", result.Channels(DeliverySkipped),
	)
	return errors.Join(errs...)
}
