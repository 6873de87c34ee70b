package queries

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GiveMeAjob-job/Bear-Review/internal/review/application/services"
	"github.com/GiveMeAjob-job/Bear-Review/internal/review/domain"
	sharedApp "github.com/GiveMeAjob-job/Bear-Review/internal/shared/application"
	"github.com/GiveMeAjob-job/Bear-Review/pkg/observability"
)

// GetPeriodStatsQuery asks for the statistics of the period containing Now.
type GetPeriodStatsQuery struct {
	Period domain.Period
	// Now defaults to the current time.
	Now time.Time
}

// QueryName implements sharedApp.Query.
func (GetPeriodStatsQuery) QueryName() string { return "review.period_stats" }

// PeriodStatsResult contains one period's statistics and task details.
type PeriodStatsResult struct {
	Period    domain.Period
	Range     domain.DateRange
	Records   int
	Stats     domain.PeriodStats
	Details   []domain.TaskDetail
	Groups    []domain.CategoryGroup
	Anomalies domain.AnomalyReport
}

var _ sharedApp.QueryHandler[GetPeriodStatsQuery, *PeriodStatsResult] = (*GetPeriodStatsHandler)(nil)

// GetPeriodStatsHandler handles period statistics queries.
type GetPeriodStatsHandler struct {
	source     domain.RecordSource
	normalizer *services.RecordNormalizer
	aggregator *domain.Aggregator
	logger     *slog.Logger
	metrics    observability.Metrics
}

// NewGetPeriodStatsHandler creates a new get period stats handler.
func NewGetPeriodStatsHandler(
	source domain.RecordSource,
	normalizer *services.RecordNormalizer,
	aggregator *domain.Aggregator,
	logger *slog.Logger,
	metrics observability.Metrics,
) *GetPeriodStatsHandler {
	if logger == nil {
		logger = observability.DiscardLogger()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &GetPeriodStatsHandler{
		source:     source,
		normalizer: normalizer,
		aggregator: aggregator,
		logger:     logger,
		metrics:    metrics,
	}
}

// Handle executes the get period stats query.
func (h *GetPeriodStatsHandler) Handle(ctx context.Context, query GetPeriodStatsQuery) (*PeriodStatsResult, error) {
	if query.Now.IsZero() {
		query.Now = time.Now()
	}

	dateRange, err := query.Period.Range(query.Now, h.aggregator.Location())
	if err != nil {
		return nil, err
	}

	records, err := fetch(ctx, h.source, h.logger, h.metrics, dateRange.From, dateRange.To)
	if err != nil {
		return nil, err
	}

	tasks := h.normalizer.NormalizeAll(ctx, records)
	stats := h.aggregator.Aggregate(tasks)
	details := h.aggregator.Details(tasks)
	h.metrics.Gauge(observability.MetricLastTrackedHours, stats.MergedProductiveHours, observability.T("period", query.Period.String()))

	h.logger.InfoContext(ctx, "period stats computed",
		"query", query.QueryName(),
		"period", query.Period,
		"from", dateRange.From.Format(time.DateOnly),
		"to", dateRange.To.Format(time.DateOnly),
		"tasks", stats.TotalTasks,
		"degraded", stats.DegradedRecords,
	)

	return &PeriodStatsResult{
		Period:    query.Period,
		Range:     dateRange,
		Records:   len(records),
		Stats:     stats,
		Details:   details,
		Groups:    domain.GroupByCategory(details),
		Anomalies: h.aggregator.ScanAnomalies(tasks),
	}, nil
}

// fetch loads one range of records and records the outcome.
func fetch(ctx context.Context, source domain.RecordSource, logger *slog.Logger, metrics observability.Metrics, from, to time.Time) ([]domain.RawRecord, error) {
	records, err := observability.TimeOperationResult(logger, metrics, "fetch_records", func() ([]domain.RawRecord, error) {
		return source.FetchCompleted(ctx, from, to)
	})
	if err != nil {
		metrics.Counter(observability.MetricSourceFetch, 1, observability.T(observability.StatusKey, "error"))
		return nil, fmt.Errorf("fetch records %s..%s: %w", from.Format(time.DateOnly), to.Format(time.DateOnly), err)
	}
	metrics.Counter(observability.MetricSourceFetch, 1, observability.T(observability.StatusKey, "ok"))
	return records, nil
}
