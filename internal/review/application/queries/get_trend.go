package queries

import (
	"context"
	"log/slog"
	"time"

	"github.com/GiveMeAjob-job/Bear-Review/internal/review/application/services"
	"github.com/GiveMeAjob-job/Bear-Review/internal/review/domain"
	sharedApp "github.com/GiveMeAjob-job/Bear-Review/internal/shared/application"
	"github.com/GiveMeAjob-job/Bear-Review/pkg/observability"
	"golang.org/x/sync/errgroup"
)

// DefaultFetchConcurrency bounds parallel day fetches when none is configured.
const DefaultFetchConcurrency = 4

// GetTrendQuery asks for a trend over the Days days ending on the day
// containing End.
type GetTrendQuery struct {
	Days int
	// End defaults to the current time.
	End time.Time
}

// QueryName implements sharedApp.Query.
func (GetTrendQuery) QueryName() string { return "review.trend" }

// TrendResult contains trend statistics for a window.
type TrendResult struct {
	Range   domain.DateRange
	Records int
	Trend   domain.TrendStats
}

var _ sharedApp.QueryHandler[GetTrendQuery, *TrendResult] = (*GetTrendHandler)(nil)

// GetTrendHandler handles trend queries.
type GetTrendHandler struct {
	source      domain.RecordSource
	normalizer  *services.RecordNormalizer
	aggregator  *domain.Aggregator
	concurrency int
	logger      *slog.Logger
	metrics     observability.Metrics
}

// NewGetTrendHandler creates a new get trend handler. Days are fetched with
// at most concurrency requests in flight.
func NewGetTrendHandler(
	source domain.RecordSource,
	normalizer *services.RecordNormalizer,
	aggregator *domain.Aggregator,
	concurrency int,
	logger *slog.Logger,
	metrics observability.Metrics,
) *GetTrendHandler {
	if concurrency < 1 {
		concurrency = DefaultFetchConcurrency
	}
	if logger == nil {
		logger = observability.DiscardLogger()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &GetTrendHandler{
		source:      source,
		normalizer:  normalizer,
		aggregator:  aggregator,
		concurrency: concurrency,
		logger:      logger,
		metrics:     metrics,
	}
}

// Handle executes the get trend query. Any failed day fails the query.
func (h *GetTrendHandler) Handle(ctx context.Context, query GetTrendQuery) (*TrendResult, error) {
	if query.End.IsZero() {
		query.End = time.Now()
	}

	window, err := domain.TrendWindow(query.End, query.Days, h.aggregator.Location())
	if err != nil {
		return nil, err
	}
	days := window.Days()

	perDay := make([][]domain.RawRecord, len(days))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.concurrency)
	for i, day := range days {
		g.Go(func() error {
			records, err := fetch(gctx, h.source, h.logger, h.metrics, day, day)
			if err != nil {
				return err
			}
			perDay[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	inputs := make([]domain.DayInput, len(days))
	records := 0
	for i, day := range days {
		records += len(perDay[i])
		inputs[i] = domain.DayInput{Date: day, Tasks: h.normalizer.NormalizeAll(ctx, perDay[i])}
	}

	trend, err := h.aggregator.AggregateTrend(inputs)
	if err != nil {
		return nil, err
	}

	h.logger.InfoContext(ctx, "trend computed",
		"query", query.QueryName(),
		"days", trend.WindowDays,
		"from", window.From.Format(time.DateOnly),
		"to", window.To.Format(time.DateOnly),
		"tasks", trend.Totals.Tasks,
	)

	return &TrendResult{Range: window, Records: records, Trend: trend}, nil
}
