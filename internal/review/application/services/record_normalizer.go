package services

import (
	"context"
	"log/slog"

	"github.com/GiveMeAjob-job/Bear-Review/internal/review/domain"
	"github.com/GiveMeAjob-job/Bear-Review/pkg/observability"
)

// RecordNormalizer normalizes batches of raw records, logging every
// degraded field as a warning and counting it.
type RecordNormalizer struct {
	normalizer *domain.Normalizer
	logger     *slog.Logger
	metrics    observability.Metrics
}

// NewRecordNormalizer creates a new record normalizer.
func NewRecordNormalizer(normalizer *domain.Normalizer, logger *slog.Logger, metrics observability.Metrics) *RecordNormalizer {
	if logger == nil {
		logger = observability.DiscardLogger()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &RecordNormalizer{
		normalizer: normalizer,
		logger:     logger,
		metrics:    metrics,
	}
}

// NormalizeAll normalizes records in order. The result always has one task
// per record.
func (r *RecordNormalizer) NormalizeAll(ctx context.Context, records []domain.RawRecord) []domain.NormalizedTask {
	tasks := make([]domain.NormalizedTask, 0, len(records))
	for _, raw := range records {
		task, issues := r.normalizer.Normalize(raw)
		for _, issue := range issues {
			r.logger.WarnContext(ctx, "record degraded",
				"record_id", issue.RecordID,
				"field", issue.Field,
				"reason", issue.Reason,
			)
			r.metrics.Counter(observability.MetricRecordsDegraded, 1, observability.T("field", issue.Field))
		}
		tasks = append(tasks, task)
	}
	r.metrics.Counter(observability.MetricRecordsNormalized, int64(len(tasks)))
	return tasks
}
