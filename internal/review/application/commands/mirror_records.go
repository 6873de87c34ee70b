package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GiveMeAjob-job/Bear-Review/internal/review/domain"
	sharedApp "github.com/GiveMeAjob-job/Bear-Review/internal/shared/application"
	"github.com/GiveMeAjob-job/Bear-Review/pkg/observability"
)

// MirrorRecordsCommand represents the command to copy the last Days days of
// completed records into the local mirror.
type MirrorRecordsCommand struct {
	Days int
	// End defaults to the current time.
	End time.Time
}

// CommandName implements sharedApp.Command.
func (MirrorRecordsCommand) CommandName() string { return "review.mirror_records" }

// MirrorRecordsResult reports what was copied.
type MirrorRecordsResult struct {
	Range   domain.DateRange
	Fetched int
	Written int
}

var _ sharedApp.CommandHandler[MirrorRecordsCommand, *MirrorRecordsResult] = (*MirrorRecordsHandler)(nil)

// MirrorRecordsHandler handles mirror records commands.
type MirrorRecordsHandler struct {
	source  domain.RecordSource
	mirror  domain.RecordMirror
	loc     *time.Location
	logger  *slog.Logger
	metrics observability.Metrics
}

// NewMirrorRecordsHandler creates a new mirror records handler.
func NewMirrorRecordsHandler(
	source domain.RecordSource,
	mirror domain.RecordMirror,
	loc *time.Location,
	logger *slog.Logger,
	metrics observability.Metrics,
) *MirrorRecordsHandler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = observability.DiscardLogger()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &MirrorRecordsHandler{
		source:  source,
		mirror:  mirror,
		loc:     loc,
		logger:  logger,
		metrics: metrics,
	}
}

// Handle executes the mirror records command.
func (h *MirrorRecordsHandler) Handle(ctx context.Context, cmd MirrorRecordsCommand) (*MirrorRecordsResult, error) {
	if cmd.End.IsZero() {
		cmd.End = time.Now()
	}

	window, err := domain.TrendWindow(cmd.End, cmd.Days, h.loc)
	if err != nil {
		return nil, err
	}

	records, err := h.source.FetchCompleted(ctx, window.From, window.To)
	if err != nil {
		return nil, fmt.Errorf("fetch records to mirror: %w", err)
	}

	written, err := h.mirror.Upsert(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("mirror records: %w", err)
	}
	h.metrics.Counter(observability.MetricMirrorUpserts, int64(written))

	h.logger.InfoContext(ctx, "records mirrored",
		"command", cmd.CommandName(),
		"from", window.From.Format(time.DateOnly),
		"to", window.To.Format(time.DateOnly),
		"fetched", len(records),
		"written", written,
	)

	return &MirrorRecordsResult{Range: window, Fetched: len(records), Written: written}, nil
}
