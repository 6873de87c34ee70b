// Package application contains the application layer for the review bounded context.
package application

import (
	"context"
	"log/slog"

	"github.com/GiveMeAjob-job/Bear-Review/internal/review/application/commands"
	"github.com/GiveMeAjob-job/Bear-Review/internal/review/application/queries"
	"github.com/GiveMeAjob-job/Bear-Review/internal/review/application/services"
	"github.com/GiveMeAjob-job/Bear-Review/internal/review/domain"
	"github.com/GiveMeAjob-job/Bear-Review/pkg/observability"
)

// Dependencies are the collaborators the review service is built from.
// Mirror may be nil when no local mirror is configured.
type Dependencies struct {
	Source           domain.RecordSource
	Mirror           domain.RecordMirror
	// Upstream is where MirrorRecords copies from. Defaults to Source.
	Upstream         domain.RecordSource
	Chat             domain.ChatClient
	Notifiers        []domain.Notifier
	Normalizer       *domain.Normalizer
	Aggregator       *domain.Aggregator
	FocusGoal        string
	FetchConcurrency int
	Logger           *slog.Logger
	Metrics          observability.Metrics
}

// Service provides a facade over all review handlers.
type Service struct {
	// Command handlers
	generateReportHandler *commands.GenerateReportHandler
	mirrorRecordsHandler  *commands.MirrorRecordsHandler

	// Query handlers
	getPeriodStatsHandler *queries.GetPeriodStatsHandler
	getTrendHandler       *queries.GetTrendHandler
}

// NewService creates a new review service.
func NewService(deps Dependencies) *Service {
	normalizer := services.NewRecordNormalizer(deps.Normalizer, deps.Logger, deps.Metrics)
	stats := queries.NewGetPeriodStatsHandler(deps.Source, normalizer, deps.Aggregator, deps.Logger, deps.Metrics)
	trend := queries.NewGetTrendHandler(deps.Source, normalizer, deps.Aggregator, deps.FetchConcurrency, deps.Logger, deps.Metrics)

	s := &Service{
		generateReportHandler: commands.NewGenerateReportHandler(
			stats, trend, services.NewPromptBuilder(deps.FocusGoal), deps.Chat, deps.Notifiers, deps.Logger, deps.Metrics),
		getPeriodStatsHandler: stats,
		getTrendHandler:       trend,
	}
	if deps.Mirror != nil {
		upstream := deps.Upstream
		if upstream == nil {
			upstream = deps.Source
		}
		s.mirrorRecordsHandler = commands.NewMirrorRecordsHandler(
			upstream, deps.Mirror, deps.Aggregator.Location(), deps.Logger, deps.Metrics)
	}
	return s
}

// GenerateReport generates a review and delivers it.
func (s *Service) GenerateReport(ctx context.Context, cmd commands.GenerateReportCommand) (*commands.GenerateReportResult, error) {
	return s.generateReportHandler.Handle(ctx, cmd)
}

// MirrorRecords copies recent records into the local mirror.
func (s *Service) MirrorRecords(ctx context.Context, cmd commands.MirrorRecordsCommand) (*commands.MirrorRecordsResult, error) {
	if s.mirrorRecordsHandler == nil {
		return nil, ErrMirrorNotConfigured
	}
	return s.mirrorRecordsHandler.Handle(ctx, cmd)
}

// GetPeriodStats returns one period's statistics.
func (s *Service) GetPeriodStats(ctx context.Context, query queries.GetPeriodStatsQuery) (*queries.PeriodStatsResult, error) {
	return s.getPeriodStatsHandler.Handle(ctx, query)
}

// GetTrend returns trend statistics.
func (s *Service) GetTrend(ctx context.Context, query queries.GetTrendQuery) (*queries.TrendResult, error) {
	return s.getTrendHandler.Handle(ctx, query)
}
