package cli

import (
	"context"
	"errors"

	"github.com/GiveMeAjob-job/Bear-Review/internal/review/application/commands"
	"github.com/GiveMeAjob-job/Bear-Review/internal/review/application/queries"
)

// ReviewService is the review application as seen by the CLI.
type ReviewService interface {
	GenerateReport(ctx context.Context, cmd commands.GenerateReportCommand) (*commands.GenerateReportResult, error)
	MirrorRecords(ctx context.Context, cmd commands.MirrorRecordsCommand) (*commands.MirrorRecordsResult, error)
	GetPeriodStats(ctx context.Context, query queries.GetPeriodStatsQuery) (*queries.PeriodStatsResult, error)
	GetTrend(ctx context.Context, query queries.GetTrendQuery) (*queries.TrendResult, error)
}

// Server is a long-running HTTP server.
type Server interface {
	Start() error
	Shutdown(ctx context.Context) error
}

var (
	reviewService ReviewService
	apiServer     Server
)

var (
	errServiceUnavailable = errors.New("review service not available: check NOTION_TOKEN and NOTION_DB_ID")
	errServerUnavailable  = errors.New("api server not configured")
)

// SetService configures the review service for CLI commands.
func SetService(service ReviewService) {
	reviewService = service
}

// SetServer configures the server started by the serve command.
func SetServer(server Server) {
	apiServer = server
}
