package queries

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/GiveMeAjob-job/Bear-Review/internal/review/application/services"
	"github.com/GiveMeAjob-job/Bear-Review/internal/review/domain"
	"github.com/GiveMeAjob-job/Bear-Review/internal/review/reviewtest"
	"github.com/GiveMeAjob-job/Bear-Review/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockSource is a mock implementation of domain.RecordSource.
type mockSource struct {
	mock.Mock
}

func (m *mockSource) FetchCompleted(ctx context.Context, from, to time.Time) ([]domain.RawRecord, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RawRecord), args.Error(1)
}

func toronto(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Toronto")
	require.NoError(t, err)
	return loc
}

func newNormalizer(t *testing.T, loc *time.Location, metrics observability.Metrics) *services.RecordNormalizer {
	t.Helper()
	return services.NewRecordNormalizer(
		domain.NewNormalizer(domain.DefaultRecordSchema(), domain.WithDateLocation(loc)), nil, metrics)
}

func sampleRecords() []domain.RawRecord {
	return []domain.RawRecord{
		reviewtest.NewPage("a").Title("Write proposal").Category("Work").Important().
			Planned("2024-03-12T09:00:00-04:00", "2024-03-12T11:00:00-04:00").Record(),
		reviewtest.NewPage("b").Title("Review PRs").Category("Work").XP(5).
			Planned("2024-03-12T10:00:00-04:00", "2024-03-12T12:00:00-04:00").Record(),
		reviewtest.NewPage("c").Title("Gym").Category("Health").Priority("Normal").
			Planned("2024-03-11T18:00:00-04:00", "2024-03-11T19:00:00-04:00").Record(),
		reviewtest.NewPage("d").Title("Unfinished").Category("Work").Status("In progress").
			Planned("2024-03-12T13:00:00-04:00", "2024-03-12T14:00:00-04:00").Record(),
	}
}

func TestGetPeriodStatsHandler_Handle(t *testing.T) {
	loc := toronto(t)
	now := time.Date(2024, 3, 12, 15, 0, 0, 0, loc)

	t.Run("daily stats with details", func(t *testing.T) {
		metrics := observability.NewInMemoryMetrics()
		source := reviewtest.NewInMemorySource(loc, sampleRecords()...)
		handler := NewGetPeriodStatsHandler(source, newNormalizer(t, loc, metrics), domain.NewAggregator(nil, loc), nil, metrics)

		result, err := handler.Handle(context.Background(), GetPeriodStatsQuery{Period: domain.PeriodDaily, Now: now})

		require.NoError(t, err)
		assert.Equal(t, domain.PeriodDaily, result.Period)
		assert.Equal(t, 2, result.Records)
		assert.Equal(t, 2, result.Stats.TotalTasks)
		assert.Equal(t, 15.0, result.Stats.RewardTotal)
		assert.Equal(t, 1, result.Stats.ImportantTasks)
		assert.InDelta(t, 3.0, result.Stats.MergedProductiveHours, 1e-9)
		assert.InDelta(t, 5.0, result.Stats.EfficiencyRatio, 1e-9)
		require.Len(t, result.Details, 2)
		assert.Equal(t, "09:00", result.Details[0].Start)
		require.Len(t, result.Groups, 1)
		assert.True(t, result.Anomalies.Empty())

		assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricSourceFetch, observability.T(observability.StatusKey, "ok")))
		assert.Equal(t, 3.0, metrics.GetGauge(observability.MetricLastTrackedHours, observability.T("period", "daily")))
	})

	t.Run("weekly range starts on monday", func(t *testing.T) {
		source := reviewtest.NewInMemorySource(loc, sampleRecords()...)
		handler := NewGetPeriodStatsHandler(source, newNormalizer(t, loc, nil), domain.NewAggregator(nil, loc), nil, nil)

		result, err := handler.Handle(context.Background(), GetPeriodStatsQuery{Period: domain.PeriodWeekly, Now: now})

		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, loc), result.Range.From)
		assert.Equal(t, 3, result.Stats.TotalTasks)
		assert.Equal(t, 2, result.Stats.CategoryCounts["Work"])
		assert.Equal(t, 1, result.Stats.CategoryCounts["Health"])
	})

	t.Run("source failure", func(t *testing.T) {
		metrics := observability.NewInMemoryMetrics()
		source := new(mockSource)
		boom := errors.New("notion unavailable")
		source.On("FetchCompleted", mock.Anything, mock.Anything, mock.Anything).Return(nil, boom)
		handler := NewGetPeriodStatsHandler(source, newNormalizer(t, loc, nil), domain.NewAggregator(nil, loc), nil, metrics)

		result, err := handler.Handle(context.Background(), GetPeriodStatsQuery{Period: domain.PeriodDaily, Now: now})

		assert.Nil(t, result)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricSourceFetch, observability.T(observability.StatusKey, "error")))
		source.AssertExpectations(t)
	})

	t.Run("unknown period", func(t *testing.T) {
		source := new(mockSource)
		handler := NewGetPeriodStatsHandler(source, newNormalizer(t, loc, nil), domain.NewAggregator(nil, loc), nil, nil)

		_, err := handler.Handle(context.Background(), GetPeriodStatsQuery{Period: "yearly", Now: now})

		assert.ErrorIs(t, err, domain.ErrUnknownPeriod)
		source.AssertNotCalled(t, "FetchCompleted", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestGetTrendHandler_Handle(t *testing.T) {
	loc := toronto(t)
	end := time.Date(2024, 3, 13, 12, 0, 0, 0, loc)

	t.Run("keeps empty days in the window", func(t *testing.T) {
		records := []domain.RawRecord{
			reviewtest.NewPage("a").Title("Plan").Category("Work").Important().
				Planned("2024-03-11T09:00:00-04:00", "2024-03-11T10:00:00-04:00").Record(),
			reviewtest.NewPage("b").Title("Build").Category("Work").Important().
				Planned("2024-03-13T09:00:00-04:00", "2024-03-13T12:00:00-04:00").Record(),
		}
		source := reviewtest.NewInMemorySource(loc, records...)
		handler := NewGetTrendHandler(source, newNormalizer(t, loc, nil), domain.NewAggregator(nil, loc), 2, nil, nil)

		result, err := handler.Handle(context.Background(), GetTrendQuery{Days: 3, End: end})

		require.NoError(t, err)
		assert.Equal(t, 3, source.Calls())
		assert.Equal(t, 2, result.Records)
		assert.Equal(t, 3, result.Trend.WindowDays)
		require.Len(t, result.Trend.Days, 3)
		assert.Equal(t, time.Date(2024, 3, 12, 0, 0, 0, 0, loc), result.Trend.Days[1].Date)
		assert.Zero(t, result.Trend.Days[1].Stats.TotalTasks)
		assert.Equal(t, 20.0, result.Trend.Totals.RewardTotal)
		assert.InDelta(t, 4.0/3, result.Trend.Averages.MergedProductiveHours, 1e-9)
		require.NotNil(t, result.Trend.BestDay)
		assert.Equal(t, time.Date(2024, 3, 13, 0, 0, 0, 0, loc), result.Trend.BestDay.Date)
	})

	t.Run("empty window", func(t *testing.T) {
		source := new(mockSource)
		handler := NewGetTrendHandler(source, newNormalizer(t, loc, nil), domain.NewAggregator(nil, loc), 0, nil, nil)

		_, err := handler.Handle(context.Background(), GetTrendQuery{Days: 0, End: end})

		assert.ErrorIs(t, err, domain.ErrEmptyWindow)
		source.AssertNotCalled(t, "FetchCompleted", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("oversized window is rejected before fetching", func(t *testing.T) {
		source := new(mockSource)
		handler := NewGetTrendHandler(source, newNormalizer(t, loc, nil), domain.NewAggregator(nil, loc), 0, nil, nil)

		_, err := handler.Handle(context.Background(), GetTrendQuery{Days: 200000, End: end})

		assert.ErrorIs(t, err, domain.ErrWindowTooLarge)
		source.AssertNotCalled(t, "FetchCompleted", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("failed day fails the trend", func(t *testing.T) {
		source := new(mockSource)
		boom := errors.New("rate limited")
		source.On("FetchCompleted", mock.Anything, mock.Anything, mock.Anything).Return(nil, boom)
		handler := NewGetTrendHandler(source, newNormalizer(t, loc, nil), domain.NewAggregator(nil, loc), 1, nil, nil)

		_, err := handler.Handle(context.Background(), GetTrendQuery{Days: 2, End: end})

		assert.ErrorIs(t, err, boom)
	})

	t.Run("bounds concurrent fetches", func(t *testing.T) {
		source := &slowSource{delay: 20 * time.Millisecond}
		handler := NewGetTrendHandler(source, newNormalizer(t, loc, nil), domain.NewAggregator(nil, loc), 2, nil, nil)

		_, err := handler.Handle(context.Background(), GetTrendQuery{Days: 6, End: end})

		require.NoError(t, err)
		assert.Equal(t, int32(6), source.calls.Load())
		assert.LessOrEqual(t, source.maxInFlight.Load(), int32(2))
	})
}

// slowSource records how many fetches overlap.
type slowSource struct {
	delay       time.Duration
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	calls       atomic.Int32
}

func (s *slowSource) FetchCompleted(ctx context.Context, from, to time.Time) ([]domain.RawRecord, error) {
	s.calls.Add(1)
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		current := s.maxInFlight.Load()
		if n <= current || s.maxInFlight.CompareAndSwap(current, n) {
			break
		}
	}
	time.Sleep(s.delay)
	return nil, nil
}
