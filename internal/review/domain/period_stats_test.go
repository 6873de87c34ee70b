package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAggregator() *Aggregator {
	return NewAggregator(NewClassifier(DefaultClassifierConfig()), time.UTC)
}

func TestAggregator_Aggregate_Empty(t *testing.T) {
	stats := newTestAggregator().Aggregate(nil)

	assert.Zero(t, stats.TotalTasks)
	assert.Zero(t, stats.RewardTotal)
	assert.Zero(t, stats.EffortTotal)
	assert.Zero(t, stats.ImportantTasks)
	assert.NotNil(t, stats.CategoryCounts)
	assert.Empty(t, stats.CategoryCounts)
	assert.Empty(t, stats.BucketCounts)
	assert.Nil(t, stats.EarliestActivity)
	assert.Nil(t, stats.LatestActivity)
	assert.Zero(t, stats.ElapsedSpan)
	assert.Zero(t, stats.MergedProductiveHours)
	assert.Zero(t, stats.SleepHours)
	assert.Zero(t, stats.LeisureHours)
	assert.Zero(t, stats.EfficiencyRatio)
	assert.Equal(t, [HoursPerDay]int{}, stats.HourlyHistogram)
}

func TestAggregator_Aggregate_OverlappingProductiveTasksMerge(t *testing.T) {
	tasks := []NormalizedTask{
		timedTask("Task A", "Work", at(9, 0), at(11, 0)),
		timedTask("Task B", "Work", at(10, 0), at(12, 0)),
	}

	stats := newTestAggregator().Aggregate(tasks)

	// 09:00-12:00 is occupied once, not 2h + 2h.
	assert.InDelta(t, 3.0, stats.MergedProductiveHours, 1e-9)
	assert.Less(t, stats.MergedProductiveHours, 4.0)
	require.NotNil(t, stats.EarliestActivity)
	require.NotNil(t, stats.LatestActivity)
	assert.Equal(t, at(9, 0), *stats.EarliestActivity)
	assert.Equal(t, at(12, 0), *stats.LatestActivity)
	assert.Equal(t, 3*time.Hour, stats.ElapsedSpan)
}

func TestAggregator_Aggregate_SleepKeywordExcludedFromProductive(t *testing.T) {
	tasks := []NormalizedTask{
		timedTask("evening nap", "Work", at(14, 0), at(15, 30)),
		timedTask("Write docs", "Work", at(9, 0), at(10, 0)),
	}

	stats := newTestAggregator().Aggregate(tasks)

	assert.InDelta(t, 1.5, stats.SleepHours, 1e-9)
	assert.InDelta(t, 1.0, stats.MergedProductiveHours, 1e-9)
	assert.Equal(t, 1, stats.BucketCounts[BucketSleep])
	assert.Equal(t, 1, stats.BucketCounts[BucketProductive])
}

func TestAggregator_Aggregate_LeisureIsSummedWithoutMerge(t *testing.T) {
	tasks := []NormalizedTask{
		timedTask("Movie", "Personal", at(19, 0), at(21, 0)),
		timedTask("Game night", "Personal", at(20, 0), at(22, 0)),
	}

	stats := newTestAggregator().Aggregate(tasks)

	assert.InDelta(t, 4.0, stats.LeisureHours, 1e-9)
	assert.Zero(t, stats.MergedProductiveHours)
}

func TestAggregator_Aggregate_StartWithoutEnd(t *testing.T) {
	start := at(9, 0)
	tasks := []NormalizedTask{
		{Title: "Quick call", Category: "Work", IsPriority: true, RewardPoints: 10, Start: &start, End: &start},
	}

	stats := newTestAggregator().Aggregate(tasks)

	assert.Equal(t, 1, stats.TotalTasks)
	assert.Equal(t, 1, stats.ImportantTasks)
	assert.Equal(t, map[string]int{"Work": 1}, stats.CategoryCounts)
	assert.Zero(t, stats.MergedProductiveHours)
	assert.Zero(t, stats.SleepHours)
	assert.Zero(t, stats.LeisureHours)
	assert.Equal(t, 1, stats.HourlyHistogram[9])
}

func TestAggregator_Aggregate_UntimedTasksCountButHaveNoTime(t *testing.T) {
	tasks := []NormalizedTask{
		{Title: "Undated chore", Category: "Home", RewardPoints: 5, Degraded: true},
	}

	stats := newTestAggregator().Aggregate(tasks)

	assert.Equal(t, 1, stats.TotalTasks)
	assert.Equal(t, 5.0, stats.RewardTotal)
	assert.Equal(t, 1, stats.DegradedRecords)
	assert.Zero(t, stats.TimedTasks)
	assert.Nil(t, stats.EarliestActivity)
	assert.Equal(t, [HoursPerDay]int{}, stats.HourlyHistogram)
}

func TestAggregator_Aggregate_InvertedIntervalKeepsNonTimeStats(t *testing.T) {
	inverted := timedTask("Backwards", "Work", at(12, 0), at(10, 0))
	inverted.RewardPoints = 5
	inverted.EffortUnits = 2
	inverted.IsPriority = true

	stats := newTestAggregator().Aggregate([]NormalizedTask{inverted})

	assert.Equal(t, 1, stats.TotalTasks)
	assert.Equal(t, 1, stats.ImportantTasks)
	assert.Equal(t, 5.0, stats.RewardTotal)
	assert.Equal(t, 2.0, stats.EffortTotal)
	assert.Equal(t, map[string]int{"Work": 1}, stats.CategoryCounts)
	assert.Zero(t, stats.TimedTasks)
	assert.Zero(t, stats.MergedProductiveHours)
	assert.Zero(t, stats.SleepHours)
	assert.Zero(t, stats.LeisureHours)
	assert.Zero(t, stats.EfficiencyRatio)
	assert.Zero(t, stats.ElapsedSpan)
	assert.Nil(t, stats.EarliestActivity)
	assert.Equal(t, [HoursPerDay]int{}, stats.HourlyHistogram)
}

func TestAggregator_Aggregate_InvertedIntervalDoesNotShrinkOthers(t *testing.T) {
	tasks := []NormalizedTask{
		timedTask("Deep work", "Work", at(9, 0), at(11, 0)),
		timedTask("Backwards", "Work", at(12, 0), at(10, 0)),
	}

	stats := newTestAggregator().Aggregate(tasks)

	assert.Equal(t, 2, stats.TotalTasks)
	assert.Equal(t, 1, stats.TimedTasks)
	assert.InDelta(t, 2.0, stats.MergedProductiveHours, 1e-9)
	assert.Equal(t, 2*time.Hour, stats.ElapsedSpan)
}

func TestAggregator_Aggregate_EfficiencyIsZeroWithoutProductiveTime(t *testing.T) {
	tasks := []NormalizedTask{
		{Title: "Untimed", Category: "Work", RewardPoints: 50},
		timedTask("Nap", "Health", at(13, 0), at(14, 0)),
	}

	stats := newTestAggregator().Aggregate(tasks)

	assert.Equal(t, 50.0, stats.RewardTotal)
	assert.Zero(t, stats.MergedProductiveHours)
	assert.Equal(t, 0.0, stats.EfficiencyRatio)
}

func TestAggregator_Aggregate_Efficiency(t *testing.T) {
	a := timedTask("Deep work", "Work", at(9, 0), at(11, 0))
	a.RewardPoints = 10
	b := timedTask("Review", "Work", at(10, 0), at(11, 0))
	b.RewardPoints = 5

	stats := newTestAggregator().Aggregate([]NormalizedTask{a, b})

	assert.InDelta(t, 7.5, stats.EfficiencyRatio, 1e-9)
}

func TestAggregator_Aggregate_CategoryCountsAreOrderIndependent(t *testing.T) {
	first := NormalizedTask{Title: "Chapter 1", Category: "Study", RewardPoints: 10}
	second := NormalizedTask{Title: "Chapter 2", Category: "Study", RewardPoints: 5}

	forward := newTestAggregator().Aggregate([]NormalizedTask{first, second})
	backward := newTestAggregator().Aggregate([]NormalizedTask{second, first})

	assert.Equal(t, map[string]int{"Study": 2}, forward.CategoryCounts)
	assert.Equal(t, 15.0, forward.RewardTotal)
	assert.Equal(t, forward.CategoryCounts, backward.CategoryCounts)
	assert.Equal(t, forward.RewardTotal, backward.RewardTotal)
}

func TestAggregator_Aggregate_CategorySumEqualsTotal(t *testing.T) {
	tasks := []NormalizedTask{
		timedTask("A", "Work", at(8, 0), at(9, 0)),
		timedTask("B", "Study", at(9, 0), at(10, 0)),
		timedTask("C", "Work", at(11, 0), at(12, 0)),
		{Title: "D", Category: Uncategorized},
	}

	stats := newTestAggregator().Aggregate(tasks)

	sum := 0
	for _, c := range stats.CategoryCounts {
		sum += c
	}
	assert.Equal(t, stats.TotalTasks, sum)
	assert.Equal(t, len(tasks), sum)

	bucketSum := 0
	for _, c := range stats.BucketCounts {
		bucketSum += c
	}
	assert.Equal(t, len(tasks), bucketSum)
}

func TestAggregator_Aggregate_HourlyHistogramUsesLocation(t *testing.T) {
	toronto, err := time.LoadLocation("America/Toronto")
	require.NoError(t, err)
	aggregator := NewAggregator(nil, toronto)

	stats := aggregator.Aggregate([]NormalizedTask{
		timedTask("Morning", "Work", at(13, 0), at(14, 0)),
	})

	assert.Equal(t, 1, stats.HourlyHistogram[9])
	hour, count := stats.PeakHour()
	assert.Equal(t, 9, hour)
	assert.Equal(t, 1, count)
}

func TestAggregator_Aggregate_CrossMidnightSpan(t *testing.T) {
	tasks := []NormalizedTask{
		timedTask("Late coding", "Work", at(23, 0), at(25, 30)),
	}

	stats := newTestAggregator().Aggregate(tasks)

	assert.InDelta(t, 2.5, stats.MergedProductiveHours, 1e-9)
	assert.Equal(t, 150*time.Minute, stats.ElapsedSpan)
}
