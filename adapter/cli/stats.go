package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/GiveMeAjob-job/Bear-Review/internal/review/application/queries"
	"github.com/GiveMeAjob-job/Bear-Review/internal/review/domain"
)

var (
	statsPeriod string
	statsDate   string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show time statistics for a period",
	Long: `Display where the time went without calling the LLM:
- Task, reward and effort totals
- Productive, sleep and leisure hours
- Category breakdown and task timeline
- Timing anomalies

Examples:
  bear-review stats                     # Today
  bear-review stats --period weekly     # This week
  bear-review stats --date 2024-03-12   # A past day`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if reviewService == nil {
			return errServiceUnavailable
		}
		period, err := domain.ParsePeriod(statsPeriod)
		if err != nil {
			return err
		}
		now, err := parseDateFlag(statsDate)
		if err != nil {
			return err
		}

		result, err := reviewService.GetPeriodStats(cmd.Context(), queries.GetPeriodStatsQuery{Period: period, Now: now})
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}
		printPeriodStats(cmd.OutOrStdout(), result)
		return nil
	},
}

// parseDateFlag parses a YYYY-MM-DD flag in local time. Empty means now.
func parseDateFlag(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD", s)
	}
	return t.Add(12 * time.Hour), nil
}

func printPeriodStats(out io.Writer, r *queries.PeriodStatsResult) {
	s := r.Stats
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %s STATS  %s .. %s\n", strings.ToUpper(r.Period.String()),
		r.Range.From.Format(time.DateOnly), r.Range.To.Format(time.DateOnly))
	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintf(out, "    Tasks:            %d (%d important)\n", s.TotalTasks, s.ImportantTasks)
	fmt.Fprintf(out, "    Reward:           %.0f XP\n", s.RewardTotal)
	fmt.Fprintf(out, "    Effort:           %.1f\n", s.EffortTotal)
	fmt.Fprintf(out, "    Productive hours: %.2f\n", s.MergedProductiveHours)
	fmt.Fprintf(out, "    Sleep hours:      %.2f\n", s.SleepHours)
	fmt.Fprintf(out, "    Leisure hours:    %.2f\n", s.LeisureHours)
	fmt.Fprintf(out, "    Efficiency:       %.2f XP/h\n", s.EfficiencyRatio)
	if s.EarliestActivity != nil && s.LatestActivity != nil {
		loc := r.Range.From.Location()
		fmt.Fprintf(out, "    Active:           %s - %s\n",
			s.EarliestActivity.In(loc).Format("01-02 15:04"), s.LatestActivity.In(loc).Format("01-02 15:04"))
	}
	if s.TimedTasks > 0 {
		hour, count := s.PeakHour()
		fmt.Fprintf(out, "    Peak hour:        %02d:00 (%d starts)\n", hour, count)
	}
	if s.DegradedRecords > 0 {
		fmt.Fprintf(out, "    Degraded records: %d\n", s.DegradedRecords)
	}

	if len(s.CategoryCounts) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "  CATEGORIES")
		fmt.Fprintln(out, strings.Repeat("-", 60))
		names := make([]string, 0, len(s.CategoryCounts))
		for name := range s.CategoryCounts {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool {
			if s.CategoryCounts[names[i]] != s.CategoryCounts[names[j]] {
				return s.CategoryCounts[names[i]] > s.CategoryCounts[names[j]]
			}
			return names[i] < names[j]
		})
		for _, name := range names {
			fmt.Fprintf(out, "    %-20s %d\n", name, s.CategoryCounts[name])
		}
	}

	if len(r.Details) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "  TIMELINE")
		fmt.Fprintln(out, strings.Repeat("-", 60))
		for _, d := range r.Details {
			marker := " "
			if d.Important {
				marker = "*"
			}
			fmt.Fprintf(out, "   %s %5s-%-5s %4.0fm  %s [%s]\n", marker, d.Start, d.End, d.Duration.Minutes(), d.Title, d.Category)
		}
	}

	if !r.Anomalies.Empty() {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "  ANOMALIES")
		fmt.Fprintln(out, strings.Repeat("-", 60))
		for _, title := range r.Anomalies.CrossMidnight {
			fmt.Fprintf(out, "    crosses midnight: %s\n", title)
		}
		for _, title := range r.Anomalies.LateNight {
			fmt.Fprintf(out, "    late night:       %s\n", title)
		}
		if r.Anomalies.SleepOverlap {
			fmt.Fprintln(out, "    overlapping sleep records")
		}
		if r.Anomalies.LeisureOverlap {
			fmt.Fprintln(out, "    overlapping leisure records")
		}
		if r.Anomalies.SpanExceedsDay {
			fmt.Fprintln(out, "    activity span longer than 24h")
		}
	}
	fmt.Fprintln(out)
}

func init() {
	statsCmd.Flags().StringVarP(&statsPeriod, "period", "p", "daily", "daily, weekly or monthly")
	statsCmd.Flags().StringVar(&statsDate, "date", "", "day to report on (YYYY-MM-DD)")
	rootCmd.AddCommand(statsCmd)
}
