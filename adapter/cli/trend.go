package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/GiveMeAjob-job/Bear-Review/internal/review/application/queries"
)

var trendDays int

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Show day-by-day statistics for the last N days",
	RunE: func(cmd *cobra.Command, args []string) error {
		if reviewService == nil {
			return errServiceUnavailable
		}

		result, err := reviewService.GetTrend(cmd.Context(), queries.GetTrendQuery{Days: trendDays})
		if err != nil {
			return fmt.Errorf("failed to get trend: %w", err)
		}

		out := cmd.OutOrStdout()
		tr := result.Trend
		fmt.Fprintln(out)
		fmt.Fprintf(out, "  TREND  last %d days\n", tr.WindowDays)
		fmt.Fprintln(out, strings.Repeat("=", 60))
		fmt.Fprintf(out, "    %-10s  %5s  %6s  %6s  %6s  %6s\n", "DATE", "TASKS", "XP", "WORK", "SLEEP", "FUN")
		for _, day := range tr.Days {
			s := day.Stats
			fmt.Fprintf(out, "    %-10s  %5d  %6.0f  %6.2f  %6.2f  %6.2f\n",
				day.Date.Format(time.DateOnly), s.TotalTasks, s.RewardTotal,
				s.MergedProductiveHours, s.SleepHours, s.LeisureHours)
		}
		fmt.Fprintln(out, strings.Repeat("-", 60))
		a := tr.Averages
		fmt.Fprintf(out, "    %-10s  %5.1f  %6.0f  %6.2f  %6.2f  %6.2f\n", "avg/day",
			a.Tasks, a.RewardTotal, a.MergedProductiveHours, a.SleepHours, a.LeisureHours)
		if tr.BestDay != nil {
			fmt.Fprintf(out, "\n    Best day:  %s (%.2fh productive)\n",
				tr.BestDay.Date.Format(time.DateOnly), tr.BestDay.Stats.MergedProductiveHours)
		}
		fmt.Fprintf(out, "    Peak hour: %02d:00\n\n", tr.PeakHour)
		return nil
	},
}

func init() {
	trendCmd.Flags().IntVarP(&trendDays, "days", "d", 7, "number of days, at most 366")
	rootCmd.AddCommand(trendCmd)
}
