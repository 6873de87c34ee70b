package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GiveMeAjob-job/Bear-Review/internal/review/application/commands"
	"github.com/GiveMeAjob-job/Bear-Review/internal/review/domain"
)

var (
	reportPeriod     string
	reportTrendDays  int
	reportDryRun     bool
	reportShowPrompt bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate and deliver a review",
	Long: `Aggregate the period's completed tasks, ask the LLM for a review and
deliver it to every configured channel.

Examples:
  bear-review report                       # Today's review
  bear-review report --period weekly       # This week so far
  bear-review report --period trend --days 14
  bear-review report --dry-run             # Print only, deliver nothing`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if reviewService == nil {
			return errServiceUnavailable
		}
		period, err := parseReportPeriod(reportPeriod)
		if err != nil {
			return err
		}

		result, err := reviewService.GenerateReport(cmd.Context(), commands.GenerateReportCommand{
			Period:    period,
			TrendDays: reportTrendDays,
			DryRun:    reportDryRun,
		})
		if result == nil {
			return fmt.Errorf("failed to generate report: %w", err)
		}

		out := cmd.OutOrStdout()
		if reportShowPrompt {
			fmt.Fprintln(out, result.Prompt)
			fmt.Fprintln(out, strings.Repeat("-", 60))
		}
		if reportDryRun {
			fmt.Fprintln(out, result.Report.Title)
			fmt.Fprintln(out, strings.Repeat("=", 60))
			fmt.Fprintln(out, result.Report.Body)
			return nil
		}

		for _, d := range result.Deliveries {
			switch d.Status {
			case commands.DeliveryOK:
				fmt.Fprintf(out, "  ✓ %s\n", d.Channel)
			case commands.DeliverySkipped:
				fmt.Fprintf(out, "  - %s (already delivered)\n", d.Channel)
			default:
				fmt.Fprintf(out, "  ✗ %s: %v\n", d.Channel, d.Err)
			}
		}
		if err != nil {
			return fmt.Errorf("delivery failed: %w", err)
		}
		return nil
	},
}

func parseReportPeriod(s string) (domain.Period, error) {
	if strings.EqualFold(strings.TrimSpace(s), domain.PeriodTrend.String()) {
		return domain.PeriodTrend, nil
	}
	period, err := domain.ParsePeriod(s)
	if errors.Is(err, domain.ErrUnknownPeriod) {
		return "", fmt.Errorf("%w (use daily, weekly, monthly or trend)", err)
	}
	return period, err
}

func init() {
	reportCmd.Flags().StringVarP(&reportPeriod, "period", "p", "daily", "daily, weekly, monthly or trend")
	reportCmd.Flags().IntVarP(&reportTrendDays, "days", "d", 7, "trend window in days, at most 366")
	reportCmd.Flags().BoolVar(&reportDryRun, "dry-run", false, "print the review without delivering it")
	reportCmd.Flags().BoolVar(&reportShowPrompt, "show-prompt", false, "print the prompt sent to the LLM")
	rootCmd.AddCommand(reportCmd)
}
