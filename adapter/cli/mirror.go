package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/GiveMeAjob-job/Bear-Review/internal/review/application/commands"
)

var mirrorDays int

var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Copy recent completed tasks into the local database",
	Long: `Fetch the completed tasks of the last N days and upsert them into the
configured database (SQLite by default, PostgreSQL when DATABASE_URL points
at one). Running it twice is harmless.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if reviewService == nil {
			return errServiceUnavailable
		}

		result, err := reviewService.MirrorRecords(cmd.Context(), commands.MirrorRecordsCommand{Days: mirrorDays})
		if err != nil {
			return fmt.Errorf("failed to mirror records: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Mirrored %d of %d records (%s .. %s)\n",
			result.Written, result.Fetched,
			result.Range.From.Format(time.DateOnly), result.Range.To.Format(time.DateOnly))
		return nil
	},
}

func init() {
	mirrorCmd.Flags().IntVarP(&mirrorDays, "days", "d", 30, "number of days to copy")
	rootCmd.AddCommand(mirrorCmd)
}
