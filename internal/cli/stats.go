package cli

import (
	"github.com/spf13/cobra"

	"cocktailLogAPI/internal/stats"
)

func newStatsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "stats",
		Short:   "Compute drink statistics from a drink log export",
		Long:    "Reads a JSON array of drink logs with cocktail_id, cocktail_name, rating and created_at.",
		Example: `  metricsctl stats --file drink_logs.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("file")
			var logs []stats.DrinkLog
			if err := readJSON(cmd, path, &logs); err != nil {
				return err
			}
			return writeJSON(cmd, stats.Compute(logs))
		},
	}

	cmd.Flags().String("file", "", "JSON array of drink logs (- for stdin)")
	cmd.MarkFlagRequired("file")
	return cmd
}
