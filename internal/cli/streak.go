package cli

import (
	"github.com/spf13/cobra"

	"cocktailLogAPI/internal/streak"
)

func newStreakCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "streak",
		Short: "Compute daily and weekly streaks from log timestamps",
		Long:  "Reads a JSON array of timestamp strings. Unparseable entries are skipped.",
		Example: `  metricsctl streak --file logs.json --now 2025-03-12T18:30:00Z
  metricsctl streak --file - --timezone Europe/Sofia --daily`,
		RunE: func(cmd *cobra.Command, args []string) error {
			now, err := opts.now()
			if err != nil {
				return err
			}

			path, _ := cmd.Flags().GetString("file")
			var raw []string
			if err := readJSON(cmd, path, &raw); err != nil {
				return err
			}

			if daily, _ := cmd.Flags().GetBool("daily"); daily {
				return writeJSON(cmd, map[string]int{"streak": streak.DailyFromStrings(raw, now)})
			}
			if weekly, _ := cmd.Flags().GetBool("weekly"); weekly {
				return writeJSON(cmd, map[string]int{"streak": streak.WeeklyFromStrings(raw, now)})
			}
			return writeJSON(cmd, streak.Summarize(streak.ParseTimestampsIn(raw, now.Location()), now))
		},
	}

	cmd.Flags().String("file", "", "JSON array of timestamps (- for stdin)")
	cmd.Flags().Bool("daily", false, "Only print the current daily streak")
	cmd.Flags().Bool("weekly", false, "Only print the current weekly streak")
	cmd.MarkFlagRequired("file")
	cmd.MarkFlagsMutuallyExclusive("daily", "weekly")
	return cmd
}
