package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"cocktailLogAPI/internal/badge"
)

var countFlags = map[badge.BadgeType]string{
	badge.TypeCocktailsLogged: "cocktails",
	badge.TypeFriends:         "friends",
	badge.TypePartiesHosted:   "hosted",
	badge.TypePartiesAttended: "attended",
	badge.TypeRecipesCreated:  "recipes",
	badge.TypeDayStreak:       "streak",
}

func newBadgesCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "badges",
		Short: "Evaluate badges for a set of activity counts",
		Long:  "Evaluate badges from --file (an activity counts JSON object) or from the count flags. Flags override the file.",
		Example: `  metricsctl badges --cocktails 60 --friends 25
  metricsctl badges --file counts.json --highest 3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			th, err := opts.thresholds()
			if err != nil {
				return err
			}

			var counts badge.ActivityCounts
			if path, _ := cmd.Flags().GetString("file"); path != "" {
				if err := readJSON(cmd, path, &counts); err != nil {
					return err
				}
			}
			for _, t := range badge.AllTypes {
				name := countFlags[t]
				if cmd.Flags().Changed(name) {
					n, _ := cmd.Flags().GetInt(name)
					counts.Set(t, n)
				}
			}

			if progress, _ := cmd.Flags().GetBool("progress"); progress {
				return writeJSON(cmd, badge.ProgressFor(counts, th))
			}

			badges := badge.Evaluate(counts, th)
			if cmd.Flags().Changed("highest") {
				limit, _ := cmd.Flags().GetInt("highest")
				if limit <= 0 {
					return fmt.Errorf("--highest must be a positive integer")
				}
				badges = badge.Highest(badges, limit)
			}
			return writeJSON(cmd, badges)
		},
	}

	cmd.Flags().String("file", "", "Activity counts JSON file (- for stdin)")
	for _, t := range badge.AllTypes {
		cmd.Flags().Int(countFlags[t], 0, fmt.Sprintf("Count for %s", badge.Label(t)))
	}
	cmd.Flags().Int("highest", badge.DefaultHighestLimit, "Only print the N highest badges")
	cmd.Flags().Bool("progress", false, "Print progress toward the next tier for every badge type")
	return cmd
}
