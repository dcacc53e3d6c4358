// Package cli implements metricsctl, which runs the badge, streak and stats
// engines over local JSON exports without a database.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"cocktailLogAPI/internal/badge"
)

type options struct {
	v *viper.Viper
}

// NewRootCmd builds the command tree. Every flag on the root can also be set through a
// METRICSCTL_ environment variable or the --config file.
func NewRootCmd() *cobra.Command {
	opts := &options{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:           "metricsctl",
		Short:         "Compute cocktail log badges, streaks and stats offline",
		Long:          "metricsctl runs the same badge, streak and stats calculations as the API over JSON files.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to a config file (yaml, json or toml)")
	flags.String("now", "", "Reference time in RFC3339 (default: current time)")
	flags.String("timezone", "UTC", "IANA timezone used for day and week boundaries")
	flags.Int("bronze", badge.DefaultThresholds.Bronze, "Bronze badge threshold")
	flags.Int("silver", badge.DefaultThresholds.Silver, "Silver badge threshold")
	flags.Int("gold", badge.DefaultThresholds.Gold, "Gold badge threshold")

	rootCmd.AddCommand(newBadgesCmd(opts))
	rootCmd.AddCommand(newStreakCmd(opts))
	rootCmd.AddCommand(newStatsCmd(opts))

	return rootCmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (o *options) load(cmd *cobra.Command) error {
	o.v.SetEnvPrefix("METRICSCTL")
	o.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	o.v.AutomaticEnv()

	if err := o.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	if path := o.v.GetString("config"); path != "" {
		o.v.SetConfigFile(path)
		if err := o.v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

func (o *options) location() (*time.Location, error) {
	tz := o.v.GetString("timezone")
	if tz == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	return loc, nil
}

// now returns the reference time in the configured location.
func (o *options) now() (time.Time, error) {
	loc, err := o.location()
	if err != nil {
		return time.Time{}, err
	}

	raw := o.v.GetString("now")
	if raw == "" {
		return time.Now().In(loc), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now %q: %w", raw, err)
	}
	return t.In(loc), nil
}

func (o *options) thresholds() (badge.Thresholds, error) {
	th := badge.Thresholds{
		Bronze: o.v.GetInt("bronze"),
		Silver: o.v.GetInt("silver"),
		Gold:   o.v.GetInt("gold"),
	}
	if err := th.Validate(); err != nil {
		return badge.Thresholds{}, err
	}
	return th, nil
}

// readJSON decodes path into dst. "-" reads from the command's stdin.
func readJSON(cmd *cobra.Command, path string, dst any) error {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	if err := json.NewDecoder(r).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
