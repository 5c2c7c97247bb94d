package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zhaobenny/babylog/cli/internal/output"
	"github.com/zhaobenny/babylog/internal/aggregator"
	"github.com/zhaobenny/babylog/internal/model"
)

var (
	since   string
	until   string
	jsonOut bool
	compact bool
)

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Show daily counts and totals (default)",
	Example: `  babylog daily -f log.csv
  babylog daily --since 2025-09-01 --until 2025-09-30
  babylog daily --json`,
	RunE: runDaily,
}

func init() {
	addDailyFlags(dailyCmd)
	rootCmd.AddCommand(dailyCmd)
}

func addDailyFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&since, "since", "", "Start date filter (YYYY-MM-DD)")
	cmd.Flags().StringVar(&until, "until", "", "End date filter (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	cmd.Flags().BoolVarP(&compact, "compact", "c", false, "Force compact table output")
}

// rangeOptions parses --since and --until
func rangeOptions() (aggregator.Options, error) {
	var opts aggregator.Options
	if since != "" {
		d, err := parseFlagDate(since)
		if err != nil {
			return opts, fmt.Errorf("invalid --since date: %w", err)
		}
		opts.Since = d
	}
	if until != "" {
		d, err := parseFlagDate(until)
		if err != nil {
			return opts, fmt.Errorf("invalid --until date: %w", err)
		}
		opts.Until = d
	}
	return opts, nil
}

func parseFlagDate(s string) (model.Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return model.Date{}, fmt.Errorf("use YYYY-MM-DD")
	}
	return model.DateOf(t), nil
}

func runDaily(cmd *cobra.Command, args []string) error {
	opts, err := rangeOptions()
	if err != nil {
		return err
	}

	res, err := buildLog(cmd)
	if err != nil {
		return err
	}

	report := aggregator.ByDay(aggregator.FilterLog(res.EventLog, opts))

	if jsonOut {
		return output.PrintJSON(cmd.OutOrStdout(), report)
	}
	output.PrintDaily(cmd.OutOrStdout(), report, output.TableOptions{ForceCompact: compact})
	return nil
}
