package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zhaobenny/babylog/cli/internal/output"
	"github.com/zhaobenny/babylog/internal/aggregator"
	"github.com/zhaobenny/babylog/internal/model"
)

var (
	eventCategories []string
	eventsJSON      bool
	weightJSON      bool
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List parsed events per category",
	Example: `  babylog events -f log.csv
  babylog events --category breast --category stool`,
	RunE: runEvents,
}

var weightCmd = &cobra.Command{
	Use:   "weight",
	Short: "List weight samples",
	RunE:  runWeight,
}

func init() {
	eventsCmd.Flags().StringSliceVar(&eventCategories, "category", nil, "Only show these categories (breast, pumped, formula, urine, stool)")
	eventsCmd.Flags().StringVar(&since, "since", "", "Start date filter (YYYY-MM-DD)")
	eventsCmd.Flags().StringVar(&until, "until", "", "End date filter (YYYY-MM-DD)")
	eventsCmd.Flags().BoolVar(&eventsJSON, "json", false, "Output as JSON")
	weightCmd.Flags().BoolVar(&weightJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(eventsCmd, weightCmd)
}

func runEvents(cmd *cobra.Command, args []string) error {
	var categories []model.Category
	for _, name := range eventCategories {
		c, ok := model.ParseCategory(name)
		if !ok || c == model.CategoryWeight {
			return fmt.Errorf("unknown category %q", name)
		}
		categories = append(categories, c)
	}

	opts, err := rangeOptions()
	if err != nil {
		return err
	}

	res, err := buildLog(cmd)
	if err != nil {
		return err
	}
	log := aggregator.FilterLog(res.EventLog, opts)

	if eventsJSON {
		return output.WriteJSON(cmd.OutOrStdout(), log)
	}
	output.PrintEvents(cmd.OutOrStdout(), log, categories)
	return nil
}

func runWeight(cmd *cobra.Command, args []string) error {
	res, err := buildLog(cmd)
	if err != nil {
		return err
	}

	samples := aggregator.Weights(res.EventLog)

	if weightJSON {
		return output.WriteJSON(cmd.OutOrStdout(), samples)
	}
	output.PrintWeights(cmd.OutOrStdout(), samples)
	return nil
}
