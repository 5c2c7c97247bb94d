package main

import (
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/zhaobenny/babylog/cli/internal/config"
	"github.com/zhaobenny/babylog/internal/loader"
	"github.com/zhaobenny/babylog/internal/model"
	"github.com/zhaobenny/babylog/internal/parser"
)

const version = "0.3.0"

var (
	filePath string
	verbose  bool
	workers  int
)

var rootCmd = &cobra.Command{
	Use:   "babylog",
	Short: "babylog - feeding and diaper log summaries",
	Long: `babylog reads a daily care log (CSV or Excel) written in shorthand such as
"08:00L15R20", "09:00-60" or "13:00△" and turns it into event lists and daily summaries.

Without a file (or when the file does not exist) a built-in sample log is used.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runDaily,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&filePath, "file", "f", "", "Input file, CSV or Excel (.xlsx) (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log skipped rows and dropped tokens")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", runtime.GOMAXPROCS(0), "Parse rows with this many goroutines")
	addDailyFlags(rootCmd)
}

func main() {
	log.SetFlags(0)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// resolveFile returns the log file to read: --file, then the configured file
func resolveFile() string {
	if filePath != "" {
		return filePath
	}
	cfg, err := config.Load()
	if err != nil {
		return ""
	}
	return cfg.File
}

// loadRows loads the input table, falling back to the sample log when
// no file is given or the file does not exist
func loadRows(cmd *cobra.Command) ([]model.Row, error) {
	path := resolveFile()
	if path == "" {
		fmt.Fprintln(cmd.ErrOrStderr(), "No input file, using sample data.")
		return loader.Sample(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Input file %s not found, using sample data.\n", path)
		return loader.Sample(), nil
	}

	rows, err := loader.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return rows, nil
}

// buildLog loads and parses the input table
func buildLog(cmd *cobra.Command) (parser.Result, error) {
	rows, err := loadRows(cmd)
	if err != nil {
		return parser.Result{}, err
	}

	res, err := parser.BuildConcurrent(cmd.Context(), rows, workers)
	if err != nil {
		return parser.Result{}, err
	}

	if verbose {
		logDiagnostics(res)
	}
	return res, nil
}

func logDiagnostics(res parser.Result) {
	if res.SkippedRows > 0 {
		log.Printf("[parser] skipped %d row(s) without a valid date", res.SkippedRows)
	}
	for _, r := range res.Rejected {
		log.Printf("[parser] line %d (%s): dropped %s token %q: %s", r.Line, r.Date, r.Category, r.Token, r.Reason)
	}
	log.Printf("[parser] %d events, %d weight samples", res.EventCount(), len(res.Weight))
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the babylog version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "babylog %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
