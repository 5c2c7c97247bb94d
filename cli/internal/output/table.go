package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/zhaobenny/babylog/internal/aggregator"
	"github.com/zhaobenny/babylog/internal/model"
)

const dateWidth = 10

// TableOptions controls table display behavior
type TableOptions struct {
	ForceCompact bool
}

// shouldUseCompact determines if compact mode should be used
func shouldUseCompact(opts TableOptions) bool {
	if opts.ForceCompact {
		return true
	}
	return terminalWidth() < compactThreshold
}

// FormatNumber formats a number with thousand separators
func FormatNumber(n int) string {
	return humanize.Comma(int64(n))
}

// FormatMinutes formats a duration in minutes as "1h 05m" or "35m"
func FormatMinutes(m int) string {
	if m < 60 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %02dm", m/60, m%60)
}

// PrintDaily prints the per-date counts and totals with a total row
func PrintDaily(w io.Writer, report aggregator.Report, opts TableOptions) {
	if len(report.Counts) == 0 {
		fmt.Fprintln(w, "No care events found.")
		return
	}

	total := aggregator.CalculateTotal(report)
	fmt.Fprintln(w)

	if shouldUseCompact(opts) {
		// Compact: Date, Feeds, Diapers, Bottle, Breast
		format := "%-*s  %6s  %8s  %10s  %8s\n"
		width := dateWidth + 2 + 6 + 2 + 8 + 2 + 10 + 2 + 8
		fmt.Fprintf(w, format, dateWidth, "Date", "Feeds", "Diapers", "Bottle ml", "Breast")
		fmt.Fprintln(w, strings.Repeat("─", width))

		for i, c := range report.Counts {
			t := report.Totals[i]
			fmt.Fprintf(w, format, dateWidth, c.Date,
				FormatNumber(c.Breast+c.Pumped+c.Formula),
				FormatNumber(c.Urine+c.Stool),
				FormatNumber(t.BottleML()),
				FormatMinutes(t.BreastMinutes))
		}

		if len(report.Counts) > 1 {
			fmt.Fprintln(w, strings.Repeat("─", width))
			c, t := total.Counts, total.Totals
			fmt.Fprintf(w, format, dateWidth, "Total",
				FormatNumber(c.Breast+c.Pumped+c.Formula),
				FormatNumber(c.Urine+c.Stool),
				FormatNumber(t.BottleML()),
				FormatMinutes(t.BreastMinutes))
		}

		fmt.Fprintln(w)
		fmt.Fprintln(w, "(Compact mode - expand terminal for full view)")
		return
	}

	// Full: Date, five counts, pumped ml, formula ml, breast minutes
	format := "%-*s  %6s  %6s  %7s  %5s  %5s  %10s  %10s  %10s\n"
	width := dateWidth + 2 + 6 + 2 + 6 + 2 + 7 + 2 + 5 + 2 + 5 + 2 + 10 + 2 + 10 + 2 + 10
	fmt.Fprintf(w, format, dateWidth, "Date",
		"Breast", "Pumped", "Formula", "Urine", "Stool", "Pumped ml", "Formula ml", "Breast min")
	fmt.Fprintln(w, strings.Repeat("─", width))

	for i, c := range report.Counts {
		t := report.Totals[i]
		fmt.Fprintf(w, format, dateWidth, c.Date,
			FormatNumber(c.Breast), FormatNumber(c.Pumped), FormatNumber(c.Formula),
			FormatNumber(c.Urine), FormatNumber(c.Stool),
			FormatNumber(t.PumpedML), FormatNumber(t.FormulaML), FormatNumber(t.BreastMinutes))
	}

	if len(report.Counts) > 1 {
		fmt.Fprintln(w, strings.Repeat("─", width))
		c, t := total.Counts, total.Totals
		fmt.Fprintf(w, format, dateWidth, "Total",
			FormatNumber(c.Breast), FormatNumber(c.Pumped), FormatNumber(c.Formula),
			FormatNumber(c.Urine), FormatNumber(c.Stool),
			FormatNumber(t.PumpedML), FormatNumber(t.FormulaML), FormatNumber(t.BreastMinutes))
	}

	fmt.Fprintln(w)
}

// categoryTitles are the section headings of PrintEvents
var categoryTitles = map[model.Category]string{
	model.CategoryBreast:  "Breastfeeding",
	model.CategoryPumped:  "Pumped milk",
	model.CategoryFormula: "Formula",
	model.CategoryUrine:   "Diaper (urine)",
	model.CategoryStool:   "Diaper (stool)",
}

// PrintEvents prints the event list of each requested category in input order
func PrintEvents(w io.Writer, log model.EventLog, categories []model.Category) {
	if len(categories) == 0 {
		categories = model.EventCategories
	}

	for _, c := range categories {
		fmt.Fprintf(w, "=== %s (%d) ===\n", categoryTitles[c], log.Len(c))
		switch c {
		case model.CategoryBreast:
			for _, e := range log.Breast {
				duration := "-"
				if e.DurationMinutes != nil {
					duration = FormatMinutes(*e.DurationMinutes)
				}
				fmt.Fprintf(w, "%s  %s  %8s  %s\n", e.Date, e.Time, duration, e.Note)
			}
		case model.CategoryPumped, model.CategoryFormula:
			events := log.Pumped
			if c == model.CategoryFormula {
				events = log.Formula
			}
			for _, e := range events {
				fmt.Fprintf(w, "%s  %s  %6s ml\n", e.Date, e.Time, FormatNumber(e.AmountML))
			}
		case model.CategoryUrine, model.CategoryStool:
			events := log.Urine
			if c == model.CategoryStool {
				events = log.Stool
			}
			for _, e := range events {
				fmt.Fprintf(w, "%s  %s  %s\n", e.Date, e.Time, e.Note)
			}
		}
		fmt.Fprintln(w)
	}
}

// PrintWeights prints the weight samples with the change from the previous sample
func PrintWeights(w io.Writer, samples []model.WeightSample) {
	if len(samples) == 0 {
		fmt.Fprintln(w, "No weight samples found.")
		return
	}

	fmt.Fprintf(w, "%-*s  %9s  %9s\n", dateWidth, "Date", "Weight", "Change")
	fmt.Fprintln(w, strings.Repeat("─", dateWidth+2+9+2+9))
	for i, s := range samples {
		change := ""
		if i > 0 {
			change = fmt.Sprintf("%+.0f g", (s.WeightKg-samples[i-1].WeightKg)*1000)
		}
		fmt.Fprintf(w, "%-*s  %6.2f kg  %9s\n", dateWidth, s.Date, s.WeightKg, change)
	}
}

// JSONOutput represents the JSON output of the daily report
type JSONOutput struct {
	Days  []model.DailySummary `json:"days"`
	Total aggregator.Total     `json:"total"`
}

// PrintJSON outputs the daily report as JSON
func PrintJSON(w io.Writer, report aggregator.Report) error {
	return WriteJSON(w, JSONOutput{
		Days:  report.Summaries(),
		Total: aggregator.CalculateTotal(report),
	})
}

// WriteJSON writes v as indented JSON
func WriteJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
