package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/zhaobenny/babylog/internal/aggregator"
	"github.com/zhaobenny/babylog/internal/model"
)

var (
	d15 = model.NewDate(2025, time.September, 15)
	d16 = model.NewDate(2025, time.September, 16)
)

func twoDayReport() aggregator.Report {
	return aggregator.Report{
		Counts: []model.DailyCount{
			{Date: d15, Breast: 2, Pumped: 2, Formula: 2, Urine: 3, Stool: 2},
			{Date: d16, Breast: 1, Pumped: 1, Formula: 1, Urine: 2, Stool: 2},
		},
		Totals: []model.DailyTotals{
			{Date: d15, PumpedML: 100, FormulaML: 180, BreastMinutes: 35},
			{Date: d16, PumpedML: 50, FormulaML: 1120, BreastMinutes: 95},
		},
	}
}

func TestFormatters(t *testing.T) {
	t.Parallel()

	if got := FormatNumber(1234567); got != "1,234,567" {
		t.Fatalf("FormatNumber = %q", got)
	}
	if got := FormatMinutes(35); got != "35m" {
		t.Fatalf("FormatMinutes(35) = %q", got)
	}
	if got := FormatMinutes(65); got != "1h 05m" {
		t.Fatalf("FormatMinutes(65) = %q", got)
	}
}

func TestPrintDailyFull(t *testing.T) {
	t.Setenv("COLUMNS", "200")

	var buf bytes.Buffer
	PrintDaily(&buf, twoDayReport(), TableOptions{})
	out := buf.String()

	for _, want := range []string{"Pumped ml", "Formula ml", "2025-09-15", "2025-09-16", "Total", "1,300"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Compact mode") {
		t.Fatalf("wide terminal should use the full table:\n%s", out)
	}
}

func TestPrintDailyCompact(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	PrintDaily(&buf, twoDayReport(), TableOptions{ForceCompact: true})
	out := buf.String()

	if !strings.Contains(out, "Compact mode") || !strings.Contains(out, "Bottle ml") {
		t.Fatalf("expected compact table:\n%s", out)
	}
	// 2 + 1 + 1 feeds on the 16th, 280 ml bottle on the 15th
	if !strings.Contains(out, "280") || !strings.Contains(out, "1h 35m") {
		t.Fatalf("compact values missing:\n%s", out)
	}
}

func TestPrintDailySingleDayHasNoTotal(t *testing.T) {
	t.Parallel()

	r := twoDayReport()
	r.Counts, r.Totals = r.Counts[:1], r.Totals[:1]

	var buf bytes.Buffer
	PrintDaily(&buf, r, TableOptions{ForceCompact: true})
	if strings.Contains(buf.String(), "Total") {
		t.Fatalf("single day should not print a total row:\n%s", buf.String())
	}
}

func TestPrintDailyEmpty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	PrintDaily(&buf, aggregator.Report{}, TableOptions{})
	if !strings.Contains(buf.String(), "No care events found.") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestPrintEvents(t *testing.T) {
	t.Parallel()

	n := 35
	log := model.EventLog{
		Breast: []model.BreastFeedingEvent{
			{Date: d15, Time: model.NewTimeOfDay(8, 0), DurationMinutes: &n},
			{Date: d15, Time: model.NewTimeOfDay(11, 30)},
		},
		Stool: []model.DiaperEvent{{Category: model.CategoryStool, Date: d15, Time: model.NewTimeOfDay(13, 0), Note: "△"}},
	}

	var buf bytes.Buffer
	PrintEvents(&buf, log, nil)
	out := buf.String()

	for _, want := range []string{"=== Breastfeeding (2) ===", "=== Pumped milk (0) ===", "=== Diaper (stool) (1) ===", "13:00  △"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}

	buf.Reset()
	PrintEvents(&buf, log, []model.Category{model.CategoryStool})
	if strings.Contains(buf.String(), "Breastfeeding") {
		t.Fatalf("category filter ignored:\n%s", buf.String())
	}
}

func TestPrintWeights(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	PrintWeights(&buf, []model.WeightSample{{Date: d15, WeightKg: 4.5}, {Date: d16, WeightKg: 4.7}})
	out := buf.String()

	if !strings.Contains(out, "4.50 kg") || !strings.Contains(out, "+200 g") {
		t.Fatalf("unexpected weight output:\n%s", out)
	}
}

func TestPrintJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := PrintJSON(&buf, twoDayReport()); err != nil {
		t.Fatalf("PrintJSON: %v", err)
	}

	var decoded struct {
		Days []struct {
			Date   string `json:"date"`
			Totals struct {
				PumpedML int `json:"pumped_ml"`
			} `json:"totals"`
		} `json:"days"`
		Total struct {
			Days int `json:"days"`
		} `json:"total"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if len(decoded.Days) != 2 || decoded.Days[0].Date != "2025-09-15" || decoded.Days[0].Totals.PumpedML != 100 {
		t.Fatalf("decoded = %+v", decoded)
	}
	if decoded.Total.Days != 2 {
		t.Fatalf("total days = %d", decoded.Total.Days)
	}
}
