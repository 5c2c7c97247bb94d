package templates

import (
	"strings"
	"testing"
	"time"

	"github.com/zhaobenny/babylog/internal/aggregator"
	"github.com/zhaobenny/babylog/internal/model"
)

func TestParse(t *testing.T) {
	tmpl, err := Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for _, name := range []string{"index.html", "auth", "dashboard", "error", "daily-table"} {
		if tmpl.Lookup(name) == nil {
			t.Errorf("template %q not defined", name)
		}
	}
}

func TestFormatters(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{formatNumber(1234), "1,234"},
		{formatNumber(0), "0"},
		{formatMinutes(35), "35m"},
		{formatMinutes(65), "1h05m"},
		{formatMinutes(120), "2h00m"},
		{formatKg(4.5), "4.50 kg"},
		{timeAgo(time.Time{}), "never"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestDailyTableRenders(t *testing.T) {
	tmpl, err := Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	d1 := model.NewDate(2025, time.September, 15)
	d2 := model.NewDate(2025, time.September, 16)
	report := aggregator.Report{
		Counts: []model.DailyCount{{Date: d1, Breast: 2}, {Date: d2, Breast: 1}},
		Totals: []model.DailyTotals{{Date: d1, PumpedML: 1200, BreastMinutes: 35}, {Date: d2, FormulaML: 120}},
	}

	var b strings.Builder
	err = tmpl.ExecuteTemplate(&b, "daily-table", map[string]any{
		"Days":    report.Summaries(),
		"Total":   aggregator.CalculateTotal(report),
		"Weights": []model.WeightSample{{Date: d1, WeightKg: 4.5}},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	out := b.String()
	for _, want := range []string{"2025-09-15", "1,200", "35m", "Total (2 days)", "4.50 kg"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}

	b.Reset()
	if err := tmpl.ExecuteTemplate(&b, "daily-table", map[string]any{}); err != nil {
		t.Fatalf("execute empty: %v", err)
	}
	if !strings.Contains(b.String(), "No events in this range.") {
		t.Errorf("empty table output:\n%s", b.String())
	}
}
