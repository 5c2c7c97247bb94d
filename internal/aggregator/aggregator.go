package aggregator

import (
	"sort"

	"github.com/zhaobenny/babylog/internal/model"
)

// Options for aggregation
type Options struct {
	Since model.Date
	Until model.Date
}

func (o Options) includes(d model.Date) bool {
	if !o.Since.IsZero() && d.Before(o.Since) {
		return false
	}
	if !o.Until.IsZero() && d.After(o.Until) {
		return false
	}
	return true
}

// FilterLog keeps the events whose date falls within the inclusive range in opts
func FilterLog(log model.EventLog, opts Options) model.EventLog {
	var filtered model.EventLog
	for _, e := range log.Breast {
		if opts.includes(e.Date) {
			filtered.Breast = append(filtered.Breast, e)
		}
	}
	filtered.Pumped = filterVolume(log.Pumped, opts)
	filtered.Formula = filterVolume(log.Formula, opts)
	filtered.Urine = filterDiaper(log.Urine, opts)
	filtered.Stool = filterDiaper(log.Stool, opts)
	for _, w := range log.Weight {
		if opts.includes(w.Date) {
			filtered.Weight = append(filtered.Weight, w)
		}
	}
	return filtered
}

func filterVolume(events []model.VolumeEvent, opts Options) []model.VolumeEvent {
	var filtered []model.VolumeEvent
	for _, e := range events {
		if opts.includes(e.Date) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

func filterDiaper(events []model.DiaperEvent, opts Options) []model.DiaperEvent {
	var filtered []model.DiaperEvent
	for _, e := range events {
		if opts.includes(e.Date) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// Report holds the per-date count and totals tables, oldest date first.
// Counts[i] and Totals[i] always describe the same date.
type Report struct {
	Counts []model.DailyCount  `json:"counts"`
	Totals []model.DailyTotals `json:"totals"`
}

// Summaries pairs the count and totals rows of each date
func (r Report) Summaries() []model.DailySummary {
	out := make([]model.DailySummary, len(r.Counts))
	for i := range r.Counts {
		out[i] = model.DailySummary{Date: r.Counts[i].Date, Counts: r.Counts[i], Totals: r.Totals[i]}
	}
	return out
}

// Latest returns the summary of the newest date in the report
func (r Report) Latest() (model.DailySummary, bool) {
	if len(r.Counts) == 0 {
		return model.DailySummary{}, false
	}
	i := len(r.Counts) - 1
	return model.DailySummary{Date: r.Counts[i].Date, Counts: r.Counts[i], Totals: r.Totals[i]}, true
}

// ByDay aggregates the five event lists by date. Every date that has an
// event in any list gets a row, with zeros for the categories it lacks.
// Weight samples do not create rows.
func ByDay(log model.EventLog) Report {
	grouped := make(map[model.Date]*model.DailySummary)
	day := func(d model.Date) *model.DailySummary {
		s, ok := grouped[d]
		if !ok {
			s = &model.DailySummary{Date: d}
			grouped[d] = s
		}
		return s
	}

	for _, e := range log.Breast {
		s := day(e.Date)
		s.Counts.Breast++
		s.Totals.BreastMinutes += e.Minutes()
	}
	for _, e := range log.Pumped {
		s := day(e.Date)
		s.Counts.Pumped++
		s.Totals.PumpedML += e.AmountML
	}
	for _, e := range log.Formula {
		s := day(e.Date)
		s.Counts.Formula++
		s.Totals.FormulaML += e.AmountML
	}
	for _, e := range log.Urine {
		day(e.Date).Counts.Urine++
	}
	for _, e := range log.Stool {
		day(e.Date).Counts.Stool++
	}

	dates := make([]model.Date, 0, len(grouped))
	for d := range grouped {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})

	report := Report{
		Counts: make([]model.DailyCount, len(dates)),
		Totals: make([]model.DailyTotals, len(dates)),
	}
	for i, d := range dates {
		s := grouped[d]
		s.Counts.Date = d
		s.Totals.Date = d
		report.Counts[i] = s.Counts
		report.Totals[i] = s.Totals
	}
	return report
}

// Total sums a report over all of its dates
type Total struct {
	Days   int               `json:"days"`
	Counts model.DailyCount  `json:"counts"`
	Totals model.DailyTotals `json:"totals"`
}

// CalculateTotal returns the column sums of the report
func CalculateTotal(r Report) Total {
	total := Total{Days: len(r.Counts)}
	for _, c := range r.Counts {
		total.Counts.Breast += c.Breast
		total.Counts.Pumped += c.Pumped
		total.Counts.Formula += c.Formula
		total.Counts.Urine += c.Urine
		total.Counts.Stool += c.Stool
	}
	for _, t := range r.Totals {
		total.Totals.PumpedML += t.PumpedML
		total.Totals.FormulaML += t.FormulaML
		total.Totals.BreastMinutes += t.BreastMinutes
	}
	return total
}

// Weights returns the log's weight samples, oldest date first
func Weights(log model.EventLog) []model.WeightSample {
	samples := append([]model.WeightSample(nil), log.Weight...)
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Date.Before(samples[j].Date)
	})
	return samples
}
