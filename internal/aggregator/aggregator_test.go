package aggregator

import (
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/zhaobenny/babylog/internal/model"
)

var (
	day15 = model.NewDate(2025, time.September, 15)
	day16 = model.NewDate(2025, time.September, 16)
	day17 = model.NewDate(2025, time.September, 17)
)

func minutes(n int) *int { return &n }

func sampleLog() model.EventLog {
	return model.EventLog{
		Breast: []model.BreastFeedingEvent{
			{Date: day15, Time: model.NewTimeOfDay(8, 0), DurationMinutes: minutes(35)},
			{Date: day15, Time: model.NewTimeOfDay(11, 30)},
			{Date: day16, Time: model.NewTimeOfDay(7, 30), DurationMinutes: minutes(35)},
		},
		Pumped: []model.VolumeEvent{
			{Category: model.CategoryPumped, Date: day15, AmountML: 60},
			{Category: model.CategoryPumped, Date: day15, AmountML: 40},
			{Category: model.CategoryPumped, Date: day16, AmountML: 50},
		},
		Formula: []model.VolumeEvent{
			{Category: model.CategoryFormula, Date: day15, AmountML: 100},
			{Category: model.CategoryFormula, Date: day15, AmountML: 80},
			{Category: model.CategoryFormula, Date: day16, AmountML: 120},
		},
		Urine: []model.DiaperEvent{
			{Category: model.CategoryUrine, Date: day15},
			{Category: model.CategoryUrine, Date: day15},
			{Category: model.CategoryUrine, Date: day15},
			{Category: model.CategoryUrine, Date: day16},
			{Category: model.CategoryUrine, Date: day16},
		},
		Stool: []model.DiaperEvent{
			{Category: model.CategoryStool, Date: day15},
			{Category: model.CategoryStool, Date: day15, Note: "△"},
			{Category: model.CategoryStool, Date: day16, Note: "×"},
			{Category: model.CategoryStool, Date: day16},
		},
		Weight: []model.WeightSample{{Date: day15, WeightKg: 4.5}, {Date: day16, WeightKg: 4.7}},
	}
}

func TestByDaySample(t *testing.T) {
	t.Parallel()

	r := ByDay(sampleLog())

	if len(r.Counts) != 2 || len(r.Totals) != 2 {
		t.Fatalf("expected 2 days, got %d/%d", len(r.Counts), len(r.Totals))
	}
	if r.Counts[0].Date != day15 || r.Counts[1].Date != day16 {
		t.Fatalf("dates not ascending: %v, %v", r.Counts[0].Date, r.Counts[1].Date)
	}

	want15 := model.DailyTotals{Date: day15, PumpedML: 100, FormulaML: 180, BreastMinutes: 35}
	if r.Totals[0] != want15 {
		t.Fatalf("totals for %v = %+v, want %+v", day15, r.Totals[0], want15)
	}
	if r.Counts[0].Breast != 2 || r.Counts[0].Urine != 3 || r.Counts[0].Stool != 2 {
		t.Fatalf("counts for %v = %+v", day15, r.Counts[0])
	}
	if r.Counts[1].Stool != 2 {
		t.Fatalf("stool count for %v = %d, want 2", day16, r.Counts[1].Stool)
	}
	if r.Totals[1].BottleML() != 170 {
		t.Fatalf("bottle ml for %v = %d, want 170", day16, r.Totals[1].BottleML())
	}
}

func TestByDayZeroFill(t *testing.T) {
	t.Parallel()

	log := model.EventLog{
		Urine: []model.DiaperEvent{{Category: model.CategoryUrine, Date: day17}},
	}
	r := ByDay(log)

	want := []model.DailyCount{{Date: day17, Urine: 1}}
	if !reflect.DeepEqual(r.Counts, want) {
		t.Fatalf("counts = %+v, want %+v", r.Counts, want)
	}
	if r.Totals[0] != (model.DailyTotals{Date: day17}) {
		t.Fatalf("totals = %+v, want zeros", r.Totals[0])
	}
}

func TestByDayIgnoresWeightOnlyDates(t *testing.T) {
	t.Parallel()

	r := ByDay(model.EventLog{Weight: []model.WeightSample{{Date: day15, WeightKg: 4.5}}})
	if len(r.Counts) != 0 {
		t.Fatalf("weight-only log produced rows: %+v", r.Counts)
	}
	if _, ok := r.Latest(); ok {
		t.Fatalf("Latest on empty report should report false")
	}
}

func TestByDayShuffleInvariant(t *testing.T) {
	t.Parallel()

	log := sampleLog()
	want := ByDay(log)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := sampleLog()
		rng.Shuffle(len(shuffled.Breast), func(a, b int) { shuffled.Breast[a], shuffled.Breast[b] = shuffled.Breast[b], shuffled.Breast[a] })
		rng.Shuffle(len(shuffled.Pumped), func(a, b int) { shuffled.Pumped[a], shuffled.Pumped[b] = shuffled.Pumped[b], shuffled.Pumped[a] })
		rng.Shuffle(len(shuffled.Urine), func(a, b int) { shuffled.Urine[a], shuffled.Urine[b] = shuffled.Urine[b], shuffled.Urine[a] })
		rng.Shuffle(len(shuffled.Stool), func(a, b int) { shuffled.Stool[a], shuffled.Stool[b] = shuffled.Stool[b], shuffled.Stool[a] })

		if got := ByDay(shuffled); !reflect.DeepEqual(got, want) {
			t.Fatalf("shuffle %d changed the report:\n got %+v\nwant %+v", i, got, want)
		}
	}
}

func TestByDayIdempotent(t *testing.T) {
	t.Parallel()

	log := sampleLog()
	if a, b := ByDay(log), ByDay(log); !reflect.DeepEqual(a, b) {
		t.Fatalf("ByDay is not deterministic")
	}
}

func TestFilterLog(t *testing.T) {
	t.Parallel()

	filtered := FilterLog(sampleLog(), Options{Since: day16})
	if len(filtered.Breast) != 1 || len(filtered.Urine) != 2 || len(filtered.Weight) != 1 {
		t.Fatalf("since filter kept breast %d urine %d weight %d", len(filtered.Breast), len(filtered.Urine), len(filtered.Weight))
	}

	filtered = FilterLog(sampleLog(), Options{Until: day15})
	r := ByDay(filtered)
	if len(r.Counts) != 1 || r.Counts[0].Date != day15 {
		t.Fatalf("until filter report = %+v", r.Counts)
	}

	filtered = FilterLog(sampleLog(), Options{Since: day15, Until: day16})
	if filtered.EventCount() != sampleLog().EventCount() {
		t.Fatalf("inclusive range dropped events")
	}

	filtered = FilterLog(sampleLog(), Options{Since: day17})
	if filtered.EventCount() != 0 {
		t.Fatalf("range past the log kept %d events", filtered.EventCount())
	}
}

func TestCalculateTotalAndLatest(t *testing.T) {
	t.Parallel()

	r := ByDay(sampleLog())
	total := CalculateTotal(r)

	if total.Days != 2 {
		t.Fatalf("total days = %d, want 2", total.Days)
	}
	if total.Counts.Breast != 3 || total.Counts.Urine != 5 || total.Counts.Stool != 4 {
		t.Fatalf("total counts = %+v", total.Counts)
	}
	if total.Totals.PumpedML != 150 || total.Totals.FormulaML != 300 || total.Totals.BreastMinutes != 70 {
		t.Fatalf("total totals = %+v", total.Totals)
	}

	latest, ok := r.Latest()
	if !ok || latest.Date != day16 || latest.Counts.Stool != 2 {
		t.Fatalf("latest = %+v, %v", latest, ok)
	}

	summaries := r.Summaries()
	if len(summaries) != 2 || summaries[0].Totals.PumpedML != 100 {
		t.Fatalf("summaries = %+v", summaries)
	}
}

func TestWeightsSorted(t *testing.T) {
	t.Parallel()

	log := model.EventLog{Weight: []model.WeightSample{
		{Date: day17, WeightKg: 4.9},
		{Date: day15, WeightKg: 4.5},
		{Date: day16, WeightKg: 4.7},
	}}
	got := Weights(log)
	if got[0].Date != day15 || got[1].Date != day16 || got[2].Date != day17 {
		t.Fatalf("weights not sorted: %+v", got)
	}
	if log.Weight[0].Date != day17 {
		t.Fatalf("Weights modified its input")
	}
}
