package model

import "strings"

// Category identifies one care-event track in the daily log
type Category string

const (
	CategoryBreast  Category = "breast"
	CategoryPumped  Category = "pumped"
	CategoryFormula Category = "formula"
	CategoryUrine   Category = "urine"
	CategoryStool   Category = "stool"
	CategoryWeight  Category = "weight"
)

// EventCategories lists the five event categories in display order
var EventCategories = []Category{
	CategoryBreast,
	CategoryPumped,
	CategoryFormula,
	CategoryUrine,
	CategoryStool,
}

// ParseCategory resolves a column header or flag value to a Category
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case CategoryBreast, CategoryPumped, CategoryFormula, CategoryUrine, CategoryStool, CategoryWeight:
		return c, true
	}
	return "", false
}

// Row is one day of the raw log as handed over by a loader.
// A category missing from Cells means the column was absent.
type Row struct {
	Line  int                 `json:"line,omitempty"`
	Date  string              `json:"date"`
	Cells map[Category]string `json:"cells,omitempty"`
}

// BreastFeedingEvent represents one direct-feeding session
type BreastFeedingEvent struct {
	Date            Date      `json:"date"`
	Time            TimeOfDay `json:"time"`
	DurationMinutes *int      `json:"duration_minutes"`
	Note            string    `json:"note,omitempty"`
}

// Minutes returns the recorded duration, 0 when none was recorded
func (e BreastFeedingEvent) Minutes() int {
	if e.DurationMinutes == nil {
		return 0
	}
	return *e.DurationMinutes
}

// VolumeEvent represents one bottle feed of pumped milk or formula
type VolumeEvent struct {
	Category Category  `json:"category"`
	Date     Date      `json:"date"`
	Time     TimeOfDay `json:"time"`
	AmountML int       `json:"amount_ml"`
}

// DiaperEvent represents one urine or stool diaper change
type DiaperEvent struct {
	Category Category  `json:"category"`
	Date     Date      `json:"date"`
	Time     TimeOfDay `json:"time"`
	Note     string    `json:"note,omitempty"`
}

// WeightSample is the body weight recorded for a date
type WeightSample struct {
	Date     Date    `json:"date"`
	WeightKg float64 `json:"weight_kg"`
}

// EventLog holds the ordered event lists of every category
type EventLog struct {
	Breast  []BreastFeedingEvent `json:"breast"`
	Pumped  []VolumeEvent        `json:"pumped"`
	Formula []VolumeEvent        `json:"formula"`
	Urine   []DiaperEvent        `json:"urine"`
	Stool   []DiaperEvent        `json:"stool"`
	Weight  []WeightSample       `json:"weight"`
}

// EventCount returns the number of events across the five event lists
func (l EventLog) EventCount() int {
	return len(l.Breast) + len(l.Pumped) + len(l.Formula) + len(l.Urine) + len(l.Stool)
}

// Len returns the number of events recorded for c
func (l EventLog) Len(c Category) int {
	switch c {
	case CategoryBreast:
		return len(l.Breast)
	case CategoryPumped:
		return len(l.Pumped)
	case CategoryFormula:
		return len(l.Formula)
	case CategoryUrine:
		return len(l.Urine)
	case CategoryStool:
		return len(l.Stool)
	case CategoryWeight:
		return len(l.Weight)
	}
	return 0
}

// Append adds every event of other after the events of l, keeping order
func (l *EventLog) Append(other EventLog) {
	l.Breast = append(l.Breast, other.Breast...)
	l.Pumped = append(l.Pumped, other.Pumped...)
	l.Formula = append(l.Formula, other.Formula...)
	l.Urine = append(l.Urine, other.Urine...)
	l.Stool = append(l.Stool, other.Stool...)
	for _, w := range other.Weight {
		l.PutWeight(w)
	}
}

// PutWeight records w, replacing an earlier sample for the same date
func (l *EventLog) PutWeight(w WeightSample) {
	for i := range l.Weight {
		if l.Weight[i].Date == w.Date {
			l.Weight[i] = w
			return
		}
	}
	l.Weight = append(l.Weight, w)
}

// DailyCount holds per-category event counts for one date
type DailyCount struct {
	Date    Date `json:"date"`
	Breast  int  `json:"breast"`
	Pumped  int  `json:"pumped"`
	Formula int  `json:"formula"`
	Urine   int  `json:"urine"`
	Stool   int  `json:"stool"`
}

// DailyTotals holds summed quantities for one date
type DailyTotals struct {
	Date          Date `json:"date"`
	PumpedML      int  `json:"pumped_ml"`
	FormulaML     int  `json:"formula_ml"`
	BreastMinutes int  `json:"breast_minutes"`
}

// BottleML returns pumped plus formula volume
func (t DailyTotals) BottleML() int {
	return t.PumpedML + t.FormulaML
}

// DailySummary pairs the count and totals rows of one date
type DailySummary struct {
	Date   Date        `json:"date"`
	Counts DailyCount  `json:"counts"`
	Totals DailyTotals `json:"totals"`
}
