package parser

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/zhaobenny/babylog/internal/model"
)

// Rejection records a token that was dropped while building the event log
type Rejection struct {
	Line     int            `json:"line"`
	Date     model.Date     `json:"date"`
	Category model.Category `json:"category"`
	Token    string         `json:"token"`
	Reason   string         `json:"reason"`
}

// Result is the event log built from a table plus what was left out of it
type Result struct {
	model.EventLog
	SkippedRows int         `json:"skipped_rows"`
	Rejected    []Rejection `json:"rejected,omitempty"`
}

func (r *Result) merge(other Result) {
	r.EventLog.Append(other.EventLog)
	r.SkippedRows += other.SkippedRows
	r.Rejected = append(r.Rejected, other.Rejected...)
}

// Build parses every row into ordered per-category event lists.
// Rows without a usable date are skipped and malformed tokens are dropped;
// neither stops the build.
func Build(rows []model.Row) Result {
	var res Result
	for _, row := range rows {
		res.addRow(row)
	}
	return res
}

// BuildConcurrent builds contiguous chunks of rows in parallel and
// concatenates them in input order, so the result equals Build(rows).
func BuildConcurrent(ctx context.Context, rows []model.Row, workers int) (Result, error) {
	if workers <= 1 || len(rows) <= workers {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		return Build(rows), nil
	}

	size := (len(rows) + workers - 1) / workers
	var chunks [][]model.Row
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		chunks = append(chunks, rows[start:end])
	}
	parts := make([]Result, len(chunks))

	g, ctx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		g.Go(func() error {
			var part Result
			for _, row := range chunk {
				if err := ctx.Err(); err != nil {
					return err
				}
				part.addRow(row)
			}
			parts[i] = part
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	var res Result
	for _, part := range parts {
		res.merge(part)
	}
	return res, nil
}

func (r *Result) addRow(row model.Row) {
	date, err := model.ParseDate(row.Date)
	if err != nil {
		r.SkippedRows++
		return
	}

	for _, category := range model.EventCategories {
		cell, ok := row.Cells[category]
		if !ok {
			continue
		}
		for _, token := range strings.Fields(cell) {
			if err := r.addToken(date, category, token); err != nil {
				var rejected *RejectedError
				if !errors.As(err, &rejected) {
					continue
				}
				r.Rejected = append(r.Rejected, Rejection{
					Line:     row.Line,
					Date:     date,
					Category: category,
					Token:    rejected.Token,
					Reason:   rejected.Reason,
				})
			}
		}
	}

	if cell, ok := row.Cells[model.CategoryWeight]; ok {
		if kg, ok := ParseWeight(cell); ok {
			r.PutWeight(model.WeightSample{Date: date, WeightKg: kg})
		}
	}
}

func (r *Result) addToken(date model.Date, category model.Category, token string) error {
	switch category {
	case model.CategoryBreast:
		e, err := ParseBreast(token)
		if err != nil {
			return err
		}
		r.Breast = append(r.Breast, model.BreastFeedingEvent{
			Date:            date,
			Time:            e.Time,
			DurationMinutes: e.DurationMinutes,
			Note:            e.Note,
		})

	case model.CategoryPumped, model.CategoryFormula:
		e, err := ParseVolume(token)
		if err != nil {
			return err
		}
		ev := model.VolumeEvent{Category: category, Date: date, Time: e.Time, AmountML: e.AmountML}
		if category == model.CategoryPumped {
			r.Pumped = append(r.Pumped, ev)
		} else {
			r.Formula = append(r.Formula, ev)
		}

	case model.CategoryUrine, model.CategoryStool:
		e, err := ParseDiaper(token)
		if err != nil {
			return err
		}
		ev := model.DiaperEvent{Category: category, Date: date, Time: e.Time, Note: e.Note}
		if category == model.CategoryUrine {
			r.Urine = append(r.Urine, ev)
		} else {
			r.Stool = append(r.Stool, ev)
		}
	}
	return nil
}
