package parser

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/zhaobenny/babylog/internal/model"
)

// ErrRejected is wrapped by every RejectedError
var ErrRejected = errors.New("token rejected")

// RejectedError reports a token that does not satisfy its category grammar
type RejectedError struct {
	Token  string
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("rejected token %q: %s", e.Token, e.Reason)
}

func (e *RejectedError) Unwrap() error {
	return ErrRejected
}

func reject(token string, lx Lexeme) error {
	return &RejectedError{Token: token, Reason: lx.Reason}
}

// BreastEntry is a parsed breast-feeding token
type BreastEntry struct {
	Time            model.TimeOfDay
	DurationMinutes *int
	Note            string
}

// ParseBreast parses tokens like "08:00L15R20", "11:30" or "9○"
func ParseBreast(token string) (BreastEntry, error) {
	lx := lexBreast(token)
	if lx.Shape == Unrecognized {
		return BreastEntry{}, reject(token, lx)
	}
	return BreastEntry{
		Time:            lx.Time,
		DurationMinutes: lx.Duration(),
		Note:            lx.Note,
	}, nil
}

// VolumeEntry is a parsed pumped-milk or formula token
type VolumeEntry struct {
	Time     model.TimeOfDay
	AmountML int
}

// ParseVolume parses tokens like "09:00-60"
func ParseVolume(token string) (VolumeEntry, error) {
	lx := lexVolume(token)
	if lx.Shape != TimeWithVolume {
		return VolumeEntry{}, reject(token, lx)
	}
	return VolumeEntry{Time: lx.Time, AmountML: lx.AmountML}, nil
}

// DiaperEntry is a parsed urine or stool token
type DiaperEntry struct {
	Time model.TimeOfDay
	Note string
}

// ParseDiaper parses tokens like "10:30" or "13:00△"
func ParseDiaper(token string) (DiaperEntry, error) {
	lx := lexDiaper(token)
	if lx.Shape == Unrecognized {
		return DiaperEntry{}, reject(token, lx)
	}
	return DiaperEntry{Time: lx.Time, Note: lx.Note}, nil
}

// ParseWeight parses a weight cell in kilograms. Empty, non-numeric,
// non-finite and non-positive values yield false.
func ParseWeight(cell string) (float64, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return 0, false
	}
	kg, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsNaN(kg) || math.IsInf(kg, 0) || kg <= 0 {
		return 0, false
	}
	return kg, true
}
