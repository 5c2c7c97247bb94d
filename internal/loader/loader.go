package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/zhaobenny/babylog/internal/model"
)

var (
	// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX
	ErrUnsupportedFormat = errors.New("only CSV and Excel (.xlsx) files are supported")
	// ErrMissingDateColumn is returned when the header has no date column
	ErrMissingDateColumn = errors.New("input needs a 'date' column")
)

const (
	dateColumn = "date"
	// serial day numbers at or above this are treated as text (e.g. 20250915)
	maxExcelSerial = 100000
)

// Load reads a CSV or XLSX log file into rows
func Load(path string) ([]model.Row, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ReadCSV(f)
	case ".xlsx":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("opening workbook: %w", err)
		}
		defer f.Close()
		return readWorkbook(f)
	default:
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupportedFormat)
	}
}

// ReadCSV reads a CSV table whose first record is the header
func ReadCSV(r io.Reader) ([]model.Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	return fromRecords(records, nil)
}

// ReadXLSX reads the first sheet of a workbook
func ReadXLSX(r io.Reader) ([]model.Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()
	return readWorkbook(f)
}

func readWorkbook(f *excelize.File) ([]model.Row, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	records, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheets[0], err)
	}
	return fromRecords(records, excelDate)
}

// excelDate converts a serial day number into an ISO date; other text is returned unchanged
func excelDate(s string) string {
	serial, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || serial <= 0 || serial >= maxExcelSerial {
		return s
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return s
	}
	return model.DateOf(t).String()
}

// fromRecords maps the header onto categories and builds one Row per record.
// Unknown columns are ignored; empty cells are left out of Row.Cells.
func fromRecords(records [][]string, dateFn func(string) string) ([]model.Row, error) {
	if len(records) == 0 {
		return nil, ErrMissingDateColumn
	}

	dateIdx := -1
	columns := make(map[int]model.Category)
	for i, name := range records[0] {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if name == dateColumn {
			if dateIdx < 0 {
				dateIdx = i
			}
			continue
		}
		if c, ok := model.ParseCategory(name); ok {
			columns[i] = c
		}
	}
	if dateIdx < 0 {
		return nil, ErrMissingDateColumn
	}

	rows := make([]model.Row, 0, len(records)-1)
	for n, rec := range records[1:] {
		if isBlank(rec) {
			continue
		}
		row := model.Row{
			Line:  n + 2,
			Cells: make(map[model.Category]string),
		}
		if dateIdx < len(rec) {
			row.Date = strings.TrimSpace(rec[dateIdx])
			if dateFn != nil {
				row.Date = dateFn(row.Date)
			}
		}
		for i, c := range columns {
			if i >= len(rec) {
				continue
			}
			if v := strings.TrimSpace(rec[i]); v != "" {
				row.Cells[c] = v
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Sample returns the built-in two day example log
func Sample() []model.Row {
	return []model.Row{
		{
			Line: 2,
			Date: "2025-09-15",
			Cells: map[model.Category]string{
				model.CategoryBreast:  "08:00L15R20 11:30",
				model.CategoryPumped:  "09:00-60 14:00-40",
				model.CategoryFormula: "12:30-100 18:30-80",
				model.CategoryUrine:   "07:00 10:00 15:30",
				model.CategoryStool:   "09:00 13:00△",
				model.CategoryWeight:  "4.5",
			},
		},
		{
			Line: 3,
			Date: "2025-09-16",
			Cells: map[model.Category]string{
				model.CategoryBreast:  "07:30L20R15",
				model.CategoryPumped:  "10:00-50",
				model.CategoryFormula: "13:00-120",
				model.CategoryUrine:   "08:00 12:00",
				model.CategoryStool:   "09:30× 16:00",
				model.CategoryWeight:  "4.7",
			},
		},
	}
}
