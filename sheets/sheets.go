/*
Package sheets reads and writes the spreadsheets HR staff trade with the
dashboard.

PURPOSE:
  Employee lists and completion logs arrive as whatever the office has to
  hand: CSV exports, legacy .xls workbooks, modern .xlsx. They all become a
  Table (one header row plus data rows) keyed by normalised header names.
  Exports go the other way: a Table written as CSV or a styled XLSX sheet.

RULES:
  - Exactly one worksheet per workbook; multi-sheet uploads are rejected
    rather than guessing which sheet is meant.
  - The first non-blank row is the header row.
  - Headers are case-folded, trimmed, and have spaces/dashes turned into
    underscores: "Hire Date" and "hire-date" both become "hire_date".
  - Excel serial dates (e.g. 45658) are converted when a column is read as
    a date.

SEE ALSO:
  - employees/import.go: Employee import mapping
  - tracking/import.go: Completion-record import mapping
*/
package sheets

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
)

// maxXLSRows caps how many rows are read from a legacy workbook.
const maxXLSRows = 100000

var (
	ErrEmpty          = errors.New("worksheet is empty")
	ErrNoWorksheet    = errors.New("no worksheet found")
	ErrMultipleSheets = errors.New("multiple worksheets found; upload a file with a single sheet")
	ErrUnsupported    = errors.New("unsupported file type; use .csv, .xls or .xlsx")
)

// =============================================================================
// READING
// =============================================================================

// ReadRows returns every row of the single worksheet in r. The format is
// chosen from filename's extension.
func ReadRows(filename string, r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		rows, err = readCSV(data)
	case ".xls":
		rows, err = readXLS(data)
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(data)
	default:
		return nil, ErrUnsupported
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrEmpty
	}
	return rows, nil
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}

func readXLS(data []byte) ([][]string, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}
	switch {
	case workbook.NumSheets() == 0:
		return nil, ErrNoWorksheet
	case workbook.NumSheets() > 1:
		return nil, ErrMultipleSheets
	}
	return workbook.ReadAllCells(maxXLSRows), nil
}

func readXLSX(data []byte) ([][]string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = file.Close() }()

	sheets := file.GetSheetList()
	switch {
	case len(sheets) == 0:
		return nil, ErrNoWorksheet
	case len(sheets) > 1:
		return nil, ErrMultipleSheets
	}
	return file.GetRows(sheets[0])
}

// =============================================================================
// TABLE
// =============================================================================

// Table is a header row plus data rows.
type Table struct {
	Headers []string
	Rows    [][]string

	index map[string]int
}

// NewTable builds a Table from raw rows. Leading blank rows are skipped and
// fully blank data rows are dropped.
func NewTable(rows [][]string) (*Table, error) {
	start := 0
	for start < len(rows) && blank(rows[start]) {
		start++
	}
	if start == len(rows) {
		return nil, ErrEmpty
	}

	t := &Table{Headers: rows[start]}
	for _, row := range rows[start+1:] {
		if !blank(row) {
			t.Rows = append(t.Rows, row)
		}
	}
	t.reindex()
	return t, nil
}

// Read is ReadRows followed by NewTable.
func Read(filename string, r io.Reader) (*Table, error) {
	rows, err := ReadRows(filename, r)
	if err != nil {
		return nil, err
	}
	return NewTable(rows)
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Headers))
	for i, h := range t.Headers {
		key := NormalizeHeader(h)
		if _, dup := t.index[key]; !dup {
			t.index[key] = i
		}
	}
}

// Column returns the index of the first header matching any of names, or -1.
func (t *Table) Column(names ...string) int {
	if t.index == nil {
		t.reindex()
	}
	for _, name := range names {
		if i, ok := t.index[NormalizeHeader(name)]; ok {
			return i
		}
	}
	return -1
}

// Cell returns the trimmed value at (row, col), or "" when out of range.
func Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

var folder = cases.Fold()

// NormalizeHeader case-folds and trims a header, joining words with underscores.
func NormalizeHeader(header string) string {
	h := folder.String(strings.TrimSpace(header))
	h = strings.NewReplacer("-", " ", "_", " ", ".", " ").Replace(h)
	return strings.Join(strings.Fields(h), "_")
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// =============================================================================
// DATES
// =============================================================================

var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"January 2, 2006",
	time.RFC3339,
}

// ParseDate accepts ISO dates, day-first UK dates, and Excel serial numbers.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	// Keep to a plausible serial range so a bare year is not read as a date.
	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		if serial >= 10000 && serial <= 80000 {
			if parsed, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC), true
			}
		}
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// =============================================================================
// WRITING
// =============================================================================

// WriteCSV writes the header row and data rows as CSV.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteXLSX writes t as a single worksheet with a bold, filled header row.
func WriteXLSX(w io.Writer, sheet string, t *Table) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheet = "Sheet1"
	}
	if sheet != "Sheet1" {
		idx, err := f.NewSheet(sheet)
		if err != nil {
			return err
		}
		f.SetActiveSheet(idx)
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	for i, h := range t.Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheet, col, col, 20)
	}
	if len(t.Headers) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(t.Headers), 1)
		if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
			return err
		}
	}

	for r, row := range t.Rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return f.Write(w)
}
