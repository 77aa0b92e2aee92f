// Package ingest reads CSV and XLSX sheets into typed tables.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/table"
)

// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// dateLayouts are tried in order for time columns.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01",
	"02.01.2006",
	"01/02/2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// Schema says which columns to read and how to type them. Columns not named
// are ignored; named columns missing from the sheet are left out of the
// frame so that column validation can report them.
type Schema struct {
	Times   []string
	Strings []string
	Numbers []string
}

// HistorySchema reads the columns a history mapping names.
func HistorySchema(c table.HistoryColumns) Schema {
	return Schema{
		Times:   []string{c.Timestamp},
		Strings: []string{c.Material, c.Location},
		Numbers: c.Numeric(),
	}
}

// DemandSchema reads the columns a demand mapping names.
func DemandSchema(c table.DemandColumns) Schema {
	return Schema{
		Times:   []string{c.Timestamp},
		Strings: []string{c.Material, c.Location},
		Numbers: []string{c.Demand},
	}
}

// ReadFile picks the reader by file extension.
func ReadFile(path string, s Schema) (*table.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return ReadCSV(f, s)
	case ".xlsx":
		return ReadXLSX(f, s)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// ReadCSV reads a header row plus records.
func ReadCSV(r io.Reader, s Schema) (*table.Frame, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: csv has no header row", domain.ErrMissingColumn)
	}
	return fromRecords(records[0], records[1:], s)
}

// ReadXLSX reads the first sheet of a workbook.
func ReadXLSX(r io.Reader, s Schema) (*table.Frame, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: xlsx has no sheets", domain.ErrMissingColumn)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %s has no header row", domain.ErrMissingColumn, sheets[0])
	}
	return fromRecords(rows[0], rows[1:], s)
}

func fromRecords(header []string, records [][]string, s Schema) (*table.Frame, error) {
	colIndex := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeColumnName(h)
		if _, dup := colIndex[key]; !dup {
			colIndex[key] = i
		}
	}

	// trailing blank rows are common in exported sheets
	for len(records) > 0 && blank(records[len(records)-1]) {
		records = records[:len(records)-1]
	}

	lookup := func(name string) (int, bool) {
		if name == "" {
			return 0, false
		}
		idx, ok := colIndex[normalizeColumnName(name)]
		return idx, ok
	}

	get := func(record []string, idx int) string {
		if idx < 0 || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	frame := table.NewFrame()
	for _, name := range s.Times {
		idx, ok := lookup(name)
		if !ok {
			continue
		}
		values := make([]time.Time, len(records))
		for i, rec := range records {
			v, err := ParseTime(get(rec, idx))
			if err != nil {
				return nil, domain.NewColumnError(name, domain.ErrInvalidValue, "row %d: %v", i+1, err)
			}
			values[i] = v
		}
		if err := frame.AddTimes(name, values); err != nil {
			return nil, err
		}
	}
	for _, name := range s.Strings {
		idx, ok := lookup(name)
		if !ok {
			continue
		}
		values := make([]string, len(records))
		for i, rec := range records {
			values[i] = get(rec, idx)
		}
		if err := frame.AddStrings(name, values); err != nil {
			return nil, err
		}
	}
	for _, name := range s.Numbers {
		idx, ok := lookup(name)
		if !ok {
			continue
		}
		values := make([]float64, len(records))
		for i, rec := range records {
			v, err := parseFloat(get(rec, idx))
			if err != nil {
				return nil, domain.NewColumnError(name, domain.ErrInvalidValue, "row %d: %v", i+1, err)
			}
			values[i] = v
		}
		if err := frame.AddNumbers(name, values); err != nil {
			return nil, err
		}
	}
	return frame, nil
}

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return columnNameSanitizer.Replace(name)
}

// parseFloat accepts thousands commas. Blank cells are NaN.
func parseFloat(v string) (float64, error) {
	if v == "" {
		return math.NaN(), nil
	}
	v = strings.ReplaceAll(v, ",", "")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", v)
	}
	return f, nil
}

// ParseTime accepts the supported date layouts and returns the zero time
// for blank cells.
func ParseTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not a recognised date", v)
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
