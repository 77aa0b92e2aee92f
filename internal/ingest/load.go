package ingest

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/table"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatOf derives the format from a file name.
func FormatOf(name string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Read dispatches on format.
func Read(r io.Reader, format Format, s Schema) (*table.Frame, error) {
	switch format {
	case FormatCSV:
		return ReadCSV(r, s)
	case FormatXLSX:
		return ReadXLSX(r, s)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// History reads a historical sheet and groups it into series. Optional
// columns the sheet does not carry are dropped from the mapping.
func History(r io.Reader, format Format, c table.HistoryColumns) ([]domain.Series, error) {
	f, err := Read(r, format, HistorySchema(c))
	if err != nil {
		return nil, err
	}
	return table.BuildSeries(f, c.Present(f))
}

// Demand reads a planned-demand sheet.
func Demand(r io.Reader, format Format, c table.DemandColumns) ([]domain.DemandSeries, error) {
	f, err := Read(r, format, DemandSchema(c))
	if err != nil {
		return nil, err
	}
	return table.BuildDemand(f, c)
}

// HistoryFile is History over a file on disk.
func HistoryFile(path string, c table.HistoryColumns) ([]domain.Series, error) {
	f, err := ReadFile(path, HistorySchema(c))
	if err != nil {
		return nil, err
	}
	return table.BuildSeries(f, c.Present(f))
}

// DemandFile is Demand over a file on disk.
func DemandFile(path string, c table.DemandColumns) ([]domain.DemandSeries, error) {
	f, err := ReadFile(path, DemandSchema(c))
	if err != nil {
		return nil, err
	}
	return table.BuildDemand(f, c)
}
