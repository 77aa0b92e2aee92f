package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/stockcast/internal/domain"
)

const (
	MetricsSheet         = "Metrics"
	RecommendationsSheet = "Recommendations"
)

// Workbook renders both tables into one xlsx file, one sheet each.
func Workbook(metrics []domain.MetricsRow, recs []domain.RecommendationRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), MetricsSheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(RecommendationsSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet %s: %w", RecommendationsSheet, err)
	}

	metricRows := make([][]string, 0, len(metrics))
	for _, r := range metrics {
		metricRows = append(metricRows, metricsRecord(r))
	}
	if err := writeSheet(f, MetricsSheet, metricsHeader, metricRows); err != nil {
		return nil, err
	}

	recRows := make([][]string, 0, len(recs))
	for _, r := range recs {
		recRows = append(recRows, recommendationRecord(r))
	}
	if err := writeSheet(f, RecommendationsSheet, recommendationsHeader, recRows); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, header []string, records [][]string) error {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("failed to open stream writer for %s: %w", sheet, err)
	}

	write := func(row int, values []string) error {
		cells := make([]interface{}, len(values))
		for i, v := range values {
			cells[i] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		return sw.SetRow(cell, cells)
	}

	if err := write(1, header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}
	for i, rec := range records {
		if err := write(i+2, rec); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return sw.Flush()
}
