// Package export writes analysis result tables as CSV files or a workbook.
// Undefined values are written as N/A and unbounded ones as inf.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/report"
)

const (
	MetricsFile         = "metrics.csv"
	RecommendationsFile = "recommendations.csv"
	WorkbookFile        = "analysis.xlsx"

	periodLayout = "2006-01-02"
)

var metricsHeader = []string{
	"material", "location", "periods", "growth_ratio", "span_months",
	"avg_usage", "total_usage", "usage_std_dev", "avg_inventory",
	"turnover", "turnover_days", "seasonality", "trend", "abc", "xyz", "cv",
	"recommended_stock", "reorder_point", "excess", "unit_cost", "lost_opportunity",
	"deficit_periods", "deficit_pct", "avg_deficit", "fill_rate",
	"no_movement_periods", "dead_stock", "warnings",
}

var recommendationsHeader = []string{
	"material", "location", "period", "step", "demand",
	"projected_opening", "projected_closing", "demand_window", "safety_stock",
	"recommendation", "model", "strategy", "has_history",
}

func metricsRecord(r domain.MetricsRow) []string {
	return []string{
		r.Key.Material,
		r.Key.Location,
		strconv.Itoa(r.Periods),
		number(r.GrowthRatio),
		number(r.SpanMonths),
		number(r.AvgUsage),
		number(r.TotalUsage),
		number(r.UsageStdDev),
		number(r.AvgInventory),
		report.Turnover(r),
		number(r.TurnoverDays),
		number(r.Seasonality),
		number(r.Trend),
		string(r.ABC),
		string(r.XYZ),
		number(r.CV),
		number(r.RecommendedStock),
		number(r.ReorderPoint),
		strconv.FormatBool(r.Excess),
		number(r.UnitCost),
		number(r.LostOpportunity),
		strconv.Itoa(r.DeficitPeriods),
		number(r.DeficitPct),
		number(r.AvgDeficit),
		number(r.FillRate),
		strconv.Itoa(r.NoMovementPeriods),
		strconv.FormatBool(r.DeadStock),
		strings.Join(r.ValidationWarnings, "; "),
	}
}

func recommendationRecord(r domain.RecommendationRow) []string {
	return []string{
		r.Key.Material,
		r.Key.Location,
		r.Period.Format(periodLayout),
		strconv.Itoa(r.Step),
		number(r.Demand),
		number(r.ProjectedOpening),
		number(r.ProjectedClosing),
		number(r.DemandWindow),
		number(r.SafetyStock),
		number(r.Recommendation),
		r.Model,
		r.Strategy,
		strconv.FormatBool(r.HasHistory),
	}
}

// number keeps full precision for finite values so the file can be read back.
func number(v float64) string {
	switch s := report.Float(v, 0); s {
	case report.NotAvailable, report.Infinite, "-" + report.Infinite:
		return s
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteMetrics writes one row per series.
func WriteMetrics(w io.Writer, rows []domain.MetricsRow) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, metricsRecord(r))
	}
	return writeCSV(w, metricsHeader, records)
}

// WriteRecommendations writes one row per series and future period.
func WriteRecommendations(w io.Writer, rows []domain.RecommendationRow) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, recommendationRecord(r))
	}
	return writeCSV(w, recommendationsHeader, records)
}

func writeCSV(w io.Writer, header []string, records [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write csv rows: %w", err)
	}
	return nil
}

// File is one serialized result table.
type File struct {
	Name string
	Data []byte
}

// Files renders the metrics and recommendation CSVs plus the workbook.
func Files(metrics []domain.MetricsRow, recs []domain.RecommendationRow) ([]File, error) {
	var metricsCSV, recsCSV bytes.Buffer
	if err := WriteMetrics(&metricsCSV, metrics); err != nil {
		return nil, err
	}
	if err := WriteRecommendations(&recsCSV, recs); err != nil {
		return nil, err
	}
	workbook, err := Workbook(metrics, recs)
	if err != nil {
		return nil, err
	}

	return []File{
		{Name: MetricsFile, Data: metricsCSV.Bytes()},
		{Name: RecommendationsFile, Data: recsCSV.Bytes()},
		{Name: WorkbookFile, Data: workbook},
	}, nil
}
