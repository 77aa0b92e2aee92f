package consumption

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/andresuchdata/stockcast/internal/domain"
)

// Imbalance is one period whose balance equation does not hold.
type Imbalance struct {
	Key        domain.SeriesKey `json:"key"`
	Period     time.Time        `json:"period"`
	Expected   float64          `json:"expected"`
	Closing    float64          `json:"closing"`
	Difference float64          `json:"difference"`
}

// BalanceReport summarizes how well opening + arrival - consumption matches
// the reported closing balance on normalized data.
type BalanceReport struct {
	Checked       bool        `json:"checked"`
	TotalRows     int         `json:"total_rows"`
	ProblemRows   int         `json:"problem_rows"`
	ProblemPct    float64     `json:"problem_pct"`
	MaxDifference float64     `json:"max_difference"`
	AvgDifference float64     `json:"avg_difference"`
	Problems      []Imbalance `json:"problems,omitempty"`
}

// CheckBalance verifies the balance equation for every series carrying both
// consumption and arrivals. At most limit offending rows are kept; limit <= 0
// keeps them all.
func CheckBalance(series []domain.Series, limit int) BalanceReport {
	var (
		report BalanceReport
		diffs  []float64
	)
	for _, s := range series {
		if !s.HasConsumption || !s.HasArrival {
			continue
		}
		report.Checked = true
		for _, r := range s.Records {
			report.TotalRows++
			expected := r.Opening + r.Arrival - r.Consumption
			diff := math.Abs(expected - r.Closing)
			if diff <= BalanceTolerance {
				continue
			}
			diffs = append(diffs, diff)
			if limit <= 0 || len(report.Problems) < limit {
				report.Problems = append(report.Problems, Imbalance{
					Key:        s.Key,
					Period:     r.Period,
					Expected:   expected,
					Closing:    r.Closing,
					Difference: diff,
				})
			}
		}
	}
	report.ProblemRows = len(diffs)
	if report.TotalRows > 0 {
		report.ProblemPct = pct(report.ProblemRows, report.TotalRows)
	}
	if len(diffs) > 0 {
		report.MaxDifference = floats.Max(diffs)
		report.AvgDifference = stat.Mean(diffs, nil)
	}
	return report
}
