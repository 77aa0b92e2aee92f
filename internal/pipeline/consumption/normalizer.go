// Package consumption detects how a dataset signs its consumption column and
// converts it to non-negative quantities.
package consumption

import (
	"fmt"
	"math"

	"github.com/andresuchdata/stockcast/internal/domain"
)

const (
	// BalanceTolerance is the largest difference still counted as a balanced row.
	BalanceTolerance = 0.01

	strongMajority = 80.0
	weakMajority   = 50.0
)

// Columns is the raw input of one detection. Opening, Closing and Arrival are
// optional; when any of them is nil the balance test is skipped.
type Columns struct {
	Consumption []float64
	Opening     []float64
	Closing     []float64
	Arrival     []float64
}

// Detection reports the convention the detector settled on.
type Detection struct {
	Convention      domain.Convention `json:"convention"`
	Confidence      float64           `json:"confidence"`
	Rationale       string            `json:"rationale"`
	Forced          bool              `json:"forced"`
	PositiveCount   int               `json:"positive_count"`
	NegativeCount   int               `json:"negative_count"`
	ZeroCount       int               `json:"zero_count"`
	BalanceTested   bool              `json:"balance_tested"`
	BalancePositive int               `json:"balance_positive"`
	BalanceNegative int               `json:"balance_negative"`
}

func (c Columns) validate() error {
	n := len(c.Consumption)
	for name, col := range map[string][]float64{"opening": c.Opening, "closing": c.Closing, "arrival": c.Arrival} {
		if col != nil && len(col) != n {
			return domain.NewColumnError(name, domain.ErrMismatchedLength, "has %d values, consumption has %d", len(col), n)
		}
	}
	return nil
}

func (c Columns) balanceable() bool {
	return c.Opening != nil && c.Closing != nil && c.Arrival != nil
}

// Detect picks a convention for the consumption column. A requested convention
// other than auto is taken as given.
func Detect(cols Columns, requested domain.Convention) (Detection, error) {
	if err := cols.validate(); err != nil {
		return Detection{}, err
	}

	det := Detection{}
	for _, v := range cols.Consumption {
		switch {
		case v > 0:
			det.PositiveCount++
		case v < 0:
			det.NegativeCount++
		default:
			det.ZeroCount++
		}
	}

	switch requested {
	case domain.ConventionPositive, domain.ConventionNegative, domain.ConventionAbs:
		det.Convention = requested
		det.Confidence = 100
		det.Forced = true
		det.Rationale = fmt.Sprintf("convention forced to %s by caller", requested)
		return det, nil
	case domain.ConventionAuto, "":
	default:
		return Detection{}, fmt.Errorf("%w: %q", domain.ErrUnknownConvention, requested)
	}

	total := len(cols.Consumption)
	if total == 0 {
		det.Convention = domain.ConventionMixed
		det.Rationale = "no consumption values"
		return det, nil
	}

	if cols.balanceable() {
		det.BalanceTested = true
		for i, cons := range cols.Consumption {
			base := cols.Opening[i] + cols.Arrival[i]
			if math.Abs(base-cons-cols.Closing[i]) <= BalanceTolerance {
				det.BalancePositive++
			}
			if math.Abs(base+cons-cols.Closing[i]) <= BalanceTolerance {
				det.BalanceNegative++
			}
		}
		switch {
		case det.BalancePositive > det.BalanceNegative:
			det.Convention = domain.ConventionPositive
			det.Confidence = pct(det.BalancePositive, total)
			det.Rationale = fmt.Sprintf("opening + arrival - consumption = closing holds for %d of %d rows", det.BalancePositive, total)
			return det, nil
		case det.BalanceNegative > det.BalancePositive:
			det.Convention = domain.ConventionNegative
			det.Confidence = pct(det.BalanceNegative, total)
			det.Rationale = fmt.Sprintf("opening + arrival + consumption = closing holds for %d of %d rows", det.BalanceNegative, total)
			return det, nil
		}
	}

	negPct := pct(det.NegativeCount, total)
	posPct := pct(det.PositiveCount, total)
	switch {
	case negPct > strongMajority:
		det.Convention, det.Confidence = domain.ConventionNegative, negPct
	case posPct > strongMajority:
		det.Convention, det.Confidence = domain.ConventionPositive, posPct
	case negPct > weakMajority:
		det.Convention, det.Confidence = domain.ConventionMostlyNegative, negPct
	case posPct > weakMajority:
		det.Convention, det.Confidence = domain.ConventionMostlyPositive, posPct
	default:
		det.Convention, det.Confidence = domain.ConventionMixed, 0
	}
	det.Rationale = fmt.Sprintf("%.1f%% negative and %.1f%% positive values", negPct, posPct)
	if det.BalanceTested {
		det.Rationale = "balance test inconclusive; " + det.Rationale
	}
	return det, nil
}

// Normalize detects the convention and returns non-negative consumption. The
// input is not modified.
func Normalize(cols Columns, requested domain.Convention) ([]float64, Detection, error) {
	det, err := Detect(cols, requested)
	if err != nil {
		return nil, Detection{}, err
	}
	return Abs(cols.Consumption), det, nil
}

// Abs returns a copy of values with every entry made non-negative.
func Abs(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = math.Abs(v)
	}
	return out
}

// NormalizeSeries runs one dataset-wide detection over every series that has a
// consumption column and returns copies with non-negative consumption.
func NormalizeSeries(series []domain.Series, requested domain.Convention) ([]domain.Series, Detection, error) {
	var cols Columns
	balance := true
	for _, s := range series {
		if !s.HasConsumption {
			continue
		}
		balance = balance && s.HasArrival
	}
	for _, s := range series {
		if !s.HasConsumption {
			continue
		}
		cols.Consumption = append(cols.Consumption, s.Consumptions()...)
		if balance {
			cols.Opening = append(cols.Opening, s.Openings()...)
			cols.Closing = append(cols.Closing, s.Closings()...)
			cols.Arrival = append(cols.Arrival, s.Arrivals()...)
		}
	}

	det, err := Detect(cols, requested)
	if err != nil {
		return nil, Detection{}, err
	}

	out := make([]domain.Series, len(series))
	for i, s := range series {
		c := s.Clone()
		if c.HasConsumption {
			for j := range c.Records {
				c.Records[j].Consumption = math.Abs(c.Records[j].Consumption)
			}
		}
		out[i] = c
	}
	return out, det, nil
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
