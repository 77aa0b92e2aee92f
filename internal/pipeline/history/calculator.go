// Package history computes per-series metrics over historical inventory
// movements.
package history

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/andresuchdata/stockcast/internal/domain"
)

const (
	daysPerMonth    = 30.44
	daysPerYear     = 365.0
	monthsPerYear   = 12.0
	daysInUsageSpan = 30.0
)

// Calculator computes historical metrics for one series at a time.
type Calculator struct {
	params domain.Params
	policy Policy
}

// NewCalculator creates a calculator for the given analysis parameters.
func NewCalculator(params domain.Params, policy Policy) *Calculator {
	return &Calculator{params: params, policy: policy}
}

// Calculate computes every metric for s. Consumption must already be
// normalized to non-negative values.
func (c *Calculator) Calculate(s domain.Series) domain.MetricsRow {
	row := domain.MetricsRow{Key: s.Key, Periods: s.Len()}
	if s.Len() == 0 {
		return emptyRow(row)
	}

	opening := s.Openings()
	closing := s.Closings()
	first := s.Records[0]
	last := s.Records[len(s.Records)-1]

	// 1. Growth = last closing / first opening
	if first.Opening == 0 {
		row.GrowthRatio = math.Inf(1)
	} else {
		row.GrowthRatio = last.Closing / first.Opening
	}
	row.SpanMonths = last.Period.Sub(first.Period).Hours() / 24 / daysPerMonth

	// 2. Usage from consumption, or from balance movement when it is absent
	var usage []float64
	if s.HasConsumption {
		usage = s.Consumptions()
		row.AvgUsage = stat.Mean(usage, nil)
		row.TotalUsage = floats.Sum(usage)
	} else {
		usage = make([]float64, len(opening))
		floats.SubTo(usage, opening, closing)
		row.AvgUsage = math.Abs(stat.Mean(usage, nil))
		row.TotalUsage = math.Abs(floats.Sum(usage))
	}
	row.UsageStdDev = stdDev(usage)

	// 3. Average inventory = |mean((opening + closing) / 2)|
	mid := make([]float64, len(opening))
	for i := range mid {
		mid[i] = (opening[i] + closing[i]) / 2
	}
	row.AvgInventory = math.Abs(stat.Mean(mid, nil))

	// 4. Turnover
	row.Turnover, row.TurnoverLabel = turnover(row.TotalUsage, row.AvgInventory)
	row.TurnoverDays = math.NaN()
	if row.TurnoverLabel == domain.TurnoverNumeric && row.Turnover > 0 {
		row.TurnoverDays = daysPerYear / row.Turnover
	}

	// 5. Seasonality and trend need more than one seasonal cycle
	row.Seasonality, row.Trend = math.NaN(), math.NaN()
	period := c.params.SeasonalPeriods
	if period < 2 {
		period = 12
	}
	if s.Len() > period {
		if seasonal := seasonalComponent(closing, period); seasonal != nil {
			if sd := stdDev(closing); sd > 0 {
				row.Seasonality = stdDev(seasonal) / sd
			}
		}
		row.Trend = slope(closing)
	}

	// 6. ABC / XYZ classification
	absAvg := math.Abs(row.AvgUsage)
	row.ABC = c.classifyABC(absAvg)
	row.CV = math.NaN()
	if absAvg != 0 {
		row.CV = row.UsageStdDev / absAvg
	}
	row.XYZ = c.classifyXYZ(row.CV)

	// 7. Recommended stock level
	row.RecommendedStock = absAvg * c.policy.StockMultiple
	if row.Seasonality > c.policy.SeasonalityLimit {
		row.RecommendedStock *= c.policy.SeasonalBoost
	}
	if row.Trend > 0 {
		row.RecommendedStock *= c.policy.TrendBoost
	}

	// 8. Reorder point = daily usage x lead time + z x daily std x sqrt(lead time)
	dailyUsage := absAvg / (daysPerYear / monthsPerYear)
	safety := 0.0
	if !math.IsNaN(row.UsageStdDev) {
		dailyStd := row.UsageStdDev / math.Sqrt(daysInUsageSpan)
		safety = c.policy.ServiceFactor * dailyStd * math.Sqrt(c.params.LeadTimeDays)
	}
	row.ReorderPoint = dailyUsage*c.params.LeadTimeDays + safety

	// 9. Excess stock and the opportunity cost of holding it
	excessLine := c.policy.ExcessMultiple * absAvg
	row.Excess = last.Closing > excessLine
	if s.HasClosingCost && last.Closing != 0 {
		row.UnitCost = last.ClosingCost / last.Closing
	}
	if row.Excess {
		row.LostOpportunity = (last.Closing - excessLine) * row.UnitCost * c.params.InterestRate / 100
	}

	// 10. Deficits and fill rate
	var deficitSum, negativeSum float64
	for _, v := range closing {
		if v < 0 {
			row.DeficitPeriods++
			deficitSum += -v
			negativeSum += v
		}
	}
	row.DeficitPct = float64(row.DeficitPeriods) / float64(s.Len()) * 100
	if row.DeficitPeriods > 0 {
		row.AvgDeficit = deficitSum / float64(row.DeficitPeriods)
	}
	if s.HasConsumption {
		row.FillRate = 100
		if total := row.TotalUsage; total > 0 {
			row.FillRate = (total - math.Abs(negativeSum)) / total * 100
		}
	} else {
		row.FillRate = 100 - row.DeficitPct
	}

	// 11. Dead stock
	for _, r := range s.Records {
		if (s.HasConsumption && r.Consumption == 0) || (!s.HasConsumption && r.Opening == r.Closing) {
			row.NoMovementPeriods++
		}
	}
	row.DeadStock = float64(row.NoMovementPeriods) > c.policy.DeadStockShare*float64(s.Len())

	row.ValidationWarnings = c.validate(s, row)
	return row
}

// CalculateAll computes metrics for every series in order.
func (c *Calculator) CalculateAll(series []domain.Series) []domain.MetricsRow {
	out := make([]domain.MetricsRow, len(series))
	for i, s := range series {
		out[i] = c.Calculate(s)
	}
	return out
}

func (c *Calculator) classifyABC(absAvg float64) domain.ABCClass {
	switch {
	case absAvg > c.policy.ABCHigh:
		return domain.ClassA
	case absAvg > c.policy.ABCMid:
		return domain.ClassB
	}
	return domain.ClassC
}

func (c *Calculator) classifyXYZ(cv float64) domain.XYZClass {
	switch {
	case cv < c.policy.XYZLow:
		return domain.ClassX
	case cv < c.policy.XYZMid:
		return domain.ClassY
	}
	// NaN compares false and lands here
	return domain.ClassZ
}

func (c *Calculator) validate(s domain.Series, row domain.MetricsRow) []string {
	var warnings []string
	negOpening, negCost := 0, 0
	for _, r := range s.Records {
		if r.Opening < 0 {
			negOpening++
		}
		if s.HasClosingCost && r.ClosingCost < 0 {
			negCost++
		}
	}
	if negOpening > 0 {
		warnings = append(warnings, fmt.Sprintf("%d periods with negative opening balance", negOpening))
	}
	if negCost > 0 {
		warnings = append(warnings, fmt.Sprintf("%d periods with negative closing cost", negCost))
	}
	if row.UnitCost > c.policy.MaxUnitCost {
		warnings = append(warnings, fmt.Sprintf("unit cost %.2f looks implausible", row.UnitCost))
	}
	return warnings
}

// turnover labels the degenerate cases instead of dividing by zero.
func turnover(totalUsage, avgInventory float64) (float64, domain.TurnoverLabel) {
	switch {
	case math.IsNaN(totalUsage) || math.IsInf(totalUsage, 0) || math.IsNaN(avgInventory) || math.IsInf(avgInventory, 0):
		return math.NaN(), domain.TurnoverDataError
	case totalUsage == 0 && avgInventory == 0:
		return math.NaN(), domain.TurnoverNoMovement
	case totalUsage == 0:
		return math.NaN(), domain.TurnoverNoUsage
	case avgInventory == 0:
		return math.NaN(), domain.TurnoverNoStock
	case avgInventory > 0:
		return math.Abs(totalUsage) / avgInventory, domain.TurnoverNumeric
	}
	return math.NaN(), domain.TurnoverDataError
}

// stdDev is the sample standard deviation, NaN below two values.
func stdDev(x []float64) float64 {
	if len(x) < 2 {
		return math.NaN()
	}
	return stat.StdDev(x, nil)
}

// slope is the least-squares slope of y against its index.
func slope(y []float64) float64 {
	if len(y) < 2 {
		return math.NaN()
	}
	x := make([]float64, len(y))
	for i := range x {
		x[i] = float64(i)
	}
	_, beta := stat.LinearRegression(x, y, nil, false)
	return beta
}

func emptyRow(row domain.MetricsRow) domain.MetricsRow {
	nan := math.NaN()
	row.GrowthRatio, row.SpanMonths = nan, nan
	row.AvgUsage, row.TotalUsage, row.UsageStdDev = nan, nan, nan
	row.AvgInventory, row.Turnover, row.TurnoverDays = nan, nan, nan
	row.Seasonality, row.Trend, row.CV = nan, nan, nan
	row.RecommendedStock, row.ReorderPoint = nan, nan
	row.DeficitPct, row.AvgDeficit, row.FillRate = nan, nan, nan
	row.TurnoverLabel = domain.TurnoverDataError
	row.ABC, row.XYZ = domain.ClassC, domain.ClassZ
	return row
}
