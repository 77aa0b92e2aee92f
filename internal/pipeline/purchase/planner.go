// Package purchase turns future demand into projected balances and purchase
// recommendations.
package purchase

import (
	"math"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
)

// DefaultWindow is the number of periods the forward demand window covers.
const DefaultWindow = 3

// Input is everything the planner needs for one series.
type Input struct {
	Key        domain.SeriesKey
	Opening    float64
	HasHistory bool
	Demand     []domain.DemandPoint
	Model      string
	Strategy   string
}

// Planner computes recommendation rows.
type Planner struct {
	safetyFraction float64
	window         int
}

// NewPlanner creates a planner holding safetyFraction of each period's demand
// as safety stock.
func NewPlanner(safetyFraction float64) *Planner {
	return &Planner{safetyFraction: safetyFraction, window: DefaultWindow}
}

// Window is the number of periods each demand window covers.
func (p *Planner) Window() int {
	return p.window
}

// Plan projects every future period of in. The projected opening balance is
// the last historical closing, carried forward unchanged to every period.
func (p *Planner) Plan(in Input) []domain.RecommendationRow {
	demand := make([]float64, len(in.Demand))
	for i, d := range in.Demand {
		demand[i] = d.Demand
	}
	windows := ForwardWindow(demand, p.window)

	rows := make([]domain.RecommendationRow, len(in.Demand))
	for i, d := range in.Demand {
		safety := d.Demand * p.safetyFraction
		closing := in.Opening - d.Demand
		rows[i] = domain.RecommendationRow{
			Key:              in.Key,
			Period:           d.Period,
			Step:             i + 1,
			Demand:           d.Demand,
			ProjectedOpening: in.Opening,
			ProjectedClosing: closing,
			DemandWindow:     windows[i],
			SafetyStock:      safety,
			Recommendation:   math.Max(0, windows[i]+safety-closing),
			Model:            in.Model,
			Strategy:         in.Strategy,
			HasHistory:       in.HasHistory,
		}
	}
	return rows
}

// ForwardWindow returns, for every index i, the sum of values[i:i+size]; the
// window shrinks at the tail.
func ForwardWindow(values []float64, size int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		end := i + size
		if end > len(values) {
			end = len(values)
		}
		for _, v := range values[i:end] {
			out[i] += v
		}
	}
	return out
}

// OpeningBalance returns the most recent historical closing of s, or zero and
// false when there is no history.
func OpeningBalance(s *domain.Series) (float64, bool) {
	if s == nil {
		return 0, false
	}
	last, ok := s.Last()
	if !ok {
		return 0, false
	}
	return last.Closing, true
}

// FuturePeriods returns horizon monthly periods following last, one per
// calendar month. The day of month of last is kept, clamped to the length of
// each month; a month-end last yields month-end periods.
func FuturePeriods(last time.Time, horizon int) []time.Time {
	y, m, d := last.Date()
	hh, mm, ss := last.Clock()
	monthEnd := d == daysIn(y, m, last.Location())

	out := make([]time.Time, horizon)
	for i := range out {
		// day 1 never overflows into the following month
		first := time.Date(y, m+time.Month(i+1), 1, hh, mm, ss, last.Nanosecond(), last.Location())
		day := d
		if n := daysIn(first.Year(), first.Month(), last.Location()); monthEnd || day > n {
			day = n
		}
		out[i] = first.AddDate(0, 0, day-1)
	}
	return out
}

func daysIn(y int, m time.Month, loc *time.Location) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, loc).Day()
}
