package purchase

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/forecast"
)

var key = domain.SeriesKey{Material: "M1", Location: "L1"}

func points(start time.Time, values ...float64) []domain.DemandPoint {
	out := make([]domain.DemandPoint, len(values))
	for i, v := range values {
		out[i] = domain.DemandPoint{Period: start.AddDate(0, i, 0), Demand: v}
	}
	return out
}

func TestForwardWindow(t *testing.T) {
	got := ForwardWindow([]float64{10, 20, 30, 40, 50}, 3)
	assert.Equal(t, []float64{60, 90, 120, 90, 50}, got)
	assert.Empty(t, ForwardWindow(nil, 3))
}

func TestPlan_RecommendationsNeverNegative(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := NewPlanner(0.2).Plan(Input{
		Key:        key,
		Opening:    10_000,
		HasHistory: true,
		Demand:     points(start, 5, 5, 5),
	})

	require.Len(t, rows, 3)
	for _, r := range rows {
		assert.GreaterOrEqual(t, r.Recommendation, 0.0)
		assert.Equal(t, 10_000.0, r.ProjectedOpening)
	}
}

// 36 months of history, last closing 90, demand starting 50, 60, 55.
func TestPlan_EndToEndScenario(t *testing.T) {
	base := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	hist := domain.Series{Key: key, HasConsumption: true}
	for i := 0; i < 36; i++ {
		hist.Records = append(hist.Records, domain.PeriodRecord{
			Period:      base.AddDate(0, i, 0),
			Opening:     100,
			Closing:     90,
			Consumption: 10,
		})
	}

	opening, ok := OpeningBalance(&hist)
	require.True(t, ok)
	assert.Equal(t, 90.0, opening)

	last, _ := hist.Last()
	periods := FuturePeriods(last.Period, 3)
	demand := []domain.DemandPoint{
		{Period: periods[0], Demand: 50},
		{Period: periods[1], Demand: 60},
		{Period: periods[2], Demand: 55},
	}

	rows := NewPlanner(0.20).Plan(Input{Key: key, Opening: opening, HasHistory: true, Demand: demand})
	require.Len(t, rows, 3)

	first := rows[0]
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), first.Period)
	assert.InDelta(t, 165.0, first.DemandWindow, 1e-9)
	assert.InDelta(t, 10.0, first.SafetyStock, 1e-9)
	assert.InDelta(t, 40.0, first.ProjectedClosing, 1e-9)
	assert.InDelta(t, 135.0, first.Recommendation, 1e-9)
}

func TestPlan_MissingHistory(t *testing.T) {
	opening, ok := OpeningBalance(nil)
	assert.False(t, ok)
	assert.Zero(t, opening)

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := NewPlanner(0.2).Plan(Input{Key: key, Demand: points(start, 10, 20)})

	require.Len(t, rows, 2)
	assert.False(t, rows[0].HasHistory)
	// window 30, safety 2, closing -10
	assert.InDelta(t, 42.0, rows[0].Recommendation, 1e-9)
}

func TestAnalyzeCoverage(t *testing.T) {
	rows := []domain.RecommendationRow{
		{ProjectedOpening: 40, Demand: 50},
		{ProjectedOpening: 40, Demand: 50},
	}
	c := AnalyzeCoverage(rows)
	assert.InDelta(t, 0.8, c.Ratio, 1e-9)
	assert.False(t, c.Sufficient)
	assert.InDelta(t, 20.0, c.Shortage, 1e-9)

	empty := AnalyzeCoverage(nil)
	assert.True(t, math.IsNaN(empty.Ratio))
	assert.True(t, empty.Sufficient)
}

func TestForecastSource(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	hist := domain.Series{Key: key}
	// balance movement 10 per period, no consumption column
	for i := 0; i < 6; i++ {
		hist.Records = append(hist.Records, domain.PeriodRecord{
			Period:  base.AddDate(0, i, 0),
			Opening: 100,
			Closing: 90,
		})
	}

	src := NewForecastSource(forecast.NewForecaster(forecast.DefaultParams(), nil), "naive", 3)
	d, err := src.Demand(context.Background(), hist, 2)
	require.NoError(t, err)

	require.Len(t, d.Points, 2)
	assert.Equal(t, base.AddDate(0, 6, 0), d.Points[0].Period)
	assert.Equal(t, 10.0, d.Points[0].Demand)
	assert.Equal(t, "naive", d.Model)

	_, err = src.Demand(context.Background(), domain.Series{Key: key}, 2)
	assert.ErrorIs(t, err, forecast.ErrInsufficientData)
}

func TestFromOutcomeFloorsAtZero(t *testing.T) {
	out := forecast.Outcome{Result: forecast.Result{Model: forecast.HoltWinters, Values: []float64{-4, 3}}}
	d := FromOutcome(out, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, 0.0, d.Points[0].Demand)
	assert.Equal(t, 3.0, d.Points[1].Demand)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), d.Points[0].Period)
}

func TestFuturePeriods(t *testing.T) {
	date := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name string
		last time.Time
		want []time.Time
	}{
		{"first of month", date(2024, 11, 1), []time.Time{date(2024, 12, 1), date(2025, 1, 1), date(2025, 2, 1)}},
		{"month end", date(2024, 1, 31), []time.Time{date(2024, 2, 29), date(2024, 3, 31), date(2024, 4, 30), date(2024, 5, 31)}},
		{"short month end", date(2023, 2, 28), []time.Time{date(2023, 3, 31), date(2023, 4, 30)}},
		{"mid month clamps", date(2024, 1, 30), []time.Time{date(2024, 2, 29), date(2024, 3, 30)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FuturePeriods(tt.last, len(tt.want)))
		})
	}
}

func TestFromOutcome_MonthEndHistory(t *testing.T) {
	outcome := forecast.Outcome{Result: forecast.Result{Model: forecast.Naive, Strategy: "naive", Values: []float64{5, 5, 5}}}

	demand := FromOutcome(outcome, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))

	months := make(map[string]bool)
	for _, p := range demand.Points {
		months[p.Period.Format("2006-01")] = true
	}
	assert.Equal(t, map[string]bool{"2024-02": true, "2024-03": true, "2024-04": true}, months)
}
