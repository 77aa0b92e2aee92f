package consumption

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/stockcast/internal/domain"
)

func balancedColumns(n int, sign float64) Columns {
	c := Columns{}
	opening := 100.0
	for i := 0; i < n; i++ {
		cons := float64(10 + i%5)
		arr := float64(5 * (i % 3))
		closing := opening + arr - cons
		c.Opening = append(c.Opening, opening)
		c.Arrival = append(c.Arrival, arr)
		c.Consumption = append(c.Consumption, sign*cons)
		c.Closing = append(c.Closing, closing)
		opening = closing
	}
	return c
}

func TestDetect_BalancePositive(t *testing.T) {
	cols := balancedColumns(40, 1)
	// two rows that break the equation still leave 95%
	cols.Closing[3] += 7
	cols.Closing[9] += 7

	det, err := Detect(cols, domain.ConventionAuto)
	require.NoError(t, err)
	assert.Equal(t, domain.ConventionPositive, det.Convention)
	assert.InDelta(t, 95.0, det.Confidence, 1e-9)
	assert.True(t, det.BalanceTested)
}

func TestDetect_BalanceNegative(t *testing.T) {
	cols := balancedColumns(12, -1)

	det, err := Detect(cols, domain.ConventionAuto)
	require.NoError(t, err)
	assert.Equal(t, domain.ConventionNegative, det.Convention)
	assert.Equal(t, 100.0, det.Confidence)
}

func TestDetect_SignMajority(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   domain.Convention
	}{
		{"all negative", []float64{-1, -2, -3, -4, -5}, domain.ConventionNegative},
		{"all positive", []float64{1, 2, 3, 4, 5}, domain.ConventionPositive},
		{"mostly negative", []float64{-1, -2, -3, 4, 5}, domain.ConventionMostlyNegative},
		{"mostly positive", []float64{1, 2, 3, -4, 0}, domain.ConventionMostlyPositive},
		{"mixed", []float64{1, -2, 0, 0}, domain.ConventionMixed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			det, err := Detect(Columns{Consumption: tt.values}, domain.ConventionAuto)
			require.NoError(t, err)
			assert.Equal(t, tt.want, det.Convention)
			assert.False(t, det.BalanceTested)
		})
	}
}

func TestDetect_TieFallsBackToSigns(t *testing.T) {
	// zero consumption satisfies both hypotheses equally
	cols := Columns{
		Consumption: []float64{0, 0, -3, -4, -5, -6},
		Opening:     []float64{10, 10, 1, 1, 1, 1},
		Arrival:     []float64{0, 0, 0, 0, 0, 0},
		Closing:     []float64{10, 10, 50, 50, 50, 50},
	}
	det, err := Detect(cols, domain.ConventionAuto)
	require.NoError(t, err)
	assert.Equal(t, det.BalancePositive, det.BalanceNegative)
	assert.Equal(t, domain.ConventionMostlyNegative, det.Convention)
}

func TestDetect_Forced(t *testing.T) {
	for _, c := range []domain.Convention{domain.ConventionPositive, domain.ConventionNegative, domain.ConventionAbs} {
		det, err := Detect(Columns{Consumption: []float64{-1, 2}}, c)
		require.NoError(t, err)
		assert.Equal(t, c, det.Convention)
		assert.Equal(t, 100.0, det.Confidence)
		assert.True(t, det.Forced)
	}
}

func TestDetect_Errors(t *testing.T) {
	_, err := Detect(Columns{Consumption: []float64{1}}, domain.Convention("sideways"))
	assert.ErrorIs(t, err, domain.ErrUnknownConvention)

	_, err = Detect(Columns{Consumption: []float64{1, 2}, Opening: []float64{1}}, domain.ConventionAuto)
	assert.ErrorIs(t, err, domain.ErrMismatchedLength)
}

func TestNormalize_NonNegativeAndPure(t *testing.T) {
	in := []float64{-3, 0, 4.5, -0.25}
	out, _, err := Normalize(Columns{Consumption: in}, domain.ConventionAuto)
	require.NoError(t, err)

	assert.Equal(t, []float64{3, 0, 4.5, 0.25}, out)
	assert.Equal(t, []float64{-3, 0, 4.5, -0.25}, in)
	for _, v := range out {
		assert.GreaterOrEqual(t, v, 0.0)
	}
}

func TestNormalizeSeries(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	series := []domain.Series{
		{
			Key:            domain.SeriesKey{Material: "M1", Location: "L1"},
			HasConsumption: true,
			Records: []domain.PeriodRecord{
				{Period: base, Opening: 10, Closing: 7, Consumption: -3},
				{Period: base.AddDate(0, 1, 0), Opening: 7, Closing: 5, Consumption: -2},
			},
		},
		{
			Key: domain.SeriesKey{Material: "M2", Location: "L1"},
			Records: []domain.PeriodRecord{
				{Period: base, Opening: 4, Closing: 4},
			},
		},
	}

	out, det, err := NormalizeSeries(series, domain.ConventionAuto)
	require.NoError(t, err)
	assert.Equal(t, domain.ConventionNegative, det.Convention)
	assert.Equal(t, []float64{3, 2}, out[0].Consumptions())
	assert.Equal(t, -3.0, series[0].Records[0].Consumption)
	assert.Equal(t, series[1].Records, out[1].Records)
}

func TestCheckBalance(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	series := []domain.Series{{
		Key:            domain.SeriesKey{Material: "M1", Location: "L1"},
		HasConsumption: true,
		HasArrival:     true,
		Records: []domain.PeriodRecord{
			{Period: base, Opening: 10, Arrival: 5, Consumption: 3, Closing: 12},
			{Period: base.AddDate(0, 1, 0), Opening: 12, Arrival: 0, Consumption: 2, Closing: 6},
		},
	}}

	report := CheckBalance(series, 0)
	assert.True(t, report.Checked)
	assert.Equal(t, 2, report.TotalRows)
	assert.Equal(t, 1, report.ProblemRows)
	assert.Equal(t, 50.0, report.ProblemPct)
	assert.InDelta(t, 4.0, report.MaxDifference, 1e-9)
	require.Len(t, report.Problems, 1)
	assert.Equal(t, 10.0, report.Problems[0].Expected)
}

func TestCheckBalance_Aggregates(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	records := func(closings ...float64) []domain.PeriodRecord {
		out := make([]domain.PeriodRecord, len(closings))
		for i, c := range closings {
			out[i] = domain.PeriodRecord{Period: base.AddDate(0, i, 0), Opening: 10, Arrival: 0, Consumption: 0, Closing: c}
		}
		return out
	}

	tests := []struct {
		name     string
		series   []domain.Series
		limit    int
		problems int
		kept     int
		max      float64
		avg      float64
	}{
		{
			name: "balanced",
			series: []domain.Series{
				{HasConsumption: true, HasArrival: true, Records: records(10, 10)},
			},
			kept: 0,
		},
		{
			name: "across series with limit",
			series: []domain.Series{
				{HasConsumption: true, HasArrival: true, Records: records(12, 10)},
				{HasConsumption: true, HasArrival: true, Records: records(4, 16)},
				{HasConsumption: true, Records: records(99)},
			},
			limit:    2,
			problems: 3,
			kept:     2,
			max:      6,
			avg:      14.0 / 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := CheckBalance(tt.series, tt.limit)
			assert.Equal(t, tt.problems, report.ProblemRows)
			assert.Len(t, report.Problems, tt.kept)
			assert.InDelta(t, tt.max, report.MaxDifference, 1e-9)
			assert.InDelta(t, tt.avg, report.AvgDifference, 1e-9)
		})
	}
}
