package report

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/forecast"
	"github.com/andresuchdata/stockcast/internal/pipeline/history"
)

func TestFloat(t *testing.T) {
	tests := []struct {
		name     string
		v        float64
		decimals int
		want     string
	}{
		{"nan", math.NaN(), 2, "N/A"},
		{"inf", math.Inf(1), 2, "inf"},
		{"negative inf", math.Inf(-1), 2, "-inf"},
		{"grouped", 1234567.891, 2, "1,234,567.89"},
		{"whole drops decimals", 1000, 2, "1,000"},
		{"pads fraction", 3.05, 2, "3.05"},
		{"negative", -12.5, 1, "-12.5"},
		{"rounds to zero", -0.001, 2, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Float(tt.v, tt.decimals))
		})
	}

	assert.Equal(t, "1.234,50", Indonesian.Float(1234.5, 2))
	assert.Equal(t, 1.3, Round(1.26, 1))
	assert.Equal(t, 3.0, Round(2.5, 0))
}

func TestTurnover(t *testing.T) {
	assert.Equal(t, "no stock", Turnover(domain.MetricsRow{TurnoverLabel: domain.TurnoverNoStock, Turnover: math.NaN()}))
	assert.Equal(t, "2.50", Turnover(domain.MetricsRow{Turnover: 2.5}))
}

func TestFormatAccuracy(t *testing.T) {
	assert.Equal(t, "Metrics unavailable", FormatAccuracy(nil))

	out := FormatAccuracy(map[forecast.Kind]forecast.Accuracy{
		forecast.MovingAverage: {MAPE: 12.5, MAE: 1, RMSE: 2, Bias: -0.5},
		forecast.Naive:         {MAPE: math.NaN(), MAE: 0, RMSE: 0, Bias: 0},
	})

	assert.Contains(t, out, "NAIVE:\n  MAPE: N/A")
	assert.Contains(t, out, "MOVING_AVERAGE:\n  MAPE: 12.50%")
	assert.Less(t, strings.Index(out, "NAIVE"), strings.Index(out, "MOVING_AVERAGE"))
}

func TestModelDescription(t *testing.T) {
	assert.Contains(t, ModelDescription("auto"), "Automatic")
	assert.Equal(t, forecast.HoltWinters.Description(), ModelDescription("hw"))
	assert.Equal(t, "Unknown model", ModelDescription("prophet"))
}

func TestHistoricalExplanation(t *testing.T) {
	row := domain.MetricsRow{
		Key:                domain.SeriesKey{Material: "CEMENT", Location: "NORTH"},
		Periods:            12,
		AvgUsage:           120,
		ABC:                domain.ClassA,
		XYZ:                domain.ClassX,
		Turnover:           math.NaN(),
		TurnoverLabel:      domain.TurnoverNoStock,
		Seasonality:        math.NaN(),
		DeadStock:          true,
		ValidationWarnings: []string{"2 periods with negative closing balance"},
	}

	text := Historical(row, domain.DefaultParams(), history.DefaultPolicy())

	assert.Contains(t, text, "CEMENT at NORTH over 12 periods")
	assert.Contains(t, text, "ABC class A")
	assert.Contains(t, text, "Turnover: no stock")
	assert.Contains(t, text, "Seasonality: N/A")
	assert.Contains(t, text, "dead stock")
	assert.Contains(t, text, "Warning: 2 periods with negative closing balance")
}

func TestForecastExplanation(t *testing.T) {
	row := domain.RecommendationRow{
		Key:              domain.SeriesKey{Material: "M1", Location: "L1"},
		Period:           time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Demand:           50,
		ProjectedOpening: 90,
		ProjectedClosing: 40,
		DemandWindow:     165,
		SafetyStock:      10,
		Recommendation:   135,
		Model:            "holt_winters",
		Strategy:         "holt_winters_nonseasonal",
		HasHistory:       true,
	}
	sel := &forecast.Selection{
		Model:   forecast.HoltWinters,
		Reason:  "lowest MAPE 4.00%",
		Metrics: map[forecast.Kind]forecast.Accuracy{forecast.HoltWinters: {MAPE: 4}},
	}

	text := Forecast(row, 0.2, 3, sel)

	assert.Contains(t, text, "M1 at L1 in 2025-01")
	assert.Contains(t, text, "fitted with holt_winters_nonseasonal")
	assert.Contains(t, text, "max(0, 165 + 10 - 40) = 135")
	assert.Contains(t, text, "20% of planned demand")
	assert.Contains(t, text, "165, the demand of this period and the next 2.")
	assert.Contains(t, text, "Model selection: lowest MAPE 4.00%.")
	assert.Contains(t, text, "HOLT_WINTERS:")

	manual := Forecast(domain.RecommendationRow{Key: row.Key, Period: row.Period}, 0.2, 1, nil)
	assert.Contains(t, manual, "taken from the planned demand table")
	assert.Contains(t, manual, "starts at zero")
	assert.Contains(t, manual, "the demand of this period.")
}

func TestWindowText(t *testing.T) {
	assert.Equal(t, "the demand of this period", windowText(1))
	assert.Equal(t, "the demand of this period and the next one", windowText(2))
	assert.Equal(t, "the demand of this period and the next 5", windowText(6))
}
