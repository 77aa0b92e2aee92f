package forecast

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/stockcast/internal/domain"
)

func TestEvaluate(t *testing.T) {
	acc := Evaluate([]float64{0, 10, 20}, []float64{1, 12, 18})

	assert.InDelta(t, 15.0, acc.MAPE, 1e-9)
	assert.InDelta(t, 5.0/3, acc.MAE, 1e-9)
	assert.InDelta(t, math.Sqrt(3), acc.RMSE, 1e-9)
	assert.InDelta(t, 1.0/3, acc.Bias, 1e-9)
}

func TestEvaluate_AllZeroActuals(t *testing.T) {
	acc := Evaluate([]float64{0, 0}, []float64{1, 2})

	assert.True(t, math.IsNaN(acc.MAPE))
	assert.InDelta(t, 1.5, acc.MAE, 1e-9)
}

func TestSelect_ShortSeries(t *testing.T) {
	sel := Select(context.Background(), []float64{1, 2, 3, 4, 5, 6, 7}, 3, DefaultParams())

	assert.Equal(t, MovingAverage, sel.Model)
	assert.True(t, sel.Skipped)
	assert.Empty(t, sel.Metrics)
}

func TestSelect_TieFallsBackToMovingAverage(t *testing.T) {
	series := make([]float64, 20)
	for i := range series {
		series[i] = 5
	}

	sel := Select(context.Background(), series, 3, DefaultParams())

	assert.Equal(t, MovingAverage, sel.Model)
	assert.False(t, sel.Skipped)
	assert.NotContains(t, sel.Metrics, SARIMA)
}

func TestSelect_AllZeroActualsFallsBack(t *testing.T) {
	series := append(linearSeries(10, 1, 1), 0, 0, 0)

	sel := Select(context.Background(), series, 3, DefaultParams())

	assert.Equal(t, MovingAverage, sel.Model)
	assert.NotEmpty(t, sel.Metrics)
}

func TestSelect_PicksTrendModel(t *testing.T) {
	series := linearSeries(20, 10, 10)

	sel := Select(context.Background(), series, 3, DefaultParams())

	assert.Equal(t, HoltWinters, sel.Model)
	assert.Less(t, sel.Metrics[HoltWinters].MAPE, sel.Metrics[Naive].MAPE)
}

func TestDemand(t *testing.T) {
	f := NewForecaster(DefaultParams(), nil)
	series := linearSeries(20, 10, 10)

	auto, err := f.Demand(context.Background(), series, 2, domain.ModelAuto, 3)
	require.NoError(t, err)
	require.NotNil(t, auto.Selection)
	assert.Equal(t, HoltWinters, auto.Result.Model)

	pinned, err := f.Demand(context.Background(), series, 2, "naive", 3)
	require.NoError(t, err)
	assert.Nil(t, pinned.Selection)
	assert.Equal(t, []float64{200, 200}, pinned.Result.Values)

	_, err = f.Demand(context.Background(), series, 2, "prophet", 3)
	assert.ErrorIs(t, err, domain.ErrUnknownModel)
}

func TestSelect_LeavesOutModelsThatCannotFit(t *testing.T) {
	// 22 training points clear the SARIMA minimum, but a season of 18
	// leaves too few differenced observations to fit it
	series := linearSeries(25, 100, 10)
	p := DefaultParams().WithSeason(18)

	res, err := Forecast(context.Background(), series[:22], 3, SARIMA, p)
	require.NoError(t, err)
	require.True(t, res.Fallback())

	sel := Select(context.Background(), series, 3, p)

	assert.NotContains(t, sel.Metrics, SARIMA)
	require.Contains(t, sel.Metrics, HoltWinters)
	assert.Equal(t, HoltWinters, sel.Model)
	assert.Contains(t, sel.Reason, "lowest MAPE")
}

func TestResultNative(t *testing.T) {
	tests := []struct {
		name string
		res  Result
		want bool
	}{
		{"own strategy", Result{Model: SARIMA, Strategy: "sarima"}, true},
		{"sarima through holt-winters", Result{Model: SARIMA, Strategy: "holt_winters"}, false},
		{"ses through moving average", Result{Model: ExponentialSmoothing, Strategy: "moving_average_3"}, false},
		{"holt-winters without season", Result{Model: HoltWinters, Strategy: "holt_winters_nonseasonal"}, true},
		{"holt-winters through moving average", Result{Model: HoltWinters, Strategy: "moving_average_3"}, false},
		{"no strategy", Result{Model: Naive}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.res.Native())
		})
	}
}
