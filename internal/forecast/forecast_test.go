package forecast

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/stockcast/internal/domain"
)

func seasonalSeries(n int) []float64 {
	out := make([]float64, n)
	for t := range out {
		out[t] = 100 + 10*math.Sin(2*math.Pi*float64(t)/12)
	}
	return out
}

func linearSeries(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for t := range out {
		out[t] = start + step*float64(t)
	}
	return out
}

func TestSimpleModels(t *testing.T) {
	ctx := context.Background()
	p := DefaultParams()

	tests := []struct {
		name   string
		kind   Kind
		series []float64
		want   []float64
	}{
		{"naive repeats last", Naive, []float64{3, 7, 9}, []float64{9, 9}},
		{"naive empty", Naive, nil, []float64{0, 0}},
		{"moving average of last three", MovingAverage, []float64{1, 2, 3, 4, 5}, []float64{4, 4}},
		{"moving average window shrinks", MovingAverage, []float64{4}, []float64{4, 4}},
		{"moving average empty", MovingAverage, nil, []float64{0, 0}},
		{"exponential smoothing", ExponentialSmoothing, []float64{10, 20}, []float64{13, 13}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Forecast(ctx, tt.series, 2, tt.kind, p)
			require.NoError(t, err)
			require.Len(t, res.Values, len(tt.want))
			for i := range tt.want {
				assert.InDelta(t, tt.want[i], res.Values[i], 1e-9)
			}
		})
	}
}

func TestForecastDoesNotMutateInput(t *testing.T) {
	series := seasonalSeries(36)
	orig := append([]float64(nil), series...)

	for _, kind := range Kinds() {
		_, err := Forecast(context.Background(), series, 6, kind, DefaultParams())
		require.NoError(t, err, kind.String())
	}
	assert.Equal(t, orig, series)
}

func TestExponentialSmoothingFallsBack(t *testing.T) {
	res, err := Forecast(context.Background(), nil, 3, ExponentialSmoothing, DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, "moving_average_3", res.Strategy)
	assert.True(t, res.Fallback())
	assert.Equal(t, []float64{0, 0, 0}, res.Values)
}

func TestHoltWinters_Seasonal(t *testing.T) {
	series := seasonalSeries(36)

	res, err := Forecast(context.Background(), series, 12, HoltWinters, DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, "holt_winters", res.Strategy)

	want := seasonalSeries(48)[36:]
	for i := range want {
		assert.InDelta(t, want[i], res.Values[i], 1.0)
	}
}

func TestHoltWinters_Trend(t *testing.T) {
	series := linearSeries(10, 10, 2)

	res, err := Forecast(context.Background(), series, 3, HoltWinters, DefaultParams())
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{30, 32, 34}, res.Values, 1e-6)
}

func TestResolveHW(t *testing.T) {
	short := resolveHW(seasonalSeries(20), Additive, Additive, 12)
	assert.Equal(t, ComponentNone, short.seasonal)

	long := resolveHW(seasonalSeries(24), Multiplicative, Multiplicative, 12)
	assert.Equal(t, Multiplicative, long.trend)
	assert.Equal(t, Multiplicative, long.seasonal)

	withZero := append(seasonalSeries(24), 0)
	forced := resolveHW(withZero, Multiplicative, Multiplicative, 12)
	assert.Equal(t, Additive, forced.trend)
	assert.Equal(t, Additive, forced.seasonal)
}

func TestSARIMA_ShortSeriesMatchesHoltWinters(t *testing.T) {
	series := []float64{12, 15, 11, 14}

	sar, err := Forecast(context.Background(), series, 4, SARIMA, DefaultParams())
	require.NoError(t, err)
	hw, err := Forecast(context.Background(), series, 4, HoltWinters, DefaultParams())
	require.NoError(t, err)

	assert.Equal(t, hw.Values, sar.Values)
	assert.Equal(t, hw.Strategy, sar.Strategy)
	assert.Equal(t, "sarima", sar.Attempts[0].Strategy)
}

func TestSARIMA_Fits(t *testing.T) {
	series := seasonalSeries(48)
	for i := range series {
		series[i] += float64(i) * 0.5
	}

	res, err := Forecast(context.Background(), series, 12, SARIMA, DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, "sarima", res.Strategy)
	require.Len(t, res.Values, 12)
	for _, v := range res.Values {
		assert.False(t, math.IsNaN(v))
	}
}

func TestChainOrder(t *testing.T) {
	names := func(k Kind) []string {
		var out []string
		for _, s := range Chain(k) {
			out = append(out, s.Name)
		}
		return out
	}
	assert.Equal(t, []string{"sarima", "holt_winters", "holt_winters_nonseasonal", "moving_average_3"}, names(SARIMA))
	assert.Equal(t, []string{"holt_winters", "holt_winters_nonseasonal", "moving_average_3"}, names(HoltWinters))
	assert.Equal(t, []string{"exponential_smoothing", "moving_average_3"}, names(ExponentialSmoothing))
}

func TestForecast_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Forecast(ctx, seasonalSeries(36), 3, HoltWinters, DefaultParams())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseKind(t *testing.T) {
	tests := map[string]Kind{
		"naive":                 Naive,
		"Moving Average":        MovingAverage,
		"exponential_smoothing": ExponentialSmoothing,
		"holt-winters":          HoltWinters,
		"SARIMA":                SARIMA,
	}
	for in, want := range tests {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseKind("prophet")
	assert.ErrorIs(t, err, domain.ErrUnknownModel)
}
