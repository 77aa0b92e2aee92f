package cache

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/forecast"
	"github.com/andresuchdata/stockcast/internal/pipeline/purchase"
)

func sampleKey() DemandKey {
	return DemandKey{
		Series:   domain.SeriesKey{Material: "M1", Location: "L1"},
		Last:     time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
		Usage:    []float64{10, 12, 9},
		Horizon:  6,
		Model:    "auto",
		TestSize: 3,
		Params:   forecast.DefaultParams(),
	}
}

func TestDemandKeyHash(t *testing.T) {
	base := sampleKey()
	assert.Equal(t, demandKeyHash(base), demandKeyHash(sampleKey()))

	variants := map[string]func(k *DemandKey){
		"usage":   func(k *DemandKey) { k.Usage = []float64{10, 12, 9.5} },
		"horizon": func(k *DemandKey) { k.Horizon = 7 },
		"model":   func(k *DemandKey) { k.Model = "naive" },
		"series":  func(k *DemandKey) { k.Series.Location = "L2" },
		"params":  func(k *DemandKey) { k.Params.Alpha = 0.5 },
	}
	for name, mutate := range variants {
		t.Run(name, func(t *testing.T) {
			k := sampleKey()
			mutate(&k)
			assert.NotEqual(t, demandKeyHash(base), demandKeyHash(k))
		})
	}

	store := &demandStore{prefix: demandPrefix("")}
	assert.Equal(t, "stockcast:forecast:demand:"+demandKeyHash(base), store.key(demandKeyHash(base)))
}

func TestEncodeDemandKeepsSentinels(t *testing.T) {
	period := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	in := purchase.Demand{
		Points:   []domain.DemandPoint{{Period: period, Demand: 42}},
		Model:    "holt_winters",
		Strategy: "holt_winters_nonseasonal",
		Selection: &forecast.Selection{
			Model:  forecast.HoltWinters,
			Reason: "lowest MAPE 3.00%",
			Metrics: map[forecast.Kind]forecast.Accuracy{
				forecast.HoltWinters: {MAPE: 3, MAE: 1, RMSE: 1.5, Bias: -0.2},
				forecast.Naive:       {MAPE: math.NaN(), MAE: 0, RMSE: 0, Bias: 0},
			},
		},
	}

	payload, err := encodeDemand(in)
	require.NoError(t, err)
	out, err := decodeDemand(payload)
	require.NoError(t, err)

	assert.Equal(t, in.Points[0].Period, out.Points[0].Period.UTC())
	assert.Equal(t, 42.0, out.Points[0].Demand)
	assert.Equal(t, in.Strategy, out.Strategy)
	require.NotNil(t, out.Selection)
	assert.Equal(t, forecast.HoltWinters, out.Selection.Model)
	assert.Equal(t, 3.0, out.Selection.Metrics[forecast.HoltWinters].MAPE)
	assert.True(t, math.IsNaN(out.Selection.Metrics[forecast.Naive].MAPE))
}

func TestNoopForecastCache(t *testing.T) {
	c := NewNoopForecastCache()
	ctx := context.Background()

	require.NoError(t, c.SetDemand(ctx, sampleKey(), purchase.Demand{Model: "naive"}))
	_, ok, err := c.GetDemand(ctx, sampleKey())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.InvalidateAll(ctx))
}
