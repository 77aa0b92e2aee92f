package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/stockcast/internal/domain"
)

func ptr[T any](v T) *T {
	return &v
}

func TestParamsRequestApply(t *testing.T) {
	base := domain.DefaultParams()

	got := ParamsRequest{SafetyFraction: ptr(0.0), Model: ptr(" naive "), Horizon: ptr(6)}.Apply(base)

	assert.Zero(t, got.SafetyFraction)
	assert.Equal(t, "naive", got.Model)
	assert.Equal(t, 6, got.Horizon)
	assert.Equal(t, base.LeadTimeDays, got.LeadTimeDays)
	assert.Equal(t, base.Convention, got.Convention)
}

func TestHistorySeries_OptionalColumns(t *testing.T) {
	rows := []HistoryRow{
		{Period: "2024-02-01", Material: "M", Location: "L", Opening: 90, Closing: 80, Consumption: ptr(10.0)},
		{Period: "2024-01-01", Material: "M", Location: "L", Opening: 100, Closing: 90},
	}

	series, err := historySeries(rows)
	require.NoError(t, err)

	require.Len(t, series, 1)
	s := series[0]
	assert.True(t, s.HasConsumption)
	assert.False(t, s.HasArrival)
	require.Len(t, s.Records, 2)
	// ordered by period; the missing value counts as zero
	assert.Zero(t, s.Records[0].Consumption)
	assert.Equal(t, 10.0, s.Records[1].Consumption)
}

func TestHistorySeries_Errors(t *testing.T) {
	_, err := historySeries([]HistoryRow{{Period: "2024-01-01", Location: "L"}})
	assert.ErrorIs(t, err, domain.ErrInvalidValue)

	_, err = historySeries([]HistoryRow{
		{Period: "2024-01-01", Material: "M", Location: "L"},
		{Period: "2024-01-01", Material: "M", Location: "L"},
	})
	assert.ErrorIs(t, err, domain.ErrDuplicatePeriod)
}

func TestDemandSeries(t *testing.T) {
	got, err := demandSeries(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = demandSeries([]DemandRow{
		{Period: "2025-02", Material: "M", Location: "L", Demand: 60},
		{Period: "2025-01", Material: "M", Location: "L", Demand: 50},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []float64{50, 60}, got[0].Values())
}
