package table

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/stockcast/internal/domain"
)

func month(m int) time.Time {
	return time.Date(2024, time.Month(m), 1, 0, 0, 0, 0, time.UTC)
}

func historyFrame(t *testing.T) *Frame {
	t.Helper()
	f := NewFrame()
	require.NoError(t, f.AddTimes("period", []time.Time{month(2), month(1), month(1)}))
	require.NoError(t, f.AddStrings("material", []string{"M1", "M1", "M0"}))
	require.NoError(t, f.AddStrings("location", []string{"L1", "L1", "L1"}))
	require.NoError(t, f.AddNumbers("opening", []float64{90, 100, 5}))
	require.NoError(t, f.AddNumbers("closing", []float64{80, 90, 5}))
	return f
}

func TestBuildSeries_GroupsAndOrders(t *testing.T) {
	f := historyFrame(t)

	series, err := BuildSeries(f, DefaultHistoryColumns().Present(f))
	require.NoError(t, err)
	require.Len(t, series, 2)

	assert.Equal(t, domain.SeriesKey{Material: "M0", Location: "L1"}, series[0].Key)
	assert.Equal(t, domain.SeriesKey{Material: "M1", Location: "L1"}, series[1].Key)

	recs := series[1].Records
	require.Len(t, recs, 2)
	assert.True(t, recs[0].Period.Before(recs[1].Period))
	assert.Equal(t, 100.0, recs[0].Opening)
	assert.False(t, series[1].HasConsumption)
	assert.False(t, series[1].HasArrival)
}

func TestBuildSeries_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *Frame, c *HistoryColumns)
		want   error
		column string
	}{
		{
			name:   "unmapped required role",
			mutate: func(_ *Frame, c *HistoryColumns) { c.Closing = "" },
			want:   domain.ErrMissingColumn,
			column: "closing",
		},
		{
			name:   "mapped column absent",
			mutate: func(_ *Frame, c *HistoryColumns) { c.Consumption = "usage" },
			want:   domain.ErrMissingColumn,
			column: "usage",
		},
		{
			name: "non finite opening",
			mutate: func(f *Frame, _ *HistoryColumns) {
				v, _ := f.Numbers("opening")
				v[0] = math.NaN()
			},
			want:   domain.ErrInvalidValue,
			column: "opening",
		},
		{
			name: "duplicate period",
			mutate: func(f *Frame, _ *HistoryColumns) {
				v, _ := f.Times("period")
				v[0] = month(1)
			},
			want:   domain.ErrDuplicatePeriod,
			column: "period",
		},
		{
			name: "blank material",
			mutate: func(f *Frame, _ *HistoryColumns) {
				v, _ := f.Strings("material")
				v[2] = " "
			},
			want:   domain.ErrInvalidValue,
			column: "material",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := historyFrame(t)
			cols := DefaultHistoryColumns().Present(f)
			tt.mutate(f, &cols)

			_, err := BuildSeries(f, cols)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			var colErr *domain.ColumnError
			require.True(t, errors.As(err, &colErr))
			assert.Equal(t, tt.column, colErr.Column)
		})
	}
}

func TestFrame_MismatchedLength(t *testing.T) {
	f := NewFrame()
	require.NoError(t, f.AddNumbers("a", []float64{1, 2}))

	err := f.AddNumbers("b", []float64{1})
	assert.ErrorIs(t, err, domain.ErrMismatchedLength)
}

func TestBuildDemand(t *testing.T) {
	f := NewFrame()
	require.NoError(t, f.AddTimes("period", []time.Time{month(3), month(2)}))
	require.NoError(t, f.AddStrings("material", []string{"M1", "M1"}))
	require.NoError(t, f.AddStrings("location", []string{"L1", "L1"}))
	require.NoError(t, f.AddNumbers("demand", []float64{30, 20}))

	demand, err := BuildDemand(f, DefaultDemandColumns())
	require.NoError(t, err)
	require.Len(t, demand, 1)
	assert.Equal(t, []float64{20, 30}, demand[0].Values())
}
