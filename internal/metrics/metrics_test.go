package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/andresuchdata/stockcast/internal/forecast"
)

func TestObserverCountsFailures(t *testing.T) {
	counter := StrategyFailures.WithLabelValues("sarima", "sarima")
	before := testutil.ToFloat64(counter)

	var o Observer
	o.ObserveStrategy(forecast.SARIMA, "sarima", 3*time.Millisecond, errors.New("fit failed"))
	o.ObserveStrategy(forecast.SARIMA, "sarima", 3*time.Millisecond, nil)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestRecordRun(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status string
	}{
		{"completed", nil, "completed"},
		{"failed", errors.New("bad column"), "failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := RunsTotal.WithLabelValues("auto", tt.status)
			before := testutil.ToFloat64(counter)
			series := testutil.ToFloat64(SeriesAnalyzed)

			RecordRun("auto", time.Second, 4, tt.err)

			assert.Equal(t, before+1, testutil.ToFloat64(counter))
			assert.Equal(t, series+4, testutil.ToFloat64(SeriesAnalyzed))
		})
	}
}

func TestRecordCacheLookup(t *testing.T) {
	hits, misses := testutil.ToFloat64(CacheHits), testutil.ToFloat64(CacheMisses)

	RecordCacheLookup(true)
	RecordCacheLookup(false)
	RecordCacheLookup(false)

	assert.Equal(t, hits+1, testutil.ToFloat64(CacheHits))
	assert.Equal(t, misses+2, testutil.ToFloat64(CacheMisses))
}

func TestRecordSelection(t *testing.T) {
	counter := ModelSelections.WithLabelValues("holt_winters")
	before := testutil.ToFloat64(counter)

	RecordSelection(forecast.HoltWinters)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
