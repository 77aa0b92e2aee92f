package postgres

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/andresuchdata/stockcast/internal/config"
	"github.com/andresuchdata/stockcast/internal/domain"
)

func TestMetricsRecord_NonFiniteBecomesNull(t *testing.T) {
	row := domain.MetricsRow{
		Key:         domain.SeriesKey{Material: "M", Location: "L"},
		GrowthRatio: math.Inf(1),
		UsageStdDev: math.NaN(),
		AvgUsage:    4,
		ABC:         domain.ClassC,
		XYZ:         domain.ClassZ,
	}

	rec := toMetricsRecord("run", row)

	assert.False(t, rec.GrowthRatio.Valid)
	assert.True(t, rec.GrowthInfinite)
	assert.False(t, rec.UsageStdDev.Valid)
	assert.Equal(t, 4.0, rec.AvgUsage.Float64)
	assert.NotNil(t, rec.Warnings)

	back := rec.toDomain()
	assert.True(t, math.IsInf(back.GrowthRatio, 1))
	assert.True(t, math.IsNaN(back.UsageStdDev))
	assert.Equal(t, 4.0, back.AvgUsage)
	assert.Nil(t, back.ValidationWarnings)
}

func TestMetricsRecord_NegativeInfinityIsNotGrowthInfinite(t *testing.T) {
	rec := toMetricsRecord("run", domain.MetricsRow{GrowthRatio: math.Inf(-1)})

	assert.False(t, rec.GrowthInfinite)
	assert.True(t, math.IsNaN(rec.toDomain().GrowthRatio))
}

func TestRecommendationRecord(t *testing.T) {
	row := domain.RecommendationRow{
		Key:            domain.SeriesKey{Material: "M", Location: "L"},
		Period:         time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Step:           1,
		Recommendation: 135,
		Model:          "manual",
		HasHistory:     true,
	}

	assert.Equal(t, row, toRecommendationRecord("run", row).toDomain())
}

func TestConnectionStrings(t *testing.T) {
	cfg := &config.DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "stock", SSLMode: "disable"}

	assert.Equal(t, "host=db port=5432 user=u password=p dbname=stock sslmode=disable", DSN(cfg))
	assert.Equal(t, "postgres://u:p@db:5432/stock?sslmode=disable", URL(cfg))
}
