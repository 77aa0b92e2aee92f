package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/stockcast/internal/domain"
)

func newRun(id string, started time.Time) *domain.AnalysisRun {
	return &domain.AnalysisRun{ID: id, Status: domain.RunStatusRunning, Mode: "auto", StartedAt: started}
}

func TestMemoryRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	started := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.CreateRun(ctx, newRun("r1", started)))
	assert.Error(t, repo.CreateRun(ctx, newRun("r1", started)))

	metrics := []domain.MetricsRow{{Key: domain.SeriesKey{Material: "M", Location: "L"}, Periods: 3}}
	recs := []domain.RecommendationRow{{Key: domain.SeriesKey{Material: "M", Location: "L"}, Step: 1, Recommendation: 5}}
	require.NoError(t, repo.SaveResults(ctx, "r1", metrics, recs))
	require.NoError(t, repo.CompleteRun(ctx, "r1", RunSummary{SeriesCount: 1, Convention: "positive", ExportLocation: "exports/r1"}))

	run, err := repo.GetRun(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusCompleted, run.Status)
	assert.Equal(t, "exports/r1", run.ExportLocation)
	assert.Equal(t, "positive", run.Convention)
	assert.Equal(t, 1, run.SeriesCount)
	assert.NotNil(t, run.CompletedAt)

	gotMetrics, err := repo.GetMetrics(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, metrics, gotMetrics)

	gotRecs, err := repo.GetRecommendations(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, recs, gotRecs)
}

func TestMemoryRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	_, err := repo.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, repo.FailRun(ctx, "missing", "boom"), domain.ErrNotFound)
	assert.ErrorIs(t, repo.SaveResults(ctx, "missing", nil, nil), domain.ErrNotFound)
	_, err = repo.GetMetrics(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryRepository_ListRuns(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.CreateRun(ctx, newRun(fmt.Sprintf("r%d", i), base.Add(time.Duration(i)*time.Hour))))
	}
	require.NoError(t, repo.FailRun(ctx, "r2", "bad input"))

	runs, err := repo.ListRuns(ctx, RunFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "r4", runs[0].ID)
	assert.Equal(t, "r3", runs[1].ID)

	failed, err := repo.ListRuns(ctx, RunFilter{Status: domain.RunStatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "bad input", failed[0].ErrorMessage)

	empty, err := repo.ListRuns(ctx, RunFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRunFilterNormalize(t *testing.T) {
	assert.Equal(t, DefaultListLimit, RunFilter{}.Normalize().Limit)
	assert.Equal(t, MaxListLimit, RunFilter{Limit: 10000}.Normalize().Limit)
	assert.Zero(t, RunFilter{Offset: -3}.Normalize().Offset)
}
