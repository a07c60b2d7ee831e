package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"quote-desk/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteRunStoreRoundTrip(t *testing.T) {
	store, err := OpenSQLiteRunStore(filepath.Join(t.TempDir(), "runs.db"), testTracer)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, sym := range []string{"AAPL", "600519"} {
		id, err := store.SaveRun(ctx, &domain.BacktestResult{
			Symbols:        []string{sym},
			From:           "2024-01-01",
			To:             "2024-04-30",
			InitialCapital: 10000,
			NAV:            []domain.NAVPoint{{Date: "2024-01-02", Value: 10000}, {Date: "2024-01-03", Value: 10050}},
			TotalReturn:    0.005,
			CreatedAt:      base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), id)
	}

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, []string{"600519"}, runs[0].Symbols, "newest first")
	assert.Equal(t, base.Add(time.Hour), runs[0].CreatedAt)
	assert.Len(t, runs[1].NAV, 2)
	assert.InDelta(t, 0.005, runs[1].TotalReturn, 1e-12)

	limited, err := store.ListRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteRunStoreEmpty(t *testing.T) {
	store, err := OpenSQLiteRunStore(filepath.Join(t.TempDir(), "empty.db"), testTracer)
	require.NoError(t, err)
	defer store.Close()

	runs, err := store.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
