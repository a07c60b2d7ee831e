package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"quote-desk/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blockingSearcher struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingSearcher) Search(ctx context.Context, query string, cn bool, limit int) ([]domain.NewsItem, error) {
	b.once.Do(func() { close(b.started) })
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return []domain.NewsItem{{Title: query, Link: "https://x/" + query}}, nil
}

func TestIntelligenceRefreshStoresDedupedFeed(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	cache := NewIntelligenceCache(30*time.Minute, func() time.Time { return now })
	searcher := &stubSearcher{results: map[string][]domain.NewsItem{
		"A股 热点":   {{Title: "a", Link: "l1"}, {Title: "b", Link: "l2"}},
		"markets": {{Title: "a again", Link: "l1"}},
	}}
	svc := NewIntelligenceService(testTracer, searcher, []string{"A股 热点", "markets"}, cache)

	snap := svc.Snapshot()
	assert.True(t, snap.Stale, "empty cache is stale")

	require.NoError(t, svc.Refresh(context.Background()))
	snap = svc.Snapshot()
	assert.Len(t, snap.Items, 2)
	assert.Equal(t, now, snap.UpdatedAt)
	assert.False(t, snap.Stale)

	searcher.mu.Lock()
	cnFlags := map[string]bool{}
	for i, q := range searcher.queries {
		cnFlags[q] = searcher.cnFlags[i]
	}
	searcher.mu.Unlock()
	assert.True(t, cnFlags["A股 热点"])
	assert.False(t, cnFlags["markets"])

	now = now.Add(61 * time.Minute)
	assert.True(t, svc.Snapshot().Stale, "older than two intervals is stale")
}

func TestIntelligenceRefreshDropsConcurrentRequest(t *testing.T) {
	searcher := &blockingSearcher{started: make(chan struct{}), release: make(chan struct{})}
	svc := NewIntelligenceService(testTracer, searcher, []string{"q"}, nil)

	done := make(chan error, 1)
	go func() { done <- svc.Refresh(context.Background()) }()
	<-searcher.started

	assert.True(t, svc.cache.Updating())
	assert.ErrorIs(t, svc.Refresh(context.Background()), ErrRefreshInProgress)

	close(searcher.release)
	require.NoError(t, <-done)
	assert.False(t, svc.cache.Updating())
	assert.Len(t, svc.Snapshot().Items, 1)
}

func TestIntelligenceRefreshAllFailKeepsPrevious(t *testing.T) {
	searcher := &stubSearcher{results: map[string][]domain.NewsItem{"q": {{Title: "old", Link: "l"}}}}
	svc := NewIntelligenceService(testTracer, searcher, []string{"q"}, nil)
	require.NoError(t, svc.Refresh(context.Background()))

	searcher.failOn = "q"
	assert.Error(t, svc.Refresh(context.Background()))
	assert.Equal(t, "old", svc.Snapshot().Items[0].Title)
	assert.False(t, svc.cache.Updating(), "flag is cleared after a failed refresh")
}
