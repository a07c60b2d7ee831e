package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode"

	"quote-desk/internal/domain"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// ErrRefreshInProgress is returned when a refresh is requested while another is running.
var ErrRefreshInProgress = errors.New("intelligence refresh already in progress")

const (
	DefaultIntelligenceInterval = 30 * time.Minute
	defaultIntelligencePerQuery = 10
)

var DefaultIntelligenceQueries = []string{"A股 热点", "港股 热点", "stock market today"}

// IntelligenceCache holds the latest trending feed. Readers never block on a refresh.
type IntelligenceCache struct {
	mu        sync.RWMutex
	items     []domain.NewsItem
	updatedAt time.Time
	updating  atomic.Bool
	interval  time.Duration
	now       func() time.Time
}

func NewIntelligenceCache(interval time.Duration, now func() time.Time) *IntelligenceCache {
	if interval <= 0 {
		interval = DefaultIntelligenceInterval
	}
	if now == nil {
		now = time.Now
	}
	return &IntelligenceCache{interval: interval, now: now}
}

func (c *IntelligenceCache) store(items []domain.NewsItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = items
	c.updatedAt = c.now()
}

// Snapshot reports the cached items. The feed is stale when it was never filled or is
// older than two refresh intervals.
func (c *IntelligenceCache) Snapshot() domain.IntelligenceSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	items := make([]domain.NewsItem, len(c.items))
	copy(items, c.items)
	return domain.IntelligenceSnapshot{
		Items:     items,
		UpdatedAt: c.updatedAt,
		Stale:     c.updatedAt.IsZero() || c.now().Sub(c.updatedAt) > 2*c.interval,
	}
}

// Updating reports whether a refresh is running.
func (c *IntelligenceCache) Updating() bool {
	return c.updating.Load()
}

type IntelligenceService struct {
	tracer   trace.Tracer
	searcher NewsSearcher
	queries  []string
	perQuery int
	cache    *IntelligenceCache
}

func NewIntelligenceService(tracer trace.Tracer, searcher NewsSearcher, queries []string, cache *IntelligenceCache) *IntelligenceService {
	if len(queries) == 0 {
		queries = DefaultIntelligenceQueries
	}
	if cache == nil {
		cache = NewIntelligenceCache(DefaultIntelligenceInterval, nil)
	}
	return &IntelligenceService{
		tracer:   tracer,
		searcher: searcher,
		queries:  queries,
		perQuery: defaultIntelligencePerQuery,
		cache:    cache,
	}
}

func (s *IntelligenceService) Snapshot() domain.IntelligenceSnapshot {
	return s.cache.Snapshot()
}

// Refresh fetches every trending query and replaces the cached feed. A call made while a
// refresh is running is dropped with ErrRefreshInProgress. When every query fails the
// previous feed is kept.
func (s *IntelligenceService) Refresh(ctx context.Context) error {
	if !s.cache.updating.CompareAndSwap(false, true) {
		return ErrRefreshInProgress
	}
	defer s.cache.updating.Store(false)

	ctx, span := s.tracer.Start(ctx, "intelligence-service.refresh")
	defer span.End()

	results := make([][]domain.NewsItem, len(s.queries))
	var failed atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	for i, query := range s.queries {
		g.Go(func() error {
			items, err := s.searcher.Search(gctx, query, hasHan(query), s.perQuery)
			if err != nil {
				failed.Add(1)
				log.Warn().Err(err).Str("query", query).Msg("intelligence query failed")
				return nil
			}
			results[i] = items
			return nil
		})
	}
	_ = g.Wait()

	if int(failed.Load()) == len(s.queries) {
		return fmt.Errorf("refresh intelligence: all %d queries failed", len(s.queries))
	}

	var merged []domain.NewsItem
	for _, items := range results {
		merged = append(merged, items...)
	}
	merged = UniqNews(merged)
	s.cache.store(merged)

	span.SetAttributes(attribute.Int("items", len(merged)))
	log.Info().Int("items", len(merged)).Int("failed_queries", int(failed.Load())).Msg("intelligence feed refreshed")
	return nil
}

func hasHan(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return unicode.Is(unicode.Han, r) }) >= 0
}
