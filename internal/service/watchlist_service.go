package service

import (
	"context"
	"strings"

	"quote-desk/internal/domain"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	watchlistFetchLimit = 4
	maxWatchlistEntries = 100
)

type QuoteGetter interface {
	GetQuote(ctx context.Context, symbol string) (*domain.Quote, error)
}

// WatchlistService prices a client-held watchlist. Entries live in the browser; the
// server only reads them.
type WatchlistService struct {
	tracer trace.Tracer
	quotes QuoteGetter
}

func NewWatchlistService(tracer trace.Tracer, quotes QuoteGetter) *WatchlistService {
	return &WatchlistService{tracer: tracer, quotes: quotes}
}

// Summarize quotes every entry and reports returns since entry. Weights are normalized
// over priced rows; a non-positive weight sum falls back to equal weights.
func (s *WatchlistService) Summarize(ctx context.Context, entries []domain.WatchlistEntry) *domain.WatchlistSummary {
	ctx, span := s.tracer.Start(ctx, "watchlist-service.summarize")
	defer span.End()

	if len(entries) > maxWatchlistEntries {
		entries = entries[:maxWatchlistEntries]
	}
	span.SetAttributes(attribute.Int("entries", len(entries)))

	rows := make([]domain.WatchlistRow, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(watchlistFetchLimit)
	for i, entry := range entries {
		rows[i] = domain.WatchlistRow{Entry: entry}
		code := strings.TrimSpace(entry.Code)
		if code == "" {
			continue
		}
		g.Go(func() error {
			q, err := s.quotes.GetQuote(gctx, code)
			if err != nil {
				log.Warn().Err(err).Str("symbol", code).Msg("watchlist quote failed")
				return nil
			}
			rows[i].Quote = q
			return nil
		})
	}
	_ = g.Wait()

	summary := &domain.WatchlistSummary{Rows: rows}
	var priced []int
	for i := range rows {
		summary.WeightSum += rows[i].Entry.Weight
		q := rows[i].Quote
		if q == nil || rows[i].Entry.EntryPrice <= 0 {
			continue
		}
		ret := (q.Price/rows[i].Entry.EntryPrice - 1) * 100
		rows[i].ReturnPct = &ret
		priced = append(priced, i)
	}
	summary.Priced = len(priced)
	if len(priced) == 0 {
		return summary
	}

	var weightSum float64
	for _, i := range priced {
		if w := rows[i].Entry.Weight; w > 0 {
			weightSum += w
		}
	}
	var weighted float64
	for _, i := range priced {
		w := 1.0 / float64(len(priced))
		if weightSum > 0 {
			w = max(rows[i].Entry.Weight, 0) / weightSum
		}
		rows[i].Weight = w
		weighted += w * *rows[i].ReturnPct
	}
	summary.WeightedReturnPct = &weighted
	return summary
}
