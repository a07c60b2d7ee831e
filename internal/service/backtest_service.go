package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"quote-desk/internal/domain"
	"quote-desk/internal/ta"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultInitialCapital = 10000.0
	maxBacktestSymbols    = 20
	backtestFetchLimit    = 4
	defaultRunListLimit   = 20
)

var ErrInvalidBacktest = errors.New("invalid backtest request")

// RunStore persists backtest results.
type RunStore interface {
	SaveRun(ctx context.Context, run *domain.BacktestResult) (int64, error)
	ListRuns(ctx context.Context, limit int) ([]domain.BacktestResult, error)
}

// BacktestService replays an equal-weight buy-and-hold portfolio over daily closes.
type BacktestService struct {
	tracer trace.Tracer
	market MarketData
	store  RunStore
	now    func() time.Time
}

func NewBacktestService(tracer trace.Tracer, market MarketData, store RunStore) *BacktestService {
	return &BacktestService{tracer: tracer, market: market, store: store, now: time.Now}
}

// Run fetches history for every symbol, drops symbols without any, aligns the rest on
// the dates they all share, and values the portfolio on each of those dates.
func (s *BacktestService) Run(ctx context.Context, req domain.BacktestRequest) (*domain.BacktestResult, error) {
	ctx, span := s.tracer.Start(ctx, "backtest-service.run")
	defer span.End()

	symbols, from, to, capital, err := s.normalize(req)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.StringSlice("symbols", symbols), attribute.Float64("capital", capital))

	histories := make(map[string]*domain.HistorySeries, len(symbols))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(backtestFetchLimit)
	for _, sym := range symbols {
		g.Go(func() error {
			h, err := s.market.GetHistory(gctx, sym, from, to)
			if err != nil || h == nil || len(h.Series) == 0 {
				log.Warn().Err(err).Str("symbol", sym).Msg("backtest dropping symbol without history")
				return nil
			}
			mu.Lock()
			histories[sym] = h
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	kept := make([]string, 0, len(histories))
	for _, sym := range symbols {
		if _, ok := histories[sym]; ok {
			kept = append(kept, sym)
		}
	}

	result := ComputeBacktest(kept, histories, capital)
	result.From = from.Format(domain.DateLayout)
	result.To = to.Format(domain.DateLayout)
	span.SetAttributes(attribute.Int("nav_points", len(result.NAV)))

	if s.store != nil && !result.Empty() {
		id, err := s.store.SaveRun(ctx, result)
		if err != nil {
			log.Warn().Err(err).Msg("persist backtest run failed")
		} else {
			result.ID = id
		}
	}
	return result, nil
}

// ListRuns returns the most recent stored runs, newest first.
func (s *BacktestService) ListRuns(ctx context.Context, limit int) ([]domain.BacktestResult, error) {
	ctx, span := s.tracer.Start(ctx, "backtest-service.list-runs")
	defer span.End()

	if s.store == nil {
		return []domain.BacktestResult{}, nil
	}
	if limit <= 0 {
		limit = defaultRunListLimit
	}
	return s.store.ListRuns(ctx, limit)
}

func (s *BacktestService) normalize(req domain.BacktestRequest) ([]string, time.Time, time.Time, float64, error) {
	seen := make(map[string]bool, len(req.Symbols))
	symbols := make([]string, 0, len(req.Symbols))
	for _, sym := range req.Symbols {
		sym = strings.TrimSpace(sym)
		key := domain.NormalizeSymbol(sym)
		if sym == "" || seen[key] {
			continue
		}
		seen[key] = true
		symbols = append(symbols, sym)
	}
	if len(symbols) == 0 {
		return nil, time.Time{}, time.Time{}, 0, fmt.Errorf("%w: at least one symbol is required", ErrInvalidBacktest)
	}
	if len(symbols) > maxBacktestSymbols {
		return nil, time.Time{}, time.Time{}, 0, fmt.Errorf("%w: at most %d symbols", ErrInvalidBacktest, maxBacktestSymbols)
	}

	to := s.now().UTC().Truncate(24 * time.Hour)
	if req.To != "" {
		t, err := time.Parse(domain.DateLayout, req.To)
		if err != nil {
			return nil, time.Time{}, time.Time{}, 0, fmt.Errorf("%w: bad to date %q", ErrInvalidBacktest, req.To)
		}
		to = t
	}
	from := to.AddDate(-1, 0, 0)
	if req.From != "" {
		t, err := time.Parse(domain.DateLayout, req.From)
		if err != nil {
			return nil, time.Time{}, time.Time{}, 0, fmt.Errorf("%w: bad from date %q", ErrInvalidBacktest, req.From)
		}
		from = t
	}
	if from.After(to) {
		return nil, time.Time{}, time.Time{}, 0, fmt.Errorf("%w: from is after to", ErrInvalidBacktest)
	}

	capital := req.InitialCapital
	if capital == 0 {
		capital = DefaultInitialCapital
	}
	if capital < 0 {
		return nil, time.Time{}, time.Time{}, 0, fmt.Errorf("%w: initial capital must be positive", ErrInvalidBacktest)
	}
	return symbols, from, to, capital, nil
}

// ComputeBacktest values an equal-weight portfolio of symbols on every date present in
// all of their series: NAV_t = capital * mean_i(close_i,t / close_i,t0).
// No common dates yields an empty NAV with zero statistics.
func ComputeBacktest(symbols []string, histories map[string]*domain.HistorySeries, capital float64) *domain.BacktestResult {
	result := &domain.BacktestResult{
		Symbols:        symbols,
		InitialCapital: capital,
		NAV:            []domain.NAVPoint{},
	}
	if len(symbols) == 0 {
		return result
	}

	closes := make([]map[string]float64, len(symbols))
	counts := make(map[string]int)
	for i, sym := range symbols {
		closes[i] = make(map[string]float64, len(histories[sym].Series))
		for _, p := range histories[sym].Series {
			if p.Close <= 0 {
				continue
			}
			if _, dup := closes[i][p.Date]; dup {
				continue
			}
			closes[i][p.Date] = p.Close
			counts[p.Date]++
		}
	}

	dates := make([]string, 0, len(counts))
	for date, n := range counts {
		if n == len(symbols) {
			dates = append(dates, date)
		}
	}
	if len(dates) == 0 {
		return result
	}
	sort.Strings(dates)

	base := make([]float64, len(symbols))
	for i := range symbols {
		base[i] = closes[i][dates[0]]
	}

	values := make([]float64, len(dates))
	for t, date := range dates {
		var sum float64
		for i := range symbols {
			sum += closes[i][date] / base[i]
		}
		values[t] = capital * sum / float64(len(symbols))
		result.NAV = append(result.NAV, domain.NAVPoint{Date: date, Value: values[t]})
	}

	result.TotalReturn = values[len(values)-1]/values[0] - 1
	result.Volatility = ta.AnnualizedVolatility(ta.DailyReturns(values))
	result.MaxDrawdown = ta.MaxDrawdown(values)
	return result
}
