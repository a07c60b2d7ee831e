package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"quote-desk/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	historyCacheTTL    = 6 * time.Hour
	financialsCacheTTL = 12 * time.Hour

	DefaultProviderTimeout = 8 * time.Second
)

// ErrInvalidSymbol is returned for blank symbols.
var ErrInvalidSymbol = errors.New("symbol is required")

type QuoteSource interface {
	Name() string
	FetchQuote(ctx context.Context, symbol string) (*domain.Quote, error)
}

type HistorySource interface {
	Name() string
	FetchHistory(ctx context.Context, symbol string, from, to time.Time) (*domain.HistorySeries, error)
}

type FinancialsSource interface {
	Name() string
	FetchFinancials(ctx context.Context, symbol string) (*domain.Financials, error)
}

// MarketSource serves quotes, history and financials (Yahoo, page extraction).
type MarketSource interface {
	QuoteSource
	HistorySource
	FinancialsSource
}

// QuoteHistorySource serves quotes and history (Sina).
type QuoteHistorySource interface {
	QuoteSource
	HistorySource
}

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// QuoteChains lists the providers tried, in order, for each kind of data.
type QuoteChains struct {
	CNQuote        []QuoteSource
	ForeignQuote   []QuoteSource
	CNHistory      []HistorySource
	ForeignHistory []HistorySource
	Financials     []FinancialsSource
}

// StandardChains builds the production ordering: mainland quotes prefer the domestic
// feeds, history prefers Yahoo, and page extraction is always last.
func StandardChains(yahoo MarketSource, tencent QuoteSource, sina QuoteHistorySource, page MarketSource) QuoteChains {
	return QuoteChains{
		CNQuote:        []QuoteSource{tencent, sina, yahoo, page},
		ForeignQuote:   []QuoteSource{yahoo, page},
		CNHistory:      []HistorySource{yahoo, sina, page},
		ForeignHistory: []HistorySource{yahoo, page},
		Financials:     []FinancialsSource{yahoo, page},
	}
}

// QuoteService resolves quotes, history and financials through provider fallback chains.
type QuoteService struct {
	tracer  trace.Tracer
	chains  QuoteChains
	redis   RedisClient
	timeout time.Duration
}

func NewQuoteService(tracer trace.Tracer, chains QuoteChains, redisClient RedisClient, timeout time.Duration) *QuoteService {
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	return &QuoteService{
		tracer:  tracer,
		chains:  chains,
		redis:   redisClient,
		timeout: timeout,
	}
}

// GetQuote returns the first quote with a finite positive price. When every provider
// fails it returns nil and no error. Quotes are never cached.
func (s *QuoteService) GetQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	ctx, span := s.tracer.Start(ctx, "quote-service.get-quote")
	defer span.End()

	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, ErrInvalidSymbol
	}
	cn := domain.IsCNSymbol(symbol)
	span.SetAttributes(attribute.String("symbol", symbol), attribute.Bool("cn", cn))

	chain := s.chains.ForeignQuote
	if cn {
		chain = s.chains.CNQuote
	}
	attempts := make([]Attempt[*domain.Quote], 0, len(chain))
	for _, src := range chain {
		attempts = append(attempts, Attempt[*domain.Quote]{
			Provider: src.Name(),
			Fetch: withTimeout(s.timeout, func(ctx context.Context) (*domain.Quote, error) {
				return src.FetchQuote(ctx, symbol)
			}),
			Valid: func(q *domain.Quote) bool {
				return q != nil && q.Price > 0 && !math.IsNaN(q.Price) && !math.IsInf(q.Price, 0)
			},
		})
	}

	q, failures, err := FirstOf(withSymbol(ctx, symbol), attempts...)
	if err != nil {
		span.SetAttributes(attribute.Int("failed_providers", len(failures)))
		log.Info().Str("symbol", symbol).Int("attempts", len(failures)).Msg("no provider returned a quote")
		return nil, nil
	}
	span.SetAttributes(attribute.String("source", q.Source))
	return q, nil
}

// GetHistory returns daily closes between from and to, trying each history provider in turn.
func (s *QuoteService) GetHistory(ctx context.Context, symbol string, from, to time.Time) (*domain.HistorySeries, error) {
	ctx, span := s.tracer.Start(ctx, "quote-service.get-history")
	defer span.End()

	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, ErrInvalidSymbol
	}
	span.SetAttributes(attribute.String("symbol", symbol))

	key := fmt.Sprintf("history:%s:%s:%s", domain.NormalizeSymbol(symbol), from.Format(domain.DateLayout), to.Format(domain.DateLayout))
	var cached domain.HistorySeries
	if s.getCache(ctx, key, &cached) {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return &cached, nil
	}

	chain := s.chains.ForeignHistory
	if domain.IsCNSymbol(symbol) {
		chain = s.chains.CNHistory
	}
	attempts := make([]Attempt[*domain.HistorySeries], 0, len(chain))
	for _, src := range chain {
		attempts = append(attempts, Attempt[*domain.HistorySeries]{
			Provider: src.Name(),
			Fetch: withTimeout(s.timeout, func(ctx context.Context) (*domain.HistorySeries, error) {
				return src.FetchHistory(ctx, symbol, from, to)
			}),
			Valid: func(h *domain.HistorySeries) bool { return h != nil && len(h.Series) > 0 },
		})
	}

	h, _, err := FirstOf(withSymbol(ctx, symbol), attempts...)
	if err != nil {
		return nil, fmt.Errorf("history for %s: %w", symbol, err)
	}
	s.setCache(ctx, key, h, historyCacheTTL)
	return h, nil
}

// GetFinancials returns the latest annual revenue and net income.
func (s *QuoteService) GetFinancials(ctx context.Context, symbol string) (*domain.Financials, error) {
	ctx, span := s.tracer.Start(ctx, "quote-service.get-financials")
	defer span.End()

	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, ErrInvalidSymbol
	}
	span.SetAttributes(attribute.String("symbol", symbol))

	key := "financials:" + domain.NormalizeSymbol(symbol)
	var cached domain.Financials
	if s.getCache(ctx, key, &cached) {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return &cached, nil
	}

	attempts := make([]Attempt[*domain.Financials], 0, len(s.chains.Financials))
	for _, src := range s.chains.Financials {
		attempts = append(attempts, Attempt[*domain.Financials]{
			Provider: src.Name(),
			Fetch: withTimeout(s.timeout, func(ctx context.Context) (*domain.Financials, error) {
				return src.FetchFinancials(ctx, symbol)
			}),
			Valid: func(f *domain.Financials) bool { return f.HasData() },
		})
	}

	f, _, err := FirstOf(withSymbol(ctx, symbol), attempts...)
	if err != nil {
		return nil, fmt.Errorf("financials for %s: %w", symbol, err)
	}
	s.setCache(ctx, key, f, financialsCacheTTL)
	return f, nil
}

func (s *QuoteService) setCache(ctx context.Context, key string, v any, ttl time.Duration) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("redis cache write error")
	}
}

func (s *QuoteService) getCache(ctx context.Context, key string, v any) bool {
	if s.redis == nil {
		return false
	}
	data, err := s.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("redis cache read error")
		return false
	}
	return json.Unmarshal(data, v) == nil
}

func withSymbol(ctx context.Context, symbol string) context.Context {
	logger := zerolog.Ctx(ctx).With().Str("symbol", symbol).Logger()
	return logger.WithContext(ctx)
}
