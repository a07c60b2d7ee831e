package service

import (
	"context"
	"strings"
	"time"

	"quote-desk/internal/domain"
	"quote-desk/internal/ta"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const rsiPeriod = 14

// MarketData is the slice of QuoteService the composers need.
type MarketData interface {
	GetQuote(ctx context.Context, symbol string) (*domain.Quote, error)
	GetHistory(ctx context.Context, symbol string, from, to time.Time) (*domain.HistorySeries, error)
	GetFinancials(ctx context.Context, symbol string) (*domain.Financials, error)
}

type TopicNews interface {
	FetchByTopic(ctx context.Context, symbol, name string) ([]domain.NewsItem, map[domain.NewsTopic][]domain.NewsItem)
}

type ChatCompleter interface {
	Configured() bool
	Complete(ctx context.Context, system, user string) (domain.ChatReply, error)
	Chat(ctx context.Context, messages []domain.ChatMessage) (domain.ChatReply, error)
}

// AnalysisService merges quote, history, financials and news into one analysis.
type AnalysisService struct {
	tracer trace.Tracer
	market MarketData
	news   TopicNews
	llm    ChatCompleter
	now    func() time.Time
}

func NewAnalysisService(tracer trace.Tracer, market MarketData, news TopicNews, llm ChatCompleter) *AnalysisService {
	return &AnalysisService{
		tracer: tracer,
		market: market,
		news:   news,
		llm:    llm,
		now:    time.Now,
	}
}

// Analyze never fails: each missing input degrades its field to null or empty.
func (s *AnalysisService) Analyze(ctx context.Context, symbol string) *domain.AnalysisResult {
	ctx, span := s.tracer.Start(ctx, "analysis-service.analyze")
	defer span.End()

	symbol = strings.TrimSpace(symbol)
	span.SetAttributes(attribute.String("symbol", symbol))

	result := &domain.AnalysisResult{
		Code:        symbol,
		News:        []domain.NewsItem{},
		NewsByTopic: map[domain.NewsTopic][]domain.NewsItem{},
	}
	var history *domain.HistorySeries

	to := s.now()
	from := to.AddDate(-1, 0, 0)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		q, err := s.market.GetQuote(gctx, symbol)
		if err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Msg("analysis quote unavailable")
		}
		result.Quote = q
		return nil
	})
	g.Go(func() error {
		h, err := s.market.GetHistory(gctx, symbol, from, to)
		if err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Msg("analysis history unavailable")
			return nil
		}
		history = h
		return nil
	})
	g.Go(func() error {
		f, err := s.market.GetFinancials(gctx, symbol)
		if err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Msg("analysis financials unavailable")
			return nil
		}
		result.Financials = f
		return nil
	})
	g.Go(func() error {
		merged, byTopic := s.news.FetchByTopic(gctx, symbol, "")
		if merged != nil {
			result.News = merged
		}
		if byTopic != nil {
			result.NewsByTopic = byTopic
		}
		return nil
	})
	_ = g.Wait()

	closes := history.Closes()
	result.Trend = ta.ComputeTrend(closes)
	var rsi *float64
	if v, ok := ta.RSI(closes, rsiPeriod); ok {
		rsi = &v
	}

	if s.llm == nil || !s.llm.Configured() {
		result.Analysis = TemplateAnalysis(result)
		result.Model = TemplateModel
		return result
	}

	reply, err := s.llm.Complete(ctx, analysisSystemPrompt, BuildAnalysisPrompt(result, rsi))
	if err != nil {
		span.RecordError(err)
		log.Error().Err(err).Str("symbol", symbol).Msg("analysis completion failed")
		result.Analysis = AnalysisUnavailableMessage
		return result
	}
	result.Analysis = reply.Reply
	result.Model = reply.Model
	span.SetAttributes(attribute.String("model", reply.Model))
	return result
}
