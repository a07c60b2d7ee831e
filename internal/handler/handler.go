package handler

import (
	"context"
	"time"

	"quote-desk/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type MarketService interface {
	GetQuote(ctx context.Context, symbol string) (*domain.Quote, error)
	GetHistory(ctx context.Context, symbol string, from, to time.Time) (*domain.HistorySeries, error)
	GetFinancials(ctx context.Context, symbol string) (*domain.Financials, error)
}

type NewsService interface {
	FetchByTopic(ctx context.Context, symbol, name string) ([]domain.NewsItem, map[domain.NewsTopic][]domain.NewsItem)
}

type Analyzer interface {
	Analyze(ctx context.Context, symbol string) *domain.AnalysisResult
}

type Backtester interface {
	Run(ctx context.Context, req domain.BacktestRequest) (*domain.BacktestResult, error)
	ListRuns(ctx context.Context, limit int) ([]domain.BacktestResult, error)
}

type WatchlistSummarizer interface {
	Summarize(ctx context.Context, entries []domain.WatchlistEntry) *domain.WatchlistSummary
}

type IntelligenceFeed interface {
	Snapshot() domain.IntelligenceSnapshot
	Refresh(ctx context.Context) error
}

type ChatService interface {
	Configured() bool
	Chat(ctx context.Context, messages []domain.ChatMessage) (domain.ChatReply, error)
}

// Services groups what the routes call. A nil field makes its routes answer 503.
type Services struct {
	Market       MarketService
	News         NewsService
	Analysis     Analyzer
	Backtest     Backtester
	Watchlist    WatchlistSummarizer
	Intelligence IntelligenceFeed
	Chat         ChatService
}

type Handler struct {
	tracer trace.Tracer
	svc    Services
	now    func() time.Time
}

func New(tracer trace.Tracer, svc Services) *Handler {
	return &Handler{tracer: tracer, svc: svc, now: time.Now}
}

// RegisterRoutes mounts /health and the /api group. A non-empty apiKey protects /api.
func (h *Handler) RegisterRoutes(r *gin.Engine, apiKey string) {
	r.Use(RequestID())
	r.GET("/health", h.Health)

	api := r.Group("/api", APIKeyAuth(apiKey))
	api.GET("/quote/:symbol", h.GetQuote)
	api.GET("/history/:symbol", h.GetHistory)
	api.GET("/financials/:symbol", h.GetFinancials)
	api.GET("/news/:symbol", h.GetNews)
	api.GET("/analysis/:symbol", h.GetAnalysis)
	api.POST("/backtest", h.RunBacktest)
	api.GET("/backtest/runs", h.ListBacktestRuns)
	api.POST("/backtest/chart", h.BacktestChart)
	api.POST("/watchlist/summary", h.WatchlistSummary)
	api.GET("/intelligence", h.GetIntelligence)
	api.POST("/intelligence/refresh", h.RefreshIntelligence)
	api.POST("/chat", h.Chat)
}
