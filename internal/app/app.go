// Package app assembles providers and services from configuration. Both the HTTP server
// and the MCP server build on it.
package app

import (
	"time"

	"quote-desk/internal/config"
	"quote-desk/internal/job"
	"quote-desk/internal/llm"
	"quote-desk/internal/provider"
	"quote-desk/internal/service"

	"go.opentelemetry.io/otel/trace"
)

type Services struct {
	LLM          *llm.Client
	Quotes       *service.QuoteService
	News         *service.NewsService
	Analysis     *service.AnalysisService
	Backtest     *service.BacktestService
	Watchlist    *service.WatchlistService
	Intelligence *service.IntelligenceService
	Chat         *service.ChatService
}

// Build wires every service. redis and runs may be nil to disable caching and run
// persistence.
func Build(tracer trace.Tracer, cfg *config.Config, redis service.RedisClient, runs service.RunStore) *Services {
	timeout := time.Duration(cfg.ProviderTimeoutSecs) * time.Second

	llmClient := llm.NewClient(tracer, cfg.DeepSeek, cfg.Zhipu)

	yahoo := provider.NewYahooProvider(tracer, timeout)
	tencent := provider.NewTencentProvider(tracer, timeout)
	sina := provider.NewSinaProvider(tracer, timeout)
	page := provider.NewPageExtractor(tracer, llmClient, timeout)
	newsProvider := provider.NewNewsProvider(tracer, timeout)

	quotes := service.NewQuoteService(tracer, service.StandardChains(yahoo, tencent, sina, page), redis, timeout)
	news := service.NewNewsService(tracer, newsProvider, cfg.NewsPerTopic, service.TopicSuffixes{
		CN:      cfg.NewsSuffixesCN,
		Foreign: cfg.NewsSuffixesForeign,
	})

	cache := service.NewIntelligenceCache(job.ScheduleInterval(cfg.IntelligenceCron), nil)

	return &Services{
		LLM:          llmClient,
		Quotes:       quotes,
		News:         news,
		Analysis:     service.NewAnalysisService(tracer, quotes, news, llmClient),
		Backtest:     service.NewBacktestService(tracer, quotes, runs),
		Watchlist:    service.NewWatchlistService(tracer, quotes),
		Intelligence: service.NewIntelligenceService(tracer, newsProvider, cfg.IntelligenceQueries, cache),
		Chat:         service.NewChatService(tracer, llmClient),
	}
}
