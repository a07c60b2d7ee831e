package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"quote-desk/internal/app"
	"quote-desk/internal/cache"
	"quote-desk/internal/config"
	"quote-desk/internal/logging"
	"quote-desk/internal/repository"
	"quote-desk/internal/service"
	"quote-desk/pkg/tracing"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

const version = "1.0.0"

var (
	loadEnvFunc    = godotenv.Load
	loadConfigFunc = config.Load
	initRedisFunc  = cache.InitRedis
	runServerFunc  = func(ctx context.Context, s *mcp.Server) error { return s.Run(ctx, &mcp.StdioTransport{}) }
)

// Serves the quote, analysis and backtest tools over stdio. Stdout carries the
// protocol, so logs go to stderr as JSON.
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()
	logging.Init(cfg.LogLevel, "json")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, tracer, err := tracing.InitTracer(ctx, tracing.Options{Enabled: cfg.TracingEnabled, Endpoint: cfg.OTELEndpoint})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracer")
	}
	defer tp.Shutdown(context.Background())

	var redisClient service.RedisClient
	if rc, err := initRedisFunc(ctx, cfg.RedisURL); err != nil {
		log.Warn().Err(err).Msg("redis unavailable, running without cache")
	} else if rc != nil {
		defer rc.Close()
		redisClient = rc
	}

	var runs service.RunStore
	if cfg.SQLitePath != "" {
		store, err := repository.OpenSQLiteRunStore(cfg.SQLitePath, tracer)
		if err != nil {
			log.Warn().Err(err).Msg("sqlite unavailable, runs will not be persisted")
		} else {
			defer store.Close()
			runs = store
		}
	}

	svc := app.Build(tracer, cfg, redisClient, runs)
	server := newServer(version, svc.Quotes, svc.Analysis, svc.Backtest)

	if err := runServerFunc(ctx, server); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("mcp server stopped")
	}
}
