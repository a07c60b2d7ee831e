package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quote-desk/internal/app"
	"quote-desk/internal/bot"
	"quote-desk/internal/cache"
	"quote-desk/internal/config"
	"quote-desk/internal/db"
	"quote-desk/internal/handler"
	"quote-desk/internal/job"
	"quote-desk/internal/logging"
	"quote-desk/internal/repository"
	"quote-desk/internal/service"
	"quote-desk/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	_ "quote-desk/docs"
)

var (
	loadEnvFunc          = godotenv.Load
	loadConfigFunc       = config.Load
	initLoggingFunc      = logging.Init
	initTracerFunc       = tracing.InitTracer
	initPostgresFunc     = db.InitPostgres
	initRedisFunc        = cache.InitRedis
	openSQLiteStoreFunc  = repository.OpenSQLiteRunStore
	startTelegramBotFunc = func(b *bot.Bot, token string) error {
		_, err := b.Start(token)
		return err
	}
	startIntelligenceJobFunc = func(j *job.IntelligenceJob, ctx context.Context) {
		go func() {
			if err := j.Start(ctx); err != nil {
				log.Error().Err(err).Msg("intelligence job stopped")
			}
		}()
	}
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Quote Desk API
// @version         1.0
// @description     Stock and fund quotes with multi-source fallback, news, analysis, backtests and chat.

// @host      localhost:8080
// @BasePath  /
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()
	initLoggingFunc(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx, tracing.Options{Enabled: cfg.TracingEnabled, Endpoint: cfg.OTELEndpoint})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracer")
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Error().Err(err).Msg("error shutting down tracer provider")
		}
	}()

	var redisClient service.RedisClient
	rc, err := initRedisFunc(ctx, cfg.RedisURL)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, running without cache")
	} else if rc != nil {
		defer rc.Close()
		redisClient = rc
	}

	runs, closeRuns := openRunStore(ctx, cfg, tracer)
	defer closeRuns()

	svc := app.Build(tracer, cfg, redisClient, runs)

	intelJob := job.NewIntelligenceJob(tracer, svc.Intelligence, cfg.IntelligenceCron)
	startIntelligenceJobFunc(intelJob, ctx)

	telegram := bot.New(svc.Quotes, svc.Analysis, svc.News)
	if err := startTelegramBotFunc(telegram, cfg.TelegramBotToken); err != nil {
		log.Error().Err(err).Msg("telegram bot not started")
	}

	h := handler.New(tracer, handler.Services{
		Market:       svc.Quotes,
		News:         svc.News,
		Analysis:     svc.Analysis,
		Backtest:     svc.Backtest,
		Watchlist:    svc.Watchlist,
		Intelligence: svc.Intelligence,
		Chat:         svc.Chat,
	})

	r := newRouterFunc()
	r.Use(otelgin.Middleware(tracing.ServiceName))

	h.RegisterRoutes(r, cfg.APIKey)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Info().Msg("shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exiting")
}

// openRunStore prefers Postgres, then SQLite. Neither configured, or both failing,
// leaves backtest runs unpersisted.
func openRunStore(ctx context.Context, cfg *config.Config, tracer trace.Tracer) (service.RunStore, func()) {
	noop := func() {}

	pool, err := initPostgresFunc(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Warn().Err(err).Msg("postgres unavailable")
	}
	if pool != nil {
		repo := repository.NewBacktestRunRepository(pool, tracer)
		if err := repo.RunMigrations(ctx); err != nil {
			log.Warn().Err(err).Msg("backtest run migrations failed, runs will not be persisted")
			pool.Close()
			return nil, noop
		}
		return repo, pool.Close
	}

	if cfg.SQLitePath != "" {
		store, err := openSQLiteStoreFunc(cfg.SQLitePath, tracer)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.SQLitePath).Msg("sqlite unavailable, runs will not be persisted")
			return nil, noop
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("backtest runs stored in sqlite")
		return store, func() { store.Close() }
	}
	return nil, noop
}
