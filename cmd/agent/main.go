package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketpulse/internal/agent"
	"marketpulse/internal/analyst"
	"marketpulse/internal/bot"
	"marketpulse/internal/cache"
	"marketpulse/internal/composer"
	"marketpulse/internal/config"
	"marketpulse/internal/db"
	"marketpulse/internal/dupguard"
	"marketpulse/internal/handler"
	"marketpulse/internal/history"
	"marketpulse/internal/provider"
	"marketpulse/internal/repository"
	"marketpulse/internal/retry"
	"marketpulse/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
)

var (
	loadEnvFunc      = godotenv.Load
	loadConfigFunc   = config.Load
	initPostgresFunc = db.InitPostgres
	initRedisFunc    = cache.InitRedis
	initTracerFunc   = tracing.InitTracer
	newSourceFunc    = func(tracer trace.Tracer, policy retry.Policy) agent.MarketDataSource {
		return provider.NewCoinGeckoProvider(tracer, policy)
	}
	newLLMClientFunc = analyst.NewOpenAIClient
	newPublisherFunc = func(token string, chatID int64, policy retry.Policy) (agent.Publisher, error) {
		return bot.NewTelegramPublisher(token, chatID, policy)
	}
	startSchedulerFunc     = func(s *agent.Scheduler, ctx context.Context) { go s.Start(ctx) }
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	os.Setenv("DATABASE_URL", cfg.DatabaseURL)
	os.Setenv("REDIS_URL", cfg.RedisURL)
	initPostgresFunc(ctx)
	initRedisFunc(ctx)

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracer")
	}
	defer func() {
		if err := tracing.Shutdown(tp); err != nil {
			log.Error().Err(err).Msg("error shutting down tracer provider")
		}
	}()

	// The archive is optional: without Postgres the agent still posts, it
	// just keeps history in Redis only.
	var archive agent.PostArchive
	var archiveReader handler.ArchiveReader
	if db.Pool != nil {
		postRepo := repository.NewPostRepository(db.Pool, tracer)
		if err := postRepo.RunMigrations(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
		archive = postRepo
		archiveReader = postRepo
	}

	policy := retry.Policy{
		MaxAttempts: cfg.MaxRetries,
		BaseDelay:   time.Duration(cfg.RetryBaseDelaySecs) * time.Second,
	}

	source := newSourceFunc(tracer, policy)
	llm := newLLMClientFunc(cfg.OpenAIAPIKey)
	an := analyst.NewAnalyst(tracer, llm, cfg.OpenAIModel, cfg.AnalysisMaxTokens, policy)
	comp := composer.New(cfg.Post)
	guard := dupguard.New()
	store := history.NewStore(cache.Client, tracer)

	publisher, err := newPublisherFunc(cfg.TelegramBotToken, cfg.TelegramChatID, policy)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start Telegram publisher")
	}

	gate := agent.NewGate(source, an, comp, guard, store, archive, publisher, tracer)
	scheduler := agent.NewScheduler(gate,
		time.Duration(cfg.CycleIntervalSecs)*time.Second,
		time.Duration(cfg.ErrorBackoffSecs)*time.Second,
	)
	startSchedulerFunc(scheduler, ctx)

	h := handler.New(tracer, gate, archiveReader)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("marketpulse"))
	h.RegisterRoutes(r)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Info().Msg("Shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
