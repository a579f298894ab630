package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/espacodiva/bellabot/cmd/mainconfig"
	"github.com/espacodiva/bellabot/internal/api/router"
	appconfig "github.com/espacodiva/bellabot/internal/config"
	"github.com/espacodiva/bellabot/internal/conversation"
	"github.com/espacodiva/bellabot/internal/observability/metrics"
	"github.com/espacodiva/bellabot/internal/schedule"
	"github.com/espacodiva/bellabot/internal/webchat"
	"github.com/espacodiva/bellabot/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting bellabot API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	// Slot registry: Postgres when configured, otherwise in-memory with an
	// optional append-only booking log.
	var (
		registry schedule.Registry
		sqlDB    *sql.DB
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		registry = schedule.NewPostgresRegistry(pool)
		sqlDB = stdlib.OpenDBFromPool(pool)
		defer func() { _ = sqlDB.Close() }()
	} else {
		var opts []schedule.MemoryOption
		if cfg.BookingLog != "" {
			bookLog, err := schedule.NewBookingLog(cfg.BookingLog)
			if err != nil {
				logger.Error("failed to open booking log", "error", err, "path", cfg.BookingLog)
				os.Exit(1)
			}
			opts = append(opts, schedule.WithBookingLog(bookLog))
		}
		memRegistry, err := schedule.NewMemoryRegistry(opts...)
		if err != nil {
			logger.Error("failed to build slot registry", "error", err)
			os.Exit(1)
		}
		registry = memRegistry
		logger.Warn("DATABASE_URL not set; appointments live in process memory")
	}

	// Session directory and transcripts: Redis when configured.
	var (
		sessions    conversation.SessionDirectory
		transcripts *conversation.TranscriptStore
	)
	if cfg.RedisAddr != "" {
		redisOpts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient := redis.NewClient(redisOpts)
		sessions = conversation.NewRedisSessionStore(redisClient, cfg.SessionTTL)
		transcripts = conversation.NewTranscriptStore(redisClient)
	} else {
		sessions = conversation.NewMemorySessionStore(cfg.SessionTTL)
		logger.Warn("REDIS_ADDR not set; sessions live in process memory")
	}

	// Language oracle. Without a key the engine answers with canned text.
	var llm conversation.LLMClient
	if cfg.GeminiAPIKey != "" {
		gemini, err := conversation.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			logger.Error("failed to create gemini client", "error", err)
			os.Exit(1)
		}
		defer func() { _ = gemini.Close() }()
		llm = gemini
	} else {
		logger.Warn("GEMINI_API_KEY not set; using canned replies only")
	}
	oracle := conversation.NewOracle(llm, cfg.OracleAttempts, cfg.OracleTimeout, logger)

	convMetrics := metrics.NewConversationMetrics(nil)

	engineOpts := []conversation.EngineOption{conversation.WithMetrics(convMetrics)}
	if transcripts != nil {
		engineOpts = append(engineOpts, conversation.WithTranscripts(transcripts))
	}
	if sqlDB != nil {
		engineOpts = append(engineOpts, conversation.WithMessageStore(conversation.NewMessageStore(sqlDB)))
	}
	engine := conversation.NewEngine(registry, sessions, oracle, logger, engineOpts...)

	// Turn dispatch: in-process queue by default, SQS when configured.
	var orchestrator *conversation.Orchestrator
	if cfg.UseMemoryQueue || cfg.ConversationQueueURL == "" {
		orchestrator = conversation.NewOrchestrator(
			engine,
			conversation.NewMemoryQueue(64),
			logger,
			conversation.WithWorkerCount(cfg.WorkerCount),
		)
	} else {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		queue := conversation.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.ConversationQueueURL)
		orchestrator = conversation.NewOrchestrator(
			engine,
			queue,
			logger,
			conversation.WithWorkerCount(cfg.WorkerCount),
		)
	}

	conversationHandler := conversation.NewHandler(orchestrator, logger)
	webchatHandler := webchat.NewHandler(orchestrator, logger)

	r := router.New(&router.Config{
		Logger:              logger,
		ConversationHandler: conversationHandler,
		WebchatHandler:      webchatHandler,
		MetricsHandler:      promhttp.Handler(),
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := orchestrator.Shutdown(shutdownCtx); err != nil {
		logger.Error("orchestrator shutdown failed", "error", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
