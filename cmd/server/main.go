package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/focusloop/focusloop-backend/internal/config"
	"github.com/focusloop/focusloop-backend/internal/database"
	"github.com/focusloop/focusloop-backend/internal/generation"
	"github.com/focusloop/focusloop-backend/internal/handler"
	"github.com/focusloop/focusloop-backend/internal/logger"
	"github.com/focusloop/focusloop-backend/internal/repository"
	"github.com/focusloop/focusloop-backend/internal/router"
	"github.com/focusloop/focusloop-backend/internal/service"
	"github.com/focusloop/focusloop-backend/internal/validator"
	"github.com/focusloop/focusloop-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting FocusLoop Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	studentRepo := repository.NewStudentRepository(pool)
	sessionRepo := repository.NewExamSessionRepository(pool)
	attentionRepo := repository.NewAttentionRepository(pool)

	// ─── Initialize Question Generation ────────────────────────────────
	// Without an API key the generator stays nil and every session is
	// seeded from the fallback bank.
	var gen generation.Generator
	if cfg.OpenAIAPIKey != "" {
		openaiGen, err := generation.NewOpenAIGenerator(generation.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to build OpenAI generator")
		}
		gen = openaiGen
		log.Info().Msg("Question generation enabled")
	} else {
		log.Warn().Msg("OPENAI_API_KEY not set, using fallback question bank only")
	}
	generationService := generation.NewService(gen, cfg.GenTimeout, log)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb)
	sessionService := service.NewExamSessionService(cfg, sessionRepo, generationService, rdb, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:      handler.NewAuthHandler(authService, studentRepo),
		Exam:      handler.NewExamHandler(sessionService, studentRepo),
		Analytics: handler.NewAnalyticsHandler(attentionRepo),
		WS:        handler.NewWSHandler(sessionService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	answerWorker := worker.NewAnswerWorker(pool, rdb, log)
	attentionWorker := worker.NewAttentionWorker(pool, rdb, log)
	resultWorker := worker.NewResultWorker(pool, rdb, log)
	generationWorker := worker.NewGenerationWorker(generationService, rdb, log)

	go answerWorker.Start(workerCtx)
	go attentionWorker.Start(workerCtx)
	go resultWorker.Start(workerCtx)
	go generationWorker.Start(workerCtx)

	// Evict finished session machines after a grace window so results stay
	// readable briefly without the registry growing forever.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				if n := sessionService.Evict(30 * time.Minute); n > 0 {
					log.Info().Int("count", n).Msg("Evicted finished sessions")
				}
			}
		}
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
