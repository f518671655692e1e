package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-essay/internal/config"
	"github.com/stemsi/exstem-essay/internal/database"
	"github.com/stemsi/exstem-essay/internal/handler"
	"github.com/stemsi/exstem-essay/internal/logger"
	"github.com/stemsi/exstem-essay/internal/middleware"
	"github.com/stemsi/exstem-essay/internal/repository"
	"github.com/stemsi/exstem-essay/internal/router"
	"github.com/stemsi/exstem-essay/internal/service"
	"github.com/stemsi/exstem-essay/internal/validator"
	"github.com/stemsi/exstem-essay/internal/worker"
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
		Msg("Starting ExStem Essay")

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
	adminRepo := repository.NewAdminRepository(pool)
	roleRepo := repository.NewRoleRepository(pool)
	participantRepo := repository.NewParticipantRepository(pool)
	taskRepo := repository.NewTaskRepository(pool)
	levelRepo := repository.NewGradeLevelRepository(pool)
	extensionRepo := repository.NewTimeExtensionRepository(pool)
	writerRepo := repository.NewWriterRepository(pool)
	essayRepo := repository.NewEssayRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	cache := service.NewRedisCache(rdb)
	recalcQueue := worker.NewGradeRecalcQueue(rdb)

	authService := service.NewAuthService(cfg, adminRepo, roleRepo, participantRepo, log)
	taskService := service.NewTaskService(taskRepo, writerRepo, essayRepo, extensionRepo, cache, log)
	gradeLevelService := service.NewGradeLevelService(levelRepo, essayRepo, taskRepo, recalcQueue, cache, log)
	extensionService := service.NewTimeExtensionService(extensionRepo, log)
	statisticsService := service.NewStatisticsService(taskRepo, levelRepo, essayRepo, writerRepo, participantRepo, cache, cfg, log)
	exportService := service.NewExportService(log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:          handler.NewAuthHandler(authService),
		Task:          handler.NewTaskHandler(taskService, log),
		GradeLevel:    handler.NewGradeLevelHandler(gradeLevelService, log),
		TimeExtension: handler.NewTimeExtensionHandler(extensionService, log),
		Statistics:    handler.NewStatisticsHandler(statisticsService, exportService, log),
		WS:            handler.NewWSHandler(taskService, cfg.PhaseStreamInterval, log, cfg.AllowedOrigins),
		System:        handler.NewSystemHandler(pool, rdb, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	workerDone := make(chan struct{})

	recalcWorker := worker.NewGradeRecalcWorker(essayRepo, levelRepo, rdb, cfg, log)
	go func() {
		defer close(workerDone)
		recalcWorker.Start(workerCtx)
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	authLimiter := middleware.NewRateLimiter(middleware.NewRedisCounter(rdb), cfg.AuthRateLimitPerMin, time.Minute, log)
	r := router.SetupRouter(authService, authLimiter, handlers, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
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

	// 2. Stop the recalculation worker; it flushes pending tasks on exit.
	workerCancel()
	select {
	case <-workerDone:
	case <-time.After(5 * time.Second):
		log.Warn().Msg("Grade recalculation worker did not stop in time")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
