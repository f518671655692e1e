package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/stemsi/exstem-essay/internal/config"
	"github.com/stemsi/exstem-essay/internal/database"
	"github.com/stemsi/exstem-essay/internal/logger"
	"github.com/stemsi/exstem-essay/internal/repository"
	"github.com/stemsi/exstem-essay/internal/service"
	"github.com/stemsi/exstem-essay/internal/worker"
)

func main() {
	var taskID int64
	flag.Int64Var(&taskID, "task", 0, "Task to recalculate (0 = every task)")
	flag.Parse()

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

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

	taskRepo := repository.NewTaskRepository(pool)
	recalc := worker.NewGradeRecalcWorker(repository.NewEssayRepository(pool), repository.NewGradeLevelRepository(pool), rdb, cfg, log)

	fmt.Println("=== Recalculate Essay Grade Levels ===")

	taskIDs := []int64{taskID}
	if taskID == 0 {
		taskIDs, err = taskRepo.ListIDs(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to list tasks")
		}
	}

	total := 0
	for _, id := range taskIDs {
		n, err := recalc.RecalculateTask(ctx, id)
		if err != nil {
			log.Fatal().Err(err).Int64("task_id", id).Msg("Recalculation failed")
		}
		fmt.Printf("Task %d: %d essays updated\n", id, n)
		total += n
	}

	// Cached reports were computed from the old grade levels.
	if err := service.NewRedisCache(rdb).DeletePattern(ctx, config.CacheKey.StatisticsPattern()); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate statistics cache")
	}

	fmt.Printf("\nSuccess! %d essays across %d tasks now match their grade levels.\n", total, len(taskIDs))
}
