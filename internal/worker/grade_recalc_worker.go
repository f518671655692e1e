package worker

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-essay/internal/config"
	"github.com/stemsi/exstem-essay/internal/grading"
	"github.com/stemsi/exstem-essay/internal/model"
)

const RecalcPollTimeout = 1 * time.Second

type essayStore interface {
	ListByTasks(ctx context.Context, taskIDs []int64) ([]model.Essay, error)
	UpdateGradeLevels(ctx context.Context, essayIDs []int64, levelIDs []*int64) error
}

type gradeLevelStore interface {
	ListByObjects(ctx context.Context, objectIDs []int64) ([]model.GradeLevel, error)
}

// GradeRecalcQueue enqueues tasks whose stored essay grades are stale.
type GradeRecalcQueue struct {
	rdb *redis.Client
}

// NewGradeRecalcQueue creates a new GradeRecalcQueue.
func NewGradeRecalcQueue(rdb *redis.Client) *GradeRecalcQueue {
	return &GradeRecalcQueue{rdb: rdb}
}

// Enqueue schedules a recalculation of every essay grade of the task.
func (q *GradeRecalcQueue) Enqueue(ctx context.Context, taskID int64) error {
	return q.rdb.RPush(ctx, config.WorkerKey.GradeRecalcQueue, strconv.FormatInt(taskID, 10)).Err()
}

// GradeRecalcWorker consumes grade_recalc_queue and rewrites essays.grade_level_id
// from the current grade level ladder of each task.
type GradeRecalcWorker struct {
	essays     essayStore
	levels     gradeLevelStore
	rdb        *redis.Client
	batchSize  int
	flushEvery time.Duration
	log        zerolog.Logger
}

// NewGradeRecalcWorker creates a new GradeRecalcWorker.
func NewGradeRecalcWorker(essays essayStore, levels gradeLevelStore, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) *GradeRecalcWorker {
	return &GradeRecalcWorker{
		essays:     essays,
		levels:     levels,
		rdb:        rdb,
		batchSize:  cfg.GradeRecalcBatchSize,
		flushEvery: cfg.GradeRecalcFlushEvery,
		log:        log.With().Str("component", "grade_recalc_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

// Start runs until ctx is cancelled. Call in a goroutine.
func (w *GradeRecalcWorker) Start(ctx context.Context) {
	w.log.Info().Msg("GradeRecalcWorker started")

	// Several edits of one ladder collapse into a single recalculation.
	pending := make(map[int64]struct{})
	lastFlush := time.Now()

	for {
		if len(pending) > 0 && time.Since(lastFlush) >= w.flushEvery {
			w.flushSafe(ctx, pending)
			pending = make(map[int64]struct{})
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing pending tasks...")
			w.flushSafe(context.Background(), pending)
			return

		default:
			item, err := w.rdb.BLPop(ctx, RecalcPollTimeout, config.WorkerKey.GradeRecalcQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}
			if len(item) < 2 {
				continue
			}

			taskID, err := strconv.ParseInt(item[1], 10, 64)
			if err != nil {
				w.log.Error().Err(err).Str("payload", item[1]).Msg("Invalid task id payload")
				continue
			}
			pending[taskID] = struct{}{}
		}
	}
}

func (w *GradeRecalcWorker) flushSafe(ctx context.Context, pending map[int64]struct{}) {
	for taskID := range pending {
		n, err := w.RecalculateTask(ctx, taskID)
		if err != nil {
			w.log.Error().Err(err).Int64("task_id", taskID).Msg("recalculation failed, requeueing")
			if err := w.rdb.RPush(ctx, config.WorkerKey.GradeRecalcQueue, strconv.FormatInt(taskID, 10)).Err(); err != nil {
				w.log.Error().Err(err).Int64("task_id", taskID).Msg("requeue failed, recalculation dropped")
			}
			continue
		}
		w.log.Debug().Int64("task_id", taskID).Int("essays", n).Msg("grade levels recalculated")
	}
}

// RecalculateTask resolves every essay of the task against one snapshot of its
// grade levels and stores the result in batches. Returns the number of essays written.
func (w *GradeRecalcWorker) RecalculateTask(ctx context.Context, taskID int64) (int, error) {
	levels, err := w.levels.ListByObjects(ctx, []int64{taskID})
	if err != nil {
		return 0, fmt.Errorf("load grade levels: %w", err)
	}
	essays, err := w.essays.ListByTasks(ctx, []int64{taskID})
	if err != nil {
		return 0, fmt.Errorf("load essays: %w", err)
	}

	ids, levelIDs := ResolveEssayLevels(essays, levels)

	size := w.batchSize
	if size <= 0 {
		size = len(ids)
	}
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		if err := w.essays.UpdateGradeLevels(ctx, ids[start:end], levelIDs[start:end]); err != nil {
			return start, fmt.Errorf("update grade levels: %w", err)
		}
	}
	return len(ids), nil
}

// ResolveEssayLevels returns, for every essay whose stored level is stale, the
// essay id and its resolved level id (nil when ungraded or below every threshold).
func ResolveEssayLevels(essays []model.Essay, levels []model.GradeLevel) ([]int64, []*int64) {
	ladders := make(map[int64][]model.GradeLevel)
	for _, l := range levels {
		ladders[l.ObjectID] = append(ladders[l.ObjectID], l)
	}

	var ids []int64
	var levelIDs []*int64
	for _, e := range essays {
		var want *int64
		if e.Points != nil && !math.IsNaN(*e.Points) && !math.IsInf(*e.Points, 0) {
			if lvl := grading.Resolve(*e.Points, ladders[e.TaskID]); lvl != nil {
				id := lvl.ID
				want = &id
			}
		}
		if sameLevel(e.GradeLevelID, want) {
			continue
		}
		ids = append(ids, e.ID)
		levelIDs = append(levelIDs, want)
	}
	return ids, levelIDs
}

func sameLevel(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
