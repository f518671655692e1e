package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-essay/internal/config"
	"github.com/stemsi/exstem-essay/internal/grading"
	"github.com/stemsi/exstem-essay/internal/model"
	"github.com/stemsi/exstem-essay/internal/repository"
)

var (
	ErrGradeLevelNotFound     = errors.New("grade level not found")
	ErrGradeLevelsLocked      = repository.ErrGradeLevelsLocked
	ErrDuplicateThreshold     = repository.ErrDuplicateThreshold
	ErrGradeLevelDeleteClosed = errors.New("grade levels cannot be deleted after correction has started")
	ErrInvalidPoints          = errors.New("minimum points must be a finite number not below zero")
)

type gradeLevelStore interface {
	ListByObjects(ctx context.Context, objectIDs []int64) ([]model.GradeLevel, error)
	Create(ctx context.Context, l *model.GradeLevel) error
	Update(ctx context.Context, l *model.GradeLevel) error
	Delete(ctx context.Context, objectID, id int64) error
}

type finalizedChecker interface {
	FinalizedExists(ctx context.Context, taskID int64) (bool, error)
}

type recalcEnqueuer interface {
	Enqueue(ctx context.Context, taskID int64) error
}

// GradeLevelService manages the grade level ladder of a task. Every successful
// change schedules a recalculation of stored essay grades and drops cached statistics.
type GradeLevelService struct {
	levels gradeLevelStore
	essays finalizedChecker
	tasks  taskStore
	recalc recalcEnqueuer
	cache  jsonCache
	now    func() time.Time
	log    zerolog.Logger
}

// NewGradeLevelService creates a new GradeLevelService.
func NewGradeLevelService(levels gradeLevelStore, essays finalizedChecker, tasks taskStore, recalc recalcEnqueuer, cache jsonCache, log zerolog.Logger) *GradeLevelService {
	return &GradeLevelService{
		levels: levels,
		essays: essays,
		tasks:  tasks,
		recalc: recalc,
		cache:  cache,
		now:    time.Now,
		log:    log.With().Str("component", "grade_level_service").Logger(),
	}
}

// List returns the ladder of the task, highest threshold first, with its conflicts.
func (s *GradeLevelService) List(ctx context.Context, taskID int64) ([]model.GradeLevel, []model.Conflict, error) {
	levels, err := s.levels.ListByObjects(ctx, []int64{taskID})
	if err != nil {
		return nil, nil, fmt.Errorf("list grade levels: %w", err)
	}
	return grading.SortLadder(levels), grading.ValidateLevels(levels), nil
}

// Validate returns the configuration conflicts of the task's ladder.
func (s *GradeLevelService) Validate(ctx context.Context, taskID int64) ([]model.Conflict, error) {
	_, conflicts, err := s.List(ctx, taskID)
	return conflicts, err
}

// Create adds a grade level to the task.
func (s *GradeLevelService) Create(ctx context.Context, taskID int64, req model.GradeLevelRequest) (*model.GradeLevel, []model.Conflict, error) {
	lvl := req.ToGradeLevel(taskID, 0)
	if err := s.checkWritable(ctx, taskID, lvl); err != nil {
		return nil, nil, err
	}

	if err := s.levels.Create(ctx, &lvl); err != nil {
		return nil, nil, s.mapStoreError("create grade level", err)
	}
	s.log.Info().Int64("task_id", taskID).Int64("grade_level_id", lvl.ID).Msg("grade level created")

	conflicts, err := s.afterChange(ctx, taskID)
	return &lvl, conflicts, err
}

// Update replaces a grade level of the task.
func (s *GradeLevelService) Update(ctx context.Context, taskID, id int64, req model.GradeLevelRequest) (*model.GradeLevel, []model.Conflict, error) {
	lvl := req.ToGradeLevel(taskID, id)
	if err := s.checkWritable(ctx, taskID, lvl); err != nil {
		return nil, nil, err
	}

	if err := s.levels.Update(ctx, &lvl); err != nil {
		return nil, nil, s.mapStoreError("update grade level", err)
	}
	s.log.Info().Int64("task_id", taskID).Int64("grade_level_id", id).Msg("grade level updated")

	conflicts, err := s.afterChange(ctx, taskID)
	return &lvl, conflicts, err
}

// Delete removes a grade level. Deletion is closed once correction has started.
func (s *GradeLevelService) Delete(ctx context.Context, taskID, id int64) ([]model.Conflict, error) {
	if err := s.checkUnlocked(ctx, taskID); err != nil {
		return nil, err
	}

	settings, err := s.tasks.GetSettings(ctx, taskID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("get settings: %w", err)
	}
	if settings.CorrectionStart.Reached(s.now()) {
		return nil, ErrGradeLevelDeleteClosed
	}

	if err := s.levels.Delete(ctx, taskID, id); err != nil {
		return nil, s.mapStoreError("delete grade level", err)
	}
	s.log.Info().Int64("task_id", taskID).Int64("grade_level_id", id).Msg("grade level deleted")

	return s.afterChange(ctx, taskID)
}

func (s *GradeLevelService) checkUnlocked(ctx context.Context, taskID int64) error {
	locked, err := s.essays.FinalizedExists(ctx, taskID)
	if err != nil {
		return fmt.Errorf("check finalized corrections: %w", err)
	}
	if locked {
		return ErrGradeLevelsLocked
	}
	return nil
}

// checkWritable rejects invalid points, locked ladders and thresholds that
// would duplicate another level of the task.
func (s *GradeLevelService) checkWritable(ctx context.Context, taskID int64, lvl model.GradeLevel) error {
	if lvl.MinPoints < 0 || math.IsNaN(lvl.MinPoints) || math.IsInf(lvl.MinPoints, 0) {
		return ErrInvalidPoints
	}
	if err := s.checkUnlocked(ctx, taskID); err != nil {
		return err
	}

	existing, err := s.levels.ListByObjects(ctx, []int64{taskID})
	if err != nil {
		return fmt.Errorf("list grade levels: %w", err)
	}

	found := lvl.ID == 0
	for _, other := range existing {
		if other.ID == lvl.ID {
			found = true
			continue
		}
		if other.MinPoints == lvl.MinPoints {
			return ErrDuplicateThreshold
		}
	}
	if !found {
		return ErrGradeLevelNotFound
	}
	return nil
}

func (s *GradeLevelService) mapStoreError(op string, err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return ErrGradeLevelNotFound
	case errors.Is(err, repository.ErrGradeLevelsLocked), errors.Is(err, repository.ErrDuplicateThreshold):
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}

// afterChange schedules the essay recalculation, invalidates statistics and
// returns the conflicts of the new ladder. Failures to schedule are logged
// only; the stored ladder is already authoritative.
func (s *GradeLevelService) afterChange(ctx context.Context, taskID int64) ([]model.Conflict, error) {
	if err := s.recalc.Enqueue(ctx, taskID); err != nil {
		s.log.Error().Err(err).Int64("task_id", taskID).Msg("failed to enqueue grade recalculation")
	}
	if err := s.cache.DeletePattern(ctx, config.CacheKey.StatisticsPattern()); err != nil {
		s.log.Warn().Err(err).Msg("failed to invalidate statistics cache")
	}
	return s.Validate(ctx, taskID)
}
