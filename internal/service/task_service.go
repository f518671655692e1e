package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-essay/internal/config"
	"github.com/stemsi/exstem-essay/internal/lifecycle"
	"github.com/stemsi/exstem-essay/internal/model"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrNotEnrolled  = errors.New("participant is not a writer of this task")
)

const settingsCacheTTL = time.Minute

type taskStore interface {
	GetSettings(ctx context.Context, taskID int64) (*model.TaskSettings, error)
	UpdateSettings(ctx context.Context, s *model.TaskSettings) error
}

type writerStore interface {
	GetByUserAndTask(ctx context.Context, userID, taskID int64) (*model.Writer, error)
	ListByTasks(ctx context.Context, taskIDs []int64) ([]model.Writer, error)
}

type essayReader interface {
	GetByWriter(ctx context.Context, writerID int64) (*model.Essay, error)
}

type extensionReader interface {
	Get(ctx context.Context, writerID, taskID int64) (*model.TimeExtension, error)
}

// TaskService manages task settings and derives the lifecycle phase of writers.
type TaskService struct {
	tasks      taskStore
	writers    writerStore
	essays     essayReader
	extensions extensionReader
	cache      jsonCache
	log        zerolog.Logger
}

// NewTaskService creates a new TaskService.
func NewTaskService(tasks taskStore, writers writerStore, essays essayReader, extensions extensionReader, cache jsonCache, log zerolog.Logger) *TaskService {
	return &TaskService{
		tasks:      tasks,
		writers:    writers,
		essays:     essays,
		extensions: extensions,
		cache:      cache,
		log:        log.With().Str("component", "task_service").Logger(),
	}
}

// GetSettings returns the task settings with their advisory conflicts.
func (s *TaskService) GetSettings(ctx context.Context, taskID int64) (*model.TaskSettings, []model.Conflict, error) {
	settings, err := s.loadSettings(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	return settings, lifecycle.ValidateSettings(*settings), nil
}

// UpdateSettings stores new settings. Conflicts are returned as warnings and
// never block the save.
func (s *TaskService) UpdateSettings(ctx context.Context, taskID int64, req model.UpdateTaskSettingsRequest) (*model.TaskSettings, []model.Conflict, error) {
	settings := req.Apply(taskID)
	if err := s.tasks.UpdateSettings(ctx, &settings); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrTaskNotFound
		}
		return nil, nil, fmt.Errorf("update settings: %w", err)
	}

	if err := s.cache.Delete(ctx, config.CacheKey.TaskSettingsKey(taskID)); err != nil {
		s.log.Warn().Err(err).Int64("task_id", taskID).Msg("failed to invalidate settings cache")
	}

	conflicts := lifecycle.ValidateSettings(settings)
	if len(conflicts) > 0 {
		s.log.Info().Int64("task_id", taskID).Int("conflicts", len(conflicts)).Msg("task settings saved with conflicts")
	}
	return &settings, conflicts, nil
}

// GetWriterPhase computes the lifecycle phase of the participant in the task at now.
func (s *TaskService) GetWriterPhase(ctx context.Context, taskID, userID int64, now time.Time) (*lifecycle.PhaseState, error) {
	settings, err := s.loadSettings(ctx, taskID)
	if err != nil {
		return nil, err
	}

	writer, err := s.writers.GetByUserAndTask(ctx, userID, taskID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotEnrolled
		}
		return nil, fmt.Errorf("get writer: %w", err)
	}

	var state lifecycle.WriterState
	essay, err := s.essays.GetByWriter(ctx, writer.ID)
	switch {
	case err == nil:
		state = lifecycle.WriterState{
			EssayExists: true,
			Authorized:  essay.Authorized(),
			Excluded:    essay.Excluded(),
			Finalized:   essay.Finalized,
		}
	case errors.Is(err, pgx.ErrNoRows):
	default:
		return nil, fmt.Errorf("get essay: %w", err)
	}

	var extra int64
	ext, err := s.extensions.Get(ctx, writer.ID, taskID)
	switch {
	case err == nil:
		extra = max(ext.ExtraSeconds, 0)
	case errors.Is(err, pgx.ErrNoRows):
	default:
		return nil, fmt.Errorf("get time extension: %w", err)
	}

	caps := lifecycle.Capabilities{ReviewWrittenEssay: settings.AllowWritingReview}
	phase := lifecycle.ComputePhase(now, *settings, extra, state, caps)
	return &phase, nil
}

func (s *TaskService) loadSettings(ctx context.Context, taskID int64) (*model.TaskSettings, error) {
	key := config.CacheKey.TaskSettingsKey(taskID)

	var cached model.TaskSettings
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn().Err(err).Int64("task_id", taskID).Msg("settings cache read failed")
	}
	if found {
		return &cached, nil
	}

	settings, err := s.tasks.GetSettings(ctx, taskID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("get settings: %w", err)
	}

	if err := s.cache.Set(ctx, key, settings, settingsCacheTTL); err != nil {
		s.log.Warn().Err(err).Int64("task_id", taskID).Msg("settings cache write failed")
	}
	return settings, nil
}
