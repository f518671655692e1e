package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-essay/internal/model"
)

var (
	ErrInvalidExtension  = errors.New("extra seconds must not be negative")
	ErrWriterNotFound    = errors.New("writer not found in this task")
	ErrExtensionNotFound = errors.New("time extension not found")
)

type extensionStore interface {
	Upsert(ctx context.Context, e *model.TimeExtension) error
	Delete(ctx context.Context, writerID, taskID int64) error
	ListByTask(ctx context.Context, taskID int64) ([]model.TimeExtension, error)
}

// TimeExtensionService grants and revokes extra writing time per writer.
type TimeExtensionService struct {
	extensions extensionStore
	log        zerolog.Logger
}

// NewTimeExtensionService creates a new TimeExtensionService.
func NewTimeExtensionService(extensions extensionStore, log zerolog.Logger) *TimeExtensionService {
	return &TimeExtensionService{
		extensions: extensions,
		log:        log.With().Str("component", "time_extension_service").Logger(),
	}
}

// Set grants the writer extraSeconds, replacing any earlier extension.
func (s *TimeExtensionService) Set(ctx context.Context, taskID, writerID, extraSeconds int64) (*model.TimeExtension, error) {
	if extraSeconds < 0 {
		return nil, ErrInvalidExtension
	}

	ext := &model.TimeExtension{WriterID: writerID, TaskID: taskID, ExtraSeconds: extraSeconds}
	if err := s.extensions.Upsert(ctx, ext); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWriterNotFound
		}
		return nil, fmt.Errorf("upsert time extension: %w", err)
	}

	s.log.Info().
		Int64("task_id", taskID).
		Int64("writer_id", writerID).
		Int64("extra_seconds", extraSeconds).
		Msg("time extension set")
	return ext, nil
}

// Delete revokes the writer's extension.
func (s *TimeExtensionService) Delete(ctx context.Context, taskID, writerID int64) error {
	if err := s.extensions.Delete(ctx, writerID, taskID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrExtensionNotFound
		}
		return fmt.Errorf("delete time extension: %w", err)
	}
	return nil
}

// ListByTask returns every extension granted on the task.
func (s *TimeExtensionService) ListByTask(ctx context.Context, taskID int64) ([]model.TimeExtension, error) {
	exts, err := s.extensions.ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("list time extensions: %w", err)
	}
	return exts, nil
}
