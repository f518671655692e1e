package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-essay/internal/model"
)

// TimeExtensionRepository handles per-writer writing time extensions.
type TimeExtensionRepository struct {
	pool *pgxpool.Pool
}

// NewTimeExtensionRepository creates a new TimeExtensionRepository.
func NewTimeExtensionRepository(pool *pgxpool.Pool) *TimeExtensionRepository {
	return &TimeExtensionRepository{pool: pool}
}

// Get returns the extension of one writer. Returns pgx.ErrNoRows when none is granted.
func (r *TimeExtensionRepository) Get(ctx context.Context, writerID, taskID int64) (*model.TimeExtension, error) {
	e := &model.TimeExtension{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, writer_id, task_id, extra_seconds, updated_at
		 FROM time_extensions WHERE writer_id = $1 AND task_id = $2`, writerID, taskID,
	).Scan(&e.ID, &e.WriterID, &e.TaskID, &e.ExtraSeconds, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Upsert sets the extension of one writer, replacing any previous one.
func (r *TimeExtensionRepository) Upsert(ctx context.Context, e *model.TimeExtension) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO time_extensions (writer_id, task_id, extra_seconds, updated_at)
		 SELECT w.id, w.task_id, $3, NOW() FROM writers w WHERE w.id = $1 AND w.task_id = $2
		 ON CONFLICT (writer_id, task_id)
		 DO UPDATE SET extra_seconds = EXCLUDED.extra_seconds, updated_at = NOW()
		 RETURNING id, updated_at`,
		e.WriterID, e.TaskID, e.ExtraSeconds,
	).Scan(&e.ID, &e.UpdatedAt)
}

// Delete removes the extension of one writer.
func (r *TimeExtensionRepository) Delete(ctx context.Context, writerID, taskID int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM time_extensions WHERE writer_id = $1 AND task_id = $2`, writerID, taskID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListByTask returns all extensions granted on a task.
func (r *TimeExtensionRepository) ListByTask(ctx context.Context, taskID int64) ([]model.TimeExtension, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, writer_id, task_id, extra_seconds, updated_at
		 FROM time_extensions WHERE task_id = $1 ORDER BY writer_id`, taskID,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[model.TimeExtension])
}
