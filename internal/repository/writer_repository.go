package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-essay/internal/model"
)

// WriterRepository handles task enrolments.
type WriterRepository struct {
	pool *pgxpool.Pool
}

// NewWriterRepository creates a new WriterRepository.
func NewWriterRepository(pool *pgxpool.Pool) *WriterRepository {
	return &WriterRepository{pool: pool}
}

// GetByUserAndTask returns the enrolment of a participant in a task.
func (r *WriterRepository) GetByUserAndTask(ctx context.Context, userID, taskID int64) (*model.Writer, error) {
	w := &model.Writer{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, task_id, pseudonym FROM writers WHERE user_id = $1 AND task_id = $2`,
		userID, taskID,
	).Scan(&w.ID, &w.UserID, &w.TaskID, &w.Pseudonym)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// ListByTasks returns every writer enrolled in any of the tasks.
func (r *WriterRepository) ListByTasks(ctx context.Context, taskIDs []int64) ([]model.Writer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, task_id, pseudonym FROM writers
		 WHERE task_id = ANY($1) ORDER BY user_id, task_id`, taskIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var writers []model.Writer
	for rows.Next() {
		var w model.Writer
		if err := rows.Scan(&w.ID, &w.UserID, &w.TaskID, &w.Pseudonym); err != nil {
			return nil, err
		}
		writers = append(writers, w)
	}
	return writers, rows.Err()
}
