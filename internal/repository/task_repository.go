package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-essay/internal/model"
)

// TaskRepository handles essay task settings.
type TaskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

// GetSettings loads the settings of one task. Returns pgx.ErrNoRows when the
// task does not exist.
func (r *TaskRepository) GetSettings(ctx context.Context, taskID int64) (*model.TaskSettings, error) {
	s := &model.TaskSettings{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, description, closing_message,
		        writing_start, writing_end, correction_start, correction_end,
		        review_enabled, review_start, review_end,
		        review_notification, review_notification_text,
		        result_available_type, result_available_date,
		        solution_available, solution_available_date,
		        keep_essay_available, allow_writing_review, updated_at
		 FROM tasks WHERE id = $1`, taskID,
	).Scan(
		&s.TaskID, &s.Title, &s.Description, &s.ClosingMessage,
		&s.WritingStart, &s.WritingEnd, &s.CorrectionStart, &s.CorrectionEnd,
		&s.ReviewEnabled, &s.ReviewStart, &s.ReviewEnd,
		&s.ReviewNotification, &s.ReviewNotificationText,
		&s.ResultAvailableType, &s.ResultAvailableDate,
		&s.SolutionAvailable, &s.SolutionAvailableDate,
		&s.KeepEssayAvailable, &s.AllowWritingReview, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// UpdateSettings overwrites the settings of an existing task and refreshes
// s.UpdatedAt. Returns pgx.ErrNoRows when the task does not exist.
func (r *TaskRepository) UpdateSettings(ctx context.Context, s *model.TaskSettings) error {
	return r.pool.QueryRow(ctx,
		`UPDATE tasks SET
		    title = $2, description = $3, closing_message = $4,
		    writing_start = $5, writing_end = $6,
		    correction_start = $7, correction_end = $8,
		    review_enabled = $9, review_start = $10, review_end = $11,
		    review_notification = $12, review_notification_text = $13,
		    result_available_type = $14, result_available_date = $15,
		    solution_available = $16, solution_available_date = $17,
		    keep_essay_available = $18, allow_writing_review = $19,
		    updated_at = NOW()
		 WHERE id = $1
		 RETURNING updated_at`,
		s.TaskID, s.Title, s.Description, s.ClosingMessage,
		s.WritingStart, s.WritingEnd,
		s.CorrectionStart, s.CorrectionEnd,
		s.ReviewEnabled, s.ReviewStart, s.ReviewEnd,
		s.ReviewNotification, s.ReviewNotificationText,
		string(s.ResultAvailableType), s.ResultAvailableDate,
		s.SolutionAvailable, s.SolutionAvailableDate,
		s.KeepEssayAvailable, s.AllowWritingReview,
	).Scan(&s.UpdatedAt)
}

// ListIDs returns the ids of all tasks.
func (r *TaskRepository) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM tasks ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
