package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-essay/internal/model"
)

// EssayRepository handles essay correction state.
type EssayRepository struct {
	pool *pgxpool.Pool
}

// NewEssayRepository creates a new EssayRepository.
func NewEssayRepository(pool *pgxpool.Pool) *EssayRepository {
	return &EssayRepository{pool: pool}
}

const essayColumns = `id, writer_id, task_id, points, finalized, attended, writing_authorized, writing_excluded, grade_level_id`

func scanEssay(row interface{ Scan(dest ...any) error }, e *model.Essay) error {
	return row.Scan(&e.ID, &e.WriterID, &e.TaskID, &e.Points, &e.Finalized, &e.Attended,
		&e.WritingAuthorized, &e.WritingExcluded, &e.GradeLevelID)
}

// GetByWriter returns the essay of a writer. Returns pgx.ErrNoRows before the
// writer first opened the editor.
func (r *EssayRepository) GetByWriter(ctx context.Context, writerID int64) (*model.Essay, error) {
	e := &model.Essay{}
	if err := scanEssay(r.pool.QueryRow(ctx,
		`SELECT `+essayColumns+` FROM essays WHERE writer_id = $1`, writerID), e); err != nil {
		return nil, err
	}
	return e, nil
}

// ListByTasks returns every essay of the tasks.
func (r *EssayRepository) ListByTasks(ctx context.Context, taskIDs []int64) ([]model.Essay, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+essayColumns+` FROM essays WHERE task_id = ANY($1) ORDER BY task_id, id`, taskIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var essays []model.Essay
	for rows.Next() {
		var e model.Essay
		if err := scanEssay(rows, &e); err != nil {
			return nil, err
		}
		essays = append(essays, e)
	}
	return essays, rows.Err()
}

// FinalizedExists reports whether any correction of the task is finalized.
func (r *EssayRepository) FinalizedExists(ctx context.Context, taskID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM essays WHERE task_id = $1 AND finalized)`, taskID,
	).Scan(&exists)
	return exists, err
}

// UpdateGradeLevels stores the resolved grade level of many essays at once.
// A nil level clears the stored grade.
func (r *EssayRepository) UpdateGradeLevels(ctx context.Context, essayIDs []int64, levelIDs []*int64) error {
	if len(essayIDs) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE essays AS e
		SET grade_level_id = t.level_id
		FROM (
			SELECT u.essay_id, u.level_id
			FROM UNNEST($1::bigint[], $2::bigint[]) AS u (essay_id, level_id)
		) AS t
		WHERE e.id = t.essay_id
	`, essayIDs, levelIDs)
	return err
}
