package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-essay/internal/model"
)

var (
	ErrGradeLevelsLocked  = errors.New("grade levels are locked by an authorized correction")
	ErrDuplicateThreshold = errors.New("a grade level with these minimum points already exists")
)

// GradeLevelRepository handles grade level data access. Mutations lock the
// owning task row so concurrent edits of one ladder are serialized, and are
// refused once a finalized essay exists for the task.
type GradeLevelRepository struct {
	pool *pgxpool.Pool
}

// NewGradeLevelRepository creates a new GradeLevelRepository.
func NewGradeLevelRepository(pool *pgxpool.Pool) *GradeLevelRepository {
	return &GradeLevelRepository{pool: pool}
}

// ListByObjects returns the grade levels of all given objects in one snapshot.
func (r *GradeLevelRepository) ListByObjects(ctx context.Context, objectIDs []int64) ([]model.GradeLevel, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, object_id, grade, min_points, passed, code
		 FROM grade_levels WHERE object_id = ANY($1)
		 ORDER BY object_id, min_points DESC, id`, objectIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var levels []model.GradeLevel
	for rows.Next() {
		var l model.GradeLevel
		if err := rows.Scan(&l.ID, &l.ObjectID, &l.Grade, &l.MinPoints, &l.Passed, &l.Code); err != nil {
			return nil, err
		}
		levels = append(levels, l)
	}
	return levels, rows.Err()
}

// Create inserts a grade level.
func (r *GradeLevelRepository) Create(ctx context.Context, l *model.GradeLevel) error {
	return r.mutate(ctx, l.ObjectID, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx,
			`INSERT INTO grade_levels (object_id, grade, min_points, passed, code)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id`,
			l.ObjectID, l.Grade, l.MinPoints, l.Passed, l.Code,
		).Scan(&l.ID)
	})
}

// Update modifies a grade level of the object. Returns pgx.ErrNoRows when it
// does not belong to the object.
func (r *GradeLevelRepository) Update(ctx context.Context, l *model.GradeLevel) error {
	return r.mutate(ctx, l.ObjectID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE grade_levels SET grade = $3, min_points = $4, passed = $5, code = $6
			 WHERE id = $1 AND object_id = $2`,
			l.ID, l.ObjectID, l.Grade, l.MinPoints, l.Passed, l.Code,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
}

// Delete removes a grade level of the object.
func (r *GradeLevelRepository) Delete(ctx context.Context, objectID, id int64) error {
	return r.mutate(ctx, objectID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM grade_levels WHERE id = $1 AND object_id = $2`, id, objectID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
}

func (r *GradeLevelRepository) mutate(ctx context.Context, objectID int64, fn func(tx pgx.Tx) error) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var locked bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM essays WHERE task_id = t.id AND finalized)
			 FROM tasks t WHERE t.id = $1
			 FOR UPDATE`, objectID,
		).Scan(&locked)
		if err != nil {
			return err
		}
		if locked {
			return ErrGradeLevelsLocked
		}
		return fn(tx)
	})

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateThreshold
	}
	return err
}
