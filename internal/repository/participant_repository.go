package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-essay/internal/model"
)

// ParticipantRepository handles participant data access.
type ParticipantRepository struct {
	pool *pgxpool.Pool
}

// NewParticipantRepository creates a new ParticipantRepository.
func NewParticipantRepository(pool *pgxpool.Pool) *ParticipantRepository {
	return &ParticipantRepository{pool: pool}
}

// GetByLogin retrieves a participant by login name.
func (r *ParticipantRepository) GetByLogin(ctx context.Context, login string) (*model.Participant, error) {
	p := &model.Participant{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, login, firstname, lastname, matriculation, password_hash, created_at
		 FROM participants WHERE login = $1`, login,
	).Scan(&p.ID, &p.Login, &p.Firstname, &p.Lastname, &p.Matriculation, &p.PasswordHash, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListByIDs retrieves participants for the given ids, ordered by lastname, firstname.
func (r *ParticipantRepository) ListByIDs(ctx context.Context, ids []int64) ([]model.Participant, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, login, firstname, lastname, matriculation, created_at
		 FROM participants WHERE id = ANY($1)
		 ORDER BY lastname, firstname, id`, ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Participant
	for rows.Next() {
		var p model.Participant
		if err := rows.Scan(&p.ID, &p.Login, &p.Firstname, &p.Lastname, &p.Matriculation, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
