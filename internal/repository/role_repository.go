package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RoleRepository handles role and permission data access.
type RoleRepository struct {
	pool *pgxpool.Pool
}

// NewRoleRepository creates a new RoleRepository.
func NewRoleRepository(pool *pgxpool.Pool) *RoleRepository {
	return &RoleRepository{pool: pool}
}

// GetPermissionsByRoleID retrieves all permission codes for a given role.
func (r *RoleRepository) GetPermissionsByRoleID(ctx context.Context, roleID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.code
		 FROM permissions p
		 JOIN role_permissions rp ON p.id = rp.permission_id
		 WHERE rp.role_id = $1
		 ORDER BY p.code`, roleID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var permissions []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		permissions = append(permissions, code)
	}
	return permissions, rows.Err()
}

// EnsureRole returns the id of the named role, creating it when missing, and
// grants it every permission in codes that it does not hold yet.
func (r *RoleRepository) EnsureRole(ctx context.Context, name string, codes []string) (int64, error) {
	var roleID int64
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx,
			`INSERT INTO roles (name) VALUES ($1)
			 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			 RETURNING id`, name,
		).Scan(&roleID); err != nil {
			return fmt.Errorf("upsert role: %w", err)
		}

		if len(codes) == 0 {
			return nil
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO permissions (code) SELECT unnest($1::text[])
			 ON CONFLICT (code) DO NOTHING`, codes,
		); err != nil {
			return fmt.Errorf("upsert permissions: %w", err)
		}

		rows, err := tx.Query(ctx,
			`SELECT p.id FROM permissions p
			 WHERE p.code = ANY($1)
			   AND NOT EXISTS (
			     SELECT 1 FROM role_permissions rp
			     WHERE rp.role_id = $2 AND rp.permission_id = p.id)`,
			codes, roleID,
		)
		if err != nil {
			return fmt.Errorf("find missing permissions: %w", err)
		}
		missing, err := pgx.CollectRows(rows, pgx.RowTo[int64])
		if err != nil {
			return fmt.Errorf("scan missing permissions: %w", err)
		}
		if len(missing) == 0 {
			return nil
		}

		_, err = tx.CopyFrom(
			ctx,
			pgx.Identifier{"role_permissions"},
			[]string{"role_id", "permission_id"},
			pgx.CopyFromSlice(len(missing), func(i int) ([]any, error) {
				return []any{roleID, missing[i]}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("grant permissions: %w", err)
		}
		return nil
	})
	return roleID, err
}
