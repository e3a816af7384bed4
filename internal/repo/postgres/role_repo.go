package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bookline/bookline-api/internal/domain"
)

type RoleRepository interface {
	GetByName(ctx context.Context, name string) (*domain.Role, error)
	ListForUser(ctx context.Context, userID int64) ([]string, error)
	Assign(ctx context.Context, userID, roleID int64) error
	AssignByName(ctx context.Context, userID int64, roleName string) error
	Revoke(ctx context.Context, userID, roleID int64) (bool, error)
}

type roleRepository struct {
	pool *pgxpool.Pool
}

func NewRoleRepository(pool *pgxpool.Pool) RoleRepository {
	return &roleRepository{pool: pool}
}

func (r *roleRepository) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	const q = `SELECT id, name, description, created_at FROM roles WHERE name=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var role domain.Role
	err := r.pool.QueryRow(ctx, q, name).Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) ListForUser(ctx context.Context, userID int64) ([]string, error) {
	const q = `
		SELECT r.name FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.name`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *roleRepository) Assign(ctx context.Context, userID, roleID int64) error {
	const q = `INSERT INTO user_roles (user_id, role_id) VALUES ($1,$2) ON CONFLICT DO NOTHING`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.pool.Exec(ctx, q, userID, roleID)
	return err
}

func (r *roleRepository) AssignByName(ctx context.Context, userID int64, roleName string) error {
	const q = `
		INSERT INTO user_roles (user_id, role_id)
		SELECT $1, id FROM roles WHERE name=$2
		ON CONFLICT DO NOTHING`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.pool.Exec(ctx, q, userID, roleName)
	return err
}

func (r *roleRepository) Revoke(ctx context.Context, userID, roleID int64) (bool, error) {
	const q = `DELETE FROM user_roles WHERE user_id=$1 AND role_id=$2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	result, err := r.pool.Exec(ctx, q, userID, roleID)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}
