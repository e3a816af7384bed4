package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bookline/bookline-api/internal/domain"
)

type CategoryRepository interface {
	Create(ctx context.Context, req *domain.CategoryCreateRequest) (*domain.Category, error)
	GetByID(ctx context.Context, id int64) (*domain.Category, error)
	List(ctx context.Context, parentID *int64, activeOnly bool) ([]domain.Category, error)
	Update(ctx context.Context, id int64, patch domain.CategoryPatch) (*domain.Category, error)
	Deactivate(ctx context.Context, id int64) (bool, error)
	IsAncestor(ctx context.Context, candidateID, ofID int64) (bool, error)
}

type categoryRepository struct {
	pool *pgxpool.Pool
}

func NewCategoryRepository(pool *pgxpool.Pool) CategoryRepository {
	return &categoryRepository{pool: pool}
}

const categoryCols = `id, name, parent_id, description, image_url, is_active, sort_order, created_at`

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var c domain.Category
	err := row.Scan(&c.ID, &c.Name, &c.ParentID, &c.Description, &c.ImageURL, &c.IsActive, &c.SortOrder, &c.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *categoryRepository) Create(ctx context.Context, req *domain.CategoryCreateRequest) (*domain.Category, error) {
	const q = `INSERT INTO categories (name, parent_id, description, image_url, is_active, sort_order)
		VALUES ($1,$2,$3,$4,true,$5)
		RETURNING ` + categoryCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanCategory(r.pool.QueryRow(ctx, q, req.Name, req.ParentID, req.Description, req.ImageURL, req.SortOrder))
}

func (r *categoryRepository) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	const q = `SELECT ` + categoryCols + ` FROM categories WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanCategory(r.pool.QueryRow(ctx, q, id))
}

func (r *categoryRepository) List(ctx context.Context, parentID *int64, activeOnly bool) ([]domain.Category, error) {
	q := `SELECT ` + categoryCols + ` FROM categories WHERE 1=1`
	args := []any{}
	if parentID != nil {
		q += ` AND parent_id=$1`
		args = append(args, *parentID)
	}
	if activeOnly {
		q += ` AND is_active=true`
	}
	q += ` ORDER BY sort_order, name`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.ParentID, &c.Description, &c.ImageURL, &c.IsActive, &c.SortOrder, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *categoryRepository) Update(ctx context.Context, id int64, patch domain.CategoryPatch) (*domain.Category, error) {
	const q = `
		UPDATE categories
		SET
			name        = COALESCE($2, name),
			parent_id   = COALESCE($3, parent_id),
			description = COALESCE($4, description),
			image_url   = COALESCE($5, image_url),
			is_active   = COALESCE($6, is_active),
			sort_order  = COALESCE($7, sort_order)
		WHERE id=$1
		RETURNING ` + categoryCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanCategory(r.pool.QueryRow(ctx, q, id,
		patch.Name, patch.ParentID, patch.Description,
		patch.ImageURL, patch.IsActive, patch.SortOrder,
	))
}

func (r *categoryRepository) Deactivate(ctx context.Context, id int64) (bool, error) {
	const q = `UPDATE categories SET is_active=false WHERE id=$1 AND is_active=true`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	result, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// IsAncestor walks the parent chain of ofID and reports whether candidateID
// appears in it. Used to reject reparenting that would create a cycle.
func (r *categoryRepository) IsAncestor(ctx context.Context, candidateID, ofID int64) (bool, error) {
	const q = `
		WITH RECURSIVE ancestors AS (
			SELECT id, parent_id FROM categories WHERE id=$1
			UNION ALL
			SELECT c.id, c.parent_id FROM categories c
			JOIN ancestors a ON c.id = a.parent_id
		)
		SELECT EXISTS (SELECT 1 FROM ancestors WHERE id=$2)`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var found bool
	if err := r.pool.QueryRow(ctx, q, ofID, candidateID).Scan(&found); err != nil {
		return false, err
	}
	return found, nil
}
