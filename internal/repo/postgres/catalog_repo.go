package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bookline/bookline-api/internal/domain"
)

type CatalogRepository interface {
	CreateService(ctx context.Context, req *domain.ServiceCreateRequest) (*domain.Service, error)
	GetService(ctx context.Context, id int64) (*domain.Service, error)
	ListServices(ctx context.Context, filter domain.ServiceFilter, limit, offset int) ([]domain.Service, error)
	UpdateService(ctx context.Context, id int64, patch domain.ServicePatch) (*domain.Service, error)
	DeactivateService(ctx context.Context, id int64) (bool, error)

	CreatePricing(ctx context.Context, req *domain.PricingCreateRequest) (*domain.ServicePricing, error)
	ListPricing(ctx context.Context, serviceID int64) ([]domain.ServicePricing, error)
	UpdatePricing(ctx context.Context, serviceID, pricingID int64, patch domain.PricingPatch) (*domain.ServicePricing, error)
	DeletePricing(ctx context.Context, serviceID, pricingID int64) (bool, error)

	CreateResource(ctx context.Context, req *domain.ResourceCreateRequest) (*domain.Resource, error)
	GetResource(ctx context.Context, id int64) (*domain.Resource, error)
	ListResources(ctx context.Context, filter domain.ResourceFilter, limit, offset int) ([]domain.Resource, error)
	UpdateResource(ctx context.Context, id int64, patch domain.ResourcePatch) (*domain.Resource, error)
	DeactivateResource(ctx context.Context, id int64) (bool, error)
}

type catalogRepository struct {
	pool *pgxpool.Pool
}

func NewCatalogRepository(pool *pgxpool.Pool) CatalogRepository {
	return &catalogRepository{pool: pool}
}

const serviceCols = `id, business_id, category_id, name, description,
duration_minutes, base_price, max_capacity,
advance_booking_hours, cancellation_hours,
image_url, is_active, requires_approval, created_at, updated_at`

func scanService(row pgx.Row) (*domain.Service, error) {
	var s domain.Service
	err := row.Scan(
		&s.ID, &s.BusinessID, &s.CategoryID, &s.Name, &s.Description,
		&s.DurationMinutes, &s.BasePrice, &s.MaxCapacity,
		&s.AdvanceBookingHours, &s.CancellationHours,
		&s.ImageURL, &s.IsActive, &s.RequiresApproval,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *catalogRepository) CreateService(ctx context.Context, req *domain.ServiceCreateRequest) (*domain.Service, error) {
	const q = `INSERT INTO services (
		business_id, category_id, name, description,
		duration_minutes, base_price, max_capacity,
		advance_booking_hours, cancellation_hours,
		image_url, is_active, requires_approval
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,true,$11)
	RETURNING ` + serviceCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanService(r.pool.QueryRow(ctx, q,
		req.BusinessID, req.CategoryID, req.Name, req.Description,
		req.DurationMinutes, req.BasePrice, req.MaxCapacity,
		req.AdvanceBookingHours, req.CancellationHours,
		req.ImageURL, req.RequiresApproval,
	))
}

func (r *catalogRepository) GetService(ctx context.Context, id int64) (*domain.Service, error) {
	const q = `SELECT ` + serviceCols + ` FROM services WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanService(r.pool.QueryRow(ctx, q, id))
}

func (r *catalogRepository) ListServices(ctx context.Context, filter domain.ServiceFilter, limit, offset int) ([]domain.Service, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	q := `SELECT ` + serviceCols + ` FROM services WHERE 1=1`
	args := []any{}
	i := 1

	if filter.BusinessID != nil {
		q += fmt.Sprintf(` AND business_id=$%d`, i)
		args = append(args, *filter.BusinessID)
		i++
	}
	if filter.CategoryID != nil {
		q += fmt.Sprintf(` AND category_id=$%d`, i)
		args = append(args, *filter.CategoryID)
		i++
	}
	if filter.Search != "" {
		q += fmt.Sprintf(` AND (name ILIKE $%d OR description ILIKE $%d)`, i, i)
		args = append(args, "%"+filter.Search+"%")
		i++
	}
	if filter.MinPrice != nil {
		q += fmt.Sprintf(` AND base_price >= $%d`, i)
		args = append(args, *filter.MinPrice)
		i++
	}
	if filter.MaxPrice != nil {
		q += fmt.Sprintf(` AND base_price <= $%d`, i)
		args = append(args, *filter.MaxPrice)
		i++
	}
	if filter.ActiveOnly {
		q += ` AND is_active=true`
	}
	q += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, i, i+1)
	args = append(args, limit, offset)

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []domain.Service
	for rows.Next() {
		var s domain.Service
		if err := rows.Scan(
			&s.ID, &s.BusinessID, &s.CategoryID, &s.Name, &s.Description,
			&s.DurationMinutes, &s.BasePrice, &s.MaxCapacity,
			&s.AdvanceBookingHours, &s.CancellationHours,
			&s.ImageURL, &s.IsActive, &s.RequiresApproval,
			&s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

func (r *catalogRepository) UpdateService(ctx context.Context, id int64, patch domain.ServicePatch) (*domain.Service, error) {
	const q = `
		UPDATE services
		SET
			category_id           = COALESCE($2, category_id),
			name                  = COALESCE($3, name),
			description           = COALESCE($4, description),
			duration_minutes      = COALESCE($5, duration_minutes),
			base_price            = COALESCE($6, base_price),
			max_capacity          = COALESCE($7, max_capacity),
			advance_booking_hours = COALESCE($8, advance_booking_hours),
			cancellation_hours    = COALESCE($9, cancellation_hours),
			image_url             = COALESCE($10, image_url),
			is_active             = COALESCE($11, is_active),
			requires_approval     = COALESCE($12, requires_approval),
			updated_at            = now()
		WHERE id=$1
		RETURNING ` + serviceCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanService(r.pool.QueryRow(ctx, q, id,
		patch.CategoryID, patch.Name, patch.Description,
		patch.DurationMinutes, patch.BasePrice, patch.MaxCapacity,
		patch.AdvanceBookingHours, patch.CancellationHours,
		patch.ImageURL, patch.IsActive, patch.RequiresApproval,
	))
}

func (r *catalogRepository) DeactivateService(ctx context.Context, id int64) (bool, error) {
	const q = `UPDATE services SET is_active=false, updated_at=now() WHERE id=$1 AND is_active=true`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	result, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

const pricingCols = `id, service_id, name, price, duration_minutes, max_participants, description, is_default, created_at`

func scanPricing(row pgx.Row) (*domain.ServicePricing, error) {
	var p domain.ServicePricing
	err := row.Scan(&p.ID, &p.ServiceID, &p.Name, &p.Price, &p.DurationMinutes, &p.MaxParticipants, &p.Description, &p.IsDefault, &p.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *catalogRepository) CreatePricing(ctx context.Context, req *domain.PricingCreateRequest) (*domain.ServicePricing, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Only one default tier per service.
	if req.IsDefault {
		if _, err := tx.Exec(ctx, `UPDATE service_pricing SET is_default=false WHERE service_id=$1`, req.ServiceID); err != nil {
			return nil, err
		}
	}

	const q = `INSERT INTO service_pricing (service_id, name, price, duration_minutes, max_participants, description, is_default)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING ` + pricingCols

	p, err := scanPricing(tx.QueryRow(ctx, q,
		req.ServiceID, req.Name, req.Price, req.DurationMinutes,
		req.MaxParticipants, req.Description, req.IsDefault,
	))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *catalogRepository) ListPricing(ctx context.Context, serviceID int64) ([]domain.ServicePricing, error) {
	const q = `SELECT ` + pricingCols + ` FROM service_pricing WHERE service_id=$1 ORDER BY is_default DESC, price`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, serviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tiers []domain.ServicePricing
	for rows.Next() {
		var p domain.ServicePricing
		if err := rows.Scan(&p.ID, &p.ServiceID, &p.Name, &p.Price, &p.DurationMinutes, &p.MaxParticipants, &p.Description, &p.IsDefault, &p.CreatedAt); err != nil {
			return nil, err
		}
		tiers = append(tiers, p)
	}
	return tiers, rows.Err()
}

func (r *catalogRepository) UpdatePricing(ctx context.Context, serviceID, pricingID int64, patch domain.PricingPatch) (*domain.ServicePricing, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if patch.IsDefault != nil && *patch.IsDefault {
		if _, err := tx.Exec(ctx, `UPDATE service_pricing SET is_default=false WHERE service_id=$1 AND id != $2`, serviceID, pricingID); err != nil {
			return nil, err
		}
	}

	const q = `
		UPDATE service_pricing
		SET
			name             = COALESCE($3, name),
			price            = COALESCE($4, price),
			duration_minutes = COALESCE($5, duration_minutes),
			max_participants = COALESCE($6, max_participants),
			description      = COALESCE($7, description),
			is_default       = COALESCE($8, is_default)
		WHERE id=$1 AND service_id=$2
		RETURNING ` + pricingCols

	p, err := scanPricing(tx.QueryRow(ctx, q, pricingID, serviceID,
		patch.Name, patch.Price, patch.DurationMinutes,
		patch.MaxParticipants, patch.Description, patch.IsDefault,
	))
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, nil
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *catalogRepository) DeletePricing(ctx context.Context, serviceID, pricingID int64) (bool, error) {
	const q = `DELETE FROM service_pricing WHERE id=$1 AND service_id=$2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	result, err := r.pool.Exec(ctx, q, pricingID, serviceID)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

const resourceCols = `id, business_id, name, resource_type, capacity, description, hourly_rate, daily_rate, is_active, created_at, updated_at`

func scanResource(row pgx.Row) (*domain.Resource, error) {
	var res domain.Resource
	err := row.Scan(
		&res.ID, &res.BusinessID, &res.Name, &res.Type, &res.Capacity,
		&res.Description, &res.HourlyRate, &res.DailyRate,
		&res.IsActive, &res.CreatedAt, &res.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *catalogRepository) CreateResource(ctx context.Context, req *domain.ResourceCreateRequest) (*domain.Resource, error) {
	const q = `INSERT INTO resources (business_id, name, resource_type, capacity, description, hourly_rate, daily_rate, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,true)
		RETURNING ` + resourceCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanResource(r.pool.QueryRow(ctx, q,
		req.BusinessID, req.Name, req.Type, req.Capacity,
		req.Description, req.HourlyRate, req.DailyRate,
	))
}

func (r *catalogRepository) GetResource(ctx context.Context, id int64) (*domain.Resource, error) {
	const q = `SELECT ` + resourceCols + ` FROM resources WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanResource(r.pool.QueryRow(ctx, q, id))
}

func (r *catalogRepository) ListResources(ctx context.Context, filter domain.ResourceFilter, limit, offset int) ([]domain.Resource, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	q := `SELECT ` + resourceCols + ` FROM resources WHERE 1=1`
	args := []any{}
	i := 1

	if filter.BusinessID != nil {
		q += fmt.Sprintf(` AND business_id=$%d`, i)
		args = append(args, *filter.BusinessID)
		i++
	}
	if filter.Type != "" {
		q += fmt.Sprintf(` AND resource_type=$%d`, i)
		args = append(args, filter.Type)
		i++
	}
	if filter.ActiveOnly {
		q += ` AND is_active=true`
	}
	q += fmt.Sprintf(` ORDER BY name LIMIT $%d OFFSET $%d`, i, i+1)
	args = append(args, limit, offset)

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var resources []domain.Resource
	for rows.Next() {
		var res domain.Resource
		if err := rows.Scan(
			&res.ID, &res.BusinessID, &res.Name, &res.Type, &res.Capacity,
			&res.Description, &res.HourlyRate, &res.DailyRate,
			&res.IsActive, &res.CreatedAt, &res.UpdatedAt,
		); err != nil {
			return nil, err
		}
		resources = append(resources, res)
	}
	return resources, rows.Err()
}

func (r *catalogRepository) UpdateResource(ctx context.Context, id int64, patch domain.ResourcePatch) (*domain.Resource, error) {
	const q = `
		UPDATE resources
		SET
			name          = COALESCE($2, name),
			resource_type = COALESCE($3, resource_type),
			capacity      = COALESCE($4, capacity),
			description   = COALESCE($5, description),
			hourly_rate   = COALESCE($6, hourly_rate),
			daily_rate    = COALESCE($7, daily_rate),
			is_active     = COALESCE($8, is_active),
			updated_at    = now()
		WHERE id=$1
		RETURNING ` + resourceCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanResource(r.pool.QueryRow(ctx, q, id,
		patch.Name, patch.Type, patch.Capacity,
		patch.Description, patch.HourlyRate, patch.DailyRate, patch.IsActive,
	))
}

func (r *catalogRepository) DeactivateResource(ctx context.Context, id int64) (bool, error) {
	const q = `UPDATE resources SET is_active=false, updated_at=now() WHERE id=$1 AND is_active=true`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	result, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}
