package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bookline/bookline-api/internal/domain"
)

type BusinessRepository interface {
	Create(ctx context.Context, ownerID int64, req *domain.BusinessCreateRequest) (*domain.Business, error)
	GetByID(ctx context.Context, id int64) (*domain.Business, error)
	List(ctx context.Context, filter domain.BusinessFilter, limit, offset int) ([]domain.Business, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.Business, error)
	OwnedBusinessIDs(ctx context.Context, ownerID int64) ([]int64, error)
	Update(ctx context.Context, id int64, patch domain.BusinessPatch) (*domain.Business, error)
	Close(ctx context.Context, id int64) (bool, error)
	RefreshRating(ctx context.Context, businessID int64) error

	CreateAddress(ctx context.Context, businessID int64, req *domain.BusinessAddressCreateRequest) (*domain.BusinessAddress, error)
	ListAddresses(ctx context.Context, businessID int64) ([]domain.BusinessAddress, error)
	UpdateAddress(ctx context.Context, businessID, addressID int64, patch domain.BusinessAddressPatch) (*domain.BusinessAddress, error)
	DeleteAddress(ctx context.Context, businessID, addressID int64) (bool, error)

	UpsertHours(ctx context.Context, businessID int64, req *domain.BusinessHoursUpsertRequest) (*domain.BusinessHours, error)
	ListHours(ctx context.Context, businessID int64) ([]domain.BusinessHours, error)
}

type businessRepository struct {
	pool *pgxpool.Pool
}

func NewBusinessRepository(pool *pgxpool.Pool) BusinessRepository {
	return &businessRepository{pool: pool}
}

const businessCols = `id, owner_id, name, business_type, description,
phone, email, website, tax_id, license_number,
rating, total_reviews, status, featured, created_at, updated_at`

func scanBusiness(row pgx.Row) (*domain.Business, error) {
	var b domain.Business
	err := row.Scan(
		&b.ID, &b.OwnerID, &b.Name, &b.Type, &b.Description,
		&b.Phone, &b.Email, &b.Website, &b.TaxID, &b.LicenseNumber,
		&b.Rating, &b.TotalReviews, &b.Status, &b.Featured,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *businessRepository) Create(ctx context.Context, ownerID int64, req *domain.BusinessCreateRequest) (*domain.Business, error) {
	const q = `INSERT INTO businesses (
		owner_id, name, business_type, description,
		phone, email, website, tax_id, license_number,
		rating, total_reviews, status, featured
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,0,0,'pending',false)
	RETURNING ` + businessCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanBusiness(r.pool.QueryRow(ctx, q,
		ownerID, req.Name, req.Type, req.Description,
		req.Phone, req.Email, req.Website, req.TaxID, req.LicenseNumber,
	))
}

func (r *businessRepository) GetByID(ctx context.Context, id int64) (*domain.Business, error) {
	const q = `SELECT ` + businessCols + ` FROM businesses WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanBusiness(r.pool.QueryRow(ctx, q, id))
}

func (r *businessRepository) List(ctx context.Context, filter domain.BusinessFilter, limit, offset int) ([]domain.Business, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	q := `SELECT ` + businessCols + ` FROM businesses WHERE status='active'`
	args := []any{}
	i := 1

	if filter.Search != "" {
		q += fmt.Sprintf(` AND (name ILIKE $%d OR description ILIKE $%d)`, i, i)
		args = append(args, "%"+filter.Search+"%")
		i++
	}
	if filter.Type != "" {
		q += fmt.Sprintf(` AND business_type=$%d`, i)
		args = append(args, filter.Type)
		i++
	}
	if filter.Featured != nil {
		q += fmt.Sprintf(` AND featured=$%d`, i)
		args = append(args, *filter.Featured)
		i++
	}
	if filter.MinRating != nil {
		q += fmt.Sprintf(` AND rating >= $%d`, i)
		args = append(args, *filter.MinRating)
		i++
	}
	q += fmt.Sprintf(` ORDER BY featured DESC, rating DESC, created_at DESC LIMIT $%d OFFSET $%d`, i, i+1)
	args = append(args, limit, offset)

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBusinesses(rows)
}

func collectBusinesses(rows pgx.Rows) ([]domain.Business, error) {
	var businesses []domain.Business
	for rows.Next() {
		var b domain.Business
		if err := rows.Scan(
			&b.ID, &b.OwnerID, &b.Name, &b.Type, &b.Description,
			&b.Phone, &b.Email, &b.Website, &b.TaxID, &b.LicenseNumber,
			&b.Rating, &b.TotalReviews, &b.Status, &b.Featured,
			&b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, err
		}
		businesses = append(businesses, b)
	}
	return businesses, rows.Err()
}

func (r *businessRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Business, error) {
	const q = `SELECT ` + businessCols + ` FROM businesses WHERE owner_id=$1 ORDER BY created_at DESC`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBusinesses(rows)
}

func (r *businessRepository) OwnedBusinessIDs(ctx context.Context, ownerID int64) ([]int64, error) {
	const q = `SELECT id FROM businesses WHERE owner_id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, ownerID)
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

func (r *businessRepository) Update(ctx context.Context, id int64, patch domain.BusinessPatch) (*domain.Business, error) {
	const q = `
		UPDATE businesses
		SET
			name           = COALESCE($2, name),
			business_type  = COALESCE($3, business_type),
			description    = COALESCE($4, description),
			phone          = COALESCE($5, phone),
			email          = COALESCE($6, email),
			website        = COALESCE($7, website),
			tax_id         = COALESCE($8, tax_id),
			license_number = COALESCE($9, license_number),
			status         = COALESCE($10, status),
			featured       = COALESCE($11, featured),
			updated_at     = now()
		WHERE id=$1
		RETURNING ` + businessCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanBusiness(r.pool.QueryRow(ctx, q, id,
		patch.Name, patch.Type, patch.Description,
		patch.Phone, patch.Email, patch.Website,
		patch.TaxID, patch.LicenseNumber,
		patch.Status, patch.Featured,
	))
}

func (r *businessRepository) Close(ctx context.Context, id int64) (bool, error) {
	const q = `UPDATE businesses SET status='closed', updated_at=now() WHERE id=$1 AND status != 'closed'`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	result, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// RefreshRating recomputes the cached rating from approved reviews in one
// statement, so concurrent moderation cannot leave a stale aggregate.
func (r *businessRepository) RefreshRating(ctx context.Context, businessID int64) error {
	const q = `
		UPDATE businesses
		SET
			rating = COALESCE((SELECT AVG(rating)::numeric(3,2) FROM reviews WHERE business_id=$1 AND status='approved'), 0),
			total_reviews = (SELECT COUNT(*) FROM reviews WHERE business_id=$1 AND status='approved'),
			updated_at = now()
		WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.pool.Exec(ctx, q, businessID)
	return err
}

const businessAddressCols = `id, business_id, street_address, city, state, postal_code, country, latitude, longitude, is_primary, created_at`

func scanBusinessAddress(row pgx.Row) (*domain.BusinessAddress, error) {
	var a domain.BusinessAddress
	err := row.Scan(
		&a.ID, &a.BusinessID, &a.StreetAddress, &a.City, &a.State,
		&a.PostalCode, &a.Country, &a.Latitude, &a.Longitude,
		&a.IsPrimary, &a.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *businessRepository) CreateAddress(ctx context.Context, businessID int64, req *domain.BusinessAddressCreateRequest) (*domain.BusinessAddress, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Only one primary address per business.
	if req.IsPrimary {
		if _, err := tx.Exec(ctx, `UPDATE business_addresses SET is_primary=false WHERE business_id=$1`, businessID); err != nil {
			return nil, err
		}
	}

	const q = `INSERT INTO business_addresses (
		business_id, street_address, city, state, postal_code, country, latitude, longitude, is_primary
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	RETURNING ` + businessAddressCols

	a, err := scanBusinessAddress(tx.QueryRow(ctx, q,
		businessID, req.StreetAddress, req.City, req.State,
		req.PostalCode, req.Country, req.Latitude, req.Longitude, req.IsPrimary,
	))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *businessRepository) ListAddresses(ctx context.Context, businessID int64) ([]domain.BusinessAddress, error) {
	const q = `SELECT ` + businessAddressCols + ` FROM business_addresses WHERE business_id=$1 ORDER BY is_primary DESC, created_at DESC`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var addresses []domain.BusinessAddress
	for rows.Next() {
		var a domain.BusinessAddress
		if err := rows.Scan(
			&a.ID, &a.BusinessID, &a.StreetAddress, &a.City, &a.State,
			&a.PostalCode, &a.Country, &a.Latitude, &a.Longitude,
			&a.IsPrimary, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		addresses = append(addresses, a)
	}
	return addresses, rows.Err()
}

func (r *businessRepository) UpdateAddress(ctx context.Context, businessID, addressID int64, patch domain.BusinessAddressPatch) (*domain.BusinessAddress, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if patch.IsPrimary != nil && *patch.IsPrimary {
		if _, err := tx.Exec(ctx, `UPDATE business_addresses SET is_primary=false WHERE business_id=$1 AND id != $2`, businessID, addressID); err != nil {
			return nil, err
		}
	}

	const q = `
		UPDATE business_addresses
		SET
			street_address = COALESCE($3, street_address),
			city           = COALESCE($4, city),
			state          = COALESCE($5, state),
			postal_code    = COALESCE($6, postal_code),
			country        = COALESCE($7, country),
			latitude       = COALESCE($8, latitude),
			longitude      = COALESCE($9, longitude),
			is_primary     = COALESCE($10, is_primary)
		WHERE id=$1 AND business_id=$2
		RETURNING ` + businessAddressCols

	a, err := scanBusinessAddress(tx.QueryRow(ctx, q, addressID, businessID,
		patch.StreetAddress, patch.City, patch.State,
		patch.PostalCode, patch.Country, patch.Latitude, patch.Longitude, patch.IsPrimary,
	))
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, nil
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *businessRepository) DeleteAddress(ctx context.Context, businessID, addressID int64) (bool, error) {
	const q = `DELETE FROM business_addresses WHERE id=$1 AND business_id=$2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	result, err := r.pool.Exec(ctx, q, addressID, businessID)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

const hoursCols = `id, business_id, day_of_week, open_time, close_time, is_open, created_at`

// UpsertHours replaces the schedule for one weekday; there is at most one
// row per (business, day).
func (r *businessRepository) UpsertHours(ctx context.Context, businessID int64, req *domain.BusinessHoursUpsertRequest) (*domain.BusinessHours, error) {
	const q = `
		INSERT INTO business_hours (business_id, day_of_week, open_time, close_time, is_open)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (business_id, day_of_week) DO UPDATE
		SET open_time=EXCLUDED.open_time, close_time=EXCLUDED.close_time, is_open=EXCLUDED.is_open
		RETURNING ` + hoursCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var h domain.BusinessHours
	err := r.pool.QueryRow(ctx, q, businessID, req.DayOfWeek, req.OpenTime, req.CloseTime, req.IsOpen).Scan(
		&h.ID, &h.BusinessID, &h.DayOfWeek, &h.OpenTime, &h.CloseTime, &h.IsOpen, &h.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *businessRepository) ListHours(ctx context.Context, businessID int64) ([]domain.BusinessHours, error) {
	const q = `SELECT ` + hoursCols + ` FROM business_hours WHERE business_id=$1 ORDER BY
		CASE day_of_week
			WHEN 'monday' THEN 1 WHEN 'tuesday' THEN 2 WHEN 'wednesday' THEN 3
			WHEN 'thursday' THEN 4 WHEN 'friday' THEN 5 WHEN 'saturday' THEN 6
			ELSE 7
		END`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hours []domain.BusinessHours
	for rows.Next() {
		var h domain.BusinessHours
		if err := rows.Scan(&h.ID, &h.BusinessID, &h.DayOfWeek, &h.OpenTime, &h.CloseTime, &h.IsOpen, &h.CreatedAt); err != nil {
			return nil, err
		}
		hours = append(hours, h)
	}
	return hours, rows.Err()
}
