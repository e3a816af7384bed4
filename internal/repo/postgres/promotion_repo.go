package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bookline/bookline-api/internal/domain"
)

type PromotionRepository interface {
	Create(ctx context.Context, createdBy int64, req *domain.PromotionCreateRequest) (*domain.Promotion, error)
	GetByID(ctx context.Context, id int64) (*domain.Promotion, error)
	GetByCode(ctx context.Context, code string) (*domain.Promotion, error)
	List(ctx context.Context, businessID *int64, status domain.PromotionStatus, limit, offset int) ([]domain.Promotion, error)
	Update(ctx context.Context, id int64, patch domain.PromotionPatch) (*domain.Promotion, error)
	Deactivate(ctx context.Context, id int64) (bool, error)

	ClaimUsage(ctx context.Context, promotionID int64) (bool, error)
	ReleaseUsage(ctx context.Context, promotionID int64) error
	CountUserUsage(ctx context.Context, promotionID, userID int64) (int, error)
	HasUsageForBooking(ctx context.Context, bookingID int64) (bool, error)
	RecordUsage(ctx context.Context, u *domain.PromotionUsage) (*domain.PromotionUsage, error)
	ListUsage(ctx context.Context, promotionID int64, limit, offset int) ([]domain.PromotionUsage, error)
}

type promotionRepository struct {
	pool *pgxpool.Pool
}

func NewPromotionRepository(pool *pgxpool.Pool) PromotionRepository {
	return &promotionRepository{pool: pool}
}

const promotionCols = `id, business_id, code, title, description,
discount_type, discount_value, minimum_amount, maximum_discount,
usage_limit, usage_count, per_user_limit,
valid_from, valid_until, status, created_by, created_at, updated_at`

func scanPromotion(row pgx.Row) (*domain.Promotion, error) {
	var p domain.Promotion
	err := row.Scan(
		&p.ID, &p.BusinessID, &p.Code, &p.Title, &p.Description,
		&p.DiscountType, &p.DiscountValue, &p.MinimumAmount, &p.MaximumDiscount,
		&p.UsageLimit, &p.UsageCount, &p.PerUserLimit,
		&p.ValidFrom, &p.ValidUntil, &p.Status, &p.CreatedBy,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *promotionRepository) Create(ctx context.Context, createdBy int64, req *domain.PromotionCreateRequest) (*domain.Promotion, error) {
	const q = `INSERT INTO promotions (
		business_id, code, title, description,
		discount_type, discount_value, minimum_amount, maximum_discount,
		usage_limit, usage_count, per_user_limit,
		valid_from, valid_until, status, created_by
	) VALUES ($1,upper($2),$3,$4,$5,$6,$7,$8,$9,0,$10,$11,$12,'active',$13)
	RETURNING ` + promotionCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanPromotion(r.pool.QueryRow(ctx, q,
		req.BusinessID, req.Code, req.Title, req.Description,
		req.DiscountType, req.DiscountValue, req.MinimumAmount, req.MaximumDiscount,
		req.UsageLimit, req.PerUserLimit,
		req.ValidFrom, req.ValidUntil, createdBy,
	))
}

func (r *promotionRepository) GetByID(ctx context.Context, id int64) (*domain.Promotion, error) {
	const q = `SELECT ` + promotionCols + ` FROM promotions WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanPromotion(r.pool.QueryRow(ctx, q, id))
}

func (r *promotionRepository) GetByCode(ctx context.Context, code string) (*domain.Promotion, error) {
	const q = `SELECT ` + promotionCols + ` FROM promotions WHERE code=upper($1)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanPromotion(r.pool.QueryRow(ctx, q, code))
}

func (r *promotionRepository) List(ctx context.Context, businessID *int64, status domain.PromotionStatus, limit, offset int) ([]domain.Promotion, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	q := `SELECT ` + promotionCols + ` FROM promotions WHERE 1=1`
	args := []any{}
	i := 1
	if businessID != nil {
		q += ` AND (business_id=$1 OR business_id IS NULL)`
		args = append(args, *businessID)
		i++
	}
	if status != "" {
		q += fmt.Sprintf(` AND status=$%d`, i)
		args = append(args, status)
		i++
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

	var promotions []domain.Promotion
	for rows.Next() {
		var p domain.Promotion
		if err := rows.Scan(
			&p.ID, &p.BusinessID, &p.Code, &p.Title, &p.Description,
			&p.DiscountType, &p.DiscountValue, &p.MinimumAmount, &p.MaximumDiscount,
			&p.UsageLimit, &p.UsageCount, &p.PerUserLimit,
			&p.ValidFrom, &p.ValidUntil, &p.Status, &p.CreatedBy,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		promotions = append(promotions, p)
	}
	return promotions, rows.Err()
}

func (r *promotionRepository) Update(ctx context.Context, id int64, patch domain.PromotionPatch) (*domain.Promotion, error) {
	const q = `
		UPDATE promotions
		SET
			title            = COALESCE($2, title),
			description      = COALESCE($3, description),
			discount_value   = COALESCE($4, discount_value),
			minimum_amount   = COALESCE($5, minimum_amount),
			maximum_discount = COALESCE($6, maximum_discount),
			usage_limit      = COALESCE($7, usage_limit),
			per_user_limit   = COALESCE($8, per_user_limit),
			valid_from       = COALESCE($9, valid_from),
			valid_until      = COALESCE($10, valid_until),
			status           = COALESCE($11, status),
			updated_at       = now()
		WHERE id=$1
		RETURNING ` + promotionCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanPromotion(r.pool.QueryRow(ctx, q, id,
		patch.Title, patch.Description, patch.DiscountValue,
		patch.MinimumAmount, patch.MaximumDiscount,
		patch.UsageLimit, patch.PerUserLimit,
		patch.ValidFrom, patch.ValidUntil, patch.Status,
	))
}

func (r *promotionRepository) Deactivate(ctx context.Context, id int64) (bool, error) {
	const q = `UPDATE promotions SET status='inactive', updated_at=now() WHERE id=$1 AND status='active'`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	result, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// ClaimUsage bumps usage_count only while it is still under the limit, in a
// single conditional update, so racing applications cannot push the count
// past usage_limit. Returns false when the limit is exhausted.
func (r *promotionRepository) ClaimUsage(ctx context.Context, promotionID int64) (bool, error) {
	const q = `
		UPDATE promotions
		SET usage_count = usage_count + 1, updated_at = now()
		WHERE id=$1
		  AND status='active'
		  AND (usage_limit IS NULL OR usage_count < usage_limit)`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, promotionID)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// ReleaseUsage undoes a claim when the surrounding operation fails.
func (r *promotionRepository) ReleaseUsage(ctx context.Context, promotionID int64) error {
	const q = `UPDATE promotions SET usage_count = GREATEST(usage_count - 1, 0), updated_at = now() WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.pool.Exec(ctx, q, promotionID)
	return err
}

func (r *promotionRepository) CountUserUsage(ctx context.Context, promotionID, userID int64) (int, error) {
	const q = `SELECT COUNT(*) FROM promotion_usage WHERE promotion_id=$1 AND user_id=$2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var count int
	if err := r.pool.QueryRow(ctx, q, promotionID, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *promotionRepository) HasUsageForBooking(ctx context.Context, bookingID int64) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM promotion_usage WHERE booking_id=$1)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var exists bool
	if err := r.pool.QueryRow(ctx, q, bookingID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *promotionRepository) RecordUsage(ctx context.Context, u *domain.PromotionUsage) (*domain.PromotionUsage, error) {
	const q = `INSERT INTO promotion_usage (promotion_id, user_id, booking_id, discount_amount)
		VALUES ($1,$2,$3,$4)
		RETURNING id, promotion_id, user_id, booking_id, discount_amount, used_at`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var usage domain.PromotionUsage
	err := r.pool.QueryRow(ctx, q, u.PromotionID, u.UserID, u.BookingID, u.DiscountAmount).Scan(
		&usage.ID, &usage.PromotionID, &usage.UserID, &usage.BookingID, &usage.DiscountAmount, &usage.UsedAt,
	)
	if err != nil {
		return nil, err
	}
	return &usage, nil
}

func (r *promotionRepository) ListUsage(ctx context.Context, promotionID int64, limit, offset int) ([]domain.PromotionUsage, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	const q = `SELECT id, promotion_id, user_id, booking_id, discount_amount, used_at
		FROM promotion_usage WHERE promotion_id=$1 ORDER BY used_at DESC LIMIT $2 OFFSET $3`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, promotionID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var usages []domain.PromotionUsage
	for rows.Next() {
		var u domain.PromotionUsage
		if err := rows.Scan(&u.ID, &u.PromotionID, &u.UserID, &u.BookingID, &u.DiscountAmount, &u.UsedAt); err != nil {
			return nil, err
		}
		usages = append(usages, u)
	}
	return usages, rows.Err()
}
