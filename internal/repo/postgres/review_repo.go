package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bookline/bookline-api/internal/domain"
)

type ReviewRepository interface {
	Create(ctx context.Context, rv *domain.Review) (*domain.Review, error)
	GetByID(ctx context.Context, id int64) (*domain.Review, error)
	GetByBookingID(ctx context.Context, bookingID int64) (*domain.Review, error)
	ListByBusiness(ctx context.Context, businessID int64, filter domain.ReviewFilter, limit, offset int) ([]domain.Review, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Review, error)
	Update(ctx context.Context, id int64, patch domain.ReviewPatch) (*domain.Review, error)
	SetStatus(ctx context.Context, id int64, status domain.ReviewStatus) (*domain.Review, error)
	Delete(ctx context.Context, id int64) (bool, error)
	AddHelpfulVote(ctx context.Context, id int64) error

	CreateResponse(ctx context.Context, resp *domain.ReviewResponse) (*domain.ReviewResponse, error)
	GetResponseByReviewID(ctx context.Context, reviewID int64) (*domain.ReviewResponse, error)
	UpdateResponse(ctx context.Context, reviewID int64, text string) (*domain.ReviewResponse, error)
}

type reviewRepository struct {
	pool *pgxpool.Pool
}

func NewReviewRepository(pool *pgxpool.Pool) ReviewRepository {
	return &reviewRepository{pool: pool}
}

const reviewCols = `id, booking_id, user_id, business_id, service_id,
rating, title, comment, pros, cons, would_recommend,
is_verified, status, helpful_votes, created_at, updated_at`

func scanReview(row pgx.Row) (*domain.Review, error) {
	var rv domain.Review
	err := row.Scan(
		&rv.ID, &rv.BookingID, &rv.UserID, &rv.BusinessID, &rv.ServiceID,
		&rv.Rating, &rv.Title, &rv.Comment, &rv.Pros, &rv.Cons, &rv.WouldRecommend,
		&rv.IsVerified, &rv.Status, &rv.HelpfulVotes,
		&rv.CreatedAt, &rv.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *reviewRepository) Create(ctx context.Context, rv *domain.Review) (*domain.Review, error) {
	const q = `INSERT INTO reviews (
		booking_id, user_id, business_id, service_id,
		rating, title, comment, pros, cons, would_recommend,
		is_verified, status, helpful_votes
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,0)
	RETURNING ` + reviewCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanReview(r.pool.QueryRow(ctx, q,
		rv.BookingID, rv.UserID, rv.BusinessID, rv.ServiceID,
		rv.Rating, rv.Title, rv.Comment, rv.Pros, rv.Cons, rv.WouldRecommend,
		rv.IsVerified, rv.Status,
	))
}

func (r *reviewRepository) GetByID(ctx context.Context, id int64) (*domain.Review, error) {
	const q = `SELECT ` + reviewCols + ` FROM reviews WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanReview(r.pool.QueryRow(ctx, q, id))
}

func (r *reviewRepository) GetByBookingID(ctx context.Context, bookingID int64) (*domain.Review, error) {
	const q = `SELECT ` + reviewCols + ` FROM reviews WHERE booking_id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanReview(r.pool.QueryRow(ctx, q, bookingID))
}

func (r *reviewRepository) ListByBusiness(ctx context.Context, businessID int64, filter domain.ReviewFilter, limit, offset int) ([]domain.Review, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	q := `SELECT ` + reviewCols + ` FROM reviews WHERE business_id=$1`
	args := []any{businessID}
	i := 2

	if filter.Status != "" {
		q += fmt.Sprintf(` AND status=$%d`, i)
		args = append(args, filter.Status)
		i++
	}
	if filter.MinRating != nil {
		q += fmt.Sprintf(` AND rating >= $%d`, i)
		args = append(args, *filter.MinRating)
		i++
	}
	if filter.MaxRating != nil {
		q += fmt.Sprintf(` AND rating <= $%d`, i)
		args = append(args, *filter.MaxRating)
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

	return collectReviews(rows)
}

func collectReviews(rows pgx.Rows) ([]domain.Review, error) {
	var reviews []domain.Review
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(
			&rv.ID, &rv.BookingID, &rv.UserID, &rv.BusinessID, &rv.ServiceID,
			&rv.Rating, &rv.Title, &rv.Comment, &rv.Pros, &rv.Cons, &rv.WouldRecommend,
			&rv.IsVerified, &rv.Status, &rv.HelpfulVotes,
			&rv.CreatedAt, &rv.UpdatedAt,
		); err != nil {
			return nil, err
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

func (r *reviewRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Review, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	const q = `SELECT ` + reviewCols + ` FROM reviews WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectReviews(rows)
}

func (r *reviewRepository) Update(ctx context.Context, id int64, patch domain.ReviewPatch) (*domain.Review, error) {
	const q = `
		UPDATE reviews
		SET
			rating          = COALESCE($2, rating),
			title           = COALESCE($3, title),
			comment         = COALESCE($4, comment),
			pros            = COALESCE($5, pros),
			cons            = COALESCE($6, cons),
			would_recommend = COALESCE($7, would_recommend),
			updated_at      = now()
		WHERE id=$1
		RETURNING ` + reviewCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanReview(r.pool.QueryRow(ctx, q, id,
		patch.Rating, patch.Title, patch.Comment,
		patch.Pros, patch.Cons, patch.WouldRecommend,
	))
}

func (r *reviewRepository) SetStatus(ctx context.Context, id int64, status domain.ReviewStatus) (*domain.Review, error) {
	const q = `UPDATE reviews SET status=$2, updated_at=now() WHERE id=$1 RETURNING ` + reviewCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanReview(r.pool.QueryRow(ctx, q, id, status))
}

func (r *reviewRepository) Delete(ctx context.Context, id int64) (bool, error) {
	const q = `DELETE FROM reviews WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	result, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *reviewRepository) AddHelpfulVote(ctx context.Context, id int64) error {
	const q = `UPDATE reviews SET helpful_votes = helpful_votes + 1 WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.pool.Exec(ctx, q, id)
	return err
}

const responseCols = `id, review_id, business_id, response_text, responded_by, created_at, updated_at`

func scanResponse(row pgx.Row) (*domain.ReviewResponse, error) {
	var resp domain.ReviewResponse
	err := row.Scan(&resp.ID, &resp.ReviewID, &resp.BusinessID, &resp.Text, &resp.RespondedBy, &resp.CreatedAt, &resp.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *reviewRepository) CreateResponse(ctx context.Context, resp *domain.ReviewResponse) (*domain.ReviewResponse, error) {
	const q = `INSERT INTO review_responses (review_id, business_id, response_text, responded_by)
		VALUES ($1,$2,$3,$4)
		RETURNING ` + responseCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanResponse(r.pool.QueryRow(ctx, q, resp.ReviewID, resp.BusinessID, resp.Text, resp.RespondedBy))
}

func (r *reviewRepository) GetResponseByReviewID(ctx context.Context, reviewID int64) (*domain.ReviewResponse, error) {
	const q = `SELECT ` + responseCols + ` FROM review_responses WHERE review_id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanResponse(r.pool.QueryRow(ctx, q, reviewID))
}

func (r *reviewRepository) UpdateResponse(ctx context.Context, reviewID int64, text string) (*domain.ReviewResponse, error) {
	const q = `UPDATE review_responses SET response_text=$2, updated_at=now() WHERE review_id=$1 RETURNING ` + responseCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanResponse(r.pool.QueryRow(ctx, q, reviewID, text))
}
