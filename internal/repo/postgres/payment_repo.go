package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bookline/bookline-api/internal/domain"
)

type PaymentRepository interface {
	CreateMethod(ctx context.Context, userID int64, req *domain.PaymentMethodCreateRequest) (*domain.PaymentMethod, error)
	GetMethod(ctx context.Context, userID, methodID int64) (*domain.PaymentMethod, error)
	ListMethods(ctx context.Context, userID int64) ([]domain.PaymentMethod, error)
	UpdateMethod(ctx context.Context, userID, methodID int64, patch domain.PaymentMethodPatch) (*domain.PaymentMethod, error)
	DeactivateMethod(ctx context.Context, userID, methodID int64) (bool, error)

	CreatePayment(ctx context.Context, p *domain.Payment) (*domain.Payment, error)
	GetPayment(ctx context.Context, id int64) (*domain.Payment, error)
	ListPaymentsByBooking(ctx context.Context, bookingID int64) ([]domain.Payment, error)
	UpdatePayment(ctx context.Context, id int64, patch domain.PaymentPatch) (*domain.Payment, error)
	MarkPaymentCompleted(ctx context.Context, id int64, gatewayTxID string) (*domain.Payment, error)
	MarkPaymentFailed(ctx context.Context, id int64) (*domain.Payment, error)
	SetPaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) error
	SumCompletedForBooking(ctx context.Context, bookingID int64) (float64, error)

	CreateRefund(ctx context.Context, rf *domain.Refund) (*domain.Refund, error)
	GetRefund(ctx context.Context, id int64) (*domain.Refund, error)
	ListRefundsByPayment(ctx context.Context, paymentID int64) ([]domain.Refund, error)
	MarkRefundCompleted(ctx context.Context, id int64, gatewayRefundID string) (*domain.Refund, error)
	SumRefundsForPayment(ctx context.Context, paymentID int64) (float64, error)
}

type paymentRepository struct {
	pool *pgxpool.Pool
}

func NewPaymentRepository(pool *pgxpool.Pool) PaymentRepository {
	return &paymentRepository{pool: pool}
}

const methodCols = `id, user_id, method_type, card_last_four, card_brand,
card_expiry_month, card_expiry_year, billing_address_id, is_default, is_active, created_at`

func scanMethod(row pgx.Row) (*domain.PaymentMethod, error) {
	var m domain.PaymentMethod
	err := row.Scan(
		&m.ID, &m.UserID, &m.MethodType, &m.CardLastFour, &m.CardBrand,
		&m.CardExpiryMonth, &m.CardExpiryYear, &m.BillingAddressID,
		&m.IsDefault, &m.IsActive, &m.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *paymentRepository) CreateMethod(ctx context.Context, userID int64, req *domain.PaymentMethodCreateRequest) (*domain.PaymentMethod, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Only one default method per user.
	if req.IsDefault {
		if _, err := tx.Exec(ctx, `UPDATE payment_methods SET is_default=false WHERE user_id=$1`, userID); err != nil {
			return nil, err
		}
	}

	const q = `INSERT INTO payment_methods (
		user_id, method_type, card_last_four, card_brand,
		card_expiry_month, card_expiry_year, billing_address_id, is_default, is_active
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,true)
	RETURNING ` + methodCols

	m, err := scanMethod(tx.QueryRow(ctx, q,
		userID, req.MethodType, req.CardLastFour, req.CardBrand,
		req.CardExpiryMonth, req.CardExpiryYear, req.BillingAddressID, req.IsDefault,
	))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *paymentRepository) GetMethod(ctx context.Context, userID, methodID int64) (*domain.PaymentMethod, error) {
	const q = `SELECT ` + methodCols + ` FROM payment_methods WHERE id=$1 AND user_id=$2 AND is_active=true`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanMethod(r.pool.QueryRow(ctx, q, methodID, userID))
}

func (r *paymentRepository) ListMethods(ctx context.Context, userID int64) ([]domain.PaymentMethod, error) {
	const q = `SELECT ` + methodCols + ` FROM payment_methods WHERE user_id=$1 AND is_active=true ORDER BY is_default DESC, created_at DESC`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var methods []domain.PaymentMethod
	for rows.Next() {
		var m domain.PaymentMethod
		if err := rows.Scan(
			&m.ID, &m.UserID, &m.MethodType, &m.CardLastFour, &m.CardBrand,
			&m.CardExpiryMonth, &m.CardExpiryYear, &m.BillingAddressID,
			&m.IsDefault, &m.IsActive, &m.CreatedAt,
		); err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	return methods, rows.Err()
}

func (r *paymentRepository) UpdateMethod(ctx context.Context, userID, methodID int64, patch domain.PaymentMethodPatch) (*domain.PaymentMethod, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if patch.IsDefault != nil && *patch.IsDefault {
		if _, err := tx.Exec(ctx, `UPDATE payment_methods SET is_default=false WHERE user_id=$1 AND id != $2`, userID, methodID); err != nil {
			return nil, err
		}
	}

	const q = `
		UPDATE payment_methods
		SET
			card_expiry_month  = COALESCE($3, card_expiry_month),
			card_expiry_year   = COALESCE($4, card_expiry_year),
			billing_address_id = COALESCE($5, billing_address_id),
			is_default         = COALESCE($6, is_default)
		WHERE id=$1 AND user_id=$2 AND is_active=true
		RETURNING ` + methodCols

	m, err := scanMethod(tx.QueryRow(ctx, q, methodID, userID,
		patch.CardExpiryMonth, patch.CardExpiryYear, patch.BillingAddressID, patch.IsDefault,
	))
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, nil
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *paymentRepository) DeactivateMethod(ctx context.Context, userID, methodID int64) (bool, error) {
	const q = `UPDATE payment_methods SET is_default=false, is_active=false WHERE id=$1 AND user_id=$2 AND is_active=true`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	result, err := r.pool.Exec(ctx, q, methodID, userID)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

const paymentCols = `id, booking_id, reference, payment_method_id, amount, currency,
payment_type, status, gateway, gateway_transaction_id, processed_at, created_at, updated_at`

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	err := row.Scan(
		&p.ID, &p.BookingID, &p.Reference, &p.PaymentMethodID, &p.Amount, &p.Currency,
		&p.PaymentType, &p.Status, &p.Gateway, &p.GatewayTxID,
		&p.ProcessedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepository) CreatePayment(ctx context.Context, p *domain.Payment) (*domain.Payment, error) {
	const q = `INSERT INTO payments (
		booking_id, reference, payment_method_id, amount, currency, payment_type, status, gateway
	) VALUES ($1,$2,$3,$4,$5,$6,'pending',$7)
	RETURNING ` + paymentCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanPayment(r.pool.QueryRow(ctx, q,
		p.BookingID, p.Reference, p.PaymentMethodID, p.Amount, p.Currency, p.PaymentType, p.Gateway,
	))
}

func (r *paymentRepository) GetPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	const q = `SELECT ` + paymentCols + ` FROM payments WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanPayment(r.pool.QueryRow(ctx, q, id))
}

func (r *paymentRepository) ListPaymentsByBooking(ctx context.Context, bookingID int64) ([]domain.Payment, error) {
	const q = `SELECT ` + paymentCols + ` FROM payments WHERE booking_id=$1 ORDER BY created_at`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(
			&p.ID, &p.BookingID, &p.Reference, &p.PaymentMethodID, &p.Amount, &p.Currency,
			&p.PaymentType, &p.Status, &p.Gateway, &p.GatewayTxID,
			&p.ProcessedAt, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *paymentRepository) UpdatePayment(ctx context.Context, id int64, patch domain.PaymentPatch) (*domain.Payment, error) {
	const q = `
		UPDATE payments
		SET
			status                 = COALESCE($2, status),
			gateway_transaction_id = COALESCE($3, gateway_transaction_id),
			updated_at             = now()
		WHERE id=$1
		RETURNING ` + paymentCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanPayment(r.pool.QueryRow(ctx, q, id, patch.Status, patch.GatewayTxID))
}

func (r *paymentRepository) MarkPaymentCompleted(ctx context.Context, id int64, gatewayTxID string) (*domain.Payment, error) {
	const q = `
		UPDATE payments
		SET status='completed', gateway_transaction_id=$2, processed_at=now(), updated_at=now()
		WHERE id=$1 AND status IN ('pending','processing')
		RETURNING ` + paymentCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanPayment(r.pool.QueryRow(ctx, q, id, gatewayTxID))
}

func (r *paymentRepository) MarkPaymentFailed(ctx context.Context, id int64) (*domain.Payment, error) {
	const q = `
		UPDATE payments
		SET status='failed', processed_at=now(), updated_at=now()
		WHERE id=$1 AND status IN ('pending','processing')
		RETURNING ` + paymentCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanPayment(r.pool.QueryRow(ctx, q, id))
}

func (r *paymentRepository) SetPaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) error {
	const q = `UPDATE payments SET status=$2, updated_at=now() WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.pool.Exec(ctx, q, id, status)
	return err
}

func (r *paymentRepository) SumCompletedForBooking(ctx context.Context, bookingID int64) (float64, error) {
	const q = `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE booking_id=$1 AND status IN ('completed', 'processing')`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var total float64
	if err := r.pool.QueryRow(ctx, q, bookingID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

const refundCols = `id, payment_id, reference, amount, reason, status, gateway_refund_id, processed_by, processed_at, created_at`

func scanRefund(row pgx.Row) (*domain.Refund, error) {
	var rf domain.Refund
	err := row.Scan(
		&rf.ID, &rf.PaymentID, &rf.Reference, &rf.Amount, &rf.Reason,
		&rf.Status, &rf.GatewayRefundID, &rf.ProcessedBy, &rf.ProcessedAt, &rf.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rf, nil
}

func (r *paymentRepository) CreateRefund(ctx context.Context, rf *domain.Refund) (*domain.Refund, error) {
	const q = `INSERT INTO refunds (payment_id, reference, amount, reason, status, processed_by)
		VALUES ($1,$2,$3,$4,'pending',$5)
		RETURNING ` + refundCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanRefund(r.pool.QueryRow(ctx, q, rf.PaymentID, rf.Reference, rf.Amount, rf.Reason, rf.ProcessedBy))
}

func (r *paymentRepository) GetRefund(ctx context.Context, id int64) (*domain.Refund, error) {
	const q = `SELECT ` + refundCols + ` FROM refunds WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanRefund(r.pool.QueryRow(ctx, q, id))
}

func (r *paymentRepository) ListRefundsByPayment(ctx context.Context, paymentID int64) ([]domain.Refund, error) {
	const q = `SELECT ` + refundCols + ` FROM refunds WHERE payment_id=$1 ORDER BY created_at`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refunds []domain.Refund
	for rows.Next() {
		var rf domain.Refund
		if err := rows.Scan(
			&rf.ID, &rf.PaymentID, &rf.Reference, &rf.Amount, &rf.Reason,
			&rf.Status, &rf.GatewayRefundID, &rf.ProcessedBy, &rf.ProcessedAt, &rf.CreatedAt,
		); err != nil {
			return nil, err
		}
		refunds = append(refunds, rf)
	}
	return refunds, rows.Err()
}

func (r *paymentRepository) MarkRefundCompleted(ctx context.Context, id int64, gatewayRefundID string) (*domain.Refund, error) {
	const q = `
		UPDATE refunds
		SET status='completed', gateway_refund_id=$2, processed_at=now()
		WHERE id=$1 AND status='pending'
		RETURNING ` + refundCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanRefund(r.pool.QueryRow(ctx, q, id, gatewayRefundID))
}

func (r *paymentRepository) SumRefundsForPayment(ctx context.Context, paymentID int64) (float64, error) {
	const q = `SELECT COALESCE(SUM(amount), 0) FROM refunds WHERE payment_id=$1 AND status IN ('pending','completed')`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var total float64
	if err := r.pool.QueryRow(ctx, q, paymentID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}
