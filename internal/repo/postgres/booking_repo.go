package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bookline/bookline-api/internal/domain"
)

type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByReference(ctx context.Context, reference string) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID int64, filter domain.BookingFilter, limit, offset int) ([]domain.Booking, error)
	ListByBusiness(ctx context.Context, businessID int64, filter domain.BookingFilter, limit, offset int) ([]domain.Booking, error)
	Update(ctx context.Context, id int64, patch domain.BookingPatch, bookingDate, start, end *time.Time) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) (*domain.Booking, error)
	Cancel(ctx context.Context, id, cancelledBy int64, reason string) (*domain.Booking, error)
	SetAmounts(ctx context.Context, id int64, discount, final float64) error
	SetPaymentStatus(ctx context.Context, id int64, state domain.PaymentState) error
	CountResourceOverlaps(ctx context.Context, resourceID int64, start, end time.Time, excludeID int64) (int, error)

	AddParticipant(ctx context.Context, req *domain.ParticipantCreateRequest) (*domain.BookingParticipant, error)
	ListParticipants(ctx context.Context, bookingID int64) ([]domain.BookingParticipant, error)
	UpdateParticipant(ctx context.Context, bookingID, participantID int64, patch domain.ParticipantPatch) (*domain.BookingParticipant, error)
	RemoveParticipant(ctx context.Context, bookingID, participantID int64) (bool, error)

	AppendHistory(ctx context.Context, h *domain.BookingHistory) error
	ListHistory(ctx context.Context, bookingID int64) ([]domain.BookingHistory, error)
}

type bookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) BookingRepository {
	return &bookingRepository{pool: pool}
}

const bookingCols = `id, reference, user_id, business_id, service_id, resource_id, slot_id,
booking_date, start_time, end_time, start_datetime, end_datetime,
participants, total_amount, deposit_amount, tax_amount, discount_amount, final_amount, currency,
status, payment_status, special_requests, internal_notes, confirmation_code, reminder_sent,
created_at, updated_at, cancelled_at, cancelled_by, cancellation_reason`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(
		&b.ID, &b.Reference, &b.UserID, &b.BusinessID, &b.ServiceID, &b.ResourceID, &b.SlotID,
		&b.BookingDate, &b.StartTime, &b.EndTime, &b.StartDatetime, &b.EndDatetime,
		&b.Participants, &b.TotalAmount, &b.DepositAmount, &b.TaxAmount, &b.DiscountAmount, &b.FinalAmount, &b.Currency,
		&b.Status, &b.PaymentStatus, &b.SpecialRequests, &b.InternalNotes, &b.ConfirmationCode, &b.ReminderSent,
		&b.CreatedAt, &b.UpdatedAt, &b.CancelledAt, &b.CancelledBy, &b.CancellationReason,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func collectBookings(rows pgx.Rows) ([]domain.Booking, error) {
	var bookings []domain.Booking
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(
			&b.ID, &b.Reference, &b.UserID, &b.BusinessID, &b.ServiceID, &b.ResourceID, &b.SlotID,
			&b.BookingDate, &b.StartTime, &b.EndTime, &b.StartDatetime, &b.EndDatetime,
			&b.Participants, &b.TotalAmount, &b.DepositAmount, &b.TaxAmount, &b.DiscountAmount, &b.FinalAmount, &b.Currency,
			&b.Status, &b.PaymentStatus, &b.SpecialRequests, &b.InternalNotes, &b.ConfirmationCode, &b.ReminderSent,
			&b.CreatedAt, &b.UpdatedAt, &b.CancelledAt, &b.CancelledBy, &b.CancellationReason,
		); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (r *bookingRepository) Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	const q = `INSERT INTO bookings (
		reference, user_id, business_id, service_id, resource_id, slot_id,
		booking_date, start_time, end_time, start_datetime, end_datetime,
		participants, total_amount, deposit_amount, tax_amount, discount_amount, final_amount, currency,
		status, payment_status, special_requests, confirmation_code, reminder_sent
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,'pending',$20,$21,false)
	RETURNING ` + bookingCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanBooking(r.pool.QueryRow(ctx, q,
		b.Reference, b.UserID, b.BusinessID, b.ServiceID, b.ResourceID, b.SlotID,
		b.BookingDate, b.StartTime, b.EndTime, b.StartDatetime, b.EndDatetime,
		b.Participants, b.TotalAmount, b.DepositAmount, b.TaxAmount, b.DiscountAmount, b.FinalAmount, b.Currency,
		b.Status, b.SpecialRequests, b.ConfirmationCode,
	))
}

func (r *bookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanBooking(r.pool.QueryRow(ctx, q, id))
}

func (r *bookingRepository) GetByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE reference=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanBooking(r.pool.QueryRow(ctx, q, reference))
}

func appendBookingFilter(q string, args []any, i int, filter domain.BookingFilter) (string, []any, int) {
	if filter.Status != nil {
		q += fmt.Sprintf(` AND status=$%d`, i)
		args = append(args, *filter.Status)
		i++
	}
	if filter.From != nil {
		q += fmt.Sprintf(` AND start_datetime >= $%d`, i)
		args = append(args, *filter.From)
		i++
	}
	if filter.To != nil {
		q += fmt.Sprintf(` AND start_datetime < $%d`, i)
		args = append(args, *filter.To)
		i++
	}
	return q, args, i
}

func (r *bookingRepository) ListByUser(ctx context.Context, userID int64, filter domain.BookingFilter, limit, offset int) ([]domain.Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	q := `SELECT ` + bookingCols + ` FROM bookings WHERE user_id=$1`
	args := []any{userID}
	q, args, i := appendBookingFilter(q, args, 2, filter)
	q += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, i, i+1)
	args = append(args, limit, offset)

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookings(rows)
}

func (r *bookingRepository) ListByBusiness(ctx context.Context, businessID int64, filter domain.BookingFilter, limit, offset int) ([]domain.Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	q := `SELECT ` + bookingCols + ` FROM bookings WHERE business_id=$1`
	args := []any{businessID}
	q, args, i := appendBookingFilter(q, args, 2, filter)
	q += fmt.Sprintf(` ORDER BY start_datetime DESC LIMIT $%d OFFSET $%d`, i, i+1)
	args = append(args, limit, offset)

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookings(rows)
}

// Update rewrites the reschedulable fields. The recomputed start/end
// datetimes are passed in because the midnight rollover rule lives in the
// service layer, not in SQL.
func (r *bookingRepository) Update(ctx context.Context, id int64, patch domain.BookingPatch, bookingDate, start, end *time.Time) (*domain.Booking, error) {
	const q = `
		UPDATE bookings
		SET
			booking_date     = COALESCE($2, booking_date),
			start_time       = COALESCE($3, start_time),
			end_time         = COALESCE($4, end_time),
			start_datetime   = COALESCE($5, start_datetime),
			end_datetime     = COALESCE($6, end_datetime),
			participants     = COALESCE($7, participants),
			status           = COALESCE($8, status),
			special_requests = COALESCE($9, special_requests),
			internal_notes   = COALESCE($10, internal_notes),
			updated_at       = now()
		WHERE id=$1
		RETURNING ` + bookingCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanBooking(r.pool.QueryRow(ctx, q, id,
		bookingDate, patch.StartTime, patch.EndTime, start, end,
		patch.Participants, patch.Status, patch.SpecialRequests, patch.InternalNotes,
	))
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) (*domain.Booking, error) {
	const q = `UPDATE bookings SET status=$2, updated_at=now() WHERE id=$1 RETURNING ` + bookingCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanBooking(r.pool.QueryRow(ctx, q, id, status))
}

func (r *bookingRepository) Cancel(ctx context.Context, id, cancelledBy int64, reason string) (*domain.Booking, error) {
	const q = `
		UPDATE bookings
		SET status='cancelled', cancelled_at=now(), cancelled_by=$2, cancellation_reason=$3, updated_at=now()
		WHERE id=$1 AND status NOT IN ('completed','cancelled','no_show')
		RETURNING ` + bookingCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanBooking(r.pool.QueryRow(ctx, q, id, cancelledBy, reason))
}

func (r *bookingRepository) SetAmounts(ctx context.Context, id int64, discount, final float64) error {
	const q = `UPDATE bookings SET discount_amount=$2, final_amount=$3, updated_at=now() WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.pool.Exec(ctx, q, id, discount, final)
	return err
}

func (r *bookingRepository) SetPaymentStatus(ctx context.Context, id int64, state domain.PaymentState) error {
	const q = `UPDATE bookings SET payment_status=$2, updated_at=now() WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.pool.Exec(ctx, q, id, state)
	return err
}

// CountResourceOverlaps counts live bookings on a resource intersecting
// [start, end). Two ranges overlap when each starts before the other ends.
func (r *bookingRepository) CountResourceOverlaps(ctx context.Context, resourceID int64, start, end time.Time, excludeID int64) (int, error) {
	const q = `
		SELECT COUNT(*) FROM bookings
		WHERE resource_id=$1
		  AND id != $4
		  AND status IN ('pending','confirmed','in_progress')
		  AND start_datetime < $3
		  AND end_datetime > $2`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var count int
	if err := r.pool.QueryRow(ctx, q, resourceID, start, end, excludeID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

const participantCols = `id, booking_id, first_name, last_name, email, phone, age, special_requirements, created_at`

func scanParticipant(row pgx.Row) (*domain.BookingParticipant, error) {
	var p domain.BookingParticipant
	err := row.Scan(&p.ID, &p.BookingID, &p.FirstName, &p.LastName, &p.Email, &p.Phone, &p.Age, &p.SpecialRequirements, &p.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *bookingRepository) AddParticipant(ctx context.Context, req *domain.ParticipantCreateRequest) (*domain.BookingParticipant, error) {
	const q = `INSERT INTO booking_participants (booking_id, first_name, last_name, email, phone, age, special_requirements)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING ` + participantCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanParticipant(r.pool.QueryRow(ctx, q,
		req.BookingID, req.FirstName, req.LastName,
		req.Email, req.Phone, req.Age, req.SpecialRequirements,
	))
}

func (r *bookingRepository) ListParticipants(ctx context.Context, bookingID int64) ([]domain.BookingParticipant, error) {
	const q = `SELECT ` + participantCols + ` FROM booking_participants WHERE booking_id=$1 ORDER BY id`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []domain.BookingParticipant
	for rows.Next() {
		var p domain.BookingParticipant
		if err := rows.Scan(&p.ID, &p.BookingID, &p.FirstName, &p.LastName, &p.Email, &p.Phone, &p.Age, &p.SpecialRequirements, &p.CreatedAt); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (r *bookingRepository) UpdateParticipant(ctx context.Context, bookingID, participantID int64, patch domain.ParticipantPatch) (*domain.BookingParticipant, error) {
	const q = `
		UPDATE booking_participants
		SET
			first_name           = COALESCE($3, first_name),
			last_name            = COALESCE($4, last_name),
			email                = COALESCE($5, email),
			phone                = COALESCE($6, phone),
			age                  = COALESCE($7, age),
			special_requirements = COALESCE($8, special_requirements)
		WHERE id=$1 AND booking_id=$2
		RETURNING ` + participantCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanParticipant(r.pool.QueryRow(ctx, q, participantID, bookingID,
		patch.FirstName, patch.LastName, patch.Email,
		patch.Phone, patch.Age, patch.SpecialRequirements,
	))
}

func (r *bookingRepository) RemoveParticipant(ctx context.Context, bookingID, participantID int64) (bool, error) {
	const q = `DELETE FROM booking_participants WHERE id=$1 AND booking_id=$2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	result, err := r.pool.Exec(ctx, q, participantID, bookingID)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *bookingRepository) AppendHistory(ctx context.Context, h *domain.BookingHistory) error {
	const q = `INSERT INTO booking_history (booking_id, old_status, new_status, changed_by, reason)
		VALUES ($1,$2,$3,$4,$5)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.pool.Exec(ctx, q, h.BookingID, h.OldStatus, h.NewStatus, h.ChangedBy, h.Reason)
	return err
}

func (r *bookingRepository) ListHistory(ctx context.Context, bookingID int64) ([]domain.BookingHistory, error) {
	const q = `SELECT id, booking_id, old_status, new_status, changed_by, reason, created_at
		FROM booking_history WHERE booking_id=$1 ORDER BY created_at`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []domain.BookingHistory
	for rows.Next() {
		var h domain.BookingHistory
		if err := rows.Scan(&h.ID, &h.BookingID, &h.OldStatus, &h.NewStatus, &h.ChangedBy, &h.Reason, &h.CreatedAt); err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	return history, rows.Err()
}
