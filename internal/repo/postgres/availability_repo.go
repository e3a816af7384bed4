package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bookline/bookline-api/internal/domain"
)

type AvailabilityRepository interface {
	CreateTemplate(ctx context.Context, req *domain.TemplateCreateRequest) (*domain.AvailabilityTemplate, error)
	GetTemplate(ctx context.Context, id int64) (*domain.AvailabilityTemplate, error)
	ListTemplates(ctx context.Context, serviceID, resourceID *int64) ([]domain.AvailabilityTemplate, error)
	UpdateTemplate(ctx context.Context, id int64, patch domain.TemplatePatch) (*domain.AvailabilityTemplate, error)
	DeleteTemplate(ctx context.Context, id int64) (bool, error)

	CreateSlot(ctx context.Context, req *domain.SlotCreateRequest) (*domain.AvailabilitySlot, error)
	CreateSlots(ctx context.Context, reqs []domain.SlotCreateRequest) (int, error)
	GetSlot(ctx context.Context, id int64) (*domain.AvailabilitySlot, error)
	ListSlots(ctx context.Context, filter domain.SlotFilter, limit, offset int) ([]domain.AvailabilitySlot, error)
	UpdateSlot(ctx context.Context, id int64, patch domain.SlotPatch) (*domain.AvailabilitySlot, error)
	DeleteSlot(ctx context.Context, id int64) (bool, error)
	ReserveSpots(ctx context.Context, slotID int64, spots int) (bool, error)
	ReleaseSpots(ctx context.Context, slotID int64, spots int) error

	CreateBlockedTime(ctx context.Context, createdBy int64, req *domain.BlockedTimeCreateRequest) (*domain.BlockedTime, error)
	GetBlockedTime(ctx context.Context, id int64) (*domain.BlockedTime, error)
	ListBlockedTimes(ctx context.Context, filter domain.BlockedTimeFilter) ([]domain.BlockedTime, error)
	UpdateBlockedTime(ctx context.Context, id int64, patch domain.BlockedTimePatch) (*domain.BlockedTime, error)
	DeleteBlockedTime(ctx context.Context, id int64) (bool, error)
	HasBlockedOverlap(ctx context.Context, serviceID, resourceID *int64, start, end time.Time) (bool, error)
}

type availabilityRepository struct {
	pool *pgxpool.Pool
}

func NewAvailabilityRepository(pool *pgxpool.Pool) AvailabilityRepository {
	return &availabilityRepository{pool: pool}
}

const templateCols = `id, service_id, resource_id, day_of_week, start_time, end_time, slot_duration, max_bookings, is_active, created_at`

func scanTemplate(row pgx.Row) (*domain.AvailabilityTemplate, error) {
	var t domain.AvailabilityTemplate
	err := row.Scan(
		&t.ID, &t.ServiceID, &t.ResourceID, &t.DayOfWeek,
		&t.StartTime, &t.EndTime, &t.SlotDuration, &t.MaxBookings,
		&t.IsActive, &t.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *availabilityRepository) CreateTemplate(ctx context.Context, req *domain.TemplateCreateRequest) (*domain.AvailabilityTemplate, error) {
	const q = `INSERT INTO availability_templates (service_id, resource_id, day_of_week, start_time, end_time, slot_duration, max_bookings, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,true)
		RETURNING ` + templateCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanTemplate(r.pool.QueryRow(ctx, q,
		req.ServiceID, req.ResourceID, req.DayOfWeek,
		req.StartTime, req.EndTime, req.SlotDuration, req.MaxBookings,
	))
}

func (r *availabilityRepository) GetTemplate(ctx context.Context, id int64) (*domain.AvailabilityTemplate, error) {
	const q = `SELECT ` + templateCols + ` FROM availability_templates WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanTemplate(r.pool.QueryRow(ctx, q, id))
}

func (r *availabilityRepository) ListTemplates(ctx context.Context, serviceID, resourceID *int64) ([]domain.AvailabilityTemplate, error) {
	q := `SELECT ` + templateCols + ` FROM availability_templates WHERE 1=1`
	args := []any{}
	i := 1
	if serviceID != nil {
		q += fmt.Sprintf(` AND service_id=$%d`, i)
		args = append(args, *serviceID)
		i++
	}
	if resourceID != nil {
		q += fmt.Sprintf(` AND resource_id=$%d`, i)
		args = append(args, *resourceID)
		i++
	}
	q += ` ORDER BY day_of_week, start_time`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []domain.AvailabilityTemplate
	for rows.Next() {
		var t domain.AvailabilityTemplate
		if err := rows.Scan(
			&t.ID, &t.ServiceID, &t.ResourceID, &t.DayOfWeek,
			&t.StartTime, &t.EndTime, &t.SlotDuration, &t.MaxBookings,
			&t.IsActive, &t.CreatedAt,
		); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (r *availabilityRepository) UpdateTemplate(ctx context.Context, id int64, patch domain.TemplatePatch) (*domain.AvailabilityTemplate, error) {
	const q = `
		UPDATE availability_templates
		SET
			day_of_week   = COALESCE($2, day_of_week),
			start_time    = COALESCE($3, start_time),
			end_time      = COALESCE($4, end_time),
			slot_duration = COALESCE($5, slot_duration),
			max_bookings  = COALESCE($6, max_bookings),
			is_active     = COALESCE($7, is_active)
		WHERE id=$1
		RETURNING ` + templateCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanTemplate(r.pool.QueryRow(ctx, q, id,
		patch.DayOfWeek, patch.StartTime, patch.EndTime,
		patch.SlotDuration, patch.MaxBookings, patch.IsActive,
	))
}

func (r *availabilityRepository) DeleteTemplate(ctx context.Context, id int64) (bool, error) {
	const q = `DELETE FROM availability_templates WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	result, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

const slotCols = `id, service_id, resource_id, start_datetime, end_datetime,
available_spots, booked_spots, price_override, status, notes, created_at`

func scanSlot(row pgx.Row) (*domain.AvailabilitySlot, error) {
	var s domain.AvailabilitySlot
	err := row.Scan(
		&s.ID, &s.ServiceID, &s.ResourceID, &s.StartDatetime, &s.EndDatetime,
		&s.AvailableSpots, &s.BookedSpots, &s.PriceOverride, &s.Status,
		&s.Notes, &s.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *availabilityRepository) CreateSlot(ctx context.Context, req *domain.SlotCreateRequest) (*domain.AvailabilitySlot, error) {
	const q = `INSERT INTO availability_slots (service_id, resource_id, start_datetime, end_datetime, available_spots, booked_spots, price_override, status, notes)
		VALUES ($1,$2,$3,$4,$5,0,$6,'available',$7)
		RETURNING ` + slotCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanSlot(r.pool.QueryRow(ctx, q,
		req.ServiceID, req.ResourceID, req.StartDatetime, req.EndDatetime,
		req.AvailableSpots, req.PriceOverride, req.Notes,
	))
}

// CreateSlots bulk-inserts generated slots, skipping any that collide with
// an existing slot for the same target and start.
func (r *availabilityRepository) CreateSlots(ctx context.Context, reqs []domain.SlotCreateRequest) (int, error) {
	const q = `INSERT INTO availability_slots (service_id, resource_id, start_datetime, end_datetime, available_spots, booked_spots, price_override, status, notes)
		VALUES ($1,$2,$3,$4,$5,0,$6,'available',$7)
		ON CONFLICT DO NOTHING`

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	created := 0
	for i := range reqs {
		req := &reqs[i]
		result, err := tx.Exec(ctx, q,
			req.ServiceID, req.ResourceID, req.StartDatetime, req.EndDatetime,
			req.AvailableSpots, req.PriceOverride, req.Notes,
		)
		if err != nil {
			return 0, err
		}
		created += int(result.RowsAffected())
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return created, nil
}

func (r *availabilityRepository) GetSlot(ctx context.Context, id int64) (*domain.AvailabilitySlot, error) {
	const q = `SELECT ` + slotCols + ` FROM availability_slots WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanSlot(r.pool.QueryRow(ctx, q, id))
}

func (r *availabilityRepository) ListSlots(ctx context.Context, filter domain.SlotFilter, limit, offset int) ([]domain.AvailabilitySlot, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	q := `SELECT ` + slotCols + ` FROM availability_slots WHERE 1=1`
	args := []any{}
	i := 1

	if filter.ServiceID != nil {
		q += fmt.Sprintf(` AND service_id=$%d`, i)
		args = append(args, *filter.ServiceID)
		i++
	}
	if filter.ResourceID != nil {
		q += fmt.Sprintf(` AND resource_id=$%d`, i)
		args = append(args, *filter.ResourceID)
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
	if filter.Status != "" {
		q += fmt.Sprintf(` AND status=$%d`, i)
		args = append(args, filter.Status)
		i++
	}
	q += fmt.Sprintf(` ORDER BY start_datetime LIMIT $%d OFFSET $%d`, i, i+1)
	args = append(args, limit, offset)

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []domain.AvailabilitySlot
	for rows.Next() {
		var s domain.AvailabilitySlot
		if err := rows.Scan(
			&s.ID, &s.ServiceID, &s.ResourceID, &s.StartDatetime, &s.EndDatetime,
			&s.AvailableSpots, &s.BookedSpots, &s.PriceOverride, &s.Status,
			&s.Notes, &s.CreatedAt,
		); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

func (r *availabilityRepository) UpdateSlot(ctx context.Context, id int64, patch domain.SlotPatch) (*domain.AvailabilitySlot, error) {
	const q = `
		UPDATE availability_slots
		SET
			start_datetime  = COALESCE($2, start_datetime),
			end_datetime    = COALESCE($3, end_datetime),
			available_spots = COALESCE($4, available_spots),
			price_override  = COALESCE($5, price_override),
			status          = COALESCE($6, status),
			notes           = COALESCE($7, notes)
		WHERE id=$1
		RETURNING ` + slotCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanSlot(r.pool.QueryRow(ctx, q, id,
		patch.StartDatetime, patch.EndDatetime, patch.AvailableSpots,
		patch.PriceOverride, patch.Status, patch.Notes,
	))
}

func (r *availabilityRepository) DeleteSlot(ctx context.Context, id int64) (bool, error) {
	const q = `DELETE FROM availability_slots WHERE id=$1 AND booked_spots=0`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	result, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// ReserveSpots takes capacity with a single conditional update. The WHERE
// clause guarantees booked_spots never exceeds available_spots, no matter
// how many requests race on the same slot. Returns false when the slot has
// too few spots left (or is not available).
func (r *availabilityRepository) ReserveSpots(ctx context.Context, slotID int64, spots int) (bool, error) {
	const q = `
		UPDATE availability_slots
		SET
			booked_spots = booked_spots + $2,
			status = CASE WHEN booked_spots + $2 >= available_spots THEN 'full' ELSE status END
		WHERE id=$1
		  AND status='available'
		  AND available_spots - booked_spots >= $2`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, slotID, spots)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// ReleaseSpots gives capacity back after a cancellation. booked_spots is
// floored at zero and a full slot reopens.
func (r *availabilityRepository) ReleaseSpots(ctx context.Context, slotID int64, spots int) error {
	const q = `
		UPDATE availability_slots
		SET
			booked_spots = GREATEST(booked_spots - $2, 0),
			status = CASE WHEN status='full' THEN 'available' ELSE status END
		WHERE id=$1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, slotID, spots)
	return err
}

const blockedCols = `id, business_id, service_id, resource_id, start_datetime, end_datetime, reason, block_type, created_by, created_at`

func scanBlockedTime(row pgx.Row) (*domain.BlockedTime, error) {
	var b domain.BlockedTime
	err := row.Scan(
		&b.ID, &b.BusinessID, &b.ServiceID, &b.ResourceID,
		&b.StartDatetime, &b.EndDatetime, &b.Reason, &b.BlockType,
		&b.CreatedBy, &b.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *availabilityRepository) CreateBlockedTime(ctx context.Context, createdBy int64, req *domain.BlockedTimeCreateRequest) (*domain.BlockedTime, error) {
	const q = `INSERT INTO blocked_times (business_id, service_id, resource_id, start_datetime, end_datetime, reason, block_type, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING ` + blockedCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanBlockedTime(r.pool.QueryRow(ctx, q,
		req.BusinessID, req.ServiceID, req.ResourceID,
		req.StartDatetime, req.EndDatetime, req.Reason, req.BlockType, createdBy,
	))
}

func (r *availabilityRepository) GetBlockedTime(ctx context.Context, id int64) (*domain.BlockedTime, error) {
	const q = `SELECT ` + blockedCols + ` FROM blocked_times WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanBlockedTime(r.pool.QueryRow(ctx, q, id))
}

func (r *availabilityRepository) ListBlockedTimes(ctx context.Context, filter domain.BlockedTimeFilter) ([]domain.BlockedTime, error) {
	q := `SELECT ` + blockedCols + ` FROM blocked_times WHERE 1=1`
	args := []any{}
	i := 1

	if filter.BusinessID != nil {
		q += fmt.Sprintf(` AND business_id=$%d`, i)
		args = append(args, *filter.BusinessID)
		i++
	}
	if filter.ServiceID != nil {
		q += fmt.Sprintf(` AND service_id=$%d`, i)
		args = append(args, *filter.ServiceID)
		i++
	}
	if filter.ResourceID != nil {
		q += fmt.Sprintf(` AND resource_id=$%d`, i)
		args = append(args, *filter.ResourceID)
		i++
	}
	if filter.From != nil {
		q += fmt.Sprintf(` AND end_datetime > $%d`, i)
		args = append(args, *filter.From)
		i++
	}
	if filter.To != nil {
		q += fmt.Sprintf(` AND start_datetime < $%d`, i)
		args = append(args, *filter.To)
		i++
	}
	q += ` ORDER BY start_datetime`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blocks []domain.BlockedTime
	for rows.Next() {
		var b domain.BlockedTime
		if err := rows.Scan(
			&b.ID, &b.BusinessID, &b.ServiceID, &b.ResourceID,
			&b.StartDatetime, &b.EndDatetime, &b.Reason, &b.BlockType,
			&b.CreatedBy, &b.CreatedAt,
		); err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

func (r *availabilityRepository) UpdateBlockedTime(ctx context.Context, id int64, patch domain.BlockedTimePatch) (*domain.BlockedTime, error) {
	const q = `
		UPDATE blocked_times
		SET
			start_datetime = COALESCE($2, start_datetime),
			end_datetime   = COALESCE($3, end_datetime),
			reason         = COALESCE($4, reason),
			block_type     = COALESCE($5, block_type)
		WHERE id=$1
		RETURNING ` + blockedCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanBlockedTime(r.pool.QueryRow(ctx, q, id,
		patch.StartDatetime, patch.EndDatetime, patch.Reason, patch.BlockType,
	))
}

func (r *availabilityRepository) DeleteBlockedTime(ctx context.Context, id int64) (bool, error) {
	const q = `DELETE FROM blocked_times WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	result, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// HasBlockedOverlap reports whether any blocked window intersects
// [start, end) for the given service or resource.
func (r *availabilityRepository) HasBlockedOverlap(ctx context.Context, serviceID, resourceID *int64, start, end time.Time) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM blocked_times
			WHERE (($1::bigint IS NOT NULL AND service_id=$1) OR ($2::bigint IS NOT NULL AND resource_id=$2))
			  AND start_datetime < $4
			  AND end_datetime > $3
		)`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var blocked bool
	if err := r.pool.QueryRow(ctx, q, serviceID, resourceID, start, end).Scan(&blocked); err != nil {
		return false, err
	}
	return blocked, nil
}
