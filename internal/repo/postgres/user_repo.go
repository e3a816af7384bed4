package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bookline/bookline-api/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context, limit, offset int) ([]domain.User, error)
	Update(ctx context.Context, id int64, patch domain.UserPatch) (*domain.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	RecordLogin(ctx context.Context, id int64) error
	Deactivate(ctx context.Context, id int64) (bool, error)

	CreateAddress(ctx context.Context, userID int64, req *domain.AddressCreateRequest) (*domain.UserAddress, error)
	GetAddress(ctx context.Context, userID, addressID int64) (*domain.UserAddress, error)
	ListAddresses(ctx context.Context, userID int64) ([]domain.UserAddress, error)
	UpdateAddress(ctx context.Context, userID, addressID int64, patch domain.AddressPatch) (*domain.UserAddress, error)
	DeleteAddress(ctx context.Context, userID, addressID int64) (bool, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userCols = `id, username, email, password_hash,
first_name, last_name, phone, date_of_birth, gender,
profile_image, email_verified, phone_verified, status,
created_at, updated_at, last_login`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.FirstName, &u.LastName, &u.Phone, &u.DateOfBirth, &u.Gender,
		&u.ProfileImage, &u.EmailVerified, &u.PhoneVerified, &u.Status,
		&u.CreatedAt, &u.UpdatedAt, &u.LastLogin,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	const q = `INSERT INTO users (
		username, email, password_hash,
		first_name, last_name, phone, date_of_birth, gender, profile_image,
		email_verified, phone_verified, status
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,false,false,'active')
	RETURNING ` + userCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanUser(r.pool.QueryRow(ctx, q,
		u.Username, u.Email, u.PasswordHash,
		u.FirstName, u.LastName, u.Phone, u.DateOfBirth, u.Gender, u.ProfileImage,
	))
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanUser(r.pool.QueryRow(ctx, q, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE lower(email)=lower($1)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanUser(r.pool.QueryRow(ctx, q, email))
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE lower(username)=lower($1)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanUser(r.pool.QueryRow(ctx, q, username))
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	const q = `SELECT ` + userCols + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(
			&u.ID, &u.Username, &u.Email, &u.PasswordHash,
			&u.FirstName, &u.LastName, &u.Phone, &u.DateOfBirth, &u.Gender,
			&u.ProfileImage, &u.EmailVerified, &u.PhoneVerified, &u.Status,
			&u.CreatedAt, &u.UpdatedAt, &u.LastLogin,
		); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *userRepository) Update(ctx context.Context, id int64, patch domain.UserPatch) (*domain.User, error) {
	const q = `
		UPDATE users
		SET
			first_name        = COALESCE($2, first_name),
			last_name         = COALESCE($3, last_name),
			phone             = COALESCE($4, phone),
			date_of_birth     = COALESCE($5, date_of_birth),
			gender            = COALESCE($6, gender),
			profile_image     = COALESCE($7, profile_image),
			status            = COALESCE($8, status),
			updated_at        = now()
		WHERE id=$1
		RETURNING ` + userCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanUser(r.pool.QueryRow(ctx, q, id,
		patch.FirstName, patch.LastName, patch.Phone,
		patch.DateOfBirth, patch.Gender, patch.ProfileImage, patch.Status,
	))
}

func (r *userRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	const q = `UPDATE users SET password_hash=$2, updated_at=now() WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.pool.Exec(ctx, q, id, passwordHash)
	return err
}

func (r *userRepository) RecordLogin(ctx context.Context, id int64) error {
	const q = `UPDATE users SET last_login=now() WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.pool.Exec(ctx, q, id)
	return err
}

func (r *userRepository) Deactivate(ctx context.Context, id int64) (bool, error) {
	const q = `UPDATE users SET status='inactive', updated_at=now() WHERE id=$1 AND status != 'inactive'`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	result, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

const addressCols = `id, user_id, address_type, street_address, city, state, postal_code, country, is_default, created_at, updated_at`

func scanAddress(row pgx.Row) (*domain.UserAddress, error) {
	var a domain.UserAddress
	err := row.Scan(
		&a.ID, &a.UserID, &a.AddressType, &a.StreetAddress,
		&a.City, &a.State, &a.PostalCode, &a.Country,
		&a.IsDefault, &a.CreatedAt, &a.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *userRepository) CreateAddress(ctx context.Context, userID int64, req *domain.AddressCreateRequest) (*domain.UserAddress, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Only one default address per user.
	if req.IsDefault {
		if _, err := tx.Exec(ctx, `UPDATE user_addresses SET is_default=false WHERE user_id=$1`, userID); err != nil {
			return nil, err
		}
	}

	const q = `INSERT INTO user_addresses (
		user_id, address_type, street_address, city, state, postal_code, country, is_default
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	RETURNING ` + addressCols

	a, err := scanAddress(tx.QueryRow(ctx, q,
		userID, req.AddressType, req.StreetAddress,
		req.City, req.State, req.PostalCode, req.Country, req.IsDefault,
	))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *userRepository) GetAddress(ctx context.Context, userID, addressID int64) (*domain.UserAddress, error) {
	const q = `SELECT ` + addressCols + ` FROM user_addresses WHERE id=$1 AND user_id=$2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanAddress(r.pool.QueryRow(ctx, q, addressID, userID))
}

func (r *userRepository) ListAddresses(ctx context.Context, userID int64) ([]domain.UserAddress, error) {
	const q = `SELECT ` + addressCols + ` FROM user_addresses WHERE user_id=$1 ORDER BY is_default DESC, created_at DESC`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var addresses []domain.UserAddress
	for rows.Next() {
		var a domain.UserAddress
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.AddressType, &a.StreetAddress,
			&a.City, &a.State, &a.PostalCode, &a.Country,
			&a.IsDefault, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		addresses = append(addresses, a)
	}
	return addresses, rows.Err()
}

func (r *userRepository) UpdateAddress(ctx context.Context, userID, addressID int64, patch domain.AddressPatch) (*domain.UserAddress, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if patch.IsDefault != nil && *patch.IsDefault {
		if _, err := tx.Exec(ctx, `UPDATE user_addresses SET is_default=false WHERE user_id=$1 AND id != $2`, userID, addressID); err != nil {
			return nil, err
		}
	}

	const q = `
		UPDATE user_addresses
		SET
			address_type   = COALESCE($3, address_type),
			street_address = COALESCE($4, street_address),
			city           = COALESCE($5, city),
			state          = COALESCE($6, state),
			postal_code    = COALESCE($7, postal_code),
			country        = COALESCE($8, country),
			is_default     = COALESCE($9, is_default),
			updated_at     = now()
		WHERE id=$1 AND user_id=$2
		RETURNING ` + addressCols

	a, err := scanAddress(tx.QueryRow(ctx, q, addressID, userID,
		patch.AddressType, patch.StreetAddress, patch.City,
		patch.State, patch.PostalCode, patch.Country, patch.IsDefault,
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

func (r *userRepository) DeleteAddress(ctx context.Context, userID, addressID int64) (bool, error) {
	const q = `DELETE FROM user_addresses WHERE id=$1 AND user_id=$2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	result, err := r.pool.Exec(ctx, q, addressID, userID)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}
