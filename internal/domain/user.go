package domain

import (
	"strings"
	"time"
)

type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
	GenderOther  Gender = "Other"
)

type UserStatus string

const (
	UserActive    UserStatus = "active"
	UserInactive  UserStatus = "inactive"
	UserSuspended UserStatus = "suspended"
)

func ParseUserStatus(s string) (UserStatus, bool) {
	switch UserStatus(s) {
	case UserActive, UserInactive, UserSuspended:
		return UserStatus(s), true
	default:
		return "", false
	}
}

type AddressType string

const (
	AddressHome    AddressType = "home"
	AddressWork    AddressType = "work"
	AddressBilling AddressType = "billing"
	AddressOther   AddressType = "other"
)

const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

type User struct {
	ID            int64      `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	Phone         string     `json:"phone,omitempty"`
	DateOfBirth   *time.Time `json:"date_of_birth,omitempty"`
	Gender        Gender     `json:"gender"`
	ProfileImage  string     `json:"profile_image,omitempty"`
	EmailVerified bool       `json:"email_verified"`
	PhoneVerified bool       `json:"phone_verified"`
	Status        UserStatus `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
}

type UserAddress struct {
	ID            int64       `json:"id"`
	UserID        int64       `json:"user_id"`
	AddressType   AddressType `json:"address_type"`
	StreetAddress string      `json:"street_address"`
	City          string      `json:"city"`
	State         string      `json:"state"`
	PostalCode    string      `json:"postal_code"`
	Country       string      `json:"country"`
	IsDefault     bool        `json:"is_default"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type UserRole struct {
	UserID     int64     `json:"user_id"`
	RoleID     int64     `json:"role_id"`
	AssignedAt time.Time `json:"assigned_at"`
}

type RegisterRequest struct {
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	Password     string     `json:"password"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Phone        string     `json:"phone,omitempty"`
	DateOfBirth  *time.Time `json:"date_of_birth,omitempty"`
	Gender       Gender     `json:"gender,omitempty"`
	ProfileImage string     `json:"profile_image,omitempty"`
}

func (r *RegisterRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Phone = strings.TrimSpace(r.Phone)
	if r.Gender == "" {
		r.Gender = GenderOther
	}
}

func (r *RegisterRequest) Validate() error {
	if r.Username == "" {
		return Invalidf("username is required")
	}
	if r.Email == "" || !strings.Contains(r.Email, "@") {
		return Invalidf("a valid email is required")
	}
	if len(r.Password) < 8 {
		return Invalidf("password must be at least 8 characters")
	}
	if r.FirstName == "" || r.LastName == "" {
		return Invalidf("first and last name are required")
	}
	return nil
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r *LoginRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	User        *User  `json:"user"`
}

// UserPatch carries optional profile updates; nil means "leave as is".
type UserPatch struct {
	FirstName    *string     `json:"first_name,omitempty"`
	LastName     *string     `json:"last_name,omitempty"`
	Phone        *string     `json:"phone,omitempty"`
	DateOfBirth  *time.Time  `json:"date_of_birth,omitempty"`
	Gender       *Gender     `json:"gender,omitempty"`
	ProfileImage *string     `json:"profile_image,omitempty"`
	Status       *UserStatus `json:"status,omitempty"`
}

type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type AddressCreateRequest struct {
	AddressType   AddressType `json:"address_type"`
	StreetAddress string      `json:"street_address"`
	City          string      `json:"city"`
	State         string      `json:"state"`
	PostalCode    string      `json:"postal_code"`
	Country       string      `json:"country"`
	IsDefault     bool        `json:"is_default"`
}

func (r *AddressCreateRequest) Validate() error {
	if r.StreetAddress == "" || r.City == "" || r.Country == "" {
		return Invalidf("street address, city and country are required")
	}
	if r.AddressType == "" {
		r.AddressType = AddressHome
	}
	return nil
}

type AddressPatch struct {
	AddressType   *AddressType `json:"address_type,omitempty"`
	StreetAddress *string      `json:"street_address,omitempty"`
	City          *string      `json:"city,omitempty"`
	State         *string      `json:"state,omitempty"`
	PostalCode    *string      `json:"postal_code,omitempty"`
	Country       *string      `json:"country,omitempty"`
	IsDefault     *bool        `json:"is_default,omitempty"`
}
