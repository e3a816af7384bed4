package domain

import "time"

type BusinessType string

const (
	BusinessHotel      BusinessType = "hotel"
	BusinessRestaurant BusinessType = "restaurant"
	BusinessSpa        BusinessType = "spa"
	BusinessEventVenue BusinessType = "event_venue"
	BusinessTransport  BusinessType = "transport"
	BusinessTour       BusinessType = "tour"
	BusinessOther      BusinessType = "other"
)

type BusinessStatus string

const (
	BusinessPending   BusinessStatus = "pending"
	BusinessActive    BusinessStatus = "active"
	BusinessSuspended BusinessStatus = "suspended"
	BusinessClosed    BusinessStatus = "closed"
)

type DayOfWeek string

const (
	Monday    DayOfWeek = "monday"
	Tuesday   DayOfWeek = "tuesday"
	Wednesday DayOfWeek = "wednesday"
	Thursday  DayOfWeek = "thursday"
	Friday    DayOfWeek = "friday"
	Saturday  DayOfWeek = "saturday"
	Sunday    DayOfWeek = "sunday"
)

func ParseDayOfWeek(s string) (DayOfWeek, bool) {
	switch DayOfWeek(s) {
	case Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday:
		return DayOfWeek(s), true
	default:
		return "", false
	}
}

type Business struct {
	ID            int64          `json:"id"`
	OwnerID       int64          `json:"owner_id"`
	Name          string         `json:"name"`
	Type          BusinessType   `json:"type"`
	Description   string         `json:"description,omitempty"`
	Phone         string         `json:"phone,omitempty"`
	Email         string         `json:"email,omitempty"`
	Website       string         `json:"website,omitempty"`
	TaxID         string         `json:"tax_id,omitempty"`
	LicenseNumber string         `json:"license_number,omitempty"`
	Rating        float64        `json:"rating"`
	TotalReviews  int            `json:"total_reviews"`
	Status        BusinessStatus `json:"status"`
	Featured      bool           `json:"featured"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type BusinessAddress struct {
	ID            int64     `json:"id"`
	BusinessID    int64     `json:"business_id"`
	StreetAddress string    `json:"street_address"`
	City          string    `json:"city"`
	State         string    `json:"state"`
	PostalCode    string    `json:"postal_code"`
	Country       string    `json:"country"`
	Latitude      *float64  `json:"latitude,omitempty"`
	Longitude     *float64  `json:"longitude,omitempty"`
	IsPrimary     bool      `json:"is_primary"`
	CreatedAt     time.Time `json:"created_at"`
}

type BusinessHours struct {
	ID         int64     `json:"id"`
	BusinessID int64     `json:"business_id"`
	DayOfWeek  DayOfWeek `json:"day_of_week"`
	OpenTime   string    `json:"open_time,omitempty"`
	CloseTime  string    `json:"close_time,omitempty"`
	IsOpen     bool      `json:"is_open"`
	CreatedAt  time.Time `json:"created_at"`
}

type BusinessCreateRequest struct {
	Name          string       `json:"name"`
	Type          BusinessType `json:"type"`
	Description   string       `json:"description,omitempty"`
	Phone         string       `json:"phone,omitempty"`
	Email         string       `json:"email,omitempty"`
	Website       string       `json:"website,omitempty"`
	TaxID         string       `json:"tax_id,omitempty"`
	LicenseNumber string       `json:"license_number,omitempty"`
}

func (r *BusinessCreateRequest) Validate() error {
	if r.Name == "" {
		return Invalidf("business name is required")
	}
	if r.Type == "" {
		return Invalidf("business type is required")
	}
	return nil
}

type BusinessPatch struct {
	Name          *string         `json:"name,omitempty"`
	Type          *BusinessType   `json:"type,omitempty"`
	Description   *string         `json:"description,omitempty"`
	Phone         *string         `json:"phone,omitempty"`
	Email         *string         `json:"email,omitempty"`
	Website       *string         `json:"website,omitempty"`
	TaxID         *string         `json:"tax_id,omitempty"`
	LicenseNumber *string         `json:"license_number,omitempty"`
	Status        *BusinessStatus `json:"status,omitempty"`
	Featured      *bool           `json:"featured,omitempty"`
}

// BusinessFilter narrows the public business listing.
type BusinessFilter struct {
	Search    string
	Type      BusinessType
	Featured  *bool
	MinRating *float64
}

type BusinessAddressCreateRequest struct {
	StreetAddress string   `json:"street_address"`
	City          string   `json:"city"`
	State         string   `json:"state"`
	PostalCode    string   `json:"postal_code"`
	Country       string   `json:"country"`
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`
	IsPrimary     bool     `json:"is_primary"`
}

type BusinessAddressPatch struct {
	StreetAddress *string  `json:"street_address,omitempty"`
	City          *string  `json:"city,omitempty"`
	State         *string  `json:"state,omitempty"`
	PostalCode    *string  `json:"postal_code,omitempty"`
	Country       *string  `json:"country,omitempty"`
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`
	IsPrimary     *bool    `json:"is_primary,omitempty"`
}

type BusinessHoursUpsertRequest struct {
	DayOfWeek DayOfWeek `json:"day_of_week"`
	OpenTime  string    `json:"open_time,omitempty"`
	CloseTime string    `json:"close_time,omitempty"`
	IsOpen    bool      `json:"is_open"`
}
