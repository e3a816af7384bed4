package domain

import "time"

type ResourceType string

const (
	ResourceRoom      ResourceType = "room"
	ResourceTable     ResourceType = "table"
	ResourceEquipment ResourceType = "equipment"
	ResourceVehicle   ResourceType = "vehicle"
	ResourcePerson    ResourceType = "person"
	ResourceOther     ResourceType = "other"
)

type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	ParentID    *int64    `json:"parent_id,omitempty"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	IsActive    bool      `json:"is_active"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
}

type Service struct {
	ID                  int64     `json:"id"`
	BusinessID          int64     `json:"business_id"`
	CategoryID          *int64    `json:"category_id,omitempty"`
	Name                string    `json:"name"`
	Description         string    `json:"description,omitempty"`
	DurationMinutes     int       `json:"duration_minutes"`
	BasePrice           float64   `json:"base_price"`
	MaxCapacity         int       `json:"max_capacity"`
	AdvanceBookingHours int       `json:"advance_booking_hours"`
	CancellationHours   int       `json:"cancellation_hours"`
	ImageURL            string    `json:"image_url,omitempty"`
	IsActive            bool      `json:"is_active"`
	RequiresApproval    bool      `json:"requires_approval"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

type ServicePricing struct {
	ID              int64     `json:"id"`
	ServiceID       int64     `json:"service_id"`
	Name            string    `json:"name"`
	Price           float64   `json:"price"`
	DurationMinutes *int      `json:"duration_minutes,omitempty"`
	MaxParticipants int       `json:"max_participants"`
	Description     string    `json:"description,omitempty"`
	IsDefault       bool      `json:"is_default"`
	CreatedAt       time.Time `json:"created_at"`
}

type Resource struct {
	ID          int64        `json:"id"`
	BusinessID  int64        `json:"business_id"`
	Name        string       `json:"name"`
	Type        ResourceType `json:"type"`
	Capacity    int          `json:"capacity"`
	Description string       `json:"description,omitempty"`
	HourlyRate  *float64     `json:"hourly_rate,omitempty"`
	DailyRate   *float64     `json:"daily_rate,omitempty"`
	IsActive    bool         `json:"is_active"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

type CategoryCreateRequest struct {
	Name        string `json:"name"`
	ParentID    *int64 `json:"parent_id,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	SortOrder   int    `json:"sort_order"`
}

func (r *CategoryCreateRequest) Validate() error {
	if r.Name == "" {
		return Invalidf("category name is required")
	}
	return nil
}

type CategoryPatch struct {
	Name        *string `json:"name,omitempty"`
	ParentID    *int64  `json:"parent_id,omitempty"`
	Description *string `json:"description,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
	SortOrder   *int    `json:"sort_order,omitempty"`
}

type ServiceCreateRequest struct {
	BusinessID          int64   `json:"business_id"`
	CategoryID          *int64  `json:"category_id,omitempty"`
	Name                string  `json:"name"`
	Description         string  `json:"description,omitempty"`
	DurationMinutes     int     `json:"duration_minutes"`
	BasePrice           float64 `json:"base_price"`
	MaxCapacity         int     `json:"max_capacity"`
	AdvanceBookingHours int     `json:"advance_booking_hours"`
	CancellationHours   int     `json:"cancellation_hours"`
	ImageURL            string  `json:"image_url,omitempty"`
	RequiresApproval    bool    `json:"requires_approval"`
}

func (r *ServiceCreateRequest) Validate() error {
	if r.Name == "" {
		return Invalidf("service name is required")
	}
	if r.BasePrice < 0 {
		return Invalidf("base price cannot be negative")
	}
	if r.DurationMinutes <= 0 {
		r.DurationMinutes = 60
	}
	if r.MaxCapacity <= 0 {
		r.MaxCapacity = 1
	}
	return nil
}

type ServicePatch struct {
	CategoryID          *int64   `json:"category_id,omitempty"`
	Name                *string  `json:"name,omitempty"`
	Description         *string  `json:"description,omitempty"`
	DurationMinutes     *int     `json:"duration_minutes,omitempty"`
	BasePrice           *float64 `json:"base_price,omitempty"`
	MaxCapacity         *int     `json:"max_capacity,omitempty"`
	AdvanceBookingHours *int     `json:"advance_booking_hours,omitempty"`
	CancellationHours   *int     `json:"cancellation_hours,omitempty"`
	ImageURL            *string  `json:"image_url,omitempty"`
	IsActive            *bool    `json:"is_active,omitempty"`
	RequiresApproval    *bool    `json:"requires_approval,omitempty"`
}

type ServiceFilter struct {
	BusinessID *int64
	CategoryID *int64
	Search     string
	MinPrice   *float64
	MaxPrice   *float64
	ActiveOnly bool
}

type PricingCreateRequest struct {
	ServiceID       int64   `json:"service_id"`
	Name            string  `json:"name"`
	Price           float64 `json:"price"`
	DurationMinutes *int    `json:"duration_minutes,omitempty"`
	MaxParticipants int     `json:"max_participants"`
	Description     string  `json:"description,omitempty"`
	IsDefault       bool    `json:"is_default"`
}

type PricingPatch struct {
	Name            *string  `json:"name,omitempty"`
	Price           *float64 `json:"price,omitempty"`
	DurationMinutes *int     `json:"duration_minutes,omitempty"`
	MaxParticipants *int     `json:"max_participants,omitempty"`
	Description     *string  `json:"description,omitempty"`
	IsDefault       *bool    `json:"is_default,omitempty"`
}

type ResourceCreateRequest struct {
	BusinessID  int64        `json:"business_id"`
	Name        string       `json:"name"`
	Type        ResourceType `json:"type"`
	Capacity    int          `json:"capacity"`
	Description string       `json:"description,omitempty"`
	HourlyRate  *float64     `json:"hourly_rate,omitempty"`
	DailyRate   *float64     `json:"daily_rate,omitempty"`
}

func (r *ResourceCreateRequest) Validate() error {
	if r.Name == "" {
		return Invalidf("resource name is required")
	}
	if r.Type == "" {
		return Invalidf("resource type is required")
	}
	if r.Capacity <= 0 {
		r.Capacity = 1
	}
	return nil
}

type ResourcePatch struct {
	Name        *string       `json:"name,omitempty"`
	Type        *ResourceType `json:"type,omitempty"`
	Capacity    *int          `json:"capacity,omitempty"`
	Description *string       `json:"description,omitempty"`
	HourlyRate  *float64      `json:"hourly_rate,omitempty"`
	DailyRate   *float64      `json:"daily_rate,omitempty"`
	IsActive    *bool         `json:"is_active,omitempty"`
}

type ResourceFilter struct {
	BusinessID *int64
	Type       ResourceType
	ActiveOnly bool
}
