package domain

import "time"

type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotBlocked   SlotStatus = "blocked"
	SlotFull      SlotStatus = "full"
)

type AvailabilityTemplate struct {
	ID           int64     `json:"id"`
	ServiceID    *int64    `json:"service_id,omitempty"`
	ResourceID   *int64    `json:"resource_id,omitempty"`
	DayOfWeek    DayOfWeek `json:"day_of_week"`
	StartTime    string    `json:"start_time"`
	EndTime      string    `json:"end_time"`
	SlotDuration int       `json:"slot_duration"`
	MaxBookings  int       `json:"max_bookings"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

type AvailabilitySlot struct {
	ID             int64      `json:"id"`
	ServiceID      *int64     `json:"service_id,omitempty"`
	ResourceID     *int64     `json:"resource_id,omitempty"`
	StartDatetime  time.Time  `json:"start_datetime"`
	EndDatetime    time.Time  `json:"end_datetime"`
	AvailableSpots int        `json:"available_spots"`
	BookedSpots    int        `json:"booked_spots"`
	PriceOverride  *float64   `json:"price_override,omitempty"`
	Status         SlotStatus `json:"status"`
	Notes          string     `json:"notes,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

type BlockedTime struct {
	ID            int64     `json:"id"`
	BusinessID    *int64    `json:"business_id,omitempty"`
	ServiceID     *int64    `json:"service_id,omitempty"`
	ResourceID    *int64    `json:"resource_id,omitempty"`
	StartDatetime time.Time `json:"start_datetime"`
	EndDatetime   time.Time `json:"end_datetime"`
	Reason        string    `json:"reason,omitempty"`
	BlockType     string    `json:"block_type"`
	CreatedBy     int64     `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

type TemplateCreateRequest struct {
	ServiceID    *int64    `json:"service_id,omitempty"`
	ResourceID   *int64    `json:"resource_id,omitempty"`
	DayOfWeek    DayOfWeek `json:"day_of_week"`
	StartTime    string    `json:"start_time"`
	EndTime      string    `json:"end_time"`
	SlotDuration int       `json:"slot_duration"`
	MaxBookings  int       `json:"max_bookings"`
}

func (r *TemplateCreateRequest) Validate() error {
	if r.ServiceID == nil && r.ResourceID == nil {
		return Invalidf("a template must target a service or a resource")
	}
	if _, ok := ParseDayOfWeek(string(r.DayOfWeek)); !ok {
		return Invalidf("invalid day of week %q", r.DayOfWeek)
	}
	if r.StartTime == "" || r.EndTime == "" {
		return Invalidf("start and end time are required")
	}
	if r.SlotDuration <= 0 {
		r.SlotDuration = 60
	}
	if r.MaxBookings <= 0 {
		r.MaxBookings = 1
	}
	return nil
}

type TemplatePatch struct {
	DayOfWeek    *DayOfWeek `json:"day_of_week,omitempty"`
	StartTime    *string    `json:"start_time,omitempty"`
	EndTime      *string    `json:"end_time,omitempty"`
	SlotDuration *int       `json:"slot_duration,omitempty"`
	MaxBookings  *int       `json:"max_bookings,omitempty"`
	IsActive     *bool      `json:"is_active,omitempty"`
}

type SlotCreateRequest struct {
	ServiceID      *int64    `json:"service_id,omitempty"`
	ResourceID     *int64    `json:"resource_id,omitempty"`
	StartDatetime  time.Time `json:"start_datetime"`
	EndDatetime    time.Time `json:"end_datetime"`
	AvailableSpots int       `json:"available_spots"`
	PriceOverride  *float64  `json:"price_override,omitempty"`
	Notes          string    `json:"notes,omitempty"`
}

func (r *SlotCreateRequest) Validate() error {
	if r.ServiceID == nil && r.ResourceID == nil {
		return Invalidf("a slot must target a service or a resource")
	}
	if !r.EndDatetime.After(r.StartDatetime) {
		return Invalidf("slot end must be after start")
	}
	if r.AvailableSpots <= 0 {
		r.AvailableSpots = 1
	}
	return nil
}

type SlotPatch struct {
	StartDatetime  *time.Time  `json:"start_datetime,omitempty"`
	EndDatetime    *time.Time  `json:"end_datetime,omitempty"`
	AvailableSpots *int        `json:"available_spots,omitempty"`
	PriceOverride  *float64    `json:"price_override,omitempty"`
	Status         *SlotStatus `json:"status,omitempty"`
	Notes          *string     `json:"notes,omitempty"`
}

type SlotFilter struct {
	ServiceID  *int64
	ResourceID *int64
	From       *time.Time
	To         *time.Time
	Status     SlotStatus
}

type BlockedTimeCreateRequest struct {
	BusinessID    *int64    `json:"business_id,omitempty"`
	ServiceID     *int64    `json:"service_id,omitempty"`
	ResourceID    *int64    `json:"resource_id,omitempty"`
	StartDatetime time.Time `json:"start_datetime"`
	EndDatetime   time.Time `json:"end_datetime"`
	Reason        string    `json:"reason,omitempty"`
	BlockType     string    `json:"block_type,omitempty"`
}

func (r *BlockedTimeCreateRequest) Validate() error {
	if r.BusinessID == nil && r.ServiceID == nil && r.ResourceID == nil {
		return Invalidf("a blocked time must target a business, service or resource")
	}
	if !r.EndDatetime.After(r.StartDatetime) {
		return Invalidf("blocked time end must be after start")
	}
	if r.BlockType == "" {
		r.BlockType = "other"
	}
	return nil
}

type BlockedTimePatch struct {
	StartDatetime *time.Time `json:"start_datetime,omitempty"`
	EndDatetime   *time.Time `json:"end_datetime,omitempty"`
	Reason        *string    `json:"reason,omitempty"`
	BlockType     *string    `json:"block_type,omitempty"`
}

type BlockedTimeFilter struct {
	BusinessID *int64
	ServiceID  *int64
	ResourceID *int64
	From       *time.Time
	To         *time.Time
}
