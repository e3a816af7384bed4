package domain

import "time"

type DiscountType string

const (
	DiscountPercentage  DiscountType = "percentage"
	DiscountFixedAmount DiscountType = "fixed_amount"
	DiscountFreeService DiscountType = "free_service"
)

type PromotionStatus string

const (
	PromotionActive   PromotionStatus = "active"
	PromotionInactive PromotionStatus = "inactive"
	PromotionExpired  PromotionStatus = "expired"
)

type Promotion struct {
	ID              int64           `json:"id"`
	BusinessID      *int64          `json:"business_id,omitempty"`
	Code            string          `json:"code"`
	Title           string          `json:"title"`
	Description     string          `json:"description,omitempty"`
	DiscountType    DiscountType    `json:"discount_type"`
	DiscountValue   float64         `json:"discount_value"`
	MinimumAmount   float64         `json:"minimum_amount"`
	MaximumDiscount *float64        `json:"maximum_discount,omitempty"`
	UsageLimit      *int            `json:"usage_limit,omitempty"`
	UsageCount      int             `json:"usage_count"`
	PerUserLimit    int             `json:"per_user_limit"`
	ValidFrom       time.Time       `json:"valid_from"`
	ValidUntil      time.Time       `json:"valid_until"`
	Status          PromotionStatus `json:"status"`
	CreatedBy       int64           `json:"created_by"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type PromotionUsage struct {
	ID             int64     `json:"id"`
	PromotionID    int64     `json:"promotion_id"`
	UserID         int64     `json:"user_id"`
	BookingID      int64     `json:"booking_id"`
	DiscountAmount float64   `json:"discount_amount"`
	UsedAt         time.Time `json:"used_at"`
}

type PromotionCreateRequest struct {
	BusinessID      *int64       `json:"business_id,omitempty"`
	Code            string       `json:"code"`
	Title           string       `json:"title"`
	Description     string       `json:"description,omitempty"`
	DiscountType    DiscountType `json:"discount_type"`
	DiscountValue   float64      `json:"discount_value"`
	MinimumAmount   float64      `json:"minimum_amount"`
	MaximumDiscount *float64     `json:"maximum_discount,omitempty"`
	UsageLimit      *int         `json:"usage_limit,omitempty"`
	PerUserLimit    int          `json:"per_user_limit"`
	ValidFrom       time.Time    `json:"valid_from"`
	ValidUntil      time.Time    `json:"valid_until"`
}

func (r *PromotionCreateRequest) Validate() error {
	if r.Code == "" {
		return Invalidf("promotion code is required")
	}
	if r.Title == "" {
		return Invalidf("promotion title is required")
	}
	switch r.DiscountType {
	case DiscountPercentage:
		if r.DiscountValue <= 0 || r.DiscountValue > 100 {
			return Invalidf("percentage discount must be between 0 and 100")
		}
	case DiscountFixedAmount, DiscountFreeService:
		if r.DiscountValue < 0 {
			return Invalidf("discount value cannot be negative")
		}
	default:
		return Invalidf("invalid discount type %q", r.DiscountType)
	}
	if !r.ValidUntil.After(r.ValidFrom) {
		return Invalidf("valid_until must be after valid_from")
	}
	if r.PerUserLimit <= 0 {
		r.PerUserLimit = 1
	}
	return nil
}

type PromotionPatch struct {
	Title           *string          `json:"title,omitempty"`
	Description     *string          `json:"description,omitempty"`
	DiscountValue   *float64         `json:"discount_value,omitempty"`
	MinimumAmount   *float64         `json:"minimum_amount,omitempty"`
	MaximumDiscount *float64         `json:"maximum_discount,omitempty"`
	UsageLimit      *int             `json:"usage_limit,omitempty"`
	PerUserLimit    *int             `json:"per_user_limit,omitempty"`
	ValidFrom       *time.Time       `json:"valid_from,omitempty"`
	ValidUntil      *time.Time       `json:"valid_until,omitempty"`
	Status          *PromotionStatus `json:"status,omitempty"`
}

type PromotionValidateRequest struct {
	Code       string  `json:"code"`
	BusinessID *int64  `json:"business_id,omitempty"`
	Amount     float64 `json:"amount"`
}

// PromotionValidateResponse reports validity without side effects. When the
// code is rejected, ErrorMessage carries the human-readable reason.
type PromotionValidateResponse struct {
	IsValid        bool       `json:"is_valid"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	Promotion      *Promotion `json:"promotion,omitempty"`
	DiscountAmount float64    `json:"discount_amount,omitempty"`
}

type PromotionApplyRequest struct {
	PromotionID    int64   `json:"promotion_id"`
	BookingID      int64   `json:"booking_id"`
	DiscountAmount float64 `json:"discount_amount"`
}
