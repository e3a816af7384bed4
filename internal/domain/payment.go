package domain

import "time"

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentRefunded   PaymentStatus = "refunded"
	PaymentFailed     PaymentStatus = "failed"
)

func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	switch PaymentStatus(s) {
	case PaymentPending, PaymentProcessing, PaymentCompleted, PaymentRefunded, PaymentFailed:
		return PaymentStatus(s), true
	default:
		return "", false
	}
}

type RefundStatus string

const (
	RefundPending   RefundStatus = "pending"
	RefundCompleted RefundStatus = "completed"
	RefundFailed    RefundStatus = "failed"
)

type PaymentMethod struct {
	ID               int64     `json:"id"`
	UserID           int64     `json:"user_id"`
	MethodType       string    `json:"method_type"`
	CardLastFour     string    `json:"card_last_four,omitempty"`
	CardBrand        string    `json:"card_brand,omitempty"`
	CardExpiryMonth  *int      `json:"card_expiry_month,omitempty"`
	CardExpiryYear   *int      `json:"card_expiry_year,omitempty"`
	BillingAddressID *int64    `json:"billing_address_id,omitempty"`
	IsDefault        bool      `json:"is_default"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
}

type Payment struct {
	ID              int64         `json:"id"`
	BookingID       int64         `json:"booking_id"`
	Reference       string        `json:"reference"`
	PaymentMethodID *int64        `json:"payment_method_id,omitempty"`
	Amount          float64       `json:"amount"`
	Currency        string        `json:"currency"`
	PaymentType     string        `json:"payment_type"`
	Status          PaymentStatus `json:"status"`
	Gateway         string        `json:"gateway,omitempty"`
	GatewayTxID     string        `json:"gateway_transaction_id,omitempty"`
	ProcessedAt     *time.Time    `json:"processed_at,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

type Refund struct {
	ID              int64        `json:"id"`
	PaymentID       int64        `json:"payment_id"`
	Reference       string       `json:"reference"`
	Amount          float64      `json:"amount"`
	Reason          string       `json:"reason,omitempty"`
	Status          RefundStatus `json:"status"`
	GatewayRefundID string       `json:"gateway_refund_id,omitempty"`
	ProcessedBy     *int64       `json:"processed_by,omitempty"`
	ProcessedAt     *time.Time   `json:"processed_at,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}

type PaymentMethodCreateRequest struct {
	MethodType       string `json:"method_type"`
	CardLastFour     string `json:"card_last_four,omitempty"`
	CardBrand        string `json:"card_brand,omitempty"`
	CardExpiryMonth  *int   `json:"card_expiry_month,omitempty"`
	CardExpiryYear   *int   `json:"card_expiry_year,omitempty"`
	BillingAddressID *int64 `json:"billing_address_id,omitempty"`
	IsDefault        bool   `json:"is_default"`
}

func (r *PaymentMethodCreateRequest) Validate() error {
	if r.MethodType == "" {
		return Invalidf("method type is required")
	}
	return nil
}

type PaymentMethodPatch struct {
	CardExpiryMonth  *int   `json:"card_expiry_month,omitempty"`
	CardExpiryYear   *int   `json:"card_expiry_year,omitempty"`
	BillingAddressID *int64 `json:"billing_address_id,omitempty"`
	IsDefault        *bool  `json:"is_default,omitempty"`
}

type PaymentCreateRequest struct {
	BookingID       int64   `json:"booking_id"`
	PaymentMethodID *int64  `json:"payment_method_id,omitempty"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency,omitempty"`
	PaymentType     string  `json:"payment_type,omitempty"`
	Gateway         string  `json:"gateway,omitempty"`
}

func (r *PaymentCreateRequest) Validate() error {
	if r.BookingID == 0 {
		return Invalidf("booking_id is required")
	}
	if r.Amount <= 0 {
		return Invalidf("payment amount must be positive")
	}
	if r.Currency == "" {
		r.Currency = "USD"
	}
	if r.PaymentType == "" {
		r.PaymentType = "booking"
	}
	return nil
}

type PaymentPatch struct {
	Status      *PaymentStatus `json:"status,omitempty"`
	GatewayTxID *string        `json:"gateway_transaction_id,omitempty"`
}

type PaymentFilter struct {
	BookingID *int64
	Status    PaymentStatus
}

type RefundCreateRequest struct {
	PaymentID int64   `json:"payment_id"`
	Amount    float64 `json:"amount"`
	Reason    string  `json:"reason,omitempty"`
}

func (r *RefundCreateRequest) Validate() error {
	if r.PaymentID == 0 {
		return Invalidf("payment_id is required")
	}
	if r.Amount <= 0 {
		return Invalidf("refund amount must be positive")
	}
	return nil
}

type RefundPatch struct {
	Status *RefundStatus `json:"status,omitempty"`
	Reason *string       `json:"reason,omitempty"`
}

type RefundFilter struct {
	PaymentID *int64
	Status    RefundStatus
}
