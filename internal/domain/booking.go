package domain

import "time"

type BookingStatus string

const (
	BookingPending    BookingStatus = "pending"
	BookingConfirmed  BookingStatus = "confirmed"
	BookingInProgress BookingStatus = "in_progress"
	BookingCompleted  BookingStatus = "completed"
	BookingCancelled  BookingStatus = "cancelled"
	BookingNoShow     BookingStatus = "no_show"
)

func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch BookingStatus(s) {
	case BookingPending, BookingConfirmed, BookingInProgress, BookingCompleted, BookingCancelled, BookingNoShow:
		return BookingStatus(s), true
	default:
		return "", false
	}
}

// IsTerminal reports whether no further mutation of the booking is allowed.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingCompleted || s == BookingCancelled || s == BookingNoShow
}

type PaymentState string

const (
	PaymentStatePending  PaymentState = "pending"
	PaymentStatePartial  PaymentState = "partial"
	PaymentStatePaid     PaymentState = "paid"
	PaymentStateRefunded PaymentState = "refunded"
	PaymentStateFailed   PaymentState = "failed"
)

type Booking struct {
	ID                 int64         `json:"id"`
	Reference          string        `json:"reference"`
	UserID             int64         `json:"user_id"`
	BusinessID         int64         `json:"business_id"`
	ServiceID          *int64        `json:"service_id,omitempty"`
	ResourceID         *int64        `json:"resource_id,omitempty"`
	SlotID             *int64        `json:"slot_id,omitempty"`
	BookingDate        time.Time     `json:"booking_date"`
	StartTime          string        `json:"start_time"`
	EndTime            string        `json:"end_time"`
	StartDatetime      time.Time     `json:"start_datetime"`
	EndDatetime        time.Time     `json:"end_datetime"`
	Participants       int           `json:"participants"`
	TotalAmount        float64       `json:"total_amount"`
	DepositAmount      float64       `json:"deposit_amount"`
	TaxAmount          float64       `json:"tax_amount"`
	DiscountAmount     float64       `json:"discount_amount"`
	FinalAmount        float64       `json:"final_amount"`
	Currency           string        `json:"currency"`
	Status             BookingStatus `json:"status"`
	PaymentStatus      PaymentState  `json:"payment_status"`
	SpecialRequests    string        `json:"special_requests,omitempty"`
	InternalNotes      string        `json:"internal_notes,omitempty"`
	ConfirmationCode   string        `json:"confirmation_code,omitempty"`
	ReminderSent       bool          `json:"reminder_sent"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
	CancelledAt        *time.Time    `json:"cancelled_at,omitempty"`
	CancelledBy        *int64        `json:"cancelled_by,omitempty"`
	CancellationReason string        `json:"cancellation_reason,omitempty"`
}

type BookingParticipant struct {
	ID                  int64     `json:"id"`
	BookingID           int64     `json:"booking_id"`
	FirstName           string    `json:"first_name"`
	LastName            string    `json:"last_name"`
	Email               string    `json:"email,omitempty"`
	Phone               string    `json:"phone,omitempty"`
	Age                 *int      `json:"age,omitempty"`
	SpecialRequirements string    `json:"special_requirements,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}

// BookingHistory is an append-only audit record of a status transition.
type BookingHistory struct {
	ID        int64     `json:"id"`
	BookingID int64     `json:"booking_id"`
	OldStatus string    `json:"old_status,omitempty"`
	NewStatus string    `json:"new_status"`
	ChangedBy int64     `json:"changed_by"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type BookingCreateRequest struct {
	BusinessID      int64   `json:"business_id"`
	ServiceID       *int64  `json:"service_id,omitempty"`
	ResourceID      *int64  `json:"resource_id,omitempty"`
	SlotID          *int64  `json:"slot_id,omitempty"`
	BookingDate     string  `json:"booking_date"`
	StartTime       string  `json:"start_time"`
	EndTime         string  `json:"end_time"`
	Participants    int     `json:"participants"`
	TotalAmount     float64 `json:"total_amount"`
	SpecialRequests string  `json:"special_requests,omitempty"`
}

func (r *BookingCreateRequest) Validate() error {
	if r.BusinessID == 0 {
		return Invalidf("business_id is required")
	}
	if r.BookingDate == "" || r.StartTime == "" || r.EndTime == "" {
		return Invalidf("booking date, start time and end time are required")
	}
	if r.Participants <= 0 {
		r.Participants = 1
	}
	if r.TotalAmount < 0 {
		return Invalidf("total amount cannot be negative")
	}
	return nil
}

type BookingPatch struct {
	BookingDate     *string        `json:"booking_date,omitempty"`
	StartTime       *string        `json:"start_time,omitempty"`
	EndTime         *string        `json:"end_time,omitempty"`
	Participants    *int           `json:"participants,omitempty"`
	Status          *BookingStatus `json:"status,omitempty"`
	SpecialRequests *string        `json:"special_requests,omitempty"`
	InternalNotes   *string        `json:"internal_notes,omitempty"`
	ChangeReason    string         `json:"change_reason,omitempty"`
}

type BookingCancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

type BookingFilter struct {
	Status *BookingStatus
	From   *time.Time
	To     *time.Time
}

type ParticipantCreateRequest struct {
	BookingID           int64  `json:"booking_id"`
	FirstName           string `json:"first_name"`
	LastName            string `json:"last_name"`
	Email               string `json:"email,omitempty"`
	Phone               string `json:"phone,omitempty"`
	Age                 *int   `json:"age,omitempty"`
	SpecialRequirements string `json:"special_requirements,omitempty"`
}

func (r *ParticipantCreateRequest) Validate() error {
	if r.BookingID == 0 {
		return Invalidf("booking_id is required")
	}
	if r.FirstName == "" || r.LastName == "" {
		return Invalidf("participant first and last name are required")
	}
	return nil
}

type ParticipantPatch struct {
	FirstName           *string `json:"first_name,omitempty"`
	LastName            *string `json:"last_name,omitempty"`
	Email               *string `json:"email,omitempty"`
	Phone               *string `json:"phone,omitempty"`
	Age                 *int    `json:"age,omitempty"`
	SpecialRequirements *string `json:"special_requirements,omitempty"`
}
