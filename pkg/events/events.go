package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/bookline/bookline-api/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	ID        string
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
			ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		})
	})
	return err
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
			ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		})
	})
	return err
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

// Event types and subjects
const (
	// Booking events
	BookingCreated   = "booking.created"
	BookingUpdated   = "booking.updated"
	BookingCancelled = "booking.cancelled"
	BookingCompleted = "booking.completed"

	// Payment events
	PaymentCompleted = "payment.completed"
	PaymentRefunded  = "payment.refunded"
	PaymentFailed    = "payment.failed"

	// Review events
	ReviewSubmitted = "review.submitted"
	ReviewModerated = "review.moderated"

	// Promotion events
	PromotionApplied = "promotion.applied"

	// Notification events
	NotifySend = "notify.send"
)

// Event payloads
type BookingCreatedEvent struct {
	BookingID    int64     `json:"booking_id"`
	Reference    string    `json:"reference"`
	UserID       int64     `json:"user_id"`
	BusinessID   int64     `json:"business_id"`
	StartAt      time.Time `json:"start_at"`
	EndAt        time.Time `json:"end_at"`
	Participants int       `json:"participants"`
	FinalAmount  float64   `json:"final_amount"`
	CreatedAt    time.Time `json:"created_at"`
}

type BookingUpdatedEvent struct {
	BookingID int64     `json:"booking_id"`
	Reference string    `json:"reference"`
	Changes   []string  `json:"changes"`
	UpdatedAt time.Time `json:"updated_at"`
}

type BookingCancelledEvent struct {
	BookingID   int64     `json:"booking_id"`
	Reference   string    `json:"reference"`
	CancelledBy int64     `json:"cancelled_by"`
	Reason      string    `json:"reason"`
	CancelledAt time.Time `json:"cancelled_at"`
}

type PaymentCompletedEvent struct {
	PaymentID   int64     `json:"payment_id"`
	BookingID   int64     `json:"booking_id"`
	Reference   string    `json:"reference"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	Gateway     string    `json:"gateway"`
	ProcessedAt time.Time `json:"processed_at"`
}

type PaymentRefundedEvent struct {
	RefundID   int64     `json:"refund_id"`
	PaymentID  int64     `json:"payment_id"`
	BookingID  int64     `json:"booking_id"`
	Amount     float64   `json:"amount"`
	Reason     string    `json:"reason"`
	RefundedAt time.Time `json:"refunded_at"`
}

type ReviewSubmittedEvent struct {
	ReviewID   int64     `json:"review_id"`
	BookingID  int64     `json:"booking_id"`
	BusinessID int64     `json:"business_id"`
	Rating     int       `json:"rating"`
	CreatedAt  time.Time `json:"created_at"`
}

type PromotionAppliedEvent struct {
	PromotionID    int64   `json:"promotion_id"`
	BookingID      int64   `json:"booking_id"`
	UserID         int64   `json:"user_id"`
	Code           string  `json:"code"`
	DiscountAmount float64 `json:"discount_amount"`
}

type NotificationEvent struct {
	Type      string                 `json:"type"`
	Recipient string                 `json:"recipient"`
	Subject   string                 `json:"subject"`
	Template  string                 `json:"template"`
	Data      map[string]interface{} `json:"data"`
}
