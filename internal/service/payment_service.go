package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bookline/bookline-api/internal/domain"
	"github.com/bookline/bookline-api/internal/platform/mailer"
	"github.com/bookline/bookline-api/internal/platform/payments"
	"github.com/bookline/bookline-api/internal/repo/postgres"
	"github.com/bookline/bookline-api/pkg/events"
	"github.com/bookline/bookline-api/pkg/logger"
)

type PaymentService interface {
	CreateMethod(ctx context.Context, actor *domain.Actor, req *domain.PaymentMethodCreateRequest) (*domain.PaymentMethod, error)
	ListMethods(ctx context.Context, actor *domain.Actor) ([]domain.PaymentMethod, error)
	UpdateMethod(ctx context.Context, actor *domain.Actor, methodID int64, patch domain.PaymentMethodPatch) (*domain.PaymentMethod, error)
	DeactivateMethod(ctx context.Context, actor *domain.Actor, methodID int64) error

	CreatePayment(ctx context.Context, actor *domain.Actor, req *domain.PaymentCreateRequest) (*domain.Payment, error)
	GetPayment(ctx context.Context, actor *domain.Actor, id int64) (*domain.Payment, error)
	ListPaymentsByBooking(ctx context.Context, actor *domain.Actor, bookingID int64) ([]domain.Payment, error)
	UpdatePayment(ctx context.Context, actor *domain.Actor, id int64, patch domain.PaymentPatch) (*domain.Payment, error)

	CreateRefund(ctx context.Context, actor *domain.Actor, req *domain.RefundCreateRequest) (*domain.Refund, error)
	ListRefundsByPayment(ctx context.Context, actor *domain.Actor, paymentID int64) ([]domain.Refund, error)
	CompleteRefund(ctx context.Context, actor *domain.Actor, refundID int64) (*domain.Refund, error)
}

type paymentService struct {
	paymentRepo postgres.PaymentRepository
	bookingRepo postgres.BookingRepository
	userRepo    postgres.UserRepository
	gateway     payments.Gateway
	eventBus    events.Publisher
	mailer      mailer.Mailer
}

func NewPaymentService(
	paymentRepo postgres.PaymentRepository,
	bookingRepo postgres.BookingRepository,
	userRepo postgres.UserRepository,
	gateway payments.Gateway,
	eventBus events.Publisher,
	mail mailer.Mailer,
) PaymentService {
	return &paymentService{
		paymentRepo: paymentRepo,
		bookingRepo: bookingRepo,
		userRepo:    userRepo,
		gateway:     gateway,
		eventBus:    eventBus,
		mailer:      mail,
	}
}

func newPaymentReference() string {
	return "PAY" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:12]
}

func newRefundReference() string {
	return "REF" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:12]
}

func (s *paymentService) CreateMethod(ctx context.Context, actor *domain.Actor, req *domain.PaymentMethodCreateRequest) (*domain.PaymentMethod, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	method, err := s.paymentRepo.CreateMethod(ctx, actor.ID(), req)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment method: %w", err)
	}
	return method, nil
}

func (s *paymentService) ListMethods(ctx context.Context, actor *domain.Actor) ([]domain.PaymentMethod, error) {
	return s.paymentRepo.ListMethods(ctx, actor.ID())
}

func (s *paymentService) UpdateMethod(ctx context.Context, actor *domain.Actor, methodID int64, patch domain.PaymentMethodPatch) (*domain.PaymentMethod, error) {
	method, err := s.paymentRepo.UpdateMethod(ctx, actor.ID(), methodID, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update payment method: %w", err)
	}
	if method == nil {
		return nil, domain.NotFoundf("payment method %d", methodID)
	}
	return method, nil
}

func (s *paymentService) DeactivateMethod(ctx context.Context, actor *domain.Actor, methodID int64) error {
	ok, err := s.paymentRepo.DeactivateMethod(ctx, actor.ID(), methodID)
	if err != nil {
		return fmt.Errorf("failed to deactivate payment method: %w", err)
	}
	if !ok {
		return domain.NotFoundf("payment method %d", methodID)
	}
	return nil
}

// bookingForPayment loads the booking behind a payment operation and applies
// the shared authorization matrix.
func (s *paymentService) bookingForPayment(ctx context.Context, actor *domain.Actor, bookingID int64) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if booking == nil {
		return nil, domain.NotFoundf("booking %d", bookingID)
	}
	if !actor.CanManageBooking(booking) {
		return nil, domain.Forbiddenf("not allowed to manage payments for booking %d", bookingID)
	}
	return booking, nil
}

// recomputePaymentStatus re-derives the booking's aggregate payment state
// from a fresh SUM over its completed payments.
func (s *paymentService) recomputePaymentStatus(ctx context.Context, booking *domain.Booking) error {
	paid, err := s.paymentRepo.SumCompletedForBooking(ctx, booking.ID)
	if err != nil {
		return fmt.Errorf("failed to sum payments: %w", err)
	}

	state := domain.PaymentStatePending
	switch {
	case paid >= booking.FinalAmount && booking.FinalAmount > 0:
		state = domain.PaymentStatePaid
	case paid > 0:
		state = domain.PaymentStatePartial
	}

	if err := s.bookingRepo.SetPaymentStatus(ctx, booking.ID, state); err != nil {
		return fmt.Errorf("failed to set booking payment status: %w", err)
	}
	return nil
}

func (s *paymentService) CreatePayment(ctx context.Context, actor *domain.Actor, req *domain.PaymentCreateRequest) (*domain.Payment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	booking, err := s.bookingForPayment(ctx, actor, req.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status.IsTerminal() && booking.Status != domain.BookingCompleted {
		return nil, domain.Terminalf("booking %d is %s", booking.ID, booking.Status)
	}

	// A payment method, when given, must belong to the booking's customer.
	if req.PaymentMethodID != nil {
		method, err := s.paymentRepo.GetMethod(ctx, booking.UserID, *req.PaymentMethodID)
		if err != nil {
			return nil, fmt.Errorf("failed to load payment method: %w", err)
		}
		if method == nil || !method.IsActive {
			return nil, domain.Invalidf("payment method %d does not belong to the booking's customer", *req.PaymentMethodID)
		}
	}

	payment, err := s.paymentRepo.CreatePayment(ctx, &domain.Payment{
		BookingID:       req.BookingID,
		Reference:       newPaymentReference(),
		PaymentMethodID: req.PaymentMethodID,
		Amount:          req.Amount,
		Currency:        req.Currency,
		PaymentType:     req.PaymentType,
		Gateway:         req.Gateway,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	// Charge through the gateway immediately. A declined charge leaves a
	// failed payment row behind rather than an error.
	txID, chargeErr := s.gateway.Charge(ctx, payment.Amount, payment.Currency,
		fmt.Sprintf("booking %s payment %s", booking.Reference, payment.Reference))
	if chargeErr != nil {
		logger.ErrorContext(ctx, "Charge failed", "error", chargeErr, "payment_id", payment.ID)
		failed, err := s.paymentRepo.MarkPaymentFailed(ctx, payment.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to mark payment failed: %w", err)
		}
		if err := s.bookingRepo.SetPaymentStatus(ctx, booking.ID, domain.PaymentStateFailed); err != nil {
			logger.ErrorContext(ctx, "Failed to set booking payment status", "error", err, "booking_id", booking.ID)
		}
		if err := s.eventBus.Publish(ctx, events.PaymentFailed, events.PaymentCompletedEvent{
			PaymentID: payment.ID,
			BookingID: booking.ID,
			Reference: payment.Reference,
			Amount:    payment.Amount,
			Currency:  payment.Currency,
			Gateway:   s.gateway.Name(),
		}); err != nil {
			logger.ErrorContext(ctx, "Failed to publish payment.failed", "error", err, "payment_id", payment.ID)
		}
		return failed, nil
	}

	completed, err := s.paymentRepo.MarkPaymentCompleted(ctx, payment.ID, txID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark payment completed: %w", err)
	}
	if err := s.recomputePaymentStatus(ctx, booking); err != nil {
		logger.ErrorContext(ctx, "Failed to recompute payment status", "error", err, "booking_id", booking.ID)
	}

	if err := s.eventBus.Publish(ctx, events.PaymentCompleted, events.PaymentCompletedEvent{
		PaymentID:   completed.ID,
		BookingID:   booking.ID,
		Reference:   completed.Reference,
		Amount:      completed.Amount,
		Currency:    completed.Currency,
		Gateway:     s.gateway.Name(),
		ProcessedAt: time.Now(),
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish payment.completed", "error", err, "payment_id", completed.ID)
	}

	logger.InfoContext(ctx, "Payment completed",
		"payment_id", completed.ID, "booking_id", booking.ID, "amount", completed.Amount)
	return completed, nil
}

func (s *paymentService) GetPayment(ctx context.Context, actor *domain.Actor, id int64) (*domain.Payment, error) {
	payment, err := s.paymentRepo.GetPayment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	if payment == nil {
		return nil, domain.NotFoundf("payment %d", id)
	}
	if _, err := s.bookingForPayment(ctx, actor, payment.BookingID); err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *paymentService) ListPaymentsByBooking(ctx context.Context, actor *domain.Actor, bookingID int64) ([]domain.Payment, error) {
	if _, err := s.bookingForPayment(ctx, actor, bookingID); err != nil {
		return nil, err
	}
	return s.paymentRepo.ListPaymentsByBooking(ctx, bookingID)
}

func (s *paymentService) UpdatePayment(ctx context.Context, actor *domain.Actor, id int64, patch domain.PaymentPatch) (*domain.Payment, error) {
	payment, err := s.paymentRepo.GetPayment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	if payment == nil {
		return nil, domain.NotFoundf("payment %d", id)
	}

	booking, err := s.bookingRepo.GetByID(ctx, payment.BookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if booking == nil {
		return nil, domain.NotFoundf("booking %d", payment.BookingID)
	}
	// Status transitions are a business-side operation.
	if !actor.CanManageBusiness(booking.BusinessID) {
		return nil, domain.Forbiddenf("not allowed to update payment %d", id)
	}
	if patch.Status != nil {
		if _, ok := domain.ParsePaymentStatus(string(*patch.Status)); !ok {
			return nil, domain.Invalidf("invalid payment status %q", *patch.Status)
		}
	}

	var updated *domain.Payment
	if patch.Status != nil && *patch.Status == domain.PaymentCompleted {
		txID := payment.GatewayTxID
		if patch.GatewayTxID != nil {
			txID = *patch.GatewayTxID
		}
		updated, err = s.paymentRepo.MarkPaymentCompleted(ctx, id, txID)
		if err != nil {
			return nil, fmt.Errorf("failed to complete payment: %w", err)
		}
		if updated == nil {
			return nil, domain.Terminalf("payment %d is %s", id, payment.Status)
		}
	} else {
		updated, err = s.paymentRepo.UpdatePayment(ctx, id, patch)
		if err != nil {
			return nil, fmt.Errorf("failed to update payment: %w", err)
		}
	}

	if err := s.recomputePaymentStatus(ctx, booking); err != nil {
		logger.ErrorContext(ctx, "Failed to recompute payment status", "error", err, "booking_id", booking.ID)
	}
	return updated, nil
}

func (s *paymentService) CreateRefund(ctx context.Context, actor *domain.Actor, req *domain.RefundCreateRequest) (*domain.Refund, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	payment, err := s.paymentRepo.GetPayment(ctx, req.PaymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	if payment == nil {
		return nil, domain.NotFoundf("payment %d", req.PaymentID)
	}

	booking, err := s.bookingRepo.GetByID(ctx, payment.BookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if booking == nil {
		return nil, domain.NotFoundf("booking %d", payment.BookingID)
	}
	if !actor.CanManageBusiness(booking.BusinessID) {
		return nil, domain.Forbiddenf("only the business owner may issue refunds")
	}

	if payment.Status != domain.PaymentCompleted && payment.Status != domain.PaymentProcessing {
		return nil, domain.Invalidf("payment %d is %s and cannot be refunded", payment.ID, payment.Status)
	}

	// The refund ceiling: this refund plus every non-failed sibling must not
	// exceed the original payment amount.
	refunded, err := s.paymentRepo.SumRefundsForPayment(ctx, payment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum refunds: %w", err)
	}
	if refunded+req.Amount > payment.Amount {
		return nil, domain.Invalidf("refund of %.2f exceeds the %.2f remaining on payment %d",
			req.Amount, payment.Amount-refunded, payment.ID)
	}

	actorID := actor.ID()
	refund, err := s.paymentRepo.CreateRefund(ctx, &domain.Refund{
		PaymentID:   payment.ID,
		Reference:   newRefundReference(),
		Amount:      req.Amount,
		Reason:      req.Reason,
		ProcessedBy: &actorID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create refund: %w", err)
	}

	gatewayRefundID, refundErr := s.gateway.Refund(ctx, payment.GatewayTxID, refund.Amount, payment.Currency)
	if refundErr != nil {
		logger.ErrorContext(ctx, "Gateway refund failed", "error", refundErr, "refund_id", refund.ID)
		return refund, nil
	}

	completed, err := s.paymentRepo.MarkRefundCompleted(ctx, refund.ID, gatewayRefundID)
	if err != nil {
		return nil, fmt.Errorf("failed to complete refund: %w", err)
	}

	if err := s.settleAfterRefund(ctx, payment, booking); err != nil {
		logger.ErrorContext(ctx, "Failed to settle after refund", "error", err, "payment_id", payment.ID)
	}

	if err := s.eventBus.Publish(ctx, events.PaymentRefunded, events.PaymentRefundedEvent{
		RefundID:   completed.ID,
		PaymentID:  payment.ID,
		BookingID:  booking.ID,
		Amount:     completed.Amount,
		Reason:     completed.Reason,
		RefundedAt: time.Now(),
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish payment.refunded", "error", err, "refund_id", completed.ID)
	}

	if customer, err := s.userRepo.GetByID(ctx, booking.UserID); err == nil && customer != nil {
		if err := s.mailer.SendRefundNotice(customer.Email, customer.FirstName, completed); err != nil {
			logger.ErrorContext(ctx, "Failed to send refund notice", "error", err, "refund_id", completed.ID)
		}
	}

	logger.InfoContext(ctx, "Refund completed",
		"refund_id", completed.ID, "payment_id", payment.ID, "amount", completed.Amount)
	return completed, nil
}

// settleAfterRefund flips a fully refunded payment to refunded and recomputes
// the booking's aggregate state from whatever payments remain.
func (s *paymentService) settleAfterRefund(ctx context.Context, payment *domain.Payment, booking *domain.Booking) error {
	refunded, err := s.paymentRepo.SumRefundsForPayment(ctx, payment.ID)
	if err != nil {
		return fmt.Errorf("failed to sum refunds: %w", err)
	}
	if refunded >= payment.Amount {
		if err := s.paymentRepo.SetPaymentStatus(ctx, payment.ID, domain.PaymentRefunded); err != nil {
			return fmt.Errorf("failed to mark payment refunded: %w", err)
		}
	}

	remaining, err := s.paymentRepo.SumCompletedForBooking(ctx, booking.ID)
	if err != nil {
		return fmt.Errorf("failed to sum payments: %w", err)
	}

	state := domain.PaymentStateRefunded
	switch {
	case remaining >= booking.FinalAmount && booking.FinalAmount > 0:
		state = domain.PaymentStatePaid
	case remaining > 0:
		state = domain.PaymentStatePartial
	}
	return s.bookingRepo.SetPaymentStatus(ctx, booking.ID, state)
}

func (s *paymentService) ListRefundsByPayment(ctx context.Context, actor *domain.Actor, paymentID int64) ([]domain.Refund, error) {
	if _, err := s.GetPayment(ctx, actor, paymentID); err != nil {
		return nil, err
	}
	return s.paymentRepo.ListRefundsByPayment(ctx, paymentID)
}

func (s *paymentService) CompleteRefund(ctx context.Context, actor *domain.Actor, refundID int64) (*domain.Refund, error) {
	refund, err := s.paymentRepo.GetRefund(ctx, refundID)
	if err != nil {
		return nil, fmt.Errorf("failed to load refund: %w", err)
	}
	if refund == nil {
		return nil, domain.NotFoundf("refund %d", refundID)
	}

	payment, err := s.paymentRepo.GetPayment(ctx, refund.PaymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	if payment == nil {
		return nil, domain.NotFoundf("payment %d", refund.PaymentID)
	}
	booking, err := s.bookingRepo.GetByID(ctx, payment.BookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if booking == nil {
		return nil, domain.NotFoundf("booking %d", payment.BookingID)
	}
	if !actor.CanManageBusiness(booking.BusinessID) {
		return nil, domain.Forbiddenf("not allowed to complete refund %d", refundID)
	}

	completed, err := s.paymentRepo.MarkRefundCompleted(ctx, refundID, refund.GatewayRefundID)
	if err != nil {
		return nil, fmt.Errorf("failed to complete refund: %w", err)
	}
	if completed == nil {
		return nil, domain.Terminalf("refund %d is %s", refundID, refund.Status)
	}

	if err := s.settleAfterRefund(ctx, payment, booking); err != nil {
		logger.ErrorContext(ctx, "Failed to settle after refund", "error", err, "payment_id", payment.ID)
	}
	return completed, nil
}
