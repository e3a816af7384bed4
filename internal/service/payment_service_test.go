package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookline/bookline-api/internal/domain"
	"github.com/bookline/bookline-api/pkg/events"
)

type paymentFixture struct {
	svc      PaymentService
	payments *mockPaymentRepo
	bookings *mockBookingRepo
	users    *mockUserRepo
	gateway  *mockGateway
	bus      *mockPublisher
	mail     *mockMailer
}

func newPaymentFixture() *paymentFixture {
	payments := newMockPaymentRepo()
	bookings := newMockBookingRepo()
	users := newMockUserRepo()
	gateway := &mockGateway{}
	bus := &mockPublisher{}
	mail := &mockMailer{}
	return &paymentFixture{
		svc:      NewPaymentService(payments, bookings, users, gateway, bus, mail),
		payments: payments,
		bookings: bookings,
		users:    users,
		gateway:  gateway,
		bus:      bus,
		mail:     mail,
	}
}

func (f *paymentFixture) seedBooking(finalAmount float64) *domain.Booking {
	f.users.users[7] = &domain.User{ID: 7, Email: "customer@example.com", FirstName: "Casey", Status: domain.UserActive}
	return f.bookings.add(&domain.Booking{
		UserID:        7,
		BusinessID:    1,
		Reference:     "BK20260901TEST0001",
		FinalAmount:   finalAmount,
		Currency:      "USD",
		Status:        domain.BookingConfirmed,
		PaymentStatus: domain.PaymentStatePending,
	})
}

// seedCompletedPayment puts a settled payment on the books without going
// through the gateway.
func (f *paymentFixture) seedCompletedPayment(bookingID int64, amount float64) *domain.Payment {
	now := time.Now()
	p := &domain.Payment{
		ID:          f.payments.id(),
		BookingID:   bookingID,
		Reference:   "PAYTESTTESTTEST",
		Amount:      amount,
		Currency:    "USD",
		PaymentType: "booking",
		Status:      domain.PaymentCompleted,
		GatewayTxID: "tx-seed",
		ProcessedAt: &now,
	}
	f.payments.payments[p.ID] = p
	return p
}

func TestCreatePaymentFullAndPartial(t *testing.T) {
	ctx := context.Background()

	t.Run("full payment marks the booking paid", func(t *testing.T) {
		f := newPaymentFixture()
		booking := f.seedBooking(100)

		payment, err := f.svc.CreatePayment(ctx, customerActor(7), &domain.PaymentCreateRequest{
			BookingID: booking.ID,
			Amount:    100,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentCompleted, payment.Status)
		assert.Equal(t, "tx-mock", payment.GatewayTxID)
		assert.NotNil(t, payment.ProcessedAt)
		assert.Equal(t, domain.PaymentStatePaid, booking.PaymentStatus)
		assert.True(t, f.bus.published(events.PaymentCompleted))
	})

	t.Run("partial payment marks the booking partial", func(t *testing.T) {
		f := newPaymentFixture()
		booking := f.seedBooking(100)

		payment, err := f.svc.CreatePayment(ctx, customerActor(7), &domain.PaymentCreateRequest{
			BookingID: booking.ID,
			Amount:    40,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentCompleted, payment.Status)
		assert.Equal(t, domain.PaymentStatePartial, booking.PaymentStatus)
	})
}

func TestProcessingPaymentCoversBooking(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()
	booking := f.seedBooking(100)

	pending := &domain.Payment{
		ID:        f.payments.id(),
		BookingID: booking.ID,
		Amount:    100,
		Currency:  "USD",
		Status:    domain.PaymentPending,
	}
	f.payments.payments[pending.ID] = pending

	// Money handed to the gateway counts toward the booking even before the
	// capture settles.
	status := domain.PaymentProcessing
	updated, err := f.svc.UpdatePayment(ctx, ownerActor(3, 1), pending.ID, domain.PaymentPatch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentProcessing, updated.Status)
	assert.Equal(t, domain.PaymentStatePaid, booking.PaymentStatus)
}

func TestCreatePaymentDeclined(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()
	booking := f.seedBooking(100)
	f.gateway.chargeErr = errors.New("card declined")

	// A decline is not an error: the failed payment row is the result.
	payment, err := f.svc.CreatePayment(ctx, customerActor(7), &domain.PaymentCreateRequest{
		BookingID: booking.ID,
		Amount:    100,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentFailed, payment.Status)
	assert.Empty(t, payment.GatewayTxID)
	assert.Equal(t, domain.PaymentStateFailed, booking.PaymentStatus)
	assert.True(t, f.bus.published(events.PaymentFailed))
	assert.False(t, f.bus.published(events.PaymentCompleted))
}

func TestCreatePaymentMethodOwnership(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()
	booking := f.seedBooking(100)

	// Method 1 belongs to user 9, not the booking's customer.
	f.payments.methods[1] = &domain.PaymentMethod{ID: 1, UserID: 9, MethodType: "credit_card", IsActive: true}

	_, err := f.svc.CreatePayment(ctx, customerActor(7), &domain.PaymentCreateRequest{
		BookingID:       booking.ID,
		PaymentMethodID: ptrInt64(1),
		Amount:          100,
	})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, f.gateway.charges)
}

func TestCreatePaymentRejectsInvalidRequests(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()
	booking := f.seedBooking(100)

	_, err := f.svc.CreatePayment(ctx, customerActor(7), &domain.PaymentCreateRequest{BookingID: booking.ID, Amount: 0})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.CreatePayment(ctx, customerActor(99), &domain.PaymentCreateRequest{BookingID: booking.ID, Amount: 50})
	require.ErrorIs(t, err, domain.ErrForbidden)

	booking.Status = domain.BookingCancelled
	_, err = f.svc.CreatePayment(ctx, customerActor(7), &domain.PaymentCreateRequest{BookingID: booking.ID, Amount: 50})
	require.ErrorIs(t, err, domain.ErrTerminalState)
}

func TestCreateRefundCeiling(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()
	booking := f.seedBooking(100)
	payment := f.seedCompletedPayment(booking.ID, 100)
	owner := ownerActor(3, 1)

	first, err := f.svc.CreateRefund(ctx, owner, &domain.RefundCreateRequest{
		PaymentID: payment.ID,
		Amount:    60,
		Reason:    "late cancellation",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RefundCompleted, first.Status)
	assert.Equal(t, "re-mock", first.GatewayRefundID)

	// 60 already refunded; another 50 would exceed the payment.
	_, err = f.svc.CreateRefund(ctx, owner, &domain.RefundCreateRequest{
		PaymentID: payment.ID,
		Amount:    50,
	})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	t.Run("customers cannot issue refunds", func(t *testing.T) {
		_, err := f.svc.CreateRefund(ctx, customerActor(7), &domain.RefundCreateRequest{
			PaymentID: payment.ID,
			Amount:    10,
		})
		require.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestFullRefundSettlesPaymentAndBooking(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()
	booking := f.seedBooking(100)
	booking.PaymentStatus = domain.PaymentStatePaid
	payment := f.seedCompletedPayment(booking.ID, 100)

	refund, err := f.svc.CreateRefund(ctx, ownerActor(3, 1), &domain.RefundCreateRequest{
		PaymentID: payment.ID,
		Amount:    100,
		Reason:    "business closed that day",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RefundCompleted, refund.Status)

	assert.Equal(t, domain.PaymentRefunded, payment.Status)
	assert.Equal(t, domain.PaymentStateRefunded, booking.PaymentStatus)
	assert.True(t, f.bus.published(events.PaymentRefunded))
	assert.Equal(t, 1, f.mail.refundNotices)
}

func TestRefundRequiresSettledPayment(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()
	booking := f.seedBooking(100)

	pending := &domain.Payment{ID: f.payments.id(), BookingID: booking.ID, Amount: 100, Currency: "USD", Status: domain.PaymentFailed}
	f.payments.payments[pending.ID] = pending

	_, err := f.svc.CreateRefund(ctx, ownerActor(3, 1), &domain.RefundCreateRequest{
		PaymentID: pending.ID,
		Amount:    100,
	})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCompleteRefundIsIdempotentGuarded(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()
	booking := f.seedBooking(100)
	payment := f.seedCompletedPayment(booking.ID, 100)

	done := &domain.Refund{
		ID:        f.payments.id(),
		PaymentID: payment.ID,
		Amount:    100,
		Status:    domain.RefundCompleted,
	}
	f.payments.refunds[done.ID] = done

	_, err := f.svc.CompleteRefund(ctx, ownerActor(3, 1), done.ID)
	require.ErrorIs(t, err, domain.ErrTerminalState)
}

func TestGatewayRefundFailureLeavesPendingRefund(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()
	booking := f.seedBooking(100)
	payment := f.seedCompletedPayment(booking.ID, 100)
	f.gateway.refundErr = errors.New("gateway unavailable")

	refund, err := f.svc.CreateRefund(ctx, ownerActor(3, 1), &domain.RefundCreateRequest{
		PaymentID: payment.ID,
		Amount:    100,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RefundPending, refund.Status)
	assert.Equal(t, domain.PaymentCompleted, payment.Status)
	assert.False(t, f.bus.published(events.PaymentRefunded))
}
