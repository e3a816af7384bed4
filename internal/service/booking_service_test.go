package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookline/bookline-api/internal/domain"
	"github.com/bookline/bookline-api/pkg/events"
)

type bookingFixture struct {
	svc          BookingService
	bookings     *mockBookingRepo
	businesses   *mockBusinessRepo
	catalog      *mockCatalogRepo
	availability *mockAvailabilityRepo
	bus          *mockPublisher
	mail         *mockMailer
}

func newBookingFixture() *bookingFixture {
	bookings := newMockBookingRepo()
	businesses := newMockBusinessRepo()
	catalog := newMockCatalogRepo()
	availability := newMockAvailabilityRepo()
	bus := &mockPublisher{}
	mail := &mockMailer{}
	return &bookingFixture{
		svc:          NewBookingService(bookings, businesses, catalog, availability, bus, mail),
		bookings:     bookings,
		businesses:   businesses,
		catalog:      catalog,
		availability: availability,
		bus:          bus,
		mail:         mail,
	}
}

// seedService wires a business, an active service and a slot covering the
// given window so a create request can go end to end.
func (f *bookingFixture) seedService(t *testing.T, date, startTime, endTime string, spots int) (*domain.Service, *domain.AvailabilitySlot) {
	t.Helper()

	f.businesses.businesses[1] = &domain.Business{ID: 1, OwnerID: 3, Name: "Tidewater Spa", Status: domain.BusinessActive}
	svc := &domain.Service{ID: 10, BusinessID: 1, Name: "Massage", BasePrice: 50, MaxCapacity: 4, IsActive: true}
	f.catalog.services[10] = svc

	_, start, end, err := bookingWindow(date, startTime, endTime)
	require.NoError(t, err)
	slot := &domain.AvailabilitySlot{
		ID:             100,
		ServiceID:      ptrInt64(10),
		StartDatetime:  start,
		EndDatetime:    end,
		AvailableSpots: spots,
		Status:         domain.SlotAvailable,
	}
	f.availability.slots[100] = slot
	return svc, slot
}

func futureDate() string {
	return time.Now().AddDate(0, 0, 7).Format("2006-01-02")
}

func TestBookingWindow(t *testing.T) {
	t.Run("same-day interval", func(t *testing.T) {
		_, start, end, err := bookingWindow("2026-09-01", "10:00", "12:30")
		require.NoError(t, err)
		assert.Equal(t, 2*time.Hour+30*time.Minute, end.Sub(start))
	})

	t.Run("end before start crosses midnight", func(t *testing.T) {
		_, start, end, err := bookingWindow("2026-09-01", "22:00", "02:00")
		require.NoError(t, err)
		assert.Equal(t, 4*time.Hour, end.Sub(start))
		assert.Equal(t, 1, end.Day()-start.Day())
	})

	t.Run("bad date", func(t *testing.T) {
		_, _, _, err := bookingWindow("01-09-2026", "10:00", "12:00")
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("bad clock", func(t *testing.T) {
		_, _, _, err := bookingWindow("2026-09-01", "10am", "12:00")
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestCreateBookingReservesSlot(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture()
	date := futureDate()
	_, slot := f.seedService(t, date, "10:00", "12:00", 2)

	booking, err := f.svc.Create(ctx, customerActor(7), &domain.BookingCreateRequest{
		BusinessID:   1,
		ServiceID:    ptrInt64(10),
		BookingDate:  date,
		StartTime:    "10:00",
		EndTime:      "12:00",
		Participants: 2,
	})
	require.NoError(t, err)

	require.NotNil(t, booking.SlotID)
	assert.Equal(t, slot.ID, *booking.SlotID)
	assert.Equal(t, 2, slot.BookedSpots)
	assert.Equal(t, domain.SlotFull, slot.Status)

	// Price defaults to base price times headcount.
	assert.Equal(t, 100.0, booking.TotalAmount)
	assert.Equal(t, domain.BookingPending, booking.Status)
	// The row itself carries pending, not an empty status the schema default
	// would have to paper over.
	assert.Equal(t, domain.BookingPending, f.bookings.bookings[booking.ID].Status)
	assert.Equal(t, domain.PaymentStatePending, booking.PaymentStatus)
	assert.NotEmpty(t, booking.Reference)
	assert.NotEmpty(t, booking.ConfirmationCode)

	assert.True(t, f.bus.published(events.BookingCreated))
	assert.Equal(t, 1, f.mail.confirmations)

	history, err := f.svc.ListHistory(ctx, customerActor(7), booking.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, string(domain.BookingPending), history[0].NewStatus)

	t.Run("a full slot rejects further bookings", func(t *testing.T) {
		_, err := f.svc.Create(ctx, customerActor(8), &domain.BookingCreateRequest{
			BusinessID:   1,
			ServiceID:    ptrInt64(10),
			BookingDate:  date,
			StartTime:    "10:00",
			EndTime:      "12:00",
			Participants: 1,
		})
		require.ErrorIs(t, err, domain.ErrConflict)
	})
}

func TestCreateBookingCapacityAndLeadTime(t *testing.T) {
	ctx := context.Background()
	date := futureDate()

	t.Run("participants above service capacity", func(t *testing.T) {
		f := newBookingFixture()
		f.seedService(t, date, "10:00", "12:00", 10)

		_, err := f.svc.Create(ctx, customerActor(7), &domain.BookingCreateRequest{
			BusinessID:   1,
			ServiceID:    ptrInt64(10),
			BookingDate:  date,
			StartTime:    "10:00",
			EndTime:      "12:00",
			Participants: 5,
		})
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("advance booking lead time", func(t *testing.T) {
		f := newBookingFixture()
		svc, _ := f.seedService(t, date, "10:00", "12:00", 10)
		svc.AdvanceBookingHours = 24 * 30 // a month of notice

		_, err := f.svc.Create(ctx, customerActor(7), &domain.BookingCreateRequest{
			BusinessID:   1,
			ServiceID:    ptrInt64(10),
			BookingDate:  date,
			StartTime:    "10:00",
			EndTime:      "12:00",
			Participants: 1,
		})
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestCreateBookingBlockedTime(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture()
	date := futureDate()
	f.seedService(t, date, "10:00", "12:00", 5)
	f.availability.blocked = true

	_, err := f.svc.Create(ctx, customerActor(7), &domain.BookingCreateRequest{
		BusinessID:   1,
		ServiceID:    ptrInt64(10),
		BookingDate:  date,
		StartTime:    "10:00",
		EndTime:      "12:00",
		Participants: 1,
	})
	require.ErrorIs(t, err, domain.ErrConflict)
}

func TestCreateBookingResourceOverlap(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture()
	date := futureDate()

	f.businesses.businesses[1] = &domain.Business{ID: 1, OwnerID: 3, Status: domain.BusinessActive}
	f.catalog.resources[20] = &domain.Resource{ID: 20, BusinessID: 1, Name: "Court A", Capacity: 4, IsActive: true}
	f.bookings.overlaps = 1

	_, err := f.svc.Create(ctx, customerActor(7), &domain.BookingCreateRequest{
		BusinessID:   1,
		ResourceID:   ptrInt64(20),
		BookingDate:  date,
		StartTime:    "18:00",
		EndTime:      "19:00",
		Participants: 2,
	})
	require.ErrorIs(t, err, domain.ErrConflict)
}

func TestUpdateBookingTerminalGuard(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture()
	booking := f.bookings.add(&domain.Booking{UserID: 7, BusinessID: 1, Status: domain.BookingCompleted})

	_, err := f.svc.Update(ctx, customerActor(7), booking.ID, domain.BookingPatch{
		SpecialRequests: ptrString("window seat"),
	})
	require.ErrorIs(t, err, domain.ErrTerminalState)
}

func TestUpdateBookingStatusTransition(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture()
	booking := f.bookings.add(&domain.Booking{UserID: 7, BusinessID: 1, Status: domain.BookingConfirmed})

	status := domain.BookingCompleted
	updated, err := f.svc.Update(ctx, ownerActor(3, 1), booking.ID, domain.BookingPatch{
		Status:       &status,
		ChangeReason: "session finished",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCompleted, updated.Status)
	assert.True(t, f.bus.published(events.BookingCompleted))

	history := f.bookings.history[booking.ID]
	require.Len(t, history, 1)
	assert.Equal(t, string(domain.BookingConfirmed), history[0].OldStatus)
	assert.Equal(t, string(domain.BookingCompleted), history[0].NewStatus)
}

func TestUpdateBookingRejectsCancelledStatus(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture()

	slot := &domain.AvailabilitySlot{ID: 100, AvailableSpots: 4, BookedSpots: 2, Status: domain.SlotAvailable}
	f.availability.slots[100] = slot
	booking := f.bookings.add(&domain.Booking{
		UserID:       7,
		BusinessID:   1,
		SlotID:       ptrInt64(100),
		Participants: 2,
		Status:       domain.BookingConfirmed,
	})

	status := domain.BookingCancelled
	_, err := f.svc.Update(ctx, customerActor(7), booking.ID, domain.BookingPatch{Status: &status})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	// Nothing moved: the booking stays confirmed and the slot keeps its claim.
	assert.Equal(t, domain.BookingConfirmed, f.bookings.bookings[booking.ID].Status)
	assert.Equal(t, 2, slot.BookedSpots)
}

func TestCancelBookingReleasesSpots(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture()

	slot := &domain.AvailabilitySlot{ID: 100, AvailableSpots: 4, BookedSpots: 4, Status: domain.SlotFull}
	f.availability.slots[100] = slot
	booking := f.bookings.add(&domain.Booking{
		UserID:       7,
		BusinessID:   1,
		SlotID:       ptrInt64(100),
		Participants: 2,
		Status:       domain.BookingConfirmed,
	})

	cancelled, err := f.svc.Cancel(ctx, customerActor(7), booking.ID, &domain.BookingCancelRequest{Reason: "change of plans"})
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, cancelled.Status)
	assert.Equal(t, "change of plans", cancelled.CancellationReason)
	require.NotNil(t, cancelled.CancelledBy)
	assert.Equal(t, int64(7), *cancelled.CancelledBy)

	assert.Equal(t, 2, slot.BookedSpots)
	assert.Equal(t, domain.SlotAvailable, slot.Status)
	assert.True(t, f.bus.published(events.BookingCancelled))
	assert.Equal(t, 1, f.mail.cancellations)

	t.Run("cancelling twice is terminal", func(t *testing.T) {
		_, err := f.svc.Cancel(ctx, customerActor(7), booking.ID, &domain.BookingCancelRequest{})
		require.ErrorIs(t, err, domain.ErrTerminalState)
	})
}

func TestBookingAccess(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture()
	booking := f.bookings.add(&domain.Booking{UserID: 7, BusinessID: 1, Status: domain.BookingConfirmed})

	t.Run("stranger cannot read", func(t *testing.T) {
		_, err := f.svc.Get(ctx, customerActor(99), booking.ID)
		require.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("business owner can read", func(t *testing.T) {
		got, err := f.svc.Get(ctx, ownerActor(3, 1), booking.ID)
		require.NoError(t, err)
		assert.Equal(t, booking.ID, got.ID)
	})

	t.Run("admin can read", func(t *testing.T) {
		_, err := f.svc.Get(ctx, adminActor(42), booking.ID)
		require.NoError(t, err)
	})

	t.Run("only owners list business bookings", func(t *testing.T) {
		_, err := f.svc.ListForBusiness(ctx, customerActor(7), 1, domain.BookingFilter{}, 50, 0)
		require.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestParticipantsFollowBookingState(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture()
	open := f.bookings.add(&domain.Booking{UserID: 7, BusinessID: 1, Status: domain.BookingConfirmed})
	done := f.bookings.add(&domain.Booking{UserID: 7, BusinessID: 1, Status: domain.BookingCompleted})

	_, err := f.svc.AddParticipant(ctx, customerActor(7), &domain.ParticipantCreateRequest{
		BookingID: open.ID,
		FirstName: "Jo",
		LastName:  "Reyes",
	})
	require.NoError(t, err)

	_, err = f.svc.AddParticipant(ctx, customerActor(7), &domain.ParticipantCreateRequest{
		BookingID: done.ID,
		FirstName: "Jo",
		LastName:  "Reyes",
	})
	require.ErrorIs(t, err, domain.ErrTerminalState)

	_, err = f.svc.AddParticipant(ctx, customerActor(8), &domain.ParticipantCreateRequest{
		BookingID: open.ID,
		FirstName: "Sam",
		LastName:  "Ode",
	})
	require.ErrorIs(t, err, domain.ErrForbidden)
}
