package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bookline/bookline-api/internal/domain"
	"github.com/bookline/bookline-api/internal/platform/mailer"
	"github.com/bookline/bookline-api/internal/repo/postgres"
	"github.com/bookline/bookline-api/pkg/events"
	"github.com/bookline/bookline-api/pkg/logger"
)

type BookingService interface {
	Create(ctx context.Context, actor *domain.Actor, req *domain.BookingCreateRequest) (*domain.Booking, error)
	Get(ctx context.Context, actor *domain.Actor, id int64) (*domain.Booking, error)
	GetByReference(ctx context.Context, actor *domain.Actor, reference string) (*domain.Booking, error)
	ListMine(ctx context.Context, actor *domain.Actor, filter domain.BookingFilter, limit, offset int) ([]domain.Booking, error)
	ListForBusiness(ctx context.Context, actor *domain.Actor, businessID int64, filter domain.BookingFilter, limit, offset int) ([]domain.Booking, error)
	Update(ctx context.Context, actor *domain.Actor, id int64, patch domain.BookingPatch) (*domain.Booking, error)
	Cancel(ctx context.Context, actor *domain.Actor, id int64, req *domain.BookingCancelRequest) (*domain.Booking, error)

	AddParticipant(ctx context.Context, actor *domain.Actor, req *domain.ParticipantCreateRequest) (*domain.BookingParticipant, error)
	ListParticipants(ctx context.Context, actor *domain.Actor, bookingID int64) ([]domain.BookingParticipant, error)
	UpdateParticipant(ctx context.Context, actor *domain.Actor, bookingID, participantID int64, patch domain.ParticipantPatch) (*domain.BookingParticipant, error)
	RemoveParticipant(ctx context.Context, actor *domain.Actor, bookingID, participantID int64) error

	ListHistory(ctx context.Context, actor *domain.Actor, bookingID int64) ([]domain.BookingHistory, error)
}

type bookingService struct {
	bookingRepo      postgres.BookingRepository
	businessRepo     postgres.BusinessRepository
	catalogRepo      postgres.CatalogRepository
	availabilityRepo postgres.AvailabilityRepository
	eventBus         events.Publisher
	mailer           mailer.Mailer
}

func NewBookingService(
	bookingRepo postgres.BookingRepository,
	businessRepo postgres.BusinessRepository,
	catalogRepo postgres.CatalogRepository,
	availabilityRepo postgres.AvailabilityRepository,
	eventBus events.Publisher,
	mail mailer.Mailer,
) BookingService {
	return &bookingService{
		bookingRepo:      bookingRepo,
		businessRepo:     businessRepo,
		catalogRepo:      catalogRepo,
		availabilityRepo: availabilityRepo,
		eventBus:         eventBus,
		mailer:           mail,
	}
}

// bookingWindow turns a date plus wall-clock times into a concrete interval.
// An end at or before the start is read as crossing midnight into the next
// day, so 22:00-02:00 is a four-hour booking, not an error.
func bookingWindow(date, startTime, endTime string) (day, start, end time.Time, err error) {
	day, err = time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, time.Time{}, time.Time{}, domain.Invalidf("invalid booking date %q, expected YYYY-MM-DD", date)
	}
	startClock, err := parseClock(startTime)
	if err != nil {
		return time.Time{}, time.Time{}, time.Time{}, err
	}
	endClock, err := parseClock(endTime)
	if err != nil {
		return time.Time{}, time.Time{}, time.Time{}, err
	}

	start = day.Add(startClock)
	end = day.Add(endClock)
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return day, start, end, nil
}

// newReference builds a date-stamped booking reference like BK20260825A1B2C3D4.
func newReference(at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return "BK" + at.Format("20060102") + suffix
}

func newConfirmationCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
}

// findSlot locates the slot the booking will consume: the requested one when
// a slot id is given, otherwise the first available slot that fully contains
// [start, end).
func (s *bookingService) findSlot(ctx context.Context, serviceID *int64, slotID *int64, start, end time.Time) (*domain.AvailabilitySlot, error) {
	if slotID != nil {
		slot, err := s.availabilityRepo.GetSlot(ctx, *slotID)
		if err != nil {
			return nil, fmt.Errorf("failed to load slot: %w", err)
		}
		if slot == nil {
			return nil, domain.NotFoundf("slot %d", *slotID)
		}
		if slot.StartDatetime.After(start) || slot.EndDatetime.Before(end) {
			return nil, domain.Conflictf("slot %d does not cover the requested time", slot.ID)
		}
		return slot, nil
	}

	from := start.AddDate(0, 0, -1)
	slots, err := s.availabilityRepo.ListSlots(ctx, domain.SlotFilter{
		ServiceID: serviceID,
		From:      &from,
		To:        &end,
		Status:    domain.SlotAvailable,
	}, 200, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	for i := range slots {
		if !slots[i].StartDatetime.After(start) && !slots[i].EndDatetime.Before(end) {
			return &slots[i], nil
		}
	}
	return nil, nil
}

// checkConflicts runs the service and resource checks for [start, end). The
// returned slot, when non-nil, is the one whose capacity the booking must
// reserve. excludeID skips the booking itself during reschedules.
func (s *bookingService) checkConflicts(ctx context.Context, serviceID, resourceID, slotID *int64, start, end time.Time, participants int, excludeID int64) (*domain.AvailabilitySlot, error) {
	var slot *domain.AvailabilitySlot
	if serviceID != nil {
		var err error
		slot, err = s.findSlot(ctx, serviceID, slotID, start, end)
		if err != nil {
			return nil, err
		}
		if slot == nil {
			return nil, domain.Conflictf("no available slots")
		}
		if slot.Status != domain.SlotAvailable || slot.AvailableSpots-slot.BookedSpots < participants {
			return nil, domain.Conflictf("no available slots")
		}
	}

	if resourceID != nil {
		overlaps, err := s.bookingRepo.CountResourceOverlaps(ctx, *resourceID, start, end, excludeID)
		if err != nil {
			return nil, fmt.Errorf("failed to check resource overlap: %w", err)
		}
		if overlaps > 0 {
			return nil, domain.Conflictf("resource %d is already booked for that time", *resourceID)
		}
	}

	blocked, err := s.availabilityRepo.HasBlockedOverlap(ctx, serviceID, resourceID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to check blocked times: %w", err)
	}
	if blocked {
		return nil, domain.Conflictf("the requested time is blocked")
	}

	return slot, nil
}

func (s *bookingService) Create(ctx context.Context, actor *domain.Actor, req *domain.BookingCreateRequest) (*domain.Booking, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	business, err := s.businessRepo.GetByID(ctx, req.BusinessID)
	if err != nil {
		return nil, fmt.Errorf("failed to load business: %w", err)
	}
	if business == nil {
		return nil, domain.NotFoundf("business %d", req.BusinessID)
	}

	day, start, end, err := bookingWindow(req.BookingDate, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	totalAmount := req.TotalAmount
	if req.ServiceID != nil {
		svc, err := s.catalogRepo.GetService(ctx, *req.ServiceID)
		if err != nil {
			return nil, fmt.Errorf("failed to load service: %w", err)
		}
		if svc == nil || !svc.IsActive {
			return nil, domain.NotFoundf("service %d", *req.ServiceID)
		}
		if svc.BusinessID != req.BusinessID {
			return nil, domain.Invalidf("service %d does not belong to business %d", svc.ID, req.BusinessID)
		}
		if req.Participants > svc.MaxCapacity {
			return nil, domain.Invalidf("service %d allows at most %d participants", svc.ID, svc.MaxCapacity)
		}
		if svc.AdvanceBookingHours > 0 && time.Until(start) < time.Duration(svc.AdvanceBookingHours)*time.Hour {
			return nil, domain.Invalidf("service %d requires booking at least %d hours ahead", svc.ID, svc.AdvanceBookingHours)
		}
		if totalAmount == 0 {
			totalAmount = svc.BasePrice * float64(req.Participants)
		}
	}
	if req.ResourceID != nil {
		resource, err := s.catalogRepo.GetResource(ctx, *req.ResourceID)
		if err != nil {
			return nil, fmt.Errorf("failed to load resource: %w", err)
		}
		if resource == nil || !resource.IsActive {
			return nil, domain.NotFoundf("resource %d", *req.ResourceID)
		}
		if resource.BusinessID != req.BusinessID {
			return nil, domain.Invalidf("resource %d does not belong to business %d", resource.ID, req.BusinessID)
		}
	}

	slot, err := s.checkConflicts(ctx, req.ServiceID, req.ResourceID, req.SlotID, start, end, req.Participants, 0)
	if err != nil {
		return nil, err
	}

	// Capacity is taken before the insert; the conditional update is the
	// only gate, so two racing requests can never both oversubscribe a slot.
	var slotID *int64
	if slot != nil {
		ok, err := s.availabilityRepo.ReserveSpots(ctx, slot.ID, req.Participants)
		if err != nil {
			return nil, fmt.Errorf("failed to reserve spots: %w", err)
		}
		if !ok {
			return nil, domain.Conflictf("no available slots")
		}
		slotID = &slot.ID
	}

	booking, err := s.bookingRepo.Create(ctx, &domain.Booking{
		Reference:        newReference(day),
		Status:           domain.BookingPending,
		UserID:           actor.ID(),
		BusinessID:       req.BusinessID,
		ServiceID:        req.ServiceID,
		ResourceID:       req.ResourceID,
		SlotID:           slotID,
		BookingDate:      day,
		StartTime:        req.StartTime,
		EndTime:          req.EndTime,
		StartDatetime:    start,
		EndDatetime:      end,
		Participants:     req.Participants,
		TotalAmount:      totalAmount,
		FinalAmount:      totalAmount,
		Currency:         "USD",
		PaymentStatus:    domain.PaymentStatePending,
		SpecialRequests:  req.SpecialRequests,
		ConfirmationCode: newConfirmationCode(),
	})
	if err != nil {
		if slotID != nil {
			if relErr := s.availabilityRepo.ReleaseSpots(ctx, *slotID, req.Participants); relErr != nil {
				logger.ErrorContext(ctx, "Failed to release spots after create failure", "error", relErr, "slot_id", *slotID)
			}
		}
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	if err := s.bookingRepo.AppendHistory(ctx, &domain.BookingHistory{
		BookingID: booking.ID,
		NewStatus: string(domain.BookingPending),
		ChangedBy: actor.ID(),
		Reason:    "booking created",
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to append booking history", "error", err, "booking_id", booking.ID)
	}

	if err := s.eventBus.Publish(ctx, events.BookingCreated, events.BookingCreatedEvent{
		BookingID:    booking.ID,
		Reference:    booking.Reference,
		UserID:       booking.UserID,
		BusinessID:   booking.BusinessID,
		StartAt:      booking.StartDatetime,
		EndAt:        booking.EndDatetime,
		Participants: booking.Participants,
		FinalAmount:  booking.FinalAmount,
		CreatedAt:    booking.CreatedAt,
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking.created", "error", err, "booking_id", booking.ID)
	}

	if err := s.mailer.SendBookingConfirmation(actor.User.Email, actor.User.FirstName, booking); err != nil {
		logger.ErrorContext(ctx, "Failed to send confirmation email", "error", err, "booking_id", booking.ID)
	}

	logger.InfoContext(ctx, "Booking created",
		"booking_id", booking.ID, "reference", booking.Reference,
		"business_id", booking.BusinessID, "participants", booking.Participants)
	return booking, nil
}

func (s *bookingService) Get(ctx context.Context, actor *domain.Actor, id int64) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if booking == nil {
		return nil, domain.NotFoundf("booking %d", id)
	}
	if !actor.CanManageBooking(booking) {
		return nil, domain.Forbiddenf("not allowed to view booking %d", id)
	}
	return booking, nil
}

func (s *bookingService) GetByReference(ctx context.Context, actor *domain.Actor, reference string) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if booking == nil {
		return nil, domain.NotFoundf("booking %s", reference)
	}
	if !actor.CanManageBooking(booking) {
		return nil, domain.Forbiddenf("not allowed to view booking %s", reference)
	}
	return booking, nil
}

func (s *bookingService) ListMine(ctx context.Context, actor *domain.Actor, filter domain.BookingFilter, limit, offset int) ([]domain.Booking, error) {
	return s.bookingRepo.ListByUser(ctx, actor.ID(), filter, limit, offset)
}

func (s *bookingService) ListForBusiness(ctx context.Context, actor *domain.Actor, businessID int64, filter domain.BookingFilter, limit, offset int) ([]domain.Booking, error) {
	if !actor.CanManageBusiness(businessID) {
		return nil, domain.Forbiddenf("not an owner of business %d", businessID)
	}
	return s.bookingRepo.ListByBusiness(ctx, businessID, filter, limit, offset)
}

func (s *bookingService) Update(ctx context.Context, actor *domain.Actor, id int64, patch domain.BookingPatch) (*domain.Booking, error) {
	booking, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if booking.Status.IsTerminal() {
		return nil, domain.Terminalf("booking %d is %s", id, booking.Status)
	}
	if patch.Status != nil {
		if _, ok := domain.ParseBookingStatus(string(*patch.Status)); !ok {
			return nil, domain.Invalidf("invalid booking status %q", *patch.Status)
		}
		// Cancellation releases reserved capacity, so it only happens
		// through Cancel.
		if *patch.Status == domain.BookingCancelled {
			return nil, domain.Invalidf("cancel the booking instead of setting its status to cancelled")
		}
	}

	// A reschedule re-runs the conflict check against the new interval.
	var bookingDate, start, end *time.Time
	if patch.BookingDate != nil || patch.StartTime != nil || patch.EndTime != nil {
		date := booking.BookingDate.Format("2006-01-02")
		if patch.BookingDate != nil {
			date = *patch.BookingDate
		}
		startTime := booking.StartTime
		if patch.StartTime != nil {
			startTime = *patch.StartTime
		}
		endTime := booking.EndTime
		if patch.EndTime != nil {
			endTime = *patch.EndTime
		}

		day, newStart, newEnd, err := bookingWindow(date, startTime, endTime)
		if err != nil {
			return nil, err
		}

		participants := booking.Participants
		if patch.Participants != nil {
			participants = *patch.Participants
		}
		if _, err := s.checkConflicts(ctx, booking.ServiceID, booking.ResourceID, booking.SlotID, newStart, newEnd, participants, booking.ID); err != nil {
			return nil, err
		}
		bookingDate, start, end = &day, &newStart, &newEnd
	}

	updated, err := s.bookingRepo.Update(ctx, id, patch, bookingDate, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}

	if patch.Status != nil && *patch.Status != booking.Status {
		if err := s.bookingRepo.AppendHistory(ctx, &domain.BookingHistory{
			BookingID: id,
			OldStatus: string(booking.Status),
			NewStatus: string(*patch.Status),
			ChangedBy: actor.ID(),
			Reason:    patch.ChangeReason,
		}); err != nil {
			logger.ErrorContext(ctx, "Failed to append booking history", "error", err, "booking_id", id)
		}

		subject := events.BookingUpdated
		if *patch.Status == domain.BookingCompleted {
			subject = events.BookingCompleted
		}
		if err := s.eventBus.Publish(ctx, subject, events.BookingUpdatedEvent{
			BookingID: id,
			Reference: updated.Reference,
			Changes:   []string{fmt.Sprintf("status: %s -> %s", booking.Status, *patch.Status)},
			UpdatedAt: updated.UpdatedAt,
		}); err != nil {
			logger.ErrorContext(ctx, "Failed to publish booking update", "error", err, "booking_id", id)
		}
	}

	return updated, nil
}

func (s *bookingService) Cancel(ctx context.Context, actor *domain.Actor, id int64, req *domain.BookingCancelRequest) (*domain.Booking, error) {
	booking, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	cancelled, err := s.bookingRepo.Cancel(ctx, id, actor.ID(), req.Reason)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}
	if cancelled == nil {
		return nil, domain.Terminalf("booking %d is %s", id, booking.Status)
	}

	if cancelled.SlotID != nil {
		if err := s.availabilityRepo.ReleaseSpots(ctx, *cancelled.SlotID, cancelled.Participants); err != nil {
			logger.ErrorContext(ctx, "Failed to release spots", "error", err, "slot_id", *cancelled.SlotID)
		}
	}

	if err := s.bookingRepo.AppendHistory(ctx, &domain.BookingHistory{
		BookingID: id,
		OldStatus: string(booking.Status),
		NewStatus: string(domain.BookingCancelled),
		ChangedBy: actor.ID(),
		Reason:    req.Reason,
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to append booking history", "error", err, "booking_id", id)
	}

	if err := s.eventBus.Publish(ctx, events.BookingCancelled, events.BookingCancelledEvent{
		BookingID:   id,
		Reference:   cancelled.Reference,
		CancelledBy: actor.ID(),
		Reason:      req.Reason,
		CancelledAt: time.Now(),
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking.cancelled", "error", err, "booking_id", id)
	}

	if err := s.mailer.SendBookingCancellation(actor.User.Email, actor.User.FirstName, cancelled); err != nil {
		logger.ErrorContext(ctx, "Failed to send cancellation email", "error", err, "booking_id", id)
	}

	logger.InfoContext(ctx, "Booking cancelled", "booking_id", id, "cancelled_by", actor.ID())
	return cancelled, nil
}

// participantBooking loads a booking and enforces the participant edit rules:
// customer only, and never after the booking reaches a terminal status.
func (s *bookingService) participantBooking(ctx context.Context, actor *domain.Actor, bookingID int64) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if booking == nil {
		return nil, domain.NotFoundf("booking %d", bookingID)
	}
	if booking.UserID != actor.ID() && !actor.IsAdmin() {
		return nil, domain.Forbiddenf("only the booking's customer may edit participants")
	}
	if booking.Status.IsTerminal() {
		return nil, domain.Terminalf("booking %d is %s", bookingID, booking.Status)
	}
	return booking, nil
}

func (s *bookingService) AddParticipant(ctx context.Context, actor *domain.Actor, req *domain.ParticipantCreateRequest) (*domain.BookingParticipant, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.participantBooking(ctx, actor, req.BookingID); err != nil {
		return nil, err
	}

	participant, err := s.bookingRepo.AddParticipant(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to add participant: %w", err)
	}
	return participant, nil
}

func (s *bookingService) ListParticipants(ctx context.Context, actor *domain.Actor, bookingID int64) ([]domain.BookingParticipant, error) {
	if _, err := s.Get(ctx, actor, bookingID); err != nil {
		return nil, err
	}
	return s.bookingRepo.ListParticipants(ctx, bookingID)
}

func (s *bookingService) UpdateParticipant(ctx context.Context, actor *domain.Actor, bookingID, participantID int64, patch domain.ParticipantPatch) (*domain.BookingParticipant, error) {
	if _, err := s.participantBooking(ctx, actor, bookingID); err != nil {
		return nil, err
	}

	participant, err := s.bookingRepo.UpdateParticipant(ctx, bookingID, participantID, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update participant: %w", err)
	}
	if participant == nil {
		return nil, domain.NotFoundf("participant %d", participantID)
	}
	return participant, nil
}

func (s *bookingService) RemoveParticipant(ctx context.Context, actor *domain.Actor, bookingID, participantID int64) error {
	if _, err := s.participantBooking(ctx, actor, bookingID); err != nil {
		return err
	}

	ok, err := s.bookingRepo.RemoveParticipant(ctx, bookingID, participantID)
	if err != nil {
		return fmt.Errorf("failed to remove participant: %w", err)
	}
	if !ok {
		return domain.NotFoundf("participant %d", participantID)
	}
	return nil
}

func (s *bookingService) ListHistory(ctx context.Context, actor *domain.Actor, bookingID int64) ([]domain.BookingHistory, error) {
	if _, err := s.Get(ctx, actor, bookingID); err != nil {
		return nil, err
	}
	return s.bookingRepo.ListHistory(ctx, bookingID)
}
