package service

import (
	"context"
	"errors"
	"time"

	"github.com/bookline/bookline-api/internal/domain"
)

// In-memory fakes for the repository and platform interfaces. They keep just
// enough state for the service-level behavior under test.

type mockPublisher struct {
	subjects []string
}

func (m *mockPublisher) Publish(_ context.Context, subject string, _ interface{}) error {
	m.subjects = append(m.subjects, subject)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func (m *mockPublisher) published(subject string) bool {
	for _, s := range m.subjects {
		if s == subject {
			return true
		}
	}
	return false
}

type mockMailer struct {
	confirmations int
	cancellations int
	refundNotices int
}

func (m *mockMailer) SendBookingConfirmation(_, _ string, _ *domain.Booking) error {
	m.confirmations++
	return nil
}

func (m *mockMailer) SendBookingCancellation(_, _ string, _ *domain.Booking) error {
	m.cancellations++
	return nil
}

func (m *mockMailer) SendRefundNotice(_, _ string, _ *domain.Refund) error {
	m.refundNotices++
	return nil
}

type mockGateway struct {
	chargeErr error
	refundErr error
	charges   int
	refunds   int
}

func (m *mockGateway) Charge(_ context.Context, _ float64, _, _ string) (string, error) {
	m.charges++
	if m.chargeErr != nil {
		return "", m.chargeErr
	}
	return "tx-mock", nil
}

func (m *mockGateway) Refund(_ context.Context, _ string, _ float64, _ string) (string, error) {
	m.refunds++
	if m.refundErr != nil {
		return "", m.refundErr
	}
	return "re-mock", nil
}

func (m *mockGateway) Name() string { return "mock" }

// ---------- bookings ----------

type mockBookingRepo struct {
	nextID   int64
	bookings map[int64]*domain.Booking
	history  map[int64][]domain.BookingHistory
	overlaps int
}

func newMockBookingRepo() *mockBookingRepo {
	return &mockBookingRepo{
		nextID:   1,
		bookings: make(map[int64]*domain.Booking),
		history:  make(map[int64][]domain.BookingHistory),
	}
}

func (m *mockBookingRepo) add(b *domain.Booking) *domain.Booking {
	if b.ID == 0 {
		b.ID = m.nextID
		m.nextID++
	} else if b.ID >= m.nextID {
		m.nextID = b.ID + 1
	}
	m.bookings[b.ID] = b
	return b
}

func (m *mockBookingRepo) Create(_ context.Context, b *domain.Booking) (*domain.Booking, error) {
	copied := *b
	copied.CreatedAt = time.Now()
	copied.UpdatedAt = copied.CreatedAt
	return m.add(&copied), nil
}

// GetByID hands out a copy, like a row scan would: callers holding the result
// must not see later writes through the repository.
func (m *mockBookingRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return nil, nil
	}
	copied := *b
	return &copied, nil
}

func (m *mockBookingRepo) GetByReference(_ context.Context, reference string) (*domain.Booking, error) {
	for _, b := range m.bookings {
		if b.Reference == reference {
			copied := *b
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *mockBookingRepo) ListByUser(_ context.Context, userID int64, filter domain.BookingFilter, _, _ int) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, b := range m.bookings {
		if b.UserID != userID {
			continue
		}
		if filter.Status != nil && b.Status != *filter.Status {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func (m *mockBookingRepo) ListByBusiness(_ context.Context, businessID int64, _ domain.BookingFilter, _, _ int) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, b := range m.bookings {
		if b.BusinessID == businessID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *mockBookingRepo) Update(_ context.Context, id int64, patch domain.BookingPatch, bookingDate, start, end *time.Time) (*domain.Booking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return nil, nil
	}
	if patch.StartTime != nil {
		b.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		b.EndTime = *patch.EndTime
	}
	if patch.Participants != nil {
		b.Participants = *patch.Participants
	}
	if patch.Status != nil {
		b.Status = *patch.Status
	}
	if patch.SpecialRequests != nil {
		b.SpecialRequests = *patch.SpecialRequests
	}
	if bookingDate != nil {
		b.BookingDate = *bookingDate
	}
	if start != nil {
		b.StartDatetime = *start
	}
	if end != nil {
		b.EndDatetime = *end
	}
	b.UpdatedAt = time.Now()
	return b, nil
}

func (m *mockBookingRepo) UpdateStatus(_ context.Context, id int64, status domain.BookingStatus) (*domain.Booking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return nil, nil
	}
	b.Status = status
	return b, nil
}

func (m *mockBookingRepo) Cancel(_ context.Context, id, cancelledBy int64, reason string) (*domain.Booking, error) {
	b, ok := m.bookings[id]
	if !ok || b.Status.IsTerminal() {
		return nil, nil
	}
	now := time.Now()
	b.Status = domain.BookingCancelled
	b.CancelledAt = &now
	b.CancelledBy = &cancelledBy
	b.CancellationReason = reason
	return b, nil
}

func (m *mockBookingRepo) SetAmounts(_ context.Context, id int64, discount, final float64) error {
	b, ok := m.bookings[id]
	if !ok {
		return errors.New("booking not found")
	}
	b.DiscountAmount = discount
	b.FinalAmount = final
	return nil
}

func (m *mockBookingRepo) SetPaymentStatus(_ context.Context, id int64, state domain.PaymentState) error {
	b, ok := m.bookings[id]
	if !ok {
		return errors.New("booking not found")
	}
	b.PaymentStatus = state
	return nil
}

func (m *mockBookingRepo) CountResourceOverlaps(context.Context, int64, time.Time, time.Time, int64) (int, error) {
	return m.overlaps, nil
}

func (m *mockBookingRepo) AddParticipant(_ context.Context, req *domain.ParticipantCreateRequest) (*domain.BookingParticipant, error) {
	return &domain.BookingParticipant{ID: 1, BookingID: req.BookingID, FirstName: req.FirstName, LastName: req.LastName}, nil
}

func (m *mockBookingRepo) ListParticipants(context.Context, int64) ([]domain.BookingParticipant, error) {
	return nil, nil
}

func (m *mockBookingRepo) UpdateParticipant(context.Context, int64, int64, domain.ParticipantPatch) (*domain.BookingParticipant, error) {
	return nil, nil
}

func (m *mockBookingRepo) RemoveParticipant(context.Context, int64, int64) (bool, error) {
	return true, nil
}

func (m *mockBookingRepo) AppendHistory(_ context.Context, h *domain.BookingHistory) error {
	m.history[h.BookingID] = append(m.history[h.BookingID], *h)
	return nil
}

func (m *mockBookingRepo) ListHistory(_ context.Context, bookingID int64) ([]domain.BookingHistory, error) {
	return m.history[bookingID], nil
}

// ---------- businesses ----------

type mockBusinessRepo struct {
	businesses map[int64]*domain.Business
	refreshed  []int64
}

func newMockBusinessRepo() *mockBusinessRepo {
	return &mockBusinessRepo{businesses: make(map[int64]*domain.Business)}
}

func (m *mockBusinessRepo) Create(context.Context, int64, *domain.BusinessCreateRequest) (*domain.Business, error) {
	return nil, nil
}

func (m *mockBusinessRepo) GetByID(_ context.Context, id int64) (*domain.Business, error) {
	return m.businesses[id], nil
}

func (m *mockBusinessRepo) List(context.Context, domain.BusinessFilter, int, int) ([]domain.Business, error) {
	return nil, nil
}

func (m *mockBusinessRepo) ListByOwner(context.Context, int64) ([]domain.Business, error) {
	return nil, nil
}

func (m *mockBusinessRepo) OwnedBusinessIDs(context.Context, int64) ([]int64, error) { return nil, nil }

func (m *mockBusinessRepo) Update(context.Context, int64, domain.BusinessPatch) (*domain.Business, error) {
	return nil, nil
}

func (m *mockBusinessRepo) Close(context.Context, int64) (bool, error) { return false, nil }

func (m *mockBusinessRepo) RefreshRating(_ context.Context, businessID int64) error {
	m.refreshed = append(m.refreshed, businessID)
	return nil
}

func (m *mockBusinessRepo) CreateAddress(context.Context, int64, *domain.BusinessAddressCreateRequest) (*domain.BusinessAddress, error) {
	return nil, nil
}

func (m *mockBusinessRepo) ListAddresses(context.Context, int64) ([]domain.BusinessAddress, error) {
	return nil, nil
}

func (m *mockBusinessRepo) UpdateAddress(context.Context, int64, int64, domain.BusinessAddressPatch) (*domain.BusinessAddress, error) {
	return nil, nil
}

func (m *mockBusinessRepo) DeleteAddress(context.Context, int64, int64) (bool, error) {
	return false, nil
}

func (m *mockBusinessRepo) UpsertHours(context.Context, int64, *domain.BusinessHoursUpsertRequest) (*domain.BusinessHours, error) {
	return nil, nil
}

func (m *mockBusinessRepo) ListHours(context.Context, int64) ([]domain.BusinessHours, error) {
	return nil, nil
}

// ---------- catalog ----------

type mockCatalogRepo struct {
	services  map[int64]*domain.Service
	resources map[int64]*domain.Resource
}

func newMockCatalogRepo() *mockCatalogRepo {
	return &mockCatalogRepo{
		services:  make(map[int64]*domain.Service),
		resources: make(map[int64]*domain.Resource),
	}
}

func (m *mockCatalogRepo) CreateService(context.Context, *domain.ServiceCreateRequest) (*domain.Service, error) {
	return nil, nil
}

func (m *mockCatalogRepo) GetService(_ context.Context, id int64) (*domain.Service, error) {
	return m.services[id], nil
}

func (m *mockCatalogRepo) ListServices(context.Context, domain.ServiceFilter, int, int) ([]domain.Service, error) {
	return nil, nil
}

func (m *mockCatalogRepo) UpdateService(context.Context, int64, domain.ServicePatch) (*domain.Service, error) {
	return nil, nil
}

func (m *mockCatalogRepo) DeactivateService(context.Context, int64) (bool, error) { return false, nil }

func (m *mockCatalogRepo) CreatePricing(context.Context, *domain.PricingCreateRequest) (*domain.ServicePricing, error) {
	return nil, nil
}

func (m *mockCatalogRepo) ListPricing(context.Context, int64) ([]domain.ServicePricing, error) {
	return nil, nil
}

func (m *mockCatalogRepo) UpdatePricing(context.Context, int64, int64, domain.PricingPatch) (*domain.ServicePricing, error) {
	return nil, nil
}

func (m *mockCatalogRepo) DeletePricing(context.Context, int64, int64) (bool, error) {
	return false, nil
}

func (m *mockCatalogRepo) CreateResource(context.Context, *domain.ResourceCreateRequest) (*domain.Resource, error) {
	return nil, nil
}

func (m *mockCatalogRepo) GetResource(_ context.Context, id int64) (*domain.Resource, error) {
	return m.resources[id], nil
}

func (m *mockCatalogRepo) ListResources(context.Context, domain.ResourceFilter, int, int) ([]domain.Resource, error) {
	return nil, nil
}

func (m *mockCatalogRepo) UpdateResource(context.Context, int64, domain.ResourcePatch) (*domain.Resource, error) {
	return nil, nil
}

func (m *mockCatalogRepo) DeactivateResource(context.Context, int64) (bool, error) {
	return false, nil
}

// ---------- availability ----------

type mockAvailabilityRepo struct {
	nextID       int64
	slots        map[int64]*domain.AvailabilitySlot
	blockedTimes map[int64]*domain.BlockedTime
	blocked      bool
}

func newMockAvailabilityRepo() *mockAvailabilityRepo {
	return &mockAvailabilityRepo{
		nextID:       1,
		slots:        make(map[int64]*domain.AvailabilitySlot),
		blockedTimes: make(map[int64]*domain.BlockedTime),
	}
}

func (m *mockAvailabilityRepo) CreateTemplate(context.Context, *domain.TemplateCreateRequest) (*domain.AvailabilityTemplate, error) {
	return nil, nil
}

func (m *mockAvailabilityRepo) GetTemplate(context.Context, int64) (*domain.AvailabilityTemplate, error) {
	return nil, nil
}

func (m *mockAvailabilityRepo) ListTemplates(context.Context, *int64, *int64) ([]domain.AvailabilityTemplate, error) {
	return nil, nil
}

func (m *mockAvailabilityRepo) UpdateTemplate(context.Context, int64, domain.TemplatePatch) (*domain.AvailabilityTemplate, error) {
	return nil, nil
}

func (m *mockAvailabilityRepo) DeleteTemplate(context.Context, int64) (bool, error) {
	return false, nil
}

func (m *mockAvailabilityRepo) CreateSlot(context.Context, *domain.SlotCreateRequest) (*domain.AvailabilitySlot, error) {
	return nil, nil
}

func (m *mockAvailabilityRepo) CreateSlots(_ context.Context, reqs []domain.SlotCreateRequest) (int, error) {
	return len(reqs), nil
}

func (m *mockAvailabilityRepo) GetSlot(_ context.Context, id int64) (*domain.AvailabilitySlot, error) {
	return m.slots[id], nil
}

func (m *mockAvailabilityRepo) ListSlots(_ context.Context, filter domain.SlotFilter, _, _ int) ([]domain.AvailabilitySlot, error) {
	var out []domain.AvailabilitySlot
	for _, s := range m.slots {
		if filter.ServiceID != nil && (s.ServiceID == nil || *s.ServiceID != *filter.ServiceID) {
			continue
		}
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (m *mockAvailabilityRepo) UpdateSlot(context.Context, int64, domain.SlotPatch) (*domain.AvailabilitySlot, error) {
	return nil, nil
}

func (m *mockAvailabilityRepo) DeleteSlot(context.Context, int64) (bool, error) { return false, nil }

// ReserveSpots mirrors the conditional update: the claim only succeeds while
// enough unbooked capacity remains.
func (m *mockAvailabilityRepo) ReserveSpots(_ context.Context, slotID int64, spots int) (bool, error) {
	s, ok := m.slots[slotID]
	if !ok || s.Status != domain.SlotAvailable || s.AvailableSpots-s.BookedSpots < spots {
		return false, nil
	}
	s.BookedSpots += spots
	if s.BookedSpots >= s.AvailableSpots {
		s.Status = domain.SlotFull
	}
	return true, nil
}

func (m *mockAvailabilityRepo) ReleaseSpots(_ context.Context, slotID int64, spots int) error {
	s, ok := m.slots[slotID]
	if !ok {
		return errors.New("slot not found")
	}
	s.BookedSpots -= spots
	if s.BookedSpots < 0 {
		s.BookedSpots = 0
	}
	if s.Status == domain.SlotFull {
		s.Status = domain.SlotAvailable
	}
	return nil
}

// CreateBlockedTime stores the target references verbatim: a block scoped to
// a service or resource alone keeps a nil business id, like the nullable
// column does.
func (m *mockAvailabilityRepo) CreateBlockedTime(_ context.Context, createdBy int64, req *domain.BlockedTimeCreateRequest) (*domain.BlockedTime, error) {
	block := &domain.BlockedTime{
		ID:            m.nextID,
		BusinessID:    req.BusinessID,
		ServiceID:     req.ServiceID,
		ResourceID:    req.ResourceID,
		StartDatetime: req.StartDatetime,
		EndDatetime:   req.EndDatetime,
		Reason:        req.Reason,
		BlockType:     req.BlockType,
		CreatedBy:     createdBy,
		CreatedAt:     time.Now(),
	}
	m.nextID++
	m.blockedTimes[block.ID] = block
	return block, nil
}

func (m *mockAvailabilityRepo) GetBlockedTime(_ context.Context, id int64) (*domain.BlockedTime, error) {
	return m.blockedTimes[id], nil
}

func (m *mockAvailabilityRepo) ListBlockedTimes(context.Context, domain.BlockedTimeFilter) ([]domain.BlockedTime, error) {
	return nil, nil
}

func (m *mockAvailabilityRepo) UpdateBlockedTime(_ context.Context, id int64, patch domain.BlockedTimePatch) (*domain.BlockedTime, error) {
	block, ok := m.blockedTimes[id]
	if !ok {
		return nil, nil
	}
	if patch.StartDatetime != nil {
		block.StartDatetime = *patch.StartDatetime
	}
	if patch.EndDatetime != nil {
		block.EndDatetime = *patch.EndDatetime
	}
	if patch.Reason != nil {
		block.Reason = *patch.Reason
	}
	return block, nil
}

func (m *mockAvailabilityRepo) DeleteBlockedTime(_ context.Context, id int64) (bool, error) {
	if _, ok := m.blockedTimes[id]; !ok {
		return false, nil
	}
	delete(m.blockedTimes, id)
	return true, nil
}

func (m *mockAvailabilityRepo) HasBlockedOverlap(context.Context, *int64, *int64, time.Time, time.Time) (bool, error) {
	return m.blocked, nil
}

// ---------- promotions ----------

type mockPromotionRepo struct {
	nextID     int64
	promotions map[int64]*domain.Promotion
	usage      []domain.PromotionUsage
	userUsage  map[int64]int // promotionID -> count for the test user
}

func newMockPromotionRepo() *mockPromotionRepo {
	return &mockPromotionRepo{
		nextID:     1,
		promotions: make(map[int64]*domain.Promotion),
		userUsage:  make(map[int64]int),
	}
}

func (m *mockPromotionRepo) add(p *domain.Promotion) *domain.Promotion {
	if p.ID == 0 {
		p.ID = m.nextID
		m.nextID++
	}
	m.promotions[p.ID] = p
	return p
}

func (m *mockPromotionRepo) Create(_ context.Context, createdBy int64, req *domain.PromotionCreateRequest) (*domain.Promotion, error) {
	return m.add(&domain.Promotion{
		BusinessID:      req.BusinessID,
		Code:            req.Code,
		Title:           req.Title,
		DiscountType:    req.DiscountType,
		DiscountValue:   req.DiscountValue,
		MinimumAmount:   req.MinimumAmount,
		MaximumDiscount: req.MaximumDiscount,
		UsageLimit:      req.UsageLimit,
		PerUserLimit:    req.PerUserLimit,
		ValidFrom:       req.ValidFrom,
		ValidUntil:      req.ValidUntil,
		Status:          domain.PromotionActive,
		CreatedBy:       createdBy,
	}), nil
}

func (m *mockPromotionRepo) GetByID(_ context.Context, id int64) (*domain.Promotion, error) {
	return m.promotions[id], nil
}

func (m *mockPromotionRepo) GetByCode(_ context.Context, code string) (*domain.Promotion, error) {
	for _, p := range m.promotions {
		if p.Code == code {
			return p, nil
		}
	}
	return nil, nil
}

func (m *mockPromotionRepo) List(context.Context, *int64, domain.PromotionStatus, int, int) ([]domain.Promotion, error) {
	return nil, nil
}

func (m *mockPromotionRepo) Update(_ context.Context, id int64, patch domain.PromotionPatch) (*domain.Promotion, error) {
	p, ok := m.promotions[id]
	if !ok {
		return nil, nil
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	return p, nil
}

func (m *mockPromotionRepo) Deactivate(_ context.Context, id int64) (bool, error) {
	p, ok := m.promotions[id]
	if !ok {
		return false, nil
	}
	p.Status = domain.PromotionInactive
	return true, nil
}

func (m *mockPromotionRepo) ClaimUsage(_ context.Context, promotionID int64) (bool, error) {
	p, ok := m.promotions[promotionID]
	if !ok {
		return false, nil
	}
	if p.UsageLimit != nil && p.UsageCount >= *p.UsageLimit {
		return false, nil
	}
	p.UsageCount++
	return true, nil
}

func (m *mockPromotionRepo) ReleaseUsage(_ context.Context, promotionID int64) error {
	if p, ok := m.promotions[promotionID]; ok && p.UsageCount > 0 {
		p.UsageCount--
	}
	return nil
}

func (m *mockPromotionRepo) CountUserUsage(_ context.Context, promotionID, _ int64) (int, error) {
	return m.userUsage[promotionID], nil
}

func (m *mockPromotionRepo) HasUsageForBooking(_ context.Context, bookingID int64) (bool, error) {
	for _, u := range m.usage {
		if u.BookingID == bookingID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockPromotionRepo) RecordUsage(_ context.Context, u *domain.PromotionUsage) (*domain.PromotionUsage, error) {
	recorded := *u
	recorded.ID = int64(len(m.usage) + 1)
	recorded.UsedAt = time.Now()
	m.usage = append(m.usage, recorded)
	m.userUsage[u.PromotionID]++
	return &recorded, nil
}

func (m *mockPromotionRepo) ListUsage(_ context.Context, promotionID int64, _, _ int) ([]domain.PromotionUsage, error) {
	var out []domain.PromotionUsage
	for _, u := range m.usage {
		if u.PromotionID == promotionID {
			out = append(out, u)
		}
	}
	return out, nil
}

// ---------- payments ----------

type mockPaymentRepo struct {
	nextID   int64
	methods  map[int64]*domain.PaymentMethod
	payments map[int64]*domain.Payment
	refunds  map[int64]*domain.Refund
}

func newMockPaymentRepo() *mockPaymentRepo {
	return &mockPaymentRepo{
		nextID:   1,
		methods:  make(map[int64]*domain.PaymentMethod),
		payments: make(map[int64]*domain.Payment),
		refunds:  make(map[int64]*domain.Refund),
	}
}

func (m *mockPaymentRepo) id() int64 {
	id := m.nextID
	m.nextID++
	return id
}

func (m *mockPaymentRepo) CreateMethod(_ context.Context, userID int64, req *domain.PaymentMethodCreateRequest) (*domain.PaymentMethod, error) {
	method := &domain.PaymentMethod{
		ID:         m.id(),
		UserID:     userID,
		MethodType: req.MethodType,
		IsDefault:  req.IsDefault,
		IsActive:   true,
	}
	m.methods[method.ID] = method
	return method, nil
}

func (m *mockPaymentRepo) GetMethod(_ context.Context, userID, methodID int64) (*domain.PaymentMethod, error) {
	method, ok := m.methods[methodID]
	if !ok || method.UserID != userID {
		return nil, nil
	}
	return method, nil
}

func (m *mockPaymentRepo) ListMethods(context.Context, int64) ([]domain.PaymentMethod, error) {
	return nil, nil
}

func (m *mockPaymentRepo) UpdateMethod(context.Context, int64, int64, domain.PaymentMethodPatch) (*domain.PaymentMethod, error) {
	return nil, nil
}

func (m *mockPaymentRepo) DeactivateMethod(context.Context, int64, int64) (bool, error) {
	return false, nil
}

func (m *mockPaymentRepo) CreatePayment(_ context.Context, p *domain.Payment) (*domain.Payment, error) {
	copied := *p
	copied.ID = m.id()
	copied.Status = domain.PaymentPending
	copied.CreatedAt = time.Now()
	m.payments[copied.ID] = &copied
	return &copied, nil
}

func (m *mockPaymentRepo) GetPayment(_ context.Context, id int64) (*domain.Payment, error) {
	return m.payments[id], nil
}

func (m *mockPaymentRepo) ListPaymentsByBooking(_ context.Context, bookingID int64) ([]domain.Payment, error) {
	var out []domain.Payment
	for _, p := range m.payments {
		if p.BookingID == bookingID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockPaymentRepo) UpdatePayment(_ context.Context, id int64, patch domain.PaymentPatch) (*domain.Payment, error) {
	p, ok := m.payments[id]
	if !ok {
		return nil, nil
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.GatewayTxID != nil {
		p.GatewayTxID = *patch.GatewayTxID
	}
	return p, nil
}

func (m *mockPaymentRepo) MarkPaymentCompleted(_ context.Context, id int64, gatewayTxID string) (*domain.Payment, error) {
	p, ok := m.payments[id]
	if !ok {
		return nil, nil
	}
	if p.Status == domain.PaymentRefunded {
		return nil, nil
	}
	now := time.Now()
	p.Status = domain.PaymentCompleted
	p.GatewayTxID = gatewayTxID
	p.ProcessedAt = &now
	return p, nil
}

func (m *mockPaymentRepo) MarkPaymentFailed(_ context.Context, id int64) (*domain.Payment, error) {
	p, ok := m.payments[id]
	if !ok {
		return nil, nil
	}
	p.Status = domain.PaymentFailed
	return p, nil
}

func (m *mockPaymentRepo) SetPaymentStatus(_ context.Context, id int64, status domain.PaymentStatus) error {
	p, ok := m.payments[id]
	if !ok {
		return errors.New("payment not found")
	}
	p.Status = status
	return nil
}

// SumCompletedForBooking counts processing payments too, matching the query:
// money in flight still covers the booking.
func (m *mockPaymentRepo) SumCompletedForBooking(_ context.Context, bookingID int64) (float64, error) {
	var sum float64
	for _, p := range m.payments {
		if p.BookingID != bookingID {
			continue
		}
		if p.Status == domain.PaymentCompleted || p.Status == domain.PaymentProcessing {
			sum += p.Amount
		}
	}
	return sum, nil
}

func (m *mockPaymentRepo) CreateRefund(_ context.Context, rf *domain.Refund) (*domain.Refund, error) {
	copied := *rf
	copied.ID = m.id()
	copied.Status = domain.RefundPending
	copied.CreatedAt = time.Now()
	m.refunds[copied.ID] = &copied
	return &copied, nil
}

func (m *mockPaymentRepo) GetRefund(_ context.Context, id int64) (*domain.Refund, error) {
	return m.refunds[id], nil
}

func (m *mockPaymentRepo) ListRefundsByPayment(_ context.Context, paymentID int64) ([]domain.Refund, error) {
	var out []domain.Refund
	for _, rf := range m.refunds {
		if rf.PaymentID == paymentID {
			out = append(out, *rf)
		}
	}
	return out, nil
}

func (m *mockPaymentRepo) MarkRefundCompleted(_ context.Context, id int64, gatewayRefundID string) (*domain.Refund, error) {
	rf, ok := m.refunds[id]
	if !ok {
		return nil, nil
	}
	if rf.Status == domain.RefundCompleted {
		return nil, nil
	}
	now := time.Now()
	rf.Status = domain.RefundCompleted
	rf.GatewayRefundID = gatewayRefundID
	rf.ProcessedAt = &now
	return rf, nil
}

// SumRefundsForPayment counts every non-failed refund, matching the ceiling
// the real query enforces.
func (m *mockPaymentRepo) SumRefundsForPayment(_ context.Context, paymentID int64) (float64, error) {
	var sum float64
	for _, rf := range m.refunds {
		if rf.PaymentID == paymentID && rf.Status != domain.RefundFailed {
			sum += rf.Amount
		}
	}
	return sum, nil
}

// ---------- users ----------

type mockUserRepo struct {
	users map[int64]*domain.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[int64]*domain.User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	m.users[u.ID] = u
	return u, nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	return m.users[id], nil
}

func (m *mockUserRepo) GetByEmail(context.Context, string) (*domain.User, error) { return nil, nil }

func (m *mockUserRepo) GetByUsername(context.Context, string) (*domain.User, error) {
	return nil, nil
}

func (m *mockUserRepo) List(context.Context, int, int) ([]domain.User, error) { return nil, nil }

func (m *mockUserRepo) Update(context.Context, int64, domain.UserPatch) (*domain.User, error) {
	return nil, nil
}

func (m *mockUserRepo) UpdatePassword(context.Context, int64, string) error { return nil }

func (m *mockUserRepo) RecordLogin(context.Context, int64) error { return nil }

func (m *mockUserRepo) Deactivate(context.Context, int64) (bool, error) { return false, nil }

func (m *mockUserRepo) CreateAddress(context.Context, int64, *domain.AddressCreateRequest) (*domain.UserAddress, error) {
	return nil, nil
}

func (m *mockUserRepo) GetAddress(context.Context, int64, int64) (*domain.UserAddress, error) {
	return nil, nil
}

func (m *mockUserRepo) ListAddresses(context.Context, int64) ([]domain.UserAddress, error) {
	return nil, nil
}

func (m *mockUserRepo) UpdateAddress(context.Context, int64, int64, domain.AddressPatch) (*domain.UserAddress, error) {
	return nil, nil
}

func (m *mockUserRepo) DeleteAddress(context.Context, int64, int64) (bool, error) {
	return false, nil
}

// ---------- reviews ----------

type mockReviewRepo struct {
	nextID    int64
	reviews   map[int64]*domain.Review
	responses map[int64]*domain.ReviewResponse // keyed by review id
}

func newMockReviewRepo() *mockReviewRepo {
	return &mockReviewRepo{
		nextID:    1,
		reviews:   make(map[int64]*domain.Review),
		responses: make(map[int64]*domain.ReviewResponse),
	}
}

func (m *mockReviewRepo) Create(_ context.Context, rv *domain.Review) (*domain.Review, error) {
	copied := *rv
	copied.ID = m.nextID
	m.nextID++
	copied.CreatedAt = time.Now()
	m.reviews[copied.ID] = &copied
	return &copied, nil
}

func (m *mockReviewRepo) GetByID(_ context.Context, id int64) (*domain.Review, error) {
	return m.reviews[id], nil
}

func (m *mockReviewRepo) GetByBookingID(_ context.Context, bookingID int64) (*domain.Review, error) {
	for _, rv := range m.reviews {
		if rv.BookingID == bookingID {
			return rv, nil
		}
	}
	return nil, nil
}

func (m *mockReviewRepo) ListByBusiness(_ context.Context, businessID int64, filter domain.ReviewFilter, _, _ int) ([]domain.Review, error) {
	var out []domain.Review
	for _, rv := range m.reviews {
		if rv.BusinessID != businessID {
			continue
		}
		if filter.Status != "" && rv.Status != filter.Status {
			continue
		}
		out = append(out, *rv)
	}
	return out, nil
}

func (m *mockReviewRepo) ListByUser(_ context.Context, userID int64, _, _ int) ([]domain.Review, error) {
	var out []domain.Review
	for _, rv := range m.reviews {
		if rv.UserID == userID {
			out = append(out, *rv)
		}
	}
	return out, nil
}

func (m *mockReviewRepo) Update(_ context.Context, id int64, patch domain.ReviewPatch) (*domain.Review, error) {
	rv, ok := m.reviews[id]
	if !ok {
		return nil, nil
	}
	if patch.Rating != nil {
		rv.Rating = *patch.Rating
	}
	if patch.Comment != nil {
		rv.Comment = *patch.Comment
	}
	return rv, nil
}

func (m *mockReviewRepo) SetStatus(_ context.Context, id int64, status domain.ReviewStatus) (*domain.Review, error) {
	rv, ok := m.reviews[id]
	if !ok {
		return nil, nil
	}
	rv.Status = status
	return rv, nil
}

func (m *mockReviewRepo) Delete(_ context.Context, id int64) (bool, error) {
	if _, ok := m.reviews[id]; !ok {
		return false, nil
	}
	delete(m.reviews, id)
	return true, nil
}

func (m *mockReviewRepo) AddHelpfulVote(_ context.Context, id int64) error {
	if rv, ok := m.reviews[id]; ok {
		rv.HelpfulVotes++
	}
	return nil
}

func (m *mockReviewRepo) CreateResponse(_ context.Context, resp *domain.ReviewResponse) (*domain.ReviewResponse, error) {
	copied := *resp
	copied.ID = m.nextID
	m.nextID++
	m.responses[resp.ReviewID] = &copied
	return &copied, nil
}

func (m *mockReviewRepo) GetResponseByReviewID(_ context.Context, reviewID int64) (*domain.ReviewResponse, error) {
	return m.responses[reviewID], nil
}

func (m *mockReviewRepo) UpdateResponse(_ context.Context, reviewID int64, text string) (*domain.ReviewResponse, error) {
	resp, ok := m.responses[reviewID]
	if !ok {
		return nil, nil
	}
	resp.Text = text
	return resp, nil
}

// ---------- actors ----------

func customerActor(id int64) *domain.Actor {
	return &domain.Actor{
		User:  &domain.User{ID: id, Email: "customer@example.com", FirstName: "Casey", Status: domain.UserActive},
		Roles: []string{domain.RoleCustomer},
	}
}

func ownerActor(id int64, businessIDs ...int64) *domain.Actor {
	return &domain.Actor{
		User:            &domain.User{ID: id, Email: "owner@example.com", FirstName: "Olive", Status: domain.UserActive},
		Roles:           []string{domain.RoleCustomer},
		OwnedBusinesses: businessIDs,
	}
}

func adminActor(id int64) *domain.Actor {
	return &domain.Actor{
		User:  &domain.User{ID: id, Email: "admin@example.com", FirstName: "Avery", Status: domain.UserActive},
		Roles: []string{domain.RoleAdmin},
	}
}
