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

func ptrInt(v int) *int           { return &v }
func ptrInt64(v int64) *int64     { return &v }
func ptrFloat(v float64) *float64 { return &v }
func ptrString(v string) *string  { return &v }

type promotionFixture struct {
	svc      PromotionService
	promos   *mockPromotionRepo
	bookings *mockBookingRepo
	bus      *mockPublisher
}

func newPromotionFixture() *promotionFixture {
	promos := newMockPromotionRepo()
	bookings := newMockBookingRepo()
	bus := &mockPublisher{}
	return &promotionFixture{
		svc:      NewPromotionService(promos, bookings, bus),
		promos:   promos,
		bookings: bookings,
		bus:      bus,
	}
}

func activePromotion(code string) *domain.Promotion {
	now := time.Now()
	return &domain.Promotion{
		Code:          code,
		Title:         "Test promotion",
		DiscountType:  domain.DiscountPercentage,
		DiscountValue: 10,
		PerUserLimit:  1,
		ValidFrom:     now.Add(-time.Hour),
		ValidUntil:    now.Add(24 * time.Hour),
		Status:        domain.PromotionActive,
		CreatedBy:     1,
	}
}

func TestDiscountFor(t *testing.T) {
	tests := []struct {
		name   string
		promo  *domain.Promotion
		amount float64
		want   float64
	}{
		{
			name:   "percentage",
			promo:  &domain.Promotion{DiscountType: domain.DiscountPercentage, DiscountValue: 20},
			amount: 200,
			want:   40,
		},
		{
			name:   "percentage capped at maximum discount",
			promo:  &domain.Promotion{DiscountType: domain.DiscountPercentage, DiscountValue: 50, MaximumDiscount: ptrFloat(30)},
			amount: 200,
			want:   30,
		},
		{
			name:   "fixed amount",
			promo:  &domain.Promotion{DiscountType: domain.DiscountFixedAmount, DiscountValue: 15},
			amount: 100,
			want:   15,
		},
		{
			name:   "fixed amount never exceeds the order",
			promo:  &domain.Promotion{DiscountType: domain.DiscountFixedAmount, DiscountValue: 80},
			amount: 50,
			want:   50,
		},
		{
			name:   "free service covers the full amount",
			promo:  &domain.Promotion{DiscountType: domain.DiscountFreeService, DiscountValue: 500},
			amount: 120,
			want:   120,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, discountFor(tt.promo, tt.amount))
		})
	}
}

func TestPromotionValidate(t *testing.T) {
	ctx := context.Background()
	actor := customerActor(7)

	f := newPromotionFixture()

	active := activePromotion("SAVE10")
	active.MinimumAmount = 50
	f.promos.add(active)

	expired := activePromotion("EXPIRED")
	expired.ValidUntil = time.Now().Add(-time.Hour)
	f.promos.add(expired)

	inactive := activePromotion("PAUSED")
	inactive.Status = domain.PromotionInactive
	f.promos.add(inactive)

	scoped := activePromotion("BIZ42")
	scoped.BusinessID = ptrInt64(42)
	f.promos.add(scoped)

	exhausted := activePromotion("SOLDOUT")
	exhausted.UsageLimit = ptrInt(5)
	exhausted.UsageCount = 5
	f.promos.add(exhausted)

	used := activePromotion("ONCE")
	f.promos.add(used)
	f.promos.userUsage[used.ID] = 1

	tests := []struct {
		name   string
		req    *domain.PromotionValidateRequest
		reason string
	}{
		{"unknown code", &domain.PromotionValidateRequest{Code: "NOPE", Amount: 100}, "promotion code not found"},
		{"expired", &domain.PromotionValidateRequest{Code: "EXPIRED", Amount: 100}, "promotion is not active"},
		{"inactive", &domain.PromotionValidateRequest{Code: "PAUSED", Amount: 100}, "promotion is not active"},
		{"wrong business", &domain.PromotionValidateRequest{Code: "BIZ42", BusinessID: ptrInt64(9), Amount: 100}, "promotion is not valid for this business"},
		{"usage limit reached", &domain.PromotionValidateRequest{Code: "SOLDOUT", Amount: 100}, "promotion usage limit reached"},
		{"per-user limit reached", &domain.PromotionValidateRequest{Code: "ONCE", Amount: 100}, "you have already used this promotion"},
		{"below minimum amount", &domain.PromotionValidateRequest{Code: "SAVE10", Amount: 20}, "order must be at least 50.00 to use this promotion"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := f.svc.Validate(ctx, actor, tt.req)
			require.NoError(t, err)
			assert.False(t, resp.IsValid)
			assert.Equal(t, tt.reason, resp.ErrorMessage)
		})
	}

	t.Run("valid code reports the discount", func(t *testing.T) {
		resp, err := f.svc.Validate(ctx, actor, &domain.PromotionValidateRequest{Code: "SAVE10", Amount: 200})
		require.NoError(t, err)
		assert.True(t, resp.IsValid)
		assert.Equal(t, 20.0, resp.DiscountAmount)
		require.NotNil(t, resp.Promotion)
		assert.Equal(t, active.ID, resp.Promotion.ID)
	})
}

func TestPromotionApply(t *testing.T) {
	ctx := context.Background()
	actor := customerActor(7)

	f := newPromotionFixture()
	promo := f.promos.add(activePromotion("SAVE10"))
	booking := f.bookings.add(&domain.Booking{
		UserID:      7,
		BusinessID:  1,
		TotalAmount: 200,
		FinalAmount: 200,
		Status:      domain.BookingConfirmed,
	})

	usage, err := f.svc.Apply(ctx, actor, &domain.PromotionApplyRequest{
		PromotionID: promo.ID,
		BookingID:   booking.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, booking.ID, usage.BookingID)
	assert.Equal(t, 20.0, usage.DiscountAmount)

	assert.Equal(t, 20.0, booking.DiscountAmount)
	assert.Equal(t, 180.0, booking.FinalAmount)
	assert.Equal(t, 1, promo.UsageCount)
	assert.True(t, f.bus.published(events.PromotionApplied))

	t.Run("a booking carries at most one promotion", func(t *testing.T) {
		_, err := f.svc.Apply(ctx, actor, &domain.PromotionApplyRequest{
			PromotionID: promo.ID,
			BookingID:   booking.ID,
		})
		require.ErrorIs(t, err, domain.ErrConflict)
	})
}

func TestPromotionApplyGuards(t *testing.T) {
	ctx := context.Background()

	t.Run("terminal booking", func(t *testing.T) {
		f := newPromotionFixture()
		promo := f.promos.add(activePromotion("SAVE10"))
		booking := f.bookings.add(&domain.Booking{UserID: 7, BusinessID: 1, TotalAmount: 100, Status: domain.BookingCancelled})

		_, err := f.svc.Apply(ctx, customerActor(7), &domain.PromotionApplyRequest{PromotionID: promo.ID, BookingID: booking.ID})
		require.ErrorIs(t, err, domain.ErrTerminalState)
	})

	t.Run("another customer's booking", func(t *testing.T) {
		f := newPromotionFixture()
		promo := f.promos.add(activePromotion("SAVE10"))
		booking := f.bookings.add(&domain.Booking{UserID: 7, BusinessID: 1, TotalAmount: 100, Status: domain.BookingConfirmed})

		_, err := f.svc.Apply(ctx, customerActor(8), &domain.PromotionApplyRequest{PromotionID: promo.ID, BookingID: booking.ID})
		require.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("usage limit is enforced at the claim", func(t *testing.T) {
		f := newPromotionFixture()
		promo := activePromotion("LAST1")
		promo.UsageLimit = ptrInt(1)
		f.promos.add(promo)

		first := f.bookings.add(&domain.Booking{UserID: 7, BusinessID: 1, TotalAmount: 100, Status: domain.BookingConfirmed})
		second := f.bookings.add(&domain.Booking{UserID: 8, BusinessID: 1, TotalAmount: 100, Status: domain.BookingConfirmed})

		_, err := f.svc.Apply(ctx, customerActor(7), &domain.PromotionApplyRequest{PromotionID: promo.ID, BookingID: first.ID})
		require.NoError(t, err)

		_, err = f.svc.Apply(ctx, customerActor(8), &domain.PromotionApplyRequest{PromotionID: promo.ID, BookingID: second.ID})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestPromotionDelete(t *testing.T) {
	ctx := context.Background()
	f := newPromotionFixture()

	promo := activePromotion("BIZ1")
	promo.BusinessID = ptrInt64(1)
	f.promos.add(promo)

	t.Run("non-owner is rejected", func(t *testing.T) {
		err := f.svc.Delete(ctx, customerActor(7), promo.ID)
		require.ErrorIs(t, err, domain.ErrForbidden)
		assert.Equal(t, domain.PromotionActive, promo.Status)
	})

	t.Run("owner deactivates instead of deleting", func(t *testing.T) {
		err := f.svc.Delete(ctx, ownerActor(3, 1), promo.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PromotionInactive, promo.Status)
	})
}

func TestPromotionCreateRejectsDuplicateCode(t *testing.T) {
	ctx := context.Background()
	f := newPromotionFixture()
	f.promos.add(activePromotion("TAKEN"))

	_, err := f.svc.Create(ctx, adminActor(1), &domain.PromotionCreateRequest{
		Code:          "TAKEN",
		Title:         "Duplicate",
		DiscountType:  domain.DiscountPercentage,
		DiscountValue: 10,
		ValidFrom:     time.Now(),
		ValidUntil:    time.Now().Add(time.Hour),
	})
	require.ErrorIs(t, err, domain.ErrConflict)
}
