package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookline/bookline-api/internal/domain"
	"github.com/bookline/bookline-api/pkg/events"
)

type reviewFixture struct {
	svc        ReviewService
	reviews    *mockReviewRepo
	bookings   *mockBookingRepo
	businesses *mockBusinessRepo
	bus        *mockPublisher
}

func newReviewFixture() *reviewFixture {
	reviews := newMockReviewRepo()
	bookings := newMockBookingRepo()
	businesses := newMockBusinessRepo()
	bus := &mockPublisher{}
	return &reviewFixture{
		svc:        NewReviewService(reviews, bookings, businesses, bus),
		reviews:    reviews,
		bookings:   bookings,
		businesses: businesses,
		bus:        bus,
	}
}

func (f *reviewFixture) seedCompletedBooking(userID int64) *domain.Booking {
	return f.bookings.add(&domain.Booking{
		UserID:     userID,
		BusinessID: 1,
		Status:     domain.BookingCompleted,
	})
}

func TestCreateReview(t *testing.T) {
	ctx := context.Background()

	t.Run("completed booking yields a verified pending review", func(t *testing.T) {
		f := newReviewFixture()
		booking := f.seedCompletedBooking(7)

		review, err := f.svc.Create(ctx, customerActor(7), &domain.ReviewCreateRequest{
			BookingID:  booking.ID,
			BusinessID: 1,
			Rating:     5,
			Comment:    "Great session",
		})
		require.NoError(t, err)
		assert.True(t, review.IsVerified)
		assert.Equal(t, domain.ReviewPending, review.Status)
		assert.Equal(t, int64(1), review.BusinessID)
		assert.True(t, f.bus.published(events.ReviewSubmitted))
	})

	t.Run("uncompleted booking is rejected", func(t *testing.T) {
		f := newReviewFixture()
		booking := f.bookings.add(&domain.Booking{UserID: 7, BusinessID: 1, Status: domain.BookingConfirmed})

		_, err := f.svc.Create(ctx, customerActor(7), &domain.ReviewCreateRequest{
			BookingID:  booking.ID,
			BusinessID: 1,
			Rating:     4,
		})
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("only the booking's customer may review", func(t *testing.T) {
		f := newReviewFixture()
		booking := f.seedCompletedBooking(7)

		_, err := f.svc.Create(ctx, customerActor(8), &domain.ReviewCreateRequest{
			BookingID:  booking.ID,
			BusinessID: 1,
			Rating:     4,
		})
		require.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("one review per booking", func(t *testing.T) {
		f := newReviewFixture()
		booking := f.seedCompletedBooking(7)

		_, err := f.svc.Create(ctx, customerActor(7), &domain.ReviewCreateRequest{
			BookingID:  booking.ID,
			BusinessID: 1,
			Rating:     5,
		})
		require.NoError(t, err)

		_, err = f.svc.Create(ctx, customerActor(7), &domain.ReviewCreateRequest{
			BookingID:  booking.ID,
			BusinessID: 1,
			Rating:     3,
		})
		require.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("rating bounds", func(t *testing.T) {
		f := newReviewFixture()
		booking := f.seedCompletedBooking(7)

		_, err := f.svc.Create(ctx, customerActor(7), &domain.ReviewCreateRequest{
			BookingID:  booking.ID,
			BusinessID: 1,
			Rating:     6,
		})
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestModerateReview(t *testing.T) {
	ctx := context.Background()
	f := newReviewFixture()
	booking := f.seedCompletedBooking(7)

	review, err := f.svc.Create(ctx, customerActor(7), &domain.ReviewCreateRequest{
		BookingID:  booking.ID,
		BusinessID: 1,
		Rating:     5,
	})
	require.NoError(t, err)

	t.Run("customers cannot moderate", func(t *testing.T) {
		_, err := f.svc.Moderate(ctx, customerActor(7), review.ID, domain.ReviewApproved)
		require.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("invalid status", func(t *testing.T) {
		_, err := f.svc.Moderate(ctx, ownerActor(3, 1), review.ID, "shadowbanned")
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("approval refreshes the business rating", func(t *testing.T) {
		moderated, err := f.svc.Moderate(ctx, ownerActor(3, 1), review.ID, domain.ReviewApproved)
		require.NoError(t, err)
		assert.Equal(t, domain.ReviewApproved, moderated.Status)
		assert.Contains(t, f.businesses.refreshed, int64(1))
		assert.True(t, f.bus.published(events.ReviewModerated))
	})
}

func TestUpdateReviewRatingRefreshesBusiness(t *testing.T) {
	ctx := context.Background()
	f := newReviewFixture()
	booking := f.seedCompletedBooking(7)

	review, err := f.svc.Create(ctx, customerActor(7), &domain.ReviewCreateRequest{
		BookingID:  booking.ID,
		BusinessID: 1,
		Rating:     5,
	})
	require.NoError(t, err)

	// A comment-only edit leaves the aggregate alone.
	_, err = f.svc.Update(ctx, customerActor(7), review.ID, domain.ReviewPatch{Comment: ptrString("updated")})
	require.NoError(t, err)
	assert.Empty(t, f.businesses.refreshed)

	rating := 2
	updated, err := f.svc.Update(ctx, customerActor(7), review.ID, domain.ReviewPatch{Rating: &rating})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Rating)
	assert.Contains(t, f.businesses.refreshed, int64(1))

	t.Run("strangers cannot edit", func(t *testing.T) {
		_, err := f.svc.Update(ctx, customerActor(8), review.ID, domain.ReviewPatch{Rating: &rating})
		require.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestListApprovedFiltersStatus(t *testing.T) {
	ctx := context.Background()
	f := newReviewFixture()

	f.reviews.reviews[1] = &domain.Review{ID: 1, BusinessID: 1, Status: domain.ReviewApproved, Rating: 5}
	f.reviews.reviews[2] = &domain.Review{ID: 2, BusinessID: 1, Status: domain.ReviewPending, Rating: 1}

	listed, err := f.svc.ListApproved(ctx, 1, domain.ReviewFilter{}, 50, 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, domain.ReviewApproved, listed[0].Status)
}

func TestReviewResponses(t *testing.T) {
	ctx := context.Background()
	f := newReviewFixture()
	booking := f.seedCompletedBooking(7)

	review, err := f.svc.Create(ctx, customerActor(7), &domain.ReviewCreateRequest{
		BookingID:  booking.ID,
		BusinessID: 1,
		Rating:     4,
	})
	require.NoError(t, err)
	owner := ownerActor(3, 1)

	t.Run("customers cannot respond", func(t *testing.T) {
		_, err := f.svc.Respond(ctx, customerActor(7), &domain.ReviewResponseCreateRequest{
			ReviewID: review.ID,
			Text:     "thanks",
		})
		require.ErrorIs(t, err, domain.ErrForbidden)
	})

	resp, err := f.svc.Respond(ctx, owner, &domain.ReviewResponseCreateRequest{
		ReviewID: review.ID,
		Text:     "Thanks for visiting!",
	})
	require.NoError(t, err)
	assert.Equal(t, review.ID, resp.ReviewID)
	assert.Equal(t, int64(3), resp.RespondedBy)

	t.Run("one response per review", func(t *testing.T) {
		_, err := f.svc.Respond(ctx, owner, &domain.ReviewResponseCreateRequest{
			ReviewID: review.ID,
			Text:     "again",
		})
		require.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("owner edits the response in place", func(t *testing.T) {
		updated, err := f.svc.UpdateResponse(ctx, owner, review.ID, "Corrected reply")
		require.NoError(t, err)
		assert.Equal(t, "Corrected reply", updated.Text)
	})
}

func TestDeleteReviewRefreshesRating(t *testing.T) {
	ctx := context.Background()
	f := newReviewFixture()
	booking := f.seedCompletedBooking(7)

	review, err := f.svc.Create(ctx, customerActor(7), &domain.ReviewCreateRequest{
		BookingID:  booking.ID,
		BusinessID: 1,
		Rating:     1,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, customerActor(7), review.ID))
	assert.Contains(t, f.businesses.refreshed, int64(1))

	_, err = f.svc.Get(ctx, review.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
