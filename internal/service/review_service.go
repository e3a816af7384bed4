package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bookline/bookline-api/internal/domain"
	"github.com/bookline/bookline-api/internal/repo/postgres"
	"github.com/bookline/bookline-api/pkg/events"
	"github.com/bookline/bookline-api/pkg/logger"
)

type ReviewService interface {
	Create(ctx context.Context, actor *domain.Actor, req *domain.ReviewCreateRequest) (*domain.Review, error)
	Get(ctx context.Context, id int64) (*domain.Review, error)
	// ListApproved is the public read path: only approved reviews.
	ListApproved(ctx context.Context, businessID int64, filter domain.ReviewFilter, limit, offset int) ([]domain.Review, error)
	// ListAll exposes every status to the business owner and admins.
	ListAll(ctx context.Context, actor *domain.Actor, businessID int64, filter domain.ReviewFilter, limit, offset int) ([]domain.Review, error)
	ListMine(ctx context.Context, actor *domain.Actor, limit, offset int) ([]domain.Review, error)
	Update(ctx context.Context, actor *domain.Actor, id int64, patch domain.ReviewPatch) (*domain.Review, error)
	Moderate(ctx context.Context, actor *domain.Actor, id int64, status domain.ReviewStatus) (*domain.Review, error)
	Delete(ctx context.Context, actor *domain.Actor, id int64) error
	MarkHelpful(ctx context.Context, id int64) error

	Respond(ctx context.Context, actor *domain.Actor, req *domain.ReviewResponseCreateRequest) (*domain.ReviewResponse, error)
	GetResponse(ctx context.Context, reviewID int64) (*domain.ReviewResponse, error)
	UpdateResponse(ctx context.Context, actor *domain.Actor, reviewID int64, text string) (*domain.ReviewResponse, error)
}

type reviewService struct {
	reviewRepo   postgres.ReviewRepository
	bookingRepo  postgres.BookingRepository
	businessRepo postgres.BusinessRepository
	eventBus     events.Publisher
}

func NewReviewService(
	reviewRepo postgres.ReviewRepository,
	bookingRepo postgres.BookingRepository,
	businessRepo postgres.BusinessRepository,
	eventBus events.Publisher,
) ReviewService {
	return &reviewService{
		reviewRepo:   reviewRepo,
		bookingRepo:  bookingRepo,
		businessRepo: businessRepo,
		eventBus:     eventBus,
	}
}

func (s *reviewService) Create(ctx context.Context, actor *domain.Actor, req *domain.ReviewCreateRequest) (*domain.Review, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	booking, err := s.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if booking == nil {
		return nil, domain.NotFoundf("booking %d", req.BookingID)
	}
	if booking.UserID != actor.ID() {
		return nil, domain.Forbiddenf("only the booking's customer may leave a review")
	}
	if booking.Status != domain.BookingCompleted {
		return nil, domain.Invalidf("booking %d is not completed", booking.ID)
	}
	if booking.BusinessID != req.BusinessID {
		return nil, domain.Invalidf("booking %d does not belong to business %d", booking.ID, req.BusinessID)
	}

	if existing, err := s.reviewRepo.GetByBookingID(ctx, booking.ID); err != nil {
		return nil, fmt.Errorf("failed to check existing review: %w", err)
	} else if existing != nil {
		return nil, domain.Conflictf("booking %d already has a review", booking.ID)
	}

	review, err := s.reviewRepo.Create(ctx, &domain.Review{
		BookingID:      booking.ID,
		UserID:         actor.ID(),
		BusinessID:     booking.BusinessID,
		ServiceID:      booking.ServiceID,
		Rating:         req.Rating,
		Title:          req.Title,
		Comment:        req.Comment,
		Pros:           req.Pros,
		Cons:           req.Cons,
		WouldRecommend: req.WouldRecommend,
		// The review is tied to a completed booking we just verified.
		IsVerified: true,
		Status:     domain.ReviewPending,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	if err := s.eventBus.Publish(ctx, events.ReviewSubmitted, events.ReviewSubmittedEvent{
		ReviewID:   review.ID,
		BookingID:  booking.ID,
		BusinessID: booking.BusinessID,
		Rating:     review.Rating,
		CreatedAt:  time.Now(),
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish review.submitted", "error", err, "review_id", review.ID)
	}

	logger.InfoContext(ctx, "Review created", "review_id", review.ID, "business_id", review.BusinessID, "rating", review.Rating)
	return review, nil
}

func (s *reviewService) Get(ctx context.Context, id int64) (*domain.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load review: %w", err)
	}
	if review == nil {
		return nil, domain.NotFoundf("review %d", id)
	}
	return review, nil
}

func (s *reviewService) ListApproved(ctx context.Context, businessID int64, filter domain.ReviewFilter, limit, offset int) ([]domain.Review, error) {
	filter.Status = domain.ReviewApproved
	return s.reviewRepo.ListByBusiness(ctx, businessID, filter, limit, offset)
}

func (s *reviewService) ListAll(ctx context.Context, actor *domain.Actor, businessID int64, filter domain.ReviewFilter, limit, offset int) ([]domain.Review, error) {
	if !actor.CanManageBusiness(businessID) {
		return nil, domain.Forbiddenf("not an owner of business %d", businessID)
	}
	return s.reviewRepo.ListByBusiness(ctx, businessID, filter, limit, offset)
}

func (s *reviewService) ListMine(ctx context.Context, actor *domain.Actor, limit, offset int) ([]domain.Review, error) {
	return s.reviewRepo.ListByUser(ctx, actor.ID(), limit, offset)
}

func (s *reviewService) Update(ctx context.Context, actor *domain.Actor, id int64, patch domain.ReviewPatch) (*domain.Review, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	review, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if review.UserID != actor.ID() && !actor.IsAdmin() {
		return nil, domain.Forbiddenf("not allowed to edit review %d", id)
	}

	updated, err := s.reviewRepo.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update review: %w", err)
	}

	// An edited rating changes the business average even before remoderation.
	if patch.Rating != nil {
		s.refreshRating(ctx, review.BusinessID)
	}
	return updated, nil
}

func (s *reviewService) Moderate(ctx context.Context, actor *domain.Actor, id int64, status domain.ReviewStatus) (*domain.Review, error) {
	if _, ok := domain.ParseReviewStatus(string(status)); !ok {
		return nil, domain.Invalidf("invalid review status %q", status)
	}
	review, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManageBusiness(review.BusinessID) {
		return nil, domain.Forbiddenf("not allowed to moderate review %d", id)
	}

	moderated, err := s.reviewRepo.SetStatus(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("failed to set review status: %w", err)
	}

	s.refreshRating(ctx, review.BusinessID)

	if err := s.eventBus.Publish(ctx, events.ReviewModerated, events.ReviewSubmittedEvent{
		ReviewID:   id,
		BookingID:  review.BookingID,
		BusinessID: review.BusinessID,
		Rating:     review.Rating,
		CreatedAt:  time.Now(),
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish review.moderated", "error", err, "review_id", id)
	}
	return moderated, nil
}

func (s *reviewService) Delete(ctx context.Context, actor *domain.Actor, id int64) error {
	review, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if review.UserID != actor.ID() && !actor.IsAdmin() {
		return domain.Forbiddenf("not allowed to delete review %d", id)
	}

	ok, err := s.reviewRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	if !ok {
		return domain.NotFoundf("review %d", id)
	}

	s.refreshRating(ctx, review.BusinessID)
	return nil
}

func (s *reviewService) MarkHelpful(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.reviewRepo.AddHelpfulVote(ctx, id); err != nil {
		return fmt.Errorf("failed to record helpful vote: %w", err)
	}
	return nil
}

func (s *reviewService) Respond(ctx context.Context, actor *domain.Actor, req *domain.ReviewResponseCreateRequest) (*domain.ReviewResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	review, err := s.Get(ctx, req.ReviewID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManageBusiness(review.BusinessID) {
		return nil, domain.Forbiddenf("only the business owner may respond to reviews")
	}

	if existing, err := s.reviewRepo.GetResponseByReviewID(ctx, review.ID); err != nil {
		return nil, fmt.Errorf("failed to check existing response: %w", err)
	} else if existing != nil {
		return nil, domain.Conflictf("review %d already has a response", review.ID)
	}

	response, err := s.reviewRepo.CreateResponse(ctx, &domain.ReviewResponse{
		ReviewID:    review.ID,
		BusinessID:  review.BusinessID,
		Text:        req.Text,
		RespondedBy: actor.ID(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create response: %w", err)
	}
	return response, nil
}

func (s *reviewService) GetResponse(ctx context.Context, reviewID int64) (*domain.ReviewResponse, error) {
	response, err := s.reviewRepo.GetResponseByReviewID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to load response: %w", err)
	}
	if response == nil {
		return nil, domain.NotFoundf("response for review %d", reviewID)
	}
	return response, nil
}

func (s *reviewService) UpdateResponse(ctx context.Context, actor *domain.Actor, reviewID int64, text string) (*domain.ReviewResponse, error) {
	if text == "" {
		return nil, domain.Invalidf("response text is required")
	}
	review, err := s.Get(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManageBusiness(review.BusinessID) {
		return nil, domain.Forbiddenf("only the business owner may edit the response")
	}

	response, err := s.reviewRepo.UpdateResponse(ctx, reviewID, text)
	if err != nil {
		return nil, fmt.Errorf("failed to update response: %w", err)
	}
	if response == nil {
		return nil, domain.NotFoundf("response for review %d", reviewID)
	}
	return response, nil
}

func (s *reviewService) refreshRating(ctx context.Context, businessID int64) {
	if err := s.businessRepo.RefreshRating(ctx, businessID); err != nil {
		logger.ErrorContext(ctx, "Failed to refresh business rating", "error", err, "business_id", businessID)
	}
}
