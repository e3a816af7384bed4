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

type PromotionService interface {
	Create(ctx context.Context, actor *domain.Actor, req *domain.PromotionCreateRequest) (*domain.Promotion, error)
	Get(ctx context.Context, id int64) (*domain.Promotion, error)
	List(ctx context.Context, businessID *int64, status domain.PromotionStatus, limit, offset int) ([]domain.Promotion, error)
	Update(ctx context.Context, actor *domain.Actor, id int64, patch domain.PromotionPatch) (*domain.Promotion, error)
	Delete(ctx context.Context, actor *domain.Actor, id int64) error

	// Validate is deterministic and side-effect-free: an invalid code comes
	// back with IsValid=false and a reason, never an error.
	Validate(ctx context.Context, actor *domain.Actor, req *domain.PromotionValidateRequest) (*domain.PromotionValidateResponse, error)
	Apply(ctx context.Context, actor *domain.Actor, req *domain.PromotionApplyRequest) (*domain.PromotionUsage, error)
	ListUsage(ctx context.Context, actor *domain.Actor, promotionID int64, limit, offset int) ([]domain.PromotionUsage, error)
}

type promotionService struct {
	promotionRepo postgres.PromotionRepository
	bookingRepo   postgres.BookingRepository
	eventBus      events.Publisher
}

func NewPromotionService(promotionRepo postgres.PromotionRepository, bookingRepo postgres.BookingRepository, eventBus events.Publisher) PromotionService {
	return &promotionService{promotionRepo: promotionRepo, bookingRepo: bookingRepo, eventBus: eventBus}
}

// canManagePromotion: platform-wide promotions are admin territory,
// business-scoped ones belong to that business's owner.
func canManagePromotion(actor *domain.Actor, businessID *int64) bool {
	if actor.IsAdmin() {
		return true
	}
	return businessID != nil && actor.OwnsBusiness(*businessID)
}

func (s *promotionService) Create(ctx context.Context, actor *domain.Actor, req *domain.PromotionCreateRequest) (*domain.Promotion, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !canManagePromotion(actor, req.BusinessID) {
		return nil, domain.Forbiddenf("not allowed to create this promotion")
	}

	if existing, err := s.promotionRepo.GetByCode(ctx, req.Code); err != nil {
		return nil, fmt.Errorf("failed to check promotion code: %w", err)
	} else if existing != nil {
		return nil, domain.Conflictf("promotion code %s already exists", req.Code)
	}

	promotion, err := s.promotionRepo.Create(ctx, actor.ID(), req)
	if err != nil {
		return nil, fmt.Errorf("failed to create promotion: %w", err)
	}

	logger.InfoContext(ctx, "Promotion created", "promotion_id", promotion.ID, "code", promotion.Code)
	return promotion, nil
}

func (s *promotionService) Get(ctx context.Context, id int64) (*domain.Promotion, error) {
	promotion, err := s.promotionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load promotion: %w", err)
	}
	if promotion == nil {
		return nil, domain.NotFoundf("promotion %d", id)
	}
	return promotion, nil
}

func (s *promotionService) List(ctx context.Context, businessID *int64, status domain.PromotionStatus, limit, offset int) ([]domain.Promotion, error) {
	return s.promotionRepo.List(ctx, businessID, status, limit, offset)
}

func (s *promotionService) Update(ctx context.Context, actor *domain.Actor, id int64, patch domain.PromotionPatch) (*domain.Promotion, error) {
	promotion, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManagePromotion(actor, promotion.BusinessID) {
		return nil, domain.Forbiddenf("not allowed to update promotion %d", id)
	}

	updated, err := s.promotionRepo.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update promotion: %w", err)
	}
	return updated, nil
}

// Delete soft-deletes a promotion that has ever been redeemed, keeping its
// usage history intact. Never-used promotions are deactivated the same way;
// the row always survives.
func (s *promotionService) Delete(ctx context.Context, actor *domain.Actor, id int64) error {
	promotion, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !canManagePromotion(actor, promotion.BusinessID) {
		return domain.Forbiddenf("not allowed to delete promotion %d", id)
	}

	ok, err := s.promotionRepo.Deactivate(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate promotion: %w", err)
	}
	if !ok {
		return domain.NotFoundf("promotion %d", id)
	}
	return nil
}

// discountFor computes the discount a promotion grants on an order amount.
// Percentage discounts are capped at maximum_discount when set; fixed
// discounts never exceed the amount itself.
func discountFor(p *domain.Promotion, amount float64) float64 {
	var discount float64
	switch p.DiscountType {
	case domain.DiscountPercentage:
		discount = amount * p.DiscountValue / 100
		if p.MaximumDiscount != nil && discount > *p.MaximumDiscount {
			discount = *p.MaximumDiscount
		}
	case domain.DiscountFixedAmount, domain.DiscountFreeService:
		discount = p.DiscountValue
	}
	if discount > amount {
		discount = amount
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}

func (s *promotionService) Validate(ctx context.Context, actor *domain.Actor, req *domain.PromotionValidateRequest) (*domain.PromotionValidateResponse, error) {
	invalid := func(reason string) *domain.PromotionValidateResponse {
		return &domain.PromotionValidateResponse{IsValid: false, ErrorMessage: reason}
	}

	promotion, err := s.promotionRepo.GetByCode(ctx, req.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to load promotion: %w", err)
	}
	if promotion == nil {
		return invalid("promotion code not found"), nil
	}

	now := time.Now()
	if promotion.Status != domain.PromotionActive || now.Before(promotion.ValidFrom) || now.After(promotion.ValidUntil) {
		return invalid("promotion is not active"), nil
	}
	if promotion.BusinessID != nil && (req.BusinessID == nil || *req.BusinessID != *promotion.BusinessID) {
		return invalid("promotion is not valid for this business"), nil
	}
	if promotion.UsageLimit != nil && promotion.UsageCount >= *promotion.UsageLimit {
		return invalid("promotion usage limit reached"), nil
	}

	used, err := s.promotionRepo.CountUserUsage(ctx, promotion.ID, actor.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to count usage: %w", err)
	}
	if used >= promotion.PerUserLimit {
		return invalid("you have already used this promotion"), nil
	}
	if req.Amount < promotion.MinimumAmount {
		return invalid(fmt.Sprintf("order must be at least %.2f to use this promotion", promotion.MinimumAmount)), nil
	}

	return &domain.PromotionValidateResponse{
		IsValid:        true,
		Promotion:      promotion,
		DiscountAmount: discountFor(promotion, req.Amount),
	}, nil
}

func (s *promotionService) Apply(ctx context.Context, actor *domain.Actor, req *domain.PromotionApplyRequest) (*domain.PromotionUsage, error) {
	promotion, err := s.Get(ctx, req.PromotionID)
	if err != nil {
		return nil, err
	}

	booking, err := s.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if booking == nil {
		return nil, domain.NotFoundf("booking %d", req.BookingID)
	}
	if booking.UserID != actor.ID() && !actor.IsAdmin() {
		return nil, domain.Forbiddenf("only the booking's customer may apply a promotion")
	}
	if booking.Status.IsTerminal() {
		return nil, domain.Terminalf("booking %d is %s", booking.ID, booking.Status)
	}

	if applied, err := s.promotionRepo.HasUsageForBooking(ctx, booking.ID); err != nil {
		return nil, fmt.Errorf("failed to check booking usage: %w", err)
	} else if applied {
		return nil, domain.Conflictf("booking %d already has a promotion applied", booking.ID)
	}

	check, err := s.Validate(ctx, actor, &domain.PromotionValidateRequest{
		Code:       promotion.Code,
		BusinessID: &booking.BusinessID,
		Amount:     booking.TotalAmount,
	})
	if err != nil {
		return nil, err
	}
	if !check.IsValid {
		return nil, domain.Invalidf("%s", check.ErrorMessage)
	}
	discount := check.DiscountAmount

	// The claim is the atomic gate on usage_limit; everything after it rolls
	// the claim back on failure.
	claimed, err := s.promotionRepo.ClaimUsage(ctx, promotion.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to claim usage: %w", err)
	}
	if !claimed {
		return nil, domain.Conflictf("promotion usage limit reached")
	}

	usage, err := s.promotionRepo.RecordUsage(ctx, &domain.PromotionUsage{
		PromotionID:    promotion.ID,
		UserID:         booking.UserID,
		BookingID:      booking.ID,
		DiscountAmount: discount,
	})
	if err != nil {
		if relErr := s.promotionRepo.ReleaseUsage(ctx, promotion.ID); relErr != nil {
			logger.ErrorContext(ctx, "Failed to release usage claim", "error", relErr, "promotion_id", promotion.ID)
		}
		return nil, fmt.Errorf("failed to record usage: %w", err)
	}

	final := booking.TotalAmount - discount
	if final < 0 {
		final = 0
	}
	if err := s.bookingRepo.SetAmounts(ctx, booking.ID, discount, final); err != nil {
		logger.ErrorContext(ctx, "Failed to apply discount to booking", "error", err, "booking_id", booking.ID)
	}

	if err := s.eventBus.Publish(ctx, events.PromotionApplied, events.PromotionAppliedEvent{
		PromotionID:    promotion.ID,
		BookingID:      booking.ID,
		UserID:         booking.UserID,
		Code:           promotion.Code,
		DiscountAmount: discount,
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish promotion.applied", "error", err, "promotion_id", promotion.ID)
	}

	logger.InfoContext(ctx, "Promotion applied",
		"promotion_id", promotion.ID, "booking_id", booking.ID, "discount", discount)
	return usage, nil
}

func (s *promotionService) ListUsage(ctx context.Context, actor *domain.Actor, promotionID int64, limit, offset int) ([]domain.PromotionUsage, error) {
	promotion, err := s.Get(ctx, promotionID)
	if err != nil {
		return nil, err
	}
	if !canManagePromotion(actor, promotion.BusinessID) {
		return nil, domain.Forbiddenf("not allowed to view usage for promotion %d", promotionID)
	}
	return s.promotionRepo.ListUsage(ctx, promotionID, limit, offset)
}
