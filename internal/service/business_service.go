package service

import (
	"context"
	"fmt"

	"github.com/bookline/bookline-api/internal/domain"
	"github.com/bookline/bookline-api/internal/repo/postgres"
	"github.com/bookline/bookline-api/pkg/logger"
)

type BusinessService interface {
	Create(ctx context.Context, actor *domain.Actor, req *domain.BusinessCreateRequest) (*domain.Business, error)
	Get(ctx context.Context, id int64) (*domain.Business, error)
	List(ctx context.Context, filter domain.BusinessFilter, limit, offset int) ([]domain.Business, error)
	ListMine(ctx context.Context, actor *domain.Actor) ([]domain.Business, error)
	Update(ctx context.Context, actor *domain.Actor, id int64, patch domain.BusinessPatch) (*domain.Business, error)
	Close(ctx context.Context, actor *domain.Actor, id int64) error

	CreateAddress(ctx context.Context, actor *domain.Actor, businessID int64, req *domain.BusinessAddressCreateRequest) (*domain.BusinessAddress, error)
	ListAddresses(ctx context.Context, businessID int64) ([]domain.BusinessAddress, error)
	UpdateAddress(ctx context.Context, actor *domain.Actor, businessID, addressID int64, patch domain.BusinessAddressPatch) (*domain.BusinessAddress, error)
	DeleteAddress(ctx context.Context, actor *domain.Actor, businessID, addressID int64) error

	UpsertHours(ctx context.Context, actor *domain.Actor, businessID int64, req *domain.BusinessHoursUpsertRequest) (*domain.BusinessHours, error)
	ListHours(ctx context.Context, businessID int64) ([]domain.BusinessHours, error)
}

type businessService struct {
	businessRepo postgres.BusinessRepository
}

func NewBusinessService(businessRepo postgres.BusinessRepository) BusinessService {
	return &businessService{businessRepo: businessRepo}
}

func (s *businessService) Create(ctx context.Context, actor *domain.Actor, req *domain.BusinessCreateRequest) (*domain.Business, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	business, err := s.businessRepo.Create(ctx, actor.ID(), req)
	if err != nil {
		return nil, fmt.Errorf("failed to create business: %w", err)
	}

	logger.InfoContext(ctx, "Business created", "business_id", business.ID, "owner_id", actor.ID())
	return business, nil
}

func (s *businessService) Get(ctx context.Context, id int64) (*domain.Business, error) {
	business, err := s.businessRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load business: %w", err)
	}
	if business == nil {
		return nil, domain.NotFoundf("business %d", id)
	}
	return business, nil
}

func (s *businessService) List(ctx context.Context, filter domain.BusinessFilter, limit, offset int) ([]domain.Business, error) {
	return s.businessRepo.List(ctx, filter, limit, offset)
}

func (s *businessService) ListMine(ctx context.Context, actor *domain.Actor) ([]domain.Business, error) {
	return s.businessRepo.ListByOwner(ctx, actor.ID())
}

func (s *businessService) Update(ctx context.Context, actor *domain.Actor, id int64, patch domain.BusinessPatch) (*domain.Business, error) {
	if !actor.CanManageBusiness(id) {
		return nil, domain.Forbiddenf("not an owner of business %d", id)
	}
	// Featured placement and status moderation are platform decisions.
	if (patch.Featured != nil || patch.Status != nil) && !actor.IsAdmin() {
		return nil, domain.Forbiddenf("only admins may change status or featured placement")
	}

	business, err := s.businessRepo.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update business: %w", err)
	}
	if business == nil {
		return nil, domain.NotFoundf("business %d", id)
	}
	return business, nil
}

func (s *businessService) Close(ctx context.Context, actor *domain.Actor, id int64) error {
	if !actor.CanManageBusiness(id) {
		return domain.Forbiddenf("not an owner of business %d", id)
	}

	ok, err := s.businessRepo.Close(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to close business: %w", err)
	}
	if !ok {
		return domain.NotFoundf("business %d", id)
	}
	return nil
}

func (s *businessService) CreateAddress(ctx context.Context, actor *domain.Actor, businessID int64, req *domain.BusinessAddressCreateRequest) (*domain.BusinessAddress, error) {
	if !actor.CanManageBusiness(businessID) {
		return nil, domain.Forbiddenf("not an owner of business %d", businessID)
	}
	if req.StreetAddress == "" || req.City == "" || req.Country == "" {
		return nil, domain.Invalidf("street address, city and country are required")
	}

	addr, err := s.businessRepo.CreateAddress(ctx, businessID, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create business address: %w", err)
	}
	return addr, nil
}

func (s *businessService) ListAddresses(ctx context.Context, businessID int64) ([]domain.BusinessAddress, error) {
	return s.businessRepo.ListAddresses(ctx, businessID)
}

func (s *businessService) UpdateAddress(ctx context.Context, actor *domain.Actor, businessID, addressID int64, patch domain.BusinessAddressPatch) (*domain.BusinessAddress, error) {
	if !actor.CanManageBusiness(businessID) {
		return nil, domain.Forbiddenf("not an owner of business %d", businessID)
	}

	addr, err := s.businessRepo.UpdateAddress(ctx, businessID, addressID, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update business address: %w", err)
	}
	if addr == nil {
		return nil, domain.NotFoundf("address %d", addressID)
	}
	return addr, nil
}

func (s *businessService) DeleteAddress(ctx context.Context, actor *domain.Actor, businessID, addressID int64) error {
	if !actor.CanManageBusiness(businessID) {
		return domain.Forbiddenf("not an owner of business %d", businessID)
	}

	ok, err := s.businessRepo.DeleteAddress(ctx, businessID, addressID)
	if err != nil {
		return fmt.Errorf("failed to delete business address: %w", err)
	}
	if !ok {
		return domain.NotFoundf("address %d", addressID)
	}
	return nil
}

func (s *businessService) UpsertHours(ctx context.Context, actor *domain.Actor, businessID int64, req *domain.BusinessHoursUpsertRequest) (*domain.BusinessHours, error) {
	if !actor.CanManageBusiness(businessID) {
		return nil, domain.Forbiddenf("not an owner of business %d", businessID)
	}
	if _, ok := domain.ParseDayOfWeek(string(req.DayOfWeek)); !ok {
		return nil, domain.Invalidf("invalid day of week %q", req.DayOfWeek)
	}
	if req.IsOpen && (req.OpenTime == "" || req.CloseTime == "") {
		return nil, domain.Invalidf("open and close times are required for open days")
	}

	hours, err := s.businessRepo.UpsertHours(ctx, businessID, req)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert hours: %w", err)
	}
	return hours, nil
}

func (s *businessService) ListHours(ctx context.Context, businessID int64) ([]domain.BusinessHours, error) {
	return s.businessRepo.ListHours(ctx, businessID)
}
