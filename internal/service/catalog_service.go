package service

import (
	"context"
	"fmt"

	"github.com/bookline/bookline-api/internal/domain"
	"github.com/bookline/bookline-api/internal/repo/postgres"
)

type CatalogService interface {
	CreateCategory(ctx context.Context, actor *domain.Actor, req *domain.CategoryCreateRequest) (*domain.Category, error)
	GetCategory(ctx context.Context, id int64) (*domain.Category, error)
	ListCategories(ctx context.Context, parentID *int64, activeOnly bool) ([]domain.Category, error)
	UpdateCategory(ctx context.Context, actor *domain.Actor, id int64, patch domain.CategoryPatch) (*domain.Category, error)
	DeactivateCategory(ctx context.Context, actor *domain.Actor, id int64) error

	CreateService(ctx context.Context, actor *domain.Actor, req *domain.ServiceCreateRequest) (*domain.Service, error)
	GetService(ctx context.Context, id int64) (*domain.Service, error)
	ListServices(ctx context.Context, filter domain.ServiceFilter, limit, offset int) ([]domain.Service, error)
	UpdateService(ctx context.Context, actor *domain.Actor, id int64, patch domain.ServicePatch) (*domain.Service, error)
	DeactivateService(ctx context.Context, actor *domain.Actor, id int64) error

	CreatePricing(ctx context.Context, actor *domain.Actor, req *domain.PricingCreateRequest) (*domain.ServicePricing, error)
	ListPricing(ctx context.Context, serviceID int64) ([]domain.ServicePricing, error)
	UpdatePricing(ctx context.Context, actor *domain.Actor, serviceID, pricingID int64, patch domain.PricingPatch) (*domain.ServicePricing, error)
	DeletePricing(ctx context.Context, actor *domain.Actor, serviceID, pricingID int64) error

	CreateResource(ctx context.Context, actor *domain.Actor, req *domain.ResourceCreateRequest) (*domain.Resource, error)
	GetResource(ctx context.Context, id int64) (*domain.Resource, error)
	ListResources(ctx context.Context, filter domain.ResourceFilter, limit, offset int) ([]domain.Resource, error)
	UpdateResource(ctx context.Context, actor *domain.Actor, id int64, patch domain.ResourcePatch) (*domain.Resource, error)
	DeactivateResource(ctx context.Context, actor *domain.Actor, id int64) error
}

type catalogService struct {
	catalogRepo  postgres.CatalogRepository
	categoryRepo postgres.CategoryRepository
}

func NewCatalogService(catalogRepo postgres.CatalogRepository, categoryRepo postgres.CategoryRepository) CatalogService {
	return &catalogService{catalogRepo: catalogRepo, categoryRepo: categoryRepo}
}

func (s *catalogService) CreateCategory(ctx context.Context, actor *domain.Actor, req *domain.CategoryCreateRequest) (*domain.Category, error) {
	if !actor.IsAdmin() {
		return nil, domain.Forbiddenf("only admins may manage categories")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.ParentID != nil {
		parent, err := s.categoryRepo.GetByID(ctx, *req.ParentID)
		if err != nil {
			return nil, fmt.Errorf("failed to load parent category: %w", err)
		}
		if parent == nil {
			return nil, domain.NotFoundf("parent category %d", *req.ParentID)
		}
	}

	category, err := s.categoryRepo.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}

func (s *catalogService) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load category: %w", err)
	}
	if category == nil {
		return nil, domain.NotFoundf("category %d", id)
	}
	return category, nil
}

func (s *catalogService) ListCategories(ctx context.Context, parentID *int64, activeOnly bool) ([]domain.Category, error) {
	return s.categoryRepo.List(ctx, parentID, activeOnly)
}

func (s *catalogService) UpdateCategory(ctx context.Context, actor *domain.Actor, id int64, patch domain.CategoryPatch) (*domain.Category, error) {
	if !actor.IsAdmin() {
		return nil, domain.Forbiddenf("only admins may manage categories")
	}
	if patch.ParentID != nil {
		if *patch.ParentID == id {
			return nil, domain.Invalidf("a category cannot be its own parent")
		}
		parent, err := s.categoryRepo.GetByID(ctx, *patch.ParentID)
		if err != nil {
			return nil, fmt.Errorf("failed to load parent category: %w", err)
		}
		if parent == nil {
			return nil, domain.NotFoundf("parent category %d", *patch.ParentID)
		}
		// Reject a parent that lives in this category's own subtree.
		cyclic, err := s.categoryRepo.IsAncestor(ctx, id, *patch.ParentID)
		if err != nil {
			return nil, fmt.Errorf("failed to check category ancestry: %w", err)
		}
		if cyclic {
			return nil, domain.Invalidf("reparenting category %d under %d would create a cycle", id, *patch.ParentID)
		}
	}

	category, err := s.categoryRepo.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	if category == nil {
		return nil, domain.NotFoundf("category %d", id)
	}
	return category, nil
}

func (s *catalogService) DeactivateCategory(ctx context.Context, actor *domain.Actor, id int64) error {
	if !actor.IsAdmin() {
		return domain.Forbiddenf("only admins may manage categories")
	}
	ok, err := s.categoryRepo.Deactivate(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate category: %w", err)
	}
	if !ok {
		return domain.NotFoundf("category %d", id)
	}
	return nil
}

func (s *catalogService) CreateService(ctx context.Context, actor *domain.Actor, req *domain.ServiceCreateRequest) (*domain.Service, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !actor.CanManageBusiness(req.BusinessID) {
		return nil, domain.Forbiddenf("not an owner of business %d", req.BusinessID)
	}
	if req.CategoryID != nil {
		category, err := s.categoryRepo.GetByID(ctx, *req.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("failed to load category: %w", err)
		}
		if category == nil {
			return nil, domain.NotFoundf("category %d", *req.CategoryID)
		}
	}

	svc, err := s.catalogRepo.CreateService(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}
	return svc, nil
}

func (s *catalogService) GetService(ctx context.Context, id int64) (*domain.Service, error) {
	svc, err := s.catalogRepo.GetService(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load service: %w", err)
	}
	if svc == nil {
		return nil, domain.NotFoundf("service %d", id)
	}
	return svc, nil
}

func (s *catalogService) ListServices(ctx context.Context, filter domain.ServiceFilter, limit, offset int) ([]domain.Service, error) {
	return s.catalogRepo.ListServices(ctx, filter, limit, offset)
}

func (s *catalogService) UpdateService(ctx context.Context, actor *domain.Actor, id int64, patch domain.ServicePatch) (*domain.Service, error) {
	svc, err := s.GetService(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManageBusiness(svc.BusinessID) {
		return nil, domain.Forbiddenf("not an owner of business %d", svc.BusinessID)
	}

	updated, err := s.catalogRepo.UpdateService(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update service: %w", err)
	}
	return updated, nil
}

func (s *catalogService) DeactivateService(ctx context.Context, actor *domain.Actor, id int64) error {
	svc, err := s.GetService(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanManageBusiness(svc.BusinessID) {
		return domain.Forbiddenf("not an owner of business %d", svc.BusinessID)
	}

	if _, err := s.catalogRepo.DeactivateService(ctx, id); err != nil {
		return fmt.Errorf("failed to deactivate service: %w", err)
	}
	return nil
}

func (s *catalogService) CreatePricing(ctx context.Context, actor *domain.Actor, req *domain.PricingCreateRequest) (*domain.ServicePricing, error) {
	if req.Name == "" {
		return nil, domain.Invalidf("pricing name is required")
	}
	if req.Price < 0 {
		return nil, domain.Invalidf("price cannot be negative")
	}
	svc, err := s.GetService(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManageBusiness(svc.BusinessID) {
		return nil, domain.Forbiddenf("not an owner of business %d", svc.BusinessID)
	}

	pricing, err := s.catalogRepo.CreatePricing(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create pricing: %w", err)
	}
	return pricing, nil
}

func (s *catalogService) ListPricing(ctx context.Context, serviceID int64) ([]domain.ServicePricing, error) {
	return s.catalogRepo.ListPricing(ctx, serviceID)
}

func (s *catalogService) UpdatePricing(ctx context.Context, actor *domain.Actor, serviceID, pricingID int64, patch domain.PricingPatch) (*domain.ServicePricing, error) {
	svc, err := s.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManageBusiness(svc.BusinessID) {
		return nil, domain.Forbiddenf("not an owner of business %d", svc.BusinessID)
	}

	pricing, err := s.catalogRepo.UpdatePricing(ctx, serviceID, pricingID, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update pricing: %w", err)
	}
	if pricing == nil {
		return nil, domain.NotFoundf("pricing %d", pricingID)
	}
	return pricing, nil
}

func (s *catalogService) DeletePricing(ctx context.Context, actor *domain.Actor, serviceID, pricingID int64) error {
	svc, err := s.GetService(ctx, serviceID)
	if err != nil {
		return err
	}
	if !actor.CanManageBusiness(svc.BusinessID) {
		return domain.Forbiddenf("not an owner of business %d", svc.BusinessID)
	}

	ok, err := s.catalogRepo.DeletePricing(ctx, serviceID, pricingID)
	if err != nil {
		return fmt.Errorf("failed to delete pricing: %w", err)
	}
	if !ok {
		return domain.NotFoundf("pricing %d", pricingID)
	}
	return nil
}

func (s *catalogService) CreateResource(ctx context.Context, actor *domain.Actor, req *domain.ResourceCreateRequest) (*domain.Resource, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !actor.CanManageBusiness(req.BusinessID) {
		return nil, domain.Forbiddenf("not an owner of business %d", req.BusinessID)
	}

	resource, err := s.catalogRepo.CreateResource(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return resource, nil
}

func (s *catalogService) GetResource(ctx context.Context, id int64) (*domain.Resource, error) {
	resource, err := s.catalogRepo.GetResource(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load resource: %w", err)
	}
	if resource == nil {
		return nil, domain.NotFoundf("resource %d", id)
	}
	return resource, nil
}

func (s *catalogService) ListResources(ctx context.Context, filter domain.ResourceFilter, limit, offset int) ([]domain.Resource, error) {
	return s.catalogRepo.ListResources(ctx, filter, limit, offset)
}

func (s *catalogService) UpdateResource(ctx context.Context, actor *domain.Actor, id int64, patch domain.ResourcePatch) (*domain.Resource, error) {
	resource, err := s.GetResource(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManageBusiness(resource.BusinessID) {
		return nil, domain.Forbiddenf("not an owner of business %d", resource.BusinessID)
	}

	updated, err := s.catalogRepo.UpdateResource(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update resource: %w", err)
	}
	return updated, nil
}

func (s *catalogService) DeactivateResource(ctx context.Context, actor *domain.Actor, id int64) error {
	resource, err := s.GetResource(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanManageBusiness(resource.BusinessID) {
		return domain.Forbiddenf("not an owner of business %d", resource.BusinessID)
	}

	if _, err := s.catalogRepo.DeactivateResource(ctx, id); err != nil {
		return fmt.Errorf("failed to deactivate resource: %w", err)
	}
	return nil
}
