package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bookline/bookline-api/internal/domain"
	"github.com/bookline/bookline-api/internal/repo/postgres"
	"github.com/bookline/bookline-api/pkg/logger"
)

type AvailabilityService interface {
	CreateTemplate(ctx context.Context, actor *domain.Actor, req *domain.TemplateCreateRequest) (*domain.AvailabilityTemplate, error)
	ListTemplates(ctx context.Context, serviceID, resourceID *int64) ([]domain.AvailabilityTemplate, error)
	UpdateTemplate(ctx context.Context, actor *domain.Actor, id int64, patch domain.TemplatePatch) (*domain.AvailabilityTemplate, error)
	DeleteTemplate(ctx context.Context, actor *domain.Actor, id int64) error

	// GenerateSlots materializes bookable slots from the active templates of a
	// service or resource over [from, to). Existing slots are left untouched.
	GenerateSlots(ctx context.Context, actor *domain.Actor, serviceID, resourceID *int64, from, to time.Time) (int, error)

	CreateSlot(ctx context.Context, actor *domain.Actor, req *domain.SlotCreateRequest) (*domain.AvailabilitySlot, error)
	ListSlots(ctx context.Context, filter domain.SlotFilter, limit, offset int) ([]domain.AvailabilitySlot, error)
	UpdateSlot(ctx context.Context, actor *domain.Actor, id int64, patch domain.SlotPatch) (*domain.AvailabilitySlot, error)
	DeleteSlot(ctx context.Context, actor *domain.Actor, id int64) error

	CreateBlockedTime(ctx context.Context, actor *domain.Actor, req *domain.BlockedTimeCreateRequest) (*domain.BlockedTime, error)
	ListBlockedTimes(ctx context.Context, filter domain.BlockedTimeFilter) ([]domain.BlockedTime, error)
	UpdateBlockedTime(ctx context.Context, actor *domain.Actor, id int64, patch domain.BlockedTimePatch) (*domain.BlockedTime, error)
	DeleteBlockedTime(ctx context.Context, actor *domain.Actor, id int64) error
}

type availabilityService struct {
	availabilityRepo postgres.AvailabilityRepository
	catalogRepo      postgres.CatalogRepository
}

func NewAvailabilityService(availabilityRepo postgres.AvailabilityRepository, catalogRepo postgres.CatalogRepository) AvailabilityService {
	return &availabilityService{availabilityRepo: availabilityRepo, catalogRepo: catalogRepo}
}

// businessForTarget resolves the owning business of a service or resource so
// callers can be authorized against it.
func (s *availabilityService) businessForTarget(ctx context.Context, serviceID, resourceID *int64) (int64, error) {
	switch {
	case serviceID != nil:
		svc, err := s.catalogRepo.GetService(ctx, *serviceID)
		if err != nil {
			return 0, fmt.Errorf("failed to load service: %w", err)
		}
		if svc == nil {
			return 0, domain.NotFoundf("service %d", *serviceID)
		}
		return svc.BusinessID, nil
	case resourceID != nil:
		resource, err := s.catalogRepo.GetResource(ctx, *resourceID)
		if err != nil {
			return 0, fmt.Errorf("failed to load resource: %w", err)
		}
		if resource == nil {
			return 0, domain.NotFoundf("resource %d", *resourceID)
		}
		return resource.BusinessID, nil
	default:
		return 0, domain.Invalidf("a service or resource is required")
	}
}

func (s *availabilityService) authorizeTarget(ctx context.Context, actor *domain.Actor, serviceID, resourceID *int64) error {
	businessID, err := s.businessForTarget(ctx, serviceID, resourceID)
	if err != nil {
		return err
	}
	if !actor.CanManageBusiness(businessID) {
		return domain.Forbiddenf("not an owner of business %d", businessID)
	}
	return nil
}

func (s *availabilityService) CreateTemplate(ctx context.Context, actor *domain.Actor, req *domain.TemplateCreateRequest) (*domain.AvailabilityTemplate, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := parseClock(req.StartTime); err != nil {
		return nil, err
	}
	if _, err := parseClock(req.EndTime); err != nil {
		return nil, err
	}
	if err := s.authorizeTarget(ctx, actor, req.ServiceID, req.ResourceID); err != nil {
		return nil, err
	}

	template, err := s.availabilityRepo.CreateTemplate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}
	return template, nil
}

func (s *availabilityService) ListTemplates(ctx context.Context, serviceID, resourceID *int64) ([]domain.AvailabilityTemplate, error) {
	return s.availabilityRepo.ListTemplates(ctx, serviceID, resourceID)
}

func (s *availabilityService) UpdateTemplate(ctx context.Context, actor *domain.Actor, id int64, patch domain.TemplatePatch) (*domain.AvailabilityTemplate, error) {
	template, err := s.availabilityRepo.GetTemplate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load template: %w", err)
	}
	if template == nil {
		return nil, domain.NotFoundf("template %d", id)
	}
	if err := s.authorizeTarget(ctx, actor, template.ServiceID, template.ResourceID); err != nil {
		return nil, err
	}
	if patch.DayOfWeek != nil {
		if _, ok := domain.ParseDayOfWeek(string(*patch.DayOfWeek)); !ok {
			return nil, domain.Invalidf("invalid day of week %q", *patch.DayOfWeek)
		}
	}
	if patch.StartTime != nil {
		if _, err := parseClock(*patch.StartTime); err != nil {
			return nil, err
		}
	}
	if patch.EndTime != nil {
		if _, err := parseClock(*patch.EndTime); err != nil {
			return nil, err
		}
	}

	updated, err := s.availabilityRepo.UpdateTemplate(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update template: %w", err)
	}
	return updated, nil
}

func (s *availabilityService) DeleteTemplate(ctx context.Context, actor *domain.Actor, id int64) error {
	template, err := s.availabilityRepo.GetTemplate(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load template: %w", err)
	}
	if template == nil {
		return domain.NotFoundf("template %d", id)
	}
	if err := s.authorizeTarget(ctx, actor, template.ServiceID, template.ResourceID); err != nil {
		return err
	}

	if _, err := s.availabilityRepo.DeleteTemplate(ctx, id); err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return nil
}

func (s *availabilityService) GenerateSlots(ctx context.Context, actor *domain.Actor, serviceID, resourceID *int64, from, to time.Time) (int, error) {
	if serviceID == nil && resourceID == nil {
		return 0, domain.Invalidf("a service or resource is required")
	}
	if !to.After(from) {
		return 0, domain.Invalidf("range end must be after start")
	}
	if to.Sub(from) > 92*24*time.Hour {
		return 0, domain.Invalidf("cannot generate more than 92 days at a time")
	}
	if err := s.authorizeTarget(ctx, actor, serviceID, resourceID); err != nil {
		return 0, err
	}

	templates, err := s.availabilityRepo.ListTemplates(ctx, serviceID, resourceID)
	if err != nil {
		return 0, fmt.Errorf("failed to load templates: %w", err)
	}

	byDay := make(map[domain.DayOfWeek][]domain.AvailabilityTemplate)
	for _, t := range templates {
		if t.IsActive {
			byDay[t.DayOfWeek] = append(byDay[t.DayOfWeek], t)
		}
	}

	var reqs []domain.SlotCreateRequest
	for day := from.Truncate(24 * time.Hour); day.Before(to); day = day.AddDate(0, 0, 1) {
		for _, t := range byDay[weekdayName(day.Weekday())] {
			open, err := parseClock(t.StartTime)
			if err != nil {
				continue
			}
			close_, err := parseClock(t.EndTime)
			if err != nil {
				continue
			}
			// Windows that cross midnight run into the next day.
			if close_ <= open {
				close_ += 24 * time.Hour
			}
			step := time.Duration(t.SlotDuration) * time.Minute
			for at := open; at+step <= close_; at += step {
				start := day.Add(at)
				if start.Before(from) || !start.Before(to) {
					continue
				}
				reqs = append(reqs, domain.SlotCreateRequest{
					ServiceID:      t.ServiceID,
					ResourceID:     t.ResourceID,
					StartDatetime:  start,
					EndDatetime:    start.Add(step),
					AvailableSpots: t.MaxBookings,
				})
			}
		}
	}
	if len(reqs) == 0 {
		return 0, nil
	}

	created, err := s.availabilityRepo.CreateSlots(ctx, reqs)
	if err != nil {
		return 0, fmt.Errorf("failed to create slots: %w", err)
	}

	logger.InfoContext(ctx, "Slots generated", "created", created, "candidates", len(reqs))
	return created, nil
}

func (s *availabilityService) CreateSlot(ctx context.Context, actor *domain.Actor, req *domain.SlotCreateRequest) (*domain.AvailabilitySlot, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.authorizeTarget(ctx, actor, req.ServiceID, req.ResourceID); err != nil {
		return nil, err
	}

	slot, err := s.availabilityRepo.CreateSlot(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create slot: %w", err)
	}
	return slot, nil
}

func (s *availabilityService) ListSlots(ctx context.Context, filter domain.SlotFilter, limit, offset int) ([]domain.AvailabilitySlot, error) {
	return s.availabilityRepo.ListSlots(ctx, filter, limit, offset)
}

func (s *availabilityService) UpdateSlot(ctx context.Context, actor *domain.Actor, id int64, patch domain.SlotPatch) (*domain.AvailabilitySlot, error) {
	slot, err := s.availabilityRepo.GetSlot(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load slot: %w", err)
	}
	if slot == nil {
		return nil, domain.NotFoundf("slot %d", id)
	}
	if err := s.authorizeTarget(ctx, actor, slot.ServiceID, slot.ResourceID); err != nil {
		return nil, err
	}
	if patch.AvailableSpots != nil && *patch.AvailableSpots < slot.BookedSpots {
		return nil, domain.Invalidf("cannot shrink capacity below %d booked spots", slot.BookedSpots)
	}

	updated, err := s.availabilityRepo.UpdateSlot(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update slot: %w", err)
	}
	return updated, nil
}

func (s *availabilityService) DeleteSlot(ctx context.Context, actor *domain.Actor, id int64) error {
	slot, err := s.availabilityRepo.GetSlot(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load slot: %w", err)
	}
	if slot == nil {
		return domain.NotFoundf("slot %d", id)
	}
	if err := s.authorizeTarget(ctx, actor, slot.ServiceID, slot.ResourceID); err != nil {
		return err
	}

	ok, err := s.availabilityRepo.DeleteSlot(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete slot: %w", err)
	}
	if !ok {
		return domain.Conflictf("slot %d has bookings and cannot be deleted", id)
	}
	return nil
}

func (s *availabilityService) CreateBlockedTime(ctx context.Context, actor *domain.Actor, req *domain.BlockedTimeCreateRequest) (*domain.BlockedTime, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.BusinessID != nil {
		if !actor.CanManageBusiness(*req.BusinessID) {
			return nil, domain.Forbiddenf("not an owner of business %d", *req.BusinessID)
		}
	} else if err := s.authorizeTarget(ctx, actor, req.ServiceID, req.ResourceID); err != nil {
		return nil, err
	}

	block, err := s.availabilityRepo.CreateBlockedTime(ctx, actor.ID(), req)
	if err != nil {
		return nil, fmt.Errorf("failed to create blocked time: %w", err)
	}

	logger.InfoContext(ctx, "Blocked time created", "blocked_time_id", block.ID, "type", block.BlockType)
	return block, nil
}

func (s *availabilityService) ListBlockedTimes(ctx context.Context, filter domain.BlockedTimeFilter) ([]domain.BlockedTime, error) {
	return s.availabilityRepo.ListBlockedTimes(ctx, filter)
}

func (s *availabilityService) UpdateBlockedTime(ctx context.Context, actor *domain.Actor, id int64, patch domain.BlockedTimePatch) (*domain.BlockedTime, error) {
	if err := s.authorizeBlockedTime(ctx, actor, id); err != nil {
		return nil, err
	}
	if patch.StartDatetime != nil && patch.EndDatetime != nil && !patch.EndDatetime.After(*patch.StartDatetime) {
		return nil, domain.Invalidf("blocked time end must be after start")
	}

	block, err := s.availabilityRepo.UpdateBlockedTime(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update blocked time: %w", err)
	}
	return block, nil
}

func (s *availabilityService) DeleteBlockedTime(ctx context.Context, actor *domain.Actor, id int64) error {
	if err := s.authorizeBlockedTime(ctx, actor, id); err != nil {
		return err
	}

	ok, err := s.availabilityRepo.DeleteBlockedTime(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete blocked time: %w", err)
	}
	if !ok {
		return domain.NotFoundf("blocked time %d", id)
	}
	return nil
}

func (s *availabilityService) authorizeBlockedTime(ctx context.Context, actor *domain.Actor, id int64) error {
	block, err := s.availabilityRepo.GetBlockedTime(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load blocked time: %w", err)
	}
	if block == nil {
		return domain.NotFoundf("blocked time %d", id)
	}
	if block.BusinessID != nil {
		if !actor.CanManageBusiness(*block.BusinessID) {
			return domain.Forbiddenf("not an owner of business %d", *block.BusinessID)
		}
		return nil
	}
	return s.authorizeTarget(ctx, actor, block.ServiceID, block.ResourceID)
}

// parseClock turns "HH:MM" into an offset from midnight.
func parseClock(value string) (time.Duration, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, domain.Invalidf("invalid time %q, expected HH:MM", value)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func weekdayName(w time.Weekday) domain.DayOfWeek {
	switch w {
	case time.Monday:
		return domain.Monday
	case time.Tuesday:
		return domain.Tuesday
	case time.Wednesday:
		return domain.Wednesday
	case time.Thursday:
		return domain.Thursday
	case time.Friday:
		return domain.Friday
	case time.Saturday:
		return domain.Saturday
	default:
		return domain.Sunday
	}
}
