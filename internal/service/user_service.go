package service

import (
	"context"
	"fmt"

	"github.com/alexedwards/argon2id"

	"github.com/bookline/bookline-api/internal/domain"
	"github.com/bookline/bookline-api/internal/repo/postgres"
	"github.com/bookline/bookline-api/pkg/logger"
)

type UserService interface {
	GetProfile(ctx context.Context, actor *domain.Actor, userID int64) (*domain.User, error)
	UpdateProfile(ctx context.Context, actor *domain.Actor, userID int64, patch domain.UserPatch) (*domain.User, error)
	ChangePassword(ctx context.Context, actor *domain.Actor, req *domain.PasswordChangeRequest) error
	DeactivateAccount(ctx context.Context, actor *domain.Actor, userID int64) error
	ListUsers(ctx context.Context, actor *domain.Actor, limit, offset int) ([]domain.User, error)

	CreateAddress(ctx context.Context, actor *domain.Actor, req *domain.AddressCreateRequest) (*domain.UserAddress, error)
	ListAddresses(ctx context.Context, actor *domain.Actor) ([]domain.UserAddress, error)
	UpdateAddress(ctx context.Context, actor *domain.Actor, addressID int64, patch domain.AddressPatch) (*domain.UserAddress, error)
	DeleteAddress(ctx context.Context, actor *domain.Actor, addressID int64) error
}

type userService struct {
	userRepo postgres.UserRepository
}

func NewUserService(userRepo postgres.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetProfile(ctx context.Context, actor *domain.Actor, userID int64) (*domain.User, error) {
	if actor.ID() != userID && !actor.IsAdmin() {
		return nil, domain.Forbiddenf("cannot view another user's profile")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, domain.NotFoundf("user %d", userID)
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, actor *domain.Actor, userID int64, patch domain.UserPatch) (*domain.User, error) {
	if actor.ID() != userID && !actor.IsAdmin() {
		return nil, domain.Forbiddenf("cannot update another user's profile")
	}
	// Status changes are an admin-only lever.
	if patch.Status != nil && !actor.IsAdmin() {
		return nil, domain.Forbiddenf("only admins may change account status")
	}

	user, err := s.userRepo.Update(ctx, userID, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if user == nil {
		return nil, domain.NotFoundf("user %d", userID)
	}
	return user, nil
}

func (s *userService) ChangePassword(ctx context.Context, actor *domain.Actor, req *domain.PasswordChangeRequest) error {
	if len(req.NewPassword) < 8 {
		return domain.Invalidf("new password must be at least 8 characters")
	}

	user, err := s.userRepo.GetByID(ctx, actor.ID())
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return domain.NotFoundf("user %d", actor.ID())
	}

	match, err := argon2id.ComparePasswordAndHash(req.CurrentPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}
	if !match {
		return domain.Unauthenticatedf("current password is incorrect")
	}

	hash, err := argon2id.CreateHash(req.NewPassword, argon2id.DefaultParams)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("failed to store password: %w", err)
	}

	logger.InfoContext(ctx, "Password changed", "user_id", user.ID)
	return nil
}

func (s *userService) DeactivateAccount(ctx context.Context, actor *domain.Actor, userID int64) error {
	if actor.ID() != userID && !actor.IsAdmin() {
		return domain.Forbiddenf("cannot deactivate another user's account")
	}

	ok, err := s.userRepo.Deactivate(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	if !ok {
		return domain.NotFoundf("user %d", userID)
	}
	return nil
}

func (s *userService) ListUsers(ctx context.Context, actor *domain.Actor, limit, offset int) ([]domain.User, error) {
	if !actor.IsAdmin() {
		return nil, domain.Forbiddenf("only admins may list users")
	}
	return s.userRepo.List(ctx, limit, offset)
}

func (s *userService) CreateAddress(ctx context.Context, actor *domain.Actor, req *domain.AddressCreateRequest) (*domain.UserAddress, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	addr, err := s.userRepo.CreateAddress(ctx, actor.ID(), req)
	if err != nil {
		return nil, fmt.Errorf("failed to create address: %w", err)
	}
	return addr, nil
}

func (s *userService) ListAddresses(ctx context.Context, actor *domain.Actor) ([]domain.UserAddress, error) {
	return s.userRepo.ListAddresses(ctx, actor.ID())
}

func (s *userService) UpdateAddress(ctx context.Context, actor *domain.Actor, addressID int64, patch domain.AddressPatch) (*domain.UserAddress, error) {
	addr, err := s.userRepo.UpdateAddress(ctx, actor.ID(), addressID, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update address: %w", err)
	}
	if addr == nil {
		return nil, domain.NotFoundf("address %d", addressID)
	}
	return addr, nil
}

func (s *userService) DeleteAddress(ctx context.Context, actor *domain.Actor, addressID int64) error {
	ok, err := s.userRepo.DeleteAddress(ctx, actor.ID(), addressID)
	if err != nil {
		return fmt.Errorf("failed to delete address: %w", err)
	}
	if !ok {
		return domain.NotFoundf("address %d", addressID)
	}
	return nil
}
