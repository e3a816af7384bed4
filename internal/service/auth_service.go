package service

import (
	"context"
	"fmt"

	"github.com/alexedwards/argon2id"

	"github.com/bookline/bookline-api/internal/domain"
	"github.com/bookline/bookline-api/internal/repo/postgres"
	"github.com/bookline/bookline-api/pkg/auth"
	"github.com/bookline/bookline-api/pkg/config"
	"github.com/bookline/bookline-api/pkg/logger"
)

type AuthService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error)
	// Resolve maps a bearer token to a fully loaded actor. It is read-only:
	// login bookkeeping happens in Login, never here.
	Resolve(ctx context.Context, token string) (*domain.Actor, error)
}

type authService struct {
	userRepo     postgres.UserRepository
	roleRepo     postgres.RoleRepository
	businessRepo postgres.BusinessRepository
	config       *config.Config
}

func NewAuthService(
	userRepo postgres.UserRepository,
	roleRepo postgres.RoleRepository,
	businessRepo postgres.BusinessRepository,
	config *config.Config,
) AuthService {
	return &authService{
		userRepo:     userRepo,
		roleRepo:     roleRepo,
		businessRepo: businessRepo,
		config:       config,
	}
}

func (s *authService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if existing, err := s.userRepo.GetByEmail(ctx, req.Email); err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	} else if existing != nil {
		return nil, domain.Conflictf("email %s is already registered", req.Email)
	}
	if existing, err := s.userRepo.GetByUsername(ctx, req.Username); err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	} else if existing != nil {
		return nil, domain.Conflictf("username %s is taken", req.Username)
	}

	hash, err := argon2id.CreateHash(req.Password, argon2id.DefaultParams)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.Create(ctx, &domain.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		DateOfBirth:  req.DateOfBirth,
		Gender:       req.Gender,
		ProfileImage: req.ProfileImage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// Every new account starts as a customer.
	if err := s.roleRepo.AssignByName(ctx, user.ID, domain.RoleCustomer); err != nil {
		logger.ErrorContext(ctx, "Failed to assign customer role", "error", err, "user_id", user.ID)
	}

	logger.InfoContext(ctx, "User registered", "user_id", user.ID, "email", user.Email)
	return user, nil
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	req.Normalize()
	if req.Username == "" || req.Password == "" {
		return nil, domain.Invalidf("username and password are required")
	}

	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		// Allow email in the username field.
		user, err = s.userRepo.GetByEmail(ctx, req.Username)
		if err != nil {
			return nil, fmt.Errorf("failed to look up user: %w", err)
		}
	}
	if user == nil {
		return nil, domain.Unauthenticatedf("invalid credentials")
	}

	match, err := argon2id.ComparePasswordAndHash(req.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !match {
		return nil, domain.Unauthenticatedf("invalid credentials")
	}

	if user.Status != domain.UserActive {
		return nil, domain.Forbiddenf("account is %s", user.Status)
	}

	roles, err := s.roleRepo.ListForUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}
	role := domain.RoleCustomer
	for _, r := range roles {
		if r == domain.RoleAdmin {
			role = domain.RoleAdmin
			break
		}
	}

	token, err := auth.NewAccessToken(user.ID, user.Email, user.Username, role, s.config.Auth.JWTSecret, s.config.Auth.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	// Login is the only place last_login moves.
	if err := s.userRepo.RecordLogin(ctx, user.ID); err != nil {
		logger.ErrorContext(ctx, "Failed to record login", "error", err, "user_id", user.ID)
	}

	return &domain.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.config.Auth.AccessTokenTTL.Seconds()),
		User:        user,
	}, nil
}

func (s *authService) Resolve(ctx context.Context, token string) (*domain.Actor, error) {
	claims, err := auth.Parse(token, s.config.Auth.JWTSecret)
	if err != nil {
		return nil, domain.Unauthenticatedf("invalid or expired token")
	}

	user, err := s.userRepo.GetByID(ctx, claims.Sub)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, domain.Unauthenticatedf("account no longer exists")
	}
	if user.Status != domain.UserActive {
		return nil, domain.Forbiddenf("account is %s", user.Status)
	}

	roles, err := s.roleRepo.ListForUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}

	owned, err := s.businessRepo.OwnedBusinessIDs(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load owned businesses: %w", err)
	}

	return &domain.Actor{User: user, Roles: roles, OwnedBusinesses: owned}, nil
}
