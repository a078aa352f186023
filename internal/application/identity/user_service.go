package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/pharmacy/backend/internal/domain/identity"
	"github.com/pharmacy/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// UserService manages staff accounts
type UserService struct {
	userRepo identity.UserRepository
	logger   *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo identity.UserRepository, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{userRepo: userRepo, logger: logger}
}

// Create adds a staff user. Usernames are unique regardless of case.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*UserInfo, error) {
	user, err := identity.NewUser(input.Username, input.Email, input.Password, input.Role)
	if err != nil {
		return nil, err
	}

	_, err = s.userRepo.FindByUsername(ctx, user.Username)
	if err == nil {
		return nil, ErrUsernameTaken
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User created",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)),
	)
	info := ToUserInfo(user)
	return &info, nil
}

// EnsureFirstManager creates a pharmacy manager when no user exists yet.
// It returns false without error when users are already present.
func (s *UserService) EnsureFirstManager(ctx context.Context, username, email, password string) (bool, error) {
	count, err := s.userRepo.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return false, nil
	}
	if _, err := s.Create(ctx, CreateUserInput{
		Username: username,
		Email:    email,
		Password: password,
		Role:     identity.RolePharmacyManager,
	}); err != nil {
		return false, err
	}
	return true, nil
}
