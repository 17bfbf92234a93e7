package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/miralles/users-api/internal/core/domain"
	"github.com/miralles/users-api/internal/core/ports"
)

// UserService implements the admin-facing user use cases on top of the
// User Store. Email uniqueness is enforced here, not in the store.
type UserService struct {
	repo   ports.UserRepository
	hasher ports.PasswordHasher
	logger zerolog.Logger
}

func NewUserService(repo ports.UserRepository, hasher ports.PasswordHasher, logger zerolog.Logger) *UserService {
	return &UserService{repo: repo, hasher: hasher, logger: logger}
}

// CreateUser saves a new non-admin user. The password is optional; when
// given it is stored hashed.
func (s *UserService) CreateUser(ctx context.Context, input ports.CreateUserInput) (*domain.User, error) {
	if err := s.ensureEmailFree(ctx, input.Email, 0); err != nil {
		return nil, err
	}

	user := domain.NewUser(input.Username, input.Email)
	if input.Password != "" {
		hash, err := s.hasher.Hash(input.Password)
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		user.Password = hash
	}

	saved, err := s.repo.Save(ctx, user)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create user")
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info().Int64("user_id", saved.ID).Str("email", saved.Email).Msg("user created")
	return &saved, nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	user, ok, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &user, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UpdateUser merges the profile fields into the stored record and saves it
// back. The store replaces whole records, so the merge has to happen here.
func (s *UserService) UpdateUser(ctx context.Context, id int64, input ports.UpdateUserInput) (*domain.User, error) {
	existing, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Email != existing.Email {
		if err := s.ensureEmailFree(ctx, input.Email, id); err != nil {
			return nil, err
		}
	}

	existing.Username = input.Username
	existing.Email = input.Email

	saved, err := s.repo.Save(ctx, *existing)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.Info().Int64("user_id", saved.ID).Msg("user updated")
	return &saved, nil
}

// DeleteUser succeeds whether or not the user exists.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.logger.Info().Int64("user_id", id).Msg("user deleted")
	return nil
}

func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, ok, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &user, nil
}

// ensureEmailFree fails with ErrUserExists when another user (any id but
// self) already owns email. Check-then-save is not atomic.
func (s *UserService) ensureEmailFree(ctx context.Context, email string, self int64) error {
	other, ok, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if ok && other.ID != self {
		return domain.ErrUserExists
	}
	return nil
}
