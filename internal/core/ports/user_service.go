package ports

import (
	"context"

	"github.com/miralles/users-api/internal/core/domain"
)

// CreateUserInput carries the fields accepted when an admin creates a user.
// Password is optional; when empty the user cannot log in.
type CreateUserInput struct {
	Username string
	Email    string
	Password string
}

// UpdateUserInput carries the replaceable profile fields. Password and the
// admin flag are never changed through an update.
type UpdateUserInput struct {
	Username string
	Email    string
}

// UserService defines use-case operations over users.
type UserService interface {
	CreateUser(ctx context.Context, input CreateUserInput) (*domain.User, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	UpdateUser(ctx context.Context, id int64, input UpdateUserInput) (*domain.User, error)
	DeleteUser(ctx context.Context, id int64) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}
