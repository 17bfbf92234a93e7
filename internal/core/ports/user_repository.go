package ports

import (
	"context"

	"github.com/miralles/users-api/internal/core/domain"
)

// UserRepository is the User Store contract. Absence is reported through the
// boolean result, never through the error; the error is reserved for adapters
// that talk to a real backend.
type UserRepository interface {
	// Save assigns the next id when user.ID is zero, otherwise it replaces
	// whatever is stored under user.ID. It returns the stored record.
	Save(ctx context.Context, user domain.User) (domain.User, error)
	FindByID(ctx context.Context, id int64) (domain.User, bool, error)
	// FindAll returns a point-in-time copy of every stored record.
	FindAll(ctx context.Context) ([]domain.User, error)
	// DeleteByID is a no-op when nothing is stored under id.
	DeleteByID(ctx context.Context, id int64) error
	// FindByEmail matches case-sensitively. When several records share the
	// email the one with the lowest id is returned.
	FindByEmail(ctx context.Context, email string) (domain.User, bool, error)
}
