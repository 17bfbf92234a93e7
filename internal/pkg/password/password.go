// Package password hashes and verifies user credentials with bcrypt.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/miralles/users-api/internal/core/domain"
)

// bcrypt ignores everything past 72 bytes.
const maxLength = 72

// ErrTooLong wraps domain.ErrInvalidInput so callers answer it as bad input.
var ErrTooLong = fmt.Errorf("%w: password must be 72 bytes or fewer", domain.ErrInvalidInput)

type Hasher struct {
	cost int
}

// NewHasher returns a bcrypt hasher. A cost outside bcrypt's range falls
// back to bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

func (h *Hasher) Hash(plain string) (string, error) {
	if len(plain) > maxLength {
		return "", ErrTooLong
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("password: hashing: %w", err)
	}
	return string(hashed), nil
}

// Compare returns domain.ErrInvalidCredentials on mismatch, including when
// the stored hash is empty.
func (h *Hasher) Compare(hash, plain string) error {
	if hash == "" {
		return domain.ErrInvalidCredentials
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return domain.ErrInvalidCredentials
	default:
		return fmt.Errorf("password: comparing: %w", err)
	}
}
