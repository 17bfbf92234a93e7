package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/miralles/users-api/internal/core/domain"
	"github.com/miralles/users-api/internal/core/ports"
)

// AdminSettings mirrors the ADMIN_* configuration.
type AdminSettings struct {
	Enabled  bool
	Username string
	Email    string
	Password string
}

// AdminBootstrapper makes sure an admin account exists at startup.
type AdminBootstrapper struct {
	repo     ports.UserRepository
	hasher   ports.PasswordHasher
	settings AdminSettings
	log      zerolog.Logger
}

func NewAdminBootstrapper(repo ports.UserRepository, hasher ports.PasswordHasher, settings AdminSettings, log zerolog.Logger) *AdminBootstrapper {
	return &AdminBootstrapper{repo: repo, hasher: hasher, settings: settings, log: log}
}

// Run creates the configured admin when no user owns the admin email yet and
// reports whether it did. The lookup and the save are separate store calls,
// so two instances bootstrapping one shared store at the same moment can
// both create an admin.
func (b *AdminBootstrapper) Run(ctx context.Context) (bool, error) {
	if !b.settings.Enabled {
		b.log.Info().Msg("admin bootstrap disabled")
		return false, nil
	}

	existing, ok, err := b.repo.FindByEmail(ctx, b.settings.Email)
	if err != nil {
		return false, fmt.Errorf("admin bootstrap: lookup: %w", err)
	}
	if ok {
		b.log.Info().Str("username", existing.Username).Msg("admin user already exists")
		return false, nil
	}

	password := b.settings.Password
	generated := password == ""
	if generated {
		if password, err = randomPassword(); err != nil {
			return false, fmt.Errorf("admin bootstrap: %w", err)
		}
	}

	hash, err := b.hasher.Hash(password)
	if err != nil {
		return false, fmt.Errorf("admin bootstrap: %w", err)
	}

	admin := domain.NewAdminUser(b.settings.Username, b.settings.Email)
	admin.Password = hash

	saved, err := b.repo.Save(ctx, admin)
	if err != nil {
		return false, fmt.Errorf("admin bootstrap: save: %w", err)
	}

	b.log.Info().Int64("user_id", saved.ID).Str("username", saved.Username).Str("email", saved.Email).Msg("admin user created")
	if generated {
		b.log.Warn().Str("password", password).Msg("generated admin password, change it immediately")
	}
	return true, nil
}

func randomPassword() (string, error) {
	b := make([]byte, 18)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
