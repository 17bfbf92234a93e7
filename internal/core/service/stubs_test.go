package service

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/miralles/users-api/internal/core/domain"
	"github.com/miralles/users-api/internal/infrastructure/db/memory"
	"github.com/miralles/users-api/internal/pkg/password"
)

var (
	discardLogger = zerolog.Nop()
	testHasher    = password.NewHasher(bcrypt.MinCost)
	errBackend    = errors.New("backend down")
)

// failingRepo wraps the memory store and fails selected operations.
type failingRepo struct {
	*memory.UserStore
	saveErr error
	findErr error
	saves   int
	lookups int
}

func newFailingRepo() *failingRepo {
	return &failingRepo{UserStore: memory.NewUserStore()}
}

func (r *failingRepo) Save(ctx context.Context, u domain.User) (domain.User, error) {
	r.saves++
	if r.saveErr != nil {
		return domain.User{}, r.saveErr
	}
	return r.UserStore.Save(ctx, u)
}

func (r *failingRepo) FindByEmail(ctx context.Context, email string) (domain.User, bool, error) {
	r.lookups++
	if r.findErr != nil {
		return domain.User{}, false, r.findErr
	}
	return r.UserStore.FindByEmail(ctx, email)
}

// stubThrottle counts failures per email in memory.
type stubThrottle struct {
	mu       sync.Mutex
	max      int
	failures map[string]int
	err      error
}

func newStubThrottle(max int) *stubThrottle {
	return &stubThrottle{max: max, failures: make(map[string]int)}
}

func (t *stubThrottle) Locked(_ context.Context, email string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return false, t.err
	}
	return t.failures[email] >= t.max, nil
}

func (t *stubThrottle) RecordFailure(_ context.Context, email string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures[email]++
	return t.err
}

func (t *stubThrottle) Reset(_ context.Context, email string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.failures, email)
	return t.err
}
