// Package memory holds the process-local User Store.
//
// Records live in a sync.Map keyed by id and ids come from an atomic
// sequence, so every single-key operation is independently safe without a
// store-wide lock.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/miralles/users-api/internal/core/domain"
)

// UserStore implements ports.UserRepository in memory.
type UserStore struct {
	users sync.Map // int64 -> domain.User
	seq   atomic.Int64
	size  atomic.Int64
}

func NewUserStore() *UserStore {
	return &UserStore{}
}

// Save stores user, assigning the next unused id first when user.ID is zero.
// Ids are never reused, even after a delete. Saving with an explicit id
// replaces the record there and moves the sequence past it; concurrent saves
// to the same id leave exactly one of the payloads.
func (s *UserStore) Save(_ context.Context, user domain.User) (domain.User, error) {
	if user.IsNew() {
		user.ID = s.seq.Add(1)
	} else {
		s.advance(user.ID)
	}
	if _, loaded := s.users.Swap(user.ID, user); !loaded {
		s.size.Add(1)
	}
	return user, nil
}

// advance raises the sequence to at least id.
func (s *UserStore) advance(id int64) {
	for {
		cur := s.seq.Load()
		if cur >= id || s.seq.CompareAndSwap(cur, id) {
			return
		}
	}
}

func (s *UserStore) FindByID(_ context.Context, id int64) (domain.User, bool, error) {
	v, ok := s.users.Load(id)
	if !ok {
		return domain.User{}, false, nil
	}
	return v.(domain.User), true, nil
}

// FindAll copies the current records, ordered by id. Mutations racing with
// the copy may or may not be reflected, entry by entry.
func (s *UserStore) FindAll(_ context.Context) ([]domain.User, error) {
	out := make([]domain.User, 0, s.Len())
	s.users.Range(func(_, v any) bool {
		out = append(out, v.(domain.User))
		return true
	})
	slices.SortFunc(out, func(a, b domain.User) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (s *UserStore) DeleteByID(_ context.Context, id int64) error {
	if _, loaded := s.users.LoadAndDelete(id); loaded {
		s.size.Add(-1)
	}
	return nil
}

// FindByEmail scans every record for an exact, case-sensitive match. Ties
// resolve to the lowest id so the answer does not depend on map order.
func (s *UserStore) FindByEmail(_ context.Context, email string) (domain.User, bool, error) {
	var (
		found domain.User
		ok    bool
	)
	s.users.Range(func(_, v any) bool {
		u := v.(domain.User)
		if u.Email == email && (!ok || u.ID < found.ID) {
			found, ok = u, true
		}
		return true
	})
	return found, ok, nil
}

// Len is the number of stored records.
func (s *UserStore) Len() int {
	return int(s.size.Load())
}
