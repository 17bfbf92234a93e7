package domain

import "fmt"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is the single persisted entity. A zero ID means the record has not
// been saved yet; stored ids start at 1.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"-"`
	IsAdmin  bool   `json:"is_admin"`
}

// NewUser returns an unsaved, non-admin user.
func NewUser(username, email string) User {
	return User{Username: username, Email: email}
}

// NewAdminUser returns an unsaved user with the admin flag set.
func NewAdminUser(username, email string) User {
	u := NewUser(username, email)
	u.IsAdmin = true
	return u
}

// IsNew reports whether the record still needs an id from the store.
func (u User) IsNew() bool {
	return u.ID == 0
}

// Equal compares by identity only. Unsaved records are never equal, not
// even to themselves.
func (u User) Equal(other User) bool {
	if u.IsNew() || other.IsNew() {
		return false
	}
	return u.ID == other.ID
}

// Role is the authority granted by the admin flag.
func (u User) Role() string {
	if u.IsAdmin {
		return RoleAdmin
	}
	return RoleUser
}

func (u User) String() string {
	return fmt.Sprintf("User{id=%d, username=%q, email=%q, admin=%t}", u.ID, u.Username, u.Email, u.IsAdmin)
}
