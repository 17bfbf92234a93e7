package handler

import (
	"github.com/samber/lo"

	"github.com/miralles/users-api/internal/core/domain"
	"github.com/miralles/users-api/internal/core/ports"
)

type createUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"omitempty,min=8,max=72"`
}

type updateUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email"    validate:"required,email"`
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// userResponse is the public view of a user; the password hash never leaves
// the service.
type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"is_admin"`
}

type authResponse struct {
	Token string        `json:"token"`
	User  *userResponse `json:"user,omitempty"`
}

func (r createUserRequest) toInput() ports.CreateUserInput {
	return ports.CreateUserInput{Username: r.Username, Email: r.Email, Password: r.Password}
}

func (r updateUserRequest) toInput() ports.UpdateUserInput {
	return ports.UpdateUserInput{Username: r.Username, Email: r.Email}
}

func (r registerRequest) toInput() ports.RegisterInput {
	return ports.RegisterInput{Username: r.Username, Email: r.Email, Password: r.Password}
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		IsAdmin:  u.IsAdmin,
	}
}

func toUserResponses(users []domain.User) []userResponse {
	return lo.Map(users, func(u domain.User, _ int) userResponse {
		return toUserResponse(u)
	})
}
