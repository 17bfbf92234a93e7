package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/miralles/users-api/internal/api/metrics"
	"github.com/miralles/users-api/internal/core/domain"
	"github.com/miralles/users-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	metrics     *metrics.Metrics
}

func NewAuthHandler(authService ports.AuthService, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{authService: authService, metrics: m}
}

// Register creates a new regular account.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.authService.Register(c.Request().Context(), req.toInput())
	if err != nil {
		return err
	}

	h.metrics.UsersCreatedTotal.WithLabelValues("register").Inc()
	return c.JSON(http.StatusCreated, toUserResponse(*user))
}

// Login authenticates a user by email and returns a JWT token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	token, user, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		h.metrics.LoginsTotal.WithLabelValues(loginResult(err)).Inc()
		return err
	}

	h.metrics.LoginsTotal.WithLabelValues(metrics.LoginSuccess).Inc()
	resp := toUserResponse(*user)
	return c.JSON(http.StatusOK, authResponse{Token: token, User: &resp})
}

// Health is the auth service's own liveness answer.
//
// @Summary      Auth health check
// @Tags         auth
// @Produce      plain
// @Success      200  {string}  string
// @Router       /api/auth/health [post]
func (h *AuthHandler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "Auth service is healthy")
}

func loginResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return metrics.LoginInvalid
	case errors.Is(err, domain.ErrTooManyAttempts):
		return metrics.LoginThrottled
	default:
		return metrics.LoginError
	}
}
