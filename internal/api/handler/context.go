package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/miralles/users-api/internal/api/middleware"
)

// ctxClaims extracts the auth claims injected by the Auth middleware. A
// missing role means the middleware did not run.
func ctxClaims(c echo.Context) (userID int64, role string, err error) {
	role, _ = c.Get(middleware.CtxRole).(string)
	if role == "" {
		return 0, "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	userID, _ = c.Get(middleware.CtxUserID).(int64)
	return userID, role, nil
}
