package daemon

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"podcaster/internal/api"
)

// authMiddleware validates bearer tokens. With an empty token every request
// passes through; otherwise "Authorization: Bearer <token>" is required.
func authMiddleware(token string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if token == "" {
			return next
		}
		want := []byte(token)
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			got, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				return c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized", Kind: "unauthorized"})
			}
			return next(c)
		}
	}
}
