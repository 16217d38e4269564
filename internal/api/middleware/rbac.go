package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequirePermission lets the request through only when the principal set by
// Guard holds every listed permission. It must run after Guard.
func RequirePermission(perms ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := PrincipalFrom(c)
			if p == nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			}
			if !p.HasPermissions(perms...) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
