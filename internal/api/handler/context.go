package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/bazaar/storefront-gateway/internal/api/middleware"
	"github.com/bazaar/storefront-gateway/internal/core/service"
)

// sessionFor resolves the :role path parameter to the request's session
// store. Unknown roles surface as domain.ErrUnknownRole.
func sessionFor(c echo.Context, factory *service.SessionFactory) (*service.SessionStore, error) {
	return middleware.StoreFor(c, factory, c.Param("role"))
}
