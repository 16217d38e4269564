package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/bazaar/storefront-gateway/internal/core/domain"
	"github.com/bazaar/storefront-gateway/internal/core/service"
)

// Context keys set by Guard for downstream handlers.
const (
	PrincipalKey = "principal"
	RoleKey      = "role"
	sessionsKey  = "sessions"
)

// StoreFor returns the request-scoped session store of roleName, creating it
// on first use. Guards and handlers in one request share the same store.
func StoreFor(c echo.Context, factory *service.SessionFactory, roleName string) (*service.SessionStore, error) {
	stores, _ := c.Get(sessionsKey).(map[string]*service.SessionStore)
	if s, ok := stores[roleName]; ok {
		return s, nil
	}
	role, err := factory.Role(roleName)
	if err != nil {
		return nil, err
	}
	if stores == nil {
		stores = make(map[string]*service.SessionStore)
		c.Set(sessionsKey, stores)
	}
	s := factory.NewStore(role, NewCookieJar(c, role.CookieName))
	stores[roleName] = s
	return s, nil
}

// PrincipalFrom returns the principal a Guard authorised for this request.
func PrincipalFrom(c echo.Context) *domain.Principal {
	p, _ := c.Get(PrincipalKey).(*domain.Principal)
	return p
}
