package ports

import (
	"context"

	"github.com/bazaar/storefront-gateway/internal/core/domain"
)

// Backend is the marketplace REST API as seen by the session store. Every
// method is scoped to one role domain; the token is opaque and only ever
// forwarded.
type Backend interface {
	FetchProfile(ctx context.Context, role domain.RoleDomain, token string) (*domain.Principal, error)
	Login(ctx context.Context, role domain.RoleDomain, identifier, secret string) (*domain.LoginGrant, error)
	Logout(ctx context.Context, role domain.RoleDomain, token string) error
	UpdateProfile(ctx context.Context, role domain.RoleDomain, token string, update domain.ProfileUpdate) (*domain.Principal, error)
}
