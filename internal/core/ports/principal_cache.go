package ports

import (
	"context"

	"github.com/bazaar/storefront-gateway/internal/core/domain"
)

// PrincipalCache remembers the outcome of successful profile fetches for a
// short time. Get returns (nil, nil) on a miss.
type PrincipalCache interface {
	Get(ctx context.Context, role, token string) (*domain.Principal, error)
	Put(ctx context.Context, role, token string, p *domain.Principal) error
	Delete(ctx context.Context, role, token string) error
}
