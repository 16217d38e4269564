package ports

import (
	"context"

	"github.com/bazaar/storefront-gateway/internal/core/domain"
)

// AuditSink accepts authentication events without blocking the caller.
type AuditSink interface {
	Record(event domain.AuthEvent)
}

// AuditRepository persists authentication events.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuthEvent) error
}
