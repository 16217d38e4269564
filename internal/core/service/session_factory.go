package service

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/bazaar/storefront-gateway/internal/core/domain"
	"github.com/bazaar/storefront-gateway/internal/core/ports"
	"github.com/bazaar/storefront-gateway/internal/pkg/validate"
)

// SessionFactory holds the process-wide collaborators shared by every
// SessionStore and hands out stores bound to one credential jar.
type SessionFactory struct {
	roles    map[string]domain.RoleDomain
	order    []string
	backend  ports.Backend
	cache    ports.PrincipalCache
	audit    ports.AuditSink
	validate *validate.Validator
	log      zerolog.Logger
	now      func() time.Time
}

// FactoryOption configures optional collaborators of a SessionFactory.
type FactoryOption func(*SessionFactory)

// WithPrincipalCache enables caching of successful profile fetches.
func WithPrincipalCache(cache ports.PrincipalCache) FactoryOption {
	return func(f *SessionFactory) { f.cache = cache }
}

// WithAuditSink enables the authentication audit trail.
func WithAuditSink(sink ports.AuditSink) FactoryOption {
	return func(f *SessionFactory) { f.audit = sink }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) FactoryOption {
	return func(f *SessionFactory) { f.now = now }
}

// NewSessionFactory indexes the role table and returns a factory. Role names
// must be unique.
func NewSessionFactory(roles []domain.RoleDomain, backend ports.Backend, log zerolog.Logger, opts ...FactoryOption) (*SessionFactory, error) {
	f := &SessionFactory{
		roles:    make(map[string]domain.RoleDomain, len(roles)),
		backend:  backend,
		validate: validate.New(),
		log:      log,
		now:      time.Now,
	}
	for _, r := range roles {
		if _, dup := f.roles[r.Name]; dup {
			return nil, fmt.Errorf("session factory: duplicate role %q", r.Name)
		}
		f.roles[r.Name] = r
		f.order = append(f.order, r.Name)
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Role looks up a role domain by name.
func (f *SessionFactory) Role(name string) (domain.RoleDomain, error) {
	r, ok := f.roles[name]
	if !ok {
		return domain.RoleDomain{}, fmt.Errorf("%w: %s", domain.ErrUnknownRole, name)
	}
	return r, nil
}

// Roles returns the role domains in configuration order.
func (f *SessionFactory) Roles() []domain.RoleDomain {
	out := make([]domain.RoleDomain, 0, len(f.order))
	for _, name := range f.order {
		out = append(out, f.roles[name])
	}
	return out
}

// Audit returns the configured audit sink, or nil.
func (f *SessionFactory) Audit() ports.AuditSink { return f.audit }

// Now returns the factory clock's current time.
func (f *SessionFactory) Now() time.Time { return f.now() }

// NewStore returns a fresh store for role whose credential lives in jar.
func (f *SessionFactory) NewStore(role domain.RoleDomain, jar ports.CredentialJar) *SessionStore {
	return &SessionStore{
		role:     role,
		backend:  f.backend,
		creds:    jar,
		cache:    f.cache,
		audit:    f.audit,
		validate: f.validate,
		log:      f.log.With().Str("role", role.Name).Logger(),
		now:      f.now,
	}
}
