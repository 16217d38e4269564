package service

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/bazaar/storefront-gateway/internal/core/domain"
)

// stubBackend is an in-memory marketplace backend: tokens map to principals.
type stubBackend struct {
	mu         sync.Mutex
	principals map[string]*domain.Principal // token -> principal
	passwords  map[string]string            // identifier -> secret
	tokens     map[string]string            // identifier -> token
	fetchErr   error
	loginErr   error
	logoutErr  error
	bareGrant  bool // Login returns a token without a principal
	calls      atomic.Int32
	block      chan struct{} // when set, FetchProfile waits on it
}

func newStubBackend() *stubBackend {
	return &stubBackend{
		principals: make(map[string]*domain.Principal),
		passwords:  make(map[string]string),
		tokens:     make(map[string]string),
	}
}

func (b *stubBackend) addAccount(identifier, secret, token string, p *domain.Principal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.passwords[identifier] = secret
	b.tokens[identifier] = token
	b.principals[token] = p.Clone()
}

func (b *stubBackend) FetchProfile(ctx context.Context, _ domain.RoleDomain, token string) (*domain.Principal, error) {
	b.calls.Add(1)
	if b.block != nil {
		select {
		case <-b.block:
		case <-ctx.Done():
			return nil, domain.ErrBackendTimeout
		}
	}
	if b.fetchErr != nil {
		return nil, b.fetchErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.principals[token]
	if !ok {
		return nil, &domain.BackendError{Status: 401, Err: domain.ErrUnauthenticated}
	}
	return p.Clone(), nil
}

func (b *stubBackend) Login(_ context.Context, _ domain.RoleDomain, identifier, secret string) (*domain.LoginGrant, error) {
	b.calls.Add(1)
	if b.loginErr != nil {
		return nil, b.loginErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.passwords[identifier] != secret {
		return nil, &domain.BackendError{Status: 401, Message: "Invalid credentials", Err: domain.ErrUnauthenticated}
	}
	token := b.tokens[identifier]
	if b.bareGrant {
		return &domain.LoginGrant{Token: token}, nil
	}
	return &domain.LoginGrant{Token: token, Principal: b.principals[token].Clone(), Message: "Welcome back"}, nil
}

func (b *stubBackend) revoke(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.principals, token)
}

func (b *stubBackend) Logout(_ context.Context, _ domain.RoleDomain, token string) error {
	b.calls.Add(1)
	return b.logoutErr
}

func (b *stubBackend) UpdateProfile(_ context.Context, _ domain.RoleDomain, token string, u domain.ProfileUpdate) (*domain.Principal, error) {
	b.calls.Add(1)
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.principals[token]
	if !ok {
		return nil, &domain.BackendError{Status: 401, Err: domain.ErrUnauthenticated}
	}
	if u.FirstName != nil {
		p.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		p.LastName = *u.LastName
	}
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Avatar != nil {
		p.Avatar = *u.Avatar
	}
	return p.Clone(), nil
}

type memJar struct {
	mu    sync.Mutex
	token string
}

func (j *memJar) Token() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.token
}

func (j *memJar) Store(token string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.token = token
}

func (j *memJar) Clear() { j.Store("") }

// memCache never expires; good enough to prove the store keeps it coherent.
type memCache struct {
	mu      sync.Mutex
	entries map[string]*domain.Principal
}

func newMemCache() *memCache { return &memCache{entries: make(map[string]*domain.Principal)} }

func (c *memCache) Get(_ context.Context, role, token string) (*domain.Principal, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[role+":"+token].Clone(), nil
}

func (c *memCache) Put(_ context.Context, role, token string, p *domain.Principal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[role+":"+token] = p.Clone()
	return nil
}

func (c *memCache) Delete(_ context.Context, role, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, role+":"+token)
	return nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []domain.AuthEvent
}

func (s *recordingSink) Record(e domain.AuthEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) kinds() []domain.AuthEventKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.AuthEventKind, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Kind)
	}
	return out
}

func shopRole() domain.RoleDomain {
	for _, r := range domain.DefaultRoleDomains() {
		if r.Name == domain.RoleShop {
			return r
		}
	}
	panic("shop role missing from defaults")
}

func newTestFactory(b *stubBackend, opts ...FactoryOption) *SessionFactory {
	f, err := NewSessionFactory(domain.DefaultRoleDomains(), b, zerolog.Nop(), opts...)
	if err != nil {
		panic(err)
	}
	return f
}
