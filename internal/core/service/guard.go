package service

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/bazaar/storefront-gateway/internal/core/domain"
)

// GuardState is a state of the route guard.
type GuardState int

const (
	GuardChecking GuardState = iota
	GuardAuthorized
	GuardUnauthorized
	GuardRedirecting
)

func (s GuardState) String() string {
	switch s {
	case GuardChecking:
		return "checking"
	case GuardAuthorized:
		return "authorized"
	case GuardUnauthorized:
		return "unauthorized"
	case GuardRedirecting:
		return "redirecting"
	default:
		return "unknown"
	}
}

// GuardPolicy selects what the guard protects against.
type GuardPolicy int

const (
	// PolicyProtect renders the region only for an accepted principal and
	// sends everyone else to the login route.
	PolicyProtect GuardPolicy = iota
	// PolicyRedirectIfAuthenticated is for login/registration pages: an
	// accepted principal is sent to the dashboard instead.
	PolicyRedirectIfAuthenticated
)

// View is what the guarded region may show in the current state.
type View int

const (
	ViewLoading View = iota
	ViewChildren
	ViewNothing
)

// Bootstrapper is the slice of SessionStore the guard depends on.
type Bootstrapper interface {
	Bootstrap(ctx context.Context) domain.SessionState
}

// GuardConfig parameterises one guard; the same machine serves every role.
type GuardConfig struct {
	Role             string
	LoginRoute       string
	DashboardRoute   string
	PublicRoutes     []string
	RequireAuth      bool
	Policy           GuardPolicy
	Predicate        func(*domain.Principal) bool
	BootstrapTimeout time.Duration
}

// GuardConfigFor derives a guard configuration from a role domain.
func GuardConfigFor(role domain.RoleDomain, policy GuardPolicy) GuardConfig {
	return GuardConfig{
		Role:             role.Name,
		LoginRoute:       role.LoginRoute,
		DashboardRoute:   role.DashboardRoute,
		PublicRoutes:     role.PublicRoutes,
		RequireAuth:      true,
		Policy:           policy,
		Predicate:        role.Accepts,
		BootstrapTimeout: role.Timeout(),
	}
}

// Decision is the outcome of mounting a guard.
type Decision struct {
	State     GuardState
	View      View
	Location  string
	Principal *domain.Principal
}

// Guard is a single-use state machine: CHECKING on mount, then AUTHORIZED or
// UNAUTHORIZED → REDIRECTING. REDIRECTING is terminal; a new navigation gets
// a new Guard.
type Guard struct {
	cfg   GuardConfig
	store Bootstrapper

	mu        sync.Mutex
	state     GuardState
	history   []GuardState
	location  string
	principal *domain.Principal
	mounted   bool
	used      bool
}

func NewGuard(cfg GuardConfig, store Bootstrapper) *Guard {
	if cfg.BootstrapTimeout <= 0 {
		cfg.BootstrapTimeout = domain.DefaultBootstrapTimeout
	}
	if cfg.Predicate == nil {
		cfg.Predicate = func(p *domain.Principal) bool { return p != nil }
	}
	return &Guard{cfg: cfg, store: store, state: GuardChecking, history: []GuardState{GuardChecking}}
}

// Mount runs the bootstrap for requestedPath and settles the guard. Calling
// Mount again returns the settled decision without another bootstrap.
func (g *Guard) Mount(ctx context.Context, requestedPath string) Decision {
	g.mu.Lock()
	if g.used {
		defer g.mu.Unlock()
		return g.decisionLocked()
	}
	g.used = true
	g.mounted = true
	g.mu.Unlock()

	if g.cfg.Policy == PolicyProtect && g.isPublic(requestedPath) {
		g.mu.Lock()
		defer g.mu.Unlock()
		g.transitionLocked(GuardAuthorized)
		return g.decisionLocked()
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.BootstrapTimeout)
	defer cancel()
	st := g.store.Bootstrap(ctx)

	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.mounted {
		return g.decisionLocked()
	}

	accepted := st.Principal != nil && g.cfg.Predicate(st.Principal)
	switch g.cfg.Policy {
	case PolicyRedirectIfAuthenticated:
		if accepted {
			g.principal = st.Principal
			g.redirectLocked(g.cfg.DashboardRoute)
		} else {
			g.transitionLocked(GuardAuthorized)
		}
	default:
		switch {
		case accepted:
			g.principal = st.Principal
			g.transitionLocked(GuardAuthorized)
		case !g.cfg.RequireAuth:
			g.transitionLocked(GuardAuthorized)
		case samePath(requestedPath, g.cfg.LoginRoute):
			// Never bounce the login page to itself.
			g.transitionLocked(GuardAuthorized)
		default:
			g.redirectLocked(LoginLocation(g.cfg.LoginRoute, requestedPath))
		}
	}
	return g.decisionLocked()
}

// Unmount marks the guard as gone; a bootstrap still in flight will not
// commit anything.
func (g *Guard) Unmount() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mounted = false
}

// State returns the current state.
func (g *Guard) State() GuardState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// History returns every state the guard has been in, in order.
func (g *Guard) History() []GuardState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]GuardState(nil), g.history...)
}

// View reports what the region may render right now. Protected content is
// only ever visible in AUTHORIZED.
func (g *Guard) View() View {
	g.mu.Lock()
	defer g.mu.Unlock()
	return viewFor(g.state)
}

func (g *Guard) redirectLocked(location string) {
	g.transitionLocked(GuardUnauthorized)
	g.location = location
	g.transitionLocked(GuardRedirecting)
}

func (g *Guard) transitionLocked(next GuardState) {
	if g.state == GuardRedirecting {
		return
	}
	g.state = next
	g.history = append(g.history, next)
}

func (g *Guard) decisionLocked() Decision {
	d := Decision{State: g.state, View: viewFor(g.state)}
	if g.state == GuardRedirecting {
		d.Location = g.location
	}
	if g.state == GuardAuthorized {
		d.Principal = g.principal.Clone()
	}
	return d
}

func (g *Guard) isPublic(requestedPath string) bool {
	if len(g.cfg.PublicRoutes) == 0 {
		return false
	}
	return domain.RoleDomain{PublicRoutes: g.cfg.PublicRoutes}.IsPublic(pathOnly(requestedPath))
}

func viewFor(s GuardState) View {
	switch s {
	case GuardChecking:
		return ViewLoading
	case GuardAuthorized:
		return ViewChildren
	default:
		return ViewNothing
	}
}

// LoginLocation builds the login URL that carries the requested path as a
// return-to parameter.
func LoginLocation(loginRoute, requestedPath string) string {
	if requestedPath == "" {
		return loginRoute
	}
	q := url.Values{}
	q.Set("redirect", requestedPath)
	return loginRoute + "?" + q.Encode()
}

func samePath(requested, route string) bool {
	return route != "" && pathOnly(requested) == route
}

func pathOnly(requested string) string {
	u, err := url.Parse(requested)
	if err != nil {
		return requested
	}
	return u.Path
}
