package domain

import (
	"strings"
	"time"
)

const (
	RoleUser            = "user"
	RoleShop            = "shop"
	RoleInstructor      = "instructor"
	RoleServiceProvider = "service-provider"
	RoleAdmin           = "admin"
)

// DefaultBootstrapTimeout bounds a guard's profile fetch so a hung backend
// cannot leave a request stuck in CHECKING.
const DefaultBootstrapTimeout = 10 * time.Second

// RoleAPI lists the backend endpoints of one role domain, relative to the
// backend base URL.
type RoleAPI struct {
	Login   string `yaml:"login"`
	Profile string `yaml:"profile"`
	Logout  string `yaml:"logout"`
	Update  string `yaml:"update"`
}

// RoleDomain is the static description of one authenticated area of the
// marketplace: which cookie carries its credential, where its login and
// dashboard live and which page prefixes the edge gate protects.
type RoleDomain struct {
	Name              string        `yaml:"name"`
	CookieName        string        `yaml:"cookie"`
	LoginRoute        string        `yaml:"login_route"`
	DashboardRoute    string        `yaml:"dashboard_route"`
	ProtectedPrefixes []string      `yaml:"protected_prefixes"`
	AuthOnlyPrefixes  []string      `yaml:"auth_only_prefixes"`
	PublicRoutes      []string      `yaml:"public_routes"`
	AcceptedRoles     []string      `yaml:"accepted_roles"`
	Permissions       []string      `yaml:"permissions"`
	BootstrapTimeout  time.Duration `yaml:"bootstrap_timeout"`
	API               RoleAPI       `yaml:"api"`
}

// Timeout returns the bootstrap timeout, falling back to the default.
func (r RoleDomain) Timeout() time.Duration {
	if r.BootstrapTimeout <= 0 {
		return DefaultBootstrapTimeout
	}
	return r.BootstrapTimeout
}

// Accepts reports whether a principal returned by this domain's profile
// endpoint carries an acceptable role tag and every required permission.
// With no AcceptedRoles configured the domain name itself is required, and an
// empty tag is taken to mean the endpoint only serves this domain.
func (r RoleDomain) Accepts(p *Principal) bool {
	if p == nil {
		return false
	}
	if !p.HasPermissions(r.Permissions...) {
		return false
	}
	if len(r.AcceptedRoles) == 0 {
		return p.Role == "" || strings.EqualFold(p.Role, r.Name)
	}
	for _, role := range r.AcceptedRoles {
		if strings.EqualFold(p.Role, role) {
			return true
		}
	}
	return false
}

// Protects reports whether path falls under one of the protected prefixes.
func (r RoleDomain) Protects(path string) bool {
	return matchesAny(path, r.ProtectedPrefixes)
}

// AuthOnly reports whether path is a login/registration page of this role.
func (r RoleDomain) AuthOnly(path string) bool {
	return matchesAny(path, r.AuthOnlyPrefixes)
}

// IsPublic reports whether path is exempt from authentication inside an
// otherwise protected region.
func (r RoleDomain) IsPublic(path string) bool {
	return matchesAny(path, r.PublicRoutes)
}

// matchesAny does segment-aware prefix matching: "/shop" matches "/shop" and
// "/shop/orders" but not "/shopping".
func matchesAny(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if p == "" {
			continue
		}
		p = strings.TrimRight(p, "/")
		if p == "" {
			if path == "/" {
				return true
			}
			continue
		}
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// DefaultRoleDomains is the built-in role table. It can be replaced from a
// YAML file at startup.
func DefaultRoleDomains() []RoleDomain {
	return []RoleDomain{
		{
			Name:              RoleUser,
			CookieName:        "token",
			LoginRoute:        "/login",
			DashboardRoute:    "/profile",
			ProtectedPrefixes: []string{"/profile", "/checkout", "/inbox", "/order"},
			AuthOnlyPrefixes:  []string{"/login", "/sign-up"},
			API: RoleAPI{
				Login:   "/user/login-user",
				Profile: "/user/getuser",
				Logout:  "/user/logout",
				Update:  "/user/update-user-info",
			},
		},
		{
			Name:              RoleShop,
			CookieName:        "seller_token",
			LoginRoute:        "/shop-login",
			DashboardRoute:    "/dashboard",
			ProtectedPrefixes: []string{"/dashboard", "/settings"},
			AuthOnlyPrefixes:  []string{"/shop-login", "/shop-create"},
			PublicRoutes:      []string{"/dashboard/preview"},
			AcceptedRoles:     []string{RoleShop, "seller"},
			API: RoleAPI{
				Login:   "/shop/login-shop",
				Profile: "/shop/getSeller",
				Logout:  "/shop/logout",
				Update:  "/shop/update-seller-info",
			},
		},
		{
			Name:              RoleInstructor,
			CookieName:        "instructor_token",
			LoginRoute:        "/instructor/login",
			DashboardRoute:    "/instructor/dashboard",
			ProtectedPrefixes: []string{"/instructor/dashboard", "/instructor/courses"},
			AuthOnlyPrefixes:  []string{"/instructor/login", "/instructor/register"},
			API: RoleAPI{
				Login:   "/instructor/login",
				Profile: "/instructor/me",
				Logout:  "/instructor/logout",
				Update:  "/instructor/update-profile",
			},
		},
		{
			Name:              RoleServiceProvider,
			CookieName:        "service_provider_token",
			LoginRoute:        "/service-provider/login",
			DashboardRoute:    "/service-provider/dashboard",
			ProtectedPrefixes: []string{"/service-provider/dashboard", "/service-provider/profile", "/service-provider/services"},
			AuthOnlyPrefixes:  []string{"/service-provider/login", "/service-provider/register"},
			API: RoleAPI{
				Login:   "/service-provider/login",
				Profile: "/service-provider/me",
				Logout:  "/service-provider/logout",
				Update:  "/service-provider/profile",
			},
		},
		{
			Name:              RoleAdmin,
			CookieName:        "admin_token",
			LoginRoute:        "/admin/login",
			DashboardRoute:    "/admin/dashboard",
			ProtectedPrefixes: []string{"/admin/dashboard", "/admin/withdrawals", "/admin/sellers", "/admin/users"},
			AuthOnlyPrefixes:  []string{"/admin/login"},
			AcceptedRoles:     []string{RoleAdmin},
			Permissions:       []string{"admin_access"},
			API: RoleAPI{
				Login:   "/admin/login",
				Profile: "/admin/me",
				Logout:  "/admin/logout",
				Update:  "/admin/update-profile",
			},
		},
	}
}
