package middleware

import (
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/bazaar/storefront-gateway/internal/api/metrics"
	"github.com/bazaar/storefront-gateway/internal/core/domain"
	"github.com/bazaar/storefront-gateway/internal/core/ports"
	"github.com/bazaar/storefront-gateway/internal/core/service"
)

var timeNow = time.Now

// EdgeAction is what the edge gate does with a request.
type EdgeAction int

const (
	EdgePass EdgeAction = iota
	EdgeToLogin
	EdgeToDashboard
)

func (a EdgeAction) String() string {
	switch a {
	case EdgeToLogin:
		return "to_login"
	case EdgeToDashboard:
		return "to_dashboard"
	default:
		return "pass"
	}
}

// EdgeDecision is the outcome of EvaluateEdge.
type EdgeDecision struct {
	Action   EdgeAction
	Role     string
	Location string
}

// EvaluateEdge matches the path of requestURI against every role's auth-only
// prefixes first, then its protected prefixes. hasCredential reports whether
// the request carries a credential the gate accepts for that role. Public
// routes and the role's own auth-only pages inside a protected prefix pass
// through. The login redirect carries the full requestURI, query included,
// the same return-to value the route guard builds.
func EvaluateEdge(roles []domain.RoleDomain, requestURI string, hasCredential func(domain.RoleDomain) bool) EdgeDecision {
	path := requestURI
	if u, err := url.ParseRequestURI(requestURI); err == nil {
		path = u.Path
	}
	for _, r := range roles {
		if r.AuthOnly(path) && hasCredential(r) {
			return EdgeDecision{Action: EdgeToDashboard, Role: r.Name, Location: r.DashboardRoute}
		}
	}
	for _, r := range roles {
		if r.Protects(path) && !r.IsPublic(path) && !r.AuthOnly(path) && !hasCredential(r) {
			return EdgeDecision{Action: EdgeToLogin, Role: r.Name, Location: service.LoginLocation(r.LoginRoute, requestURI)}
		}
	}
	return EdgeDecision{Action: EdgePass}
}

// EdgeGate redirects page requests before any guard runs, based on the role
// cookies the request carries. audit may be nil.
func EdgeGate(roles []domain.RoleDomain, verifier TokenVerifier, audit ports.AuditSink) echo.MiddlewareFunc {
	if verifier == nil {
		verifier = PresenceVerifier{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			d := EvaluateEdge(roles, c.Request().URL.RequestURI(), func(r domain.RoleDomain) bool {
				ck, err := c.Cookie(r.CookieName)
				return err == nil && verifier.Verify(ck.Value)
			})
			if d.Action == EdgePass {
				return next(c)
			}

			metrics.EdgeGateDecisionsTotal.WithLabelValues(d.Role, d.Action.String()).Inc()
			if audit != nil {
				audit.Record(domain.AuthEvent{
					ID:     uuid.NewString(),
					Kind:   domain.EventEdgeGateRedirect,
					Role:   d.Role,
					Path:   path,
					Reason: d.Action.String(),
					At:     timeNow().UTC(),
				})
			}
			return c.Redirect(http.StatusFound, d.Location)
		}
	}
}
