package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/bazaar/storefront-gateway/internal/core/domain"
	"github.com/bazaar/storefront-gateway/internal/core/service"
)

func runEdge(t *testing.T, verifier TokenVerifier, path string, cookies ...*http.Cookie) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	passed := false
	h := EdgeGate(domain.DefaultRoleDomains(), verifier, nil)(func(c echo.Context) error {
		passed = true
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec, passed
}

func TestEdgeGate_ProtectedWithoutCookieRedirectsToLogin(t *testing.T) {
	for _, r := range domain.DefaultRoleDomains() {
		for _, prefix := range r.ProtectedPrefixes {
			path := prefix + "/deep/page"
			rec, passed := runEdge(t, nil, path)
			if passed || rec.Code != http.StatusFound {
				t.Fatalf("%s: expected redirect, got %d", path, rec.Code)
			}
			loc, err := url.Parse(rec.Header().Get("Location"))
			if err != nil {
				t.Fatalf("bad location: %v", err)
			}
			if loc.Path != r.LoginRoute {
				t.Fatalf("%s: expected login %s, got %s", path, r.LoginRoute, loc.Path)
			}
			if got := loc.Query().Get("redirect"); got != path {
				t.Fatalf("%s: expected redirect param %q, got %q", path, path, got)
			}
		}
	}
}

func TestEdgeGate_AuthOnlyWithCookieRedirectsToDashboard(t *testing.T) {
	for _, r := range domain.DefaultRoleDomains() {
		for _, prefix := range r.AuthOnlyPrefixes {
			rec, passed := runEdge(t, nil, prefix, &http.Cookie{Name: r.CookieName, Value: "tok"})
			if passed || rec.Code != http.StatusFound {
				t.Fatalf("%s: expected redirect, got %d", prefix, rec.Code)
			}
			if got := rec.Header().Get("Location"); got != r.DashboardRoute {
				t.Fatalf("%s: expected dashboard %s, got %s", prefix, r.DashboardRoute, got)
			}
		}
	}
}

func TestEdgeGate_PassThrough(t *testing.T) {
	cases := []struct {
		path    string
		cookies []*http.Cookie
	}{
		{path: "/"},
		{path: "/products/42"},
		{path: "/shop-login"},
		{path: "/shopping"},
		{path: "/dashboard/preview/7"},
		{path: "/dashboard/orders", cookies: []*http.Cookie{{Name: "seller_token", Value: "stale-but-present"}}},
		{path: "/service-provider/dashboard", cookies: []*http.Cookie{{Name: "service_provider_token", Value: "tok"}}},
	}
	for _, tc := range cases {
		rec, passed := runEdge(t, nil, tc.path, tc.cookies...)
		if !passed || rec.Code != http.StatusOK {
			t.Fatalf("%s: expected pass-through, got %d", tc.path, rec.Code)
		}
	}
}

func TestEdgeGate_OtherRoleCookieDoesNotCount(t *testing.T) {
	rec, passed := runEdge(t, nil, "/admin/dashboard", &http.Cookie{Name: "token", Value: "user-token"})
	if passed || !strings.HasPrefix(rec.Header().Get("Location"), "/admin/login") {
		t.Fatalf("expected admin login redirect, got %d %s", rec.Code, rec.Header().Get("Location"))
	}
}

func TestEdgeGate_VerifyingModeTreatsInvalidAsAbsent(t *testing.T) {
	rec, passed := runEdge(t, NewTokenVerifier("secret"), "/dashboard", &http.Cookie{Name: "seller_token", Value: "forged"})
	if passed || rec.Code != http.StatusFound {
		t.Fatalf("expected redirect for an invalid token, got %d", rec.Code)
	}

	// An invalid cookie on a login page is not a session either.
	rec, passed = runEdge(t, NewTokenVerifier("secret"), "/shop-login", &http.Cookie{Name: "seller_token", Value: "forged"})
	if !passed {
		t.Fatalf("expected login page to load, got %d", rec.Code)
	}
}

func TestEvaluateEdge_AuthOnlyBeforeProtected(t *testing.T) {
	roles := []domain.RoleDomain{{
		Name:              "x",
		LoginRoute:        "/x/login",
		DashboardRoute:    "/x",
		ProtectedPrefixes: []string{"/x"},
		AuthOnlyPrefixes:  []string{"/x/login"},
	}}
	d := EvaluateEdge(roles, "/x/login", func(domain.RoleDomain) bool { return true })
	if d.Action != EdgeToDashboard {
		t.Fatalf("expected dashboard redirect, got %v", d.Action)
	}
	d = EvaluateEdge(roles, "/x/login", func(domain.RoleDomain) bool { return false })
	if d.Action != EdgePass {
		t.Fatalf("login page must not redirect to itself, got %v", d.Action)
	}
	d = EvaluateEdge(roles, "/x/orders", func(domain.RoleDomain) bool { return false })
	if d.Action != EdgeToLogin || d.Location != "/x/login?redirect=%2Fx%2Forders" {
		t.Fatalf("expected login redirect, got %+v", d)
	}
}

func TestEdgeGate_RedirectKeepsQueryLikeGuard(t *testing.T) {
	const target = "/dashboard/orders?page=2"

	rec, passed := runEdge(t, nil, target)
	if passed || rec.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	edgeLoc := rec.Header().Get("Location")
	if edgeLoc != "/shop-login?redirect=%2Fdashboard%2Forders%3Fpage%3D2" {
		t.Fatalf("unexpected edge location %q", edgeLoc)
	}

	// A stale cookie gets past the edge; the guard must send the user to
	// the same place.
	guardRec, _, called := serveGuarded(t, testFactory(t, nil), domain.RoleShop, service.PolicyProtect, target,
		&http.Cookie{Name: "seller_token", Value: "stale"})
	if called {
		t.Fatalf("protected handler must not run")
	}
	if got := guardRec.Header().Get("Location"); got != edgeLoc {
		t.Fatalf("edge and guard disagree: %q vs %q", edgeLoc, got)
	}
}
