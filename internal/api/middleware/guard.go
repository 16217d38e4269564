package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/bazaar/storefront-gateway/internal/api/metrics"
	"github.com/bazaar/storefront-gateway/internal/core/domain"
	"github.com/bazaar/storefront-gateway/internal/core/service"
)

// observedStore counts bootstrap outcomes per role.
type observedStore struct {
	*service.SessionStore
}

func (o observedStore) Bootstrap(ctx context.Context) domain.SessionState {
	st := o.SessionStore.Bootstrap(ctx)
	result := "anonymous"
	if st.Principal != nil {
		result = "principal"
	}
	metrics.SessionBootstrapTotal.WithLabelValues(o.Role().Name, result).Inc()
	return st
}

// Guard mounts one route guard per request for role. The wrapped handler runs
// only when the guard settles in AUTHORIZED; a REDIRECTING guard answers with
// a 302 and an empty body.
func Guard(factory *service.SessionFactory, role domain.RoleDomain, policy service.GuardPolicy) echo.MiddlewareFunc {
	cfg := service.GuardConfigFor(role, policy)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			store, err := StoreFor(c, factory, role.Name)
			if err != nil {
				return err
			}

			g := service.NewGuard(cfg, observedStore{store})
			defer g.Unmount()

			// A client that goes away mid-bootstrap unmounts the guard.
			ctx := c.Request().Context()
			stop := context.AfterFunc(ctx, g.Unmount)
			defer stop()

			d := g.Mount(ctx, c.Request().URL.RequestURI())
			metrics.GuardDecisionsTotal.WithLabelValues(role.Name, d.State.String()).Inc()

			switch d.View {
			case service.ViewChildren:
				if d.Principal != nil {
					c.Set(PrincipalKey, d.Principal)
					c.Set(RoleKey, role.Name)
				}
				return next(c)
			case service.ViewNothing:
				if d.State != service.GuardRedirecting {
					return c.NoContent(http.StatusUnauthorized)
				}
				recordRedirect(factory, store, c.Request().URL.Path, d.Location)
				return c.Redirect(http.StatusFound, d.Location)
			default:
				// Still CHECKING: the request was abandoned.
				return nil
			}
		}
	}
}

func recordRedirect(factory *service.SessionFactory, store *service.SessionStore, path, location string) {
	sink := factory.Audit()
	if sink == nil {
		return
	}
	st := store.State()
	ev := domain.AuthEvent{
		ID:     uuid.NewString(),
		Kind:   domain.EventGuardRedirected,
		Role:   store.Role().Name,
		Path:   path,
		Reason: location,
		At:     factory.Now().UTC(),
	}
	if st.Principal != nil {
		ev.PrincipalID = st.Principal.ID
	}
	sink.Record(ev)
}
