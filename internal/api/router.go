package api

import (
	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/bazaar/storefront-gateway/docs"
	"github.com/bazaar/storefront-gateway/internal/api/handler"
	"github.com/bazaar/storefront-gateway/internal/api/middleware"
	"github.com/bazaar/storefront-gateway/internal/core/domain"
	"github.com/bazaar/storefront-gateway/internal/core/service"
	"github.com/bazaar/storefront-gateway/internal/infrastructure/upstream"
)

// WithdrawalsPermission gates the admin payout pages.
const WithdrawalsPermission = "manage_withdrawals"

// Deps are the collaborators the router wires together. Mongo and Redis are
// nil when their stores are disabled.
type Deps struct {
	Sessions      *service.SessionFactory
	Forwarder     *upstream.Forwarder
	ProxyMount    string
	StaticDir     string
	EdgeVerifier  middleware.TokenVerifier
	ShowDetails   bool
	EnableSwagger bool
	Mongo         *mongo.Database
	Redis         *redis.Client
	Log           zerolog.Logger

	// Registry receives the HTTP metrics and backs /metrics. Defaults to the
	// global Prometheus registry, which also holds the gateway's own metrics.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(d.Log))

	var registerer prometheus.Registerer = prometheus.DefaultRegisterer
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if d.Registry != nil {
		registerer, gatherer = d.Registry, d.Registry
	}
	httpMetrics, err := echoprometheus.MiddlewareConfig{
		Subsystem:  "storefront_gateway",
		Registerer: registerer,
	}.ToMiddleware()
	if err != nil {
		return nil, err
	}
	e.Use(httpMetrics)

	// --- Operational endpoints ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewReadinessHandler(d.Mongo, d.Redis).Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	if d.EnableSwagger {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	// --- Proxy ---
	handler.NewProxyHandler(d.Forwarder, d.Log, d.ShowDetails).Register(e, d.ProxyMount)

	// --- Same-origin session endpoints ---
	auth := handler.NewAuthHandler(d.Sessions)
	g := e.Group("/auth/:role")
	g.POST("/login", auth.Login)
	g.POST("/logout", auth.Logout)
	g.GET("/me", auth.Me)
	g.PUT("/profile", auth.UpdateProfile)

	// --- Pages ---
	registerPages(e, d)

	return e, nil
}

// registerPages puts every page route behind the edge gate and the matching
// route guard; everything else falls through to the front end.
func registerPages(e *echo.Echo, d Deps) {
	roles := d.Sessions.Roles()
	spa := handler.NewSPAHandler(d.StaticDir).Serve
	edge := middleware.EdgeGate(roles, d.EdgeVerifier, d.Sessions.Audit())

	page := func(prefix string, mws ...echo.MiddlewareFunc) {
		mws = append([]echo.MiddlewareFunc{edge}, mws...)
		e.GET(prefix, spa, mws...)
		e.GET(prefix+"/*", spa, mws...)
	}

	for _, r := range roles {
		protect := middleware.Guard(d.Sessions, r, service.PolicyProtect)
		for _, prefix := range r.ProtectedPrefixes {
			if r.Name == domain.RoleAdmin && prefix == "/admin/withdrawals" {
				page(prefix, protect, middleware.RequirePermission(WithdrawalsPermission))
				continue
			}
			page(prefix, protect)
		}

		redirectIfAuthed := middleware.Guard(d.Sessions, r, service.PolicyRedirectIfAuthenticated)
		for _, prefix := range r.AuthOnlyPrefixes {
			page(prefix, redirectIfAuthed)
		}
	}

	e.GET("/*", spa, edge)
}
