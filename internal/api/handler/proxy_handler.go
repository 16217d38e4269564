package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/bazaar/storefront-gateway/internal/api/metrics"
	"github.com/bazaar/storefront-gateway/internal/core/domain"
	"github.com/bazaar/storefront-gateway/internal/infrastructure/upstream"
)

type proxyError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ProxyHandler relays browser requests to the backend API on the same origin.
type ProxyHandler struct {
	forwarder   *upstream.Forwarder
	log         zerolog.Logger
	showDetails bool
}

// NewProxyHandler returns a handler; showDetails exposes error causes in
// 500 responses and is meant for development only.
func NewProxyHandler(forwarder *upstream.Forwarder, log zerolog.Logger, showDetails bool) *ProxyHandler {
	return &ProxyHandler{forwarder: forwarder, log: log, showDetails: showDetails}
}

// Forward proxies one request to the backend API.
//
// @Summary      Proxy a request to the backend API
// @Description  The target path is the wildcard segment or, failing that, the "path" query parameter.
// @Tags         proxy
// @Param        path  query     string  false  "Target API path when no wildcard segment is given"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  proxyError
// @Failure      500   {object}  proxyError
// @Failure      503   {object}  proxyError
// @Failure      504   {object}  proxyError
// @Router       /api/proxy/{path} [get]
// @Router       /api/proxy/{path} [post]
// @Router       /api/proxy/{path} [put]
// @Router       /api/proxy/{path} [delete]
// @Router       /api/proxy/{path} [patch]
func (h *ProxyHandler) Forward(c echo.Context) error {
	method := c.Request().Method

	target := targetPath(c)
	if target == "" {
		metrics.ProxyRequestsTotal.WithLabelValues(method, "missing_path").Inc()
		return c.JSON(http.StatusBadRequest, proxyError{Error: "Missing target API path"})
	}

	start := time.Now()
	resp, err := h.forwarder.Forward(c.Request().Context(), c.Request(), target)
	if err != nil {
		metrics.ProxyUpstreamDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return h.fail(c, method, target, err)
	}
	metrics.ProxyUpstreamDuration.WithLabelValues(statusClass(resp.StatusCode)).Observe(time.Since(start).Seconds())
	metrics.ProxyRequestsTotal.WithLabelValues(method, "relayed").Inc()

	header := c.Response().Header()
	for name, values := range resp.Header {
		for _, v := range values {
			header.Add(name, v)
		}
	}
	c.Response().WriteHeader(resp.StatusCode)
	if len(resp.Body) == 0 {
		return nil
	}
	_, err = c.Response().Write(resp.Body)
	return err
}

func (h *ProxyHandler) fail(c echo.Context, method, target string, err error) error {
	switch {
	case errors.Is(err, domain.ErrBackendTimeout):
		metrics.ProxyRequestsTotal.WithLabelValues(method, "timeout").Inc()
		h.log.Warn().Err(err).Str("target", target).Msg("proxy request timed out")
		return c.JSON(http.StatusGatewayTimeout, proxyError{Error: "Request timeout"})
	case errors.Is(err, domain.ErrBackendUnavailable):
		metrics.ProxyRequestsTotal.WithLabelValues(method, "unavailable").Inc()
		h.log.Warn().Err(err).Str("target", target).Msg("backend unavailable")
		return c.JSON(http.StatusServiceUnavailable, proxyError{Error: "Backend service unavailable"})
	}

	metrics.ProxyRequestsTotal.WithLabelValues(method, "error").Inc()
	h.log.Error().Err(err).Str("method", method).Str("target", target).Msg("proxy request failed")
	body := proxyError{Error: "Internal proxy error"}
	if h.showDetails {
		body.Details = err.Error()
	}
	return c.JSON(http.StatusInternalServerError, body)
}

// targetPath prefers the wildcard segment and falls back to ?path=.
func targetPath(c echo.Context) string {
	target := c.Param("*")
	if strings.Trim(target, "/") == "" {
		target = c.QueryParam("path")
	}
	target = strings.TrimLeft(target, "/")
	if target == "" {
		return ""
	}
	return "/" + target
}

func statusClass(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}

// ProxyMethods are the methods the proxy accepts.
var ProxyMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch}

// Register mounts the proxy on mount and every sub-path of it.
func (h *ProxyHandler) Register(e *echo.Echo, mount string) {
	mount = strings.TrimRight(mount, "/")
	e.Match(ProxyMethods, mount, h.Forward)
	e.Match(ProxyMethods, mount+"/*", h.Forward)
}
