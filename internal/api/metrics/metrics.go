// Package metrics defines and registers all custom Prometheus metrics of the
// storefront gateway. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register with the default Prometheus registry on package init via
// promauto; echoprometheus exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "storefront_gateway"

// ── Proxy metrics ─────────────────────────────────────────────────────────────

// ProxyRequestsTotal counts proxied requests.
// Labels:
//   - method: inbound HTTP method
//   - outcome: "relayed", "missing_path", "timeout", "unavailable" or "error"
var ProxyRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "proxy_requests_total",
		Help:      "Total number of proxied API requests, by method and outcome.",
	},
	[]string{"method", "outcome"},
)

// ProxyUpstreamDuration measures the backend round trip of relayed calls.
// Label:
//   - status_class: "2xx", "4xx", "5xx", … or "error" when no response arrived
var ProxyUpstreamDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "proxy_upstream_duration_seconds",
		Help:      "Duration of proxied calls to the backend API.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"status_class"},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// GuardDecisionsTotal counts settled route guards.
// Labels:
//   - role: role domain name
//   - state: final guard state ("authorized", "redirecting", …)
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of route guard decisions, by role and final state.",
	},
	[]string{"role", "state"},
)

// EdgeGateDecisionsTotal counts edge gate redirects.
// Labels:
//   - role: role domain whose prefix matched
//   - decision: "to_login" or "to_dashboard"
var EdgeGateDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "edge_gate_redirects_total",
		Help:      "Total number of edge gate redirects, by role and target.",
	},
	[]string{"role", "decision"},
)

// SessionBootstrapTotal counts session bootstraps run by guards.
// Labels:
//   - role: role domain name
//   - result: "principal" or "anonymous"
var SessionBootstrapTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_bootstrap_total",
		Help:      "Total number of session bootstraps, by role and result.",
	},
	[]string{"role", "result"},
)

// PrincipalCacheTotal counts principal cache lookups.
// Label:
//   - result: "hit", "miss" or "error"
var PrincipalCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "principal_cache_lookups_total",
		Help:      "Total number of principal cache lookups, labelled by result.",
	},
	[]string{"result"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditEventsTotal counts audit events by fate.
// Label:
//   - result: "written", "failed" or "dropped"
var AuditEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_total",
		Help:      "Total number of authentication audit events, by result.",
	},
	[]string{"result"},
)

// AuditQueueDepth tracks the number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
