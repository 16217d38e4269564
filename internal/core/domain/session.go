package domain

import "time"

// SessionState is the per-role view of the current session. A non-nil
// Principal means the last bootstrap or login succeeded; Error is transient
// and never blocks another attempt.
type SessionState struct {
	Principal *Principal `json:"principal"`
	IsLoading bool       `json:"isLoading"`
	Error     string     `json:"error,omitempty"`
}

// Result is what every session action hands back to its caller.
type Result struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Data    *Principal `json:"data,omitempty"`
}

// LoginGrant is the backend's answer to a successful login.
type LoginGrant struct {
	Token     string
	Principal *Principal
	Message   string
}

// AuthEventKind classifies entries of the authentication audit trail.
type AuthEventKind string

const (
	EventLoginSucceeded   AuthEventKind = "login_succeeded"
	EventLoginFailed      AuthEventKind = "login_failed"
	EventLogout           AuthEventKind = "logout"
	EventBootstrapFailed  AuthEventKind = "bootstrap_failed"
	EventProfileUpdated   AuthEventKind = "profile_updated"
	EventGuardRedirected  AuthEventKind = "guard_redirected"
	EventEdgeGateRedirect AuthEventKind = "edge_redirected"
)

// AuthEvent is one entry of the audit trail.
type AuthEvent struct {
	ID          string
	Kind        AuthEventKind
	Role        string
	PrincipalID string
	Path        string
	Reason      string
	At          time.Time
}
