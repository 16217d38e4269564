package domain

import "errors"

var (
	ErrNoCredential       = errors.New("no active session")
	ErrUnauthenticated    = errors.New("session expired or invalid")
	ErrBackendUnavailable = errors.New("backend service unavailable")
	ErrBackendTimeout     = errors.New("backend request timed out")
	ErrBackendRejected    = errors.New("backend rejected the request")
	ErrValidation         = errors.New("validation failed")
	ErrForbidden          = errors.New("access forbidden")
	ErrUnknownRole        = errors.New("unknown role domain")
	ErrMissingTargetPath  = errors.New("missing target API path")
)

// BackendError carries the backend's own message alongside the sentinel that
// classifies it, so callers can show "Invalid credentials" while still
// switching on errors.Is.
type BackendError struct {
	Status  int
	Message string
	Err     error
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + ": " + e.Message
}

func (e *BackendError) Unwrap() error { return e.Err }
