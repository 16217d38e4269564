package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bazaar/storefront-gateway/internal/core/domain"
	"github.com/bazaar/storefront-gateway/internal/core/ports"
	"github.com/bazaar/storefront-gateway/internal/pkg/validate"
)

var tracer = otel.Tracer("storefront-gateway/session")

// SessionStore owns the session state of one role domain and is the only
// thing allowed to mutate it. All methods are safe for concurrent use.
//
// Every action bumps a generation counter when it starts; only the most
// recently started action may commit its outcome, so a slow call that
// finishes late can never overwrite a newer result.
type SessionStore struct {
	role     domain.RoleDomain
	backend  ports.Backend
	creds    ports.CredentialJar
	cache    ports.PrincipalCache
	audit    ports.AuditSink
	validate *validate.Validator
	log      zerolog.Logger
	now      func() time.Time

	mu       sync.Mutex
	state    domain.SessionState
	gen      uint64
	inflight int
}

type loginInput struct {
	Identifier string `validate:"required"`
	Secret     string `validate:"required"`
}

// Bootstrap hydrates the principal from the ambient credential. The backend
// profile fetch is always made, so a revoked credential fails here even when
// the principal cache still holds it. It never returns an error: failures
// leave Principal nil and Error set, and the caller decides what to do.
func (s *SessionStore) Bootstrap(ctx context.Context) domain.SessionState {
	ctx, span := tracer.Start(ctx, "session.bootstrap", trace.WithAttributes(attribute.String("role", s.role.Name)))
	defer span.End()

	gen := s.begin()
	token := s.creds.Token()
	if token == "" {
		return s.commit(gen, nil, domain.ErrNoCredential.Error())
	}

	p, err := s.backend.FetchProfile(ctx, s.role, token)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, domain.ErrUnauthenticated) {
			s.dropCredential(ctx, token)
		}
		s.record(domain.EventBootstrapFailed, "", err.Error())
		return s.commit(gen, nil, failureMessage(err))
	}
	s.remember(ctx, token, p)
	return s.commit(gen, p, "")
}

// Peek returns the principal for display without an authorisation decision:
// a cached profile when one exists, otherwise the result of Bootstrap. It
// never commits a cached principal to the store's state.
func (s *SessionStore) Peek(ctx context.Context) *domain.Principal {
	token := s.creds.Token()
	if token != "" && s.cache != nil {
		p, err := s.cache.Get(ctx, s.role.Name, token)
		if err != nil {
			s.log.Warn().Err(err).Str("role", s.role.Name).Msg("principal cache lookup failed")
		} else if p != nil {
			return p
		}
	}
	return s.Bootstrap(ctx).Principal
}

// Login validates the inputs locally, then exchanges them for a credential.
// Empty inputs fail without any network call.
func (s *SessionStore) Login(ctx context.Context, identifier, secret string) domain.Result {
	ctx, span := tracer.Start(ctx, "session.login", trace.WithAttributes(attribute.String("role", s.role.Name)))
	defer span.End()

	in := loginInput{Identifier: strings.TrimSpace(identifier), Secret: secret}
	if err := s.validate.Struct(in); err != nil {
		s.setError(err.Error())
		return domain.Result{Success: false, Message: err.Error()}
	}

	gen := s.begin()
	grant, err := s.backend.Login(ctx, s.role, in.Identifier, in.Secret)
	if err == nil && grant.Token == "" {
		err = &domain.BackendError{Err: domain.ErrBackendRejected, Message: "login response carried no credential"}
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		msg := failureMessage(err)
		s.record(domain.EventLoginFailed, "", msg)
		s.commit(gen, nil, msg)
		return domain.Result{Success: false, Message: msg}
	}

	p := grant.Principal
	if p == nil {
		if p, err = s.backend.FetchProfile(ctx, s.role, grant.Token); err != nil {
			msg := failureMessage(err)
			s.record(domain.EventLoginFailed, "", msg)
			s.commit(gen, nil, msg)
			return domain.Result{Success: false, Message: msg}
		}
	}
	// The credential is only kept once it has produced a principal.
	s.creds.Store(grant.Token)
	s.remember(ctx, grant.Token, p)
	s.record(domain.EventLoginSucceeded, p.ID, "")
	st := s.commit(gen, p, "")

	msg := grant.Message
	if msg == "" {
		msg = "Login successful"
	}
	return domain.Result{Success: true, Message: msg, Data: st.Principal}
}

// Logout ends the session. It is idempotent: with no credential left it
// skips the backend and just resets the state.
func (s *SessionStore) Logout(ctx context.Context) domain.Result {
	gen := s.begin()
	principalID := ""
	if cur := s.State().Principal; cur != nil {
		principalID = cur.ID
	}

	if token := s.creds.Token(); token != "" {
		if err := s.backend.Logout(ctx, s.role, token); err != nil {
			s.log.Warn().Err(err).Str("role", s.role.Name).Msg("backend logout failed, clearing local session anyway")
		}
		s.forget(ctx, token)
		s.record(domain.EventLogout, principalID, "")
	}
	s.creds.Clear()
	s.commit(gen, nil, "")
	return domain.Result{Success: true, Message: "Logged out successfully"}
}

// UpdateProfile sends the allowed fields and replaces the principal with
// whatever the backend returns. The cached principal is overwritten too, so
// the next Bootstrap sees the new values.
func (s *SessionStore) UpdateProfile(ctx context.Context, update domain.ProfileUpdate) domain.Result {
	if update.Empty() {
		s.setError("nothing to update")
		return domain.Result{Success: false, Message: "nothing to update"}
	}
	if err := s.validate.Struct(update); err != nil {
		s.setError(err.Error())
		return domain.Result{Success: false, Message: err.Error()}
	}

	token := s.creds.Token()
	if token == "" {
		s.setError(domain.ErrNoCredential.Error())
		return domain.Result{Success: false, Message: domain.ErrNoCredential.Error()}
	}

	gen := s.begin()
	p, err := s.backend.UpdateProfile(ctx, s.role, token, update)
	if err != nil {
		msg := failureMessage(err)
		if errors.Is(err, domain.ErrUnauthenticated) {
			s.dropCredential(ctx, token)
			s.commit(gen, nil, msg)
		} else {
			s.commitError(gen, msg)
		}
		return domain.Result{Success: false, Message: msg}
	}

	s.remember(ctx, token, p)
	s.record(domain.EventProfileUpdated, p.ID, "")
	st := s.commit(gen, p, "")
	return domain.Result{Success: true, Message: "Profile updated successfully", Data: st.Principal}
}

// State returns a snapshot of the current session state.
func (s *SessionStore) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(s.state)
}

// Role returns the role domain this store serves.
func (s *SessionStore) Role() domain.RoleDomain { return s.role }

func (s *SessionStore) remember(ctx context.Context, token string, p *domain.Principal) {
	if s.cache == nil || p == nil {
		return
	}
	if err := s.cache.Put(ctx, s.role.Name, token, p); err != nil {
		s.log.Warn().Err(err).Str("role", s.role.Name).Msg("principal cache write failed")
	}
}

func (s *SessionStore) forget(ctx context.Context, token string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, s.role.Name, token); err != nil {
		s.log.Warn().Err(err).Str("role", s.role.Name).Msg("principal cache eviction failed")
	}
}

// dropCredential discards a credential the backend has rejected so the edge
// gate stops treating its presence as a session.
func (s *SessionStore) dropCredential(ctx context.Context, token string) {
	s.forget(ctx, token)
	s.creds.Clear()
}

func (s *SessionStore) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.inflight++
	s.state.IsLoading = true
	return s.gen
}

func (s *SessionStore) commit(gen uint64, p *domain.Principal, errMsg string) domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--
	if gen == s.gen {
		s.state.Principal = p.Clone()
		s.state.Error = errMsg
	}
	s.state.IsLoading = s.inflight > 0
	return snapshot(s.state)
}

func (s *SessionStore) commitError(gen uint64, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--
	if gen == s.gen {
		s.state.Error = errMsg
	}
	s.state.IsLoading = s.inflight > 0
}

func (s *SessionStore) setError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Error = msg
}

func (s *SessionStore) record(kind domain.AuthEventKind, principalID, reason string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(domain.AuthEvent{
		ID:          uuid.NewString(),
		Kind:        kind,
		Role:        s.role.Name,
		PrincipalID: principalID,
		Reason:      reason,
		At:          s.now().UTC(),
	})
}

func snapshot(st domain.SessionState) domain.SessionState {
	st.Principal = st.Principal.Clone()
	return st
}

// failureMessage turns any backend failure into something fit for a toast.
func failureMessage(err error) string {
	var be *domain.BackendError
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	switch {
	case errors.Is(err, domain.ErrNoCredential):
		return domain.ErrNoCredential.Error()
	case errors.Is(err, domain.ErrUnauthenticated):
		return domain.ErrUnauthenticated.Error()
	case errors.Is(err, domain.ErrBackendTimeout):
		return "request timed out, please try again"
	case errors.Is(err, domain.ErrBackendUnavailable):
		return domain.ErrBackendUnavailable.Error()
	default:
		return "something went wrong, please try again"
	}
}
