// Package backend is the HTTP client for the marketplace REST API's
// per-role authentication endpoints.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bazaar/storefront-gateway/internal/core/domain"
	"github.com/bazaar/storefront-gateway/internal/infrastructure/upstream"
)

const defaultTimeout = 15 * time.Second

// envelope is the backend's {success, message, data} response shape.
type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Token   string          `json:"token"`
}

type loginData struct {
	Token string            `json:"token"`
	User  *domain.Principal `json:"user"`
}

type nestedPrincipal struct {
	User *domain.Principal `json:"user"`
}

// Client implements ports.Backend over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client rooted at baseURL. A zero timeout uses the
// default; callers can still pass shorter deadlines through ctx.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) FetchProfile(ctx context.Context, role domain.RoleDomain, token string) (*domain.Principal, error) {
	env, _, err := c.do(ctx, http.MethodGet, role.API.Profile, role, token, nil)
	if err != nil {
		return nil, err
	}
	p, err := decodePrincipal(env.Data)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	if p == nil {
		return nil, &domain.BackendError{Err: domain.ErrUnauthenticated, Message: env.Message}
	}
	return p, nil
}

func (c *Client) Login(ctx context.Context, role domain.RoleDomain, identifier, secret string) (*domain.LoginGrant, error) {
	body := map[string]string{"email": identifier, "password": secret}
	env, resp, err := c.do(ctx, http.MethodPost, role.API.Login, role, "", body)
	if err != nil {
		return nil, err
	}

	grant := &domain.LoginGrant{Token: env.Token, Message: env.Message}
	var ld loginData
	if len(env.Data) > 0 && json.Unmarshal(env.Data, &ld) == nil {
		if ld.Token != "" {
			grant.Token = ld.Token
		}
		grant.Principal = ld.User
	}
	if grant.Token == "" {
		// Some role endpoints only hand the credential back as a cookie.
		for _, ck := range resp.Cookies() {
			if ck.Name == role.CookieName && ck.Value != "" {
				grant.Token = ck.Value
			}
		}
	}
	return grant, nil
}

func (c *Client) Logout(ctx context.Context, role domain.RoleDomain, token string) error {
	_, _, err := c.do(ctx, http.MethodPost, role.API.Logout, role, token, nil)
	if errors.Is(err, domain.ErrUnauthenticated) {
		// The session is already gone server-side.
		return nil
	}
	return err
}

func (c *Client) UpdateProfile(ctx context.Context, role domain.RoleDomain, token string, update domain.ProfileUpdate) (*domain.Principal, error) {
	env, _, err := c.do(ctx, http.MethodPut, role.API.Update, role, token, update)
	if err != nil {
		return nil, err
	}
	p, err := decodePrincipal(env.Data)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if p == nil {
		return nil, &domain.BackendError{Err: domain.ErrBackendRejected, Message: "profile update returned no profile"}
	}
	return p, nil
}

// do sends one request and decodes the envelope. Non-2xx statuses and
// success=false bodies come back as *domain.BackendError.
func (c *Client) do(ctx context.Context, method, path string, role domain.RoleDomain, token string, payload any) (*envelope, *http.Response, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+strings.TrimLeft(path, "/"), body)
	if err != nil {
		return nil, nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
		req.AddCookie(&http.Cookie{Name: role.CookieName, Value: token})
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, upstream.Classify(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp, upstream.Classify(err)
	}

	var env envelope
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
			return nil, resp, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, resp, &domain.BackendError{Status: resp.StatusCode, Message: env.Message, Err: domain.ErrUnauthenticated}
	case resp.StatusCode >= 500:
		return nil, resp, &domain.BackendError{Status: resp.StatusCode, Message: env.Message, Err: domain.ErrBackendUnavailable}
	case resp.StatusCode >= 300:
		return nil, resp, &domain.BackendError{Status: resp.StatusCode, Message: env.Message, Err: domain.ErrBackendRejected}
	case env.Success != nil && !*env.Success:
		return nil, resp, &domain.BackendError{Status: resp.StatusCode, Message: env.Message, Err: domain.ErrBackendRejected}
	}
	return &env, resp, nil
}

// decodePrincipal accepts both {"data": {...}} and {"data": {"user": {...}}}.
func decodePrincipal(data json.RawMessage) (*domain.Principal, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var nested nestedPrincipal
	if err := json.Unmarshal(data, &nested); err == nil && nested.User != nil {
		return nested.User, nil
	}
	var p domain.Principal
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		return nil, nil
	}
	return &p, nil
}
