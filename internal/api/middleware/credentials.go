package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bazaar/storefront-gateway/internal/core/ports"
)

const credentialMaxAge = 7 * 24 * time.Hour

// cookieJar keeps one role's credential in an HttpOnly cookie. Writes are
// visible to later reads within the same request.
type cookieJar struct {
	c    echo.Context
	name string

	mu      sync.Mutex
	value   string
	written bool
}

// NewCookieJar returns the credential jar for cookie name on c.
func NewCookieJar(c echo.Context, name string) ports.CredentialJar {
	return &cookieJar{c: c, name: name}
}

func (j *cookieJar) Token() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.written {
		return j.value
	}
	ck, err := j.c.Cookie(j.name)
	if err != nil {
		return ""
	}
	return ck.Value
}

func (j *cookieJar) Store(token string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.value, j.written = token, true
	j.c.SetCookie(&http.Cookie{
		Name:     j.name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(credentialMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   j.c.IsTLS(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (j *cookieJar) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.value, j.written = "", true
	j.c.SetCookie(&http.Cookie{
		Name:     j.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   j.c.IsTLS(),
		SameSite: http.SameSiteLaxMode,
	})
}
