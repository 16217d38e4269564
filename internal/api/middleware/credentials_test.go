package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestCookieJar_ReadStoreClear(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "seller_token", Value: "old"})
	rec := httptest.NewRecorder()
	jar := NewCookieJar(e.NewContext(req, rec), "seller_token")

	if jar.Token() != "old" {
		t.Fatalf("expected inbound cookie, got %q", jar.Token())
	}

	jar.Store("new")
	if jar.Token() != "new" {
		t.Fatalf("expected stored token to be visible, got %q", jar.Token())
	}

	jar.Clear()
	if jar.Token() != "" {
		t.Fatalf("expected cleared token, got %q", jar.Token())
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 2 {
		t.Fatalf("expected two Set-Cookie headers, got %d", len(cookies))
	}
	set, del := cookies[0], cookies[1]
	if set.Value != "new" || !set.HttpOnly || set.Path != "/" || set.SameSite != http.SameSiteLaxMode || set.MaxAge <= 0 {
		t.Fatalf("unexpected credential cookie: %+v", set)
	}
	if del.MaxAge >= 0 || del.Value != "" {
		t.Fatalf("expected deletion cookie, got %+v", del)
	}
}

func TestCookieJar_MissingCookie(t *testing.T) {
	e := echo.New()
	jar := NewCookieJar(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder()), "token")
	if jar.Token() != "" {
		t.Fatalf("expected no token")
	}
}
