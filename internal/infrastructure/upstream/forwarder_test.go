package upstream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazaar/storefront-gateway/internal/core/domain"
)

type captured struct {
	method string
	url    string
	header http.Header
	body   []byte
}

func captureServer(t *testing.T, reply func(w http.ResponseWriter)) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.url = r.URL.String()
		got.header = r.Header.Clone()
		got.body, _ = io.ReadAll(r.Body)
		reply(w)
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestTargetURL(t *testing.T) {
	q := url.Values{"path": {"users/1"}, "page": {"2"}}
	assert.Equal(t, "http://backend/api/users/1?page=2", TargetURL("http://backend/api/", "users/1", q))
	assert.Equal(t, "http://backend/api/users/1", TargetURL("http://backend/api", "///users/1", url.Values{"path": {"x"}}))
}

func TestForward_GetWithQueryPath(t *testing.T) {
	srv, got := captureServer(t, func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("X-Internal", "secret")
		_, _ = w.Write([]byte("{ \"id\" : 1 }"))
	})

	in := httptest.NewRequest(http.MethodGet, "/api/proxy?path=users/1", nil)
	in.Header.Set("User-Agent", "test-agent")
	in.Header.Set("Accept-Language", "en")
	in.Header.Set("X-Secret", "do-not-forward")
	in.AddCookie(&http.Cookie{Name: "service_provider_token", Value: "tok"})

	f := NewForwarder(ForwarderConfig{BaseURL: srv.URL, CookieName: "service_provider_token"})
	resp, err := f.Forward(context.Background(), in, "users/1")
	require.NoError(t, err)

	assert.Equal(t, "/users/1", got.url)
	assert.Equal(t, http.MethodGet, got.method)
	assert.Empty(t, got.body)
	assert.Equal(t, "test-agent", got.header.Get("User-Agent"))
	assert.Equal(t, "en", got.header.Get("Accept-Language"))
	assert.Empty(t, got.header.Get("X-Secret"))
	assert.Equal(t, "application/json", got.header.Get("Content-Type"))
	assert.Equal(t, "Bearer tok", got.header.Get("Authorization"))
	assert.Equal(t, "service_provider_token=tok", got.header.Get("Cookie"))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"id":1}`, string(resp.Body))
	assert.Equal(t, `"v1"`, resp.Header.Get("Etag"))
	assert.Empty(t, resp.Header.Get("X-Internal"))
}

func TestForward_NoCredential(t *testing.T) {
	srv, got := captureServer(t, func(w http.ResponseWriter) { w.WriteHeader(http.StatusUnauthorized) })

	in := httptest.NewRequest(http.MethodGet, "/api/proxy/orders", nil)
	resp, err := NewForwarder(ForwarderConfig{BaseURL: srv.URL, CookieName: "service_provider_token"}).Forward(context.Background(), in, "orders")
	require.NoError(t, err)

	assert.Empty(t, got.header.Get("Authorization"))
	assert.Empty(t, got.header.Get("Cookie"))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestForward_JSONBodyReserialized(t *testing.T) {
	srv, got := captureServer(t, func(w http.ResponseWriter) { w.WriteHeader(http.StatusCreated) })

	in := httptest.NewRequest(http.MethodPost, "/api/proxy/services", strings.NewReader("{\n  \"title\": \"Repair\",\n  \"price\": 12345678901234567 }"))
	in.Header.Set("Content-Type", "application/json; charset=utf-8")
	resp, err := NewForwarder(ForwarderConfig{BaseURL: srv.URL}).Forward(context.Background(), in, "services")
	require.NoError(t, err)

	assert.Equal(t, `{"title":"Repair","price":12345678901234567}`, string(got.body))
	assert.Equal(t, "application/json; charset=utf-8", got.header.Get("Content-Type"))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestForward_MultipartPassthrough(t *testing.T) {
	srv, got := captureServer(t, func(w http.ResponseWriter) { w.WriteHeader(http.StatusOK) })

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("avatar", "me.png")
	require.NoError(t, err)
	_, _ = fw.Write([]byte{0x89, 'P', 'N', 'G'})
	require.NoError(t, mw.WriteField("name", "Ada"))
	require.NoError(t, mw.Close())
	sent := buf.Bytes()

	in := httptest.NewRequest(http.MethodPost, "/api/proxy/upload", bytes.NewReader(sent))
	in.Header.Set("Content-Type", mw.FormDataContentType())
	_, err = NewForwarder(ForwarderConfig{BaseURL: srv.URL}).Forward(context.Background(), in, "upload")
	require.NoError(t, err)

	assert.Equal(t, sent, got.body)
	assert.Equal(t, mw.FormDataContentType(), got.header.Get("Content-Type"))
}

func TestForward_RawTextBody(t *testing.T) {
	srv, got := captureServer(t, func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("pong"))
	})

	in := httptest.NewRequest(http.MethodPut, "/api/proxy/ping", strings.NewReader("ping"))
	in.Header.Set("Content-Type", "text/plain")
	resp, err := NewForwarder(ForwarderConfig{BaseURL: srv.URL}).Forward(context.Background(), in, "ping")
	require.NoError(t, err)

	assert.Equal(t, "ping", string(got.body))
	assert.Equal(t, "pong", string(resp.Body))
}

func TestForward_MalformedJSONResponseFallsBackToRaw(t *testing.T) {
	srv, _ := captureServer(t, func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>oops</html>"))
	})

	in := httptest.NewRequest(http.MethodGet, "/api/proxy/x", nil)
	resp, err := NewForwarder(ForwarderConfig{BaseURL: srv.URL}).Forward(context.Background(), in, "x")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "<html>oops</html>", string(resp.Body))
}

func TestForward_SetCookieValuesAllRelayed(t *testing.T) {
	srv, _ := captureServer(t, func(w http.ResponseWriter) {
		w.Header().Add("Set-Cookie", "a=1; Path=/")
		w.Header().Add("Set-Cookie", "b=2; Path=/")
		w.WriteHeader(http.StatusNoContent)
	})

	in := httptest.NewRequest(http.MethodDelete, "/api/proxy/session", nil)
	resp, err := NewForwarder(ForwarderConfig{BaseURL: srv.URL}).Forward(context.Background(), in, "session")
	require.NoError(t, err)
	assert.Equal(t, []string{"a=1; Path=/", "b=2; Path=/"}, resp.Header.Values("Set-Cookie"))
}

func TestForward_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	in := httptest.NewRequest(http.MethodPost, "/api/proxy/slow", strings.NewReader(`{}`))
	_, err := NewForwarder(ForwarderConfig{BaseURL: srv.URL, Timeout: 20 * time.Millisecond}).Forward(context.Background(), in, "slow")
	assert.True(t, errors.Is(err, domain.ErrBackendTimeout), "got %v", err)
}

func TestForward_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	in := httptest.NewRequest(http.MethodGet, "/api/proxy/x", nil)
	_, err := NewForwarder(ForwarderConfig{BaseURL: base}).Forward(context.Background(), in, "x")
	assert.True(t, errors.Is(err, domain.ErrBackendUnavailable), "got %v", err)
}
