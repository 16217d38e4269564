package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTimeout is the hard upper bound on one forwarded call.
const DefaultTimeout = 30 * time.Second

const defaultContentType = "application/json"

var tracer = otel.Tracer("storefront-gateway/upstream")

// Inbound headers copied to the backend request. Content-Type is computed
// separately.
var requestHeaderAllowlist = []string{
	"User-Agent",
	"Accept",
	"Accept-Language",
	"X-Forwarded-For",
	"X-Real-Ip",
}

// Backend response headers copied back to the caller.
var responseHeaderAllowlist = []string{
	"Content-Type",
	"Cache-Control",
	"Etag",
	"Last-Modified",
	"Set-Cookie",
}

// Response is the relayed backend answer.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

// ForwarderConfig configures a Forwarder.
type ForwarderConfig struct {
	BaseURL    string
	CookieName string
	Timeout    time.Duration
	Transport  http.RoundTripper
}

// Forwarder relays one inbound request to the backend API. It keeps no state
// between calls.
type Forwarder struct {
	baseURL    string
	cookieName string
	timeout    time.Duration
	client     *http.Client
}

func NewForwarder(cfg ForwarderConfig) *Forwarder {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Forwarder{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		cookieName: cfg.CookieName,
		timeout:    timeout,
		client: &http.Client{
			Transport: cfg.Transport,
			// Redirects are the caller's business; relay them as-is.
			CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		},
	}
}

// TargetURL joins the backend base URL, the normalised target path and the
// inbound query minus its "path" key.
func TargetURL(baseURL, targetPath string, query url.Values) string {
	target := strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(targetPath, "/")

	rest := url.Values{}
	for k, vs := range query {
		if k == "path" {
			continue
		}
		rest[k] = vs
	}
	if encoded := rest.Encode(); encoded != "" {
		target += "?" + encoded
	}
	return target
}

// Forward sends in to targetPath on the backend. Errors are classified with
// Classify; an error never carries a partial response.
func (f *Forwarder) Forward(ctx context.Context, in *http.Request, targetPath string) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	target := TargetURL(f.baseURL, targetPath, in.URL.Query())
	ctx, span := tracer.Start(ctx, "proxy.forward", trace.WithAttributes(
		attribute.String("http.method", in.Method),
		attribute.String("proxy.target", target),
	))
	defer span.End()

	contentType := in.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultContentType
	}

	body, err := outboundBody(in, contentType)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("read inbound body: %w", err)
	}

	out, err := http.NewRequestWithContext(ctx, in.Method, target, body)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("build outbound request: %w", err)
	}
	for _, h := range requestHeaderAllowlist {
		if v := in.Header.Get(h); v != "" {
			out.Header.Set(h, v)
		}
	}
	out.Header.Set("Content-Type", contentType)

	if token := f.credential(in); token != "" {
		out.Header.Set("Authorization", "Bearer "+token)
		out.Header.Set("Cookie", (&http.Cookie{Name: f.cookieName, Value: token}).String())
	}

	resp, err := f.client.Do(out)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, Classify(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, Classify(err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	relayed := &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     make(http.Header),
		Body:       raw,
	}
	for _, h := range responseHeaderAllowlist {
		for _, v := range resp.Header.Values(h) {
			relayed.Header.Add(h, v)
		}
	}
	if isJSON(resp.Header.Get("Content-Type")) {
		relayed.Body = reserializeJSON(raw)
	}
	return relayed, nil
}

func (f *Forwarder) credential(in *http.Request) string {
	if f.cookieName == "" {
		return ""
	}
	ck, err := in.Cookie(f.cookieName)
	if err != nil {
		return ""
	}
	return ck.Value
}

// outboundBody re-encodes JSON, passes multipart and everything else through
// untouched, and drops the body of GET and HEAD.
func outboundBody(in *http.Request, contentType string) (io.Reader, error) {
	if in.Method == http.MethodGet || in.Method == http.MethodHead || in.Body == nil {
		return nil, nil
	}
	raw, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	if isJSON(contentType) {
		return bytes.NewReader(reserializeJSON(raw)), nil
	}
	return bytes.NewReader(raw), nil
}

// reserializeJSON compacts a valid JSON document and returns anything else
// unchanged, so a malformed body degrades to raw text.
func reserializeJSON(raw []byte) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(contentType, "application/json")
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
