package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cgi"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Request wraps an incoming *http.Request, such as an event callback.
type Request struct {
	raw *http.Request
}

// NewRequest wraps a standard *http.Request.
func NewRequest(r *http.Request) *Request {
	return &Request{raw: r}
}

// CaptureRequest snapshots the request the process is serving. Under CGI it
// is rebuilt from the environment; otherwise an empty GET / is returned.
func CaptureRequest() *Request {
	if os.Getenv("REQUEST_METHOD") != "" {
		if r, err := cgi.Request(); err == nil {
			return NewRequest(r)
		}
	}
	r, _ := http.NewRequest(http.MethodGet, "/", nil)
	return NewRequest(r)
}

// Raw returns the underlying *http.Request.
func (req *Request) Raw() *http.Request { return req.raw }

// ── Binding ──────────────────────────────────────────────────────────────────

// Body reads the whole request body. It can be called once.
func (req *Request) Body() ([]byte, error) {
	if req.raw.Body == nil {
		return nil, errors.New("empty request body")
	}
	defer req.raw.Body.Close()
	return io.ReadAll(req.raw.Body)
}

// Bind decodes a JSON body into v.
func (req *Request) Bind(v any) error {
	body, err := req.Body()
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return errors.New("empty request body")
	}
	return json.Unmarshal(body, v)
}

// ── Input helpers ────────────────────────────────────────────────────────────

// Query returns a query-string value.
func (req *Request) Query(key string, fallback ...string) string {
	v := req.raw.URL.Query().Get(key)
	if v == "" && len(fallback) > 0 {
		return fallback[0]
	}
	return v
}

// RouteParam returns a URL route parameter (chi).
func (req *Request) RouteParam(key string) string {
	return chi.URLParam(req.raw, key)
}

// Header returns a request header value.
func (req *Request) Header(key string) string {
	return req.raw.Header.Get(key)
}

// BearerToken extracts the token from Authorization: Bearer <token>.
func (req *Request) BearerToken() string {
	auth := req.raw.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// IP returns the client IP (respects the RealIP middleware).
func (req *Request) IP() string {
	return req.raw.RemoteAddr
}

// Method returns the HTTP method.
func (req *Request) Method() string { return req.raw.Method }

// Path returns the URL path.
func (req *Request) Path() string { return req.raw.URL.Path }

// ContentType returns the Content-Type header value.
func (req *Request) ContentType() string {
	return req.raw.Header.Get("Content-Type")
}

// IsJSON returns true when the request carries or expects JSON.
func (req *Request) IsJSON() bool {
	return strings.Contains(req.raw.Header.Get("Accept"), "application/json") ||
		strings.Contains(req.ContentType(), "application/json")
}
