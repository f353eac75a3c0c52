package http_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	gohttp "github.com/km-arc/go-feishu/framework/http"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func newJSONRequest(t *testing.T, body string) *gohttp.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook/event?tenant=acme", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return gohttp.NewRequest(req)
}

// ── Bind JSON ────────────────────────────────────────────────────────────────

func TestRequest_BindJSON(t *testing.T) {
	req := newJSONRequest(t, `{"type":"url_verification","challenge":"abc"}`)

	var body struct {
		Type      string `json:"type"`
		Challenge string `json:"challenge"`
	}
	if err := req.Bind(&body); err != nil {
		t.Fatalf("Bind error: %v", err)
	}
	if body.Challenge != "abc" {
		t.Errorf("Challenge: got %q want %q", body.Challenge, "abc")
	}
}

func TestRequest_BindJSON_EmptyBody(t *testing.T) {
	req := newJSONRequest(t, "")
	var v map[string]any
	if err := req.Bind(&v); err == nil {
		t.Error("expected error for empty body")
	}
}

// ── Input helpers ────────────────────────────────────────────────────────────

func TestRequest_Helpers(t *testing.T) {
	raw := httptest.NewRequest(http.MethodGet, "/hook?tenant=acme", nil)
	raw.Header.Set("Authorization", "Bearer t-123")
	raw.Header.Set("Accept", "application/json")
	req := gohttp.NewRequest(raw)

	if got := req.Query("tenant"); got != "acme" {
		t.Errorf("Query: got %q", got)
	}
	if got := req.Query("missing", "fallback"); got != "fallback" {
		t.Errorf("Query fallback: got %q", got)
	}
	if got := req.BearerToken(); got != "t-123" {
		t.Errorf("BearerToken: got %q", got)
	}
	if !req.IsJSON() {
		t.Error("IsJSON should be true")
	}
	if req.Method() != http.MethodGet || req.Path() != "/hook" {
		t.Errorf("Method/Path: got %s %s", req.Method(), req.Path())
	}
	if req.Raw() != raw {
		t.Error("Raw should return the wrapped request")
	}
}

func TestRequest_BearerToken_Missing(t *testing.T) {
	req := gohttp.NewRequest(httptest.NewRequest(http.MethodGet, "/", nil))
	if got := req.BearerToken(); got != "" {
		t.Errorf("BearerToken: got %q want empty", got)
	}
}

// ── CaptureRequest ───────────────────────────────────────────────────────────

func TestCaptureRequest_NoAmbientRequest(t *testing.T) {
	t.Setenv("REQUEST_METHOD", "")

	req := gohttp.CaptureRequest()
	if req.Method() != http.MethodGet || req.Path() != "/" {
		t.Errorf("got %s %s, want GET /", req.Method(), req.Path())
	}
}

func TestCaptureRequest_FromCGIEnvironment(t *testing.T) {
	t.Setenv("REQUEST_METHOD", "POST")
	t.Setenv("SERVER_PROTOCOL", "HTTP/1.1")
	t.Setenv("REQUEST_URI", "/webhook/event?tenant=acme")
	t.Setenv("HTTP_HOST", "example.com")

	req := gohttp.CaptureRequest()
	if req.Method() != http.MethodPost {
		t.Errorf("Method: got %q", req.Method())
	}
	if req.Path() != "/webhook/event" {
		t.Errorf("Path: got %q", req.Path())
	}
	if req.Query("tenant") != "acme" {
		t.Errorf("Query: got %q", req.Query("tenant"))
	}
}
