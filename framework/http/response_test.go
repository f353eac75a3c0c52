package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	gohttp "github.com/km-arc/go-feishu/framework/http"
	"github.com/km-arc/go-feishu/framework/http/validation"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func newResponse(t *testing.T) (*gohttp.Response, *httptest.ResponseRecorder) {
	t.Helper()
	rr := httptest.NewRecorder()
	return gohttp.NewResponse(rr), rr
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&m); err != nil {
		t.Fatalf("decodeJSON: %v", err)
	}
	return m
}

// ── JSON ──────────────────────────────────────────────────────────────────────

func TestResponse_JSON(t *testing.T) {
	res, rr := newResponse(t)
	res.JSON(http.StatusOK, map[string]any{"challenge": "abc"})

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q want application/json", ct)
	}
	if m := decodeJSON(t, rr); m["challenge"] != "abc" {
		t.Errorf("challenge: got %v want abc", m["challenge"])
	}
}

func TestResponse_OK(t *testing.T) {
	res, rr := newResponse(t)
	res.OK()

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d want 200", rr.Code)
	}
	if m := decodeJSON(t, rr); len(m) != 0 {
		t.Errorf("body: got %v want {}", m)
	}
}

func TestResponse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		write  func(*gohttp.Response)
		status int
		msg    string
	}{
		{"error", func(r *gohttp.Response) { r.Error(http.StatusBadRequest, "bad payload") }, http.StatusBadRequest, "bad payload"},
		{"unauthorized default", func(r *gohttp.Response) { r.Unauthorized() }, http.StatusUnauthorized, "Unauthenticated."},
		{"unauthorized custom", func(r *gohttp.Response) { r.Unauthorized("token mismatch") }, http.StatusUnauthorized, "token mismatch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, rr := newResponse(t)
			tt.write(res)
			if rr.Code != tt.status {
				t.Errorf("status: got %d want %d", rr.Code, tt.status)
			}
			if m := decodeJSON(t, rr); m["message"] != tt.msg {
				t.Errorf("message: got %v want %q", m["message"], tt.msg)
			}
		})
	}
}

func TestResponse_NoContent(t *testing.T) {
	res, rr := newResponse(t)
	res.NoContent()
	if rr.Code != http.StatusNoContent {
		t.Errorf("status: got %d want 204", rr.Code)
	}
}

func TestResponse_ValidationError(t *testing.T) {
	v := validation.Make(map[string]string{}, validation.Rules{"event_id": "required"})
	_ = v.Fails()

	res, rr := newResponse(t)
	res.ValidationError(v.Errors())

	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("status: got %d want 422", rr.Code)
	}
	m := decodeJSON(t, rr)
	errs, ok := m["errors"].(map[string]any)
	if !ok || errs["event_id"] == nil {
		t.Errorf("errors bag: got %v", m)
	}
}
