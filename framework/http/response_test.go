package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	gohttp "github.com/km-arc/go-scopes/framework/http"
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
	res.JSON(http.StatusOK, map[string]any{"key": "val"})

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q want application/json", ct)
	}
	m := decodeJSON(t, rr)
	if m["key"] != "val" {
		t.Errorf("body key: got %v want val", m["key"])
	}
}

func TestResponse_Success(t *testing.T) {
	res, rr := newResponse(t)
	res.Success(map[string]any{"scopes": float64(3)})

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d want 200", rr.Code)
	}
	m := decodeJSON(t, rr)
	data, ok := m["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data envelope, got %T", m["data"])
	}
	if data["scopes"] != float64(3) {
		t.Errorf("data.scopes: got %v want 3", data["scopes"])
	}
}

// ── Error helpers ─────────────────────────────────────────────────────────────

func TestResponse_Fail(t *testing.T) {
	res, rr := newResponse(t)
	res.Fail(http.StatusUnprocessableEntity, "could not create", map[string]any{"kind": "instance_creation"})

	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("status: got %d want 422", rr.Code)
	}
	m := decodeJSON(t, rr)
	if m["message"] != "could not create" {
		t.Errorf("message: got %v", m["message"])
	}
	details, ok := m["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error object, got %T", m["error"])
	}
	if details["kind"] != "instance_creation" {
		t.Errorf("error.kind: got %v", details["kind"])
	}
}

func TestResponse_DefaultMessages(t *testing.T) {
	tests := []struct {
		name   string
		send   func(*gohttp.Response)
		status int
		msg    string
	}{
		{"bad request", func(r *gohttp.Response) { r.BadRequest() }, http.StatusBadRequest, "Bad Request."},
		{"not found", func(r *gohttp.Response) { r.NotFound() }, http.StatusNotFound, "Not found."},
		{"custom message", func(r *gohttp.Response) { r.NotFound(`scope "X" not found`) }, http.StatusNotFound, `scope "X" not found`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, rr := newResponse(t)
			tt.send(res)

			if rr.Code != tt.status {
				t.Errorf("status: got %d want %d", rr.Code, tt.status)
			}
			m := decodeJSON(t, rr)
			if m["message"] != tt.msg {
				t.Errorf("message: got %v want %q", m["message"], tt.msg)
			}
		})
	}
}
