package routing_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/km-arc/go-scopes/framework/routing"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func do(t *testing.T, router *routing.Router, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

// ── HTTP verbs ────────────────────────────────────────────────────────────────

func TestRouter_Get(t *testing.T) {
	r := routing.New(nil)
	r.Get("/hello", okHandler)

	rr := do(t, r, http.MethodGet, "/hello")
	if rr.Code != http.StatusOK {
		t.Errorf("GET /hello: got %d want 200", rr.Code)
	}
}

func TestRouter_Post(t *testing.T) {
	r := routing.New(nil)
	r.Post("/scopes/{name}/resolve", okHandler)

	rr := do(t, r, http.MethodPost, "/scopes/ROOT/resolve")
	if rr.Code != http.StatusOK {
		t.Errorf("POST: got %d want 200", rr.Code)
	}

	rr = do(t, r, http.MethodGet, "/scopes/ROOT/resolve")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET on POST route: got %d want 405", rr.Code)
	}
}

// ── 404 for unregistered routes ──────────────────────────────────────────────

func TestRouter_NotFound(t *testing.T) {
	r := routing.New(nil)
	rr := do(t, r, http.MethodGet, "/not-registered")
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
}

// ── Route params ─────────────────────────────────────────────────────────────

func TestRouter_Param(t *testing.T) {
	r := routing.New(nil)
	r.Get("/scopes/{name}", func(w http.ResponseWriter, req *http.Request) {
		name := chi.URLParam(req, "name")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(name))
	})

	rr := do(t, r, http.MethodGet, "/scopes/B")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d want 200", rr.Code)
	}
	if rr.Body.String() != "B" {
		t.Errorf("got body %q want %q", rr.Body.String(), "B")
	}
}

// ── Prefix / Group / Mount ───────────────────────────────────────────────────

func TestRouter_Prefix(t *testing.T) {
	r := routing.New(nil)
	r.Prefix("/api/v1", func(api *routing.Router) {
		api.Get("/scopes", okHandler)
	})

	rr := do(t, r, http.MethodGet, "/api/v1/scopes")
	if rr.Code != http.StatusOK {
		t.Errorf("GET /api/v1/scopes: got %d want 200", rr.Code)
	}

	// Root must 404
	rr2 := do(t, r, http.MethodGet, "/scopes")
	if rr2.Code != http.StatusNotFound {
		t.Errorf("GET /scopes: expected 404, got %d", rr2.Code)
	}
}

func TestRouter_Group_Middleware(t *testing.T) {
	called := false
	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			next.ServeHTTP(w, r)
		})
	}

	r := routing.New(nil)
	r.Group(func(g *routing.Router) {
		g.Middleware(mw)
		g.Get("/protected", okHandler)
	})

	do(t, r, http.MethodGet, "/protected")
	if !called {
		t.Error("expected middleware to be called")
	}
}

func TestRouter_Mount(t *testing.T) {
	sub := routing.New(nil)
	sub.Get("/health", okHandler)

	r := routing.New(nil)
	r.Mount("/_scopes", sub)

	rr := do(t, r, http.MethodGet, "/_scopes/health")
	if rr.Code != http.StatusOK {
		t.Errorf("GET /_scopes/health: got %d want 200", rr.Code)
	}
}

// ── Request logging ──────────────────────────────────────────────────────────

func TestRouter_RequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Formatter: log.LogfmtFormatter})

	r := routing.New(logger)
	r.Get("/hello", okHandler)
	do(t, r, http.MethodGet, "/hello")

	line := buf.String()
	for _, want := range []string{"msg=request", "method=GET", "path=/hello", "status=200", "request_id="} {
		if !strings.Contains(line, want) {
			t.Errorf("log line %q missing %q", line, want)
		}
	}
}

func TestRouter_Recoverer(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Formatter: log.LogfmtFormatter})

	r := routing.New(logger)
	r.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

	rr := do(t, r, http.MethodGet, "/boom")
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("got %d want 500", rr.Code)
	}
	if !strings.Contains(buf.String(), "level=warn") {
		t.Errorf("expected a warn line for the 500, got %q", buf.String())
	}
}

func TestRouter_NotFoundHandler(t *testing.T) {
	r := routing.New(nil)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("gone"))
	})

	rr := do(t, r, http.MethodGet, "/missing")
	if rr.Code != http.StatusNotFound || rr.Body.String() != "gone" {
		t.Errorf("got %d %q want 404 %q", rr.Code, rr.Body.String(), "gone")
	}
}
