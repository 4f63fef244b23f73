// Package inspect serves a read-mostly JSON view of a scope tree over HTTP.
//
//	GET  /health
//	GET  /scopes
//	GET  /scopes/{name}
//	GET  /scopes/{name}/parent
//	GET  /bindings
//	GET  /lookup?type=&qualifier=&from=
//	GET  /verify
//	POST /scopes/{name}/resolve?type=&qualifier=
//
// Only the resolve endpoint constructs instances. Responses are never cached
// and unknown paths get a JSON 404.
package inspect

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/km-arc/go-scopes/framework/container"
	gohttp "github.com/km-arc/go-scopes/framework/http"
	"github.com/km-arc/go-scopes/framework/routing"
)

// Routes registers the inspector endpoints on r, which must not have routes
// yet.
//
//	router.Prefix("/_scopes", func(r *routing.Router) { inspect.Routes(r, tree) })
func Routes(r *routing.Router, tree *container.Tree) {
	h := &handlers{tree: tree}
	r.Middleware(middleware.NoCache)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		gohttp.NewResponse(w).NotFound()
	})
	r.Get("/health", h.health)
	r.Get("/scopes", h.scopes)
	r.Get("/scopes/{name}", h.scope)
	r.Get("/scopes/{name}/parent", h.parent)
	r.Post("/scopes/{name}/resolve", h.resolve)
	r.Get("/bindings", h.bindings)
	r.Get("/lookup", h.lookup)
	r.Get("/verify", h.verify)
}

// Handler returns a standalone router serving the inspector.
func Handler(tree *container.Tree) http.Handler {
	r := routing.New(nil)
	Routes(r, tree)
	return r
}

type handlers struct {
	tree *container.Tree
}

// ── Read-only endpoints ───────────────────────────────────────────────────────

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	gohttp.NewResponse(w).Success(map[string]any{
		"status":   "ok",
		"scopes":   h.tree.ScopeCount(),
		"bindings": h.tree.BindingCount(),
	})
}

func (h *handlers) scopes(w http.ResponseWriter, _ *http.Request) {
	gohttp.NewResponse(w).Success(h.tree.Snapshot())
}

func (h *handlers) scope(w http.ResponseWriter, r *http.Request) {
	res := gohttp.NewResponse(w)
	info, err := h.tree.Describe(gohttp.NewRequest(r).RouteParam("name"))
	if err != nil {
		fail(res, err)
		return
	}
	res.Success(info)
}

func (h *handlers) parent(w http.ResponseWriter, r *http.Request) {
	res := gohttp.NewResponse(w)
	name := gohttp.NewRequest(r).RouteParam("name")
	parent, err := h.tree.ParentOf(name)
	if err != nil {
		fail(res, err)
		return
	}
	res.Success(map[string]any{"scope": name, "parent": parent})
}

// bindingEntry is one row of GET /bindings.
type bindingEntry struct {
	Scope string `json:"scope"`
	container.BindingInfo
}

func (h *handlers) bindings(w http.ResponseWriter, _ *http.Request) {
	snap := h.tree.Snapshot()
	entries := make([]bindingEntry, 0, snap.Bindings)
	for _, s := range snap.Scopes {
		for _, b := range s.Bindings {
			entries = append(entries, bindingEntry{Scope: s.Name, BindingInfo: b})
		}
	}
	gohttp.NewResponse(w).Success(map[string]any{
		"count":    snap.Bindings,
		"bindings": entries,
	})
}

func (h *handlers) lookup(w http.ResponseWriter, r *http.Request) {
	req := gohttp.NewRequest(r)
	res := gohttp.NewResponse(w)
	if !req.Has("type") {
		res.BadRequest("query parameter 'type' is required")
		return
	}
	key, err := h.tree.FindKey(req.Query("type"), req.Query("qualifier"))
	if err != nil {
		fail(res, err)
		return
	}
	from := req.Query("from", container.RootScope)
	owner, err := h.tree.ScopeOf(key, from)
	if err != nil {
		fail(res, err)
		return
	}
	res.Success(map[string]any{"key": key, "from": from, "scope": owner})
}

func (h *handlers) verify(w http.ResponseWriter, _ *http.Request) {
	problems := Problems(h.tree.Verify())
	gohttp.NewResponse(w).Success(map[string]any{
		"ok":       len(problems) == 0,
		"problems": problems,
	})
}

// ── Resolution ────────────────────────────────────────────────────────────────

// resolveRequest is the optional JSON body of POST /scopes/{name}/resolve.
// Query parameters take precedence.
type resolveRequest struct {
	Type      string `json:"type"`
	Qualifier string `json:"qualifier"`
}

func (h *handlers) resolve(w http.ResponseWriter, r *http.Request) {
	req := gohttp.NewRequest(r)
	res := gohttp.NewResponse(w)

	var body resolveRequest
	if req.IsJSON() {
		if err := req.Bind(&body); err != nil && !errors.Is(err, gohttp.ErrEmptyBody) {
			res.BadRequest("invalid JSON body: " + err.Error())
			return
		}
	}
	typ := req.Query("type", body.Type)
	if typ == "" {
		res.BadRequest("query parameter 'type' is required")
		return
	}

	scope := req.RouteParam("name")
	key, err := h.tree.FindKey(typ, req.Query("qualifier", body.Qualifier))
	if err != nil {
		fail(res, err)
		return
	}
	inst, err := h.tree.GetIn(key, scope)
	if err != nil {
		fail(res, err)
		return
	}
	owner, _ := h.tree.ScopeOf(key, scope)
	res.Success(map[string]any{
		"key":      key,
		"from":     scope,
		"scope":    owner,
		"instance": container.TypeName(inst),
	})
}

func fail(res *gohttp.Response, err error) {
	p := Classify(err)
	res.Fail(status(p.Kind), p.Message, p)
}
