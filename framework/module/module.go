// Package module is the declaration phase of the container: modules describe
// nested contexts and their bindings, and a Registry turns them into a
// container.Tree.
package module

import (
	"errors"
	"reflect"
	"slices"

	"github.com/km-arc/go-scopes/framework/container"
)

// ── Module interface ──────────────────────────────────────────────────────────

// Module declares bindings and nested contexts.
//
//	var App = module.ModuleFunc(func(ctx *module.Context) {
//	    module.Provide(ctx, NewComponentA)
//	    ctx.Context("B", func(b *module.Context) {
//	        module.Provide(b, NewComponentB, module.DependsOn(container.KeyOf[*ComponentA]()))
//	    })
//	})
type Module interface {
	// Declare adds the module's bindings to ctx, which starts at ROOT.
	Declare(ctx *Context)
}

// ModuleFunc adapts a plain function to Module.
type ModuleFunc func(ctx *Context)

func (f ModuleFunc) Declare(ctx *Context) { f(ctx) }

// ── Context ───────────────────────────────────────────────────────────────────

// Context collects the declarations of one scope while a module declares it.
type Context struct {
	path  container.Path
	decls *[]container.Declaration
}

// Name returns the scope name, ROOT for the top-level context.
func (c *Context) Name() string { return c.path.Name() }

// Path returns the scope path below ROOT.
func (c *Context) Path() container.Path { return slices.Clone(c.path) }

// Context declares a child scope and runs fn against it. The scope exists
// even if fn binds nothing.
func (c *Context) Context(name string, fn func(c *Context)) {
	child := &Context{path: append(c.Path(), name), decls: c.decls}
	*c.decls = append(*c.decls, container.Declaration{Path: child.Path()})
	if fn != nil {
		fn(child)
	}
}

// Bind registers an untyped factory for key in this scope.
func (c *Context) Bind(key container.Key, f container.Factory, opts ...Option) {
	b := &container.Binding{Key: key, Factory: f}
	for _, opt := range opts {
		opt(b)
	}
	*c.decls = append(*c.decls, container.Declaration{Path: c.Path(), Binding: b})
}

// Provide binds T to a typed factory in ctx's scope.
//
//	module.Provide(ctx, func(r *container.Resolver) (*ComponentB, error) {
//	    a, err := container.Resolve[*ComponentA](r)
//	    if err != nil {
//	        return nil, err
//	    }
//	    return &ComponentB{A: a}, nil
//	})
func Provide[T any](ctx *Context, f func(r *container.Resolver) (T, error), opts ...Option) {
	var factory container.Factory
	if f != nil {
		factory = func(r *container.Resolver) (any, error) {
			v, err := f(r)
			if err != nil {
				return nil, err
			}
			if isNil(v) {
				return nil, nil
			}
			return v, nil
		}
	}
	ctx.Bind(container.KeyOf[T](), factory, opts...)
}

// Instance binds a pre-built value of type T in ctx's scope.
//
//	// Laravel: $app->instance(Config::class, $config)
//	module.Instance(ctx, cfg)
func Instance[T any](ctx *Context, v T, opts ...Option) {
	Provide(ctx, func(*container.Resolver) (T, error) { return v, nil }, opts...)
}

// isNil reports whether v is nil or a nil pointer, map, slice, chan, func or
// interface, so typed nils are reported as container.ErrNilInstance.
func isNil(v any) bool {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return true
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// ── Options ───────────────────────────────────────────────────────────────────

// Option adjusts a binding as it is declared.
type Option func(b *container.Binding)

// Named qualifies the binding's key.
//
//	module.Provide(ctx, openPrimary, module.Named("primary"))
//	db, err := container.Resolve[*sql.DB](r, "primary")
func Named(qualifier string) Option {
	return func(b *container.Binding) { b.Key.Qualifier = qualifier }
}

// DependsOn declares the keys the factory resolves, enabling cycle detection
// before construction and container.Tree.Verify.
func DependsOn(keys ...container.Key) Option {
	return func(b *container.Binding) { b.Dependencies = append(b.Dependencies, keys...) }
}

// Eager marks the binding to be built by container.Tree.Warm.
func Eager() Option {
	return func(b *container.Binding) { b.Eager = true }
}

// ── Registry ──────────────────────────────────────────────────────────────────

// ErrAlreadyBuilt is returned when modules are registered after Build.
var ErrAlreadyBuilt = errors.New("module: registry already built")

// Registry collects modules and builds the scope tree from their declarations.
type Registry struct {
	modules []Module
	seen    map[Module]bool
	tree    *container.Tree
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{seen: make(map[Module]bool)}
}

// Register adds modules in order. Registering the same comparable module
// value twice is a no-op.
func (r *Registry) Register(modules ...Module) error {
	if r.tree != nil {
		return ErrAlreadyBuilt
	}
	for _, m := range modules {
		if m == nil {
			continue
		}
		if reflect.TypeOf(m).Comparable() {
			if r.seen[m] {
				continue
			}
			r.seen[m] = true
		}
		r.modules = append(r.modules, m)
	}
	return nil
}

// Modules returns the registered modules in registration order.
func (r *Registry) Modules() []Module { return slices.Clone(r.modules) }

// Declarations runs every module against a fresh ROOT context and returns
// the collected declarations in order.
func (r *Registry) Declarations() []container.Declaration {
	var decls []container.Declaration
	for _, m := range r.modules {
		m.Declare(&Context{decls: &decls})
	}
	return decls
}

// Build builds the scope tree once. Later calls return the same tree.
func (r *Registry) Build(opts ...container.Option) (*container.Tree, error) {
	if r.tree != nil {
		return r.tree, nil
	}
	tree, err := container.Build(r.Declarations(), opts...)
	if err != nil {
		return nil, err
	}
	r.tree = tree
	return tree, nil
}

// Built returns true once Build has succeeded.
func (r *Registry) Built() bool { return r.tree != nil }

// Tree returns the built tree, or nil before Build.
func (r *Registry) Tree() *container.Tree { return r.tree }
