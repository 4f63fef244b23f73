package container

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// ── Tree ──────────────────────────────────────────────────────────────────────

// Tree is the scope tree: an arena of ScopeNodes rooted at ROOT plus an index
// from scope name to node. It is built once by Build and is read-mostly
// afterwards; only the per-scope instance caches change.
//
// A Tree is an ordinary value owned by whoever built it. There is no global
// registry, so independent trees (one per test, say) never share state.
type Tree struct {
	nodes  []*ScopeNode
	index  map[string]scopeID
	logger *log.Logger

	// waits holds resolutions blocked on another goroutine's construction,
	// used to turn cross-goroutine cycles into errors instead of deadlocks.
	waitMu sync.Mutex
	waits  map[*waiter]struct{}

	closed atomic.Bool
}

// Option configures a Tree at Build time.
type Option func(*Tree)

// WithLogger sets the logger used for resolution events. Events are logged
// at debug level.
func WithLogger(logger *log.Logger) Option {
	return func(t *Tree) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// Build creates the scope tree from an ordered list of declarations.
//
// Scopes are created the first time a path names them. Declaring a scope under
// a second parent fails with *ScopeConflictError, binding a key twice in one
// scope fails with *DuplicateBindingError. On failure no tree is returned.
//
//	tree, err := container.Build([]container.Declaration{
//	    {Binding: &container.Binding{Key: container.KeyOf[*Config](), Factory: newConfig}},
//	    {Path: container.Path{"http"}, Binding: &container.Binding{Key: container.KeyOf[*Server](), Factory: newServer}},
//	})
func Build(decls []Declaration, opts ...Option) (*Tree, error) {
	t := &Tree{
		index:  make(map[string]scopeID),
		logger: log.New(io.Discard),
		waits:  make(map[*waiter]struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.addScope(RootScope, noScope)

	for i, d := range decls {
		node, err := t.declareScope(d.Path)
		if err != nil {
			return nil, err
		}
		if d.Binding == nil {
			continue
		}
		if err := validateBinding(d.Binding); err != nil {
			return nil, fmt.Errorf("declaration %d in scope %q: %w", i, node.name, err)
		}
		if _, dup := node.bindings[d.Binding.Key]; dup {
			return nil, &DuplicateBindingError{Scope: node.name, Key: d.Binding.Key}
		}
		b := *d.Binding
		b.Dependencies = slices.Clone(d.Binding.Dependencies)
		node.bindings[b.Key] = &b
		node.keys = append(node.keys, b.Key)
	}

	t.logger.Debug("scope tree built", "scopes", t.ScopeCount(), "bindings", t.BindingCount())
	return t, nil
}

func (t *Tree) addScope(name string, parent scopeID) *ScopeNode {
	id := scopeID(len(t.nodes))
	node := newScopeNode(t, id, name, parent)
	t.nodes = append(t.nodes, node)
	t.index[name] = id
	if parent != noScope {
		t.nodes[parent].children = append(t.nodes[parent].children, id)
	}
	return node
}

// declareScope walks path from ROOT, creating missing scopes and checking that
// existing ones sit under the same parent.
func (t *Tree) declareScope(path Path) (*ScopeNode, error) {
	parent := t.nodes[0]
	for _, name := range path {
		switch name {
		case "":
			return nil, fmt.Errorf("%w: empty scope name in path %v", ErrInvalidDeclaration, []string(path))
		case RootScope:
			return nil, fmt.Errorf("%w: scope name %q is reserved", ErrInvalidDeclaration, RootScope)
		}
		id, ok := t.index[name]
		if !ok {
			parent = t.addScope(name, parent.id)
			continue
		}
		node := t.nodes[id]
		if node.parent != parent.id {
			return nil, &ScopeConflictError{
				Scope:       name,
				Parent:      t.nodes[node.parent].name,
				Conflicting: parent.name,
			}
		}
		parent = node
	}
	return parent, nil
}

func validateBinding(b *Binding) error {
	if b.Key.IsZero() {
		return fmt.Errorf("%w: binding without a type key", ErrInvalidDeclaration)
	}
	if b.Factory == nil {
		return fmt.Errorf("%w: nil factory for [%s]", ErrInvalidDeclaration, b.Key)
	}
	for _, dep := range b.Dependencies {
		if dep.IsZero() {
			return fmt.Errorf("%w: [%s] declares a dependency without a type key", ErrInvalidDeclaration, b.Key)
		}
	}
	return nil
}

// ── Lookup ────────────────────────────────────────────────────────────────────

// Root returns the ROOT scope.
func (t *Tree) Root() *ScopeNode { return t.nodes[0] }

// FindScope returns the scope called name.
func (t *Tree) FindScope(name string) (*ScopeNode, error) {
	id, ok := t.index[name]
	if !ok {
		return nil, &UnknownScopeError{Scope: name}
	}
	return t.nodes[id], nil
}

// owner returns the nearest scope, starting at start and walking up, that
// binds key, along with the names of the scopes searched.
func (t *Tree) owner(key Key, start scopeID) (*ScopeNode, []string) {
	var searched []string
	for id := start; id != noScope; id = t.nodes[id].parent {
		node := t.nodes[id]
		searched = append(searched, node.name)
		if _, ok := node.bindings[key]; ok {
			return node, searched
		}
	}
	return nil, searched
}

// ── Teardown ──────────────────────────────────────────────────────────────────

// Close releases every cached instance. Instances implementing io.Closer are
// closed, descendant scopes before their ancestors and, within a scope, in
// reverse creation order. Resolutions after Close fail with ErrTreeClosed.
func (t *Tree) Close() error {
	if t.closed.Swap(true) {
		return nil
	}
	var errs []error
	for i := len(t.nodes) - 1; i >= 0; i-- {
		node := t.nodes[i]
		node.mu.Lock()
		created := node.created
		instances := node.instances
		node.created = nil
		node.instances = make(map[Key]any)
		node.mu.Unlock()

		for j := len(created) - 1; j >= 0; j-- {
			closer, ok := instances[created[j]].(io.Closer)
			if !ok {
				continue
			}
			if err := closer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close [%s] in scope %q: %w", created[j], node.name, err))
			}
		}
	}
	t.logger.Debug("scope tree closed", "errors", len(errs))
	return errors.Join(errs...)
}
