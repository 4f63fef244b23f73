package container

import "sync"

// RootScope is the reserved name of the tree's root scope.
const RootScope = "ROOT"

// scopeID indexes a ScopeNode in the tree's arena.
type scopeID int

const noScope scopeID = -1

// ScopeNode is one scope of the tree: the bindings declared directly in it and
// the instances built from them. Parent and children are arena indices.
type ScopeNode struct {
	tree     *Tree
	id       scopeID
	name     string
	parent   scopeID
	children []scopeID

	// written only during Build
	bindings map[Key]*Binding
	keys     []Key

	mu        sync.Mutex
	instances map[Key]any
	created   []Key
	pending   map[Key]*construction
}

// construction is an in-flight factory call for one (scope, key) slot.
// done is closed once the outcome is recorded in the scope.
type construction struct {
	scope scopeID
	key   Key
	done  chan struct{}
}

func (b *construction) finished() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}

func newScopeNode(t *Tree, id scopeID, name string, parent scopeID) *ScopeNode {
	return &ScopeNode{
		tree:      t,
		id:        id,
		name:      name,
		parent:    parent,
		bindings:  make(map[Key]*Binding),
		instances: make(map[Key]any),
		pending:   make(map[Key]*construction),
	}
}

// Name returns the scope's name.
func (n *ScopeNode) Name() string { return n.name }

// Parent returns the parent scope, or nil for ROOT.
func (n *ScopeNode) Parent() *ScopeNode {
	if n.parent == noScope {
		return nil
	}
	return n.tree.nodes[n.parent]
}

// Children returns the direct child scopes in declaration order.
func (n *ScopeNode) Children() []*ScopeNode {
	out := make([]*ScopeNode, len(n.children))
	for i, id := range n.children {
		out[i] = n.tree.nodes[id]
	}
	return out
}

// Keys returns the keys bound directly in this scope, in declaration order.
func (n *ScopeNode) Keys() []Key {
	return append([]Key(nil), n.keys...)
}

// Has reports whether key is bound directly in this scope.
func (n *ScopeNode) Has(key Key) bool {
	_, ok := n.bindings[key]
	return ok
}

// Cached reports whether an instance for key has been built in this scope.
func (n *ScopeNode) Cached(key Key) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := n.instances[key]
	return ok
}

// ancestry returns the names from n up to ROOT.
func (n *ScopeNode) ancestry() []string {
	var names []string
	for cur := n; cur != nil; cur = cur.Parent() {
		names = append(names, cur.name)
	}
	return names
}
