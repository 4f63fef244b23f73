package container

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ── Introspection ─────────────────────────────────────────────────────────────
//
// Everything here is read-only: nothing triggers a construction.

// ScopeCount returns the number of scopes, ROOT included.
func (t *Tree) ScopeCount() int { return len(t.nodes) }

// BindingCount returns the number of bindings across all scopes.
func (t *Tree) BindingCount() int {
	n := 0
	for _, node := range t.nodes {
		n += len(node.bindings)
	}
	return n
}

// ScopeOf returns the name of the scope whose binding for key is visible from
// the scope called from.
func (t *Tree) ScopeOf(key Key, from string) (string, error) {
	start, err := t.FindScope(from)
	if err != nil {
		return "", err
	}
	owner, searched := t.owner(key, start.id)
	if owner == nil {
		return "", &DependencyResolutionError{Key: key, From: from, Searched: searched}
	}
	return owner.name, nil
}

// ParentOf returns the name of the scope's parent. ROOT has no parent and
// yields "".
func (t *Tree) ParentOf(scope string) (string, error) {
	node, err := t.FindScope(scope)
	if err != nil {
		return "", err
	}
	if p := node.Parent(); p != nil {
		return p.name, nil
	}
	return "", nil
}

// ── Snapshot ──────────────────────────────────────────────────────────────────

// BindingInfo describes one binding in a Snapshot.
type BindingInfo struct {
	Key          Key   `json:"key"`
	Dependencies []Key `json:"dependencies,omitempty"`
	Eager        bool  `json:"eager,omitempty"`
	Cached       bool  `json:"cached"`
}

// ScopeInfo describes one scope in a Snapshot.
type ScopeInfo struct {
	Name     string        `json:"name"`
	Parent   string        `json:"parent,omitempty"`
	Children []string      `json:"children,omitempty"`
	Bindings []BindingInfo `json:"bindings"`
}

// Snapshot is a serialisable copy of the tree's shape, in arena order
// (every scope appears after its parent).
type Snapshot struct {
	Scopes   []ScopeInfo `json:"scopes"`
	Bindings int         `json:"bindings"`
}

// Snapshot captures the current shape of the tree and which instances are
// cached.
func (t *Tree) Snapshot() Snapshot {
	snap := Snapshot{Scopes: make([]ScopeInfo, 0, len(t.nodes)), Bindings: t.BindingCount()}
	for _, node := range t.nodes {
		snap.Scopes = append(snap.Scopes, node.info())
	}
	return snap
}

// Describe returns the snapshot entry of a single scope.
func (t *Tree) Describe(scope string) (ScopeInfo, error) {
	node, err := t.FindScope(scope)
	if err != nil {
		return ScopeInfo{}, err
	}
	return node.info(), nil
}

func (n *ScopeNode) info() ScopeInfo {
	info := ScopeInfo{Name: n.name, Bindings: make([]BindingInfo, 0, len(n.keys))}
	if p := n.Parent(); p != nil {
		info.Parent = p.name
	}
	for _, child := range n.Children() {
		info.Children = append(info.Children, child.name)
	}
	for _, key := range n.keys {
		b := n.bindings[key]
		info.Bindings = append(info.Bindings, BindingInfo{
			Key:          key,
			Dependencies: slices.Clone(b.Dependencies),
			Eager:        b.Eager,
			Cached:       n.Cached(key),
		})
	}
	return info
}

// ── Verification ──────────────────────────────────────────────────────────────

// Verify checks declared dependencies without building anything: each must
// be visible from the scope that declares the binding, and they must not form
// a cycle. Bindings that declare no dependencies are not checked. All problems
// are joined into the returned error.
func (t *Tree) Verify() error {
	var errs []error
	reported := make(map[Frame]bool)
	for _, node := range t.nodes {
		for _, key := range node.keys {
			frame := Frame{Scope: node.name, Key: key}
			for _, dep := range node.bindings[key].Dependencies {
				if owner, searched := t.owner(dep, node.id); owner == nil {
					errs = append(errs, &DependencyResolutionError{
						Key:      dep,
						From:     node.name,
						Searched: searched,
						Trace:    Trace{frame},
					})
				}
			}
			if reported[frame] {
				continue
			}
			if cycle := t.declaredCycle(node.id, key); cycle != nil {
				errs = append(errs, &CircularDependencyError{Scope: node.name, Cycle: cycle})
				for _, k := range cycle {
					if owner, _ := t.owner(k, node.id); owner != nil {
						reported[Frame{Scope: owner.name, Key: k}] = true
					}
				}
			}
		}
	}
	return errors.Join(errs...)
}

// slot is a (scope, key) pair in the declared dependency graph.
type slot struct {
	scope scopeID
	key   Key
}

// declaredCycle follows declared dependencies from (scope, key), resolving
// each one from the scope of the binding that declares it, and returns the
// keys of a path leading back to (scope, key), or nil.
func (t *Tree) declaredCycle(scope scopeID, key Key) []Key {
	start := slot{scope: scope, key: key}
	visited := make(map[slot]bool)
	var path []Key

	var walk func(s slot) bool
	walk = func(s slot) bool {
		path = append(path, s.key)
		for _, dep := range t.nodes[s.scope].bindings[s.key].Dependencies {
			owner, _ := t.owner(dep, s.scope)
			if owner == nil {
				continue
			}
			next := slot{scope: owner.id, key: dep}
			if next == start {
				path = append(path, dep)
				return true
			}
			if visited[next] {
				continue
			}
			visited[next] = true
			if walk(next) {
				return true
			}
		}
		path = path[:len(path)-1]
		return false
	}

	if walk(start) {
		return path
	}
	return nil
}

// ── Key lookup ────────────────────────────────────────────────────────────────

// AmbiguousKeyError is returned by FindKey when a short type name matches
// bindings of more than one type.
type AmbiguousKeyError struct {
	Name    string
	Matches []Key
}

func (e *AmbiguousKeyError) Error() string {
	parts := make([]string, len(e.Matches))
	for i, k := range e.Matches {
		parts[i] = k.String()
	}
	return fmt.Sprintf("container: type %q is ambiguous: %s", e.Name, strings.Join(parts, ", "))
}

// FindKey maps a type name typed by a person to a bound key. name may be
// the full identifier KeyOf produces, the package-relative form
// ("*stack.ComponentA") or the bare type name ("ComponentA"). When nothing
// is bound under name the literal key is returned, so resolving it reports
// a DependencyResolutionError.
func (t *Tree) FindKey(name, qualifier string) (Key, error) {
	var matches []Key
	seen := make(map[Key]bool)
	for _, node := range t.nodes {
		for _, key := range node.keys {
			if key.Qualifier != qualifier || seen[key] {
				continue
			}
			if key.Type == name {
				return key, nil
			}
			if shortType(key.Type) == name || bareType(key.Type) == name {
				seen[key] = true
				matches = append(matches, key)
			}
		}
	}
	switch len(matches) {
	case 0:
		return Key{Type: name, Qualifier: qualifier}, nil
	case 1:
		return matches[0], nil
	default:
		return Key{}, &AmbiguousKeyError{Name: name, Matches: matches}
	}
}

// shortType drops the import path: "*example.com/app/stack.A" -> "*stack.A".
func shortType(typ string) string {
	stars := len(typ) - len(strings.TrimLeft(typ, "*"))
	rest := typ[stars:]
	if i := strings.LastIndex(rest, "/"); i >= 0 {
		rest = rest[i+1:]
	}
	return typ[:stars] + rest
}

// bareType drops pointers and the package: "*example.com/app/stack.A" -> "A".
func bareType(typ string) string {
	rest := shortType(strings.TrimLeft(typ, "*"))
	if i := strings.LastIndex(rest, "."); i >= 0 {
		rest = rest[i+1:]
	}
	return rest
}
