package container

import (
	"errors"
	"io"
	"reflect"
	"slices"
)

// ── Resolution chain ──────────────────────────────────────────────────────────

// chain is the list of constructions in progress for one resolution,
// innermost first. Nodes are immutable so a factory may hand its Resolver to
// other goroutines.
type chain struct {
	parent *chain
	build  *construction
}

func (c *chain) push(b *construction) *chain {
	return &chain{parent: c, build: b}
}

// find returns the unfinished chain node building (scope, key), or nil.
// Frames outlive their construction when a factory keeps its Resolver, so
// finished ones are skipped.
func (c *chain) find(scope scopeID, key Key) *chain {
	for cur := c; cur != nil; cur = cur.parent {
		if cur.build.scope == scope && cur.build.key == key && !cur.build.finished() {
			return cur
		}
	}
	return nil
}

func (c *chain) has(b *construction) bool {
	for cur := c; cur != nil; cur = cur.parent {
		if cur.build == b && !b.finished() {
			return true
		}
	}
	return false
}

// keysSince returns the keys from the construction at stop down to c,
// outermost first.
func (c *chain) keysSince(stop *chain) []Key {
	var keys []Key
	for cur := c; cur != nil; cur = cur.parent {
		if cur != stop && cur.build.finished() {
			continue
		}
		keys = append(keys, cur.build.key)
		if cur == stop {
			break
		}
	}
	slices.Reverse(keys)
	return keys
}

func (t *Tree) trace(c *chain) Trace {
	var out Trace
	for cur := c; cur != nil; cur = cur.parent {
		if cur.build.finished() {
			continue
		}
		out = append(out, Frame{Scope: t.nodes[cur.build.scope].name, Key: cur.build.key})
	}
	slices.Reverse(out)
	return out
}

// waiter is a resolution blocked on a construction owned by another goroutine.
type waiter struct {
	chain *chain
	on    *construction
}

// ── Resolver ──────────────────────────────────────────────────────────────────

// Resolver is the handle a Factory receives. It resolves from the scope that
// declared the binding under construction and carries the chain used for
// cycle detection.
type Resolver struct {
	tree  *Tree
	scope scopeID
	chain *chain
}

// Get resolves key starting from the resolver's scope.
func (r *Resolver) Get(key Key) (any, error) {
	return r.tree.resolve(key, r.scope, r.chain)
}

// Scope returns the name of the scope the resolver looks up from.
func (r *Resolver) Scope() string { return r.tree.nodes[r.scope].name }

// Tree returns the tree the resolver belongs to.
func (r *Resolver) Tree() *Tree { return r.tree }

// Trace returns the constructions in progress, outermost first.
func (r *Resolver) Trace() Trace { return r.tree.trace(r.chain) }

// Get resolves key from ROOT.
func (t *Tree) Get(key Key) (any, error) {
	return t.resolve(key, 0, nil)
}

// GetIn resolves key starting from the named scope, for scoped lookups.
func (t *Tree) GetIn(key Key, scope string) (any, error) {
	node, err := t.FindScope(scope)
	if err != nil {
		return nil, err
	}
	return t.resolve(key, node.id, nil)
}

// resolve finds the nearest binding for key at or above start, then returns
// the cached instance of the owning scope or builds it.
func (t *Tree) resolve(key Key, start scopeID, c *chain) (any, error) {
	if t.closed.Load() {
		return nil, ErrTreeClosed
	}
	owner, searched := t.owner(key, start)
	if owner == nil {
		t.logger.Debug("no visible binding", "key", key, "from", t.nodes[start].name)
		return nil, &DependencyResolutionError{
			Key:      key,
			From:     t.nodes[start].name,
			Searched: searched,
			Trace:    t.trace(c),
		}
	}

	for {
		owner.mu.Lock()
		if inst, ok := owner.instances[key]; ok {
			owner.mu.Unlock()
			return inst, nil
		}
		if at := c.find(owner.id, key); at != nil {
			owner.mu.Unlock()
			return nil, &CircularDependencyError{
				Scope: owner.name,
				Cycle: append(c.keysSince(at), key),
				Trace: t.trace(c),
			}
		}
		inflight := owner.pending[key]
		if inflight == nil {
			build := &construction{scope: owner.id, key: key, done: make(chan struct{})}
			owner.pending[key] = build
			owner.mu.Unlock()
			return t.construct(owner, build, c)
		}
		owner.mu.Unlock()

		if err := t.await(inflight, c); err != nil {
			return nil, err
		}
		if t.closed.Load() {
			return nil, ErrTreeClosed
		}
	}
}

// construct runs the factory for build and records the outcome in node.
func (t *Tree) construct(node *ScopeNode, build *construction, parent *chain) (inst any, err error) {
	c := parent.push(build)
	defer func() {
		var orphan any
		node.mu.Lock()
		switch {
		case err != nil:
		case t.closed.Load():
			// Close already emptied this scope, nothing would release inst.
			orphan, inst, err = inst, nil, ErrTreeClosed
		default:
			node.instances[build.key] = inst
			node.created = append(node.created, build.key)
		}
		delete(node.pending, build.key)
		node.mu.Unlock()
		close(build.done)

		if closer, ok := orphan.(io.Closer); ok {
			if cerr := closer.Close(); cerr != nil {
				t.logger.Debug("close after teardown failed", "key", build.key, "scope", node.name, "err", cerr)
			}
		}
	}()

	if cycle := t.declaredCycle(node.id, build.key); cycle != nil {
		return nil, &CircularDependencyError{Scope: node.name, Cycle: cycle, Trace: t.trace(c)}
	}

	t.logger.Debug("constructing", "key", build.key, "scope", node.name)
	inst, err = invoke(node.bindings[build.key], &Resolver{tree: t, scope: node.id, chain: c})
	if err == nil && inst == nil {
		err = ErrNilInstance
	}
	if err != nil {
		t.logger.Debug("construction failed", "key", build.key, "scope", node.name, "err", err)
		var cycle *CircularDependencyError
		if errors.As(err, &cycle) {
			return nil, cycle
		}
		return nil, &InstanceCreationError{Key: build.key, Scope: node.name, Cause: err, Trace: t.trace(c)}
	}
	t.logger.Debug("constructed", "key", build.key, "scope", node.name)
	return inst, nil
}

func invoke(b *Binding, r *Resolver) (inst any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			inst = nil
			err = &PanicError{Value: rec}
		}
	}()
	return b.Factory(r)
}

// await blocks until build finishes. If build is (transitively) waiting on a
// construction in c, waiting would never end and a cycle is reported instead.
func (t *Tree) await(build *construction, c *chain) error {
	w := &waiter{chain: c, on: build}

	t.waitMu.Lock()
	if t.blockedBy(build, c) {
		t.waitMu.Unlock()
		return &CircularDependencyError{
			Scope: t.nodes[build.scope].name,
			Cycle: append(c.keysSince(nil), build.key),
			Trace: t.trace(c),
		}
	}
	t.waits[w] = struct{}{}
	t.waitMu.Unlock()

	<-build.done

	t.waitMu.Lock()
	delete(t.waits, w)
	t.waitMu.Unlock()
	return nil
}

// blockedBy reports whether target cannot finish before a construction in c
// does. Caller holds waitMu.
func (t *Tree) blockedBy(target *construction, c *chain) bool {
	if c == nil {
		return false
	}
	seen := make(map[*construction]bool)
	stack := []*construction{target}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		if c.has(cur) {
			return true
		}
		for w := range t.waits {
			if w.chain.has(cur) {
				stack = append(stack, w.on)
			}
		}
	}
	return false
}

// ── Generic helpers ───────────────────────────────────────────────────────────

// Getter is implemented by *Tree (resolving from ROOT) and *Resolver
// (resolving from a binding's declaring scope).
type Getter interface {
	Get(key Key) (any, error)
}

// Resolve resolves T, optionally qualified, and type-asserts the result.
//
//	// Instead of: raw, err := r.Get(container.KeyOf[*sql.DB]()); db := raw.(*sql.DB)
//	// Write:      db, err := container.Resolve[*sql.DB](r)
func Resolve[T any](g Getter, qualifier ...string) (T, error) {
	key := keyFor[T](qualifier)
	inst, err := g.Get(key)
	if err != nil {
		var zero T
		return zero, err
	}
	return cast[T](key, inst)
}

// ResolveIn resolves T starting from the named scope.
func ResolveIn[T any](t *Tree, scope string, qualifier ...string) (T, error) {
	key := keyFor[T](qualifier)
	inst, err := t.GetIn(key, scope)
	if err != nil {
		var zero T
		return zero, err
	}
	return cast[T](key, inst)
}

// MustResolve is like Resolve but panics on failure. Inside a factory the
// panic is recovered and reported as an *InstanceCreationError whose cause
// chain still holds the original error.
func MustResolve[T any](g Getter, qualifier ...string) T {
	v, err := Resolve[T](g, qualifier...)
	if err != nil {
		panic(err)
	}
	return v
}

func keyFor[T any](qualifier []string) Key {
	if len(qualifier) > 0 && qualifier[0] != "" {
		return NamedKey[T](qualifier[0])
	}
	return KeyOf[T]()
}

func cast[T any](key Key, inst any) (T, error) {
	typed, ok := inst.(T)
	if !ok {
		return typed, &WrongTypeError{Key: key, Want: typeName(reflect.TypeFor[T]()), Got: TypeName(inst)}
	}
	return typed, nil
}
