package container_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-scopes/framework/container"
)

//
// -----------------------------------------------------------------------------
// Build
// -----------------------------------------------------------------------------

// TestBuild_Empty verifies an empty declaration list yields a tree holding only ROOT.
func TestBuild_Empty(t *testing.T) {
	t.Parallel()

	tree, err := container.Build(nil)
	require.NoError(t, err)

	assert.Equal(t, 1, tree.ScopeCount())
	assert.Equal(t, 0, tree.BindingCount())
	assert.Equal(t, container.RootScope, tree.Root().Name())
	assert.Nil(t, tree.Root().Parent())
}

// TestBuild_CreatesScopesOnFirstDeclaration verifies nested paths create each scope once, under its parent.
func TestBuild_CreatesScopesOnFirstDeclaration(t *testing.T) {
	t.Parallel()

	tree, err := container.Build([]container.Declaration{
		bind(container.Path{"A", "B"}, keyB, newB),
		bind(container.Path{"A"}, keyA, newA(nil)),
		bind(container.Path{"A", "B", "C"}, keyC, newC),
		scope("D"),
	})
	require.NoError(t, err)

	assert.Equal(t, 5, tree.ScopeCount())
	assert.Equal(t, 3, tree.BindingCount())

	b, err := tree.FindScope("B")
	require.NoError(t, err)
	assert.Equal(t, "A", b.Parent().Name())
	assert.True(t, b.Has(keyB))
	assert.False(t, b.Has(keyA))

	children := tree.Root().Children()
	require.Len(t, children, 2)
	assert.Equal(t, "A", children[0].Name())
	assert.Equal(t, "D", children[1].Name())
}

// TestBuild_SameKeyInDifferentScopes verifies a key may be bound once per scope.
func TestBuild_SameKeyInDifferentScopes(t *testing.T) {
	t.Parallel()

	tree, err := container.Build([]container.Declaration{
		bind(nil, keyA, newA(nil)),
		bind(container.Path{"X"}, keyA, newA(nil)),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, tree.BindingCount())
}

// TestBuild_ScopeConflict verifies redeclaring a scope under another parent fails.
func TestBuild_ScopeConflict(t *testing.T) {
	t.Parallel()

	tree, err := container.Build([]container.Declaration{
		scope("A", "B"),
		scope("C", "B"),
	})
	require.Error(t, err)
	assert.Nil(t, tree)

	var conflict *container.ScopeConflictError
	require.True(t, errors.As(err, &conflict), "got %T: %v", err, err)
	assert.Equal(t, "B", conflict.Scope)
	assert.Equal(t, "A", conflict.Parent)
	assert.Equal(t, "C", conflict.Conflicting)
}

// TestBuild_ScopeConflictWithRootLevel verifies a top-level scope cannot reappear nested.
func TestBuild_ScopeConflictWithRootLevel(t *testing.T) {
	t.Parallel()

	_, err := container.Build([]container.Declaration{
		scope("B"),
		scope("A", "B"),
	})

	var conflict *container.ScopeConflictError
	require.True(t, errors.As(err, &conflict), "got %T: %v", err, err)
	assert.Equal(t, container.RootScope, conflict.Parent)
	assert.Equal(t, "A", conflict.Conflicting)
}

// TestBuild_DuplicateBinding verifies binding the same key twice in one scope fails.
func TestBuild_DuplicateBinding(t *testing.T) {
	t.Parallel()

	tree, err := container.Build([]container.Declaration{
		bind(container.Path{"A"}, keyA, newA(nil)),
		bind(container.Path{"A"}, keyA, newA(nil)),
	})
	assert.Nil(t, tree)

	var dup *container.DuplicateBindingError
	require.True(t, errors.As(err, &dup), "got %T: %v", err, err)
	assert.Equal(t, "A", dup.Scope)
	assert.Equal(t, keyA, dup.Key)
	assert.Contains(t, err.Error(), "duplicate binding")
}

// TestBuild_InvalidDeclarations verifies malformed declarations are rejected.
func TestBuild_InvalidDeclarations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		decl container.Declaration
	}{
		{"empty scope name", scope("A", "")},
		{"reserved root name", scope(container.RootScope)},
		{"nil factory", bind(nil, keyA, nil)},
		{"zero key", bind(nil, container.Key{}, newA(nil))},
		{"zero dependency", bind(nil, keyB, newB, container.Key{})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tree, err := container.Build([]container.Declaration{tt.decl})
			assert.Nil(t, tree)
			assert.ErrorIs(t, err, container.ErrInvalidDeclaration)
		})
	}
}

// TestBuild_CopiesBindings verifies later changes to a declared binding do not leak into the tree.
func TestBuild_CopiesBindings(t *testing.T) {
	t.Parallel()

	deps := []container.Key{keyA}
	b := &container.Binding{Key: keyB, Factory: newB, Dependencies: deps}
	tree, err := container.Build([]container.Declaration{{Binding: b}})
	require.NoError(t, err)

	deps[0] = keyD
	b.Key = keyC

	assert.True(t, tree.Root().Has(keyB))
	info, err := tree.Describe(container.RootScope)
	require.NoError(t, err)
	require.Len(t, info.Bindings, 1)
	assert.Equal(t, []container.Key{keyA}, info.Bindings[0].Dependencies)
}

//
// -----------------------------------------------------------------------------
// FindScope
// -----------------------------------------------------------------------------

// TestFindScope_Unknown verifies an unknown name yields UnknownScopeError.
func TestFindScope_Unknown(t *testing.T) {
	t.Parallel()

	tree, err := container.Build([]container.Declaration{scope("A")})
	require.NoError(t, err)

	node, err := tree.FindScope("nope")
	assert.Nil(t, node)

	var unknown *container.UnknownScopeError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "nope", unknown.Scope)
	assert.Equal(t, `container: unknown scope "nope"`, err.Error())
}

// TestFindScope_Root verifies ROOT is always found by its reserved name.
func TestFindScope_Root(t *testing.T) {
	t.Parallel()

	tree, err := container.Build(nil)
	require.NoError(t, err)

	root, err := tree.FindScope(container.RootScope)
	require.NoError(t, err)
	assert.Same(t, tree.Root(), root)
}

//
// -----------------------------------------------------------------------------
// Close
// -----------------------------------------------------------------------------

type closer struct {
	name  string
	order *[]string
	err   error
}

func (c *closer) Close() error {
	*c.order = append(*c.order, c.name)
	return c.err
}

// TestClose_ReleasesInstances verifies closers run children first, in reverse creation order.
func TestClose_ReleasesInstances(t *testing.T) {
	t.Parallel()

	var order []string
	first := container.NamedKey[*closer]("first")
	second := container.NamedKey[*closer]("second")
	child := container.NamedKey[*closer]("child")

	tree, err := container.Build([]container.Declaration{
		bind(nil, first, value(&closer{name: "first", order: &order})),
		bind(nil, second, value(&closer{name: "second", order: &order})),
		bind(container.Path{"X"}, child, value(&closer{name: "child", order: &order})),
		bind(nil, keyA, newA(nil)),
	})
	require.NoError(t, err)

	for _, k := range []container.Key{first, second, keyA} {
		_, err := tree.Get(k)
		require.NoError(t, err)
	}
	_, err = tree.GetIn(child, "X")
	require.NoError(t, err)

	require.NoError(t, tree.Close())
	assert.Equal(t, []string{"child", "second", "first"}, order)
	assert.False(t, tree.Root().Cached(first))

	_, err = tree.Get(first)
	assert.ErrorIs(t, err, container.ErrTreeClosed)

	assert.NoError(t, tree.Close(), "second Close is a no-op")
	assert.Len(t, order, 3)
}

// TestClose_JoinsErrors verifies every closer runs and failures are reported together.
func TestClose_JoinsErrors(t *testing.T) {
	t.Parallel()

	var order []string
	errOne := errors.New("one failed")
	errTwo := errors.New("two failed")
	one := container.NamedKey[*closer]("one")
	two := container.NamedKey[*closer]("two")

	tree, err := container.Build([]container.Declaration{
		bind(nil, one, value(&closer{name: "one", order: &order, err: errOne})),
		bind(nil, two, value(&closer{name: "two", order: &order, err: errTwo})),
	})
	require.NoError(t, err)
	_, _ = tree.Get(one)
	_, _ = tree.Get(two)

	err = tree.Close()
	assert.ErrorIs(t, err, errOne)
	assert.ErrorIs(t, err, errTwo)
	assert.Len(t, order, 2)
}

// TestClose_DuringConstruction verifies an instance finished after Close is released, not cached.
func TestClose_DuringConstruction(t *testing.T) {
	t.Parallel()

	var order []string
	started := make(chan struct{})
	release := make(chan struct{})
	late := container.NamedKey[*closer]("late")

	tree, err := container.Build([]container.Declaration{
		bind(nil, late, func(_ *container.Resolver) (any, error) {
			close(started)
			<-release
			return &closer{name: "late", order: &order}, nil
		}),
	})
	require.NoError(t, err)

	errs := make(chan error, 1)
	go func() {
		_, err := tree.Get(late)
		errs <- err
	}()
	<-started

	require.NoError(t, tree.Close())
	close(release)

	assert.ErrorIs(t, <-errs, container.ErrTreeClosed)
	assert.Equal(t, []string{"late"}, order)
	assert.False(t, tree.Root().Cached(late))
}
