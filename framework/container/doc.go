// Package container provides a hierarchical dependency injection container:
// a tree of named scopes ("contexts") holding factory bindings, with lazy,
// once-per-scope construction of instances.
//
// # Overview
//
// Every tree has a ROOT scope. Other scopes nest under ROOT or under each
// other and each one holds the bindings declared directly in it. A lookup
// walks from the starting scope up through its ancestors and uses the nearest
// binding it finds. Siblings and descendants are never searched.
//
// A binding's own dependencies are resolved from the scope that declared the
// binding, not from the scope of whoever asked for it. A ROOT binding can
// therefore never depend on something bound only in a child scope.
//
// # Lifecycle
//
//  1. Declare: collect []Declaration (usually via the module package)
//  2. Build:   tree, err := container.Build(decls, container.WithLogger(logger))
//  3. Warm:    tree.Warm(ctx)   optional, builds eager bindings
//  4. Resolve: tree.Get / tree.GetIn / container.Resolve[T]
//  5. Close:   tree.Close()     releases cached instances
//
// # Bindings
//
//	container.Declaration{
//	    Path: container.Path{"http"},
//	    Binding: &container.Binding{
//	        Key:          container.KeyOf[*Server](),
//	        Dependencies: []container.Key{container.KeyOf[*Config]()},
//	        Factory: func(r *container.Resolver) (any, error) {
//	            cfg, err := container.Resolve[*Config](r)
//	            if err != nil {
//	                return nil, err
//	            }
//	            return NewServer(cfg), nil
//	        },
//	    },
//	}
//
// # Resolving
//
//	// From ROOT
//	cfg, err := container.Resolve[*Config](tree)
//
//	// From a named scope
//	srv, err := container.ResolveIn[*Server](tree, "http")
//
// # Errors
//
// Build fails with *ScopeConflictError, *DuplicateBindingError or
// ErrInvalidDeclaration. Resolution fails with:
//
//   - *UnknownScopeError          the named scope does not exist
//   - *DependencyResolutionError  no binding on the ancestor path
//   - *InstanceCreationError      a binding was found but its factory failed
//   - *CircularDependencyError    building a key needed the same key again
//
// An *InstanceCreationError keeps its cause, so errors.As finds the
// *DependencyResolutionError of a dependency that was not visible from the
// binding's scope.
package container
