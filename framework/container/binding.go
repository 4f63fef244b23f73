package container

// Factory builds an instance. The Resolver it receives is bound to the scope
// that declared the binding, so every dependency it asks for is looked up from
// there, whoever triggered the construction.
//
//	func(r *container.Resolver) (any, error) {
//	    db, err := container.Resolve[*sql.DB](r)
//	    if err != nil {
//	        return nil, err
//	    }
//	    return &UserRepository{DB: db}, nil
//	}
type Factory func(r *Resolver) (any, error)

// Binding registers a Factory for a Key.
type Binding struct {
	Key     Key
	Factory Factory

	// Dependencies lists the keys the factory is known to resolve. It is
	// optional and only used for cycle pre-detection and Verify.
	Dependencies []Key

	// Eager bindings are constructed by Tree.Warm.
	Eager bool
}

// Path names a scope by the chain of scope names below ROOT.
// The empty path is ROOT itself.
type Path []string

// Name returns the name of the scope the path points to.
func (p Path) Name() string {
	if len(p) == 0 {
		return RootScope
	}
	return p[len(p)-1]
}

// ParentName returns the name of the scope's parent, ROOT for top-level
// scopes and "" for ROOT itself.
func (p Path) ParentName() string {
	switch len(p) {
	case 0:
		return ""
	case 1:
		return RootScope
	default:
		return p[len(p)-2]
	}
}

// Declaration places a binding in a scope. A nil Binding only declares the
// scope, which is how empty contexts are created.
type Declaration struct {
	Path    Path
	Binding *Binding
}
