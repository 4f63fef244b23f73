package container

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidDeclaration is wrapped by Build for malformed declarations:
	// empty or reserved scope names, zero keys and nil factories.
	ErrInvalidDeclaration = errors.New("container: invalid declaration")

	// ErrNilInstance is the cause of an InstanceCreationError when a factory
	// returns (nil, nil).
	ErrNilInstance = errors.New("container: factory returned a nil instance")

	// ErrTreeClosed is returned by every resolution after Tree.Close.
	ErrTreeClosed = errors.New("container: tree is closed")
)

// ── Traces ────────────────────────────────────────────────────────────────────

// Frame is one construction in progress: the key being built and the scope
// that declared it.
type Frame struct {
	Scope string `json:"scope"`
	Key   Key    `json:"key"`
}

func (f Frame) String() string { return f.Key.String() + "@" + f.Scope }

// Trace is the chain of constructions in progress when an error happened,
// outermost first.
type Trace []Frame

func (t Trace) String() string {
	parts := make([]string, len(t))
	for i, f := range t {
		parts[i] = f.String()
	}
	return strings.Join(parts, " -> ")
}

// ── Declaration errors ───────────────────────────────────────────────────────

// ScopeConflictError is returned by Build when a scope name is declared under
// two different parents.
type ScopeConflictError struct {
	Scope       string
	Parent      string
	Conflicting string
}

func (e *ScopeConflictError) Error() string {
	return fmt.Sprintf("container: scope %q already declared under %q, cannot redeclare it under %q",
		e.Scope, e.Parent, e.Conflicting)
}

// DuplicateBindingError is returned by Build when a key is bound twice in the
// same scope.
type DuplicateBindingError struct {
	Scope string
	Key   Key
}

func (e *DuplicateBindingError) Error() string {
	return fmt.Sprintf("container: duplicate binding for [%s] in scope %q", e.Key, e.Scope)
}

// UnknownScopeError is returned when a scope is looked up by a name that was
// never declared.
type UnknownScopeError struct {
	Scope string
}

func (e *UnknownScopeError) Error() string {
	return fmt.Sprintf("container: unknown scope %q", e.Scope)
}

// ── Resolution errors ────────────────────────────────────────────────────────

// DependencyResolutionError means no binding for Key exists on the ancestor
// path of the scope the lookup started from.
type DependencyResolutionError struct {
	Key      Key
	From     string
	Searched []string
	Trace    Trace
}

func (e *DependencyResolutionError) Error() string {
	msg := fmt.Sprintf("container: no binding for [%s] visible from scope %q (searched %s)",
		e.Key, e.From, strings.Join(e.Searched, " -> "))
	if len(e.Trace) > 0 {
		msg += " while building " + e.Trace.String()
	}
	return msg
}

// InstanceCreationError means a binding was found but its factory failed.
// Cause is frequently a *DependencyResolutionError raised by one of the
// factory's own dependencies.
type InstanceCreationError struct {
	Key   Key
	Scope string
	Cause error
	Trace Trace
}

func (e *InstanceCreationError) Error() string {
	return fmt.Sprintf("container: could not create [%s] in scope %q: %v", e.Key, e.Scope, e.Cause)
}

func (e *InstanceCreationError) Unwrap() error { return e.Cause }

// CircularDependencyError means building Key required Key again. Cycle lists
// the keys from the first construction of the repeated key back to itself.
type CircularDependencyError struct {
	Scope string
	Cycle []Key
	Trace Trace
}

func (e *CircularDependencyError) Error() string {
	parts := make([]string, len(e.Cycle))
	for i, k := range e.Cycle {
		parts[i] = k.String()
	}
	return fmt.Sprintf("container: circular dependency in scope %q: %s", e.Scope, strings.Join(parts, " -> "))
}

// WrongTypeError is returned by the generic helpers when the resolved
// instance does not have the requested type.
type WrongTypeError struct {
	Key  Key
	Want string
	Got  string
}

func (e *WrongTypeError) Error() string {
	return fmt.Sprintf("container: [%s] resolved to %s, want %s", e.Key, e.Got, e.Want)
}

// PanicError carries a value recovered from a panicking factory.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string { return fmt.Sprintf("container: factory panicked: %v", e.Value) }

// Unwrap exposes the panic value when it is an error, so a factory calling
// MustResolve keeps the original resolution failure in its cause chain.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
