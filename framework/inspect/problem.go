package inspect

import (
	"errors"
	"net/http"

	"github.com/km-arc/go-scopes/framework/container"
)

// Problem kinds reported by the inspector.
const (
	KindDependencyResolution = "dependency_resolution"
	KindInstanceCreation     = "instance_creation"
	KindCircularDependency   = "circular_dependency"
	KindUnknownScope         = "unknown_scope"
	KindAmbiguousType        = "ambiguous_type"
	KindWrongType            = "wrong_type"
	KindClosed               = "closed"
	KindError                = "error"
)

// Problem is the JSON form of a container error. Cause is set for instance
// creation failures and classifies the factory's own error.
type Problem struct {
	Kind     string          `json:"kind"`
	Message  string          `json:"message"`
	Key      *container.Key  `json:"key,omitempty"`
	Scope    string          `json:"scope,omitempty"`
	Searched []string        `json:"searched,omitempty"`
	Cycle    []container.Key `json:"cycle,omitempty"`
	Trace    container.Trace `json:"trace,omitempty"`
	Cause    *Problem        `json:"cause,omitempty"`
}

// Classify converts err into a Problem. The outermost container error wins:
// an instance creation failure caused by a missing dependency is reported as
// instance_creation with a dependency_resolution cause.
func Classify(err error) Problem {
	p := Problem{Kind: KindError, Message: err.Error()}

	var (
		creation  *container.InstanceCreationError
		cycle     *container.CircularDependencyError
		notFound  *container.DependencyResolutionError
		unknown   *container.UnknownScopeError
		ambiguous *container.AmbiguousKeyError
		wrongType *container.WrongTypeError
	)
	switch {
	case errors.As(err, &creation):
		p.Kind = KindInstanceCreation
		p.Key = &creation.Key
		p.Scope = creation.Scope
		p.Trace = creation.Trace
		if creation.Cause != nil {
			cause := Classify(creation.Cause)
			p.Cause = &cause
		}
	case errors.As(err, &cycle):
		p.Kind = KindCircularDependency
		p.Scope = cycle.Scope
		p.Cycle = cycle.Cycle
		p.Trace = cycle.Trace
	case errors.As(err, &notFound):
		p.Kind = KindDependencyResolution
		p.Key = &notFound.Key
		p.Scope = notFound.From
		p.Searched = notFound.Searched
		p.Trace = notFound.Trace
	case errors.As(err, &unknown):
		p.Kind = KindUnknownScope
		p.Scope = unknown.Scope
	case errors.As(err, &ambiguous):
		p.Kind = KindAmbiguousType
	case errors.As(err, &wrongType):
		p.Kind = KindWrongType
		p.Key = &wrongType.Key
	case errors.Is(err, container.ErrTreeClosed):
		p.Kind = KindClosed
	}
	return p
}

// Problems flattens an errors.Join result into one Problem per error.
func Problems(err error) []Problem {
	if err == nil {
		return []Problem{}
	}
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return []Problem{Classify(err)}
	}
	out := make([]Problem, 0, len(joined.Unwrap()))
	for _, e := range joined.Unwrap() {
		out = append(out, Classify(e))
	}
	return out
}

// status maps a problem kind to the HTTP status the inspector answers with.
func status(kind string) int {
	switch kind {
	case KindUnknownScope:
		return http.StatusNotFound
	case KindAmbiguousType:
		return http.StatusBadRequest
	case KindClosed:
		return http.StatusServiceUnavailable
	case KindError:
		return http.StatusInternalServerError
	default:
		return http.StatusUnprocessableEntity
	}
}
