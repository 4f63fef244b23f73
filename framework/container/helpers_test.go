package container_test

import (
	"sync/atomic"

	"github.com/km-arc/go-scopes/framework/container"
)

// componentA needs a field: pointers to distinct zero-size values may be equal.
type componentA struct{ serial int64 }

type componentB struct{ a *componentA }

type componentC struct{ a *componentA }

type componentD struct{ b *componentB }

var (
	keyA = container.KeyOf[*componentA]()
	keyB = container.KeyOf[*componentB]()
	keyC = container.KeyOf[*componentC]()
	keyD = container.KeyOf[*componentD]()
)

// bind declares key in the scope at path.
func bind(path container.Path, key container.Key, f container.Factory, deps ...container.Key) container.Declaration {
	return container.Declaration{
		Path:    path,
		Binding: &container.Binding{Key: key, Factory: f, Dependencies: deps},
	}
}

// scope declares an empty scope at path.
func scope(path ...string) container.Declaration {
	return container.Declaration{Path: path}
}

var serials atomic.Int64

func nextA() *componentA { return &componentA{serial: serials.Add(1)} }

func newA(calls *atomic.Int32) container.Factory {
	return func(_ *container.Resolver) (any, error) {
		if calls != nil {
			calls.Add(1)
		}
		return nextA(), nil
	}
}

func newB(r *container.Resolver) (any, error) {
	a, err := container.Resolve[*componentA](r)
	if err != nil {
		return nil, err
	}
	return &componentB{a: a}, nil
}

func newC(r *container.Resolver) (any, error) {
	a, err := container.Resolve[*componentA](r)
	if err != nil {
		return nil, err
	}
	return &componentC{a: a}, nil
}

func newD(r *container.Resolver) (any, error) {
	b, err := container.Resolve[*componentB](r)
	if err != nil {
		return nil, err
	}
	return &componentD{b: b}, nil
}

// value returns a factory producing v.
func value(v any) container.Factory {
	return func(_ *container.Resolver) (any, error) { return v, nil }
}
