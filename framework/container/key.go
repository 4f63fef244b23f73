package container

import "reflect"

// Key identifies a requested component: a stable type identifier plus an
// optional qualifier for named bindings. Keys are compared by value.
type Key struct {
	Type      string `json:"type"`
	Qualifier string `json:"qualifier,omitempty"`
}

// KeyOf returns the key for T.
//
//	key := container.KeyOf[*UserRepository]()   // "*example.com/app.UserRepository"
func KeyOf[T any]() Key {
	return Key{Type: typeName(reflect.TypeFor[T]())}
}

// NamedKey returns the key for T qualified by name.
//
//	primary := container.NamedKey[*sql.DB]("primary")
func NamedKey[T any](qualifier string) Key {
	return Key{Type: typeName(reflect.TypeFor[T]()), Qualifier: qualifier}
}

// TypeName returns the package-qualified type identifier of v, the same
// identifier KeyOf produces for v's static type.
func TypeName(v any) string {
	return typeName(reflect.TypeOf(v))
}

// IsZero reports whether k has no type identifier.
func (k Key) IsZero() bool { return k.Type == "" }

func (k Key) String() string {
	if k.Qualifier == "" {
		return k.Type
	}
	return k.Type + "(" + k.Qualifier + ")"
}

func typeName(t reflect.Type) string {
	switch {
	case t == nil:
		return "<nil>"
	case t.Kind() == reflect.Pointer:
		return "*" + typeName(t.Elem())
	case t.Name() != "" && t.PkgPath() != "":
		return t.PkgPath() + "." + t.Name()
	default:
		return t.String()
	}
}
