package statement

import "strings"

// TypeUniverse resolves a simple, qualified or boxed type name to the
// qualified name of a known type.
type TypeUniverse interface {
	ResolveTypeByName(name string) (qualified string, ok bool)
}

// TypeUniverseFunc adapts a function to TypeUniverse.
type TypeUniverseFunc func(name string) (string, bool)

// ResolveTypeByName implements TypeUniverse.
func (f TypeUniverseFunc) ResolveTypeByName(name string) (string, bool) { return f(name) }

// ResultTypeResolver derives the payload type a select statement maps rows to.
type ResultTypeResolver struct {
	universe TypeUniverse
}

// NewResultTypeResolver returns a resolver backed by universe.
// A nil universe resolves nothing.
func NewResultTypeResolver(universe TypeUniverse) *ResultTypeResolver {
	return &ResultTypeResolver{universe: universe}
}

// Resolve returns the result type of method.
// Void and unresolvable names yield false. A primitive resolves to its
// wrapper class. A reference with exactly one type argument is unwrapped to
// that argument (List<User> -> User); any other reference is its own result.
func (r *ResultTypeResolver) Resolve(method MethodSignature) (TypeDescriptor, bool) {
	rt := method.ReturnType
	switch rt.Tag {
	case TagPrimitive:
		boxed, ok := boxedNames[rt.Name]
		if !ok {
			return TypeDescriptor{}, false
		}
		return r.lookup(Reference(boxed))
	case TagReference:
		target := rt
		if len(rt.Args) == 1 {
			target = rt.Args[0]
		}
		if target.Tag == TagPrimitive {
			boxed, ok := boxedNames[target.Name]
			if !ok {
				return TypeDescriptor{}, false
			}
			target = Reference(boxed)
		}
		if target.Tag != TagReference {
			return TypeDescriptor{}, false
		}
		return r.lookup(target)
	}
	return TypeDescriptor{}, false
}

func (r *ResultTypeResolver) lookup(t TypeDescriptor) (TypeDescriptor, bool) {
	if r.universe == nil || t.Name == "" || strings.HasSuffix(t.Name, "[]") {
		return TypeDescriptor{}, false
	}
	qualified, ok := r.universe.ResolveTypeByName(t.Name)
	if !ok || qualified == "" {
		return TypeDescriptor{}, false
	}
	return Reference(qualified, t.Args...), true
}
