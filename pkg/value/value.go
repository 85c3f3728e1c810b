package value

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrFrozen is returned when a frozen composite would be mutated in place.
var ErrFrozen = errors.New("value is frozen")

// Kind identifies the type of a Value. The numeric order of kinds is the
// order used when comparing values of different kinds.
type Kind int

const (
	KindNull Kind = iota
	KindBoolean
	KindNumber
	KindString
	KindArray
	KindObject
	KindSet
)

// String returns the type name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindSet:
		return "set"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a runtime datum held by a local.
type Value interface {
	// Kind returns the value's type.
	Kind() Kind

	// String returns a compact, JSON-like rendering of the value.
	String() string
}

// Null is the null value.
type Null struct{}

// Boolean is a boolean value.
type Boolean bool

// String is a string value.
type String string

// Kind implements Value.
func (Null) Kind() Kind { return KindNull }

// String implements Value.
func (Null) String() string { return "null" }

// Kind implements Value.
func (Boolean) Kind() Kind { return KindBoolean }

// String implements Value.
func (b Boolean) String() string { return strconv.FormatBool(bool(b)) }

// Kind implements Value.
func (String) Kind() Kind { return KindString }

// String implements Value.
func (s String) String() string { return strconv.Quote(string(s)) }

// Bool returns a Boolean for b.
func Bool(b bool) Boolean { return Boolean(b) }

// Str returns a String for s.
func Str(s string) String { return String(s) }

// TypeName returns the name of v's type, or "undefined" for a nil value.
func TypeName(v Value) string {
	if v == nil {
		return "undefined"
	}
	return v.Kind().String()
}

// IsComposite reports whether v is an array, object or set.
func IsComposite(v Value) bool {
	if v == nil {
		return false
	}
	switch v.Kind() {
	case KindArray, KindObject, KindSet:
		return true
	}
	return false
}

// IsFrozen reports whether v may be shared without copying. Scalars are
// always frozen.
func IsFrozen(v Value) bool {
	switch x := v.(type) {
	case *Array:
		return x.frozen
	case *Object:
		return x.frozen
	case *Set:
		return x.frozen
	default:
		return true
	}
}

// Freeze marks v and everything reachable from it as frozen and returns v.
// Freeze must not race with other goroutines using v; callers freeze values
// before sharing them.
func Freeze(v Value) Value {
	switch x := v.(type) {
	case *Array:
		if x.frozen {
			return v
		}
		x.frozen = true
		for _, e := range x.elems {
			Freeze(e)
		}
	case *Object:
		if x.frozen {
			return v
		}
		x.frozen = true
		for i := range x.keys {
			Freeze(x.keys[i])
			Freeze(x.values[i])
		}
	case *Set:
		if x.frozen {
			return v
		}
		x.frozen = true
		for _, e := range x.elems {
			Freeze(e)
		}
	}
	return v
}

// DeepCopy returns an unfrozen copy of v. Scalars are returned as is.
func DeepCopy(v Value) Value {
	switch x := v.(type) {
	case *Array:
		c := &Array{elems: make([]Value, len(x.elems))}
		for i, e := range x.elems {
			c.elems[i] = DeepCopy(e)
		}
		return c
	case *Object:
		c := &Object{keys: make([]Value, len(x.keys)), values: make([]Value, len(x.values))}
		for i := range x.keys {
			c.keys[i] = DeepCopy(x.keys[i])
			c.values[i] = DeepCopy(x.values[i])
		}
		return c
	case *Set:
		c := &Set{elems: make([]Value, len(x.elems))}
		for i, e := range x.elems {
			c.elems[i] = DeepCopy(e)
		}
		return c
	default:
		return v
	}
}

// Isolate returns v with every unfrozen composite reachable from it replaced
// by a copy, so in-place mutations of the result never reach v. Frozen
// subtrees are shared. seen maps originals to their copies; passing the same
// map for several values keeps composites shared between them shared.
func Isolate(v Value, seen map[Value]Value) Value {
	if IsFrozen(v) {
		return v
	}
	if c, ok := seen[v]; ok {
		return c
	}
	switch x := v.(type) {
	case *Array:
		c := &Array{elems: make([]Value, len(x.elems))}
		seen[v] = c
		for i, e := range x.elems {
			c.elems[i] = Isolate(e, seen)
		}
		return c
	case *Object:
		c := &Object{keys: make([]Value, len(x.keys)), values: make([]Value, len(x.values))}
		seen[v] = c
		for i := range x.keys {
			c.keys[i] = Isolate(x.keys[i], seen)
			c.values[i] = Isolate(x.values[i], seen)
		}
		return c
	case *Set:
		c := &Set{elems: make([]Value, len(x.elems))}
		seen[v] = c
		for i, e := range x.elems {
			c.elems[i] = Isolate(e, seen)
		}
		return c
	}
	return v
}

// Snapshot returns a frozen value equal to v that later in-place mutations
// of v cannot affect.
func Snapshot(v Value) Value {
	if IsFrozen(v) {
		return v
	}
	return Freeze(DeepCopy(v))
}

// ShallowCopy returns an unfrozen copy of a composite whose elements are
// shared with v. Scalars are returned as is.
func ShallowCopy(v Value) Value {
	switch x := v.(type) {
	case *Array:
		return x.Copy()
	case *Object:
		return x.Copy()
	case *Set:
		return x.Copy()
	default:
		return v
	}
}

// Len returns the length of a string (in code points), array, object or set.
// The boolean is false for other kinds.
func Len(v Value) (int, bool) {
	switch x := v.(type) {
	case String:
		return len([]rune(string(x))), true
	case *Array:
		return x.Len(), true
	case *Object:
		return x.Len(), true
	case *Set:
		return x.Len(), true
	default:
		return 0, false
	}
}

func writeList(sb *strings.Builder, open, close string, elems []Value) {
	sb.WriteString(open)
	for i, e := range elems {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(e.String())
	}
	sb.WriteString(close)
}
