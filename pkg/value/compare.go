package value

import "strings"

// Compare returns -1, 0 or 1 when a is less than, equal to or greater than
// b. A nil (undefined) value sorts before everything else.
func Compare(a, b Value) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	ka, kb := a.Kind(), b.Kind()
	if ka != kb {
		if ka < kb {
			return -1
		}
		return 1
	}

	switch x := a.(type) {
	case Null:
		return 0
	case Boolean:
		y := b.(Boolean)
		switch {
		case x == y:
			return 0
		case !bool(x):
			return -1
		}
		return 1
	case Number:
		return compareNumbers(x, b.(Number))
	case String:
		return strings.Compare(string(x), string(b.(String)))
	case *Array:
		return compareSlices(x.elems, b.(*Array).elems)
	case *Object:
		y := b.(*Object)
		n := min(len(x.keys), len(y.keys))
		for i := 0; i < n; i++ {
			if c := Compare(x.keys[i], y.keys[i]); c != 0 {
				return c
			}
			if c := Compare(x.values[i], y.values[i]); c != 0 {
				return c
			}
		}
		return compareLen(len(x.keys), len(y.keys))
	case *Set:
		return compareSlices(x.elems, b.(*Set).elems)
	}
	return 0
}

// Equal reports whether a and b are structurally equal.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case *Array:
		y := b.(*Array)
		if len(x.elems) != len(y.elems) {
			return false
		}
	case *Object:
		if x.Len() != b.(*Object).Len() {
			return false
		}
	case *Set:
		if x.Len() != b.(*Set).Len() {
			return false
		}
	}
	return Compare(a, b) == 0
}

func compareSlices(a, b []Value) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return compareLen(len(a), len(b))
}

func compareLen(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
