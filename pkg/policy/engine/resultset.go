package engine

import (
	"mercator-hq/irvm/pkg/value"
)

// ResultSet is the ordered list of values produced by ResultSetAddStmt. One
// entry is added per successful execution path; duplicates are kept.
type ResultSet []value.Value

// Len returns the number of entries.
func (rs ResultSet) Len() int { return len(rs) }

// Empty reports whether the plan produced no results.
func (rs ResultSet) Empty() bool { return len(rs) == 0 }

// Equal reports whether rs and other hold equal entries in the same order.
func (rs ResultSet) Equal(other ResultSet) bool {
	if len(rs) != len(other) {
		return false
	}
	for i := range rs {
		if !value.Equal(rs[i], other[i]) {
			return false
		}
	}
	return true
}

// Array returns the entries as an array value.
func (rs ResultSet) Array() *value.Array {
	return value.NewArray(rs...)
}

// ToInterface converts the entries to plain Go values.
func (rs ResultSet) ToInterface() []any {
	out := make([]any, len(rs))
	for i, v := range rs {
		out[i] = value.ToInterface(v)
	}
	return out
}

// MarshalJSON encodes the result set as a JSON array.
func (rs ResultSet) MarshalJSON() ([]byte, error) {
	return value.MarshalJSON(rs.Array())
}
