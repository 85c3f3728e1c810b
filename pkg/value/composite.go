package value

import (
	"sort"
	"strings"
)

// Array is an ordered sequence of values.
type Array struct {
	elems  []Value
	frozen bool
}

// NewArray returns an unfrozen array holding elems.
func NewArray(elems ...Value) *Array {
	return &Array{elems: append([]Value(nil), elems...)}
}

// MakeArray returns an empty, unfrozen array with the given capacity.
func MakeArray(capacity int) *Array {
	if capacity < 0 {
		capacity = 0
	}
	return &Array{elems: make([]Value, 0, capacity)}
}

// Kind implements Value.
func (a *Array) Kind() Kind { return KindArray }

// String implements Value.
func (a *Array) String() string {
	var sb strings.Builder
	writeList(&sb, "[", "]", a.elems)
	return sb.String()
}

// Len returns the number of elements.
func (a *Array) Len() int { return len(a.elems) }

// Elem returns the i-th element.
func (a *Array) Elem(i int) Value { return a.elems[i] }

// Get returns the element at index key, which must be an integral number.
func (a *Array) Get(key Value) (Value, bool) {
	n, ok := key.(Number)
	if !ok {
		return nil, false
	}
	i, ok := n.Int()
	if !ok || i < 0 || i >= len(a.elems) {
		return nil, false
	}
	return a.elems[i], true
}

// Elems returns a copy of the elements.
func (a *Array) Elems() []Value { return append([]Value(nil), a.elems...) }

// Append adds v to the end of the array.
func (a *Array) Append(v Value) error {
	if a.frozen {
		return ErrFrozen
	}
	a.elems = append(a.elems, v)
	return nil
}

// Iter calls fn for every element in index order until fn returns true.
func (a *Array) Iter(fn func(i int, v Value) bool) {
	for i, e := range a.elems {
		if fn(i, e) {
			return
		}
	}
}

// Copy returns an unfrozen shallow copy.
func (a *Array) Copy() *Array {
	return &Array{elems: append(make([]Value, 0, cap(a.elems)), a.elems...)}
}

// Object is a mapping from unique keys to values. Entries are kept in key
// order.
type Object struct {
	keys   []Value
	values []Value
	frozen bool
}

// Item is a key/value pair used to build objects.
type Item struct {
	Key   Value
	Value Value
}

// NewObject returns an unfrozen object holding items. Later items overwrite
// earlier ones with an equal key.
func NewObject(items ...Item) *Object {
	o := &Object{}
	for _, it := range items {
		o.put(it.Key, it.Value)
	}
	return o
}

// Kind implements Value.
func (o *Object) Kind() Kind { return KindObject }

// String implements Value.
func (o *Object) String() string {
	var sb strings.Builder
	sb.WriteString("{")
	for i := range o.keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(o.keys[i].String())
		sb.WriteString(": ")
		sb.WriteString(o.values[i].String())
	}
	sb.WriteString("}")
	return sb.String()
}

// Len returns the number of entries.
func (o *Object) Len() int { return len(o.keys) }

func (o *Object) search(key Value) (int, bool) {
	i := sort.Search(len(o.keys), func(i int) bool { return Compare(o.keys[i], key) >= 0 })
	return i, i < len(o.keys) && Compare(o.keys[i], key) == 0
}

// Get returns the value stored under key.
func (o *Object) Get(key Value) (Value, bool) {
	i, ok := o.search(key)
	if !ok {
		return nil, false
	}
	return o.values[i], true
}

// Insert stores value under key, overwriting any existing entry.
func (o *Object) Insert(key, value Value) error {
	if o.frozen {
		return ErrFrozen
	}
	o.put(key, value)
	return nil
}

func (o *Object) put(key, value Value) {
	i, ok := o.search(key)
	if ok {
		o.values[i] = value
		return
	}
	o.keys = append(o.keys, nil)
	o.values = append(o.values, nil)
	copy(o.keys[i+1:], o.keys[i:])
	copy(o.values[i+1:], o.values[i:])
	o.keys[i] = key
	o.values[i] = value
}

// Keys returns the keys in order.
func (o *Object) Keys() []Value { return append([]Value(nil), o.keys...) }

// Iter calls fn for every entry in key order until fn returns true.
func (o *Object) Iter(fn func(k, v Value) bool) {
	for i := range o.keys {
		if fn(o.keys[i], o.values[i]) {
			return
		}
	}
}

// Copy returns an unfrozen shallow copy.
func (o *Object) Copy() *Object {
	return &Object{
		keys:   append([]Value(nil), o.keys...),
		values: append([]Value(nil), o.values...),
	}
}

// Merge returns a new object holding the entries of o and other. When both
// hold an object under the same key the two are merged recursively;
// otherwise the entry of o wins.
func (o *Object) Merge(other *Object) *Object {
	result := o.Copy()
	for i, k := range other.keys {
		v := other.values[i]
		existing, ok := result.Get(k)
		if !ok {
			result.put(k, v)
			continue
		}
		eo, ok1 := existing.(*Object)
		vo, ok2 := v.(*Object)
		if ok1 && ok2 {
			result.put(k, eo.Merge(vo))
		}
	}
	return result
}

// Set is an unordered collection of unique values. Elements are kept in
// sorted order.
type Set struct {
	elems  []Value
	frozen bool
}

// NewSet returns an unfrozen set holding elems.
func NewSet(elems ...Value) *Set {
	s := &Set{}
	for _, e := range elems {
		s.add(e)
	}
	return s
}

// Kind implements Value.
func (s *Set) Kind() Kind { return KindSet }

// String implements Value.
func (s *Set) String() string {
	if len(s.elems) == 0 {
		return "set()"
	}
	var sb strings.Builder
	writeList(&sb, "{", "}", s.elems)
	return sb.String()
}

// Len returns the number of elements.
func (s *Set) Len() int { return len(s.elems) }

func (s *Set) search(v Value) (int, bool) {
	i := sort.Search(len(s.elems), func(i int) bool { return Compare(s.elems[i], v) >= 0 })
	return i, i < len(s.elems) && Compare(s.elems[i], v) == 0
}

// Contains reports whether v is an element.
func (s *Set) Contains(v Value) bool {
	_, ok := s.search(v)
	return ok
}

// Get returns the element equal to v.
func (s *Set) Get(v Value) (Value, bool) {
	i, ok := s.search(v)
	if !ok {
		return nil, false
	}
	return s.elems[i], true
}

// Add inserts v. Adding an element that is already present is a no-op.
func (s *Set) Add(v Value) error {
	if s.frozen {
		return ErrFrozen
	}
	s.add(v)
	return nil
}

func (s *Set) add(v Value) {
	i, ok := s.search(v)
	if ok {
		return
	}
	s.elems = append(s.elems, nil)
	copy(s.elems[i+1:], s.elems[i:])
	s.elems[i] = v
}

// Elems returns the elements in order.
func (s *Set) Elems() []Value { return append([]Value(nil), s.elems...) }

// Iter calls fn for every element in order until fn returns true.
func (s *Set) Iter(fn func(v Value) bool) {
	for _, e := range s.elems {
		if fn(e) {
			return
		}
	}
}

// Copy returns an unfrozen shallow copy.
func (s *Set) Copy() *Set {
	return &Set{elems: append([]Value(nil), s.elems...)}
}

// AppendTo appends v to a and returns the array now holding v. A frozen a is
// left untouched and the append goes to an unfrozen copy.
func AppendTo(a *Array, v Value) *Array {
	if a.frozen {
		a = a.Copy()
	}
	a.elems = append(a.elems, v)
	return a
}

// AddTo adds v to s and returns the set now holding v. A frozen s is left
// untouched and the add goes to an unfrozen copy.
func AddTo(s *Set, v Value) *Set {
	if s.frozen {
		s = s.Copy()
	}
	s.add(v)
	return s
}

// InsertInto stores value under key in o and returns the object now holding
// the entry. A frozen o is left untouched and the insert goes to an unfrozen
// copy.
func InsertInto(o *Object, key, value Value) *Object {
	if o.frozen {
		o = o.Copy()
	}
	o.put(key, value)
	return o
}
