package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"mercator-hq/irvm/pkg/ir"
	"mercator-hq/irvm/pkg/value"
)

// BuiltinContext is passed to every built-in invocation.
type BuiltinContext struct {
	// Context is the evaluation context. Long running built-ins should
	// honour its cancellation.
	Context context.Context

	// Location is the position of the calling statement.
	Location ir.Location
}

// BuiltinFunc implements a built-in. Arguments are always defined. The
// boolean result is false when the call is undefined; a non-nil error aborts
// the evaluation.
type BuiltinFunc func(bctx BuiltinContext, args []value.Value) (value.Value, bool, error)

// Builtin describes a registered built-in function.
type Builtin struct {
	Name string

	// Arity is the number of arguments, or -1 for variadic built-ins.
	Arity int

	Func BuiltinFunc
}

// Builtins is a registry of built-in functions. It is safe for concurrent
// use.
type Builtins struct {
	mu    sync.RWMutex
	funcs map[string]*Builtin
}

// NewBuiltins returns a registry holding the standard built-ins.
func NewBuiltins() *Builtins {
	b := &Builtins{funcs: make(map[string]*Builtin, len(standardBuiltins))}
	for _, fn := range standardBuiltins {
		b.funcs[fn.Name] = fn
	}
	return b
}

// Register adds or replaces a built-in.
func (b *Builtins) Register(fn *Builtin) error {
	if fn == nil || fn.Name == "" {
		return fmt.Errorf("built-in name is required")
	}
	if fn.Func == nil {
		return fmt.Errorf("built-in %s has no implementation", fn.Name)
	}
	if fn.Arity < -1 {
		return fmt.Errorf("built-in %s has invalid arity %d", fn.Name, fn.Arity)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.funcs[fn.Name] = fn
	return nil
}

// Lookup returns the built-in registered under name.
func (b *Builtins) Lookup(name string) (*Builtin, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	fn, ok := b.funcs[name]
	return fn, ok
}

// Names returns the registered names in sorted order.
func (b *Builtins) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.funcs))
	for name := range b.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuiltinNames returns the names of the standard built-ins in sorted order.
func BuiltinNames() []string {
	names := make([]string, 0, len(standardBuiltins))
	for _, fn := range standardBuiltins {
		names = append(names, fn.Name)
	}
	sort.Strings(names)
	return names
}

var standardBuiltins = concatBuiltins(
	numberBuiltins,
	compareBuiltins,
	aggregateBuiltins,
	stringBuiltins,
	collectionBuiltins,
	encodingBuiltins,
	typeBuiltins,
)

func concatBuiltins(groups ...[]*Builtin) []*Builtin {
	var out []*Builtin
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// operandError reports an argument of the wrong type.
func operandError(pos int, got value.Value, want string) error {
	return fmt.Errorf("operand %d must be %s but got %s", pos+1, want, value.TypeName(got))
}

func numberArg(args []value.Value, pos int) (value.Number, error) {
	n, ok := args[pos].(value.Number)
	if !ok {
		return "", operandError(pos, args[pos], "number")
	}
	return n, nil
}

func stringArg(args []value.Value, pos int) (string, error) {
	s, ok := args[pos].(value.String)
	if !ok {
		return "", operandError(pos, args[pos], "string")
	}
	return string(s), nil
}

func intArg(args []value.Value, pos int) (int, error) {
	n, err := numberArg(args, pos)
	if err != nil {
		return 0, err
	}
	i, ok := n.Int()
	if !ok {
		return 0, operandError(pos, args[pos], "integer")
	}
	return i, nil
}

// elements returns the members of an array or set.
func elements(args []value.Value, pos int) ([]value.Value, error) {
	switch x := args[pos].(type) {
	case *value.Array:
		return x.Elems(), nil
	case *value.Set:
		return x.Elems(), nil
	}
	return nil, operandError(pos, args[pos], "array or set")
}
