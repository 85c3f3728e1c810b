package engine

import (
	"math/big"
	"sort"

	"mercator-hq/irvm/pkg/value"
)

var compareBuiltins = []*Builtin{
	{Name: "equal", Arity: 2, Func: comparison(func(c int) bool { return c == 0 })},
	{Name: "neq", Arity: 2, Func: comparison(func(c int) bool { return c != 0 })},
	{Name: "lt", Arity: 2, Func: comparison(func(c int) bool { return c < 0 })},
	{Name: "lte", Arity: 2, Func: comparison(func(c int) bool { return c <= 0 })},
	{Name: "gt", Arity: 2, Func: comparison(func(c int) bool { return c > 0 })},
	{Name: "gte", Arity: 2, Func: comparison(func(c int) bool { return c >= 0 })},
}

var aggregateBuiltins = []*Builtin{
	{Name: "count", Arity: 1, Func: builtinCount},
	{Name: "sum", Arity: 1, Func: fold(new(big.Rat), func(acc, r *big.Rat) { acc.Add(acc, r) })},
	{Name: "product", Arity: 1, Func: fold(big.NewRat(1, 1), func(acc, r *big.Rat) { acc.Mul(acc, r) })},
	{Name: "max", Arity: 1, Func: extreme(1)},
	{Name: "min", Arity: 1, Func: extreme(-1)},
	{Name: "sort", Arity: 1, Func: builtinSort},
}

func comparison(pred func(int) bool) BuiltinFunc {
	return func(_ BuiltinContext, args []value.Value) (value.Value, bool, error) {
		return value.Bool(pred(value.Compare(args[0], args[1]))), true, nil
	}
}

func builtinCount(_ BuiltinContext, args []value.Value) (value.Value, bool, error) {
	n, ok := value.Len(args[0])
	if !ok {
		return nil, false, operandError(0, args[0], "array, object, set or string")
	}
	return value.Int(int64(n)), true, nil
}

func fold(init *big.Rat, step func(acc, r *big.Rat)) BuiltinFunc {
	return func(_ BuiltinContext, args []value.Value) (value.Value, bool, error) {
		elems, err := elements(args, 0)
		if err != nil {
			return nil, false, err
		}
		acc := new(big.Rat).Set(init)
		for _, e := range elems {
			n, ok := e.(value.Number)
			if !ok {
				return nil, false, operandError(0, args[0], "collection of numbers")
			}
			r, ok := n.Rat()
			if !ok {
				return nil, false, operandError(0, args[0], "collection of numbers")
			}
			step(acc, r)
		}
		return value.FromRat(acc), true, nil
	}
}

// extreme returns the greatest (sign 1) or least (sign -1) element. An empty
// collection is undefined.
func extreme(sign int) BuiltinFunc {
	return func(_ BuiltinContext, args []value.Value) (value.Value, bool, error) {
		elems, err := elements(args, 0)
		if err != nil {
			return nil, false, err
		}
		if len(elems) == 0 {
			return nil, false, nil
		}
		best := elems[0]
		for _, e := range elems[1:] {
			if value.Compare(e, best)*sign > 0 {
				best = e
			}
		}
		return best, true, nil
	}
}

func builtinSort(_ BuiltinContext, args []value.Value) (value.Value, bool, error) {
	elems, err := elements(args, 0)
	if err != nil {
		return nil, false, err
	}
	sort.SliceStable(elems, func(i, j int) bool { return value.Compare(elems[i], elems[j]) < 0 })
	return value.NewArray(elems...), true, nil
}
