package engine

import (
	"errors"
	"math/big"

	"mercator-hq/irvm/pkg/value"
)

var errDivideByZero = errors.New("divide by zero")

var numberBuiltins = []*Builtin{
	{Name: "plus", Arity: 2, Func: arith(func(z, a, b *big.Rat) error { z.Add(a, b); return nil })},
	{Name: "minus", Arity: 2, Func: builtinMinus},
	{Name: "mul", Arity: 2, Func: arith(func(z, a, b *big.Rat) error { z.Mul(a, b); return nil })},
	{Name: "div", Arity: 2, Func: arith(func(z, a, b *big.Rat) error {
		if b.Sign() == 0 {
			return errDivideByZero
		}
		z.Quo(a, b)
		return nil
	})},
	{Name: "rem", Arity: 2, Func: builtinRem},
	{Name: "abs", Arity: 1, Func: rounding(func(r *big.Rat) *big.Rat { return new(big.Rat).Abs(r) })},
	{Name: "round", Arity: 1, Func: rounding(roundRat)},
	{Name: "ceil", Arity: 1, Func: rounding(ceilRat)},
	{Name: "floor", Arity: 1, Func: rounding(floorRat)},
}

func rats(args []value.Value) ([]*big.Rat, error) {
	out := make([]*big.Rat, len(args))
	for i := range args {
		n, err := numberArg(args, i)
		if err != nil {
			return nil, err
		}
		r, ok := n.Rat()
		if !ok {
			return nil, operandError(i, args[i], "number")
		}
		out[i] = r
	}
	return out, nil
}

func arith(op func(z, a, b *big.Rat) error) BuiltinFunc {
	return func(_ BuiltinContext, args []value.Value) (value.Value, bool, error) {
		rs, err := rats(args)
		if err != nil {
			return nil, false, err
		}
		z := new(big.Rat)
		if err := op(z, rs[0], rs[1]); err != nil {
			return nil, false, err
		}
		return value.FromRat(z), true, nil
	}
}

// builtinMinus subtracts numbers or computes the difference of two sets.
func builtinMinus(bctx BuiltinContext, args []value.Value) (value.Value, bool, error) {
	if a, ok := args[0].(*value.Set); ok {
		b, ok := args[1].(*value.Set)
		if !ok {
			return nil, false, operandError(1, args[1], "set")
		}
		out := value.NewSet()
		a.Iter(func(v value.Value) bool {
			if !b.Contains(v) {
				out = value.AddTo(out, v)
			}
			return false
		})
		return out, true, nil
	}
	return arith(func(z, a, b *big.Rat) error { z.Sub(a, b); return nil })(bctx, args)
}

func builtinRem(_ BuiltinContext, args []value.Value) (value.Value, bool, error) {
	rs, err := rats(args)
	if err != nil {
		return nil, false, err
	}
	for i, r := range rs {
		if !r.IsInt() {
			return nil, false, operandError(i, args[i], "integer")
		}
	}
	if rs[1].Sign() == 0 {
		return nil, false, errDivideByZero
	}
	z := new(big.Int).Rem(rs[0].Num(), rs[1].Num())
	return value.Number(z.String()), true, nil
}

func rounding(op func(*big.Rat) *big.Rat) BuiltinFunc {
	return func(_ BuiltinContext, args []value.Value) (value.Value, bool, error) {
		rs, err := rats(args)
		if err != nil {
			return nil, false, err
		}
		return value.FromRat(op(rs[0])), true, nil
	}
}

// floorRat relies on big.Int.Div being Euclidean and denominators being
// positive.
func floorRat(r *big.Rat) *big.Rat {
	q := new(big.Int).Div(r.Num(), r.Denom())
	return new(big.Rat).SetInt(q)
}

func ceilRat(r *big.Rat) *big.Rat {
	neg := new(big.Rat).Neg(r)
	return new(big.Rat).Neg(floorRat(neg))
}

// roundRat rounds half away from zero.
func roundRat(r *big.Rat) *big.Rat {
	half := big.NewRat(1, 2)
	if r.Sign() >= 0 {
		return floorRat(new(big.Rat).Add(r, half))
	}
	neg := new(big.Rat).Neg(r)
	return new(big.Rat).Neg(floorRat(neg.Add(neg, half)))
}
