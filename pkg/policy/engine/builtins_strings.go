package engine

import (
	"fmt"
	"strings"

	"mercator-hq/irvm/pkg/value"
)

var stringBuiltins = []*Builtin{
	{Name: "concat", Arity: 2, Func: builtinConcat},
	{Name: "startswith", Arity: 2, Func: stringPredicate(strings.HasPrefix)},
	{Name: "endswith", Arity: 2, Func: stringPredicate(strings.HasSuffix)},
	{Name: "contains", Arity: 2, Func: stringPredicate(strings.Contains)},
	{Name: "lower", Arity: 1, Func: stringMap(strings.ToLower)},
	{Name: "upper", Arity: 1, Func: stringMap(strings.ToUpper)},
	{Name: "trim_space", Arity: 1, Func: stringMap(strings.TrimSpace)},
	{Name: "split", Arity: 2, Func: builtinSplit},
	{Name: "replace", Arity: 3, Func: builtinReplace},
	{Name: "sprintf", Arity: 2, Func: builtinSprintf},
}

func stringPredicate(pred func(s, x string) bool) BuiltinFunc {
	return func(_ BuiltinContext, args []value.Value) (value.Value, bool, error) {
		s, err := stringArg(args, 0)
		if err != nil {
			return nil, false, err
		}
		x, err := stringArg(args, 1)
		if err != nil {
			return nil, false, err
		}
		return value.Bool(pred(s, x)), true, nil
	}
}

func stringMap(fn func(string) string) BuiltinFunc {
	return func(_ BuiltinContext, args []value.Value) (value.Value, bool, error) {
		s, err := stringArg(args, 0)
		if err != nil {
			return nil, false, err
		}
		return value.String(fn(s)), true, nil
	}
}

// builtinConcat joins an array or set of strings with a delimiter.
func builtinConcat(_ BuiltinContext, args []value.Value) (value.Value, bool, error) {
	delim, err := stringArg(args, 0)
	if err != nil {
		return nil, false, err
	}
	elems, err := elements(args, 1)
	if err != nil {
		return nil, false, err
	}
	parts := make([]string, len(elems))
	for i, e := range elems {
		s, ok := e.(value.String)
		if !ok {
			return nil, false, operandError(1, args[1], "collection of strings")
		}
		parts[i] = string(s)
	}
	return value.String(strings.Join(parts, delim)), true, nil
}

func builtinSplit(_ BuiltinContext, args []value.Value) (value.Value, bool, error) {
	s, err := stringArg(args, 0)
	if err != nil {
		return nil, false, err
	}
	delim, err := stringArg(args, 1)
	if err != nil {
		return nil, false, err
	}
	parts := strings.Split(s, delim)
	out := value.MakeArray(len(parts))
	for _, p := range parts {
		out = value.AppendTo(out, value.String(p))
	}
	return out, true, nil
}

func builtinReplace(_ BuiltinContext, args []value.Value) (value.Value, bool, error) {
	var strs [3]string
	for i := range strs {
		s, err := stringArg(args, i)
		if err != nil {
			return nil, false, err
		}
		strs[i] = s
	}
	return value.String(strings.ReplaceAll(strs[0], strs[1], strs[2])), true, nil
}

// builtinSprintf formats an array of values. Integral numbers format as
// int64 so that %d works; other numbers as float64.
func builtinSprintf(_ BuiltinContext, args []value.Value) (value.Value, bool, error) {
	format, err := stringArg(args, 0)
	if err != nil {
		return nil, false, err
	}
	arr, ok := args[1].(*value.Array)
	if !ok {
		return nil, false, operandError(1, args[1], "array")
	}

	fargs := make([]any, 0, arr.Len())
	arr.Iter(func(_ int, v value.Value) bool {
		switch x := v.(type) {
		case value.Number:
			if i, ok := x.Int64(); ok {
				fargs = append(fargs, i)
			} else if f, ok := x.Float64(); ok {
				fargs = append(fargs, f)
			} else {
				fargs = append(fargs, string(x))
			}
		case value.String:
			fargs = append(fargs, string(x))
		case value.Boolean:
			fargs = append(fargs, bool(x))
		default:
			fargs = append(fargs, v.String())
		}
		return false
	})
	return value.String(fmt.Sprintf(format, fargs...)), true, nil
}
