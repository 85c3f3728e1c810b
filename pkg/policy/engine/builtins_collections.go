package engine

import (
	"mercator-hq/irvm/pkg/value"
)

var collectionBuiltins = []*Builtin{
	{Name: "internal.member_2", Arity: 2, Func: builtinMember2},
	{Name: "internal.member_3", Arity: 3, Func: builtinMember3},
	{Name: "object.get", Arity: 3, Func: builtinObjectGet},
	{Name: "object.keys", Arity: 1, Func: builtinObjectKeys},
	{Name: "array.concat", Arity: 2, Func: builtinArrayConcat},
	{Name: "array.slice", Arity: 3, Func: builtinArraySlice},
}

// builtinMember2 implements "x in coll": array elements, set members or
// object values.
func builtinMember2(_ BuiltinContext, args []value.Value) (value.Value, bool, error) {
	x := args[0]
	found := false
	switch coll := args[1].(type) {
	case *value.Array:
		coll.Iter(func(_ int, v value.Value) bool {
			found = value.Equal(v, x)
			return found
		})
	case *value.Set:
		found = coll.Contains(x)
	case *value.Object:
		coll.Iter(func(_, v value.Value) bool {
			found = value.Equal(v, x)
			return found
		})
	}
	return value.Bool(found), true, nil
}

// builtinMember3 implements "k, v in coll".
func builtinMember3(_ BuiltinContext, args []value.Value) (value.Value, bool, error) {
	var (
		got value.Value
		ok  bool
	)
	switch coll := args[2].(type) {
	case *value.Array:
		got, ok = coll.Get(args[0])
	case *value.Set:
		got, ok = coll.Get(args[0])
	case *value.Object:
		got, ok = coll.Get(args[0])
	}
	return value.Bool(ok && value.Equal(got, args[1])), true, nil
}

// builtinObjectGet looks up a key or, when the key is an array, a path.
func builtinObjectGet(_ BuiltinContext, args []value.Value) (value.Value, bool, error) {
	obj, ok := args[0].(*value.Object)
	if !ok {
		return nil, false, operandError(0, args[0], "object")
	}

	path := []value.Value{args[1]}
	if arr, ok := args[1].(*value.Array); ok {
		path = arr.Elems()
	}

	var cur value.Value = obj
	for _, key := range path {
		var next value.Value
		found := false
		switch x := cur.(type) {
		case *value.Object:
			next, found = x.Get(key)
		case *value.Array:
			next, found = x.Get(key)
		case *value.Set:
			next, found = x.Get(key)
		}
		if !found {
			return args[2], true, nil
		}
		cur = next
	}
	return cur, true, nil
}

func builtinObjectKeys(_ BuiltinContext, args []value.Value) (value.Value, bool, error) {
	obj, ok := args[0].(*value.Object)
	if !ok {
		return nil, false, operandError(0, args[0], "object")
	}
	return value.NewSet(obj.Keys()...), true, nil
}

func builtinArrayConcat(_ BuiltinContext, args []value.Value) (value.Value, bool, error) {
	a, ok := args[0].(*value.Array)
	if !ok {
		return nil, false, operandError(0, args[0], "array")
	}
	b, ok := args[1].(*value.Array)
	if !ok {
		return nil, false, operandError(1, args[1], "array")
	}
	return value.NewArray(append(a.Elems(), b.Elems()...)...), true, nil
}

// builtinArraySlice returns arr[start:stop] with both bounds clamped to the
// array.
func builtinArraySlice(_ BuiltinContext, args []value.Value) (value.Value, bool, error) {
	arr, ok := args[0].(*value.Array)
	if !ok {
		return nil, false, operandError(0, args[0], "array")
	}
	start, err := intArg(args, 1)
	if err != nil {
		return nil, false, err
	}
	stop, err := intArg(args, 2)
	if err != nil {
		return nil, false, err
	}

	n := arr.Len()
	start = min(max(start, 0), n)
	stop = min(max(stop, start), n)
	return value.NewArray(arr.Elems()[start:stop]...), true, nil
}
