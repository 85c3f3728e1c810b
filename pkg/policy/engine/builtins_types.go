package engine

import (
	"mercator-hq/irvm/pkg/value"
)

var typeBuiltins = []*Builtin{
	{Name: "is_number", Arity: 1, Func: isKind(value.KindNumber)},
	{Name: "is_string", Arity: 1, Func: isKind(value.KindString)},
	{Name: "is_boolean", Arity: 1, Func: isKind(value.KindBoolean)},
	{Name: "is_array", Arity: 1, Func: isKind(value.KindArray)},
	{Name: "is_object", Arity: 1, Func: isKind(value.KindObject)},
	{Name: "is_set", Arity: 1, Func: isKind(value.KindSet)},
	{Name: "is_null", Arity: 1, Func: isKind(value.KindNull)},
	{Name: "type_name", Arity: 1, Func: func(_ BuiltinContext, args []value.Value) (value.Value, bool, error) {
		return value.String(value.TypeName(args[0])), true, nil
	}},
}

func isKind(kind value.Kind) BuiltinFunc {
	return func(_ BuiltinContext, args []value.Value) (value.Value, bool, error) {
		return value.Bool(args[0].Kind() == kind), true, nil
	}
}
