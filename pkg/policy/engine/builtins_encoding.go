package engine

import (
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"mercator-hq/irvm/pkg/value"
)

var encodingBuiltins = []*Builtin{
	{Name: "json.marshal", Arity: 1, Func: builtinJSONMarshal},
	{Name: "json.unmarshal", Arity: 1, Func: builtinJSONUnmarshal},
	{Name: "yaml.marshal", Arity: 1, Func: builtinYAMLMarshal},
	{Name: "yaml.unmarshal", Arity: 1, Func: builtinYAMLUnmarshal},
	{Name: "uuid.parse", Arity: 1, Func: builtinUUIDParse},
}

func builtinJSONMarshal(_ BuiltinContext, args []value.Value) (value.Value, bool, error) {
	b, err := value.MarshalJSON(args[0])
	if err != nil {
		return nil, false, err
	}
	return value.String(b), true, nil
}

func builtinJSONUnmarshal(_ BuiltinContext, args []value.Value) (value.Value, bool, error) {
	s, err := stringArg(args, 0)
	if err != nil {
		return nil, false, err
	}
	v, err := value.ParseJSON([]byte(s))
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func builtinYAMLMarshal(_ BuiltinContext, args []value.Value) (value.Value, bool, error) {
	b, err := yaml.Marshal(value.ToInterface(args[0]))
	if err != nil {
		return nil, false, fmt.Errorf("yaml marshal: %w", err)
	}
	return value.String(b), true, nil
}

func builtinYAMLUnmarshal(_ BuiltinContext, args []value.Value) (value.Value, bool, error) {
	s, err := stringArg(args, 0)
	if err != nil {
		return nil, false, err
	}
	var doc any
	if err := yaml.Unmarshal([]byte(s), &doc); err != nil {
		return nil, false, fmt.Errorf("yaml unmarshal: %w", err)
	}
	v, err := value.FromInterface(doc)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// builtinUUIDParse describes a UUID string. Strings that are not UUIDs are
// undefined rather than errors.
func builtinUUIDParse(_ BuiltinContext, args []value.Value) (value.Value, bool, error) {
	s, err := stringArg(args, 0)
	if err != nil {
		return nil, false, err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, false, nil
	}
	return value.NewObject(
		value.Item{Key: value.String("version"), Value: value.Int(int64(id.Version()))},
		value.Item{Key: value.String("variant"), Value: value.String(id.Variant().String())},
		value.Item{Key: value.String("canonical"), Value: value.String(id.String())},
	), true, nil
}
