package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// FromInterface converts a Go document tree (as produced by encoding/json,
// json-iterator or yaml.v3) into a frozen Value.
func FromInterface(x any) (Value, error) {
	v, err := fromInterface(x)
	if err != nil {
		return nil, err
	}
	return Freeze(v), nil
}

// MustFromInterface is like FromInterface but panics on error. It is meant
// for tests and literals.
func MustFromInterface(x any) Value {
	v, err := FromInterface(x)
	if err != nil {
		panic(err)
	}
	return v
}

func fromFloat(f float64) (Value, error) {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, fmt.Errorf("unsupported number %v", f)
	}
	return Float(f), nil
}

func fromInterface(x any) (Value, error) {
	switch x := x.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return x, nil
	case bool:
		return Boolean(x), nil
	case string:
		return String(x), nil
	case json.Number:
		return ParseNumber(string(x))
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint:
		return Number(strconv.FormatUint(uint64(x), 10)), nil
	case uint8:
		return Int(int64(x)), nil
	case uint16:
		return Int(int64(x)), nil
	case uint32:
		return Int(int64(x)), nil
	case uint64:
		return Number(strconv.FormatUint(x, 10)), nil
	case float32:
		return fromFloat(float64(x))
	case float64:
		return fromFloat(x)
	case []any:
		arr := MakeArray(len(x))
		for _, e := range x {
			v, err := fromInterface(e)
			if err != nil {
				return nil, err
			}
			arr.elems = append(arr.elems, v)
		}
		return arr, nil
	case []string:
		arr := MakeArray(len(x))
		for _, e := range x {
			arr.elems = append(arr.elems, String(e))
		}
		return arr, nil
	case map[string]any:
		obj := &Object{}
		for k, e := range x {
			v, err := fromInterface(e)
			if err != nil {
				return nil, err
			}
			obj.put(String(k), v)
		}
		return obj, nil
	case map[string]string:
		obj := &Object{}
		for k, e := range x {
			obj.put(String(k), String(e))
		}
		return obj, nil
	case map[any]any:
		obj := &Object{}
		for k, e := range x {
			kv, err := fromInterface(k)
			if err != nil {
				return nil, err
			}
			v, err := fromInterface(e)
			if err != nil {
				return nil, err
			}
			obj.put(kv, v)
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("cannot convert %T to value", x)
	}
}

// ToInterface converts v into plain Go types suitable for JSON encoding.
// Sets become slices; object keys that are not strings are rendered as JSON
// text.
func ToInterface(v Value) any {
	switch x := v.(type) {
	case nil:
		return nil
	case Null:
		return nil
	case Boolean:
		return bool(x)
	case Number:
		return json.Number(x)
	case String:
		return string(x)
	case *Array:
		out := make([]any, len(x.elems))
		for i, e := range x.elems {
			out[i] = ToInterface(e)
		}
		return out
	case *Set:
		out := make([]any, len(x.elems))
		for i, e := range x.elems {
			out[i] = ToInterface(e)
		}
		return out
	case *Object:
		out := make(map[string]any, len(x.keys))
		for i, k := range x.keys {
			out[keyString(k)] = ToInterface(x.values[i])
		}
		return out
	}
	return nil
}

func keyString(k Value) string {
	if s, ok := k.(String); ok {
		return string(s)
	}
	b, err := MarshalJSON(k)
	if err != nil {
		return k.String()
	}
	return string(b)
}

// ParseJSON decodes a single JSON document into a frozen Value. Numbers keep
// their literal representation.
func ParseJSON(data []byte) (Value, error) {
	return DecodeJSON(bytes.NewReader(data))
}

// DecodeJSON decodes a single JSON document from r into a frozen Value.
func DecodeJSON(r io.Reader) (Value, error) {
	dec := jsonAPI.NewDecoder(r)
	dec.UseNumber()
	var x any
	if err := dec.Decode(&x); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}
	return FromInterface(x)
}

// MarshalJSON encodes v as JSON. Object keys are emitted in sorted order.
func MarshalJSON(v Value) ([]byte, error) {
	var buf bytes.Buffer
	stream := jsonAPI.BorrowStream(&buf)
	defer jsonAPI.ReturnStream(stream)
	writeJSON(stream, v)
	if stream.Error != nil {
		return nil, stream.Error
	}
	if err := stream.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(s *jsoniter.Stream, v Value) {
	switch x := v.(type) {
	case nil, Null:
		s.WriteNil()
	case Boolean:
		s.WriteBool(bool(x))
	case Number:
		s.WriteRaw(string(x))
	case String:
		s.WriteString(string(x))
	case *Array:
		writeJSONList(s, x.elems)
	case *Set:
		writeJSONList(s, x.elems)
	case *Object:
		keys := make([]string, len(x.keys))
		byKey := make(map[string]Value, len(x.keys))
		for i, k := range x.keys {
			keys[i] = keyString(k)
			byKey[keys[i]] = x.values[i]
		}
		sort.Strings(keys)
		s.WriteObjectStart()
		for i, k := range keys {
			if i > 0 {
				s.WriteMore()
			}
			s.WriteObjectField(k)
			writeJSON(s, byKey[k])
		}
		s.WriteObjectEnd()
	}
}

func writeJSONList(s *jsoniter.Stream, elems []Value) {
	s.WriteArrayStart()
	for i, e := range elems {
		if i > 0 {
			s.WriteMore()
		}
		writeJSON(s, e)
	}
	s.WriteArrayEnd()
}
