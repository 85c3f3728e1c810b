package ir

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Local is a slot in a plan or function frame.
type Local uint32

// Operand is a statement argument: a local, a boolean constant or a string
// pool reference.
type Operand struct {
	Value Val
}

// Val is implemented by Local, Bool and StringIndex.
type Val interface {
	typeHint() string
	String() string
}

// Bool is a boolean constant operand.
type Bool bool

// StringIndex refers to an entry of Static.Strings.
type StringIndex int

func (Local) typeHint() string       { return "local" }
func (Bool) typeHint() string        { return "bool" }
func (StringIndex) typeHint() string { return "string_index" }

func (l Local) String() string        { return "Local<" + strconv.FormatUint(uint64(l), 10) + ">" }
func (b Bool) String() string         { return strconv.FormatBool(bool(b)) }
func (s StringIndex) String() string  { return "String<" + strconv.Itoa(int(s)) + ">" }
func (o Operand) String() string {
	if o.Value == nil {
		return "<nil>"
	}
	return o.Value.String()
}

// LocalOperand is shorthand for an operand referring to l.
func LocalOperand(l Local) Operand { return Operand{Value: l} }

// BoolOperand is shorthand for a boolean constant operand.
func BoolOperand(b bool) Operand { return Operand{Value: Bool(b)} }

// StringOperand is shorthand for a string pool operand.
func StringOperand(i int) Operand { return Operand{Value: StringIndex(i)} }

type rawOperand struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON encodes the operand in its tagged form.
func (o Operand) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return nil, fmt.Errorf("%w: empty operand", ErrDecode)
	}
	v, err := jsonAPI.Marshal(o.Value)
	if err != nil {
		return nil, err
	}
	return jsonAPI.Marshal(rawOperand{Type: o.Value.typeHint(), Value: v})
}

// UnmarshalJSON decodes the tagged form {"type": ..., "value": ...}.
func (o *Operand) UnmarshalJSON(data []byte) error {
	var raw rawOperand
	if err := jsonAPI.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Type {
	case "local":
		var l Local
		if err := jsonAPI.Unmarshal(raw.Value, &l); err != nil {
			return fmt.Errorf("%w: local operand: %v", ErrDecode, err)
		}
		o.Value = l
	case "bool":
		var b bool
		if err := jsonAPI.Unmarshal(raw.Value, &b); err != nil {
			return fmt.Errorf("%w: bool operand: %v", ErrDecode, err)
		}
		o.Value = Bool(b)
	case "string_index":
		var i int
		if err := jsonAPI.Unmarshal(raw.Value, &i); err != nil {
			return fmt.Errorf("%w: string_index operand: %v", ErrDecode, err)
		}
		o.Value = StringIndex(i)
	default:
		return fmt.Errorf("%w: unknown operand type %q", ErrDecode, raw.Type)
	}
	return nil
}
