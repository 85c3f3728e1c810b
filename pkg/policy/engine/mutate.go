package engine

import (
	"mercator-hq/irvm/pkg/ir"
	"mercator-hq/irvm/pkg/value"
)

// The mutating statements update the composite bound to a local in place.
// Frozen composites (host documents and result snapshots) are copied first
// and the copy is rebound, so caller-owned trees are never modified.

func (e *evaluation) execArrayAppend(f *frame, s *ir.ArrayAppendStmt) (bool, uint32, error) {
	v, err := e.operand(f, s, s.Value)
	if err != nil {
		return false, 0, err
	}
	if v == nil {
		return undefined, 0, nil
	}

	arr, ok := f.get(s.Array).(*value.Array)
	if !ok {
		return false, 0, e.exception(s, ErrTypeMismatch, "append target is %s, want array", kindOf(f.get(s.Array)))
	}
	f.set(s.Array, value.AppendTo(arr, v))
	return defined, 0, nil
}

func (e *evaluation) execSetAdd(f *frame, s *ir.SetAddStmt) (bool, uint32, error) {
	v, err := e.operand(f, s, s.Value)
	if err != nil {
		return false, 0, err
	}
	if v == nil {
		return undefined, 0, nil
	}

	set, ok := f.get(s.Set).(*value.Set)
	if !ok {
		return false, 0, e.exception(s, ErrTypeMismatch, "add target is %s, want set", kindOf(f.get(s.Set)))
	}
	f.set(s.Set, value.AddTo(set, v))
	return defined, 0, nil
}

func (e *evaluation) execObjectInsert(f *frame, s ir.Stmt, keyOp, valueOp ir.Operand, target ir.Local, once bool) (bool, uint32, error) {
	key, err := e.operand(f, s, keyOp)
	if err != nil {
		return false, 0, err
	}
	v, err := e.operand(f, s, valueOp)
	if err != nil {
		return false, 0, err
	}
	if key == nil || v == nil {
		return undefined, 0, nil
	}

	obj, ok := f.get(target).(*value.Object)
	if !ok {
		return false, 0, e.exception(s, ErrTypeMismatch, "insert target is %s, want object", kindOf(f.get(target)))
	}
	if once {
		if existing, found := obj.Get(key); found {
			if !value.Equal(existing, v) {
				return false, 0, e.exception(s, ErrConflict, "object insert conflict on key %s", key)
			}
			return defined, 0, nil
		}
	}
	f.set(target, value.InsertInto(obj, key, v))
	return defined, 0, nil
}

func (e *evaluation) execObjectMerge(f *frame, s *ir.ObjectMergeStmt) (bool, uint32, error) {
	a, b := f.get(s.A), f.get(s.B)

	for _, v := range []value.Value{a, b} {
		if v != nil && v.Kind() != value.KindObject {
			return false, 0, e.exception(s, ErrTypeMismatch, "merge operand is %s, want object", kindOf(v))
		}
	}

	switch {
	case a == nil && b == nil:
		f.reset(s.Target)
		return undefined, 0, nil
	case a == nil:
		f.set(s.Target, b)
	case b == nil:
		f.set(s.Target, a)
	default:
		f.set(s.Target, a.(*value.Object).Merge(b.(*value.Object)))
	}
	return defined, 0, nil
}

func kindOf(v value.Value) string {
	if v == nil {
		return "undefined"
	}
	return v.Kind().String()
}
