package engine

import (
	"mercator-hq/irvm/pkg/ir"
	"mercator-hq/irvm/pkg/value"
)

// Values of the stop result for statements that do not break.
const (
	defined   = false
	undefined = true
)

// exec runs a single statement.
func (e *evaluation) exec(f *frame, s ir.Stmt) (bool, uint32, error) {
	switch s := s.(type) {
	case *ir.ArrayAppendStmt:
		return e.execArrayAppend(f, s)
	case *ir.AssignIntStmt:
		f.set(s.Target, value.Int(s.Value))
		return defined, 0, nil
	case *ir.AssignVarOnceStmt:
		return e.execAssignVarOnce(f, s)
	case *ir.AssignVarStmt:
		v, err := e.operand(f, s, s.Source)
		if err != nil {
			return false, 0, err
		}
		f.set(s.Target, v)
		return defined, 0, nil
	case *ir.BlockStmt:
		for _, b := range s.Blocks {
			stop, index, err := e.execBlock(f, b)
			if err != nil || stop {
				return stop, index, err
			}
		}
		return defined, 0, nil
	case *ir.BreakStmt:
		return true, s.Index, nil
	case *ir.CallDynamicStmt:
		return e.execCallDynamic(f, s)
	case *ir.CallStmt:
		return e.execCall(f, s)
	case *ir.DotStmt:
		return e.execDot(f, s)
	case *ir.EqualStmt:
		return e.execEqual(f, s, s.A, s.B)
	case *ir.NotEqualStmt:
		stop, _, err := e.execEqual(f, s, s.A, s.B)
		return !stop, 0, err
	case *ir.IsArrayStmt:
		return e.execIsKind(f, s, s.Source, value.KindArray)
	case *ir.IsObjectStmt:
		return e.execIsKind(f, s, s.Source, value.KindObject)
	case *ir.IsSetStmt:
		return e.execIsKind(f, s, s.Source, value.KindSet)
	case *ir.IsDefinedStmt:
		return f.get(s.Source) == nil, 0, nil
	case *ir.IsUndefinedStmt:
		return f.get(s.Source) != nil, 0, nil
	case *ir.LenStmt:
		return e.execLen(f, s)
	case *ir.MakeArrayStmt:
		f.set(s.Target, value.MakeArray(int(s.Capacity)))
		return defined, 0, nil
	case *ir.MakeNullStmt:
		f.set(s.Target, value.Null{})
		return defined, 0, nil
	case *ir.MakeNumberIntStmt:
		f.set(s.Target, value.Int(s.Value))
		return defined, 0, nil
	case *ir.MakeNumberRefStmt:
		lit, err := e.poolString(s, s.Index)
		if err != nil {
			return false, 0, err
		}
		n, err := value.ParseNumber(lit)
		if err != nil {
			return false, 0, e.exception(s, ErrInvalidProgram, "%v", err)
		}
		f.set(s.Target, n)
		return defined, 0, nil
	case *ir.MakeObjectStmt:
		f.set(s.Target, value.NewObject())
		return defined, 0, nil
	case *ir.MakeSetStmt:
		f.set(s.Target, value.NewSet())
		return defined, 0, nil
	case *ir.NopStmt:
		return defined, 0, nil
	case *ir.NotStmt:
		return e.execNot(f, s)
	case *ir.ObjectInsertOnceStmt:
		return e.execObjectInsert(f, s, s.Key, s.Value, s.Object, true)
	case *ir.ObjectInsertStmt:
		return e.execObjectInsert(f, s, s.Key, s.Value, s.Object, false)
	case *ir.ObjectMergeStmt:
		return e.execObjectMerge(f, s)
	case *ir.ResetLocalStmt:
		f.reset(s.Target)
		return defined, 0, nil
	case *ir.ResultSetAddStmt:
		if v := f.get(s.Value); v != nil {
			e.results = append(e.results, value.Snapshot(v))
		}
		return defined, 0, nil
	case *ir.ReturnLocalStmt:
		f.ret, f.hasRet = s.Source, true
		return defined, 0, nil
	case *ir.ScanStmt:
		return e.execScan(f, s)
	case *ir.SetAddStmt:
		return e.execSetAdd(f, s)
	case *ir.WithStmt:
		return e.execWith(f, s)
	}
	return false, 0, e.exception(s, ErrInvalidProgram, "unsupported statement")
}

func (e *evaluation) execAssignVarOnce(f *frame, s *ir.AssignVarOnceStmt) (bool, uint32, error) {
	v, err := e.operand(f, s, s.Source)
	if err != nil {
		return false, 0, err
	}
	if cur := f.get(s.Target); cur != nil {
		if v == nil || !value.Equal(cur, v) {
			return false, 0, e.exception(s, ErrConflict, "var assignment conflict")
		}
		return defined, 0, nil
	}
	if v == nil {
		return undefined, 0, nil
	}
	f.set(s.Target, v)
	return defined, 0, nil
}

func (e *evaluation) execDot(f *frame, s *ir.DotStmt) (bool, uint32, error) {
	src, err := e.operand(f, s, s.Source)
	if err != nil {
		return false, 0, err
	}
	key, err := e.operand(f, s, s.Key)
	if err != nil {
		return false, 0, err
	}

	var (
		v  value.Value
		ok bool
	)
	if src != nil && key != nil {
		switch x := src.(type) {
		case *value.Object:
			v, ok = x.Get(key)
		case *value.Array:
			v, ok = x.Get(key)
		case *value.Set:
			v, ok = x.Get(key)
		}
	}
	if !ok {
		f.reset(s.Target)
		return undefined, 0, nil
	}
	f.set(s.Target, v)
	return defined, 0, nil
}

func (e *evaluation) execEqual(f *frame, s ir.Stmt, a, b ir.Operand) (bool, uint32, error) {
	va, err := e.operand(f, s, a)
	if err != nil {
		return false, 0, err
	}
	vb, err := e.operand(f, s, b)
	if err != nil {
		return false, 0, err
	}
	// Equal treats two undefined operands as equal and one as unequal.
	return !value.Equal(va, vb), 0, nil
}

func (e *evaluation) execIsKind(f *frame, s ir.Stmt, op ir.Operand, kind value.Kind) (bool, uint32, error) {
	v, err := e.operand(f, s, op)
	if err != nil {
		return false, 0, err
	}
	return v == nil || v.Kind() != kind, 0, nil
}

func (e *evaluation) execLen(f *frame, s *ir.LenStmt) (bool, uint32, error) {
	v, err := e.operand(f, s, s.Source)
	if err != nil {
		return false, 0, err
	}
	n, ok := value.Len(v)
	if !ok {
		return undefined, 0, nil
	}
	f.set(s.Target, value.Int(int64(n)))
	return defined, 0, nil
}

// execNot runs the nested statements as an isolated trial: bindings and
// in-place mutations made inside are discarded.
func (e *evaluation) execNot(f *frame, s *ir.NotStmt) (bool, uint32, error) {
	if s.Block == nil {
		return undefined, 0, nil
	}
	saved := f.snapshot()
	f.isolate()
	stop, index, err := e.execStmts(f, s.Block.Stmts)
	f.restore(saved)
	switch {
	case err != nil:
		return false, 0, err
	case !stop:
		return undefined, 0, nil
	case index == 0:
		return defined, 0, nil
	}
	return true, index - 1, nil
}

func (e *evaluation) execScan(f *frame, s *ir.ScanStmt) (bool, uint32, error) {
	src := f.get(s.Source)
	if n, ok := value.Len(src); !ok || n == 0 || src.Kind() == value.KindString {
		return undefined, 0, nil
	}

	var (
		stop  bool
		index uint32
		err   error
	)
	body := func(k, v value.Value) bool {
		f.set(s.Key, k)
		f.set(s.Value, v)
		stop, index, err = e.execBlock(f, s.Block)
		return err != nil || stop
	}

	switch x := src.(type) {
	case *value.Array:
		x.Iter(func(i int, v value.Value) bool { return body(value.Int(int64(i)), v) })
	case *value.Object:
		x.Iter(body)
	case *value.Set:
		x.Iter(func(v value.Value) bool { return body(v, v) })
	}
	if err != nil || stop {
		return stop, index, err
	}
	return defined, 0, nil
}

// execWith upserts the value into the local along the path, runs the nested
// statements and restores the local on every exit path.
func (e *evaluation) execWith(f *frame, s *ir.WithStmt) (bool, uint32, error) {
	saved := f.get(s.Local)
	defer f.set(s.Local, saved)

	v, err := e.operand(f, s, s.Value)
	if err != nil {
		return false, 0, err
	}
	if v == nil {
		return undefined, 0, nil
	}

	if len(s.Path) == 0 {
		f.set(s.Local, v)
	} else {
		updated, err := e.upsert(s, saved, s.Path, v)
		if err != nil {
			return false, 0, err
		}
		f.set(s.Local, updated)
	}

	if s.Block == nil {
		return defined, 0, nil
	}
	stop, index, err := e.execStmts(f, s.Block.Stmts)
	switch {
	case err != nil:
		return false, 0, err
	case !stop:
		return defined, 0, nil
	case index == 0:
		return undefined, 0, nil
	}
	return true, index - 1, nil
}

// upsert returns a copy of root with v stored at path. Objects along the
// path are shallow-copied; missing or non-object nodes are replaced with new
// objects.
func (e *evaluation) upsert(s ir.Stmt, root value.Value, path []int, v value.Value) (value.Value, error) {
	var top *value.Object
	if o, ok := root.(*value.Object); ok {
		top = o.Copy()
	} else {
		top = value.NewObject()
	}

	node := top
	for _, idx := range path[:len(path)-1] {
		seg, err := e.poolString(s, idx)
		if err != nil {
			return nil, err
		}
		key := value.String(seg)
		var next *value.Object
		if child, ok := node.Get(key); ok {
			if co, ok := child.(*value.Object); ok {
				next = co.Copy()
			}
		}
		if next == nil {
			next = value.NewObject()
		}
		value.InsertInto(node, key, next)
		node = next
	}

	last, err := e.poolString(s, path[len(path)-1])
	if err != nil {
		return nil, err
	}
	value.InsertInto(node, value.String(last), v)
	return top, nil
}
