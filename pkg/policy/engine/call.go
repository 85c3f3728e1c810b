package engine

import (
	"fmt"
	"strings"

	"mercator-hq/irvm/pkg/ir"
	irErrors "mercator-hq/irvm/pkg/ir/errors"
	"mercator-hq/irvm/pkg/value"
)

func (e *evaluation) execCall(f *frame, s *ir.CallStmt) (bool, uint32, error) {
	args := make([]value.Value, len(s.Args))
	for i, op := range s.Args {
		v, err := e.operand(f, s, op)
		if err != nil {
			return false, 0, err
		}
		args[i] = v
	}

	var (
		result value.Value
		err    error
	)
	if fn, ok := e.policy.Func(s.Func); ok {
		result, err = e.callFunc(s, fn, args)
	} else {
		result, err = e.callBuiltin(s, s.Func, args)
	}
	if err != nil {
		return false, 0, err
	}
	if result == nil {
		return undefined, 0, nil
	}
	f.set(s.Result, result)
	return defined, 0, nil
}

func (e *evaluation) execCallDynamic(f *frame, s *ir.CallDynamicStmt) (bool, uint32, error) {
	path := make([]string, len(s.Path))
	for i, op := range s.Path {
		v, err := e.operand(f, s, op)
		if err != nil {
			return false, 0, err
		}
		str, ok := v.(value.String)
		if !ok {
			return false, 0, e.exception(s, ErrTypeMismatch, "path segment %d is %s, want string", i, kindOf(v))
		}
		path[i] = string(str)
	}

	fn, ok := e.policy.FuncByPath(path)
	if !ok {
		return false, 0, e.exception(s, ErrUnknownFunction, "no function at path %s", strings.Join(path, "."))
	}

	args := make([]value.Value, len(s.Args))
	for i, l := range s.Args {
		args[i] = f.get(l)
	}

	result, err := e.callFunc(s, fn, args)
	if err != nil {
		return false, 0, err
	}
	if result == nil {
		return undefined, 0, nil
	}
	f.set(s.Result, result)
	return defined, 0, nil
}

// callFunc invokes a plan function in a fresh frame. The result is nil when
// the return local is undefined after the body ran.
func (e *evaluation) callFunc(s ir.Stmt, fn *ir.Func, args []value.Value) (value.Value, error) {
	if len(args) != len(fn.Params) {
		return nil, e.exception(s, ErrInvalidProgram, "function %s takes %d arguments, got %d", fn.Name, len(fn.Params), len(args))
	}

	e.depth++
	defer func() { e.depth-- }()
	if e.depth > e.config.MaxCallDepth {
		return nil, e.exception(s, ErrCallDepth, "calling %s at depth %d (max %d)", fn.Name, e.depth, e.config.MaxCallDepth)
	}

	size := int(fn.Return) + 1
	for _, p := range fn.Params {
		if int(p) >= size {
			size = int(p) + 1
		}
	}
	callee := newFrame(size)
	for i, p := range fn.Params {
		callee.set(p, args[i])
	}

	e.trace.add(TraceEnter, fn.Name, e.depth, *s.Loc())
	for _, b := range fn.Blocks {
		stop, _, err := e.execBlock(callee, b)
		if err != nil {
			return nil, err
		}
		if stop {
			break
		}
	}
	e.trace.add(TraceExit, fn.Name, e.depth, *s.Loc())

	ret := fn.Return
	if callee.hasRet {
		ret = callee.ret
	}
	return callee.get(ret), nil
}

// callBuiltin invokes a registered built-in. Any undefined argument makes
// the call undefined.
func (e *evaluation) callBuiltin(s ir.Stmt, name string, args []value.Value) (value.Value, error) {
	b, ok := e.builtins.Lookup(name)
	if !ok {
		candidates := append(e.policy.FuncNames(), e.builtins.Names()...)
		return nil, e.exception(s, ErrUnknownFunction, "%s is neither a function nor a built-in. %s",
			name, irErrors.Suggest(name, candidates))
	}
	if e.config.StrictBuiltins && e.policy.Static.Builtin(name) == nil {
		return nil, e.exception(s, ErrUnknownFunction, "built-in %s is not declared by the policy", name)
	}
	if b.Arity >= 0 && len(args) != b.Arity {
		return nil, e.exception(s, ErrInvalidProgram, "%s takes %d arguments, got %d", name, b.Arity, len(args))
	}
	for _, a := range args {
		if a == nil {
			return nil, nil
		}
	}

	bctx := BuiltinContext{Context: e.ctx, Location: *s.Loc()}
	v, ok, err := b.Func(bctx, args)
	if err != nil {
		return nil, e.exception(s, fmt.Errorf("%w: %w", ErrBuiltin, err), "%s", name)
	}
	if !ok {
		return nil, nil
	}
	return v, nil
}
