package engine

import (
	"context"
	"fmt"

	"mercator-hq/irvm/pkg/ir"
	irErrors "mercator-hq/irvm/pkg/ir/errors"
	"mercator-hq/irvm/pkg/value"
)

// evaluation is the state of a single plan invocation. It is not safe for
// concurrent use; every Eval call creates its own.
type evaluation struct {
	ctx      context.Context
	done     <-chan struct{}
	policy   *ir.Policy
	config   *Config
	builtins *Builtins
	trace    *Trace

	results      ResultSet
	instructions int64
	depth        int
}

func newEvaluation(ctx context.Context, policy *ir.Policy, config *Config, builtins *Builtins) *evaluation {
	e := &evaluation{
		ctx:      ctx,
		done:     ctx.Done(),
		policy:   policy,
		config:   config,
		builtins: builtins,
	}
	if config.EnableTrace {
		e.trace = &Trace{}
	}
	return e
}

// runPlan executes the named plan. Input and data must be frozen or nil.
func (e *evaluation) runPlan(name string, input, data value.Value) error {
	plan, ok := e.policy.Plan(name)
	if !ok {
		return &PlanNotFoundError{
			Name:       name,
			Suggestion: irErrors.Suggest(name, e.policy.PlanNames()),
		}
	}

	f := newFrame(8)
	f.set(ir.Input, input)
	f.set(ir.Data, data)

	e.trace.add(TraceEnter, plan.Name, 0, ir.Location{})
	for _, b := range plan.Blocks {
		stop, _, err := e.execBlock(f, b)
		if err != nil {
			return err
		}
		// A break out of a top-level block ends the plan.
		if stop {
			break
		}
	}
	e.trace.add(TraceExit, plan.Name, 0, ir.Location{})
	return nil
}

// execBlock runs the statements of b and translates the outcome for the
// parent: an undefined statement or a break with index 0 lets the parent
// continue, a break with index n > 0 becomes a break with index n-1.
func (e *evaluation) execBlock(f *frame, b *ir.Block) (bool, uint32, error) {
	if b == nil {
		return false, 0, nil
	}
	stop, index, err := e.execStmts(f, b.Stmts)
	if err != nil {
		return false, 0, err
	}
	if !stop || index == 0 {
		return false, 0, nil
	}
	return true, index - 1, nil
}

// execStmts runs stmts until one of them stops and returns that result
// unchanged, or (false, 0) when all of them were defined.
func (e *evaluation) execStmts(f *frame, stmts []ir.Stmt) (bool, uint32, error) {
	for _, s := range stmts {
		if err := e.step(s); err != nil {
			return false, 0, err
		}
		stop, index, err := e.exec(f, s)
		if err != nil {
			e.trace.add(TraceException, ir.StmtType(s), e.depth, *s.Loc())
			return false, 0, err
		}
		if e.trace != nil {
			op := TraceEval
			switch {
			case stop && index > 0:
				op = TraceBreak
			case stop:
				op = TraceFail
			}
			e.trace.add(op, ir.StmtType(s), e.depth, *s.Loc())
		}
		if stop {
			return true, index, nil
		}
	}
	return false, 0, nil
}

// step charges one instruction and checks the host budget.
func (e *evaluation) step(s ir.Stmt) error {
	e.instructions++
	if max := e.config.MaxInstructions; max > 0 && e.instructions > max {
		return e.exception(s, ErrInstructionLimit, "executed more than %d statements", max)
	}
	select {
	case <-e.done:
		return e.exception(s, fmt.Errorf("%w: %v", ErrCancelled, e.ctx.Err()), "evaluation aborted")
	default:
	}
	return nil
}

// operand resolves op against the frame. A nil result is undefined.
func (e *evaluation) operand(f *frame, s ir.Stmt, op ir.Operand) (value.Value, error) {
	switch v := op.Value.(type) {
	case ir.Local:
		return f.get(v), nil
	case ir.Bool:
		return value.Boolean(v), nil
	case ir.StringIndex:
		str, err := e.policy.Static.String(int(v))
		if err != nil {
			return nil, e.exception(s, err, "bad string operand")
		}
		return value.String(str), nil
	case nil:
		return nil, e.exception(s, ErrInvalidProgram, "empty operand")
	}
	return nil, e.exception(s, ErrInvalidProgram, "unsupported operand %T", op.Value)
}

// poolString returns the static string at index i.
func (e *evaluation) poolString(s ir.Stmt, i int) (string, error) {
	str, err := e.policy.Static.String(i)
	if err != nil {
		return "", e.exception(s, err, "bad string reference")
	}
	return str, nil
}

func (e *evaluation) exception(s ir.Stmt, cause error, format string, args ...any) *Exception {
	return &Exception{
		Op:       ir.StmtType(s),
		Location: *s.Loc(),
		Message:  fmt.Sprintf(format, args...),
		Cause:    cause,
	}
}
