package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"mercator-hq/irvm/pkg/ir"
	"mercator-hq/irvm/pkg/value"
)

// withFuncs adds functions to p and returns it.
func withFuncs(p *ir.Policy, funcs ...*ir.Func) *ir.Policy {
	p.Funcs = &ir.Funcs{Funcs: funcs}
	return p
}

// getX returns input.x; string 0 of the pool must be "x".
var getX = &ir.Func{
	Name:   "g0.data.get_x",
	Params: []ir.Local{0, 1},
	Return: 2,
	Path:   []string{"g0", "get_x"},
	Blocks: []*ir.Block{block(
		&ir.DotStmt{Source: local(0), Key: str(0), Target: 2},
	)},
}

func TestCall_Function(t *testing.T) {
	p := withFuncs(newPolicy([]string{"x"}, block(
		&ir.CallStmt{Func: "g0.data.get_x", Args: []ir.Operand{local(0), local(1)}, Result: 3},
		&ir.ResultSetAddStmt{Value: 3},
	)), getX)

	assertResults(t, mustRun(t, p, mustJSON(t, `{"x": 7}`)), results(t, `7`))
	assertResults(t, mustRun(t, p, mustJSON(t, `{"y": 7}`)), ResultSet{})
}

func TestCall_ReturnLocal(t *testing.T) {
	fn := &ir.Func{
		Name:   "five",
		Params: []ir.Local{0, 1},
		Return: 2,
		Blocks: []*ir.Block{
			block(&ir.MakeNumberIntStmt{Value: 5, Target: 4}),
			block(&ir.ReturnLocalStmt{Source: 4}),
		},
	}
	p := withFuncs(newPolicy(nil, block(
		&ir.CallStmt{Func: "five", Args: []ir.Operand{local(0), local(1)}, Result: 3},
		&ir.ResultSetAddStmt{Value: 3},
	)), fn)

	assertResults(t, mustRun(t, p, nil), results(t, `5`))
}

func TestCall_FreshFrame(t *testing.T) {
	// The callee must not see locals of the caller beyond its parameters.
	fn := &ir.Func{
		Name:   "peek",
		Params: []ir.Local{0, 1},
		Return: 2,
		Blocks: []*ir.Block{block(&ir.AssignVarStmt{Source: local(3), Target: 2})},
	}
	p := withFuncs(newPolicy(nil, block(
		&ir.MakeNumberIntStmt{Value: 1, Target: 3},
		&ir.CallStmt{Func: "peek", Args: []ir.Operand{local(0), local(1)}, Result: 4},
		&ir.ResultSetAddStmt{Value: 4},
	)), fn)

	assertResults(t, mustRun(t, p, nil), ResultSet{})
}

func TestCall_ArgumentCount(t *testing.T) {
	p := withFuncs(newPolicy([]string{"x"}, block(
		&ir.CallStmt{Func: "g0.data.get_x", Args: []ir.Operand{local(0)}, Result: 3},
	)), getX)

	if _, err := run(t, p, nil); !errors.Is(err, ErrInvalidProgram) {
		t.Errorf("error = %v, want ErrInvalidProgram", err)
	}
}

func TestCallDynamic(t *testing.T) {
	strs := []string{"x", "g0", "get_x", "nope"}
	policy := func(segments ...int) *ir.Policy {
		path := make([]ir.Operand, len(segments))
		for i, s := range segments {
			path[i] = str(s)
		}
		return withFuncs(newPolicy(strs, block(
			&ir.CallDynamicStmt{Path: path, Args: []ir.Local{0, 1}, Result: 3},
			&ir.ResultSetAddStmt{Value: 3},
		)), getX)
	}
	input := mustJSON(t, `{"x": "hit"}`)

	assertResults(t, mustRun(t, policy(1, 2), input), results(t, `"hit"`))

	_, err := run(t, policy(1, 3), input)
	var exc *Exception
	if !errors.As(err, &exc) || exc.Kind() != "unknown_function" {
		t.Errorf("error = %v, want unknown_function exception", err)
	}
}

func TestCallDynamic_NonStringSegment(t *testing.T) {
	p := withFuncs(newPolicy([]string{"x"}, block(
		&ir.CallDynamicStmt{Path: []ir.Operand{ir.BoolOperand(true)}, Args: []ir.Local{0, 1}, Result: 3},
	)), getX)

	if _, err := run(t, p, nil); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("error = %v, want ErrTypeMismatch", err)
	}
}

func TestCall_Builtins(t *testing.T) {
	p := newPolicy([]string{"2.5"}, block(
		&ir.MakeNumberIntStmt{Value: 2, Target: 2},
		&ir.MakeNumberRefStmt{Index: 0, Target: 3},
		&ir.CallStmt{Func: "plus", Args: []ir.Operand{local(2), local(3)}, Result: 4},
		&ir.ResultSetAddStmt{Value: 4},
	))
	assertResults(t, mustRun(t, p, nil), results(t, `4.5`))
}

func TestCall_UnknownFunction(t *testing.T) {
	p := newPolicy(nil, block(
		&ir.CallStmt{Func: "pluss", Args: []ir.Operand{local(0), local(1)}, Result: 2},
	))
	_, err := run(t, p, nil)
	if !errors.Is(err, ErrUnknownFunction) {
		t.Fatalf("error = %v, want ErrUnknownFunction", err)
	}
	if !strings.Contains(err.Error(), "Did you mean 'plus'?") {
		t.Errorf("error %q has no suggestion", err)
	}
}

func TestCall_StrictBuiltins(t *testing.T) {
	stmts := block(
		&ir.MakeNumberIntStmt{Value: 1, Target: 2},
		&ir.CallStmt{Func: "abs", Args: []ir.Operand{local(2)}, Result: 3},
		&ir.ResultSetAddStmt{Value: 3},
	)
	config := DefaultConfig().WithStrictBuiltins(true)
	ctx := context.Background()

	undeclared := newPolicy(nil, stmts)
	if _, err := RunWithConfig(ctx, config, nil, undeclared, "test", nil, nil); !errors.Is(err, ErrUnknownFunction) {
		t.Errorf("undeclared built-in error = %v, want ErrUnknownFunction", err)
	}

	declared := newPolicy(nil, stmts)
	declared.Static.BuiltinFuncs = []*ir.BuiltinFunc{{Name: "abs"}}
	rs, err := RunWithConfig(ctx, config, nil, declared, "test", nil, nil)
	if err != nil {
		t.Fatalf("declared built-in error = %v", err)
	}
	assertResults(t, rs, results(t, `1`))
}

func TestCall_BuiltinError(t *testing.T) {
	p := newPolicy(nil, block(
		&ir.MakeNumberIntStmt{Value: 1, Target: 2},
		&ir.MakeNumberIntStmt{Value: 0, Target: 3},
		&ir.CallStmt{Func: "div", Args: []ir.Operand{local(2), local(3)}, Result: 4},
	))
	_, err := run(t, p, nil)
	var exc *Exception
	if !errors.As(err, &exc) || exc.Kind() != "builtin" {
		t.Fatalf("error = %v, want builtin exception", err)
	}
	if !errors.Is(err, errDivideByZero) {
		t.Errorf("error does not wrap the built-in error: %v", err)
	}
}

func TestCall_BuiltinArity(t *testing.T) {
	p := newPolicy(nil, block(
		&ir.MakeNumberIntStmt{Value: 1, Target: 2},
		&ir.CallStmt{Func: "plus", Args: []ir.Operand{local(2)}, Result: 3},
	))
	if _, err := run(t, p, nil); !errors.Is(err, ErrInvalidProgram) {
		t.Errorf("error = %v, want ErrInvalidProgram", err)
	}
}

func TestCall_HostBuiltin(t *testing.T) {
	builtins := NewBuiltins()
	err := builtins.Register(&Builtin{
		Name:  "host.double",
		Arity: 1,
		Func: func(_ BuiltinContext, args []value.Value) (value.Value, bool, error) {
			n, err := intArg(args, 0)
			if err != nil {
				return nil, false, err
			}
			return value.Int(int64(2 * n)), true, nil
		},
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	p := newPolicy(nil, block(
		&ir.MakeNumberIntStmt{Value: 21, Target: 2},
		&ir.CallStmt{Func: "host.double", Args: []ir.Operand{local(2)}, Result: 3},
		&ir.ResultSetAddStmt{Value: 3},
	))
	rs, err := RunWithConfig(context.Background(), nil, builtins, p, "test", nil, nil)
	if err != nil {
		t.Fatalf("RunWithConfig() error = %v", err)
	}
	assertResults(t, rs, results(t, `42`))
}

func recursivePolicy() *ir.Policy {
	loop := &ir.Func{
		Name:   "loop",
		Params: []ir.Local{0, 1},
		Return: 2,
		Blocks: []*ir.Block{block(
			&ir.CallStmt{Func: "loop", Args: []ir.Operand{local(0), local(1)}, Result: 2},
		)},
	}
	return withFuncs(newPolicy(nil, block(
		&ir.CallStmt{Func: "loop", Args: []ir.Operand{local(0), local(1)}, Result: 2},
	)), loop)
}

func TestLimits(t *testing.T) {
	nops := newPolicy(nil, block(
		&ir.NopStmt{}, &ir.NopStmt{}, &ir.NopStmt{}, &ir.NopStmt{},
	))
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name     string
		ctx      context.Context
		config   *Config
		policy   *ir.Policy
		wantErr  error
		wantKind string
	}{
		{
			name:     "call depth",
			ctx:      context.Background(),
			config:   DefaultConfig().WithMaxCallDepth(16),
			policy:   recursivePolicy(),
			wantErr:  ErrCallDepth,
			wantKind: "call_depth",
		},
		{
			name:     "instruction limit",
			ctx:      context.Background(),
			config:   DefaultConfig().WithMaxInstructions(3),
			policy:   nops,
			wantErr:  ErrInstructionLimit,
			wantKind: "instruction_limit",
		},
		{
			name:   "instruction limit not reached",
			ctx:    context.Background(),
			config: DefaultConfig().WithMaxInstructions(4),
			policy: nops,
		},
		{
			name:     "cancelled",
			ctx:      cancelled,
			config:   DefaultConfig(),
			policy:   nops,
			wantErr:  ErrCancelled,
			wantKind: "cancelled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RunWithConfig(tt.ctx, tt.config, nil, tt.policy, "test", nil, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil {
				return
			}
			var exc *Exception
			if !errors.As(err, &exc) {
				t.Fatalf("error %T is not an *Exception", err)
			}
			if exc.Kind() != tt.wantKind {
				t.Errorf("Kind() = %q, want %q", exc.Kind(), tt.wantKind)
			}
		})
	}
}

func TestPlanSelection(t *testing.T) {
	p := newPolicy(nil, block(
		&ir.MakeNumberIntStmt{Value: 1, Target: 2},
		&ir.ResultSetAddStmt{Value: 2},
	))
	p.Plans.Plans[0].Name = "example/allow"
	ctx := context.Background()

	rs, err := Run(ctx, p, "", nil, nil)
	if err != nil {
		t.Fatalf("Run() with empty plan error = %v", err)
	}
	assertResults(t, rs, results(t, `1`))

	_, err = Run(ctx, p, "example/alow", nil, nil)
	if !errors.Is(err, ErrPlanNotFound) {
		t.Fatalf("error = %v, want ErrPlanNotFound", err)
	}
	var pnf *PlanNotFoundError
	if !errors.As(err, &pnf) {
		t.Fatalf("error %T is not a *PlanNotFoundError", err)
	}
	if !strings.Contains(pnf.Suggestion, "example/allow") {
		t.Errorf("Suggestion = %q, want a hint for example/allow", pnf.Suggestion)
	}
}

func TestRun_NoPolicy(t *testing.T) {
	if _, err := Run(context.Background(), nil, "", nil, nil); !errors.Is(err, ErrNoPolicy) {
		t.Errorf("error = %v, want ErrNoPolicy", err)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	p := newPolicy(nil, block(&ir.NopStmt{}))
	_, err := RunWithConfig(context.Background(), DefaultConfig().WithMaxCallDepth(0), nil, p, "test", nil, nil)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("error = %v, want ErrInvalidConfig", err)
	}
}
