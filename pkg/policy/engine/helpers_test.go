package engine

import (
	"context"
	"testing"

	"mercator-hq/irvm/pkg/ir"
	"mercator-hq/irvm/pkg/value"
)

// newPolicy builds a single-plan policy named "test" with the given string
// pool and plan blocks.
func newPolicy(strs []string, blocks ...*ir.Block) *ir.Policy {
	static := &ir.Static{}
	for _, s := range strs {
		static.Strings = append(static.Strings, &ir.StringConst{Value: s})
	}
	return &ir.Policy{
		Static: static,
		Plans:  &ir.Plans{Plans: []*ir.Plan{{Name: "test", Blocks: blocks}}},
		Funcs:  &ir.Funcs{},
	}
}

func block(stmts ...ir.Stmt) *ir.Block {
	return &ir.Block{Stmts: stmts}
}

func local(l ir.Local) ir.Operand { return ir.LocalOperand(l) }

func str(i int) ir.Operand { return ir.StringOperand(i) }

func mustJSON(t testing.TB, s string) value.Value {
	t.Helper()
	v, err := value.ParseJSON([]byte(s))
	if err != nil {
		t.Fatalf("ParseJSON(%q) error = %v", s, err)
	}
	return v
}

// run evaluates the "test" plan with the default configuration.
func run(t testing.TB, p *ir.Policy, input value.Value) (ResultSet, error) {
	t.Helper()
	return RunWithConfig(context.Background(), DefaultConfig(), NewBuiltins(), p, "test", input, nil)
}

// mustRun is run that fails the test on error.
func mustRun(t testing.TB, p *ir.Policy, input value.Value) ResultSet {
	t.Helper()
	rs, err := run(t, p, input)
	if err != nil {
		t.Fatalf("RunWithConfig() error = %v", err)
	}
	return rs
}

// results builds a ResultSet from JSON literals.
func results(t testing.TB, docs ...string) ResultSet {
	t.Helper()
	rs := ResultSet{}
	for _, d := range docs {
		rs = append(rs, mustJSON(t, d))
	}
	return rs
}

func assertResults(t *testing.T, got, want ResultSet) {
	t.Helper()
	if !got.Equal(want) {
		g, _ := got.MarshalJSON()
		w, _ := want.MarshalJSON()
		t.Errorf("result set = %s, want %s", g, w)
	}
}
