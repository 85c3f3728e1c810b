package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mercator-hq/irvm/pkg/config"
	"mercator-hq/irvm/pkg/ir"
	"mercator-hq/irvm/pkg/ir/validator"
	"mercator-hq/irvm/pkg/policy/engine"
	"mercator-hq/irvm/pkg/policy/manager"
	"mercator-hq/irvm/pkg/value"
)

func constPolicy(t *testing.T, plan string, n int) *ir.Policy {
	t.Helper()
	p := &ir.Policy{
		Plans: &ir.Plans{Plans: []*ir.Plan{{
			Name: plan,
			Blocks: []*ir.Block{{Stmts: []ir.Stmt{
				&ir.MakeNumberIntStmt{Value: int64(n), Target: 2},
				&ir.ResultSetAddStmt{Value: 2},
			}}},
		}}},
	}
	data, err := ir.MarshalJSON(p)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := ir.ParseJSON(data)
	if err != nil {
		t.Fatal(err)
	}
	return decoded
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func evalInt(t *testing.T, vm *engine.VM, plan string) value.Value {
	t.Helper()
	res, err := vm.Eval(context.Background(), engine.EvalRequest{Plan: plan})
	if err != nil {
		t.Fatalf("Eval() error = %v", err)
	}
	if len(res.ResultSet) != 1 {
		t.Fatalf("result set has %d entries, want 1", len(res.ResultSet))
	}
	return res.ResultSet[0]
}

func TestMemorySource_LoadPolicy(t *testing.T) {
	if _, err := NewMemorySource(nil).LoadPolicy(context.Background()); err == nil {
		t.Error("LoadPolicy() on empty source error = nil")
	}

	p := constPolicy(t, "p", 1)
	got, err := NewMemorySource(p).LoadPolicy(context.Background())
	if err != nil || got != p {
		t.Errorf("LoadPolicy() = %v, %v", got, err)
	}
}

func TestMemorySource_VMFollowsSetPolicy(t *testing.T) {
	src := NewMemorySource(constPolicy(t, "p", 1))
	vm, err := engine.NewVM(nil, src, nil)
	if err != nil {
		t.Fatalf("NewVM() error = %v", err)
	}
	defer vm.Close()

	if got := evalInt(t, vm, "p"); !value.Equal(got, value.Int(1)) {
		t.Fatalf("initial result = %v, want 1", got)
	}

	src.SetPolicy(constPolicy(t, "p", 2))
	waitFor(t, func() bool {
		plan, _ := vm.Policy().Plan("p")
		return plan.Blocks[0].Stmts[0].(*ir.MakeNumberIntStmt).Value == 2
	})
	if got := evalInt(t, vm, "p"); !value.Equal(got, value.Int(2)) {
		t.Errorf("result after SetPolicy = %v, want 2", got)
	}

	// A failing load keeps the last good policy.
	src.SetError(errors.New("backend unavailable"))
	time.Sleep(50 * time.Millisecond)
	if got := evalInt(t, vm, "p"); !value.Equal(got, value.Int(2)) {
		t.Errorf("result after failed reload = %v, want 2", got)
	}
}

func TestMemorySource_WatchClosesOnCancel(t *testing.T) {
	src := NewMemorySource(constPolicy(t, "p", 1))
	ctx, cancel := context.WithCancel(context.Background())
	events, err := src.Watch(ctx)
	if err != nil {
		t.Fatal(err)
	}
	cancel()

	waitFor(t, func() bool {
		select {
		case _, ok := <-events:
			return !ok
		default:
			return false
		}
	})

	// SetPolicy after the watcher is gone must not block or panic.
	src.SetPolicy(constPolicy(t, "p", 3))
}

func TestManagerSource(t *testing.T) {
	dir := t.TempDir()
	data, err := os.ReadFile(fixturePath)
	if err != nil {
		t.Fatal(err)
	}
	writePolicy(t, dir, "authz.json", data)
	writePolicy(t, dir, "other.json", []byte(`{"plans": {"plans": [{"name": "other", "blocks": []}]}}`))

	cfg := config.NewDefaultConfig().Policy
	cfg.Path = dir
	cfg.Watch = false
	mgr, err := manager.NewPolicyManager(&cfg, validator.NewSemanticValidator(engine.BuiltinNames()), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer mgr.Close()

	p, err := NewManagerSource(mgr, "authz").LoadPolicy(context.Background())
	if err != nil {
		t.Fatalf("LoadPolicy() error = %v", err)
	}
	if _, ok := p.Plan("example/allow"); !ok {
		t.Error("policy lacks plan example/allow")
	}

	if _, err := NewManagerSource(mgr, "").LoadPolicy(context.Background()); err == nil {
		t.Error("LoadPolicy() without a name over two policies error = nil")
	}
	if _, err := NewManagerSource(mgr, "missing").LoadPolicy(context.Background()); err == nil {
		t.Error("LoadPolicy(missing) error = nil")
	}
}

func TestManagerSource_VMFollowsReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "authz.json")
	write := func(n int) {
		data, err := ir.MarshalJSON(constPolicy(t, "authz/value", n))
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			t.Fatal(err)
		}
	}
	write(1)

	cfg := config.NewDefaultConfig().Policy
	cfg.Path = path
	cfg.Watch = true
	cfg.DebounceInterval = 20 * time.Millisecond
	mgr, err := manager.NewPolicyManager(&cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer mgr.Close()

	vm, err := engine.NewVM(nil, NewManagerSource(mgr, "authz"), nil)
	if err != nil {
		t.Fatalf("NewVM() error = %v", err)
	}
	defer vm.Close()

	time.Sleep(50 * time.Millisecond)
	write(7)

	waitFor(t, func() bool {
		res, err := vm.Eval(context.Background(), engine.EvalRequest{Plan: "authz/value"})
		return err == nil && len(res.ResultSet) == 1 && value.Equal(res.ResultSet[0], value.Int(7))
	})
}
