package ir

import (
	"errors"
	"testing"
)

func TestWalk_Depth(t *testing.T) {
	p := &Policy{
		Plans: &Plans{Plans: []*Plan{{
			Name: "p",
			Blocks: []*Block{{Stmts: []Stmt{
				&BlockStmt{Blocks: []*Block{{Stmts: []Stmt{
					&NotStmt{Block: &Block{Stmts: []Stmt{&BreakStmt{Index: 2}}}},
				}}}},
				&NopStmt{},
			}}},
		}}},
	}

	depths := map[string]int{}
	err := Walk(p, VisitorFunc(func(n Node) error {
		if n.Stmt != nil {
			depths[StmtType(n.Stmt)] = n.Depth
		}
		return nil
	}))
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	want := map[string]int{"BlockStmt": 1, "NotStmt": 2, "BreakStmt": 3, "NopStmt": 1}
	for typ, d := range want {
		if depths[typ] != d {
			t.Errorf("depth of %s = %d, want %d", typ, depths[typ], d)
		}
	}
}

func TestWalk_StopsOnError(t *testing.T) {
	p := loadFixture(t)
	stop := errors.New("stop")

	visited := 0
	err := Walk(p, VisitorFunc(func(n Node) error {
		visited++
		if n.Stmt != nil {
			return stop
		}
		return nil
	}))
	if !errors.Is(err, stop) {
		t.Fatalf("Walk() error = %v, want stop", err)
	}
	// plan, block, first statement
	if visited != 3 {
		t.Errorf("visited %d nodes, want 3", visited)
	}
}

func TestStmtCounts(t *testing.T) {
	counts := StmtCounts(loadFixture(t))
	if counts["AssignVarOnceStmt"] != 2 {
		t.Errorf("AssignVarOnceStmt count = %d, want 2", counts["AssignVarOnceStmt"])
	}
	if counts["CallStmt"] != 2 {
		t.Errorf("CallStmt count = %d, want 2", counts["CallStmt"])
	}
}

func TestStmtType_CoversFactories(t *testing.T) {
	for _, name := range StmtTypes() {
		if got := StmtType(stmtFactories[name]()); got != name {
			t.Errorf("StmtType(%s) = %s", name, got)
		}
	}
}
