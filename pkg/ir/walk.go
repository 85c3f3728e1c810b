package ir

// Node is the element handed to a Visitor. Exactly one of Plan, Func, Block
// or Stmt is set. Depth counts the blocks enclosing a statement, or the
// blocks enclosing and including a block; the top-level blocks of plans and
// functions have depth 1.
type Node struct {
	Plan  *Plan
	Func  *Func
	Block *Block
	Stmt  Stmt
	Depth int
}

// Visitor is called for every node of a policy.
type Visitor interface {
	Visit(Node) error
}

// VisitorFunc adapts a function to the Visitor interface.
type VisitorFunc func(Node) error

// Visit calls f(n).
func (f VisitorFunc) Visit(n Node) error { return f(n) }

// Walk visits plans and then functions in declaration order, descending
// depth first into blocks and nested statements. It stops at the first error.
func Walk(p *Policy, v Visitor) error {
	for _, plan := range p.PlanList() {
		if err := v.Visit(Node{Plan: plan}); err != nil {
			return err
		}
		if err := walkBlocks(plan.Blocks, 1, v); err != nil {
			return err
		}
	}
	for _, fn := range p.FuncList() {
		if err := v.Visit(Node{Func: fn}); err != nil {
			return err
		}
		if err := walkBlocks(fn.Blocks, 1, v); err != nil {
			return err
		}
	}
	return nil
}

// WalkBlock visits b and everything nested in it.
func WalkBlock(b *Block, v Visitor) error {
	return walkBlock(b, 1, v)
}

func walkBlocks(blocks []*Block, depth int, v Visitor) error {
	for _, b := range blocks {
		if err := walkBlock(b, depth, v); err != nil {
			return err
		}
	}
	return nil
}

func walkBlock(b *Block, depth int, v Visitor) error {
	if b == nil {
		return nil
	}
	if err := v.Visit(Node{Block: b, Depth: depth}); err != nil {
		return err
	}
	for _, s := range b.Stmts {
		if err := v.Visit(Node{Stmt: s, Depth: depth}); err != nil {
			return err
		}
		var err error
		switch s := s.(type) {
		case *BlockStmt:
			err = walkBlocks(s.Blocks, depth+1, v)
		case *NotStmt:
			err = walkBlock(s.Block, depth+1, v)
		case *ScanStmt:
			err = walkBlock(s.Block, depth+1, v)
		case *WithStmt:
			err = walkBlock(s.Block, depth+1, v)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// StmtCounts returns the number of statements of each type in p.
func StmtCounts(p *Policy) map[string]int {
	counts := make(map[string]int)
	_ = Walk(p, VisitorFunc(func(n Node) error {
		if n.Stmt != nil {
			counts[StmtType(n.Stmt)]++
		}
		return nil
	}))
	return counts
}

// Operands returns the operands read by s, in field order.
func Operands(s Stmt) []Operand {
	switch s := s.(type) {
	case *ArrayAppendStmt:
		return []Operand{s.Value}
	case *AssignVarOnceStmt:
		return []Operand{s.Source}
	case *AssignVarStmt:
		return []Operand{s.Source}
	case *CallDynamicStmt:
		return s.Path
	case *CallStmt:
		return s.Args
	case *DotStmt:
		return []Operand{s.Source, s.Key}
	case *EqualStmt:
		return []Operand{s.A, s.B}
	case *NotEqualStmt:
		return []Operand{s.A, s.B}
	case *IsArrayStmt:
		return []Operand{s.Source}
	case *IsObjectStmt:
		return []Operand{s.Source}
	case *IsSetStmt:
		return []Operand{s.Source}
	case *LenStmt:
		return []Operand{s.Source}
	case *ObjectInsertOnceStmt:
		return []Operand{s.Key, s.Value}
	case *ObjectInsertStmt:
		return []Operand{s.Key, s.Value}
	case *SetAddStmt:
		return []Operand{s.Value}
	case *WithStmt:
		return []Operand{s.Value}
	}
	return nil
}
