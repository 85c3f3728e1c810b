package ir

import "fmt"

// Location is the source position a statement was compiled from. Index refers
// to Static.Files; File is filled in when the policy is decoded.
type Location struct {
	Index int    `json:"file"`
	Col   int    `json:"col"`
	Row   int    `json:"row"`
	File  string `json:"-"`
}

// Loc returns the statement location. It makes every statement embedding a
// Location satisfy Stmt.
func (l *Location) Loc() *Location { return l }

// String returns "file:row:col", or "<unknown>" when no file is known.
func (l Location) String() string {
	if l.File == "" {
		if l.Row == 0 {
			return "<unknown>"
		}
		return fmt.Sprintf("%d:%d", l.Row, l.Col)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Row, l.Col)
}

// IsValid reports whether the location carries a row.
func (l Location) IsValid() bool {
	return l.Row > 0
}

// Stmt is one of the statement types below.
type Stmt interface {
	Loc() *Location
}

type (
	// ArrayAppendStmt appends Value to the array bound to Array.
	ArrayAppendStmt struct {
		Value Operand `json:"value"`
		Array Local   `json:"array"`
		Location
	}

	// AssignIntStmt binds the integer Value to Target.
	AssignIntStmt struct {
		Value  int64 `json:"value"`
		Target Local `json:"target"`
		Location
	}

	// AssignVarOnceStmt binds Source to Target unless Target already holds a
	// different value.
	AssignVarOnceStmt struct {
		Source Operand `json:"source"`
		Target Local   `json:"target"`
		Location
	}

	// AssignVarStmt binds Source to Target.
	AssignVarStmt struct {
		Source Operand `json:"source"`
		Target Local   `json:"target"`
		Location
	}

	// BlockStmt runs each of Blocks in order.
	BlockStmt struct {
		Blocks []*Block `json:"blocks"`
		Location
	}

	// BreakStmt leaves the current block and Index enclosing ones.
	BreakStmt struct {
		Index uint32 `json:"index"`
		Location
	}

	// CallDynamicStmt calls the function whose path is given by Path.
	CallDynamicStmt struct {
		Args   []Local   `json:"args"`
		Result Local     `json:"result"`
		Path   []Operand `json:"path"`
		Location
	}

	// CallStmt calls a plan function or built-in by name.
	CallStmt struct {
		Func   string    `json:"func"`
		Args   []Operand `json:"args"`
		Result Local     `json:"result"`
		Location
	}

	// DotStmt looks up Key in Source.
	DotStmt struct {
		Source Operand `json:"source"`
		Key    Operand `json:"key"`
		Target Local   `json:"target"`
		Location
	}

	// EqualStmt is defined when A equals B.
	EqualStmt struct {
		A Operand `json:"a"`
		B Operand `json:"b"`
		Location
	}

	// NotEqualStmt is defined when A does not equal B.
	NotEqualStmt struct {
		A Operand `json:"a"`
		B Operand `json:"b"`
		Location
	}

	IsArrayStmt struct {
		Source Operand `json:"source"`
		Location
	}

	IsObjectStmt struct {
		Source Operand `json:"source"`
		Location
	}

	IsSetStmt struct {
		Source Operand `json:"source"`
		Location
	}

	IsDefinedStmt struct {
		Source Local `json:"source"`
		Location
	}

	IsUndefinedStmt struct {
		Source Local `json:"source"`
		Location
	}

	// LenStmt binds the length of Source to Target.
	LenStmt struct {
		Source Operand `json:"source"`
		Target Local   `json:"target"`
		Location
	}

	MakeArrayStmt struct {
		Capacity int32 `json:"capacity"`
		Target   Local `json:"target"`
		Location
	}

	MakeNullStmt struct {
		Target Local `json:"target"`
		Location
	}

	MakeNumberIntStmt struct {
		Value  int64 `json:"value"`
		Target Local `json:"target"`
		Location
	}

	// MakeNumberRefStmt binds the number literal stored at Index in the
	// string pool. Compilers emit its fields capitalised; decoding is case
	// insensitive.
	MakeNumberRefStmt struct {
		Index  int   `json:"index"`
		Target Local `json:"target"`
		Location
	}

	MakeObjectStmt struct {
		Target Local `json:"target"`
		Location
	}

	MakeSetStmt struct {
		Target Local `json:"target"`
		Location
	}

	NopStmt struct {
		Location
	}

	// NotStmt is defined when Block is undefined.
	NotStmt struct {
		Block *Block `json:"block"`
		Location
	}

	ObjectInsertOnceStmt struct {
		Key    Operand `json:"key"`
		Value  Operand `json:"value"`
		Object Local   `json:"object"`
		Location
	}

	ObjectInsertStmt struct {
		Key    Operand `json:"key"`
		Value  Operand `json:"value"`
		Object Local   `json:"object"`
		Location
	}

	// ObjectMergeStmt binds the deep merge of A and B to Target.
	ObjectMergeStmt struct {
		A      Local `json:"a"`
		B      Local `json:"b"`
		Target Local `json:"target"`
		Location
	}

	ResetLocalStmt struct {
		Target Local `json:"target"`
		Location
	}

	// ResultSetAddStmt adds the value of Value to the result set.
	ResultSetAddStmt struct {
		Value Local `json:"value"`
		Location
	}

	ReturnLocalStmt struct {
		Source Local `json:"source"`
		Location
	}

	// ScanStmt runs Block once for every entry of Source.
	ScanStmt struct {
		Source Local  `json:"source"`
		Key    Local  `json:"key"`
		Value  Local  `json:"value"`
		Block  *Block `json:"block"`
		Location
	}

	SetAddStmt struct {
		Value Operand `json:"value"`
		Set   Local   `json:"set"`
		Location
	}

	// WithStmt runs Block with Local temporarily upserted with Value at Path.
	// Path entries are string pool indices.
	WithStmt struct {
		Local Local   `json:"local"`
		Path  []int   `json:"path"`
		Value Operand `json:"value"`
		Block *Block  `json:"block"`
		Location
	}
)

var stmtFactories = map[string]func() Stmt{
	"ArrayAppendStmt":      func() Stmt { return &ArrayAppendStmt{} },
	"AssignIntStmt":        func() Stmt { return &AssignIntStmt{} },
	"AssignVarOnceStmt":    func() Stmt { return &AssignVarOnceStmt{} },
	"AssignVarStmt":        func() Stmt { return &AssignVarStmt{} },
	"BlockStmt":            func() Stmt { return &BlockStmt{} },
	"BreakStmt":            func() Stmt { return &BreakStmt{} },
	"CallDynamicStmt":      func() Stmt { return &CallDynamicStmt{} },
	"CallStmt":             func() Stmt { return &CallStmt{} },
	"DotStmt":              func() Stmt { return &DotStmt{} },
	"EqualStmt":            func() Stmt { return &EqualStmt{} },
	"IsArrayStmt":          func() Stmt { return &IsArrayStmt{} },
	"IsDefinedStmt":        func() Stmt { return &IsDefinedStmt{} },
	"IsObjectStmt":         func() Stmt { return &IsObjectStmt{} },
	"IsSetStmt":            func() Stmt { return &IsSetStmt{} },
	"IsUndefinedStmt":      func() Stmt { return &IsUndefinedStmt{} },
	"LenStmt":              func() Stmt { return &LenStmt{} },
	"MakeArrayStmt":        func() Stmt { return &MakeArrayStmt{} },
	"MakeNullStmt":         func() Stmt { return &MakeNullStmt{} },
	"MakeNumberIntStmt":    func() Stmt { return &MakeNumberIntStmt{} },
	"MakeNumberRefStmt":    func() Stmt { return &MakeNumberRefStmt{} },
	"MakeObjectStmt":       func() Stmt { return &MakeObjectStmt{} },
	"MakeSetStmt":          func() Stmt { return &MakeSetStmt{} },
	"NopStmt":              func() Stmt { return &NopStmt{} },
	"NotEqualStmt":         func() Stmt { return &NotEqualStmt{} },
	"NotStmt":              func() Stmt { return &NotStmt{} },
	"ObjectInsertOnceStmt": func() Stmt { return &ObjectInsertOnceStmt{} },
	"ObjectInsertStmt":     func() Stmt { return &ObjectInsertStmt{} },
	"ObjectMergeStmt":      func() Stmt { return &ObjectMergeStmt{} },
	"ResetLocalStmt":       func() Stmt { return &ResetLocalStmt{} },
	"ResultSetAddStmt":     func() Stmt { return &ResultSetAddStmt{} },
	"ReturnLocalStmt":      func() Stmt { return &ReturnLocalStmt{} },
	"ScanStmt":             func() Stmt { return &ScanStmt{} },
	"SetAddStmt":           func() Stmt { return &SetAddStmt{} },
	"WithStmt":             func() Stmt { return &WithStmt{} },
}

// StmtTypes returns the names of all statement types.
func StmtTypes() []string {
	names := make([]string, 0, len(stmtFactories))
	for name := range stmtFactories {
		names = append(names, name)
	}
	return names
}

// StmtType returns the encoded type name of s, e.g. "ScanStmt".
func StmtType(s Stmt) string {
	switch s.(type) {
	case *ArrayAppendStmt:
		return "ArrayAppendStmt"
	case *AssignIntStmt:
		return "AssignIntStmt"
	case *AssignVarOnceStmt:
		return "AssignVarOnceStmt"
	case *AssignVarStmt:
		return "AssignVarStmt"
	case *BlockStmt:
		return "BlockStmt"
	case *BreakStmt:
		return "BreakStmt"
	case *CallDynamicStmt:
		return "CallDynamicStmt"
	case *CallStmt:
		return "CallStmt"
	case *DotStmt:
		return "DotStmt"
	case *EqualStmt:
		return "EqualStmt"
	case *IsArrayStmt:
		return "IsArrayStmt"
	case *IsDefinedStmt:
		return "IsDefinedStmt"
	case *IsObjectStmt:
		return "IsObjectStmt"
	case *IsSetStmt:
		return "IsSetStmt"
	case *IsUndefinedStmt:
		return "IsUndefinedStmt"
	case *LenStmt:
		return "LenStmt"
	case *MakeArrayStmt:
		return "MakeArrayStmt"
	case *MakeNullStmt:
		return "MakeNullStmt"
	case *MakeNumberIntStmt:
		return "MakeNumberIntStmt"
	case *MakeNumberRefStmt:
		return "MakeNumberRefStmt"
	case *MakeObjectStmt:
		return "MakeObjectStmt"
	case *MakeSetStmt:
		return "MakeSetStmt"
	case *NopStmt:
		return "NopStmt"
	case *NotEqualStmt:
		return "NotEqualStmt"
	case *NotStmt:
		return "NotStmt"
	case *ObjectInsertOnceStmt:
		return "ObjectInsertOnceStmt"
	case *ObjectInsertStmt:
		return "ObjectInsertStmt"
	case *ObjectMergeStmt:
		return "ObjectMergeStmt"
	case *ResetLocalStmt:
		return "ResetLocalStmt"
	case *ResultSetAddStmt:
		return "ResultSetAddStmt"
	case *ReturnLocalStmt:
		return "ReturnLocalStmt"
	case *ScanStmt:
		return "ScanStmt"
	case *SetAddStmt:
		return "SetAddStmt"
	case *WithStmt:
		return "WithStmt"
	}
	return fmt.Sprintf("%T", s)
}
