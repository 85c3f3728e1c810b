package ir

import (
	"fmt"
	"strings"
	"sync"
)

// Well-known locals. Every plan binds input and data to the first two locals
// and every function receives them as its first two parameters.
const (
	Input  Local = 0
	Data   Local = 1
	Unused Local = 2
)

// Policy is a compiled policy: the static pool, the entry plans and the
// functions they call. A decoded policy is never mutated by evaluation.
type Policy struct {
	Static *Static `json:"static"`
	Plans  *Plans  `json:"plans"`
	Funcs  *Funcs  `json:"funcs"`

	once   sync.Once
	byName map[string]*Func
	byPath map[string]*Func
}

// Static holds the constant pools shared by all plans.
type Static struct {
	Strings      []*StringConst `json:"strings"`
	BuiltinFuncs []*BuiltinFunc `json:"builtin_funcs"`
	Files        []*StringConst `json:"files"`
}

// StringConst is a single pool entry.
type StringConst struct {
	Value string `json:"value"`
}

// Plans is the ordered list of entry points.
type Plans struct {
	Plans []*Plan `json:"plans"`
}

// Plan is a named entry point.
type Plan struct {
	Name   string   `json:"name"`
	Blocks []*Block `json:"blocks"`
}

// Funcs is the function table.
type Funcs struct {
	Funcs []*Func `json:"funcs"`
}

// Func is a compiled function. Params[0] and Params[1] receive input and
// data; the value bound to Return when the body finishes is the result.
type Func struct {
	Name   string   `json:"name"`
	Params []Local  `json:"params"`
	Return Local    `json:"return"`
	Blocks []*Block `json:"blocks"`
	Path   []string `json:"path,omitempty"`
}

// Block is an ordered list of statements.
type Block struct {
	Stmts []Stmt `json:"stmts"`
}

// String returns the pool entry at index i.
func (s *Static) String(i int) (string, error) {
	if s == nil || i < 0 || i >= len(s.Strings) {
		return "", fmt.Errorf("%w: string index %d", ErrIndexOutOfRange, i)
	}
	return s.Strings[i].Value, nil
}

// File returns the file name at index i.
func (s *Static) File(i int) (string, error) {
	if s == nil || i < 0 || i >= len(s.Files) {
		return "", fmt.Errorf("%w: file index %d", ErrIndexOutOfRange, i)
	}
	return s.Files[i].Value, nil
}

// Builtin returns the declaration of the named built-in, or nil.
func (s *Static) Builtin(name string) *BuiltinFunc {
	if s == nil {
		return nil
	}
	for _, b := range s.BuiltinFuncs {
		if b.Name == name {
			return b
		}
	}
	return nil
}

// PlanList returns the plans, never nil.
func (p *Policy) PlanList() []*Plan {
	if p == nil || p.Plans == nil {
		return nil
	}
	return p.Plans.Plans
}

// FuncList returns the functions, never nil.
func (p *Policy) FuncList() []*Func {
	if p == nil || p.Funcs == nil {
		return nil
	}
	return p.Funcs.Funcs
}

// Plan returns the named plan. An empty name selects the first plan.
func (p *Policy) Plan(name string) (*Plan, bool) {
	plans := p.PlanList()
	if name == "" {
		if len(plans) == 0 {
			return nil, false
		}
		return plans[0], true
	}
	for _, plan := range plans {
		if plan.Name == name {
			return plan, true
		}
	}
	return nil, false
}

// PlanNames returns the plan names in declaration order.
func (p *Policy) PlanNames() []string {
	plans := p.PlanList()
	names := make([]string, len(plans))
	for i, plan := range plans {
		names[i] = plan.Name
	}
	return names
}

// Func returns the function with the given name.
func (p *Policy) Func(name string) (*Func, bool) {
	p.once.Do(p.index)
	f, ok := p.byName[name]
	return f, ok
}

// FuncByPath returns the function whose path equals path.
func (p *Policy) FuncByPath(path []string) (*Func, bool) {
	p.once.Do(p.index)
	f, ok := p.byPath[pathKey(path)]
	return f, ok
}

// FuncNames returns the function names in declaration order.
func (p *Policy) FuncNames() []string {
	funcs := p.FuncList()
	names := make([]string, len(funcs))
	for i, f := range funcs {
		names[i] = f.Name
	}
	return names
}

func (p *Policy) index() {
	funcs := p.FuncList()
	p.byName = make(map[string]*Func, len(funcs))
	p.byPath = make(map[string]*Func, len(funcs))
	for _, f := range funcs {
		if _, dup := p.byName[f.Name]; !dup {
			p.byName[f.Name] = f
		}
		if len(f.Path) > 0 {
			if _, dup := p.byPath[pathKey(f.Path)]; !dup {
				p.byPath[pathKey(f.Path)] = f
			}
		}
	}
}

func pathKey(path []string) string {
	return strings.Join(path, "\x00")
}
