package validator

import (
	"fmt"

	"mercator-hq/irvm/pkg/ir"
	irErrors "mercator-hq/irvm/pkg/ir/errors"
	"mercator-hq/irvm/pkg/value"
)

// SemanticValidator checks references that the schema cannot express: pool
// indices, callees, break depths and name uniqueness.
type SemanticValidator struct {
	policy   *ir.Policy
	builtins map[string]bool
	errors   *irErrors.ErrorList
	context  string
}

// NewSemanticValidator creates a semantic validator. Calls to names in
// builtins are accepted in addition to the built-ins declared by the policy.
func NewSemanticValidator(builtins []string) *SemanticValidator {
	known := make(map[string]bool, len(builtins))
	for _, name := range builtins {
		known[name] = true
	}
	return &SemanticValidator{
		builtins: known,
		errors:   irErrors.NewErrorList(),
	}
}

// Validate performs semantic validation on a decoded policy.
func (v *SemanticValidator) Validate(policy *ir.Policy) error {
	v.policy = policy
	v.errors = irErrors.NewErrorList()
	v.context = ""

	v.validateNames()

	_ = ir.Walk(policy, ir.VisitorFunc(func(n ir.Node) error {
		switch {
		case n.Plan != nil:
			v.context = "plan " + n.Plan.Name
		case n.Func != nil:
			v.context = "function " + n.Func.Name
			v.validateFunc(n.Func)
		case n.Stmt != nil:
			v.validateStmt(n.Stmt, n.Depth)
		}
		return nil
	}))

	return v.errors.ToError()
}

func (v *SemanticValidator) validateNames() {
	seen := make(map[string]bool)
	for _, plan := range v.policy.PlanList() {
		if seen[plan.Name] {
			v.add(fmt.Sprintf("duplicate plan name '%s'", plan.Name), ir.Location{}, "")
		}
		seen[plan.Name] = true
	}

	seen = make(map[string]bool)
	for _, fn := range v.policy.FuncList() {
		if seen[fn.Name] {
			v.add(fmt.Sprintf("duplicate function name '%s'", fn.Name), ir.Location{}, "")
		}
		seen[fn.Name] = true
	}
}

func (v *SemanticValidator) validateFunc(fn *ir.Func) {
	if len(fn.Params) < 2 {
		v.add(fmt.Sprintf("function '%s' has %d parameters, want at least input and data", fn.Name, len(fn.Params)),
			ir.Location{}, "")
	}
}

func (v *SemanticValidator) validateStmt(s ir.Stmt, depth int) {
	loc := *s.Loc()

	if loc.Index < 0 || (loc.Index > 0 && loc.Index >= len(v.static().Files)) {
		v.add(fmt.Sprintf("file index %d out of range (%d files)", loc.Index, len(v.static().Files)), loc, "")
	}

	for _, op := range ir.Operands(s) {
		if op.Value == nil {
			v.add(fmt.Sprintf("%s has an empty operand", ir.StmtType(s)), loc, "")
			continue
		}
		if idx, ok := op.Value.(ir.StringIndex); ok {
			v.checkString(int(idx), s, loc)
		}
	}

	switch s := s.(type) {
	case *ir.WithStmt:
		for _, idx := range s.Path {
			v.checkString(idx, s, loc)
		}
	case *ir.MakeNumberRefStmt:
		if lit, ok := v.checkString(s.Index, s, loc); ok {
			if _, err := value.ParseNumber(lit); err != nil {
				v.add(fmt.Sprintf("string %d is not a number literal: %q", s.Index, lit), loc, "")
			}
		}
	case *ir.CallStmt:
		v.checkCallee(s.Func, loc)
	case *ir.BreakStmt:
		if int(s.Index) > depth-1 {
			v.add(fmt.Sprintf("break index %d exceeds nesting depth %d", s.Index, depth), loc,
				fmt.Sprintf("Use an index between 0 and %d", depth-1))
		}
	case *ir.NotStmt:
		if s.Block == nil {
			v.add("NotStmt without block", loc, "")
		}
	case *ir.ScanStmt:
		if s.Block == nil {
			v.add("ScanStmt without block", loc, "")
		}
	}
}

func (v *SemanticValidator) checkString(idx int, s ir.Stmt, loc ir.Location) (string, bool) {
	str, err := v.policy.Static.String(idx)
	if err != nil {
		v.add(fmt.Sprintf("%s references string %d, pool has %d entries", ir.StmtType(s), idx, len(v.static().Strings)),
			loc, "")
		return "", false
	}
	return str, true
}

func (v *SemanticValidator) checkCallee(name string, loc ir.Location) {
	if _, ok := v.policy.Func(name); ok {
		return
	}
	if v.policy.Static.Builtin(name) != nil || v.builtins[name] {
		return
	}

	candidates := v.policy.FuncNames()
	for _, b := range v.static().BuiltinFuncs {
		candidates = append(candidates, b.Name)
	}
	v.add(fmt.Sprintf("unknown function '%s'", name), loc, irErrors.Suggest(name, candidates))
}

func (v *SemanticValidator) static() *ir.Static {
	if v.policy.Static == nil {
		return &ir.Static{}
	}
	return v.policy.Static
}

func (v *SemanticValidator) add(msg string, loc ir.Location, suggestion string) {
	v.errors.Add(&irErrors.Error{
		Type:       irErrors.ErrorTypeSemantic,
		Message:    msg,
		Location:   loc,
		Context:    v.context,
		Suggestion: suggestion,
	})
}
