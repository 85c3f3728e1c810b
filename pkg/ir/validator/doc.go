// Package validator checks IR documents before they are executed.
//
// Two passes run in sequence:
//
// Schema: the raw JSON document is validated against an embedded JSON
// Schema (draft 2020-12) describing the static pool, plans, functions,
// blocks and tagged statements.
//
// Semantic: the decoded policy is checked for string and file pool indices
// out of range, number literals that do not parse, calls to names that are
// neither functions nor built-ins, break indices deeper than the enclosing
// blocks, functions without input/data parameters and duplicate names.
//
// The semantic pass is skipped when the schema pass fails, which avoids
// cascading errors. All problems found by a pass are reported together as an
// errors.ErrorList.
//
//	v, err := validator.NewValidator(engine.BuiltinNames())
//	if err != nil {
//	    return err
//	}
//	policy, err := v.ValidateDocument(data)
package validator
