// Package errors provides diagnostics for loading and validating IR
// documents.
//
// Each Error carries a category, the statement location it refers to, the
// plan or function it was found in and an optional suggestion. ErrorList
// accumulates diagnostics so that a validator can report every problem in
// one pass:
//
//	errList := errors.NewErrorList()
//	errList.AddErrorWithSuggestion(errors.ErrorTypeSemantic,
//	    "unknown function 'g0.data.x.allw'", stmt.Loc(),
//	    errors.Suggest("g0.data.x.allw", policy.FuncNames()))
//	return errList.ToError()
//
// Errors render as:
//
//	[semantic] unknown function 'g0.data.x.allw'
//	  --> example.rego:4:1
//	  in plan x/allow
//	  = suggestion: Did you mean 'g0.data.x.allow'?
package errors
