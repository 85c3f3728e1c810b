// Package engine executes plans of an intermediate-representation policy.
//
// A policy is a flat, block-structured program produced by a policy
// compiler. The engine interprets it statement by statement: every
// statement either succeeds (is "defined"), fails (is "undefined", which
// abandons the enclosing block), breaks out of a number of enclosing blocks,
// or raises an Exception that aborts the whole invocation.
//
// # Architecture
//
//  1. Statement interpreter - executes statements against a frame of locals
//  2. Function table - resolves calls by name, by path or to a built-in
//  3. VM - owns the loaded policy, swaps it on reload and runs evaluations
//
// # Evaluation Flow
//
//	EvalRequest{Plan, Input, Data}
//	       ↓
//	Plan lookup (empty name selects the first plan)
//	       ↓
//	For each top-level block of the plan:
//	  Run statements until one is undefined or breaks
//	  ResultSetAddStmt appends a snapshot to the result set
//	       ↓
//	EvalResult{ResultSet, Instructions, Duration, Trace}
//
// # Basic Usage
//
//	src, err := source.NewFileSource("policy.json", logger, source.WithWatch(true))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	vm, err := engine.NewVM(engine.DefaultConfig(), src, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer vm.Close()
//
//	input, _ := value.ParseJSON([]byte(`{"x": 2}`))
//	res, err := vm.Eval(ctx, engine.EvalRequest{Plan: "example/allow", Input: input})
//	if err != nil {
//	    var exc *engine.Exception
//	    if errors.As(err, &exc) {
//	        log.Printf("%s failed at %s", exc.Op, exc.Location)
//	    }
//	}
//
// # Host Documents
//
// Input and data are frozen before evaluation. Statements that mutate a
// frozen composite copy it first, so the caller's values and the static
// string pool are never modified and repeated evaluations are deterministic.
//
// # Limits
//
// Config.MaxCallDepth bounds nested calls, Config.MaxInstructions bounds the
// number of executed statements and Config.EvalTimeout (or the caller's
// context) bounds wall time. Exceeding any of them raises an Exception.
//
// # Thread Safety
//
// A VM is safe for concurrent use. Each evaluation has its own frames and
// result set; the loaded policy is read-only and replaced atomically on
// reload.
package engine
