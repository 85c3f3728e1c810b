// Package ir defines the intermediate representation executed by the policy
// engine: a static constant pool, named entry plans, a function table, and
// blocks of statements drawn from a closed set.
//
// # Documents
//
// Policies are exchanged as JSON (or YAML with the same shape). Every
// statement is tagged with its type and carries the source position it was
// compiled from:
//
//	{"type": "EqualStmt", "stmt": {"a": {"type": "local", "value": 2},
//	                                "b": {"type": "string_index", "value": 0},
//	                                "file": 0, "row": 4, "col": 1}}
//
// Operands are tagged as "local", "bool" or "string_index". Unknown
// statement or operand types are decode errors.
//
// # Basic Usage
//
//	policy, err := ir.ParseJSON(data)
//	if err != nil {
//	    return err
//	}
//	plan, ok := policy.Plan("") // first plan
//
// # Traversal
//
// Walk visits plans, functions, blocks and statements depth first and
// reports the block nesting depth of each statement. Digest derives a
// content hash that does not depend on document formatting.
package ir
