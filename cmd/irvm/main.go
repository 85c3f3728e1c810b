// irvm executes compiled policy plans against JSON or YAML documents.
//
// A policy is an intermediate-representation document (.json, .yaml or
// .yml) produced by a policy compiler: a static pool of strings, the entry
// plans and the functions they call. irvm loads, validates and evaluates
// such documents without a compiler.
//
// Usage:
//
//	# Evaluate a plan and print the result set
//	irvm eval --policy policy.json --plan example/allow --input input.json
//
//	# Validate every policy in a directory
//	irvm validate ./policies
//
//	# Show plans, functions and statement counts
//	irvm inspect policy.json --format table
//
//	# Run YAML test suites
//	irvm test --tests policy_test.yaml
//
//	# Measure evaluation throughput
//	irvm bench --policy policy.json --plan example/allow -n 100000
//
//	# Show version information
//	irvm version
package main

func main() {
	Execute()
}
