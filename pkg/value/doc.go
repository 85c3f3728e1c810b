// Package value implements the runtime value model of the IR virtual machine.
//
// Every local of a plan or function frame holds a Value: null, boolean,
// number, string, array, object or set. Numbers keep their exact decimal
// representation so that values built from large literals survive a round
// trip without losing precision.
//
// # Ordering
//
// Values are totally ordered. Values of different kinds order by kind
// (null < boolean < number < string < array < object < set); values of the
// same kind compare structurally. Objects and sets keep their entries sorted
// by this order, which makes iteration deterministic across runs.
//
// # Mutability
//
// Scalars are immutable. Arrays, objects and sets can be extended in place by
// the VM's mutating statements, but only while they are not frozen. Values
// decoded from host documents (FromInterface, ParseJSON) are frozen so that
// concurrent evaluations can share them without locking; the VM copies a
// frozen composite before it mutates it.
package value
