package engine

import (
	"mercator-hq/irvm/pkg/ir"
	"mercator-hq/irvm/pkg/value"
)

// frame holds the locals of one plan or function invocation. A nil entry is
// an undefined local. Frames never outlive their invocation.
type frame struct {
	locals []value.Value

	// ret is the local named by the last ReturnLocalStmt.
	ret    ir.Local
	hasRet bool
}

func newFrame(size int) *frame {
	if size < 3 {
		size = 3
	}
	return &frame{locals: make([]value.Value, size)}
}

func (f *frame) get(l ir.Local) value.Value {
	if int(l) < len(f.locals) {
		return f.locals[l]
	}
	return nil
}

func (f *frame) set(l ir.Local, v value.Value) {
	if int(l) >= len(f.locals) {
		if v == nil {
			return
		}
		grown := make([]value.Value, int(l)+1, 2*int(l)+2)
		copy(grown, f.locals)
		f.locals = grown
	}
	f.locals[l] = v
}

func (f *frame) reset(l ir.Local) {
	f.set(l, nil)
}

// snapshot copies the current bindings. Values themselves are shared.
func (f *frame) snapshot() []value.Value {
	return append([]value.Value(nil), f.locals...)
}

func (f *frame) restore(saved []value.Value) {
	f.locals = saved
}

// isolate rebinds every local to a copy of its unfrozen composites, so
// in-place mutations stop reaching values the snapshot still holds. Locals
// that shared a composite share its copy.
func (f *frame) isolate() {
	seen := make(map[value.Value]value.Value)
	for i, v := range f.locals {
		if v != nil {
			f.locals[i] = value.Isolate(v, seen)
		}
	}
}
