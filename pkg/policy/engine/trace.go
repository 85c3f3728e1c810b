package engine

import (
	"fmt"
	"strings"
	"time"

	"mercator-hq/irvm/pkg/ir"
)

// TraceOp identifies a trace event.
type TraceOp string

const (
	TraceEnter     TraceOp = "enter"     // plan or function entered
	TraceExit      TraceOp = "exit"      // plan or function finished
	TraceEval      TraceOp = "eval"      // statement defined
	TraceFail      TraceOp = "fail"      // statement undefined
	TraceBreak     TraceOp = "break"     // statement left enclosing blocks
	TraceException TraceOp = "exception" // statement raised an exception
)

// Trace records an evaluation for debugging.
type Trace struct {
	// Events are in execution order.
	Events []*TraceEvent

	// TotalTime is the total evaluation time.
	TotalTime time.Duration
}

// TraceEvent is a single step in the trace.
type TraceEvent struct {
	Op TraceOp

	// Node is a plan or function name, or a statement type.
	Node string

	// Depth is the function call depth.
	Depth int

	Location ir.Location
}

func (t *Trace) add(op TraceOp, node string, depth int, loc ir.Location) {
	if t == nil {
		return
	}
	t.Events = append(t.Events, &TraceEvent{Op: op, Node: node, Depth: depth, Location: loc})
}

// String renders the trace one event per line, indented by call depth.
func (t *Trace) String() string {
	if t == nil {
		return ""
	}
	var sb strings.Builder
	for _, ev := range t.Events {
		sb.WriteString(strings.Repeat("  ", ev.Depth))
		if ev.Location.IsValid() {
			sb.WriteString(fmt.Sprintf("%-9s %s %s\n", ev.Op, ev.Node, ev.Location))
		} else {
			sb.WriteString(fmt.Sprintf("%-9s %s\n", ev.Op, ev.Node))
		}
	}
	return sb.String()
}
