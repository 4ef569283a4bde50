// Package execution implements the execution driver of spec §4.5: it
// owns a VM and a stack of suspended unit/context states, turning the
// interpreter's raw Halt results into the state-machine transitions a
// host embeds against (complete/resume/step, and the generator/stream
// adaptors built on top of them).
//
// Grounded directly on original_source/runtime/vm_execution.rs's
// VmExecution type (push_state/pop_state around a states stack,
// inner_resume's halt-handling loop), translated from Rust's
// enum-returning control flow into Go's (value, bool, error) idiom, and
// from async/await into context.Context-gated blocking calls — the
// teacher repo has no equivalent of this layer (smog runs every method
// to completion synchronously), so this package's shape comes from
// vm_execution.rs rather than from kristofer/smog.
package execution

import (
	"fmt"

	"github.com/rael-lang/rael/pkg/stack"
	"github.com/rael-lang/rael/pkg/unit"
)

// State is one of the four execution states of spec §3.5.
type State int

const (
	StateInitial State = iota
	StateSuspended
	StateResumed
	StateExited
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StateSuspended:
		return "suspended"
	case StateResumed:
		return "resumed"
	case StateExited:
		return "exited"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// suspendedState is one entry on the state stack: the caller's unit and
// context, plus everything needed to resume the caller's frame once the
// isolation-crossing callee returns (spec §4.4.5 "isolation").
type suspendedState struct {
	Unit *unit.Unit
	Ctx  *unit.RuntimeContext

	ReturnIP              int
	CallerBase, CallerTop int
	Output                stack.OutputSlot
}
