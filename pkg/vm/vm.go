// Package vm implements the fetch-decode-execute loop, protocol
// dispatch, and the built-in instruction family of spec §4.4. It
// replaces the teacher's pkg/vm (vm.go's send/Run loop over
// string-selector messages) with a register-addressed, hash-keyed
// dispatch loop, but keeps the teacher's overall shape: a single
// struct owning the machine state, a Run method driving instructions
// one at a time, and a layered "built-in primitive, else user handler,
// else error" resolution order (the teacher's send() falls back from
// class method lookup to hardcoded primitives; this VM falls back from
// a registered protocol handler to a built-in default, spec §4.4.3).
package vm

import (
	"github.com/rael-lang/rael/pkg/stack"
	"github.com/rael-lang/rael/pkg/unit"
	"github.com/rael-lang/rael/pkg/value"
	"github.com/rael-lang/rael/pkg/vmerr"
)

// VM is one register machine bound to a Unit and a RuntimeContext
// (spec §3.3, §4.3). It is not safe for concurrent use (spec §5).
type VM struct {
	Stack  *stack.Stack
	Frames *stack.Frames
	Unit   *unit.Unit
	Ctx    *unit.RuntimeContext

	ip        int
	currentFn string
}

// New creates a VM bound to u and ctx, with an empty register file
// ready to receive arguments at register 0 for the entry function.
func New(u *unit.Unit, ctx *unit.RuntimeContext) *VM {
	return &VM{
		Stack:  stack.New(64),
		Frames: stack.NewFrames(),
		Unit:   u,
		Ctx:    ctx,
	}
}

// IP returns the current instruction pointer, used by vmerr.Frame
// construction on unwind.
func (m *VM) IP() int { return m.ip }

// SetIP repositions the instruction pointer, used when entering a
// function at its Entry.Offset.
func (m *VM) SetIP(ip int) { m.ip = ip }

// CurrentFunction returns the function name recorded for diagnostics.
// Nothing in this package records one, so it returns an empty string.
func (m *VM) CurrentFunction() string { return m.currentFn }

func (m *VM) frame(ip int) vmerr.Frame {
	return vmerr.Frame{Unit: "unit", Function: m.currentFn, IP: ip}
}
