// Package stack implements the VM's register file and call-frame stack
// (spec §3.4, §4.2): a contiguous sequence of Values addressed
// frame-relatively, plus the bookkeeping a call/return pair needs to
// restore the caller's addressing and deliver a result.
//
// This replaces the teacher's value-stack-plus-locals-array design
// (pkg/vm/vm.go's `stack []interface{}` / `sp int` / `locals
// []interface{}`) with a single flat register file: "locals" and
// "temporaries" are the same address space, addressed relative to the
// current frame's base, which is what a register machine needs instead
// of a push/pop operand stack.
package stack

import (
	"fmt"

	"github.com/rael-lang/rael/pkg/value"
)

// Stack is the VM's register file: every address a running frame uses
// is relative to that frame's base within this single backing slice.
type Stack struct {
	regs []value.Value
	// base is the current frame's base register; Addr 0 means
	// regs[base].
	base int
	// top is one past the highest register ever resized into use by
	// the *current* frame; frames below base are owned by callers and
	// are left untouched by resize/drop operations in this frame.
	top int
}

// New creates an empty stack with capacity initial registers
// pre-allocated (grown automatically by Resize as needed).
func New(initial int) *Stack {
	if initial <= 0 {
		initial = 64
	}
	return &Stack{regs: make([]value.Value, initial)}
}

// Base returns the current frame's base register index in the backing
// slice, used by the call-frame stack when saving/restoring frames.
func (s *Stack) Base() int { return s.base }

// Top returns how many registers (relative to base) are currently
// resized into the frame.
func (s *Stack) Top() int { return s.top }

// SetBase repositions the frame base, used when entering/leaving a call
// frame. It does not itself touch register contents.
func (s *Stack) SetBase(base, top int) {
	s.base = base
	s.top = top
}

func (s *Stack) ensureCapacity(n int) {
	if n <= len(s.regs) {
		return
	}
	newCap := len(s.regs) * 2
	if newCap < n {
		newCap = n
	}
	grown := make([]value.Value, newCap)
	copy(grown, s.regs)
	s.regs = grown
}

// OutOfRangeError is returned whenever an address falls outside the
// current frame's resized window.
type OutOfRangeError struct {
	Addr, Len int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("stack: address %d out of range (frame has %d registers)", e.Addr, e.Len)
}

func (s *Stack) check(addr int) error {
	if addr < 0 || addr >= s.top {
		return &OutOfRangeError{Addr: addr, Len: s.top}
	}
	return nil
}

// At returns the Value at frame-relative address addr.
func (s *Stack) At(addr int) (value.Value, error) {
	if err := s.check(addr); err != nil {
		return value.Value{}, err
	}
	return s.regs[s.base+addr], nil
}

// SliceAt returns a contiguous view of n registers starting at addr,
// used for marshalling arguments into protocol handlers and native
// calls (spec §4.1 "protocol invocation... given arguments").
func (s *Stack) SliceAt(addr, n int) ([]value.Value, error) {
	if n < 0 || addr < 0 || addr+n > s.top {
		return nil, &OutOfRangeError{Addr: addr + n - 1, Len: s.top}
	}
	return s.regs[s.base+addr : s.base+addr+n], nil
}

// OutputSlot is the addressing mode instructions use to say where a
// result should go (spec §3.4, §4.2): either Keep(addr) or Discard.
type OutputSlot struct {
	discard bool
	addr    int
}

// Keep builds an output slot that stores to addr.
func Keep(addr int) OutputSlot { return OutputSlot{addr: addr} }

// Discard builds an output slot that drops the value.
func Discard() OutputSlot { return OutputSlot{discard: true} }

// IsDiscard reports whether the slot discards its value.
func (o OutputSlot) IsDiscard() bool { return o.discard }

// Addr returns the target address; only meaningful when !IsDiscard().
func (o OutputSlot) Addr() int { return o.addr }

// Store writes v to the output slot: Keep stores it (dropping whatever
// was previously there), Discard drops v immediately.
func (s *Stack) Store(out OutputSlot, v value.Value) error {
	if out.discard {
		v.Drop()
		return nil
	}
	if err := s.check(out.addr); err != nil {
		return err
	}
	s.regs[s.base+out.addr].Drop()
	s.regs[s.base+out.addr] = v
	return nil
}

// Resize extends the current frame to at least n registers,
// initializing any newly-exposed slots to Unit (spec §4.2: "resize(n)
// — extend the current frame to at least n registers, initializing new
// slots to unit"). The interpreter never implicitly extends; every
// growth is an explicit resize opcode.
func (s *Stack) Resize(n int) error {
	if n < s.top {
		// Shrinking: drop the registers being removed.
		for i := n; i < s.top; i++ {
			s.regs[s.base+i].Drop()
		}
		s.top = n
		return nil
	}
	s.ensureCapacity(s.base + n)
	for i := s.top; i < n; i++ {
		s.regs[s.base+i] = value.Unit
	}
	s.top = n
	return nil
}

// Swap exchanges the contents of two registers.
func (s *Stack) Swap(a, b int) error {
	if err := s.check(a); err != nil {
		return err
	}
	if err := s.check(b); err != nil {
		return err
	}
	s.regs[s.base+a], s.regs[s.base+b] = s.regs[s.base+b], s.regs[s.base+a]
	return nil
}

// Copy clones the value at src into dst (a Value.Clone, not a deep
// clone — see spec §4.1).
func (s *Stack) Copy(src, dst int) error {
	v, err := s.At(src)
	if err != nil {
		return err
	}
	return s.Store(Keep(dst), v.Clone())
}

// Move relocates the value at src into dst, leaving unit behind at src
// (spec §4.2: "move(src, dst) — move-out leaves unit behind").
func (s *Stack) Move(src, dst int) error {
	if err := s.check(src); err != nil {
		return err
	}
	v := s.regs[s.base+src]
	s.regs[s.base+src] = value.Unit
	return s.Store(Keep(dst), v)
}

// Drop releases the value at addr and leaves unit behind.
func (s *Stack) Drop(addr int) error {
	if err := s.check(addr); err != nil {
		return err
	}
	s.regs[s.base+addr].Drop()
	s.regs[s.base+addr] = value.Unit
	return nil
}

// DropSet releases a preregistered group of registers in one step (the
// DROP_SET instruction of spec §4.4.2), used by the compiler to clean up
// several locals at a scope exit in a single instruction.
func (s *Stack) DropSet(addrs []int) error {
	for _, a := range addrs {
		if err := s.Drop(a); err != nil {
			return err
		}
	}
	return nil
}

// Push appends a value past the current frame's window; legal only
// during argument marshalling outside a frame (spec §4.2), i.e. before a
// call has shifted the base to the new frame.
func (s *Stack) Push(v value.Value) {
	s.ensureCapacity(s.base + s.top + 1)
	s.regs[s.base+s.top] = v
	s.top++
}

// Pop removes and returns the last pushed value.
func (s *Stack) Pop() (value.Value, error) {
	if s.top == 0 {
		return value.Value{}, &OutOfRangeError{Addr: -1, Len: 0}
	}
	s.top--
	v := s.regs[s.base+s.top]
	s.regs[s.base+s.top] = value.Value{}
	return v, nil
}

// Len reports the absolute length of the backing register slice, used
// by the stack-balance invariant check in tests.
func (s *Stack) Len() int { return len(s.regs) }

// DropAllReverse releases every register from the current frame's top
// down through address 0 of the backing slice, in reverse push order.
// Suspended outer frames (entered via isolation-crossing calls) share
// this same backing slice below the current base, so this reaches
// their still-live values too — exactly what a driver's teardown needs
// when it abandons an execution before it runs to completion (spec §5
// "dropping a driver runs destructors on every live Value in the stack
// in reverse push order"). Each register's own Value.Drop already
// contains the drop-failure recovery (see pkg/value.Cell.Release), so
// one destructor panicking here doesn't stop the rest from being
// dropped.
func (s *Stack) DropAllReverse() {
	n := s.base + s.top
	for i := n - 1; i >= 0; i-- {
		s.regs[i].Drop()
		s.regs[i] = value.Unit
	}
	s.top = 0
}
