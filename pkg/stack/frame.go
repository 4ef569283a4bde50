package stack

import "github.com/rael-lang/rael/pkg/value"

// CallFrame records everything needed to resume the caller once a
// called function returns or unwinds (spec §3.4, §4.4.5). It is
// grounded on the RegisterFrame bookkeeping in the register-VM
// reference (function/pc/baseReg/registers), adapted from a per-frame
// register array to a shared backing Stack with saved base/top instead.
type CallFrame struct {
	// ReturnIP is the instruction pointer to resume at in the caller's
	// unit once this frame returns.
	ReturnIP int
	// CallerBase and CallerTop restore the Stack's addressing window
	// to the caller's frame.
	CallerBase, CallerTop int
	// Output is where the caller wants this frame's return value
	// stored (or Discard).
	Output OutputSlot
}

// Frames is a LIFO call-frame stack, separate from the register file
// itself so returning doesn't need to scan registers for bookkeeping.
type Frames struct {
	frames []CallFrame
}

// NewFrames creates an empty call-frame stack.
func NewFrames() *Frames { return &Frames{} }

// Push records a new call frame, called just before the interpreter
// changes its base/ip to enter the callee.
func (f *Frames) Push(cf CallFrame) { f.frames = append(f.frames, cf) }

// Pop removes and returns the most recently pushed frame, or ok=false
// if the frame stack is empty (meaning the current frame is the
// outermost entry point).
func (f *Frames) Pop() (CallFrame, bool) {
	if len(f.frames) == 0 {
		return CallFrame{}, false
	}
	n := len(f.frames) - 1
	cf := f.frames[n]
	f.frames = f.frames[:n]
	return cf, true
}

// Depth reports how many frames are currently on the stack.
func (f *Frames) Depth() int { return len(f.frames) }

// Enter is a convenience that pushes a call frame and repositions the
// register stack to a fresh window for the callee in one step.
func Enter(s *Stack, frames *Frames, cf CallFrame, newBase, newTop int) {
	frames.Push(cf)
	s.SetBase(newBase, newTop)
}

// Leave restores the caller's addressing window from the popped frame
// and stores the return value into the frame's output slot. It is the
// counterpart to Enter. The interpreter does not call it: a nested
// call in pkg/vm restores the caller's window itself (VM.runNested).
func Leave(s *Stack, cf CallFrame, result value.Value) error {
	s.SetBase(cf.CallerBase, cf.CallerTop)
	return s.Store(cf.Output, result)
}
