package execution

import (
	"github.com/rael-lang/rael/pkg/value"
)

// Stepper drives a VmExecution one instruction at a time, pausing at
// breakpoints or after every instruction in step mode — the same
// breakpoint/step-mode pair kristofer/smog's interactive debugger
// offers, adapted into a non-interactive driver a host calls
// programmatically instead of from a terminal prompt.
type Stepper struct {
	exec        *VmExecution
	breakpoints map[int]bool
	stepMode    bool
}

// NewStepper wraps exec with breakpoint/step-mode bookkeeping.
func NewStepper(exec *VmExecution) *Stepper {
	return &Stepper{exec: exec, breakpoints: make(map[int]bool)}
}

// SetStepMode enables or disables pausing after every instruction.
func (s *Stepper) SetStepMode(enabled bool) { s.stepMode = enabled }

// AddBreakpoint pauses execution just before the instruction at ip runs.
func (s *Stepper) AddBreakpoint(ip int) { s.breakpoints[ip] = true }

// RemoveBreakpoint removes a previously added breakpoint.
func (s *Stepper) RemoveBreakpoint(ip int) { delete(s.breakpoints, ip) }

// ClearBreakpoints removes every breakpoint.
func (s *Stepper) ClearBreakpoints() { s.breakpoints = make(map[int]bool) }

// ShouldPause reports whether the stepper would pause before running
// the instruction currently at the VM's program counter.
func (s *Stepper) ShouldPause() bool {
	if s.stepMode {
		return true
	}
	return s.breakpoints[s.exec.VM.IP()]
}

// Run drives the execution via single-instruction Step calls until it
// exits, invoking onPause (if non-nil) with the program counter every
// time ShouldPause would have held before that instruction. It returns
// the execution's final value once there is no outer suspended state
// left to resume into.
func (s *Stepper) Run(onPause func(ip int)) (*value.Value, error) {
	for {
		if onPause != nil && s.ShouldPause() {
			onPause(s.exec.VM.IP())
		}
		v, err := s.exec.Step()
		if err != nil {
			return nil, err
		}
		if v != nil {
			return v, nil
		}
	}
}
