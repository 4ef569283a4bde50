package execution

import (
	"github.com/rael-lang/rael/pkg/stack"
	"github.com/rael-lang/rael/pkg/value"
	"github.com/rael-lang/rael/pkg/vm"
	"github.com/rael-lang/rael/pkg/vmerr"
)

// GeneratorState is the result of one Resume/AsyncResume step: either a
// yielded intermediate value or the execution's final value (spec §4.5
// "returning either Yielded(value) or Complete(value)").
type GeneratorState struct {
	Yielded bool
	Value   value.Value
}

// VmExecution owns a VM and the stack of unit/context states suspended
// by isolation-crossing calls (spec §4.5). The zero value is not usable;
// construct with New.
type VmExecution struct {
	VM    *vm.VM
	state State

	resumedOut int
	exitValue  value.Value
	states     []suspendedState
}

// New wraps m in a fresh execution, in the Initial state (spec §3.5).
func New(m *vm.VM) *VmExecution {
	return &VmExecution{VM: m, state: StateInitial}
}

// State reports the execution's current spec §3.5 state.
func (e *VmExecution) State() State { return e.state }

// IsResumed reports whether the execution is parked at a yield point
// waiting for a value to resume with.
func (e *VmExecution) IsResumed() bool { return e.state == StateResumed }

// Complete drives the execution to termination, failing if it yields
// instead (spec §4.5 "complete() — run to termination; error if the
// execution yields").
func (e *VmExecution) Complete(budget *vm.Budget) (value.Value, error) {
	gs, err := e.Resume(budget)
	if err != nil {
		return value.Value{}, err
	}
	if gs.Yielded {
		return value.Value{}, vmerr.New(vmerr.KindHaltedUnexpectedly, "execution yielded instead of completing")
	}
	return gs.Value, nil
}

// Resume runs until the next yield or termination (spec §4.5
// "resume()"). If the execution was parked in Resumed(out), unit is
// deposited at out before continuing, matching the teacher-independent
// `resume()` convenience in vm_execution.rs that defaults the resumed
// value to unit.
func (e *VmExecution) Resume(budget *vm.Budget) (GeneratorState, error) {
	return e.resumeWith(budget, value.Unit)
}

// ResumeWith deposits value at the pending yield's output address, then
// resumes (spec §4.5 "resume_with(value) — only valid when state is
// Resumed(out)").
func (e *VmExecution) ResumeWith(budget *vm.Budget, v value.Value) (GeneratorState, error) {
	if e.state != StateResumed {
		return GeneratorState{}, vmerr.New(vmerr.KindWrongExecutionState, "resume_with requires Resumed state, got %s", e.state)
	}
	return e.resumeWith(budget, v)
}

func (e *VmExecution) resumeWith(budget *vm.Budget, v value.Value) (GeneratorState, error) {
	if e.state == StateResumed {
		if err := e.VM.Stack.Store(stack.Keep(e.resumedOut), v); err != nil {
			return GeneratorState{}, err
		}
	}
	e.state = StateSuspended
	return e.innerResume(budget)
}

// innerResume drives the underlying VM, translating Exited/VmCall/
// Yielded halts into state transitions (spec §4.5 halt handling).
// Awaited is not handled here — a synchronous driver that hits it fails,
// matching vm_execution.rs's plain resume()/complete() falling into the
// generic "halted unexpectedly" arm for any halt it doesn't special-case.
func (e *VmExecution) innerResume(budget *vm.Budget) (GeneratorState, error) {
	for {
		halt, err := e.VM.Run(budget)
		if err != nil {
			return GeneratorState{}, err
		}

		switch halt.Kind {
		case vm.HaltExited:
			e.exitValue = halt.Value
			e.state = StateExited
		case vm.HaltVmCall:
			if err := e.pushState(halt.Call); err != nil {
				return GeneratorState{}, err
			}
			continue
		case vm.HaltYielded:
			e.state = StateResumed
			e.resumedOut = halt.OutAddr
			return GeneratorState{Yielded: true, Value: halt.Value}, nil
		default:
			return GeneratorState{}, vmerr.New(vmerr.KindHaltedUnexpectedly, "execution halted unexpectedly: %s", halt.Kind)
		}

		if len(e.states) == 0 {
			return GeneratorState{Value: e.exitValue}, nil
		}
		if err := e.popState(); err != nil {
			return GeneratorState{}, err
		}
	}
}

// Step advances the execution by a single instruction's worth of budget
// (spec §4.5 "step() — advance by one instruction-budget unit; used for
// debugging and cooperative interleaving"). It returns a non-nil value
// only once the execution has fully exited with no outer state left to
// resume into; otherwise it returns (nil, nil) and the caller should
// call Step again.
func (e *VmExecution) Step() (*value.Value, error) {
	halt, err := e.VM.Run(&vm.Budget{Remaining: 1})
	if err != nil {
		return nil, err
	}

	switch halt.Kind {
	case vm.HaltExited:
		e.exitValue = halt.Value
		e.state = StateExited
	case vm.HaltVmCall:
		if err := e.pushState(halt.Call); err != nil {
			return nil, err
		}
		return nil, nil
	case vm.HaltYielded:
		e.state = StateResumed
		e.resumedOut = halt.OutAddr
		return nil, nil
	case vm.HaltLimited:
		return nil, nil
	default:
		return nil, vmerr.New(vmerr.KindHaltedUnexpectedly, "execution halted unexpectedly: %s", halt.Kind)
	}

	if len(e.states) == 0 {
		v := e.exitValue
		return &v, nil
	}
	if err := e.popState(); err != nil {
		return nil, err
	}
	return nil, nil
}

// pushState installs an isolation-crossing callee's unit/context and
// register window, recording what's needed to restore the caller (spec
// §4.5 "VmCall(call) -> push the caller's unit/context onto the state
// stack, install the callee's, continue").
func (e *VmExecution) pushState(call *vm.PendingCall) error {
	sf := suspendedState{
		Unit:       e.VM.Unit,
		Ctx:        e.VM.Ctx,
		ReturnIP:   e.VM.IP(),
		CallerBase: e.VM.Stack.Base(),
		CallerTop:  e.VM.Stack.Top(),
		Output:     call.Out,
	}
	e.states = append(e.states, sf)

	e.VM.Unit = call.TargetUnit
	if call.TargetCtx != nil {
		e.VM.Ctx = call.TargetCtx
	}

	newBase := e.VM.Stack.Base() + e.VM.Stack.Top()
	e.VM.Stack.SetBase(newBase, 0)
	if err := e.VM.Stack.Resize(len(call.Args)); err != nil {
		return err
	}
	for i, a := range call.Args {
		if err := e.VM.Stack.Store(stack.Keep(i), a); err != nil {
			return err
		}
	}
	e.VM.SetIP(call.Offset)
	return nil
}

// Close tears down the execution without running it to completion:
// every register still live across the current frame and any
// suspended outer frames is dropped in reverse push order (spec §5
// "dropping a driver runs destructors on every live Value in the stack
// in reverse push order; partial-failure during drop is logged but
// never propagated"). Safe to call on an execution that has already
// exited, and safe to call more than once.
func (e *VmExecution) Close() {
	if e.state == StateExited {
		return
	}
	e.VM.Stack.DropAllReverse()
	e.states = nil
	e.state = StateExited
}

// popState restores the caller suspended by the most recent pushState,
// depositing the just-exited callee's return value at the caller's
// recorded output slot (spec §4.5 "Exited(addr) -> if the state stack is
// non-empty, pop the outer unit/context and continue").
func (e *VmExecution) popState() error {
	n := len(e.states) - 1
	sf := e.states[n]
	e.states = e.states[:n]

	e.VM.Stack.SetBase(sf.CallerBase, sf.CallerTop)
	if err := e.VM.Stack.Store(sf.Output, e.exitValue); err != nil {
		return err
	}
	e.VM.Unit = sf.Unit
	e.VM.Ctx = sf.Ctx
	e.VM.SetIP(sf.ReturnIP)
	return nil
}
