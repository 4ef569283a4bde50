package execution

import (
	"context"

	"github.com/rael-lang/rael/pkg/stack"
	"github.com/rael-lang/rael/pkg/value"
	"github.com/rael-lang/rael/pkg/vm"
	"github.com/rael-lang/rael/pkg/vmerr"
)

// AsyncComplete drives the execution to termination, resolving any
// Awaited halt by blocking on the future through ctx (spec §4.5
// "async_complete()"). It fails the same way Complete does if the
// execution yields instead of exiting.
func (e *VmExecution) AsyncComplete(ctx context.Context, budget *vm.Budget) (value.Value, error) {
	gs, err := e.AsyncResume(ctx, budget)
	if err != nil {
		return value.Value{}, err
	}
	if gs.Yielded {
		return value.Value{}, vmerr.New(vmerr.KindHaltedUnexpectedly, "execution yielded instead of completing")
	}
	return gs.Value, nil
}

// AsyncResume is Resume's async counterpart: it additionally resolves
// Awaited halts (spec §4.5 "async_resume()").
func (e *VmExecution) AsyncResume(ctx context.Context, budget *vm.Budget) (GeneratorState, error) {
	return e.asyncResumeWith(ctx, budget, value.Unit)
}

// AsyncResumeWith is ResumeWith's async counterpart.
func (e *VmExecution) AsyncResumeWith(ctx context.Context, budget *vm.Budget, v value.Value) (GeneratorState, error) {
	if e.state != StateResumed {
		return GeneratorState{}, vmerr.New(vmerr.KindWrongExecutionState, "resume_with requires Resumed state, got %s", e.state)
	}
	return e.asyncResumeWith(ctx, budget, v)
}

func (e *VmExecution) asyncResumeWith(ctx context.Context, budget *vm.Budget, v value.Value) (GeneratorState, error) {
	if e.state == StateResumed {
		if err := e.VM.Stack.Store(stack.Keep(e.resumedOut), v); err != nil {
			return GeneratorState{}, err
		}
	}
	e.state = StateSuspended
	return e.innerResumeAsync(ctx, budget)
}

// innerResumeAsync mirrors innerResume, adding the Awaited case: poll
// the future to completion through ctx, deposit its result, and keep
// driving the same halt loop (spec §4.5 "Awaited(future) -> poll the
// future; on ready, store its result at the designated output and
// continue").
func (e *VmExecution) innerResumeAsync(ctx context.Context, budget *vm.Budget) (GeneratorState, error) {
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
		case vm.HaltAwaited:
			if err := e.resolveAwait(ctx, halt); err != nil {
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

// AsyncStep is Step's async counterpart, resolving an Awaited halt
// inline rather than failing on it.
func (e *VmExecution) AsyncStep(ctx context.Context) (*value.Value, error) {
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
	case vm.HaltAwaited:
		if err := e.resolveAwait(ctx, halt); err != nil {
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

func (e *VmExecution) resolveAwait(ctx context.Context, halt vm.Halt) error {
	fut, ok := asFuture(halt.Awaited)
	if !ok {
		return vmerr.New(vmerr.KindExpectedAny, "await: operand is not a future")
	}
	v, err := fut.Await(ctx)
	if err != nil {
		return vmerr.Wrap(vmerr.KindHostError, err, "future await failed")
	}
	return e.VM.Stack.Store(stack.Keep(halt.OutAddr), v)
}
