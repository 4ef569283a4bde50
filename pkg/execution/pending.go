package execution

import (
	"context"

	"github.com/rael-lang/rael/pkg/stack"
	"github.com/rael-lang/rael/pkg/unit"
	"github.com/rael-lang/rael/pkg/value"
	"github.com/rael-lang/rael/pkg/vm"
	"github.com/rael-lang/rael/pkg/vmerr"
)

// Module returns the host module that drives pkg/vm's PendingExecution
// wrapper through the NEXT protocol (spec §4.4.5): calling a
// Generator/Stream/Async-convention function as a first-class value
// produces one of these wrappers from any call site, and this handler
// is what makes `.next()` on it actually advance the underlying
// execution, rather than that only being possible through a host-level
// entry-point switch. A program wants this module in its RuntimeContext
// whenever it may call such a function as a value.
func Module() *unit.Module {
	m := unit.NewModule("execution")
	m.AddProtocol(vm.PendingExecutionTypeHash, value.ProtocolNext, pendingExecutionNext)
	return m
}

// pendingDriver is the concrete state lazily stored in a
// PendingExecution's opaque Driver field on first NEXT, one shape per
// calling convention.
type pendingDriver struct {
	gen *Generator
	st  *Stream

	asyncDone bool
	asyncVal  value.Value
}

// pendingExecutionNext implements NEXT for PendingExecutionTypeHash,
// dispatching on the wrapped function's calling convention.
func pendingExecutionNext(args []value.Value) (value.Value, error) {
	pe, ok := vm.AsPendingExecution(args[0])
	if !ok {
		return value.Value{}, vmerr.New(vmerr.KindExpectedAny, "NEXT: not a pending execution")
	}

	switch pe.Convention {
	case unit.ConvGenerator:
		drv, ok := pe.Driver.(*pendingDriver)
		if !ok {
			exec, err := newPendingExec(pe)
			if err != nil {
				return value.Value{}, err
			}
			drv = &pendingDriver{gen: exec.IntoGenerator(nil)}
			pe.Driver = drv
		}
		if drv.gen.exec.State() == StateExited {
			return vm.NoneValue(), nil
		}
		v, more, err := drv.gen.Next()
		if err != nil {
			return value.Value{}, err
		}
		if !more {
			return vm.NoneValue(), nil
		}
		return vm.SomeValue(v), nil

	case unit.ConvStream:
		drv, ok := pe.Driver.(*pendingDriver)
		if !ok {
			exec, err := newPendingExec(pe)
			if err != nil {
				return value.Value{}, err
			}
			drv = &pendingDriver{st: exec.IntoStream(nil)}
			pe.Driver = drv
		}
		if drv.st.exec.State() == StateExited {
			return vm.NoneValue(), nil
		}
		v, more, err := drv.st.Next(context.Background())
		if err != nil {
			return value.Value{}, err
		}
		if !more {
			return vm.NoneValue(), nil
		}
		return vm.SomeValue(v), nil

	case unit.ConvAsync:
		drv, ok := pe.Driver.(*pendingDriver)
		if !ok {
			drv = &pendingDriver{}
			pe.Driver = drv
		}
		if drv.asyncDone {
			return vm.NoneValue(), nil
		}
		exec, err := newPendingExec(pe)
		if err != nil {
			return value.Value{}, err
		}
		v, err := exec.AsyncComplete(context.Background(), nil)
		if err != nil {
			return value.Value{}, err
		}
		drv.asyncDone = true
		drv.asyncVal = v
		return vm.SomeValue(v), nil

	default:
		return value.Value{}, vmerr.New(vmerr.KindUnsupportedCallTarget, "pending execution has immediate convention, nothing to drive")
	}
}

// newPendingExec builds a fresh VmExecution for pe's function, seeding
// its register window with pe.Args the same way runNested does for an
// ordinary immediate call.
func newPendingExec(pe *vm.PendingExecution) (*VmExecution, error) {
	m := vm.New(pe.Unit, pe.Ctx)
	if err := m.Stack.Resize(len(pe.Args)); err != nil {
		return nil, err
	}
	for i, a := range pe.Args {
		if err := m.Stack.Store(stack.Keep(i), a); err != nil {
			return nil, err
		}
	}
	m.SetIP(pe.Function.Offset)
	return New(m), nil
}
