package vm

import (
	"github.com/rael-lang/rael/pkg/stack"
	"github.com/rael-lang/rael/pkg/unit"
	"github.com/rael-lang/rael/pkg/value"
	"github.com/rael-lang/rael/pkg/vmerr"
)

// CallValue invokes fn with args and returns its result. A function
// with the immediate calling convention runs inline to completion on
// this VM (spec §4.4.5's *immediate* calling convention: "run inline,
// inherit the current VM"). A bytecode or closure function with a
// generator, stream or async convention is not run here: CallValue
// returns a PendingExecution value wrapping the call, which the
// execution driver (pkg/execution) runs when it is driven.
func (m *VM) CallValue(fn value.Value, args []value.Value) (value.Value, error) {
	uf, err := asFunction(fn)
	if err != nil {
		return value.Value{}, err
	}
	return m.callFunction(uf, args)
}

// asFunction downcasts fn to its *unit.Function metadata, the common
// first step of both CallValue and the OpCall/OpCallFn instruction
// bodies.
func asFunction(fn value.Value) (*unit.Function, error) {
	f, ok := fn.AsAny(value.TypeFunction)
	if !ok {
		return nil, vmerr.New(vmerr.KindUnsupportedCallTarget, "value is not callable")
	}
	return f.(*unit.Function), nil
}

func (m *VM) callFunction(uf *unit.Function, args []value.Value) (value.Value, error) {
	switch uf.Kind {
	case unit.FunctionNative:
		if uf.Native == nil {
			return value.Value{}, vmerr.New(vmerr.KindMissingFunction, "%s: native function has no implementation", uf.Name)
		}
		return uf.Native(args)

	case unit.FunctionUnitStructCtor:
		if len(args) != 0 {
			return value.Value{}, vmerr.New(vmerr.KindBadArgCount, "%s: unit struct takes no arguments", uf.Name)
		}
		return m.MakeEmptyStruct(uf.CtorRtti), nil

	case unit.FunctionTupleStructCtor:
		return m.MakeTupleStruct(uf.CtorRtti, args)

	case unit.FunctionBytecode, unit.FunctionClosure:
		full := args
		if uf.Kind == unit.FunctionClosure && len(uf.Environment) > 0 {
			full = append(append([]value.Value{}, uf.Environment...), args...)
		}
		if uf.Convention != unit.ConvImmediate {
			// Generator/stream/async conventions can't run inline to a
			// single result — wrap the call as a first-class pending
			// execution value instead (spec §4.4.5), so it is reachable
			// from any call site, not just a host-level entry point.
			return NewPendingExecution(uf, full, m.Unit, m.Ctx), nil
		}
		return m.runNested(uf.Offset, full)
	}
	return value.Value{}, vmerr.New(vmerr.KindUnsupportedCallTarget, "unknown function kind %d", uf.Kind)
}

// runNested executes the function body at offset with the given
// arguments loaded into a fresh register window, driving it to
// completion inline (used by CallValue and by the OpCall/OpCallOffset/
// OpCallFn instruction bodies for immediate-convention callees). It
// does not handle yield/await: any halt other than Exited (a yield, an
// await or an exhausted budget) is returned as a KindHaltedUnexpectedly
// error.
func (m *VM) runNested(offset int, args []value.Value) (value.Value, error) {
	savedIP := m.ip
	oldBase, oldTop := m.Stack.Base(), m.Stack.Top()
	newBase := oldBase + oldTop

	cf := stack.CallFrame{ReturnIP: savedIP, CallerBase: oldBase, CallerTop: oldTop, Output: stack.Discard()}
	m.Frames.Push(cf)
	m.Stack.SetBase(newBase, 0)
	if err := m.Stack.Resize(len(args)); err != nil {
		return value.Value{}, err
	}
	for i, a := range args {
		if err := m.Stack.Store(stack.Keep(i), a); err != nil {
			return value.Value{}, err
		}
	}
	m.ip = offset

	halt, err := m.Run(nil)

	m.Stack.SetBase(oldBase, oldTop)
	m.Frames.Pop()
	m.ip = savedIP

	if err != nil {
		return value.Value{}, err
	}

	switch halt.Kind {
	case HaltExited:
		return halt.Value, nil
	default:
		return value.Value{}, vmerr.New(vmerr.KindHaltedUnexpectedly, "nested call halted unexpectedly: %v", halt.Kind)
	}
}
