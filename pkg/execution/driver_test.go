package execution_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rael-lang/rael/pkg/execution"
	"github.com/rael-lang/rael/pkg/unit"
	"github.com/rael-lang/rael/pkg/value"
	"github.com/rael-lang/rael/pkg/vm"
)

// newPlainExec builds a unit that loads 40, adds it to itself, and
// returns, wrapped as a fresh execution.
func newPlainExec(t *testing.T) *execution.VmExecution {
	t.Helper()
	b := unit.NewBuilder()
	idx := b.AddConstant(value.FromInt(40))
	b.Emit(unit.Inst{Op: unit.OpLoadConst, B: int32(idx), Out: unit.Keep(0)})
	b.Emit(unit.Inst{Op: unit.OpLoadConst, B: int32(idx), Out: unit.Keep(1)})
	b.Emit(unit.Inst{Op: unit.OpAdd, A: 0, B: 1, Out: unit.Keep(0)})
	b.Emit(unit.Inst{Op: unit.OpReturn, A: 0})
	u := b.Build()
	m := vm.New(u, unit.NewContext())
	require.NoError(t, m.Stack.Resize(2))
	return execution.New(m)
}

func TestCompleteRunsToExit(t *testing.T) {
	e := newPlainExec(t)
	v, err := e.Complete(nil)
	require.NoError(t, err)
	i, ok := v.AsInt()
	require.True(t, ok)
	assert.EqualValues(t, 80, i)
	assert.Equal(t, execution.StateExited, e.State())
}

// newYieldingExec builds a unit that loads 7, yields it, then returns
// whatever value is resumed with.
func newYieldingExec(t *testing.T) *execution.VmExecution {
	t.Helper()
	b := unit.NewBuilder()
	idx := b.AddConstant(value.FromInt(7))
	b.Emit(unit.Inst{Op: unit.OpLoadConst, B: int32(idx), Out: unit.Keep(0)})
	b.Emit(unit.Inst{Op: unit.OpYield, A: 0, Out: unit.Keep(0)})
	b.Emit(unit.Inst{Op: unit.OpReturn, A: 0})
	u := b.Build()
	m := vm.New(u, unit.NewContext())
	require.NoError(t, m.Stack.Resize(1))
	return execution.New(m)
}

func TestResumeStopsAtYield(t *testing.T) {
	e := newYieldingExec(t)
	gs, err := e.Resume(nil)
	require.NoError(t, err)
	assert.True(t, gs.Yielded)
	i, _ := gs.Value.AsInt()
	assert.EqualValues(t, 7, i)
	assert.True(t, e.IsResumed())
}

func TestResumeWithDepositsValueAndContinues(t *testing.T) {
	e := newYieldingExec(t)
	_, err := e.Resume(nil)
	require.NoError(t, err)

	gs, err := e.ResumeWith(nil, value.FromInt(99))
	require.NoError(t, err)
	assert.False(t, gs.Yielded)
	i, _ := gs.Value.AsInt()
	assert.EqualValues(t, 99, i)
	assert.Equal(t, execution.StateExited, e.State())
}

func TestResumeWithBeforeYieldIsWrongState(t *testing.T) {
	e := newYieldingExec(t)
	_, err := e.ResumeWith(nil, value.FromInt(1))
	require.Error(t, err)
}

func TestCompleteFailsWhenExecutionYields(t *testing.T) {
	e := newYieldingExec(t)
	_, err := e.Complete(nil)
	require.Error(t, err)
}

// TestIsolationCrossingCallReturnsToCaller builds a callee unit that
// doubles its argument, and a caller unit that holds a function value
// targeting the callee (constructed with vm.MakeVmCallFunction) and
// calls it. This exercises the full HaltVmCall round trip: the callee
// runs under its own unit/context and pushState/popState hand control
// back to the caller with the result deposited at the call's output.
func TestIsolationCrossingCallReturnsToCaller(t *testing.T) {
	calleeB := unit.NewBuilder()
	calleeHash := value.HashPath("test::double")
	calleeB.Emit(unit.Inst{Op: unit.OpAdd, A: 0, B: 0, Out: unit.Keep(0)})
	calleeB.Emit(unit.Inst{Op: unit.OpReturn, A: 0})
	calleeB.AddFunction(calleeHash, unit.Entry{Offset: 0, Arity: 1, Convention: unit.ConvImmediate, Name: "double"})
	calleeUnit := calleeB.Build()
	calleeCtx := unit.NewContext()

	callerVM := vm.New(unit.NewBuilder().Build(), unit.NewContext())
	fn, err := callerVM.MakeVmCallFunction(calleeUnit, calleeCtx, calleeHash)
	require.NoError(t, err)

	callerB := unit.NewBuilder()
	fnIdx := callerB.AddConstant(fn)
	argIdx := callerB.AddConstant(value.FromInt(21))
	callerB.Emit(unit.Inst{Op: unit.OpLoadConst, B: int32(fnIdx), Out: unit.Keep(0)})
	callerB.Emit(unit.Inst{Op: unit.OpLoadConst, B: int32(argIdx), Out: unit.Keep(1)})
	callerB.Emit(unit.Inst{Op: unit.OpCall, A: 0, B: 1, C: 1, Out: unit.Keep(0)})
	callerB.Emit(unit.Inst{Op: unit.OpReturn, A: 0})
	callerUnit := callerB.Build()

	m := vm.New(callerUnit, unit.NewContext())
	require.NoError(t, m.Stack.Resize(2))
	e := execution.New(m)

	v, err := e.Complete(nil)
	require.NoError(t, err)
	i, ok := v.AsInt()
	require.True(t, ok)
	assert.EqualValues(t, 42, i)
	assert.Equal(t, execution.StateExited, e.State())
}

// TestCloseDropsLiveRegisters confirms Close tears a still-running
// execution down by releasing every live register rather than erroring
// or leaking them; calling it twice is harmless.
func TestCloseDropsLiveRegisters(t *testing.T) {
	e := newYieldingExec(t)
	_, err := e.Resume(nil)
	require.NoError(t, err)
	require.True(t, e.IsResumed())

	e.Close()
	assert.Equal(t, execution.StateExited, e.State())
	e.Close()
}

func TestStepAdvancesOneInstructionAtATime(t *testing.T) {
	e := newPlainExec(t)
	var final *value.Value
	var err error
	steps := 0
	for final == nil {
		final, err = e.Step()
		require.NoError(t, err)
		steps++
		require.Less(t, steps, 100)
	}
	i, ok := final.AsInt()
	require.True(t, ok)
	assert.EqualValues(t, 80, i)
	assert.Greater(t, steps, 1)
}
