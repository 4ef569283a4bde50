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

// TestCallingGeneratorFunctionAsValueIsDrivableThroughNext exercises
// calling a Generator-convention function the way script bytecode
// would (as a first-class Value, not a host-level entry point): the
// call produces a PendingExecution wrapper, and NEXT on it — routed
// through execution.Module()'s protocol handler — drives the
// generator one step at a time, matching what a direct
// VmExecution.IntoGenerator().Next() call would yield.
func TestCallingGeneratorFunctionAsValueIsDrivableThroughNext(t *testing.T) {
	b := unit.NewBuilder()
	one := b.AddConstant(value.FromInt(1))
	two := b.AddConstant(value.FromInt(2))
	three := b.AddConstant(value.FromInt(3))
	genHash := value.HashPath("test::counter")
	b.Emit(unit.Inst{Op: unit.OpLoadConst, B: int32(one), Out: unit.Keep(0)})
	b.Emit(unit.Inst{Op: unit.OpYield, A: 0, Out: unit.Keep(0)})
	b.Emit(unit.Inst{Op: unit.OpLoadConst, B: int32(two), Out: unit.Keep(0)})
	b.Emit(unit.Inst{Op: unit.OpYield, A: 0, Out: unit.Keep(0)})
	b.Emit(unit.Inst{Op: unit.OpLoadConst, B: int32(three), Out: unit.Keep(0)})
	b.Emit(unit.Inst{Op: unit.OpReturn, A: 0})
	b.AddFunction(genHash, unit.Entry{Offset: 0, Arity: 0, Convention: unit.ConvGenerator, Name: "counter"})
	u := b.Build()
	ctx := unit.NewContext(execution.Module())
	m := vm.New(u, ctx)

	fn := value.NewAny(value.TypeFunction, &unit.Function{
		Kind:       unit.FunctionBytecode,
		Hash:       genHash,
		Name:       "counter",
		Convention: unit.ConvGenerator,
		Offset:     0,
	}, nil)

	pending, err := m.CallValue(fn, nil)
	require.NoError(t, err)
	_, ok := vm.AsPendingExecution(pending)
	require.True(t, ok)

	first, err := m.Dispatch(value.ProtocolNext, []value.Value{pending})
	require.NoError(t, err)
	v1, err := vm.TupleIndexGet(first, 0)
	require.NoError(t, err)
	i1, _ := v1.AsInt()
	assert.EqualValues(t, 1, i1)

	second, err := m.Dispatch(value.ProtocolNext, []value.Value{pending})
	require.NoError(t, err)
	v2, err := vm.TupleIndexGet(second, 0)
	require.NoError(t, err)
	i2, _ := v2.AsInt()
	assert.EqualValues(t, 2, i2)

	third, err := m.Dispatch(value.ProtocolNext, []value.Value{pending})
	require.NoError(t, err)
	_, err = vm.TupleIndexGet(third, 0)
	require.Error(t, err, "generator exhausted, NEXT must return None")
}
