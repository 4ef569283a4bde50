package vm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rael-lang/rael/pkg/unit"
	"github.com/rael-lang/rael/pkg/value"
	"github.com/rael-lang/rael/pkg/vm"
	"github.com/rael-lang/rael/pkg/vmerr"
)

func TestCallValueNative(t *testing.T) {
	m := newTestVM()
	double := value.NewAny(value.TypeFunction, &unit.Function{
		Kind:  unit.FunctionNative,
		Name:  "double",
		Arity: 1,
		Native: func(args []value.Value) (value.Value, error) {
			n, _ := args[0].AsInt()
			return value.FromInt(n * 2), nil
		},
	}, nil)

	result, err := m.CallValue(double, []value.Value{value.FromInt(21)})
	require.NoError(t, err)
	i, _ := result.AsInt()
	assert.EqualValues(t, 42, i)
}

func TestCallValueNonImmediateConventionWraps(t *testing.T) {
	b := unit.NewBuilder()
	fnHash := value.HashPath("test::gen")
	b.AddFunction(fnHash, unit.Entry{Offset: 0, Arity: 0, Convention: unit.ConvGenerator, Name: "gen"})
	u := b.Build()
	m := vm.New(u, unit.NewContext())

	fn := value.NewAny(value.TypeFunction, &unit.Function{
		Kind:       unit.FunctionBytecode,
		Hash:       fnHash,
		Name:       "gen",
		Convention: unit.ConvGenerator,
		Offset:     0,
	}, nil)

	result, err := m.CallValue(fn, nil)
	require.NoError(t, err)
	pe, ok := vm.AsPendingExecution(result)
	require.True(t, ok)
	assert.Equal(t, unit.ConvGenerator, pe.Convention)
}

func TestCallValueBytecodeNestedCall(t *testing.T) {
	b := unit.NewBuilder()
	idx := b.AddConstant(value.FromInt(9))
	b.Emit(unit.Inst{Op: unit.OpLoadConst, B: int32(idx), Out: unit.Keep(0)})
	b.Emit(unit.Inst{Op: unit.OpAdd, A: 0, B: 0, Out: unit.Keep(0)})
	b.Emit(unit.Inst{Op: unit.OpReturn, A: 0})
	fnHash := value.HashPath("test::double_const")
	b.AddFunction(fnHash, unit.Entry{Offset: 0, Arity: 0, Convention: unit.ConvImmediate, Name: "double_const"})
	u := b.Build()
	m := vm.New(u, unit.NewContext())
	require.NoError(t, m.Stack.Resize(1))

	fn := value.NewAny(value.TypeFunction, &unit.Function{
		Kind:       unit.FunctionBytecode,
		Hash:       fnHash,
		Name:       "double_const",
		Convention: unit.ConvImmediate,
		Offset:     0,
	}, nil)

	result, err := m.CallValue(fn, nil)
	require.NoError(t, err)
	i, _ := result.AsInt()
	assert.EqualValues(t, 18, i)
}

func TestCallValueUnitStructCtor(t *testing.T) {
	m := newTestVM()
	rtti := &unit.Rtti{Item: "Nothing", Hash: value.HashPath("test::Nothing"), CtorArity: 0}
	fn := value.NewAny(value.TypeFunction, &unit.Function{
		Kind:     unit.FunctionUnitStructCtor,
		Name:     "Nothing",
		CtorRtti: rtti,
	}, nil)

	result, err := m.CallValue(fn, nil)
	require.NoError(t, err)
	assert.Equal(t, rtti.Hash, result.Type())
}

func TestCallValueNotCallable(t *testing.T) {
	m := newTestVM()
	_, err := m.CallValue(value.FromInt(5), nil)
	require.Error(t, err)
	assert.True(t, vmerr.Is(err, vmerr.KindUnsupportedCallTarget))
}
