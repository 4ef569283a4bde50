package vm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rael-lang/rael/pkg/unit"
	"github.com/rael-lang/rael/pkg/value"
	"github.com/rael-lang/rael/pkg/vm"
)

func TestRunAddAndReturn(t *testing.T) {
	b := unit.NewBuilder()
	idx := b.AddConstant(value.FromInt(40))
	b.Emit(unit.Inst{Op: unit.OpLoadConst, B: int32(idx), Out: unit.Keep(0)})
	b.Emit(unit.Inst{Op: unit.OpLoadConst, B: int32(idx), Out: unit.Keep(1)})
	b.Emit(unit.Inst{Op: unit.OpAdd, A: 0, B: 1, Out: unit.Keep(0)})
	b.Emit(unit.Inst{Op: unit.OpReturn, A: 0})
	u := b.Build()
	ctx := unit.NewContext()

	m := vm.New(u, ctx)
	require.NoError(t, m.Stack.Resize(2))
	halt, err := m.Run(nil)
	require.NoError(t, err)
	require.Equal(t, vm.HaltExited, halt.Kind)
	i, ok := halt.Value.AsInt()
	require.True(t, ok)
	assert.EqualValues(t, 80, i)
}

func TestRunBudgetExhausted(t *testing.T) {
	b := unit.NewBuilder()
	l := b.Emit(unit.Inst{Op: unit.OpNop})
	b.Emit(unit.Inst{Op: unit.OpJump, A: int32(l)})
	u := b.Build()
	ctx := unit.NewContext()

	m := vm.New(u, ctx)
	halt, err := m.Run(&vm.Budget{Remaining: 5})
	require.NoError(t, err)
	assert.Equal(t, vm.HaltLimited, halt.Kind)
}

func TestRunJumpIf(t *testing.T) {
	b := unit.NewBuilder()
	trueIdx := b.AddConstant(value.FromBool(true))
	oneEleven := b.AddConstant(value.FromInt(111))
	twoTwoTwo := b.AddConstant(value.FromInt(222))
	b.Emit(unit.Inst{Op: unit.OpLoadConst, B: int32(trueIdx), Out: unit.Keep(0)})
	b.Emit(unit.Inst{Op: unit.OpJumpIf, A: 0, B: 4})
	b.Emit(unit.Inst{Op: unit.OpLoadConst, B: int32(oneEleven), Out: unit.Keep(1)})
	b.Emit(unit.Inst{Op: unit.OpReturn, A: 1})
	b.Emit(unit.Inst{Op: unit.OpLoadConst, B: int32(twoTwoTwo), Out: unit.Keep(1)})
	b.Emit(unit.Inst{Op: unit.OpReturn, A: 1})
	u := b.Build()
	ctx := unit.NewContext()

	m := vm.New(u, ctx)
	require.NoError(t, m.Stack.Resize(2))
	halt, err := m.Run(nil)
	require.NoError(t, err)
	require.Equal(t, vm.HaltExited, halt.Kind)
	i, _ := halt.Value.AsInt()
	assert.EqualValues(t, 222, i)
}

func TestRunYieldHalts(t *testing.T) {
	b := unit.NewBuilder()
	idx := b.AddConstant(value.FromInt(7))
	b.Emit(unit.Inst{Op: unit.OpLoadConst, B: int32(idx), Out: unit.Keep(0)})
	b.Emit(unit.Inst{Op: unit.OpYield, A: 0, Out: unit.Keep(0)})
	u := b.Build()
	ctx := unit.NewContext()

	m := vm.New(u, ctx)
	require.NoError(t, m.Stack.Resize(1))
	halt, err := m.Run(nil)
	require.NoError(t, err)
	require.Equal(t, vm.HaltYielded, halt.Kind)
	i, _ := halt.Value.AsInt()
	assert.EqualValues(t, 7, i)
}

func TestRunDivideByZero(t *testing.T) {
	b := unit.NewBuilder()
	zero := b.AddConstant(value.FromInt(0))
	ten := b.AddConstant(value.FromInt(10))
	b.Emit(unit.Inst{Op: unit.OpLoadConst, B: int32(ten), Out: unit.Keep(0)})
	b.Emit(unit.Inst{Op: unit.OpLoadConst, B: int32(zero), Out: unit.Keep(1)})
	b.Emit(unit.Inst{Op: unit.OpDiv, A: 0, B: 1, Out: unit.Keep(0)})
	b.Emit(unit.Inst{Op: unit.OpReturn, A: 0})
	u := b.Build()
	ctx := unit.NewContext()

	m := vm.New(u, ctx)
	require.NoError(t, m.Stack.Resize(2))
	_, err := m.Run(nil)
	require.Error(t, err)
}
