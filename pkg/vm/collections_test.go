package vm_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rael-lang/rael/pkg/unit"
	"github.com/rael-lang/rael/pkg/value"
	"github.com/rael-lang/rael/pkg/vm"
	"github.com/rael-lang/rael/pkg/vmerr"
)

func TestVecLen(t *testing.T) {
	m := newTestVM()
	vec := vm.NewVec([]value.Value{value.FromInt(1), value.FromInt(2), value.FromInt(3)})
	result, err := m.Dispatch(value.ProtocolLen, []value.Value{vec})
	require.NoError(t, err)
	n, _ := result.AsUint()
	assert.EqualValues(t, 3, n)
}

func TestVecIndexGetAndSet(t *testing.T) {
	m := newTestVM()
	vec := vm.NewVec([]value.Value{value.FromInt(10), value.FromInt(20)})

	got, err := m.Dispatch(value.ProtocolIndexGet, []value.Value{vec, value.FromInt(1)})
	require.NoError(t, err)
	n, _ := got.AsInt()
	assert.EqualValues(t, 20, n)

	_, err = m.Dispatch(value.ProtocolIndexSet, []value.Value{vec, value.FromInt(1), value.FromInt(99)})
	require.NoError(t, err)

	got, err = m.Dispatch(value.ProtocolIndexGet, []value.Value{vec, value.FromInt(1)})
	require.NoError(t, err)
	n, _ = got.AsInt()
	assert.EqualValues(t, 99, n)
}

func TestVecIndexGetOutOfRange(t *testing.T) {
	m := newTestVM()
	vec := vm.NewVec([]value.Value{value.FromInt(1)})
	_, err := m.Dispatch(value.ProtocolIndexGet, []value.Value{vec, value.FromInt(5)})
	require.Error(t, err)
	assert.True(t, vmerr.Is(err, vmerr.KindOutOfRange))
}

func TestVecIndexSetOutOfRange(t *testing.T) {
	m := newTestVM()
	vec := vm.NewVec([]value.Value{value.FromInt(1)})
	_, err := m.Dispatch(value.ProtocolIndexSet, []value.Value{vec, value.FromInt(5), value.FromInt(1)})
	require.Error(t, err)
	assert.True(t, vmerr.Is(err, vmerr.KindOutOfRange))
}

func TestVecNextBackDrainsFromTheEnd(t *testing.T) {
	m := newTestVM()
	vec := vm.NewVec([]value.Value{value.FromInt(1), value.FromInt(2), value.FromInt(3)})
	back, err := m.Dispatch(value.ProtocolNextBack, []value.Value{vec})
	require.NoError(t, err)

	first, err := m.Dispatch(value.ProtocolNext, []value.Value{back})
	require.NoError(t, err)
	// Option-shaped: unwrap via TupleIndexGet on field 0 (Some(v)).
	v, err := vm.TupleIndexGet(first, 0)
	require.NoError(t, err)
	n, _ := v.AsInt()
	assert.EqualValues(t, 3, n)
}

func TestLenOnNonVecIsTypeError(t *testing.T) {
	m := newTestVM()
	_, err := m.Dispatch(value.ProtocolLen, []value.Value{value.FromInt(5)})
	require.Error(t, err)
}

func TestVecPushAndPop(t *testing.T) {
	m := newTestVM()
	vec := vm.NewVec([]value.Value{value.FromInt(1), value.FromInt(2)})

	_, err := m.Dispatch(value.ProtocolPush, []value.Value{vec, value.FromInt(3)})
	require.NoError(t, err)

	got, err := m.Dispatch(value.ProtocolLen, []value.Value{vec})
	require.NoError(t, err)
	n, _ := got.AsUint()
	assert.EqualValues(t, 3, n)

	popped, err := m.Dispatch(value.ProtocolPop, []value.Value{vec})
	require.NoError(t, err)
	v, err := vm.TupleIndexGet(popped, 0)
	require.NoError(t, err)
	i, _ := v.AsInt()
	assert.EqualValues(t, 3, i)
}

func TestVecPopEmptyReturnsNone(t *testing.T) {
	m := newTestVM()
	vec := vm.NewVec(nil)
	popped, err := m.Dispatch(value.ProtocolPop, []value.Value{vec})
	require.NoError(t, err)
	_, err = vm.TupleIndexGet(popped, 0)
	require.Error(t, err)
}

func TestVecInsertAndRemove(t *testing.T) {
	m := newTestVM()
	vec := vm.NewVec([]value.Value{value.FromInt(1), value.FromInt(3)})

	_, err := m.Dispatch(value.ProtocolInsert, []value.Value{vec, value.FromInt(1), value.FromInt(2)})
	require.NoError(t, err)

	got, err := m.Dispatch(value.ProtocolIndexGet, []value.Value{vec, value.FromInt(1)})
	require.NoError(t, err)
	n, _ := got.AsInt()
	assert.EqualValues(t, 2, n)

	removed, err := m.Dispatch(value.ProtocolRemove, []value.Value{vec, value.FromInt(0)})
	require.NoError(t, err)
	n, _ = removed.AsInt()
	assert.EqualValues(t, 1, n)

	got, err = m.Dispatch(value.ProtocolLen, []value.Value{vec})
	require.NoError(t, err)
	u, _ := got.AsUint()
	assert.EqualValues(t, 2, u)
}

func TestVecRemoveOutOfRange(t *testing.T) {
	m := newTestVM()
	vec := vm.NewVec([]value.Value{value.FromInt(1)})
	_, err := m.Dispatch(value.ProtocolRemove, []value.Value{vec, value.FromInt(5)})
	require.Error(t, err)
	assert.True(t, vmerr.Is(err, vmerr.KindOutOfRange))
}

func TestVecSortOrdersAscending(t *testing.T) {
	m := newTestVM()
	vec := vm.NewVec([]value.Value{value.FromInt(3), value.FromInt(1), value.FromInt(2)})
	_, err := m.Dispatch(value.ProtocolSort, []value.Value{vec})
	require.NoError(t, err)

	collected, err := m.Collect(vecIntoIterForTest(m, vec))
	require.NoError(t, err)
	vd, ok := collected.AsAny(value.TypeVec)
	require.True(t, ok)
	items := vd.(*vm.VecData).Items
	require.Len(t, items, 3)
	a, _ := items[0].AsInt()
	b, _ := items[1].AsInt()
	c, _ := items[2].AsInt()
	assert.Equal(t, []int64{1, 2, 3}, []int64{a, b, c})
}

func TestVecSortAbortsOnNaN(t *testing.T) {
	m := newTestVM()
	vec := vm.NewVec([]value.Value{value.FromFloat(1.0), value.FromFloat(math.NaN())})
	_, err := m.Dispatch(value.ProtocolSort, []value.Value{vec})
	require.Error(t, err)
	assert.True(t, vmerr.Is(err, vmerr.KindIllegalFloatCompare))
}

func TestVecSortByUsesComparator(t *testing.T) {
	m := newTestVM()
	vec := vm.NewVec([]value.Value{value.FromInt(1), value.FromInt(2), value.FromInt(3)})

	descending := value.NewAny(value.TypeFunction, &unit.Function{
		Kind:  unit.FunctionNative,
		Name:  "descending",
		Arity: 2,
		Native: func(args []value.Value) (value.Value, error) {
			a, _ := args[0].AsInt()
			b, _ := args[1].AsInt()
			switch {
			case a > b:
				return value.FromOrdering(value.Less), nil
			case a < b:
				return value.FromOrdering(value.Greater), nil
			default:
				return value.FromOrdering(value.Equal), nil
			}
		},
	}, nil)

	_, err := m.Dispatch(value.ProtocolSortBy, []value.Value{vec, descending})
	require.NoError(t, err)

	collected, err := m.Collect(vecIntoIterForTest(m, vec))
	require.NoError(t, err)
	vd, ok := collected.AsAny(value.TypeVec)
	require.True(t, ok)
	items := vd.(*vm.VecData).Items
	require.Len(t, items, 3)
	a, _ := items[0].AsInt()
	b, _ := items[1].AsInt()
	c, _ := items[2].AsInt()
	assert.Equal(t, []int64{3, 2, 1}, []int64{a, b, c})
}

func vecIntoIterForTest(m *vm.VM, vec value.Value) value.Value {
	iter, err := m.Dispatch(value.ProtocolIntoIter, []value.Value{vec})
	if err != nil {
		panic(err)
	}
	return iter
}
