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

func collectInts(t *testing.T, m *vm.VM, iter value.Value) []int64 {
	t.Helper()
	collected, err := m.Collect(iter)
	require.NoError(t, err)
	vd, ok := collected.AsAny(value.TypeVec)
	require.True(t, ok)
	items := vd.(*vm.VecData).Items
	out := make([]int64, len(items))
	for i, it := range items {
		n, _ := it.AsInt()
		out[i] = n
	}
	return out
}

func TestVecIntoIterAndCollect(t *testing.T) {
	m := newTestVM()
	vec := vm.NewVec([]value.Value{value.FromInt(1), value.FromInt(2), value.FromInt(3)})
	iter, err := m.Dispatch(value.ProtocolIntoIter, []value.Value{vec})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, collectInts(t, m, iter))
}

func TestRangeIntoIter(t *testing.T) {
	m := newTestVM()
	from := value.FromInt(0)
	to := value.FromInt(3)
	r := vm.MakeRange(unit.RangeHalfOpen, &from, &to)
	iter, err := m.Dispatch(value.ProtocolIntoIter, []value.Value{r})
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 1, 2}, collectInts(t, m, iter))
}

func TestRangeInclusive(t *testing.T) {
	from := value.FromInt(0)
	to := value.FromInt(3)
	r := vm.MakeRange(unit.RangeInclusive, &from, &to)
	rd, ok := vm.AsRange(r)
	require.True(t, ok)
	assert.True(t, rd.Contains(3))
	assert.False(t, rd.Contains(4))
}

func TestIterMapAndFilter(t *testing.T) {
	m := newTestVM()
	vec := vm.NewVec([]value.Value{value.FromInt(1), value.FromInt(2), value.FromInt(3), value.FromInt(4)})
	iter, err := m.Dispatch(value.ProtocolIntoIter, []value.Value{vec})
	require.NoError(t, err)

	double := &unit.Function{
		Kind:   unit.FunctionNative,
		Name:   "double",
		Arity:  1,
		Native: func(args []value.Value) (value.Value, error) { n, _ := args[0].AsInt(); return value.FromInt(n * 2), nil },
	}
	doubleVal := value.NewAny(value.TypeFunction, double, nil)

	isEven := &unit.Function{
		Kind:   unit.FunctionNative,
		Name:   "is_even",
		Arity:  1,
		Native: func(args []value.Value) (value.Value, error) { n, _ := args[0].AsInt(); return value.FromBool(n%2 == 0), nil },
	}
	isEvenVal := value.NewAny(value.TypeFunction, isEven, nil)

	mapped := m.IterMap(iter, doubleVal)
	filtered := m.IterFilter(mapped, isEvenVal)
	assert.Equal(t, []int64{2, 4, 6, 8}, collectInts(t, m, filtered))
}

func TestIterTakeAndSkip(t *testing.T) {
	m := newTestVM()
	vec := vm.NewVec([]value.Value{value.FromInt(1), value.FromInt(2), value.FromInt(3), value.FromInt(4), value.FromInt(5)})
	iter, err := m.Dispatch(value.ProtocolIntoIter, []value.Value{vec})
	require.NoError(t, err)

	skipped := m.IterSkip(iter, 2)
	taken := m.IterTake(skipped, 2)
	assert.Equal(t, []int64{3, 4}, collectInts(t, m, taken))
}

func TestIterPeekableDoesNotConsume(t *testing.T) {
	m := newTestVM()
	vec := vm.NewVec([]value.Value{value.FromInt(1), value.FromInt(2)})
	iter, err := m.Dispatch(value.ProtocolIntoIter, []value.Value{vec})
	require.NoError(t, err)

	peekable := m.IterPeekable(iter)
	v, ok, err := m.Peek(peekable)
	require.NoError(t, err)
	require.True(t, ok)
	i, _ := v.AsInt()
	assert.EqualValues(t, 1, i)

	assert.Equal(t, []int64{1, 2}, collectInts(t, m, peekable))
}

func TestIterEnumerate(t *testing.T) {
	m := newTestVM()
	vec := vm.NewVec([]value.Value{value.FromInt(10), value.FromInt(20)})
	iter, err := m.Dispatch(value.ProtocolIntoIter, []value.Value{vec})
	require.NoError(t, err)

	enumerated := m.IterEnumerate(iter)
	collected, err := m.Collect(enumerated)
	require.NoError(t, err)
	vd, ok := collected.AsAny(value.TypeVec)
	require.True(t, ok)
	pairs := vd.(*vm.VecData).Items
	require.Len(t, pairs, 2)

	idx0, err := vm.TupleIndexGet(pairs[0], 0)
	require.NoError(t, err)
	i, _ := idx0.AsInt()
	assert.EqualValues(t, 0, i)

	val0, err := vm.TupleIndexGet(pairs[0], 1)
	require.NoError(t, err)
	v, _ := val0.AsInt()
	assert.EqualValues(t, 10, v)
}

// TestIterMapPropagatesMidStreamError confirms a real error raised by
// the mapped function (not end-of-iteration) reaches Collect's caller
// rather than being read as the iterator having run dry.
func TestIterMapPropagatesMidStreamError(t *testing.T) {
	m := newTestVM()
	vec := vm.NewVec([]value.Value{value.FromInt(1), value.FromInt(0), value.FromInt(2)})
	iter, err := m.Dispatch(value.ProtocolIntoIter, []value.Value{vec})
	require.NoError(t, err)

	reciprocal := &unit.Function{
		Kind:  unit.FunctionNative,
		Name:  "reciprocal",
		Arity: 1,
		Native: func(args []value.Value) (value.Value, error) {
			n, _ := args[0].AsInt()
			if n == 0 {
				return value.Value{}, vmerr.New(vmerr.KindOutOfRange, "reciprocal: division by zero")
			}
			return value.FromInt(1 / n), nil
		},
	}
	reciprocalVal := value.NewAny(value.TypeFunction, reciprocal, nil)

	mapped := m.IterMap(iter, reciprocalVal)
	_, err = m.Collect(mapped)
	require.Error(t, err)
}

// TestIterFilterPropagatesMidStreamError mirrors the map case for a
// predicate that fails partway through the stream.
func TestIterFilterPropagatesMidStreamError(t *testing.T) {
	m := newTestVM()
	vec := vm.NewVec([]value.Value{value.FromInt(1), value.FromInt(0), value.FromInt(2)})
	iter, err := m.Dispatch(value.ProtocolIntoIter, []value.Value{vec})
	require.NoError(t, err)

	failOnZero := &unit.Function{
		Kind:  unit.FunctionNative,
		Name:  "fail_on_zero",
		Arity: 1,
		Native: func(args []value.Value) (value.Value, error) {
			n, _ := args[0].AsInt()
			if n == 0 {
				return value.Value{}, vmerr.New(vmerr.KindOutOfRange, "fail_on_zero: zero is not allowed")
			}
			return value.FromBool(true), nil
		},
	}
	failOnZeroVal := value.NewAny(value.TypeFunction, failOnZero, nil)

	filtered := m.IterFilter(iter, failOnZeroVal)
	_, err = m.Collect(filtered)
	require.Error(t, err)
}
