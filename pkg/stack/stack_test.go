package stack_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rael-lang/rael/pkg/stack"
	"github.com/rael-lang/rael/pkg/value"
)

func TestResizeInitializesUnit(t *testing.T) {
	s := stack.New(4)
	require.NoError(t, s.Resize(3))
	for i := 0; i < 3; i++ {
		v, err := s.At(i)
		require.NoError(t, err)
		assert.Equal(t, value.KindUnit, v.Kind())
	}
}

func TestStoreKeepAndDiscard(t *testing.T) {
	s := stack.New(4)
	require.NoError(t, s.Resize(2))

	require.NoError(t, s.Store(stack.Keep(0), value.FromInt(42)))
	v, err := s.At(0)
	require.NoError(t, err)
	i, ok := v.AsInt()
	require.True(t, ok)
	assert.EqualValues(t, 42, i)

	require.NoError(t, s.Store(stack.Discard(), value.FromInt(7)))
}

func TestOutOfRangeAddressing(t *testing.T) {
	s := stack.New(4)
	require.NoError(t, s.Resize(1))
	_, err := s.At(5)
	require.Error(t, err)
	var oor *stack.OutOfRangeError
	assert.ErrorAs(t, err, &oor)
}

func TestMoveLeavesUnitBehind(t *testing.T) {
	s := stack.New(4)
	require.NoError(t, s.Resize(2))
	require.NoError(t, s.Store(stack.Keep(0), value.FromInt(99)))

	require.NoError(t, s.Move(0, 1))

	src, err := s.At(0)
	require.NoError(t, err)
	assert.Equal(t, value.KindUnit, src.Kind())

	dst, err := s.At(1)
	require.NoError(t, err)
	i, ok := dst.AsInt()
	require.True(t, ok)
	assert.EqualValues(t, 99, i)
}

func TestSwap(t *testing.T) {
	s := stack.New(4)
	require.NoError(t, s.Resize(2))
	require.NoError(t, s.Store(stack.Keep(0), value.FromInt(1)))
	require.NoError(t, s.Store(stack.Keep(1), value.FromInt(2)))

	require.NoError(t, s.Swap(0, 1))

	a, _ := s.At(0)
	b, _ := s.At(1)
	ai, _ := a.AsInt()
	bi, _ := b.AsInt()
	assert.EqualValues(t, 2, ai)
	assert.EqualValues(t, 1, bi)
}

func TestResizeShrinkDropsRegisters(t *testing.T) {
	s := stack.New(4)
	require.NoError(t, s.Resize(3))
	require.NoError(t, s.Store(stack.Keep(2), value.FromInt(5)))
	require.NoError(t, s.Resize(1))
	_, err := s.At(2)
	require.Error(t, err)
}

func TestSliceAt(t *testing.T) {
	s := stack.New(4)
	require.NoError(t, s.Resize(3))
	require.NoError(t, s.Store(stack.Keep(0), value.FromInt(10)))
	require.NoError(t, s.Store(stack.Keep(1), value.FromInt(20)))
	require.NoError(t, s.Store(stack.Keep(2), value.FromInt(30)))

	sl, err := s.SliceAt(0, 2)
	require.NoError(t, err)
	require.Len(t, sl, 2)
	i0, _ := sl[0].AsInt()
	i1, _ := sl[1].AsInt()
	assert.EqualValues(t, 10, i0)
	assert.EqualValues(t, 20, i1)
}

func TestFramesPushPop(t *testing.T) {
	frames := stack.NewFrames()
	s := stack.New(8)
	require.NoError(t, s.Resize(2))

	cf := stack.CallFrame{ReturnIP: 12, CallerBase: s.Base(), CallerTop: s.Top(), Output: stack.Keep(0)}
	stack.Enter(s, frames, cf, 2, 0)
	assert.Equal(t, 1, frames.Depth())
	assert.Equal(t, 2, s.Base())

	require.NoError(t, s.Resize(1))
	require.NoError(t, s.Store(stack.Keep(0), value.FromInt(77)))
	res, _ := s.At(0)

	popped, ok := frames.Pop()
	require.True(t, ok)
	require.NoError(t, stack.Leave(s, popped, res))

	assert.Equal(t, 0, s.Base())
	got, err := s.At(0)
	require.NoError(t, err)
	gi, _ := got.AsInt()
	assert.EqualValues(t, 77, gi)

	_, ok = frames.Pop()
	assert.False(t, ok)
}
