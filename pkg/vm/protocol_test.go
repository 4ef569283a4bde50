package vm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rael-lang/rael/pkg/value"
	"github.com/rael-lang/rael/pkg/vmerr"
)

func TestDispatchEqFallsBackToStructuralEqual(t *testing.T) {
	m := newTestVM()
	result, err := m.Dispatch(value.ProtocolEq, []value.Value{value.FromInt(3), value.FromInt(3)})
	require.NoError(t, err)
	b, _ := result.AsBool()
	assert.True(t, b)

	result, err = m.Dispatch(value.ProtocolEq, []value.Value{value.FromInt(3), value.FromInt(4)})
	require.NoError(t, err)
	b, _ = result.AsBool()
	assert.False(t, b)
}

func TestDispatchCmpOrdersInts(t *testing.T) {
	m := newTestVM()
	result, err := m.Dispatch(value.ProtocolCmp, []value.Value{value.FromInt(1), value.FromInt(2)})
	require.NoError(t, err)
	ord, ok := result.AsOrdering()
	require.True(t, ok)
	assert.Equal(t, value.Less, ord)
}

func TestDispatchCmpNaNIsIllegal(t *testing.T) {
	m := newTestVM()
	nan := value.FromFloat(nanValue())
	_, err := m.Dispatch(value.ProtocolCmp, []value.Value{nan, value.FromFloat(1.0)})
	require.Error(t, err)
	assert.True(t, vmerr.Is(err, vmerr.KindIllegalFloatCompare))
}

func TestDispatchCloneCopiesInlineValue(t *testing.T) {
	m := newTestVM()
	result, err := m.Dispatch(value.ProtocolClone, []value.Value{value.FromInt(7)})
	require.NoError(t, err)
	i, _ := result.AsInt()
	assert.EqualValues(t, 7, i)
}

func TestDispatchDebugFmtProducesString(t *testing.T) {
	m := newTestVM()
	result, err := m.Dispatch(value.ProtocolDebugFmt, []value.Value{value.FromInt(42)})
	require.NoError(t, err)
	assert.Equal(t, value.TypeString, result.Type())
}

func TestDispatchMissingProtocolFunctionErrors(t *testing.T) {
	m := newTestVM()
	_, err := m.Dispatch(value.ProtocolSizeHint, []value.Value{value.FromInt(1)})
	require.Error(t, err)
	assert.True(t, vmerr.Is(err, vmerr.KindMissingProtocolFn))
}

func TestDispatchRequiresAtLeastOneArg(t *testing.T) {
	m := newTestVM()
	_, err := m.Dispatch(value.ProtocolAdd, nil)
	require.Error(t, err)
	assert.True(t, vmerr.Is(err, vmerr.KindBadArgCount))
}

func nanValue() float64 {
	var zero float64
	return zero / zero
}
