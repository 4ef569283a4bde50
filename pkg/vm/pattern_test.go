package vm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rael-lang/rael/pkg/value"
	"github.com/rael-lang/rael/pkg/vm"
)

func TestMatchScalar(t *testing.T) {
	five := value.FromInt(5)
	patterns := []vm.Pattern{
		{Scalar: &five, TupleArity: -1},
	}
	branch, _ := vm.Match(value.FromInt(5), patterns)
	assert.Equal(t, 0, branch)

	branch, _ = vm.Match(value.FromInt(6), patterns)
	assert.Equal(t, -1, branch)
}

func TestMatchVariantAndDestructure(t *testing.T) {
	typeHash := value.HashPath("test::Option")
	variant := value.NewDynamic(&value.DynamicData{
		TypeHash:   typeHash,
		Shape:      value.ShapeVariant,
		VariantTag: 0,
		FieldNames: []string{"0"},
		Fields:     []value.Value{value.FromInt(42)},
	})

	patterns := []vm.Pattern{
		{VariantTypeHash: &typeHash, VariantTag: 0, TupleArity: -1, DestRegs: []int{3}},
	}
	branch, fields := vm.Match(variant, patterns)
	require.Equal(t, 0, branch)
	require.Len(t, fields, 1)
	assert.Equal(t, 3, fields[0].Reg)
	i, _ := fields[0].Val.AsInt()
	assert.EqualValues(t, 42, i)
}

func TestMatchObjectSubset(t *testing.T) {
	obj, err := vm.MakeObject([]string{"x", "y", "z"}, []value.Value{
		value.FromInt(1), value.FromInt(2), value.FromInt(3),
	})
	require.NoError(t, err)

	patterns := []vm.Pattern{
		{TupleArity: -1, ObjectKeys: []string{"y"}, DestRegs: []int{0}},
	}
	branch, fields := vm.Match(obj, patterns)
	require.Equal(t, 0, branch)
	require.Len(t, fields, 1)
	i, _ := fields[0].Val.AsInt()
	assert.EqualValues(t, 2, i)
}

func TestMatchTupleArity(t *testing.T) {
	tup := vm.MakeTuple([]value.Value{value.FromInt(1), value.FromInt(2)})
	patterns := []vm.Pattern{
		{TupleArity: 3},
		{TupleArity: 2, DestRegs: []int{0, 1}},
	}
	branch, fields := vm.Match(tup, patterns)
	require.Equal(t, 1, branch)
	require.Len(t, fields, 2)
}
