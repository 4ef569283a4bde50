package unit_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rael-lang/rael/pkg/unit"
	"github.com/rael-lang/rael/pkg/value"
)

func buildSimpleUnit(t *testing.T, b *unit.Builder) *unit.Unit {
	t.Helper()
	idx := b.AddConstant(value.FromInt(41))
	b.Emit(unit.Inst{Op: unit.OpLoadConst, B: int32(idx), Out: unit.Keep(0)})
	b.Emit(unit.Inst{Op: unit.OpAdd, A: 0, B: 0, Out: unit.Keep(0)})
	b.Emit(unit.Inst{Op: unit.OpReturn, A: 0})
	fnHash := value.HashPath("test::f")
	b.AddFunction(fnHash, unit.Entry{Offset: 0, Arity: 0, Convention: unit.ConvImmediate, Name: "f"})
	return b.Build()
}

func TestArrayStoreRoundTrip(t *testing.T) {
	u := buildSimpleUnit(t, unit.NewBuilder())

	insts := u.Iter()
	require.Len(t, insts, 3)
	assert.Equal(t, unit.OpLoadConst, insts[0].Inst.Op)
	assert.Equal(t, unit.OpAdd, insts[1].Inst.Op)
	assert.Equal(t, unit.OpReturn, insts[2].Inst.Op)

	entry, ok := u.Function(value.HashPath("test::f"))
	require.True(t, ok)
	assert.Equal(t, 0, entry.Offset)

	inst, width, err := u.InstructionAt(0)
	require.NoError(t, err)
	assert.Equal(t, 1, width)
	assert.Equal(t, unit.OpLoadConst, inst.Op)
}

func TestByteStoreRoundTrip(t *testing.T) {
	u := buildSimpleUnit(t, unit.NewByteCodedBuilder())

	insts := u.Iter()
	require.Len(t, insts, 3)
	assert.Equal(t, unit.OpLoadConst, insts[0].Inst.Op)
	assert.Equal(t, unit.OpAdd, insts[1].Inst.Op)
	assert.Equal(t, unit.OpReturn, insts[2].Inst.Op)

	ip, err := u.Translate(1)
	require.NoError(t, err)
	inst, _, err := u.InstructionAt(ip)
	require.NoError(t, err)
	assert.Equal(t, unit.OpAdd, inst.Op)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	u := buildSimpleUnit(t, unit.NewBuilder())

	data, err := unit.Save(u)
	require.NoError(t, err)

	loaded, err := unit.Load(data)
	require.NoError(t, err)

	origInsts := u.Iter()
	loadedInsts := loaded.Iter()
	require.Equal(t, len(origInsts), len(loadedInsts))
	for i := range origInsts {
		assert.Equal(t, origInsts[i].Inst, loadedInsts[i].Inst)
	}
}

func TestLoadRejectsBadMagic(t *testing.T) {
	_, err := unit.Load([]byte{0, 0, 0, 0, 0, 1})
	require.Error(t, err)
}

func TestContextProtocolDispatch(t *testing.T) {
	m := unit.NewModule("core")
	called := false
	m.AddProtocol(value.TypeInt, value.ProtocolAdd, func(args []value.Value) (value.Value, error) {
		called = true
		a, _ := args[0].AsInt()
		b, _ := args[1].AsInt()
		return value.FromInt(a + b), nil
	})
	ctx := unit.NewContext(m)

	h, ok := ctx.ProtocolHandler(value.TypeInt, value.ProtocolAdd)
	require.True(t, ok)
	result, err := h([]value.Value{value.FromInt(2), value.FromInt(3)})
	require.NoError(t, err)
	require.True(t, called)
	i, _ := result.AsInt()
	assert.EqualValues(t, 5, i)

	_, ok = ctx.ProtocolHandler(value.TypeBool, value.ProtocolAdd)
	assert.False(t, ok)
}

func TestRttiRegistration(t *testing.T) {
	h := value.HashPath("mygame::Player")
	r := &unit.Rtti{Item: "mygame::Player", Hash: h, FieldNames: []string{"x", "y"}, CtorArity: 2}

	m := unit.NewModule("mygame")
	m.AddType(r)
	ctx := unit.NewContext(m)

	got, ok := ctx.Rtti(h)
	require.True(t, ok)
	assert.Equal(t, []string{"x", "y"}, got.FieldNames)
}

func TestHashPathStableAcrossCalls(t *testing.T) {
	a := value.HashPath("protocol::ADD")
	b := value.HashPath("protocol::ADD")
	assert.Equal(t, a, b)
	assert.NotEqual(t, uuid.Nil, a)
}
