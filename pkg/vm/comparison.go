package vm

import (
	"github.com/rael-lang/rael/pkg/value"
	"github.com/rael-lang/rael/pkg/vmerr"
)

// compare implements the inline fast path plus protocol fallback for
// the six comparison instructions (spec §4.4.2 "Comparison"). The
// inline path avoids a protocol dispatch for the overwhelmingly common
// case of comparing two same-kind scalars.
func (m *VM) compareEq(a, b value.Value) (bool, error) {
	if a.IsInline() && b.IsInline() && a.Kind() == b.Kind() {
		eq, ok := value.StructuralEqual(a, b)
		if ok {
			return eq, nil
		}
	}
	result, err := m.Dispatch(value.ProtocolPartialEq, []value.Value{a, b})
	if err != nil {
		return false, err
	}
	b2, ok := result.AsBool()
	if !ok {
		return false, vmerr.New(vmerr.KindExpectedType, "PARTIAL_EQ handler must return bool")
	}
	return b2, nil
}

func (m *VM) compareOrd(a, b value.Value) (value.Ordering, error) {
	if a.IsInline() && b.IsInline() && a.Kind() == b.Kind() {
		ord, total, ok := value.StructuralCompare(a, b)
		if ok {
			if !total {
				return 0, vmerr.New(vmerr.KindIllegalFloatCompare, "comparison involves NaN")
			}
			return ord, nil
		}
	}
	result, err := m.Dispatch(value.ProtocolPartialCmp, []value.Value{a, b})
	if err != nil {
		return 0, err
	}
	ord, ok := result.AsOrdering()
	if !ok {
		return 0, vmerr.New(vmerr.KindExpectedType, "PARTIAL_CMP handler must return an ordering")
	}
	return ord, nil
}

// Eq/Neq/Lt/Le/Gt/Ge are the instruction bodies for OpEq..OpGe.
func (m *VM) Eq(a, b value.Value) (bool, error)  { return m.compareEq(a, b) }
func (m *VM) Neq(a, b value.Value) (bool, error) { eq, err := m.compareEq(a, b); return !eq, err }

func (m *VM) Lt(a, b value.Value) (bool, error) {
	ord, err := m.compareOrd(a, b)
	return ord == value.Less, err
}

func (m *VM) Le(a, b value.Value) (bool, error) {
	ord, err := m.compareOrd(a, b)
	return ord != value.Greater, err
}

func (m *VM) Gt(a, b value.Value) (bool, error) {
	ord, err := m.compareOrd(a, b)
	return ord == value.Greater, err
}

func (m *VM) Ge(a, b value.Value) (bool, error) {
	ord, err := m.compareOrd(a, b)
	return ord != value.Less, err
}
