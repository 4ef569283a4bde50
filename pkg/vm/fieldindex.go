package vm

import (
	"github.com/rael-lang/rael/pkg/value"
	"github.com/rael-lang/rael/pkg/vmerr"
)

// TupleIndexGet/Set implement direct positional field access on a
// Dynamic tuple/struct/tuple-struct/variant value (spec §4.4.2
// "tuple-index-get/set"), bypassing protocol dispatch since field
// position is a structural fact of the Rtti, not a user-overridable
// operation.
func TupleIndexGet(v value.Value, idx int) (value.Value, error) {
	d, ok := v.AsDynamic()
	if !ok {
		return value.Value{}, vmerr.New(vmerr.KindExpectedTuple, "tuple-index-get: value is not a tuple-shaped Dynamic")
	}
	if idx < 0 || idx >= len(d.Fields) {
		return value.Value{}, vmerr.New(vmerr.KindOutOfRange, "tuple-index-get: index %d out of range (len %d)", idx, len(d.Fields))
	}
	return d.Fields[idx].Clone(), nil
}

func TupleIndexSet(v value.Value, idx int, newVal value.Value) error {
	d, ok := v.AsDynamic()
	if !ok {
		return vmerr.New(vmerr.KindExpectedTuple, "tuple-index-set: value is not a tuple-shaped Dynamic")
	}
	if idx < 0 || idx >= len(d.Fields) {
		return vmerr.New(vmerr.KindOutOfRange, "tuple-index-set: index %d out of range (len %d)", idx, len(d.Fields))
	}
	d.Fields[idx].Drop()
	d.Fields[idx] = newVal
	return nil
}

// ObjectSlotGet/Set implement access by interned key name (spec
// §4.4.2 "object-slot-get (by interned key)").
func ObjectSlotGet(v value.Value, key string) (value.Value, error) {
	d, ok := v.AsDynamic()
	if !ok || d.Shape != value.ShapeObject {
		return value.Value{}, vmerr.New(vmerr.KindExpectedType, "object-slot-get: value is not an object")
	}
	for i, name := range d.FieldNames {
		if name == key {
			return d.Fields[i].Clone(), nil
		}
	}
	return value.Value{}, vmerr.New(vmerr.KindOutOfRange, "object-slot-get: no key %q", key)
}

func ObjectSlotSet(v value.Value, key string, newVal value.Value) error {
	d, ok := v.AsDynamic()
	if !ok || d.Shape != value.ShapeObject {
		return vmerr.New(vmerr.KindExpectedType, "object-slot-set: value is not an object")
	}
	for i, name := range d.FieldNames {
		if name == key {
			d.Fields[i].Drop()
			d.Fields[i] = newVal
			return nil
		}
	}
	d.FieldNames = append(d.FieldNames, key)
	d.Fields = append(d.Fields, newVal)
	return nil
}

// IndexGet/IndexSet are the protocol-dispatched general index
// operators (spec §4.4.2 "index-get", "index-set"), used for
// container types (Vec, arrays) rather than structural tuple/object
// access.
func (m *VM) IndexGet(receiver, index value.Value) (value.Value, error) {
	return m.Dispatch(value.ProtocolIndexGet, []value.Value{receiver, index})
}

func (m *VM) IndexSet(receiver, index, newVal value.Value) error {
	_, err := m.Dispatch(value.ProtocolIndexSet, []value.Value{receiver, index, newVal})
	return err
}

// Is tests whether v's type matches wantTypeHash, or for a Dynamic
// enum value, whether its variant tag matches wantVariantTag (spec
// §4.4.2 "is (test value against type or variant)").
func Is(v value.Value, wantTypeHash value.Hash, wantVariant int, checkVariant bool) bool {
	if v.Type() != wantTypeHash {
		return false
	}
	if !checkVariant {
		return true
	}
	d, ok := v.AsDynamic()
	return ok && d.Shape == value.ShapeVariant && d.VariantTag == wantVariant
}

// As coerces v via the AS protocol (spec §4.4.2 "as (coerce via AS
// protocol)").
func (m *VM) As(v value.Value, targetTypeHash value.Hash) (value.Value, error) {
	return m.Dispatch(value.ProtocolAs, []value.Value{v, value.FromHashLit(targetTypeHash)})
}
