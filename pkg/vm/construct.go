package vm

import (
	"github.com/rael-lang/rael/pkg/unit"
	"github.com/rael-lang/rael/pkg/value"
	"github.com/rael-lang/rael/pkg/vmerr"
)

// MakeTuple builds an anonymous tuple from fields (spec §4.4.2
// "Construction": "make tuple ... from rtti" — an anonymous tuple has
// no rtti, only a Shape tag).
func MakeTuple(fields []value.Value) value.Value {
	return value.NewDynamic(&value.DynamicData{Shape: value.ShapeTuple, Fields: cloneFields(fields)})
}

// MakeObject builds an object value from parallel keys/fields slices.
func MakeObject(keys []string, fields []value.Value) (value.Value, error) {
	if len(keys) != len(fields) {
		return value.Value{}, vmerr.New(vmerr.KindBadArgCount, "object literal: %d keys but %d values", len(keys), len(fields))
	}
	return value.NewDynamic(&value.DynamicData{Shape: value.ShapeObject, FieldNames: keys, Fields: cloneFields(fields)}), nil
}

// MakeStruct builds a named struct value of the given rtti.
func (m *VM) MakeStruct(rtti *unit.Rtti, fields []value.Value) (value.Value, error) {
	if len(fields) != rtti.CtorArity {
		return value.Value{}, vmerr.New(vmerr.KindBadArgCount, "%s: expected %d fields, got %d", rtti.Item, rtti.CtorArity, len(fields))
	}
	return value.NewDynamic(&value.DynamicData{
		TypeHash:   rtti.Hash,
		Shape:      value.ShapeStruct,
		FieldNames: rtti.FieldNames,
		Fields:     cloneFields(fields),
	}), nil
}

// MakeTupleStruct builds a tuple-struct value of the given rtti.
func (m *VM) MakeTupleStruct(rtti *unit.Rtti, fields []value.Value) (value.Value, error) {
	if len(fields) != rtti.CtorArity {
		return value.Value{}, vmerr.New(vmerr.KindBadArgCount, "%s: expected %d fields, got %d", rtti.Item, rtti.CtorArity, len(fields))
	}
	return value.NewDynamic(&value.DynamicData{
		TypeHash: rtti.Hash,
		Shape:    value.ShapeTupleStruct,
		Fields:   cloneFields(fields),
	}), nil
}

// MakeVariant builds an enum-variant value of the given rtti.
func (m *VM) MakeVariant(rtti *unit.Rtti, fields []value.Value) (value.Value, error) {
	if !rtti.HasVariant {
		return value.Value{}, vmerr.New(vmerr.KindExpectedVariant, "%s: rtti has no variant tag", rtti.Item)
	}
	return value.NewDynamic(&value.DynamicData{
		TypeHash:   rtti.Hash,
		Shape:      value.ShapeVariant,
		VariantTag: rtti.VariantTag,
		FieldNames: rtti.FieldNames,
		Fields:     cloneFields(fields),
	}), nil
}

// MakeEmptyStruct builds a field-less struct value (a unit struct).
func (m *VM) MakeEmptyStruct(rtti *unit.Rtti) value.Value {
	return value.NewDynamic(&value.DynamicData{TypeHash: rtti.Hash, Shape: value.ShapeEmptyStruct})
}

// MakeClosure builds a Function value of kind FunctionClosure,
// capturing the given environment (spec §3.3 "Environment: a boxed
// sequence of captured Values owned by a closure").
func (m *VM) MakeClosure(fnHash value.Hash, captured []value.Value) (value.Value, error) {
	entry, ok := m.Unit.Function(fnHash)
	if !ok {
		return value.Value{}, vmerr.New(vmerr.KindMissingFunction, "no function registered for hash %s", fnHash)
	}
	fn := &unit.Function{
		Kind:        unit.FunctionClosure,
		Hash:        fnHash,
		Name:        entry.Name,
		Arity:       entry.Arity,
		Convention:  entry.Convention,
		Offset:      entry.Offset,
		Environment: cloneFields(captured),
	}
	return value.NewAny(value.TypeFunction, fn, nil), nil
}

// MakeVmCallFunction builds a Function value that calls into a
// different unit/context than the one constructing it (spec §4.4.5
// "isolation"). Invoking the result through OpCall/OpCallFn halts the
// interpreter with HaltVmCall instead of running inline, so the
// execution driver can install targetUnit/targetCtx first.
func (m *VM) MakeVmCallFunction(targetUnit *unit.Unit, targetCtx *unit.RuntimeContext, fnHash value.Hash) (value.Value, error) {
	entry, ok := targetUnit.Function(fnHash)
	if !ok {
		return value.Value{}, vmerr.New(vmerr.KindMissingFunction, "no function registered for hash %s in target unit", fnHash)
	}
	fn := &unit.Function{
		Kind:       unit.FunctionBytecode,
		Hash:       fnHash,
		Name:       entry.Name,
		Arity:      entry.Arity,
		Convention: entry.Convention,
		Offset:     entry.Offset,
		TargetUnit: targetUnit,
		TargetCtx:  targetCtx,
	}
	return value.NewAny(value.TypeFunction, fn, nil), nil
}

func cloneFields(fields []value.Value) []value.Value {
	out := make([]value.Value, len(fields))
	for i, f := range fields {
		out[i] = f.Clone()
	}
	return out
}
