package value

import (
	"fmt"
	"math"
)

// Kind distinguishes the three top-level representations a Value can
// take (spec §3.1): Inline values are by-value machine words; Dynamic
// values are shared references to a structural heap value; Any values
// are shared references to an opaque host-defined value.
type Kind byte

const (
	KindUnit Kind = iota
	KindBool
	KindChar
	KindInt
	KindUint
	KindFloat
	KindOrdering
	KindByte
	KindHashLit
	KindDynamic
	KindAny
)

// Ordering mirrors the result of a three-way comparison protocol.
type Ordering int8

const (
	Less    Ordering = -1
	Equal   Ordering = 0
	Greater Ordering = 1
)

// Dynamic is the payload behind a KindDynamic Value: a structural
// heap value carrying its own Rtti-derived type Hash. Structs, tuple
// structs, enum variants, objects, and tuples are all Dynamic payloads
// distinguished by Shape.
type Shape byte

const (
	ShapeTuple Shape = iota
	ShapeObject
	ShapeStruct
	ShapeTupleStruct
	ShapeVariant
	ShapeEmptyStruct
)

// DynamicData is the structural payload stored in a Cell for a
// KindDynamic Value.
type DynamicData struct {
	TypeHash    Hash
	Shape       Shape
	VariantTag  int // meaningful only when Shape == ShapeVariant
	FieldNames  []string
	Fields      []Value
}

// AnyData is the payload stored in a Cell for a KindAny Value: an
// opaque host type tagged with a stable type hash so `is`/`as` and
// protocol dispatch work uniformly with script-defined types.
type AnyData struct {
	TypeHash Hash
	Payload  interface{}
}

// Value is the tagged sum described in spec §3.1. The zero Value is
// KindUnit.
//
// Inline representations (KindUnit..KindHashLit) store their payload
// directly in the scalar fields below and are copied by value: cloning
// one is a byte copy, exactly as spec §4.1 requires. Dynamic and Any
// values store a *Cell in cellRef; cloning increments its strong count.
type Value struct {
	kind    Kind
	i       int64   // Int
	u       uint64  // Uint, Char (rune), Byte, Ordering, Bool(0/1)
	f       float64 // Float
	s       string  // used only to stash a Hash's stable string form when needed
	h       Hash    // KindHashLit
	cellRef *Cell
}

// Unit is the singleton unit value.
var Unit = Value{kind: KindUnit}

func FromBool(b bool) Value {
	var u uint64
	if b {
		u = 1
	}
	return Value{kind: KindBool, u: u}
}

func FromChar(r rune) Value    { return Value{kind: KindChar, u: uint64(r)} }
func FromInt(i int64) Value    { return Value{kind: KindInt, i: i} }
func FromUint(u uint64) Value  { return Value{kind: KindUint, u: u} }
func FromFloat(f float64) Value { return Value{kind: KindFloat, f: f} }
func FromByte(b byte) Value    { return Value{kind: KindByte, u: uint64(b)} }
func FromHashLit(h Hash) Value { return Value{kind: KindHashLit, h: h} }

func FromOrdering(o Ordering) Value { return Value{kind: KindOrdering, i: int64(o)} }

// FromCell wraps an already-allocated Dynamic or Any cell in a Value.
// The caller transfers the cell's current strong-count unit to the
// returned Value (i.e. this does not itself call Retain).
func FromCell(kind Kind, c *Cell) Value {
	if kind != KindDynamic && kind != KindAny {
		panic("value: FromCell requires KindDynamic or KindAny")
	}
	return Value{kind: kind, cellRef: c}
}

// NewDynamic allocates a fresh cell holding d and returns a KindDynamic
// Value referencing it with strong count 1.
func NewDynamic(d *DynamicData) Value {
	return FromCell(KindDynamic, NewCell(d, nil))
}

// NewAny allocates a fresh cell holding payload tagged with typeHash and
// returns a KindAny Value referencing it with strong count 1. drop, if
// non-nil, runs when the cell's strong count reaches zero.
func NewAny(typeHash Hash, payload interface{}, drop func(interface{})) Value {
	return FromCell(KindAny, NewCell(&AnyData{TypeHash: typeHash, Payload: payload}, func(p interface{}) {
		if drop != nil {
			drop(p.(*AnyData).Payload)
		}
	}))
}

func (v Value) Kind() Kind { return v.kind }

// Type returns the Value's type Hash, used by protocol dispatch and by
// `is`/`as`. Inline kinds report a fixed well-known hash; Dynamic and
// Any report the hash carried by their cell's payload.
func (v Value) Type() Hash {
	switch v.kind {
	case KindUnit:
		return TypeUnit
	case KindBool:
		return TypeBool
	case KindChar:
		return TypeChar
	case KindInt:
		return TypeInt
	case KindUint:
		return TypeUint
	case KindFloat:
		return TypeFloat
	case KindOrdering:
		return TypeOrdering
	case KindByte:
		return TypeByte
	case KindHashLit:
		return TypeHash
	case KindDynamic:
		if d, ok := v.cellRef.payload.(*DynamicData); ok {
			return d.TypeHash
		}
		return NilHash
	case KindAny:
		if a, ok := v.cellRef.payload.(*AnyData); ok {
			return a.TypeHash
		}
		return NilHash
	}
	return NilHash
}

// IsInline reports whether v is one of the by-value representations.
func (v Value) IsInline() bool { return v.kind != KindDynamic && v.kind != KindAny }

// Cell returns the backing cell for a Dynamic or Any value, or nil for
// an inline value.
func (v Value) Cell() *Cell {
	if v.IsInline() {
		return nil
	}
	return v.cellRef
}

// --- classification ---

func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.u != 0, true
}

func (v Value) AsChar() (rune, bool) {
	if v.kind != KindChar {
		return 0, false
	}
	return rune(v.u), true
}

func (v Value) AsInt() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

func (v Value) AsUint() (uint64, bool) {
	if v.kind != KindUint {
		return 0, false
	}
	return v.u, true
}

func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindFloat {
		return 0, false
	}
	return v.f, true
}

func (v Value) AsByte() (byte, bool) {
	if v.kind != KindByte {
		return 0, false
	}
	return byte(v.u), true
}

func (v Value) AsOrdering() (Ordering, bool) {
	if v.kind != KindOrdering {
		return 0, false
	}
	return Ordering(v.i), true
}

func (v Value) AsHashLit() (Hash, bool) {
	if v.kind != KindHashLit {
		return NilHash, false
	}
	return v.h, true
}

// AsDynamic returns the structural payload, or (nil, false) if v is not
// a Dynamic value.
func (v Value) AsDynamic() (*DynamicData, bool) {
	if v.kind != KindDynamic || v.cellRef == nil {
		return nil, false
	}
	d, ok := v.cellRef.payload.(*DynamicData)
	return d, ok
}

// AsAny downcasts v into a specific Any type, failing if the type hash
// carried by the cell doesn't match want (spec §4.1).
func (v Value) AsAny(want Hash) (interface{}, bool) {
	if v.kind != KindAny || v.cellRef == nil {
		return nil, false
	}
	a, ok := v.cellRef.payload.(*AnyData)
	if !ok || a.TypeHash != want {
		return nil, false
	}
	return a.Payload, true
}

// Clone follows spec §4.1: inline values are a byte copy (trivially,
// since Value is a plain struct); Dynamic/Any values retain the shared
// cell. This is distinct from the user-visible deep `clone` dispatched
// through the CLONE protocol — see the vm package.
func (v Value) Clone() Value {
	if !v.IsInline() && v.cellRef != nil {
		v.cellRef.Retain()
	}
	return v
}

// Drop releases a Dynamic/Any value's strong reference. Inline values
// need no explicit drop.
func (v Value) Drop() {
	if !v.IsInline() && v.cellRef != nil {
		v.cellRef.Release()
	}
}

// Debug renders a value the way the built-in DEBUG_FMT default would for
// inline and structural types; host/Any types without a registered
// DEBUG_FMT handler fall back to this as well (see vm.Dispatch).
func (v Value) Debug() string {
	switch v.kind {
	case KindUnit:
		return "()"
	case KindBool:
		b, _ := v.AsBool()
		return fmt.Sprintf("%v", b)
	case KindChar:
		c, _ := v.AsChar()
		return fmt.Sprintf("%q", c)
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindUint:
		return fmt.Sprintf("%d", v.u)
	case KindFloat:
		if math.IsNaN(v.f) {
			return "NaN"
		}
		return fmt.Sprintf("%v", v.f)
	case KindByte:
		return fmt.Sprintf("b'%02x'", byte(v.u))
	case KindOrdering:
		switch Ordering(v.i) {
		case Less:
			return "Less"
		case Greater:
			return "Greater"
		default:
			return "Equal"
		}
	case KindHashLit:
		return fmt.Sprintf("#%s", v.h.String())
	case KindDynamic:
		if d, ok := v.AsDynamic(); ok {
			return fmt.Sprintf("<dynamic %s shape=%d fields=%d>", d.TypeHash, d.Shape, len(d.Fields))
		}
	case KindAny:
		if v.cellRef != nil {
			if a, ok := v.cellRef.payload.(*AnyData); ok {
				return fmt.Sprintf("<any %s %v>", a.TypeHash, a.Payload)
			}
		}
	}
	return "<invalid>"
}
