package vm

import "github.com/rael-lang/rael/pkg/value"

// Pattern describes one arm's shape for the OpJumpIfBranch match
// instruction (spec §4.4.6): a match instruction takes (value,
// discriminator) and resolves to a branch index, or -1 if no arm
// matches and the interpreter should fall through to an else/
// exhaustiveness-failure path.
type Pattern struct {
	// Scalar, if non-nil, matches via equality against an inline
	// value.
	Scalar *value.Value
	// VariantTypeHash/VariantTag, if VariantTypeHash is set, matches
	// an enum variant by rtti tag comparison.
	VariantTypeHash *value.Hash
	VariantTag      int
	// TupleArity, if >= 0, matches a tuple/struct/tuple-struct by
	// field count, then destructures into DestRegs.
	TupleArity int
	// ObjectKeys, if non-nil, matches an object requiring these keys
	// be present (a subset match unless ObjectExact is set).
	ObjectKeys  []string
	ObjectExact bool
	// DestRegs names where destructured fields land, frame-relative,
	// in field order; empty means "no bindings, test only".
	DestRegs []int
}

// Match resolves value against patterns in order and returns the index
// of the first arm that matches, or -1 (spec §4.4.6). When a tuple or
// object arm matches, destructured is populated with (register,
// value) pairs the caller should store via Stack.Store.
func Match(val value.Value, patterns []Pattern) (branch int, destructured []DestructuredField) {
	for i, p := range patterns {
		if ok, fields := matchOne(val, p); ok {
			return i, fields
		}
	}
	return -1, nil
}

// DestructuredField pairs a destination register with the value bound
// to it by a successful tuple/struct/object match arm.
type DestructuredField struct {
	Reg int
	Val value.Value
}

func matchOne(val value.Value, p Pattern) (bool, []DestructuredField) {
	switch {
	case p.Scalar != nil:
		eq, ok := value.StructuralEqual(val, *p.Scalar)
		return ok && eq, nil

	case p.VariantTypeHash != nil:
		d, ok := val.AsDynamic()
		if !ok || d.Shape != value.ShapeVariant {
			return false, nil
		}
		if d.TypeHash != *p.VariantTypeHash || d.VariantTag != p.VariantTag {
			return false, nil
		}
		return true, destructure(d.Fields, p.DestRegs)

	case p.TupleArity >= 0:
		d, ok := val.AsDynamic()
		if !ok {
			return false, nil
		}
		switch d.Shape {
		case value.ShapeTuple, value.ShapeStruct, value.ShapeTupleStruct, value.ShapeVariant:
		default:
			return false, nil
		}
		if len(d.Fields) != p.TupleArity {
			return false, nil
		}
		return true, destructure(d.Fields, p.DestRegs)

	case p.ObjectKeys != nil:
		d, ok := val.AsDynamic()
		if !ok || d.Shape != value.ShapeObject {
			return false, nil
		}
		if p.ObjectExact && len(d.FieldNames) != len(p.ObjectKeys) {
			return false, nil
		}
		present := make(map[string]value.Value, len(d.FieldNames))
		for i, name := range d.FieldNames {
			present[name] = d.Fields[i]
		}
		var fields []value.Value
		for _, k := range p.ObjectKeys {
			v, ok := present[k]
			if !ok {
				return false, nil
			}
			fields = append(fields, v)
		}
		return true, destructure(fields, p.DestRegs)
	}
	return false, nil
}

func destructure(fields []value.Value, destRegs []int) []DestructuredField {
	if len(destRegs) == 0 {
		return nil
	}
	out := make([]DestructuredField, 0, len(destRegs))
	for i, reg := range destRegs {
		if i >= len(fields) {
			break
		}
		out = append(out, DestructuredField{Reg: reg, Val: fields[i].Clone()})
	}
	return out
}
