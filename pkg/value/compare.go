package value

import "math"

// StructuralEqual implements the built-in PARTIAL_EQ/EQ default for
// inline types and for script-defined structs/enums (spec §4.1: "user
// types and script-defined types use the handler installed at type
// registration, defaulting to structural comparison for script-defined
// structs and enums"). Protocol dispatch (pkg/vm) calls this only after
// failing to find a registered handler.
//
// ok is false when the two values are not structurally comparable at
// all (different kinds, or an Any value with no registered handler);
// the caller should surface that as an "unsupported binary op" error,
// not silently report false.
func StructuralEqual(a, b Value) (eq bool, ok bool) {
	if a.kind != b.kind {
		return false, false
	}
	switch a.kind {
	case KindUnit:
		return true, true
	case KindBool:
		return a.u == b.u, true
	case KindChar:
		return a.u == b.u, true
	case KindInt:
		return a.i == b.i, true
	case KindUint:
		return a.u == b.u, true
	case KindFloat:
		if math.IsNaN(a.f) || math.IsNaN(b.f) {
			return false, true
		}
		return a.f == b.f, true
	case KindByte:
		return a.u == b.u, true
	case KindOrdering:
		return a.i == b.i, true
	case KindHashLit:
		return a.h == b.h, true
	case KindDynamic:
		da, aok := a.AsDynamic()
		db, bok := b.AsDynamic()
		if !aok || !bok {
			return false, false
		}
		if da.TypeHash != db.TypeHash || da.Shape != db.Shape || da.VariantTag != db.VariantTag {
			return false, true
		}
		if len(da.Fields) != len(db.Fields) {
			return false, true
		}
		for i := range da.Fields {
			eq, ok := StructuralEqual(da.Fields[i], db.Fields[i])
			if !ok {
				return false, false
			}
			if !eq {
				return false, true
			}
		}
		return true, true
	case KindAny:
		return false, false
	}
	return false, false
}

// StructuralCompare implements the built-in PARTIAL_CMP/CMP default for
// inline and script-defined ordered types. total reports whether the
// comparison has a definite answer; it is false for a NaN float
// comparison (spec §4.4.4's "illegal float comparison" case) so callers
// like `sort` can surface the dedicated error instead of picking an
// arbitrary order.
func StructuralCompare(a, b Value) (ord Ordering, total bool, ok bool) {
	if a.kind != b.kind {
		return Equal, false, false
	}
	switch a.kind {
	case KindInt:
		return cmpInt64(a.i, b.i), true, true
	case KindUint:
		return cmpUint64(a.u, b.u), true, true
	case KindFloat:
		if math.IsNaN(a.f) || math.IsNaN(b.f) {
			return Equal, false, true
		}
		switch {
		case a.f < b.f:
			return Less, true, true
		case a.f > b.f:
			return Greater, true, true
		default:
			return Equal, true, true
		}
	case KindChar:
		return cmpUint64(a.u, b.u), true, true
	case KindByte:
		return cmpUint64(a.u, b.u), true, true
	case KindOrdering:
		return cmpInt64(a.i, b.i), true, true
	case KindDynamic:
		da, aok := a.AsDynamic()
		db, bok := b.AsDynamic()
		if !aok || !bok || da.TypeHash != db.TypeHash {
			return Equal, false, false
		}
		n := len(da.Fields)
		if len(db.Fields) < n {
			n = len(db.Fields)
		}
		for i := 0; i < n; i++ {
			ord, total, ok := StructuralCompare(da.Fields[i], db.Fields[i])
			if !ok {
				return Equal, false, false
			}
			if !total {
				return Equal, false, true
			}
			if ord != Equal {
				return ord, true, true
			}
		}
		return cmpInt64(int64(len(da.Fields)), int64(len(db.Fields))), true, true
	}
	return Equal, false, false
}

func cmpInt64(a, b int64) Ordering {
	switch {
	case a < b:
		return Less
	case a > b:
		return Greater
	default:
		return Equal
	}
}

func cmpUint64(a, b uint64) Ordering {
	switch {
	case a < b:
		return Less
	case a > b:
		return Greater
	default:
		return Equal
	}
}
