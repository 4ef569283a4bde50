package vm

import (
	"github.com/rael-lang/rael/pkg/unit"
	"github.com/rael-lang/rael/pkg/value"
	"github.com/rael-lang/rael/pkg/vmerr"
)

// RangeData is the Any payload behind every range value (spec §4.4.2
// "Range construction": half-open, inclusive, from, to, to-inclusive,
// full). From/To are nil for the From/Full and To/Full shapes
// respectively.
type RangeData struct {
	Shape     unit.RangeShape
	From, To  *value.Value
	Inclusive bool
}

// MakeRange builds a range value of the requested shape from the
// (possibly absent) from/to bounds.
func MakeRange(shape unit.RangeShape, from, to *value.Value) value.Value {
	rd := &RangeData{Shape: shape, From: from, To: to, Inclusive: shape == unit.RangeInclusive || shape == unit.RangeToInclusive}
	return value.NewAny(value.TypeRange, rd, nil)
}

// AsRange downcasts v into its RangeData, if it is a range value.
func AsRange(v value.Value) (*RangeData, bool) {
	p, ok := v.AsAny(value.TypeRange)
	if !ok {
		return nil, false
	}
	return p.(*RangeData), true
}

// Contains reports whether n falls within r.
func (r *RangeData) Contains(n int64) bool {
	if r.From != nil {
		from, _ := (*r.From).AsInt()
		if n < from {
			return false
		}
	}
	if r.To != nil {
		to, _ := (*r.To).AsInt()
		if r.Inclusive {
			if n > to {
				return false
			}
		} else if n >= to {
			return false
		}
	}
	return true
}

// rangeIntoIter builds a NEXT-driven iterator Any value over an
// integer half-open/inclusive/from range, used as the built-in
// INTO_ITER default for TypeRange (spec §4.4.3 step 3).
func rangeIntoIter(rangeVal value.Value) (value.Value, error) {
	rd, ok := AsRange(rangeVal)
	if !ok {
		return value.Value{}, vmerr.New(vmerr.KindUnsupportedIter, "INTO_ITER: not a range value")
	}
	if rd.From == nil {
		return value.Value{}, vmerr.New(vmerr.KindUnsupportedIter, "INTO_ITER: range has no lower bound to iterate from")
	}
	from, _ := (*rd.From).AsInt()
	cur := from
	hasUpper := rd.To != nil
	var upper int64
	if hasUpper {
		upper, _ = (*rd.To).AsInt()
	}
	return newNativeIterator(func() (value.Value, bool, error) {
		if hasUpper {
			if rd.Inclusive && cur > upper {
				return value.Value{}, false, nil
			}
			if !rd.Inclusive && cur >= upper {
				return value.Value{}, false, nil
			}
		}
		v := value.FromInt(cur)
		cur++
		return v, true, nil
	}), nil
}
