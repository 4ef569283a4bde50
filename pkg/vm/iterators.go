package vm

import (
	"github.com/rael-lang/rael/pkg/unit"
	"github.com/rael-lang/rael/pkg/value"
	"github.com/rael-lang/rael/pkg/vmerr"
)

// nativeIteratorTypeHash tags every iterator this package constructs —
// a Vec's INTO_ITER, a range's INTO_ITER, and every composition
// adapter below (map, filter, chain, ...) — so they all share one
// NEXT default (spec §4.4.3's "uniform composition with script-defined
// iterators": script iterators implement NEXT themselves via a
// registered handler, host ones via this shared Any payload).
var nativeIteratorTypeHash = value.HashPath("type::native_iterator")

// nativeIterState holds a pull function returning (value, hasMore,
// error). Every adapter wraps an inner pull with its own logic and
// produces a new value of the same Any type, which is exactly the
// "Any-typed value whose NEXT handler drives an underlying Value
// through the same NEXT protocol" design spec §4.4.3 calls for. A
// non-nil error means a real protocol-dispatch failure occurred
// mid-iteration (spec §7's error-propagation discipline) and must
// reach the caller rather than being read as end-of-iteration.
type nativeIterState struct {
	pull func() (value.Value, bool, error)
	// peeked holds a buffered element for the Peekable adapter.
	peeked    *value.Value
	peekedSet bool
}

func newNativeIterator(pull func() (value.Value, bool, error)) value.Value {
	return value.NewAny(nativeIteratorTypeHash, &nativeIterState{pull: pull}, nil)
}

func nativeIteratorNext(args []value.Value) (value.Value, error) {
	st, ok := args[0].AsAny(nativeIteratorTypeHash)
	if !ok {
		return value.Value{}, vmerr.New(vmerr.KindUnsupportedIter, "NEXT: not a native iterator")
	}
	ns := st.(*nativeIterState)
	v, more, err := ns.pull()
	if err != nil {
		return value.Value{}, err
	}
	if !more {
		return NoneValue(), nil
	}
	return SomeValue(v), nil
}

// SomeValue wraps v as the built-in Option::Some variant, the same
// shape NEXT returns for "value available" everywhere in this package.
func SomeValue(v value.Value) value.Value {
	variant, _ := MakeVariant(someRtti, []value.Value{v})
	return variant
}

// NoneValue constructs the built-in Option::None variant.
func NoneValue() value.Value {
	variant, _ := MakeVariant(noneRtti, nil)
	return variant
}

// someRtti/noneRtti describe the built-in Option enum's two variants,
// used to represent NEXT's "value or end of iteration" result the way
// a script-level Option<T> would (spec §4.4.2 "next (NEXT protocol)").
var (
	optionTypeHash = value.HashPath("type::option")
	someRtti       = &unit.Rtti{Item: "Option::Some", Hash: optionTypeHash, HasVariant: true, VariantTag: 0, FieldNames: []string{"0"}, CtorArity: 1}
	noneRtti       = &unit.Rtti{Item: "Option::None", Hash: optionTypeHash, HasVariant: true, VariantTag: 1, CtorArity: 0}
)

// MakeVariant is a package-level convenience used where no *VM is in
// scope (iterator plumbing runs outside any particular call frame).
func MakeVariant(rtti *unit.Rtti, fields []value.Value) (value.Value, error) {
	if len(fields) != rtti.CtorArity {
		return value.Value{}, vmerr.New(vmerr.KindBadArgCount, "%s: expected %d fields, got %d", rtti.Item, rtti.CtorArity, len(fields))
	}
	return value.NewDynamic(&value.DynamicData{
		TypeHash:   rtti.Hash,
		Shape:      value.ShapeVariant,
		VariantTag: rtti.VariantTag,
		FieldNames: rtti.FieldNames,
		Fields:     cloneFields(fields),
	}), nil
}

// pullNext drives iterVal's NEXT protocol once, returning (value,
// true) for Some and (_, false) for None/unit.
func (m *VM) pullNext(iterVal value.Value) (value.Value, bool, error) {
	result, err := m.Dispatch(value.ProtocolNext, []value.Value{iterVal})
	if err != nil {
		return value.Value{}, false, err
	}
	if result.Kind() == value.KindUnit {
		return value.Value{}, false, nil
	}
	d, ok := result.AsDynamic()
	if !ok || d.Shape != value.ShapeVariant || d.TypeHash != optionTypeHash {
		return value.Value{}, false, vmerr.New(vmerr.KindExpectedType, "NEXT must return an Option-shaped variant or unit")
	}
	if d.VariantTag == noneRtti.VariantTag {
		return value.Value{}, false, nil
	}
	return d.Fields[0].Clone(), true, nil
}

// IterMap builds the `map` adapter: each pulled element is passed
// through fn before being yielded (spec §4.4.3 "Iterator composition
// ... map").
func (m *VM) IterMap(iterVal value.Value, fn value.Value) value.Value {
	return newNativeIterator(func() (value.Value, bool, error) {
		v, ok, err := m.pullNext(iterVal)
		if err != nil {
			return value.Value{}, false, err
		}
		if !ok {
			return value.Value{}, false, nil
		}
		out, err := m.CallValue(fn, []value.Value{v})
		if err != nil {
			return value.Value{}, false, err
		}
		return out, true, nil
	})
}

// IterFilter builds the `filter` adapter: only elements for which
// predicate returns a truthy bool are yielded.
func (m *VM) IterFilter(iterVal value.Value, predicate value.Value) value.Value {
	return newNativeIterator(func() (value.Value, bool, error) {
		for {
			v, ok, err := m.pullNext(iterVal)
			if err != nil {
				return value.Value{}, false, err
			}
			if !ok {
				return value.Value{}, false, nil
			}
			keep, err := m.CallValue(predicate, []value.Value{v.Clone()})
			if err != nil {
				v.Drop()
				return value.Value{}, false, err
			}
			b, _ := keep.AsBool()
			if b {
				return v, true, nil
			}
			v.Drop()
		}
	})
}

// IterChain builds the `chain` adapter: drains first, then second.
func (m *VM) IterChain(first, second value.Value) value.Value {
	onFirst := true
	return newNativeIterator(func() (value.Value, bool, error) {
		if onFirst {
			v, ok, err := m.pullNext(first)
			if err != nil {
				return value.Value{}, false, err
			}
			if ok {
				return v, true, nil
			}
			onFirst = false
		}
		return m.pullNext(second)
	})
}

// IterFlatMap builds the `flat_map` adapter: fn maps each element to a
// nested iterator, whose elements are flattened into the output.
func (m *VM) IterFlatMap(iterVal value.Value, fn value.Value) value.Value {
	var inner value.Value
	hasInner := false
	return newNativeIterator(func() (value.Value, bool, error) {
		for {
			if hasInner {
				v, ok, err := m.pullNext(inner)
				if err != nil {
					return value.Value{}, false, err
				}
				if ok {
					return v, true, nil
				}
				hasInner = false
			}
			v, ok, err := m.pullNext(iterVal)
			if err != nil {
				return value.Value{}, false, err
			}
			if !ok {
				return value.Value{}, false, nil
			}
			next, err := m.CallValue(fn, []value.Value{v})
			if err != nil {
				return value.Value{}, false, err
			}
			inner = next
			hasInner = true
		}
	})
}

// IterPeekable builds the `peekable` adapter: supports one call of
// Peek that doesn't consume the element (spec §8's "Idempotent
// iteration... for peekable, peek followed by next yields the same
// element exactly once").
func (m *VM) IterPeekable(iterVal value.Value) value.Value {
	state := &nativeIterState{}
	state.pull = func() (value.Value, bool, error) {
		if state.peekedSet {
			v := *state.peeked
			state.peekedSet = false
			state.peeked = nil
			return v, true, nil
		}
		return m.pullNext(iterVal)
	}
	return value.NewAny(nativeIteratorTypeHash, state, nil)
}

// Peek returns the next element without consuming it, buffering it for
// the following Next call.
func (m *VM) Peek(peekableVal value.Value) (value.Value, bool, error) {
	st, ok := peekableVal.AsAny(nativeIteratorTypeHash)
	if !ok {
		return value.Value{}, false, vmerr.New(vmerr.KindUnsupportedIter, "peek: not a native iterator")
	}
	ns := st.(*nativeIterState)
	if ns.peekedSet {
		return *ns.peeked, true, nil
	}
	v, more, err := ns.pull()
	if err != nil {
		return value.Value{}, false, err
	}
	if !more {
		return value.Value{}, false, nil
	}
	ns.peeked = &v
	ns.peekedSet = true
	return v, true, nil
}

// IterSkip builds the `skip` adapter: discards the first n elements.
func (m *VM) IterSkip(iterVal value.Value, n int) value.Value {
	skipped := false
	return newNativeIterator(func() (value.Value, bool, error) {
		if !skipped {
			for i := 0; i < n; i++ {
				_, ok, err := m.pullNext(iterVal)
				if err != nil {
					return value.Value{}, false, err
				}
				if !ok {
					break
				}
			}
			skipped = true
		}
		return m.pullNext(iterVal)
	})
}

// IterTake builds the `take` adapter: yields at most n elements.
func (m *VM) IterTake(iterVal value.Value, n int) value.Value {
	remaining := n
	return newNativeIterator(func() (value.Value, bool, error) {
		if remaining <= 0 {
			return value.Value{}, false, nil
		}
		v, ok, err := m.pullNext(iterVal)
		if err != nil {
			return value.Value{}, false, err
		}
		if !ok {
			remaining = 0
			return value.Value{}, false, nil
		}
		remaining--
		return v, true, nil
	})
}

// IterEnumerate builds the `enumerate` adapter: pairs each element
// with its 0-based index as a two-element tuple.
func (m *VM) IterEnumerate(iterVal value.Value) value.Value {
	idx := int64(0)
	return newNativeIterator(func() (value.Value, bool, error) {
		v, ok, err := m.pullNext(iterVal)
		if err != nil {
			return value.Value{}, false, err
		}
		if !ok {
			return value.Value{}, false, nil
		}
		pair := MakeTuple([]value.Value{value.FromInt(idx), v})
		idx++
		return pair, true, nil
	})
}

// IterRev builds the `rev` adapter, which requires the underlying
// value to implement NEXT_BACK (spec §4.4.3 "The rev adapter requires
// the underlying value to implement NEXT_BACK").
func (m *VM) IterRev(iterVal value.Value) (value.Value, error) {
	// Validate eagerly that NEXT_BACK is available, rather than
	// failing lazily on the first pull.
	if _, ok := m.Ctx.ProtocolHandler(iterVal.Type(), value.ProtocolNextBack); !ok {
		if _, ok := iteratorBuiltinDefault(m, iterVal.Type(), value.ProtocolNextBack); !ok {
			return value.Value{}, vmerr.New(vmerr.KindUnsupportedIter, "rev: underlying iterator has no NEXT_BACK")
		}
	}
	return newNativeIterator(func() (value.Value, bool, error) {
		result, err := m.Dispatch(value.ProtocolNextBack, []value.Value{iterVal})
		if err != nil {
			return value.Value{}, false, err
		}
		if result.Kind() == value.KindUnit {
			return value.Value{}, false, nil
		}
		d, ok := result.AsDynamic()
		if !ok {
			return value.Value{}, false, vmerr.New(vmerr.KindExpectedType, "NEXT_BACK must return an Option-shaped variant or unit")
		}
		if d.VariantTag == noneRtti.VariantTag {
			return value.Value{}, false, nil
		}
		return d.Fields[0].Clone(), true, nil
	}), nil
}

// Collect drains iterVal fully into a Vec (spec §8 scenario 4's
// `.collect::<Vec>()`).
func (m *VM) Collect(iterVal value.Value) (value.Value, error) {
	var items []value.Value
	for {
		v, ok, err := m.pullNext(iterVal)
		if err != nil {
			return value.Value{}, err
		}
		if !ok {
			break
		}
		items = append(items, v)
	}
	return NewVec(items), nil
}
