package vm

import (
	"sort"

	"github.com/rael-lang/rael/pkg/value"
	"github.com/rael-lang/rael/pkg/vmerr"
)

// VecData is the payload behind the built-in growable-array type
// (spec §9's "the portable substitute is protocol dispatch" applied to
// the teacher's Array primitive, deleted primitives.go's size/at:/
// at:put:/do: family, generalized here to the protocol table instead
// of hardcoded selectors). It lives inside a Cell via NewDynamic's
// Any counterpart so index-set can mutate in place while index-get
// observers elsewhere still see the same backing slice.
type VecData struct {
	Items []value.Value
}

// NewVec builds a runtime Vec from items (taking ownership — callers
// that still need their own copies should Clone first).
func NewVec(items []value.Value) value.Value {
	return value.NewAny(value.TypeVec, &VecData{Items: items}, func(payload interface{}) {
		vd := payload.(*VecData)
		for _, it := range vd.Items {
			it.Drop()
		}
	})
}

func asVec(v value.Value) (*VecData, bool) {
	p, ok := v.AsAny(value.TypeVec)
	if !ok {
		return nil, false
	}
	return p.(*VecData), true
}

// vecLen/vecIndexGet/vecIndexSet/vecIntoIter are the built-in defaults
// for LEN/INDEX_GET/INDEX_SET/INTO_ITER on a Vec (spec §4.4.3 step 3).
func vecLen(args []value.Value) (value.Value, error) {
	vd, ok := asVec(args[0])
	if !ok {
		return value.Value{}, vmerr.New(vmerr.KindExpectedType, "LEN: not a vec")
	}
	return value.FromUint(uint64(len(vd.Items))), nil
}

func vecIndexGet(args []value.Value) (value.Value, error) {
	vd, ok := asVec(args[0])
	if !ok {
		return value.Value{}, vmerr.New(vmerr.KindExpectedType, "INDEX_GET: not a vec")
	}
	idx, ok := args[1].AsInt()
	if !ok {
		u, uok := args[1].AsUint()
		if !uok {
			return value.Value{}, vmerr.New(vmerr.KindUnsupportedIndexGet, "vec index must be an integer")
		}
		idx = int64(u)
	}
	if idx < 0 || int(idx) >= len(vd.Items) {
		return value.Value{}, vmerr.New(vmerr.KindOutOfRange, "vec index %d out of range (len %d)", idx, len(vd.Items))
	}
	return vd.Items[idx].Clone(), nil
}

func vecIndexSet(args []value.Value) (value.Value, error) {
	vd, ok := asVec(args[0])
	if !ok {
		return value.Value{}, vmerr.New(vmerr.KindExpectedType, "INDEX_SET: not a vec")
	}
	idx, ok := args[1].AsInt()
	if !ok {
		return value.Value{}, vmerr.New(vmerr.KindUnsupportedIndexSet, "vec index must be an integer")
	}
	if idx < 0 || int(idx) >= len(vd.Items) {
		return value.Value{}, vmerr.New(vmerr.KindOutOfRange, "vec index %d out of range (len %d)", idx, len(vd.Items))
	}
	vd.Items[idx].Drop()
	vd.Items[idx] = args[2]
	return value.Unit, nil
}

func vecIntoIter(args []value.Value) (value.Value, error) {
	vd, ok := asVec(args[0])
	if !ok {
		return value.Value{}, vmerr.New(vmerr.KindUnsupportedIter, "INTO_ITER: not a vec")
	}
	i := 0
	items := vd.Items
	return newNativeIterator(func() (value.Value, bool, error) {
		if i >= len(items) {
			return value.Value{}, false, nil
		}
		v := items[i].Clone()
		i++
		return v, true, nil
	}), nil
}

func vecIntoIterBack(args []value.Value) (value.Value, error) {
	vd, ok := asVec(args[0])
	if !ok {
		return value.Value{}, vmerr.New(vmerr.KindUnsupportedIter, "NEXT_BACK: not a vec")
	}
	i := len(vd.Items) - 1
	items := vd.Items
	return newNativeIterator(func() (value.Value, bool, error) {
		if i < 0 {
			return value.Value{}, false, nil
		}
		v := items[i].Clone()
		i--
		return v, true, nil
	}), nil
}

// vecPush appends a value to the end of the vec in place (spec §9's
// Vec/collection protocol surface: push).
func vecPush(args []value.Value) (value.Value, error) {
	vd, ok := asVec(args[0])
	if !ok {
		return value.Value{}, vmerr.New(vmerr.KindExpectedType, "PUSH: not a vec")
	}
	vd.Items = append(vd.Items, args[1])
	return value.Unit, nil
}

// vecPop removes and returns the last element, wrapped as Some, or
// None if the vec is empty.
func vecPop(args []value.Value) (value.Value, error) {
	vd, ok := asVec(args[0])
	if !ok {
		return value.Value{}, vmerr.New(vmerr.KindExpectedType, "POP: not a vec")
	}
	n := len(vd.Items)
	if n == 0 {
		return NoneValue(), nil
	}
	v := vd.Items[n-1]
	vd.Items = vd.Items[:n-1]
	return SomeValue(v), nil
}

// vecInsert shifts items at and after idx one slot to the right and
// places v at idx (spec §9: insert).
func vecInsert(args []value.Value) (value.Value, error) {
	vd, ok := asVec(args[0])
	if !ok {
		return value.Value{}, vmerr.New(vmerr.KindExpectedType, "INSERT: not a vec")
	}
	idx, ok := args[1].AsInt()
	if !ok {
		return value.Value{}, vmerr.New(vmerr.KindUnsupportedIndexSet, "vec insert index must be an integer")
	}
	if idx < 0 || int(idx) > len(vd.Items) {
		return value.Value{}, vmerr.New(vmerr.KindOutOfRange, "vec insert index %d out of range (len %d)", idx, len(vd.Items))
	}
	vd.Items = append(vd.Items, value.Value{})
	copy(vd.Items[idx+1:], vd.Items[idx:])
	vd.Items[idx] = args[2]
	return value.Unit, nil
}

// vecRemove shifts items after idx one slot to the left and returns
// the removed value directly (spec §9: remove), erroring on an
// out-of-range index the same way vecIndexGet does.
func vecRemove(args []value.Value) (value.Value, error) {
	vd, ok := asVec(args[0])
	if !ok {
		return value.Value{}, vmerr.New(vmerr.KindExpectedType, "REMOVE: not a vec")
	}
	idx, ok := args[1].AsInt()
	if !ok {
		return value.Value{}, vmerr.New(vmerr.KindUnsupportedIndexGet, "vec remove index must be an integer")
	}
	if idx < 0 || int(idx) >= len(vd.Items) {
		return value.Value{}, vmerr.New(vmerr.KindOutOfRange, "vec remove index %d out of range (len %d)", idx, len(vd.Items))
	}
	removed := vd.Items[idx]
	vd.Items = append(vd.Items[:idx], vd.Items[idx+1:]...)
	return removed, nil
}

// vecSortAbort carries a mid-sort error out through sort.SliceStable, whose
// less-func has no error return of its own.
type vecSortAbort struct{ err error }

// vecSort orders the vec in place by the built-in PARTIAL_CMP/CMP
// protocol, resolving open question #2 (spec §10) the same way ordinary
// comparison instructions do: a NaN comparison aborts the sort with
// KindIllegalFloatCompare rather than producing an unspecified order.
func (m *VM) vecSort(args []value.Value) (result value.Value, err error) {
	vd, ok := asVec(args[0])
	if !ok {
		return value.Value{}, vmerr.New(vmerr.KindExpectedType, "SORT: not a vec")
	}
	defer func() {
		if r := recover(); r != nil {
			abort, ok := r.(vecSortAbort)
			if !ok {
				panic(r)
			}
			err = abort.err
		}
	}()
	sort.SliceStable(vd.Items, func(i, j int) bool {
		ord, cmpErr := m.compareOrd(vd.Items[i], vd.Items[j])
		if cmpErr != nil {
			panic(vecSortAbort{cmpErr})
		}
		return ord == value.Less
	})
	return value.Unit, nil
}

// vecSortBy orders the vec in place using a script-provided comparator
// function in place of the built-in ordering (spec §9: sort_by). The
// comparator is expected to return an Ordering the same way CMP does;
// a NaN-derived comparator error aborts the sort identically to Sort.
func (m *VM) vecSortBy(args []value.Value) (result value.Value, err error) {
	vd, ok := asVec(args[0])
	if !ok {
		return value.Value{}, vmerr.New(vmerr.KindExpectedType, "SORT_BY: not a vec")
	}
	cmpFn := args[1]
	defer func() {
		if r := recover(); r != nil {
			abort, ok := r.(vecSortAbort)
			if !ok {
				panic(r)
			}
			err = abort.err
		}
	}()
	sort.SliceStable(vd.Items, func(i, j int) bool {
		out, callErr := m.CallValue(cmpFn, []value.Value{vd.Items[i].Clone(), vd.Items[j].Clone()})
		if callErr != nil {
			panic(vecSortAbort{callErr})
		}
		ord, ok := out.AsOrdering()
		if !ok {
			panic(vecSortAbort{vmerr.New(vmerr.KindExpectedType, "sort_by comparator must return an ordering")})
		}
		return ord == value.Less
	})
	return value.Unit, nil
}

// iteratorBuiltinDefault wires the collection/range/iterator built-in
// defaults into protocol.go's fallback table. It takes *VM because
// Sort/SortBy need protocol dispatch (compareOrd/CallValue) to order
// elements, unlike the rest of the table's plain arg-only handlers.
func iteratorBuiltinDefault(m *VM, typeHash, protocolHash value.Hash) (builtinHandler, bool) {
	switch typeHash {
	case value.TypeVec:
		switch protocolHash {
		case value.ProtocolLen:
			return vecLen, true
		case value.ProtocolIndexGet:
			return vecIndexGet, true
		case value.ProtocolIndexSet:
			return vecIndexSet, true
		case value.ProtocolIntoIter:
			return vecIntoIter, true
		case value.ProtocolNextBack:
			return vecIntoIterBack, true
		case value.ProtocolPush:
			return vecPush, true
		case value.ProtocolPop:
			return vecPop, true
		case value.ProtocolInsert:
			return vecInsert, true
		case value.ProtocolRemove:
			return vecRemove, true
		case value.ProtocolSort:
			return m.vecSort, true
		case value.ProtocolSortBy:
			return m.vecSortBy, true
		}
	case value.TypeRange:
		if protocolHash == value.ProtocolIntoIter {
			return func(args []value.Value) (value.Value, error) { return rangeIntoIter(args[0]) }, true
		}
	case nativeIteratorTypeHash:
		switch protocolHash {
		case value.ProtocolNext:
			return nativeIteratorNext, true
		}
	}
	return nil, false
}
