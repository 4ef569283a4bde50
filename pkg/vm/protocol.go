package vm

import (
	"github.com/rael-lang/rael/pkg/hostval"
	"github.com/rael-lang/rael/pkg/value"
	"github.com/rael-lang/rael/pkg/vmerr"
)

// builtinHandler is the signature a built-in default implementation
// uses, matching unit.ProtocolHandler so both sources can be called
// uniformly once resolved.
type builtinHandler func(args []value.Value) (value.Value, error)

// Dispatch resolves and invokes protocolHash for the receiver's type,
// following the four-step order of spec §4.4.3:
//  1. hash the value's type (Value.Type does this already);
//  2. look up (type_hash, protocol_id) in the context;
//  3. otherwise fall back to a built-in default for the type class;
//  4. otherwise fail with a missing-protocol-function error.
func (m *VM) Dispatch(protocolHash value.Hash, args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Value{}, vmerr.New(vmerr.KindBadArgCount, "protocol dispatch requires at least a receiver argument")
	}
	typeHash := args[0].Type()

	if m.Ctx != nil {
		if h, ok := m.Ctx.ProtocolHandler(typeHash, protocolHash); ok {
			return h(args)
		}
	}

	if h, ok := builtinDefault(m, typeHash, protocolHash); ok {
		return h(args)
	}

	return value.Value{}, vmerr.New(vmerr.KindMissingProtocolFn,
		"no protocol function registered for type %s, protocol %s", typeHash, protocolHash)
}

// builtinDefault returns the interpreter's fallback implementation for
// a protocol on a built-in type class, if one exists (spec §4.4.3 step
// 3: "inline types for arithmetic; script structs for structural
// equality").
func builtinDefault(m *VM, typeHash, protocolHash value.Hash) (builtinHandler, bool) {
	switch protocolHash {
	case value.ProtocolPartialEq, value.ProtocolEq:
		return func(args []value.Value) (value.Value, error) {
			eq, ok := value.StructuralEqual(args[0], args[1])
			if !ok {
				return value.Value{}, vmerr.New(vmerr.KindUnsupportedBinaryOp, "no equality available between these types")
			}
			return value.FromBool(eq), nil
		}, true
	case value.ProtocolPartialCmp, value.ProtocolCmp:
		return func(args []value.Value) (value.Value, error) {
			ord, total, ok := value.StructuralCompare(args[0], args[1])
			if !ok {
				return value.Value{}, vmerr.New(vmerr.KindUnsupportedBinaryOp, "no ordering available between these types")
			}
			if !total {
				return value.Value{}, vmerr.New(vmerr.KindIllegalFloatCompare, "comparison involves NaN")
			}
			return value.FromOrdering(ord), nil
		}, true
	case value.ProtocolClone:
		return func(args []value.Value) (value.Value, error) {
			return args[0].Clone(), nil
		}, true
	case value.ProtocolAdd, value.ProtocolSub, value.ProtocolMul, value.ProtocolDiv, value.ProtocolRem,
		value.ProtocolBitAnd, value.ProtocolBitOr, value.ProtocolBitXor, value.ProtocolShl, value.ProtocolShr:
		if h, ok := arithmeticDefault(protocolHash); ok {
			return h, true
		}
		return nil, false
	case value.ProtocolDebugFmt:
		return func(args []value.Value) (value.Value, error) {
			return hostval.NewString(args[0].Debug()), nil
		}, true
	default:
		if h, ok := iteratorBuiltinDefault(m, typeHash, protocolHash); ok {
			return h, true
		}
		return nil, false
	}
}
