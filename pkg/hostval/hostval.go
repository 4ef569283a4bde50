// Package hostval implements the ToValue/FromValue contract named in
// spec §6.1 ("marshal arguments through the ToValue contract
// (infallible or fallible conversion from host type to Value), ...
// unmarshal the result through FromValue") and the proxy-wrapping idea
// for exposing a host type's methods as instance functions, grounded
// on original_source/examples/examples/custom_instance_fn.rs and
// proxy.rs plus the teacher's ad hoc Go-value<->script-value
// conversions scattered through the deleted pkg/vm/primitives.go
// (e.g. its JSON parse/generate and its Array/Instance marshalling).
package hostval

import (
	"fmt"
	"reflect"

	"github.com/rael-lang/rael/pkg/value"
)

// ToValue converts a host Go value into a runtime Value. Conversion is
// fallible because a host value might be of a type with no registered
// mapping (spec §6.1: "infallible or fallible conversion").
func ToValue(v interface{}) (value.Value, error) {
	switch x := v.(type) {
	case nil:
		return value.Unit, nil
	case value.Value:
		return x, nil
	case bool:
		return value.FromBool(x), nil
	case rune:
		return value.FromChar(x), nil
	case int:
		return value.FromInt(int64(x)), nil
	case int64:
		return value.FromInt(x), nil
	case uint:
		return value.FromUint(uint64(x)), nil
	case uint64:
		return value.FromUint(x), nil
	case float64:
		return value.FromFloat(x), nil
	case float32:
		return value.FromFloat(float64(x)), nil
	case byte:
		return value.FromByte(x), nil
	case string:
		return NewString(x), nil
	case []byte:
		return NewBytes(x), nil
	default:
		return value.Value{}, fmt.Errorf("hostval: no ToValue conversion for %s", reflect.TypeOf(v))
	}
}

// MustToValue panics on conversion failure; reserved for host call
// sites that have already validated the argument's shape (e.g. a
// wrapper generated from a statically-typed native function
// signature).
func MustToValue(v interface{}) value.Value {
	val, err := ToValue(v)
	if err != nil {
		panic(err)
	}
	return val
}

// FromValue converts a runtime Value back into a host Go value of the
// requested shape. out must be a non-nil pointer to one of the
// supported Go types (mirroring the teacher's JSON-generate direction
// of conversion, generalized from interface{} stack slots to typed
// Values).
func FromValue(v value.Value, out interface{}) error {
	switch p := out.(type) {
	case *bool:
		b, ok := v.AsBool()
		if !ok {
			return typeMismatch("bool", v)
		}
		*p = b
	case *rune:
		c, ok := v.AsChar()
		if !ok {
			return typeMismatch("char", v)
		}
		*p = c
	case *int64:
		i, ok := v.AsInt()
		if !ok {
			return typeMismatch("int", v)
		}
		*p = i
	case *uint64:
		u, ok := v.AsUint()
		if !ok {
			return typeMismatch("uint", v)
		}
		*p = u
	case *float64:
		f, ok := v.AsFloat()
		if !ok {
			return typeMismatch("float", v)
		}
		*p = f
	case *byte:
		b, ok := v.AsByte()
		if !ok {
			return typeMismatch("byte", v)
		}
		*p = b
	case *string:
		s, ok := AsString(v)
		if !ok {
			return typeMismatch("string", v)
		}
		*p = s
	case *[]byte:
		bs, ok := AsBytes(v)
		if !ok {
			return typeMismatch("bytes", v)
		}
		*p = bs
	default:
		return fmt.Errorf("hostval: no FromValue conversion into %s", reflect.TypeOf(out))
	}
	return nil
}

func typeMismatch(want string, got value.Value) error {
	return fmt.Errorf("hostval: expected %s, got kind %d", want, got.Kind())
}

// stringBox/bytesBox are the Any payloads backing NewString/NewBytes:
// the runtime's string and byte-buffer types are host ("Any") values
// rather than inline Values, matching spec §3.1's "Any: reference to a
// heap-allocated host-defined value" for every type beyond the fixed
// inline set.
type stringBox struct{ s string }
type bytesBox struct{ b []byte }

// NewString wraps a Go string as a runtime Any value tagged
// value.TypeString.
func NewString(s string) value.Value {
	return value.NewAny(value.TypeString, &stringBox{s: s}, nil)
}

// AsString downcasts v into its Go string, if it is one.
func AsString(v value.Value) (string, bool) {
	p, ok := v.AsAny(value.TypeString)
	if !ok {
		return "", false
	}
	return p.(*stringBox).s, true
}

// NewBytes wraps a Go []byte as a runtime Any value tagged
// value.TypeBytes.
func NewBytes(b []byte) value.Value {
	return value.NewAny(value.TypeBytes, &bytesBox{b: b}, nil)
}

// AsBytes downcasts v into its Go []byte, if it is one.
func AsBytes(v value.Value) ([]byte, bool) {
	p, ok := v.AsAny(value.TypeBytes)
	if !ok {
		return nil, false
	}
	return p.(*bytesBox).b, true
}

// Proxy wraps an arbitrary host value so its methods can be installed
// as instance functions on a unit.Module (spec §6.1's instance
// functions; original_source's custom_instance_fn.rs/proxy.rs pattern
// of exposing selected host methods without hand-writing a full Rtti
// struct for the host type). MethodNames is used purely for
// diagnostics; dispatch happens through the Module's registered
// Functions, not through reflection at call time.
type Proxy struct {
	TypeHash    value.Hash
	MethodNames []string
	Target      interface{}
}

// NewProxy wraps target as an Any value carrying typeHash, alongside a
// Proxy descriptor a Module builder can use to enumerate declared
// methods when registering instance functions for it.
func NewProxy(typeHash value.Hash, methodNames []string, target interface{}) (value.Value, *Proxy) {
	p := &Proxy{TypeHash: typeHash, MethodNames: methodNames, Target: target}
	return value.NewAny(typeHash, target, nil), p
}
