// Package unit implements the immutable compiled program image consumed
// by the VM (spec §3.3, §4.3): Rtti, function entries, the pluggable
// instruction store, the Unit itself, the Module/Context builder the
// host uses to register functions and types, and the binary
// persistence format.
package unit

import "github.com/rael-lang/rael/pkg/value"

// Rtti is per-type runtime metadata for a user-defined type (spec
// §3.3): a fully-qualified item path, its stable type hash, an
// optional variant tag (for enum variants), ordered field names, and
// the arity a constructor expects.
type Rtti struct {
	Item         string
	Hash         value.Hash
	VariantTag   int
	HasVariant   bool
	FieldNames   []string
	CtorArity    int
}

// CallConvention names how a function's body must be entered (spec
// §4.4.5).
type CallConvention byte

const (
	// ConvImmediate runs the function body inline, inheriting the
	// current VM.
	ConvImmediate CallConvention = iota
	// ConvGenerator wraps the body so each call produces a generator.
	ConvGenerator
	// ConvStream wraps the body as an async generator.
	ConvStream
	// ConvAsync wraps the body as a future.
	ConvAsync
)

// Entry is what Unit.Function(hash) resolves to: an offset into the
// instruction store, the function's declared arity, and its calling
// convention.
type Entry struct {
	Offset     int
	Arity      int
	Convention CallConvention
	Name       string
}

// FunctionKind distinguishes the five shapes a Function value can take
// (spec §3.3).
type FunctionKind byte

const (
	FunctionNative FunctionKind = iota
	FunctionBytecode
	FunctionClosure
	FunctionUnitStructCtor
	FunctionTupleStructCtor
)

// NativeFn is the signature a host-registered function must satisfy:
// given an argument window it returns a Value or an error (wrapped into
// the vmerr taxonomy by the caller).
type NativeFn func(args []value.Value) (value.Value, error)

// Function is a first-class callable value's metadata. It carries its
// own type hash (spec §3.3: "Carries its own type hash so reflection
// (is, as) works uniformly") distinct from the Rtti of any struct it
// might construct.
type Function struct {
	Kind       FunctionKind
	Hash       value.Hash
	Name       string
	Arity      int
	Convention CallConvention

	// Native is set when Kind == FunctionNative.
	Native NativeFn
	// Offset/Environment are set when Kind is FunctionBytecode or
	// FunctionClosure; Environment holds the captured values for a
	// closure (spec §3.3's "Environment").
	Offset      int
	Environment []value.Value
	// CtorRtti is set for the two constructor kinds.
	CtorRtti *Rtti

	// TargetUnit/TargetCtx are set when this function value calls into a
	// different unit/context than the one invoking it (spec §4.4.5
	// "isolation"): the interpreter halts with HaltVmCall instead of
	// calling inline, so the execution driver can install the callee's
	// unit/context before resuming. Both are nil for an ordinary call.
	TargetUnit *Unit
	TargetCtx  *RuntimeContext
}
