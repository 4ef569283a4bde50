// Package vmerr implements the error taxonomy of spec §7 as typed Go
// errors, plus the stack-trace record chain that every VM error
// unwind attaches. It is grounded on the teacher's
// pkg/vm/errors.go (RuntimeError/StackFrame), generalized from one
// flat message-plus-trace type into a Kind-tagged family so callers
// can match on Kind without parsing strings, and built on
// github.com/pkg/errors for the Cause()/wrapped-error chain the
// teacher's single-message type didn't need.
package vmerr

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Kind names one of the error families in spec §7.
type Kind string

const (
	// Structural
	KindBadInstruction       Kind = "bad_instruction"
	KindBadJump              Kind = "bad_jump"
	KindIPOutOfBounds        Kind = "ip_out_of_bounds"
	KindMissingFunction      Kind = "missing_function"
	KindMissingContextFn     Kind = "missing_context_function"
	KindMissingInstanceFn    Kind = "missing_instance_function"
	KindMissingProtocolFn    Kind = "missing_protocol_function"
	KindMissingRtti          Kind = "missing_rtti"
	KindMissingStaticString  Kind = "missing_static_string"
	KindMissingStaticBytes   Kind = "missing_static_bytes"
	KindMissingObjectKeys    Kind = "missing_object_keys"
	KindMissingDropSet       Kind = "missing_drop_set"
	KindMissingEntry         Kind = "missing_entry"

	// Type
	KindExpectedType          Kind = "expected_type"
	KindExpectedTuple         Kind = "expected_tuple"
	KindExpectedStruct        Kind = "expected_struct"
	KindExpectedVariant       Kind = "expected_variant"
	KindExpectedEmpty         Kind = "expected_empty"
	KindExpectedAny           Kind = "expected_any"
	KindUnsupportedBinaryOp   Kind = "unsupported_binary_op"
	KindUnsupportedUnaryOp    Kind = "unsupported_unary_op"
	KindUnsupportedIndexGet   Kind = "unsupported_index_get"
	KindUnsupportedIndexSet   Kind = "unsupported_index_set"
	KindUnsupportedIs         Kind = "unsupported_is"
	KindUnsupportedAs         Kind = "unsupported_as"
	KindUnsupportedCallTarget Kind = "unsupported_call_target"
	KindUnsupportedTry        Kind = "unsupported_try"
	KindUnsupportedIter       Kind = "unsupported_iter"
	KindIllegalFloatCompare   Kind = "illegal_float_comparison"
	KindIllegalFormat         Kind = "illegal_format"

	// Bounds
	KindOutOfRange      Kind = "out_of_range"
	KindBadArgCount     Kind = "bad_argument_count"
	KindBadEnvCount     Kind = "bad_environment_count"
	KindExpectedTupleLen Kind = "expected_tuple_length"

	// Arithmetic
	KindOverflow     Kind = "overflow"
	KindUnderflow    Kind = "underflow"
	KindDivideByZero Kind = "divide_by_zero"

	// Resource
	KindAllocationFailure Kind = "allocation_failure"
	KindStackError        Kind = "stack_error"
	KindSliceError        Kind = "slice_error"
	KindAccessError       Kind = "access_error"
	KindNotOwned          Kind = "not_owned"
	KindDynArgsUsed       Kind = "dyn_args_used"

	// Control
	KindHaltedUnexpectedly Kind = "halted_unexpectedly"
	KindWrongExecutionState Kind = "wrong_execution_state"
	KindGeneratorComplete  Kind = "generator_complete"
	KindFutureComplete     Kind = "future_complete"

	// Host
	KindHostPanic Kind = "host_panic"
	KindHostError Kind = "host_error"
)

// Frame is one entry in a VM error's stack trace: the instruction
// pointer, the unit name it belongs to, and the function active at
// that site (spec §7 "(ip, unit, call-frame snapshot)"). This is the
// direct descendant of the teacher's StackFrame, trimmed of the
// Smalltalk-specific Selector field (there is no message-send selector
// in this system) and renamed Unit/Function for the unit-based model.
type Frame struct {
	Unit     string
	Function string
	IP       int
}

func (f Frame) String() string {
	if f.Function == "" {
		return fmt.Sprintf("%s@%d", f.Unit, f.IP)
	}
	return fmt.Sprintf("%s::%s@%d", f.Unit, f.Function, f.IP)
}

// Error is a VM runtime error: a Kind, a human-readable message, an
// optional wrapped cause (for Host errors that lift a host-raised
// error into this taxonomy), and the stack-trace chain accumulated as
// the error unwound through nested calls (spec §7 "a primary
// error-at-site, a chain of contributory error sites, and a full stack
// trace").
type Error struct {
	Kind    Kind
	Message string
	Cause   error
	Trace   []Frame
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	if len(e.Trace) > 0 {
		b.WriteString("\n\nstack trace:")
		for i := len(e.Trace) - 1; i >= 0; i-- {
			b.WriteString("\n  at ")
			b.WriteString(e.Trace[i].String())
		}
	}
	return b.String()
}

// Unwrap exposes the wrapped cause so errors.Is/As work across the
// vmerr/pkg-errors boundary.
func (e *Error) Unwrap() error { return e.Cause }

// New constructs an Error with no trace yet; the interpreter attaches
// frames as the error unwinds (see Push).
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap lifts a host-raised or library error into the taxonomy under
// kind, preserving it as Cause via github.com/pkg/errors so the
// original stack (if the wrapped error carries one) is not lost.
func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: errors.WithStack(cause)}
}

// Push appends a trace frame to e and returns e, called once per call
// frame as an error unwinds through the interpreter and execution
// driver (spec §7 "Nested VM calls unwind through the execution
// driver, each layer pushing its own trace record").
func (e *Error) Push(f Frame) *Error {
	e.Trace = append(e.Trace, f)
	return e
}

// Push is a free function so callers holding a plain `error` can
// attach a frame without a type assertion when they know (or don't
// care) whether it is a *vmerr.Error; non-Error values pass through
// unchanged.
func Push(err error, f Frame) error {
	if ve, ok := err.(*Error); ok {
		return ve.Push(f)
	}
	return err
}

// Is reports whether err is a *Error of the given kind, unwrapping
// through github.com/pkg/errors-style causes.
func Is(err error, kind Kind) bool {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Kind == kind
	}
	return false
}
