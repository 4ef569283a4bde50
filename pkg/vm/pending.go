package vm

import (
	"github.com/rael-lang/rael/pkg/unit"
	"github.com/rael-lang/rael/pkg/value"
)

// PendingExecutionTypeHash tags the Any wrapper CallValue produces when
// it resolves to a Generator/Stream/Async-convention function (spec
// §4.4.5): the package driving NEXT on this wrapper lives in
// pkg/execution, which can import pkg/vm; pkg/vm cannot import it back,
// so this struct stays a plain data carrier plus an opaque Driver slot
// that pkg/execution populates lazily on first NEXT.
var PendingExecutionTypeHash = value.HashPath("type::pending_execution")

// PendingExecution is the wrapped result of calling a non-immediate
// function as a first-class value (spec §4.4.5 "calling a function
// whose convention is Generator/Stream/Async must produce a wrapped
// execution value"). Driver is owned and type-asserted entirely by
// whichever package registers PendingExecutionTypeHash's NEXT handler;
// this package never reads or writes it.
type PendingExecution struct {
	Convention unit.CallConvention
	Function   *unit.Function
	Args       []value.Value
	Unit       *unit.Unit
	Ctx        *unit.RuntimeContext
	Driver     interface{}
}

// NewPendingExecution wraps a resolved non-immediate call as an Any
// value of type PendingExecutionTypeHash.
func NewPendingExecution(uf *unit.Function, args []value.Value, u *unit.Unit, ctx *unit.RuntimeContext) value.Value {
	pe := &PendingExecution{
		Convention: uf.Convention,
		Function:   uf,
		Args:       args,
		Unit:       u,
		Ctx:        ctx,
	}
	return value.NewAny(PendingExecutionTypeHash, pe, func(payload interface{}) {
		p := payload.(*PendingExecution)
		for _, a := range p.Args {
			a.Drop()
		}
	})
}

// AsPendingExecution downcasts v into its PendingExecution, if it is one.
func AsPendingExecution(v value.Value) (*PendingExecution, bool) {
	p, ok := v.AsAny(PendingExecutionTypeHash)
	if !ok {
		return nil, false
	}
	return p.(*PendingExecution), true
}
