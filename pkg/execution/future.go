package execution

import (
	"context"

	"github.com/rael-lang/rael/pkg/value"
)

// FutureTypeHash tags the Any-typed value OpAwait's operand must carry
// for the async driver to poll it (spec §4.4.5's async calling
// convention, §4.5's Awaited halt).
var FutureTypeHash = value.HashPath("type::future")

// Future is the host-side contract a value must satisfy to be awaited.
// Await blocks until the future resolves or ctx is cancelled, which is
// the Go-idiomatic rendering of original_source/runtime/vm_execution.rs's
// `awaited.into_vm(vm).await` (a Rust poll loop driven by an external
// executor) — Go has no bare poll primitive, so this package asks hosts
// for a blocking, context-aware Await instead of a Poll method.
type Future interface {
	Await(ctx context.Context) (value.Value, error)
}

// NewFuture wraps f as an Any value of type FutureTypeHash, ready to be
// the operand of an OpAwait instruction.
func NewFuture(f Future) value.Value {
	return value.NewAny(FutureTypeHash, f, nil)
}

func asFuture(v value.Value) (Future, bool) {
	p, ok := v.AsAny(FutureTypeHash)
	if !ok {
		return nil, false
	}
	f, ok := p.(Future)
	return f, ok
}
