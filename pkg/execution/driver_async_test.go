package execution_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rael-lang/rael/pkg/execution"
	"github.com/rael-lang/rael/pkg/stack"
	"github.com/rael-lang/rael/pkg/unit"
	"github.com/rael-lang/rael/pkg/value"
	"github.com/rael-lang/rael/pkg/vm"
)

// fixedFuture resolves immediately to a fixed value.
type fixedFuture struct{ v value.Value }

func (f fixedFuture) Await(ctx context.Context) (value.Value, error) { return f.v, nil }

// failingFuture always errors.
type failingFuture struct{}

func (failingFuture) Await(ctx context.Context) (value.Value, error) {
	return value.Value{}, assert.AnError
}

// newAwaitingExec builds a unit that awaits register 0 (pre-seeded
// with a future by the caller) and returns its resolved value.
func newAwaitingExec(t *testing.T, fut value.Value) *execution.VmExecution {
	t.Helper()
	b := unit.NewBuilder()
	b.Emit(unit.Inst{Op: unit.OpAwait, A: 0, Out: unit.Keep(0)})
	b.Emit(unit.Inst{Op: unit.OpReturn, A: 0})
	u := b.Build()
	m := vm.New(u, unit.NewContext())
	require.NoError(t, m.Stack.Resize(1))
	require.NoError(t, m.Stack.Store(stack.Keep(0), fut))
	return execution.New(m)
}

func TestAsyncCompleteResolvesAwaitedFuture(t *testing.T) {
	fut := execution.NewFuture(fixedFuture{v: value.FromInt(42)})
	e := newAwaitingExec(t, fut)

	v, err := e.AsyncComplete(context.Background(), nil)
	require.NoError(t, err)
	i, ok := v.AsInt()
	require.True(t, ok)
	assert.EqualValues(t, 42, i)
}

func TestAsyncCompletePropagatesFutureError(t *testing.T) {
	fut := execution.NewFuture(failingFuture{})
	e := newAwaitingExec(t, fut)

	_, err := e.AsyncComplete(context.Background(), nil)
	require.Error(t, err)
}

func TestAsyncCompleteRejectsNonFutureOperand(t *testing.T) {
	e := newAwaitingExec(t, value.FromInt(5))
	_, err := e.AsyncComplete(context.Background(), nil)
	require.Error(t, err)
}

func TestAsyncStepResolvesAwaitThenExits(t *testing.T) {
	fut := execution.NewFuture(fixedFuture{v: value.FromInt(9)})
	e := newAwaitingExec(t, fut)

	var final *value.Value
	var err error
	steps := 0
	for final == nil {
		final, err = e.AsyncStep(context.Background())
		require.NoError(t, err)
		steps++
		require.Less(t, steps, 100)
	}
	i, ok := final.AsInt()
	require.True(t, ok)
	assert.EqualValues(t, 9, i)
}
