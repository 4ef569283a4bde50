package execution

import (
	"context"

	"github.com/rael-lang/rael/pkg/value"
	"github.com/rael-lang/rael/pkg/vm"
)

// Stream is Generator's async counterpart: a pull-based iterator whose
// Next call may block on an awaited future before the next value is
// ready (spec §4.5 "into_stream()").
type Stream struct {
	exec   *VmExecution
	budget *vm.Budget
	resume value.Value
}

// IntoStream wraps e as a Stream driven by budget.
func (e *VmExecution) IntoStream(budget *vm.Budget) *Stream {
	return &Stream{exec: e, budget: budget, resume: value.Unit}
}

// Next resumes the execution, awaiting any future it suspends on
// through ctx, and returns the next yielded value. The second result
// is false once the execution has exited.
func (s *Stream) Next(ctx context.Context) (value.Value, bool, error) {
	var gs GeneratorState
	var err error
	if s.exec.IsResumed() {
		gs, err = s.exec.AsyncResumeWith(ctx, s.budget, s.resume)
	} else {
		gs, err = s.exec.AsyncResume(ctx, s.budget)
	}
	if err != nil {
		return value.Value{}, false, err
	}
	s.resume = value.Unit
	return gs.Value, gs.Yielded, nil
}

// Send queues v to be handed back as the yield expression's result on
// the next Next call.
func (s *Stream) Send(v value.Value) {
	s.resume = v
}
