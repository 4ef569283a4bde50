package execution

import (
	"github.com/rael-lang/rael/pkg/value"
	"github.com/rael-lang/rael/pkg/vm"
)

// Generator adapts a VmExecution into a pull-based iterator over its
// yielded values (spec §4.5 "into_generator() — wrap the execution as
// a value producer; each Next() call resumes until the next yield or
// the execution exits").
type Generator struct {
	exec   *VmExecution
	budget *vm.Budget
	resume value.Value
}

// IntoGenerator wraps e as a Generator driven by budget (reused across
// every Next call, so a caller that wants a fresh instruction
// allowance per step must reset it between calls).
func (e *VmExecution) IntoGenerator(budget *vm.Budget) *Generator {
	return &Generator{exec: e, budget: budget, resume: value.Unit}
}

// Next resumes the execution and returns the next yielded value. The
// second result is false once the execution has exited, at which
// point the returned value is the execution's final value rather than
// a yield (mirroring a range-over-func adaptor that also wants the
// trailing return value).
func (g *Generator) Next() (value.Value, bool, error) {
	var gs GeneratorState
	var err error
	if g.exec.IsResumed() {
		gs, err = g.exec.ResumeWith(g.budget, g.resume)
	} else {
		gs, err = g.exec.Resume(g.budget)
	}
	if err != nil {
		return value.Value{}, false, err
	}
	g.resume = value.Unit
	return gs.Value, gs.Yielded, nil
}

// Send queues v to be handed back as the yield expression's result on
// the next Next call, for generators whose yield points produce a
// value the driver consumes (spec §4.4.5 "resume_with").
func (g *Generator) Send(v value.Value) {
	g.resume = v
}
