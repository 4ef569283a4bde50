// Package rlog wraps go.uber.org/zap with the small set of structured
// fields the runtime logs at (unit/function/ip context on instruction
// faults, cell-drop failures, budget exhaustion). The teacher has no
// logging library at all (its debugger prints straight to stdout via
// fmt); this package is the "ambient stack" piece SPEC_FULL.md adds,
// grounded on DataDog-datadog-agent's zap usage pack-wide.
package rlog

import (
	"sync"

	"go.uber.org/zap"
)

var (
	once   sync.Once
	global *zap.Logger
)

// L returns the process-wide logger, building a sane production
// logger on first use. Host embedders may replace it with Set.
func L() *zap.Logger {
	once.Do(func() {
		l, err := zap.NewProduction()
		if err != nil {
			l = zap.NewNop()
		}
		global = l
	})
	return global
}

// Set installs a caller-provided logger (e.g. a development logger
// under test, or one configured from hostconfig.Config.Logging).
func Set(l *zap.Logger) {
	once.Do(func() {})
	global = l
}

// DropFailure logs a payload drop-handler panic or error recovered
// during Cell.Release, per spec §5 "destructor failures logged not
// propagated".
func DropFailure(typeHash string, err interface{}) {
	L().Error("drop handler failed", zap.String("type_hash", typeHash), zap.Any("error", err))
}

// InstructionFault logs a recovered interpreter-level error at the
// point it was raised, before it is wrapped into a vmerr.Error and
// returned up the call stack.
func InstructionFault(unit string, function string, ip int, err error) {
	L().Warn("instruction fault",
		zap.String("unit", unit),
		zap.String("function", function),
		zap.Int("ip", ip),
		zap.Error(err),
	)
}

// BudgetExhausted logs a Limited halt, used by hosts that want to
// correlate VM starvation with scheduling decisions.
func BudgetExhausted(unit string, ip int) {
	L().Info("instruction budget exhausted", zap.String("unit", unit), zap.Int("ip", ip))
}
