// Command raelvm is a thin embedding demo for the register VM: load a
// persisted unit, invoke one of its functions by name, and print the
// result. It mirrors kristofer/smog's cmd/smog/main.go entry point
// (file-driven subcommands over a persistent runtime) without the
// Smalltalk source front end, since this module's scope stops at the
// bytecode boundary (spec §6.1's host embedding surface).
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rael-lang/rael/pkg/execution"
	"github.com/rael-lang/rael/pkg/hostconfig"
	"github.com/rael-lang/rael/pkg/hostval"
	"github.com/rael-lang/rael/pkg/rlog"
	"github.com/rael-lang/rael/pkg/stack"
	"github.com/rael-lang/rael/pkg/unit"
	"github.com/rael-lang/rael/pkg/value"
	"github.com/rael-lang/rael/pkg/vm"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "raelvm",
		Short: "Embed and drive the register VM from the command line",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a hostconfig YAML file")

	root.AddCommand(newRunCmd(), newDisasmCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*hostconfig.Config, error) {
	if configPath == "" {
		return hostconfig.Default(), nil
	}
	cfg, err := hostconfig.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func installLogger(cfg *hostconfig.Config) {
	var zcfg zap.Config
	if cfg.Logging.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	if lvl, err := zap.ParseAtomicLevel(cfg.Logging.Level); err == nil {
		zcfg.Level = lvl
	}
	if l, err := zcfg.Build(); err == nil {
		rlog.Set(l)
	}
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <unit-file> <function> [args...]",
		Short: "Load a persisted unit and invoke one of its functions to completion",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, cliArgs []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			installLogger(cfg)

			u, err := loadUnit(cliArgs[0])
			if err != nil {
				return err
			}
			entry, ok := findFunction(u, cliArgs[1])
			if !ok {
				return fmt.Errorf("raelvm: unit has no function named %q", cliArgs[1])
			}

			args, err := marshalArgs(cliArgs[2:])
			if err != nil {
				return err
			}
			if len(args) != entry.Arity {
				return fmt.Errorf("raelvm: %s expects %d argument(s), got %d", entry.Name, entry.Arity, len(args))
			}

			m := vm.New(u, unit.NewContext(execution.Module()))
			if cfg.Budget > 0 {
				return runWithBudget(m, entry, args, cfg.Budget)
			}
			return runEntry(m, entry, args)
		},
	}
}

func newDisasmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disasm <unit-file>",
		Short: "Print the instruction sequence of a persisted unit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, cliArgs []string) error {
			u, err := loadUnit(cliArgs[0])
			if err != nil {
				return err
			}
			fmt.Println("Functions:")
			for hash, e := range u.Functions() {
				fmt.Printf("  %s  offset=%d arity=%d convention=%d hash=%s\n", e.Name, e.Offset, e.Arity, e.Convention, hash)
			}
			fmt.Println("\nInstructions:")
			for _, p := range u.Iter() {
				fmt.Printf("  %4d: %+v\n", p.Pos, p.Inst)
			}
			return nil
		},
	}
}

func loadUnit(path string) (*unit.Unit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("raelvm: reading %s: %w", path, err)
	}
	u, err := unit.Load(data)
	if err != nil {
		return nil, fmt.Errorf("raelvm: loading %s: %w", path, err)
	}
	return u, nil
}

func findFunction(u *unit.Unit, name string) (unit.Entry, bool) {
	for _, e := range u.Functions() {
		if e.Name == name {
			return e, true
		}
	}
	return unit.Entry{}, false
}

// marshalArgs converts CLI strings to Values through the ToValue
// contract (spec §6.1), trying an integer parse before falling back
// to a host string.
func marshalArgs(raw []string) ([]value.Value, error) {
	out := make([]value.Value, len(raw))
	for i, s := range raw {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			v, err := hostval.ToValue(n)
			if err != nil {
				return nil, err
			}
			out[i] = v
			continue
		}
		out[i] = hostval.NewString(s)
	}
	return out, nil
}

// runEntry installs args into a fresh register window at entry's
// offset and drives it per its calling convention, printing every
// yielded or streamed value before the final result.
func runEntry(m *vm.VM, entry unit.Entry, args []value.Value) error {
	if err := seedEntry(m, entry, args); err != nil {
		return err
	}
	exec := execution.New(m)

	switch entry.Convention {
	case unit.ConvImmediate:
		v, err := exec.Complete(nil)
		if err != nil {
			return err
		}
		printResult(v)
		return nil

	case unit.ConvGenerator:
		gen := exec.IntoGenerator(nil)
		for {
			v, more, err := gen.Next()
			if err != nil {
				return err
			}
			printResult(v)
			if !more {
				return nil
			}
		}

	case unit.ConvStream, unit.ConvAsync:
		ctx := context.Background()
		if entry.Convention == unit.ConvAsync {
			v, err := exec.AsyncComplete(ctx, nil)
			if err != nil {
				return err
			}
			printResult(v)
			return nil
		}
		st := exec.IntoStream(nil)
		for {
			v, more, err := st.Next(ctx)
			if err != nil {
				return err
			}
			printResult(v)
			if !more {
				return nil
			}
		}
	}
	return fmt.Errorf("raelvm: unknown calling convention %d", entry.Convention)
}

// runWithBudget is runEntry's rationed counterpart, used when
// hostconfig.Config.Budget opts into instruction metering (spec
// §4.4.1). A Limited halt is reported rather than silently retried,
// since a CLI invocation has no scheduler to resume it later.
func runWithBudget(m *vm.VM, entry unit.Entry, args []value.Value, budget int) error {
	if err := seedEntry(m, entry, args); err != nil {
		return err
	}
	exec := execution.New(m)
	b := &vm.Budget{Remaining: budget}

	gs, err := exec.Resume(b)
	if err != nil {
		return err
	}
	if gs.Yielded {
		return fmt.Errorf("raelvm: %s yielded under a bounded budget; run without --config budget to drive it as a generator", entry.Name)
	}
	if exec.State() != execution.StateExited {
		return fmt.Errorf("raelvm: %s exhausted its instruction budget (%d) before completing", entry.Name, budget)
	}
	printResult(gs.Value)
	return nil
}

func seedEntry(m *vm.VM, entry unit.Entry, args []value.Value) error {
	if err := m.Stack.Resize(len(args)); err != nil {
		return err
	}
	for i, a := range args {
		if err := m.Stack.Store(stack.Keep(i), a); err != nil {
			return err
		}
	}
	m.SetIP(entry.Offset)
	return nil
}

func printResult(v value.Value) {
	var s string
	if err := hostval.FromValue(v, &s); err == nil {
		fmt.Println(s)
		return
	}
	var n int64
	if err := hostval.FromValue(v, &n); err == nil {
		fmt.Println(n)
		return
	}
	fmt.Printf("%+v\n", v)
}
