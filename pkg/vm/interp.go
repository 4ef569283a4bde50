package vm

import (
	"github.com/rael-lang/rael/pkg/hostval"
	"github.com/rael-lang/rael/pkg/rlog"
	"github.com/rael-lang/rael/pkg/stack"
	"github.com/rael-lang/rael/pkg/unit"
	"github.com/rael-lang/rael/pkg/value"
	"github.com/rael-lang/rael/pkg/vmerr"
)

// HaltKind names the five ways the interpreter loop can stop (spec
// §3.5, §4.5).
type HaltKind int

const (
	HaltExited HaltKind = iota
	HaltYielded
	HaltAwaited
	HaltVmCall
	HaltLimited
)

func (k HaltKind) String() string {
	switch k {
	case HaltExited:
		return "exited"
	case HaltYielded:
		return "yielded"
	case HaltAwaited:
		return "awaited"
	case HaltVmCall:
		return "vm_call"
	case HaltLimited:
		return "limited"
	}
	return "unknown"
}

// Halt is what Step/Run return when the interpreter stops advancing on
// its own (spec §4.5's "Halt handling").
type Halt struct {
	Kind HaltKind
	// Value is the exited/yielded result, meaningful for
	// HaltExited/HaltYielded.
	Value value.Value
	// OutAddr is where a resumed value must later be deposited,
	// meaningful for HaltYielded (spec §3.5 "Resumed(out)").
	OutAddr int
	// Awaited holds the future value being polled, meaningful for
	// HaltAwaited.
	Awaited value.Value
	// Call holds the isolation-crossing call request, meaningful for
	// HaltVmCall.
	Call *PendingCall
}

// PendingCall describes a call that crosses a unit/context boundary
// (spec §4.4.5 "isolation"), surfaced to the execution driver so it
// can push the caller's state and install the callee's before
// resuming (spec §4.5 "VmCall(call) -> push the caller's unit/context
// onto the state stack, install the callee's, continue").
type PendingCall struct {
	TargetUnit *unit.Unit
	TargetCtx  *unit.RuntimeContext
	Offset     int
	Args       []value.Value
	Out        stack.OutputSlot
}

// Budget is a per-execution instruction counter (spec §4.4.1). A nil
// *Budget (or one with Remaining < 0) means unbounded.
type Budget struct {
	Remaining int
}

func (b *Budget) consume() bool {
	if b == nil || b.Remaining < 0 {
		return true
	}
	if b.Remaining == 0 {
		return false
	}
	b.Remaining--
	return true
}

// Run drives the interpreter from the current ip until it halts,
// decrementing budget once per instruction (spec §4.4.1). A nil budget
// runs unbounded — used by runNested for immediate-convention calls,
// which inherit the outer call's budget accounting at the driver
// level, not per nested frame.
func (m *VM) Run(budget *Budget) (Halt, error) {
	for {
		halt, halted, err := m.Step(budget)
		if err != nil {
			return Halt{}, err
		}
		if halted {
			return halt, nil
		}
	}
}

// Step executes exactly one instruction (spec §4.4.1's "fetch, advance
// ip by width, execute"), returning (halt, true, nil) if this step
// produced a halt, or (_, false, nil) to keep looping.
func (m *VM) Step(budget *Budget) (Halt, bool, error) {
	if !budget.consume() {
		rlog.BudgetExhausted(m.currentFn, m.ip)
		return Halt{Kind: HaltLimited}, true, nil
	}

	inst, width, err := m.Unit.InstructionAt(m.ip)
	if err != nil {
		return Halt{}, false, vmerr.Wrap(vmerr.KindBadInstruction, err, "fetch at ip %d", m.ip).Push(m.frame(m.ip))
	}
	ip := m.ip
	m.ip += width

	halt, halted, err := m.execute(inst)
	if err != nil {
		if ve, ok := err.(*vmerr.Error); ok {
			ve.Push(m.frame(ip))
		}
		return Halt{}, false, err
	}
	return halt, halted, nil
}

func (m *VM) at(addr int32) (value.Value, error) { return m.Stack.At(int(addr)) }

func (m *VM) store(out int32, v value.Value) error {
	return m.Stack.Store(outSlot(out), v)
}

// outSlot converts an instruction's raw Out operand into the stack
// package's OutputSlot addressing mode.
func outSlot(out int32) stack.OutputSlot {
	if unit.IsDiscard(out) {
		return stack.Discard()
	}
	return stack.Keep(int(out))
}

func (m *VM) execute(inst unit.Inst) (Halt, bool, error) {
	switch inst.Op {
	case unit.OpNop:
		return Halt{}, false, nil

	case unit.OpLoadConst:
		c, err := m.Unit.Constant(int(inst.B))
		if err != nil {
			return Halt{}, false, vmerr.Wrap(vmerr.KindMissingStaticString, err, "load constant %d", inst.B)
		}
		return Halt{}, false, m.store(inst.Out, c)

	case unit.OpLoadStaticString:
		s, err := m.Unit.StaticString(int(inst.B))
		if err != nil {
			return Halt{}, false, vmerr.Wrap(vmerr.KindMissingStaticString, err, "load static string %d", inst.B)
		}
		return Halt{}, false, m.store(inst.Out, strVal(s))

	case unit.OpLoadStaticBytes:
		bs, err := m.Unit.StaticBytes(int(inst.B))
		if err != nil {
			return Halt{}, false, vmerr.Wrap(vmerr.KindMissingStaticBytes, err, "load static bytes %d", inst.B)
		}
		return Halt{}, false, m.store(inst.Out, bytesVal(bs))

	case unit.OpCopy:
		return Halt{}, false, m.Stack.Copy(int(inst.A), int(inst.Out))

	case unit.OpMove:
		return Halt{}, false, m.Stack.Move(int(inst.A), int(inst.Out))

	case unit.OpSwap:
		return Halt{}, false, m.Stack.Swap(int(inst.A), int(inst.B))

	case unit.OpDrop:
		return Halt{}, false, m.Stack.Drop(int(inst.A))

	case unit.OpDropSet:
		set, err := m.Unit.DropSet(int(inst.B))
		if err != nil {
			return Halt{}, false, vmerr.Wrap(vmerr.KindMissingDropSet, err, "drop-set %d", inst.B)
		}
		return Halt{}, false, m.Stack.DropSet(set)

	case unit.OpMakeTuple:
		fields, err := m.Stack.SliceAt(int(inst.A), int(inst.B))
		if err != nil {
			return Halt{}, false, err
		}
		return Halt{}, false, m.store(inst.Out, MakeTuple(fields))

	case unit.OpMakeObject:
		fields, err := m.Stack.SliceAt(int(inst.A), int(inst.B))
		if err != nil {
			return Halt{}, false, err
		}
		keys, err := m.Unit.ObjectKeys(int(inst.C))
		if err != nil {
			return Halt{}, false, err
		}
		obj, err := MakeObject(keys, fields)
		if err != nil {
			return Halt{}, false, err
		}
		return Halt{}, false, m.store(inst.Out, obj)

	case unit.OpMakeStruct:
		fields, err := m.Stack.SliceAt(int(inst.A), int(inst.B))
		if err != nil {
			return Halt{}, false, err
		}
		rtti, err := m.rttiAt(inst.C)
		if err != nil {
			return Halt{}, false, err
		}
		s, err := m.MakeStruct(rtti, fields)
		if err != nil {
			return Halt{}, false, err
		}
		return Halt{}, false, m.store(inst.Out, s)

	case unit.OpMakeTupleStruct:
		fields, err := m.Stack.SliceAt(int(inst.A), int(inst.B))
		if err != nil {
			return Halt{}, false, err
		}
		rtti, err := m.rttiAt(inst.C)
		if err != nil {
			return Halt{}, false, err
		}
		s, err := m.MakeTupleStruct(rtti, fields)
		if err != nil {
			return Halt{}, false, err
		}
		return Halt{}, false, m.store(inst.Out, s)

	case unit.OpMakeVariant:
		fields, err := m.Stack.SliceAt(int(inst.A), int(inst.B))
		if err != nil {
			return Halt{}, false, err
		}
		rtti, err := m.rttiAt(inst.C)
		if err != nil {
			return Halt{}, false, err
		}
		v, err := m.MakeVariant(rtti, fields)
		if err != nil {
			return Halt{}, false, err
		}
		return Halt{}, false, m.store(inst.Out, v)

	case unit.OpMakeEmptyStruct:
		rtti, err := m.rttiAt(inst.C)
		if err != nil {
			return Halt{}, false, err
		}
		return Halt{}, false, m.store(inst.Out, m.MakeEmptyStruct(rtti))

	case unit.OpMakeRange:
		return Halt{}, false, m.doMakeRange(inst)

	case unit.OpMakeClosure:
		c, err := m.Unit.Constant(int(inst.B))
		if err != nil {
			return Halt{}, false, err
		}
		fnHash, ok := c.AsHashLit()
		if !ok {
			return Halt{}, false, vmerr.New(vmerr.KindExpectedType, "make-closure: constant %d is not a function hash", inst.B)
		}
		captured, err := m.Stack.SliceAt(int(inst.A), int(inst.C))
		if err != nil {
			return Halt{}, false, err
		}
		closure, err := m.MakeClosure(fnHash, captured)
		if err != nil {
			return Halt{}, false, err
		}
		return Halt{}, false, m.store(inst.Out, closure)

	case unit.OpAdd, unit.OpSub, unit.OpMul, unit.OpDiv, unit.OpRem,
		unit.OpBitAnd, unit.OpBitOr, unit.OpBitXor, unit.OpShl, unit.OpShr:
		return Halt{}, false, m.binaryOp(inst)

	case unit.OpAddAssign, unit.OpSubAssign, unit.OpMulAssign, unit.OpDivAssign, unit.OpRemAssign:
		return Halt{}, false, m.assignOp(inst)

	case unit.OpNeg:
		return Halt{}, false, m.unaryNeg(inst)

	case unit.OpNot:
		return Halt{}, false, m.unaryNot(inst)

	case unit.OpEq, unit.OpNeq, unit.OpLt, unit.OpLe, unit.OpGt, unit.OpGe:
		return Halt{}, false, m.compareOp(inst)

	case unit.OpJump:
		return m.doJump(inst)

	case unit.OpJumpIf:
		return m.doCondJump(inst, true)

	case unit.OpJumpIfNot:
		return m.doCondJump(inst, false)

	case unit.OpJumpIfBranch:
		return m.doJumpIfBranch(inst)

	case unit.OpReturn:
		v, err := m.at(inst.A)
		if err != nil {
			return Halt{}, false, err
		}
		return m.doReturn(v)

	case unit.OpReturnUnit:
		return m.doReturn(value.Unit)

	case unit.OpYield:
		v, err := m.at(inst.A)
		if err != nil {
			return Halt{}, false, err
		}
		return Halt{Kind: HaltYielded, Value: v, OutAddr: int(inst.Out)}, true, nil

	case unit.OpYieldUnit:
		return Halt{Kind: HaltYielded, Value: value.Unit, OutAddr: int(inst.Out)}, true, nil

	case unit.OpAwait:
		v, err := m.at(inst.A)
		if err != nil {
			return Halt{}, false, err
		}
		return Halt{Kind: HaltAwaited, Awaited: v, OutAddr: int(inst.Out)}, true, nil

	case unit.OpCallOffset:
		return Halt{}, false, m.doCallOffset(inst)

	case unit.OpCall, unit.OpCallFn:
		return m.doCallValue(inst)

	case unit.OpIndexGet:
		recv, err := m.at(inst.A)
		if err != nil {
			return Halt{}, false, err
		}
		idx, err := m.at(inst.B)
		if err != nil {
			return Halt{}, false, err
		}
		result, err := m.IndexGet(recv, idx)
		if err != nil {
			return Halt{}, false, err
		}
		return Halt{}, false, m.store(inst.Out, result)

	case unit.OpIndexSet:
		recv, err := m.at(inst.A)
		if err != nil {
			return Halt{}, false, err
		}
		idx, err := m.at(inst.B)
		if err != nil {
			return Halt{}, false, err
		}
		newVal, err := m.at(inst.C)
		if err != nil {
			return Halt{}, false, err
		}
		return Halt{}, false, m.IndexSet(recv, idx, newVal)

	case unit.OpTupleIndexGet:
		recv, err := m.at(inst.A)
		if err != nil {
			return Halt{}, false, err
		}
		result, err := TupleIndexGet(recv, int(inst.B))
		if err != nil {
			return Halt{}, false, err
		}
		return Halt{}, false, m.store(inst.Out, result)

	case unit.OpTupleIndexSet:
		recv, err := m.at(inst.A)
		if err != nil {
			return Halt{}, false, err
		}
		newVal, err := m.at(inst.C)
		if err != nil {
			return Halt{}, false, err
		}
		return Halt{}, false, TupleIndexSet(recv, int(inst.B), newVal)

	case unit.OpIs:
		v, err := m.at(inst.A)
		if err != nil {
			return Halt{}, false, err
		}
		c, err := m.Unit.Constant(int(inst.B))
		if err != nil {
			return Halt{}, false, err
		}
		wantHash, ok := c.AsHashLit()
		if !ok {
			return Halt{}, false, vmerr.New(vmerr.KindExpectedType, "is: constant %d is not a type hash", inst.B)
		}
		return Halt{}, false, m.store(inst.Out, value.FromBool(Is(v, wantHash, 0, false)))

	case unit.OpAs:
		v, err := m.at(inst.A)
		if err != nil {
			return Halt{}, false, err
		}
		c, err := m.Unit.Constant(int(inst.B))
		if err != nil {
			return Halt{}, false, err
		}
		wantHash, ok := c.AsHashLit()
		if !ok {
			return Halt{}, false, vmerr.New(vmerr.KindExpectedType, "as: constant %d is not a type hash", inst.B)
		}
		result, err := m.As(v, wantHash)
		if err != nil {
			return Halt{}, false, err
		}
		return Halt{}, false, m.store(inst.Out, result)

	case unit.OpIntoIter:
		v, err := m.at(inst.A)
		if err != nil {
			return Halt{}, false, err
		}
		result, err := m.Dispatch(value.ProtocolIntoIter, []value.Value{v})
		if err != nil {
			return Halt{}, false, err
		}
		return Halt{}, false, m.store(inst.Out, result)

	case unit.OpNext:
		v, err := m.at(inst.A)
		if err != nil {
			return Halt{}, false, err
		}
		result, err := m.Dispatch(value.ProtocolNext, []value.Value{v})
		if err != nil {
			return Halt{}, false, err
		}
		return Halt{}, false, m.store(inst.Out, result)

	case unit.OpNextBack:
		v, err := m.at(inst.A)
		if err != nil {
			return Halt{}, false, err
		}
		result, err := m.Dispatch(value.ProtocolNextBack, []value.Value{v})
		if err != nil {
			return Halt{}, false, err
		}
		return Halt{}, false, m.store(inst.Out, result)

	case unit.OpLen:
		v, err := m.at(inst.A)
		if err != nil {
			return Halt{}, false, err
		}
		result, err := m.Dispatch(value.ProtocolLen, []value.Value{v})
		if err != nil {
			return Halt{}, false, err
		}
		return Halt{}, false, m.store(inst.Out, result)

	case unit.OpObjectSlotGet:
		recv, err := m.at(inst.A)
		if err != nil {
			return Halt{}, false, err
		}
		key, err := m.Unit.StaticString(int(inst.B))
		if err != nil {
			return Halt{}, false, err
		}
		result, err := ObjectSlotGet(recv, key)
		if err != nil {
			return Halt{}, false, err
		}
		return Halt{}, false, m.store(inst.Out, result)

	case unit.OpObjectSlotSet:
		recv, err := m.at(inst.A)
		if err != nil {
			return Halt{}, false, err
		}
		key, err := m.Unit.StaticString(int(inst.B))
		if err != nil {
			return Halt{}, false, err
		}
		newVal, err := m.at(inst.C)
		if err != nil {
			return Halt{}, false, err
		}
		return Halt{}, false, ObjectSlotSet(recv, key, newVal)

	case unit.OpFieldFunction:
		return Halt{}, false, m.assignOp(inst)

	case unit.OpSizeHint:
		v, err := m.at(inst.A)
		if err != nil {
			return Halt{}, false, err
		}
		result, err := m.Dispatch(value.ProtocolSizeHint, []value.Value{v})
		if err != nil {
			return Halt{}, false, err
		}
		return Halt{}, false, m.store(inst.Out, result)

	case unit.OpDisplayFmt:
		v, err := m.at(inst.A)
		if err != nil {
			return Halt{}, false, err
		}
		result, err := m.Dispatch(value.ProtocolDisplayFmt, []value.Value{v})
		if err != nil {
			return Halt{}, false, err
		}
		return Halt{}, false, m.store(inst.Out, result)

	case unit.OpPushToFormatter:
		// Formatter accumulation is host/driver state, not VM state;
		// the built-in DEBUG_FMT/DISPLAY_FMT handlers already return a
		// complete string, so pushing into a formatter buffer is just
		// concatenation at the call site (pkg/execution owns the
		// buffer itself).
		return Halt{}, false, nil

	case unit.OpDebugFmt:
		v, err := m.at(inst.A)
		if err != nil {
			return Halt{}, false, err
		}
		result, err := m.Dispatch(value.ProtocolDebugFmt, []value.Value{v})
		if err != nil {
			return Halt{}, false, err
		}
		return Halt{}, false, m.store(inst.Out, result)

	default:
		return Halt{}, false, vmerr.New(vmerr.KindBadInstruction, "unimplemented opcode %d", inst.Op)
	}
}

func (m *VM) binaryOp(inst unit.Inst) error {
	a, err := m.at(inst.A)
	if err != nil {
		return err
	}
	b, err := m.at(inst.B)
	if err != nil {
		return err
	}
	protocolHash := protocolForOp(inst.Op)
	result, err := m.Dispatch(protocolHash, []value.Value{a, b})
	if err != nil {
		return err
	}
	return m.store(inst.Out, result)
}

func (m *VM) assignOp(inst unit.Inst) error {
	// Assign forms read-modify-write the destination register: A holds
	// the current value, B the operand; Out (conventionally == A) gets
	// the result.
	a, err := m.at(inst.A)
	if err != nil {
		return err
	}
	b, err := m.at(inst.B)
	if err != nil {
		return err
	}
	protocolHash := protocolForAssignOp(inst.Op)
	result, err := m.Dispatch(protocolHash, []value.Value{a, b})
	if err != nil {
		return err
	}
	return m.store(inst.Out, result)
}

func protocolForOp(op unit.Opcode) value.Hash {
	switch op {
	case unit.OpAdd:
		return value.ProtocolAdd
	case unit.OpSub:
		return value.ProtocolSub
	case unit.OpMul:
		return value.ProtocolMul
	case unit.OpDiv:
		return value.ProtocolDiv
	case unit.OpRem:
		return value.ProtocolRem
	case unit.OpBitAnd:
		return value.ProtocolBitAnd
	case unit.OpBitOr:
		return value.ProtocolBitOr
	case unit.OpBitXor:
		return value.ProtocolBitXor
	case unit.OpShl:
		return value.ProtocolShl
	case unit.OpShr:
		return value.ProtocolShr
	}
	return value.NilHash
}

func protocolForAssignOp(op unit.Opcode) value.Hash {
	switch op {
	case unit.OpAddAssign:
		return value.ProtocolAddAssign
	case unit.OpSubAssign:
		return value.ProtocolSubAssign
	case unit.OpMulAssign:
		return value.ProtocolMulAssign
	case unit.OpDivAssign:
		return value.ProtocolDivAssign
	case unit.OpRemAssign:
		return value.ProtocolRemAssign
	}
	return value.NilHash
}

func (m *VM) unaryNeg(inst unit.Inst) error {
	a, err := m.at(inst.A)
	if err != nil {
		return err
	}
	switch a.Kind() {
	case value.KindInt:
		i, _ := a.AsInt()
		return m.store(inst.Out, value.FromInt(-i))
	case value.KindFloat:
		f, _ := a.AsFloat()
		return m.store(inst.Out, value.FromFloat(-f))
	default:
		result, err := m.Dispatch(value.ProtocolNeg, []value.Value{a})
		if err != nil {
			return err
		}
		return m.store(inst.Out, result)
	}
}

func (m *VM) unaryNot(inst unit.Inst) error {
	a, err := m.at(inst.A)
	if err != nil {
		return err
	}
	switch a.Kind() {
	case value.KindBool:
		b, _ := a.AsBool()
		return m.store(inst.Out, value.FromBool(!b))
	case value.KindInt:
		i, _ := a.AsInt()
		return m.store(inst.Out, value.FromInt(^i))
	case value.KindUint:
		u, _ := a.AsUint()
		return m.store(inst.Out, value.FromUint(^u))
	default:
		result, err := m.Dispatch(value.ProtocolNot, []value.Value{a})
		if err != nil {
			return err
		}
		return m.store(inst.Out, result)
	}
}

func (m *VM) compareOp(inst unit.Inst) error {
	a, err := m.at(inst.A)
	if err != nil {
		return err
	}
	b, err := m.at(inst.B)
	if err != nil {
		return err
	}
	var result bool
	switch inst.Op {
	case unit.OpEq:
		result, err = m.Eq(a, b)
	case unit.OpNeq:
		result, err = m.Neq(a, b)
	case unit.OpLt:
		result, err = m.Lt(a, b)
	case unit.OpLe:
		result, err = m.Le(a, b)
	case unit.OpGt:
		result, err = m.Gt(a, b)
	case unit.OpGe:
		result, err = m.Ge(a, b)
	}
	if err != nil {
		return err
	}
	return m.store(inst.Out, value.FromBool(result))
}

func (m *VM) doJump(inst unit.Inst) (Halt, bool, error) {
	ip, err := m.Unit.Translate(int(inst.A))
	if err != nil {
		return Halt{}, false, vmerr.Wrap(vmerr.KindBadJump, err, "jump to label %d", inst.A)
	}
	m.ip = ip
	return Halt{}, false, nil
}

func (m *VM) doCondJump(inst unit.Inst, wantTrue bool) (Halt, bool, error) {
	v, err := m.at(inst.A)
	if err != nil {
		return Halt{}, false, err
	}
	b, ok := v.AsBool()
	if !ok {
		return Halt{}, false, vmerr.New(vmerr.KindExpectedType, "conditional jump: expected bool")
	}
	if b == wantTrue {
		ip, err := m.Unit.Translate(int(inst.B))
		if err != nil {
			return Halt{}, false, vmerr.Wrap(vmerr.KindBadJump, err, "jump to label %d", inst.B)
		}
		m.ip = ip
	}
	return Halt{}, false, nil
}

// doJumpIfBranch jumps to label (B + branch) when A holds a
// non-negative branch index (the result of a match-arm selection
// already resolved to an integer discriminator by the compiler, spec
// §4.4.6); a negative discriminator means "no arm matched" and falls
// through to the next instruction (the compiler emits an explicit
// failure path there when match exhaustiveness isn't statically
// guaranteed).
func (m *VM) doJumpIfBranch(inst unit.Inst) (Halt, bool, error) {
	v, err := m.at(inst.A)
	if err != nil {
		return Halt{}, false, err
	}
	branch, ok := v.AsInt()
	if !ok || branch < 0 {
		return Halt{}, false, nil
	}
	ip, err := m.Unit.Translate(int(inst.B) + int(branch))
	if err != nil {
		return Halt{}, false, vmerr.Wrap(vmerr.KindBadJump, err, "branch jump to label %d+%d", inst.B, branch)
	}
	m.ip = ip
	return Halt{}, false, nil
}

// doReturn always halts the current Run invocation with the returned
// value. A function body is driven by its own call to Run (runNested
// recurses into a fresh Run for every immediate-convention call), so
// reaching Return always means "this particular Run is done" — frame
// and register-window teardown is runNested's job on the way back out,
// not something Return itself needs to unwind.
func (m *VM) doReturn(v value.Value) (Halt, bool, error) {
	return Halt{Kind: HaltExited, Value: v}, true, nil
}

func (m *VM) doCallOffset(inst unit.Inst) error {
	c, err := m.Unit.Constant(int(inst.B))
	if err != nil {
		return err
	}
	entryIdx, ok := c.AsInt()
	if !ok {
		return vmerr.New(vmerr.KindExpectedType, "call-offset: constant %d is not an offset", inst.B)
	}
	args, err := m.Stack.SliceAt(int(inst.A), int(inst.C))
	if err != nil {
		return err
	}
	argsCopy := cloneFields(args)
	result, err := m.runNested(int(entryIdx), argsCopy)
	if err != nil {
		return err
	}
	return m.store(inst.Out, result)
}

// doCallValue resolves and invokes a callable Value. A callee whose
// Function carries a TargetUnit different from the running unit
// crosses an isolation boundary (spec §4.4.5): rather than calling
// inline, it halts with HaltVmCall so the execution driver can push
// this unit/context's state and install the callee's before resuming.
func (m *VM) doCallValue(inst unit.Inst) (Halt, bool, error) {
	fnVal, err := m.at(inst.A)
	if err != nil {
		return Halt{}, false, err
	}
	args, err := m.Stack.SliceAt(int(inst.B), int(inst.C))
	if err != nil {
		return Halt{}, false, err
	}
	argsCopy := cloneFields(args)

	uf, err := asFunction(fnVal)
	if err != nil {
		return Halt{}, false, err
	}

	if uf.TargetUnit != nil && uf.TargetUnit != m.Unit {
		return Halt{Kind: HaltVmCall, Call: &PendingCall{
			TargetUnit: uf.TargetUnit,
			TargetCtx:  uf.TargetCtx,
			Offset:     uf.Offset,
			Args:       argsCopy,
			Out:        outSlot(inst.Out),
		}}, true, nil
	}

	result, err := m.callFunction(uf, argsCopy)
	if err != nil {
		return Halt{}, false, err
	}
	return Halt{}, false, m.store(inst.Out, result)
}

// rttiAt resolves the Rtti registered under the hash literal held in
// constant slot idx.
func (m *VM) rttiAt(idx int32) (*unit.Rtti, error) {
	c, err := m.Unit.Constant(int(idx))
	if err != nil {
		return nil, err
	}
	h, ok := c.AsHashLit()
	if !ok {
		return nil, vmerr.New(vmerr.KindExpectedType, "constant %d is not a type hash", idx)
	}
	rtti, ok := m.Unit.Rtti(h)
	if !ok {
		return nil, vmerr.New(vmerr.KindMissingRtti, "no rtti registered for hash %s", h)
	}
	return rtti, nil
}

// doMakeRange builds a range value per the shape encoded in inst.B
// (spec §4.4.2's six range constructors). A holds the lower-bound
// register and C the upper-bound register; either is ignored
// (From/To left nil) when the shape doesn't use it.
func (m *VM) doMakeRange(inst unit.Inst) error {
	shape := unit.RangeShape(inst.B)
	var from, to *value.Value
	if shape == unit.RangeHalfOpen || shape == unit.RangeInclusive || shape == unit.RangeFrom {
		v, err := m.at(inst.A)
		if err != nil {
			return err
		}
		from = &v
	}
	if shape == unit.RangeHalfOpen || shape == unit.RangeInclusive || shape == unit.RangeTo || shape == unit.RangeToInclusive {
		v, err := m.at(inst.C)
		if err != nil {
			return err
		}
		to = &v
	}
	return m.store(inst.Out, MakeRange(shape, from, to))
}

func strVal(s string) value.Value {
	return hostval.NewString(s)
}

func bytesVal(b []byte) value.Value {
	return hostval.NewBytes(b)
}
