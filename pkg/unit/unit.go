package unit

import (
	"fmt"

	"github.com/rael-lang/rael/pkg/value"
)

// Unit is the immutable compiled program image a VM is bound to (spec
// §3.3, §4.3). It is built once via a Builder and never mutated
// afterward; every accessor here is read-only.
type Unit struct {
	store       InstructionStore
	constants   []value.Value
	staticStrs  []string
	staticBytes [][]byte
	objectKeys  [][]string
	rtti        map[value.Hash]*Rtti
	functions   map[value.Hash]Entry
	dropSets    [][]int
	debugInfo   map[int]DebugLine
}

// DebugLine maps an instruction position to a source location,
// retained only for host-facing diagnostics (spec §6.3 "debug info").
type DebugLine struct {
	Line, Column int
	Source       string
}

// Function looks up a callable's entry point by its hash (spec §4.3
// "function(hash) -> Option<Entry>").
func (u *Unit) Function(hash value.Hash) (Entry, bool) {
	e, ok := u.functions[hash]
	return e, ok
}

// Constant returns the constant pool entry at idx.
func (u *Unit) Constant(idx int) (value.Value, error) {
	if idx < 0 || idx >= len(u.constants) {
		return value.Value{}, fmt.Errorf("unit: constant index %d out of range", idx)
	}
	return u.constants[idx].Clone(), nil
}

// StaticString returns the interned string at idx.
func (u *Unit) StaticString(idx int) (string, error) {
	if idx < 0 || idx >= len(u.staticStrs) {
		return "", fmt.Errorf("unit: static string index %d out of range", idx)
	}
	return u.staticStrs[idx], nil
}

// StaticBytes returns the interned byte slice at idx.
func (u *Unit) StaticBytes(idx int) ([]byte, error) {
	if idx < 0 || idx >= len(u.staticBytes) {
		return nil, fmt.Errorf("unit: static bytes index %d out of range", idx)
	}
	return u.staticBytes[idx], nil
}

// ObjectKeys returns the interned key set at idx, used by
// OpMakeObject/OpObjectSlotGet/Set.
func (u *Unit) ObjectKeys(idx int) ([]string, error) {
	if idx < 0 || idx >= len(u.objectKeys) {
		return nil, fmt.Errorf("unit: object-keys index %d out of range", idx)
	}
	return u.objectKeys[idx], nil
}

// Rtti returns the runtime type info registered under hash.
func (u *Unit) Rtti(hash value.Hash) (*Rtti, bool) {
	r, ok := u.rtti[hash]
	return r, ok
}

// DropSet returns the preregistered group of addresses for OpDropSet.
func (u *Unit) DropSet(idx int) ([]int, error) {
	if idx < 0 || idx >= len(u.dropSets) {
		return nil, fmt.Errorf("unit: drop-set index %d out of range", idx)
	}
	return u.dropSets[idx], nil
}

// InstructionAt returns the decoded instruction at ip and its encoded
// width (spec §4.3 "instruction_at(ip) -> (Inst, width)").
func (u *Unit) InstructionAt(ip int) (Inst, int, error) {
	return u.store.Get(ip)
}

// Translate resolves a link-time jump label to an ip (spec §4.3
// "translate(jump_label) -> ip").
func (u *Unit) Translate(label int) (int, error) {
	return u.store.Translate(label)
}

// Iter exposes every instruction in the store, used by the round-trip
// property test (spec §8) and disassembly.
func (u *Unit) Iter() []PositionedInst { return u.store.Iter() }

// DebugLineAt returns the recorded source position for ip, if any.
func (u *Unit) DebugLineAt(ip int) (DebugLine, bool) {
	d, ok := u.debugInfo[ip]
	return d, ok
}

// Functions returns every registered function hash, used by
// cmd/raelvm to list entry points and to look one up by name.
func (u *Unit) Functions() map[value.Hash]Entry { return u.functions }
