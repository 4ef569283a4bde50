package unit

import "github.com/rael-lang/rael/pkg/value"

// Builder assembles a Unit one instruction/constant/rtti entry at a
// time, then freezes into an immutable *Unit. This is the direct
// descendant of the teacher's Compiler.emit/addConstant pair
// (pkg/compiler/compiler.go in the old tree): this system has no
// source-to-bytecode compiler of its own, but tests need an easy way
// to hand-assemble a Unit, exactly the role emit/addConstant played
// for the teacher's one-pass compiler.
type Builder struct {
	store       InstructionStore
	emitted     int
	constants   []value.Value
	staticStrs  []string
	staticBytes [][]byte
	objectKeys  [][]string
	rtti        map[value.Hash]*Rtti
	functions   map[value.Hash]Entry
	dropSets    [][]int
	debugInfo   map[int]DebugLine
}

// NewBuilder creates a Builder backed by an ArrayStore. Use
// NewByteCodedBuilder for the variable-length encoding instead.
func NewBuilder() *Builder {
	return newBuilder(NewArrayStore())
}

// NewByteCodedBuilder creates a Builder backed by a ByteStore.
func NewByteCodedBuilder() *Builder {
	return newBuilder(NewByteStore())
}

func newBuilder(store InstructionStore) *Builder {
	return &Builder{
		store:     store,
		rtti:      make(map[value.Hash]*Rtti),
		functions: make(map[value.Hash]Entry),
		debugInfo: make(map[int]DebugLine),
	}
}

// Emit appends an instruction and returns its link-time label: the
// ordinal position to later pass to Unit.Translate to resolve a jump
// target. Label numbering is ordinal (how many instructions have been
// encoded so far) regardless of store kind — an ArrayStore's Offset()
// already counts instructions, but a ByteStore's Offset() counts
// bytes, so Builder tracks the ordinal count itself.
func (b *Builder) Emit(inst Inst) int {
	label := b.emitted
	b.store.Encode(inst)
	b.emitted++
	return label
}

// AddConstant interns v in the constant pool and returns its index.
func (b *Builder) AddConstant(v value.Value) int {
	b.constants = append(b.constants, v)
	return len(b.constants) - 1
}

// AddStaticString interns s and returns its index.
func (b *Builder) AddStaticString(s string) int {
	b.staticStrs = append(b.staticStrs, s)
	return len(b.staticStrs) - 1
}

// AddStaticBytes interns bs and returns its index.
func (b *Builder) AddStaticBytes(bs []byte) int {
	b.staticBytes = append(b.staticBytes, bs)
	return len(b.staticBytes) - 1
}

// AddObjectKeys interns an ordered key set and returns its index.
func (b *Builder) AddObjectKeys(keys []string) int {
	b.objectKeys = append(b.objectKeys, keys)
	return len(b.objectKeys) - 1
}

// AddDropSet interns a group of addresses for OpDropSet and returns
// its index.
func (b *Builder) AddDropSet(addrs []int) int {
	b.dropSets = append(b.dropSets, addrs)
	return len(b.dropSets) - 1
}

// AddRtti registers type metadata under its hash.
func (b *Builder) AddRtti(r *Rtti) { b.rtti[r.Hash] = r }

// AddFunction registers a function's entry point under its hash.
func (b *Builder) AddFunction(hash value.Hash, e Entry) { b.functions[hash] = e }

// SetDebugLine records a source position for an instruction position.
func (b *Builder) SetDebugLine(pos int, d DebugLine) { b.debugInfo[pos] = d }

// Build freezes the Builder into an immutable Unit. The Builder must
// not be used afterward.
func (b *Builder) Build() *Unit {
	b.store.End()
	return &Unit{
		store:       b.store,
		constants:   b.constants,
		staticStrs:  b.staticStrs,
		staticBytes: b.staticBytes,
		objectKeys:  b.objectKeys,
		rtti:        b.rtti,
		functions:   b.functions,
		dropSets:    b.dropSets,
		debugInfo:   b.debugInfo,
	}
}
