package unit

import (
	"encoding/binary"
	"fmt"
)

// InstructionStore abstracts over the two interchangeable encodings
// spec §6.2 requires: a simple array-of-instructions backing and a
// variable-length byte-coded backing. The interpreter is agnostic to
// which one a Unit uses — it only calls Get/Translate.
type InstructionStore interface {
	// Offset returns the current write position (encoded units for a
	// byte-coded store, instruction count for an array store).
	Offset() int
	// Encode appends inst and returns the encoded width consumed (1
	// for an array store; a variable byte count for a byte-coded
	// store).
	Encode(inst Inst) int
	// End freezes the store; no further Encode calls are valid after.
	End()
	// Get decodes the instruction at ip, returning it and its encoded
	// width (so the interpreter can advance ip by that width).
	Get(ip int) (Inst, int, error)
	// Iter yields every (position, instruction) pair in order, used
	// by the round-trip property test (spec §8) and by
	// disassembly/debugging tools.
	Iter() []PositionedInst
	// Translate resolves a link-time jump label (an index into the
	// order instructions were Encoded in) to its ip.
	Translate(label int) (int, error)
}

// PositionedInst pairs a decoded instruction with its position in the
// store, as produced by Iter.
type PositionedInst struct {
	Pos  int
	Inst Inst
}

// ArrayStore is the simple array-of-instructions encoding: one
// instruction per slot, jumps are plain indices (spec §6.2 "Simple,
// fast, larger").
type ArrayStore struct {
	insts  []Inst
	ended  bool
}

// NewArrayStore creates an empty ArrayStore.
func NewArrayStore() *ArrayStore { return &ArrayStore{} }

func (s *ArrayStore) Offset() int { return len(s.insts) }

func (s *ArrayStore) Encode(inst Inst) int {
	s.insts = append(s.insts, inst)
	return 1
}

func (s *ArrayStore) End() { s.ended = true }

func (s *ArrayStore) Get(ip int) (Inst, int, error) {
	if ip < 0 || ip >= len(s.insts) {
		return Inst{}, 0, fmt.Errorf("unit: ip %d out of bounds (len %d)", ip, len(s.insts))
	}
	return s.insts[ip], 1, nil
}

func (s *ArrayStore) Iter() []PositionedInst {
	out := make([]PositionedInst, len(s.insts))
	for i, inst := range s.insts {
		out[i] = PositionedInst{Pos: i, Inst: inst}
	}
	return out
}

func (s *ArrayStore) Translate(label int) (int, error) {
	if label < 0 || label >= len(s.insts) {
		return 0, fmt.Errorf("unit: jump label %d out of bounds (len %d)", label, len(s.insts))
	}
	return label, nil
}

// ByteStore is the variable-length byte-coded encoding (spec §6.2):
// jumps are byte offsets, and a translation table maps link-time
// labels (the order Encode was called in) to byte positions. Grounded
// on the binary-layout idea sketched in the teacher's
// pkg/bytecode/format.go (a fixed header followed by a densely packed
// instruction stream), generalized here to per-instruction varint
// operand packing instead of a fixed-width record, since operand
// counts differ across register-addressed opcodes.
type ByteStore struct {
	buf    []byte
	labels []int // labels[i] = byte offset where the i-th Encode call started
	ended  bool
}

// NewByteStore creates an empty ByteStore.
func NewByteStore() *ByteStore { return &ByteStore{} }

func (s *ByteStore) Offset() int { return len(s.buf) }

func putVarint(buf []byte, v int64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutVarint(tmp[:], v)
	return append(buf, tmp[:n]...)
}

func (s *ByteStore) Encode(inst Inst) int {
	start := len(s.buf)
	s.labels = append(s.labels, start)
	s.buf = append(s.buf, byte(inst.Op))
	s.buf = putVarint(s.buf, int64(inst.A))
	s.buf = putVarint(s.buf, int64(inst.B))
	s.buf = putVarint(s.buf, int64(inst.C))
	s.buf = putVarint(s.buf, int64(inst.Out))
	return len(s.buf) - start
}

func (s *ByteStore) End() { s.ended = true }

func (s *ByteStore) decodeAt(pos int) (Inst, int, error) {
	if pos < 0 || pos >= len(s.buf) {
		return Inst{}, 0, fmt.Errorf("unit: ip %d out of bounds (len %d)", pos, len(s.buf))
	}
	op := Opcode(s.buf[pos])
	cursor := pos + 1
	a, n := binary.Varint(s.buf[cursor:])
	cursor += n
	b, n := binary.Varint(s.buf[cursor:])
	cursor += n
	c, n := binary.Varint(s.buf[cursor:])
	cursor += n
	out, n := binary.Varint(s.buf[cursor:])
	cursor += n
	return Inst{Op: op, A: int32(a), B: int32(b), C: int32(c), Out: int32(out)}, cursor - pos, nil
}

func (s *ByteStore) Get(ip int) (Inst, int, error) {
	return s.decodeAt(ip)
}

func (s *ByteStore) Iter() []PositionedInst {
	var out []PositionedInst
	pos := 0
	for pos < len(s.buf) {
		inst, width, err := s.decodeAt(pos)
		if err != nil {
			break
		}
		out = append(out, PositionedInst{Pos: pos, Inst: inst})
		pos += width
	}
	return out
}

func (s *ByteStore) Translate(label int) (int, error) {
	if label < 0 || label >= len(s.labels) {
		return 0, fmt.Errorf("unit: jump label %d out of bounds (len %d)", label, len(s.labels))
	}
	return s.labels[label], nil
}
