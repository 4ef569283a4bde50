package unit

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/rael-lang/rael/pkg/value"
)

// Binary persistence (spec §6.3). The schema is the direct descendant
// of the teacher's pkg/bytecode/format.go sketch — magic number,
// version, a typed constant section, then an instruction section — kept
// at the same granularity but adapted to this system's constant kinds
// (Value, not the teacher's boxed Object interface) and to a
// byte-coded instruction stream instead of the teacher's fixed
// (Opcode, Operand) pair.
const (
	magic         uint32 = 0x5241454C // "RAEL"
	formatVersion uint16 = 1
)

// constKind tags how a constant's bytes are to be interpreted when
// reading it back; the teacher's format.go has the same idea for its
// Integer/Float/String/Boolean/Nil/... constant kinds.
type constKind byte

const (
	constUnit constKind = iota
	constBool
	constChar
	constInt
	constUint
	constFloat
	constByte
	constHash
	constString // no constant is written with this tag: Save rejects Any-valued constants, strings included
)

// Save serializes u into the deterministic binary schema. Only the
// inline-valued portion of the constant pool round-trips; Dynamic/Any
// constants are rejected, since a cell's live borrow state has no
// meaningful persisted form (mirrors the teacher's format.go, which
// only ever persisted literal constants, never live object graphs).
// The schema holds the constants, the static string, byte and
// object-key tables, the drop sets and the instructions; rtti,
// function entries and debug info are not written.
func Save(u *Unit) ([]byte, error) {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.BigEndian, magic)
	_ = binary.Write(&buf, binary.BigEndian, formatVersion)

	if err := writeConstants(&buf, u.constants); err != nil {
		return nil, err
	}
	writeStrings(&buf, u.staticStrs)
	writeByteSlices(&buf, u.staticBytes)
	writeObjectKeys(&buf, u.objectKeys)
	writeDropSets(&buf, u.dropSets)

	insts := u.store.Iter()
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(insts)))
	for _, pi := range insts {
		_ = binary.Write(&buf, binary.BigEndian, uint32(pi.Pos))
		writeInst(&buf, pi.Inst)
	}

	return buf.Bytes(), nil
}

func writeConstants(buf *bytes.Buffer, consts []value.Value) error {
	_ = binary.Write(buf, binary.BigEndian, uint32(len(consts)))
	for _, c := range consts {
		switch c.Kind() {
		case value.KindUnit:
			buf.WriteByte(byte(constUnit))
		case value.KindBool:
			buf.WriteByte(byte(constBool))
			b, _ := c.AsBool()
			if b {
				buf.WriteByte(1)
			} else {
				buf.WriteByte(0)
			}
		case value.KindChar:
			buf.WriteByte(byte(constChar))
			r, _ := c.AsChar()
			_ = binary.Write(buf, binary.BigEndian, uint32(r))
		case value.KindInt:
			buf.WriteByte(byte(constInt))
			i, _ := c.AsInt()
			_ = binary.Write(buf, binary.BigEndian, uint64(i))
		case value.KindUint:
			buf.WriteByte(byte(constUint))
			i, _ := c.AsUint()
			_ = binary.Write(buf, binary.BigEndian, i)
		case value.KindFloat:
			buf.WriteByte(byte(constFloat))
			f, _ := c.AsFloat()
			_ = binary.Write(buf, binary.BigEndian, f)
		case value.KindByte:
			buf.WriteByte(byte(constByte))
			bb, _ := c.AsByte()
			buf.WriteByte(bb)
		case value.KindHashLit:
			buf.WriteByte(byte(constHash))
			h, _ := c.AsHashLit()
			buf.Write(h[:])
		default:
			return fmt.Errorf("unit: cannot persist a Dynamic/Any constant (kind %d)", c.Kind())
		}
	}
	return nil
}

func writeStrings(buf *bytes.Buffer, strs []string) {
	_ = binary.Write(buf, binary.BigEndian, uint32(len(strs)))
	for _, s := range strs {
		_ = binary.Write(buf, binary.BigEndian, uint32(len(s)))
		buf.WriteString(s)
	}
}

func writeByteSlices(buf *bytes.Buffer, slices [][]byte) {
	_ = binary.Write(buf, binary.BigEndian, uint32(len(slices)))
	for _, s := range slices {
		_ = binary.Write(buf, binary.BigEndian, uint32(len(s)))
		buf.Write(s)
	}
}

func writeObjectKeys(buf *bytes.Buffer, keys [][]string) {
	_ = binary.Write(buf, binary.BigEndian, uint32(len(keys)))
	for _, ks := range keys {
		writeStrings(buf, ks)
	}
}

func writeDropSets(buf *bytes.Buffer, sets [][]int) {
	_ = binary.Write(buf, binary.BigEndian, uint32(len(sets)))
	for _, s := range sets {
		_ = binary.Write(buf, binary.BigEndian, uint32(len(s)))
		for _, a := range s {
			_ = binary.Write(buf, binary.BigEndian, uint32(a))
		}
	}
}

func writeInst(buf *bytes.Buffer, inst Inst) {
	buf.WriteByte(byte(inst.Op))
	_ = binary.Write(buf, binary.BigEndian, inst.A)
	_ = binary.Write(buf, binary.BigEndian, inst.B)
	_ = binary.Write(buf, binary.BigEndian, inst.C)
	_ = binary.Write(buf, binary.BigEndian, inst.Out)
}

// Load reads back a Unit saved with Save, rejecting an unrecognized
// version or an unknown instruction opcode (spec §6.3: "Loading
// validates version and rejects unknown instruction kinds"). The
// result uses an ArrayStore regardless of which store produced the
// original Iter() order, since persistence only needs to round-trip
// instruction content and order, not the in-memory encoding. The
// loaded Unit has empty rtti and function tables, since Save does not
// persist them.
func Load(data []byte) (*Unit, error) {
	r := bytes.NewReader(data)
	var gotMagic uint32
	if err := binary.Read(r, binary.BigEndian, &gotMagic); err != nil {
		return nil, fmt.Errorf("unit: truncated header: %w", err)
	}
	if gotMagic != magic {
		return nil, fmt.Errorf("unit: bad magic number %#x", gotMagic)
	}
	var version uint16
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return nil, fmt.Errorf("unit: truncated header: %w", err)
	}
	if version != formatVersion {
		return nil, fmt.Errorf("unit: unsupported format version %d (want %d)", version, formatVersion)
	}

	consts, err := readConstants(r)
	if err != nil {
		return nil, err
	}
	strs, err := readStrings(r)
	if err != nil {
		return nil, err
	}
	byteSlices, err := readByteSlices(r)
	if err != nil {
		return nil, err
	}
	objKeys, err := readObjectKeys(r)
	if err != nil {
		return nil, err
	}
	dropSets, err := readDropSets(r)
	if err != nil {
		return nil, err
	}

	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, fmt.Errorf("unit: truncated instruction count: %w", err)
	}
	store := NewArrayStore()
	for i := uint32(0); i < n; i++ {
		var pos uint32
		if err := binary.Read(r, binary.BigEndian, &pos); err != nil {
			return nil, fmt.Errorf("unit: truncated instruction position: %w", err)
		}
		inst, err := readInst(r)
		if err != nil {
			return nil, err
		}
		store.Encode(inst)
	}
	store.End()

	return &Unit{
		store:       store,
		constants:   consts,
		staticStrs:  strs,
		staticBytes: byteSlices,
		objectKeys:  objKeys,
		rtti:        make(map[value.Hash]*Rtti),
		functions:   make(map[value.Hash]Entry),
		dropSets:    dropSets,
		debugInfo:   make(map[int]DebugLine),
	}, nil
}

func readConstants(r *bytes.Reader) ([]value.Value, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, fmt.Errorf("unit: truncated constant count: %w", err)
	}
	out := make([]value.Value, 0, n)
	for i := uint32(0); i < n; i++ {
		kindByte, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("unit: truncated constant kind: %w", err)
		}
		switch constKind(kindByte) {
		case constUnit:
			out = append(out, value.Unit)
		case constBool:
			b, err := r.ReadByte()
			if err != nil {
				return nil, err
			}
			out = append(out, value.FromBool(b != 0))
		case constChar:
			var u uint32
			if err := binary.Read(r, binary.BigEndian, &u); err != nil {
				return nil, err
			}
			out = append(out, value.FromChar(rune(u)))
		case constInt:
			var u uint64
			if err := binary.Read(r, binary.BigEndian, &u); err != nil {
				return nil, err
			}
			out = append(out, value.FromInt(int64(u)))
		case constUint:
			var u uint64
			if err := binary.Read(r, binary.BigEndian, &u); err != nil {
				return nil, err
			}
			out = append(out, value.FromUint(u))
		case constFloat:
			var f float64
			if err := binary.Read(r, binary.BigEndian, &f); err != nil {
				return nil, err
			}
			out = append(out, value.FromFloat(f))
		case constByte:
			b, err := r.ReadByte()
			if err != nil {
				return nil, err
			}
			out = append(out, value.FromByte(b))
		case constHash:
			var h value.Hash
			if _, err := r.Read(h[:]); err != nil {
				return nil, err
			}
			out = append(out, value.FromHashLit(h))
		default:
			return nil, fmt.Errorf("unit: unknown constant kind %d", kindByte)
		}
	}
	return out, nil
}

func readStrings(r *bytes.Reader) ([]string, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, fmt.Errorf("unit: truncated string count: %w", err)
	}
	out := make([]string, 0, n)
	for i := uint32(0); i < n; i++ {
		var ln uint32
		if err := binary.Read(r, binary.BigEndian, &ln); err != nil {
			return nil, err
		}
		b := make([]byte, ln)
		if _, err := r.Read(b); err != nil {
			return nil, err
		}
		out = append(out, string(b))
	}
	return out, nil
}

func readByteSlices(r *bytes.Reader) ([][]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, fmt.Errorf("unit: truncated bytes count: %w", err)
	}
	out := make([][]byte, 0, n)
	for i := uint32(0); i < n; i++ {
		var ln uint32
		if err := binary.Read(r, binary.BigEndian, &ln); err != nil {
			return nil, err
		}
		b := make([]byte, ln)
		if _, err := r.Read(b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func readObjectKeys(r *bytes.Reader) ([][]string, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, fmt.Errorf("unit: truncated object-keys count: %w", err)
	}
	out := make([][]string, 0, n)
	for i := uint32(0); i < n; i++ {
		ks, err := readStrings(r)
		if err != nil {
			return nil, err
		}
		out = append(out, ks)
	}
	return out, nil
}

func readDropSets(r *bytes.Reader) ([][]int, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, fmt.Errorf("unit: truncated drop-set count: %w", err)
	}
	out := make([][]int, 0, n)
	for i := uint32(0); i < n; i++ {
		var ln uint32
		if err := binary.Read(r, binary.BigEndian, &ln); err != nil {
			return nil, err
		}
		set := make([]int, ln)
		for j := uint32(0); j < ln; j++ {
			var a uint32
			if err := binary.Read(r, binary.BigEndian, &a); err != nil {
				return nil, err
			}
			set[j] = int(a)
		}
		out = append(out, set)
	}
	return out, nil
}

func readInst(r *bytes.Reader) (Inst, error) {
	opByte, err := r.ReadByte()
	if err != nil {
		return Inst{}, fmt.Errorf("unit: truncated instruction: %w", err)
	}
	if opByte > byte(OpPushToFormatter) {
		return Inst{}, fmt.Errorf("unit: unknown opcode %d", opByte)
	}
	var a, b, c, out int32
	if err := binary.Read(r, binary.BigEndian, &a); err != nil {
		return Inst{}, err
	}
	if err := binary.Read(r, binary.BigEndian, &b); err != nil {
		return Inst{}, err
	}
	if err := binary.Read(r, binary.BigEndian, &c); err != nil {
		return Inst{}, err
	}
	if err := binary.Read(r, binary.BigEndian, &out); err != nil {
		return Inst{}, err
	}
	return Inst{Op: Opcode(opByte), A: a, B: b, C: c, Out: out}, nil
}
