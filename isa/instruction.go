package isa

import (
	"encoding/binary"
	"fmt"
)

// Instruction is the six-field-element instruction record of spec.md §3:
// an opcode plus five operands. A is the destination offset; B and C are
// source offsets; D and E are opcode-specific (E doubles as the
// "immediate flag" described in spec.md §3). For imm32, B, C, D and E
// hold the four bytes of the 32-bit immediate, B the most significant.
type Instruction struct {
	Opcode Opcode
	A, B, C, D, E int32
}

// IsImmediate reports whether operand E marks the right operand of this
// instruction as an immediate, per spec.md §3 ("when e = 1 the second
// operand is interpreted as an immediate").
func (i Instruction) IsImmediate() bool {
	return i.E == 1
}

// Encode writes the instruction's 24-byte little-endian wire form (spec.md
// §6): u32 opcode followed by five i32 operands.
func (i Instruction) Encode() [BytesPerInstr]byte {
	var buf [BytesPerInstr]byte
	binary.LittleEndian.PutUint32(buf[0:4], uint32(i.Opcode))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(i.A))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(i.B))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(i.C))
	binary.LittleEndian.PutUint32(buf[16:20], uint32(i.D))
	binary.LittleEndian.PutUint32(buf[20:24], uint32(i.E))
	return buf
}

// DecodeInstruction parses one 24-byte little-endian record.
func DecodeInstruction(buf []byte) (Instruction, error) {
	if len(buf) < BytesPerInstr {
		return Instruction{}, fmt.Errorf("isa: short instruction record: got %d bytes, want %d", len(buf), BytesPerInstr)
	}
	return Instruction{
		Opcode: Opcode(binary.LittleEndian.Uint32(buf[0:4])),
		A:      int32(binary.LittleEndian.Uint32(buf[4:8])),
		B:      int32(binary.LittleEndian.Uint32(buf[8:12])),
		C:      int32(binary.LittleEndian.Uint32(buf[12:16])),
		D:      int32(binary.LittleEndian.Uint32(buf[16:20])),
		E:      int32(binary.LittleEndian.Uint32(buf[20:24])),
	}, nil
}

// Program is an ordered, immutable sequence of instructions indexed by
// program counter (a word index, per spec.md §3).
type Program struct {
	Instructions []Instruction
}

// DecodeProgram splits a raw byte stream into instruction records.
func DecodeProgram(raw []byte) (Program, error) {
	if len(raw)%BytesPerInstr != 0 {
		return Program{}, fmt.Errorf("isa: program length %d is not a multiple of %d", len(raw), BytesPerInstr)
	}
	n := len(raw) / BytesPerInstr
	instrs := make([]Instruction, n)
	for i := 0; i < n; i++ {
		instr, err := DecodeInstruction(raw[i*BytesPerInstr : (i+1)*BytesPerInstr])
		if err != nil {
			return Program{}, err
		}
		instrs[i] = instr
	}
	return Program{Instructions: instrs}, nil
}

// Encode serializes the whole program back to its raw byte form.
func (p Program) Encode() []byte {
	out := make([]byte, 0, len(p.Instructions)*BytesPerInstr)
	for _, instr := range p.Instructions {
		enc := instr.Encode()
		out = append(out, enc[:]...)
	}
	return out
}

// Len returns the number of instructions (the program's word length, used
// to bound the program counter).
func (p Program) Len() int {
	return len(p.Instructions)
}

// At returns the instruction at the given program-counter word index.
func (p Program) At(pc uint32) (Instruction, error) {
	if int(pc) >= len(p.Instructions) {
		return Instruction{}, fmt.Errorf("isa: pc %d out of bounds (program has %d instructions)", pc, len(p.Instructions))
	}
	return p.Instructions[pc], nil
}
