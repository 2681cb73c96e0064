package isa

import (
	"bytes"
	"fmt"
)

// Disassemble renders the whole program as one mnemonic per line, each
// prefixed with its program-counter address, mirroring the
// address-then-mnemonic layout of a classic instruction-level disassembler.
func (p Program) Disassemble() string {
	var out bytes.Buffer
	for pc, instr := range p.Instructions {
		fmt.Fprintf(&out, "%04d: %s\n", pc, instr.String())
	}
	return out.String()
}

// String renders one instruction back into the text grammar Assemble
// accepts, following the same opcode-specific operand layout the original
// emitter's print_operands used.
func (i Instruction) String() string {
	name := Mnemonic(i.Opcode)
	switch i.Opcode {
	case IMM32:
		imm := uint32(byte(i.B))<<24 | uint32(byte(i.C))<<16 | uint32(byte(i.D))<<8 | uint32(byte(i.E))
		return fmt.Sprintf("%s %d(fp), %d", name, i.A, imm)
	case JAL:
		return fmt.Sprintf("%s %d(fp), %d, %d", name, i.A, i.B, i.C)
	case JALV:
		return fmt.Sprintf("%s %d(fp), %d(fp), %d(fp)", name, i.A, i.B, i.C)
	case LOADFP:
		return fmt.Sprintf("%s %d(fp), %d", name, i.A, i.B)
	case BEQ, BNE:
		return fmt.Sprintf("%s %d, %s", name, i.A, operandPair(i.B, i.C, i.E))
	case STOP:
		return name
	case LOAD32, LOADU8, LOADS8:
		return fmt.Sprintf("%s %d(fp), %d(fp)", name, i.A, i.C)
	case STORE32, STOREU8:
		return fmt.Sprintf("%s %d(fp), %d(fp)", name, i.B, i.C)
	case READ_ADVICE, WRITE:
		return fmt.Sprintf("%s %d(fp)", name, i.A)
	default:
		return fmt.Sprintf("%s %d(fp), %s", name, i.A, operandPair(i.B, i.C, i.E))
	}
}

// operandPair renders the shared "b(fp), c(fp-or-imm)" suffix used by every
// branch and arithmetic opcode; e selects whether c prints as an immediate.
func operandPair(b, c, e int32) string {
	if e != 0 {
		return fmt.Sprintf("%d(fp), %d", b, c)
	}
	return fmt.Sprintf("%d(fp), %d(fp)", b, c)
}
