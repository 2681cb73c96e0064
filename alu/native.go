package alu

import (
	"valida/air"
	"valida/bus"
	"valida/chip"
	"valida/field"
	"valida/isa"
)

const (
	natColIn1 = iota
	natColIn2
	natColOut
	natColIsAdd
	natColIsSub
	natColIsMul
	numNativeCols
)

// nativeOp is a single native-field operation. Unlike the 32-bit ALU
// family, operands and output live directly in the field, with no byte
// decomposition (spec.md §4.4: "the native ADD/SUB/MUL family operates
// directly on field elements, skipping the byte-decomposition machinery
// the 32-bit family needs").
type nativeOp struct {
	opcode   isa.Opcode
	in1, in2 field.Element
	out      field.Element
}

// NativeChip implements the native-field ADD, SUB, and MUL opcodes (200,
// 201, 202).
type NativeChip struct {
	ops       []nativeOp
	zero, one field.Element
	fromU32   func(uint32) field.Element
}

func NewNative(zero, one field.Element, fromU32 func(uint32) field.Element) *NativeChip {
	return &NativeChip{zero: zero, one: one, fromU32: fromU32}
}

func (c *NativeChip) Name() string { return "native" }

// RecordAdd logs a native ADD execution.
func (c *NativeChip) RecordAdd(in1, in2 field.Element) field.Element {
	out := in1.Add(in2)
	c.ops = append(c.ops, nativeOp{opcode: isa.ADD, in1: in1, in2: in2, out: out})
	return out
}

// RecordSub logs a native SUB execution.
func (c *NativeChip) RecordSub(in1, in2 field.Element) field.Element {
	out := in1.Sub(in2)
	c.ops = append(c.ops, nativeOp{opcode: isa.SUB, in1: in1, in2: in2, out: out})
	return out
}

// RecordMul logs a native MUL execution.
func (c *NativeChip) RecordMul(in1, in2 field.Element) field.Element {
	out := in1.Mul(in2)
	c.ops = append(c.ops, nativeOp{opcode: isa.MUL, in1: in1, in2: in2, out: out})
	return out
}

func (c *NativeChip) GenerateTrace() chip.Trace {
	t := chip.NewTrace(len(c.ops), numNativeCols, c.zero)
	for i, op := range c.ops {
		row := t.Row(i)
		row[natColIn1] = op.in1
		row[natColIn2] = op.in2
		row[natColOut] = op.out
		switch op.opcode {
		case isa.ADD:
			row[natColIsAdd] = c.one
		case isa.SUB:
			row[natColIsSub] = c.one
		case isa.MUL:
			row[natColIsMul] = c.one
		}
	}
	return t
}

func (c *NativeChip) Interactions() []bus.Interaction {
	out := make([]bus.Interaction, len(c.ops))
	for i, op := range c.ops {
		out[i] = bus.Interaction{
			Bus: bus.General, Chip: c.Name(), Row: i,
			Tuple: []field.Element{
				c.fromU32(uint32(op.opcode)), op.out, op.in1, op.in2,
			},
			Count:  c.one,
			IsSend: false,
		}
	}
	return out
}

// Eval asserts the one-hot opcode flag and each operation's algebraic
// identity, gated by its flag.
func (c *NativeChip) Eval(b air.Builder) {
	local := b.Local()
	isAdd, isSub, isMul := local[natColIsAdd], local[natColIsSub], local[natColIsMul]
	for _, f := range []field.Element{isAdd, isSub, isMul} {
		b.AssertBool(f)
	}
	b.AssertBool(isAdd.Add(isSub).Add(isMul))

	in1, in2, out := local[natColIn1], local[natColIn2], local[natColOut]
	b.AssertZero(isAdd.Mul(out.Sub(in1.Add(in2))))
	b.AssertZero(isSub.Mul(out.Sub(in1.Sub(in2))))
	b.AssertZero(isMul.Mul(out.Sub(in1.Mul(in2))))
}

func (c *NativeChip) NumCols() int { return numNativeCols }
