package alu

import (
	"valida/air"
	"valida/bus"
	"valida/chip"
	"valida/field"
	"valida/isa"
	"valida/word"
)

const (
	addColIn1_0 = iota
	addColIn1_1
	addColIn1_2
	addColIn1_3
	addColIn2_0
	addColIn2_1
	addColIn2_2
	addColIn2_3
	addColOut0
	addColOut1
	addColOut2
	addColOut3
	addColCarry0
	addColCarry1
	addColCarry2
	numAddCols
)

// Add32Chip implements ADD32: out = in1 + in2 mod 2^32, witnessed with the
// three byte-boundary carries of spec.md §4.4.
type Add32Chip struct {
	ops     []Operation
	zero    field.Element
	one     field.Element
	fromU32 func(uint32) field.Element
	fromI32 func(int32) field.Element
}

func NewAdd32(zero, one field.Element, fromU32 func(uint32) field.Element, fromI32 func(int32) field.Element) *Add32Chip {
	return &Add32Chip{zero: zero, one: one, fromU32: fromU32, fromI32: fromI32}
}

func (c *Add32Chip) Name() string { return "add32" }

// Record logs one ADD32 execution and returns the wrapped sum.
func (c *Add32Chip) Record(in1, in2 word.Word, clk uint32) word.Word {
	out := in1.Add32(in2)
	c.ops = append(c.ops, Operation{Opcode: isa.ADD32, In1: in1, In2: in2, Out: out, Clk: clk})
	return out
}

func (c *Add32Chip) GenerateTrace() chip.Trace {
	t := chip.NewTrace(len(c.ops), numAddCols, c.zero)
	for i, op := range c.ops {
		row := t.Row(i)
		for b := 0; b < 4; b++ {
			row[addColIn1_0+b] = c.fromU32(uint32(op.In1.Byte(b)))
			row[addColIn2_0+b] = c.fromU32(uint32(op.In2.Byte(b)))
			row[addColOut0+b] = c.fromU32(uint32(op.Out.Byte(b)))
		}
		carries := word.AddCarries(op.In1, op.In2, op.Out)
		row[addColCarry0] = c.fromI32(carries[0])
		row[addColCarry1] = c.fromI32(carries[1])
		row[addColCarry2] = c.fromI32(carries[2])
	}
	return t
}

func (c *Add32Chip) Interactions() []bus.Interaction {
	out := make([]bus.Interaction, len(c.ops))
	for i, op := range c.ops {
		out[i] = bus.Interaction{
			Bus: bus.General, Chip: c.Name(), Row: i,
			Tuple:  BusTuple(op.Opcode, op.Out, op.In1, op.In2, op.Clk, c.fromU32),
			Count:  c.one,
			IsSend: false,
		}
	}
	return out
}

// Eval ties each carry column back to in1/in2/out via the ripple-carry
// identity word.AddCarries witnesses (carry_i is the scaled, signed form
// of the byte-i carry-out: 0 when the byte addition didn't overflow, -256
// when it did), then asserts carry_i*(256+carry_i) = 0 so each carry is
// pinned to one of those two values. The least-significant byte has no
// carry-in: carry_0 = out[3]-in1[3]-in2[3] directly. Each byte above folds
// in the previous carry scaled by 256 to avoid extracting a 0/1 bit from
// it. The most-significant byte's own carry-out is the genuine mod-2^32
// wraparound, discarded rather than stored, so it is bounded the same way
// without a column to tie back to.
func (c *Add32Chip) Eval(b air.Builder) {
	local := b.Local()
	c256 := c.fromU32(256)
	c65536 := c.fromU32(65536)

	carry0 := local[addColOut3].Sub(local[addColIn1_3]).Sub(local[addColIn2_3])
	b.AssertZero(local[addColCarry0].Sub(carry0))

	tieBack := func(carryPrev, in1, in2, out, carryCol field.Element) field.Element {
		return c256.Mul(carryCol.Sub(out).Add(in1).Add(in2)).Sub(carryPrev)
	}
	b.AssertZero(tieBack(local[addColCarry0], local[addColIn1_2], local[addColIn2_2], local[addColOut2], local[addColCarry1]))
	b.AssertZero(tieBack(local[addColCarry1], local[addColIn1_1], local[addColIn2_1], local[addColOut1], local[addColCarry2]))

	scaledCarry3 := local[addColCarry2].Add(c256.Mul(local[addColOut0].Sub(local[addColIn1_0]).Sub(local[addColIn2_0])))
	b.AssertZero(scaledCarry3.Mul(c65536.Add(scaledCarry3)))

	for i := 0; i < 3; i++ {
		carry := local[addColCarry0+i]
		b.AssertZero(carry.Mul(c256.Add(carry)))
	}
}

func (c *Add32Chip) NumCols() int { return numAddCols }
