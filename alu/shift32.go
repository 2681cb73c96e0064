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
	shColIn1_0 = iota
	shColIn1_1
	shColIn1_2
	shColIn1_3
	shColIn2_0
	shColIn2_1
	shColIn2_2
	shColIn2_3
	shColOut0
	shColOut1
	shColOut2
	shColOut3
	shColAmt0 // low 5 bits of the shift amount, one column per bit
	shColAmt1
	shColAmt2
	shColAmt3
	shColAmt4
	shColAmtHigh0 // remaining 3 bits of in2's low byte, tying amtBits back to the real operand
	shColAmtHigh1
	shColAmtHigh2
	shColPow // witnessed 2^amount
	shColIsShl
	shColIsShr
	shColIsSra
	numShiftCols
)

// embedded captures the multiply/divide operation a shift is rewritten
// as, so ShiftChip can send a matching general-bus tuple for the row it
// pushed into MulChip.
type embedded struct {
	opcode isa.Opcode
	out    word.Word
	pow    word.Word
}

// ShiftChip implements SHL32, SHR32, and SRA32 by decomposing the shift
// amount's low 5 bits into a power-of-two witness and rewriting the shift
// as a multiply (SHL) or divide (SHR/SRA) pushed into the shared MulChip
// (spec.md §4.4: "sends matching mul/div bus ops").
type ShiftChip struct {
	ops       []Operation
	embedded  []embedded
	zero, one field.Element
	fromU32   func(uint32) field.Element
	mul       *MulChip
}

func NewShift(zero, one field.Element, fromU32 func(uint32) field.Element, mul *MulChip) *ShiftChip {
	return &ShiftChip{zero: zero, one: one, fromU32: fromU32, mul: mul}
}

func (c *ShiftChip) Name() string { return "shift32" }

func powerOfTwo(amt uint32) word.Word { return word.FromU32(1 << (amt & 0x1F)) }

// RecordShl logs an SHL32 execution, rewritten as in1 * 2^amt.
func (c *ShiftChip) RecordShl(in1, in2 word.Word, clk uint32) word.Word {
	pow := powerOfTwo(in2.U32())
	out := c.mul.Record(in1, pow, clk)
	c.ops = append(c.ops, Operation{Opcode: isa.SHL32, In1: in1, In2: in2, Out: out, Clk: clk})
	c.embedded = append(c.embedded, embedded{opcode: isa.MUL32, out: out, pow: pow})
	return out
}

// RecordShr logs an SHR32 execution, rewritten as in1 / 2^amt (unsigned).
func (c *ShiftChip) RecordShr(in1, in2 word.Word, clk uint32) word.Word {
	pow := powerOfTwo(in2.U32())
	out, _ := c.mul.RecordDiv(in1, pow, clk) // pow is always >= 1, never zero
	c.ops = append(c.ops, Operation{Opcode: isa.SHR32, In1: in1, In2: in2, Out: out, Clk: clk})
	c.embedded = append(c.embedded, embedded{opcode: isa.DIV32, out: out, pow: pow})
	return out
}

// RecordSra logs an SRA32 execution: arithmetic (sign-extending) right
// shift, rewritten as signed division by 2^amt.
func (c *ShiftChip) RecordSra(in1, in2 word.Word, clk uint32) word.Word {
	pow := powerOfTwo(in2.U32())
	out := word.FromI32(in1.I32() >> (in2.U32() & 0x1F))
	c.mul.push(Operation{Opcode: isa.SDIV32, In1: in1, In2: pow, Out: out, Clk: clk}, word.Zero)
	c.ops = append(c.ops, Operation{Opcode: isa.SRA32, In1: in1, In2: in2, Out: out, Clk: clk})
	c.embedded = append(c.embedded, embedded{opcode: isa.SDIV32, out: out, pow: pow})
	return out
}

func (c *ShiftChip) GenerateTrace() chip.Trace {
	t := chip.NewTrace(len(c.ops), numShiftCols, c.zero)
	for i, op := range c.ops {
		row := t.Row(i)
		for b := 0; b < 4; b++ {
			row[shColIn1_0+b] = c.fromU32(uint32(op.In1.Byte(b)))
			row[shColIn2_0+b] = c.fromU32(uint32(op.In2.Byte(b)))
			row[shColOut0+b] = c.fromU32(uint32(op.Out.Byte(b)))
		}
		amt := op.In2.U32() & 0x1F
		for bit := 0; bit < 5; bit++ {
			if amt&(1<<bit) != 0 {
				row[shColAmt0+bit] = c.one
			}
		}
		lowByte := uint32(op.In2.Byte(3))
		for bit := 0; bit < 3; bit++ {
			if lowByte&(1<<(5+bit)) != 0 {
				row[shColAmtHigh0+bit] = c.one
			}
		}
		row[shColPow] = c.fromU32(1 << amt)
		switch op.Opcode {
		case isa.SHL32:
			row[shColIsShl] = c.one
		case isa.SHR32:
			row[shColIsShr] = c.one
		case isa.SRA32:
			row[shColIsSra] = c.one
		}
	}
	return t
}

func (c *ShiftChip) Interactions() []bus.Interaction {
	out := make([]bus.Interaction, 0, len(c.ops)*2)
	for i, op := range c.ops {
		out = append(out, bus.Interaction{
			Bus: bus.General, Chip: c.Name(), Row: i,
			Tuple:  BusTuple(op.Opcode, op.Out, op.In1, op.In2, op.Clk, c.fromU32),
			Count:  c.one,
			IsSend: false,
		})
		e := c.embedded[i]
		out = append(out, bus.Interaction{
			Bus: bus.General, Chip: c.Name(), Row: i,
			Tuple:  BusTuple(e.opcode, e.out, op.In1, e.pow, op.Clk, c.fromU32),
			Count:  c.one,
			IsSend: true,
		})
	}
	return out
}

// Eval asserts the low-5-bit decomposition of the shift amount
// reconstructs the witnessed power-of-two column via repeated squaring
// of the bit witnesses, and that those same bits (plus the three witnessed
// high bits) reconstruct in2's low byte, tying amtBits back to the actual
// shift-amount operand rather than leaving it free.
func (c *ShiftChip) Eval(b air.Builder) {
	local := b.Local()
	amtBits := local[shColAmt0 : shColAmt0+5]
	pow := c.one
	bitComp := c.zero
	for i := 0; i < 5; i++ {
		b.AssertBool(amtBits[i])
		bitComp = bitComp.Add(amtBits[i].Mul(c.fromU32(1 << uint(i))))
		// bit i set multiplies the running power by 2^(2^i), else by 1
		pow = pow.Mul(b.One().Add(amtBits[i].Mul(pow2Minus1(i, c.fromU32))))
	}
	b.AssertZero(pow.Sub(local[shColPow]))

	amtHigh := local[shColAmtHigh0 : shColAmtHigh0+3]
	for i, bit := range amtHigh {
		b.AssertBool(bit)
		bitComp = bitComp.Add(bit.Mul(c.fromU32(1 << uint(5+i))))
	}
	b.AssertZero(bitComp.Sub(local[shColIn2_3]))

	flags := []field.Element{local[shColIsShl], local[shColIsShr], local[shColIsSra]}
	sum := c.zero
	for _, f := range flags {
		b.AssertBool(f)
		sum = sum.Add(f)
	}
	b.AssertBool(sum)
}

// pow2Minus1 returns 2^(2^i) - 1, the per-bit multiplier used to fold a
// bit decomposition into a power-of-two value via repeated squaring
// (bit i contributes a factor of 2^(2^i) when set, 1 when clear).
func pow2Minus1(i int, fromU32 func(uint32) field.Element) field.Element {
	return fromU32((1 << (1 << uint(i))) - 1)
}

func (c *ShiftChip) NumCols() int { return numShiftCols }
