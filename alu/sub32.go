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
	subColIn1_0 = iota
	subColIn1_1
	subColIn1_2
	subColIn1_3
	subColIn2_0
	subColIn2_1
	subColIn2_2
	subColIn2_3
	subColOut0
	subColOut1
	subColOut2
	subColOut3
	subColBorrow0
	subColBorrow1
	subColBorrow2
	numSubCols
)

// Sub32Chip implements SUB32: out = in1 - in2 mod 2^32, dual to Add32Chip
// with borrows in place of carries (spec.md §4.4).
type Sub32Chip struct {
	ops     []Operation
	zero    field.Element
	one     field.Element
	fromU32 func(uint32) field.Element
	fromI32 func(int32) field.Element
}

func NewSub32(zero, one field.Element, fromU32 func(uint32) field.Element, fromI32 func(int32) field.Element) *Sub32Chip {
	return &Sub32Chip{zero: zero, one: one, fromU32: fromU32, fromI32: fromI32}
}

func (c *Sub32Chip) Name() string { return "sub32" }

func (c *Sub32Chip) Record(in1, in2 word.Word, clk uint32) word.Word {
	out := in1.Sub32(in2)
	c.ops = append(c.ops, Operation{Opcode: isa.SUB32, In1: in1, In2: in2, Out: out, Clk: clk})
	return out
}

func (c *Sub32Chip) GenerateTrace() chip.Trace {
	t := chip.NewTrace(len(c.ops), numSubCols, c.zero)
	for i, op := range c.ops {
		row := t.Row(i)
		for b := 0; b < 4; b++ {
			row[subColIn1_0+b] = c.fromU32(uint32(op.In1.Byte(b)))
			row[subColIn2_0+b] = c.fromU32(uint32(op.In2.Byte(b)))
			row[subColOut0+b] = c.fromU32(uint32(op.Out.Byte(b)))
		}
		borrows := word.SubBorrows(op.In1, op.In2, op.Out)
		row[subColBorrow0] = c.fromI32(borrows[0])
		row[subColBorrow1] = c.fromI32(borrows[1])
		row[subColBorrow2] = c.fromI32(borrows[2])
	}
	return t
}

func (c *Sub32Chip) Interactions() []bus.Interaction {
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

// Eval is Add32Chip.Eval's dual: it ties each borrow column back to
// in1/in2/out via word.SubBorrows' chain (borrow_0 = in1[3]-in2[3]-out[3],
// each byte above folding in the previous borrow scaled by 256), then
// bounds every borrow to {0, -256}. The most-significant byte's own
// borrow-out is the discarded underflow and is bounded without a column.
func (c *Sub32Chip) Eval(b air.Builder) {
	local := b.Local()
	c256 := c.fromU32(256)
	c65536 := c.fromU32(65536)

	borrow0 := local[subColIn1_3].Sub(local[subColIn2_3]).Sub(local[subColOut3])
	b.AssertZero(local[subColBorrow0].Sub(borrow0))

	tieBack := func(borrowPrev, in1, in2, out, borrowCol field.Element) field.Element {
		return c256.Mul(borrowCol.Sub(in1).Add(in2).Add(out)).Sub(borrowPrev)
	}
	b.AssertZero(tieBack(local[subColBorrow0], local[subColIn1_2], local[subColIn2_2], local[subColOut2], local[subColBorrow1]))
	b.AssertZero(tieBack(local[subColBorrow1], local[subColIn1_1], local[subColIn2_1], local[subColOut1], local[subColBorrow2]))

	scaledBorrow3 := local[subColBorrow2].Add(c256.Mul(local[subColIn1_0].Sub(local[subColIn2_0]).Sub(local[subColOut0])))
	b.AssertZero(scaledBorrow3.Mul(c65536.Add(scaledBorrow3)))

	for i := 0; i < 3; i++ {
		borrow := local[subColBorrow0+i]
		b.AssertZero(borrow.Mul(c256.Add(borrow)))
	}
}

func (c *Sub32Chip) NumCols() int { return numSubCols }
