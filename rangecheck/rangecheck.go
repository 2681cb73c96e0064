// Package rangecheck implements the byte range-check chip of spec.md §4.6:
// a preprocessed table of every value in [0, MAX) paired with a
// multiplicity column, receiving range-check tuples from any chip that
// produces 8-bit values.
package rangecheck

import (
	"valida/air"
	"valida/bus"
	"valida/chip"
	"valida/field"
)

// DefaultMax is the table size spec.md §4.6 names as typical.
const DefaultMax = 256

const (
	colValue = iota
	colMult
	numCols
)

// Chip accumulates a multiplicity count per byte value as the rest of the
// machine records byte usage during execution, then emits one receive per
// value weighted by its multiplicity.
type Chip struct {
	max     int
	counts  []uint64
	zero    field.Element
	one     field.Element
	fromU32 func(uint32) field.Element
}

func New(max int, zero, one field.Element, fromU32 func(uint32) field.Element) *Chip {
	return &Chip{max: max, counts: make([]uint64, max), zero: zero, one: one, fromU32: fromU32}
}

func (c *Chip) Name() string { return "range" }

// Record increments the multiplicity of v. The compare chip calls it
// (through the hook it is built with) for each low byte it range-checks
// (spec.md §4.6: "a helper on the machine records byte usage
// during execution").
func (c *Chip) Record(v uint8) {
	c.counts[int(v)]++
}

func (c *Chip) GenerateTrace() chip.Trace {
	t := chip.NewTrace(c.max, numCols, c.zero)
	for i := 0; i < c.max; i++ {
		row := t.Row(i)
		row[colValue] = c.fromU32(uint32(i))
		row[colMult] = c.fromU32(uint32(c.counts[i]))
	}
	return t
}

// Interactions receives one range-check tuple per table value, weighted
// by how many times that value was recorded.
func (c *Chip) Interactions() []bus.Interaction {
	out := make([]bus.Interaction, 0, c.max)
	for i := 0; i < c.max; i++ {
		out = append(out, bus.Interaction{
			Bus:    bus.Range,
			Chip:   c.Name(),
			Row:    i,
			Tuple:  []field.Element{c.fromU32(uint32(i))},
			Count:  c.fromU32(uint32(c.counts[i])),
			IsSend: false,
		})
	}
	return out
}

// Eval asserts the preprocessed value column is the literal sequence
// 0, 1, 2, ... — the invariant the multiplicity argument depends on.
func (c *Chip) Eval(b air.Builder) {
	local := b.Local()
	next := b.Next()
	if len(next) == 0 {
		return
	}
	step := next[colValue].Sub(local[colValue])
	b.AssertZero(b.IsTransition().Mul(step.Sub(b.One())))
}

func (c *Chip) NumCols() int { return numCols }
