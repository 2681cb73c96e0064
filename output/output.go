// Package output implements the append-only output buffer chip of spec.md
// §4.7: one row per `write` opcode execution, exposed as the machine's
// stdout once execution halts.
package output

import (
	"valida/air"
	"valida/bus"
	"valida/chip"
	"valida/field"
	"valida/word"
)

const (
	colAddr = iota
	colValue0
	colValue1
	colValue2
	colValue3
	numCols
)

// Chip records every Word appended by the write opcode, in order.
type Chip struct {
	entries []word.Word
	zero    field.Element
	fromU32 func(uint32) field.Element
}

func New(zero field.Element, fromU32 func(uint32) field.Element) *Chip {
	return &Chip{zero: zero, fromU32: fromU32}
}

func (c *Chip) Name() string { return "output" }

// Append records one more Word written to the output buffer.
func (c *Chip) Append(v word.Word) {
	c.entries = append(c.entries, v)
}

// Buffer returns the full, in-order output buffer once execution has
// finished — this is what the machine exposes as the program's stdout.
func (c *Chip) Buffer() []word.Word {
	return c.entries
}

func (c *Chip) GenerateTrace() chip.Trace {
	n := len(c.entries)
	t := chip.NewTrace(n, numCols, c.zero)
	for i, v := range c.entries {
		row := t.Row(i)
		row[colAddr] = c.fromU32(uint32(i))
		row[colValue0] = c.fromU32(uint32(v.Byte(0)))
		row[colValue1] = c.fromU32(uint32(v.Byte(1)))
		row[colValue2] = c.fromU32(uint32(v.Byte(2)))
		row[colValue3] = c.fromU32(uint32(v.Byte(3)))
	}
	return t
}

// Interactions is empty: the output chip imposes no bus interactions of
// its own beyond the program bus's receipt of the write opcode, which the
// program chip already accounts for (spec.md §4.7).
func (c *Chip) Interactions() []bus.Interaction { return nil }

func (c *Chip) Eval(b air.Builder) {}

func (c *Chip) NumCols() int { return numCols }
