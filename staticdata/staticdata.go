// Package staticdata implements the static data chip of spec.md §4.8: the
// initial memory image, written into the memory chip at clk = 0 and sent
// as matching memory-bus writes.
package staticdata

import (
	"valida/air"
	"valida/bus"
	"valida/chip"
	"valida/field"
	"valida/word"
)

// Cell is one entry of the initial memory image.
type Cell struct {
	Addr  uint32
	Value word.Word
}

const (
	colAddr = iota
	colValue0
	colValue1
	colValue2
	colValue3
	numCols
)

// Chip holds the program's initial memory image, loaded once before
// execution starts.
type Chip struct {
	cells   []Cell
	zero    field.Element
	one     field.Element
	fromU32 func(uint32) field.Element
}

func New(zero, one field.Element, fromU32 func(uint32) field.Element) *Chip {
	return &Chip{zero: zero, one: one, fromU32: fromU32}
}

func (c *Chip) Name() string { return "static_data" }

// Load records one cell of the initial image.
func (c *Chip) Load(addr uint32, value word.Word) {
	c.cells = append(c.cells, Cell{Addr: addr, Value: value})
}

// Cells returns the loaded image in load order.
func (c *Chip) Cells() []Cell {
	return c.cells
}

func (c *Chip) GenerateTrace() chip.Trace {
	n := len(c.cells)
	t := chip.NewTrace(n, numCols, c.zero)
	for i, cell := range c.cells {
		row := t.Row(i)
		row[colAddr] = c.fromU32(cell.Addr)
		row[colValue0] = c.fromU32(uint32(cell.Value.Byte(0)))
		row[colValue1] = c.fromU32(uint32(cell.Value.Byte(1)))
		row[colValue2] = c.fromU32(uint32(cell.Value.Byte(2)))
		row[colValue3] = c.fromU32(uint32(cell.Value.Byte(3)))
	}
	return t
}

// Interactions sends one memory-bus write per cell, shaped to match the
// memory chip's receive tuple (clk, addr, value bytes) with clk = 0
// (spec.md §4.8: "sends matching writes on the memory bus").
func (c *Chip) Interactions() []bus.Interaction {
	out := make([]bus.Interaction, 0, len(c.cells))
	for i, cell := range c.cells {
		out = append(out, bus.Interaction{
			Bus:  bus.Memory,
			Chip: c.Name(),
			Row:  i,
			Tuple: []field.Element{
				c.fromU32(0),
				c.fromU32(cell.Addr),
				c.fromU32(uint32(cell.Value.Byte(0))),
				c.fromU32(uint32(cell.Value.Byte(1))),
				c.fromU32(uint32(cell.Value.Byte(2))),
				c.fromU32(uint32(cell.Value.Byte(3))),
			},
			Count:  c.one,
			IsSend: true,
		})
	}
	return out
}

func (c *Chip) Eval(b air.Builder) {}

func (c *Chip) NumCols() int { return numCols }
