// Package program implements the program ROM chip of spec.md §4.5: a
// preprocessed table of every instruction word, with a main-trace fetch
// multiplicity column receiving matching sends from the CPU.
package program

import (
	"valida/air"
	"valida/bus"
	"valida/chip"
	"valida/field"
	"valida/isa"
)

const (
	colPC = iota
	colOpcode
	colA
	colB
	colC
	colD
	colE
	colMult
	numCols
)

// Chip holds the loaded program as a preprocessed table and a per-PC fetch
// multiplicity accumulated during execution.
type Chip struct {
	program isa.Program
	fetches []uint64

	zero, one field.Element
	fromU32   func(uint32) field.Element
	fromI32   func(int32) field.Element
}

func New(prog isa.Program, zero, one field.Element, fromU32 func(uint32) field.Element, fromI32 func(int32) field.Element) *Chip {
	return &Chip{
		program: prog,
		fetches: make([]uint64, prog.Len()),
		zero:    zero,
		one:     one,
		fromU32: fromU32,
		fromI32: fromI32,
	}
}

func (c *Chip) Name() string { return "program" }

// RecordFetch marks one fetch of the instruction at pc, called once per
// CPU cycle (spec.md §4.1: "fetch, decode, and dispatch one instruction
// per row").
func (c *Chip) RecordFetch(pc uint32) {
	c.fetches[pc]++
}

func (c *Chip) GenerateTrace() chip.Trace {
	n := c.program.Len()
	t := chip.NewTrace(n, numCols, c.zero)
	for i := 0; i < n; i++ {
		instr := c.program.Instructions[i]
		row := t.Row(i)
		row[colPC] = c.fromU32(uint32(i))
		row[colOpcode] = c.fromU32(uint32(instr.Opcode))
		row[colA] = c.fromI32(instr.A)
		row[colB] = c.fromI32(instr.B)
		row[colC] = c.fromI32(instr.C)
		row[colD] = c.fromI32(instr.D)
		row[colE] = c.fromI32(instr.E)
		row[colMult] = c.fromU32(uint32(c.fetches[i]))
	}
	return t
}

// Interactions receives one fetch tuple per instruction, weighted by its
// fetch multiplicity, on the program bus.
func (c *Chip) Interactions() []bus.Interaction {
	n := c.program.Len()
	out := make([]bus.Interaction, 0, n)
	for i := 0; i < n; i++ {
		instr := c.program.Instructions[i]
		out = append(out, bus.Interaction{
			Bus:  bus.Program,
			Chip: c.Name(),
			Row:  i,
			Tuple: []field.Element{
				c.fromU32(uint32(i)),
				c.fromU32(uint32(instr.Opcode)),
				c.fromI32(instr.A),
				c.fromI32(instr.B),
				c.fromI32(instr.C),
				c.fromI32(instr.D),
				c.fromI32(instr.E),
			},
			Count:  c.fromU32(uint32(c.fetches[i])),
			IsSend: false,
		})
	}
	return out
}

// Eval has no row-local constraints: the preprocessed columns are fixed at
// load time and the fetch multiplicity is constrained only by the global
// bus balance, not by any per-row relation.
func (c *Chip) Eval(b air.Builder) {}

func (c *Chip) NumCols() int { return numCols }
