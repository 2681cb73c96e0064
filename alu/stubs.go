package alu

import (
	"valida/air"
	"valida/bus"
	"valida/chip"
	"valida/field"
)

// Mul64Chip and Poseidon2Chip are registered chip.Chip implementations with
// no opcode in the fixed table driving them (there is no 64-bit multiply or
// hash opcode in spec.md §6's table). They exist so the machine's chip set
// is extensible without a structural change, but machine.NewDefault leaves
// them out: an empty chip contributes an empty trace and no interactions,
// which is sound but pointless to carry in the default configuration.

// Mul64Chip would implement a 64-bit widening multiply analogous to
// MulChip, for a future wide-word extension of the ISA.
type Mul64Chip struct {
	zero, one field.Element
}

func NewMul64(zero, one field.Element) *Mul64Chip { return &Mul64Chip{zero: zero, one: one} }

func (c *Mul64Chip) Name() string               { return "mul64" }
func (c *Mul64Chip) GenerateTrace() chip.Trace   { return chip.NewTrace(0, 1, c.zero) }
func (c *Mul64Chip) Interactions() []bus.Interaction { return nil }
func (c *Mul64Chip) Eval(b air.Builder)          {}
func (c *Mul64Chip) NumCols() int                { return 1 }

// Poseidon2Chip would implement a Poseidon2 permutation chip, for a future
// in-circuit hashing extension of the ISA.
type Poseidon2Chip struct {
	zero, one field.Element
}

func NewPoseidon2(zero, one field.Element) *Poseidon2Chip { return &Poseidon2Chip{zero: zero, one: one} }

func (c *Poseidon2Chip) Name() string               { return "poseidon2" }
func (c *Poseidon2Chip) GenerateTrace() chip.Trace   { return chip.NewTrace(0, 1, c.zero) }
func (c *Poseidon2Chip) Interactions() []bus.Interaction { return nil }
func (c *Poseidon2Chip) Eval(b air.Builder)          {}
func (c *Poseidon2Chip) NumCols() int                { return 1 }
