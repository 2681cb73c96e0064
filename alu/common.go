// Package alu implements the arithmetic/logic chips of spec.md §4.4: one
// chip per operation family, each holding a list of Operation records
// pushed during execution, each receiving its share of the general bus
// weighted by its own one-hot opcode flags.
package alu

import (
	"errors"

	"valida/field"
	"valida/isa"
	"valida/word"
)

// ErrDivisionByZero is returned by RecordDiv/RecordSdiv; the interpreter
// must treat it as a fatal execution error before any division-by-zero
// trace row is ever generated (spec.md §7, resolving the Div32 Open
// Question: "the interpreter must reject divisor 0 as a fatal execution
// error so divisor-0 traces never reach proving").
var ErrDivisionByZero = errors.New("alu: division by zero")

// Operation is one ALU execution record, shared by every chip in this
// package (spec.md §4.4).
type Operation struct {
	Opcode   isa.Opcode
	In1, In2 word.Word
	Out      word.Word
	Clk      uint32
}

// byteWeights are the field constants 256^3..256^0 used to reconstruct a
// 32-bit value from its big-endian byte columns.
var byteWeights = [4]uint32{1 << 24, 1 << 16, 1 << 8, 1}

// reconstruct folds four byte-valued field elements (in Word's big-endian
// order, index 0 = most significant) back into the 32-bit value they
// represent, as a single field element.
func reconstruct(bytes [4]field.Element, fromU32 func(uint32) field.Element) field.Element {
	acc := bytes[0].Mul(fromU32(byteWeights[0]))
	for i := 1; i < 4; i++ {
		acc = acc.Add(bytes[i].Mul(fromU32(byteWeights[i])))
	}
	return acc
}

func wordBytes(w word.Word, fromU32 func(uint32) field.Element) [4]field.Element {
	var out [4]field.Element
	for i := 0; i < 4; i++ {
		out[i] = fromU32(uint32(w.Byte(i)))
	}
	return out
}

// BusTuple builds the general-bus tuple spec.md §4.1 sends for a bus op:
// (opcode, addr_a_value_or_write_value, read_value_1, read_value_2,
// clk_or_zero). Every ALU chip's Interactions() reproduces this exact
// shape so its receive cancels the CPU's send.
func BusTuple(opcode isa.Opcode, out, in1, in2 word.Word, clk uint32, fromU32 func(uint32) field.Element) []field.Element {
	tuple := make([]field.Element, 0, 14)
	tuple = append(tuple, fromU32(uint32(opcode)))
	for i := 0; i < 4; i++ {
		tuple = append(tuple, fromU32(uint32(out.Byte(i))))
	}
	for i := 0; i < 4; i++ {
		tuple = append(tuple, fromU32(uint32(in1.Byte(i))))
	}
	for i := 0; i < 4; i++ {
		tuple = append(tuple, fromU32(uint32(in2.Byte(i))))
	}
	tuple = append(tuple, fromU32(clk))
	return tuple
}
