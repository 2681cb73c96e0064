package alu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"valida/air"
	"valida/field"
	"valida/isa"
	"valida/word"
)

func TestBitwiseAndOrXor(t *testing.T) {
	table := NewBitwiseTable(field.ZeroM31, field.OneM31, fromU32)
	c := NewBitwise(field.ZeroM31, field.OneM31, fromU32, table)

	assert.Equal(t, word.FromU32(0x0F0F&0xFF00), c.RecordAnd(word.FromU32(0x0F0F), word.FromU32(0xFF00), 0))
	assert.Equal(t, word.FromU32(0x0F0F|0xFF00), c.RecordOr(word.FromU32(0x0F0F), word.FromU32(0xFF00), 0))
	assert.Equal(t, word.FromU32(0x0F0F^0xFF00), c.RecordXor(word.FromU32(0x0F0F), word.FromU32(0xFF00), 0))
}

func TestBitwiseOrPushesOr32NotAnd32(t *testing.T) {
	table := NewBitwiseTable(field.ZeroM31, field.OneM31, fromU32)
	c := NewBitwise(field.ZeroM31, field.OneM31, fromU32, table)
	c.RecordOr(word.FromU32(1), word.FromU32(2), 0)
	assert.Equal(t, isa.OR32, c.ops[0].Opcode)
}

func TestBitwiseTableAccumulatesMultiplicity(t *testing.T) {
	table := NewBitwiseTable(field.ZeroM31, field.OneM31, fromU32)
	c := NewBitwise(field.ZeroM31, field.OneM31, fromU32, table)
	c.RecordAnd(word.FromU32(0x01020304), word.FromU32(0x01020304), 0)

	tr := table.GenerateTrace()
	assert.Equal(t, BitwiseTableSize, tr.NumRows())

	idx := bitwiseIndex(0x01, 0x01)
	assert.Equal(t, fromU32(1), tr.Row(idx)[btColMultAnd])
}

func TestBitwiseEvalRejectsMultipleFlags(t *testing.T) {
	table := NewBitwiseTable(field.ZeroM31, field.OneM31, fromU32)
	c := NewBitwise(field.ZeroM31, field.OneM31, fromU32, table)
	c.RecordAnd(word.FromU32(1), word.FromU32(2), 0)
	tr := c.GenerateTrace()
	row := tr.Row(0)
	row[bwColIsOr] = fromU32(1) // now both is_and and is_or are set

	b := air.NewDebugBuilder("bitwise32", 0, 1, nil, row, nil, field.ZeroM31, field.OneM31)
	c.Eval(b)
	assert.NotNil(t, b.Violation())
}
