package alu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"valida/air"
	"valida/field"
	"valida/word"
)

func TestSub32RecordWraps(t *testing.T) {
	c := NewSub32(field.ZeroM31, field.OneM31, fromU32, fromI32)
	out := c.Record(word.FromU32(0), word.FromU32(1), 0)
	assert.Equal(t, uint32(0xFFFFFFFF), out.U32())
}

func TestSub32EvalAcceptsWitnessedBorrows(t *testing.T) {
	c := NewSub32(field.ZeroM31, field.OneM31, fromU32, fromI32)
	c.Record(word.FromU32(0), word.FromU32(1), 0)
	tr := c.GenerateTrace()

	b := air.NewDebugBuilder("sub32", 0, 1, nil, tr.Row(0), nil, field.ZeroM31, field.OneM31)
	c.Eval(b)
	assert.Nil(t, b.Violation())
}

func TestSub32EvalRejectsBadBorrow(t *testing.T) {
	c := NewSub32(field.ZeroM31, field.OneM31, fromU32, fromI32)
	c.Record(word.FromU32(5), word.FromU32(3), 0)
	tr := c.GenerateTrace()
	row := tr.Row(0)
	row[subColBorrow0] = fromU32(7)

	b := air.NewDebugBuilder("sub32", 0, 1, nil, row, nil, field.ZeroM31, field.OneM31)
	c.Eval(b)
	assert.NotNil(t, b.Violation())
}
