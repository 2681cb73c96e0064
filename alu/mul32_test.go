package alu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"valida/air"
	"valida/field"
	"valida/word"
)

func TestMulRecordLowWord(t *testing.T) {
	c := NewMul(field.ZeroM31, field.OneM31, fromU32, fromI32)
	out := c.Record(word.FromU32(1<<20), word.FromU32(1<<20), 0)
	assert.Equal(t, uint32(0), out.U32()) // 2^40 mod 2^32 == 0
}

func TestMulRecordMulhu(t *testing.T) {
	c := NewMul(field.ZeroM31, field.OneM31, fromU32, fromI32)
	out := c.RecordMulhu(word.FromU32(1<<20), word.FromU32(1<<20), 0)
	assert.Equal(t, uint32(1<<8), out.U32()) // 2^40 >> 32 == 2^8
}

func TestMulRecordDivByZeroErrors(t *testing.T) {
	c := NewMul(field.ZeroM31, field.OneM31, fromU32, fromI32)
	_, err := c.RecordDiv(word.FromU32(10), word.FromU32(0), 0)
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestMulRecordDivQuotientAndRemainder(t *testing.T) {
	c := NewMul(field.ZeroM31, field.OneM31, fromU32, fromI32)
	out, err := c.RecordDiv(word.FromU32(17), word.FromU32(5), 0)
	assert.NoError(t, err)
	assert.Equal(t, uint32(3), out.U32())
	assert.Equal(t, word.FromU32(2), c.rems[0])
}

func TestMulEvalAcceptsMulIdentity(t *testing.T) {
	c := NewMul(field.ZeroM31, field.OneM31, fromU32, fromI32)
	c.Record(word.FromU32(6), word.FromU32(7), 0)
	tr := c.GenerateTrace()

	b := air.NewDebugBuilder("mul32", 0, 1, nil, tr.Row(0), nil, field.ZeroM31, field.OneM31)
	c.Eval(b)
	assert.Nil(t, b.Violation())
}

func TestMulEvalAcceptsDivIdentity(t *testing.T) {
	c := NewMul(field.ZeroM31, field.OneM31, fromU32, fromI32)
	c.RecordDiv(word.FromU32(17), word.FromU32(5), 0)
	tr := c.GenerateTrace()

	b := air.NewDebugBuilder("mul32", 0, 1, nil, tr.Row(0), nil, field.ZeroM31, field.OneM31)
	c.Eval(b)
	assert.Nil(t, b.Violation())
}

func TestMulEvalRejectsWrongRemainder(t *testing.T) {
	c := NewMul(field.ZeroM31, field.OneM31, fromU32, fromI32)
	c.RecordDiv(word.FromU32(17), word.FromU32(5), 0)
	tr := c.GenerateTrace()
	row := tr.Row(0)
	row[mulColRem0+3] = fromU32(99)

	b := air.NewDebugBuilder("mul32", 0, 1, nil, row, nil, field.ZeroM31, field.OneM31)
	c.Eval(b)
	assert.NotNil(t, b.Violation())
}
