package alu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"valida/air"
	"valida/field"
	"valida/word"
)

func TestCompareLt(t *testing.T) {
	c := NewCompare(field.ZeroM31, field.OneM31, fromU32, nil)
	out := c.RecordLt(word.FromU32(3), word.FromU32(5), 0)
	assert.Equal(t, uint32(1), out.U32())

	out = c.RecordLt(word.FromU32(5), word.FromU32(3), 0)
	assert.Equal(t, uint32(0), out.U32())
}

func TestCompareEqAndNe(t *testing.T) {
	c := NewCompare(field.ZeroM31, field.OneM31, fromU32, nil)
	assert.Equal(t, uint32(1), c.RecordEq(word.FromU32(9), word.FromU32(9), 0).U32())
	assert.Equal(t, uint32(0), c.RecordEq(word.FromU32(9), word.FromU32(8), 0).U32())
	assert.Equal(t, uint32(1), c.RecordNe(word.FromU32(9), word.FromU32(8), 0).U32())
}

func TestCompareRecordsRangeChecks(t *testing.T) {
	var checked []uint8
	c := NewCompare(field.ZeroM31, field.OneM31, fromU32, func(v uint8) { checked = append(checked, v) })
	c.RecordLt(word.FromU32(3), word.FromU32(5), 0)
	assert.Len(t, checked, 1)
}

func TestCompareEvalAllVariants(t *testing.T) {
	for _, tc := range []struct {
		name     string
		record   func(c *CompareChip) word.Word
		in1, in2 uint32
	}{
		{"lt-true", func(c *CompareChip) word.Word { return c.RecordLt(word.FromU32(3), word.FromU32(5), 0) }, 3, 5},
		{"lt-false", func(c *CompareChip) word.Word { return c.RecordLt(word.FromU32(5), word.FromU32(3), 0) }, 5, 3},
		{"lte-eq", func(c *CompareChip) word.Word { return c.RecordLte(word.FromU32(5), word.FromU32(5), 0) }, 5, 5},
		{"eq-true", func(c *CompareChip) word.Word { return c.RecordEq(word.FromU32(5), word.FromU32(5), 0) }, 5, 5},
		{"ne-true", func(c *CompareChip) word.Word { return c.RecordNe(word.FromU32(5), word.FromU32(9), 0) }, 5, 9},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := NewCompare(field.ZeroM31, field.OneM31, fromU32, nil)
			tc.record(c)
			tr := c.GenerateTrace()
			b := air.NewDebugBuilder("compare32", 0, 1, nil, tr.Row(0), nil, field.ZeroM31, field.OneM31)
			c.Eval(b)
			assert.Nil(t, b.Violation())
		})
	}
}

func TestCompareEvalRejectsWrongOutput(t *testing.T) {
	c := NewCompare(field.ZeroM31, field.OneM31, fromU32, nil)
	c.RecordLt(word.FromU32(3), word.FromU32(5), 0)
	tr := c.GenerateTrace()
	row := tr.Row(0)
	row[cmpColOut0+3] = fromU32(0) // flip the true LT result to false

	b := air.NewDebugBuilder("compare32", 0, 1, nil, row, nil, field.ZeroM31, field.OneM31)
	c.Eval(b)
	assert.NotNil(t, b.Violation())
}
