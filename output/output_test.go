package output

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"valida/field"
	"valida/word"
)

func fromU32(v uint32) field.Element { return field.NewM31(uint64(v)) }

func TestAppendAndBuffer(t *testing.T) {
	c := New(field.ZeroM31, fromU32)
	c.Append(word.FromU32(10))
	c.Append(word.FromU32(20))
	buf := c.Buffer()
	assert.Len(t, buf, 2)
	assert.Equal(t, uint32(10), buf[0].U32())
	assert.Equal(t, uint32(20), buf[1].U32())
}

func TestGenerateTraceOneRowPerWrite(t *testing.T) {
	c := New(field.ZeroM31, fromU32)
	c.Append(word.FromU32(75025))
	tr := c.GenerateTrace()
	assert.Equal(t, 1, tr.NumRows())
	assert.Equal(t, fromU32(0), tr.Row(0)[colAddr])
}

func TestNoBusInteractions(t *testing.T) {
	c := New(field.ZeroM31, fromU32)
	c.Append(word.FromU32(1))
	assert.Nil(t, c.Interactions())
}
