package staticdata

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"valida/field"
	"valida/word"
)

func fromU32(v uint32) field.Element { return field.NewM31(uint64(v)) }

func TestLoadAndCells(t *testing.T) {
	c := New(field.ZeroM31, field.OneM31, fromU32)
	c.Load(0, word.FromU32(11))
	c.Load(4, word.FromU32(22))
	cells := c.Cells()
	assert.Len(t, cells, 2)
	assert.Equal(t, uint32(0), cells[0].Addr)
	assert.Equal(t, uint32(22), cells[1].Value.U32())
}

func TestInteractionsSendOnMemoryBus(t *testing.T) {
	c := New(field.ZeroM31, field.OneM31, fromU32)
	c.Load(8, word.FromU32(5))
	interactions := c.Interactions()
	assert.Len(t, interactions, 1)
	assert.True(t, interactions[0].IsSend)
	assert.Equal(t, "memory_bus", interactions[0].Bus.String())
	assert.Equal(t, field.OneM31, interactions[0].Count)
}
