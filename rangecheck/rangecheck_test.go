package rangecheck

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"valida/field"
)

func fromU32(v uint32) field.Element { return field.NewM31(uint64(v)) }

func TestGenerateTraceHasFullTable(t *testing.T) {
	c := New(DefaultMax, field.ZeroM31, field.OneM31, fromU32)
	c.Record(5)
	c.Record(5)
	c.Record(0)

	tr := c.GenerateTrace()
	assert.Equal(t, DefaultMax, tr.NumRows())
	assert.Equal(t, fromU32(5), tr.Row(5)[colValue])
	assert.Equal(t, fromU32(2), tr.Row(5)[colMult])
	assert.Equal(t, fromU32(1), tr.Row(0)[colMult])
	assert.Equal(t, fromU32(0), tr.Row(1)[colMult])
}

func TestInteractionsCarryMultiplicity(t *testing.T) {
	c := New(DefaultMax, field.ZeroM31, field.OneM31, fromU32)
	c.Record(200)
	interactions := c.Interactions()
	assert.Len(t, interactions, DefaultMax)
	assert.Equal(t, fromU32(1), interactions[200].Count)
	assert.False(t, interactions[200].IsSend)
}
