package alu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"valida/field"
)

func TestStubChipsProduceEmptyTraceAndNoInteractions(t *testing.T) {
	mul64 := NewMul64(field.ZeroM31, field.OneM31)
	assert.Equal(t, 0, mul64.GenerateTrace().NumRows())
	assert.Nil(t, mul64.Interactions())

	pos := NewPoseidon2(field.ZeroM31, field.OneM31)
	assert.Equal(t, 0, pos.GenerateTrace().NumRows())
	assert.Nil(t, pos.Interactions())
}
