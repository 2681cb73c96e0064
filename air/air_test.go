package air

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"valida/field"
)

func m31(v uint64) field.Element { return field.NewM31(v) }

func TestDebugBuilderPassesOnZero(t *testing.T) {
	b := NewDebugBuilder("test", 0, 2, nil, []field.Element{m31(1)}, []field.Element{m31(1)}, field.ZeroM31, field.OneM31)
	b.AssertZero(m31(0))
	assert.Nil(t, b.Violation())
}

func TestDebugBuilderCatchesViolation(t *testing.T) {
	b := NewDebugBuilder("adder", 3, 8, nil, []field.Element{m31(1)}, nil, field.ZeroM31, field.OneM31)
	b.AssertZero(m31(5))
	v := b.Violation()
	assert.NotNil(t, v)
	assert.Equal(t, "adder", v.Chip)
	assert.Equal(t, 3, v.Row)
}

func TestDebugBuilderBoundarySelectors(t *testing.T) {
	first := NewDebugBuilder("x", 0, 4, nil, nil, nil, field.ZeroM31, field.OneM31)
	assert.True(t, first.IsFirstRow().IsZero() == false)
	assert.True(t, first.IsTransition().IsZero() == false)

	last := NewDebugBuilder("x", 3, 4, nil, nil, nil, field.ZeroM31, field.OneM31)
	assert.True(t, last.IsLastRow().IsZero() == false)
	assert.True(t, last.IsTransition().IsZero())
}

func TestDebugBuilderAssertBool(t *testing.T) {
	b := NewDebugBuilder("flags", 0, 1, nil, nil, nil, field.ZeroM31, field.OneM31)
	b.AssertBool(field.OneM31)
	assert.Nil(t, b.Violation())

	b2 := NewDebugBuilder("flags", 0, 1, nil, nil, nil, field.ZeroM31, field.OneM31)
	b2.AssertBool(m31(2))
	assert.NotNil(t, b2.Violation())
}

func TestSymbolicBuilderAccumulates(t *testing.T) {
	b := NewSymbolicBuilder("x", 0, 1, nil, nil, nil, field.ZeroM31, field.OneM31, m31(3))
	b.AssertZero(m31(5))
	b.AssertZero(m31(7))
	// Acc = (0*3 + 5)*3 + 7 = 22
	assert.Equal(t, m31(22), b.Acc)
}
