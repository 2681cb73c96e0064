package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valida/field"
)

func m31(v uint64) field.Element { return field.NewM31(v) }

func TestCumulativeSumBalances(t *testing.T) {
	beta := m31(7)
	gamma := m31(1000)

	log := NewLog()
	tuple := []field.Element{m31(1), m31(2), m31(3)}
	log.Send(General, "cpu", 0, tuple, field.OneM31)
	log.Receive(General, "add32", 0, tuple, field.OneM31)

	sum, err := CumulativeSum(General, log.Entries(), beta, gamma, field.ZeroM31)
	require.NoError(t, err)
	assert.True(t, sum.IsZero())
}

func TestCumulativeSumImbalance(t *testing.T) {
	beta := m31(7)
	gamma := m31(1000)

	log := NewLog()
	tuple := []field.Element{m31(1), m31(2), m31(3)}
	log.Send(General, "cpu", 0, tuple, field.OneM31)
	// no matching receive: dropped add32 send, per spec.md §8 scenario 4

	sum, err := CumulativeSum(General, log.Entries(), beta, gamma, field.ZeroM31)
	require.NoError(t, err)
	assert.False(t, sum.IsZero())
}

func TestCumulativeSumIgnoresOtherBuses(t *testing.T) {
	beta := m31(7)
	gamma := m31(1000)

	log := NewLog()
	log.Send(Memory, "cpu", 0, []field.Element{m31(9)}, field.OneM31)

	sum, err := CumulativeSum(General, log.Entries(), beta, gamma, field.ZeroM31)
	require.NoError(t, err)
	assert.True(t, sum.IsZero())
}

func TestBusIDString(t *testing.T) {
	assert.Equal(t, "general_bus", General.String())
	assert.Equal(t, "program_bus", Program.String())
	assert.Equal(t, "memory_bus", Memory.String())
	assert.Equal(t, "range_bus", Range.String())
}
