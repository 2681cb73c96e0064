package advice

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromReaderReturnsBytesInOrder(t *testing.T) {
	p := FromReader(strings.NewReader("ab"))
	b, err := p.ReadByte()
	assert.NoError(t, err)
	assert.Equal(t, byte('a'), b)

	b, err = p.ReadByte()
	assert.NoError(t, err)
	assert.Equal(t, byte('b'), b)
}

func TestFromReaderExhausted(t *testing.T) {
	p := FromReader(strings.NewReader(""))
	_, err := p.ReadByte()
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestEmptyIsImmediatelyExhausted(t *testing.T) {
	p := Empty()
	_, err := p.ReadByte()
	assert.ErrorIs(t, err, ErrExhausted)
}
