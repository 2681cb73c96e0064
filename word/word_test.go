package word

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromU32RoundTrip(t *testing.T) {
	for _, v := range []uint32{0, 1, 42, 0xFFFF_FFFF, 0x1234_5678} {
		assert.Equal(t, v, FromU32(v).U32())
	}
}

func TestBigEndianLayout(t *testing.T) {
	// 75025 = 0x00012511, big-endian bytes [0x00, 0x01, 0x25, 0x11]
	w := FromU32(75025)
	assert.Equal(t, Word{0x00, 0x01, 0x25, 0x11}, w)
}

func TestAdd32Wraps(t *testing.T) {
	w := FromU32(0xFFFF_FFFF).Add32(FromU32(1))
	assert.Equal(t, Word{0, 0, 0, 0}, w)
}

func TestSub32Underflows(t *testing.T) {
	w := FromU32(0).Sub32(FromU32(1))
	assert.Equal(t, uint32(0xFFFF_FFFF), w.U32())
}

func TestWithByte(t *testing.T) {
	w := Zero.WithByte(3, 0x2A)
	assert.Equal(t, byte(0x2A), w.Byte(3))
	assert.Equal(t, uint32(42), w.U32())
}

func TestAddCarriesWrap(t *testing.T) {
	in1 := FromU32(0xFFFF_FFFF)
	in2 := FromU32(1)
	out := in1.Add32(in2)
	carries := AddCarries(in1, in2, out)
	for _, c := range carries {
		assert.True(t, c == 0 || c == -256)
	}
	// every byte-wise addition here overflows, so every carry fires
	assert.Equal(t, [3]int32{-256, -256, -256}, carries)
}

func TestSubBorrowsUnderflow(t *testing.T) {
	in1 := FromU32(0)
	in2 := FromU32(1)
	out := in1.Sub32(in2)
	borrows := SubBorrows(in1, in2, out)
	assert.Equal(t, [3]int32{-256, -256, -256}, borrows)
}
