// Package word provides the 32-bit Word type used throughout the machine:
// registers, memory cells, and instruction operands are all one Word wide.
//
// A Word is stored big-endian (Word[0] is the most significant byte), the
// same convention spec.md fixes for memory cells and ALU operands. Bit/byte
// range extraction follows the style of the teacher's mask package, lifted
// from single-byte ranges to whole 4-byte words.
package word

import "fmt"

// Word is a 4-byte, big-endian 32-bit value.
type Word [4]byte

// Zero is the additive identity.
var Zero = Word{}

// FromU32 splits a uint32 into its big-endian byte representation.
func FromU32(v uint32) Word {
	return Word{
		byte(v >> 24),
		byte(v >> 16),
		byte(v >> 8),
		byte(v),
	}
}

// FromI32 reinterprets a signed 32-bit displacement as its wrapping unsigned
// bit pattern, matching the machine's "everything is a 32-bit wrapping
// register" semantics (spec.md §3, §8 boundaries).
func FromI32(v int32) Word {
	return FromU32(uint32(v))
}

// U32 reassembles the big-endian bytes into a uint32.
func (w Word) U32() uint32 {
	return uint32(w[0])<<24 | uint32(w[1])<<16 | uint32(w[2])<<8 | uint32(w[3])
}

// I32 reinterprets the word as a signed 32-bit wrapping value.
func (w Word) I32() int32 {
	return int32(w.U32())
}

// Byte returns the i'th byte (0 = most significant).
func (w Word) Byte(i int) byte {
	return w[i]
}

// WithByte returns a copy of w with the i'th byte replaced.
func (w Word) WithByte(i int, b byte) Word {
	w[i] = b
	return w
}

// Add32 performs wrapping 32-bit addition, per spec.md §8 ("Add32 wraps at
// 2^32").
func (w Word) Add32(other Word) Word {
	return FromU32(w.U32() + other.U32())
}

// Sub32 performs wrapping 32-bit subtraction ("Sub32 underflows to
// 2^32-wrapping").
func (w Word) Sub32(other Word) Word {
	return FromU32(w.U32() - other.U32())
}

func (w Word) String() string {
	return fmt.Sprintf("%02x%02x%02x%02x", w[0], w[1], w[2], w[3])
}

// AddCarries computes the three byte-wise carries of a 32-bit addition,
// indexed 0 (least-significant byte boundary) to 2 (most-significant byte
// boundary), following the Add32 AIR summarized in spec.md §4.4: each carry
// is witnessed as 0 or -256, satisfying carry*(256+carry) = 0.
func AddCarries(in1, in2, out Word) [3]int32 {
	var carries [3]int32
	carryIn := int32(0)
	for idx := 0; idx < 3; idx++ {
		i := 3 - idx // byte index, LSB first
		sum := int32(in1[i]) + int32(in2[i]) + carryIn
		if sum >= 256 {
			carries[idx] = -256
			carryIn = 1
		} else {
			carries[idx] = 0
			carryIn = 0
		}
	}
	return carries
}

// SubBorrows computes the three byte-wise borrows of a 32-bit subtraction,
// indexed the same way as AddCarries, following the Sub32 AIR ("dual
// formulation" in spec.md §4.4).
func SubBorrows(in1, in2, out Word) [3]int32 {
	var borrows [3]int32
	borrowIn := int32(0)
	for idx := 0; idx < 3; idx++ {
		i := 3 - idx
		diff := int32(in1[i]) - int32(in2[i]) - borrowIn
		if diff < 0 {
			borrows[idx] = -256
			borrowIn = 1
		} else {
			borrows[idx] = 0
			borrowIn = 0
		}
	}
	return borrows
}
