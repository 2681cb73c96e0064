package alu

import "valida/field"

func fromU32(v uint32) field.Element { return field.NewM31(uint64(v)) }

func fromI32(v int32) field.Element {
	if v < 0 {
		return field.NewM31(uint64(field.Modulus - uint32(-v)))
	}
	return field.NewM31(uint64(v))
}
