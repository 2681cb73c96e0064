// Package field defines the narrow field-arithmetic surface this repo
// consumes. Per spec.md §1/§6, FRI, PCS, Merkle tree, and hash are external
// collaborators. Chips are written against the Element interface below;
// the package also provides one concrete field, M31 (mersenne31.go), which
// machine.NewDefault wires into every chip.
//
// Element is kept deliberately small: chips build virtual columns (linear
// combinations of trace cells) and the bus builds logup terms
// (1/(gamma - sum(beta_i * f_i))) purely in terms of Add/Sub/Mul/Neg/Inverse.
package field

// Element is an opaque prime-field element.
type Element interface {
	Add(Element) Element
	Sub(Element) Element
	Mul(Element) Element
	Neg() Element
	// Inverse returns the multiplicative inverse and true, or a zero value
	// and false if the receiver is zero (per spec.md's diff_inv convention:
	// "the multiplicative inverse ... if non-zero, else 0").
	Inverse() (Element, bool)
	IsZero() bool
	Equal(Element) bool
	Uint64() uint64
}
