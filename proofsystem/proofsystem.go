// Package proofsystem declares the narrow interfaces this repo's machine
// driver consumes from the STARK backend (FRI, a polynomial commitment
// scheme, a Merkle tree, and a hash function). Per spec.md §1/§6, these are
// external collaborators: this package defines only the seam, never an
// implementation.
package proofsystem

import "valida/field"

// Matrix is a row-major trace matrix over a field.
type Matrix struct {
	Values  []field.Element
	NumCols int
}

// Commitment is an opaque handle to a committed matrix (e.g. a Merkle root).
type Commitment interface{}

// OpeningProof is an opaque handle to a batch-opening proof at a point.
type OpeningProof interface{}

// PCS is a polynomial commitment scheme: commit to a set of trace matrices,
// later open them (and the quotient) at a verifier-chosen point zeta.
type PCS interface {
	Commit(matrices []Matrix) (Commitment, error)
	Open(commitment Commitment, point field.Element) (OpeningProof, []field.Element, error)
	VerifyOpening(commitment Commitment, point field.Element, values []field.Element, proof OpeningProof) error
}

// Challenger is a Fiat-Shamir transcript used to draw the logup challenges
// (beta, gamma), the constraint-aggregation challenge (alpha), and the
// out-of-domain evaluation point (zeta).
type Challenger interface {
	Observe(elems ...field.Element)
	ObserveCommitment(c Commitment)
	Sample() field.Element
}
