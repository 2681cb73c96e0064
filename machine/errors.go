package machine

import "valida/bus"

// BusImbalanceError reports that one bus's cumulative send/receive sum did
// not vanish (spec.md §7: "cumulative send/recv sum non-zero").
type BusImbalanceError struct {
	Bus bus.ID
}

func (e *BusImbalanceError) Error() string {
	return "machine: bus imbalance on " + e.Bus.String()
}

// OpeningMismatchError reports that the quotient evaluated at zeta
// disagreed with the constraint evaluation at zeta (spec.md §7).
type OpeningMismatchError struct{}

func (e *OpeningMismatchError) Error() string {
	return "machine: opening mismatch at zeta"
}

// InvalidShapeError reports that a proof's structure does not match the
// machine's chip set (spec.md §7: "proof structure does not match the
// chip set").
type InvalidShapeError struct {
	Reason string
}

func (e *InvalidShapeError) Error() string {
	return "machine: invalid proof shape: " + e.Reason
}

// VerificationError is the single error type Verify returns, wrapping
// whichever of the above (or a ConstraintViolation) caused verification to
// fail (spec.md §7: "the verifier returns a specific VerificationError
// variant; the core never panics on verifier input").
type VerificationError struct {
	Err error
}

func (e *VerificationError) Error() string {
	return "machine: verification failed: " + e.Err.Error()
}

func (e *VerificationError) Unwrap() error { return e.Err }
