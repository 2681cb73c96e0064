// Package air provides the constraint-builder shims every chip's AIR is
// written against (spec.md §9, "AIR framework shims"). Grounded on
// original_source/machine/src/{constraint_consumer.rs, debug_builder.rs,
// folding_builder.rs}: a chip's Eval method is written once, against the
// Builder interface, and is driven by two different builder
// implementations depending on whether the caller wants an eager
// debug-time constraint check (DebugBuilder, used by every chip's own
// tests and by machine.CheckConstraints) or symbolic accumulation of one
// alpha-weighted sum per row (SymbolicBuilder, which machine.Prove does
// not call).
package air

import "valida/field"

// Builder is the constraint-evaluation context passed to a Chip's Eval
// method. A constraint is "the row the builder currently points at
// satisfies every asserted polynomial"; next-row references let a chip
// express transition constraints (spec.md's "local set of polynomial
// constraints over two adjacent rows plus boundary selectors").
type Builder interface {
	// Local and Next give direct access to the current and following row's
	// cells, in column order.
	Local() []field.Element
	Next() []field.Element

	// Preprocessed gives direct access to the chip's preprocessed row (the
	// program ROM image or the range table), if any. Returns nil for chips
	// with no preprocessed trace.
	PreprocessedLocal() []field.Element

	// IsFirstRow, IsLastRow, and IsTransition are boundary selectors: 1 at
	// the named boundary, 0 elsewhere. IsTransition is 0 only on the last
	// row (there is no "next row" to constrain there).
	IsFirstRow() field.Element
	IsLastRow() field.Element
	IsTransition() field.Element

	// AssertZero asserts that expr must vanish (at the current row, scoped
	// by whatever selector the caller multiplied in). The debug builder
	// checks this immediately; the symbolic builder accumulates expr into
	// the constraint polynomial.
	AssertZero(expr field.Element)

	// AssertBool asserts that expr is 0 or 1, i.e. expr*(1-expr) == 0 — the
	// recurring "opcode flags are boolean" / "is_read/is_write are
	// mutually exclusive booleans" shape used throughout spec.md §4.
	AssertBool(expr field.Element)

	// One returns the field's multiplicative identity, so chips can write
	// `b.AssertZero(flag.Mul(b.One().Sub(flag)))` without importing a
	// concrete field package.
	One() field.Element
	Zero() field.Element
}
