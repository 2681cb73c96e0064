package air

import "valida/field"

// SymbolicBuilder accumulates a chip's constraints into a single
// alpha-weighted combination per row, following
// original_source/machine/src/folding_builder.rs and symbolic_builder.rs.
// The accumulated value at each row is the evaluation of constraints(x).
// machine.Prove does not run this builder: it commits only the main
// traces, and dividing by the vanishing polynomial Z_H and committing a
// quotient is left to the PCS/FRI collaborator (spec.md §1/§6).
type SymbolicBuilder struct {
	ChipName     string
	RowIdx       int
	NumRows      int
	Preprocessed []field.Element
	LocalRow     []field.Element
	NextRow      []field.Element
	Zero_, One_  field.Element
	Alpha        field.Element

	Acc field.Element
}

// NewSymbolicBuilder mirrors NewDebugBuilder, plus the constraint
// aggregation challenge alpha drawn after permutation-trace commitment
// (spec.md §4.9 step 4).
func NewSymbolicBuilder(chipName string, rowIdx, numRows int, preprocessed, localRow, nextRow []field.Element, zero, one, alpha field.Element) *SymbolicBuilder {
	return &SymbolicBuilder{
		ChipName:     chipName,
		RowIdx:       rowIdx,
		NumRows:      numRows,
		Preprocessed: preprocessed,
		LocalRow:     localRow,
		NextRow:      nextRow,
		Zero_:        zero,
		One_:         one,
		Alpha:        alpha,
		Acc:          zero,
	}
}

func (b *SymbolicBuilder) Local() []field.Element             { return b.LocalRow }
func (b *SymbolicBuilder) Next() []field.Element               { return b.NextRow }
func (b *SymbolicBuilder) PreprocessedLocal() []field.Element { return b.Preprocessed }
func (b *SymbolicBuilder) Zero() field.Element                 { return b.Zero_ }
func (b *SymbolicBuilder) One() field.Element                  { return b.One_ }

func (b *SymbolicBuilder) IsFirstRow() field.Element {
	if b.RowIdx == 0 {
		return b.One_
	}
	return b.Zero_
}

func (b *SymbolicBuilder) IsLastRow() field.Element {
	if b.RowIdx == b.NumRows-1 {
		return b.One_
	}
	return b.Zero_
}

func (b *SymbolicBuilder) IsTransition() field.Element {
	if b.RowIdx == b.NumRows-1 {
		return b.Zero_
	}
	return b.One_
}

// AssertZero folds expr into the running alpha-weighted accumulation,
// Acc = Acc*alpha + expr, the standard trick for batching many constraints
// into one low-degree check.
func (b *SymbolicBuilder) AssertZero(expr field.Element) {
	if expr == nil {
		expr = b.Zero_
	}
	b.Acc = b.Acc.Mul(b.Alpha).Add(expr)
}

func (b *SymbolicBuilder) AssertBool(expr field.Element) {
	b.AssertZero(expr.Mul(b.One_.Sub(expr)))
}
