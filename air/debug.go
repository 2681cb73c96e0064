package air

import "valida/field"

// ConstraintViolation reports that some AIR constraint did not vanish on a
// witnessed trace row (spec.md §7, "caught in debug mode").
type ConstraintViolation struct {
	Chip string
	Row  int
}

func (e *ConstraintViolation) Error() string {
	return "constraint violation in chip " + e.Chip + " at row " + itoa(e.Row)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// DebugBuilder is an eager Builder: AssertZero/AssertBool check the
// assertion against the current local/next row immediately and record the
// first failure, rather than accumulating a symbolic polynomial. It is
// grounded on original_source/machine/src/debug_builder.rs and is the
// builder every chip's own unit tests drive Eval with, plus
// machine.CheckConstraints (the "every AIR constraint vanishes on every
// row" property of spec.md §8).
type DebugBuilder struct {
	ChipName      string
	RowIdx        int
	NumRows       int
	Preprocessed  []field.Element
	LocalRow      []field.Element
	NextRow       []field.Element
	Zero_, One_   field.Element
	violation     *ConstraintViolation
}

// NewDebugBuilder constructs a builder pointed at rowIdx of a trace whose
// rows are localRow/nextRow (nextRow is nil on the last row).
func NewDebugBuilder(chipName string, rowIdx, numRows int, preprocessed, localRow, nextRow []field.Element, zero, one field.Element) *DebugBuilder {
	return &DebugBuilder{
		ChipName:     chipName,
		RowIdx:       rowIdx,
		NumRows:      numRows,
		Preprocessed: preprocessed,
		LocalRow:     localRow,
		NextRow:      nextRow,
		Zero_:        zero,
		One_:         one,
	}
}

func (b *DebugBuilder) Local() []field.Element             { return b.LocalRow }
func (b *DebugBuilder) Next() []field.Element               { return b.NextRow }
func (b *DebugBuilder) PreprocessedLocal() []field.Element { return b.Preprocessed }
func (b *DebugBuilder) Zero() field.Element                 { return b.Zero_ }
func (b *DebugBuilder) One() field.Element                  { return b.One_ }

func (b *DebugBuilder) IsFirstRow() field.Element {
	if b.RowIdx == 0 {
		return b.One_
	}
	return b.Zero_
}

func (b *DebugBuilder) IsLastRow() field.Element {
	if b.RowIdx == b.NumRows-1 {
		return b.One_
	}
	return b.Zero_
}

func (b *DebugBuilder) IsTransition() field.Element {
	if b.RowIdx == b.NumRows-1 {
		return b.Zero_
	}
	return b.One_
}

func (b *DebugBuilder) AssertZero(expr field.Element) {
	if expr == nil || expr.IsZero() {
		return
	}
	if b.violation == nil {
		b.violation = &ConstraintViolation{Chip: b.ChipName, Row: b.RowIdx}
	}
}

func (b *DebugBuilder) AssertBool(expr field.Element) {
	b.AssertZero(expr.Mul(b.One_.Sub(expr)))
}

// Violation returns the first recorded constraint violation, or nil if
// every assertion held on this row.
func (b *DebugBuilder) Violation() *ConstraintViolation {
	return b.violation
}
