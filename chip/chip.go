// Package chip defines the capability bundle every chip in the machine
// implements (spec.md §9: "every chip provides generate_trace,
// interactions, eval"). A Chip owns one trace table and one AIR.
// GenerateTrace and Interactions take no arguments: they work from the
// operations the chip recorded during execution (the CPU records into the
// chips it dispatches to, and some ALU chips record into others, e.g. the
// shift chip into the mul chip). Eval asserts constraints against the
// Builder it is handed.
package chip

import (
	"valida/air"
	"valida/bus"
	"valida/field"
)

// Trace is a row-major matrix of field elements: Values has
// NumRows()*NumCols entries, row i occupying Values[i*NumCols:(i+1)*NumCols].
type Trace struct {
	Values  []field.Element
	NumCols int
}

// NewTrace allocates a trace of the given row count and column count,
// filled with zero.
func NewTrace(numRows, numCols int, zero field.Element) Trace {
	values := make([]field.Element, numRows*numCols)
	for i := range values {
		values[i] = zero
	}
	return Trace{Values: values, NumCols: numCols}
}

// NumRows returns how many rows are currently stored.
func (t Trace) NumRows() int {
	if t.NumCols == 0 {
		return 0
	}
	return len(t.Values) / t.NumCols
}

// Row returns a mutable slice view of row i.
func (t Trace) Row(i int) []field.Element {
	return t.Values[i*t.NumCols : (i+1)*t.NumCols]
}

// PadToPowerOfTwo appends copies of paddingRow until the row count is a
// power of two, per spec.md §3 ("padded with a neutral row to the next
// power of two at trace-generation time").
func PadToPowerOfTwo(t Trace, paddingRow []field.Element) Trace {
	n := t.NumRows()
	target := nextPowerOfTwo(n)
	for i := n; i < target; i++ {
		t.Values = append(t.Values, paddingRow...)
	}
	return t
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Chip is the capability bundle a component of the machine must provide.
// The symmetrical naming (GenerateTrace / Interactions / Eval) mirrors
// original_source/machine/src/chip.rs's Chip<M> trait
// (generate_trace/global_sends/global_receives/eval), collapsing sends and
// receives into one Interactions list tagged by Interaction.IsSend.
type Chip interface {
	Name() string
	GenerateTrace() Trace
	Interactions() []bus.Interaction
	Eval(b air.Builder)
	NumCols() int
}
