// Package memory implements the memory consistency chip of spec.md §4.2:
// an address-sorted log of reads and writes, dummy rows closing the
// sorting argument, and the memory-bus interactions the CPU and
// static-data chips send against.
package memory

import (
	"fmt"
	"sort"

	"valida/air"
	"valida/bus"
	"valida/chip"
	"valida/field"
	"valida/word"
)

// Kind distinguishes a real memory access from a dummy row inserted purely
// to bound the sorting argument's gap (spec.md §4.2 step 3).
type Kind int

const (
	Read Kind = iota
	Write
	DummyRead
)

// Operation is one entry in the chip's time-ordered execution log, later
// resorted by (addr, clk) for trace generation.
type Operation struct {
	Clk   uint32
	Addr  uint32
	Value word.Word
	Kind  Kind
}

// ReadBeforeWriteError reports a read of a memory cell with no prior write,
// mirroring the original memory chip's "read before write" panic, turned
// into an ordinary Go error instead of a panic (spec.md §7).
type ReadBeforeWriteError struct {
	Addr, PC, Opcode uint32
}

func (e *ReadBeforeWriteError) Error() string {
	return fmt.Sprintf("memory: read before write at addr %d (pc=%d, opcode=%d)", e.Addr, e.PC, e.Opcode)
}

// Column layout of the memory chip's main trace (spec.md §4.2).
const (
	colIsRead = iota
	colIsWrite
	colIsStaticInitial
	colClk
	colAddr
	colValue0
	colValue1
	colValue2
	colValue3
	colDiff
	colDiffInv
	colAddrNotEqual
	colCounter
	colCounterMult
	numCols
)

// Chip maintains the machine's view of memory during execution and
// produces the address-sorted trace and memory-bus interactions at
// trace-generation time.
type Chip struct {
	cells      map[uint32]word.Word
	operations []Operation
	staticData map[uint32]word.Word

	zero, one field.Element
	fromU32   func(uint32) field.Element

	lastRows []Operation // cached post-dummy-insertion rows, set by GenerateTrace
}

// New constructs an empty memory chip. fromU32 converts a raw u32 into the
// concrete field in use (the machine wires this to field.NewM31 or
// whichever Element implementation it runs with).
func New(zero, one field.Element, fromU32 func(uint32) field.Element) *Chip {
	return &Chip{
		cells:      make(map[uint32]word.Word),
		staticData: make(map[uint32]word.Word),
		zero:       zero,
		one:        one,
		fromU32:    fromU32,
	}
}

func (c *Chip) Name() string { return "memory" }

// LoadStatic installs an entry of the initial memory image (spec.md §4.6);
// it is written into cells directly and also recorded so GenerateTrace can
// emit the matching static-initial row.
func (c *Chip) LoadStatic(addr uint32, value word.Word) {
	c.cells[addr] = value
	c.staticData[addr] = value
}

// Read returns the most recent write to addr, logging a Read operation. It
// returns ReadBeforeWriteError if addr was never written, per spec.md §4.1
// ("reading an uninitialized address is a fatal execution error").
func (c *Chip) Read(clk, addr, pc, opcode uint32) (word.Word, error) {
	v, ok := c.cells[addr]
	if !ok {
		return word.Zero, &ReadBeforeWriteError{Addr: addr, PC: pc, Opcode: opcode}
	}
	c.operations = append(c.operations, Operation{Clk: clk, Addr: addr, Value: v, Kind: Read})
	return v, nil
}

// ReadOrInit reads addr, treating an unwritten cell as zero instead of
// erroring (spec.md §4.1's explicit read-or-init entry point). The cell
// itself stays unwritten.
func (c *Chip) ReadOrInit(clk, addr uint32) word.Word {
	v := c.cells[addr]
	c.operations = append(c.operations, Operation{Clk: clk, Addr: addr, Value: v, Kind: Read})
	return v
}

// Write records a write to addr at clk.
func (c *Chip) Write(clk, addr uint32, value word.Word) {
	c.operations = append(c.operations, Operation{Clk: clk, Addr: addr, Value: value, Kind: Write})
	c.cells[addr] = value
}

// Examine renders a cell's current value for the interactive debugger, or
// a placeholder if the cell was never written.
func (c *Chip) Examine(addr uint32) string {
	v, ok := c.cells[addr]
	if !ok {
		return "--------"
	}
	return fmt.Sprintf("%d", v.U32())
}

// buildRows adds one clk-0 write row per static-data cell to the execution
// log, sorts all rows together by (addr, clk) keeping log order within one
// clock (so a cycle's read of a cell stays ahead of its write to that
// cell, and a static row ahead of clk-0 accesses), and inserts dummy reads until no same-address clock gap exceeds
// the eventual table length (spec.md §4.2 steps 1-3). The fixed-point loop
// terminates quickly in practice: each pass can only grow the row count,
// and the cap it measures against grows with it, so gaps stop being
// re-split once the cap exceeds the largest real gap.
func (c *Chip) buildRows() []Operation {
	rows := make([]Operation, 0, len(c.operations)+len(c.staticData))
	for addr, v := range c.staticData {
		rows = append(rows, Operation{Clk: 0, Addr: addr, Value: v, Kind: Write})
	}
	rows = append(rows, c.operations...)

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Addr != rows[j].Addr {
			return rows[i].Addr < rows[j].Addr
		}
		return rows[i].Clk < rows[j].Clk
	})

	const hardCap = 1 << 29
	for pass := 0; pass < 8; pass++ {
		cap := nextPowerOfTwo(len(rows))
		if cap > hardCap {
			cap = hardCap
		}
		spliced := insertDummyReads(rows, cap)
		if len(spliced) == len(rows) {
			rows = spliced
			break
		}
		rows = spliced
	}
	return rows
}

// insertDummyReads walks sorted rows and, whenever two consecutive rows
// share an address with a clock gap larger than maxGap, splices in dummy
// reads that re-assert the prior value at intermediate clocks.
func insertDummyReads(rows []Operation, maxGap int) []Operation {
	if len(rows) == 0 {
		return rows
	}
	out := make([]Operation, 0, len(rows))
	out = append(out, rows[0])
	for i := 1; i < len(rows); i++ {
		prev := out[len(out)-1]
		cur := rows[i]
		if cur.Addr == prev.Addr {
			for int(cur.Clk)-int(prev.Clk) > maxGap {
				prev = Operation{Clk: prev.Clk + uint32(maxGap), Addr: prev.Addr, Value: prev.Value, Kind: DummyRead}
				out = append(out, prev)
			}
		}
		out = append(out, cur)
	}
	return out
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

// GenerateTrace builds the address-sorted main trace, computing diff,
// diff_inv, addr_not_equal, and the counter/counter_mult pair per spec.md
// §4.2's AIR constraints section.
func (c *Chip) GenerateTrace() chip.Trace {
	rows := c.buildRows()
	target := nextPowerOfTwo(len(rows))
	for len(rows) < target {
		last := rows[len(rows)-1]
		rows = append(rows, Operation{Clk: last.Clk, Addr: last.Addr, Value: last.Value, Kind: DummyRead})
	}
	c.lastRows = rows

	n := len(rows)
	diffs := make([]uint32, n)
	for i := 0; i < n; i++ {
		if i+1 >= n {
			diffs[i] = 0
			continue
		}
		cur, next := rows[i], rows[i+1]
		if next.Addr != cur.Addr {
			diffs[i] = next.Addr - cur.Addr
		} else {
			diffs[i] = next.Clk - cur.Clk
		}
	}

	counterMult := make([]int, n)
	for i := 0; i < n; i++ {
		k := int(diffs[i])
		if k < n {
			counterMult[k]++
		}
	}

	t := chip.NewTrace(n, numCols, c.zero)
	for i, op := range rows {
		row := t.Row(i)
		switch op.Kind {
		case Read:
			row[colIsRead] = c.one
		case Write:
			row[colIsWrite] = c.one
		}
		// the static row is the clk-0 write that opens its address's run
		if sv, ok := c.staticData[op.Addr]; ok && op.Kind == Write && op.Clk == 0 && op.Value == sv && (i == 0 || rows[i-1].Addr != op.Addr) {
			row[colIsStaticInitial] = c.one
		}
		row[colClk] = c.fromU32(op.Clk)
		row[colAddr] = c.fromU32(op.Addr)
		row[colValue0] = c.fromU32(uint32(op.Value.Byte(0)))
		row[colValue1] = c.fromU32(uint32(op.Value.Byte(1)))
		row[colValue2] = c.fromU32(uint32(op.Value.Byte(2)))
		row[colValue3] = c.fromU32(uint32(op.Value.Byte(3)))

		diffElem := c.fromU32(diffs[i])
		row[colDiff] = diffElem
		if inv, ok := diffElem.Inverse(); ok {
			row[colDiffInv] = inv
		} else {
			row[colDiffInv] = c.zero
		}
		if i+1 < n && rows[i+1].Addr != op.Addr {
			row[colAddrNotEqual] = c.one
		}
		row[colCounter] = c.fromU32(uint32(i))
		row[colCounterMult] = c.fromU32(uint32(counterMult[i]))
	}
	return t
}

// Interactions reports one memory-bus receive per real access (weighted by
// is_read + is_write, so dummy rows contribute zero) and the internal
// range-bus send/receive pair that proves every diff column value lies in
// [0, table length), closing the sorting argument (spec.md §4.2). It
// rebuilds the rows from the current log first, so its result does not
// depend on an earlier GenerateTrace call.
func (c *Chip) Interactions() []bus.Interaction {
	if len(c.operations)+len(c.staticData) > 0 {
		c.GenerateTrace()
	}
	rows := c.lastRows
	var out []bus.Interaction
	for i, op := range rows {
		weight := c.zero
		switch op.Kind {
		case Read, Write:
			weight = c.one
		}
		tuple := []field.Element{
			c.fromU32(op.Clk),
			c.fromU32(op.Addr),
			c.fromU32(uint32(op.Value.Byte(0))),
			c.fromU32(uint32(op.Value.Byte(1))),
			c.fromU32(uint32(op.Value.Byte(2))),
			c.fromU32(uint32(op.Value.Byte(3))),
		}
		out = append(out, bus.Interaction{
			Bus: bus.Memory, Chip: c.Name(), Row: i,
			Tuple: tuple, Count: weight, IsSend: false,
		})

		var diff uint32
		if i+1 < len(rows) {
			if rows[i+1].Addr != op.Addr {
				diff = rows[i+1].Addr - op.Addr
			} else {
				diff = rows[i+1].Clk - op.Clk
			}
		}
		out = append(out, bus.Interaction{
			Bus: bus.Range, Chip: c.Name(), Row: i,
			Tuple: []field.Element{c.fromU32(diff)}, Count: c.one, IsSend: true,
		})
	}
	n := len(rows)
	counterMult := make([]int, n)
	for i := 0; i < n; i++ {
		var diff uint32
		if i+1 < n {
			if rows[i+1].Addr != rows[i].Addr {
				diff = rows[i+1].Addr - rows[i].Addr
			} else {
				diff = rows[i+1].Clk - rows[i].Clk
			}
		}
		if int(diff) < n {
			counterMult[diff]++
		}
	}
	for i := 0; i < n; i++ {
		out = append(out, bus.Interaction{
			Bus: bus.Range, Chip: c.Name(), Row: i,
			Tuple: []field.Element{c.fromU32(uint32(i))}, Count: c.fromU32(uint32(counterMult[i])), IsSend: false,
		})
	}
	return out
}

// Eval asserts the AIR constraints of spec.md §4.2: is_read/is_write are
// boolean and mutually exclusive, and same-address adjacent rows preserve
// value unless the next row is a write.
func (c *Chip) Eval(b air.Builder) {
	local := b.Local()
	next := b.Next()
	isRead := local[colIsRead]
	isWrite := local[colIsWrite]
	b.AssertBool(isRead)
	b.AssertBool(isWrite)
	b.AssertZero(isRead.Mul(isWrite))

	if len(next) == 0 {
		return
	}
	addrNotEqual := local[colAddrNotEqual]
	b.AssertBool(addrNotEqual)

	sameAddr := b.One().Sub(addrNotEqual)
	nextIsWrite := next[colIsWrite]
	valuePreserved := b.One().Sub(nextIsWrite)
	for i := 0; i < 4; i++ {
		diff := next[colValue0+i].Sub(local[colValue0+i])
		b.AssertZero(b.IsTransition().Mul(sameAddr).Mul(valuePreserved).Mul(diff))
	}

	// counter must enumerate 0..n-1 so its multiplicity column can close the
	// sorting argument (spec.md §4.2), the same step-by-one shape as
	// rangecheck's preprocessed value column.
	counterStep := next[colCounter].Sub(local[colCounter])
	b.AssertZero(b.IsTransition().Mul(counterStep.Sub(b.One())))
}

func (c *Chip) NumCols() int { return numCols }
