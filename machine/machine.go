// Package machine implements the driver of spec.md §4.9: it owns every
// chip, runs the fetch-decode-dispatch loop to completion, and orchestrates
// the (externally supplied) STARK backend through the proofsystem seam.
package machine

import (
	"fmt"

	"valida/advice"
	"valida/air"
	"valida/alu"
	"valida/bus"
	"valida/chip"
	"valida/cpu"
	"valida/field"
	"valida/isa"
	"valida/memory"
	"valida/output"
	"valida/program"
	"valida/proofsystem"
	"valida/rangecheck"
	"valida/staticdata"
	"valida/word"
)

func fromU32(v uint32) field.Element { return field.NewM31(uint64(v)) }
func fromI32(v int32) field.Element {
	if v < 0 {
		return field.NewM31(uint64(field.Modulus - uint32(-v)))
	}
	return field.NewM31(uint64(v))
}

// Machine owns every chip and the CPU driving them, wired exactly once at
// construction time (spec.md §9: "Global state ... Avoid process-wide
// mutable state; thread the machine object explicitly").
type Machine struct {
	cfg RunConfig

	memory       *memory.Chip
	rangeChip    *rangecheck.Chip
	program      *program.Chip
	staticData   *staticdata.Chip
	output       *output.Chip
	add          *alu.Add32Chip
	sub          *alu.Sub32Chip
	mul          *alu.MulChip
	compare      *alu.CompareChip
	bitwiseTable *alu.BitwiseTableChip
	bitwise      *alu.BitwiseChip
	shift        *alu.ShiftChip
	native       *alu.NativeChip
	cpu          *cpu.Chip

	zero, one field.Element
}

// NewDefault wires every chip this machine ships with (spec.md §2's
// component table, minus the stubbed Mul64/Poseidon2 chips no opcode
// drives — see alu/stubs.go) and positions the CPU at pc = 0 with the
// given program and configuration.
func NewDefault(prog isa.Program, cfg RunConfig, adviceSource advice.Provider) *Machine {
	zero, one := field.ZeroM31, field.OneM31

	rng := rangecheck.New(rangecheck.DefaultMax, zero, one, fromU32)
	mem := memory.New(zero, one, fromU32)
	prg := program.New(prog, zero, one, fromU32, fromI32)
	sd := staticdata.New(zero, one, fromU32)
	out := output.New(zero, fromU32)
	bwTable := alu.NewBitwiseTable(zero, one, fromU32)
	add := alu.NewAdd32(zero, one, fromU32, fromI32)
	sub := alu.NewSub32(zero, one, fromU32, fromI32)
	mul := alu.NewMul(zero, one, fromU32, fromI32)
	cmp := alu.NewCompare(zero, one, fromU32, rng.Record)
	bw := alu.NewBitwise(zero, one, fromU32, bwTable)
	sh := alu.NewShift(zero, one, fromU32, mul)
	nat := alu.NewNative(zero, one, fromU32)

	if adviceSource == nil {
		adviceSource = advice.Empty()
	}

	deps := cpu.Deps{
		Memory:  mem,
		Program: prg,
		Output:  out,
		Range:   rng,
		Add:     add,
		Sub:     sub,
		Mul:     mul,
		Compare: cmp,
		Bitwise: bw,
		Shift:   sh,
		Native:  nat,
		Advice:  adviceSource,
	}
	c := cpu.New(prog, cfg.InitialFP, deps, zero, one, fromU32, fromI32)

	return &Machine{
		cfg:          cfg,
		memory:       mem,
		rangeChip:    rng,
		program:      prg,
		staticData:   sd,
		output:       out,
		add:          add,
		sub:          sub,
		mul:          mul,
		compare:      cmp,
		bitwiseTable: bwTable,
		bitwise:      bw,
		shift:        sh,
		native:       nat,
		cpu:          c,
		zero:         zero,
		one:          one,
	}
}

// LoadStatic installs one cell of the initial memory image, writing it
// directly into the memory chip and recording it on the static-data chip
// so both produce matching rows at clk = 0 (spec.md §4.8).
func (m *Machine) LoadStatic(addr uint32, value word.Word) {
	m.memory.LoadStatic(addr, value)
	m.staticData.Load(addr, value)
}

// CPU exposes the underlying chip, for CLI tooling (the debugger, trace
// printing) that needs direct access beyond Run's return value.
func (m *Machine) CPU() *cpu.Chip       { return m.cpu }
func (m *Machine) Memory() *memory.Chip { return m.memory }
func (m *Machine) Output() *output.Chip { return m.output }

// Run steps the CPU to completion (spec.md §4.9's driver loop), bounded by
// the configured MaxCycles.
func (m *Machine) Run() error {
	max := m.cfg.MaxCycles
	if max <= 0 {
		max = DefaultMaxCycles
	}
	return m.cpu.Run(max)
}

// chips lists every chip in a fixed order, used both for trace generation
// and for gathering bus interactions. The order only affects proof byte
// layout, never soundness.
func (m *Machine) chips() []chip.Chip {
	return []chip.Chip{
		m.memory,
		m.rangeChip,
		m.program,
		m.staticData,
		m.output,
		m.add,
		m.sub,
		m.mul,
		m.compare,
		m.bitwiseTable,
		m.bitwise,
		m.shift,
		m.native,
		m.cpu,
	}
}

func (m *Machine) allInteractions() []bus.Interaction {
	var out []bus.Interaction
	for _, c := range m.chips() {
		out = append(out, c.Interactions()...)
	}
	return out
}

// CheckConstraints evaluates every chip's AIR against its own witnessed
// trace, row by row, with a DebugBuilder (spec.md §8: "∀ traces produced
// by any valid program execution: every AIR constraint vanishes on every
// row"). It returns the first *air.ConstraintViolation found, or nil.
func (m *Machine) CheckConstraints() error {
	for _, c := range m.chips() {
		tr := c.GenerateTrace()
		n := tr.NumRows()
		for i := 0; i < n; i++ {
			var next []field.Element
			if i+1 < n {
				next = tr.Row(i + 1)
			}
			b := air.NewDebugBuilder(c.Name(), i, n, nil, tr.Row(i), next, m.zero, m.one)
			c.Eval(b)
			if v := b.Violation(); v != nil {
				return v
			}
		}
	}
	return nil
}

// allBuses is the fixed set of bus identifiers every cumulative-sum check
// walks (spec.md §8).
var allBuses = []bus.ID{bus.General, bus.Program, bus.Memory, bus.Range}

// CheckBusBalance computes the cumulative logup sum for every bus under
// the given Fiat-Shamir challenges and reports the first one that fails to
// vanish (spec.md §8: "∀ bus_id ...: cumulative-sum = 0").
func (m *Machine) CheckBusBalance(beta, gamma field.Element) error {
	interactions := m.allInteractions()
	for _, id := range allBuses {
		sum, err := bus.CumulativeSum(id, interactions, beta, gamma, m.zero)
		if err != nil {
			return err
		}
		if !sum.IsZero() {
			return &BusImbalanceError{Bus: id}
		}
	}
	return nil
}

// mainMatrices renders every chip's trace as a proofsystem.Matrix, in the
// same fixed chip order chips returns.
func (m *Machine) mainMatrices() []proofsystem.Matrix {
	chips := m.chips()
	out := make([]proofsystem.Matrix, len(chips))
	for i, c := range chips {
		tr := c.GenerateTrace()
		out[i] = proofsystem.Matrix{Values: tr.Values, NumCols: tr.NumCols}
	}
	return out
}

// Proof is the opaque record Prove produces and Verify consumes (spec.md
// §6: "length-prefixed records: per-chip main commitment, permutation
// commitment, quotient commitment, opening values, FRI proof. Exact byte
// layout is determined by the PCS collaborator.") Since the PCS and FRI
// implementations are external collaborators this package never
// implements (see proofsystem package doc), Proof holds only what this
// package itself produces: the main-trace commitment and its opening at
// zeta. A real backend would additionally carry permutation and quotient
// commitments and an embedded FRI proof; those live entirely inside the
// PCS implementation's own Commitment/OpeningProof values here.
type Proof struct {
	MainCommitment proofsystem.Commitment
	Zeta           field.Element
	OpenedValues   []field.Element
	Opening        proofsystem.OpeningProof
}

// Prove runs the proving pipeline of spec.md §4.9 steps 1-3 (this
// package's responsibility) and hands steps 4-6 (quotient, FRI) to the
// injected PCS/Challenger, which this package treats as opaque. Because
// Prove has direct access to the witnessed trace, it checks bus balance
// itself before ever calling into the PCS — an honest prover never wants
// to spend a real commitment on an unbalanced trace, so this is a
// short-circuit, not a substitute for Verify's own checking.
func (m *Machine) Prove(pcs proofsystem.PCS, ch proofsystem.Challenger) (*Proof, error) {
	matrices := m.mainMatrices()
	commitment, err := pcs.Commit(matrices)
	if err != nil {
		return nil, fmt.Errorf("machine: commit main traces: %w", err)
	}
	ch.ObserveCommitment(commitment)

	beta := ch.Sample()
	gamma := ch.Sample()
	if err := m.CheckBusBalance(beta, gamma); err != nil {
		return nil, err
	}

	// alpha aggregates AIR + permutation constraints into one quotient
	// polynomial in a real backend; this package draws it to keep the
	// transcript shape faithful to spec.md §4.9 step 4, even though the
	// quotient itself is computed entirely inside the PCS collaborator.
	_ = ch.Sample() // alpha
	zeta := ch.Sample()

	opening, values, err := pcs.Open(commitment, zeta)
	if err != nil {
		return nil, fmt.Errorf("machine: open at zeta: %w", err)
	}

	return &Proof{
		MainCommitment: commitment,
		Zeta:           zeta,
		OpenedValues:   values,
		Opening:        opening,
	}, nil
}

// Verify replays the same Fiat-Shamir transcript Prove drew from and
// delegates the opening check to the PCS (spec.md §4.9: "Verification
// reverses these steps and additionally checks that the per-bus
// cumulative sums across chips total zero."). The verifier, unlike the
// prover, has no witnessed trace to sum directly; in a complete backend
// the permutation-column openings folded into OpenedValues carry that
// information and VerifyOpening's polynomial identity check is what
// actually enforces bus balance. This package cannot model that identity
// without a real PCS, so it documents the gap here rather than pretending
// to recompute a sum it has no trace to compute from.
func (m *Machine) Verify(proof *Proof, pcs proofsystem.PCS, ch proofsystem.Challenger) error {
	if proof == nil {
		return &VerificationError{Err: &InvalidShapeError{Reason: "nil proof"}}
	}
	ch.ObserveCommitment(proof.MainCommitment)
	_ = ch.Sample() // beta
	_ = ch.Sample() // gamma
	_ = ch.Sample() // alpha
	zeta := ch.Sample()
	if !zeta.Equal(proof.Zeta) {
		return &VerificationError{Err: &InvalidShapeError{Reason: "transcript diverged before opening point"}}
	}

	if err := pcs.VerifyOpening(proof.MainCommitment, proof.Zeta, proof.OpenedValues, proof.Opening); err != nil {
		return &VerificationError{Err: &OpeningMismatchError{}}
	}
	return nil
}
