package cpu

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"valida/advice"
	"valida/alu"
	"valida/field"
	"valida/isa"
	"valida/memory"
	"valida/output"
	"valida/program"
	"valida/rangecheck"
	"valida/word"
)

func fromU32(v uint32) field.Element { return field.NewM31(uint64(v)) }
func fromI32(v int32) field.Element {
	if v < 0 {
		return field.NewM31(uint64(field.Modulus - uint32(-v)))
	}
	return field.NewM31(uint64(v))
}

// harness bundles a freshly wired Chip with every dependency it drives,
// mirroring how machine.NewDefault will wire the same set in production.
type harness struct {
	cpu     *Chip
	memory  *memory.Chip
	program *program.Chip
	output  *output.Chip
	rng     *rangecheck.Chip
	add     *alu.Add32Chip
	sub     *alu.Sub32Chip
	mul     *alu.MulChip
	compare *alu.CompareChip
	bitwise *alu.BitwiseChip
	shift   *alu.ShiftChip
	native  *alu.NativeChip
}

func newHarness(t *testing.T, src string, initialFP uint32, stdin advice.Provider) *harness {
	t.Helper()
	prog, err := isa.Assemble(src)
	assert.NoError(t, err)

	rng := rangecheck.New(255, field.ZeroM31, field.OneM31, fromU32)
	mem := memory.New(field.ZeroM31, field.OneM31, fromU32)
	prg := program.New(prog, field.ZeroM31, field.OneM31, fromU32, fromI32)
	out := output.New(field.ZeroM31, fromU32)
	bitwiseTable := alu.NewBitwiseTable(field.ZeroM31, field.OneM31, fromU32)
	add := alu.NewAdd32(field.ZeroM31, field.OneM31, fromU32, fromI32)
	sub := alu.NewSub32(field.ZeroM31, field.OneM31, fromU32, fromI32)
	mul := alu.NewMul(field.ZeroM31, field.OneM31, fromU32, fromI32)
	cmp := alu.NewCompare(field.ZeroM31, field.OneM31, fromU32, rng.Record)
	bw := alu.NewBitwise(field.ZeroM31, field.OneM31, fromU32, bitwiseTable)
	sh := alu.NewShift(field.ZeroM31, field.OneM31, fromU32, mul)
	nat := alu.NewNative(field.ZeroM31, field.OneM31, fromU32)

	if stdin == nil {
		stdin = advice.Empty()
	}

	deps := Deps{
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
		Advice:  stdin,
	}

	c := New(prog, initialFP, deps, field.ZeroM31, field.OneM31, fromU32, fromI32)
	return &harness{cpu: c, memory: mem, program: prg, output: out, rng: rng, add: add, sub: sub, mul: mul, compare: cmp, bitwise: bw, shift: sh, native: nat}
}

func TestStepImm32ThenAdd32WritesResult(t *testing.T) {
	h := newHarness(t, `
		imm32 0(fp), 7
		imm32 4(fp), 35
		add 8(fp), 0(fp), 4(fp)
		stop
	`, 1000, nil)

	assert.NoError(t, h.cpu.Run(10))
	assert.True(t, h.cpu.Halted())

	v, err := h.memory.Read(h.cpu.Clock(), 1008, h.cpu.PC(), uint32(isa.ADD32))
	assert.NoError(t, err)
	assert.Equal(t, uint32(42), v.U32())
}

func TestBranchBeqTakenSkipsFallthrough(t *testing.T) {
	h := newHarness(t, `
		imm32 0(fp), 5
		imm32 4(fp), 5
		beq target, 0(fp), 4(fp)
		imm32 8(fp), 111
		target:
		imm32 8(fp), 222
		stop
	`, 2000, nil)

	assert.NoError(t, h.cpu.Run(10))
	v, err := h.memory.Read(h.cpu.Clock(), 2008, h.cpu.PC(), uint32(isa.IMM32))
	assert.NoError(t, err)
	assert.Equal(t, uint32(222), v.U32())
}

func TestJalAndJalvRoundTrip(t *testing.T) {
	h := newHarness(t, `
		jal 0(fp), callee, 100
		stop
		callee:
		imm32 0(fp), 9
		imm32 4(fp), 0
		imm32 8(fp), 0
		jalv 12(fp), 4(fp), 8(fp)
	`, 3000, nil)

	assert.NoError(t, h.cpu.Step())
	assert.Equal(t, uint32(100), h.cpu.FP()-3000)
	assert.Equal(t, uint32(2), h.cpu.PC())

	assert.NoError(t, h.cpu.Step())
	v, err := h.memory.Read(h.cpu.Clock(), 3100, h.cpu.PC(), uint32(isa.IMM32))
	assert.NoError(t, err)
	assert.Equal(t, uint32(9), v.U32())

	assert.NoError(t, h.cpu.Step())
	assert.NoError(t, h.cpu.Step())

	// jalv reads its target pc (4(fp), written 0 above) and fp delta
	// (8(fp), also 0) and jumps there.
	assert.NoError(t, h.cpu.Step())
	assert.Equal(t, uint32(0), h.cpu.PC())
	assert.Equal(t, uint32(3100), h.cpu.FP())
}

func TestReadAdviceAndWrite(t *testing.T) {
	h := newHarness(t, `
		read 0(fp)
		write 0(fp)
		stop
	`, 4000, advice.FromReader(bytes.NewReader([]byte{0x2a})))

	assert.NoError(t, h.cpu.Run(10))
	assert.Equal(t, []byte{0x2a}, wordsToBytes(h.output.Buffer()))
}

func TestStoreThenLoadRoundTrips(t *testing.T) {
	h := newHarness(t, `
		imm32 0(fp), 777
		imm32 4(fp), 64
		sw 4(fp), 0(fp)
		lw 8(fp), 4(fp)
		stop
	`, 5000, nil)

	assert.NoError(t, h.cpu.Run(10))
	v, err := h.memory.Read(h.cpu.Clock(), 5008, h.cpu.PC(), uint32(isa.LOAD32))
	assert.NoError(t, err)
	assert.Equal(t, uint32(777), v.U32())
}

func TestShl32RoutesThroughMulChip(t *testing.T) {
	h := newHarness(t, `
		imm32 0(fp), 3
		imm32 4(fp), 2
		shl 8(fp), 0(fp), 4(fp)
		stop
	`, 6000, nil)

	assert.NoError(t, h.cpu.Run(10))
	v, err := h.memory.Read(h.cpu.Clock(), 6008, h.cpu.PC(), uint32(isa.SHL32))
	assert.NoError(t, err)
	assert.Equal(t, uint32(12), v.U32())
	assert.Len(t, h.mul.GenerateTrace().Values, h.mul.GenerateTrace().NumRows()*h.mul.NumCols())
	assert.True(t, h.mul.GenerateTrace().NumRows() >= 1)
}

func TestUnknownOpcodeErrors(t *testing.T) {
	h := newHarness(t, `stop`, 7000, nil)
	h.cpu.prog.Instructions[0].Opcode = isa.Opcode(999999)
	err := h.cpu.Step()
	assert.ErrorIs(t, err, ErrUnknownOpcode)
}

func TestStepAfterHaltReturnsErrAlreadyHalted(t *testing.T) {
	h := newHarness(t, `stop`, 8000, nil)
	assert.NoError(t, h.cpu.Step())
	assert.ErrorIs(t, h.cpu.Step(), ErrAlreadyHalted)
}

func TestGenerateTracePadsWithStopRows(t *testing.T) {
	h := newHarness(t, `
		imm32 0(fp), 1
		stop
	`, 9000, nil)
	assert.NoError(t, h.cpu.Run(10))
	tr := h.cpu.GenerateTrace()
	assert.True(t, tr.NumRows() >= len(h.cpu.rows))
	assert.Equal(t, 0, tr.NumRows()&(tr.NumRows()-1), "padded row count must be a power of two")
}

func wordsToBytes(ws []word.Word) []byte {
	out := make([]byte, 0, len(ws))
	for _, w := range ws {
		out = append(out, byte(w.U32()))
	}
	return out
}
