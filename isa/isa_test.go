package isa

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstructionEncodeDecodeRoundTrip(t *testing.T) {
	want := Instruction{Opcode: ADD32, A: 4, B: -8, C: 12, D: 0, E: 1}
	enc := want.Encode()
	got, err := DecodeInstruction(enc[:])
	assert.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDecodeInstructionShort(t *testing.T) {
	_, err := DecodeInstruction(make([]byte, 10))
	assert.Error(t, err)
}

func TestProgramEncodeDecodeRoundTrip(t *testing.T) {
	want := Program{Instructions: []Instruction{
		{Opcode: IMM32, A: 0, B: 0, C: 1, D: 0x86, E: 0xA1},
		{Opcode: ADD32, A: 4, B: 0, C: 8, E: 0},
		{Opcode: STOP},
	}}
	raw := want.Encode()
	got, err := DecodeProgram(raw)
	assert.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDecodeProgramBadLength(t *testing.T) {
	_, err := DecodeProgram(make([]byte, BytesPerInstr+1))
	assert.Error(t, err)
}

func TestProgramAtBounds(t *testing.T) {
	p := Program{Instructions: []Instruction{{Opcode: STOP}}}
	_, err := p.At(0)
	assert.NoError(t, err)
	_, err = p.At(1)
	assert.Error(t, err)
}

func TestAssembleArithmeticImmediate(t *testing.T) {
	src := `
imm32 0(fp), 75025
add   4(fp), 0(fp), 1
`
	prog, err := Assemble(src)
	assert.NoError(t, err)
	assert.Len(t, prog.Instructions, 2)
	assert.Equal(t, IMM32, prog.Instructions[0].Opcode)
	assert.Equal(t, ADD32, prog.Instructions[1].Opcode)
	assert.Equal(t, int32(1), prog.Instructions[1].E)
	assert.Equal(t, int32(1), prog.Instructions[1].C)
}

func TestAssembleAddiAlias(t *testing.T) {
	prog, err := Assemble("addi 0(fp), 0(fp), 5")
	assert.NoError(t, err)
	assert.Equal(t, ADD32, prog.Instructions[0].Opcode)
	assert.Equal(t, int32(1), prog.Instructions[0].E)
	assert.Equal(t, int32(5), prog.Instructions[0].C)
}

func TestAssembleLabelsAndBranch(t *testing.T) {
	src := `
start:
  imm32 0(fp), 0
  beq done, 0(fp), 0
  add 0(fp), 0(fp), 1
  jal 8(fp), start, 0
done:
  stop
`
	prog, err := Assemble(src)
	assert.NoError(t, err)
	assert.Len(t, prog.Instructions, 5)
	assert.Equal(t, BEQ, prog.Instructions[1].Opcode)
	assert.Equal(t, int32(4*BytesPerInstr), prog.Instructions[1].A)
	assert.Equal(t, JAL, prog.Instructions[3].Opcode)
	assert.Equal(t, int32(0), prog.Instructions[3].B)
	assert.Equal(t, STOP, prog.Instructions[4].Opcode)
}

func TestAssembleUndefinedLabel(t *testing.T) {
	_, err := Assemble("jal 0(fp), nowhere, 0")
	assert.Error(t, err)
}

func TestAssembleDuplicateLabel(t *testing.T) {
	_, err := Assemble("a:\nstop\na:\nstop\n")
	assert.Error(t, err)
}

func TestAssembleUnknownMnemonic(t *testing.T) {
	_, err := Assemble("frobnicate 0(fp)")
	assert.Error(t, err)
}

func TestAssembleWrongOperandCount(t *testing.T) {
	_, err := Assemble("add 0(fp), 1(fp)")
	assert.Error(t, err)
}

func TestDisassembleRoundTrip(t *testing.T) {
	src := "imm32 0(fp), 42\nadd 4(fp), 0(fp), 1\nstop\n"
	prog, err := Assemble(src)
	assert.NoError(t, err)

	dis := prog.Disassemble()
	reparsed, err := Assemble(dis)
	assert.NoError(t, err)
	assert.Equal(t, prog, reparsed)
}

func TestLoadProgramRawStream(t *testing.T) {
	prog := Program{Instructions: []Instruction{{Opcode: STOP}}}
	got, err := LoadProgram(bytes.NewReader(prog.Encode()))
	assert.NoError(t, err)
	assert.Equal(t, prog, got)
}

func TestLoadProgramRejectsTruncatedElf(t *testing.T) {
	_, err := LoadProgram(bytes.NewReader([]byte{0x7F, 'E', 'L', 'F', 0x01}))
	assert.Error(t, err)
}
