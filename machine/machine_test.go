package machine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valida/bus"
	"valida/field"
	"valida/isa"
	"valida/memory"
	"valida/proofsystem"
	"valida/word"
)

func assemble(t *testing.T, src string) isa.Program {
	t.Helper()
	prog, err := isa.Assemble(src)
	require.NoError(t, err)
	return prog
}

// fibonacci25 computes F(25) = 75025 iteratively, leaving the result at
// fp + 4 (spec.md §8 scenario 1).
const fibonacci25 = `
imm32 0(fp), 0
imm32 4(fp), 1
imm32 8(fp), 24
loop:
add 12(fp), 0(fp), 4(fp)
add 0(fp), 4(fp), 0
add 4(fp), 12(fp), 0
subi 8(fp), 8(fp), 1
bne loop, 8(fp), 0
stop
`

func TestRunFibonacci25WritesExpectedWord(t *testing.T) {
	prog := assemble(t, fibonacci25)
	m := NewDefault(prog, DefaultRunConfig(), nil)

	require.NoError(t, m.Run())

	assert.True(t, m.CPU().Halted())
	assert.Equal(t, fmt.Sprintf("%d", 75025), m.Memory().Examine(m.cfg.InitialFP+4))
}

// staticRead initializes mem[0x10] = 0x25 via LoadStatic and only branches
// past the fallback stop if the loaded value equals 0x25 (spec.md §8
// scenario 2).
const staticRead = `
imm32 0(fp), 16
lw 4(fp), 0(fp)
beq done, 4(fp), 37
stop
done:
stop
`

func TestRunStaticDataReadBranchesOnFirstTry(t *testing.T) {
	prog := assemble(t, staticRead)
	m := NewDefault(prog, DefaultRunConfig(), nil)
	m.LoadStatic(0x10, word.FromU32(0x25))

	require.NoError(t, m.Run())

	// Reaching "done" skips the fallback stop at pc 3, so exactly four
	// instructions (imm32, lw, beq, stop) ever execute.
	assert.Equal(t, 4, m.CPU().NumRows())
}

// writeOutput writes the word 42 to the output buffer (spec.md §8 scenario 3).
const writeOutput = `
imm32 0(fp), 42
write 0(fp)
stop
`

func TestRunWriteOutputProducesBigEndianBytes(t *testing.T) {
	prog := assemble(t, writeOutput)
	m := NewDefault(prog, DefaultRunConfig(), nil)

	require.NoError(t, m.Run())

	buf := m.Output().Buffer()
	require.Len(t, buf, 1)
	assert.Equal(t, [4]byte{0, 0, 0, 42}, [4]byte{buf[0].Byte(0), buf[0].Byte(1), buf[0].Byte(2), buf[0].Byte(3)})
}

// addWrap exercises add32's 2^32 wraparound (spec.md §8 scenario 6).
const addWrap = `
imm32 0(fp), -1
imm32 4(fp), 1
add 8(fp), 0(fp), 4(fp)
stop
`

func TestRunAddWrapConstraintsVanish(t *testing.T) {
	prog := assemble(t, addWrap)
	m := NewDefault(prog, DefaultRunConfig(), nil)

	require.NoError(t, m.Run())

	assert.Equal(t, fmt.Sprintf("%d", 0), m.Memory().Examine(m.cfg.InitialFP+8))
	assert.NoError(t, m.CheckConstraints())
}

// readBeforeWrite loads through a pointer cell that was never written
// (spec.md §8 scenario 5).
const readBeforeWrite = `
lw 0(fp), 4(fp)
stop
`

func TestRunReadBeforeWriteAborts(t *testing.T) {
	prog := assemble(t, readBeforeWrite)
	m := NewDefault(prog, DefaultRunConfig(), nil)

	err := m.Run()
	require.Error(t, err)
	var rbw *memory.ReadBeforeWriteError
	assert.True(t, errors.As(err, &rbw))
}

// TestCheckBusBalanceDetectsDroppedInteraction mirrors spec.md §8 scenario
// 4: dropping one add32 send from the general bus leaves its cumulative
// sum non-zero, even though every individual AIR constraint still holds.
func TestCheckBusBalanceDetectsDroppedInteraction(t *testing.T) {
	prog := assemble(t, `
imm32 0(fp), 2
imm32 4(fp), 3
add 8(fp), 0(fp), 4(fp)
stop
`)
	m := NewDefault(prog, DefaultRunConfig(), nil)
	require.NoError(t, m.Run())

	beta := field.NewM31(12345)
	gamma := field.NewM31(67890)

	require.NoError(t, m.CheckBusBalance(beta, gamma))

	interactions := m.allInteractions()
	mutated := make([]bus.Interaction, 0, len(interactions))
	dropped := false
	for _, in := range interactions {
		if !dropped && in.Bus == bus.General && in.IsSend && in.Chip == "cpu" {
			dropped = true
			continue
		}
		mutated = append(mutated, in)
	}
	require.True(t, dropped, "expected at least one general-bus send from cpu")

	sum, err := bus.CumulativeSum(bus.General, mutated, beta, gamma, m.zero)
	require.NoError(t, err)
	assert.False(t, sum.IsZero())
}

// fakeCommitment is the only Commitment a fakePCS ever produces: the
// matrices it was given, held verbatim so Open/VerifyOpening can inspect
// them without a real polynomial commitment underneath.
type fakeCommitment struct {
	matrices []proofsystem.Matrix
}

// fakePCS is a minimal stand-in for the polynomial commitment scheme this
// package never implements (see proofsystem's package doc): Commit just
// retains the matrices, Open returns the first row of the first matrix,
// and VerifyOpening always accepts, since this fake does not model a real
// evaluation proof.
type fakePCS struct{}

func (fakePCS) Commit(matrices []proofsystem.Matrix) (proofsystem.Commitment, error) {
	return &fakeCommitment{matrices: matrices}, nil
}

func (fakePCS) Open(commitment proofsystem.Commitment, point field.Element) (proofsystem.OpeningProof, []field.Element, error) {
	c := commitment.(*fakeCommitment)
	var values []field.Element
	if len(c.matrices) > 0 && c.matrices[0].NumCols > 0 {
		values = append(values, c.matrices[0].Values[:c.matrices[0].NumCols]...)
	}
	return struct{}{}, values, nil
}

func (fakePCS) VerifyOpening(commitment proofsystem.Commitment, point field.Element, values []field.Element, proof proofsystem.OpeningProof) error {
	return nil
}

// fakeChallenger draws a deterministic, counter-based sequence of field
// elements. It does not fold observed data into its samples the way a real
// Fiat-Shamir transcript would; it exists only to exercise Prove/Verify's
// transcript ordering.
type fakeChallenger struct{ n uint64 }

func (f *fakeChallenger) Observe(elems ...field.Element)             {}
func (f *fakeChallenger) ObserveCommitment(c proofsystem.Commitment) {}
func (f *fakeChallenger) Sample() field.Element {
	f.n++
	return field.NewM31(f.n*1_000_003 + 1)
}

func TestProveThenVerifyRoundTrips(t *testing.T) {
	prog := assemble(t, fibonacci25)
	m := NewDefault(prog, DefaultRunConfig(), nil)
	require.NoError(t, m.Run())

	proof, err := m.Prove(fakePCS{}, &fakeChallenger{})
	require.NoError(t, err)

	err = m.Verify(proof, fakePCS{}, &fakeChallenger{})
	assert.NoError(t, err)
}

func TestVerifyRejectsNilProof(t *testing.T) {
	prog := assemble(t, fibonacci25)
	m := NewDefault(prog, DefaultRunConfig(), nil)
	require.NoError(t, m.Run())

	err := m.Verify(nil, fakePCS{}, &fakeChallenger{})
	require.Error(t, err)
	var ve *VerificationError
	assert.True(t, errors.As(err, &ve))
}
