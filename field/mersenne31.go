package field

// M31 is the Mersenne31 prime field element (p = 2^31 - 1), the default
// concrete Element implementation used by chip tests and the debug AIR
// builder in this repo. Grounded on original_source/field/src/mersenne_31:
// the upstream project ships its own small prime-field type alongside the
// (externally supplied) PCS/FRI machinery, rather than depend on a field
// crate for this one arithmetic primitive; this repo follows the same
// split. A production build swaps the field.Element implementation the
// PCS collaborator actually uses; M31 exists so every package in this repo
// has something concrete to build traces, interactions, and tests against.
type M31 uint32

// Modulus is 2^31 - 1.
const Modulus uint32 = (1 << 31) - 1

// NewM31 reduces v modulo the Mersenne31 prime.
func NewM31(v uint64) M31 {
	return M31(v % uint64(Modulus))
}

// Zero and One are the additive and multiplicative identities.
var (
	ZeroM31 = M31(0)
	OneM31  = M31(1)
)

func (a M31) Add(b Element) Element {
	return reduce(uint64(a) + uint64(b.(M31)))
}

func (a M31) Sub(b Element) Element {
	bb := uint64(b.(M31))
	aa := uint64(a)
	if aa >= bb {
		return reduce(aa - bb)
	}
	return reduce(uint64(Modulus) - (bb - aa))
}

func (a M31) Mul(b Element) Element {
	return reduce(uint64(a) * uint64(b.(M31)))
}

func (a M31) Neg() Element {
	if a == 0 {
		return a
	}
	return M31(Modulus) - a
}

// Inverse computes a^-1 via Fermat's little theorem: a^(p-2) mod p.
func (a M31) Inverse() (Element, bool) {
	if a == 0 {
		return ZeroM31, false
	}
	result := M31(1)
	base := a
	exp := uint64(Modulus) - 2
	for exp > 0 {
		if exp&1 == 1 {
			result = result.Mul(base).(M31)
		}
		base = base.Mul(base).(M31)
		exp >>= 1
	}
	return result, true
}

func (a M31) IsZero() bool { return a == 0 }

func (a M31) Equal(b Element) bool { return a == b.(M31) }

func (a M31) Uint64() uint64 { return uint64(a) }

func reduce(v uint64) M31 {
	v = (v & uint64(Modulus)) + (v >> 31)
	if v >= uint64(Modulus) {
		v -= uint64(Modulus)
	}
	return M31(v)
}
