// Package bus implements the cross-chip interaction layer described in
// spec.md §4.3: chips never call each other directly, they only send and
// receive field-element tuples on one of a small set of global buses, and
// consistency is proved by a logarithmic-derivative (logup) permutation
// argument over those tuples.
//
// This is a direct generalization of the teacher's mem.Bus
// (_examples/hejops-gone/mem/bus.go): there, every component held a pointer
// to one shared Bus and called Read/Write on it. Here, no chip holds a bus:
// each chip's Interactions method returns the tuples it sends and receives,
// and the machine gathers them from every chip and sums each bus with
// CumulativeSum; the "CPU MEM APU CART" wiring diagram in the
// teacher's bus.go is the same shape as this package's bus-identifier
// table, just with more than one bus and field-element tuples instead of
// single bytes.
package bus

import "valida/field"

// ID identifies one of the machine's global buses. Values are fixed by
// spec.md §4.3 and must never be reassigned once chips are wired together.
type ID int

const (
	General ID = iota // general_bus: CPU <-> ALU chips
	Program           // program_bus: CPU <-> program ROM chip
	Memory            // memory_bus: CPU/static-data <-> memory chip
	Range             // range_bus: any chip producing bytes <-> range chip
)

func (id ID) String() string {
	switch id {
	case General:
		return "general_bus"
	case Program:
		return "program_bus"
	case Memory:
		return "memory_bus"
	case Range:
		return "range_bus"
	default:
		return "unknown_bus"
	}
}

// Interaction is one row's contribution to a bus's logup sum: a tuple of
// virtual-column values, a signed multiplicity (count), and which chip
// emitted it (kept for error messages, e.g. BusImbalance diagnostics).
type Interaction struct {
	Bus     ID
	Tuple   []field.Element
	Count   field.Element
	IsSend  bool
	Chip    string
	Row     int
}

// Term evaluates this interaction's logup contribution:
//
//	 count / (gamma - sum_i beta^i * tuple[i])      for a send
//	-count / (gamma - sum_i beta^i * tuple[i])      for a receive
//
// matching spec.md §4.3's cumulative-sum formula. It returns an error if the
// denominator is zero (gamma landed on a root of the tuple's characteristic
// polynomial; the caller should resample challenges).
func (it Interaction) Term(beta, gamma field.Element) (field.Element, error) {
	denom := gamma
	var power field.Element // beta^i for i >= 1
	for i, f := range it.Tuple {
		term := f
		if i > 0 {
			if power == nil {
				power = beta
			} else {
				power = power.Mul(beta)
			}
			term = f.Mul(power)
		}
		denom = denom.Sub(term)
	}
	inv, ok := denom.Inverse()
	if !ok {
		return nil, ErrDegenerateChallenge
	}
	result := it.Count.Mul(inv)
	if !it.IsSend {
		result = result.Neg()
	}
	return result, nil
}

// CumulativeSum sums Term across every interaction tagged with busID,
// returning the running product/sum the machine's verifier compares to
// zero (spec.md §8: "cumulative-sum_{bus_id} = 0").
func CumulativeSum(busID ID, interactions []Interaction, beta, gamma field.Element, zero field.Element) (field.Element, error) {
	sum := zero
	for _, it := range interactions {
		if it.Bus != busID {
			continue
		}
		term, err := it.Term(beta, gamma)
		if err != nil {
			return nil, err
		}
		sum = sum.Add(term)
	}
	return sum, nil
}

// Log is a standalone append-only recorder of interactions; the machine
// does not use it (it collects each chip's Interactions instead). It plays
// the role the teacher's single shared Bus struct played
// for memory reads/writes, generalized to arbitrary tuples on any bus id.
type Log struct {
	entries []Interaction
}

// NewLog returns an empty interaction log.
func NewLog() *Log {
	return &Log{}
}

// Send appends a send interaction.
func (l *Log) Send(busID ID, chip string, row int, tuple []field.Element, count field.Element) {
	l.entries = append(l.entries, Interaction{Bus: busID, Tuple: tuple, Count: count, IsSend: true, Chip: chip, Row: row})
}

// Receive appends a receive interaction.
func (l *Log) Receive(busID ID, chip string, row int, tuple []field.Element, count field.Element) {
	l.entries = append(l.entries, Interaction{Bus: busID, Tuple: tuple, Count: count, IsSend: false, Chip: chip, Row: row})
}

// Entries returns every recorded interaction, in emission order.
func (l *Log) Entries() []Interaction {
	return l.entries
}

// ErrDegenerateChallenge is returned by Term when gamma is a root of the
// tuple's characteristic polynomial under the sampled beta; the caller
// should draw a fresh Fiat-Shamir challenge and retry.
var ErrDegenerateChallenge = degenerateChallengeError{}

type degenerateChallengeError struct{}

func (degenerateChallengeError) Error() string {
	return "bus: degenerate challenge (zero denominator in logup term)"
}
