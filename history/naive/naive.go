// Package naive implements the reference history source the suffix
// tree is checked against: for every bit it rescans the whole window
// from scratch, so it is O(window x order) per bit but trivially
// correct.
package naive

import (
	"github.com/colewyeth/paqmix/bit"
	"github.com/colewyeth/paqmix/estimators"
	"github.com/colewyeth/paqmix/history"
	"github.com/colewyeth/paqmix/history/state"
)

// Source rescans its whole input on every gather, folding every
// matching prior occurrence's continuation bit into an accumulated
// history, one order at a time, starting from order 0.
type Source struct {
	input    []byte
	cursor   int
	bitIndex uint8
	maxOrder int
}

// New allocates a naive source with room for capacity bytes of input.
func New(capacity int, maxOrder int) *Source {
	return &Source{input: make([]byte, 0, capacity), bitIndex: 0, maxOrder: maxOrder}
}

func getBit(b byte, bitIndex uint8) bit.Bit { return bit.FromUint(uint(b>>(7-bitIndex)) & 1) }

// prefixEqual mirrors compare_for_equal_prefix: do the order complete
// bytes before index a and the order complete bytes before index b
// agree, and do their (order+1)th bytes agree up to bitIndex bits.
func prefixEqual(input []byte, a, b, bitIndex, order int) bool {
	for o := 0; o < order; o++ {
		if input[a+o] != input[b+o] {
			return false
		}
	}
	for i := uint8(0); int(i) < bitIndex; i++ {
		if getBit(input[a+order], i) != getBit(input[b+order], i) {
			return false
		}
	}
	return true
}

func (s *Source) StartNewByte() {
	s.input = append(s.input, 0)
	s.bitIndex = 0
}

func (s *Source) ProcessInputBit(b bit.Bit, _ estimators.CostTrackers) error {
	s.input[s.cursor] |= b.ToU8() << (7 - s.bitIndex)
	if s.bitIndex < 7 {
		s.bitIndex++
	} else {
		s.bitIndex = 0
		s.cursor++
	}
	return nil
}

func (s *Source) GatherStates(bitIndex uint8, out *history.CollectedContextStates) {
	out.Reset()
	for order := 0; order <= s.maxOrder; order++ {
		if s.cursor < order {
			break
		}
		history_ := state.NoHistory
		lastOccurrence := -1
		for scanned := 0; scanned < s.cursor-order; scanned++ {
			if !prefixEqual(s.input, scanned, s.cursor-order, int(bitIndex), order) {
				continue
			}
			lastOccurrence = scanned
			nextBit := getBit(s.input[scanned+order], bitIndex)
			history_ = history_.Updated(nextBit)
		}
		if lastOccurrence < 0 {
			break
		}
		out.Push(history.ContextState{
			Kind:                   history.ForNode,
			LastOccurrenceIndex:    uint32(lastOccurrence),
			HistoryState:           history_,
			ProbabilityEstimator:   estimators.NewDeceleratingEstimator(),
			LastOccurrenceDistance: uint32(s.cursor - order - lastOccurrence),
		})
	}
}
