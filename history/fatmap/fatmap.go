// Package fatmap implements the other reference history source: one
// hash map per (order, bit_index) pair, bucketed by a hash of the
// matching context bytes, with an explicit equality check on each
// bucket to resolve collisions. Faster than naive for deep orders,
// still not sharing structure the way the suffix tree does.
package fatmap

import (
	"github.com/colewyeth/paqmix/bit"
	"github.com/colewyeth/paqmix/estimators"
	"github.com/colewyeth/paqmix/history"
	"github.com/colewyeth/paqmix/history/state"
	"github.com/colewyeth/paqmix/util"
)

type localContextState struct {
	byteIndex int
	history   state.BitHistory
}

// Source is the fat-map history source: input bytes plus max_order+1
// * 8 independent hash maps, one per (order, bit index) pair.
type Source struct {
	input    []byte
	cursor   int
	bitIndex uint8
	maxOrder int
	maps     []map[uint64][]localContextState
}

// New allocates a fat-map source with room for capacity bytes of input.
func New(capacity int, maxOrder int) *Source {
	maps := make([]map[uint64][]localContextState, (maxOrder+1)*8)
	for i := range maps {
		maps[i] = make(map[uint64][]localContextState)
	}
	return &Source{input: make([]byte, 0, capacity), maxOrder: maxOrder, maps: maps}
}

func getBit(b byte, bitIndex uint8) bit.Bit { return bit.FromUint(uint(b>>(7-bitIndex)) & 1) }

func prefixEqual(input []byte, a, b int, bitIndex uint8, order int) bool {
	for o := 0; o < order; o++ {
		if input[a+o] != input[b+o] {
			return false
		}
	}
	for i := uint8(0); i < bitIndex; i++ {
		if getBit(input[a+order], i) != getBit(input[b+order], i) {
			return false
		}
	}
	return true
}

func (s *Source) computeHash(order int) uint64 {
	return s.computeHashAt(order, s.bitIndex)
}

func (s *Source) StartNewByte() {
	s.input = append(s.input, 0)
	s.bitIndex = 0
}

func (s *Source) ProcessInputBit(b bit.Bit, _ estimators.CostTrackers) error {
	maxOrder := s.maxOrder
	if s.cursor < maxOrder {
		maxOrder = s.cursor
	}
	for order := 0; order <= maxOrder; order++ {
		hash := s.computeHash(order)
		mapIdx := order*8 + int(s.bitIndex)
		bucket := s.maps[mapIdx][hash]
		byteIndex := s.cursor - order
		found := false
		for i := range bucket {
			if prefixEqual(s.input, byteIndex, bucket[i].byteIndex, s.bitIndex, order) {
				bucket[i].history = bucket[i].history.Updated(b)
				found = true
				break
			}
		}
		if !found {
			bucket = append(bucket, localContextState{byteIndex: byteIndex, history: state.NoHistory.Updated(b)})
		}
		s.maps[mapIdx][hash] = bucket
	}

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
	maxOrder := s.maxOrder
	if s.cursor < maxOrder {
		maxOrder = s.cursor
	}
	for order := 0; order <= maxOrder; order++ {
		hash := s.computeHashAt(order, bitIndex)
		mapIdx := order*8 + int(bitIndex)
		bucket := s.maps[mapIdx][hash]
		found := false
		for _, item := range bucket {
			if prefixEqual(s.input, s.cursor-order, item.byteIndex, bitIndex, order) {
				out.Push(history.ContextState{
					Kind:                   history.ForNode,
					LastOccurrenceIndex:    uint32(item.byteIndex),
					HistoryState:           item.history,
					ProbabilityEstimator:   estimators.NewDeceleratingEstimator(),
					LastOccurrenceDistance: uint32(s.cursor - order - item.byteIndex),
				})
				found = true
				break
			}
		}
		if !found {
			break
		}
	}
}

func (s *Source) computeHashAt(order int, bitIndex uint8) uint64 {
	h := util.NewFnv1A()
	start := s.cursor - order
	h = h.WriteBytes(s.input[start:s.cursor])
	partial := (256 + uint32(s.input[s.cursor])) >> (uint(bitIndex) + 1)
	h = h.WriteBytes([]byte{byte(partial), byte(partial >> 8), byte(partial >> 16), byte(partial >> 24)})
	return h.IntoU64()
}
