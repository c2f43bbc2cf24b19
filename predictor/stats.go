package predictor

import (
	"fmt"
	"io"

	"github.com/colewyeth/paqmix/bit"
	"github.com/colewyeth/paqmix/coding"
	"github.com/colewyeth/paqmix/fixedpoint"
	"github.com/colewyeth/paqmix/util"
)

const statsOrderBuckets = 5
const statsSymbolBuckets = 256

// PredictionStatistics accumulates simple coding-cost diagnostics across
// a run: how many contexts fed each bit, how many bits each symbol cost,
// and a breakdown by active-context count, for reporting after a run
// finishes rather than anything the coder itself consults.
type PredictionStatistics struct {
	log2 *coding.Log2Estimator

	totalBytes         uint64
	totalContextsCount uint64
	totalCost          fixedpoint.Log2Q

	perOrderCounts [statsOrderBuckets * statsOrderBuckets]uint64
	perOrderCosts  [statsOrderBuckets * statsOrderBuckets]fixedpoint.Log2Q

	perSymbolCounts [statsSymbolBuckets]uint64
	perSymbolCosts  [statsSymbolBuckets]fixedpoint.Log2Q

	currentByteCost fixedpoint.Log2Q
}

// NewPredictionStatistics builds an empty tracker.
func NewPredictionStatistics(log2 *coding.Log2Estimator) *PredictionStatistics {
	return &PredictionStatistics{log2: log2}
}

func statsOrderIndex(maxOrder, unaryOrders int) int {
	if maxOrder < 0 {
		maxOrder = 0
	}
	if maxOrder > statsOrderBuckets-1 {
		maxOrder = statsOrderBuckets - 1
	}
	if unaryOrders > statsOrderBuckets-1 {
		unaryOrders = statsOrderBuckets - 1
	}
	return maxOrder*statsOrderBuckets + unaryOrders
}

// StartNewByte rolls the just-finished byte's accumulated cost into that
// byte's symbol bucket, keyed by the byte lastBytes just completed.
func (s *PredictionStatistics) StartNewByte(lastBytes *util.LastBytesCache) {
	if s.totalBytes > 0 {
		symbol := lastBytes.PreviousByte1()
		s.perSymbolCounts[symbol]++
		s.perSymbolCosts[symbol] = s.perSymbolCosts[symbol].Add(s.currentByteCost)
	}
	s.totalBytes++
	s.currentByteCost = fixedpoint.Log2Q{}
}

// OnNextBit records one bit's coding cost against the final probability
// the predictor emitted, broken down by how many contexts fed it and how
// many of those contexts were still unsplit edges.
func (s *PredictionStatistics) OnNextBit(b bit.Bit, maxOrder, unaryOrders int, final coding.FinalProbability) {
	cost := final.EstimateCost(s.log2, b.IsOne())
	s.totalContextsCount += uint64(maxOrder + 1)
	s.totalCost = s.totalCost.AddD(cost)
	s.currentByteCost = s.currentByteCost.AddD(cost)

	idx := statsOrderIndex(maxOrder, unaryOrders)
	s.perOrderCounts[idx]++
	s.perOrderCosts[idx] = s.perOrderCosts[idx].AddD(cost)
}

// TotalCost reports the cumulative coding cost in bits across every bit
// seen so far.
func (s *PredictionStatistics) TotalCost() fixedpoint.Log2Q { return s.totalCost }

// AverageContextLength reports the mean number of active contexts fed to
// the predictor per bit.
func (s *PredictionStatistics) AverageContextLength() float64 {
	if s.totalContextsCount == 0 {
		return 0
	}
	var bits uint64
	for i := range s.perOrderCounts {
		bits += s.perOrderCounts[i]
	}
	if bits == 0 {
		return 0
	}
	return float64(s.totalContextsCount) / float64(bits)
}

// PrintTotalCost writes the cumulative cost in bits and bytes.
func (s *PredictionStatistics) PrintTotalCost(w io.Writer) {
	fmt.Fprintf(w, "total cost: %.2f bits (%.2f bytes) over %d bytes\n",
		s.totalCost.AsFloat64(), s.totalCost.AsFloat64()/8, s.totalBytes)
}

// PrintCostsAndOccurrencesPerContextType writes, per (max order, unary
// orders) bucket, how many bits fell there and their average cost.
func (s *PredictionStatistics) PrintCostsAndOccurrencesPerContextType(w io.Writer) {
	for order := 0; order < statsOrderBuckets; order++ {
		for unary := 0; unary < statsOrderBuckets; unary++ {
			idx := order*statsOrderBuckets + unary
			count := s.perOrderCounts[idx]
			if count == 0 {
				continue
			}
			avg := s.perOrderCosts[idx].AsFloat64() / float64(count)
			fmt.Fprintf(w, "order=%d unary=%d: %d bits, avg cost %.4f\n", order, unary, count, avg)
		}
	}
}

// PrintCostsAndOccurrencesPerSymbolValue writes, per byte value, how many
// times it occurred and its average coding cost.
func (s *PredictionStatistics) PrintCostsAndOccurrencesPerSymbolValue(w io.Writer) {
	for symbol := 0; symbol < statsSymbolBuckets; symbol++ {
		count := s.perSymbolCounts[symbol]
		if count == 0 {
			continue
		}
		avg := s.perSymbolCosts[symbol].AsFloat64() / float64(count)
		fmt.Fprintf(w, "byte=0x%02x: %d occurrences, avg cost %.4f\n", symbol, count, avg)
	}
}
