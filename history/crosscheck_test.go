package history_test

import (
	"testing"

	"github.com/colewyeth/paqmix/bit"
	"github.com/colewyeth/paqmix/estimators"
	"github.com/colewyeth/paqmix/history"
	"github.com/colewyeth/paqmix/history/fatmap"
	"github.com/colewyeth/paqmix/history/naive"
	"github.com/colewyeth/paqmix/history/state"
	"github.com/colewyeth/paqmix/history/tree"
	"github.com/colewyeth/paqmix/lut"
)

// fibonacciWord builds the Fibonacci word over {'a','b'} (S(0)="b",
// S(1)="a", S(n)=S(n-1)+S(n-2)) out to at least n bytes.
func fibonacciWord(n int) []byte {
	a := []byte("b")
	b := []byte("a")
	for len(b) < n {
		a, b = b, append(append([]byte{}, b...), a...)
	}
	return b[:n]
}

// feedSource drives a history.HistorySource byte by byte, bit by bit,
// recording the ContextState sequence GatherStates reports immediately
// before each bit is processed.
func feedSource(src history.HistorySource, input []byte, maxOrder int) [][]history.ContextState {
	var out history.CollectedContextStates
	var all [][]history.ContextState
	for _, by := range input {
		src.StartNewByte()
		for bi := uint8(0); bi < 8; bi++ {
			src.GatherStates(bi, &out)
			snapshot := make([]history.ContextState, out.Len())
			copy(snapshot, out.All())
			all = append(all, snapshot)

			b := bit.FromUint(uint(by>>(7-bi)) & 1)
			if err := src.ProcessInputBit(b, estimators.CostTrackers{}); err != nil {
				panic(err)
			}
		}
	}
	return all
}

// canonicalHistory reduces a ContextState to the one value every source
// must agree on: the accumulated bit history for this context, whether
// it came from a materialised node's trained HistoryState or is
// synthesised from an as-yet-unsplit edge's repeated-bit run. Naive and
// fat-map always report ForNode (they have no notion of a partially
// split context), while the tree reports ForEdge until a node actually
// materialises; MakeBitRunHistory is exactly what the tree would have
// produced had it eagerly materialised that edge as a node, so the two
// representations are comparable once reduced this way.
func canonicalHistory(s history.ContextState) state.BitHistory {
	if s.IsForNode() {
		return s.HistoryState
	}
	return history.MakeBitRunHistory(s.OccurrenceCount, s.RepeatedBit)
}

// contentEqual compares what every source has learned about a context
// from the bits seen so far. LastOccurrenceIndex/LastOccurrenceDistance
// are deliberately excluded: naive always anchors to the most recent
// occurrence of a context, while the tree anchors to whichever
// occurrence first materialised its node and never moves it, so the two
// are not expected to agree on index, only on content.
func contentEqual(a, b history.ContextState) bool {
	return canonicalHistory(a) == canonicalHistory(b)
}

func TestNaiveFatmapTreeAgreeOnFibonacciWord(t *testing.T) {
	const wordLen = 320
	word := fibonacciWord(wordLen)

	for _, maxOrder := range []int{0, 1, 3, 20, 63} {
		tables := lut.New()
		naiveSrc := naive.New(wordLen, maxOrder)
		fatmapSrc := fatmap.New(wordLen, maxOrder)
		treeSrc := tree.New(uint32(wordLen+8), maxOrder, tables)

		naiveStates := feedSource(naiveSrc, word, maxOrder)
		fatmapStates := feedSource(fatmapSrc, word, maxOrder)
		treeStates := feedSource(treeSrc, word, maxOrder)

		if len(naiveStates) != len(fatmapStates) || len(naiveStates) != len(treeStates) {
			t.Fatalf("maxOrder=%d: bit counts differ: naive=%d fatmap=%d tree=%d",
				maxOrder, len(naiveStates), len(fatmapStates), len(treeStates))
		}

		// Every source walks orders 0..maxOrder in the same ascending
		// sequence and pushes an entry only when that order currently
		// carries information, so same-position entries across the three
		// sources' outputs describe the same order and can be compared
		// directly.
		for i := range naiveStates {
			ns, fs, ts := naiveStates[i], fatmapStates[i], treeStates[i]
			if len(ns) != len(fs) || len(ns) != len(ts) {
				t.Fatalf("maxOrder=%d bit %d: active-context counts differ: naive=%d fatmap=%d tree=%d",
					maxOrder, i, len(ns), len(fs), len(ts))
			}
			for j := range ns {
				if !contentEqual(ns[j], fs[j]) {
					t.Fatalf("maxOrder=%d bit %d order-slot %d: naive/fatmap disagree: %+v vs %+v", maxOrder, i, j, ns[j], fs[j])
				}
				if !contentEqual(ns[j], ts[j]) {
					t.Fatalf("maxOrder=%d bit %d order-slot %d: naive/tree disagree: %+v vs %+v", maxOrder, i, j, ns[j], ts[j])
				}
			}
		}
	}
}
