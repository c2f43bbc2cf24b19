package state

import "github.com/colewyeth/paqmix/bit"

// MaxRunLength is the saturating ceiling every run-length count in
// BitsRunsTracker is clipped to.
const MaxRunLength = 1000

const runLengthBits = 10 // ceil(log2(MaxRunLength+1))

// BitsRunsTracker packs the most recent bit and the lengths of the last
// three maximal runs into a single 32-bit word: 1 bit for the current
// bit plus three 10-bit saturating counters.
type BitsRunsTracker struct {
	raw uint32
}

const (
	runsShiftLastBit  = 30
	runsShiftLast     = 20
	runsShiftOpposite = 10
	runsShiftPrevious = 0
	runsFieldMask     = (1 << runLengthBits) - 1
)

// NewBitsRunsTracker returns a tracker with no observed history: bit
// Zero, every run length 0.
func NewBitsRunsTracker() BitsRunsTracker { return BitsRunsTracker{} }

func (t BitsRunsTracker) field(shift uint) uint32 { return (t.raw >> shift) & runsFieldMask }

func (t BitsRunsTracker) LastBit() bit.Bit { return bit.FromUint(uint(t.raw >> runsShiftLastBit)) }

// LastBitRunLength is the length of the run currently in progress.
func (t BitsRunsTracker) LastBitRunLength() uint32 { return t.field(runsShiftLast) }

// OppositeBitRunLength is the length of the run immediately before the
// current one (opposite bit).
func (t BitsRunsTracker) OppositeBitRunLength() uint32 { return t.field(runsShiftOpposite) }

// LastBitPreviousRunLength is the length of the run two runs back (same
// bit as the current run).
func (t BitsRunsTracker) LastBitPreviousRunLength() uint32 { return t.field(runsShiftPrevious) }

func clampRun(n uint32) uint32 {
	if n > MaxRunLength {
		return MaxRunLength
	}
	return n
}

// Updated folds in an observed bit, extending the current run or
// rotating the run-length history if the bit changed.
func (t BitsRunsTracker) Updated(b bit.Bit) BitsRunsTracker {
	if b == t.LastBit() {
		newLast := clampRun(t.LastBitRunLength() + 1)
		return pack(b, newLast, t.OppositeBitRunLength(), t.LastBitPreviousRunLength())
	}
	return pack(b, 1, t.LastBitRunLength(), t.OppositeBitRunLength())
}

func pack(b bit.Bit, last, opposite, previous uint32) BitsRunsTracker {
	raw := b.ToU32()<<runsShiftLastBit |
		clampRun(last)<<runsShiftLast |
		clampRun(opposite)<<runsShiftOpposite |
		clampRun(previous)<<runsShiftPrevious
	return BitsRunsTracker{raw: raw}
}
