package lut

import (
	"math/bits"

	"github.com/colewyeth/paqmix/fixedpoint"
)

// ApmWeightingLut precomputes, for every interval between two consecutive
// APM interval stops, a shift and a fractional correction factor so the
// APM can interpolate within the straddling interval using only a shift
// and a narrow multiply instead of a division.
type ApmWeightingLut struct {
	squashedIntervalStops []uint32
	shiftByInterval       []uint8
	extraFactorByInterval []uint32 // Q16 fraction, i.e. raw/2^16 is added to 1 after the shift
}

// extraFactorFractionalBits is the fixed-point scale of extraFactorByInterval.
const extraFactorFractionalBits = 16

// NewApmWeightingLut builds the table for an APM indexing its input with
// stretchedScaleDownBits fewer bits than the full StretchedProbD
// resolution (0 or 1 in practice, matching the finalizer's order-0 vs
// order-1+ APMs).
func NewApmWeightingLut(stretchedScaleDownBits uint8, squash *SquashLut) *ApmWeightingLut {
	stopsCount := fixedpoint.IntervalStopsCount(stretchedScaleDownBits)
	intervalsCount := fixedpoint.IntervalsCount(stretchedScaleDownBits)
	offset := stopsCount / 2
	rawShift := fixedpoint.StretchedProbDFractionalBits - stretchedScaleDownBits

	l := &ApmWeightingLut{
		squashedIntervalStops: make([]uint32, stopsCount),
		shiftByInterval:       make([]uint8, intervalsCount),
		extraFactorByInterval: make([]uint32, intervalsCount),
	}
	for i := 0; i < stopsCount; i++ {
		raw := int32(i-offset) << rawShift
		s := fixedpoint.NewStretchedProbD(raw, fixedpoint.StretchedProbDFractionalBits)
		p := squash.Squash(s)
		l.squashedIntervalStops[i] = p.Raw()
	}
	for i := 0; i < intervalsCount; i++ {
		length := l.squashedIntervalStops[i+1] - l.squashedIntervalStops[i]
		if length == 0 {
			length = 1
		}
		shift := uint8(bits.LeadingZeros32(length)) - 1
		// extraFactor corrects for rounding 2^31/length down to the power
		// of two 2^shift: (2^(31-shift) << 16) / length - (1 << 16).
		extra := (uint64(1)<<(31-shift+extraFactorFractionalBits))/uint64(length) - (1 << extraFactorFractionalBits)
		l.shiftByInterval[i] = shift
		l.extraFactorByInterval[i] = uint32(extra)
	}
	// The table is symmetric around its middle interval since squash is
	// an odd function composed with an even spacing of stops.
	return l
}

func (l *ApmWeightingLut) IntervalStop(index int) uint32 { return l.squashedIntervalStops[index] }

func (l *ApmWeightingLut) Shift(intervalIndex int) uint8 { return l.shiftByInterval[intervalIndex] }

func (l *ApmWeightingLut) ExtraFactor(intervalIndex int) uint32 {
	return l.extraFactorByInterval[intervalIndex]
}

// IntervalsCount returns the number of intervals this table covers.
func (l *ApmWeightingLut) IntervalsCount() int { return len(l.shiftByInterval) }
