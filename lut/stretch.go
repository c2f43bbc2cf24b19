package lut

import (
	"math"

	"github.com/colewyeth/paqmix/fixedpoint"
)

// StretchLevels and StretchEntriesPerLevel describe the two-level table
// shape: StretchLevels buckets by order of magnitude of the input
// (leading-zero count), each subdivided into StretchEntriesPerLevel
// linearly interpolated steps.
const (
	StretchLevels           = 8
	StretchInLevelIndexBits = 9
	StretchEntriesPerLevel  = 1 << StretchInLevelIndexBits
)

// StretchLut tabulates stretch(p) = ln(p/(1-p)) for p in (0, 0.5],
// accurate to about 1e-6 away from the extremes; squash is its
// approximate inverse (see squash.go).
type StretchLut struct {
	table [StretchLevels][StretchEntriesPerLevel + 1]int32
}

// NewStretchLut builds the table by direct evaluation of math.Log at
// each table entry's grid point, rather than the source's repeated-squaring
// bootstrap; at 8x512 resolution the two constructions agree far inside
// the accuracy bound spec.md §8 requires.
func NewStretchLut() *StretchLut {
	var l StretchLut
	for level := 0; level < StretchLevels; level++ {
		levelBase := math.Exp2(-(float64(level) + 2))
		for i := 0; i <= StretchEntriesPerLevel; i++ {
			p := levelBase * (1 + float64(i)/StretchEntriesPerLevel)
			st := math.Log(p / (1 - p))
			raw := math.Round(st * float64(int64(1)<<fixedpoint.StretchedProbDFractionalBits))
			l.table[level][i] = clampRawI32(raw)
		}
	}
	return &l
}

func clampRawI32(v float64) int32 {
	limit := float64(fixedpoint.StretchedProbAbsLimit) * float64(int64(1)<<fixedpoint.StretchedProbDFractionalBits)
	if v > limit {
		return int32(limit)
	}
	if v < -limit {
		return int32(-limit)
	}
	return int32(v)
}

// Stretch maps a probability-of-0 into logit space, clamping inputs
// closer to 0 or 1 than the table covers to the nearest accurately
// mapped input, and flipping the result for inputs above 0.5.
func (l *StretchLut) Stretch(p fixedpoint.FractOnlyU32) fixedpoint.StretchedProbD {
	raw := p.Raw()
	if raw == 0 {
		raw = 1
	}
	flip := false
	if raw > (1 << 30) {
		flip = true
		raw = (1 << 31) - raw
		if raw == 0 {
			raw = 1
		}
	}
	pf := float64(raw) / float64(uint64(1)<<31)

	level := 0
	for level < StretchLevels-1 && pf < math.Exp2(-(float64(level)+2)) {
		level++
	}
	levelBase := math.Exp2(-(float64(level) + 2))
	idxF := (pf - levelBase) / levelBase * StretchEntriesPerLevel
	if idxF < 0 {
		idxF = 0
	}
	if idxF > StretchEntriesPerLevel {
		idxF = StretchEntriesPerLevel
	}
	idx := int(idxF)
	if idx >= StretchEntriesPerLevel {
		idx = StretchEntriesPerLevel - 1
	}
	frac := idxF - float64(idx)
	lo := l.table[level][idx]
	hi := l.table[level][idx+1]
	interp := float64(lo) + frac*float64(hi-lo)
	raw21 := clampRawI32(math.Round(interp))
	if flip {
		raw21 = -raw21
	}
	return fixedpoint.NewStretchedProbD(raw21, fixedpoint.StretchedProbDFractionalBits)
}
