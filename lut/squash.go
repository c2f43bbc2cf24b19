package lut

import (
	"math"

	"github.com/colewyeth/paqmix/fixedpoint"
)

// SquashIndexFractionalBits is the number of fractional bits of stretched
// input resolved by one table step (so the table covers
// [-StretchedProbAbsLimit, StretchedProbAbsLimit] in steps of
// 2^-SquashIndexFractionalBits).
const SquashIndexFractionalBits = 7

// SquashEntries is the table length: one entry per step across the full
// stretched range, plus the closing stop.
const SquashEntries = int(2*fixedpoint.StretchedProbAbsLimit)<<SquashIndexFractionalBits + 1

// SquashLut tabulates squash(s) = 1/(1+exp(-s)), the approximate inverse
// of stretch, over the whole representable stretched-probability range.
type SquashLut struct {
	table  [SquashEntries]uint32
	offset int
}

// NewSquashLut builds the table by direct evaluation of math.Exp at each
// step's grid point, mirroring the simplification already used for the
// stretch and log2 tables.
func NewSquashLut() *SquashLut {
	var l SquashLut
	l.offset = SquashEntries / 2
	for i := 0; i < SquashEntries; i++ {
		s := float64(i-l.offset) / float64(int64(1)<<SquashIndexFractionalBits)
		p := 1 / (1 + math.Exp(-s))
		raw := math.Round(p * float64(uint64(1)<<31))
		if raw < 1 {
			raw = 1
		}
		if raw > float64((uint64(1)<<31)-1) {
			raw = float64((uint64(1) << 31) - 1)
		}
		l.table[i] = uint32(raw)
	}
	return &l
}

// Squash maps a stretched (logit-space) value back to a probability,
// linearly interpolating between the two table steps straddling s.
func (l *SquashLut) Squash(s fixedpoint.StretchedProbD) fixedpoint.FractOnlyU32 {
	c := s.Clamped()
	shift := fixedpoint.StretchedProbDFractionalBits - SquashIndexFractionalBits
	pos := int(c.Raw()>>shift) + l.offset
	if pos < 0 {
		pos = 0
	}
	if pos >= SquashEntries-1 {
		pos = SquashEntries - 2
	}
	remainderBits := shift
	remainder := c.Raw() & ((1 << remainderBits) - 1)
	frac := float64(remainder) / float64(int64(1)<<remainderBits)

	lo := l.table[pos]
	hi := l.table[pos+1]
	interp := float64(lo) + frac*(float64(hi)-float64(lo))
	raw := uint32(math.Round(interp))
	if raw == 0 {
		raw = 1
	}
	return fixedpoint.NewFractOnlyU32Unchecked(raw)
}

// FindSquashedProb performs a binary search over the table for the
// stretched value whose squash is closest to target, the structural
// inverse of Squash kept mainly for tests that check stretch/squash
// round-trip within the accuracy bound.
func (l *SquashLut) FindSquashedProb(target fixedpoint.FractOnlyU32) fixedpoint.StretchedProbD {
	lo, hi := 0, SquashEntries-1
	for lo < hi {
		mid := (lo + hi) / 2
		if l.table[mid] < target.Raw() {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	shift := fixedpoint.StretchedProbDFractionalBits - SquashIndexFractionalBits
	raw := int32(lo-l.offset) << shift
	return fixedpoint.NewStretchedProbD(raw, fixedpoint.StretchedProbDFractionalBits)
}
