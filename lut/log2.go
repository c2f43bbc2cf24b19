// Package lut holds every lookup table the estimators, mixers and APMs
// are built on: base-2 logarithm, stretch (logit), squash (expit), the
// APM interpolation-weight table and the decelerating-estimator rate and
// prediction caches. All tables are built once, at construction time, and
// are read-only afterwards, so a single LookUpTables value can be shared
// by every predictor instance for its whole lifetime.
package lut

import (
	"math"
	"math/bits"

	"github.com/pkg/errors"

	"github.com/colewyeth/paqmix/errs"
	"github.com/colewyeth/paqmix/fixedpoint"
)

// Log2IndexBits is the number of mantissa bits the correction table is
// keyed by.
const Log2IndexBits = 11

// Log2Lut tabulates log2(1+f) for f in [0,1) at Log2IndexBits of
// resolution, so that log2(x) for arbitrary x can be built from a
// leading-zero count plus one table lookup.
type Log2Lut struct {
	correction [1 << Log2IndexBits]int32
}

// NewLog2Lut builds the correction table by direct evaluation of
// math.Log2; the source instead derives it by repeated squaring, but at
// Log2IndexBits=11 resolution the two constructions agree far inside the
// ~1e-3 tolerance anything built on Log2D needs.
func NewLog2Lut() *Log2Lut {
	var l Log2Lut
	n := 1 << Log2IndexBits
	for i := 0; i < n; i++ {
		frac := float64(i) / float64(n)
		value := math.Log2(1 + frac)
		l.correction[i] = int32(math.Round(value * float64(int64(1)<<fixedpoint.Log2DFractionalBits)))
	}
	return &l
}

// Log2U32 computes log2 of a raw unsigned value with valueBits fractional
// bits. x must be non-zero.
func (l *Log2Lut) Log2U32(raw uint32, valueBits uint8) (fixedpoint.Log2D, error) {
	if raw == 0 {
		return fixedpoint.Log2D{}, errors.Wrap(errs.ErrOutOfBounds, "log2 of zero")
	}
	lz := bits.LeadingZeros32(raw)
	pos := 31 - lz // position of the leading 1 bit, 0-indexed from the LSB
	integerBits := int32(pos) - int32(valueBits)

	shifted := raw << uint(lz) // leading 1 now at bit 31
	mantissa := (shifted << 1) >> (32 - Log2IndexBits)
	correction := l.correction[mantissa&((1<<Log2IndexBits)-1)]

	raw64 := int64(integerBits)<<fixedpoint.Log2DFractionalBits + int64(correction)
	return fixedpoint.NewLog2DUnchecked(fixedpoint.ScaledDownI32FromI64(raw64, fixedpoint.Log2DFractionalBits, fixedpoint.Log2DFractionalBits)), nil
}
