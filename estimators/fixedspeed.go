package estimators

import (
	"github.com/colewyeth/paqmix/bit"
	"github.com/colewyeth/paqmix/fixedpoint"
)

// FixedSpeedEstimator predicts P(bit=1) from a 16-bit fraction, moving a
// constant 1/128 of the way toward the observed bit on every update. It
// never settles the way DeceleratingEstimator does, which makes it the
// better choice for non-stationary contexts.
type FixedSpeedEstimator struct {
	raw uint16
}

const (
	fixedSpeedBits      = 16
	fixedSpeedRateShift = 7
)

// NewFixedSpeedEstimator returns a fresh estimator at P(1)=0.5.
func NewFixedSpeedEstimator() FixedSpeedEstimator {
	return FixedSpeedEstimator{raw: 1 << (fixedSpeedBits - 1)}
}

func (e FixedSpeedEstimator) Prediction() fixedpoint.FractOnlyU32 {
	raw := fixedpoint.ScaledDownU32(uint32(e.raw), fixedSpeedBits, fixedpoint.FractOnlyU32FractionalBits)
	return fixedpoint.NewFractOnlyU32Unchecked(raw)
}

// Update folds in an observed bit.
func (e FixedSpeedEstimator) Update(b bit.Bit) FixedSpeedEstimator {
	p := int32(e.raw)
	if b.IsOne() {
		p += ((1 << fixedSpeedBits) - 1 - p) >> fixedSpeedRateShift
	} else {
		p -= p >> fixedSpeedRateShift
	}
	if p < 0 {
		p = 0
	}
	if p > (1<<fixedSpeedBits)-1 {
		p = (1 << fixedSpeedBits) - 1
	}
	return FixedSpeedEstimator{raw: uint16(p)}
}
