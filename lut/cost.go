package lut

import (
	"github.com/colewyeth/paqmix/bit"
	"github.com/colewyeth/paqmix/fixedpoint"
)

// costTrackerDecayShift sets the exponential-moving-average rate (1/16
// per update) the packed cost trackers in the estimators package use.
const costTrackerDecayShift = 4

// CostTrackersLut replays the same bit sequence DeceleratingEstimatorCache
// uses to seed a freshly split node's prediction, but accumulates the
// coding cost a tracker following that sequence would have recorded, so
// new nodes start with a plausible cost-tracker reading instead of zero.
type CostTrackersLut struct {
	rates *DeceleratingEstimatorRates
	log2  *Log2Lut
}

func NewCostTrackersLut(log2 *Log2Lut, rates *DeceleratingEstimatorRates) *CostTrackersLut {
	return &CostTrackersLut{rates: rates, log2: log2}
}

// ForNewNode returns the raw packed EMA (Log2D-scaled, 11 fractional
// bits) a cost tracker reaches after opposingRunLength repetitions of the
// bit opposite lastBit followed by lastBit itself.
func (c *CostTrackersLut) ForNewNode(lastBit bit.Bit, opposingRunLength uint32) uint16 {
	prediction := fixedpoint.FractOnlyU32Half
	count := uint32(0)
	ema := int32(0)

	step := func(b bit.Bit) {
		actualP := prediction
		if !b.IsOne() {
			actualP = prediction.Flip()
		}
		cost := int32(0)
		if log2d, err := c.log2.Log2U32(actualP.Raw(), fixedpoint.FractOnlyU32FractionalBits); err == nil {
			cost = -log2d.Raw()
		}
		ema += (cost - ema) >> costTrackerDecayShift
		prediction, count = applyUpdate(c.rates, prediction, count, b)
	}

	opposite := lastBit.Opposite()
	if opposingRunLength > DeceleratingEstimatorMaxCount {
		opposingRunLength = DeceleratingEstimatorMaxCount
	}
	for i := uint32(0); i < opposingRunLength; i++ {
		step(opposite)
	}
	step(lastBit)

	if ema < 0 {
		ema = 0
	}
	if ema > 0xffff {
		ema = 0xffff
	}
	return uint16(ema)
}
