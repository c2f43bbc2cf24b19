package lut

import (
	"math"

	"github.com/colewyeth/paqmix/bit"
	"github.com/colewyeth/paqmix/fixedpoint"
)

// DeceleratingEstimatorMaxCount is the saturating update-count ceiling a
// decelerating estimator's packed word can hold in its 10 count bits.
const DeceleratingEstimatorMaxCount = 1023

// DeceleratingEstimatorRates tabulates 1/(count*factor+addend) as a
// FractOnlyU32, so each estimator update is one table lookup and one
// multiply instead of a division.
type DeceleratingEstimatorRates struct {
	reciprocal [DeceleratingEstimatorMaxCount + 1]uint32
}

// NewDeceleratingEstimatorRates builds the reciprocal table for the given
// linear count-to-denominator mapping (factor=1, addend=2 is the
// estimator's default rate schedule).
func NewDeceleratingEstimatorRates(factor, addend uint32) *DeceleratingEstimatorRates {
	var r DeceleratingEstimatorRates
	for i := range r.reciprocal {
		denom := uint32(i)*factor + addend
		rate := 1 / float64(denom)
		raw := math.Round(rate * float64(uint64(1)<<31))
		if raw >= float64(uint64(1)<<31) {
			raw = float64((uint64(1) << 31) - 1)
		}
		if raw < 1 {
			raw = 1
		}
		r.reciprocal[i] = uint32(raw)
	}
	return &r
}

// NewDefaultDeceleratingEstimatorRates is make_default(): factor 1, addend 2.
func NewDefaultDeceleratingEstimatorRates() *DeceleratingEstimatorRates {
	return NewDeceleratingEstimatorRates(1, 2)
}

func (r *DeceleratingEstimatorRates) Rate(count uint32) fixedpoint.FractOnlyU32 {
	if count > DeceleratingEstimatorMaxCount {
		count = DeceleratingEstimatorMaxCount
	}
	return fixedpoint.NewFractOnlyU32Unchecked(r.reciprocal[count])
}

// applyUpdate steps a (prediction, count) pair once with the observed
// bit, using the same update law estimators/decelerating.go runs on the
// hot path: prediction moves a rate-scaled fraction of the way toward
// the bit's extreme, and count saturates at DeceleratingEstimatorMaxCount.
func applyUpdate(rates *DeceleratingEstimatorRates, prediction fixedpoint.FractOnlyU32, count uint32, b bit.Bit) (fixedpoint.FractOnlyU32, uint32) {
	rate := rates.Rate(count)
	if b.IsOne() {
		delta := fixedpoint.MulFractOnlyU32(prediction.Flip(), rate)
		prediction = prediction.Add(delta)
	} else {
		delta := fixedpoint.MulFractOnlyU32(prediction, rate)
		prediction = prediction.Sub(delta)
	}
	if count < DeceleratingEstimatorMaxCount {
		count++
	}
	return prediction, count
}

// DeceleratingEstimatorCache produces the (prediction, count) pair a
// freshly split suffix-tree node should start from, given the bit history
// implied by its parent: opposingRunLength repetitions of the bit
// opposite to lastBit, followed by lastBit itself. Rather than the
// source's precomputed cache table, this replays the update law directly
// since it only runs once per node split, off the per-bit hot path.
type DeceleratingEstimatorCache struct {
	rates *DeceleratingEstimatorRates
}

func NewDeceleratingEstimatorCache(rates *DeceleratingEstimatorRates) *DeceleratingEstimatorCache {
	return &DeceleratingEstimatorCache{rates: rates}
}

func (c *DeceleratingEstimatorCache) ForNewNode(lastBit bit.Bit, opposingRunLength uint32) (fixedpoint.FractOnlyU32, uint32) {
	prediction := fixedpoint.FractOnlyU32Half
	count := uint32(0)
	opposite := lastBit.Opposite()
	if opposingRunLength > DeceleratingEstimatorMaxCount {
		opposingRunLength = DeceleratingEstimatorMaxCount
	}
	for i := uint32(0); i < opposingRunLength; i++ {
		prediction, count = applyUpdate(c.rates, prediction, count, opposite)
	}
	prediction, count = applyUpdate(c.rates, prediction, count, lastBit)
	return prediction, count
}

// DeceleratingEstimatorPredictions produces the prediction a fresh
// estimator reaches after a run of zero bits, used by the chain
// predictor's edge contexts (SingleContextPredictor.PredictEdge), whose
// context has not materialised a tree node yet.
type DeceleratingEstimatorPredictions struct {
	rates *DeceleratingEstimatorRates
}

func NewDeceleratingEstimatorPredictions(rates *DeceleratingEstimatorRates) *DeceleratingEstimatorPredictions {
	return &DeceleratingEstimatorPredictions{rates: rates}
}

func (p *DeceleratingEstimatorPredictions) For0BitRun(zeroRunLength uint32) fixedpoint.FractOnlyU32 {
	prediction := fixedpoint.FractOnlyU32Half
	count := uint32(0)
	if zeroRunLength > DeceleratingEstimatorMaxCount {
		zeroRunLength = DeceleratingEstimatorMaxCount
	}
	for i := uint32(0); i < zeroRunLength; i++ {
		prediction, count = applyUpdate(p.rates, prediction, count, bit.Zero)
	}
	_ = count
	return prediction
}
