// Package estimators implements the elementary bit predictors every
// suffix-tree node and edge is built from: a decelerating estimator
// (fast-adapting while young, slow once mature) and a fixed-speed
// estimator, plus the coding-cost tracker used to compare them.
package estimators

import (
	"github.com/colewyeth/paqmix/bit"
	"github.com/colewyeth/paqmix/fixedpoint"
	"github.com/colewyeth/paqmix/lut"
)

// DeceleratingEstimator predicts P(bit=1) from a packed 32-bit word: a
// 22-bit prediction and a 10-bit update count. The update rate shrinks as
// the count grows, so the estimator adapts fast early and settles down
// as it accumulates evidence, unlike FixedSpeedEstimator's constant rate.
type DeceleratingEstimator struct {
	packed uint32
}

const (
	deceleratingPredictionBits = 22
	deceleratingCountBits      = 10
	deceleratingCountMask      = (1 << deceleratingCountBits) - 1
	deceleratingPredictionMax  = (1 << deceleratingPredictionBits) - 1
)

// NewDeceleratingEstimator returns a fresh estimator at P(1)=0.5, count 0.
func NewDeceleratingEstimator() DeceleratingEstimator {
	half := fixedpoint.ScaledDownU32(1<<30, fixedpoint.FractOnlyU32FractionalBits, deceleratingPredictionBits)
	return DeceleratingEstimator{packed: half << deceleratingCountBits}
}

// NewDeceleratingEstimatorFrom packs an explicit (prediction, count) pair,
// used when a suffix-tree node is created from lut.DeceleratingEstimatorCache.
func NewDeceleratingEstimatorFrom(prediction fixedpoint.FractOnlyU32, count uint32) DeceleratingEstimator {
	if count > lut.DeceleratingEstimatorMaxCount {
		count = lut.DeceleratingEstimatorMaxCount
	}
	p22 := fixedpoint.ScaledDownU32(prediction.Raw(), fixedpoint.FractOnlyU32FractionalBits, deceleratingPredictionBits)
	// Rounding on the way down from 31 bits can touch the two endpoints a
	// packed 22-bit field can't hold without bleeding into the count bits
	// (0, or 1<<22 from a max-value FractOnlyU32 rounding up); keep the
	// prediction strictly interior.
	if p22 < 1 {
		p22 = 1
	}
	if p22 > deceleratingPredictionMax {
		p22 = deceleratingPredictionMax
	}
	return DeceleratingEstimator{packed: p22<<deceleratingCountBits | count}
}

func (e DeceleratingEstimator) prediction22() uint32 { return e.packed >> deceleratingCountBits }
func (e DeceleratingEstimator) count() uint32         { return e.packed & deceleratingCountMask }

// Prediction returns the current P(bit=1).
func (e DeceleratingEstimator) Prediction() fixedpoint.FractOnlyU32 {
	raw := fixedpoint.ScaledDownU32(e.prediction22(), deceleratingPredictionBits, fixedpoint.FractOnlyU32FractionalBits)
	return fixedpoint.NewFractOnlyU32Unchecked(raw)
}

// Count returns the number of updates this estimator has absorbed,
// saturating at lut.DeceleratingEstimatorMaxCount.
func (e DeceleratingEstimator) Count() uint32 { return e.count() }

// Update folds in an observed bit, returning the estimator's new state.
func (e DeceleratingEstimator) Update(rates *lut.DeceleratingEstimatorRates, b bit.Bit) DeceleratingEstimator {
	prediction := e.Prediction()
	rate := rates.Rate(e.count())
	if b.IsOne() {
		prediction = prediction.Add(fixedpoint.MulFractOnlyU32(prediction.Flip(), rate))
	} else {
		prediction = prediction.Sub(fixedpoint.MulFractOnlyU32(prediction, rate))
	}
	count := e.count()
	if count < lut.DeceleratingEstimatorMaxCount {
		count++
	}
	return NewDeceleratingEstimatorFrom(prediction, count)
}
