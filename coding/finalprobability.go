// Package coding implements the range coder the predictor drives: a
// binary arithmetic coder with delayed carry propagation, consuming one
// FinalProbability per bit.
package coding

import (
	"github.com/pkg/errors"

	"github.com/colewyeth/paqmix/errs"
	"github.com/colewyeth/paqmix/fixedpoint"
)

// FinalProbabilityFractionalBits is the coder-facing probability scale:
// 12 fractional bits, strictly inside (0, 4096).
const FinalProbabilityFractionalBits uint8 = 12

// FinalProbability is the predictor's final output: the probability of
// bit 0, quantised to the coder's 12-bit scale.
type FinalProbability struct {
	raw uint32
}

// NewFinalProbability rescales a FractOnlyU32 (31 fractional bits) down
// to the coder's 12-bit scale, clamping the result into [1, 4095] (the
// coder needs a strictly interior value so neither branch collapses its
// range to zero); the returned error is always nil.
func NewFinalProbability(p fixedpoint.FractOnlyU32) (FinalProbability, error) {
	raw := fixedpoint.ScaledDownU32(p.Raw(), fixedpoint.FractOnlyU32FractionalBits, FinalProbabilityFractionalBits)
	if raw == 0 {
		raw = 1
	}
	if raw >= 1<<FinalProbabilityFractionalBits {
		raw = (1 << FinalProbabilityFractionalBits) - 1
	}
	return FinalProbability{raw: raw}, nil
}

// NewFinalProbabilityRaw wraps an already-scaled raw value, failing if
// it falls outside (0, 4096).
func NewFinalProbabilityRaw(raw uint32) (FinalProbability, error) {
	if raw == 0 || raw >= 1<<FinalProbabilityFractionalBits {
		return FinalProbability{}, errors.Wrapf(errs.ErrOutOfBounds, "FinalProbability raw %d out of (0, 4096)", raw)
	}
	return FinalProbability{raw: raw}, nil
}

func (p FinalProbability) Raw() uint32 { return p.raw }

// EstimateCost returns the coding cost, in bits, of the bit this
// probability was assigned to: -log2(p) for b=0, -log2(1-p) for b=1.
func (p FinalProbability) EstimateCost(log2 *Log2Estimator, b bool) fixedpoint.Log2D {
	raw := p.raw
	if b {
		raw = (1 << FinalProbabilityFractionalBits) - p.raw
	}
	return log2.Log2OfFinalProbability(raw)
}

// Log2Estimator is the minimal interface coding needs from the base-2
// log lookup table, kept narrow so this package does not need to import
// the whole lut package just for cost estimation.
type Log2Estimator struct {
	log2U32 func(raw uint32, bits uint8) (fixedpoint.Log2D, error)
}

func NewLog2Estimator(f func(raw uint32, bits uint8) (fixedpoint.Log2D, error)) *Log2Estimator {
	return &Log2Estimator{log2U32: f}
}

func (e *Log2Estimator) Log2OfFinalProbability(raw uint32) fixedpoint.Log2D {
	d, err := e.log2U32(raw, FinalProbabilityFractionalBits)
	if err != nil {
		return fixedpoint.Log2D{}
	}
	return d.Neg()
}
