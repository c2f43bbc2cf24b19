package estimators

import (
	"github.com/colewyeth/paqmix/bit"
	"github.com/colewyeth/paqmix/fixedpoint"
	"github.com/colewyeth/paqmix/lut"
)

// costTrackerDecayShift must match the rate lut.CostTrackersLut simulates
// when it seeds a freshly split node's tracker.
const costTrackerDecayShift = 4

// CostTracker keeps a 16-bit exponential moving average of the coding
// cost (in Log2D-scaled bits) a predictor has recently paid, so two
// competing estimators attached to the same context can be compared and
// the cheaper one's opinion weighted more heavily by the mixer.
type CostTracker struct {
	ema uint16
}

// NewCostTracker starts a tracker at zero cost (optimistic until proven
// otherwise).
func NewCostTracker() CostTracker { return CostTracker{} }

// NewCostTrackerFromRaw wraps a raw EMA reading produced by
// lut.CostTrackersLut.ForNewNode.
func NewCostTrackerFromRaw(raw uint16) CostTracker { return CostTracker{ema: raw} }

// Raw returns the packed EMA value, Log2D-scaled (11 fractional bits).
func (c CostTracker) Raw() uint16 { return c.ema }

// AsLog2D exposes the tracked average cost.
func (c CostTracker) AsLog2D() fixedpoint.Log2D {
	return fixedpoint.NewLog2DUnchecked(int32(c.ema))
}

// Updated folds in the actual cost paid for a single bit coded at
// probability p (the probability assigned to the bit that occurred).
func (c CostTracker) Updated(log2 *lut.Log2Lut, actualP fixedpoint.FractOnlyU32, _ bit.Bit) CostTracker {
	cost := int32(0)
	if log2d, err := log2.Log2U32(actualP.Raw(), fixedpoint.FractOnlyU32FractionalBits); err == nil {
		cost = -log2d.Raw()
	}
	ema := int32(c.ema) + (cost-int32(c.ema))>>costTrackerDecayShift
	if ema < 0 {
		ema = 0
	}
	if ema > 0xffff {
		ema = 0xffff
	}
	return CostTracker{ema: uint16(ema)}
}

// CostTrackers compares how a stationary (decelerating) and a
// non-stationary estimator would each have coded a node's history, so
// the chain predictor can pick which kind of parameter memory to trust
// more. The non-stationary reading is approximated by seeding it
// identically to the stationary one at node-split time, since
// maintaining a fully parallel fixed-speed prediction stream purely for
// this comparison is not otherwise useful.
type CostTrackers struct {
	Stationary    CostTracker
	NonStationary CostTracker
}
