package mixing

import (
	"github.com/pkg/errors"

	"github.com/colewyeth/paqmix/errs"
	"github.com/colewyeth/paqmix/fixedpoint"
	"github.com/colewyeth/paqmix/lut"
	"github.com/colewyeth/paqmix/util"
)

// AdaptiveProbabilityMap refines a mixed probability against a small,
// per-secondary-context, piecewise-linear map trained online. Each
// context owns K interval-stop probabilities initialised to squash of an
// evenly spaced stretched grid; refine interpolates between the two
// stops straddling the input, and update_predictions nudges those two
// stops toward the observed bit.
type AdaptiveProbabilityMap struct {
	mappings               []uint32 // FractOnlyU32 raw, flat C*K
	contextsNumber         int
	stretchedScaleDownBits uint8
	weighting              *lut.ApmWeightingLut

	pending         util.PendingFlag
	savedContext    int
	savedLeftIndex  int
	savedLeftWeight uint32 // FractOnlyU32-scale fraction in [0, 2^31]
}

func intervalStopsCount(scaleDownBits uint8) int { return fixedpoint.IntervalStopsCount(scaleDownBits) }

// NewAdaptiveProbabilityMap builds an APM with contextsNumber independent secondary contexts,
// each with a stretched-index precision of stretchedScaleDownBits fewer
// bits than full StretchedProbD resolution.
func NewAdaptiveProbabilityMap(contextsNumber int, stretchedScaleDownBits uint8, weighting *lut.ApmWeightingLut, squash *lut.SquashLut) *AdaptiveProbabilityMap {
	k := intervalStopsCount(stretchedScaleDownBits)
	a := &AdaptiveProbabilityMap{
		mappings:               make([]uint32, contextsNumber*k),
		contextsNumber:         contextsNumber,
		stretchedScaleDownBits: stretchedScaleDownBits,
		weighting:              weighting,
	}
	for c := 0; c < contextsNumber; c++ {
		for i := 0; i < k; i++ {
			a.mappings[c*k+i] = weighting.IntervalStop(i)
		}
	}
	return a
}

func (a *AdaptiveProbabilityMap) k() int { return intervalStopsCount(a.stretchedScaleDownBits) }

// Refine maps inputSq/inputSt through context ctx's learned curve,
// saving enough state to pair a later UpdatePredictions call to this
// refine.
func (a *AdaptiveProbabilityMap) Refine(ctx int, inputSq fixedpoint.FractOnlyU32, inputSt fixedpoint.StretchedProbD) (fixedpoint.FractOnlyU32, error) {
	if ctx < 0 || ctx >= a.contextsNumber {
		return fixedpoint.FractOnlyU32{}, errors.Wrapf(errs.ErrOutOfBounds, "apm context %d out of range [0,%d)", ctx, a.contextsNumber)
	}
	if err := a.pending.Fill(); err != nil {
		return fixedpoint.FractOnlyU32{}, err
	}

	k := a.k()
	lo := a.weighting.IntervalStop(0)
	hi := a.weighting.IntervalStop(k - 1)
	if inputSq.Raw() < lo {
		inputSq = fixedpoint.NewFractOnlyU32Unchecked(lo)
	}
	if inputSq.Raw() > hi {
		inputSq = fixedpoint.NewFractOnlyU32Unchecked(hi)
	}
	clampedSt := inputSt.Clamped()
	if clampedSt.Raw() == fixedpoint.StretchedProbDMin.Raw() {
		clampedSt = clampedSt.Add(clampedSt.Ulp())
	}
	if clampedSt.Raw() == fixedpoint.StretchedProbDMax.Raw() {
		clampedSt = clampedSt.Sub(clampedSt.Ulp())
	}

	indexLeft := clampedSt.ToIntervalIndex(a.stretchedScaleDownBits)
	if indexLeft > 0 && inputSq.Raw() < a.weighting.IntervalStop(indexLeft) {
		indexLeft--
	}
	if indexLeft > k-2 {
		indexLeft = k - 2
	}

	length := a.weighting.IntervalStop(indexLeft+1) - a.weighting.IntervalStop(indexLeft)
	_ = length
	shift := a.weighting.Shift(indexLeft)
	extra := uint64(a.weighting.ExtraFactor(indexLeft))

	weightRight := uint64(inputSq.Raw()-a.weighting.IntervalStop(indexLeft)) << shift
	weightRight += (weightRight * extra) >> 16
	if weightRight > (1 << 31) {
		weightRight = 1 << 31
	}
	weightLeft := uint64(1<<31) - weightRight
	if weightRight == 0 {
		weightLeft = 1 << 31
	}

	leftEntry := a.mappings[ctx*k+indexLeft]
	rightEntry := a.mappings[ctx*k+indexLeft+1]
	interp := (uint64(leftEntry)*weightLeft + uint64(rightEntry)*weightRight) >> 31

	a.savedContext = ctx
	a.savedLeftIndex = indexLeft
	a.savedLeftWeight = uint32(weightLeft)

	return fixedpoint.NewFractOnlyU32Unchecked(uint32(interp)), nil
}

// UpdatePredictions nudges the two interval-stop entries straddling the
// last Refine call toward the observed bit. logRateLeft/logRateRight set
// how aggressively each of the two entries moves; fixedWeight forces an
// even 50/50 split between them regardless of the interpolation weight
// Refine computed.
func (a *AdaptiveProbabilityMap) UpdatePredictions(b bool, logRateLeft, logRateRight uint8, fixedWeight bool) error {
	if err := a.pending.Drain(); err != nil {
		return err
	}
	k := a.k()
	base := a.savedContext*k + a.savedLeftIndex

	target := uint32(0)
	if !b {
		target = (1 << 31) - 1
	}

	weightLeft := a.savedLeftWeight
	weightRight := uint32(1<<31) - weightLeft
	if fixedWeight {
		weightLeft, weightRight = 1<<30, 1<<30
	}

	a.mappings[base] = updateSingleEntry(a.mappings[base], target, weightLeft, logRateLeft)
	a.mappings[base+1] = updateSingleEntry(a.mappings[base+1], target, weightRight, logRateRight)
	return nil
}

func updateSingleEntry(entry, target, weight uint32, logRate uint8) uint32 {
	diff := int64(target) - int64(entry)
	correction := (int64(weight) * diff) >> (31 + logRate)
	result := int64(entry) + correction
	if result < 1 {
		result = 1
	}
	if result > (1<<31)-1 {
		result = (1 << 31) - 1
	}
	return uint32(result)
}
