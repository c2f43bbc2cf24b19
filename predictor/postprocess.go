package predictor

import (
	"math/bits"

	"github.com/colewyeth/paqmix/bit"
	"github.com/colewyeth/paqmix/coding"
	"github.com/colewyeth/paqmix/fixedpoint"
	"github.com/colewyeth/paqmix/lut"
	"github.com/colewyeth/paqmix/mixing"
	"github.com/colewyeth/paqmix/util"
)

// FinalizerMode picks how aggressively PredictionFinalizer refines the
// chain mixer's output before it reaches the coder.
type FinalizerMode int

const (
	// FinalizerNone passes the chain mixer's output straight through.
	FinalizerNone FinalizerMode = iota
	// FinalizerLight refines through four fixed-weight APM stages.
	FinalizerLight
	// FinalizerAdaptive refines through the same four APM stages, then
	// mixes their outputs with a learned, context-selected mixer.
	FinalizerAdaptive
)

const finalizerIndexScaleDownBits uint8 = 1

// finalizerFactors are log2-scaled APM update rates, indexed by distance
// from the middle of the stretched range: the APMs nearer the extremes
// (where one outcome is already confidently favoured) adapt slower than
// the ones near the undecided middle.
var finalizerFactors = [13]uint8{4, 4, 4, 5, 5, 6, 6, 7, 7, 8, 8, 9, 9}

// PredictionFinalizer post-processes the chain mixer's single output
// through a small cascade of Adaptive Probability Maps keyed by the
// partial current byte and short byte-history hashes, optionally mixing
// their outputs back together with a learned mixer selected by how
// confident the raw input already was.
type PredictionFinalizer struct {
	luts *lut.LookUpTables
	mode FinalizerMode

	phase0Order0 *mixing.AdaptiveProbabilityMap
	phase1Order1 *mixing.AdaptiveProbabilityMap
	phase1Order2 *mixing.AdaptiveProbabilityMap
	phase1Order3 *mixing.AdaptiveProbabilityMap

	mixerRows [][4]*mixing.Mixer

	rowPending util.PendingFlag
	rowIndex   int
	mixPending util.PendingFlag
}

// NewPredictionFinalizer builds a finalizer running in the given mode.
func NewPredictionFinalizer(mode FinalizerMode, luts *lut.LookUpTables) *PredictionFinalizer {
	makeAPM := func(contexts int, precision uint8) *mixing.AdaptiveProbabilityMap {
		return mixing.NewAdaptiveProbabilityMap(contexts, precision, luts.ApmLut(precision), luts.Squash())
	}
	f := &PredictionFinalizer{luts: luts, mode: mode}
	switch mode {
	case FinalizerNone:
		f.phase0Order0 = makeAPM(0, 0)
		f.phase1Order1 = makeAPM(0, 0)
		f.phase1Order2 = makeAPM(0, 0)
		f.phase1Order3 = makeAPM(0, 0)
	case FinalizerLight:
		f.phase0Order0 = makeAPM(256, 0)
		f.phase1Order1 = makeAPM(256*256, 0)
		f.phase1Order2 = makeAPM(256*256, 0)
		f.phase1Order3 = makeAPM(256*256, 0)
	case FinalizerAdaptive:
		f.phase0Order0 = makeAPM(256, 0)
		f.phase1Order1 = makeAPM(256*256, finalizerIndexScaleDownBits)
		f.phase1Order2 = makeAPM(256*256, finalizerIndexScaleDownBits)
		f.phase1Order3 = makeAPM(256*256, finalizerIndexScaleDownBits)
		rows := fixedpoint.IntervalStopsCount(finalizerIndexScaleDownBits)
		f.mixerRows = make([][4]*mixing.Mixer, rows)
		for i := range f.mixerRows {
			f.mixerRows[i] = [4]*mixing.Mixer{
				mixing.New(2, mixing.MixerInitEqual),
				mixing.New(3, mixing.MixerInitEqual),
				mixing.New(4, mixing.MixerInitEqual),
				mixing.New(5, mixing.MixerInitEqual),
			}
		}
	}
	return f
}

func quantizeContextsCount(contextsCount int) int {
	switch contextsCount {
	case 0, 1:
		return 0
	case 2:
		return 1
	case 3:
		return 2
	default:
		return 3
	}
}

// quantizeApmDistance buckets a distance-from-middle value, log-spaced,
// into a finalizerFactors index: 0 right at the middle, rising to
// len(finalizerFactors)-1 out at the extremes.
func quantizeApmDistance(distance int) int {
	if distance < 1 {
		return 0
	}
	idx := bits.Len(uint(distance))
	if max := len(finalizerFactors) - 1; idx > max {
		idx = max
	}
	return idx
}

// apmFactorIndexes picks the update-rate indexes for the two interval
// stops straddling scaledIntervalIndex: both start from the same log-
// spaced distance-from-middle bucket, then whichever side
// scaledIntervalIndex is further from the middle on gets nudged one
// bucket slower, so the two stops never move at identical rates.
func apmFactorIndexes(scaledIntervalIndex int, scaleDownBits uint8) (int, int) {
	middle := fixedpoint.StretchedProbDZero.ToIntervalIndex(scaleDownBits)
	distance := scaledIntervalIndex - middle
	if distance < 0 {
		distance = -distance
	}
	idx := quantizeApmDistance(distance)
	left, right := idx, idx
	max := len(finalizerFactors) - 1
	if scaledIntervalIndex < middle && left < max {
		left++
	} else if scaledIntervalIndex >= middle && right < max {
		right++
	}
	return left, right
}

// Refine maps the chain mixer's output through this finalizer's mode,
// returning the coder-facing probability.
func (f *PredictionFinalizer) Refine(inputSq fixedpoint.FractOnlyU32, inputSt fixedpoint.StretchedProbD, contextsCount int, lastBytes *util.LastBytesCache) (coding.FinalProbability, error) {
	stretch := f.luts.Stretch()
	switch f.mode {
	case FinalizerNone:
		return coding.NewFinalProbability(inputSq)
	case FinalizerLight:
		p0o0, err := f.phase0Order0.Refine(int(lastBytes.UnfinishedByte().Raw()), inputSq, inputSt)
		if err != nil {
			return coding.FinalProbability{}, err
		}
		p0mix := blendQuarterWeighted(inputSq, p0o0)
		p0mixSt := stretch.Stretch(p0mix)
		p1o1, err := f.phase1Order1.Refine(int(lastBytes.Hash01_16()), p0mix, p0mixSt)
		if err != nil {
			return coding.FinalProbability{}, err
		}
		p1o2, err := f.phase1Order2.Refine(int(lastBytes.Hash02_16()), p0mix, p0mixSt)
		if err != nil {
			return coding.FinalProbability{}, err
		}
		p1o3, err := f.phase1Order3.Refine(int(lastBytes.Hash03_16()), p0mix, p0mixSt)
		if err != nil {
			return coding.FinalProbability{}, err
		}
		output := blendOrder123(p1o1, p1o2, p1o3)
		return coding.NewFinalProbability(output)
	default:
		if err := f.rowPending.Fill(); err != nil {
			return coding.FinalProbability{}, err
		}
		f.rowIndex = inputSt.ToIntervalIndex(finalizerIndexScaleDownBits)
		mixerIndex := quantizeContextsCount(contextsCount)
		mixer := f.mixerRows[f.rowIndex][mixerIndex]

		p0o0, err := f.phase0Order0.Refine(int(lastBytes.UnfinishedByte().Raw()), inputSq, inputSt)
		if err != nil {
			return coding.FinalProbability{}, err
		}
		p0mix := blendQuarterWeighted(inputSq, p0o0)
		p0mixSt := stretch.Stretch(p0mix)

		if err := mixer.SetInput(0, inputSq, inputSt); err != nil {
			return coding.FinalProbability{}, err
		}
		if err := mixer.SetInput(1, p0o0, stretch.Stretch(p0o0)); err != nil {
			return coding.FinalProbability{}, err
		}
		if mixerIndex >= 1 {
			p1o1, err := f.phase1Order1.Refine(int(lastBytes.Hash01_16()), p0mix, p0mixSt)
			if err != nil {
				return coding.FinalProbability{}, err
			}
			if err := mixer.SetInput(2, p1o1, stretch.Stretch(p1o1)); err != nil {
				return coding.FinalProbability{}, err
			}
		}
		if mixerIndex >= 2 {
			p1o2, err := f.phase1Order2.Refine(int(lastBytes.Hash02_16()), p0mix, p0mixSt)
			if err != nil {
				return coding.FinalProbability{}, err
			}
			if err := mixer.SetInput(3, p1o2, stretch.Stretch(p1o2)); err != nil {
				return coding.FinalProbability{}, err
			}
		}
		if mixerIndex >= 3 {
			p1o3, err := f.phase1Order3.Refine(int(lastBytes.Hash03_16()), p0mix, p0mixSt)
			if err != nil {
				return coding.FinalProbability{}, err
			}
			if err := mixer.SetInput(4, p1o3, stretch.Stretch(p1o3)); err != nil {
				return coding.FinalProbability{}, err
			}
		}

		if err := f.mixPending.Fill(); err != nil {
			return coding.FinalProbability{}, err
		}
		mixed, _, err := mixer.MixAll(f.luts.Squash())
		if err != nil {
			return coding.FinalProbability{}, err
		}
		return coding.NewFinalProbability(mixed)
	}
}

// Update feeds the observed bit back into whichever APMs and mixer
// Refine consulted.
func (f *PredictionFinalizer) Update(b bit.Bit, contextsCount int, lastBytes *util.LastBytesCache) error {
	switch f.mode {
	case FinalizerNone:
		return nil
	case FinalizerLight:
		if err := f.phase0Order0.UpdatePredictions(b.IsOne(), 5, 5, true); err != nil {
			return err
		}
		if err := f.phase1Order1.UpdatePredictions(b.IsOne(), 5, 5, false); err != nil {
			return err
		}
		if err := f.phase1Order2.UpdatePredictions(b.IsOne(), 5, 5, false); err != nil {
			return err
		}
		return f.phase1Order3.UpdatePredictions(b.IsOne(), 5, 5, false)
	default:
		if err := f.rowPending.Drain(); err != nil {
			return err
		}
		leftIdx, rightIdx := apmFactorIndexes(f.rowIndex, finalizerIndexScaleDownBits)
		leftFactor, rightFactor := finalizerFactors[leftIdx], finalizerFactors[rightIdx]
		mixerIndex := quantizeContextsCount(contextsCount)

		if err := f.phase0Order0.UpdatePredictions(b.IsOne(), leftFactor+3, rightFactor+3, false); err != nil {
			return err
		}
		if mixerIndex >= 1 {
			if err := f.phase1Order1.UpdatePredictions(b.IsOne(), leftFactor, rightFactor, false); err != nil {
				return err
			}
		}
		if mixerIndex >= 2 {
			if err := f.phase1Order2.UpdatePredictions(b.IsOne(), leftFactor, rightFactor, false); err != nil {
				return err
			}
		}
		if mixerIndex >= 3 {
			if err := f.phase1Order3.UpdatePredictions(b.IsOne(), leftFactor, rightFactor, false); err != nil {
				return err
			}
		}

		if err := f.mixPending.Drain(); err != nil {
			return err
		}
		mixer := f.mixerRows[f.rowIndex][mixerIndex]
		return mixer.UpdateAndReset(b, 1000, f.luts.EstimatorRates())
	}
}

// blendQuarterWeighted averages input three parts to one against the
// order-0 APM's refinement, the weighting the source's phase-0 mixing
// step always uses regardless of mode.
func blendQuarterWeighted(input, apm fixedpoint.FractOnlyU32) fixedpoint.FractOnlyU32 {
	raw := fixedpoint.ScaledDownU64(uint64(input.Raw())*3+uint64(apm.Raw()), fixedpoint.FractOnlyU32FractionalBits+2, fixedpoint.FractOnlyU32FractionalBits)
	return fixedpoint.NewFractOnlyU32Unchecked(uint32(raw))
}

// blendOrder123 combines the three order-1/2/3 APM refinements with
// weights 1:2:1, the fixed blend Light mode uses in place of a learned
// mixer.
func blendOrder123(o1, o2, o3 fixedpoint.FractOnlyU32) fixedpoint.FractOnlyU32 {
	raw := fixedpoint.ScaledDownU64(uint64(o1.Raw())+uint64(o2.Raw())*2+uint64(o3.Raw()), fixedpoint.FractOnlyU32FractionalBits+2, fixedpoint.FractOnlyU32FractionalBits)
	return fixedpoint.NewFractOnlyU32Unchecked(uint32(raw))
}
