package predictor

import (
	"github.com/colewyeth/paqmix/bit"
	"github.com/colewyeth/paqmix/estimators"
	"github.com/colewyeth/paqmix/fixedpoint"
	"github.com/colewyeth/paqmix/history"
	"github.com/colewyeth/paqmix/lut"
	"github.com/colewyeth/paqmix/util"
)

// maxCompareResult bounds compareContextStates's return value (0: equal
// estimators, 1: different estimators, 2: node context followed by edge
// context).
const maxCompareResult = 2

var occurrenceCountQuantizer = util.OccurrenceCountQuantizer{}

// SingleContextPredictor turns one order's ContextState into a
// probability, mixing a handful of elementary inputs (the previous
// order's mixed probability, a table-driven estimate derived purely from
// the occurrence count, and an online estimator trained on this exact
// context) with a small per-context mixer.
type SingleContextPredictor struct {
	edgeFixedSq fixedpoint.FractOnlyU32
	edgeFixedSt fixedpoint.StretchedProbD

	edgeOccurAndByte *EstimatorsWithIndexer
	nodeBitsRun      *EstimatorsWithIndexer
}

// NewSingleContextPredictor builds one order's elementary predictors.
func NewSingleContextPredictor(luts *lut.LookUpTables) *SingleContextPredictor {
	edgeFixedSt := fixedpoint.NewStretchedProbD(2<<fixedpoint.StretchedProbDFractionalBits, fixedpoint.StretchedProbDFractionalBits)
	maxQ := occurrenceCountQuantizer.MaxOutput()
	return &SingleContextPredictor{
		edgeFixedSq:      luts.Squash().Squash(edgeFixedSt),
		edgeFixedSt:      edgeFixedSt,
		edgeOccurAndByte: NewEstimatorsWithIndexer(maxQ+1, 256),
		nodeBitsRun:      NewEstimatorsWithIndexer(maxQ+1, 2),
	}
}

// EdgeMixerDimensions returns the per-order edge mixer's dimensions,
// chain-level dims (is-max-order, compare-result) first, so
// ContextsChainPredictionMixer can allocate an edge mixer kit sized to
// match PredictEdge's indexing.
func EdgeMixerDimensions() []int { return []int{2, maxCompareResult + 1, 4, 2} }

// NodeMixerDimensions is EdgeMixerDimensions's node-context counterpart.
func NodeMixerDimensions() []int {
	return []int{2, maxCompareResult + 1, 6, 4, occurrenceCountQuantizer.MaxOutput() + 1}
}

// PredictEdge mixes the inputs available for an as-yet-unsplit edge:
// the previous order's mixed probability, the prediction a fresh
// estimator would reach after occurrence_count repeats of repeated_bit
// (read straight off a lookup table, no online state), a small constant
// bias, and an online estimator keyed by (quantized occurrence count,
// predicted byte).
func (p *SingleContextPredictor) PredictEdge(
	kit *MixersWithIndexer, ctx history.ContextState, contextByte uint8,
	lastSq fixedpoint.FractOnlyU32, lastSt fixedpoint.StretchedProbD,
	ib *util.IndexBuilder, luts *lut.LookUpTables,
) (fixedpoint.FractOnlyU32, fixedpoint.StretchedProbD, error) {
	zeroRunSq := luts.EstimatorPredictions().For0BitRun(ctx.OccurrenceCount)
	zeroRunSt := luts.Stretch().Stretch(zeroRunSq)
	if ctx.RepeatedBit.IsOne() {
		zeroRunSq = zeroRunSq.Flip()
		zeroRunSt = zeroRunSt.Neg()
	}

	quantizedCount := occurrenceCountQuantizer.Quantize(ctx.OccurrenceCount)
	tableIndex := util.NewIndexBuilder().
		WithSubIndex(occurrenceCountQuantizer.MaxOutput()+1, quantizedCount).
		WithSubIndex(256, int(contextByte)).
		Index()
	tableSq, tableSt, err := p.edgeOccurAndByte.Predict(luts, tableIndex)
	if err != nil {
		return fixedpoint.FractOnlyU32{}, fixedpoint.StretchedProbD{}, err
	}

	mixerIndex := ib.
		WithSubIndex(4, quantizeDistance(ctx.LastOccurrenceDistance)).
		WithSubIndex(2, int(ctx.RepeatedBit.ToU8())).
		Index()
	mixer := kit.Select(mixerIndex)
	if err := mixer.SetInput(0, lastSq, lastSt); err != nil {
		return fixedpoint.FractOnlyU32{}, fixedpoint.StretchedProbD{}, err
	}
	if err := mixer.SetInput(1, zeroRunSq, zeroRunSt); err != nil {
		return fixedpoint.FractOnlyU32{}, fixedpoint.StretchedProbD{}, err
	}
	if err := mixer.SetInput(2, p.edgeFixedSq, p.edgeFixedSt); err != nil {
		return fixedpoint.FractOnlyU32{}, fixedpoint.StretchedProbD{}, err
	}
	if err := mixer.SetInput(3, tableSq, tableSt); err != nil {
		return fixedpoint.FractOnlyU32{}, fixedpoint.StretchedProbD{}, err
	}
	return kit.MixAll(luts.Squash())
}

// UpdateEdge feeds the observed bit back into an edge round's elementary
// estimator and mixer.
func (p *SingleContextPredictor) UpdateEdge(kit *MixersWithIndexer, ctx history.ContextState, contextByte uint8, b bit.Bit, luts *lut.LookUpTables) error {
	if err := p.edgeOccurAndByte.Update(b, luts.EstimatorRates()); err != nil {
		return err
	}
	return kit.Update(b, 700, luts.EstimatorRates())
}

// PredictNode mixes the inputs available once a context has materialised
// into a tree node: the previous order's mixed probability, the node's
// own trained stationary estimator, and an online estimator keyed by
// (quantized current run length, last bit). UpdateNode later compares
// the second and third of these in the cost trackers it returns.
func (p *SingleContextPredictor) PredictNode(
	kit *MixersWithIndexer, ctx history.ContextState,
	lastSq fixedpoint.FractOnlyU32, lastSt fixedpoint.StretchedProbD,
	ib *util.IndexBuilder, luts *lut.LookUpTables,
) (fixedpoint.FractOnlyU32, fixedpoint.StretchedProbD, error) {
	stationarySq := ctx.ProbabilityEstimator.Prediction()
	stationarySt := luts.Stretch().Stretch(stationarySq)

	quantizedRun := occurrenceCountQuantizer.Quantize(ctx.BitsRuns.LastBitRunLength())
	tableIndex := util.NewIndexBuilder().
		WithSubIndex(occurrenceCountQuantizer.MaxOutput()+1, quantizedRun).
		WithSubIndex(2, int(ctx.BitsRuns.LastBit().ToU8())).
		Index()
	runsSq, runsSt, err := p.nodeBitsRun.Predict(luts, tableIndex)
	if err != nil {
		return fixedpoint.FractOnlyU32{}, fixedpoint.StretchedProbD{}, err
	}

	mixerIndex := ib.
		WithSubIndex(6, quantizeCostTrackers(ctx.Cost)).
		WithSubIndex(4, quantizeDistance(ctx.LastOccurrenceDistance)).
		WithSubIndex(occurrenceCountQuantizer.MaxOutput()+1, quantizedRun).
		Index()
	mixer := kit.Select(mixerIndex)
	if err := mixer.SetInput(0, lastSq, lastSt); err != nil {
		return fixedpoint.FractOnlyU32{}, fixedpoint.StretchedProbD{}, err
	}
	if err := mixer.SetInput(1, stationarySq, stationarySt); err != nil {
		return fixedpoint.FractOnlyU32{}, fixedpoint.StretchedProbD{}, err
	}
	if err := mixer.SetInput(2, runsSq, runsSt); err != nil {
		return fixedpoint.FractOnlyU32{}, fixedpoint.StretchedProbD{}, err
	}
	return kit.MixAll(luts.Squash())
}

// UpdateNode feeds the observed bit back into a node round's elementary
// estimator and mixer, and returns the cost trackers comparing how well
// the node's own stationary estimator (mixer slot 1) predicted against
// how well the bits-run estimator (slot 2) predicted, so the chain
// predictor can track which kind of parameter memory to trust for this
// context going forward.
func (p *SingleContextPredictor) UpdateNode(kit *MixersWithIndexer, ctx history.ContextState, b bit.Bit, luts *lut.LookUpTables) (estimators.CostTrackers, error) {
	stationarySq := kit.CurrentMixer().SlotPredictionSq(1)
	runsSq := kit.CurrentMixer().SlotPredictionSq(2)

	if err := p.nodeBitsRun.Update(b, luts.EstimatorRates()); err != nil {
		return estimators.CostTrackers{}, err
	}
	if err := kit.Update(b, 250, luts.EstimatorRates()); err != nil {
		return estimators.CostTrackers{}, err
	}

	actualStationary := stationarySq
	actualRuns := runsSq
	if !b.IsOne() {
		actualStationary = actualStationary.Flip()
		actualRuns = actualRuns.Flip()
	}
	return estimators.CostTrackers{
		Stationary:    ctx.Cost.Stationary.Updated(luts.Log2(), actualStationary, b),
		NonStationary: ctx.Cost.NonStationary.Updated(luts.Log2(), actualRuns, b),
	}, nil
}

// quantizeDistance buckets how far back a context's matching text last
// occurred into four log-spaced ranges.
func quantizeDistance(distance uint32) int {
	switch {
	case distance < 100:
		return 0
	case distance < 1000:
		return 1
	case distance < 10000:
		return 2
	default:
		return 3
	}
}

// quantizeCostTrackers buckets how the stationary and non-stationary
// cost readings compare into six ranges, from "stationary much
// cheaper" to "non-stationary much cheaper".
func quantizeCostTrackers(cost estimators.CostTrackers) int {
	s := int64(cost.Stationary.Raw())
	n := int64(cost.NonStationary.Raw())
	switch {
	case s+s/2 < n:
		return 0
	case s+s/8 < n:
		return 1
	case s < n:
		return 2
	case s < n+n/8:
		return 3
	case s < n+n/2:
		return 4
	default:
		return 5
	}
}

// compareContextStates classifies how consecutive orders' elementary
// predictors relate, mirroring the three-way split the chain mixer keys
// its secondary context on: two node contexts (or two edge contexts)
// sharing the same trained estimator (0) or not (1), or a node context
// immediately followed by an edge context (2, the point where the
// suffix tree stops having trained state to offer).
func compareContextStates(previous, current history.ContextState) int {
	switch {
	case previous.IsForNode() == current.IsForNode():
		if previous.IsForNode() {
			if previous.ProbabilityEstimator == current.ProbabilityEstimator {
				return 0
			}
			return 1
		}
		if previous.RepeatedBit == current.RepeatedBit && previous.OccurrenceCount == current.OccurrenceCount {
			return 0
		}
		return 1
	case previous.IsForNode() && !current.IsForNode():
		return maxCompareResult
	default:
		panic("predictor: binary context cannot be longer than unary context")
	}
}
