package predictor

import (
	"github.com/colewyeth/paqmix/bit"
	"github.com/colewyeth/paqmix/estimators"
	"github.com/colewyeth/paqmix/fixedpoint"
	"github.com/colewyeth/paqmix/history"
	"github.com/colewyeth/paqmix/lut"
	"github.com/colewyeth/paqmix/mixing"
	"github.com/colewyeth/paqmix/util"
)

// ContextsChainPredictionMixer runs one SingleContextPredictor per
// active order, feeding each order's mixed probability forward as the
// next order's lowest-order input, so a higher order's prediction is
// always mixed against what every lower order already believed rather
// than starting from scratch.
type ContextsChainPredictionMixer struct {
	luts                   *lut.LookUpTables
	singleContextPredictors []*SingleContextPredictor
	edgeMixerKits          []*MixersWithIndexer
	nodeMixerKits          []*MixersWithIndexer
}

// NewContextsChainPredictionMixer allocates one elementary predictor and
// one pair of mixer kits per order 0..maxOrder.
func NewContextsChainPredictionMixer(maxOrder int, luts *lut.LookUpTables) *ContextsChainPredictionMixer {
	c := &ContextsChainPredictionMixer{luts: luts}
	edgeDims := EdgeMixerDimensions()
	nodeDims := NodeMixerDimensions()
	for order := 0; order <= maxOrder; order++ {
		c.singleContextPredictors = append(c.singleContextPredictors, NewSingleContextPredictor(luts))
		c.edgeMixerKits = append(c.edgeMixerKits, NewMixersWithIndexer(4, mixing.MixerInitDominantFirst, edgeDims...))
		c.nodeMixerKits = append(c.nodeMixerKits, NewMixersWithIndexer(3, mixing.MixerInitDominantFirst, nodeDims...))
	}
	return c
}

// Predict runs every active order's elementary predictor in sequence,
// lowest order first, and returns the final order's mixed probability.
func (c *ContextsChainPredictionMixer) Predict(contexts *history.CollectedContextStates, contextByte uint8) (fixedpoint.FractOnlyU32, fixedpoint.StretchedProbD, error) {
	lastSq, lastSt := fixedpoint.FractOnlyU32Half, fixedpoint.StretchedProbDZero
	maxOrder := contexts.Len() - 1
	for order := 0; order < contexts.Len(); order++ {
		ctx := contexts.At(order)
		isMaxOrderResult := 0
		if order == maxOrder {
			isMaxOrderResult = 1
		}
		compareResult := 0
		if order > 0 {
			compareResult = compareContextStates(contexts.At(order-1), ctx)
		}
		ib := util.NewIndexBuilder().
			WithSubIndex(2, isMaxOrderResult).
			WithSubIndex(maxCompareResult+1, compareResult)

		var sq fixedpoint.FractOnlyU32
		var st fixedpoint.StretchedProbD
		var err error
		if ctx.IsForNode() {
			sq, st, err = c.singleContextPredictors[order].PredictNode(c.nodeMixerKits[order], ctx, lastSq, lastSt, ib, c.luts)
		} else {
			sq, st, err = c.singleContextPredictors[order].PredictEdge(c.edgeMixerKits[order], ctx, contextByte, lastSq, lastSt, ib, c.luts)
		}
		if err != nil {
			return fixedpoint.FractOnlyU32{}, fixedpoint.StretchedProbD{}, err
		}
		lastSq, lastSt = sq, st
	}
	return lastSq, lastSt, nil
}

// Update feeds the observed bit back through every active order's
// elementary predictor and mixer, returning one CostTrackers per node
// context encountered (edge contexts have no cost trackers to report,
// since they have no node-level estimator to compare against).
func (c *ContextsChainPredictionMixer) Update(contexts *history.CollectedContextStates, contextByte uint8, b bit.Bit) ([]estimators.CostTrackers, error) {
	var costs []estimators.CostTrackers
	for order := 0; order < contexts.Len(); order++ {
		ctx := contexts.At(order)
		if ctx.IsForNode() {
			cost, err := c.singleContextPredictors[order].UpdateNode(c.nodeMixerKits[order], ctx, b, c.luts)
			if err != nil {
				return nil, err
			}
			costs = append(costs, cost)
		} else {
			if err := c.singleContextPredictors[order].UpdateEdge(c.edgeMixerKits[order], ctx, contextByte, b, c.luts); err != nil {
				return nil, err
			}
		}
	}
	return costs, nil
}
