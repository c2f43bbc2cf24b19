package predictor

import (
	"io"

	"github.com/colewyeth/paqmix/bit"
	"github.com/colewyeth/paqmix/coding"
	"github.com/colewyeth/paqmix/estimators"
	"github.com/colewyeth/paqmix/history"
	"github.com/colewyeth/paqmix/history/tree"
	"github.com/colewyeth/paqmix/lut"
	"github.com/colewyeth/paqmix/util"
)

// MaxOrder is the deepest context order the suffix tree tracks.
const MaxOrder = 20

// Predictor is the end-to-end bit predictor: it wraps the suffix tree,
// the per-order chain mixer and the post-process finalizer behind one
// predict/update pair per bit, the same contract coding.Encoder and
// coding.Decoder drive.
type Predictor struct {
	luts *lut.LookUpTables

	lastBytes  *util.LastBytesCache
	treeSource *tree.Tree
	contexts   *history.CollectedContextStates
	chain      *ContextsChainPredictionMixer
	finalizer  *PredictionFinalizer
	statistics *PredictionStatistics

	pending        util.PendingFlag
	lastPrediction coding.FinalProbability
}

// New builds a predictor over a sliding window of windowCapacity bytes,
// running the finalizer in the given mode.
func New(windowCapacity uint32, mode FinalizerMode, luts *lut.LookUpTables) *Predictor {
	return &Predictor{
		luts:       luts,
		lastBytes:  util.NewLastBytesCache(),
		treeSource: tree.New(windowCapacity, MaxOrder, luts),
		contexts:   history.NewCollectedContextStates(MaxOrder),
		chain:      NewContextsChainPredictionMixer(MaxOrder, luts),
		finalizer:  NewPredictionFinalizer(mode, luts),
		statistics: NewPredictionStatistics(coding.NewLog2Estimator(luts.Log2().Log2U32)),
	}
}

// StartNewByte must be called once before the first bit of every byte,
// including the very first byte of input.
func (p *Predictor) StartNewByte() {
	p.lastBytes.StartNewByte()
	p.treeSource.StartNewByte()
	p.statistics.StartNewByte(p.lastBytes)
}

// Predict gathers every currently active context, mixes them through the
// chain predictor and refines the result through the finalizer,
// returning the probability the coder should use for this bit. It must
// be paired with exactly one following Update call before the next
// Predict.
func (p *Predictor) Predict() (coding.FinalProbability, error) {
	if err := p.pending.Fill(); err != nil {
		return coding.FinalProbability{}, err
	}

	p.contexts.Reset()
	p.treeSource.GatherStates(p.treeSource.BitIndex(), p.contexts)

	contextsCount := p.contexts.Len()
	contextByte := p.lastBytes.UnfinishedByte().Raw()

	mixedSq, mixedSt, err := p.chain.Predict(p.contexts, contextByte)
	if err != nil {
		return coding.FinalProbability{}, err
	}
	final, err := p.finalizer.Refine(mixedSq, mixedSt, contextsCount, p.lastBytes)
	if err != nil {
		return coding.FinalProbability{}, err
	}
	p.lastPrediction = final
	return final, nil
}

// Update feeds the observed bit back through every stage Predict
// consulted, in the order each stage needs: the chain predictor first
// (it alone knows how each context's own estimator should have scored
// the bit), then the tree (seeded with the deepest context's cost
// reading), then the finalizer and the statistics tracker. Updating
// lastBytes must happen last, since every earlier stage's update still
// needs to see the previous bit's byte-history hashes.
func (p *Predictor) Update(b bit.Bit) error {
	if err := p.pending.Drain(); err != nil {
		return err
	}

	contextsCount := p.contexts.Len()
	final := p.lastPrediction

	costs, err := p.chain.Update(p.contexts, p.lastBytes.UnfinishedByte().Raw(), b)
	if err != nil {
		return err
	}
	var newCost estimators.CostTrackers
	if len(costs) > 0 {
		newCost = costs[len(costs)-1]
	}
	if err := p.treeSource.ProcessInputBit(b, newCost); err != nil {
		return err
	}

	if err := p.finalizer.Update(b, contextsCount, p.lastBytes); err != nil {
		return err
	}

	unaryOrders := contextsCount - len(costs)
	p.statistics.OnNextBit(b, contextsCount-1, unaryOrders, final)

	p.lastBytes.OnNextBit(b)
	return nil
}

// PrintState writes a short diagnostic report of accumulated coding
// statistics.
func (p *Predictor) PrintState(w io.Writer) {
	p.statistics.PrintTotalCost(w)
	p.statistics.PrintCostsAndOccurrencesPerContextType(w)
	p.statistics.PrintCostsAndOccurrencesPerSymbolValue(w)
}
