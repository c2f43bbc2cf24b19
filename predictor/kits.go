// Package predictor assembles the elementary estimators, the per-order
// mixers and the post-process finalizer into the end-to-end bit
// predictor the coder drives: one predict/update pair per bit, fed by
// whatever history.HistorySource is tracking the sliding window.
package predictor

import (
	"github.com/colewyeth/paqmix/bit"
	"github.com/colewyeth/paqmix/estimators"
	"github.com/colewyeth/paqmix/fixedpoint"
	"github.com/colewyeth/paqmix/lut"
	"github.com/colewyeth/paqmix/mixing"
	"github.com/colewyeth/paqmix/util"
)

// EstimatorsWithIndexer owns one DeceleratingEstimator per point of a
// small flattened context, the way single-context prediction tables are
// addressed throughout this package: build the index with an
// IndexBuilder, Predict, then Update with the same index.
type EstimatorsWithIndexer struct {
	table   []estimators.DeceleratingEstimator
	pending util.PendingFlag
	index   int
}

// NewEstimatorsWithIndexer allocates one estimator per point in the
// dimensions product.
func NewEstimatorsWithIndexer(dims ...int) *EstimatorsWithIndexer {
	e := &EstimatorsWithIndexer{table: make([]estimators.DeceleratingEstimator, util.ArraySize(dims...))}
	for i := range e.table {
		e.table[i] = estimators.NewDeceleratingEstimator()
	}
	return e
}

// Predict returns the table entry at index, remembering it for the
// matching Update.
func (e *EstimatorsWithIndexer) Predict(luts *lut.LookUpTables, index int) (fixedpoint.FractOnlyU32, fixedpoint.StretchedProbD, error) {
	if err := e.pending.Fill(); err != nil {
		return fixedpoint.FractOnlyU32{}, fixedpoint.StretchedProbD{}, err
	}
	e.index = index
	sq := e.table[index].Prediction()
	st := luts.Stretch().Stretch(sq)
	return sq, st, nil
}

// Update folds the observed bit into the entry addressed by the last
// Predict call.
func (e *EstimatorsWithIndexer) Update(b bit.Bit, rates *lut.DeceleratingEstimatorRates) error {
	if err := e.pending.Drain(); err != nil {
		return err
	}
	e.table[e.index] = e.table[e.index].Update(rates, b)
	return nil
}

// MixersWithIndexer owns one logistic mixer per point of a small
// flattened context, so a chain-predictor stage can keep a distinct set
// of learned weights per (order, agreement-with-neighbour,
// quantized-context) bucket instead of sharing one global mixer.
type MixersWithIndexer struct {
	mixers  []*mixing.Mixer
	pending util.PendingFlag
	index   int
}

// NewMixersWithIndexer allocates one slots-wide mixer per point in the
// dimensions product.
func NewMixersWithIndexer(slots int, mode mixing.MixerInitializationMode, dims ...int) *MixersWithIndexer {
	m := &MixersWithIndexer{mixers: make([]*mixing.Mixer, util.ArraySize(dims...))}
	for i := range m.mixers {
		m.mixers[i] = mixing.New(slots, mode)
	}
	return m
}

// Select picks the mixer this round will mix, returning it so the
// caller can SetInput every slot before calling MixAll.
func (m *MixersWithIndexer) Select(index int) *mixing.Mixer {
	m.index = index
	return m.mixers[index]
}

// MixAll mixes the selected mixer's inputs, remembering the result for
// the matching Update.
func (m *MixersWithIndexer) MixAll(squash *lut.SquashLut) (fixedpoint.FractOnlyU32, fixedpoint.StretchedProbD, error) {
	if err := m.pending.Fill(); err != nil {
		return fixedpoint.FractOnlyU32{}, fixedpoint.StretchedProbD{}, err
	}
	return m.mixers[m.index].MixAll(squash)
}

// Update feeds the observed bit back into the selected mixer and clears
// its inputs for the next round.
func (m *MixersWithIndexer) Update(b bit.Bit, maxFactorIdx uint32, rates *lut.DeceleratingEstimatorRates) error {
	if err := m.pending.Drain(); err != nil {
		return err
	}
	return m.mixers[m.index].UpdateAndReset(b, maxFactorIdx, rates)
}

// CurrentMixer exposes the mixer Select last picked, for reading back
// per-slot predictions after MixAll (the cost trackers need to compare
// two of the mixed-in predictions directly, not just the mixed result).
func (m *MixersWithIndexer) CurrentMixer() *mixing.Mixer {
	return m.mixers[m.index]
}
