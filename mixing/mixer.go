// Package mixing implements the logistic mixers and the Adaptive
// Probability Map that combine elementary per-context predictions into
// one probability per chain-predictor stage.
package mixing

import (
	"github.com/pkg/errors"

	"github.com/colewyeth/paqmix/bit"
	"github.com/colewyeth/paqmix/errs"
	"github.com/colewyeth/paqmix/fixedpoint"
	"github.com/colewyeth/paqmix/lut"
)

// MixerInitializationMode selects how a mixer's weights start out.
type MixerInitializationMode int

const (
	// MixerInitZero starts every weight neutral (no input trusted yet).
	MixerInitZero MixerInitializationMode = iota
	// MixerInitDominantFirst starts the first slot's weight at 1 and
	// every other slot at 0, so the mixer begins by trusting its first,
	// usually lowest-order, input outright.
	MixerInitDominantFirst
	// MixerInitEqual starts every slot's weight at 1/n, so the mixer
	// begins by trusting every input equally instead of favouring one.
	MixerInitEqual
)

type mixerSlot struct {
	weight       fixedpoint.MixerWeight
	predictionSq fixedpoint.FractOnlyU32
	predictionSt fixedpoint.StretchedProbD
}

// Mixer is a logistic combiner of N stretched-probability inputs. The
// source represents each fixed size (Mixer1..Mixer5) and the variable
// size (MixerN) as distinct types; here a single implementation serves
// every size, since unlike the fixed-point scalars the slot count has no
// semantic weight beyond its length.
type Mixer struct {
	slots             []mixerSlot
	filled            []bool
	filledCount       int
	updateFactorIndex uint32
	lastMixSq         fixedpoint.FractOnlyU32
	lastMixSt         fixedpoint.StretchedProbD
	mixed             bool
}

// New builds a mixer with n input slots, initialised per mode.
func New(n int, mode MixerInitializationMode) *Mixer {
	m := &Mixer{
		slots:  make([]mixerSlot, n),
		filled: make([]bool, n),
	}
	switch {
	case mode == MixerInitDominantFirst && n > 0:
		m.slots[0].weight = fixedpoint.NewMixerWeightUnchecked(1 << fixedpoint.MixerWeightFractionalBits)
	case mode == MixerInitEqual && n > 0:
		w := fixedpoint.NewMixerWeightUnchecked(int32((1 << fixedpoint.MixerWeightFractionalBits) / n))
		for i := range m.slots {
			m.slots[i].weight = w
		}
	}
	return m
}

// Size returns the number of input slots.
func (m *Mixer) Size() int { return len(m.slots) }

// SlotPrediction returns the stretched-probability input last set for
// slot i, so callers can compare individual inputs against each other
// or against the mixed result after MixAll.
func (m *Mixer) SlotPrediction(i int) fixedpoint.StretchedProbD { return m.slots[i].predictionSt }

// SlotPredictionSq returns the squashed-probability input last set for
// slot i.
func (m *Mixer) SlotPredictionSq(i int) fixedpoint.FractOnlyU32 { return m.slots[i].predictionSq }

// SetInput fills slot i for this round. It fails if the slot is already
// set.
func (m *Mixer) SetInput(i int, sq fixedpoint.FractOnlyU32, st fixedpoint.StretchedProbD) error {
	if i < 0 || i >= len(m.slots) {
		return errors.Wrapf(errs.ErrOutOfBounds, "mixer slot %d out of range [0,%d)", i, len(m.slots))
	}
	if m.filled[i] {
		return errors.Wrapf(errs.ErrOutOfBounds, "mixer slot %d set twice before mixing", i)
	}
	m.slots[i].predictionSq = sq
	m.slots[i].predictionSt = st
	m.filled[i] = true
	m.filledCount++
	return nil
}

// MixAll requires every slot to be set, computes the weighted sum of
// stretched inputs in wide arithmetic, and returns both the squashed and
// stretched mixed prediction.
func (m *Mixer) MixAll(squash *lut.SquashLut) (fixedpoint.FractOnlyU32, fixedpoint.StretchedProbD, error) {
	if m.filledCount != len(m.slots) {
		return fixedpoint.FractOnlyU32{}, fixedpoint.StretchedProbD{}, errors.Wrapf(errs.ErrPairing, "mixer mixed with %d/%d inputs set", m.filledCount, len(m.slots))
	}
	const wideBits = fixedpoint.MixerWeightFractionalBits + fixedpoint.StretchedProbDFractionalBits
	accRaw := int64(0)
	for _, s := range m.slots {
		wide := int64(s.weight.Raw()) * int64(s.predictionSt.Raw())
		accRaw += fixedpoint.ScaledDownI64(wide, wideBits, fixedpoint.StretchedProbQFractionalBits)
	}
	q := fixedpoint.NewStretchedProbQ(accRaw, fixedpoint.StretchedProbQFractionalBits)
	st := q.ToStretchedProbD()
	sq := squash.Squash(st)
	m.lastMixSq, m.lastMixSt, m.mixed = sq, st, true
	return sq, st, nil
}

// UpdateAndReset feeds back the true bit, nudges every weight by its
// contribution to the mixing error, advances the shared update-rate
// schedule, and clears the input mask for the next round.
func (m *Mixer) UpdateAndReset(b bit.Bit, maxFactorIdx uint32, rates *lut.DeceleratingEstimatorRates) error {
	if !m.mixed {
		return errors.Wrap(errs.ErrPairing, "mixer updated without a preceding mix_all")
	}
	errorValue := m.lastMixSq
	if b == bit.Zero {
		errorValue = m.lastMixSq.Flip()
	}
	half := fixedpoint.NewFractOnlyU32Unchecked(1 << 30)
	rate := rates.Rate(m.updateFactorIndex)
	factor := fixedpoint.MulFractOnlyU32(rate, half)
	deltaMag := fixedpoint.MulFractOnlyU32(errorValue, factor)

	const wideBits = fixedpoint.StretchedProbDFractionalBits + fixedpoint.FractOnlyU32FractionalBits
	for i := range m.slots {
		st := m.slots[i].predictionSt
		wide := int64(st.Raw()) * int64(deltaMag.Raw())
		deltaRaw := fixedpoint.ScaledDownI32FromI64(wide, wideBits, fixedpoint.MixerWeightFractionalBits)
		delta := fixedpoint.NewMixerWeightUnchecked(deltaRaw)
		if b == bit.One {
			delta = delta.Neg()
		}
		m.slots[i].weight = m.slots[i].weight.Add(delta).Clamped()
		m.filled[i] = false
	}
	m.filledCount = 0
	m.mixed = false
	if m.updateFactorIndex < maxFactorIdx {
		m.updateFactorIndex++
	}
	return nil
}
