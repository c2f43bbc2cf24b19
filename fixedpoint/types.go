package fixedpoint

import (
	"github.com/pkg/errors"

	"github.com/colewyeth/paqmix/errs"
)

// FractOnlyU32 holds a probability-shaped value in [0, 1), represented
// with 31 fractional bits. It is the currency the suffix tree, the
// estimators, the mixers and the APM all exchange as "probability of
// bit 0".
type FractOnlyU32 struct {
	raw uint32
}

// FractOnlyU32FractionalBits is the type's fixed fractional-bit count.
const FractOnlyU32FractionalBits uint8 = 31

var (
	FractOnlyU32Zero     = FractOnlyU32{raw: 0}
	FractOnlyU32Half     = FractOnlyU32{raw: 1 << 30}
	FractOnlyU32OneUnsafe = FractOnlyU32{raw: 1 << 31} // exceeds the open interval; used only as an additive identity in interpolation math, per the source.
)

// NewFractOnlyU32Unchecked constructs a value already expressed with 31
// fractional bits, without bounds checking.
func NewFractOnlyU32Unchecked(raw uint32) FractOnlyU32 { return FractOnlyU32{raw: raw} }

// NewFractOnlyU32 rescales raw (expressed with fromBits fractional bits)
// into a FractOnlyU32, failing with ErrOutOfBounds if the scaled value is
// 0 or 2^31 or more (both outside the type's open interval).
func NewFractOnlyU32(raw uint32, fromBits uint8) (FractOnlyU32, error) {
	scaled := ScaledDownU32(raw, fromBits, FractOnlyU32FractionalBits)
	v := FractOnlyU32{raw: scaled}
	if ChecksEnabled && !v.WithinBounds() {
		return FractOnlyU32{}, errors.Wrapf(errs.ErrOutOfBounds, "FractOnlyU32 raw %d out of (0, 2^31)", scaled)
	}
	return v, nil
}

func (v FractOnlyU32) Raw() uint32 { return v.raw }

// WithinBounds reports whether the value is strictly inside (0, 2^31).
func (v FractOnlyU32) WithinBounds() bool {
	return v.raw > 0 && v.raw < (1<<31)
}

func (v FractOnlyU32) Add(o FractOnlyU32) FractOnlyU32 {
	sum, err := CheckAddU32(v.raw, o.raw)
	if err != nil {
		return FractOnlyU32{raw: ^uint32(0) >> 1}
	}
	return FractOnlyU32{raw: sum}
}

func (v FractOnlyU32) Sub(o FractOnlyU32) FractOnlyU32 {
	diff, err := CheckSubU32(v.raw, o.raw)
	if err != nil {
		return FractOnlyU32{raw: 0}
	}
	return FractOnlyU32{raw: diff}
}

// Flip returns 1 - v (v's probability-of-1 complement), using the raw
// identity 2^31 - raw rather than a checked sub so it is exact at the
// boundaries.
func (v FractOnlyU32) Flip() FractOnlyU32 {
	return FractOnlyU32{raw: (1 << 31) - v.raw}
}

func (v FractOnlyU32) Less(o FractOnlyU32) bool    { return v.raw < o.raw }
func (v FractOnlyU32) Greater(o FractOnlyU32) bool { return v.raw > o.raw }
func (v FractOnlyU32) Equal(o FractOnlyU32) bool   { return v.raw == o.raw }

func (v FractOnlyU32) Min(o FractOnlyU32) FractOnlyU32 {
	if v.raw < o.raw {
		return v
	}
	return o
}

func (v FractOnlyU32) Max(o FractOnlyU32) FractOnlyU32 {
	if v.raw > o.raw {
		return v
	}
	return o
}

func (v FractOnlyU32) AsFloat64() float64 {
	return float64(v.raw) / float64(uint64(1)<<31)
}

// MulFractOnlyU32 multiplies two FractOnlyU32 values, producing a third
// with the same 31-bit scale.
func MulFractOnlyU32(a, b FractOnlyU32) FractOnlyU32 {
	return FractOnlyU32{raw: MulU32(a.raw, FractOnlyU32FractionalBits, b.raw, FractOnlyU32FractionalBits, FractOnlyU32FractionalBits)}
}

// StretchedProbD is a stretched (logit-space) probability, clamped to
// [-AbsLimit, +AbsLimit], with 21 fractional bits.
type StretchedProbD struct {
	raw int32
}

const (
	StretchedProbDFractionalBits uint8 = 21
	StretchedProbAbsLimit        int32 = 12
)

var (
	StretchedProbDZero = StretchedProbD{raw: 0}
	StretchedProbDMin  = StretchedProbD{raw: -(StretchedProbAbsLimit << StretchedProbDFractionalBits)}
	StretchedProbDMax  = StretchedProbD{raw: StretchedProbAbsLimit << StretchedProbDFractionalBits}
)

func NewStretchedProbD(raw int32, fromBits uint8) StretchedProbD {
	scaled := ScaledDownI32(raw, fromBits, StretchedProbDFractionalBits)
	return StretchedProbD{raw: scaled}.Clamped()
}

func (s StretchedProbD) Raw() int32 { return s.raw }

// Clamped saturates s to [-AbsLimit, AbsLimit] in the type's own scale.
func (s StretchedProbD) Clamped() StretchedProbD {
	min := StretchedProbDMin.raw
	max := StretchedProbDMax.raw
	if s.raw < min {
		return StretchedProbD{raw: min}
	}
	if s.raw > max {
		return StretchedProbD{raw: max}
	}
	return s
}

func (s StretchedProbD) Add(o StretchedProbD) StretchedProbD {
	v, err := CheckAddI32(s.raw, o.raw)
	if err != nil {
		return StretchedProbDMax
	}
	return StretchedProbD{raw: v}.Clamped()
}

func (s StretchedProbD) Sub(o StretchedProbD) StretchedProbD {
	v, err := CheckSubI32(s.raw, o.raw)
	if err != nil {
		return StretchedProbDMin
	}
	return StretchedProbD{raw: v}.Clamped()
}

func (s StretchedProbD) Neg() StretchedProbD { return StretchedProbD{raw: -s.raw} }

func (s StretchedProbD) Ulp() StretchedProbD { return StretchedProbD{raw: 1} }

func (s StretchedProbD) Less(o StretchedProbD) bool { return s.raw < o.raw }

func (s StretchedProbD) AsFloat64() float64 {
	return float64(s.raw) / float64(int64(1)<<StretchedProbDFractionalBits)
}

// IntervalStopsCount returns the number of interval stops an APM built
// with the given stretched-index precision will hold: 2*AbsLimit*2^(7-s) + 1.
func IntervalStopsCount(stretchedFractIndexBits uint8) int {
	return IntervalsCount(stretchedFractIndexBits) + 1
}

// IntervalsCount returns the number of intervals (one less than stops).
func IntervalsCount(stretchedFractIndexBits uint8) int {
	return int(2*StretchedProbAbsLimit) << (7 - stretchedFractIndexBits)
}

// ToIntervalIndex maps s onto [0, IntervalsCount(scaleDownBits)], the
// same quantisation the finalizer's adaptive mixer-row selection and the
// APM weighting LUT both use.
func (s StretchedProbD) ToIntervalIndex(scaleDownBits uint8) int {
	offset := IntervalStopsCount(scaleDownBits) / 2
	indexScale := StretchedProbDFractionalBits - scaleDownBits
	idx := int(s.raw>>indexScale) + offset
	if idx < 0 {
		idx = 0
	}
	max := IntervalStopsCount(scaleDownBits) - 1
	if idx > max {
		idx = max
	}
	return idx
}

// StretchedProbQ is the wide accumulator form of StretchedProbD, with 40
// fractional bits, used while summing many mixer-weighted terms before
// rounding back down.
type StretchedProbQ struct {
	raw int64
}

const StretchedProbQFractionalBits uint8 = 40

func NewStretchedProbQ(raw int64, fromBits uint8) StretchedProbQ {
	return StretchedProbQ{raw: ScaledDownI64(raw, fromBits, StretchedProbQFractionalBits)}
}

func (s StretchedProbQ) Raw() int64 { return s.raw }

// Clamped converts to a StretchedProbD and back, i.e. saturates to the
// representable stretched range.
func (s StretchedProbQ) Clamped() StretchedProbQ {
	min := int64(StretchedProbDMin.raw) << (StretchedProbQFractionalBits - StretchedProbDFractionalBits)
	max := int64(StretchedProbDMax.raw) << (StretchedProbQFractionalBits - StretchedProbDFractionalBits)
	if s.raw < min {
		return StretchedProbQ{raw: min}
	}
	if s.raw > max {
		return StretchedProbQ{raw: max}
	}
	return s
}

func (s StretchedProbQ) ToStretchedProbD() StretchedProbD {
	c := s.Clamped()
	return StretchedProbD{raw: ScaledDownI32FromI64(c.raw, StretchedProbQFractionalBits, StretchedProbDFractionalBits)}
}

func (s StretchedProbQ) Add(o StretchedProbQ) StretchedProbQ {
	return StretchedProbQ{raw: s.raw + o.raw}
}

// Log2D is a base-2 logarithm with 11 fractional bits, signed.
type Log2D struct {
	raw int32
}

const Log2DFractionalBits uint8 = 11

func NewLog2DUnchecked(raw int32) Log2D { return Log2D{raw: raw} }

func (l Log2D) Raw() int32 { return l.raw }

func (l Log2D) Neg() Log2D { return Log2D{raw: -l.raw} }

func (l Log2D) AsFloat64() float64 {
	return float64(l.raw) / float64(int64(1)<<Log2DFractionalBits)
}

// Log2Q is the 64-bit accumulator form of Log2D, also with 11 fractional
// bits, used to sum per-bit coding costs without losing precision.
type Log2Q struct {
	raw int64
}

func NewLog2QUnchecked(raw int64) Log2Q { return Log2Q{raw: raw} }

func (l Log2Q) Raw() int64 { return l.raw }

func (l Log2Q) Add(o Log2Q) Log2Q { return Log2Q{raw: l.raw + o.raw} }

func (l Log2Q) AddD(d Log2D) Log2Q { return Log2Q{raw: l.raw + int64(d.raw)} }

func (l Log2Q) AsFloat64() float64 {
	return float64(l.raw) / float64(int64(1)<<Log2DFractionalBits)
}

// MixerWeight is a signed, clamped weight a mixer applies to one of its
// stretched-probability inputs.
type MixerWeight struct {
	raw int32
}

const (
	MixerWeightFractionalBits uint8 = 16
	mixerWeightLimit          int32 = 1 << 20
)

func NewMixerWeightUnchecked(raw int32) MixerWeight { return MixerWeight{raw: raw} }

func (w MixerWeight) Raw() int32 { return w.raw }

func (w MixerWeight) Clamped() MixerWeight {
	if w.raw > mixerWeightLimit {
		return MixerWeight{raw: mixerWeightLimit}
	}
	if w.raw < -mixerWeightLimit {
		return MixerWeight{raw: -mixerWeightLimit}
	}
	return w
}

func (w MixerWeight) Add(o MixerWeight) MixerWeight {
	v, err := CheckAddI32(w.raw, o.raw)
	if err != nil {
		if w.raw > 0 {
			return MixerWeight{raw: mixerWeightLimit}
		}
		return MixerWeight{raw: -mixerWeightLimit}
	}
	return MixerWeight{raw: v}.Clamped()
}

func (w MixerWeight) Neg() MixerWeight { return MixerWeight{raw: -w.raw} }
