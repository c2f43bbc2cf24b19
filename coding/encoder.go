package coding

import (
	"io"

	"github.com/pkg/errors"

	"github.com/colewyeth/paqmix/errs"
)

// rangeTopValue is the normalisation threshold: once the range falls
// below this, at least one more byte of output is fully determined.
const rangeTopValue = 0x00800000

// rangeInitial is the coder's starting range, the full 31-bit span.
const rangeInitial = 0x7fffffff

// rareEventProbabilityRaw is the fixed FinalProbability used for the
// coder's rare-event channel: "did not happen" is overwhelmingly likely.
const rareEventProbabilityRaw = (1 << FinalProbabilityFractionalBits) - 16

// Encoder is a carry-propagating binary range coder. Each byte is held
// back by one normalisation step (in cache/cacheSize) so that a carry
// produced by a later bit can still be folded into an already-decided
// byte before it is actually written; runs of bytes that could still
// turn over (0xff) are queued in cacheSize until the carry is resolved
// one way or the other.
type Encoder struct {
	w         io.Writer
	rcRange   uint32
	low       uint64
	cache     byte
	cacheSize uint64
}

// NewEncoder wraps w with a fresh encoder.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w, rcRange: rangeInitial, cacheSize: 1}
}

// EncodeBit consumes one bit at the given probability of 0.
func (e *Encoder) EncodeBit(p FinalProbability, b bool) error {
	bound := (e.rcRange >> FinalProbabilityFractionalBits) * p.Raw()
	if !b {
		e.rcRange = bound
	} else {
		e.low += uint64(bound)
		e.rcRange -= bound
	}
	for e.rcRange < rangeTopValue {
		if err := e.shiftLow(); err != nil {
			return err
		}
		e.rcRange <<= 8
	}
	return nil
}

// EncodeRareEvent encodes a boolean assumed overwhelmingly likely to be
// false, at a fixed skewed probability. The production predictor never
// calls this; it exists for the coder's own round-trip tests.
func (e *Encoder) EncodeRareEvent(happened bool) error {
	p, err := NewFinalProbabilityRaw(rareEventProbabilityRaw)
	if err != nil {
		return err
	}
	return e.EncodeBit(p, happened)
}

func (e *Encoder) shiftLow() error {
	if uint32(e.low>>32) != 0 || e.low < 0xff000000 {
		temp := e.cache
		for {
			if err := e.writeByte(temp + byte(e.low>>32)); err != nil {
				return err
			}
			temp = 0xff
			e.cacheSize--
			if e.cacheSize == 0 {
				break
			}
		}
		e.cache = byte(e.low >> 24)
	}
	e.cacheSize++
	e.low = (e.low << 8) & 0xffffffff
	return nil
}

func (e *Encoder) writeByte(b byte) error {
	_, err := e.w.Write([]byte{b})
	if err != nil {
		return errors.Wrap(errs.ErrIO, err.Error())
	}
	return nil
}

// Finish flushes the remaining buffered state, five bytes' worth, so the
// decoder's lookahead always has enough bytes to resolve the last bits.
func (e *Encoder) Finish() error {
	for i := 0; i < 5; i++ {
		if err := e.shiftLow(); err != nil {
			return err
		}
	}
	return nil
}
