package coding

import (
	"io"

	"github.com/pkg/errors"

	"github.com/colewyeth/paqmix/errs"
)

// Decoder is the mirror of Encoder: it keeps a running code register
// built from the input bytes and narrows it against the same bound
// computation the encoder used, recovering each bit.
type Decoder struct {
	r       io.Reader
	rcRange uint32
	code    uint32
}

// NewDecoder wraps r with a fresh decoder, consuming the encoder's
// five-byte initial flush (the first of which is always the encoder's
// dummy starting cache byte and carries no information).
func NewDecoder(r io.Reader) (*Decoder, error) {
	d := &Decoder{r: r, rcRange: rangeInitial}
	var buf [5]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, errors.Wrap(errs.ErrIO, err.Error())
	}
	for i := 1; i < 5; i++ {
		d.code = d.code<<8 | uint32(buf[i])
	}
	return d, nil
}

// DecodeBit recovers one bit at the given probability of 0.
func (d *Decoder) DecodeBit(p FinalProbability) (bool, error) {
	bound := (d.rcRange >> FinalProbabilityFractionalBits) * p.Raw()
	var b bool
	if d.code < bound {
		d.rcRange = bound
		b = false
	} else {
		d.code -= bound
		d.rcRange -= bound
		b = true
	}
	for d.rcRange < rangeTopValue {
		next, err := d.readByte()
		if err != nil {
			return false, err
		}
		d.code = d.code<<8 | uint32(next)
		d.rcRange <<= 8
	}
	return b, nil
}

// DecodeRareEvent mirrors Encoder.EncodeRareEvent.
func (d *Decoder) DecodeRareEvent() (bool, error) {
	p, err := NewFinalProbabilityRaw(rareEventProbabilityRaw)
	if err != nil {
		return false, err
	}
	return d.DecodeBit(p)
}

func (d *Decoder) readByte() (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(d.r, buf[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return 0, nil
		}
		return 0, errors.Wrap(errs.ErrIO, err.Error())
	}
	return buf[0], nil
}
