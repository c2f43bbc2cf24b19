package util

import (
	"github.com/pkg/errors"

	"github.com/colewyeth/paqmix/errs"
)

// PendingFlag guards a predict/update pairing: Fill must be called
// exactly once between two calls to Drain. It backs the mixer's
// inputs_mask, the APM's saved-context flag and the finalizer's saved
// mixer-row flag; the value being guarded is carried by the caller
// alongside the flag rather than boxed here, since Go 1.17 has no
// generics to hold it polymorphically.
type PendingFlag struct {
	filled bool
}

// Fill marks the flag filled, failing with ErrPairing if it already was.
func (p *PendingFlag) Fill() error {
	if p.filled {
		return errors.Wrap(errs.ErrPairing, "predict called twice without an intervening update")
	}
	p.filled = true
	return nil
}

// Drain marks the flag empty, failing with ErrPairing if it already was.
func (p *PendingFlag) Drain() error {
	if !p.filled {
		return errors.Wrap(errs.ErrPairing, "update called without a preceding predict")
	}
	p.filled = false
	return nil
}

// IsFilled reports the current state without mutating it.
func (p *PendingFlag) IsFilled() bool { return p.filled }
