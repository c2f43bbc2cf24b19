// Package errs declares the sentinel error kinds shared by every layer of
// the compressor. Call sites wrap one of these with github.com/pkg/errors
// so a diagnostic can name both the failing component and the offending
// value, while callers higher up the stack can still test the kind with
// errors.Is.
package errs

import "github.com/pkg/errors"

var (
	// ErrNumericRange is returned by the fixed-point kernel when a checked
	// add, sub or shift would overflow.
	ErrNumericRange = errors.New("numeric range error")

	// ErrOutOfBounds is returned when an index, mixer slot or fixed-point
	// value falls outside its declared bounds.
	ErrOutOfBounds = errors.New("out of bounds")

	// ErrPairing is returned when update is called without a matching
	// predict, or predict is called twice without an update. Calling
	// StartNewByte in the middle of a byte is not detected.
	ErrPairing = errors.New("predict/update pairing violated")

	// ErrIntegrity is returned by optional suffix-tree integrity checks.
	ErrIntegrity = errors.New("structural integrity violated")

	// ErrIO wraps failures from the coder's underlying reader or writer.
	ErrIO = errors.New("coder i/o error")
)
