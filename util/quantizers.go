package util

import "math/bits"

// occurrenceCountMaxInput bounds the quantizer: it must cover every
// value an occurrence counter (capped at 63, see MAX_OCCURRENCE_COUNT)
// can take.
const occurrenceCountMaxInput = 63

// OccurrenceCountQuantizer buckets an occurrence count into a small,
// log-spaced index: the top bit position contributes two buckets (one
// extra significand bit), so small counts get fine resolution and large
// ones get coarse resolution.
type OccurrenceCountQuantizer struct{}

// Quantize maps n onto [0, MaxOutput()].
func (OccurrenceCountQuantizer) Quantize(n uint32) int {
	if n < 2 {
		return 0
	}
	pos := 31 - bits.LeadingZeros32(n)
	significand := (n >> uint(pos-1)) & 1
	return pos*2 + int(significand)
}

// MaxOutput returns the largest bucket index this quantizer can produce
// for an occurrence count bounded by occurrenceCountMaxInput.
func (q OccurrenceCountQuantizer) MaxOutput() int {
	return q.Quantize(occurrenceCountMaxInput)
}
