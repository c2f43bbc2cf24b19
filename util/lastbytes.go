package util

import "github.com/colewyeth/paqmix/bit"

// UnfinishedByte is the partial current byte, represented with the same
// leading-1-sentinel scheme as state.BitHistory: it starts at 1 and
// accumulates one bit per call to OnNextBit, so after k<8 bits its value
// is in [1, 255]. The 8th bit overflows the sentinel out of the uint8,
// leaving exactly the completed byte's 8 data bits behind.
type UnfinishedByte uint8

// EmptyUnfinishedByte is the value at the start of a byte, before any
// bits of it have been seen.
const EmptyUnfinishedByte UnfinishedByte = 1

func (u UnfinishedByte) next(b bit.Bit) UnfinishedByte {
	return UnfinishedByte(uint8(u)<<1 | b.ToU8())
}

// Raw returns the underlying value, in [1, 255] while the byte is still
// in progress.
func (u UnfinishedByte) Raw() uint8 { return uint8(u) }

// LastBytesCache tracks the last three completed input bytes plus the
// bits of the byte currently being read, and derives the small hashed
// secondary contexts the finalizer's order-1/2/3 APMs are keyed by.
type LastBytesCache struct {
	unfinished UnfinishedByte
	byte1      uint8 // most recently completed byte
	byte2      uint8
	byte3      uint8
}

// NewLastBytesCache returns an empty cache, as at the start of input:
// every completed byte is zero, and so is the in-progress byte until the
// first StartNewByte.
func NewLastBytesCache() *LastBytesCache {
	return &LastBytesCache{}
}

// StartNewByte completes the in-progress byte and rotates it into the
// completed-byte history; the first call rotates in a zero byte.
func (c *LastBytesCache) StartNewByte() {
	completed := uint8(c.unfinished) // sentinel has already overflowed out once 8 bits were seen
	c.byte3 = c.byte2
	c.byte2 = c.byte1
	c.byte1 = completed
	c.unfinished = EmptyUnfinishedByte
}

// OnNextBit folds the next bit of the current byte into the unfinished
// byte.
func (c *LastBytesCache) OnNextBit(b bit.Bit) {
	c.unfinished = c.unfinished.next(b)
}

func (c *LastBytesCache) UnfinishedByte() UnfinishedByte { return c.unfinished }

func (c *LastBytesCache) PreviousByte1() uint8 { return c.byte1 }
func (c *LastBytesCache) PreviousByte2() uint8 { return c.byte2 }
func (c *LastBytesCache) PreviousByte3() uint8 { return c.byte3 }

// Hash01_16 packs the last complete byte and the unfinished byte (with
// its sentinel bit) directly, without hashing: the 16-bit result is
// collision-free across every reachable (byte, partial-byte) pair.
func (c *LastBytesCache) Hash01_16() uint16 {
	return uint16(c.byte1)<<8 | uint16(c.unfinished)
}

// Hash02_16 folds the last two complete bytes and the unfinished byte
// through FNV-1a, down to 16 bits.
func (c *LastBytesCache) Hash02_16() uint16 {
	h := NewFnv1A().WriteByte(c.byte1).WriteByte(c.byte2).WriteByte(uint8(c.unfinished))
	return h.IntoU16()
}

// Hash03_16 folds the last three complete bytes and the unfinished byte
// through FNV-1a, down to 16 bits.
func (c *LastBytesCache) Hash03_16() uint16 {
	h := NewFnv1A().WriteByte(c.byte1).WriteByte(c.byte2).WriteByte(c.byte3).WriteByte(uint8(c.unfinished))
	return h.IntoU16()
}
