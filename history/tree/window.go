// Package tree implements the bit-level sliding-window suffix tree: the
// cyclic byte window, the node arena, active contexts, and the
// Proper/Degenerate tree itself.
package tree

import "github.com/colewyeth/paqmix/bit"

// WindowIndex is a position in the cyclic window buffer.
type WindowIndex uint32

// Window is a cyclic byte buffer of fixed capacity. Indices wrap modulo
// that capacity; ordering between indices is only meaningful relative to
// start, since the buffer has no absolute origin.
type Window struct {
	buf      []byte
	start    WindowIndex
	cursor   WindowIndex
	size     uint32
	capacity uint32
}

// NewWindow allocates a window of the given capacity.
func NewWindow(capacity uint32) *Window {
	return &Window{buf: make([]byte, capacity), capacity: capacity}
}

func (w *Window) Capacity() uint32   { return w.capacity }
func (w *Window) Start() WindowIndex { return w.start }
func (w *Window) Cursor() WindowIndex { return w.cursor }
func (w *Window) Size() uint32       { return w.size }
func (w *Window) Full() bool         { return w.size == w.capacity }
func (w *Window) Empty() bool        { return w.size == 0 }

// Add returns idx shifted forward by delta positions, wrapping.
func (w *Window) Add(idx WindowIndex, delta uint32) WindowIndex {
	return WindowIndex((uint32(idx) + delta) % w.capacity)
}

// Sub returns idx shifted backward by delta positions, wrapping.
func (w *Window) Sub(idx WindowIndex, delta uint32) WindowIndex {
	d := delta % w.capacity
	return WindowIndex((uint32(idx) + w.capacity - d) % w.capacity)
}

func (w *Window) Increment(idx WindowIndex) WindowIndex { return w.Add(idx, 1) }
func (w *Window) Decrement(idx WindowIndex) WindowIndex { return w.Sub(idx, 1) }

// Distance returns how many positions after start idx sits, i.e. the
// ordering key anchored at start.
func (w *Window) Distance(idx WindowIndex) uint32 {
	return (uint32(idx) + w.capacity - uint32(w.start)) % w.capacity
}

// Less orders two indices by distance from start.
func (w *Window) Less(a, b WindowIndex) bool { return w.Distance(a) < w.Distance(b) }

func (w *Window) ByteAt(idx WindowIndex) byte { return w.buf[idx] }

func (w *Window) setByteAt(idx WindowIndex, b byte) { w.buf[idx] = b }

// SetBit sets (or clears) bit bitIndex (0 = most significant) of the byte
// at idx in place, used while a byte is still being assembled one bit at
// a time.
func (w *Window) SetBit(idx WindowIndex, bitIndex uint8, b bit.Bit) {
	mask := byte(1) << (7 - bitIndex)
	if b.IsOne() {
		w.buf[idx] |= mask
	} else {
		w.buf[idx] &^= mask
	}
}

// BitAt reads bit bitIndex (0 = most significant) of the byte at idx.
func (w *Window) BitAt(idx WindowIndex, bitIndex uint8) bit.Bit {
	b := w.buf[idx]
	return bit.FromUint(uint(b>>(7-bitIndex)) & 1)
}

// AdvanceCursor writes value at the cursor, advances it, and grows size
// unless the window is already full (the caller must have removed the
// leftmost suffix first in that case).
func (w *Window) AdvanceCursor(value byte) {
	w.setByteAt(w.cursor, value)
	w.cursor = w.Increment(w.cursor)
	if w.size < w.capacity {
		w.size++
	}
}

// AdvanceStart zeroes the byte at start and advances it, shrinking size.
func (w *Window) AdvanceStart() {
	w.setByteAt(w.start, 0)
	w.start = w.Increment(w.start)
	if w.size > 0 {
		w.size--
	}
}

// PrefixEqual compares nBits bits starting at a and at b for equality.
func (w *Window) PrefixEqual(a, b WindowIndex, nBits uint32) bool {
	for i := uint32(0); i < nBits; i++ {
		byteOffset := i / 8
		bitOffset := uint8(i % 8)
		if w.BitAt(w.Add(a, byteOffset), bitOffset) != w.BitAt(w.Add(b, byteOffset), bitOffset) {
			return false
		}
	}
	return true
}
