package util

import (
	"testing"

	"github.com/colewyeth/paqmix/bit"
)

func feedByte(c *LastBytesCache, raw byte) {
	c.StartNewByte()
	for i := 7; i >= 0; i-- {
		c.OnNextBit(bit.FromUint(uint(raw>>uint(i)) & 1))
	}
}

func TestLastBytesCacheRotatesCompletedBytes(t *testing.T) {
	c := NewLastBytesCache()
	feedByte(c, 0xaa)
	feedByte(c, 0xbb)
	feedByte(c, 0xcc)

	if got := c.PreviousByte1(); got != 0xbb {
		t.Fatalf("PreviousByte1() = %#x, want 0xbb", got)
	}
	if got := c.PreviousByte2(); got != 0xaa {
		t.Fatalf("PreviousByte2() = %#x, want 0xaa", got)
	}
	if got := c.PreviousByte3(); got != 0 {
		t.Fatalf("PreviousByte3() = %#x, want 0x00", got)
	}
}

func TestUnfinishedByteTracksPartialBits(t *testing.T) {
	c := NewLastBytesCache()
	c.StartNewByte()
	if got := c.UnfinishedByte().Raw(); got != uint8(EmptyUnfinishedByte) {
		t.Fatalf("fresh UnfinishedByte = %d, want %d", got, EmptyUnfinishedByte)
	}
	c.OnNextBit(bit.One)
	c.OnNextBit(bit.Zero)
	c.OnNextBit(bit.One)
	// sentinel 1, then bits 1,0,1 -> 0b1101 = 13
	if got := c.UnfinishedByte().Raw(); got != 0b1101 {
		t.Fatalf("UnfinishedByte().Raw() = %#b, want 0b1101", got)
	}
}

func TestHashesDifferForDifferentHistory(t *testing.T) {
	a := NewLastBytesCache()
	feedByte(a, 0x01)
	feedByte(a, 0x02)
	feedByte(a, 0x03)

	b := NewLastBytesCache()
	feedByte(b, 0x01)
	feedByte(b, 0x02)
	feedByte(b, 0x04)

	if a.Hash02_16() == b.Hash02_16() {
		t.Fatalf("expected Hash02_16 to differ after a different second byte")
	}
	if a.Hash03_16() == b.Hash03_16() {
		t.Fatalf("expected Hash03_16 to differ after a different third byte")
	}
}

func TestHash01_16PacksWithoutCollision(t *testing.T) {
	c1 := NewLastBytesCache()
	feedByte(c1, 0x42)
	c1.StartNewByte()
	c1.OnNextBit(bit.One)

	c2 := NewLastBytesCache()
	feedByte(c2, 0x43)
	c2.StartNewByte()
	c2.OnNextBit(bit.One)

	if c1.Hash01_16() == c2.Hash01_16() {
		t.Fatalf("expected different previous bytes to pack to different values")
	}
}
