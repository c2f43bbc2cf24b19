package lut

import (
	"math"
	"testing"
)

func TestLog2U32MatchesMathLog2(t *testing.T) {
	l := NewLog2Lut()
	cases := []struct {
		raw       uint32
		valueBits uint8
	}{
		{raw: 1 << 30, valueBits: 31}, // 0.5
		{raw: 1 << 11, valueBits: 12}, // 0.5
		{raw: 4095, valueBits: 12},    // close to 1
		{raw: 1, valueBits: 12},       // smallest representable
		{raw: 1 << 15, valueBits: 0},  // 32768, well above 1
	}
	for _, c := range cases {
		got, err := l.Log2U32(c.raw, c.valueBits)
		if err != nil {
			t.Fatalf("Log2U32(%d,%d): %v", c.raw, c.valueBits, err)
		}
		value := float64(c.raw) / math.Exp2(float64(c.valueBits))
		want := math.Log2(value)
		diff := math.Abs(got.AsFloat64() - want)
		if diff > 0.01 {
			t.Fatalf("Log2U32(%d,%d) = %v, want close to %v (diff %v)", c.raw, c.valueBits, got.AsFloat64(), want, diff)
		}
	}
}

func TestLog2U32RejectsZero(t *testing.T) {
	l := NewLog2Lut()
	if _, err := l.Log2U32(0, 12); err == nil {
		t.Fatalf("expected error for log2(0)")
	}
}
