package lut

import (
	"math"
	"testing"

	"github.com/colewyeth/paqmix/fixedpoint"
)

func TestSquashStretchRoundTrip(t *testing.T) {
	stretch := NewStretchLut()
	squash := NewSquashLut()

	for _, raw := range []uint32{1, 1 << 10, 1 << 20, 1 << 29, 1 << 30, (1 << 31) - 1} {
		p := fixedpoint.NewFractOnlyU32Unchecked(raw)
		s := stretch.Stretch(p)
		back := squash.Squash(s)

		diff := math.Abs(back.AsFloat64() - p.AsFloat64())
		if diff > 1e-3 {
			t.Fatalf("stretch/squash round trip for raw=%d: got %v, want close to %v (diff %v)", raw, back.AsFloat64(), p.AsFloat64(), diff)
		}
	}
}

func TestStretchIsOddAroundHalf(t *testing.T) {
	stretch := NewStretchLut()
	p := fixedpoint.NewFractOnlyU32Unchecked(1 << 20)
	s := stretch.Stretch(p)
	flipped := stretch.Stretch(p.Flip())
	if got, want := flipped.Raw(), -s.Raw(); got != want {
		t.Fatalf("Stretch(flip(p)) = %d, want %d", got, want)
	}
}

func TestSquashZeroIsHalf(t *testing.T) {
	squash := NewSquashLut()
	p := squash.Squash(fixedpoint.StretchedProbDZero)
	if diff := math.Abs(p.AsFloat64() - 0.5); diff > 1e-4 {
		t.Fatalf("Squash(0) = %v, want close to 0.5", p.AsFloat64())
	}
}

func TestFindSquashedProbInvertsSquash(t *testing.T) {
	squash := NewSquashLut()
	for _, raw := range []int32{-1 << 20, 0, 1 << 19, 1 << 20} {
		s := fixedpoint.NewStretchedProbD(raw, fixedpoint.StretchedProbDFractionalBits)
		p := squash.Squash(s)
		back := squash.FindSquashedProb(p)
		if diff := math.Abs(back.AsFloat64() - s.AsFloat64()); diff > 0.05 {
			t.Fatalf("FindSquashedProb(Squash(%v)) = %v, want close to %v", s.AsFloat64(), back.AsFloat64(), s.AsFloat64())
		}
	}
}
