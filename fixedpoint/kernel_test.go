package fixedpoint

import "testing"

func TestScaledDownU32RoundTripsOnWiden(t *testing.T) {
	if got, want := ScaledDownU32(3, 2, 4), uint32(12); got != want {
		t.Fatalf("widen ScaledDownU32(3,2,4) = %d, want %d", got, want)
	}
}

func TestScaledDownU32NarrowsWithRounding(t *testing.T) {
	// 6 at 4 fractional bits narrowed to 2 bits: 6/4 = 1.5, rounds to 2.
	if got, want := ScaledDownU32(6, 4, 2), uint32(2); got != want {
		t.Fatalf("ScaledDownU32(6,4,2) = %d, want %d", got, want)
	}
}

func TestScaledDownU32SaturatesOnOverflow(t *testing.T) {
	if got, want := ScaledDownU32(1<<31, 0, 1), uint32(0xffffffff); got != want {
		t.Fatalf("expected saturation to MaxUint32, got %d, want %d", got, want)
	}
}

func TestScaledDownI32SymmetricRounding(t *testing.T) {
	pos := ScaledDownI32(6, 4, 2)
	neg := ScaledDownI32(-6, 4, 2)
	if pos != -neg {
		t.Fatalf("rounding not symmetric: ScaledDownI32(6,4,2)=%d, ScaledDownI32(-6,4,2)=%d", pos, neg)
	}
}

func TestCheckAddU32DetectsOverflow(t *testing.T) {
	if _, err := CheckAddU32(^uint32(0), 1); err == nil {
		t.Fatalf("expected overflow error")
	}
	if got, err := CheckAddU32(1, 2); err != nil || got != 3 {
		t.Fatalf("CheckAddU32(1,2) = (%d,%v), want (3,nil)", got, err)
	}
}

func TestCheckSubU32DetectsUnderflow(t *testing.T) {
	if _, err := CheckSubU32(1, 2); err == nil {
		t.Fatalf("expected underflow error")
	}
}

func TestMulU32Identity(t *testing.T) {
	one := uint32(1) << 31
	half := uint32(1) << 30
	got := MulU32(one, 31, half, 31, 31)
	if got != half {
		t.Fatalf("MulU32(1, 0.5) = %d, want %d", got, half)
	}
}
