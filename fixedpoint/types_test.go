package fixedpoint

import "testing"

func TestFractOnlyU32FlipIsInvolution(t *testing.T) {
	v := NewFractOnlyU32Unchecked(1 << 20)
	if got := v.Flip().Flip(); got.Raw() != v.Raw() {
		t.Fatalf("Flip().Flip() = %d, want %d", got.Raw(), v.Raw())
	}
}

func TestFractOnlyU32HalfFlipsToItself(t *testing.T) {
	if got := FractOnlyU32Half.Flip().Raw(); got != FractOnlyU32Half.Raw() {
		t.Fatalf("Half.Flip() = %d, want %d", got, FractOnlyU32Half.Raw())
	}
}

func TestStretchedProbDClampsToAbsLimit(t *testing.T) {
	over := StretchedProbD{raw: StretchedProbDMax.raw + 1000}
	if got := over.Clamped(); got.Raw() != StretchedProbDMax.Raw() {
		t.Fatalf("Clamped() = %d, want %d", got.Raw(), StretchedProbDMax.Raw())
	}
	under := StretchedProbD{raw: StretchedProbDMin.raw - 1000}
	if got := under.Clamped(); got.Raw() != StretchedProbDMin.Raw() {
		t.Fatalf("Clamped() = %d, want %d", got.Raw(), StretchedProbDMin.Raw())
	}
}

func TestStretchedProbDToIntervalIndexStaysInBounds(t *testing.T) {
	for _, bits := range []uint8{0, 1} {
		max := IntervalStopsCount(bits) - 1
		for _, s := range []StretchedProbD{StretchedProbDMin, StretchedProbDZero, StretchedProbDMax} {
			idx := s.ToIntervalIndex(bits)
			if idx < 0 || idx > max {
				t.Fatalf("ToIntervalIndex(%d) with scaleDownBits=%d = %d, out of [0,%d]", s.Raw(), bits, idx, max)
			}
		}
	}
}

func TestStretchedProbDZeroMapsToMiddleIndex(t *testing.T) {
	for _, bits := range []uint8{0, 1} {
		idx := StretchedProbDZero.ToIntervalIndex(bits)
		want := IntervalStopsCount(bits) / 2
		if idx != want {
			t.Fatalf("scaleDownBits=%d: ToIntervalIndex(0) = %d, want %d", bits, idx, want)
		}
	}
}

func TestLog2QAccumulatesLog2D(t *testing.T) {
	var acc Log2Q
	acc = acc.AddD(NewLog2DUnchecked(100))
	acc = acc.AddD(NewLog2DUnchecked(-30))
	if got, want := acc.Raw(), int64(70); got != want {
		t.Fatalf("accumulated Log2Q = %d, want %d", got, want)
	}
}

func TestMixerWeightClampsToLimit(t *testing.T) {
	w := NewMixerWeightUnchecked(1 << 30)
	if got := w.Clamped().Raw(); got != mixerWeightLimit {
		t.Fatalf("Clamped() = %d, want %d", got, mixerWeightLimit)
	}
	w = NewMixerWeightUnchecked(-(1 << 30))
	if got := w.Clamped().Raw(); got != -mixerWeightLimit {
		t.Fatalf("Clamped() = %d, want %d", got, -mixerWeightLimit)
	}
}
