package mixing

import (
	"testing"

	"github.com/colewyeth/paqmix/fixedpoint"
	"github.com/colewyeth/paqmix/lut"
)

// A freshly built APM's curve is exactly the weighting LUT's own
// interval stops, which are symmetric around their midpoint (squash is
// an odd function composed with an even grid). So refining a
// probability and refining its bit-flip complement through two
// otherwise identical, untrained APMs must land on complementary
// outputs, up to the rounding the fixed-point interpolation introduces.
func TestAdaptiveProbabilityMapRefineIsSymmetricUnderBitFlip(t *testing.T) {
	squash := lut.NewSquashLut()
	weighting := lut.NewApmWeightingLut(1, squash)

	const rawULPTolerance = 2
	for _, raw := range []int32{-1 << 20, -1 << 18, -(1 << 10), 0, 1 << 10, 1 << 18, 1 << 20} {
		st := fixedpoint.NewStretchedProbD(raw, fixedpoint.StretchedProbDFractionalBits)
		sq := squash.Squash(st)

		a := NewAdaptiveProbabilityMap(1, 1, weighting, squash)
		b := NewAdaptiveProbabilityMap(1, 1, weighting, squash)

		got, err := a.Refine(0, sq, st)
		if err != nil {
			t.Fatalf("raw=%d: Refine: %v", raw, err)
		}
		gotFlipped, err := b.Refine(0, sq.Flip(), st.Neg())
		if err != nil {
			t.Fatalf("raw=%d: Refine (flipped): %v", raw, err)
		}

		sum := int64(got.Raw()) + int64(gotFlipped.Raw())
		want := int64(1) << 31
		if diff := sum - want; diff < -rawULPTolerance || diff > rawULPTolerance {
			t.Fatalf("raw=%d: Refine(p)+Refine(flip(p)) = %d, want %d within %d ULP", raw, sum, want, rawULPTolerance)
		}
	}
}

func TestAdaptiveProbabilityMapRefineTwiceWithoutUpdateFails(t *testing.T) {
	squash := lut.NewSquashLut()
	weighting := lut.NewApmWeightingLut(1, squash)
	a := NewAdaptiveProbabilityMap(1, 1, weighting, squash)

	if _, err := a.Refine(0, fixedpoint.FractOnlyU32Half, fixedpoint.StretchedProbDZero); err != nil {
		t.Fatalf("first Refine: %v", err)
	}
	if _, err := a.Refine(0, fixedpoint.FractOnlyU32Half, fixedpoint.StretchedProbDZero); err == nil {
		t.Fatalf("expected second Refine to fail without an intervening UpdatePredictions")
	}
}

func TestAdaptiveProbabilityMapUpdateWithoutRefineFails(t *testing.T) {
	squash := lut.NewSquashLut()
	weighting := lut.NewApmWeightingLut(1, squash)
	a := NewAdaptiveProbabilityMap(1, 1, weighting, squash)

	if err := a.UpdatePredictions(true, 7, 7, false); err == nil {
		t.Fatalf("expected UpdatePredictions to fail without a preceding Refine")
	}
}

func TestAdaptiveProbabilityMapRefineThenUpdateRoundTrips(t *testing.T) {
	squash := lut.NewSquashLut()
	weighting := lut.NewApmWeightingLut(1, squash)
	a := NewAdaptiveProbabilityMap(1, 1, weighting, squash)

	if _, err := a.Refine(0, fixedpoint.FractOnlyU32Half, fixedpoint.StretchedProbDZero); err != nil {
		t.Fatalf("Refine: %v", err)
	}
	if err := a.UpdatePredictions(true, 7, 7, false); err != nil {
		t.Fatalf("UpdatePredictions: %v", err)
	}
	// pending must be drained, so a fresh Refine/UpdatePredictions pair
	// should succeed again immediately.
	if _, err := a.Refine(0, fixedpoint.FractOnlyU32Half, fixedpoint.StretchedProbDZero); err != nil {
		t.Fatalf("Refine after round trip: %v", err)
	}
	if err := a.UpdatePredictions(false, 7, 7, false); err != nil {
		t.Fatalf("UpdatePredictions after round trip: %v", err)
	}
}
