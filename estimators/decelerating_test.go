package estimators

import (
	"math"
	"testing"

	"github.com/colewyeth/paqmix/bit"
	"github.com/colewyeth/paqmix/fixedpoint"
	"github.com/colewyeth/paqmix/lut"
)

func TestDeceleratingEstimatorSymmetricUnderBitFlip(t *testing.T) {
	rates := lut.NewDefaultDeceleratingEstimatorRates()
	predictions := []uint32{1 << 25, 1 << 28, 1 << 30, (1 << 31) - (1 << 20)}
	counts := []uint32{0, 1, 50, 500, lut.DeceleratingEstimatorMaxCount}

	for _, raw := range predictions {
		for _, count := range counts {
			p := fixedpoint.NewFractOnlyU32Unchecked(raw)
			e0 := NewDeceleratingEstimatorFrom(p, count)
			e1 := NewDeceleratingEstimatorFrom(p.Flip(), count)

			u0 := e0.Update(rates, bit.One)
			u1 := e1.Update(rates, bit.Zero)

			got := u1.Prediction().AsFloat64()
			want := u0.Prediction().Flip().AsFloat64()
			if diff := math.Abs(got - want); diff > 1e-5 {
				t.Fatalf("raw=%d count=%d: Update(flip(p),0)=%v, want flip(Update(p,1))=%v (diff %v)", raw, count, got, want, diff)
			}
			if u0.Count() != u1.Count() {
				t.Fatalf("raw=%d count=%d: counts diverged after symmetric updates: %d vs %d", raw, count, u0.Count(), u1.Count())
			}
		}
	}
}

func TestDeceleratingEstimatorPredictionStaysInterior(t *testing.T) {
	rates := lut.NewDefaultDeceleratingEstimatorRates()
	e := NewDeceleratingEstimator()
	for i := 0; i < 2000; i++ {
		e = e.Update(rates, bit.Zero)
		if p := e.prediction22(); p < 1 || p > deceleratingPredictionMax {
			t.Fatalf("update %d: prediction22() = %d, want in [1,%d]", i, p, deceleratingPredictionMax)
		}
	}
	e = NewDeceleratingEstimator()
	for i := 0; i < 2000; i++ {
		e = e.Update(rates, bit.One)
		if p := e.prediction22(); p < 1 || p > deceleratingPredictionMax {
			t.Fatalf("update %d: prediction22() = %d, want in [1,%d]", i, p, deceleratingPredictionMax)
		}
	}
}

func TestDeceleratingEstimatorCountSaturates(t *testing.T) {
	rates := lut.NewDefaultDeceleratingEstimatorRates()
	e := NewDeceleratingEstimator()
	for i := 0; i < int(lut.DeceleratingEstimatorMaxCount)+50; i++ {
		e = e.Update(rates, bit.One)
		if e.Count() > lut.DeceleratingEstimatorMaxCount {
			t.Fatalf("update %d: Count() = %d, want <= %d", i, e.Count(), lut.DeceleratingEstimatorMaxCount)
		}
	}
	if e.Count() != lut.DeceleratingEstimatorMaxCount {
		t.Fatalf("Count() after %d updates = %d, want %d", int(lut.DeceleratingEstimatorMaxCount)+50, e.Count(), lut.DeceleratingEstimatorMaxCount)
	}
}

func TestDeceleratingEstimatorFromClampsOutOfRangeCount(t *testing.T) {
	e := NewDeceleratingEstimatorFrom(fixedpoint.FractOnlyU32Half, lut.DeceleratingEstimatorMaxCount+100)
	if e.Count() != lut.DeceleratingEstimatorMaxCount {
		t.Fatalf("Count() = %d, want clamped to %d", e.Count(), lut.DeceleratingEstimatorMaxCount)
	}
}
