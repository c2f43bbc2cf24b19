package estimators

import (
	"testing"

	"github.com/colewyeth/paqmix/bit"
	"github.com/colewyeth/paqmix/fixedpoint"
	"github.com/colewyeth/paqmix/lut"
)

func TestCostTrackerLowersTowardCheapCoding(t *testing.T) {
	log2 := lut.NewLog2Lut()
	c := NewCostTracker()
	// A near-certain correct prediction should drive the EMA down toward
	// zero cost; a near-certain wrong one should drive it up.
	cheap := fixedpoint.NewFractOnlyU32Unchecked((1 << 31) - (1 << 10))
	for i := 0; i < 50; i++ {
		c = c.Updated(log2, cheap, bit.Zero)
	}
	if c.Raw() > 200 {
		t.Fatalf("after 50 cheap updates, EMA = %d, want small", c.Raw())
	}
}

func TestCostTrackerRaisesTowardExpensiveCoding(t *testing.T) {
	log2 := lut.NewLog2Lut()
	c := NewCostTracker()
	expensive := fixedpoint.NewFractOnlyU32Unchecked(1 << 10)
	for i := 0; i < 50; i++ {
		c = c.Updated(log2, expensive, bit.Zero)
	}
	if c.Raw() == 0 {
		t.Fatalf("after 50 expensive updates, EMA = 0, want nonzero cost")
	}
}

func TestCostTrackerFromRawRoundTrips(t *testing.T) {
	c := NewCostTrackerFromRaw(1234)
	if c.Raw() != 1234 {
		t.Fatalf("Raw() = %d, want 1234", c.Raw())
	}
	if c.AsLog2D().Raw() != 1234 {
		t.Fatalf("AsLog2D().Raw() = %d, want 1234", c.AsLog2D().Raw())
	}
}
