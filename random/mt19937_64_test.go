package random

import "testing"

func TestDeterministicFromSeed(t *testing.T) {
	a := NewByScalarSeed(42)
	b := NewByScalarSeed(42)
	for i := 0; i < 2000; i++ {
		if got, want := a.NextUint64(), b.NextUint64(); got != want {
			t.Fatalf("diverged at draw %d: %d != %d", i, got, want)
		}
	}
}

func TestVectorSeedDiffersFromScalarSeed(t *testing.T) {
	scalar := NewByScalarSeed(42)
	vector := NewByVectorSeed([]uint64{0x12345, 0x23456, 0x34567, 0x45678})
	if scalar.NextUint64() == vector.NextUint64() {
		t.Fatalf("expected different seeding strategies to diverge")
	}
}

func TestRealIntervalsStayInRange(t *testing.T) {
	mt := NewDefault()
	for i := 0; i < 10000; i++ {
		if v := mt.NextReal1(); v < 0 || v > 1 {
			t.Fatalf("NextReal1 out of [0,1]: %v", v)
		}
		if v := mt.NextReal2(); v < 0 || v >= 1 {
			t.Fatalf("NextReal2 out of [0,1): %v", v)
		}
		if v := mt.NextReal3(); v <= 0 || v >= 1 {
			t.Fatalf("NextReal3 out of (0,1): %v", v)
		}
	}
}

func TestRegeneratesBlockAfterExhaustion(t *testing.T) {
	mt := NewDefault()
	seen := make(map[uint64]bool, 700)
	for i := 0; i < 700; i++ {
		seen[mt.NextUint64()] = true
	}
	if len(seen) < 650 {
		t.Fatalf("suspiciously few distinct draws: %d", len(seen))
	}
}
