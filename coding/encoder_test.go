package coding

import (
	"bytes"
	"testing"
)

func mustProbability(t *testing.T, raw uint32) FinalProbability {
	t.Helper()
	p, err := NewFinalProbabilityRaw(raw)
	if err != nil {
		t.Fatalf("NewFinalProbabilityRaw(%d): %v", raw, err)
	}
	return p
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	bits := []bool{false, true, false, false, true, true, true, false, true, false, false, false, true}
	probs := []uint32{2048, 1, 4095, 100, 3000, 2048, 50, 4000, 2048, 1, 4095, 2048, 2048}

	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	for i, b := range bits {
		if err := enc.EncodeBit(mustProbability(t, probs[i]), b); err != nil {
			t.Fatalf("EncodeBit(%d): %v", i, err)
		}
	}
	if err := enc.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	dec, err := NewDecoder(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	for i, want := range bits {
		got, err := dec.DecodeBit(mustProbability(t, probs[i]))
		if err != nil {
			t.Fatalf("DecodeBit(%d): %v", i, err)
		}
		if got != want {
			t.Fatalf("bit %d: decoded %v, want %v", i, got, want)
		}
	}
}

func TestEncodeDecodeLongRunsWithExtremeProbabilities(t *testing.T) {
	const n = 500
	bits := make([]bool, n)
	probs := make([]uint32, n)
	// A self-avoiding linear congruential sequence so the test has no
	// dependency on math/rand's seeding, but still exercises varied
	// probabilities and both bit values.
	state := uint32(12345)
	for i := 0; i < n; i++ {
		state = state*1664525 + 1013904223
		bits[i] = state&1 == 1
		p := (state >> 8) % 4094
		probs[i] = p + 1 // keep strictly inside (0, 4096)
	}

	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	for i, b := range bits {
		if err := enc.EncodeBit(mustProbability(t, probs[i]), b); err != nil {
			t.Fatalf("EncodeBit(%d): %v", i, err)
		}
	}
	if err := enc.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	dec, err := NewDecoder(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	for i, want := range bits {
		got, err := dec.DecodeBit(mustProbability(t, probs[i]))
		if err != nil {
			t.Fatalf("DecodeBit(%d): %v", i, err)
		}
		if got != want {
			t.Fatalf("bit %d: decoded %v, want %v", i, got, want)
		}
	}
}

func TestEncodeDecodeRareEvent(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	events := []bool{false, false, false, true, false}
	for i, happened := range events {
		if err := enc.EncodeRareEvent(happened); err != nil {
			t.Fatalf("EncodeRareEvent(%d): %v", i, err)
		}
	}
	if err := enc.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	dec, err := NewDecoder(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	for i, want := range events {
		got, err := dec.DecodeRareEvent()
		if err != nil {
			t.Fatalf("DecodeRareEvent(%d): %v", i, err)
		}
		if got != want {
			t.Fatalf("event %d: decoded %v, want %v", i, got, want)
		}
	}
}

func TestNewFinalProbabilityRawRejectsBoundaryValues(t *testing.T) {
	if _, err := NewFinalProbabilityRaw(0); err == nil {
		t.Fatalf("expected error for raw=0")
	}
	if _, err := NewFinalProbabilityRaw(1 << FinalProbabilityFractionalBits); err == nil {
		t.Fatalf("expected error for raw=4096")
	}
	if _, err := NewFinalProbabilityRaw(2048); err != nil {
		t.Fatalf("NewFinalProbabilityRaw(2048): %v", err)
	}
}
