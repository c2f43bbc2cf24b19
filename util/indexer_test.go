package util

import "testing"

func TestIndexBuilderFoldsMostSignificantFirst(t *testing.T) {
	idx := NewIndexBuilder().
		WithSubIndex(2, 1).
		WithSubIndex(3, 2).
		Index()
	// outer dimension (limit 2) is most significant: 1*3 + 2 = 5.
	if idx != 5 {
		t.Fatalf("got index %d, want 5", idx)
	}
}

func TestIndexBuilderSize(t *testing.T) {
	b := NewIndexBuilder().WithSubIndex(4, 0).WithSubIndex(5, 0).WithSubIndex(2, 0)
	if b.Size() != 40 {
		t.Fatalf("got size %d, want 40", b.Size())
	}
}

func TestArraySizeMatchesIndexBuilderSize(t *testing.T) {
	dims := []int{3, 4, 5}
	if got, want := ArraySize(dims...), 60; got != want {
		t.Fatalf("ArraySize(%v) = %d, want %d", dims, got, want)
	}
}

func TestIndexBuilderStaysInBounds(t *testing.T) {
	dims := []int{2, 3, 4}
	for a := 0; a < dims[0]; a++ {
		for b := 0; b < dims[1]; b++ {
			for c := 0; c < dims[2]; c++ {
				idx := NewIndexBuilder().
					WithSubIndex(dims[0], a).
					WithSubIndex(dims[1], b).
					WithSubIndex(dims[2], c).
					Index()
				if idx < 0 || idx >= ArraySize(dims...) {
					t.Fatalf("index %d out of bounds for dims %v", idx, dims)
				}
			}
		}
	}
}
