package util

// IndexBuilder flattens a sequence of bounded sub-indices into a single
// row-major array index, the way the mixer kits and single-context
// predictor tables address their multi-dimensional parameter memory. The
// source represents this with one concrete struct per dimension count
// (Indexer1..Indexer6); a single accumulator serves the same purpose
// here since Go slices make the dimension count a runtime, not a
// compile-time, property without losing any of the row-major semantics.
type IndexBuilder struct {
	index int
	size  int
}

// NewIndexBuilder starts a fresh accumulator.
func NewIndexBuilder() *IndexBuilder { return &IndexBuilder{size: 1} }

// WithSubIndex folds in one more dimension: value must be in [0, limit).
// Dimensions are folded most-significant-first, in call order.
func (b *IndexBuilder) WithSubIndex(limit, value int) *IndexBuilder {
	b.index = b.index*limit + value
	b.size *= limit
	return b
}

// Index returns the flattened index accumulated so far.
func (b *IndexBuilder) Index() int { return b.index }

// Size returns the total array size the accumulated dimensions imply.
func (b *IndexBuilder) Size() int { return b.size }

// ArraySize computes the flat array size for a set of dimension limits
// without building an index, for allocating backing storage up front.
func ArraySize(limits ...int) int {
	size := 1
	for _, l := range limits {
		size *= l
	}
	return size
}
