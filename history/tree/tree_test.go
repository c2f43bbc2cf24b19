package tree

import (
	"testing"

	"github.com/colewyeth/paqmix/bit"
	"github.com/colewyeth/paqmix/estimators"
	"github.com/colewyeth/paqmix/history"
	"github.com/colewyeth/paqmix/history/state"
	"github.com/colewyeth/paqmix/lut"
)

// A single byte can never diverge from itself: with only one byte ever
// in the window, extend's comparison is always the byte against its own
// just-written bit, so the tree never leaves Degenerate and every
// GatherStates call reports no active orders.
func TestGatherStatesDegenerateSingleByte(t *testing.T) {
	tables := lut.New()
	tr := New(16, 3, tables)
	tr.StartNewByte()

	var out history.CollectedContextStates
	const input = byte(0xb5)
	for bi := uint8(0); bi < 8; bi++ {
		tr.GatherStates(bi, &out)
		if out.Len() != 0 {
			t.Fatalf("bit %d: GatherStates returned %d entries, want 0", bi, out.Len())
		}
		b := bit.FromUint(uint(input>>(7-bi)) & 1)
		if err := tr.ProcessInputBit(b, estimators.CostTrackers{}); err != nil {
			t.Fatalf("ProcessInputBit: %v", err)
		}
	}
	if tr.state != Degenerate {
		t.Fatalf("state = %v, want Degenerate", tr.state)
	}
}

// Two bytes that agree for their first seven bits and diverge on the
// eighth flip the tree from Degenerate to Proper on that eighth bit,
// building the single-node chain split_degenerate_root_edge describes.
func TestDegenerateToProperOnFirstDivergence(t *testing.T) {
	tables := lut.New()
	tr := New(16, 2, tables)

	feedByte := func(by byte) {
		tr.StartNewByte()
		for bi := uint8(0); bi < 8; bi++ {
			b := bit.FromUint(uint(by>>(7-bi)) & 1)
			if err := tr.ProcessInputBit(b, estimators.CostTrackers{}); err != nil {
				t.Fatalf("ProcessInputBit: %v", err)
			}
		}
	}

	feedByte(0xff) // 11111111
	feedByte(0xfe) // 11111110, diverges from 0xff on the last bit

	if tr.state != Proper {
		t.Fatalf("state = %v, want Proper", tr.state)
	}
	if tr.nodes.Len() != 2 {
		t.Fatalf("nodes.Len() = %d, want 2 (root + one split node)", tr.nodes.Len())
	}

	root := tr.nodes.Root()
	if !root.Left.IsInner() || root.Left.InnerIndex() != 1 {
		t.Fatalf("root.Left = %+v, want InnerChild(1)", root.Left)
	}
	if !root.Right.IsInvalid() {
		t.Fatalf("root.Right = %+v, want InvalidChild", root.Right)
	}

	split := tr.nodes.Get(1)
	if split.Depth != 7 {
		t.Fatalf("split.Depth = %d, want 7", split.Depth)
	}
	if split.TextStart != 1 {
		t.Fatalf("split.TextStart = %d, want 1", split.TextStart)
	}
	if !split.Left.IsLeaf() || split.Left.LeafIndex() != 1 {
		t.Fatalf("split.Left = %+v, want LeafChild(1) (the diverging byte)", split.Left)
	}
	if !split.Right.IsLeaf() || split.Right.LeafIndex() != 0 {
		t.Fatalf("split.Right = %+v, want LeafChild(0) (the prior occurrence)", split.Right)
	}

	if tr.active.Len() != 1 {
		t.Fatalf("active.Len() = %d, want 1 (window has only 2 bytes, capping maxChain at 0)", tr.active.Len())
	}
	ctx := tr.active.At(0)
	if ctx.InLeaf || ctx.NodeIndex != 1 || ctx.SuffixIndex != 1 {
		t.Fatalf("active context = %+v, want {NodeIndex:1 InLeaf:false SuffixIndex:1}", ctx)
	}
}

// GatherStates never reports a context whose history carries no
// information, in either tree state.
func TestGatherStatesFiltersEmptyHistory(t *testing.T) {
	tables := lut.New()

	t.Run("degenerate empty window", func(t *testing.T) {
		tr := New(16, 3, tables)
		var out history.CollectedContextStates
		tr.GatherStates(0, &out)
		if out.Len() != 0 {
			t.Fatalf("GatherStates on an empty window returned %d entries, want 0", out.Len())
		}
	})

	t.Run("proper node with no recorded history", func(t *testing.T) {
		tr := New(16, 0, tables)
		tr.state = Proper
		tr.nodes = &Nodes{items: []Node{{Depth: 0, HistoryState: state.NoHistory}}}
		tr.active = &ActiveContexts{capacity: 1}
		tr.active.Shift(ActiveContext{SuffixIndex: 0, NodeIndex: 0, InLeaf: false})

		var out history.CollectedContextStates
		tr.GatherStates(0, &out)
		if out.Len() != 0 {
			t.Fatalf("GatherStates returned %d entries for a NoHistory node, want 0", out.Len())
		}
	})

	t.Run("proper edge with zero visits", func(t *testing.T) {
		tr := New(16, 0, tables)
		tr.state = Proper
		tr.nodes = &Nodes{items: []Node{{Depth: 8}}} // depth != target, forces the edge-synthesis path
		tr.active = &ActiveContexts{capacity: 1}
		tr.active.Shift(ActiveContext{SuffixIndex: 5, NodeIndex: 0, InLeaf: false, IncomingEdgeVisitsCount: 0})
		tr.currentByteIndex = 5 // ctx.SuffixIndex == currentByteIndex: brand new leaf, nothing seen yet

		var out history.CollectedContextStates
		tr.GatherStates(0, &out)
		if out.Len() != 0 {
			t.Fatalf("GatherStates returned %d entries for a zero-visit edge, want 0", out.Len())
		}
	})
}

// removeLeftmostSuffix, branch 1: the descent's greedily-found leaf does
// not correspond to the byte being evicted. Only the active contexts
// that were still pointing at the evicted byte get reset to the root;
// no tree structure changes.
func TestRemoveLeftmostSuffixLeafNotAtStart(t *testing.T) {
	tables := lut.New()
	tr := New(16, 1, tables)
	tr.state = Proper
	tr.window = &Window{buf: []byte{0x80, 0, 0, 0}, start: 0, cursor: 3, size: 3, capacity: 4}
	tr.nodes = &Nodes{freeHead: noFree, items: []Node{{Depth: 0, Left: LeafChild(99), Right: LeafChild(2)}}}
	tr.active = &ActiveContexts{capacity: 1}
	tr.active.Shift(ActiveContext{SuffixIndex: 0, NodeIndex: 5, ParentIndex: 7, InLeaf: true, DirectionFromParent: Right})
	tr.currentByteIndex = 3

	tr.removeLeftmostSuffix()

	ctx := tr.active.At(0)
	if ctx.InLeaf || ctx.NodeIndex != 0 || ctx.ParentIndex != 0 || ctx.SuffixIndex != 3 {
		t.Fatalf("active context = %+v, want reset to the current byte", ctx)
	}
	if tr.window.start != 1 {
		t.Fatalf("window.start = %d, want 1", tr.window.start)
	}
	root := tr.nodes.Root()
	if !root.Right.IsLeaf() || root.Right.LeafIndex() != 2 {
		t.Fatalf("root.Right = %+v, should be untouched", root.Right)
	}
}

// removeLeftmostSuffix, branch 2: the evicted leaf hangs directly off
// the root and its sibling is also a leaf, so the whole tree collapses
// back to Degenerate.
func TestRemoveLeftmostSuffixCollapsesToDegenerate(t *testing.T) {
	tables := lut.New()
	tr := New(16, 1, tables)
	tr.state = Proper
	tr.window = &Window{buf: []byte{0x00, 0, 0, 0}, start: 0, cursor: 3, size: 3, capacity: 4}
	tr.nodes = &Nodes{freeHead: noFree, items: []Node{{Depth: 0, Left: LeafChild(0), Right: LeafChild(5)}}}
	tr.active = &ActiveContexts{capacity: 1}
	tr.active.Shift(ActiveContext{SuffixIndex: 0, NodeIndex: 0, InLeaf: false})

	tr.removeLeftmostSuffix()

	if tr.state != Degenerate {
		t.Fatalf("state = %v, want Degenerate", tr.state)
	}
	if tr.active.Len() != 0 {
		t.Fatalf("active.Len() = %d, want 0", tr.active.Len())
	}
	if root := *tr.nodes.Root(); root != (Node{}) {
		t.Fatalf("root = %+v, want the zero node", root)
	}
}

// removeLeftmostSuffix, branch 2 variant: the evicted leaf hangs off the
// root but its sibling is an inner node, which gets promoted to the
// root (with depth reset to 0) instead of collapsing to Degenerate.
func TestRemoveLeftmostSuffixPromotesInnerSibling(t *testing.T) {
	tables := lut.New()
	tr := New(16, 1, tables)
	tr.state = Proper
	tr.window = &Window{buf: []byte{0x00, 0, 0, 0}, start: 0, cursor: 3, size: 3, capacity: 4}

	sibling := Node{
		Depth: 5, TextStart: 7, LeftCount: 3, RightCount: 4,
		HistoryState: 42, Left: LeafChild(10), Right: LeafChild(11),
	}
	tr.nodes = &Nodes{freeHead: noFree, items: []Node{
		{Depth: 0, Left: LeafChild(0), Right: InnerChild(2)},
		{},
		sibling,
	}}
	tr.active = &ActiveContexts{capacity: 2}
	tr.active.Shift(ActiveContext{NodeIndex: 2, InLeaf: false})
	tr.active.Shift(ActiveContext{ParentIndex: 2, InLeaf: true})

	tr.removeLeftmostSuffix()

	root := *tr.nodes.Root()
	wantRoot := sibling
	wantRoot.Depth = 0
	if root != wantRoot {
		t.Fatalf("root = %+v, want promoted sibling %+v", root, wantRoot)
	}
	if tr.nodes.freeHead != 2 || tr.nodes.items[2].Left != InvalidChild {
		t.Fatalf("node 2 was not freed: freeHead=%d items[2]=%+v", tr.nodes.freeHead, tr.nodes.items[2])
	}

	promoted := tr.active.At(1) // this test's Shift order reverses the push order
	deepest := tr.active.At(0)
	if promoted.NodeIndex != 0 {
		t.Fatalf("ctx with NodeIndex==siblingParent's old index = %+v, want NodeIndex reset to 0", promoted)
	}
	if deepest.ParentIndex != 0 {
		t.Fatalf("ctx with ParentIndex==holder = %+v, want ParentIndex reset to 0", deepest)
	}
}

// removeLeftmostSuffix, branch 3: the evicted leaf hangs two levels
// down, so its parent (the holder) is freed, the leaf's sibling is
// relinked under the grandparent in the holder's place, and any active
// context that was pointing through the holder is repointed at the
// promoted sibling.
func TestRemoveLeftmostSuffixRelinksThroughGrandparent(t *testing.T) {
	tables := lut.New()
	tr := New(16, 1, tables)
	tr.state = Proper
	tr.window = &Window{buf: []byte{0x00, 0, 0, 0}, start: 0, cursor: 3, size: 3, capacity: 4}
	tr.nodes = &Nodes{freeHead: noFree, items: []Node{
		{Depth: 0, Left: InnerChild(1), Right: LeafChild(9)}, // root
		{Depth: 1, Left: LeafChild(0), Right: InnerChild(2)}, // holder
		{Depth: 2, TextStart: 42},                            // sibling, promoted in place
	}}
	tr.active = &ActiveContexts{capacity: 2}
	tr.active.Shift(ActiveContext{NodeIndex: 99, InLeaf: true, ParentIndex: 1}) // only ParentIndex matches holder
	tr.active.Shift(ActiveContext{NodeIndex: 1, InLeaf: false})                 // NodeIndex matches holder

	tr.removeLeftmostSuffix()

	root := tr.nodes.Root()
	if !root.Left.IsInner() || root.Left.InnerIndex() != 2 {
		t.Fatalf("root.Left = %+v, want InnerChild(2) (the promoted sibling)", root.Left)
	}

	viaNodeIndex := tr.active.At(0)
	if viaNodeIndex.NodeIndex != 2 || viaNodeIndex.ParentIndex != 0 || viaNodeIndex.DirectionFromParent != Left {
		t.Fatalf("ctx matched by NodeIndex = %+v, want relinked to sibling under root", viaNodeIndex)
	}
	if viaNodeIndex.SuffixIndex != 42 {
		t.Fatalf("ctx matched by NodeIndex: SuffixIndex = %d, want the sibling's TextStart 42", viaNodeIndex.SuffixIndex)
	}

	viaParentIndex := tr.active.At(1)
	if viaParentIndex.ParentIndex != 0 || viaParentIndex.DirectionFromParent != Left {
		t.Fatalf("ctx matched by ParentIndex = %+v, want ParentIndex relinked to root", viaParentIndex)
	}
	if viaParentIndex.NodeIndex != 99 {
		t.Fatalf("ctx matched only by ParentIndex should keep its own NodeIndex, got %d", viaParentIndex.NodeIndex)
	}

	if tr.nodes.freeHead != 1 {
		t.Fatalf("freeHead = %d, want 1 (the freed holder)", tr.nodes.freeHead)
	}
}
