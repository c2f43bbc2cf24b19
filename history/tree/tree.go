package tree

import (
	"github.com/colewyeth/paqmix/bit"
	"github.com/colewyeth/paqmix/estimators"
	"github.com/colewyeth/paqmix/history/state"
	"github.com/colewyeth/paqmix/history"
	"github.com/colewyeth/paqmix/lut"
)

// TreeState is Proper (every inner node has exactly two children) or
// Degenerate (no inner nodes; every window byte seen so far is
// identical, so no context has ever needed to branch).
type TreeState int

const (
	Degenerate TreeState = iota
	Proper
)

// Tree is the bit-level sliding-window suffix tree: the cyclic window,
// the node arena, the active contexts for every order 0..max_order, and
// the Proper/Degenerate state machine that ties them together.
type Tree struct {
	window *Window
	nodes  *Nodes
	active *ActiveContexts

	maxOrder int
	state    TreeState

	currentByteIndex WindowIndex
	bitIndex         uint8

	rates   *lut.DeceleratingEstimatorRates
	cache   *lut.DeceleratingEstimatorCache
	costLut *lut.CostTrackersLut
}

// New builds an empty tree over a window of the given byte capacity,
// tracking active contexts for orders 0..maxOrder.
func New(windowCapacity uint32, maxOrder int, tables *lut.LookUpTables) *Tree {
	return &Tree{
		window:   NewWindow(windowCapacity),
		nodes:    NewNodes(windowCapacity),
		active:   NewActiveContexts(maxOrder),
		maxOrder: maxOrder,
		state:    Degenerate,
		rates:    tables.EstimatorRates(),
		cache:    tables.EstimatorCache(),
		costLut:  tables.CostTrackers(),
	}
}

func (t *Tree) MaxOrder() int { return t.maxOrder }

// BitIndex returns the index, within the byte currently being read, of
// the next bit ProcessInputBit will consume (0 for the first, most
// significant bit, up to 7 for the last). Callers use it to drive
// GatherStates, which needs to know which bit of the in-progress byte it
// is being asked to describe.
func (t *Tree) BitIndex() uint8 { return t.bitIndex }

// StartNewByte advances the window cursor, evicting the leftmost suffix
// first if the window is already full, and shifts a fresh order-0
// active context in.
func (t *Tree) StartNewByte() {
	if t.window.Full() {
		t.removeLeftmostSuffix()
	}
	t.currentByteIndex = t.window.Cursor()
	t.window.AdvanceCursor(0)
	t.bitIndex = 0

	visits := uint32(0)
	if t.state == Proper {
		root := t.nodes.Root()
		visits = root.TotalCount()
		if visits > MaxOccurrenceCount {
			visits = MaxOccurrenceCount
		}
	}
	t.active.Shift(ActiveContext{
		SuffixIndex:             t.currentByteIndex,
		NodeIndex:               0,
		ParentIndex:             0,
		IncomingEdgeVisitsCount: int32(visits),
		InLeaf:                  false,
		DirectionFromParent:     Left,
	})
}

// targetDepth is the bit depth a node must have, at order and the
// current bitIndex, to already sit exactly at the point being processed.
func targetDepth(order int, bitIndex uint8) uint32 {
	return uint32(order)*8 + uint32(bitIndex)
}

// ProcessInputBit folds one observed bit into the tree: it writes the
// bit into the in-progress window byte, then walks every active context
// from the deepest order down, descending through already-materialised
// nodes and splitting an edge the first time a context's continuation
// disagrees with what was recorded before.
func (t *Tree) ProcessInputBit(b bit.Bit, newCost estimators.CostTrackers) error {
	t.window.SetBit(t.currentByteIndex, t.bitIndex, b)

	if t.state == Degenerate {
		t.extend(b, newCost)
		t.bitIndex++
		return nil
	}

	truncateFrom := -1
	for order := t.active.Len() - 1; order >= 0; order-- {
		ctx := t.active.At(order)

		if ctx.InLeaf {
			parent := t.nodes.Get(ctx.NodeIndex)
			child := parent.Child(ctx.DirectionFromParent)
			if child.IsInner() {
				ctx.ParentIndex = ctx.NodeIndex
				ctx.NodeIndex = child.InnerIndex()
				ctx.InLeaf = false
				ctx.SuffixIndex = t.nodes.Get(ctx.NodeIndex).TextStart
			}
		}

		want := targetDepth(order, t.bitIndex)
		if !ctx.InLeaf && t.nodes.Get(ctx.NodeIndex).Depth == want {
			t.descend(ctx, order, b, newCost)
			continue
		}

		if ctx.SuffixIndex == t.currentByteIndex {
			// A brand new order-0 leaf pointing at the very byte still
			// being assembled carries no historical information yet;
			// nothing to compare against until a future byte revisits it.
			continue
		}

		historical := t.window.BitAt(ctx.SuffixIndex, t.bitIndex)
		if b != historical {
			t.splitEdge(order, t.bitIndex, ctx, b, newCost)
			if truncateFrom == -1 || order+1 < truncateFrom {
				truncateFrom = order + 1
			}
		}
	}
	if truncateFrom >= 0 {
		t.active.Truncate(truncateFrom)
	}

	t.bitIndex++
	return nil
}

// descend moves ctx one step deeper through an already-materialised
// node: it updates the node's own counters and estimators with the
// observed bit, then either follows an existing child or creates a new
// leaf for the suffix now starting at this order.
func (t *Tree) descend(ctx *ActiveContext, order int, b bit.Bit, newCost estimators.CostTrackers) {
	node := t.nodes.Get(ctx.NodeIndex)
	dir := FromBit(b)
	node.BumpCount(dir)
	node.HistoryState = node.HistoryState.Updated(b)
	node.Estimator = node.Estimator.Update(t.rates, b)
	node.Cost = newCost

	child := node.Child(dir)
	newSuffix := t.window.Sub(t.currentByteIndex, uint32(order))

	switch {
	case child.IsInvalid():
		node.SetChild(dir, LeafChild(newSuffix))
		ctx.ParentIndex = ctx.NodeIndex
		ctx.InLeaf = true
		ctx.DirectionFromParent = dir
		ctx.SuffixIndex = newSuffix
	case child.IsLeaf():
		ctx.ParentIndex = ctx.NodeIndex
		ctx.InLeaf = true
		ctx.DirectionFromParent = dir
		ctx.SuffixIndex = child.LeafIndex()
	default:
		ctx.ParentIndex = ctx.NodeIndex
		ctx.NodeIndex = child.InnerIndex()
		ctx.InLeaf = false
		ctx.DirectionFromParent = dir
		ctx.SuffixIndex = t.nodes.Get(ctx.NodeIndex).TextStart
	}
	node = t.nodes.Get(ctx.ParentIndex)
	ctx.IncomingEdgeVisitsCount = int32(node.TotalCount())
}

// seedSplitNode fills in a freshly allocated node's counts, estimator,
// cost trackers and history for an edge split where bit b is the newly
// diverging direction after opposingRunLength repetitions of !b.
func (t *Tree) seedSplitNode(node *Node, depth uint32, textStart WindowIndex, b bit.Bit, opposingRunLength uint32) {
	*node = Node{Depth: depth, TextStart: textStart}
	node.BumpCount(FromBit(b))
	for i := uint32(0); i < opposingRunLength && i < MaxOccurrenceCount; i++ {
		node.BumpCount(FromBit(b.Opposite()))
	}
	prediction, count := t.cache.ForNewNode(b, opposingRunLength)
	node.Estimator = estimators.NewDeceleratingEstimatorFrom(prediction, count)
	costRaw := t.costLut.ForNewNode(b, opposingRunLength)
	node.Cost = estimators.CostTrackers{
		Stationary:    estimators.NewCostTrackerFromRaw(costRaw),
		NonStationary: estimators.NewCostTrackerFromRaw(costRaw),
	}
	node.HistoryState = state.MakeBitRunHistory(opposingRunLength, b.Opposite()).Updated(b)
	runs := state.NewBitsRunsTracker()
	for i := uint32(0); i < opposingRunLength; i++ {
		runs = runs.Updated(b.Opposite())
	}
	node.BitsRuns = runs.Updated(b)
}

// splitEdge materialises a new node at the point where ctx's
// continuation first disagrees with the historical suffix it was
// tracking, with the new suffix (starting order bytes back from the
// current byte) on one side and the previous occupant (a subtree or a
// leaf) on the other.
func (t *Tree) splitEdge(order int, bitIndex uint8, ctx *ActiveContext, b bit.Bit, newCost estimators.CostTrackers) {
	depth := targetDepth(order, bitIndex)
	newIdx := t.nodes.Alloc()
	newSuffix := t.window.Sub(t.currentByteIndex, uint32(order))

	visits := uint32(0)
	if ctx.IncomingEdgeVisitsCount > 0 {
		visits = uint32(ctx.IncomingEdgeVisitsCount)
	}
	node := t.nodes.Get(newIdx)
	t.seedSplitNode(node, depth, newSuffix, b, visits)
	node.Cost = newCost

	dir := FromBit(b)
	node.SetChild(dir, LeafChild(newSuffix))
	if ctx.InLeaf {
		node.SetChild(dir.Opposite(), LeafChild(ctx.SuffixIndex))
	} else {
		node.SetChild(dir.Opposite(), InnerChild(ctx.NodeIndex))
	}

	parent := t.nodes.Get(ctx.ParentIndex)
	parent.SetChild(ctx.DirectionFromParent, InnerChild(newIdx))

	ctx.NodeIndex = newIdx
	ctx.InLeaf = false
	ctx.SuffixIndex = newSuffix
	ctx.IncomingEdgeVisitsCount = int32(node.TotalCount())
}

// extend is the Degenerate-state counterpart of ProcessInputBit: it
// compares the incoming bit against the single repeating byte pattern
// and, on the first disagreement, builds the initial chain of nodes for
// every order at once and flips the tree to Proper.
func (t *Tree) extend(b bit.Bit, newCost estimators.CostTrackers) {
	if t.window.Size() == 0 {
		return
	}
	expected := t.window.BitAt(t.window.Start(), t.bitIndex)
	if b == expected {
		return
	}
	t.splitDegenerateRootEdge(t.bitIndex, b, newCost)
	t.state = Proper
}

// splitDegenerateRootEdge builds the thin chain of nodes root ->
// node(order 0) -> node(order 1) -> ... -> node(maxChain), each
// diverging at the same relative bit position (the repeating pattern
// was identical up to here for every order), with the newly observed
// suffix hanging off the divergent direction of every node and the
// remaining repeated-byte occurrence hanging off the far end.
func (t *Tree) splitDegenerateRootEdge(bitIndex uint8, b bit.Bit, newCost estimators.CostTrackers) {
	maxChain := t.maxOrder
	if limit := int(t.window.Size()) - 2; limit < maxChain {
		maxChain = limit
	}
	if maxChain < 0 {
		maxChain = 0
	}

	dir := FromBit(b)
	agree := dir.Opposite()
	opposingRunLength := t.window.Size()
	if opposingRunLength > 0 {
		opposingRunLength--
	}

	ids := make([]uint32, maxChain+1)
	for k := 0; k <= maxChain; k++ {
		ids[k] = t.nodes.Alloc()
		depth := uint32(k)*8 + uint32(bitIndex)
		newSuffix := t.window.Sub(t.currentByteIndex, uint32(k))
		node := t.nodes.Get(ids[k])
		t.seedSplitNode(node, depth, newSuffix, b, opposingRunLength)
		node.Cost = newCost
		node.SetChild(dir, LeafChild(newSuffix))
	}
	for k := 0; k <= maxChain; k++ {
		node := t.nodes.Get(ids[k])
		if k < maxChain {
			node.SetChild(agree, InnerChild(ids[k+1]))
		} else {
			node.SetChild(agree, LeafChild(t.window.Start()))
			node.BumpCount(agree)
		}
	}
	t.nodes.Root().SetChild(dir, InnerChild(ids[0]))
	t.nodes.Root().SetChild(agree, InvalidChild)
	t.nodes.Root().BumpCount(dir)

	t.active.Reset()
	for k := 0; k <= maxChain; k++ {
		t.active.Shift(ActiveContext{
			SuffixIndex:             t.window.Sub(t.currentByteIndex, uint32(k)),
			NodeIndex:               ids[k],
			ParentIndex:             0,
			IncomingEdgeVisitsCount: int32(t.nodes.Get(ids[k]).TotalCount()),
			InLeaf:                  false,
			DirectionFromParent:     dir,
		})
	}
}

// removeLeftmostSuffix evicts the window's oldest byte from the tree,
// called just before it is physically overwritten.
func (t *Tree) removeLeftmostSuffix() {
	start := t.window.Start()

	if t.state == Degenerate {
		t.window.AdvanceStart()
		return
	}

	cur := uint32(0)
	prev := uint32(0)
	prevDir := Left
	prevValid := false

	var holderDir Direction
	for {
		node := t.nodes.Get(cur)
		byteOff := node.Depth / 8
		bitOff := uint8(node.Depth % 8)
		b := t.window.BitAt(t.window.Add(start, byteOff), bitOff)
		dir := FromBit(b)
		child := node.Child(dir)
		if child.IsLeaf() {
			holderDir = dir
			break
		}
		prev = cur
		prevDir = dir
		prevValid = true
		cur = child.InnerIndex()
	}

	holder := cur
	holderNode := t.nodes.Get(holder)
	leaf := holderNode.Child(holderDir)

	if leaf.LeafIndex() != start {
		for order := 0; order < t.active.Len(); order++ {
			ctx := t.active.At(order)
			if ctx.SuffixIndex == start {
				ctx.InLeaf = false
				ctx.NodeIndex = 0
				ctx.ParentIndex = 0
				ctx.SuffixIndex = t.currentByteIndex
			}
		}
		t.window.AdvanceStart()
		return
	}

	sibling := holderNode.Child(holderDir.Opposite())

	if holder == 0 {
		if sibling.IsLeaf() {
			t.state = Degenerate
			t.active.Reset()
			*t.nodes.Root() = Node{}
		} else {
			siblingIdx := sibling.InnerIndex()
			siblingNode := *t.nodes.Get(siblingIdx)
			siblingNode.Depth = 0
			*t.nodes.Root() = siblingNode
			for order := 0; order < t.active.Len(); order++ {
				ctx := t.active.At(order)
				if !ctx.InLeaf && ctx.NodeIndex == siblingIdx {
					ctx.NodeIndex = 0
				}
				if ctx.ParentIndex == siblingIdx {
					ctx.ParentIndex = 0
				}
			}
			t.nodes.Free(siblingIdx)
		}
	} else {
		if !prevValid {
			prev = 0
			prevDir = holderDir
		}
		grand := t.nodes.Get(prev)
		grand.SetChild(prevDir, sibling)
		for order := 0; order < t.active.Len(); order++ {
			ctx := t.active.At(order)
			if !ctx.InLeaf && ctx.NodeIndex == holder {
				if sibling.IsLeaf() {
					ctx.InLeaf = true
					ctx.NodeIndex = prev
					ctx.ParentIndex = prev
					ctx.DirectionFromParent = prevDir
					ctx.SuffixIndex = sibling.LeafIndex()
				} else {
					ctx.NodeIndex = sibling.InnerIndex()
					ctx.ParentIndex = prev
					ctx.DirectionFromParent = prevDir
					ctx.SuffixIndex = t.nodes.Get(ctx.NodeIndex).TextStart
				}
			}
			if ctx.ParentIndex == holder {
				ctx.ParentIndex = prev
				ctx.DirectionFromParent = prevDir
			}
		}
		t.nodes.Free(holder)
	}

	t.window.AdvanceStart()
}

// GatherStates emits one ContextState per currently active order,
// filtering out any whose history carries no information yet.
func (t *Tree) GatherStates(bitIndex uint8, out *history.CollectedContextStates) {
	out.Reset()

	if t.state == Degenerate {
		if t.window.Size() == 0 {
			return
		}
		n := t.maxOrder + 1
		if limit := int(t.window.Size()) - 1; limit < n {
			n = limit
		}
		if n < 0 {
			n = 0
		}
		repeated := t.window.BitAt(t.window.Start(), bitIndex)
		count := t.window.Size()
		if count > 0 {
			count--
		}
		for k := 0; k < n; k++ {
			synthesised := state.MakeBitRunHistory(count, repeated)
			if synthesised.IsEmpty() {
				continue
			}
			out.Push(history.ContextState{
				Kind:                   history.ForEdge,
				RepeatedBit:            repeated,
				OccurrenceCount:        count,
				LastOccurrenceDistance: uint32(k)*8 + uint32(bitIndex) + 1,
			})
		}
		return
	}

	for order := 0; order < t.active.Len(); order++ {
		ctx := t.active.At(order)
		want := targetDepth(order, bitIndex)
		if !ctx.InLeaf && t.nodes.Get(ctx.NodeIndex).Depth == want {
			node := t.nodes.Get(ctx.NodeIndex)
			if node.HistoryState.IsEmpty() {
				continue
			}
			dist := (t.window.Distance(t.currentByteIndex) + t.window.Capacity() - t.window.Distance(node.TextStart)) % t.window.Capacity()
			out.Push(history.ContextState{
				Kind:                   history.ForNode,
				LastOccurrenceIndex:    uint32(node.TextStart),
				ProbabilityEstimator:   node.Estimator,
				BitsRuns:               node.BitsRuns,
				Cost:                   node.Cost,
				HistoryState:           node.HistoryState,
				LastOccurrenceDistance: dist,
			})
			continue
		}

		visits := uint32(0)
		if ctx.IncomingEdgeVisitsCount > 0 {
			visits = uint32(ctx.IncomingEdgeVisitsCount)
		}
		repeated := bit.Zero
		if ctx.SuffixIndex != t.currentByteIndex {
			repeated = t.window.BitAt(ctx.SuffixIndex, bitIndex)
		}
		synthesised := state.MakeBitRunHistory(visits, repeated)
		if synthesised.IsEmpty() {
			continue
		}
		dist := (t.window.Distance(t.currentByteIndex) + t.window.Capacity() - t.window.Distance(ctx.SuffixIndex)) % t.window.Capacity()
		out.Push(history.ContextState{
			Kind:                   history.ForEdge,
			RepeatedBit:            repeated,
			OccurrenceCount:        visits,
			LastOccurrenceDistance: dist,
		})
	}
}
