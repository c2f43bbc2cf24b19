package tree

import (
	"github.com/colewyeth/paqmix/estimators"
	"github.com/colewyeth/paqmix/history/state"
)

// MaxOccurrenceCount is the saturating ceiling for a node's per-direction
// occurrence counters.
const MaxOccurrenceCount = 63

// Node is a fixed-size suffix-tree record: the window position where its
// incoming edge's text starts, its bit depth, per-direction occurrence
// counts, an 11-bit packed bit-history, a decelerating probability
// estimator, cost trackers, and its two children.
type Node struct {
	TextStart    WindowIndex
	Depth        uint32
	LeftCount    uint8
	RightCount   uint8
	HistoryState state.BitHistory
	BitsRuns     state.BitsRunsTracker
	Estimator    estimators.DeceleratingEstimator
	Cost         estimators.CostTrackers
	Left         NodeChild
	Right        NodeChild
}

// Child returns the node's child in the given direction.
func (n *Node) Child(d Direction) NodeChild {
	if d == Left {
		return n.Left
	}
	return n.Right
}

// SetChild sets the node's child in the given direction.
func (n *Node) SetChild(d Direction, c NodeChild) {
	if d == Left {
		n.Left = c
	} else {
		n.Right = c
	}
}

// Count returns the node's occurrence count in the given direction.
func (n *Node) Count(d Direction) uint8 {
	if d == Left {
		return n.LeftCount
	}
	return n.RightCount
}

// BumpCount increments the direction's occurrence counter, saturating at
// MaxOccurrenceCount.
func (n *Node) BumpCount(d Direction) {
	if d == Left {
		if n.LeftCount < MaxOccurrenceCount {
			n.LeftCount++
		}
	} else if n.RightCount < MaxOccurrenceCount {
		n.RightCount++
	}
}

// TotalCount is left+right, the node's total visit count.
func (n *Node) TotalCount() uint32 { return uint32(n.LeftCount) + uint32(n.RightCount) }
