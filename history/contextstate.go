// Package history defines the common context-state representation every
// history source (the suffix tree, and the naive and fat-map reference
// sources) produces, so the predictor can run against any of them
// interchangeably.
package history

import (
	"github.com/colewyeth/paqmix/bit"
	"github.com/colewyeth/paqmix/estimators"
	"github.com/colewyeth/paqmix/history/state"
)

// ContextStateKind tags which variant a ContextState holds.
type ContextStateKind int

const (
	ForNode ContextStateKind = iota
	ForEdge
)

// ContextState is what a history source reports for one active context
// at one bit: either a materialised node (with its own trained
// estimator) or an as-yet-unsplit edge (with just counts and a
// synthesised history).
type ContextState struct {
	Kind ContextStateKind

	// ForNode fields.
	LastOccurrenceIndex  uint32
	ProbabilityEstimator estimators.DeceleratingEstimator
	BitsRuns             state.BitsRunsTracker
	Cost                 estimators.CostTrackers
	HistoryState         state.BitHistory

	// ForEdge fields.
	RepeatedBit     bit.Bit
	OccurrenceCount uint32

	// LastOccurrenceDistance is populated for both kinds: how many bytes
	// back, from the byte currently being predicted, this context's
	// matching text last occurred.
	LastOccurrenceDistance uint32
}

// IsForNode reports whether this state describes a materialised node
// rather than an as-yet-unsplit edge.
func (s ContextState) IsForNode() bool { return s.Kind == ForNode }

// CollectedContextStates is a resettable, reusable buffer of
// ContextState records, one per currently active order.
type CollectedContextStates struct {
	entries []ContextState
}

// NewCollectedContextStates allocates a buffer with room for maxOrder+1
// entries.
func NewCollectedContextStates(maxOrder int) *CollectedContextStates {
	return &CollectedContextStates{entries: make([]ContextState, 0, maxOrder+1)}
}

func (c *CollectedContextStates) Reset() { c.entries = c.entries[:0] }

func (c *CollectedContextStates) Push(s ContextState) { c.entries = append(c.entries, s) }

func (c *CollectedContextStates) Len() int { return len(c.entries) }

func (c *CollectedContextStates) At(i int) ContextState { return c.entries[i] }

func (c *CollectedContextStates) All() []ContextState { return c.entries }

// MakeBitRunHistory synthesises the history state a node would carry if
// it existed, from how many times its incoming edge has repeated bit.
func MakeBitRunHistory(n uint32, b bit.Bit) state.BitHistory {
	return state.MakeBitRunHistory(n, b)
}

// UpdatedBitHistory folds one more observed bit into an existing
// history state.
func UpdatedBitHistory(h state.BitHistory, b bit.Bit) state.BitHistory {
	return h.Updated(b)
}

// HistorySource is the interface the chain predictor drives: any
// implementation that can maintain a sliding window and answer "what do
// you know about each currently active order" works (the suffix tree is
// the production one; naive and fat-map sources exist to check it
// against a simpler, slower reference).
type HistorySource interface {
	StartNewByte()
	ProcessInputBit(b bit.Bit, newCost estimators.CostTrackers) error
	GatherStates(bitIndex uint8, out *CollectedContextStates)
}
