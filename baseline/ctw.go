// Package baseline implements a plain Context Tree Weighting predictor,
// kept alongside the suffix-tree chain predictor as a simple reference:
// slower and weaker, but easy to trust, so the main predictor's coding
// cost can be checked against something independently verifiable.
package baseline

import (
	"math"

	"github.com/colewyeth/paqmix/bit"
)

// logaddexp computes log(exp(x) + exp(y)) without the intermediate
// exponentials overflowing.
func logaddexp(x, y float64) float64 {
	if x > y {
		return x + math.Log1p(math.Exp(y-x))
	}
	return y + math.Log1p(math.Exp(x-y))
}

// treeNode is one suffix in the context tree: its own Krichevsky-
// Trofimov estimate for the bits it has seen with this exact suffix,
// and the weighted log-probability blending that estimate with its two
// children's.
type treeNode struct {
	logProb float64

	zeros uint32
	ones  uint32
	ktLog float64

	childZero *treeNode
	childOne  *treeNode
}

// krichevskyTrofimov folds one more observed bit into a node's KT
// estimate.
func krichevskyTrofimov(node *treeNode, b bit.Bit) {
	zeros := float64(node.zeros)
	ones := float64(node.ones)
	if b.IsOne() {
		node.ktLog += math.Log(ones+0.5) - math.Log(zeros+ones+1)
		node.ones++
	} else {
		node.ktLog += math.Log(zeros+0.5) - math.Log(zeros+ones+1)
		node.zeros++
	}
}

// snapshot records a node's state before update visited it, so the
// traversal can be undone without paying for a second read-only pass.
type snapshot struct {
	node   *treeNode
	before treeNode
	isNew  bool
}

// update walks the tree along suffix (most recent bit last), creating
// nodes as needed, folding b into the Krichevsky-Trofimov estimate at
// every depth, then recomputing each visited node's weighted
// log-probability bottom-up.
func update(root *treeNode, suffix []bit.Bit, b bit.Bit) []snapshot {
	var traversed []snapshot
	node := root
	traversed = append(traversed, snapshot{node: node, before: *node})
	krichevskyTrofimov(node, b)

	for d := 0; d < len(suffix); d++ {
		isNew := false
		if suffix[len(suffix)-1-d].IsOne() {
			if node.childOne == nil {
				node.childOne = &treeNode{}
				isNew = true
			}
			node = node.childOne
		} else {
			if node.childZero == nil {
				node.childZero = &treeNode{}
				isNew = true
			}
			node = node.childZero
		}
		traversed = append(traversed, snapshot{node: node, before: *node, isNew: isNew})
		krichevskyTrofimov(node, b)
	}

	for i := len(traversed) - 1; i >= 0; i-- {
		n := traversed[i].node
		if n.childZero == nil && n.childOne == nil {
			n.logProb = n.ktLog
			continue
		}
		var lp, rp float64
		if n.childZero != nil {
			lp = n.childZero.logProb
		}
		if n.childOne != nil {
			rp = n.childOne.logProb
		}
		n.logProb = logaddexp(math.Log(0.5)+n.ktLog, math.Log(0.5)+lp+rp)
	}
	return traversed
}

// revert undoes a traversal produced by update, restoring every visited
// node's prior state and pruning any node update created.
func revert(traversed []snapshot) {
	for i, ss := range traversed {
		*ss.node = ss.before
		if i < len(traversed)-1 {
			next := traversed[i+1]
			if next.isNew {
				if next.node == ss.node.childOne {
					ss.node.childOne = nil
				} else {
					ss.node.childZero = nil
				}
				break
			}
		}
	}
}

// CTW is a fixed-depth Context Tree Weighting predictor: it mixes the
// predictions of every Markov order up to depth, weighted by how well
// each has explained the bits seen so far.
type CTW struct {
	suffix []bit.Bit
	root   *treeNode
}

// NewCTW builds a predictor over contexts up to depth bits deep,
// starting from all-zero prior context.
func NewCTW(depth int) *CTW {
	return &CTW{suffix: make([]bit.Bit, depth), root: &treeNode{}}
}

// PredictZero returns the model's current probability that the next bit
// is Zero.
func (c *CTW) PredictZero() float64 {
	before := c.root.logProb
	traversal := update(c.root, c.suffix, bit.Zero)
	after := c.root.logProb
	revert(traversal)
	return math.Exp(after - before)
}

// Observe folds b into the tree and slides it into the suffix window.
func (c *CTW) Observe(b bit.Bit) {
	update(c.root, c.suffix, b)
	copy(c.suffix, c.suffix[1:])
	c.suffix[len(c.suffix)-1] = b
}
