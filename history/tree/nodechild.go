package tree

// NodeChild is a tagged handle to either a window leaf or an inner node:
// non-negative values address a leaf at that WindowIndex; the bitwise
// complement of a non-negative value addresses an inner node at that
// index. InvalidChild (the complement of node index 0) is safe as a
// sentinel because the root can never be any node's child.
type NodeChild int32

// InvalidChild marks an absent child.
const InvalidChild NodeChild = -1

// LeafChild builds a handle pointing at a window suffix.
func LeafChild(idx WindowIndex) NodeChild { return NodeChild(idx) }

// InnerChild builds a handle pointing at an arena node.
func InnerChild(idx uint32) NodeChild { return ^NodeChild(idx) }

func (c NodeChild) IsInvalid() bool { return c == InvalidChild }
func (c NodeChild) IsLeaf() bool    { return c >= 0 }
func (c NodeChild) IsInner() bool   { return c < 0 && c != InvalidChild }

func (c NodeChild) LeafIndex() WindowIndex { return WindowIndex(c) }
func (c NodeChild) InnerIndex() uint32     { return uint32(^c) }
