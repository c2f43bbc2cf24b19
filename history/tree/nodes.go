package tree

// noFree is the arena free-list terminator; it is bit-identical to
// InvalidChild, so a freed node's Left field doubles as the next-free
// pointer without any extra tag.
const noFree = uint32(0xffffffff)

// Nodes is the dense node arena: a growable slice plus a singly linked
// free list threaded through each deleted node's Left field. Index 0 is
// the reserved root slot and is never freed.
type Nodes struct {
	items    []Node
	freeHead uint32
}

// NewNodes allocates an arena with the root slot reserved, sized for up
// to capacity live nodes.
func NewNodes(capacity uint32) *Nodes {
	items := make([]Node, 1, capacity)
	return &Nodes{items: items, freeHead: noFree}
}

func (n *Nodes) Root() *Node { return &n.items[0] }

func (n *Nodes) Get(idx uint32) *Node { return &n.items[idx] }

func (n *Nodes) Len() uint32 { return uint32(len(n.items)) }

// Alloc returns the index of a fresh, zeroed node, reusing a freed slot
// when one is available.
func (n *Nodes) Alloc() uint32 {
	if n.freeHead != noFree {
		idx := n.freeHead
		n.freeHead = uint32(n.items[idx].Left)
		n.items[idx] = Node{}
		return idx
	}
	n.items = append(n.items, Node{})
	return uint32(len(n.items) - 1)
}

// Free returns idx to the free list. idx must not be 0 (the root).
func (n *Nodes) Free(idx uint32) {
	n.items[idx] = Node{Left: NodeChild(n.freeHead)}
	n.freeHead = idx
}
