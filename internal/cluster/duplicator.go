package cluster

import "strconv"

// Duplicate deep-copies t into a brand-new Topology with its own node
// set and its own SlotMap pointing at the copies, per spec.md §4.8. The
// copy's nodes carry fresh, disconnected Connections: duplication is
// meant to hand each worker goroutine a private routing view, not to
// share live sockets across threads.
//
// The new topology is registered into t.duplicates and keeps a weak
// DuplicatedFrom back-reference on both the Topology and each of its
// Nodes, so that t.Free (or a later FreeNode) can null them out instead
// of leaving the copy with dangling pointers (spec.md §9).
func (t *Topology) Duplicate() *Topology {
	dup := NewTopology(t.ThreadID, t.logger, t.hooks, t.processor)
	dup.authSecret = t.authSecret
	dup.duplicatedFrom = t

	byName := make(map[string]*Node, len(t.nodes))
	for _, n := range t.nodes {
		copyNode := t.copyNodeInto(dup, n)
		byName[n.identity()] = copyNode
	}

	t.slotMap.ascendAll(func(slot uint16, node *Node) {
		if copyNode, ok := byName[node.identity()]; ok {
			dup.slotMap.Insert(slot, copyNode)
		}
	})

	t.duplicates = append(t.duplicates, dup)
	return dup
}

// copyNodeInto builds a disconnected copy of src owned by dest, copying
// its identity, role, and slot bookkeeping but none of its live
// transport state.
func (t *Topology) copyNodeInto(dest *Topology, src *Node) *Node {
	copyNode := dest.newNode(src.IP, src.Port)
	copyNode.Name = src.Name
	copyNode.IsReplica = src.IsReplica
	copyNode.ReplicateID = src.ReplicateID
	copyNode.Slots = append([]uint16(nil), src.Slots...)
	copyNode.Migrating = append([]string(nil), src.Migrating...)
	copyNode.Importing = append([]string(nil), src.Importing...)
	copyNode.DuplicatedFrom = src
	dest.addNode(copyNode)
	return copyNode
}

// identity is the key used to correlate a source node with its copy
// while rebuilding the duplicate's SlotMap: the node's cluster identity
// if known, falling back to its address (a freshly discovered node may
// not yet have a name populated from a "myself" record).
func (n *Node) identity() string {
	if n.Name != "" {
		return n.Name
	}
	return n.IP + ":" + strconv.Itoa(n.Port)
}
