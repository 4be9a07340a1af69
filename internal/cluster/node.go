package cluster

import "sort"

// SlotPeer is a decoded (slot, counterpart node identity) pair from a
// node's migrating/importing list.
type SlotPeer struct {
	Slot        uint16
	CounterpartID string
}

// Node represents one backend instance: its address, identity, role,
// owned slots, in-flight migrations, its connection, and the topology
// that owns it.
type Node struct {
	Topology *Topology

	IP   string
	Port int
	Name string

	IsReplica   bool
	ReplicateID string // primary's identity, only meaningful if IsReplica

	Slots []uint16 // sorted ascending; only slots this node owns per SlotMap, except mid-load

	// Migrating/Importing store flattened (slot, counterpart-id) pairs,
	// length always even, mirroring the original's sds array layout so a
	// migrating slot's counterpart is recoverable without an extra type.
	Migrating []string
	Importing []string

	Connection *Connection

	// DuplicatedFrom is a weak back-reference to the node this one was
	// deep-copied from. Nulled out by the source's free path.
	DuplicatedFrom *Node
}

// MigratingPairs decodes the flattened Migrating array into SlotPeer
// pairs. Malformed (non-numeric) slot entries are skipped.
func (n *Node) MigratingPairs() []SlotPeer {
	return decodePairs(n.Migrating)
}

// ImportingPairs decodes the flattened Importing array into SlotPeer
// pairs.
func (n *Node) ImportingPairs() []SlotPeer {
	return decodePairs(n.Importing)
}

func decodePairs(flat []string) []SlotPeer {
	out := make([]SlotPeer, 0, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		slot, err := parseSlot(flat[i])
		if err != nil {
			continue
		}
		out = append(out, SlotPeer{Slot: slot, CounterpartID: flat[i+1]})
	}
	return out
}

// addSlot appends slot to the node's owned-slots list, keeping it sorted
// (node-list records describe slots in ascending order, but range
// expansion within a single record and multiple records both append in
// order, so a plain append preserves the invariant in practice; sort
// defensively to be robust to out-of-order input).
func (n *Node) addSlot(slot uint16) {
	n.Slots = append(n.Slots, slot)
	if len(n.Slots) > 1 && n.Slots[len(n.Slots)-2] > slot {
		sort.Slice(n.Slots, func(i, j int) bool { return n.Slots[i] < n.Slots[j] })
	}
}

// newNode builds a fresh, unpopulated node owned by t with a closed
// connection and empty queues, without registering it in the topology's
// node list — callers decide whether and when to add it (mirroring the
// original's separation of createClusterNode from listAddNodeTail).
func (t *Topology) newNode(ip string, port int) *Node {
	return &Node{
		Topology:   t,
		IP:         ip,
		Port:       port,
		Connection: newConnection(),
	}
}

// addNode registers an already-built node into the topology's
// insertion-ordered node list.
func (t *Topology) addNode(node *Node) {
	t.nodes = append(t.nodes, node)
}

// CreateNode creates a fresh, unpopulated node and immediately registers
// it in the topology's node list. This is the convenience entry point
// for callers (seed creation, tests) that want a node to be part of the
// topology right away; the loader uses the lower-level newNode for
// not-yet-confirmed peers.
func (t *Topology) CreateNode(ip string, port int) *Node {
	node := t.newNode(ip, port)
	t.addNode(node)
	return node
}

// FreeNode disconnects node's connection (invoking the disconnection
// hook), releases its queued requests via the external hook, removes it
// from the topology's node list, and severs its weak back-link.
// Idempotent on nil.
func (t *Topology) FreeNode(node *Node) {
	if node == nil {
		return
	}
	if node.Connection != nil {
		node.Connection.disconnect(node)
		if t.hooks != nil {
			pending := node.Connection.requestsPending.drain()
			toSend := node.Connection.requestsToSend.drain()
			if len(pending) > 0 {
				t.hooks.FreeRequestList(pending)
			}
			if len(toSend) > 0 {
				t.hooks.FreeRequestList(toSend)
			}
		}
	}
	for i, n := range t.nodes {
		if n == node {
			t.nodes = append(t.nodes[:i], t.nodes[i+1:]...)
			break
		}
	}
	if node.DuplicatedFrom != nil {
		node.DuplicatedFrom = nil
	}
}

// Nodes returns the topology's nodes in insertion order. Callers must
// not mutate the returned slice.
func (t *Topology) Nodes() []*Node {
	return t.nodes
}
