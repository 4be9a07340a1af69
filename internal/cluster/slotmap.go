package cluster

import "github.com/google/btree"

// slotEntry is the item stored in the SlotMap's ordered tree.
type slotEntry struct {
	slot uint16
	node *Node
}

// SlotMap is the ordered slot -> node map of spec.md §4.3. It is backed
// by github.com/google/btree's generic BTreeG rather than a hand-rolled
// radix tree keyed on big-endian bytes: an in-process ordered tree over
// native uint16 keys satisfies the same seek_ge / first contract the
// spec calls out as acceptable for "implementers using native ordered
// maps" (google/btree is already part of the pack's dependency graph via
// hashicorp/memberlist).
type SlotMap struct {
	tree *btree.BTreeG[slotEntry]
}

func slotLess(a, b slotEntry) bool {
	return a.slot < b.slot
}

// NewSlotMap creates an empty slot map.
func NewSlotMap() *SlotMap {
	return &SlotMap{tree: btree.NewG(32, slotLess)}
}

// Insert maps slot to node, overwriting any previous owner.
func (m *SlotMap) Insert(slot uint16, node *Node) {
	m.tree.ReplaceOrInsert(slotEntry{slot: slot, node: node})
}

// LookupExact returns the node mapped to slot, if any. Unused by the
// core's routing path (which uses SeekGE) but useful for tests and
// introspection.
func (m *SlotMap) LookupExact(slot uint16) (*Node, bool) {
	e, ok := m.tree.Get(slotEntry{slot: slot})
	if !ok {
		return nil, false
	}
	return e.node, true
}

// SeekGE returns the smallest mapped slot >= slot and its node. Used by
// routing: the TopologyLoader inserts every slot of a range, so on a
// fully loaded map this finds the exact entry; a slot with no entry of
// its own resolves to the next populated entry (spec.md §4.3, §9 open
// question).
func (m *SlotMap) SeekGE(slot uint16) (uint16, *Node, bool) {
	var found slotEntry
	ok := false
	m.tree.AscendGreaterOrEqual(slotEntry{slot: slot}, func(e slotEntry) bool {
		found = e
		ok = true
		return false
	})
	if !ok {
		return 0, nil, false
	}
	return found.slot, found.node, true
}

// First returns the smallest mapped slot and its node.
func (m *SlotMap) First() (uint16, *Node, bool) {
	e, ok := m.tree.Min()
	if !ok {
		return 0, nil, false
	}
	return e.slot, e.node, true
}

// Len reports the number of distinct slots currently mapped.
func (m *SlotMap) Len() int {
	return m.tree.Len()
}

// ascendAll calls fn for every (slot, node) pair in ascending order; used
// by the Duplicator to rebuild a slot map against a new node set.
func (m *SlotMap) ascendAll(fn func(slot uint16, node *Node)) {
	m.tree.Ascend(func(e slotEntry) bool {
		fn(e.slot, e.node)
		return true
	})
}
