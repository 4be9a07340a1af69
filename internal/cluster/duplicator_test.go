package cluster

import "testing"

func TestDuplicateIsDisjoint(t *testing.T) {
	source := NewTopology(7, nil, nil, nil)
	a := source.CreateNode("10.0.0.1", 7000)
	a.Name = "node-a"
	a.Slots = []uint16{1, 2, 3}
	source.slotMap.Insert(1, a)
	source.slotMap.Insert(2, a)

	dup := source.Duplicate()

	if dup.ThreadID != source.ThreadID {
		t.Errorf("duplicate should keep the source's thread identity, got %d want %d", dup.ThreadID, source.ThreadID)
	}
	if len(dup.nodes) != 1 {
		t.Fatalf("duplicate should have one node, got %d", len(dup.nodes))
	}

	dupNode := dup.nodes[0]
	if dupNode == a {
		t.Fatal("duplicate node must not be the same object as the source node")
	}
	if dupNode.Name != "node-a" || dupNode.IP != "10.0.0.1" {
		t.Errorf("duplicate node identity mismatch: %+v", dupNode)
	}

	// Mutating the duplicate must not affect the source.
	dupNode.Slots[0] = 999
	if a.Slots[0] == 999 {
		t.Error("duplicate's Slots slice must not share backing storage with the source's")
	}

	if dup.slotMap.Len() != 2 {
		t.Fatalf("duplicate's SlotMap should carry over both entries, got %d", dup.slotMap.Len())
	}
	node, ok := dup.slotMap.LookupExact(1)
	if !ok || node != dupNode {
		t.Error("duplicate's SlotMap should map slot 1 to the duplicate node, not the source node")
	}
}

func TestDuplicateRegistersIntoSourceDuplicates(t *testing.T) {
	source := NewTopology(0, nil, nil, nil)
	source.CreateNode("10.0.0.1", 7000)

	dup1 := source.Duplicate()
	dup2 := source.Duplicate()

	if len(source.duplicates) != 2 {
		t.Fatalf("source should track both duplicates, got %d", len(source.duplicates))
	}
	if source.duplicates[0] != dup1 || source.duplicates[1] != dup2 {
		t.Error("source.duplicates should hold the duplicates in creation order")
	}
}
