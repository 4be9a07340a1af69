package cluster

import "testing"

func TestTopologyNodeBySlot(t *testing.T) {
	topo := NewTopology(0, nil, nil, nil)
	a := topo.CreateNode("10.0.0.1", 7000)
	b := topo.CreateNode("10.0.0.2", 7000)

	topo.slotMap.Insert(5461, a)
	topo.slotMap.Insert(10922, b)

	if got := topo.NodeBySlot(0); got != a {
		t.Errorf("NodeBySlot(0) = %v, want node a", got)
	}
	if got := topo.NodeBySlot(5461); got != a {
		t.Errorf("NodeBySlot(5461) = %v, want node a", got)
	}
	if got := topo.NodeBySlot(5462); got != b {
		t.Errorf("NodeBySlot(5462) = %v, want node b", got)
	}
	if got := topo.NodeBySlot(16383); got != nil {
		t.Errorf("NodeBySlot(16383) = %v, want nil (uncovered tail)", got)
	}
}

func TestTopologyNodeByKey(t *testing.T) {
	topo := NewTopology(0, nil, nil, nil)
	node := topo.CreateNode("10.0.0.1", 7000)
	topo.slotMap.Insert(SlotCount-1, node)

	got, slot, ok := topo.NodeByKey([]byte("foo"))
	if !ok {
		t.Fatal("NodeByKey should resolve when a covering slot is mapped")
	}
	if got != node {
		t.Errorf("NodeByKey resolved %v, want node", got)
	}
	if slot != SlotOfString("foo") {
		t.Errorf("NodeByKey slot = %d, want %d", slot, SlotOfString("foo"))
	}
}

func TestTopologyResetKeepsReprocessMap(t *testing.T) {
	topo := NewTopology(0, nil, nil, nil)
	topo.CreateNode("10.0.0.1", 7000)
	topo.CreateNode("10.0.0.2", 7000)

	client := &Client{ID: 1}
	req := &Request{ID: 1, Client: client}
	topo.AddRequestToReprocess(req)

	topo.reset()

	if len(topo.nodes) != 0 {
		t.Errorf("reset should clear the node list, got %d nodes", len(topo.nodes))
	}
	if topo.slotMap.Len() != 0 {
		t.Errorf("reset should clear the slot map, got %d entries", topo.slotMap.Len())
	}
	if len(topo.requestsToReprocess) != 1 {
		t.Errorf("reset must keep requestsToReprocess, got %d entries", len(topo.requestsToReprocess))
	}
}

func TestTopologyFreeNullsDuplicateBackLinks(t *testing.T) {
	source := NewTopology(0, nil, nil, nil)
	source.CreateNode("10.0.0.1", 7000)
	source.slotMap.Insert(0, source.nodes[0])

	dup := source.Duplicate()
	if dup.duplicatedFrom != source {
		t.Fatal("duplicate should carry a back-reference to its source")
	}
	if len(source.duplicates) != 1 {
		t.Fatalf("source.duplicates should contain the new duplicate, got %d entries", len(source.duplicates))
	}
	if dup.nodes[0].DuplicatedFrom != source.nodes[0] {
		t.Error("duplicate's node should weakly reference its source node")
	}

	source.Free()

	if dup.duplicatedFrom != nil {
		t.Error("Free should null the duplicate's back-reference to its freed source")
	}
	if dup.nodes[0].DuplicatedFrom != nil {
		t.Error("Free should null the duplicate node's back-reference to its freed source node")
	}
}
