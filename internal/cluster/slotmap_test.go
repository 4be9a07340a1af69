package cluster

import "testing"

func TestSlotMapSeekGE(t *testing.T) {
	m := NewSlotMap()
	n1 := &Node{Name: "n1"}
	n2 := &Node{Name: "n2"}

	m.Insert(100, n1)
	m.Insert(200, n2)

	slot, node, ok := m.SeekGE(50)
	if !ok || slot != 100 || node != n1 {
		t.Fatalf("SeekGE(50) = (%d, %v, %v), want (100, n1, true)", slot, node, ok)
	}

	slot, node, ok = m.SeekGE(100)
	if !ok || slot != 100 || node != n1 {
		t.Fatalf("SeekGE(100) = (%d, %v, %v), want (100, n1, true)", slot, node, ok)
	}

	slot, node, ok = m.SeekGE(150)
	if !ok || slot != 200 || node != n2 {
		t.Fatalf("SeekGE(150) = (%d, %v, %v), want (200, n2, true)", slot, node, ok)
	}

	if _, _, ok := m.SeekGE(201); ok {
		t.Error("SeekGE(201) should miss: no mapped slot beyond 200")
	}
}

func TestSlotMapFirstAndLen(t *testing.T) {
	m := NewSlotMap()
	if _, _, ok := m.First(); ok {
		t.Error("First() on empty map should miss")
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Len())
	}

	n := &Node{Name: "only"}
	m.Insert(42, n)
	m.Insert(7, n)

	slot, node, ok := m.First()
	if !ok || slot != 7 || node != n {
		t.Fatalf("First() = (%d, %v, %v), want (7, only, true)", slot, node, ok)
	}
	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2", m.Len())
	}
}

func TestSlotMapAscendAll(t *testing.T) {
	m := NewSlotMap()
	n := &Node{Name: "n"}
	m.Insert(3, n)
	m.Insert(1, n)
	m.Insert(2, n)

	var seen []uint16
	m.ascendAll(func(slot uint16, node *Node) {
		seen = append(seen, slot)
	})

	want := []uint16{1, 2, 3}
	if len(seen) != len(want) {
		t.Fatalf("ascendAll visited %d entries, want %d", len(seen), len(want))
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("ascendAll order[%d] = %d, want %d", i, seen[i], want[i])
		}
	}
}
