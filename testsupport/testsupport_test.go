package testsupport

import (
	"strconv"
	"testing"

	"github.com/user/clusterproxy/internal/cluster"
)

func TestFakeNodeServesFetchTopology(t *testing.T) {
	node, err := NewFakeNode("")
	if err != nil {
		t.Fatalf("NewFakeNode failed: %v", err)
	}
	defer node.Close()

	host, port, err := node.HostPort()
	if err != nil {
		t.Fatalf("HostPort failed: %v", err)
	}

	line := NodeRecordLine("seed-1", host+":"+strconv.Itoa(port), "myself,master", "-", "0-16383")
	node.SetPayload(line)

	topo := cluster.NewTopology(0, nil, nil, nil)
	if err := topo.FetchTopology(host, port, ""); err != nil {
		t.Fatalf("FetchTopology failed: %v", err)
	}

	if got := len(topo.Nodes()); got != 1 {
		t.Fatalf("len(Nodes()) = %d, want 1", got)
	}
	if n := topo.NodeBySlot(0); n == nil || n.Name != "seed-1" {
		t.Errorf("NodeBySlot(0) = %v, want seed-1", n)
	}
}

func TestRequestFixtureProducesUniqueParkedRequests(t *testing.T) {
	seen := make(map[int64]bool)
	for i := 0; i < 50; i++ {
		_, req := RequestFixture()
		if seen[req.ID] {
			t.Fatalf("duplicate request ID %d on iteration %d", req.ID, i)
		}
		seen[req.ID] = true
		if req.Client.RequestsToReprocess[0] != req {
			t.Error("RequestFixture's client does not reference its own request")
		}
	}
}

