package cluster

import "testing"

type recordingProcessor struct {
	calls []*Request
}

func (p *recordingProcessor) ProcessRequest(req *Request, node *Node) {
	p.calls = append(p.calls, req)
}

func TestUpdateReturnsWaitWhenRequestsPending(t *testing.T) {
	topo := NewTopology(0, nil, nil, nil)
	node := topo.CreateNode("10.0.0.1", 7000)
	node.Connection.requestsPending.push(&Request{ID: 1, Client: &Client{ID: 1}})

	sig := topo.Update()

	if sig != SignalWait {
		t.Fatalf("Update() = %v, want WAIT", sig)
	}
	if !topo.isUpdating {
		t.Error("Update should set isUpdating while waiting")
	}
}

func TestUpdateParksQueuedNonWritingRequests(t *testing.T) {
	topo := NewTopology(0, nil, nil, nil)
	node := topo.CreateNode("10.0.0.1", 7000)
	client := &Client{ID: 9}
	req := &Request{ID: 1, Client: client, HasWriteHandler: false}
	node.Connection.requestsToSend.push(req)
	// Also queue a pending (sent, awaiting reply) request so Update sees wait_count > 0 and
	// returns WAIT before attempting re-discovery against a real network.
	node.Connection.requestsPending.push(&Request{ID: 2, Client: client})

	sig := topo.Update()

	if sig != SignalWait {
		t.Fatalf("Update() = %v, want WAIT", sig)
	}
	if !req.NeedReprocessing {
		t.Error("a queued, non-write-handler request should be parked for reprocessing")
	}
	if len(node.Connection.requestsToSend.items) != 0 {
		t.Error("the parked request should be removed from requestsToSend")
	}
}

func TestUpdateReturnsErrWhenBroken(t *testing.T) {
	topo := NewTopology(0, nil, nil, nil)
	topo.broken = true

	if sig := topo.Update(); sig != SignalErr {
		t.Errorf("Update() on a broken topology = %v, want ERR", sig)
	}
}

func TestUpdateReturnsErrWithNoSeed(t *testing.T) {
	topo := NewTopology(0, nil, nil, nil)
	// No nodes at all: nothing to wait on, and no seed address remembered.
	if sig := topo.Update(); sig != SignalErr {
		t.Errorf("Update() with no nodes = %v, want ERR", sig)
	}
	if !topo.broken {
		t.Error("Update should mark the topology broken when no seed is available")
	}
}

func TestAddAndRemoveRequestToReprocess(t *testing.T) {
	topo := NewTopology(0, nil, nil, nil)
	client := &Client{ID: 1}
	req := &Request{ID: 5, Client: client, Node: &Node{}, Written: 3}

	topo.AddRequestToReprocess(req)

	if !req.NeedReprocessing {
		t.Error("AddRequestToReprocess should set NeedReprocessing")
	}
	if req.Node != nil {
		t.Error("AddRequestToReprocess should clear the request's node reference")
	}
	if len(topo.requestsToReprocess) != 1 {
		t.Fatalf("requestsToReprocess should contain one entry, got %d", len(topo.requestsToReprocess))
	}
	if len(client.RequestsToReprocess) != 1 {
		t.Fatalf("client's own reprocess list should contain one entry, got %d", len(client.RequestsToReprocess))
	}

	topo.RemoveRequestToReprocess(req)

	if len(topo.requestsToReprocess) != 0 {
		t.Errorf("RemoveRequestToReprocess should remove the topology's entry, got %d left", len(topo.requestsToReprocess))
	}
	if len(client.RequestsToReprocess) != 0 {
		t.Errorf("RemoveRequestToReprocess should remove the client's own entry, got %d left", len(client.RequestsToReprocess))
	}
}

func TestReplayWithHandsRequestsToProcessor(t *testing.T) {
	topo := NewTopology(0, nil, nil, nil)
	client := &Client{ID: 1}
	req := &Request{ID: 1, Client: client}
	topo.AddRequestToReprocess(req)

	proc := &recordingProcessor{}
	topo.ReplayWith(proc)

	if len(proc.calls) != 1 || proc.calls[0] != req {
		t.Fatalf("ReplayWith should hand the parked request to the processor, got %v", proc.calls)
	}
	if len(topo.requestsToReprocess) != 0 {
		t.Error("ReplayWith should drain the reprocess map")
	}
	if req.NeedReprocessing {
		t.Error("ReplayWith should clear NeedReprocessing on replay")
	}
}
