package cluster

// Signal is the return status of Update, mirroring spec.md §6's
// integer-tagged WAIT/STARTED/ENDED/ERR.
type Signal int

const (
	SignalWait Signal = iota
	SignalStarted
	SignalEnded
	SignalErr
)

func (s Signal) String() string {
	switch s {
	case SignalWait:
		return "WAIT"
	case SignalStarted:
		return "STARTED"
	case SignalEnded:
		return "ENDED"
	case SignalErr:
		return "ERR"
	default:
		return "UNKNOWN"
	}
}

// Update drives the reconfiguration state machine of spec.md §4.7:
// quiesce in-flight work, reset, re-discover, and replay parked
// requests. Callers re-invoke Update on SignalWait once the draining
// in-flight work completes (cmd/clusterproxy-demo's update loop does
// this; internal/gossip's drift detector only flags the topology via
// RequireUpdate).
func (t *Topology) Update() Signal {
	if t.broken {
		return SignalErr
	}

	waitCount := 0
	var seedIP string
	var seedPort int
	for _, node := range t.nodes {
		if seedIP == "" {
			seedIP = node.IP
			seedPort = node.Port
		}
		if node.IsReplica {
			continue
		}
		conn := node.Connection
		if conn == nil {
			continue
		}
		waitCount += conn.requestsPending.len()

		remaining := conn.requestsToSend.items[:0:0]
		for _, req := range conn.requestsToSend.items {
			if req.HasWriteHandler {
				waitCount++
				remaining = append(remaining, req)
			} else {
				t.addRequestToReprocess(req)
			}
		}
		conn.requestsToSend.items = remaining
	}

	t.logger.Debugf("cluster reconfiguration: waiting for %d requests", waitCount)
	t.isUpdating = true

	if waitCount > 0 {
		return SignalWait
	}

	t.logger.Debugf("cluster reconfiguration started (thread %d)", t.ThreadID)
	t.reset()

	if seedIP == "" {
		t.broken = true
		return SignalErr
	}

	t.logger.Debugf("reconfiguring cluster from node %s:%d (thread %d)", seedIP, seedPort, t.ThreadID)
	if err := t.FetchTopology(seedIP, seedPort, ""); err != nil {
		t.logger.Errorf("failed to fetch cluster configuration (thread %d): %v", t.ThreadID, err)
		t.broken = true
		return SignalErr
	}

	t.isUpdating = false
	t.updateRequired = false

	if t.processor != nil {
		t.replayParkedRequests(t.processor)
	}

	t.logger.Debugf("cluster reconfiguration ended (thread %d)", t.ThreadID)
	return SignalEnded
}

// replayParkedRequests hands every parked request back to processor (or
// drops it silently if processor is nil, which only happens in tests
// that don't care about replay delivery) in map order, clearing node
// back-references on the request and its relatives first. Safe under
// concurrent removal: each request is deleted from the map before
// ProcessRequest is invoked, and ranging over a Go map tolerates
// deletion of the current key.
func (t *Topology) replayParkedRequests(processor RequestProcessor) {
	for key, req := range t.requestsToReprocess {
		delete(t.requestsToReprocess, key)
		req.Client.removeRequestsToReprocess(req)
		clearNodeReferences(req)
		req.NeedReprocessing = false
		req.Written = 0
		req.Slot = -1
		if processor != nil {
			processor.ProcessRequest(req, nil)
		}
	}
}

// ReplayWith is the same replay pass as Update's final step, but
// exposed so an external dispatcher can supply the RequestProcessor to
// hand replayed requests to (Update runs this pass itself only when the
// topology has a processor; without one it leaves the parked requests
// in place, and the dispatcher calls ReplayWith after observing
// SignalEnded).
func (t *Topology) ReplayWith(processor RequestProcessor) {
	t.replayParkedRequests(processor)
}

// addRequestToReprocess parks req: clears its routing state and inserts
// it into both the topology's reprocess map and the client's own list.
func (t *Topology) addRequestToReprocess(req *Request) {
	req.NeedReprocessing = true
	req.Node = nil
	req.Slot = -1
	req.Written = 0
	t.requestsToReprocess[reprocessKey(req)] = req
	req.Client.RequestsToReprocess = append(req.Client.RequestsToReprocess, req)
}

// AddRequestToReprocess is the exported parking operation (spec.md §6).
func (t *Topology) AddRequestToReprocess(req *Request) {
	t.addRequestToReprocess(req)
}

// RemoveRequestToReprocess withdraws a parked request (e.g. because its
// client disconnected before replay). No-op if req was never parked.
func (t *Topology) RemoveRequestToReprocess(req *Request) {
	req.NeedReprocessing = false
	delete(t.requestsToReprocess, reprocessKey(req))
	req.Client.removeRequestsToReprocess(req)
}
