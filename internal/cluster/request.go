package cluster

import "fmt"

// Client is the minimal shape of a client connection that the core needs
// to know about: an identity and the list of its own requests currently
// parked for replay across a reconfiguration.
type Client struct {
	ID                  int64
	RequestsToReprocess []*Request
}

// removeRequestsToReprocess removes req from the client's own reprocess
// list, if present. No-op if req was never parked.
func (c *Client) removeRequestsToReprocess(req *Request) {
	for i, r := range c.RequestsToReprocess {
		if r == req {
			c.RequestsToReprocess = append(c.RequestsToReprocess[:i], c.RequestsToReprocess[i+1:]...)
			return
		}
	}
}

// Request is the external request shape the core parks and replays. It
// deliberately exposes only the fields spec.md §6 requires of a request
// processor's data — the wire parsing and command semantics belong to
// the external dispatcher, not to this package.
type Request struct {
	ID               int64
	Client           *Client
	Node             *Node // weak reference; nulled when the request is parked for reprocessing
	Slot             int   // -1 when unset
	Written          int
	NeedReprocessing bool
	HasWriteHandler  bool
	ParentRequest    *Request
	ChildRequests    []*Request
}

// reprocessKey is the composite "client_id:request_id" identifier used
// to key the topology's parked-requests map.
func reprocessKey(req *Request) string {
	return fmt.Sprintf("%d:%d", req.Client.ID, req.ID)
}

// clearNodeReferences nulls req's own node back-reference along with any
// sibling/parent/child request's node reference, so that a freed node's
// address cannot appear anywhere after a reconfiguration (spec.md §9,
// "Requests referencing freed nodes").
func clearNodeReferences(req *Request) {
	req.Node = nil
	var relatives []*Request
	if len(req.ChildRequests) > 0 {
		relatives = req.ChildRequests
	} else if req.ParentRequest != nil {
		relatives = req.ParentRequest.ChildRequests
		req.ParentRequest.Node = nil
	}
	for _, r := range relatives {
		if r != nil {
			r.Node = nil
		}
	}
}

// RequestProcessor is the external request resubmission entry point
// (spec.md §6 process_request). node is nil for replayed requests — the
// router must resolve a fresh node for them.
type RequestProcessor interface {
	ProcessRequest(req *Request, node *Node)
}

// Hooks bundles the external collaborators the core must call back into:
// disconnection notification and queued-request release. Both must
// honor whatever client-facing contract the external dispatcher has
// made (e.g. surfacing an error reply) rather than silently dropping
// requests.
type Hooks interface {
	OnNodeDisconnection(node *Node)
	FreeRequestList(list []*Request)
}

// NopHooks is a do-nothing Hooks implementation for tests that don't
// care about these callbacks.
type NopHooks struct{}

func (NopHooks) OnNodeDisconnection(*Node)         {}
func (NopHooks) FreeRequestList([]*Request)        {}
