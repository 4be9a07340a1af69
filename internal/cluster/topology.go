package cluster

// Topology (the spec's "Cluster") owns the node set and the SlotMap, and
// tracks the reconfiguration state machine's flags. A topology is
// created empty, populated by FetchTopology, may be reset (which
// wipes nodes and the SlotMap but keeps everything else), and is torn
// down with Free.
//
// A single Topology is meant to be owned and mutated by one goroutine at
// a time (spec.md §5): there is no internal locking. Duplicate gives
// each worker its own disjoint copy instead.
type Topology struct {
	ThreadID int

	nodes   []*Node
	slotMap *SlotMap

	requestsToReprocess map[string]*Request

	isUpdating     bool
	updateRequired bool
	broken         bool

	duplicatedFrom *Topology
	duplicates     []*Topology

	logger    Logger
	hooks     Hooks
	processor RequestProcessor

	// authSecret is the single optional credential issued to every newly
	// connected node during discovery (spec.md §6 "Configuration").
	authSecret string
}

// SetAuthSecret configures the credential used for the AUTH exchange on
// newly connected nodes. An empty secret disables authentication.
func (t *Topology) SetAuthSecret(secret string) {
	t.authSecret = secret
}

// SetRequestProcessor wires the external collaborator that replayed
// requests (step 5 of Update) are handed back to. Nil is valid: Update
// then only parks and clears, and the caller is expected to drive
// replay itself via ReplayWith.
func (t *Topology) SetRequestProcessor(processor RequestProcessor) {
	t.processor = processor
}

// NewTopology creates an empty topology identified by threadID (one per
// worker goroutine). logger, hooks and processor may be nil; logger and
// hooks then default to their no-op implementations, and a nil
// processor just means Update won't dispatch replayed requests itself.
func NewTopology(threadID int, logger Logger, hooks Hooks, processor RequestProcessor) *Topology {
	if logger == nil {
		logger = NopLogger{}
	}
	if hooks == nil {
		hooks = NopHooks{}
	}
	return &Topology{
		ThreadID:            threadID,
		slotMap:             NewSlotMap(),
		requestsToReprocess: make(map[string]*Request),
		logger:              logger,
		hooks:               hooks,
		processor:           processor,
	}
}

// SlotMap exposes the topology's slot -> node map for read access
// (routing, tests).
func (t *Topology) SlotMap() *SlotMap {
	return t.slotMap
}

// IsUpdating, UpdateRequired, Broken expose the state machine flags.
func (t *Topology) IsUpdating() bool     { return t.isUpdating }
func (t *Topology) UpdateRequired() bool { return t.updateRequired }
func (t *Topology) Broken() bool         { return t.broken }

// RequireUpdate marks the topology as needing a reconfiguration on the
// next opportunity; the external dispatcher is expected to call Update
// in response (e.g. driven by internal/gossip's drift signal).
func (t *Topology) RequireUpdate() {
	t.updateRequired = true
}

// reset wipes nodes and the SlotMap, keeping requestsToReprocess and the
// state flags untouched (spec.md §4.7 step 3).
func (t *Topology) reset() {
	for _, n := range append([]*Node(nil), t.nodes...) {
		t.FreeNode(n)
	}
	t.nodes = nil
	t.slotMap = NewSlotMap()
}

// Free tears the topology down: walks duplicates first to null their
// back-links (and removes itself from its source's duplicates list),
// then releases nodes and the parked-requests map.
func (t *Topology) Free() {
	t.logger.Debugf("free topology (thread %d)", t.ThreadID)
	for _, dup := range t.duplicates {
		dup.duplicatedFrom = nil
		for _, n := range dup.nodes {
			n.DuplicatedFrom = nil
		}
	}
	t.duplicates = nil
	for _, n := range append([]*Node(nil), t.nodes...) {
		t.FreeNode(n)
	}
	t.nodes = nil
	if t.duplicatedFrom != nil {
		parent := t.duplicatedFrom
		for i, d := range parent.duplicates {
			if d == t {
				parent.duplicates = append(parent.duplicates[:i], parent.duplicates[i+1:]...)
				break
			}
		}
		t.duplicatedFrom = nil
	}
	t.requestsToReprocess = nil
}

// NodeBySlot returns the non-replica node that owns slot, or nil.
func (t *Topology) NodeBySlot(slot uint16) *Node {
	_, node, ok := t.slotMap.SeekGE(slot)
	if !ok {
		return nil
	}
	return node
}

// NodeByKey computes key's slot and resolves its owning node. The
// returned bool is false if the topology has no node mapped for the
// slot (e.g. before a successful fetch, or while broken).
func (t *Topology) NodeByKey(key []byte) (*Node, uint16, bool) {
	slot := SlotOf(key)
	node := t.NodeBySlot(slot)
	return node, slot, node != nil
}

// FirstMappedNode returns the node owning the smallest mapped slot, or
// nil if the SlotMap is empty.
func (t *Topology) FirstMappedNode() *Node {
	_, node, _ := t.slotMap.First()
	return node
}
