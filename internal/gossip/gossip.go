// Package gossip runs a memberlist-backed membership view alongside a
// worker's topology, treating membership churn as a signal that the
// cluster's shape may have drifted. It never bypasses the core's
// CLUSTER-NODES-driven rediscovery: it only decides when to ask for it,
// the way minis/45-p2p-gossip-mock-network's EventDelegate reacts to
// join/leave/update.
package gossip

import (
	"fmt"
	"strconv"
	"time"

	"github.com/hashicorp/memberlist"
)

// leaveTimeout bounds how long Shutdown waits for the leave broadcast
// to propagate before tearing the transport down anyway.
const leaveTimeout = 5 * time.Second

// Detector wraps a memberlist.Memberlist and invokes OnDrift whenever
// membership changes, debounced by the caller (typically by re-running
// Reconfigurator.Update until it stops returning WAIT).
type Detector struct {
	list    *memberlist.Memberlist
	OnDrift func()
}

// Config is the subset of memberlist's configuration the proxy cares
// about: identity, bind address, and the seed peers to join.
type Config struct {
	NodeName string
	BindAddr string
	BindPort int
	Join     []string
}

// Start creates the memberlist instance, wires its event delegate to
// onDrift, and joins the configured peers. If joining fails, Start
// returns the join error and no Detector.
func Start(cfg Config, onDrift func()) (*Detector, error) {
	mlConfig := memberlist.DefaultLocalConfig()
	mlConfig.Name = cfg.NodeName
	if cfg.BindAddr != "" {
		mlConfig.BindAddr = cfg.BindAddr
	}
	if cfg.BindPort != 0 {
		mlConfig.BindPort = cfg.BindPort
		mlConfig.AdvertisePort = cfg.BindPort
	}

	d := &Detector{OnDrift: onDrift}
	mlConfig.Events = &eventDelegate{detector: d}

	list, err := memberlist.Create(mlConfig)
	if err != nil {
		return nil, fmt.Errorf("create memberlist: %w", err)
	}
	d.list = list

	if len(cfg.Join) > 0 {
		if _, err := list.Join(cfg.Join); err != nil {
			return nil, fmt.Errorf("join cluster: %w", err)
		}
	}

	return d, nil
}

// Members returns the current membership view, useful for the admin API
// to report alongside the topology's own node list.
func (d *Detector) Members() []*memberlist.Node {
	return d.list.Members()
}

// Shutdown leaves the cluster gracefully and releases memberlist's
// resources.
func (d *Detector) Shutdown() error {
	if err := d.list.Leave(leaveTimeout); err != nil {
		return fmt.Errorf("leave cluster: %w", err)
	}
	return d.list.Shutdown()
}

// eventDelegate adapts memberlist's NotifyJoin/NotifyLeave/NotifyUpdate
// callbacks into a single drift signal: the proxy doesn't care which
// kind of membership change happened, only that the topology might now
// be stale.
type eventDelegate struct {
	detector *Detector
}

func (e *eventDelegate) NotifyJoin(*memberlist.Node)   { e.fire() }
func (e *eventDelegate) NotifyLeave(*memberlist.Node)  { e.fire() }
func (e *eventDelegate) NotifyUpdate(*memberlist.Node) { e.fire() }

func (e *eventDelegate) fire() {
	if e.detector.OnDrift != nil {
		e.detector.OnDrift()
	}
}

// NodeMeta formats an epoch/slot-count metadata string, truncated to
// limit bytes per memberlist's contract. Start installs no memberlist
// Delegate, so this metadata is not advertised over gossip.
func NodeMeta(epoch int64, slotsCovered int, limit int) []byte {
	meta := []byte(strconv.FormatInt(epoch, 10) + "/" + strconv.Itoa(slotsCovered))
	if len(meta) > limit {
		meta = meta[:limit]
	}
	return meta
}
