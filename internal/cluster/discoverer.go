package cluster

import (
	"fmt"
	"net"
)

// FetchTopology connects to a seed node, loads it, and walks its peers,
// populating t's node list and SlotMap. If unixSocket is non-empty it is
// preferred over ip:port (spec.md §4.6, mirroring the original's
// hostsocket-vs-tcp branch in fetchClusterConfiguration).
//
// If the seed cannot be dialed, the topology is left as it was before
// the call. A later failure drops the node that failed and returns the
// error, but does not undo what was already loaded: friends loaded
// before it stay registered and slot mappings already inserted stay in
// the SlotMap. The caller (typically Update) decides whether this means
// the topology is now broken.
func (t *Topology) FetchTopology(ip string, port int, unixSocket string) error {
	// This connection is kept open: it becomes the seed node's live
	// Connection, reused afterwards for routing requests to it, exactly
	// as the original keeps ctx stored in node->connection->context.
	conn, err := dialSeed(ip, port, unixSocket)
	if err != nil {
		return fmt.Errorf("%w: dial seed: %v", ErrTransport, err)
	}

	seed := t.CreateNode(ip, port)
	seed.Connection.attach(conn)

	if t.authSecret != "" {
		if err := seed.Connection.authenticate(t.authSecret); err != nil {
			t.logger.Errorf("auth to seed %s:%d failed: %v", ip, port, err)
		}
	}

	var friends []*Node
	if err := t.loadNodeInfo(seed, &friends); err != nil {
		t.FreeNode(seed)
		return err
	}

	for _, friend := range friends {
		// Also kept open afterwards as the friend node's live Connection.
		friendConn, dialErr := net.Dial("tcp", fmt.Sprintf("%s:%d", friend.IP, friend.Port))
		if dialErr != nil {
			t.FreeNode(friend)
			return fmt.Errorf("%w: dial friend %s:%d: %v", ErrTransport, friend.IP, friend.Port, dialErr)
		}
		friend.Connection.attach(friendConn)

		if t.authSecret != "" {
			if err := friend.Connection.authenticate(t.authSecret); err != nil {
				t.logger.Errorf("auth to node %s:%d failed: %v", friend.IP, friend.Port, err)
			}
		}

		if err := t.loadNodeInfo(friend, nil); err != nil {
			friend.Connection.disconnect(friend)
			return err
		}
		t.addNode(friend)
	}

	return nil
}

// dialSeed opens a blocking transport to the seed, preferring the
// unix-socket path when supplied.
func dialSeed(ip string, port int, unixSocket string) (net.Conn, error) {
	if unixSocket != "" {
		return net.Dial("unix", unixSocket)
	}
	return net.Dial("tcp", fmt.Sprintf("%s:%d", ip, port))
}

// attach adopts an already-dialed net.Conn as this connection's
// transport, wiring up its buffered reader/writer. Used by the
// Discoverer, which manages the blocking seed dial itself rather than
// going through Connection.connect's node-address-based dial.
func (c *Connection) attach(conn net.Conn) {
	c.transport = conn
	c.reader = newBufReader(conn)
	c.writer = newBufWriter(conn)
	c.connected = true
}
