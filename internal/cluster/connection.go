package cluster

import (
	"bufio"
	"fmt"
	"net"
	"time"
)

// keepAliveInterval mirrors the original proxy's aggressive TCP
// keepalive, meant to surface dead backend connections promptly instead
// of waiting on a long-running command's timeout.
const keepAliveInterval = 15 * time.Second

// requestQueue is a minimal FIFO built on a slice. No ecosystem queue in
// the example pack fits a plain ordered pending-request list this
// narrowly scoped, so it stays on the slice/stdlib.
type requestQueue struct {
	items []*Request
}

func (q *requestQueue) push(r *Request) {
	q.items = append(q.items, r)
}

func (q *requestQueue) popFront() (*Request, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	r := q.items[0]
	q.items = q.items[1:]
	return r, true
}

func (q *requestQueue) drain() []*Request {
	out := q.items
	q.items = nil
	return out
}

func (q *requestQueue) len() int {
	return len(q.items)
}

// Connection is the per-node transport state: a nullable transport
// handle, auth flags, and the two FIFO queues that order requests
// across a reconfiguration.
type Connection struct {
	transport      net.Conn
	reader         *bufio.Reader
	writer         *bufio.Writer
	connected      bool
	authenticating bool
	authenticated  bool

	requestsPending  requestQueue
	requestsToSend   requestQueue
}

func newConnection() *Connection {
	return &Connection{}
}

// Connect dials node.IP:node.Port (non-blocking in spirit — Go's net.Dial
// already returns once the TCP handshake completes) and enables
// keepalive. On failure the connection state is left closed and the
// error is returned to the caller.
func (c *Connection) connect(node *Node) (net.Conn, error) {
	if c.transport != nil {
		c.disconnect(node)
	}
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("%s:%d", node.IP, node.Port), 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("%w: connect to %s:%d: %v", ErrTransport, node.IP, node.Port, err)
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.SetKeepAlive(true)
		_ = tcp.SetKeepAlivePeriod(keepAliveInterval)
	}
	c.transport = conn
	c.reader = bufio.NewReader(conn)
	c.writer = bufio.NewWriter(conn)
	c.connected = true
	return conn, nil
}

// disconnect fires the disconnection hook (so upstream can cancel
// awaiting replies), then releases the transport.
func (c *Connection) disconnect(node *Node) {
	if c.transport == nil {
		return
	}
	if node.Topology != nil && node.Topology.hooks != nil {
		node.Topology.hooks.OnNodeDisconnection(node)
	}
	_ = c.transport.Close()
	c.transport = nil
	c.reader = nil
	c.writer = nil
	c.connected = false
	c.authenticating = false
	c.authenticated = false
}

// authenticate issues a single synchronous AUTH command on an
// already-connected transport.
func (c *Connection) authenticate(secret string) error {
	if c.transport == nil {
		return fmt.Errorf("%w: authenticate", ErrNotConnected)
	}
	c.authenticating = true
	if err := writeCommand(c.writer, "AUTH", secret); err != nil {
		c.authenticating = false
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	payload, isErr, err := readReply(c.reader)
	if err != nil {
		c.authenticating = false
		return err
	}
	if isErr {
		c.authenticating = false
		return fmt.Errorf("%w: %s", ErrAuth, payload)
	}
	c.authenticating = false
	c.authenticated = true
	return nil
}

// Connect is the exported per-node connect operation (spec.md §6).
func (n *Node) Connect() (net.Conn, error) {
	return n.Connection.connect(n)
}

// Disconnect is the exported per-node disconnect operation (spec.md §6).
func (n *Node) Disconnect() {
	n.Connection.disconnect(n)
}

// Authenticate issues the credential exchange against node (spec.md §6).
func Authenticate(node *Node, secret string) (bool, string) {
	if err := node.Connection.authenticate(secret); err != nil {
		return false, err.Error()
	}
	return true, ""
}
