// Package testsupport provides fake backends and request fixtures for
// exercising internal/cluster's discovery path without a real cluster,
// grounded on internal/cluster's own fakeNodeServer test helper
// (a bufio-speaking TCP listener that replies to AUTH/CLUSTER NODES) and
// on minis/50-mini-service-all-features's use of github.com/google/uuid
// for request identity.
package testsupport

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/user/clusterproxy/internal/cluster"
)

// FakeNode is a minimal standalone backend: it serves each accepted
// connection on its own goroutine, answers AUTH unconditionally with
// +OK, and serves a fixed CLUSTER NODES payload supplied by the caller.
type FakeNode struct {
	ln net.Listener

	mu      sync.Mutex
	payload string

	done chan struct{}
}

// NewFakeNode starts listening on 127.0.0.1:0 and returns a FakeNode
// whose CLUSTER NODES replies use payload until SetPayload changes it.
func NewFakeNode(payload string) (*FakeNode, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}
	f := &FakeNode{ln: ln, payload: payload, done: make(chan struct{})}
	go f.serve()
	return f, nil
}

// Addr returns the "host:port" string the node is listening on.
func (f *FakeNode) Addr() string {
	return f.ln.Addr().String()
}

// HostPort splits Addr into the (ip, port) pair FetchTopology expects.
func (f *FakeNode) HostPort() (string, int, error) {
	host, portStr, err := net.SplitHostPort(f.Addr())
	if err != nil {
		return "", 0, fmt.Errorf("split %q: %w", f.Addr(), err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("parse port %q: %w", portStr, err)
	}
	return host, port, nil
}

// SetPayload changes the reply to every later CLUSTER NODES command, on
// new and already open connections alike.
func (f *FakeNode) SetPayload(payload string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payload = payload
}

// Close stops accepting new connections.
func (f *FakeNode) Close() error {
	close(f.done)
	return f.ln.Close()
}

func (f *FakeNode) serve() {
	for {
		conn, err := f.ln.Accept()
		if err != nil {
			return
		}
		go f.handle(conn)
	}
}

func (f *FakeNode) handle(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	w := bufio.NewWriter(conn)
	for {
		args, err := readCommand(r)
		if err != nil {
			return
		}
		reply := f.reply(args)
		if _, err := w.WriteString(reply); err != nil {
			return
		}
		if err := w.Flush(); err != nil {
			return
		}
	}
}

func (f *FakeNode) reply(args []string) string {
	if len(args) == 0 {
		return "-ERR empty command\r\n"
	}
	switch strings.ToUpper(args[0]) {
	case "AUTH":
		return "+OK\r\n"
	case "CLUSTER":
		if len(args) >= 2 && strings.ToUpper(args[1]) == "NODES" {
			f.mu.Lock()
			payload := f.payload
			f.mu.Unlock()
			return fmt.Sprintf("$%d\r\n%s\r\n", len(payload), payload)
		}
	}
	return "-ERR unsupported command\r\n"
}

func readCommand(r *bufio.Reader) ([]string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return nil, err
	}
	var n int
	if _, err := fmt.Sscanf(line, "*%d\r\n", &n); err != nil {
		return nil, fmt.Errorf("parse array header %q: %w", line, err)
	}
	args := make([]string, 0, n)
	for i := 0; i < n; i++ {
		header, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		var size int
		if _, err := fmt.Sscanf(header, "$%d\r\n", &size); err != nil {
			return nil, fmt.Errorf("parse bulk header %q: %w", header, err)
		}
		buf := make([]byte, size+2)
		if _, err := readFull(r, buf); err != nil {
			return nil, err
		}
		args = append(args, string(buf[:size]))
	}
	return args, nil
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// NodeRecordLine formats one CLUSTER NODES record the way the original
// renders it, with the caller's flags and zero timing/epoch fields that
// the loader doesn't inspect.
func NodeRecordLine(name, addr, flags, primaryID string, slotRanges ...string) string {
	fields := []string{name, addr, flags, primaryID, "0", "0", "0", "connected"}
	fields = append(fields, slotRanges...)
	return strings.Join(fields, " ")
}

// RequestFixture generates a Client/Request pair with unique identities
// derived from a fresh UUID, for tests that need many distinct parked
// requests without caring about their exact numeric IDs.
func RequestFixture() (*cluster.Client, *cluster.Request) {
	client := &cluster.Client{ID: int64(uuid.New().ID())}
	req := &cluster.Request{ID: int64(uuid.New().ID()), Client: client, Slot: -1}
	client.RequestsToReprocess = append(client.RequestsToReprocess, req)
	return client, req
}
