package cluster

import (
	"fmt"
	"strconv"
	"strings"
)

// loadNodeInfo issues the cluster's self-describing node-list query
// against node's already-open connection and parses the reply per
// spec.md §4.5. If friends is non-nil, peer records are appended to it
// as fresh, unpopulated nodes (ip/port/connection skeleton only).
func (t *Topology) loadNodeInfo(node *Node, friends *[]*Node) error {
	conn := node.Connection
	if conn.transport == nil {
		return fmt.Errorf("%w: loadNodeInfo", ErrNotConnected)
	}
	if err := writeCommand(conn.writer, "CLUSTER", "NODES"); err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	payload, isErr, err := readReply(conn.reader)
	if err != nil {
		return err
	}
	if isErr {
		return fmt.Errorf("%w: CLUSTER NODES replied with error: %s", ErrProtocol, payload)
	}

	for _, line := range strings.Split(payload, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		if err := t.parseNodeRecord(line, node, friends); err != nil {
			return err
		}
	}
	return nil
}

// parseNodeRecord parses one "CLUSTER NODES" line and applies it either
// to node (if the record is flagged "myself") or appends a new peer to
// friends.
func (t *Topology) parseNodeRecord(line string, node *Node, friends *[]*Node) error {
	fields := strings.Fields(line)
	if len(fields) < 8 {
		return fmt.Errorf("%w: node record has fewer than 8 fields", ErrConfigInconsistent)
	}
	name := fields[0]
	addr := fields[1]
	flags := fields[2]
	primaryID := fields[3]

	if flags == "" {
		return fmt.Errorf("%w: missing flags", ErrConfigInconsistent)
	}
	if addr == "" {
		return fmt.Errorf("%w: missing addr", ErrConfigInconsistent)
	}

	isMyself := strings.Contains(flags, "myself")

	ip, port, parseErr := splitAddr(addr)
	if parseErr != nil {
		return fmt.Errorf("%w: malformed addr %q: %v", ErrConfigInconsistent, addr, parseErr)
	}

	if !isMyself {
		if friends == nil {
			return nil
		}
		friend := t.newNode(ip, port)
		*friends = append(*friends, friend)
		return nil
	}

	if node.IP == "" && ip != "" {
		node.IP = ip
		node.Port = port
	}
	if node.Name == "" && name != "" {
		node.Name = name
	}
	node.IsReplica = strings.Contains(flags, "slave") || (primaryID != "-" && primaryID != "")
	if node.IsReplica {
		node.ReplicateID = primaryID
	}

	if len(fields) > 8 {
		return t.parseSlotSpecs(fields[8:], node)
	}
	return nil
}

// parseSlotSpecs parses the 9th-field-onward slot specs of a myself
// record: migrating/importing brackets, contiguous ranges, and bare
// slots.
func (t *Topology) parseSlotSpecs(specs []string, node *Node) error {
	for _, spec := range specs {
		switch {
		case strings.HasPrefix(spec, "["):
			inner := strings.TrimPrefix(spec, "[")
			inner = strings.TrimSuffix(inner, "]")
			if idx := strings.Index(inner, "->-"); idx >= 0 {
				slot := inner[:idx]
				dst := inner[idx+3:]
				node.Migrating = append(node.Migrating, slot, dst)
			} else if idx := strings.Index(inner, "-<-"); idx >= 0 {
				slot := inner[:idx]
				src := inner[idx+3:]
				node.Importing = append(node.Importing, slot, src)
			}
			// malformed bracketed spec: tolerated, matching the original's
			// acceptance of whatever its parser produces (spec.md §4.5).

		case strings.Contains(spec, "-"):
			idx := strings.Index(spec, "-")
			start, errStart := strconv.Atoi(spec[:idx])
			stop, errStop := strconv.Atoi(spec[idx+1:])
			if errStart != nil || errStop != nil {
				continue // malformed range: skipped, the remaining specs are still parsed
			}
			for s := start; s <= stop; s++ {
				slot := uint16(s)
				t.slotMap.Insert(slot, node)
				node.addSlot(slot)
			}

		default:
			n, convErr := strconv.Atoi(spec)
			if convErr != nil {
				continue
			}
			slot := uint16(n)
			t.slotMap.Insert(slot, node)
			node.addSlot(slot)
		}
	}
	return nil
}

// splitAddr splits "host:port[@busport]" into host and port, discarding
// the bus-port suffix.
func splitAddr(addr string) (string, int, error) {
	host, rest, ok := strings.Cut(addr, ":")
	if !ok {
		return "", 0, fmt.Errorf("missing ':' in addr %q", addr)
	}
	if idx := strings.Index(rest, "@"); idx >= 0 {
		rest = rest[:idx]
	}
	port, err := strconv.Atoi(rest)
	if err != nil {
		return "", 0, fmt.Errorf("malformed port in addr %q: %w", addr, err)
	}
	return host, port, nil
}
