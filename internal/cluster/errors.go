package cluster

import "errors"

// Error kinds from the core's error handling design: transport failure,
// malformed/error replies from a node, missing fields in a node-list
// record, and credential rejection. A failed reconfiguration is logged
// and flips the topology to broken; Update reports it as SignalErr.
var (
	ErrTransport           = errors.New("cluster: transport failure")
	ErrProtocol            = errors.New("cluster: protocol error")
	ErrConfigInconsistent  = errors.New("cluster: node list record missing required field")
	ErrAuth                = errors.New("cluster: authentication failed")
	ErrBroken              = errors.New("cluster: topology is broken, reconfiguration required a process restart")
	ErrNoSeed              = errors.New("cluster: no seed address available")
	ErrNotConnected        = errors.New("cluster: node has no open connection")
)
