package models

import "fmt"

// TransportMode selects how nodes talk to each other on the wire
type TransportMode string

const (
	TransportPlaintext TransportMode = "plaintext"
	TransportTLS       TransportMode = "tls"
)

// ClusterSpec describes the cluster the harness needs before a job can run.
// A spec is immutable once formation starts.
type ClusterSpec struct {
	Nodes        int           // exact number of mutually-visible nodes required
	Transport    TransportMode
	TLSConfigRef string        // path to the TLS config file; set iff Transport == TransportTLS
}

// Validate checks the spec invariants before formation begins
func (s ClusterSpec) Validate() error {
	if s.Nodes < 1 {
		return fmt.Errorf("cluster spec requires at least 1 node, got %d", s.Nodes)
	}
	if s.Transport == TransportTLS && s.TLSConfigRef == "" {
		return fmt.Errorf("tls transport requires a config reference")
	}
	if s.Transport == TransportPlaintext && s.TLSConfigRef != "" {
		return fmt.Errorf("plaintext transport must not carry a tls config reference")
	}
	return nil
}

// Key returns the canonical identity of this spec, used to look up a live
// cluster formed from an identical spec.
func (s ClusterSpec) Key() string {
	return fmt.Sprintf("%d/%s/%s", s.Nodes, s.Transport, s.TLSConfigRef)
}

// NodeInfo identifies one node to its peers
type NodeInfo struct {
	ID   string `json:"id"`
	Addr string `json:"addr"`
}

// NodeStatus is what a node reports about its view of the cluster
type NodeStatus struct {
	NodeID    string `json:"node_id"`
	Peers     int    `json:"peers"` // visible nodes, including the reporting node
	TLSActive bool   `json:"tls_active"`
}
