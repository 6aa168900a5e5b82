package models

// HandleKind classifies the remote object a handle points at
type HandleKind string

const (
	HandleFrame       HandleKind = "frame"
	HandleModel       HandleKind = "model"
	HandleScoredFrame HandleKind = "scored_frame"
)

// Handle is an opaque reference to an object resident on a cluster node.
// Whoever creates a handle registers it with the resource registry; it is
// destroyed exactly once, either explicitly or at scope exit.
type Handle struct {
	ID       string     `json:"id"`
	Kind     HandleKind `json:"kind"`
	NodeAddr string     `json:"node_addr"` // base address of the owning node
}
