package model

// NodeID identifies a node within one graph. Ids are allocated monotonically
// and never reused, even after the node is deleted.
type NodeID int64

const InvalidNodeID NodeID = -1

// EntityID identifies an entity in the entity store that target pins bind to.
type EntityID uint64

type Vector2 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Settings is the structured value a node is configured with. It is always
// replaced wholesale, never patched.
type Settings = map[string]any

// PinRef addresses one pin of one node by index into the node's pin list.
type PinRef struct {
	Node NodeID `json:"node" yaml:"node"`
	Pin  int    `json:"pin" yaml:"pin"`
}

// Connection links an output pin to an input pin of another (or the same)
// node. Only flow and data pins take part in connections.
type Connection struct {
	From PinRef `json:"from" yaml:"from"`
	To   PinRef `json:"to" yaml:"to"`
}

func (c Connection) Touches(id NodeID) bool { return c.From.Node == id || c.To.Node == id }
