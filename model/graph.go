package model

import (
	"sort"

	"github.com/Tsinling0525/scriptflow/format/confignode"
)

// PinResolver derives a node's pin layout from its type and settings.
// The node type registry is the production implementation.
type PinResolver interface {
	ResolvePins(typeID string, settings Settings) ([]PinType, bool)
}

type Node struct {
	ID       NodeID
	Type     string
	Position Vector2
	// Targets binds target pins (by pin index) to entities.
	Targets map[int]EntityID

	settings Settings
	pins     []PinType
}

// Settings returns the node's current settings. Callers must treat the map
// as read-only; use Graph.UpdateSettings to change it.
func (n *Node) Settings() Settings { return n.settings }

// Pins returns the resolved pin layout. It is empty for nodes whose type is
// unknown to the resolver.
func (n *Node) Pins() []PinType { return n.pins }

func (n *Node) Pin(i int) (PinType, bool) {
	if i < 0 || i >= len(n.pins) {
		return PinType{}, false
	}
	return n.pins[i], true
}

func (n *Node) clone() *Node {
	c := *n
	c.settings = confignode.CloneMap(n.settings)
	c.pins = append([]PinType(nil), n.pins...)
	c.Targets = make(map[int]EntityID, len(n.Targets))
	for k, v := range n.Targets {
		c.Targets[k] = v
	}
	return &c
}

// Graph owns its nodes and connections. Nodes refer to each other only by
// id. A Graph is not safe for concurrent use; a running graph is owned by
// the engine's execution queue.
type Graph struct {
	Name string

	nodes    map[NodeID]*Node
	conns    []Connection
	next     NodeID
	resolver PinResolver
}

func NewGraph(name string, resolver PinResolver) *Graph {
	return &Graph{Name: name, nodes: map[NodeID]*Node{}, resolver: resolver}
}

// NextID is the id the next AddNode will allocate.
func (g *Graph) NextID() NodeID { return g.next }

// ReserveIDs raises the id counter to at least next. It never lowers it.
func (g *Graph) ReserveIDs(next NodeID) {
	if next > g.next {
		g.next = next
	}
}

func (g *Graph) resolve(typeID string, settings Settings) ([]PinType, bool) {
	if g.resolver == nil {
		return nil, false
	}
	return g.resolver.ResolvePins(typeID, settings)
}

// AddNode creates a node of a registered type with a fresh id and the
// type's default pins.
func (g *Graph) AddNode(typeID string, pos Vector2, settings Settings) (NodeID, error) {
	pins, ok := g.resolve(typeID, settings)
	if !ok {
		return InvalidNodeID, &GraphError{Kind: ErrUnknownNodeType, Msg: typeID}
	}
	id := g.next
	g.next++
	g.nodes[id] = &Node{
		ID:       id,
		Type:     typeID,
		Position: pos,
		Targets:  map[int]EntityID{},
		settings: confignode.CloneMap(settings),
		pins:     pins,
	}
	return id, nil
}

// RestoreNode re-creates a persisted node under its original id. Unknown
// types are kept with no pins so a partially broken graph still loads.
func (g *Graph) RestoreNode(id NodeID, typeID string, pos Vector2, settings Settings) (known bool, err error) {
	if id < 0 {
		return false, invalidf("negative node id %d", id)
	}
	if _, exists := g.nodes[id]; exists {
		return false, invalidf("duplicate node id %d", id)
	}
	pins, known := g.resolve(typeID, settings)
	g.nodes[id] = &Node{
		ID:       id,
		Type:     typeID,
		Position: pos,
		Targets:  map[int]EntityID{},
		settings: confignode.CloneMap(settings),
		pins:     pins,
	}
	g.ReserveIDs(id + 1)
	return known, nil
}

// Node looks a node up; ok is false when it does not exist.
func (g *Graph) Node(id NodeID) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// MustNode is Node for callers that hold an id known to be live. It panics
// on a miss.
func (g *Graph) MustNode(id NodeID) *Node {
	n, ok := g.nodes[id]
	if !ok {
		panic(notFound(id))
	}
	return n
}

func (g *Graph) Len() int { return len(g.nodes) }

// NodeIDs returns live ids in ascending order.
func (g *Graph) NodeIDs() []NodeID {
	ids := make([]NodeID, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// UpdateSettings replaces the node's settings and re-derives its pins.
// Connections are left alone; call ValidateNodePins to drop the ones the
// new layout no longer supports.
func (g *Graph) UpdateSettings(id NodeID, settings Settings) error {
	n, ok := g.nodes[id]
	if !ok {
		return notFound(id)
	}
	n.settings = confignode.CloneMap(settings)
	n.pins, _ = g.resolve(n.Type, n.settings)
	return nil
}

// DeleteNode removes the node together with every connection touching it.
// Neighbours are not re-wired.
func (g *Graph) DeleteNode(id NodeID) ([]Connection, error) {
	if _, ok := g.nodes[id]; !ok {
		return nil, notFound(id)
	}
	delete(g.nodes, id)
	var removed []Connection
	kept := g.conns[:0]
	for _, c := range g.conns {
		if c.Touches(id) {
			removed = append(removed, c)
			continue
		}
		kept = append(kept, c)
	}
	g.conns = kept
	return removed, nil
}

func (g *Graph) pinOf(ref PinRef) (PinType, error) {
	n, ok := g.nodes[ref.Node]
	if !ok {
		return PinType{}, notFound(ref.Node)
	}
	p, ok := n.Pin(ref.Pin)
	if !ok {
		return PinType{}, invalidf("node %d has no pin %d", ref.Node, ref.Pin)
	}
	return p, nil
}

func (g *Graph) check(c Connection) error {
	from, err := g.pinOf(c.From)
	if err != nil {
		return err
	}
	to, err := g.pinOf(c.To)
	if err != nil {
		return err
	}
	if from.Direction != PinOutput || to.Direction != PinInput {
		return invalidf("%v -> %v must go from an output to an input", c.From, c.To)
	}
	if from.Type != to.Type {
		return invalidf("cannot connect %s pin to %s pin", from.Type, to.Type)
	}
	if from.Type != ElementFlowPin && from.Type != ElementDataPin {
		return invalidf("%s pins do not connect between nodes", from.Type)
	}
	return nil
}

// Connect links an output pin to an input pin of the same element type.
func (g *Graph) Connect(from, to PinRef) error {
	c := Connection{From: from, To: to}
	if err := g.check(c); err != nil {
		return err
	}
	toPin, _ := g.pinOf(to)
	for _, e := range g.conns {
		if e == c {
			return invalidf("%v -> %v already connected", from, to)
		}
		if toPin.Type == ElementDataPin && e.To == to {
			return invalidf("data input %v already has a source", to)
		}
	}
	g.conns = append(g.conns, c)
	return nil
}

func (g *Graph) Disconnect(from, to PinRef) bool {
	c := Connection{From: from, To: to}
	for i, e := range g.conns {
		if e == c {
			g.conns = append(g.conns[:i], g.conns[i+1:]...)
			return true
		}
	}
	return false
}

// BindTarget points a target pin at an entity.
func (g *Graph) BindTarget(ref PinRef, entity EntityID) error {
	p, err := g.pinOf(ref)
	if err != nil {
		return err
	}
	if p.Type != ElementTargetPin {
		return invalidf("pin %v is a %s pin, not a target pin", ref, p.Type)
	}
	g.nodes[ref.Node].Targets[ref.Pin] = entity
	return nil
}

func (g *Graph) UnbindTarget(ref PinRef) {
	if n, ok := g.nodes[ref.Node]; ok {
		delete(n.Targets, ref.Pin)
	}
}

func (g *Graph) Connections() []Connection {
	return append([]Connection(nil), g.conns...)
}

// ConnectionsOf returns every connection with id at either end.
func (g *Graph) ConnectionsOf(id NodeID) []Connection {
	var out []Connection
	for _, c := range g.conns {
		if c.Touches(id) {
			out = append(out, c)
		}
	}
	return out
}

// Outgoing lists the input pins fed by the given output pin.
func (g *Graph) Outgoing(from PinRef) []PinRef {
	var out []PinRef
	for _, c := range g.conns {
		if c.From == from {
			out = append(out, c.To)
		}
	}
	return out
}

// Incoming lists the output pins feeding the given input pin.
func (g *Graph) Incoming(to PinRef) []PinRef {
	var out []PinRef
	for _, c := range g.conns {
		if c.To == to {
			out = append(out, c.From)
		}
	}
	return out
}

// ValidateNodePins re-resolves the node's pins and drops every connection
// and target binding the layout no longer supports. It returns how many
// were dropped.
func (g *Graph) ValidateNodePins(id NodeID) (int, error) {
	n, ok := g.nodes[id]
	if !ok {
		return 0, notFound(id)
	}
	n.pins, _ = g.resolve(n.Type, n.settings)

	dropped := 0
	fed := map[PinRef]bool{}
	kept := g.conns[:0]
	for _, c := range g.conns {
		if !c.Touches(id) {
			kept = append(kept, c)
			continue
		}
		if g.check(c) != nil {
			dropped++
			continue
		}
		if p, _ := g.pinOf(c.To); p.Type == ElementDataPin {
			if fed[c.To] {
				dropped++
				continue
			}
			fed[c.To] = true
		}
		kept = append(kept, c)
	}
	g.conns = kept

	for pin := range n.Targets {
		if p, ok := n.Pin(pin); !ok || p.Type != ElementTargetPin {
			delete(n.Targets, pin)
			dropped++
		}
	}
	return dropped, nil
}

// ValidateAll runs ValidateNodePins over every node.
func (g *Graph) ValidateAll() int {
	total := 0
	for _, id := range g.NodeIDs() {
		n, _ := g.ValidateNodePins(id)
		total += n
	}
	return total
}

// Clone returns a deep copy sharing the resolver.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		Name:     g.Name,
		nodes:    make(map[NodeID]*Node, len(g.nodes)),
		conns:    append([]Connection(nil), g.conns...),
		next:     g.next,
		resolver: g.resolver,
	}
	for id, n := range g.nodes {
		c.nodes[id] = n.clone()
	}
	return c
}
