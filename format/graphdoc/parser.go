// Package graphdoc reads and writes script graphs as YAML or JSON
// documents.
package graphdoc

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/Tsinling0525/scriptflow/format/confignode"
	"github.com/Tsinling0525/scriptflow/model"
)

// Document is the persisted form of a graph.
type Document struct {
	Name   string `json:"name" yaml:"name"`
	NextID int64  `json:"next_id" yaml:"next_id"`
	// Entity is the default target for target pins left unbound.
	Entity      *uint64      `json:"entity,omitempty" yaml:"entity,omitempty"`
	Nodes       []Node       `json:"nodes" yaml:"nodes"`
	Connections []Connection `json:"connections" yaml:"connections"`
}

type Node struct {
	ID       int64          `json:"id" yaml:"id"`
	Type     string         `json:"type" yaml:"type"`
	Position model.Vector2  `json:"position" yaml:"position"`
	Settings map[string]any `json:"settings,omitempty" yaml:"settings,omitempty"`
	Targets  Targets        `json:"targets,omitempty" yaml:"targets,omitempty"`
}

// Targets binds target pins, by pin index, to entity ids. JSON documents
// carry the pin indexes as string keys.
type Targets map[int]uint64

func (t *Targets) UnmarshalYAML(value *yaml.Node) error {
	var raw map[string]uint64
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw == nil {
		*t = nil
		return nil
	}
	out := make(Targets, len(raw))
	for k, v := range raw {
		pin, err := strconv.Atoi(k)
		if err != nil {
			return fmt.Errorf("target pin %q is not an index", k)
		}
		out[pin] = v
	}
	*t = out
	return nil
}

type Endpoint struct {
	Node int64 `json:"node" yaml:"node"`
	Pin  int   `json:"pin" yaml:"pin"`
}

type Connection struct {
	From Endpoint `json:"from" yaml:"from"`
	To   Endpoint `json:"to" yaml:"to"`
}

// Dropped is a connection or binding that could not be restored.
type Dropped struct {
	What   string `json:"what"`
	Reason string `json:"reason"`
}

// Report lists what Build had to leave out.
type Report struct {
	UnknownTypes []string  `json:"unknown_types,omitempty"`
	Dropped      []Dropped `json:"dropped,omitempty"`
}

func (r Report) Clean() bool { return len(r.UnknownTypes) == 0 && len(r.Dropped) == 0 }

// Decode parses a YAML (or JSON) document.
func Decode(data []byte) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decode graph document: %w", err)
	}
	for i := range doc.Nodes {
		if doc.Nodes[i].Settings != nil {
			doc.Nodes[i].Settings = confignode.CloneMap(doc.Nodes[i].Settings)
		}
	}
	return doc, nil
}

func Encode(doc Document) ([]byte, error) {
	return yaml.Marshal(doc)
}

// Build restores a graph from doc. Node ids are kept. Nodes of unknown
// types are kept without pins, and connections or target bindings that do
// not fit the restored layouts are dropped; both are listed in the report.
// Only structural problems such as duplicate node ids fail the build.
func Build(doc Document, resolver model.PinResolver) (*model.Graph, Report, error) {
	var rep Report
	g := model.NewGraph(doc.Name, resolver)
	for _, n := range doc.Nodes {
		known, err := g.RestoreNode(model.NodeID(n.ID), n.Type, n.Position, n.Settings)
		if err != nil {
			return nil, rep, err
		}
		if !known {
			rep.UnknownTypes = append(rep.UnknownTypes, n.Type)
		}
	}
	g.ReserveIDs(model.NodeID(doc.NextID))

	for _, n := range doc.Nodes {
		for pin, e := range n.Targets {
			ref := model.PinRef{Node: model.NodeID(n.ID), Pin: pin}
			if err := g.BindTarget(ref, model.EntityID(e)); err != nil {
				rep.Dropped = append(rep.Dropped, Dropped{
					What:   fmt.Sprintf("target %d.%d -> entity %d", n.ID, pin, e),
					Reason: err.Error(),
				})
			}
		}
	}
	for _, c := range doc.Connections {
		from := model.PinRef{Node: model.NodeID(c.From.Node), Pin: c.From.Pin}
		to := model.PinRef{Node: model.NodeID(c.To.Node), Pin: c.To.Pin}
		if err := g.Connect(from, to); err != nil {
			rep.Dropped = append(rep.Dropped, Dropped{
				What:   fmt.Sprintf("%d.%d -> %d.%d", c.From.Node, c.From.Pin, c.To.Node, c.To.Pin),
				Reason: err.Error(),
			})
		}
	}
	return g, rep, nil
}

// FromGraph captures g as a document, nodes in id order.
func FromGraph(g *model.Graph) Document {
	doc := Document{Name: g.Name, NextID: int64(g.NextID())}
	for _, id := range g.NodeIDs() {
		n := g.MustNode(id)
		dn := Node{
			ID:       int64(id),
			Type:     n.Type,
			Position: n.Position,
		}
		if len(n.Settings()) > 0 {
			dn.Settings = confignode.CloneMap(n.Settings())
		}
		if len(n.Targets) > 0 {
			dn.Targets = make(Targets, len(n.Targets))
			for pin, e := range n.Targets {
				dn.Targets[pin] = uint64(e)
			}
		}
		doc.Nodes = append(doc.Nodes, dn)
	}
	for _, c := range g.Connections() {
		doc.Connections = append(doc.Connections, Connection{
			From: Endpoint{Node: int64(c.From.Node), Pin: c.From.Pin},
			To:   Endpoint{Node: int64(c.To.Node), Pin: c.To.Pin},
		})
	}
	return doc
}
