package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Tsinling0525/scriptflow/model"
	"github.com/Tsinling0525/scriptflow/nodes"
	"github.com/Tsinling0525/scriptflow/plugin"
)

// probe is an action node whose behavior is scripted by the test.
type probe struct {
	plugin.Descriptor
	fn func(ctx plugin.Context) plugin.Result
}

func (p probe) Update(ctx plugin.Context) plugin.Result { return p.fn(ctx) }

func newProbe(id string, fn func(ctx plugin.Context) plugin.Result) probe {
	return probe{
		Descriptor: plugin.Descriptor{
			TypeID: id,
			Label:  id,
			Class:  model.Action,
			Layout: []model.PinType{model.FlowIn, model.FlowOut},
		},
		fn: fn,
	}
}

func testRegistry(t *testing.T, extra ...plugin.NodeType) *plugin.Registry {
	t.Helper()
	b := nodes.RegisterAll(plugin.NewBuilder())
	for _, nt := range extra {
		b.Register(nt)
	}
	r, err := b.Build()
	require.NoError(t, err)
	return r
}

type graphBuilder struct {
	t *testing.T
	g *model.Graph
}

func newGraph(t *testing.T, reg *plugin.Registry) *graphBuilder {
	return &graphBuilder{t: t, g: model.NewGraph(t.Name(), reg)}
}

func (b *graphBuilder) add(typeID string, settings model.Settings) model.NodeID {
	b.t.Helper()
	id, err := b.g.AddNode(typeID, model.Vector2{}, settings)
	require.NoError(b.t, err)
	return id
}

func (b *graphBuilder) link(from model.NodeID, fromPin int, to model.NodeID, toPin int) {
	b.t.Helper()
	require.NoError(b.t, b.g.Connect(model.PinRef{Node: from, Pin: fromPin}, model.PinRef{Node: to, Pin: toPin}))
}

type memState struct {
	mu    sync.Mutex
	nodes map[model.NodeID]map[string]any
}

func newMemState() *memState { return &memState{nodes: map[model.NodeID]map[string]any{}} }

func (s *memState) SaveNodeState(_ context.Context, _ string, id model.NodeID, state map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[id] = state
	return nil
}

func (s *memState) LoadNodeState(_ context.Context, _ string, id model.NodeID) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nodes[id], nil
}

func (s *memState) get(id model.NodeID) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nodes[id]
}
