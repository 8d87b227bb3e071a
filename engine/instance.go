package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Tsinling0525/scriptflow/format/confignode"
	"github.com/Tsinling0525/scriptflow/model"
	"github.com/Tsinling0525/scriptflow/plugin"
)

type InstanceStatus uint8

const (
	StatusIdle InstanceStatus = iota
	StatusRunning
	StatusFinished
	StatusTerminated
)

func (s InstanceStatus) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusFinished:
		return "finished"
	case StatusTerminated:
		return "terminated"
	default:
		return "idle"
	}
}

var ErrAlreadyStarted = errors.New("instance already started")

type nodeRuntime struct {
	status  model.NodeStatus
	last    model.ExecutionState
	scratch map[string]any
	memory  map[string]any
}

// Instance is one running execution of a graph. It owns the graph and all
// per-node runtime state. Instance is not safe for concurrent use: it is
// meant to be driven by a single Runner, and every mutation goes through
// that runner's queue.
type Instance struct {
	id    string
	graph *model.Graph
	reg   *plugin.Registry
	deps  plugin.Deps
	log   *zap.Logger
	ctx   context.Context

	status    InstanceStatus
	runtime   map[model.NodeID]*nodeRuntime
	running   []model.NodeID
	scheduled []model.NodeID
	inbox     []model.ScriptMessage
	ticks     uint64

	entity    model.EntityID
	hasEntity bool
}

func NewInstance(id string, g *model.Graph, reg *plugin.Registry, deps plugin.Deps) *Instance {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Instance{
		id:      id,
		graph:   g,
		reg:     reg,
		deps:    deps,
		log:     log.With(zap.String("instance", id)),
		ctx:     context.Background(),
		runtime: map[model.NodeID]*nodeRuntime{},
	}
}

func (i *Instance) ID() string             { return i.id }
func (i *Instance) Status() InstanceStatus { return i.status }
func (i *Instance) Ticks() uint64          { return i.ticks }

// Graph exposes the live graph to the instance's owner.
func (i *Instance) Graph() *model.Graph { return i.graph }

// BindEntity makes e the default target for target pins left unbound.
func (i *Instance) BindEntity(e model.EntityID) {
	i.entity, i.hasEntity = e, true
}

func (i *Instance) Entity() (model.EntityID, bool) { return i.entity, i.hasEntity }

func (i *Instance) NodeStatus(id model.NodeID) model.NodeStatus {
	if rt, ok := i.runtime[id]; ok {
		return rt.status
	}
	return model.NodeIdle
}

// Start schedules every entry node for the first tick and restores node
// memory saved by a previous run.
func (i *Instance) Start() error {
	if i.status != StatusIdle {
		return fmt.Errorf("%w: %s", ErrAlreadyStarted, i.id)
	}
	i.restoreMemory()
	i.status = StatusRunning
	for _, id := range i.entries() {
		i.schedule(id)
	}
	if len(i.scheduled) == 0 {
		i.log.Warn("graph has no entry nodes")
		i.finish()
		return nil
	}
	i.emit("instance_started", map[string]any{"entries": len(i.scheduled)})
	return nil
}

func (i *Instance) runtimeFor(id model.NodeID) *nodeRuntime {
	rt, ok := i.runtime[id]
	if !ok {
		rt = &nodeRuntime{scratch: map[string]any{}, memory: map[string]any{}}
		i.runtime[id] = rt
	}
	return rt
}

func (i *Instance) restoreMemory() {
	if i.deps.State == nil {
		return
	}
	for _, id := range i.graph.NodeIDs() {
		st, err := i.deps.State.LoadNodeState(i.ctx, i.id, id)
		if err != nil {
			i.log.Warn("failed to load node state", zap.Int64("node", int64(id)), zap.Error(err))
			continue
		}
		if mem, ok := confignode.AsMap(st["memory"]); ok && len(mem) > 0 {
			i.runtimeFor(id).memory = confignode.CloneMap(mem)
		}
	}
}

func (i *Instance) saveState(id model.NodeID, rt *nodeRuntime) {
	if i.deps.State == nil {
		return
	}
	state := map[string]any{
		"state":  rt.last.String(),
		"status": rt.status.String(),
		"tick":   i.ticks,
		"memory": confignode.CloneMap(rt.memory),
	}
	if err := i.deps.State.SaveNodeState(i.ctx, i.id, id, state); err != nil {
		i.log.Warn("failed to save node state", zap.Int64("node", int64(id)), zap.Error(err))
	}
}

func (i *Instance) emit(event string, fields map[string]any) {
	if i.deps.Bus == nil {
		return
	}
	if fields == nil {
		fields = map[string]any{}
	}
	fields["instance"] = i.id
	if err := i.deps.Bus.Emit(i.ctx, event, fields); err != nil {
		i.log.Debug("event bus rejected event", zap.String("event", event), zap.Error(err))
	}
}

// AddNode adds a node to the live graph.
func (i *Instance) AddNode(typeID string, pos model.Vector2, settings model.Settings) (model.NodeID, error) {
	return i.graph.AddNode(typeID, pos, settings)
}

// UpdateSettings replaces a node's settings. A node that is mid-activation
// re-enters from the top on the next tick so nothing derived from the old
// settings survives.
func (i *Instance) UpdateSettings(id model.NodeID, settings model.Settings) error {
	if err := i.graph.UpdateSettings(id, settings); err != nil {
		return err
	}
	if rt, ok := i.runtime[id]; ok {
		rt.scratch = map[string]any{}
	}
	return nil
}

// DeleteNode removes a node, its connections and its runtime state.
func (i *Instance) DeleteNode(id model.NodeID) ([]model.Connection, error) {
	node, ok := i.graph.Node(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", model.ErrNodeNotFound, id)
	}
	if t, ok := i.reg.TryGet(node.Type); ok && !t.CanDelete() {
		return nil, fmt.Errorf("%w: %s %d", model.ErrNodeNotDeletable, node.Type, id)
	}
	removed, err := i.graph.DeleteNode(id)
	if err != nil {
		return nil, err
	}
	i.forget(id)
	return removed, nil
}

func (i *Instance) ValidateNodePins(id model.NodeID) (int, error) {
	return i.graph.ValidateNodePins(id)
}

func (i *Instance) Connect(from, to model.PinRef) error { return i.graph.Connect(from, to) }

func (i *Instance) Disconnect(from, to model.PinRef) bool { return i.graph.Disconnect(from, to) }

func (i *Instance) BindTarget(pin model.PinRef, e model.EntityID) error {
	return i.graph.BindTarget(pin, e)
}

// Deliver queues a message for nodes waiting on it.
func (i *Instance) Deliver(msg model.ScriptMessage) {
	i.inbox = append(i.inbox, msg.Clone())
}

func (i *Instance) takeMessage(name string) (model.ScriptMessage, bool) {
	for k, m := range i.inbox {
		if m.Type.Message == name {
			i.inbox = append(i.inbox[:k], i.inbox[k+1:]...)
			return m, true
		}
	}
	return model.ScriptMessage{}, false
}

func (i *Instance) forget(id model.NodeID) {
	delete(i.runtime, id)
	i.running = without(i.running, id)
	i.scheduled = without(i.scheduled, id)
}

func without(ids []model.NodeID, id model.NodeID) []model.NodeID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// Snapshot is a consistent copy of an instance taken between ticks.
type Snapshot struct {
	ID     string
	Status InstanceStatus
	Tick   uint64
	Graph  *model.Graph
	Nodes  map[model.NodeID]model.NodeStatus
	Inbox  int
}

func (i *Instance) Snapshot() Snapshot {
	s := Snapshot{
		ID:     i.id,
		Status: i.status,
		Tick:   i.ticks,
		Graph:  i.graph.Clone(),
		Nodes:  make(map[model.NodeID]model.NodeStatus, i.graph.Len()),
		Inbox:  len(i.inbox),
	}
	for _, id := range i.graph.NodeIDs() {
		s.Nodes[id] = i.NodeStatus(id)
	}
	return s
}
