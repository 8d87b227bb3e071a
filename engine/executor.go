package engine

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Tsinling0525/scriptflow/model"
	"github.com/Tsinling0525/scriptflow/plugin"
)

// TickReport describes what one tick did.
type TickReport struct {
	Tick      uint64
	States    map[model.NodeID]model.ExecutionState
	Scheduled []model.NodeID
	Status    InstanceStatus
}

// Tick advances the instance by one step. Nodes scheduled by the previous
// tick become running, then every running node is updated once in
// activation order. Successors reached through Done are scheduled for the
// next tick.
func (i *Instance) Tick(dt time.Duration) TickReport {
	rep := TickReport{States: map[model.NodeID]model.ExecutionState{}}
	if i.status != StatusRunning {
		rep.Status = i.status
		return rep
	}
	i.ticks++
	rep.Tick = i.ticks

	pending := i.scheduled
	i.scheduled = nil
	for _, id := range pending {
		i.activate(id)
	}

	current := append([]model.NodeID(nil), i.running...)
	for _, id := range current {
		if i.status != StatusRunning {
			break
		}
		rt, ok := i.runtime[id]
		if !ok || rt.status != model.NodeRunning {
			continue
		}
		res := i.update(id, rt, dt)
		rep.States[id] = res.State
		i.apply(id, rt, res)
	}

	if i.status == StatusRunning {
		i.running = i.stillRunning()
		if len(i.running) == 0 && len(i.scheduled) == 0 {
			i.finish()
		}
	}
	rep.Scheduled = append([]model.NodeID(nil), i.scheduled...)
	rep.Status = i.status
	return rep
}

func (i *Instance) activate(id model.NodeID) {
	node, ok := i.graph.Node(id)
	if !ok {
		return
	}
	rt := i.runtimeFor(id)
	if rt.status == model.NodeRunning {
		i.log.Debug("node already running, activation ignored", zap.Int64("node", int64(id)))
		return
	}
	rt.status = model.NodeRunning
	rt.scratch = map[string]any{}
	i.running = append(i.running, id)
	i.emit("node_started", map[string]any{"node": int64(id), "type": node.Type})
}

func (i *Instance) update(id model.NodeID, rt *nodeRuntime, dt time.Duration) (res plugin.Result) {
	node, ok := i.graph.Node(id)
	if !ok {
		return plugin.Done()
	}
	nt, ok := i.reg.TryGet(node.Type)
	if !ok {
		i.log.Error("unknown node type", zap.Int64("node", int64(id)), zap.String("type", node.Type))
		return plugin.Terminate()
	}
	up, ok := nt.(plugin.Updater)
	if !ok {
		i.log.Warn("flow reached a node that does not run", zap.Int64("node", int64(id)), zap.String("type", node.Type))
		return plugin.Done()
	}
	defer func() {
		if r := recover(); r != nil {
			i.log.Error("node update panicked",
				zap.Int64("node", int64(id)),
				zap.String("type", node.Type),
				zap.String("panic", fmt.Sprint(r)))
			res = plugin.Terminate()
		}
	}()
	return up.Update(i.newContext(id, node, rt, dt, 0))
}

func (i *Instance) apply(id model.NodeID, rt *nodeRuntime, res plugin.Result) {
	rt.last = res.State
	switch res.State {
	case model.Executing:
	case model.Restart:
		rt.scratch = map[string]any{}
	case model.Done:
		rt.status = model.NodeIdle
		i.follow(id, res.Outputs)
		i.emit("node_completed", map[string]any{"node": int64(id)})
	case model.Terminate:
		rt.status = model.NodeIdle
		i.terminate(id)
	default:
		i.log.Error("node returned an invalid state", zap.Int64("node", int64(id)), zap.Uint8("state", uint8(res.State)))
		rt.status = model.NodeIdle
		i.terminate(id)
	}
	i.saveState(id, rt)
}

// terminate stops every running node and ends the instance.
func (i *Instance) terminate(origin model.NodeID) {
	stopped := 0
	for _, id := range i.running {
		rt, ok := i.runtime[id]
		if !ok || rt.status != model.NodeRunning {
			continue
		}
		rt.status = model.NodeStopped
		stopped++
		i.saveState(id, rt)
	}
	i.running = nil
	i.scheduled = nil
	i.status = StatusTerminated
	i.log.Info("instance terminated", zap.Int64("origin", int64(origin)), zap.Int("stopped", stopped))
	i.emit("instance_terminated", map[string]any{"origin": int64(origin), "stopped": stopped})
}

func (i *Instance) finish() {
	i.status = StatusFinished
	i.log.Debug("instance finished", zap.Uint64("ticks", i.ticks))
	i.emit("instance_finished", map[string]any{"ticks": i.ticks})
}

func (i *Instance) stillRunning() []model.NodeID {
	out := i.running[:0]
	for _, id := range i.running {
		if rt, ok := i.runtime[id]; ok && rt.status == model.NodeRunning {
			out = append(out, id)
		}
	}
	return out
}

type execContext struct {
	inst  *Instance
	id    model.NodeID
	node  *model.Node
	rt    *nodeRuntime
	dt    time.Duration
	depth int
}

func (i *Instance) newContext(id model.NodeID, node *model.Node, rt *nodeRuntime, dt time.Duration, depth int) *execContext {
	return &execContext{inst: i, id: id, node: node, rt: rt, dt: dt, depth: depth}
}

func (c *execContext) Node() model.NodeID       { return c.id }
func (c *execContext) Settings() model.Settings { return c.node.Settings() }
func (c *execContext) Delta() time.Duration     { return c.dt }
func (c *execContext) Scratch() map[string]any  { return c.rt.scratch }
func (c *execContext) Memory() map[string]any   { return c.rt.memory }

func (c *execContext) Entities() plugin.EntityStore {
	if c.inst.deps.Entities == nil {
		return noEntities{}
	}
	return c.inst.deps.Entities
}

func (c *execContext) Logger() *zap.Logger {
	return c.inst.log.With(zap.Int64("node", int64(c.id)), zap.String("type", c.node.Type))
}

func (c *execContext) ReadData(pin int) (any, bool) {
	return c.inst.readData(model.PinRef{Node: c.id, Pin: pin}, c.depth)
}

func (c *execContext) Target(pin int) (model.EntityID, bool) {
	if e, ok := c.node.Targets[pin]; ok {
		return e, true
	}
	return c.inst.Entity()
}

func (c *execContext) TakeMessage(message string) (model.ScriptMessage, bool) {
	return c.inst.takeMessage(message)
}

var _ plugin.Context = (*execContext)(nil)
