package engine

import (
	"time"

	"github.com/Tsinling0525/scriptflow/format/confignode"
	"github.com/Tsinling0525/scriptflow/model"
)

// Command is a unit of work posted to an instance's execution queue. A
// command carries only owned data (ids and copied values), never a
// reference into the live graph.
type Command interface {
	// own returns a copy safe to hand to the queue goroutine.
	own() Command
	apply(i *Instance) Result
}

// Result is the outcome of one command. Only the fields relevant to the
// command are set.
type Result struct {
	Node     model.NodeID
	Dropped  int
	Removed  []model.Connection
	Report   TickReport
	Snapshot *Snapshot
	Err      error
}

type AddNode struct {
	Type     string
	Position model.Vector2
	Settings model.Settings
}

func (c AddNode) own() Command {
	c.Settings = confignode.CloneMap(c.Settings)
	return c
}

func (c AddNode) apply(i *Instance) Result {
	id, err := i.AddNode(c.Type, c.Position, c.Settings)
	return Result{Node: id, Err: err}
}

// UpdateSettings replaces a node's settings and drops the connections and
// target bindings its new pin layout no longer supports, reporting the
// count in Result.Dropped.
type UpdateSettings struct {
	Node     model.NodeID
	Settings model.Settings
}

func (c UpdateSettings) own() Command {
	c.Settings = confignode.CloneMap(c.Settings)
	return c
}

func (c UpdateSettings) apply(i *Instance) Result {
	if err := i.UpdateSettings(c.Node, c.Settings); err != nil {
		return Result{Node: c.Node, Err: err}
	}
	n, err := i.ValidateNodePins(c.Node)
	return Result{Node: c.Node, Dropped: n, Err: err}
}

type DeleteNode struct {
	Node model.NodeID
}

func (c DeleteNode) own() Command { return c }

func (c DeleteNode) apply(i *Instance) Result {
	removed, err := i.DeleteNode(c.Node)
	return Result{Node: c.Node, Removed: removed, Err: err}
}

type ValidateNodePins struct {
	Node model.NodeID
}

func (c ValidateNodePins) own() Command { return c }

func (c ValidateNodePins) apply(i *Instance) Result {
	n, err := i.ValidateNodePins(c.Node)
	return Result{Node: c.Node, Dropped: n, Err: err}
}

// ApplyNodeEdit is what an editor form submits: it adds a node when Node is
// model.InvalidNodeID, otherwise replaces the node's settings, and then
// validates the node's pins, all in one job.
type ApplyNodeEdit struct {
	Node     model.NodeID
	Type     string
	Position model.Vector2
	Settings model.Settings
}

func (c ApplyNodeEdit) own() Command {
	c.Settings = confignode.CloneMap(c.Settings)
	return c
}

func (c ApplyNodeEdit) apply(i *Instance) Result {
	id := c.Node
	if id == model.InvalidNodeID {
		var err error
		if id, err = i.AddNode(c.Type, c.Position, c.Settings); err != nil {
			return Result{Node: id, Err: err}
		}
	} else if err := i.UpdateSettings(id, c.Settings); err != nil {
		return Result{Node: id, Err: err}
	}
	n, err := i.ValidateNodePins(id)
	return Result{Node: id, Dropped: n, Err: err}
}

type Connect struct {
	From, To model.PinRef
}

func (c Connect) own() Command { return c }

func (c Connect) apply(i *Instance) Result { return Result{Err: i.Connect(c.From, c.To)} }

type Disconnect struct {
	From, To model.PinRef
}

func (c Disconnect) own() Command { return c }

func (c Disconnect) apply(i *Instance) Result {
	if i.Disconnect(c.From, c.To) {
		return Result{Dropped: 1}
	}
	return Result{}
}

type BindTarget struct {
	Pin    model.PinRef
	Entity model.EntityID
}

func (c BindTarget) own() Command { return c }

func (c BindTarget) apply(i *Instance) Result {
	return Result{Node: c.Pin.Node, Err: i.BindTarget(c.Pin, c.Entity)}
}

// Deliver hands a script message to the instance's inbox.
type Deliver struct {
	Message model.ScriptMessage
}

func (c Deliver) own() Command {
	c.Message = c.Message.Clone()
	return c
}

func (c Deliver) apply(i *Instance) Result {
	i.Deliver(c.Message)
	return Result{}
}

type Start struct{}

func (c Start) own() Command { return c }

func (c Start) apply(i *Instance) Result { return Result{Err: i.Start()} }

// Tick advances the instance by Delta. It is how callers step an instance
// by hand instead of relying on the runner's clock.
type Tick struct {
	Delta time.Duration
}

func (c Tick) own() Command { return c }

func (c Tick) apply(i *Instance) Result { return Result{Report: i.Tick(c.Delta)} }

type TakeSnapshot struct{}

func (c TakeSnapshot) own() Command { return c }

func (c TakeSnapshot) apply(i *Instance) Result {
	s := i.Snapshot()
	return Result{Snapshot: &s}
}
