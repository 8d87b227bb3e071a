package engine

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Tsinling0525/scriptflow/model"
	"github.com/Tsinling0525/scriptflow/plugin"
)

// maxDataDepth bounds recursive data pin evaluation so a cycle of data
// connections cannot recurse forever.
const maxDataDepth = 32

var ErrNoEntityStore = errors.New("no entity store configured")

// entries returns the nodes a fresh instance starts from: terminators with
// no flow input, in id order.
func (i *Instance) entries() []model.NodeID {
	var out []model.NodeID
	for _, id := range i.graph.NodeIDs() {
		node := i.graph.MustNode(id)
		nt, ok := i.reg.TryGet(node.Type)
		if !ok || nt.Classification() != model.Terminator {
			continue
		}
		if !hasPin(node.Pins(), model.FlowIn) {
			out = append(out, id)
		}
	}
	return out
}

func hasPin(pins []model.PinType, want model.PinType) bool {
	for _, p := range pins {
		if p == want {
			return true
		}
	}
	return false
}

func (i *Instance) schedule(id model.NodeID) {
	for _, s := range i.scheduled {
		if s == id {
			return
		}
	}
	i.scheduled = append(i.scheduled, id)
}

// follow schedules every node connected to the given flow outputs.
func (i *Instance) follow(id model.NodeID, outputs []int) {
	node, ok := i.graph.Node(id)
	if !ok {
		return
	}
	for _, out := range outputs {
		p, ok := node.Pin(out)
		if !ok || !p.IsFlowOutput() {
			i.log.Warn("node chose a pin that is not a flow output",
				zap.Int64("node", int64(id)), zap.Int("pin", out))
			continue
		}
		for _, to := range i.graph.Outgoing(model.PinRef{Node: id, Pin: out}) {
			i.schedule(to.Node)
		}
	}
}

// readData pulls the value feeding an input data pin by evaluating the
// node on the other end of its connection.
func (i *Instance) readData(to model.PinRef, depth int) (any, bool) {
	sources := i.graph.Incoming(to)
	if len(sources) == 0 {
		return nil, false
	}
	src := sources[0]
	if depth >= maxDataDepth {
		i.log.Error("data evaluation too deep, probably a cycle", zap.Int64("node", int64(src.Node)))
		return nil, false
	}
	node, ok := i.graph.Node(src.Node)
	if !ok {
		return nil, false
	}
	nt, ok := i.reg.TryGet(node.Type)
	if !ok {
		return nil, false
	}
	ev, ok := nt.(plugin.Evaluator)
	if !ok {
		i.log.Warn("data source cannot be evaluated", zap.Int64("node", int64(src.Node)), zap.String("type", node.Type))
		return nil, false
	}
	rt := i.runtimeFor(src.Node)
	return ev.Evaluate(i.newContext(src.Node, node, rt, 0, depth+1), src.Pin)
}

type noEntities struct{}

func (noEntities) SendMessage(target model.EntityID, msg model.ScriptMessage) error {
	return fmt.Errorf("%w: send %s to %d", ErrNoEntityStore, msg, target)
}

func (noEntities) SetMember(target model.EntityID, member string, _ any) error {
	return fmt.Errorf("%w: set %s on %d", ErrNoEntityStore, member, target)
}

func (noEntities) Member(model.EntityID, string) (any, bool) { return nil, false }
