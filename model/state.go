package model

// ExecutionState is what a node reports back to the interpreter after one
// update.
type ExecutionState uint8

const (
	// Done ends this activation; the interpreter follows the chosen flow outputs.
	Done ExecutionState = iota
	// Executing keeps the node active for the next tick.
	Executing
	// Restart re-enters the node from the top on the next tick without
	// following any output.
	Restart
	// Terminate stops the whole graph instance.
	Terminate
)

func (s ExecutionState) String() string {
	switch s {
	case Done:
		return "done"
	case Executing:
		return "executing"
	case Restart:
		return "restart"
	case Terminate:
		return "terminate"
	default:
		return "unknown"
	}
}

type Classification uint8

const (
	// Terminator nodes are start/end points of a graph.
	Terminator Classification = iota
	FlowControl
	Variable
	Action
)

func (c Classification) String() string {
	switch c {
	case Terminator:
		return "terminator"
	case FlowControl:
		return "flow_control"
	case Variable:
		return "variable"
	case Action:
		return "action"
	default:
		return "unknown"
	}
}

// NodeStatus is the runtime condition of a node inside one graph instance.
type NodeStatus uint8

const (
	NodeIdle NodeStatus = iota
	NodeRunning
	// NodeStopped marks a node that was running when its instance terminated.
	NodeStopped
)

func (s NodeStatus) String() string {
	switch s {
	case NodeRunning:
		return "running"
	case NodeStopped:
		return "stopped"
	default:
		return "idle"
	}
}
