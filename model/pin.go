package model

// ElementType is the kind of graph element a pin carries.
type ElementType uint8

const (
	ElementUndefined ElementType = iota
	ElementNode
	ElementFlowPin
	ElementDataPin
	ElementTargetPin
)

func (t ElementType) String() string {
	switch t {
	case ElementNode:
		return "node"
	case ElementFlowPin:
		return "flow"
	case ElementDataPin:
		return "data"
	case ElementTargetPin:
		return "target"
	default:
		return "undefined"
	}
}

type PinDirection uint8

const (
	PinInput PinDirection = iota
	PinOutput
)

func (d PinDirection) String() string {
	if d == PinOutput {
		return "output"
	}
	return "input"
}

// PinSide is where a pin is drawn on the node. Presentation only.
type PinSide uint8

const (
	SideUndefined PinSide = iota
	SideLeft
	SideRight
	SideTop
	SideBottom
)

func (s PinSide) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	case SideTop:
		return "top"
	case SideBottom:
		return "bottom"
	default:
		return "undefined"
	}
}

// PinType is a comparable value; two pins are the same type when both the
// element type and direction match.
type PinType struct {
	Type      ElementType  `json:"type" yaml:"type"`
	Direction PinDirection `json:"direction" yaml:"direction"`
}

var (
	FlowIn    = PinType{Type: ElementFlowPin, Direction: PinInput}
	FlowOut   = PinType{Type: ElementFlowPin, Direction: PinOutput}
	DataIn    = PinType{Type: ElementDataPin, Direction: PinInput}
	DataOut   = PinType{Type: ElementDataPin, Direction: PinOutput}
	TargetIn  = PinType{Type: ElementTargetPin, Direction: PinInput}
	TargetOut = PinType{Type: ElementTargetPin, Direction: PinOutput}
)

func (p PinType) Side() PinSide {
	switch p.Type {
	case ElementFlowPin, ElementDataPin:
		if p.Direction == PinInput {
			return SideLeft
		}
		return SideRight
	case ElementTargetPin:
		return SideBottom
	}
	return SideUndefined
}

func (p PinType) IsFlowOutput() bool { return p == FlowOut }

func (p PinType) String() string { return p.Type.String() + "/" + p.Direction.String() }
