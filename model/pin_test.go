package model

import "testing"

func TestPinSide(t *testing.T) {
	cases := []struct {
		pin  PinType
		want PinSide
	}{
		{PinType{ElementFlowPin, PinInput}, SideLeft},
		{PinType{ElementFlowPin, PinOutput}, SideRight},
		{PinType{ElementDataPin, PinInput}, SideLeft},
		{PinType{ElementDataPin, PinOutput}, SideRight},
		{PinType{ElementTargetPin, PinInput}, SideBottom},
		{PinType{ElementTargetPin, PinOutput}, SideBottom},
		{PinType{ElementNode, PinInput}, SideUndefined},
		{PinType{ElementUndefined, PinOutput}, SideUndefined},
	}
	for _, c := range cases {
		if got := c.pin.Side(); got != c.want {
			t.Errorf("Expected %v side %v, got %v", c.pin, c.want, got)
		}
	}
}

func TestPinEquality(t *testing.T) {
	if FlowIn != (PinType{Type: ElementFlowPin, Direction: PinInput}) {
		t.Errorf("Expected FlowIn to equal a flow input pin")
	}
	if FlowIn == FlowOut {
		t.Errorf("Expected pins with different directions to differ")
	}
	if DataIn == FlowIn {
		t.Errorf("Expected pins with different element types to differ")
	}
}
