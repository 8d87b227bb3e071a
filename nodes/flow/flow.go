// Package flow holds the terminators and flow control nodes: start, end,
// branch, sequence, loop and waitUntil.
package flow

import (
	"github.com/Tsinling0525/scriptflow/format/confignode"
	"github.com/Tsinling0525/scriptflow/model"
	"github.com/Tsinling0525/scriptflow/plugin"
)

const (
	MaxSequenceOutputs     = 16
	defaultSequenceOutputs = 2
)

func Register(b *plugin.Builder) {
	b.Register(Start{}.descriptor()).
		Register(End{}.descriptor()).
		Register(Branch{}.descriptor()).
		Register(Sequence{}.descriptor()).
		Register(Loop{}.descriptor()).
		Register(WaitUntil{}.descriptor())
}

// Start is the entry point of a graph.
type Start struct{ plugin.Descriptor }

func (Start) descriptor() Start {
	return Start{plugin.Descriptor{
		TypeID:    "start",
		Label:     "Start",
		Class:     model.Terminator,
		Layout:    []model.PinType{model.FlowOut},
		Mandatory: true,
	}}
}

func (Start) Update(plugin.Context) plugin.Result { return plugin.Done(0) }

// End closes a branch of flow.
type End struct{ plugin.Descriptor }

func (End) descriptor() End {
	return End{plugin.Descriptor{
		TypeID:    "end",
		Label:     "End",
		Class:     model.Terminator,
		Layout:    []model.PinType{model.FlowIn},
		Mandatory: true,
	}}
}

func (End) Update(plugin.Context) plugin.Result { return plugin.Done() }

// Branch pins.
const (
	BranchCond  = 1
	BranchTrue  = 2
	BranchFalse = 3
)

// Branch follows its true or false output depending on the condition input.
// A missing condition counts as false.
type Branch struct{ plugin.Descriptor }

func (Branch) descriptor() Branch {
	return Branch{plugin.Descriptor{
		TypeID: "branch",
		Label:  "Branch",
		Class:  model.FlowControl,
		Layout: []model.PinType{model.FlowIn, model.DataIn, model.FlowOut, model.FlowOut},
	}}
}

func (Branch) Update(ctx plugin.Context) plugin.Result {
	v, _ := ctx.ReadData(BranchCond)
	if confignode.AsBool(v, false) {
		return plugin.Done(BranchTrue)
	}
	return plugin.Done(BranchFalse)
}

// Sequence fans flow out to a configurable number of outputs, all of which
// are followed.
type Sequence struct{ plugin.Descriptor }

func (Sequence) descriptor() Sequence {
	return Sequence{plugin.Descriptor{
		TypeID:   "sequence",
		Label:    "Sequence",
		Class:    model.FlowControl,
		Settings: []plugin.SettingType{{Name: "outputs", Type: "int", Default: defaultSequenceOutputs}},
	}}
}

// SequenceOutputs reads the output count from settings, clamped to
// 1..MaxSequenceOutputs.
func SequenceOutputs(settings model.Settings) int {
	n := confignode.AsInt(settings["outputs"], defaultSequenceOutputs)
	return min(max(n, 1), MaxSequenceOutputs)
}

func (Sequence) Pins(settings model.Settings) []model.PinType {
	n := SequenceOutputs(settings)
	pins := make([]model.PinType, 0, n+1)
	pins = append(pins, model.FlowIn)
	for i := 0; i < n; i++ {
		pins = append(pins, model.FlowOut)
	}
	return pins
}

func (Sequence) Update(ctx plugin.Context) plugin.Result {
	n := SequenceOutputs(ctx.Settings())
	outs := make([]int, n)
	for i := range outs {
		outs[i] = i + 1
	}
	return plugin.Done(outs...)
}

// Loop pins.
const (
	LoopBody = 1
	LoopDone = 2
)

// Loop follows its body output count times, one pass per activation, then
// follows done and rearms. The counter lives in instance memory so the body
// can flow back into the loop.
type Loop struct{ plugin.Descriptor }

func (Loop) descriptor() Loop {
	return Loop{plugin.Descriptor{
		TypeID:   "loop",
		Label:    "Loop",
		Class:    model.FlowControl,
		Settings: []plugin.SettingType{{Name: "count", Type: "int", Default: 1}},
		Layout:   []model.PinType{model.FlowIn, model.FlowOut, model.FlowOut},
	}}
}

func (Loop) Update(ctx plugin.Context) plugin.Result {
	count := confignode.AsInt(ctx.Settings()["count"], 1)
	mem := ctx.Memory()
	i := confignode.AsInt(mem["iteration"], 0)
	if i < count {
		mem["iteration"] = i + 1
		return plugin.Done(LoopBody)
	}
	mem["iteration"] = 0
	return plugin.Done(LoopDone)
}

// WaitUntil pins.
const (
	WaitCond = 1
	WaitOut  = 2
)

// WaitUntil re-runs every tick until its condition reads true.
type WaitUntil struct{ plugin.Descriptor }

func (WaitUntil) descriptor() WaitUntil {
	return WaitUntil{plugin.Descriptor{
		TypeID: "waitUntil",
		Label:  "Wait Until",
		Class:  model.FlowControl,
		Layout: []model.PinType{model.FlowIn, model.DataIn, model.FlowOut},
	}}
}

func (WaitUntil) Update(ctx plugin.Context) plugin.Result {
	v, ok := ctx.ReadData(WaitCond)
	if ok && confignode.AsBool(v, false) {
		return plugin.Done(WaitOut)
	}
	return plugin.Restart()
}
