// Package entity holds the nodes that talk to entities bound through target
// pins: sendMessage, setMembers, waitMessage and member.
package entity

import (
	"go.uber.org/zap"

	"github.com/Tsinling0525/scriptflow/format/confignode"
	"github.com/Tsinling0525/scriptflow/model"
	"github.com/Tsinling0525/scriptflow/plugin"
)

func Register(b *plugin.Builder) {
	b.Register(SendMessage{}.descriptor()).
		Register(SetMembers{}.descriptor()).
		Register(WaitMessage{}.descriptor()).
		Register(Member{}.descriptor())
}

// Pins shared by the action nodes.
const (
	ActionTarget = 1
	ActionOut    = 2
)

func target(ctx plugin.Context, pin int) (model.EntityID, bool) {
	e, ok := ctx.Target(pin)
	if !ok {
		ctx.Logger().Error("target pin is not bound", zap.Int("pin", pin))
	}
	return e, ok
}

// SendMessage delivers the configured message to the target entity.
type SendMessage struct{ plugin.Descriptor }

func (SendMessage) descriptor() SendMessage {
	return SendMessage{plugin.Descriptor{
		TypeID:   "sendMessage",
		Label:    "Send Message",
		Class:    model.Action,
		Settings: []plugin.SettingType{{Name: "message", Type: "scriptMessage", Default: model.ScriptMessage{}.ToConfig().Map()}},
		Layout:   []model.PinType{model.FlowIn, model.TargetIn, model.FlowOut},
	}}
}

func (SendMessage) Update(ctx plugin.Context) plugin.Result {
	log := ctx.Logger()
	msg := model.ParseScriptMessage(ctx.Settings()["message"])
	if msg.Type.Message == "" {
		log.Error("sendMessage has no message name")
		return plugin.Terminate()
	}
	e, ok := target(ctx, ActionTarget)
	if !ok {
		return plugin.Terminate()
	}
	if n := paramCount(msg.Params); n != msg.Type.NParams {
		log.Warn("message parameter count differs from its declaration",
			zap.String("message", msg.String()), zap.Int("declared", msg.Type.NParams), zap.Int("got", n))
	}
	if err := ctx.Entities().SendMessage(e, msg); err != nil {
		log.Error("send message failed", zap.String("message", msg.String()), zap.Error(err))
		return plugin.Terminate()
	}
	return plugin.Done(ActionOut)
}

func paramCount(params any) int {
	if params == nil {
		return 0
	}
	if seq, ok := confignode.AsSequence(params); ok {
		return len(seq)
	}
	return 1
}

// SetMembers writes values to the members named by its entity message
// declaration, pairing them by position.
type SetMembers struct{ plugin.Descriptor }

func (SetMembers) descriptor() SetMembers {
	return SetMembers{plugin.Descriptor{
		TypeID: "setMembers",
		Label:  "Set Members",
		Class:  model.Action,
		Settings: []plugin.SettingType{
			{Name: "entityMessage", Type: "scriptEntityMessage", Default: model.ScriptEntityMessageType{}.ToConfig().Map()},
			{Name: "values", Type: "sequence", Default: []any{}},
		},
		Layout: []model.PinType{model.FlowIn, model.TargetIn, model.FlowOut},
	}}
}

func (SetMembers) Update(ctx plugin.Context) plugin.Result {
	settings := ctx.Settings()
	decl := model.ParseScriptEntityMessageType(settings["entityMessage"])
	values, _ := confignode.AsSequence(settings["values"])
	e, ok := target(ctx, ActionTarget)
	if !ok {
		return plugin.Terminate()
	}
	if len(values) != len(decl.Members) {
		ctx.Logger().Warn("member and value counts differ",
			zap.String("message", decl.Message), zap.Int("members", len(decl.Members)), zap.Int("values", len(values)))
	}
	for i, member := range decl.Members {
		if i >= len(values) {
			break
		}
		if err := ctx.Entities().SetMember(e, member, confignode.Clone(values[i])); err != nil {
			ctx.Logger().Error("set member failed", zap.String("member", member), zap.Error(err))
			return plugin.Terminate()
		}
	}
	return plugin.Done(ActionOut)
}

// WaitMessage pins.
const (
	WaitOut    = 1
	WaitParams = 2
)

// WaitMessage blocks its branch until a message with the configured name
// has been delivered to the instance. The params of the last received
// message stay readable on its data output.
type WaitMessage struct{ plugin.Descriptor }

func (WaitMessage) descriptor() WaitMessage {
	return WaitMessage{plugin.Descriptor{
		TypeID:   "waitMessage",
		Label:    "Wait Message",
		Class:    model.Action,
		Settings: []plugin.SettingType{{Name: "message", Type: "string", Default: ""}},
		Layout:   []model.PinType{model.FlowIn, model.FlowOut, model.DataOut},
	}}
}

func (WaitMessage) Update(ctx plugin.Context) plugin.Result {
	name := confignode.AsString(ctx.Settings()["message"], "")
	msg, ok := ctx.TakeMessage(name)
	if !ok {
		return plugin.Executing()
	}
	ctx.Memory()["params"] = msg.Params
	return plugin.Done(WaitOut)
}

func (WaitMessage) Evaluate(ctx plugin.Context, pin int) (any, bool) {
	if pin != WaitParams {
		return nil, false
	}
	v, ok := ctx.Memory()["params"]
	return confignode.Clone(v), ok
}

// Member pins.
const (
	MemberTarget = 0
	MemberValue  = 1
)

// Member reads a member of the target entity.
type Member struct{ plugin.Descriptor }

func (Member) descriptor() Member {
	return Member{plugin.Descriptor{
		TypeID:   "member",
		Label:    "Member",
		Class:    model.Variable,
		Settings: []plugin.SettingType{{Name: "member", Type: "string", Default: ""}},
		Layout:   []model.PinType{model.TargetIn, model.DataOut},
	}}
}

func (Member) Evaluate(ctx plugin.Context, pin int) (any, bool) {
	if pin != MemberValue {
		return nil, false
	}
	e, ok := ctx.Target(MemberTarget)
	if !ok {
		return nil, false
	}
	return ctx.Entities().Member(e, confignode.AsString(ctx.Settings()["member"], ""))
}
