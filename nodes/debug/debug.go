package debug

import (
	"go.uber.org/zap"

	"github.com/Tsinling0525/scriptflow/format/confignode"
	"github.com/Tsinling0525/scriptflow/model"
	"github.com/Tsinling0525/scriptflow/plugin"
)

func Register(b *plugin.Builder) {
	b.Register(Log{}.descriptor()).Register(Abort{}.descriptor())
}

// Log pins.
const (
	LogValue = 1
	LogOut   = 2
)

// Log writes its text and the value on its data input to the instance log.
type Log struct{ plugin.Descriptor }

func (Log) descriptor() Log {
	return Log{plugin.Descriptor{
		TypeID:   "log",
		Label:    "Log",
		Class:    model.Action,
		Settings: []plugin.SettingType{{Name: "text", Type: "string", Default: ""}},
		Layout:   []model.PinType{model.FlowIn, model.DataIn, model.FlowOut},
	}}
}

func (Log) Update(ctx plugin.Context) plugin.Result {
	text := confignode.AsString(ctx.Settings()["text"], "")
	fields := []zap.Field{}
	if v, ok := ctx.ReadData(LogValue); ok {
		fields = append(fields, zap.String("value", confignode.String(v)))
	}
	ctx.Logger().Info(text, fields...)
	return plugin.Done(LogOut)
}

// Abort terminates the whole graph instance.
type Abort struct{ plugin.Descriptor }

func (Abort) descriptor() Abort {
	return Abort{plugin.Descriptor{
		TypeID:   "abort",
		Label:    "Abort",
		Class:    model.Action,
		Settings: []plugin.SettingType{{Name: "reason", Type: "string", Default: ""}},
		Layout:   []model.PinType{model.FlowIn},
	}}
}

func (Abort) Update(ctx plugin.Context) plugin.Result {
	ctx.Logger().Warn("graph aborted", zap.String("reason", confignode.AsString(ctx.Settings()["reason"], "")))
	return plugin.Terminate()
}
