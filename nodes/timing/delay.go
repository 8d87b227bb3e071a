// Package timing holds nodes that span several ticks: delay and tween.
package timing

import (
	"time"

	"github.com/Tsinling0525/scriptflow/format/confignode"
	"github.com/Tsinling0525/scriptflow/model"
	"github.com/Tsinling0525/scriptflow/plugin"
)

func Register(b *plugin.Builder) {
	b.Register(Delay{}.descriptor()).Register(Tween{}.descriptor())
}

// Seconds converts a duration setting given in seconds.
func Seconds(v any, def float64) time.Duration {
	return time.Duration(confignode.AsFloat(v, def) * float64(time.Second))
}

const DelayOut = 1

// Delay stays Executing until the accumulated tick time reaches its
// duration. The activation tick does not count towards the elapsed time.
type Delay struct{ plugin.Descriptor }

func (Delay) descriptor() Delay {
	return Delay{plugin.Descriptor{
		TypeID:   "delay",
		Label:    "Delay",
		Class:    model.Action,
		Settings: []plugin.SettingType{{Name: "duration", Type: "float", Default: 1.0}},
		Layout:   []model.PinType{model.FlowIn, model.FlowOut},
	}}
}

func (Delay) Update(ctx plugin.Context) plugin.Result {
	duration := Seconds(ctx.Settings()["duration"], 1)
	s := ctx.Scratch()
	elapsed, started := s["elapsed"].(time.Duration)
	if started {
		elapsed += ctx.Delta()
	}
	s["elapsed"] = elapsed
	if elapsed >= duration {
		return plugin.Done(DelayOut)
	}
	return plugin.Executing()
}
