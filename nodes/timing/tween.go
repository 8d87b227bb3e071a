package timing

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"go.uber.org/zap"

	"github.com/Tsinling0525/scriptflow/format/confignode"
	"github.com/Tsinling0525/scriptflow/model"
	"github.com/Tsinling0525/scriptflow/plugin"
)

// Tween pins.
const (
	TweenTarget = 1
	TweenOut    = 2
)

var easings = map[string]ease.TweenFunc{
	"linear":       ease.Linear,
	"inQuad":       ease.InQuad,
	"outQuad":      ease.OutQuad,
	"inOutQuad":    ease.InOutQuad,
	"inCubic":      ease.InCubic,
	"outCubic":     ease.OutCubic,
	"inOutCubic":   ease.InOutCubic,
	"inSine":       ease.InSine,
	"outSine":      ease.OutSine,
	"inOutSine":    ease.InOutSine,
	"inExpo":       ease.InExpo,
	"outExpo":      ease.OutExpo,
	"inBack":       ease.InBack,
	"outBack":      ease.OutBack,
	"outBounce":    ease.OutBounce,
	"inOutBounce":  ease.InOutBounce,
	"outElastic":   ease.OutElastic,
	"inOutElastic": ease.InOutElastic,
}

// Easing looks up an easing function by name, falling back to linear.
func Easing(name string) ease.TweenFunc {
	if fn, ok := easings[name]; ok {
		return fn
	}
	return ease.Linear
}

// Tween animates a numeric member of the target entity. Without a "from"
// setting it starts at the member's current value.
type Tween struct{ plugin.Descriptor }

func (Tween) descriptor() Tween {
	return Tween{plugin.Descriptor{
		TypeID: "tween",
		Label:  "Tween",
		Class:  model.Action,
		Settings: []plugin.SettingType{
			{Name: "member", Type: "string", Default: ""},
			{Name: "from", Type: "float"},
			{Name: "to", Type: "float", Default: 0.0},
			{Name: "duration", Type: "float", Default: 1.0},
			{Name: "ease", Type: "string", Default: "linear"},
		},
		Layout: []model.PinType{model.FlowIn, model.TargetIn, model.FlowOut},
	}}
}

func (Tween) Update(ctx plugin.Context) plugin.Result {
	log := ctx.Logger()
	settings := ctx.Settings()
	member := confignode.AsString(settings["member"], "")
	target, ok := ctx.Target(TweenTarget)
	if !ok || member == "" {
		log.Error("tween needs a target and a member", zap.String("member", member))
		return plugin.Terminate()
	}
	store := ctx.Entities()

	s := ctx.Scratch()
	tw, _ := s["tween"].(*gween.Tween)
	if tw == nil {
		from, hasFrom := settings["from"]
		start := confignode.AsFloat(from, 0)
		if !hasFrom {
			cur, _ := store.Member(target, member)
			start = confignode.AsFloat(cur, 0)
		}
		to := confignode.AsFloat(settings["to"], 0)
		duration := Seconds(settings["duration"], 1).Seconds()
		if duration <= 0 {
			return set(ctx, target, member, to, true)
		}
		tw = gween.New(float32(start), float32(to), float32(duration), Easing(confignode.AsString(settings["ease"], "linear")))
		s["tween"] = tw
		return set(ctx, target, member, start, false)
	}
	v, finished := tw.Update(float32(ctx.Delta().Seconds()))
	return set(ctx, target, member, float64(v), finished)
}

func set(ctx plugin.Context, target model.EntityID, member string, v float64, finished bool) plugin.Result {
	if err := ctx.Entities().SetMember(target, member, v); err != nil {
		ctx.Logger().Error("tween member write failed", zap.Uint64("entity", uint64(target)), zap.String("member", member), zap.Error(err))
		return plugin.Terminate()
	}
	if finished {
		return plugin.Done(TweenOut)
	}
	return plugin.Executing()
}
