// Package value holds the pure data nodes, literal and compare.
package value

import (
	"cmp"
	"strings"

	"github.com/Tsinling0525/scriptflow/format/confignode"
	"github.com/Tsinling0525/scriptflow/model"
	"github.com/Tsinling0525/scriptflow/plugin"
)

func Register(b *plugin.Builder) {
	b.Register(Literal{}.descriptor()).Register(Compare{}.descriptor())
}

// Literal outputs its configured value.
type Literal struct{ plugin.Descriptor }

func (Literal) descriptor() Literal {
	return Literal{plugin.Descriptor{
		TypeID:   "literal",
		Label:    "Literal",
		Class:    model.Variable,
		Settings: []plugin.SettingType{{Name: "value", Type: "any"}},
		Layout:   []model.PinType{model.DataOut},
	}}
}

func (Literal) Evaluate(ctx plugin.Context, pin int) (any, bool) {
	v, ok := ctx.Settings()["value"]
	if pin != 0 || !ok {
		return nil, false
	}
	return confignode.Clone(v), true
}

// Compare pins.
const (
	CompareA   = 0
	CompareB   = 1
	CompareOut = 2
)

// Compare compares its two inputs with the configured operator. Two numbers
// compare numerically, anything else compares as rendered strings. A missing
// input makes the result false.
type Compare struct{ plugin.Descriptor }

func (Compare) descriptor() Compare {
	return Compare{plugin.Descriptor{
		TypeID:   "compare",
		Label:    "Compare",
		Class:    model.Variable,
		Settings: []plugin.SettingType{{Name: "op", Type: "string", Default: "=="}},
		Layout:   []model.PinType{model.DataIn, model.DataIn, model.DataOut},
	}}
}

func (Compare) Evaluate(ctx plugin.Context, pin int) (any, bool) {
	if pin != CompareOut {
		return nil, false
	}
	a, okA := ctx.ReadData(CompareA)
	b, okB := ctx.ReadData(CompareB)
	if !okA || !okB {
		return false, true
	}
	return Apply(confignode.AsString(ctx.Settings()["op"], "=="), a, b), true
}

// Apply evaluates a op b. Unknown operators are false.
func Apply(op string, a, b any) bool {
	c := order(a, b)
	switch op {
	case "==":
		return c == 0
	case "!=":
		return c != 0
	case "<":
		return c < 0
	case "<=":
		return c <= 0
	case ">":
		return c > 0
	case ">=":
		return c >= 0
	}
	return false
}

func order(a, b any) int {
	fa, okA := confignode.Number(a)
	fb, okB := confignode.Number(b)
	if okA && okB {
		return cmp.Compare(fa, fb)
	}
	return strings.Compare(confignode.String(a), confignode.String(b))
}
