// Package plugintest provides a scripted plugin.Context for testing node
// types without an engine.
package plugintest

import (
	"time"

	"go.uber.org/zap"

	"github.com/Tsinling0525/scriptflow/model"
	"github.com/Tsinling0525/scriptflow/plugin"
)

// Context is a plugin.Context whose every answer is set by the test.
type Context struct {
	ID      model.NodeID
	Config  model.Settings
	Dt      time.Duration
	Local   map[string]any
	Mem     map[string]any
	Data    map[int]any
	Targets map[int]model.EntityID
	Inbox   []model.ScriptMessage
	Store   plugin.EntityStore
	Log     *zap.Logger
}

func New(settings model.Settings) *Context {
	return &Context{
		Config:  settings,
		Local:   map[string]any{},
		Mem:     map[string]any{},
		Data:    map[int]any{},
		Targets: map[int]model.EntityID{},
		Log:     zap.NewNop(),
	}
}

func (c *Context) Node() model.NodeID       { return c.ID }
func (c *Context) Settings() model.Settings { return c.Config }
func (c *Context) Delta() time.Duration     { return c.Dt }
func (c *Context) Scratch() map[string]any  { return c.Local }
func (c *Context) Memory() map[string]any   { return c.Mem }
func (c *Context) Logger() *zap.Logger      { return c.Log }

func (c *Context) Entities() plugin.EntityStore { return c.Store }

func (c *Context) ReadData(pin int) (any, bool) {
	v, ok := c.Data[pin]
	return v, ok
}

func (c *Context) Target(pin int) (model.EntityID, bool) {
	e, ok := c.Targets[pin]
	return e, ok
}

func (c *Context) TakeMessage(message string) (model.ScriptMessage, bool) {
	for i, m := range c.Inbox {
		if m.Type.Message == message {
			c.Inbox = append(c.Inbox[:i], c.Inbox[i+1:]...)
			return m, true
		}
	}
	return model.ScriptMessage{}, false
}

// Restart clears scratch data the way the engine does on a Restart result.
func (c *Context) Restart() { c.Local = map[string]any{} }

var _ plugin.Context = (*Context)(nil)
