// Package nodes assembles the built-in node catalog.
package nodes

import (
	"github.com/Tsinling0525/scriptflow/nodes/debug"
	"github.com/Tsinling0525/scriptflow/nodes/entity"
	"github.com/Tsinling0525/scriptflow/nodes/flow"
	"github.com/Tsinling0525/scriptflow/nodes/timing"
	"github.com/Tsinling0525/scriptflow/nodes/value"
	"github.com/Tsinling0525/scriptflow/plugin"
)

// RegisterAll adds every built-in node type to b.
func RegisterAll(b *plugin.Builder) *plugin.Builder {
	flow.Register(b)
	timing.Register(b)
	entity.Register(b)
	value.Register(b)
	debug.Register(b)
	return b
}

// Registry builds a registry holding the built-in catalog.
func Registry() (*plugin.Registry, error) {
	return RegisterAll(plugin.NewBuilder()).Build()
}
