// Package api holds no-op dependencies for embedding the engine where no
// state or event sink is wanted.
package api

import (
	"context"

	"github.com/Tsinling0525/scriptflow/model"
	"github.com/Tsinling0525/scriptflow/plugin"
)

// NullBus is a no-op event bus implementation.
type NullBus struct{}

func (n NullBus) Emit(ctx context.Context, event string, fields map[string]any) error { return nil }

// NullState discards node states and never restores any.
type NullState struct{}

func (NullState) SaveNodeState(context.Context, string, model.NodeID, map[string]any) error {
	return nil
}

func (NullState) LoadNodeState(context.Context, string, model.NodeID) (map[string]any, error) {
	return map[string]any{}, nil
}

// Ensure interface implementation at compile time
var _ plugin.EventBus = (*NullBus)(nil)
var _ plugin.StateStore = (*NullState)(nil)
