package infra

import (
	"context"
	"sync"

	"github.com/Tsinling0525/scriptflow/format/confignode"
	"github.com/Tsinling0525/scriptflow/model"
	"github.com/Tsinling0525/scriptflow/plugin"
)

// MemState keeps node states per instance in memory.
type MemState struct {
	mu sync.RWMutex
	m  map[string]map[model.NodeID]map[string]any
}

func NewMemState() *MemState {
	return &MemState{m: map[string]map[model.NodeID]map[string]any{}}
}

func (s *MemState) SaveNodeState(ctx context.Context, instanceID string, nodeID model.NodeID, state map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[instanceID]; !ok {
		s.m[instanceID] = map[model.NodeID]map[string]any{}
	}
	s.m[instanceID][nodeID] = confignode.CloneMap(state)
	return nil
}

func (s *MemState) LoadNodeState(ctx context.Context, instanceID string, nodeID model.NodeID) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if inst, ok := s.m[instanceID]; ok {
		if st, ok := inst[nodeID]; ok {
			return confignode.CloneMap(st), nil
		}
	}
	return map[string]any{}, nil
}

// Nodes returns a copy of every node state saved for the instance.
func (s *MemState) Nodes(instanceID string) map[model.NodeID]map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[model.NodeID]map[string]any, len(s.m[instanceID]))
	for id, st := range s.m[instanceID] {
		out[id] = confignode.CloneMap(st)
	}
	return out
}

// Forget drops everything saved for the instance.
func (s *MemState) Forget(instanceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, instanceID)
}

var _ plugin.StateStore = (*MemState)(nil)
