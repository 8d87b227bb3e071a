package infra

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Tsinling0525/scriptflow/engine"
	"github.com/Tsinling0525/scriptflow/format/graphdoc"
	"github.com/Tsinling0525/scriptflow/nodes"
)

func newTestManager(t *testing.T) *InstanceManager {
	t.Helper()
	reg, err := nodes.Registry()
	require.NoError(t, err)
	cfg := DefaultConfig()
	cfg.Tick = time.Millisecond
	m := NewInstanceManager(reg, cfg, nil)
	t.Cleanup(m.Close)
	return m
}

func link(from, fromPin, to, toPin int64) graphdoc.Connection {
	return graphdoc.Connection{
		From: graphdoc.Endpoint{Node: from, Pin: int(fromPin)},
		To:   graphdoc.Endpoint{Node: to, Pin: int(toPin)},
	}
}

func status(m *InstanceManager, id string) engine.InstanceStatus {
	res, err := m.Do(context.Background(), id, engine.TakeSnapshot{})
	if err != nil {
		return engine.StatusIdle
	}
	return res.Snapshot.Status
}

func TestInstanceRunsToCompletion(t *testing.T) {
	m := newTestManager(t)
	inst, err := m.Create(graphdoc.Document{
		Name: "short",
		Nodes: []graphdoc.Node{
			{ID: 0, Type: "start"},
			{ID: 1, Type: "delay", Settings: map[string]any{"duration": 0.01}},
			{ID: 2, Type: "end"},
		},
		Connections: []graphdoc.Connection{link(0, 0, 1, 0), link(1, 1, 2, 0)},
	})
	require.NoError(t, err)
	require.True(t, inst.Report.Clean())
	require.Len(t, m.List(), 1)

	require.Eventually(t, func() bool {
		return status(m, inst.ID) == engine.StatusFinished
	}, 5*time.Second, 5*time.Millisecond)

	logs, err := m.Logs(inst.ID)
	require.NoError(t, err)
	joined := strings.Join(logs, "\n")
	require.Contains(t, joined, "instance started")
	require.Contains(t, joined, "instance_finished")

	require.NotEmpty(t, m.State().Nodes(inst.ID))
}

func TestCreateReportsUnknownTypes(t *testing.T) {
	m := newTestManager(t)
	inst, err := m.Create(graphdoc.Document{
		Name:  "odd",
		Nodes: []graphdoc.Node{{ID: 0, Type: "start"}, {ID: 1, Type: "warp"}},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"warp"}, inst.Report.UnknownTypes)
}

func TestCreateRejectsBrokenDocument(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Create(graphdoc.Document{Nodes: []graphdoc.Node{{ID: 0, Type: "start"}, {ID: 0, Type: "end"}}})
	require.Error(t, err)
	require.Empty(t, m.List())
}

func TestStopForgetsInstance(t *testing.T) {
	m := newTestManager(t)
	inst, err := m.Create(graphdoc.Document{Name: "idle", Nodes: []graphdoc.Node{{ID: 0, Type: "start"}}})
	require.NoError(t, err)

	require.NoError(t, m.Stop(inst.ID))
	_, ok := m.Get(inst.ID)
	require.False(t, ok)
	require.ErrorIs(t, m.Stop(inst.ID), ErrInstanceNotFound)
	_, err = m.Do(context.Background(), inst.ID, engine.TakeSnapshot{})
	require.ErrorIs(t, err, ErrInstanceNotFound)
	_, err = m.Logs(inst.ID)
	require.ErrorIs(t, err, ErrInstanceNotFound)
	require.Empty(t, m.State().Nodes(inst.ID))
}

func TestMessagesRouteToBoundInstances(t *testing.T) {
	m := newTestManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	door := m.Entities().Spawn("door", map[string]any{"open": false})
	target := uint64(door)

	receiver, err := m.Create(graphdoc.Document{
		Name:   "door-script",
		Entity: &target,
		Nodes: []graphdoc.Node{
			{ID: 0, Type: "start"},
			{ID: 1, Type: "waitMessage", Settings: map[string]any{"message": "open"}},
			{ID: 2, Type: "setMembers", Settings: map[string]any{
				"entityMessage": map[string]any{"message": "open", "members": []any{"open"}},
				"values":        []any{true},
			}},
		},
		Connections: []graphdoc.Connection{link(0, 0, 1, 0), link(1, 1, 2, 0)},
	})
	require.NoError(t, err)

	sender, err := m.Create(graphdoc.Document{
		Name: "switch",
		Nodes: []graphdoc.Node{
			{ID: 0, Type: "start"},
			{ID: 1, Type: "sendMessage", Targets: map[int]uint64{1: target}, Settings: map[string]any{
				"message": map[string]any{"type": map[string]any{"script": "door", "message": "open"}},
			}},
		},
		Connections: []graphdoc.Connection{link(0, 0, 1, 0)},
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return status(m, receiver.ID) == engine.StatusFinished
	}, 5*time.Second, 5*time.Millisecond)
	require.Equal(t, engine.StatusFinished, status(m, sender.ID))

	open, ok := m.Entities().Member(door, "open")
	require.True(t, ok)
	require.Equal(t, true, open)
}
