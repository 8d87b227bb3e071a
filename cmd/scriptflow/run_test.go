package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Tsinling0525/scriptflow/engine"
	"github.com/Tsinling0525/scriptflow/format/graphdoc"
	"github.com/Tsinling0525/scriptflow/nodes"
)

const doorGraph = `
name: door
nodes:
  - {id: 0, type: start}
  - id: 1
    type: setMembers
    settings:
      entityMessage: {message: open, members: [open]}
      values: [true]
  - id: 2
    type: sendMessage
    settings:
      message: {type: {message: ping, nParams: 0}, params: []}
  - {id: 3, type: waitMessage, settings: {message: ping}}
  - {id: 4, type: end}
  - {id: 5, type: teleport}
connections:
  - {from: {node: 0, pin: 0}, to: {node: 1, pin: 0}}
  - {from: {node: 1, pin: 2}, to: {node: 2, pin: 0}}
  - {from: {node: 2, pin: 2}, to: {node: 3, pin: 0}}
  - {from: {node: 3, pin: 1}, to: {node: 4, pin: 0}}
`

func TestRunGraphWithEntity(t *testing.T) {
	reg, err := nodes.Registry()
	require.NoError(t, err)
	doc, err := graphdoc.Decode([]byte(doorGraph))
	require.NoError(t, err)

	var out bytes.Buffer
	snap, err := runGraph(&out, reg, zap.NewNop(), doc, runOptions{Ticks: 20, Dt: 16 * time.Millisecond, Entity: "door"})
	require.NoError(t, err)
	require.Equal(t, engine.StatusFinished, snap.Status)

	text := out.String()
	require.Contains(t, text, `unknown node type "teleport"`)
	require.Contains(t, text, "door: finished")
	require.Contains(t, text, "open = true")
}

func TestRunGraphStopsAtTickLimit(t *testing.T) {
	reg, err := nodes.Registry()
	require.NoError(t, err)
	doc := graphdoc.Document{
		Name: "slow",
		Nodes: []graphdoc.Node{
			{ID: 0, Type: "start"},
			{ID: 1, Type: "delay", Settings: map[string]any{"duration": 10}},
		},
		Connections: []graphdoc.Connection{{From: graphdoc.Endpoint{Node: 0}, To: graphdoc.Endpoint{Node: 1}}},
	}
	var out bytes.Buffer
	snap, err := runGraph(&out, reg, zap.NewNop(), doc, runOptions{Ticks: 3, Dt: time.Second})
	require.NoError(t, err)
	require.Equal(t, engine.StatusRunning, snap.Status)
	require.EqualValues(t, 3, snap.Tick)
}

func TestRunGraphFileErrors(t *testing.T) {
	var out bytes.Buffer
	require.Error(t, runGraphFile(&out, runOptions{File: filepath.Join(t.TempDir(), "missing.yaml")}))

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("nodes: [{id: 0}, {id: 0}]"), 0o644))
	require.Error(t, runGraphFile(&out, runOptions{File: bad, Ticks: 1}))
}

func TestListTypes(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, listTypes(&out))
	require.Contains(t, out.String(), `"id": "waitMessage"`)
}
