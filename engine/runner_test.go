package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Tsinling0525/scriptflow/format/confignode"
	"github.com/Tsinling0525/scriptflow/model"
	"github.com/Tsinling0525/scriptflow/plugin"
)

func startRunner(t *testing.T, r *Runner) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go r.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-r.Done()
	})
}

func TestRunnerAppliesCommandsInOrder(t *testing.T) {
	reg := testRegistry(t)
	inst := NewInstance("i", model.NewGraph("g", reg), reg, plugin.Deps{})
	r := NewRunner(inst)

	// queued before the runner starts
	var futures []<-chan Result
	for k := 0; k < 5; k++ {
		futures = append(futures, r.Post(AddNode{Type: "delay", Settings: model.Settings{"duration": k}}))
	}
	startRunner(t, r)

	for k, f := range futures {
		res := <-f
		require.NoError(t, res.Err)
		require.Equal(t, model.NodeID(k), res.Node)
	}
}

func TestPostedSettingsAreCopied(t *testing.T) {
	reg := testRegistry(t)
	inst := NewInstance("i", model.NewGraph("g", reg), reg, plugin.Deps{})
	r := NewRunner(inst)

	settings := model.Settings{"values": []any{1}}
	f := r.Post(AddNode{Type: "setMembers", Settings: settings})
	settings["values"].([]any)[0] = 2
	startRunner(t, r)

	res := <-f
	require.NoError(t, res.Err)
	snap, err := r.Do(context.Background(), TakeSnapshot{})
	require.NoError(t, err)
	require.Equal(t, []any{1}, snap.Snapshot.Graph.MustNode(res.Node).Settings()["values"])
}

func TestApplyNodeEditAddsThenUpdates(t *testing.T) {
	reg := testRegistry(t)
	g := model.NewGraph("g", reg)
	start, err := g.AddNode("start", model.Vector2{}, nil)
	require.NoError(t, err)
	r := NewRunner(NewInstance("i", g, reg, plugin.Deps{}))
	startRunner(t, r)
	ctx := context.Background()

	res, err := r.Do(ctx, ApplyNodeEdit{Node: model.InvalidNodeID, Type: "sequence", Settings: model.Settings{"outputs": 3}})
	require.NoError(t, err)
	seq := res.Node

	end, err := r.Do(ctx, AddNode{Type: "end"})
	require.NoError(t, err)
	_, err = r.Do(ctx, Connect{From: model.PinRef{Node: start, Pin: 0}, To: model.PinRef{Node: seq, Pin: 0}})
	require.NoError(t, err)
	_, err = r.Do(ctx, Connect{From: model.PinRef{Node: seq, Pin: 3}, To: model.PinRef{Node: end.Node, Pin: 0}})
	require.NoError(t, err)

	// shrinking the sequence drops the connection on its third output
	res, err = r.Do(ctx, ApplyNodeEdit{Node: seq, Settings: model.Settings{"outputs": 1}})
	require.NoError(t, err)
	require.Equal(t, 1, res.Dropped)

	res, err = r.Do(ctx, TakeSnapshot{})
	require.NoError(t, err)
	require.Len(t, res.Snapshot.Graph.Connections(), 1)
	require.Len(t, res.Snapshot.Graph.MustNode(seq).Pins(), 2)
}

func TestUpdateSettingsCommandDropsStaleConnections(t *testing.T) {
	reg := testRegistry(t)
	g := model.NewGraph("g", reg)
	seq, err := g.AddNode("sequence", model.Vector2{}, model.Settings{"outputs": 3})
	require.NoError(t, err)
	end, err := g.AddNode("end", model.Vector2{}, nil)
	require.NoError(t, err)
	require.NoError(t, g.Connect(model.PinRef{Node: seq, Pin: 3}, model.PinRef{Node: end, Pin: 0}))
	r := NewRunner(NewInstance("i", g, reg, plugin.Deps{}))
	startRunner(t, r)
	ctx := context.Background()

	res, err := r.Do(ctx, UpdateSettings{Node: seq, Settings: model.Settings{"outputs": 1}})
	require.NoError(t, err)
	require.Equal(t, 1, res.Dropped)

	res, err = r.Do(ctx, TakeSnapshot{})
	require.NoError(t, err)
	require.Empty(t, res.Snapshot.Graph.Connections())
}

func TestDeleteCommandRejectsMandatoryNode(t *testing.T) {
	reg := testRegistry(t)
	g := model.NewGraph("g", reg)
	start, err := g.AddNode("start", model.Vector2{}, nil)
	require.NoError(t, err)
	r := NewRunner(NewInstance("i", g, reg, plugin.Deps{}))
	startRunner(t, r)

	_, err = r.Do(context.Background(), DeleteNode{Node: start})
	require.ErrorIs(t, err, model.ErrNodeNotDeletable)
}

func TestPostAfterStopFails(t *testing.T) {
	reg := testRegistry(t)
	r := NewRunner(NewInstance("i", model.NewGraph("g", reg), reg, plugin.Deps{}))
	ctx, cancel := context.WithCancel(context.Background())
	go r.Run(ctx)
	cancel()
	<-r.Done()

	res := <-r.Post(TakeSnapshot{})
	require.ErrorIs(t, res.Err, ErrRunnerStopped)
}

func TestDoHonorsContext(t *testing.T) {
	reg := testRegistry(t)
	r := NewRunner(NewInstance("i", model.NewGraph("g", reg), reg, plugin.Deps{}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Do(ctx, TakeSnapshot{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunnerTicksOnItsOwn(t *testing.T) {
	reg := testRegistry(t)
	b := newGraph(t, reg)
	start := b.add("start", nil)
	delay := b.add("delay", model.Settings{"duration": 3})
	b.link(start, 0, delay, 0)

	var mu sync.Mutex
	clock := time.Unix(0, 0)
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}
	r := NewRunner(NewInstance("i", b.g, reg, plugin.Deps{}), WithTickInterval(time.Millisecond), WithClock(now))
	startRunner(t, r)

	_, err := r.Do(context.Background(), Start{})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		res, err := r.Do(context.Background(), TakeSnapshot{})
		return err == nil && res.Snapshot.Status == StatusFinished
	}, 5*time.Second, 5*time.Millisecond)
}

// Edits posted from many goroutines while the runner ticks must all land,
// and every snapshot must be a graph where connections only touch live
// nodes.
func TestConcurrentEditsAgainstTickingRunner(t *testing.T) {
	reg := testRegistry(t)
	b := newGraph(t, reg)
	start := b.add("start", nil)
	hub := b.add("sequence", model.Settings{"outputs": 16})
	b.link(start, 0, hub, 0)

	r := NewRunner(NewInstance("i", b.g, reg, plugin.Deps{}), WithTickInterval(time.Millisecond))
	startRunner(t, r)
	ctx := context.Background()
	_, err := r.Do(ctx, Start{})
	require.NoError(t, err)

	const workers = 8
	kept := make([]model.NodeID, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for k := 0; k < 20; k++ {
				res, err := r.Do(ctx, AddNode{Type: "delay", Settings: model.Settings{"duration": 100}})
				if !assertNoError(t, err) {
					return
				}
				id := res.Node
				if _, err := r.Do(ctx, Connect{From: model.PinRef{Node: hub, Pin: 1 + w}, To: model.PinRef{Node: id, Pin: 0}}); !assertNoError(t, err) {
					return
				}
				if _, err := r.Do(ctx, UpdateSettings{Node: id, Settings: model.Settings{"duration": fmt.Sprint(k)}}); !assertNoError(t, err) {
					return
				}
				if k < 19 {
					if _, err := r.Do(ctx, DeleteNode{Node: id}); !assertNoError(t, err) {
						return
					}
					continue
				}
				kept[w] = id
			}
		}(w)
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
		}
		res, err := r.Do(ctx, TakeSnapshot{})
		require.NoError(t, err)
		g := res.Snapshot.Graph
		for _, c := range g.Connections() {
			_, okFrom := g.Node(c.From.Node)
			_, okTo := g.Node(c.To.Node)
			require.True(t, okFrom && okTo, "connection %v touches a deleted node", c)
		}
	}

	res, err := r.Do(ctx, TakeSnapshot{})
	require.NoError(t, err)
	g := res.Snapshot.Graph
	require.Equal(t, 2+workers, g.Len())
	for _, id := range kept {
		n, ok := g.Node(id)
		require.True(t, ok)
		require.Equal(t, "19", confignode.AsString(n.Settings()["duration"], ""))
	}
	require.Len(t, g.Connections(), 1+workers)
}

func assertNoError(t *testing.T, err error) bool {
	if err != nil {
		t.Errorf("unexpected error: %v", err)
		return false
	}
	return true
}
