package flow

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Tsinling0525/scriptflow/model"
	"github.com/Tsinling0525/scriptflow/plugin"
	"github.com/Tsinling0525/scriptflow/plugin/plugintest"
)

func registry(t *testing.T) *plugin.Registry {
	t.Helper()
	b := plugin.NewBuilder()
	Register(b)
	r, err := b.Build()
	require.NoError(t, err)
	return r
}

func TestTerminatorsCannotBeDeleted(t *testing.T) {
	r := registry(t)
	for _, id := range []string{"start", "end"} {
		nt := r.Get(id)
		require.Equal(t, model.Terminator, nt.Classification())
		require.False(t, nt.CanDelete(), id)
	}
	require.True(t, r.Get("branch").CanDelete())
}

func TestBranchFollowsCondition(t *testing.T) {
	ctx := plugintest.New(nil)
	ctx.Data[BranchCond] = true
	require.Equal(t, plugin.Done(BranchTrue), Branch{}.Update(ctx))

	ctx.Data[BranchCond] = 0
	require.Equal(t, plugin.Done(BranchFalse), Branch{}.Update(ctx))

	delete(ctx.Data, BranchCond)
	require.Equal(t, plugin.Done(BranchFalse), Branch{}.Update(ctx))
}

func TestSequencePinsFollowSettings(t *testing.T) {
	r := registry(t)
	pins, ok := r.ResolvePins("sequence", model.Settings{"outputs": 4})
	require.True(t, ok)
	require.Len(t, pins, 5)
	require.Equal(t, model.FlowIn, pins[0])
	for _, p := range pins[1:] {
		require.Equal(t, model.FlowOut, p)
	}

	require.Len(t, Sequence{}.Pins(model.Settings{"outputs": 100}), MaxSequenceOutputs+1)
	require.Len(t, Sequence{}.Pins(model.Settings{"outputs": -3}), 2)
	require.Len(t, Sequence{}.Pins(nil), defaultSequenceOutputs+1)
}

func TestSequenceFollowsEveryOutput(t *testing.T) {
	ctx := plugintest.New(model.Settings{"outputs": 3})
	require.Equal(t, plugin.Done(1, 2, 3), Sequence{}.Update(ctx))
}

func TestLoopCountsInMemory(t *testing.T) {
	ctx := plugintest.New(model.Settings{"count": 2})
	require.Equal(t, plugin.Done(LoopBody), Loop{}.Update(ctx))
	require.Equal(t, plugin.Done(LoopBody), Loop{}.Update(ctx))
	require.Equal(t, plugin.Done(LoopDone), Loop{}.Update(ctx))
	// rearmed
	require.Equal(t, plugin.Done(LoopBody), Loop{}.Update(ctx))
}

func TestWaitUntilRestartsUntilTrue(t *testing.T) {
	ctx := plugintest.New(nil)
	require.Equal(t, model.Restart, WaitUntil{}.Update(ctx).State)
	ctx.Data[WaitCond] = "false"
	require.Equal(t, model.Restart, WaitUntil{}.Update(ctx).State)
	ctx.Data[WaitCond] = "true"
	require.Equal(t, plugin.Done(WaitOut), WaitUntil{}.Update(ctx))
}
