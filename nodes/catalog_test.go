package nodes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Tsinling0525/scriptflow/model"
	"github.com/Tsinling0525/scriptflow/plugin"
)

func TestRegistryHoldsCatalog(t *testing.T) {
	r, err := Registry()
	require.NoError(t, err)

	ids := []string{
		"start", "end", "branch", "sequence", "loop", "waitUntil",
		"delay", "tween",
		"sendMessage", "setMembers", "waitMessage", "member",
		"literal", "compare",
		"log", "abort",
	}
	require.Equal(t, len(ids), r.Len())
	for _, id := range ids {
		nt, ok := r.TryGet(id)
		require.True(t, ok, id)
		require.Equal(t, id, nt.ID())
		require.NotEmpty(t, nt.Name())
	}
}

func TestCatalogCapabilities(t *testing.T) {
	r, err := Registry()
	require.NoError(t, err)
	for _, nt := range r.Types() {
		_, updates := nt.(plugin.Updater)
		_, evaluates := nt.(plugin.Evaluator)
		if nt.Classification() == model.Variable {
			require.True(t, evaluates, nt.ID())
		} else {
			require.True(t, updates, nt.ID())
		}
	}
}

func TestCatalogPinsInputsFirst(t *testing.T) {
	r, err := Registry()
	require.NoError(t, err)
	for _, nt := range r.Types() {
		pins := nt.Pins(plugin.DefaultSettings(nt))
		seenOutput := false
		for _, p := range pins {
			if p.Direction == model.PinOutput {
				seenOutput = true
			} else {
				require.False(t, seenOutput, "%s declares an input after an output", nt.ID())
			}
		}
	}
}

func TestDuplicateRegistrationFails(t *testing.T) {
	b := RegisterAll(plugin.NewBuilder())
	RegisterAll(b)
	_, err := b.Build()
	require.Error(t, err)
}
