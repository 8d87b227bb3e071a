package infra

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Tsinling0525/scriptflow/model"
)

func TestEntitiesMembers(t *testing.T) {
	es := NewEntities()
	id := es.Spawn("door", map[string]any{"open": false})
	require.True(t, es.Exists(id))

	v, ok := es.Member(id, "open")
	require.True(t, ok)
	require.Equal(t, false, v)

	require.NoError(t, es.SetMember(id, "angle", []any{1.5}))
	v, _ = es.Member(id, "angle")
	v.([]any)[0] = 9.0
	name, members, err := es.Snapshot(id)
	require.NoError(t, err)
	require.Equal(t, "door", name)
	require.Equal(t, []any{1.5}, members["angle"])

	require.True(t, es.Despawn(id))
	require.False(t, es.Exists(id))
	require.False(t, es.Despawn(id))
	err = es.SetMember(id, "open", true)
	require.True(t, errors.Is(err, ErrNoEntity))
}

func TestEntitiesMessagesWaitForFlush(t *testing.T) {
	es := NewEntities()
	id := es.Spawn("npc", nil)

	var got []EntityMessage
	es.OnMessage(func(m EntityMessage) { got = append(got, m) })

	msg := model.ScriptMessage{Type: model.ScriptMessageType{Message: "hit"}, Params: []any{2}}
	require.NoError(t, es.SendMessage(id, msg))
	require.Empty(t, got)

	require.Equal(t, 1, es.Flush())
	require.Len(t, got, 1)
	require.Equal(t, id, got[0].Target)
	require.Equal(t, "hit(2)", got[0].Message.String())
	require.Equal(t, 0, es.Flush())

	es.Despawn(id)
	require.ErrorIs(t, es.SendMessage(id, msg), ErrNoEntity)
}
