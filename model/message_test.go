package model

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Tsinling0525/scriptflow/format/confignode"
	"github.com/Tsinling0525/scriptflow/format/wire"
)

func TestScriptMessageTypeBinaryRoundTrip(t *testing.T) {
	for _, in := range []ScriptMessageType{
		{},
		{Script: "door", Message: "open", NParams: 0},
		{Script: "enemies/boss", Message: "hit", NParams: 3},
		{Script: "ünïcode", Message: "x", NParams: -7},
	} {
		b, err := wire.Marshal(in)
		require.NoError(t, err)

		var out ScriptMessageType
		require.NoError(t, wire.Unmarshal(b, &out))
		require.Equal(t, in, out)
	}
}

func TestScriptMessageTypeConfigRoundTrip(t *testing.T) {
	in := ScriptMessageType{Script: "door", Message: "open", NParams: 2}
	cfg := in.ToConfig()
	require.Equal(t, []string{"script", "message", "nParams"}, cfg.Keys())
	require.Equal(t, in, ParseScriptMessageType(cfg))

	// Through an actual YAML document too.
	b, err := confignode.Encode(cfg)
	require.NoError(t, err)
	require.Equal(t, "script: door\nmessage: open\nnParams: 2\n", string(b))
	v, err := confignode.Decode(b)
	require.NoError(t, err)
	require.Equal(t, in, ParseScriptMessageType(v))
}

func TestParseScriptMessageTypeLenient(t *testing.T) {
	for _, v := range []any{nil, "door", 42, []any{"a", "b"}} {
		require.Equal(t, ScriptMessageType{}, ParseScriptMessageType(v))
	}
	got := ParseScriptMessageType(map[string]any{"message": "open", "nParams": "oops"})
	require.Equal(t, ScriptMessageType{Message: "open"}, got)
}

func TestScriptMessage(t *testing.T) {
	msg := ParseScriptMessage(map[string]any{
		"type":   map[string]any{"script": "door", "message": "open", "nParams": 2},
		"params": []any{"fast", 3},
	})
	require.Equal(t, ScriptMessageType{Script: "door", Message: "open", NParams: 2}, msg.Type)
	require.Equal(t, "open(fast, 3)", msg.String())

	cfg := msg.ToConfig()
	require.Equal(t, []string{"type", "params"}, cfg.Keys())
	require.Equal(t, msg, ParseScriptMessage(cfg))

	// params are not validated against nParams
	short := ParseScriptMessage(map[string]any{"type": map[string]any{"message": "go", "nParams": 5}})
	require.Nil(t, short.Params)
	require.Equal(t, "go()", short.String())
}

func TestScriptMessageBinaryRoundTrip(t *testing.T) {
	in := ScriptMessage{
		Type:   ScriptMessageType{Script: "s", Message: "m", NParams: 2},
		Params: []any{"a", 1.5, map[string]any{"k": true}},
	}
	b, err := wire.Marshal(in)
	require.NoError(t, err)

	var out ScriptMessage
	require.NoError(t, wire.Unmarshal(b, &out))
	require.Equal(t, in, out)
}

func TestScriptMessageCloneIsIndependent(t *testing.T) {
	params := map[string]any{"n": 1}
	msg := ScriptMessage{Type: ScriptMessageType{Message: "m"}, Params: params}
	c := msg.Clone()
	params["n"] = 2
	require.Equal(t, 1, c.Params.(map[string]any)["n"])
}

func TestScriptEntityMessageType(t *testing.T) {
	in := ScriptEntityMessageType{Message: "move", Members: []string{"x", "y"}}
	cfg := in.ToConfig()
	require.Equal(t, []string{"message", "members"}, cfg.Keys())
	require.Equal(t, in, ParseScriptEntityMessageType(cfg))
	require.Equal(t, ScriptEntityMessageType{}, ParseScriptEntityMessageType("move"))
}
