package model

import (
	"github.com/Tsinling0525/scriptflow/format/confignode"
	"github.com/Tsinling0525/scriptflow/format/wire"
)

// ScriptMessageType is a registered message kind.
type ScriptMessageType struct {
	Script  string
	Message string
	NParams int
}

// ParseScriptMessageType reads a message type from a structured value. Any
// value that is not a mapping yields the zero type; missing keys keep their
// zero values.
func ParseScriptMessageType(v any) ScriptMessageType {
	var t ScriptMessageType
	m, ok := confignode.AsMap(v)
	if !ok {
		return t
	}
	t.Script = confignode.AsString(m["script"], "")
	t.Message = confignode.AsString(m["message"], "")
	t.NParams = confignode.AsInt(m["nParams"], 0)
	return t
}

func (t ScriptMessageType) ToConfig() confignode.OrderedMap {
	return confignode.OrderedMap{
		{Key: "script", Value: t.Script},
		{Key: "message", Value: t.Message},
		{Key: "nParams", Value: t.NParams},
	}
}

// Serialize writes script, message and nParams in that order. The order is
// the wire contract.
func (t ScriptMessageType) Serialize(s *wire.Serializer) error {
	s.WriteString(t.Script)
	s.WriteString(t.Message)
	s.WriteInt(int64(t.NParams))
	return nil
}

func (t *ScriptMessageType) Deserialize(d *wire.Deserializer) error {
	var err error
	if t.Script, err = d.ReadString(); err != nil {
		return err
	}
	if t.Message, err = d.ReadString(); err != nil {
		return err
	}
	n, err := d.ReadInt()
	if err != nil {
		return err
	}
	t.NParams = int(n)
	return nil
}

// ScriptMessage is one message instance. Params is a structured value that
// is not checked against NParams here; consumers validate it.
type ScriptMessage struct {
	Type   ScriptMessageType
	Params any
}

func ParseScriptMessage(v any) ScriptMessage {
	return ScriptMessage{
		Type:   ParseScriptMessageType(confignode.Get(v, "type")),
		Params: confignode.Clone(confignode.Get(v, "params")),
	}
}

func (m ScriptMessage) ToConfig() confignode.OrderedMap {
	return confignode.OrderedMap{
		{Key: "type", Value: m.Type.ToConfig()},
		{Key: "params", Value: m.Params},
	}
}

// Clone returns a copy that shares no mutable params with m.
func (m ScriptMessage) Clone() ScriptMessage {
	return ScriptMessage{Type: m.Type, Params: confignode.Clone(m.Params)}
}

// String renders the message for logs, e.g. "hit(3, fire)".
func (m ScriptMessage) String() string {
	return m.Type.Message + "(" + confignode.String(m.Params) + ")"
}

func (m ScriptMessage) Serialize(s *wire.Serializer) error {
	if err := s.WriteObject(m.Type); err != nil {
		return err
	}
	return s.WriteValue(m.Params)
}

func (m *ScriptMessage) Deserialize(d *wire.Deserializer) error {
	if err := d.ReadObject(&m.Type); err != nil {
		return err
	}
	params, err := d.ReadValue()
	if err != nil {
		return err
	}
	m.Params = params
	return nil
}

// ScriptEntityMessageType declares a message that writes the listed entity
// members. Member resolution belongs to the entity store.
type ScriptEntityMessageType struct {
	Message string
	Members []string
}

func ParseScriptEntityMessageType(v any) ScriptEntityMessageType {
	var t ScriptEntityMessageType
	m, ok := confignode.AsMap(v)
	if !ok {
		return t
	}
	t.Message = confignode.AsString(m["message"], "")
	t.Members = confignode.AsStringSlice(m["members"], nil)
	return t
}

func (t ScriptEntityMessageType) ToConfig() confignode.OrderedMap {
	members := make([]any, len(t.Members))
	for i, mb := range t.Members {
		members[i] = mb
	}
	return confignode.OrderedMap{
		{Key: "message", Value: t.Message},
		{Key: "members", Value: members},
	}
}
