package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type pair struct {
	Name  string
	Count int64
}

func (p pair) Serialize(s *Serializer) error {
	s.WriteString(p.Name)
	s.WriteInt(p.Count)
	return nil
}

func (p *pair) Deserialize(d *Deserializer) error {
	var err error
	if p.Name, err = d.ReadString(); err != nil {
		return err
	}
	p.Count, err = d.ReadInt()
	return err
}

// swapped reads the same fields in the opposite order.
type swapped struct {
	Count int64
	Name  string
}

func (p *swapped) Deserialize(d *Deserializer) error {
	var err error
	if p.Count, err = d.ReadInt(); err != nil {
		return err
	}
	p.Name, err = d.ReadString()
	return err
}

func TestRoundTrip(t *testing.T) {
	b, err := Marshal(pair{Name: "x", Count: -12})
	require.NoError(t, err)

	var out pair
	require.NoError(t, Unmarshal(b, &out))
	require.Equal(t, pair{Name: "x", Count: -12}, out)
}

func TestFieldOrderIsEnforced(t *testing.T) {
	b, err := Marshal(pair{Name: "x", Count: 1})
	require.NoError(t, err)

	var out swapped
	require.ErrorIs(t, Unmarshal(b, &out), ErrWireType)
}

func TestMissingFieldIsTruncated(t *testing.T) {
	s := NewSerializer()
	s.WriteString("only")

	var out pair
	require.ErrorIs(t, Unmarshal(s.Bytes(), &out), ErrTruncated)
}

func TestSkippedFieldIsOutOfOrder(t *testing.T) {
	s := NewSerializer()
	s.WriteString("a")
	s.WriteString("b")
	s.WriteInt(3)

	d := NewDeserializer(s.Bytes())
	_, err := d.ReadString()
	require.NoError(t, err)
	d.next++ // pretend the reader expects a field the writer never produced
	_, err = d.ReadString()
	require.ErrorIs(t, err, ErrFieldOrder)
}

func TestValue(t *testing.T) {
	s := NewSerializer()
	require.NoError(t, s.WriteValue(map[string]any{"names": []string{"a", "b"}, "n": 2, "ok": true, "nil": nil}))

	v, err := NewDeserializer(s.Bytes()).ReadValue()
	require.NoError(t, err)
	require.Equal(t, map[string]any{"names": []any{"a", "b"}, "n": 2.0, "ok": true, "nil": nil}, v)
}

func TestObject(t *testing.T) {
	s := NewSerializer()
	require.NoError(t, s.WriteObject(pair{Name: "inner", Count: 5}))
	s.WriteString("after")

	d := NewDeserializer(s.Bytes())
	var p pair
	require.NoError(t, d.ReadObject(&p))
	after, err := d.ReadString()
	require.NoError(t, err)
	require.Equal(t, pair{Name: "inner", Count: 5}, p)
	require.Equal(t, "after", after)
	require.Zero(t, d.Remaining())
}
