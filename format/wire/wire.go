// Package wire is the binary snapshot/replication encoding. Values are
// written as a sequence of protobuf fields numbered in write order; a
// reader must consume them in exactly the same order, and any mismatch is
// reported as ErrFieldOrder instead of silently misreading data.
package wire

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Tsinling0525/scriptflow/format/confignode"
)

var (
	ErrFieldOrder = errors.New("wire: field out of order")
	ErrWireType   = errors.New("wire: unexpected wire type")
	ErrTruncated  = errors.New("wire: truncated input")
)

// Serializable is implemented by types that write themselves field by field.
type Serializable interface {
	Serialize(s *Serializer) error
}

type Deserializable interface {
	Deserialize(d *Deserializer) error
}

type Serializer struct {
	buf  []byte
	next protowire.Number
}

func NewSerializer() *Serializer { return &Serializer{next: 1} }

func (s *Serializer) Bytes() []byte { return s.buf }

func (s *Serializer) tag(t protowire.Type) {
	s.buf = protowire.AppendTag(s.buf, s.next, t)
	s.next++
}

func (s *Serializer) WriteString(v string) {
	s.tag(protowire.BytesType)
	s.buf = protowire.AppendString(s.buf, v)
}

func (s *Serializer) WriteBytes(v []byte) {
	s.tag(protowire.BytesType)
	s.buf = protowire.AppendBytes(s.buf, v)
}

func (s *Serializer) WriteInt(v int64) {
	s.tag(protowire.VarintType)
	s.buf = protowire.AppendVarint(s.buf, protowire.EncodeZigZag(v))
}

// WriteValue encodes a structured value as a google.protobuf.Value.
// Numbers come back as float64 on the read side.
func (s *Serializer) WriteValue(v any) error {
	pv, err := structpb.NewValue(normalize(v))
	if err != nil {
		return fmt.Errorf("wire: encode value: %w", err)
	}
	b, err := proto.MarshalOptions{Deterministic: true}.Marshal(pv)
	if err != nil {
		return fmt.Errorf("wire: encode value: %w", err)
	}
	s.WriteBytes(b)
	return nil
}

// WriteObject nests o as a length-delimited sub-record with its own field
// numbering.
func (s *Serializer) WriteObject(o Serializable) error {
	inner := NewSerializer()
	if err := o.Serialize(inner); err != nil {
		return err
	}
	s.WriteBytes(inner.Bytes())
	return nil
}

// Marshal serializes o into a standalone byte slice.
func Marshal(o Serializable) ([]byte, error) {
	s := NewSerializer()
	if err := o.Serialize(s); err != nil {
		return nil, err
	}
	return s.Bytes(), nil
}

type Deserializer struct {
	buf  []byte
	next protowire.Number
}

func NewDeserializer(b []byte) *Deserializer { return &Deserializer{buf: b, next: 1} }

// Remaining reports how many bytes have not been consumed yet.
func (d *Deserializer) Remaining() int { return len(d.buf) }

func (d *Deserializer) tag(want protowire.Type) error {
	if len(d.buf) == 0 {
		return ErrTruncated
	}
	num, typ, n := protowire.ConsumeTag(d.buf)
	if n < 0 {
		return fmt.Errorf("%w: %v", ErrTruncated, protowire.ParseError(n))
	}
	if num != d.next {
		return fmt.Errorf("%w: expected field %d, got %d", ErrFieldOrder, d.next, num)
	}
	if typ != want {
		return fmt.Errorf("%w: field %d", ErrWireType, num)
	}
	d.buf = d.buf[n:]
	d.next++
	return nil
}

func (d *Deserializer) ReadBytes() ([]byte, error) {
	if err := d.tag(protowire.BytesType); err != nil {
		return nil, err
	}
	v, n := protowire.ConsumeBytes(d.buf)
	if n < 0 {
		return nil, fmt.Errorf("%w: %v", ErrTruncated, protowire.ParseError(n))
	}
	d.buf = d.buf[n:]
	return append([]byte(nil), v...), nil
}

func (d *Deserializer) ReadString() (string, error) {
	b, err := d.ReadBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (d *Deserializer) ReadInt() (int64, error) {
	if err := d.tag(protowire.VarintType); err != nil {
		return 0, err
	}
	v, n := protowire.ConsumeVarint(d.buf)
	if n < 0 {
		return 0, fmt.Errorf("%w: %v", ErrTruncated, protowire.ParseError(n))
	}
	d.buf = d.buf[n:]
	return protowire.DecodeZigZag(v), nil
}

func (d *Deserializer) ReadValue() (any, error) {
	b, err := d.ReadBytes()
	if err != nil {
		return nil, err
	}
	var pv structpb.Value
	if err := proto.Unmarshal(b, &pv); err != nil {
		return nil, fmt.Errorf("wire: decode value: %w", err)
	}
	return pv.AsInterface(), nil
}

func (d *Deserializer) ReadObject(o Deserializable) error {
	b, err := d.ReadBytes()
	if err != nil {
		return err
	}
	return o.Deserialize(NewDeserializer(b))
}

// Unmarshal reads o from b, which must have been produced by Marshal.
func Unmarshal(b []byte, o Deserializable) error {
	return o.Deserialize(NewDeserializer(b))
}

// normalize rewrites typed slices and maps into the []any / map[string]any
// shapes structpb accepts.
func normalize(v any) any {
	if m, ok := confignode.AsMap(v); ok {
		out := make(map[string]any, len(m))
		for k, e := range m {
			out[k] = normalize(e)
		}
		return out
	}
	if seq, ok := confignode.AsSequence(v); ok {
		out := make([]any, len(seq))
		for i, e := range seq {
			out[i] = normalize(e)
		}
		return out
	}
	return v
}
