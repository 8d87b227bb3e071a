package plugin

import (
	"fmt"

	"github.com/Tsinling0525/scriptflow/model"
)

// Builder collects node types before the registry is frozen.
type Builder struct {
	types map[string]NodeType
	order []string
	err   error
}

func NewBuilder() *Builder { return &Builder{types: map[string]NodeType{}} }

// Register adds t. Registering the same id twice makes Build fail.
func (b *Builder) Register(t NodeType) *Builder {
	if b.err != nil {
		return b
	}
	if t.ID() == "" {
		b.err = fmt.Errorf("node type with empty id")
		return b
	}
	if _, dup := b.types[t.ID()]; dup {
		b.err = fmt.Errorf("node type %q registered twice", t.ID())
		return b
	}
	b.types[t.ID()] = t
	b.order = append(b.order, t.ID())
	return b
}

// Build freezes the collected types. The builder must not be reused.
func (b *Builder) Build() (*Registry, error) {
	if b.err != nil {
		return nil, b.err
	}
	r := &Registry{types: b.types, order: b.order}
	b.types, b.order = nil, nil
	return r, nil
}

// Registry is the immutable lookup from type id to node type. It is safe
// for concurrent reads.
type Registry struct {
	types map[string]NodeType
	order []string
}

// Get returns the node type with the given id and panics when it is not
// registered. Use TryGet when the id comes from untrusted data.
func (r *Registry) Get(id string) NodeType {
	t, ok := r.types[id]
	if !ok {
		panic(fmt.Sprintf("node type %q not registered", id))
	}
	return t
}

func (r *Registry) TryGet(id string) (NodeType, bool) {
	t, ok := r.types[id]
	return t, ok
}

func (r *Registry) Len() int { return len(r.order) }

// Types lists node types in registration order.
func (r *Registry) Types() []NodeType {
	out := make([]NodeType, len(r.order))
	for i, id := range r.order {
		out[i] = r.types[id]
	}
	return out
}

// ResolvePins implements model.PinResolver.
func (r *Registry) ResolvePins(typeID string, settings model.Settings) ([]model.PinType, bool) {
	t, ok := r.types[typeID]
	if !ok {
		return nil, false
	}
	return t.Pins(settings), true
}

// PinDescription is a pin as shown to the editor.
type PinDescription struct {
	Type      string `json:"type"`
	Direction string `json:"direction"`
	Side      string `json:"side"`
}

// Description is everything the editor needs to render a node type.
type Description struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Classification string           `json:"classification"`
	Settings       []SettingType    `json:"settings"`
	Pins           []PinDescription `json:"pins"`
	CanDelete      bool             `json:"canDelete"`
}

func Describe(t NodeType) Description {
	pins := t.Pins(DefaultSettings(t))
	d := Description{
		ID:             t.ID(),
		Name:           t.Name(),
		Classification: t.Classification().String(),
		Settings:       t.SettingTypes(),
		Pins:           make([]PinDescription, len(pins)),
		CanDelete:      t.CanDelete(),
	}
	for i, p := range pins {
		d.Pins[i] = PinDescription{Type: p.Type.String(), Direction: p.Direction.String(), Side: p.Side().String()}
	}
	return d
}

// Describe returns descriptions of all types in registration order.
func (r *Registry) Describe() []Description {
	out := make([]Description, 0, len(r.order))
	for _, t := range r.Types() {
		out = append(out, Describe(t))
	}
	return out
}

var _ model.PinResolver = (*Registry)(nil)
