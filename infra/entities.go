package infra

import (
	"errors"
	"fmt"
	"sync"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"

	"github.com/Tsinling0525/scriptflow/format/confignode"
	"github.com/Tsinling0525/scriptflow/model"
	"github.com/Tsinling0525/scriptflow/plugin"
)

var ErrNoEntity = errors.New("entity not found")

// MemberData is the component holding an entity's script-visible members.
type MemberData struct {
	Name   string
	Values map[string]any
}

var Members = donburi.NewComponentType[MemberData]()

// EntityMessage is a script message addressed to an entity.
type EntityMessage struct {
	Target  model.EntityID
	Message model.ScriptMessage
}

// MessageEventType carries messages sent by graphs. They are queued in the
// world until Flush.
var MessageEventType = events.NewEventType[EntityMessage]()

// Entities is the donburi-backed entity store target pins bind into. It
// is safe for concurrent use.
type Entities struct {
	mu       sync.Mutex
	world    donburi.World
	pending  []EntityMessage
	handlers []func(EntityMessage)
}

func NewEntities() *Entities {
	e := &Entities{world: donburi.NewWorld()}
	MessageEventType.Subscribe(e.world, func(_ donburi.World, msg EntityMessage) {
		e.pending = append(e.pending, msg)
	})
	return e
}

// Spawn creates an entity carrying the given members.
func (e *Entities) Spawn(name string, members map[string]any) model.EntityID {
	e.mu.Lock()
	defer e.mu.Unlock()
	ent := e.world.Create(Members)
	Members.SetValue(e.world.Entry(ent), MemberData{Name: name, Values: confignode.CloneMap(members)})
	return model.EntityID(ent)
}

func (e *Entities) Despawn(id model.EntityID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	ent := donburi.Entity(id)
	if !e.world.Valid(ent) {
		return false
	}
	e.world.Remove(ent)
	return true
}

func (e *Entities) Exists(id model.EntityID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.world.Valid(donburi.Entity(id))
}

// data must be called with mu held.
func (e *Entities) data(id model.EntityID) (*MemberData, error) {
	ent := donburi.Entity(id)
	if !e.world.Valid(ent) {
		return nil, fmt.Errorf("%w: %d", ErrNoEntity, id)
	}
	entry := e.world.Entry(ent)
	if !entry.HasComponent(Members) {
		return nil, fmt.Errorf("%w: %d has no members", ErrNoEntity, id)
	}
	return Members.Get(entry), nil
}

func (e *Entities) SetMember(target model.EntityID, member string, value any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, err := e.data(target)
	if err != nil {
		return err
	}
	if d.Values == nil {
		d.Values = map[string]any{}
	}
	d.Values[member] = confignode.Clone(value)
	return nil
}

func (e *Entities) Member(target model.EntityID, member string) (any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, err := e.data(target)
	if err != nil {
		return nil, false
	}
	v, ok := d.Values[member]
	return confignode.Clone(v), ok
}

// Snapshot returns the entity's name and a copy of its members.
func (e *Entities) Snapshot(id model.EntityID) (string, map[string]any, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, err := e.data(id)
	if err != nil {
		return "", nil, err
	}
	return d.Name, confignode.CloneMap(d.Values), nil
}

// SendMessage queues msg for the target. Handlers see it on the next Flush.
func (e *Entities) SendMessage(target model.EntityID, msg model.ScriptMessage) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.world.Valid(donburi.Entity(target)) {
		return fmt.Errorf("%w: %d", ErrNoEntity, target)
	}
	MessageEventType.Publish(e.world, EntityMessage{Target: target, Message: msg.Clone()})
	return nil
}

// OnMessage registers fn to receive flushed messages.
func (e *Entities) OnMessage(fn func(EntityMessage)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, fn)
}

// Flush processes queued messages and hands them to the handlers outside
// the lock, so handlers may use the store. It returns how many messages
// were dispatched.
func (e *Entities) Flush() int {
	e.mu.Lock()
	MessageEventType.ProcessEvents(e.world)
	batch := e.pending
	e.pending = nil
	handlers := append([]func(EntityMessage){}, e.handlers...)
	e.mu.Unlock()

	for _, msg := range batch {
		for _, h := range handlers {
			h(msg)
		}
	}
	return len(batch)
}

var _ plugin.EntityStore = (*Entities)(nil)
