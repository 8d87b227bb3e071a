package plugin

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Tsinling0525/scriptflow/model"
)

//go:generate mockgen -package plugin -destination entity_store_mock.go . EntityStore

// SettingType describes one field of a node type's settings schema.
type SettingType struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Default any    `json:"default"`
}

// NodeType is the registered descriptor of a class of nodes. Behavior is
// added through the Updater and Evaluator capabilities.
type NodeType interface {
	ID() string
	Name() string
	Classification() model.Classification
	SettingTypes() []SettingType
	// CanDelete is false for mandatory nodes such as start and end.
	CanDelete() bool
	// Pins returns the pin layout for the given settings, inputs first and
	// then outputs, each in declared order.
	Pins(settings model.Settings) []model.PinType
}

// Updater is implemented by node types that run when flow reaches them.
type Updater interface {
	Update(ctx Context) Result
}

// Evaluator is implemented by node types that produce values on data
// output pins.
type Evaluator interface {
	Evaluate(ctx Context, pin int) (any, bool)
}

// Result is returned by Updater.Update. Outputs lists the flow output pin
// indices to follow and is only honored with Done.
type Result struct {
	State   model.ExecutionState
	Outputs []int
}

func Done(outputs ...int) Result { return Result{State: model.Done, Outputs: outputs} }
func Executing() Result          { return Result{State: model.Executing} }
func Restart() Result            { return Result{State: model.Restart} }
func Terminate() Result          { return Result{State: model.Terminate} }

// Context is the view a node gets of its graph instance during one update
// or evaluation. It is only valid for the duration of the call.
type Context interface {
	Node() model.NodeID
	Settings() model.Settings
	// Delta is the time elapsed since the previous tick.
	Delta() time.Duration
	// Scratch is per-activation storage, cleared on a fresh activation and
	// on Restart.
	Scratch() map[string]any
	// Memory lives as long as the graph instance.
	Memory() map[string]any
	// ReadData evaluates whatever feeds the given data input pin.
	ReadData(pin int) (any, bool)
	// Target returns the entity bound to the given target pin.
	Target(pin int) (model.EntityID, bool)
	// TakeMessage removes and returns the oldest delivered message with the
	// given name.
	TakeMessage(message string) (model.ScriptMessage, bool)
	Entities() EntityStore
	Logger() *zap.Logger
}

// EntityStore is the entity/component layer target pins bind into.
type EntityStore interface {
	SendMessage(target model.EntityID, msg model.ScriptMessage) error
	SetMember(target model.EntityID, member string, value any) error
	Member(target model.EntityID, member string) (any, bool)
}

type Deps struct {
	State    StateStore
	Bus      EventBus
	Entities EntityStore
	Logger   *zap.Logger
}

type StateStore interface {
	SaveNodeState(ctx context.Context, instanceID string, nodeID model.NodeID, state map[string]any) error
	LoadNodeState(ctx context.Context, instanceID string, nodeID model.NodeID) (map[string]any, error)
}

type EventBus interface {
	Emit(ctx context.Context, event string, fields map[string]any) error
}

// Descriptor carries the static parts of a node type. Node types embed it
// and override Pins when their layout depends on settings.
type Descriptor struct {
	TypeID    string
	Label     string
	Class     model.Classification
	Settings  []SettingType
	Layout    []model.PinType
	Mandatory bool
}

func (d Descriptor) ID() string                           { return d.TypeID }
func (d Descriptor) Name() string                         { return d.Label }
func (d Descriptor) Classification() model.Classification { return d.Class }
func (d Descriptor) CanDelete() bool                      { return !d.Mandatory }

func (d Descriptor) SettingTypes() []SettingType {
	return append([]SettingType(nil), d.Settings...)
}

func (d Descriptor) Pins(model.Settings) []model.PinType {
	return append([]model.PinType(nil), d.Layout...)
}

// DefaultSettings builds a settings map from the schema defaults.
func DefaultSettings(t NodeType) model.Settings {
	s := model.Settings{}
	for _, st := range t.SettingTypes() {
		if st.Default != nil {
			s[st.Name] = st.Default
		}
	}
	return s
}
