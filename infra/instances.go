package infra

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Tsinling0525/scriptflow/engine"
	"github.com/Tsinling0525/scriptflow/format/graphdoc"
	"github.com/Tsinling0525/scriptflow/model"
	"github.com/Tsinling0525/scriptflow/plugin"
)

var ErrInstanceNotFound = errors.New("instance not found")

// Instance is a graph instance managed by an InstanceManager, with the
// runner that owns it.
type Instance struct {
	ID        string
	Name      string
	CreatedAt time.Time
	// Entity is the default entity the instance is bound to, if any.
	Entity *model.EntityID
	// Report lists what could not be restored when the graph was loaded.
	Report graphdoc.Report

	runner *engine.Runner
	cancel context.CancelFunc
	logs   *logRing
}

func (i *Instance) Runner() *engine.Runner { return i.runner }

// InstanceManager runs graph instances, one runner goroutine each, and
// routes entity messages to the instances bound to their target.
type InstanceManager struct {
	mu    sync.Mutex
	items map[string]*Instance

	reg      *plugin.Registry
	state    *MemState
	entities *Entities
	cfg      Config
	log      *zap.Logger
	newID    func() string
}

func NewInstanceManager(reg *plugin.Registry, cfg Config, log *zap.Logger) *InstanceManager {
	if log == nil {
		log = zap.NewNop()
	}
	m := &InstanceManager{
		items:    make(map[string]*Instance),
		reg:      reg,
		state:    NewMemState(),
		entities: NewEntities(),
		cfg:      cfg,
		log:      log,
		newID:    uuid.NewString,
	}
	m.entities.OnMessage(m.route)
	return m
}

func (m *InstanceManager) Registry() *plugin.Registry { return m.reg }
func (m *InstanceManager) Entities() *Entities        { return m.entities }
func (m *InstanceManager) State() *MemState           { return m.state }

// Create builds a graph from doc and starts running it.
func (m *InstanceManager) Create(doc graphdoc.Document) (*Instance, error) {
	g, rep, err := graphdoc.Build(doc, m.reg)
	if err != nil {
		return nil, err
	}
	id := m.newID()
	ring := newLogRing(m.cfg.MaxLogs)
	log := teeToRing(m.log, ring).With(zap.String("graph", doc.Name))
	for _, t := range rep.UnknownTypes {
		log.Warn("unknown node type kept without pins", zap.String("type", t))
	}
	for _, d := range rep.Dropped {
		log.Warn("dropped while loading", zap.String("what", d.What), zap.String("reason", d.Reason))
	}

	inst := engine.NewInstance(id, g, m.reg, plugin.Deps{
		State:    m.state,
		Bus:      LogBus{Log: log},
		Entities: m.entities,
		Logger:   log,
	})
	rec := &Instance{
		ID:        id,
		Name:      doc.Name,
		CreatedAt: time.Now(),
		Report:    rep,
		logs:      ring,
	}
	if doc.Entity != nil {
		e := model.EntityID(*doc.Entity)
		inst.BindEntity(e)
		rec.Entity = &e
	}

	opts := []engine.RunnerOption{engine.WithLogger(log)}
	if m.cfg.Tick > 0 {
		opts = append(opts, engine.WithTickInterval(m.cfg.Tick))
	}
	rec.runner = engine.NewRunner(inst, opts...)
	ctx, cancel := context.WithCancel(context.Background())
	rec.cancel = cancel
	go rec.runner.Run(ctx)

	if _, err := rec.runner.Do(ctx, engine.Start{}); err != nil {
		cancel()
		<-rec.runner.Done()
		return nil, err
	}
	log.Info("instance started", zap.String("instance", id))

	m.mu.Lock()
	m.items[id] = rec
	m.mu.Unlock()
	return rec, nil
}

func (m *InstanceManager) Get(id string) (*Instance, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[id]
	return v, ok
}

func (m *InstanceManager) lookup(id string) (*Instance, error) {
	inst, ok := m.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInstanceNotFound, id)
	}
	return inst, nil
}

// List returns the instances oldest first.
func (m *InstanceManager) List() []*Instance {
	m.mu.Lock()
	out := make([]*Instance, 0, len(m.items))
	for _, v := range m.items {
		out = append(out, v)
	}
	m.mu.Unlock()
	sort.Slice(out, func(a, b int) bool {
		if out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].ID < out[b].ID
		}
		return out[a].CreatedAt.Before(out[b].CreatedAt)
	})
	return out
}

// Post queues cmd on the instance's runner.
func (m *InstanceManager) Post(id string, cmd engine.Command) (<-chan engine.Result, error) {
	inst, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	return inst.runner.Post(cmd), nil
}

// Do posts cmd and waits for its result.
func (m *InstanceManager) Do(ctx context.Context, id string, cmd engine.Command) (engine.Result, error) {
	inst, err := m.lookup(id)
	if err != nil {
		return engine.Result{}, err
	}
	return inst.runner.Do(ctx, cmd)
}

// Stop halts the instance's runner and forgets it.
func (m *InstanceManager) Stop(id string) error {
	m.mu.Lock()
	inst, ok := m.items[id]
	delete(m.items, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrInstanceNotFound, id)
	}
	inst.cancel()
	<-inst.runner.Done()
	m.state.Forget(id)
	m.log.Info("instance stopped", zap.String("instance", id))
	return nil
}

// Close stops every instance.
func (m *InstanceManager) Close() {
	for _, inst := range m.List() {
		_ = m.Stop(inst.ID)
	}
}

func (m *InstanceManager) Logs(id string) ([]string, error) {
	inst, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	return inst.logs.Lines(), nil
}

// route hands a message sent to an entity to every instance bound to it.
func (m *InstanceManager) route(msg EntityMessage) {
	delivered := 0
	for _, inst := range m.List() {
		if inst.Entity == nil || *inst.Entity != msg.Target {
			continue
		}
		inst.runner.Post(engine.Deliver{Message: msg.Message})
		delivered++
	}
	m.log.Debug("entity message routed",
		zap.Uint64("entity", uint64(msg.Target)),
		zap.Stringer("message", msg.Message),
		zap.Int("instances", delivered))
}

// Run flushes entity messages every tick until ctx is done.
func (m *InstanceManager) Run(ctx context.Context) {
	interval := m.cfg.Tick
	if interval <= 0 {
		interval = DefaultConfig().Tick
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.entities.Flush()
		}
	}
}
