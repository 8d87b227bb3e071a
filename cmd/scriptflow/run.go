package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Tsinling0525/scriptflow/engine"
	"github.com/Tsinling0525/scriptflow/format/confignode"
	"github.com/Tsinling0525/scriptflow/format/graphdoc"
	"github.com/Tsinling0525/scriptflow/infra"
	"github.com/Tsinling0525/scriptflow/infra/api"
	"github.com/Tsinling0525/scriptflow/model"
	"github.com/Tsinling0525/scriptflow/nodes"
	"github.com/Tsinling0525/scriptflow/plugin"
)

type runOptions struct {
	File   string
	Ticks  int
	Dt     time.Duration
	Entity string
	// Events logs engine events at debug level.
	Events bool
}

func runGraphFile(w io.Writer, opts runOptions) error {
	b, err := os.ReadFile(opts.File)
	if err != nil {
		return err
	}
	doc, err := graphdoc.Decode(b)
	if err != nil {
		return err
	}
	reg, err := nodes.Registry()
	if err != nil {
		return err
	}
	log, err := infra.NewLogger(infra.LoadConfig().LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	_, err = runGraph(w, reg, log, doc, opts)
	return err
}

// runGraph drives one instance on the calling goroutine with a fixed
// delta per tick, without a runner.
func runGraph(w io.Writer, reg *plugin.Registry, log *zap.Logger, doc graphdoc.Document, opts runOptions) (engine.Snapshot, error) {
	g, rep, err := graphdoc.Build(doc, reg)
	if err != nil {
		return engine.Snapshot{}, err
	}
	for _, t := range rep.UnknownTypes {
		fmt.Fprintf(w, "warning: unknown node type %q\n", t)
	}
	for _, d := range rep.Dropped {
		fmt.Fprintf(w, "warning: dropped %s: %s\n", d.What, d.Reason)
	}

	var bus plugin.EventBus = api.NullBus{}
	if opts.Events {
		bus = infra.LogBus{Log: log}
	}
	entities := infra.NewEntities()
	// a one-shot run has no earlier state to restore
	inst := engine.NewInstance("run-"+uuid.NewString()[:8], g, reg, plugin.Deps{
		State:    api.NullState{},
		Bus:      bus,
		Entities: entities,
		Logger:   log,
	})
	switch {
	case opts.Entity != "":
		inst.BindEntity(entities.Spawn(opts.Entity, nil))
	case doc.Entity != nil:
		inst.BindEntity(model.EntityID(*doc.Entity))
	}
	entities.OnMessage(func(m infra.EntityMessage) {
		if e, ok := inst.Entity(); ok && e == m.Target {
			inst.Deliver(m.Message)
		}
	})

	if err := inst.Start(); err != nil {
		return engine.Snapshot{}, err
	}
	for n := 0; n < opts.Ticks && inst.Status() == engine.StatusRunning; n++ {
		inst.Tick(opts.Dt)
		entities.Flush()
	}

	snap := inst.Snapshot()
	fmt.Fprintf(w, "%s: %s after %d ticks\n", doc.Name, snap.Status, snap.Tick)
	for _, id := range snap.Graph.NodeIDs() {
		fmt.Fprintf(w, "  node %d %-12s %s\n", id, snap.Graph.MustNode(id).Type, snap.Nodes[id])
	}
	if e, ok := inst.Entity(); ok {
		if name, members, err := entities.Snapshot(e); err == nil {
			keys := make([]string, 0, len(members))
			for k := range members {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(w, "entity %d %s\n", e, name)
			for _, k := range keys {
				fmt.Fprintf(w, "  %s = %s\n", k, confignode.String(members[k]))
			}
		}
	}
	return snap, nil
}

func listTypes(w io.Writer) error {
	reg, err := nodes.Registry()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(reg.Describe())
}
