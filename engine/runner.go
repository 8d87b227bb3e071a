package engine

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

var ErrRunnerStopped = errors.New("runner stopped")

type RunnerOption func(*Runner)

// WithTickInterval makes the runner tick the instance on its own every d.
// Without it the instance only advances on posted Tick commands.
func WithTickInterval(d time.Duration) RunnerOption {
	return func(r *Runner) { r.interval = d }
}

// WithClock replaces time.Now for measuring tick deltas.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

func WithLogger(l *zap.Logger) RunnerOption {
	return func(r *Runner) { r.log = l }
}

// Runner is the execution queue of one instance. A single goroutine (Run)
// owns the instance: it drains posted commands in FIFO order and ticks in
// between, so no command ever observes a half-finished tick and no tick
// observes a half-applied command.
type Runner struct {
	inst     *Instance
	q        *queue
	interval time.Duration
	now      func() time.Time
	log      *zap.Logger
	done     chan struct{}
}

func NewRunner(inst *Instance, opts ...RunnerOption) *Runner {
	r := &Runner{
		inst: inst,
		q:    newQueue(),
		now:  time.Now,
		log:  zap.NewNop(),
		done: make(chan struct{}),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Runner) ID() string { return r.inst.ID() }

// Post queues cmd and returns a channel that receives its result once it
// has been applied. Post never blocks; callers that do not care about the
// outcome may drop the channel.
func (r *Runner) Post(cmd Command) <-chan Result {
	ch := make(chan Result, 1)
	owned := cmd.own()
	ok := r.q.Push(func(inst *Instance, err error) {
		if err != nil {
			ch <- Result{Err: err}
			return
		}
		ch <- owned.apply(inst)
	})
	if !ok {
		ch <- Result{Err: ErrRunnerStopped}
	}
	return ch
}

// Do posts cmd and waits for its result.
func (r *Runner) Do(ctx context.Context, cmd Command) (Result, error) {
	select {
	case res := <-r.Post(cmd):
		return res, res.Err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Done is closed when Run has returned.
func (r *Runner) Done() <-chan struct{} { return r.done }

// Run owns the instance until ctx is cancelled. Commands still queued at
// that point fail with ErrRunnerStopped.
func (r *Runner) Run(ctx context.Context) {
	defer close(r.done)
	defer func() {
		for _, j := range r.q.Close() {
			j(nil, ErrRunnerStopped)
		}
	}()

	var tick <-chan time.Time
	if r.interval > 0 {
		t := time.NewTicker(r.interval)
		defer t.Stop()
		tick = t.C
	}
	last := r.now()
	r.log.Debug("runner started", zap.String("instance", r.inst.ID()), zap.Duration("interval", r.interval))

	for {
		select {
		case <-ctx.Done():
			r.log.Debug("runner stopped", zap.String("instance", r.inst.ID()))
			return
		case <-r.q.Ready():
			r.drain()
		case <-tick:
			now := r.now()
			r.inst.Tick(now.Sub(last))
			last = now
		}
	}
}

func (r *Runner) drain() {
	for {
		j, ok := r.q.Pop()
		if !ok {
			return
		}
		j(r.inst, nil)
	}
}
