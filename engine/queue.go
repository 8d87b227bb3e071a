package engine

import "sync"

// job runs against the instance, or is told why it never will.
type job func(inst *Instance, err error)

// queue is an unbounded FIFO of jobs with a wake-up signal for the single
// consumer. Pushing never blocks.
type queue struct {
	mu     sync.Mutex
	q      []job
	ready  chan struct{}
	closed bool
}

func newQueue() *queue { return &queue{ready: make(chan struct{}, 1)} }

// Push appends j. It returns false once the queue is closed.
func (mq *queue) Push(j job) bool {
	mq.mu.Lock()
	if mq.closed {
		mq.mu.Unlock()
		return false
	}
	mq.q = append(mq.q, j)
	mq.mu.Unlock()
	select {
	case mq.ready <- struct{}{}:
	default:
	}
	return true
}

func (mq *queue) Pop() (job, bool) {
	mq.mu.Lock()
	defer mq.mu.Unlock()
	if len(mq.q) == 0 {
		return nil, false
	}
	j := mq.q[0]
	mq.q[0] = nil
	mq.q = mq.q[1:]
	return j, true
}

func (mq *queue) Len() int {
	mq.mu.Lock()
	defer mq.mu.Unlock()
	return len(mq.q)
}

// Ready fires at least once after every Push.
func (mq *queue) Ready() <-chan struct{} { return mq.ready }

// Close rejects further pushes and hands back what was still pending.
func (mq *queue) Close() []job {
	mq.mu.Lock()
	defer mq.mu.Unlock()
	mq.closed = true
	rest := mq.q
	mq.q = nil
	return rest
}
