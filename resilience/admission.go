package resilience

import (
	"context"
	"sync"
	"time"
)

// Priority classifies a call for admission ordering.
type Priority int

const (
	// PriorityLow is for background work such as list walks and exports.
	PriorityLow Priority = iota
	// PriorityNormal is the default for interactive calls.
	PriorityNormal
	// PriorityHigh is for calls that should jump the queue.
	PriorityHigh

	numPriorities = 3
)

// String returns the string representation of the priority.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// ConcurrencyConfig configures the admission queue.
type ConcurrencyConfig struct {
	// MaxConcurrent is the number of execution slots.
	// Default: 16
	MaxConcurrent int

	// QueueSize is the maximum number of parked waiters across all
	// priority classes.
	// Default: 0 (no waiting; calls fail fast when all slots are busy)
	QueueSize int

	// WaitTimeout is how long a call may wait for a slot when no per-call
	// deadline is given.
	// Default: 30 seconds
	WaitTimeout time.Duration
}

// waiter is a parked admission request. granted and err are written under
// the queue mutex before ready is closed, so a resumed waiter reads them
// without further locking.
type waiter struct {
	priority   Priority
	enqueuedAt time.Time
	ready      chan struct{}
	granted    bool
	err        error
}

// AdmissionQueue gates access to a fixed number of execution slots. When
// all slots are busy, callers park in per-priority FIFO buckets up to
// QueueSize total. Released slots are handed to the highest-priority
// waiter first; within a bucket, first enqueued wins.
//
// There is no aging: a perpetually busy higher-priority bucket starves
// lower ones. That is the intended trade-off.
type AdmissionQueue struct {
	config ConcurrencyConfig

	mu         sync.Mutex
	active     int
	maxReached int
	waiting    int
	buckets    [numPriorities][]*waiter
	changed    chan struct{}
}

// NewAdmissionQueue creates an admission queue with all slots free.
func NewAdmissionQueue(config ConcurrencyConfig) *AdmissionQueue {
	// Apply defaults
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 16
	}
	if config.QueueSize < 0 {
		config.QueueSize = 0
	}
	if config.WaitTimeout <= 0 {
		config.WaitTimeout = 30 * time.Second
	}

	return &AdmissionQueue{
		config:  config,
		changed: make(chan struct{}, 1),
	}
}

// Admit acquires an execution slot. If none is free it parks the caller
// for up to wait (the configured WaitTimeout when wait <= 0). It returns
// nil once a slot is held, ErrQueueFull when the queue is at capacity,
// ErrTimeout when the wait deadline elapses first, or ctx.Err() when the
// context is canceled while parked.
func (q *AdmissionQueue) Admit(ctx context.Context, p Priority, wait time.Duration) error {
	if wait <= 0 {
		wait = q.config.WaitTimeout
	}

	q.mu.Lock()
	if q.active < q.config.MaxConcurrent {
		q.active++
		if q.active > q.maxReached {
			q.maxReached = q.active
		}
		q.mu.Unlock()
		return nil
	}

	if q.waiting >= q.config.QueueSize {
		q.mu.Unlock()
		return ErrQueueFull
	}

	w := &waiter{
		priority:   p,
		enqueuedAt: time.Now(),
		ready:      make(chan struct{}),
	}
	q.buckets[p] = append(q.buckets[p], w)
	q.waiting++
	q.mu.Unlock()

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-w.ready:
		return w.err
	case <-timer.C:
		return q.abandon(w, ErrTimeout)
	case <-ctx.Done():
		return q.abandon(w, ctx.Err())
	}
}

// abandon resolves the race between a grant and a deadline. The claim is
// decided under the queue mutex: a waiter that was already granted keeps
// its slot, otherwise it is removed and fails with cause.
func (q *AdmissionQueue) abandon(w *waiter, cause error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if w.granted {
		return nil
	}
	if w.err != nil {
		return w.err
	}

	q.removeLocked(w)
	q.waiting--
	q.signalLocked()
	return cause
}

// Release returns an execution slot. If a waiter is parked, the slot is
// handed to it directly without passing through the free state, so the
// active count never dips and no other caller can steal the slot.
func (q *AdmissionQueue) Release() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if w := q.nextLocked(); w != nil {
		w.granted = true
		close(w.ready)
		q.waiting--
		return
	}

	if q.active > 0 {
		q.active--
	}
	q.signalLocked()
}

// nextLocked pops the next waiter in strict priority order, FIFO within a
// bucket.
func (q *AdmissionQueue) nextLocked() *waiter {
	for p := int(PriorityHigh); p >= int(PriorityLow); p-- {
		if len(q.buckets[p]) > 0 {
			w := q.buckets[p][0]
			q.buckets[p] = q.buckets[p][1:]
			return w
		}
	}
	return nil
}

func (q *AdmissionQueue) removeLocked(w *waiter) {
	b := q.buckets[w.priority]
	for i, x := range b {
		if x == w {
			q.buckets[w.priority] = append(b[:i], b[i+1:]...)
			return
		}
	}
}

func (q *AdmissionQueue) signalLocked() {
	select {
	case q.changed <- struct{}{}:
	default:
	}
}

// Drain blocks until every slot is released and every waiter is gone.
// Parked waiters keep draining through the slots naturally. When ctx
// expires first, all still-parked waiters are rejected with ErrDraining
// and Drain returns ctx.Err() having waited only for in-flight work.
func (q *AdmissionQueue) Drain(ctx context.Context) error {
	for {
		q.mu.Lock()
		idle := q.active == 0 && q.waiting == 0
		q.mu.Unlock()
		if idle {
			return nil
		}

		select {
		case <-q.changed:
		case <-ctx.Done():
			q.evictWaiters()
			return ctx.Err()
		}
	}
}

// evictWaiters rejects every parked waiter with ErrDraining.
func (q *AdmissionQueue) evictWaiters() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for p := range q.buckets {
		for _, w := range q.buckets[p] {
			w.err = ErrDraining
			close(w.ready)
		}
		q.buckets[p] = nil
	}
	q.waiting = 0
}

// Metrics returns current admission statistics.
func (q *AdmissionQueue) Metrics() AdmissionMetrics {
	q.mu.Lock()
	defer q.mu.Unlock()

	by := make(map[Priority]int, numPriorities)
	for p := range q.buckets {
		by[Priority(p)] = len(q.buckets[p])
	}

	return AdmissionMetrics{
		Active:            q.active,
		MaxReached:        q.maxReached,
		Waiting:           q.waiting,
		WaitingByPriority: by,
	}
}

// AdmissionMetrics contains admission queue statistics.
type AdmissionMetrics struct {
	Active            int
	MaxReached        int
	Waiting           int
	WaitingByPriority map[Priority]int
}
