package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/odvcencio/satchel/pkg/logging"
)

// Action is a queued unit of asynchronous work. The coordinator observes no
// return value beyond the error; results travel out of band as bus
// notifications. Actions are never retried or re-queued.
type Action func(ctx context.Context) error

// QueueName identifies one of the two coordinator queues.
type QueueName string

const (
	// QueueBrowser holds actions that only need the interactive session.
	QueueBrowser QueueName = "browser"

	// QueueAPI holds actions that need harvested API credentials.
	QueueAPI QueueName = "api"
)

// queueState is the drain state machine: Idle, or Draining while the drain
// loop is executing. An explicit tag rather than a bare bool so the state
// transitions are inspectable.
type queueState int

const (
	stateIdle queueState = iota
	stateDraining
)

// gatedQueue is a FIFO of actions behind a one-way gate. Enqueue always
// succeeds; nothing executes until the gate opens. The drain loop runs
// actions strictly in arrival order, isolates per-action failures, and
// re-checks the queue after every action so items appended mid-drain are
// never stranded. The Draining tag is a re-entrancy guard: tryDrain may be
// called from any number of call sites without overlapping drain loops.
type gatedQueue struct {
	name   QueueName
	logger *logging.Logger

	mu      sync.Mutex
	pending []Action
	gate    bool
	state   queueState
}

func newGatedQueue(name QueueName, logger *logging.Logger) *gatedQueue {
	return &gatedQueue{
		name:   name,
		logger: logger,
	}
}

// Enqueue appends an action at the tail and attempts a drain. It succeeds
// synchronously regardless of gate state; the queue is unbounded.
func (q *gatedQueue) Enqueue(ctx context.Context, a Action) {
	q.mu.Lock()
	q.pending = append(q.pending, a)
	q.mu.Unlock()

	metricActionsEnqueued.WithLabelValues(string(q.name)).Inc()
	q.tryDrain(ctx)
}

// OpenGate opens the queue's gate. The gate is a one-way latch: the first
// call opens it and triggers a drain, later calls are no-ops.
func (q *gatedQueue) OpenGate(ctx context.Context) {
	q.mu.Lock()
	if q.gate {
		q.mu.Unlock()
		return
	}
	q.gate = true
	q.mu.Unlock()

	metricGateOpened.WithLabelValues(string(q.name)).Inc()
	q.logger.Debug(logging.CategoryQueue, "gate_opened", fmt.Sprintf("%s queue gate opened", q.name), nil)
	q.tryDrain(ctx)
}

// GateOpen reports whether the gate has opened.
func (q *gatedQueue) GateOpen() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.gate
}

// Len returns the number of actions awaiting execution.
func (q *gatedQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// tryDrain runs the drain loop unless the gate is closed or a drain is
// already in progress.
func (q *gatedQueue) tryDrain(ctx context.Context) {
	q.mu.Lock()
	if !q.gate || q.state == stateDraining {
		q.mu.Unlock()
		return
	}
	q.state = stateDraining

	for len(q.pending) > 0 {
		a := q.pending[0]
		q.pending = q.pending[1:]
		q.mu.Unlock()

		if err := q.runIsolated(ctx, a); err != nil {
			metricActionsFailed.WithLabelValues(string(q.name)).Inc()
			q.logger.Error(logging.CategoryQueue, "action_failed",
				fmt.Sprintf("%s queue action failed: %v", q.name, err),
				map[string]any{"queue": string(q.name)})
		} else {
			metricActionsExecuted.WithLabelValues(string(q.name)).Inc()
		}

		// Re-acquire and re-check: actions enqueued while this one ran
		// must drain in the same loop.
		q.mu.Lock()
	}

	q.state = stateIdle
	q.mu.Unlock()
}

// runIsolated is the per-action failure boundary. A panicking action is
// reported like any failing one and must not take down the drain loop.
func (q *gatedQueue) runIsolated(ctx context.Context, a Action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action panic: %v", r)
		}
	}()
	return a(ctx)
}
