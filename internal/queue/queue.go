// Package queue is the bounded outbound FIFO between event ingest and
// the transport. A single worker drains it, wrapping each state in a
// message envelope. Dropped messages are acceptable by design: the next
// focus-lost workspace sync reconverges both sides.
package queue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tandemedit/tandem/internal/identity"
	"github.com/tandemedit/tandem/internal/protocol"
)

const (
	// capacity bounds the FIFO; on overflow the oldest entry is dropped.
	capacity = 100

	// sendPacing smooths bursts so the peer's reader is never flooded.
	sendPacing = 50 * time.Millisecond

	// shutdownTimeout bounds how long Stop waits for the worker.
	shutdownTimeout = 5 * time.Second
)

// sender is the transport surface the worker drains into.
type sender interface {
	Send(w protocol.MessageWrapper) bool
}

// SendQueue is a single-writer, single-reader bounded FIFO of outbound
// editor states.
type SendQueue struct {
	id     *identity.Identity
	out    sender
	logger *slog.Logger

	mu     sync.Mutex
	items  []protocol.EditorState
	closed bool

	notify chan struct{}
	done   chan struct{}
}

// New creates a stopped queue. Call Start to launch the worker.
func New(id *identity.Identity, out sender, logger *slog.Logger) *SendQueue {
	return &SendQueue{
		id:     id,
		out:    out,
		logger: logger,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Add enqueues a state without blocking. On overflow the head is
// dropped with a warning before the new state is appended. States from
// an unfocused window must never reach here; ingest enforces that.
func (q *SendQueue) Add(state protocol.EditorState) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}

	if len(q.items) >= capacity {
		dropped := q.items[0]
		q.items = q.items[1:]
		q.logger.Warn("send queue full, dropping oldest",
			slog.String("action", string(dropped.Action)),
			slog.String("path", dropped.FilePath),
		)
	}
	q.items = append(q.items, state)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Start launches the drain worker. It exits when ctx is cancelled.
func (q *SendQueue) Start(ctx context.Context) {
	go q.worker(ctx)
}

func (q *SendQueue) worker(ctx context.Context) {
	defer close(q.done)

	for {
		state, ok := q.Pop()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-q.notify:
				continue
			}
		}

		wrapper := q.id.Wrap(state)
		if !q.out.Send(wrapper) {
			// No retry: the wrapper is gone, the next workspace sync
			// reconciles whatever this message would have changed.
			q.logger.Debug("send failed, message dropped",
				slog.String("message_id", wrapper.MessageID),
				slog.String("action", string(state.Action)),
			)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(sendPacing):
		}
	}
}

// Pop removes and returns the head of the queue.
func (q *SendQueue) Pop() (protocol.EditorState, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return protocol.EditorState{}, false
	}
	state := q.items[0]
	q.items = q.items[1:]
	return state, true
}

// Stop clears the queue and waits for the worker to exit, up to the
// shutdown timeout. The caller cancels the worker's context first.
func (q *SendQueue) Stop() {
	q.mu.Lock()
	q.closed = true
	q.items = nil
	q.mu.Unlock()

	select {
	case <-q.done:
	case <-time.After(shutdownTimeout):
		q.logger.Warn("queue worker did not exit before timeout")
	}
}

// Len reports the number of queued states.
func (q *SendQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
