// Package inbound filters raw sync frames down to the messages the
// apply stage is allowed to act on: not ours, not seen before, not
// observational, not stale.
package inbound

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/tandemedit/tandem/internal/protocol"
)

const (
	// dedupCapacity bounds the message ID table. With a single remote
	// sender the table is near-redundant, but it keeps the pipeline
	// correct if the transport is ever swapped for a broadcast variant.
	dedupCapacity = 1000

	// dedupWindow is how long a message ID is remembered.
	dedupWindow = 300 * time.Second

	// staleAfter drops messages whose payload timestamp is too old to
	// reflect the sender's current state.
	staleAfter = 5 * time.Second
)

// applier receives messages that passed every filter.
type applier interface {
	Apply(w *protocol.MessageWrapper)
}

// dedupEntry records when a message ID was first seen.
type dedupEntry struct {
	id         string
	receivedAt time.Time
}

// Processor is the inbound half of the pipeline. Frames arrive from the
// transport's read goroutine with heartbeats already stripped.
type Processor struct {
	selfID string
	apply  applier
	logger *slog.Logger

	// now is swappable for tests.
	now func() time.Time

	mu    sync.Mutex
	seen  map[string]time.Time
	order []dedupEntry
}

// New creates a processor that forwards surviving messages to apply.
func New(selfID string, apply applier, logger *slog.Logger) *Processor {
	return &Processor{
		selfID: selfID,
		apply:  apply,
		logger: logger,
		now:    time.Now,
		seen:   make(map[string]time.Time),
	}
}

// HandleFrame processes one raw sync frame.
func (p *Processor) HandleFrame(data []byte) {
	var wrapper protocol.MessageWrapper
	if err := json.Unmarshal(data, &wrapper); err != nil {
		p.logger.Warn("dropping unparseable frame",
			slog.Int("bytes", len(data)),
			slog.String("error", err.Error()),
		)
		return
	}

	// Loop suppression: our own messages come back in a broadcast
	// variant. Silent by contract.
	if wrapper.SenderID == p.selfID {
		return
	}

	if !p.remember(wrapper.MessageID) {
		return
	}

	payload := &wrapper.Payload

	// Observational: the sender's window was not focused. Only the
	// focused side commands.
	if !payload.IsActive {
		p.logger.Debug("dropping observational message",
			slog.String("message_id", wrapper.MessageID),
		)
		return
	}

	sent, err := protocol.ParseTimestamp(payload.Timestamp)
	if err != nil {
		p.logger.Warn("dropping message with bad timestamp",
			slog.String("message_id", wrapper.MessageID),
			slog.String("timestamp", payload.Timestamp),
		)
		return
	}

	if age := p.now().Sub(sent); age > staleAfter {
		p.logger.Debug("dropping stale message",
			slog.String("message_id", wrapper.MessageID),
			slog.Duration("age", age),
		)
		return
	}

	p.apply.Apply(&wrapper)
}

// remember returns false when the message ID was already seen, and
// otherwise records it, evicting when the table outgrows its cap.
func (p *Processor) remember(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, dup := p.seen[id]; dup {
		return false
	}

	now := p.now()
	p.seen[id] = now
	p.order = append(p.order, dedupEntry{id: id, receivedAt: now})

	if len(p.seen) > dedupCapacity {
		p.evictLocked(now)
	}
	return true
}

// evictLocked first drops entries older than the dedup window, then, if
// the table is still over capacity, drops the oldest arrivals.
func (p *Processor) evictLocked(now time.Time) {
	cutoff := now.Add(-dedupWindow)

	kept := p.order[:0]
	for _, e := range p.order {
		if e.receivedAt.Before(cutoff) {
			delete(p.seen, e.id)
			continue
		}
		kept = append(kept, e)
	}
	p.order = kept

	for len(p.seen) > dedupCapacity && len(p.order) > 0 {
		oldest := p.order[0]
		p.order = p.order[1:]
		delete(p.seen, oldest.id)
	}
}

// DedupSize reports the current dedup table size.
func (p *Processor) DedupSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.seen)
}
