// Package eventbus is the in-process Event Bus Adapter (C10): it fans
// typed CrawlEvents out from the scheduler's workers to every subscriber
// registered for a job, buffering per-subscriber and dropping only the
// droppable event kinds under back-pressure.
package eventbus

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/flightcrawl/enginecore/domain"
)

// DefaultBufferDepth is the per-subscriber channel capacity before the bus
// starts dropping droppable events for that subscriber.
const DefaultBufferDepth = 64

// Bus is a concrete domain.Publisher/domain.Subscriber pair: one process-
// wide instance is shared by every crawl; subscriptions are scoped by
// job id.
type Bus struct {
	bufferDepth int

	mu   sync.RWMutex
	subs map[string]map[int64]chan domain.CrawlEvent

	nextSubID int64
	seq       map[string]*int64
	seqMu     sync.Mutex
}

// New constructs a Bus with the given per-subscriber buffer depth. A
// depth of 0 selects DefaultBufferDepth.
func New(bufferDepth int) *Bus {
	if bufferDepth <= 0 {
		bufferDepth = DefaultBufferDepth
	}
	return &Bus{
		bufferDepth: bufferDepth,
		subs:        make(map[string]map[int64]chan domain.CrawlEvent),
		seq:         make(map[string]*int64),
	}
}

// Publish delivers event to every subscriber of event.JobID. MessageID is
// generated here when empty so every publish is idempotency-checkable by
// subscribers; Timestamp and Seq are stamped here so callers never need to
// track per-job sequencing themselves. Publish never blocks indefinitely:
// a full subscriber channel causes a droppable event to be silently
// dropped for that one subscriber, and a non-droppable event to be sent
// with a short bounded wait before being dropped with an error logged by
// the caller's own logger (the bus itself does not log).
func (b *Bus) Publish(ctx context.Context, event domain.CrawlEvent) error {
	if event.MessageID == "" {
		event.MessageID = newMessageID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	event.Seq = b.nextSeq(event.JobID)

	b.mu.RLock()
	subscribers := b.subs[event.JobID]
	channels := make([]chan domain.CrawlEvent, 0, len(subscribers))
	for _, ch := range subscribers {
		channels = append(channels, ch)
	}
	b.mu.RUnlock()

	var dropped int
	for _, ch := range channels {
		if !b.deliver(ctx, ch, event) {
			dropped++
		}
	}
	if dropped > 0 && !event.Kind.Droppable() {
		return fmt.Errorf("eventbus: failed to deliver non-droppable event %q to %d subscriber(s)", event.Kind, dropped)
	}
	return nil
}

// deliver attempts a non-blocking send first; for a droppable event kind
// that's the whole story. For a non-droppable kind it falls back to a
// short bounded wait so a momentarily-busy subscriber doesn't lose a
// JobStarted/SiteFailed/JobCompleted event purely to scheduling jitter.
func (b *Bus) deliver(ctx context.Context, ch chan domain.CrawlEvent, event domain.CrawlEvent) bool {
	select {
	case ch <- event:
		return true
	default:
	}

	if event.Kind.Droppable() {
		return false
	}

	timer := time.NewTimer(50 * time.Millisecond)
	defer timer.Stop()
	select {
	case ch <- event:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}

// Subscribe registers a new subscriber for jobID and returns its event
// channel plus an unsubscribe func the caller must invoke exactly once
// when done (typically via defer).
func (b *Bus) Subscribe(jobID string) (<-chan domain.CrawlEvent, func()) {
	id := atomic.AddInt64(&b.nextSubID, 1)
	ch := make(chan domain.CrawlEvent, b.bufferDepth)

	b.mu.Lock()
	if b.subs[jobID] == nil {
		b.subs[jobID] = make(map[int64]chan domain.CrawlEvent)
	}
	b.subs[jobID][id] = ch
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if job, ok := b.subs[jobID]; ok {
			delete(job, id)
			if len(job) == 0 {
				delete(b.subs, jobID)
			}
		}
		close(ch)
	}
	return ch, unsubscribe
}

func (b *Bus) nextSeq(jobID string) int64 {
	b.seqMu.Lock()
	defer b.seqMu.Unlock()
	counter, ok := b.seq[jobID]
	if !ok {
		var zero int64
		counter = &zero
		b.seq[jobID] = counter
	}
	*counter++
	return *counter
}

func newMessageID() string {
	var buf [16]byte
	_, _ = rand.Read(buf[:])
	return hex.EncodeToString(buf[:])
}
